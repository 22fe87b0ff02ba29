package onboarding

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrUnknownSigningPerson is returned when consents reference a person that
// is not in the authorized persons list.
var ErrUnknownSigningPerson = errors.New("signing person is not an authorized person")

// ErrNotFound is returned by reducers addressing an id that does not exist.
var ErrNotFound = errors.New("entity not found")

// NewData returns an empty aggregate with non-nil collections.
func NewData() *Data {
	return &Data{
		BusinessLocations: []BusinessLocation{},
		DeviceSelection: DeviceSelection{
			SelectedSolutions: []string{},
			DynamicCards:      []DeviceCard{},
		},
		AuthorizedPersons: []AuthorizedPerson{},
		ActualOwners:      []ActualOwner{},
		CustomFields:      map[string]any{},
	}
}

// Clone returns a deep copy of d.
func (d *Data) Clone() (*Data, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal onboarding data: %w", err)
	}
	out := NewData()
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal onboarding data: %w", err)
	}
	return out, nil
}

// NewID returns a fresh client-side identifier.
func NewID() string {
	return uuid.New().String()
}

// SetContactInfo replaces the contact info slice.
// Post: d.ContactInfo == info.
func (d *Data) SetContactInfo(info ContactInfo) {
	d.ContactInfo = info
}

// SetCompanyInfo replaces the company info slice. When the contact address
// is flagged as the main address, the separate contact address is dropped.
func (d *Data) SetCompanyInfo(info CompanyInfo) {
	if info.ContactAddressSameAsMain {
		info.ContactAddress = nil
	}
	d.CompanyInfo = info
}

// AddLocation appends a location, assigning an id when blank.
// Post: the new location is last and positions are dense.
func (d *Data) AddLocation(loc BusinessLocation) BusinessLocation {
	if loc.ID == "" {
		loc.ID = NewID()
	}
	if loc.Seasonality == "" {
		loc.Seasonality = SeasonalityYearRound
	}
	d.BusinessLocations = append(d.BusinessLocations, loc)
	Renumber(d.BusinessLocations, setLocationPosition)
	return d.BusinessLocations[len(d.BusinessLocations)-1]
}

// UpdateLocation replaces the location with the same id, keeping its position.
func (d *Data) UpdateLocation(loc BusinessLocation) error {
	for i := range d.BusinessLocations {
		if d.BusinessLocations[i].ID == loc.ID {
			loc.Position = d.BusinessLocations[i].Position
			d.BusinessLocations[i] = loc
			return nil
		}
	}
	return fmt.Errorf("location %s: %w", loc.ID, ErrNotFound)
}

// RemoveLocation deletes a location and every device assignment pointing at it.
func (d *Data) RemoveLocation(id string) error {
	idx := -1
	for i := range d.BusinessLocations {
		if d.BusinessLocations[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("location %s: %w", id, ErrNotFound)
	}
	d.BusinessLocations = append(d.BusinessLocations[:idx], d.BusinessLocations[idx+1:]...)
	Renumber(d.BusinessLocations, setLocationPosition)

	kept := d.DeviceSelection.Assignments[:0]
	for _, a := range d.DeviceSelection.Assignments {
		if a.LocationID != id {
			kept = append(kept, a)
		}
	}
	d.DeviceSelection.Assignments = kept
	return nil
}

// ReorderLocations moves a location and renumbers positions.
func (d *Data) ReorderLocations(from, to int) error {
	out, err := Reorder(d.BusinessLocations, from, to, setLocationPosition)
	if err != nil {
		return err
	}
	d.BusinessLocations = out
	return nil
}

func setLocationPosition(l *BusinessLocation, pos int) { l.Position = pos }

// SetDeviceSelection replaces the device selection. Cards and addons get ids
// when blank; assignments to unknown locations or cards are dropped.
func (d *Data) SetDeviceSelection(sel DeviceSelection) {
	for i := range sel.DynamicCards {
		if sel.DynamicCards[i].ID == "" {
			sel.DynamicCards[i].ID = NewID()
		}
		for j := range sel.DynamicCards[i].Addons {
			if sel.DynamicCards[i].Addons[j].ID == "" {
				sel.DynamicCards[i].Addons[j].ID = NewID()
			}
		}
	}

	locations := make(map[string]bool, len(d.BusinessLocations))
	for _, l := range d.BusinessLocations {
		locations[l.ID] = true
	}
	cards := make(map[string]bool, len(sel.DynamicCards))
	for _, c := range sel.DynamicCards {
		cards[c.ID] = true
	}
	var assignments []LocationAssignment
	for _, a := range sel.Assignments {
		if locations[a.LocationID] && cards[a.CardID] {
			assignments = append(assignments, a)
		}
	}
	sel.Assignments = assignments
	if sel.SelectedSolutions == nil {
		sel.SelectedSolutions = []string{}
	}
	d.DeviceSelection = sel
}

// SetFees stores calculator output.
func (d *Data) SetFees(f Fees) {
	d.Fees = f
}

// AddAuthorizedPerson appends a person, assigning an id when blank.
func (d *Data) AddAuthorizedPerson(p AuthorizedPerson) AuthorizedPerson {
	if p.ID == "" {
		p.ID = NewID()
	}
	d.AuthorizedPersons = append(d.AuthorizedPersons, p)
	return p
}

// UpdateAuthorizedPerson replaces the person with the same id.
func (d *Data) UpdateAuthorizedPerson(p AuthorizedPerson) error {
	for i := range d.AuthorizedPersons {
		if d.AuthorizedPersons[i].ID == p.ID {
			d.AuthorizedPersons[i] = p
			return nil
		}
	}
	return fmt.Errorf("authorized person %s: %w", p.ID, ErrNotFound)
}

// RemoveAuthorizedPerson deletes a person. A signing person reference to it
// is cleared so consents never point at a missing person.
func (d *Data) RemoveAuthorizedPerson(id string) error {
	for i := range d.AuthorizedPersons {
		if d.AuthorizedPersons[i].ID == id {
			d.AuthorizedPersons = append(d.AuthorizedPersons[:i], d.AuthorizedPersons[i+1:]...)
			if d.Consents.SigningPersonID == id {
				d.Consents.SigningPersonID = ""
			}
			return nil
		}
	}
	return fmt.Errorf("authorized person %s: %w", id, ErrNotFound)
}

// AddActualOwner appends an owner, assigning an id when blank.
func (d *Data) AddActualOwner(o ActualOwner) ActualOwner {
	if o.ID == "" {
		o.ID = NewID()
	}
	d.ActualOwners = append(d.ActualOwners, o)
	return o
}

// UpdateActualOwner replaces the owner with the same id.
func (d *Data) UpdateActualOwner(o ActualOwner) error {
	for i := range d.ActualOwners {
		if d.ActualOwners[i].ID == o.ID {
			d.ActualOwners[i] = o
			return nil
		}
	}
	return fmt.Errorf("actual owner %s: %w", o.ID, ErrNotFound)
}

// RemoveActualOwner deletes an owner.
func (d *Data) RemoveActualOwner(id string) error {
	for i := range d.ActualOwners {
		if d.ActualOwners[i].ID == id {
			d.ActualOwners = append(d.ActualOwners[:i], d.ActualOwners[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("actual owner %s: %w", id, ErrNotFound)
}

// SetConsents replaces consents.
// Pre: c.SigningPersonID is empty or names an existing authorized person.
func (d *Data) SetConsents(c Consents) error {
	if c.SigningPersonID != "" && d.FindAuthorizedPerson(c.SigningPersonID) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownSigningPerson, c.SigningPersonID)
	}
	d.Consents = c
	return nil
}

// CheckReferences verifies cross-section references after a raw edit of
// the aggregate.
func (d *Data) CheckReferences() error {
	if id := d.Consents.SigningPersonID; id != "" && d.FindAuthorizedPerson(id) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownSigningPerson, id)
	}
	return nil
}

// FindAuthorizedPerson returns the person with id, or nil.
func (d *Data) FindAuthorizedPerson(id string) *AuthorizedPerson {
	for i := range d.AuthorizedPersons {
		if d.AuthorizedPersons[i].ID == id {
			return &d.AuthorizedPersons[i]
		}
	}
	return nil
}

// SetCustomField stores the value of a configured field that has no home in
// the typed sections.
func (d *Data) SetCustomField(key string, value any) {
	if d.CustomFields == nil {
		d.CustomFields = map[string]any{}
	}
	d.CustomFields[key] = value
}
