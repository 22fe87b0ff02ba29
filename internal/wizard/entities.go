package wizard

import (
	"merchant-onboarding/internal/onboarding"
)

// The methods below run the aggregate reducers inside a session and
// schedule an auto-save. Location and device changes refresh the fees when
// the service has a calculator.

func (svc *Service) SetContactInfo(id string, info onboarding.ContactInfo) (*View, error) {
	return svc.mutate(id, func(d *onboarding.Data) error {
		d.SetContactInfo(info)
		return nil
	})
}

func (svc *Service) SetCompanyInfo(id string, info onboarding.CompanyInfo) (*View, error) {
	return svc.mutate(id, func(d *onboarding.Data) error {
		d.SetCompanyInfo(info)
		return nil
	})
}

// SaveLocation adds loc, or replaces the location with the same id.
func (svc *Service) SaveLocation(id string, loc onboarding.BusinessLocation) (*View, error) {
	return svc.mutate(id, func(d *onboarding.Data) error {
		if loc.ID == "" {
			d.AddLocation(loc)
		} else if err := d.UpdateLocation(loc); err != nil {
			return err
		}
		svc.refreshFees(d)
		return nil
	})
}

func (svc *Service) RemoveLocation(id, locationID string) (*View, error) {
	return svc.mutate(id, func(d *onboarding.Data) error {
		if err := d.RemoveLocation(locationID); err != nil {
			return err
		}
		svc.refreshFees(d)
		return nil
	})
}

func (svc *Service) MoveLocation(id string, from, to int) (*View, error) {
	return svc.mutate(id, func(d *onboarding.Data) error {
		return d.ReorderLocations(from, to)
	})
}

func (svc *Service) SetDeviceSelection(id string, sel onboarding.DeviceSelection) (*View, error) {
	return svc.mutate(id, func(d *onboarding.Data) error {
		d.SetDeviceSelection(sel)
		svc.refreshFees(d)
		return nil
	})
}

// SavePerson adds p, or replaces the authorized person with the same id.
func (svc *Service) SavePerson(id string, p onboarding.AuthorizedPerson) (*View, error) {
	return svc.mutate(id, func(d *onboarding.Data) error {
		if p.ID == "" {
			d.AddAuthorizedPerson(p)
			return nil
		}
		return d.UpdateAuthorizedPerson(p)
	})
}

func (svc *Service) RemovePerson(id, personID string) (*View, error) {
	return svc.mutate(id, func(d *onboarding.Data) error {
		return d.RemoveAuthorizedPerson(personID)
	})
}

// SaveOwner adds o, or replaces the actual owner with the same id.
func (svc *Service) SaveOwner(id string, o onboarding.ActualOwner) (*View, error) {
	return svc.mutate(id, func(d *onboarding.Data) error {
		if o.ID == "" {
			d.AddActualOwner(o)
			return nil
		}
		return d.UpdateActualOwner(o)
	})
}

func (svc *Service) RemoveOwner(id, ownerID string) (*View, error) {
	return svc.mutate(id, func(d *onboarding.Data) error {
		return d.RemoveActualOwner(ownerID)
	})
}

// SetConsents fails with onboarding.ErrUnknownSigningPerson when the signing
// person is not one of the authorized persons.
func (svc *Service) SetConsents(id string, c onboarding.Consents) (*View, error) {
	return svc.mutate(id, func(d *onboarding.Data) error {
		return d.SetConsents(c)
	})
}

func (svc *Service) refreshFees(d *onboarding.Data) {
	if svc.calc != nil {
		svc.calc.Apply(d)
	}
}
