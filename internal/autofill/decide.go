// Package autofill derives persons, owners and location contacts from data
// the merchant already entered on earlier steps.
//
// Decision functions are pure: they look at the relevant slices of the
// aggregate and return what should happen. Apply functions act on a
// decision by mutating the aggregate. Re-running a decision after applying
// it yields ActionNone.
package autofill

import (
	"strings"

	"merchant-onboarding/internal/onboarding"
)

// Action is the outcome of a decision function.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionNone   Action = "none"
)

// Decision carries the action and, for create and update, the entity to
// store. Existing and Index address the matched entity on update.
type Decision[T any] struct {
	Action    Action
	Existing  *T
	Index     int
	Candidate T
}

func none[T any]() Decision[T] {
	return Decision[T]{Action: ActionNone, Index: -1}
}

// PlaceholderEmails are default addresses shared by unrelated people. Two
// records with one of these are only the same person when phones match too.
var PlaceholderEmails = []string{"test@test.sk"}

type identity struct {
	first, last, email, phone string
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizePhone(s string) string {
	return strings.NewReplacer(" ", "", "-", "", "/", "").Replace(strings.TrimSpace(s))
}

func isPlaceholderEmail(email string) bool {
	e := normalize(email)
	for _, p := range PlaceholderEmails {
		if e == p {
			return true
		}
	}
	return false
}

// complete reports whether the identity has the minimum for creation. A
// placeholder email needs a phone, otherwise the record could never be
// matched again.
func (a identity) complete() bool {
	if normalize(a.first) == "" || normalize(a.last) == "" || normalize(a.email) == "" {
		return false
	}
	return !isPlaceholderEmail(a.email) || normalizePhone(a.phone) != ""
}

// same reports whether two identities describe one person.
func (a identity) same(b identity) bool {
	if normalize(a.first) != normalize(b.first) ||
		normalize(a.last) != normalize(b.last) ||
		normalize(a.email) != normalize(b.email) {
		return false
	}
	if isPlaceholderEmail(a.email) {
		pa, pb := normalizePhone(a.phone), normalizePhone(b.phone)
		return pa != "" && pa == pb
	}
	return true
}

// FullPhone joins a dial prefix and a number unless the number already
// carries an international prefix.
func FullPhone(prefix, phone string) string {
	phone = strings.TrimSpace(phone)
	prefix = strings.TrimSpace(prefix)
	if phone == "" || prefix == "" || strings.HasPrefix(phone, "+") {
		return phone
	}
	return prefix + phone
}

// fill copies the trimmed src into dst when it is not blank and differs.
func fill(dst *string, src string) bool {
	src = strings.TrimSpace(src)
	if src == "" || *dst == src {
		return false
	}
	*dst = src
	return true
}

func personIdentity(p onboarding.AuthorizedPerson) identity {
	return identity{p.FirstName, p.LastName, p.Email, p.Phone}
}

func ownerIdentity(o onboarding.ActualOwner) identity {
	return identity{o.FirstName, o.LastName, o.Email, o.Phone}
}

func contactPersonIdentity(c onboarding.ContactPerson) identity {
	return identity{c.FirstName, c.LastName, c.Email, FullPhone(c.PhonePrefix, c.Phone)}
}

func decidePerson(src identity, persons []onboarding.AuthorizedPerson) Decision[onboarding.AuthorizedPerson] {
	if !src.complete() {
		return none[onboarding.AuthorizedPerson]()
	}
	for i := range persons {
		if !personIdentity(persons[i]).same(src) {
			continue
		}
		merged := persons[i]
		changed := fill(&merged.FirstName, src.first)
		changed = fill(&merged.LastName, src.last) || changed
		changed = fill(&merged.Email, src.email) || changed
		changed = fill(&merged.Phone, src.phone) || changed
		if !changed {
			return none[onboarding.AuthorizedPerson]()
		}
		return Decision[onboarding.AuthorizedPerson]{
			Action:    ActionUpdate,
			Existing:  &persons[i],
			Index:     i,
			Candidate: merged,
		}
	}
	return Decision[onboarding.AuthorizedPerson]{
		Action: ActionCreate,
		Index:  -1,
		Candidate: onboarding.AuthorizedPerson{
			FirstName:          strings.TrimSpace(src.first),
			LastName:           strings.TrimSpace(src.last),
			Email:              strings.TrimSpace(src.email),
			Phone:              src.phone,
			CreatedFromContact: true,
		},
	}
}

// AuthorizedPersonFromContact decides whether the contact person of the
// first step should become or refresh an authorized person.
func AuthorizedPersonFromContact(c onboarding.ContactInfo, persons []onboarding.AuthorizedPerson) Decision[onboarding.AuthorizedPerson] {
	return decidePerson(identity{c.FirstName, c.LastName, c.Email, FullPhone(c.PhonePrefix, c.Phone)}, persons)
}

// AuthorizedPersonFromCompanyContact is AuthorizedPersonFromContact for the
// company's contact person.
func AuthorizedPersonFromCompanyContact(cp onboarding.ContactPerson, persons []onboarding.AuthorizedPerson) Decision[onboarding.AuthorizedPerson] {
	return decidePerson(contactPersonIdentity(cp), persons)
}

// ActualOwnerFromContact decides whether the contact person should become
// or refresh an actual owner.
func ActualOwnerFromContact(c onboarding.ContactInfo, owners []onboarding.ActualOwner) Decision[onboarding.ActualOwner] {
	src := identity{c.FirstName, c.LastName, c.Email, FullPhone(c.PhonePrefix, c.Phone)}
	if !src.complete() {
		return none[onboarding.ActualOwner]()
	}
	for i := range owners {
		if !ownerIdentity(owners[i]).same(src) {
			continue
		}
		merged := owners[i]
		changed := fill(&merged.FirstName, src.first)
		changed = fill(&merged.LastName, src.last) || changed
		changed = fill(&merged.Email, src.email) || changed
		changed = fill(&merged.Phone, src.phone) || changed
		if !changed {
			return none[onboarding.ActualOwner]()
		}
		return Decision[onboarding.ActualOwner]{Action: ActionUpdate, Existing: &owners[i], Index: i, Candidate: merged}
	}
	return Decision[onboarding.ActualOwner]{
		Action: ActionCreate,
		Index:  -1,
		Candidate: onboarding.ActualOwner{
			FirstName:          strings.TrimSpace(src.first),
			LastName:           strings.TrimSpace(src.last),
			Email:              strings.TrimSpace(src.email),
			Phone:              src.phone,
			CreatedFromContact: true,
		},
	}
}

// LocationContactFromCompany decides whether a location's contact person
// should be taken from the company contact person. An empty location
// contact is filled (create); the same person with gaps is merged (update);
// a different person is left alone.
func LocationContactFromCompany(cp onboarding.ContactPerson, loc onboarding.BusinessLocation) Decision[onboarding.BusinessLocation] {
	src := contactPersonIdentity(cp)
	if !src.complete() {
		return none[onboarding.BusinessLocation]()
	}
	existing := loc
	if loc.ContactPerson.IsEmpty() {
		loc.ContactPerson = cp
		return Decision[onboarding.BusinessLocation]{Action: ActionCreate, Existing: &existing, Index: loc.Position, Candidate: loc}
	}
	if !contactPersonIdentity(loc.ContactPerson).same(src) {
		return none[onboarding.BusinessLocation]()
	}
	merged := loc.ContactPerson
	changed := fill(&merged.FirstName, cp.FirstName)
	changed = fill(&merged.LastName, cp.LastName) || changed
	changed = fill(&merged.Email, cp.Email) || changed
	changed = fill(&merged.Phone, cp.Phone) || changed
	changed = fill(&merged.PhonePrefix, cp.PhonePrefix) || changed
	if !changed {
		return none[onboarding.BusinessLocation]()
	}
	loc.ContactPerson = merged
	return Decision[onboarding.BusinessLocation]{Action: ActionUpdate, Existing: &existing, Index: loc.Position, Candidate: loc}
}
