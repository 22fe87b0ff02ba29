package autofill

import (
	"fmt"
	"strings"

	"merchant-onboarding/internal/onboarding"
)

func fullName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// ApplyAuthorizedPersonFromContact creates or refreshes the authorized
// person derived from the contact info.
func ApplyAuthorizedPersonFromContact(d *onboarding.Data) []onboarding.Notice {
	dec := AuthorizedPersonFromContact(d.ContactInfo, d.AuthorizedPersons)
	return applyPerson(d, dec, "kontaktných údajov")
}

// ApplyAuthorizedPersonFromCompanyContact creates or refreshes the
// authorized person derived from the company contact person.
func ApplyAuthorizedPersonFromCompanyContact(d *onboarding.Data) []onboarding.Notice {
	dec := AuthorizedPersonFromCompanyContact(d.CompanyInfo.ContactPerson, d.AuthorizedPersons)
	return applyPerson(d, dec, "kontaktnej osoby spoločnosti")
}

func applyPerson(d *onboarding.Data, dec Decision[onboarding.AuthorizedPerson], source string) []onboarding.Notice {
	name := fullName(dec.Candidate.FirstName, dec.Candidate.LastName)
	switch dec.Action {
	case ActionCreate:
		d.AddAuthorizedPerson(dec.Candidate)
		return []onboarding.Notice{onboarding.InfoNotice(
			"Oprávnená osoba predvyplnená",
			fmt.Sprintf("%s bol(a) pridaný(á) z %s.", name, source),
		)}
	case ActionUpdate:
		if err := d.UpdateAuthorizedPerson(dec.Candidate); err != nil {
			return nil
		}
		return []onboarding.Notice{onboarding.InfoNotice(
			"Oprávnená osoba aktualizovaná",
			fmt.Sprintf("Údaje osoby %s boli doplnené z %s.", name, source),
		)}
	}
	return nil
}

// ApplyActualOwnerFromContact creates or refreshes the actual owner derived
// from the contact info.
func ApplyActualOwnerFromContact(d *onboarding.Data) []onboarding.Notice {
	dec := ActualOwnerFromContact(d.ContactInfo, d.ActualOwners)
	name := fullName(dec.Candidate.FirstName, dec.Candidate.LastName)
	switch dec.Action {
	case ActionCreate:
		d.AddActualOwner(dec.Candidate)
		return []onboarding.Notice{onboarding.InfoNotice(
			"Konečný užívateľ výhod predvyplnený",
			fmt.Sprintf("%s bol(a) pridaný(á) z kontaktných údajov.", name),
		)}
	case ActionUpdate:
		if err := d.UpdateActualOwner(dec.Candidate); err != nil {
			return nil
		}
		return []onboarding.Notice{onboarding.InfoNotice(
			"Konečný užívateľ výhod aktualizovaný",
			fmt.Sprintf("Údaje osoby %s boli doplnené z kontaktných údajov.", name),
		)}
	}
	return nil
}

// ApplyLocationContacts fills the contact person of every location from the
// company contact person. One notice summarises all touched locations.
func ApplyLocationContacts(d *onboarding.Data) []onboarding.Notice {
	var touched []string
	for i := range d.BusinessLocations {
		dec := LocationContactFromCompany(d.CompanyInfo.ContactPerson, d.BusinessLocations[i])
		if dec.Action == ActionNone {
			continue
		}
		d.BusinessLocations[i].ContactPerson = dec.Candidate.ContactPerson
		name := d.BusinessLocations[i].Name
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		}
		touched = append(touched, name)
	}
	if len(touched) == 0 {
		return nil
	}
	return []onboarding.Notice{onboarding.InfoNotice(
		"Kontaktná osoba prevádzky predvyplnená",
		fmt.Sprintf("Prevádzky %s prevzali kontaktnú osobu spoločnosti.", strings.Join(touched, ", ")),
	)}
}

// ApplyDefaultSigningPerson selects the only authorized person as signing
// person when none is selected yet.
func ApplyDefaultSigningPerson(d *onboarding.Data) []onboarding.Notice {
	if d.Consents.SigningPersonID != "" || len(d.AuthorizedPersons) != 1 {
		return nil
	}
	p := d.AuthorizedPersons[0]
	c := d.Consents
	c.SigningPersonID = p.ID
	if err := d.SetConsents(c); err != nil {
		return nil
	}
	return []onboarding.Notice{onboarding.InfoNotice(
		"Podpisujúca osoba predvyplnená",
		fmt.Sprintf("Zmluvu podpíše %s.", fullName(p.FirstName, p.LastName)),
	)}
}
