package submission

import (
	"fmt"
	"strings"
)

// Section names one persisted part of a submission.
type Section string

const (
	SectionValidation        Section = "validation"
	SectionContract          Section = "contract"
	SectionCleanup           Section = "cleanup"
	SectionContactInfo       Section = "contact_info"
	SectionCompanyInfo       Section = "company_info"
	SectionBusinessLocations Section = "business_locations"
	SectionDeviceSelection   Section = "device_selection"
	SectionAuthorizedPersons Section = "authorized_persons"
	SectionActualOwners      Section = "actual_owners"
	SectionConsents          Section = "consents"
	SectionCustomFields      Section = "custom_fields"
)

// DefaultLocale is the product's primary language.
const DefaultLocale = "sk"

var messages = map[string]map[Section]string{
	"sk": {
		SectionValidation:        "Vyplňte povinné údaje: %s",
		SectionContract:          "Nepodarilo sa uložiť zmluvu.",
		SectionCleanup:           "Nepodarilo sa odstrániť predchádzajúce údaje zmluvy.",
		SectionContactInfo:       "Nepodarilo sa uložiť kontaktné údaje.",
		SectionCompanyInfo:       "Nepodarilo sa uložiť údaje o spoločnosti.",
		SectionBusinessLocations: "Nepodarilo sa uložiť prevádzky.",
		SectionDeviceSelection:   "Nepodarilo sa uložiť výber zariadení.",
		SectionAuthorizedPersons: "Nepodarilo sa uložiť oprávnené osoby.",
		SectionActualOwners:      "Nepodarilo sa uložiť skutočných vlastníkov.",
		SectionConsents:          "Nepodarilo sa uložiť súhlasy.",
		SectionCustomFields:      "Nepodarilo sa uložiť doplňujúce údaje.",
	},
	"en": {
		SectionValidation:        "Please fill in the required fields: %s",
		SectionContract:          "Failed to save the contract.",
		SectionCleanup:           "Failed to remove the previous contract data.",
		SectionContactInfo:       "Failed to save contact information.",
		SectionCompanyInfo:       "Failed to save company information.",
		SectionBusinessLocations: "Failed to save business locations.",
		SectionDeviceSelection:   "Failed to save the device selection.",
		SectionAuthorizedPersons: "Failed to save authorized persons.",
		SectionActualOwners:      "Failed to save actual owners.",
		SectionConsents:          "Failed to save consents.",
		SectionCustomFields:      "Failed to save additional fields.",
	},
}

var submitted = map[string]string{
	"sk": "Zmluva %s bola odoslaná na spracovanie.",
	"en": "Contract %s was submitted for review.",
}

var titles = map[string][2]string{
	"sk": {"Zmluva bola odoslaná", "Chyba pri odosielaní"},
	"en": {"Contract submitted", "Submission failed"},
}

// Message returns the user-facing text for a section failure. Unknown
// locales fall back to English.
func Message(locale string, section Section) string {
	catalog, ok := messages[locale]
	if !ok {
		catalog = messages["en"]
	}
	return catalog[section]
}

func validationMessage(locale string, missing []string) string {
	return fmt.Sprintf(Message(locale, SectionValidation), strings.Join(missing, ", "))
}

func submittedMessage(locale, number string) string {
	msg, ok := submitted[locale]
	if !ok {
		msg = submitted["en"]
	}
	return fmt.Sprintf(msg, number)
}

func title(locale string, failed bool) string {
	t, ok := titles[locale]
	if !ok {
		t = titles["en"]
	}
	if failed {
		return t[1]
	}
	return t[0]
}

// SectionError reports which part of a submission failed.
type SectionError struct {
	Section Section
	Err     error
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Section, e.Err)
}

func (e *SectionError) Unwrap() error { return e.Err }

// Message returns the localized user-facing text.
func (e *SectionError) Message(locale string) string {
	return Message(locale, e.Section)
}

func wrap(section Section, err error) error {
	if err == nil {
		return nil
	}
	return &SectionError{Section: section, Err: err}
}
