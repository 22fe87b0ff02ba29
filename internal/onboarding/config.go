package onboarding

import (
	"time"
)

// FieldType is the closed set of custom field widgets a step can carry.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldEmail       FieldType = "email"
	FieldPhone       FieldType = "phone"
	FieldTextarea    FieldType = "textarea"
	FieldSelect      FieldType = "select"
	FieldMultiselect FieldType = "multiselect"
	FieldCheckbox    FieldType = "checkbox"
	FieldRadio       FieldType = "radio"
	FieldDate        FieldType = "date"
	FieldNumber      FieldType = "number"
)

// FieldTypes lists every supported field type.
var FieldTypes = []FieldType{
	FieldText, FieldEmail, FieldPhone, FieldTextarea, FieldSelect,
	FieldMultiselect, FieldCheckbox, FieldRadio, FieldDate, FieldNumber,
}

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	for _, known := range FieldTypes {
		if t == known {
			return true
		}
	}
	return false
}

// FieldOption is one choice of a select, multiselect or radio field.
type FieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldOptions holds the type-specific settings of a field.
type FieldOptions struct {
	Placeholder string        `json:"placeholder,omitempty"`
	HelpText    string        `json:"helpText,omitempty"`
	Options     []FieldOption `json:"options,omitempty"`
	Min         *float64      `json:"min,omitempty"`
	Max         *float64      `json:"max,omitempty"`
}

// OnboardingField is a configurable custom field of a step.
type OnboardingField struct {
	ID         string       `json:"id"`
	StepID     string       `json:"stepId"`
	FieldKey   string       `json:"fieldKey"`
	FieldLabel string       `json:"fieldLabel"`
	FieldType  FieldType    `json:"fieldType"`
	IsRequired bool         `json:"isRequired"`
	IsEnabled  bool         `json:"isEnabled"`
	Position   int          `json:"position"`
	Options    FieldOptions `json:"fieldOptions"`
}

// StepModule attaches a registered module to a step.
type StepModule struct {
	ID            string         `json:"id"`
	StepID        string         `json:"stepId"`
	ModuleKey     string         `json:"moduleKey"`
	ModuleName    string         `json:"moduleName"`
	Position      int            `json:"position"`
	IsEnabled     bool           `json:"isEnabled"`
	Configuration map[string]any `json:"configuration,omitempty"`
}

// OnboardingStep is one configurable page of the wizard.
type OnboardingStep struct {
	ID              string            `json:"id"`
	ConfigurationID string            `json:"configurationId"`
	StepKey         string            `json:"stepKey"`
	Title           string            `json:"title"`
	Description     string            `json:"description,omitempty"`
	Position        int               `json:"position"`
	IsEnabled       bool              `json:"isEnabled"`
	Fields          []OnboardingField `json:"fields"`
	Modules         []StepModule      `json:"modules"`
}

// Configuration groups the steps of one wizard variant.
type Configuration struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// Well-known step keys of the default configuration.
const (
	StepContactInfo       = "contact_info"
	StepCompanyInfo       = "company_info"
	StepBusinessLocations = "business_locations"
	StepDeviceSelection   = "device_selection"
	StepFees              = "fees"
	StepPersons           = "authorized_persons"
	StepActualOwners      = "actual_owners"
	StepConsents          = "consents"
)

// DefaultSteps returns the stock wizard layout used by seed-config and by
// sessions started without a stored configuration.
func DefaultSteps() []OnboardingStep {
	step := func(key, title, module string) OnboardingStep {
		return OnboardingStep{
			StepKey:   key,
			Title:     title,
			IsEnabled: true,
			Modules: []StepModule{{
				ModuleKey:  module,
				ModuleName: title,
				IsEnabled:  true,
			}},
		}
	}
	steps := []OnboardingStep{
		step(StepContactInfo, "Kontaktné údaje", "contact_info"),
		step(StepCompanyInfo, "Údaje o spoločnosti", "company_info"),
		step(StepBusinessLocations, "Prevádzky", "business_locations"),
		step(StepDeviceSelection, "Výber riešenia", "solution_selection"),
		step(StepFees, "Kalkulačka poplatkov", "fee_calculator"),
		step(StepPersons, "Oprávnené osoby", "authorized_persons"),
		step(StepActualOwners, "Koneční užívatelia výhod", "actual_owners"),
		step(StepConsents, "Súhlasy", "consents"),
	}
	for i := range steps {
		steps[i].Position = i
	}
	return steps
}
