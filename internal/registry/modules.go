package registry

import (
	"merchant-onboarding/internal/fees"
	"merchant-onboarding/internal/onboarding"
)

// Module categories.
const (
	CategoryData       = "data"
	CategoryCommercial = "commercial"
	CategoryPersons    = "persons"
	CategoryLegal      = "legal"
)

// SectionView is the payload of a module that edits one aggregate section.
type SectionView struct {
	Section string `json:"section"`
	Value   any    `json:"value"`
}

// LocationsView is the payload of the business_locations module.
type LocationsView struct {
	Locations    []onboarding.BusinessLocation `json:"locations"`
	MaxLocations int                           `json:"maxLocations,omitempty"`
}

// SolutionView is the payload of the solution_selection module.
type SolutionView struct {
	Selection onboarding.DeviceSelection    `json:"selection"`
	Locations []onboarding.BusinessLocation `json:"locations"`
}

// FeeView is the payload of the fee_calculator module.
type FeeView struct {
	Rates fees.Rates      `json:"rates"`
	Fees  onboarding.Fees `json:"fees"`
}

// ConsentsView is the payload of the consents module.
type ConsentsView struct {
	Consents          onboarding.Consents           `json:"consents"`
	SigningCandidates []onboarding.AuthorizedPerson `json:"signingCandidates"`
}

func section(name string, pick func(d *onboarding.Data) any) Component {
	return ComponentFunc(func(d *onboarding.Data, _ map[string]any) any {
		return SectionView{Section: name, Value: pick(d)}
	})
}

// RegisterDefaults registers the built-in modules of the wizard.
func RegisterDefaults(r *Registry, calc *fees.Calculator) {
	r.Register("contact_info", ModuleDefinition{
		Name:      "Contact info",
		Category:  CategoryData,
		Component: section("contactInfo", func(d *onboarding.Data) any { return d.ContactInfo }),
	})
	r.Register("company_info", ModuleDefinition{
		Name:      "Company info",
		Category:  CategoryData,
		Component: section("companyInfo", func(d *onboarding.Data) any { return d.CompanyInfo }),
	})
	r.Register("business_locations", ModuleDefinition{
		Name:     "Business locations",
		Category: CategoryData,
		ConfigSchema: map[string]ConfigProperty{
			"maxLocations": {Type: "number", Description: "Upper bound on locations, 0 for unlimited"},
		},
		Component: ComponentFunc(func(d *onboarding.Data, cfg map[string]any) any {
			return LocationsView{Locations: d.BusinessLocations, MaxLocations: intConfig(cfg, "maxLocations")}
		}),
	})
	r.Register("solution_selection", ModuleDefinition{
		Name:        "Solution selection",
		Category:    CategoryCommercial,
		Description: "Devices and services with per-location assignment",
		Component: ComponentFunc(func(d *onboarding.Data, _ map[string]any) any {
			return SolutionView{Selection: d.DeviceSelection, Locations: d.BusinessLocations}
		}),
	})
	r.Register("fee_calculator", ModuleDefinition{
		Name:     "Fee calculator",
		Category: CategoryCommercial,
		Component: ComponentFunc(func(d *onboarding.Data, _ map[string]any) any {
			return FeeView{Rates: calc.Rates(), Fees: calc.Calculate(d)}
		}),
	})
	r.Register("authorized_persons", ModuleDefinition{
		Name:      "Authorized persons",
		Category:  CategoryPersons,
		Component: section("authorizedPersons", func(d *onboarding.Data) any { return d.AuthorizedPersons }),
	})
	r.Register("actual_owners", ModuleDefinition{
		Name:      "Actual owners",
		Category:  CategoryPersons,
		Component: section("actualOwners", func(d *onboarding.Data) any { return d.ActualOwners }),
	})
	r.Register("consents", ModuleDefinition{
		Name:     "Consents",
		Category: CategoryLegal,
		Component: ComponentFunc(func(d *onboarding.Data, _ map[string]any) any {
			return ConsentsView{Consents: d.Consents, SigningCandidates: d.AuthorizedPersons}
		}),
	})
}

func intConfig(cfg map[string]any, key string) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
