package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-onboarding/internal/fees"
	"merchant-onboarding/internal/onboarding"
	"merchant-onboarding/internal/registry"
)

func newRenderer() *Renderer {
	modules := registry.New()
	registry.RegisterDefaults(modules, fees.NewCalculator(fees.DefaultRates()))
	return New(modules)
}

func TestRender_RegisteredModuleFirst(t *testing.T) {
	step := onboarding.OnboardingStep{
		StepKey: "device_selection",
		Modules: []onboarding.StepModule{
			{ModuleKey: "solution_selection", Position: 0, IsEnabled: true},
		},
	}

	out := newRenderer().Render(step, onboarding.NewData())

	require.Len(t, out.Modules, 1)
	assert.Equal(t, "solution_selection", out.Modules[0].Key)
	assert.IsType(t, registry.SolutionView{}, out.Modules[0].View)
	assert.False(t, out.Placeholder)
}

func TestRender_UnregisteredModuleSkipped(t *testing.T) {
	step := onboarding.OnboardingStep{
		StepKey: "device_selection",
		Modules: []onboarding.StepModule{
			{ModuleKey: "nonexistent_module", Position: 0, IsEnabled: true},
			{ModuleKey: "solution_selection", Position: 1, IsEnabled: true},
		},
	}

	out := newRenderer().Render(step, onboarding.NewData())

	require.Len(t, out.Modules, 1)
	assert.Equal(t, "solution_selection", out.Modules[0].Key)
}

func TestRender_EmptyStepIsPlaceholder(t *testing.T) {
	steps := []onboarding.OnboardingStep{
		{StepKey: "empty"},
		{
			StepKey: "all_disabled",
			Fields:  []onboarding.OnboardingField{{FieldKey: "x", FieldType: onboarding.FieldText}},
			Modules: []onboarding.StepModule{{ModuleKey: "consents"}},
		},
	}

	for _, step := range steps {
		out := newRenderer().Render(step, nil)
		assert.True(t, out.Placeholder, step.StepKey)
		assert.Equal(t, MessageNothingConfigured, out.Message)
		assert.Empty(t, out.Modules)
		assert.Empty(t, out.Fields)
	}
}

func TestRender_FieldsSortedStable(t *testing.T) {
	step := onboarding.OnboardingStep{
		StepKey: "custom",
		Fields: []onboarding.OnboardingField{
			{FieldKey: "c", Position: 2, IsEnabled: true, FieldType: onboarding.FieldText},
			{FieldKey: "a1", Position: 0, IsEnabled: true, FieldType: onboarding.FieldText},
			{FieldKey: "hidden", Position: 0, IsEnabled: false, FieldType: onboarding.FieldText},
			{FieldKey: "b", Position: 1, IsEnabled: true, FieldType: onboarding.FieldText},
			{FieldKey: "a2", Position: 0, IsEnabled: true, FieldType: onboarding.FieldText},
		},
		Modules: []onboarding.StepModule{{ModuleKey: "contact_info", Position: 5, IsEnabled: true}},
	}

	out := newRenderer().Render(step, onboarding.NewData())

	keys := make([]string, 0, len(out.Fields))
	for _, f := range out.Fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"a1", "a2", "b", "c"}, keys)
	require.Len(t, out.Modules, 1)
}

func TestRender_ModulesSortedStable(t *testing.T) {
	step := onboarding.OnboardingStep{
		StepKey: "persons",
		Modules: []onboarding.StepModule{
			{ModuleKey: "contact_info", Position: 1, IsEnabled: true},
			{ModuleKey: "authorized_persons", Position: 0, IsEnabled: true},
			{ModuleKey: "company_info", Position: 0, IsEnabled: false},
			{ModuleKey: "actual_owners", Position: 0, IsEnabled: true},
			{ModuleKey: "fee_calculator", Position: 2, IsEnabled: true},
		},
	}

	out := newRenderer().Render(step, onboarding.NewData())

	keys := make([]string, 0, len(out.Modules))
	for _, m := range out.Modules {
		keys = append(keys, m.Key)
	}
	assert.Equal(t, []string{"authorized_persons", "actual_owners", "contact_info", "fee_calculator"}, keys)
}

func TestRender_BindsValues(t *testing.T) {
	d := onboarding.NewData()
	d.SetContactInfo(onboarding.ContactInfo{FirstName: "Ján"})
	d.SetCustomField("referral", "web")
	d.CustomFields["extra"] = map[string]any{"note": "hello"}

	step := onboarding.OnboardingStep{
		Fields: []onboarding.OnboardingField{
			{FieldKey: "contactInfo.firstName", IsEnabled: true, FieldType: onboarding.FieldText},
			{FieldKey: "referral", Position: 1, IsEnabled: true, FieldType: onboarding.FieldSelect},
			{FieldKey: "extra.note", Position: 2, IsEnabled: true, FieldType: onboarding.FieldTextarea},
			{FieldKey: "unset", Position: 3, IsEnabled: true, FieldType: onboarding.FieldText},
		},
	}

	out := newRenderer().Render(step, d)

	require.Len(t, out.Fields, 4)
	assert.Equal(t, "Ján", out.Fields[0].Value)
	assert.Equal(t, "web", out.Fields[1].Value)
	assert.Equal(t, "hello", out.Fields[2].Value)
	assert.Nil(t, out.Fields[3].Value)
	assert.True(t, out.Fields[1].Widget.UsesOption)
}

func TestApplyFieldChange_Section(t *testing.T) {
	d := onboarding.NewData()
	d.SetContactInfo(onboarding.ContactInfo{LastName: "Novák"})

	require.NoError(t, ApplyFieldChange(d, "contactInfo.firstName", "Ján"))
	require.NoError(t, ApplyFieldChange(d, "companyInfo.address.street", "Hlavná 1"))
	require.NoError(t, ApplyFieldChange(d, "companyInfo.contactAddress.city", "Trnava"))

	assert.Equal(t, "Ján", d.ContactInfo.FirstName)
	assert.Equal(t, "Novák", d.ContactInfo.LastName)
	assert.Equal(t, "Hlavná 1", d.CompanyInfo.Address.Street)
	require.NotNil(t, d.CompanyInfo.ContactAddress)
	assert.Equal(t, "Trnava", d.CompanyInfo.ContactAddress.City)

	assert.Error(t, ApplyFieldChange(d, "companyInfo.isVatPayer", "yes"))
	assert.Error(t, ApplyFieldChange(d, "contactInfo", "x"))
	assert.Error(t, ApplyFieldChange(d, "", "x"))
	assert.Equal(t, "Ján", d.ContactInfo.FirstName)
}

func TestApplyFieldChange_CustomFields(t *testing.T) {
	d := onboarding.NewData()

	require.NoError(t, ApplyFieldChange(d, "referral", "web"))
	require.NoError(t, ApplyFieldChange(d, "shop.platform", "woocommerce"))
	require.NoError(t, ApplyFieldChange(d, "shop.monthlyOrders", 120.0))

	assert.Equal(t, "web", d.CustomFields["referral"])
	v, ok := Lookup(d, "shop.platform")
	require.True(t, ok)
	assert.Equal(t, "woocommerce", v)
	assert.Equal(t, map[string]any{"platform": "woocommerce", "monthlyOrders": 120.0}, d.CustomFields["shop"])

	assert.Error(t, ApplyFieldChange(d, "referral.sub", "x"))
}

func TestApplyFieldChange_FailedNestedWriteKeepsFlatKey(t *testing.T) {
	d := onboarding.NewData()
	d.CustomFields["shop"] = "eshop"
	d.CustomFields["shop.platform"] = "shoptet"

	assert.Error(t, ApplyFieldChange(d, "shop.platform", "woocommerce"))
	assert.Equal(t, "shoptet", d.CustomFields["shop.platform"])
	assert.Equal(t, "eshop", d.CustomFields["shop"])

	delete(d.CustomFields, "shop")
	require.NoError(t, ApplyFieldChange(d, "shop.platform", "woocommerce"))
	_, flat := d.CustomFields["shop.platform"]
	assert.False(t, flat)
	assert.Equal(t, map[string]any{"platform": "woocommerce"}, d.CustomFields["shop"])
}

func TestValidateFields(t *testing.T) {
	d := onboarding.NewData()
	d.SetContactInfo(onboarding.ContactInfo{FirstName: "Ján"})
	step := onboarding.OnboardingStep{
		Fields: []onboarding.OnboardingField{
			{FieldKey: "contactInfo.firstName", IsRequired: true, IsEnabled: true, FieldType: onboarding.FieldText},
			{FieldKey: "contactInfo.email", IsRequired: true, IsEnabled: true, FieldType: onboarding.FieldEmail},
			{FieldKey: "terms", IsRequired: true, IsEnabled: true, FieldType: onboarding.FieldCheckbox},
			{FieldKey: "disabled", IsRequired: true, IsEnabled: false, FieldType: onboarding.FieldText},
			{FieldKey: "optional", IsEnabled: true, FieldType: onboarding.FieldText},
		},
	}

	assert.Equal(t, []string{"contactInfo.email", "terms"}, ValidateFields(step, d))
}
