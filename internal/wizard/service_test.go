package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-onboarding/internal/datastore"
	"merchant-onboarding/internal/fees"
	"merchant-onboarding/internal/onboarding"
	"merchant-onboarding/internal/registry"
	"merchant-onboarding/internal/renderer"
	"merchant-onboarding/internal/store"
	"merchant-onboarding/internal/submission"
)

func newTestService(t *testing.T, opts ...Option) (*Service, *datastore.Memory) {
	t.Helper()
	mem := datastore.NewMemory()
	calc := fees.NewCalculator(fees.DefaultRates())
	modules := registry.New()
	registry.RegisterDefaults(modules, calc)
	pipeline := submission.New(mem)
	opts = append([]Option{WithDebounce(10 * time.Millisecond)}, opts...)
	return NewService(mem, pipeline, renderer.New(modules), NewManager(), opts...), mem
}

func contactChanges() []FieldChange {
	return []FieldChange{
		{Key: "contactInfo.firstName", Value: "Ján"},
		{Key: "contactInfo.lastName", Value: "Novák"},
		{Key: "contactInfo.email", Value: "jan@example.sk"},
		{Key: "contactInfo.phone", Value: "900123456"},
	}
}

func TestStart_DefaultStepsWithoutConfiguration(t *testing.T) {
	svc, _ := newTestService(t)

	v, err := svc.Start(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, v.SessionID)
	assert.Empty(t, v.ContractID)
	require.Len(t, v.Steps, len(onboarding.DefaultSteps()))
	assert.Equal(t, onboarding.StepContactInfo, v.Steps[0].StepKey)
	assert.Equal(t, 1, svc.Sessions().Count())
}

func TestStart_UsesEnabledStepsOfActiveConfiguration(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()
	steps := onboarding.DefaultSteps()
	steps[1].IsEnabled = false
	_, err := mem.CreateConfiguration(ctx, "pilot", true, steps)
	require.NoError(t, err)

	v, err := svc.Start(ctx, "")
	require.NoError(t, err)
	require.Len(t, v.Steps, len(steps)-1)
	assert.Equal(t, onboarding.StepBusinessLocations, v.Steps[1].StepKey)
}

func TestStart_UnknownContract(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Start(context.Background(), "missing")
	assert.True(t, store.IsNotFound(err))
	assert.Zero(t, svc.Sessions().Count())
}

func TestNavigate_AutoFillsAuthorizedPersonFromContact(t *testing.T) {
	svc, _ := newTestService(t)
	v, err := svc.Start(context.Background(), "")
	require.NoError(t, err)

	_, err = svc.UpdateFields(v.SessionID, contactChanges())
	require.NoError(t, err)

	v, err = svc.Navigate(v.SessionID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, v.CurrentStep)
	require.Len(t, v.Data.AuthorizedPersons, 1)
	assert.Equal(t, "Ján", v.Data.AuthorizedPersons[0].FirstName)
	assert.Equal(t, "jan@example.sk", v.Data.AuthorizedPersons[0].Email)
	assert.NotEmpty(t, v.Notices)

	again, err := svc.Navigate(v.SessionID, 0)
	require.NoError(t, err)
	again, err = svc.Navigate(again.SessionID, 1)
	require.NoError(t, err)
	assert.Len(t, again.Data.AuthorizedPersons, 1, "auto-fill is idempotent")

	_, err = svc.Navigate(v.SessionID, 99)
	assert.True(t, errors.Is(err, ErrStepOutOfRange))
}

func TestNavigate_RequiredFieldBlocksForward(t *testing.T) {
	svc, mem := newTestService(t, WithLocale("en"))
	ctx := context.Background()
	steps := onboarding.DefaultSteps()
	steps[0].Fields = []onboarding.OnboardingField{{
		FieldKey: "referral", FieldLabel: "Referral", FieldType: onboarding.FieldText,
		IsRequired: true, IsEnabled: true,
	}}
	_, err := mem.CreateConfiguration(ctx, "pilot", true, steps)
	require.NoError(t, err)

	v, err := svc.Start(ctx, "")
	require.NoError(t, err)

	v, err = svc.Navigate(v.SessionID, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, v.CurrentStep)
	require.Len(t, v.Notices, 1)
	assert.Equal(t, onboarding.NoticeDestructive, v.Notices[0].Variant)
	assert.Contains(t, v.Notices[0].Description, "referral")

	_, err = svc.UpdateFields(v.SessionID, []FieldChange{{Key: "referral", Value: "partner"}})
	require.NoError(t, err)
	v, err = svc.Navigate(v.SessionID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, v.CurrentStep)

	rendered, err := svc.RenderStep(v.SessionID, 0)
	require.NoError(t, err)
	require.Len(t, rendered.Fields, 1)
	assert.Equal(t, "partner", rendered.Fields[0].Value)
}

func TestUpdateFields_AllOrNothing(t *testing.T) {
	svc, _ := newTestService(t)
	v, err := svc.Start(context.Background(), "")
	require.NoError(t, err)

	_, err = svc.UpdateFields(v.SessionID, []FieldChange{
		{Key: "contactInfo.firstName", Value: "Ján"},
		{Key: "contactInfo", Value: "whole section"},
	})
	require.Error(t, err)

	v, err = svc.Get(v.SessionID)
	require.NoError(t, err)
	assert.Empty(t, v.Data.ContactInfo.FirstName)
}

func TestUpdateFields_RejectsUnknownSigningPerson(t *testing.T) {
	svc, _ := newTestService(t)
	v, err := svc.Start(context.Background(), "")
	require.NoError(t, err)

	_, err = svc.UpdateFields(v.SessionID, []FieldChange{
		{Key: "consents.gdprConsent", Value: true},
		{Key: "consents.signingPersonId", Value: "ghost"},
	})
	assert.ErrorIs(t, err, onboarding.ErrUnknownSigningPerson)

	v, err = svc.Get(v.SessionID)
	require.NoError(t, err)
	assert.Empty(t, v.Data.Consents.SigningPersonID)
	assert.False(t, v.Data.Consents.GDPRConsent)
}

func TestUpdateFields_FeesAreReadOnly(t *testing.T) {
	svc, _ := newTestService(t)
	v, err := svc.Start(context.Background(), "")
	require.NoError(t, err)

	for _, key := range []string{"fees", "fees.totalTurnover"} {
		_, err = svc.UpdateFields(v.SessionID, []FieldChange{{Key: key, Value: "999999"}})
		assert.ErrorIs(t, err, ErrInvalidChange, key)
	}

	v, err = svc.Get(v.SessionID)
	require.NoError(t, err)
	assert.True(t, v.Data.Fees.TotalTurnover.IsZero())
}

func TestUpdateFields_CoercesCustomFieldByType(t *testing.T) {
	svc, mem := newTestService(t, WithLocale("en"))
	ctx := context.Background()
	steps := onboarding.DefaultSteps()
	steps[0].Fields = []onboarding.OnboardingField{{
		FieldKey: "termsRead", FieldLabel: "Terms read", FieldType: onboarding.FieldCheckbox,
		IsRequired: true, IsEnabled: true,
	}}
	_, err := mem.CreateConfiguration(ctx, "pilot", true, steps)
	require.NoError(t, err)

	v, err := svc.Start(ctx, "")
	require.NoError(t, err)

	v, err = svc.UpdateFields(v.SessionID, []FieldChange{{Key: "termsRead", Value: "false"}})
	require.NoError(t, err)
	assert.Equal(t, false, v.Data.CustomFields["termsRead"])

	v, err = svc.Navigate(v.SessionID, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, v.CurrentStep, "an unticked checkbox is not filled in")
	require.Len(t, v.Notices, 1)

	v, err = svc.UpdateFields(v.SessionID, []FieldChange{{Key: "termsRead", Value: "true"}})
	require.NoError(t, err)
	assert.Equal(t, true, v.Data.CustomFields["termsRead"])

	v, err = svc.Navigate(v.SessionID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, v.CurrentStep)
}

func TestRenderStep(t *testing.T) {
	svc, _ := newTestService(t)
	v, err := svc.Start(context.Background(), "")
	require.NoError(t, err)

	out, err := svc.RenderStep(v.SessionID, 3)
	require.NoError(t, err)
	require.Len(t, out.Modules, 1)
	assert.Equal(t, "solution_selection", out.Modules[0].Key)

	_, err = svc.RenderStep(v.SessionID, -1)
	assert.ErrorIs(t, err, ErrStepOutOfRange)
	_, err = svc.RenderStep("nope", 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestLocationChangesRefreshFees(t *testing.T) {
	svc, _ := newTestService(t, WithFeeCalculator(fees.NewCalculator(fees.DefaultRates())))
	v, err := svc.Start(context.Background(), "")
	require.NoError(t, err)

	v, err = svc.SaveLocation(v.SessionID, onboarding.BusinessLocation{Name: "Centrum", EstimatedTurnover: decimal.NewFromInt(10000)})
	require.NoError(t, err)
	require.Len(t, v.Data.BusinessLocations, 1)
	assert.True(t, v.Data.Fees.TotalTurnover.Equal(decimal.NewFromInt(10000)))

	v, err = svc.RemoveLocation(v.SessionID, v.Data.BusinessLocations[0].ID)
	require.NoError(t, err)
	assert.True(t, v.Data.Fees.TotalTurnover.IsZero())

	_, err = svc.RemoveLocation(v.SessionID, "missing")
	assert.ErrorIs(t, err, onboarding.ErrNotFound)
}

func TestRecalculate(t *testing.T) {
	svc, _ := newTestService(t)
	v, err := svc.Start(context.Background(), "")
	require.NoError(t, err)
	_, err = svc.SaveLocation(v.SessionID, onboarding.BusinessLocation{Name: "A", EstimatedTurnover: decimal.NewFromInt(2000)})
	require.NoError(t, err)

	f, err := svc.Recalculate(v.SessionID)
	require.NoError(t, err)
	assert.True(t, f.TotalTurnover.Equal(decimal.NewFromInt(2000)))
	assert.NotNil(t, f.CalculatedAt)
}

func TestSetConsents_UnknownSigningPerson(t *testing.T) {
	svc, _ := newTestService(t)
	v, err := svc.Start(context.Background(), "")
	require.NoError(t, err)

	_, err = svc.SetConsents(v.SessionID, onboarding.Consents{SigningPersonID: "ghost"})
	assert.ErrorIs(t, err, onboarding.ErrUnknownSigningPerson)
}

func TestAutoSaveForExistingContract(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()
	c := &store.Contract{}
	require.NoError(t, mem.CreateContract(ctx, c))

	v, err := svc.Start(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ContractNumber, v.ContractNumber)

	_, err = svc.UpdateFields(v.SessionID, contactChanges())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		d, err := mem.LoadAggregate(ctx, c.ID)
		return err == nil && d.ContactInfo.FirstName == "Ján"
	}, time.Second, 10*time.Millisecond)

	got, err := mem.GetContract(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, onboarding.StatusDraft, got.Status)
}

func TestSaveDraftEnablesAutoSave(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()
	v, err := svc.Start(ctx, "")
	require.NoError(t, err)

	res, err := svc.SaveDraft(ctx, v.SessionID)
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)
	require.NotEmpty(t, res.ContractID)

	_, err = svc.UpdateFields(v.SessionID, []FieldChange{{Key: "companyInfo.companyName", Value: "Kaviareň s.r.o."}})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		d, err := mem.LoadAggregate(ctx, res.ContractID)
		return err == nil && d.CompanyInfo.CompanyName == "Kaviareň s.r.o."
	}, time.Second, 10*time.Millisecond)
}

func TestSubmit(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()
	v, err := svc.Start(ctx, "")
	require.NoError(t, err)

	res, err := svc.Submit(ctx, v.SessionID)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, submission.SectionValidation, res.Section)
	_, err = svc.Get(v.SessionID)
	require.NoError(t, err, "failed submission keeps the session")

	_, err = svc.UpdateFields(v.SessionID, append(contactChanges(),
		FieldChange{Key: "companyInfo.companyName", Value: "Kaviareň s.r.o."}))
	require.NoError(t, err)

	res, err = svc.Submit(ctx, v.SessionID)
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)
	assert.NotEmpty(t, res.ContractNumber)

	_, err = svc.Get(v.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Submit(ctx, v.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	c, err := mem.GetContract(ctx, res.ContractID)
	require.NoError(t, err)
	assert.Equal(t, onboarding.StatusSubmitted, c.Status)
}

func TestEndFlushesPendingDraft(t *testing.T) {
	svc, mem := newTestService(t, WithDebounce(time.Hour))
	ctx := context.Background()
	c := &store.Contract{}
	require.NoError(t, mem.CreateContract(ctx, c))
	v, err := svc.Start(ctx, c.ID)
	require.NoError(t, err)

	_, err = svc.UpdateFields(v.SessionID, []FieldChange{{Key: "referral", Value: "web"}})
	require.NoError(t, err)
	require.NoError(t, svc.End(ctx, v.SessionID))

	d, err := mem.LoadAggregate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "web", d.CustomFields["referral"])
	assert.ErrorIs(t, svc.End(ctx, v.SessionID), ErrSessionNotFound)
}
