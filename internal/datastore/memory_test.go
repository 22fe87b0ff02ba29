package datastore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-onboarding/internal/onboarding"
	"merchant-onboarding/internal/store"
)

func TestNewDataStore_UnsupportedType(t *testing.T) {
	_, err := NewDataStore(Config{Type: "sqlite"})
	var unsupported *UnsupportedStoreTypeError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "unsupported store type: sqlite", err.Error())
}

func TestNewDataStore_MemoryWithSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	seed := `{
	  "configurations": [{"name": "pilot", "active": true, "steps": [
	    {"stepKey": "contact_info", "title": "Kontakt", "isEnabled": true,
	     "modules": [{"moduleKey": "contact_info", "moduleName": "Kontakt", "isEnabled": true}]}
	  ]}],
	  "translations": [{"locale": "sk", "key": "common.next", "value": "Ďalej"}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	ds, err := NewDataStore(Config{Type: MemoryStore, SeedDataPath: path})
	require.NoError(t, err)

	ctx := context.Background()
	cfg, err := ds.GetActiveConfiguration(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pilot", cfg.Name)

	steps, err := ds.ListSteps(ctx, cfg.ID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	require.Len(t, steps[0].Modules, 1)
	assert.Equal(t, steps[0].ID, steps[0].Modules[0].StepID)

	tr, err := ds.ListTranslations(ctx, "sk")
	require.NoError(t, err)
	require.Len(t, tr, 1)
	assert.Equal(t, "Ďalej", tr[0].Value)
}

func TestNewDataStore_MemoryWithYAMLSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	seed := `
configurations:
  - name: pilot
    active: true
    steps:
      - stepKey: contact_info
        title: Kontakt
        isEnabled: true
        fields:
          - fieldKey: referral
            fieldLabel: Odporúčanie
            fieldType: select
            isEnabled: true
            fieldOptions:
              options:
                - {value: web, label: Web}
                - {value: partner, label: Partner}
translations:
  - locale: en
    key: common.next
    value: Next
`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	ds, err := NewDataStore(Config{Type: MemoryStore, SeedDataPath: path})
	require.NoError(t, err)

	ctx := context.Background()
	cfg, err := ds.GetActiveConfiguration(ctx)
	require.NoError(t, err)
	steps, err := ds.ListSteps(ctx, cfg.ID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	require.Len(t, steps[0].Fields, 1)
	assert.Equal(t, onboarding.FieldSelect, steps[0].Fields[0].FieldType)
	require.Len(t, steps[0].Fields[0].Options.Options, 2)
	assert.Equal(t, "partner", steps[0].Fields[0].Options.Options[1].Value)

	tr, err := ds.ListTranslations(ctx, "en")
	require.NoError(t, err)
	require.Len(t, tr, 1)
}

func TestNewDataStore_MalformedYAMLSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yml")
	require.NoError(t, os.WriteFile(path, []byte("configurations: [\n"), 0o600))
	_, err := NewDataStore(Config{Type: MemoryStore, SeedDataPath: path})
	assert.Error(t, err)
}

func TestMemory_ContractNumbersAreSequential(t *testing.T) {
	m := NewMemory()
	m.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	a := &store.Contract{}
	b := &store.Contract{}
	require.NoError(t, m.CreateContract(ctx, a))
	require.NoError(t, m.CreateContract(ctx, b))

	assert.Equal(t, "ZML-2026-000001", a.ContractNumber)
	assert.Equal(t, "ZML-2026-000002", b.ContractNumber)
	assert.Equal(t, onboarding.StatusDraft, a.Status)
	assert.Equal(t, store.DefaultContractType, a.Type)
}

func TestMemory_WriteAndLoadAggregate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	c := &store.Contract{}
	require.NoError(t, m.CreateContract(ctx, c))

	require.NoError(t, m.InsertContactInfo(ctx, c.ID, onboarding.ContactInfo{FirstName: "Ján", LastName: "Novák"}))
	require.NoError(t, m.InsertBusinessLocations(ctx, c.ID, []onboarding.BusinessLocation{
		{ID: "a", Name: "A", Position: 7, EstimatedTurnover: decimal.NewFromInt(1000)},
		{ID: "b", Name: "B", Seasonality: onboarding.SeasonalitySeasonal, EstimatedTurnover: decimal.NewFromInt(500)},
	}))
	require.NoError(t, m.InsertDeviceSelection(ctx, c.ID, onboarding.DeviceSelection{SelectedSolutions: []string{"pos"}},
		onboarding.Fees{CustomerPayments: decimal.RequireFromString("42.50")}))
	require.NoError(t, m.SaveCustomFields(ctx, c.ID, map[string]any{"referral": "web"}))

	d, err := m.LoadAggregate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ján", d.ContactInfo.FirstName)
	require.Len(t, d.BusinessLocations, 2)
	assert.Equal(t, 0, d.BusinessLocations[0].Position)
	assert.Equal(t, onboarding.SeasonalityYearRound, d.BusinessLocations[0].Seasonality)
	assert.Equal(t, "web", d.CustomFields["referral"])

	d.ContactInfo.FirstName = "changed"
	again, err := m.LoadAggregate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ján", again.ContactInfo.FirstName, "loaded aggregate must be a copy")

	rows, err := m.ListContracts(ctx, store.ContractFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].LocationCount)
	assert.True(t, rows[0].TotalTurnover.Equal(decimal.NewFromInt(1500)))
	assert.True(t, rows[0].MonthlyFees.Equal(decimal.RequireFromString("42.50")))

	require.NoError(t, m.DeleteContractChildren(ctx, c.ID))
	d, err = m.LoadAggregate(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, d.BusinessLocations)
	assert.Equal(t, "web", d.CustomFields["referral"], "custom fields live on the contract row")
}

func TestMemory_WritersRequireContract(t *testing.T) {
	m := NewMemory()
	err := m.InsertConsents(context.Background(), "missing", onboarding.Consents{})
	assert.True(t, store.IsNotFound(err))
}

func TestMemory_ListContractsFilters(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, sp := range []string{"eva", "adam", "eva"} {
		at := base.Add(time.Duration(i) * 24 * time.Hour)
		m.now = func() time.Time { return at }
		require.NoError(t, m.CreateContract(ctx, &store.Contract{Salesperson: sp}))
	}

	rows, err := m.ListContracts(ctx, store.ContractFilter{Salesperson: "eva"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].CreatedAt.After(rows[1].CreatedAt), "newest first")

	from := base.Add(24 * time.Hour)
	rows, err = m.ListContracts(ctx, store.ContractFilter{From: &from})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	to := base.Add(24 * time.Hour)
	rows, err = m.ListContracts(ctx, store.ContractFilter{To: &to})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestMemory_BulkUpdateAndDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	a, b := &store.Contract{}, &store.Contract{}
	require.NoError(t, m.CreateContract(ctx, a))
	require.NoError(t, m.CreateContract(ctx, b))
	cid := a.ID
	require.NoError(t, m.CreateNotification(ctx, &store.Notification{ContractID: &cid, Kind: store.NotificationContractSubmitted}))

	status := onboarding.StatusSubmitted
	n, err := m.BulkUpdateContracts(ctx, []string{a.ID, b.ID, "missing"}, store.ContractPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	got, err := m.GetContract(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, onboarding.StatusSubmitted, got.Status)
	assert.NotNil(t, got.SubmittedAt)

	n, err = m.DeleteContracts(ctx, []string{a.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = m.GetContract(ctx, a.ID)
	assert.True(t, store.IsNotFound(err))

	list, err := m.ListNotifications(ctx, false, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].ContractID, "notification outlives its contract")
}

func TestMemory_ConfigurationReorderAndDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	cfg, err := m.SeedDefaultConfiguration(ctx, "default")
	require.NoError(t, err)

	steps, err := m.ListSteps(ctx, cfg.ID)
	require.NoError(t, err)
	require.Len(t, steps, len(onboarding.DefaultSteps()))

	ids := make([]string, len(steps))
	for i, st := range steps {
		ids[len(steps)-1-i] = st.ID
	}
	require.NoError(t, m.ReorderSteps(ctx, cfg.ID, ids))
	reordered, err := m.ListSteps(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, steps[len(steps)-1].StepKey, reordered[0].StepKey)
	for i, st := range reordered {
		assert.Equal(t, i, st.Position)
	}

	assert.Error(t, m.ReorderSteps(ctx, cfg.ID, ids[1:]))

	stepID := reordered[0].ID
	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, m.UpsertField(ctx, &onboarding.OnboardingField{
			StepID: stepID, FieldKey: key, FieldType: onboarding.FieldText, Position: len(key),
		}))
	}
	withFields, err := m.ListSteps(ctx, cfg.ID)
	require.NoError(t, err)
	fields := withFields[0].Fields
	require.Len(t, fields, 3)

	require.NoError(t, m.DeleteField(ctx, fields[0].ID))
	after, err := m.ListSteps(ctx, cfg.ID)
	require.NoError(t, err)
	require.Len(t, after[0].Fields, 2)
	for i, f := range after[0].Fields {
		assert.Equal(t, i, f.Position)
	}
	assert.True(t, store.IsNotFound(m.DeleteField(ctx, fields[0].ID)))
}

func TestMemory_ActiveConfigurationSwitches(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_, err := m.GetActiveConfiguration(ctx)
	assert.True(t, store.IsNotFound(err))

	first, err := m.CreateConfiguration(ctx, "first", true, nil)
	require.NoError(t, err)
	second, err := m.CreateConfiguration(ctx, "second", true, nil)
	require.NoError(t, err)

	active, err := m.GetActiveConfiguration(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
	assert.NotEqual(t, first.ID, active.ID)
}

func TestMemory_NotificationsAndTranslations(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for _, title := range []string{"one", "two", "three"} {
		require.NoError(t, m.CreateNotification(ctx, &store.Notification{Kind: store.NotificationStatusChanged, Title: title}))
	}
	list, err := m.ListNotifications(ctx, false, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "three", list[0].Title)

	require.NoError(t, m.MarkNotificationRead(ctx, list[0].ID))
	count, err := m.UnreadNotificationCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.NoError(t, m.MarkAllNotificationsRead(ctx))
	count, err = m.UnreadNotificationCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.True(t, store.IsNotFound(m.MarkNotificationRead(ctx, "missing")))

	require.NoError(t, m.UpsertTranslation(ctx, &store.Translation{Locale: "en", Key: "b", Value: "B"}))
	require.NoError(t, m.UpsertTranslation(ctx, &store.Translation{Locale: "en", Key: "a", Value: "A"}))
	require.NoError(t, m.UpsertTranslation(ctx, &store.Translation{Locale: "en", Key: "a", Value: "A2"}))
	tr, err := m.ListTranslations(ctx, "en")
	require.NoError(t, err)
	require.Len(t, tr, 2)
	assert.Equal(t, "A2", tr[0].Value)
	require.NoError(t, m.DeleteTranslation(ctx, "en", "a"))
	assert.True(t, store.IsNotFound(m.DeleteTranslation(ctx, "en", "a")))
}
