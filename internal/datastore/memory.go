package datastore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"merchant-onboarding/internal/onboarding"
	"merchant-onboarding/internal/store"
)

type memContract struct {
	contract store.Contract
	custom   map[string]any
	data     *onboarding.Data
}

// Memory is an in-process DataStore with the same observable behaviour as
// the PostgreSQL store. It backs local development and tests.
type Memory struct {
	mu  sync.RWMutex
	now func() time.Time
	seq int

	contracts     map[string]*memContract
	configs       map[string]*onboarding.Configuration
	steps         map[string]*onboarding.OnboardingStep
	fields        map[string]*onboarding.OnboardingField
	modules       map[string]*onboarding.StepModule
	notifications []store.Notification
	translations  map[string]store.Translation
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		now:          time.Now,
		contracts:    make(map[string]*memContract),
		configs:      make(map[string]*onboarding.Configuration),
		steps:        make(map[string]*onboarding.OnboardingStep),
		fields:       make(map[string]*onboarding.OnboardingField),
		modules:      make(map[string]*onboarding.StepModule),
		translations: make(map[string]store.Translation),
	}
}

type seedConfiguration struct {
	Name   string                      `json:"name"`
	Active bool                        `json:"active"`
	Steps  []onboarding.OnboardingStep `json:"steps"`
}

type seedFile struct {
	Configurations []seedConfiguration `json:"configurations"`
	Translations   []store.Translation `json:"translations"`
}

// LoadSeed loads configurations and translations from a JSON or YAML file.
// YAML keys are the JSON field names.
func (m *Memory) LoadSeed(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed data: %w", err)
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		if raw, err = yamlToJSON(raw); err != nil {
			return fmt.Errorf("failed to parse seed data %s: %w", path, err)
		}
	}
	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("failed to parse seed data %s: %w", path, err)
	}
	ctx := context.Background()
	for _, c := range seed.Configurations {
		if _, err := m.CreateConfiguration(ctx, c.Name, c.Active, c.Steps); err != nil {
			return err
		}
	}
	for i := range seed.Translations {
		if err := m.UpsertTranslation(ctx, &seed.Translations[i]); err != nil {
			return err
		}
	}
	log.Printf("✅ Loaded %d configurations and %d translations from %s",
		len(seed.Configurations), len(seed.Translations), path)
	return nil
}

func yamlToJSON(raw []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Ping(ctx context.Context) error { return nil }

func notFound(what, id string) error {
	return fmt.Errorf("%s %s: %w", what, id, store.ErrNotFound)
}

func cloneMap(in map[string]any) map[string]any {
	out := map[string]any{}
	if len(in) == 0 {
		return out
	}
	raw, err := json.Marshal(in)
	if err != nil {
		log.Printf("⚠️ Failed to copy custom fields: %v", err)
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Printf("⚠️ Failed to copy custom fields: %v", err)
	}
	return out
}

// --- contracts ---

func (m *Memory) CreateContract(ctx context.Context, c *store.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.Status == "" {
		c.Status = onboarding.StatusDraft
	}
	if c.Type == "" {
		c.Type = store.DefaultContractType
	}
	now := m.now()
	m.seq++
	c.ID = uuid.New().String()
	c.ContractNumber = fmt.Sprintf("ZML-%d-%06d", now.Year(), m.seq)
	c.CreatedAt = now
	c.UpdatedAt = now
	m.contracts[c.ID] = &memContract{contract: *c, custom: map[string]any{}, data: onboarding.NewData()}
	return nil
}

func (m *Memory) GetContract(ctx context.Context, id string) (*store.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mc, ok := m.contracts[id]
	if !ok {
		return nil, notFound("contract", id)
	}
	c := mc.contract
	return &c, nil
}

func (m *Memory) UpdateContractStatus(ctx context.Context, id string, status onboarding.ContractStatus, submittedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mc, ok := m.contracts[id]
	if !ok {
		return notFound("contract", id)
	}
	mc.contract.Status = status
	if submittedAt != nil {
		t := *submittedAt
		mc.contract.SubmittedAt = &t
	}
	mc.contract.UpdatedAt = m.now()
	return nil
}

func (m *Memory) SaveCustomFields(ctx context.Context, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mc, ok := m.contracts[id]
	if !ok {
		return notFound("contract", id)
	}
	mc.custom = cloneMap(fields)
	mc.contract.UpdatedAt = m.now()
	return nil
}

func (m *Memory) LoadAggregate(ctx context.Context, contractID string) (*onboarding.Data, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mc, ok := m.contracts[contractID]
	if !ok {
		return nil, notFound("contract", contractID)
	}
	d, err := mc.data.Clone()
	if err != nil {
		return nil, err
	}
	d.CustomFields = cloneMap(mc.custom)
	return d, nil
}

// withContract runs fn on the stored sections of a contract. Writers on a
// missing contract fail like a violated foreign key.
func (m *Memory) withContract(contractID string, fn func(d *onboarding.Data)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mc, ok := m.contracts[contractID]
	if !ok {
		return notFound("contract", contractID)
	}
	fn(mc.data)
	return nil
}

func (m *Memory) DeleteContractChildren(ctx context.Context, contractID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mc, ok := m.contracts[contractID]; ok {
		mc.data = onboarding.NewData()
	}
	return nil
}

func (m *Memory) InsertContactInfo(ctx context.Context, contractID string, c onboarding.ContactInfo) error {
	return m.withContract(contractID, func(d *onboarding.Data) { d.ContactInfo = c })
}

func (m *Memory) InsertCompanyInfo(ctx context.Context, contractID string, c onboarding.CompanyInfo) error {
	if c.ContactAddressSameAsMain {
		c.ContactAddress = nil
	} else if c.ContactAddress != nil {
		a := *c.ContactAddress
		c.ContactAddress = &a
	}
	return m.withContract(contractID, func(d *onboarding.Data) { d.CompanyInfo = c })
}

func (m *Memory) InsertBusinessLocations(ctx context.Context, contractID string, locations []onboarding.BusinessLocation) error {
	return m.withContract(contractID, func(d *onboarding.Data) {
		for _, l := range locations {
			l.Position = len(d.BusinessLocations)
			if l.Seasonality == "" {
				l.Seasonality = onboarding.SeasonalityYearRound
			}
			l.OpeningHours = append([]onboarding.DayHours(nil), l.OpeningHours...)
			d.BusinessLocations = append(d.BusinessLocations, l)
		}
	})
}

func (m *Memory) InsertDeviceSelection(ctx context.Context, contractID string, sel onboarding.DeviceSelection, fees onboarding.Fees) error {
	return m.withContract(contractID, func(d *onboarding.Data) {
		d.DeviceSelection.SelectedSolutions = append([]string{}, sel.SelectedSolutions...)
		d.DeviceSelection.DynamicCards = append([]onboarding.DeviceCard{}, sel.DynamicCards...)
		d.DeviceSelection.Note = sel.Note
		d.DeviceSelection.Assignments = append(d.DeviceSelection.Assignments, sel.Assignments...)
		d.Fees = fees
	})
}

func (m *Memory) InsertAuthorizedPersons(ctx context.Context, contractID string, persons []onboarding.AuthorizedPerson) error {
	return m.withContract(contractID, func(d *onboarding.Data) {
		d.AuthorizedPersons = append(d.AuthorizedPersons, persons...)
	})
}

func (m *Memory) InsertActualOwners(ctx context.Context, contractID string, owners []onboarding.ActualOwner) error {
	return m.withContract(contractID, func(d *onboarding.Data) {
		d.ActualOwners = append(d.ActualOwners, owners...)
	})
}

func (m *Memory) InsertConsents(ctx context.Context, contractID string, c onboarding.Consents) error {
	return m.withContract(contractID, func(d *onboarding.Data) { d.Consents = c })
}

// --- configuration ---

func (m *Memory) GetActiveConfiguration(ctx context.Context) (*onboarding.Configuration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *onboarding.Configuration
	for _, c := range m.configs {
		if c.IsActive && (best == nil || c.CreatedAt.After(best.CreatedAt)) {
			best = c
		}
	}
	if best == nil {
		return nil, fmt.Errorf("active configuration: %w", store.ErrNotFound)
	}
	out := *best
	return &out, nil
}

func (m *Memory) CreateConfiguration(ctx context.Context, name string, active bool, steps []onboarding.OnboardingStep) (*onboarding.Configuration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if active {
		for _, c := range m.configs {
			c.IsActive = false
		}
	}
	cfg := &onboarding.Configuration{ID: uuid.New().String(), Name: name, IsActive: active, CreatedAt: m.now()}
	m.configs[cfg.ID] = cfg

	for i, st := range steps {
		step := st
		if step.ID == "" {
			step.ID = uuid.New().String()
		}
		step.ConfigurationID = cfg.ID
		step.Position = i
		for j, f := range st.Fields {
			if f.ID == "" {
				f.ID = uuid.New().String()
			}
			f.StepID = step.ID
			f.Position = j
			m.fields[f.ID] = &f
		}
		for j, mod := range st.Modules {
			if mod.ID == "" {
				mod.ID = uuid.New().String()
			}
			mod.StepID = step.ID
			mod.Position = j
			m.modules[mod.ID] = &mod
		}
		step.Fields = nil
		step.Modules = nil
		m.steps[step.ID] = &step
	}
	out := *cfg
	return &out, nil
}

func (m *Memory) SeedDefaultConfiguration(ctx context.Context, name string) (*onboarding.Configuration, error) {
	return m.CreateConfiguration(ctx, name, true, onboarding.DefaultSteps())
}

func (m *Memory) ListSteps(ctx context.Context, configurationID string) ([]onboarding.OnboardingStep, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []onboarding.OnboardingStep{}
	for _, st := range m.steps {
		if st.ConfigurationID != configurationID {
			continue
		}
		step := *st
		step.Fields = []onboarding.OnboardingField{}
		step.Modules = []onboarding.StepModule{}
		for _, f := range m.fields {
			if f.StepID == step.ID {
				step.Fields = append(step.Fields, *f)
			}
		}
		for _, mod := range m.modules {
			if mod.StepID == step.ID {
				step.Modules = append(step.Modules, *mod)
			}
		}
		sort.Slice(step.Fields, func(i, j int) bool { return step.Fields[i].Position < step.Fields[j].Position })
		sort.Slice(step.Modules, func(i, j int) bool { return step.Modules[i].Position < step.Modules[j].Position })
		out = append(out, step)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *Memory) GetStep(ctx context.Context, id string) (*onboarding.OnboardingStep, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.steps[id]
	if !ok {
		return nil, notFound("step", id)
	}
	out := *st
	return &out, nil
}

func (m *Memory) UpsertStep(ctx context.Context, step *onboarding.OnboardingStep) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if step.ID == "" {
		step.ID = uuid.New().String()
	}
	stored := *step
	stored.Fields = nil
	stored.Modules = nil
	if existing, ok := m.steps[step.ID]; ok {
		stored.ConfigurationID = existing.ConfigurationID
	}
	m.steps[step.ID] = &stored
	return nil
}

func (m *Memory) UpsertField(ctx context.Context, f *onboarding.OnboardingField) error {
	if !f.FieldType.Valid() {
		return fmt.Errorf("unsupported field type %q", f.FieldType)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	stored := *f
	if existing, ok := m.fields[f.ID]; ok {
		stored.StepID = existing.StepID
	}
	m.fields[f.ID] = &stored
	return nil
}

func (m *Memory) UpsertStepModule(ctx context.Context, mod *onboarding.StepModule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mod.ID == "" {
		mod.ID = uuid.New().String()
	}
	stored := *mod
	if existing, ok := m.modules[mod.ID]; ok {
		stored.StepID = existing.StepID
	}
	m.modules[mod.ID] = &stored
	return nil
}

func (m *Memory) DeleteField(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fields[id]
	if !ok {
		return notFound("onboarding_fields", id)
	}
	delete(m.fields, id)
	siblings := m.fieldsOf(f.StepID)
	onboarding.Renumber(siblings, func(f **onboarding.OnboardingField, pos int) { (*f).Position = pos })
	return nil
}

func (m *Memory) DeleteStepModule(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mod, ok := m.modules[id]
	if !ok {
		return notFound("step_modules", id)
	}
	delete(m.modules, id)
	siblings := m.modulesOf(mod.StepID)
	onboarding.Renumber(siblings, func(mod **onboarding.StepModule, pos int) { (*mod).Position = pos })
	return nil
}

func (m *Memory) SetStepEnabled(ctx context.Context, id string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.steps[id]
	if !ok {
		return notFound("step", id)
	}
	st.IsEnabled = enabled
	return nil
}

func (m *Memory) ReorderSteps(ctx context.Context, configurationID string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var current []*onboarding.OnboardingStep
	for _, st := range m.steps {
		if st.ConfigurationID == configurationID {
			current = append(current, st)
		}
	}
	sort.Slice(current, func(i, j int) bool { return current[i].Position < current[j].Position })
	_, err := onboarding.ReorderByIDs(current, ids,
		func(st *onboarding.OnboardingStep) string { return st.ID },
		func(st **onboarding.OnboardingStep, pos int) { (*st).Position = pos })
	return err
}

func (m *Memory) ReorderFields(ctx context.Context, stepID string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := onboarding.ReorderByIDs(m.fieldsOf(stepID), ids,
		func(f *onboarding.OnboardingField) string { return f.ID },
		func(f **onboarding.OnboardingField, pos int) { (*f).Position = pos })
	return err
}

func (m *Memory) ReorderModules(ctx context.Context, stepID string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := onboarding.ReorderByIDs(m.modulesOf(stepID), ids,
		func(mod *onboarding.StepModule) string { return mod.ID },
		func(mod **onboarding.StepModule, pos int) { (*mod).Position = pos })
	return err
}

func (m *Memory) fieldsOf(stepID string) []*onboarding.OnboardingField {
	var out []*onboarding.OnboardingField
	for _, f := range m.fields {
		if f.StepID == stepID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func (m *Memory) modulesOf(stepID string) []*onboarding.StepModule {
	var out []*onboarding.StepModule
	for _, mod := range m.modules {
		if mod.StepID == stepID {
			out = append(out, mod)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// --- admin ---

func (m *Memory) ListContracts(ctx context.Context, f store.ContractFilter) ([]store.ContractSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []store.ContractSummary
	for _, mc := range m.contracts {
		c := mc.contract
		switch {
		case f.Status != "" && c.Status != f.Status,
			f.Type != "" && c.Type != f.Type,
			f.Salesperson != "" && c.Salesperson != f.Salesperson,
			f.From != nil && c.CreatedAt.Before(*f.From),
			f.To != nil && !c.CreatedAt.Before(*f.To):
			continue
		}
		d := mc.data
		turnover := decimal.Zero
		for _, l := range d.BusinessLocations {
			turnover = turnover.Add(l.EstimatedTurnover)
		}
		out = append(out, store.ContractSummary{
			Contract:         c,
			ContactFirstName: d.ContactInfo.FirstName,
			ContactLastName:  d.ContactInfo.LastName,
			ContactEmail:     d.ContactInfo.Email,
			ContactPhone:     d.ContactInfo.Phone,
			CompanyName:      d.CompanyInfo.CompanyName,
			CompanyICO:       d.CompanyInfo.RegistrationNumber,
			LocationCount:    len(d.BusinessLocations),
			TotalTurnover:    turnover,
			MonthlyFees:      d.Fees.CustomerPayments,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ContractNumber > out[j].ContractNumber
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) BulkUpdateContracts(ctx context.Context, ids []string, patch store.ContractPatch) (int64, error) {
	if len(ids) == 0 || patch.IsEmpty() {
		return 0, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var n int64
	for _, id := range ids {
		mc, ok := m.contracts[id]
		if !ok {
			continue
		}
		if patch.Status != nil {
			mc.contract.Status = *patch.Status
			if *patch.Status == onboarding.StatusSubmitted && mc.contract.SubmittedAt == nil {
				t := now
				mc.contract.SubmittedAt = &t
			}
		}
		if patch.Salesperson != nil {
			mc.contract.Salesperson = *patch.Salesperson
		}
		if patch.Type != nil {
			mc.contract.Type = *patch.Type
		}
		mc.contract.UpdatedAt = now
		n++
	}
	return n, nil
}

func (m *Memory) DeleteContracts(ctx context.Context, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.contracts[id]; !ok {
			continue
		}
		delete(m.contracts, id)
		n++
		for i := range m.notifications {
			if cid := m.notifications[i].ContractID; cid != nil && *cid == id {
				m.notifications[i].ContractID = nil
			}
		}
	}
	return n, nil
}

// --- notifications ---

func (m *Memory) CreateNotification(ctx context.Context, n *store.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = uuid.New().String()
	n.IsRead = false
	n.CreatedAt = m.now()
	stored := *n
	if n.ContractID != nil {
		cid := *n.ContractID
		stored.ContractID = &cid
	}
	m.notifications = append(m.notifications, stored)
	return nil
}

func (m *Memory) ListNotifications(ctx context.Context, unreadOnly bool, limit int) ([]store.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []store.Notification{}
	for i := len(m.notifications) - 1; i >= 0; i-- {
		n := m.notifications[i]
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) UnreadNotificationCount(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, n := range m.notifications {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *Memory) MarkNotificationRead(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notifications {
		if m.notifications[i].ID == id {
			m.notifications[i].IsRead = true
			return nil
		}
	}
	return notFound("notification", id)
}

func (m *Memory) MarkAllNotificationsRead(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notifications {
		m.notifications[i].IsRead = true
	}
	return nil
}

// --- translations ---

func translationKey(locale, key string) string { return locale + "\x00" + key }

func (m *Memory) ListTranslations(ctx context.Context, locale string) ([]store.Translation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []store.Translation{}
	for _, t := range m.translations {
		if t.Locale == locale {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *Memory) UpsertTranslation(ctx context.Context, t *store.Translation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.UpdatedAt = m.now()
	m.translations[translationKey(t.Locale, t.Key)] = *t
	return nil
}

func (m *Memory) DeleteTranslation(ctx context.Context, locale, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := translationKey(locale, key)
	if _, ok := m.translations[k]; !ok {
		return notFound("translation", locale+"/"+key)
	}
	delete(m.translations, k)
	return nil
}

var _ DataStore = (*Memory)(nil)
