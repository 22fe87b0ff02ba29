// Package submission persists the onboarding aggregate: the final submit
// and the debounced draft auto-save share the same section writers.
package submission

import (
	"context"
	"errors"
	"log"
	"time"

	"merchant-onboarding/internal/cache"
	"merchant-onboarding/internal/events"
	"merchant-onboarding/internal/fees"
	"merchant-onboarding/internal/onboarding"
	"merchant-onboarding/internal/store"
)

// AdminCachePrefix is invalidated whenever contract data changes.
const AdminCachePrefix = "admin:"

// Store is the persistence the pipeline writes through.
type Store interface {
	CreateContract(ctx context.Context, c *store.Contract) error
	GetContract(ctx context.Context, id string) (*store.Contract, error)
	UpdateContractStatus(ctx context.Context, id string, status onboarding.ContractStatus, submittedAt *time.Time) error
	SaveCustomFields(ctx context.Context, id string, fields map[string]any) error
	DeleteContractChildren(ctx context.Context, contractID string) error
	InsertContactInfo(ctx context.Context, contractID string, c onboarding.ContactInfo) error
	InsertCompanyInfo(ctx context.Context, contractID string, c onboarding.CompanyInfo) error
	InsertBusinessLocations(ctx context.Context, contractID string, locations []onboarding.BusinessLocation) error
	InsertDeviceSelection(ctx context.Context, contractID string, sel onboarding.DeviceSelection, fees onboarding.Fees) error
	InsertAuthorizedPersons(ctx context.Context, contractID string, persons []onboarding.AuthorizedPerson) error
	InsertActualOwners(ctx context.Context, contractID string, owners []onboarding.ActualOwner) error
	InsertConsents(ctx context.Context, contractID string, c onboarding.Consents) error
	CreateNotification(ctx context.Context, n *store.Notification) error
}

// Notifier receives notifications created by the pipeline, e.g. to push
// them to connected admin clients.
type Notifier interface {
	Notify(n store.Notification)
}

// Result is the outcome of Submit or SaveDraft.
type Result struct {
	Success        bool     `json:"success"`
	ContractID     string   `json:"contractId,omitempty"`
	ContractNumber string   `json:"contractNumber,omitempty"`
	Error          string   `json:"error,omitempty"`
	Section        Section  `json:"section,omitempty"`
	Missing        []string `json:"missing,omitempty"`
}

// Pipeline writes aggregates to the store.
type Pipeline struct {
	store    Store
	events   events.Publisher
	cache    cache.Cache
	notifier Notifier
	calc     *fees.Calculator
	locale   string
	now      func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithEvents(p events.Publisher) Option { return func(pl *Pipeline) { pl.events = p } }

func WithCache(c cache.Cache) Option { return func(pl *Pipeline) { pl.cache = c } }

func WithNotifier(n Notifier) Option { return func(pl *Pipeline) { pl.notifier = n } }

// WithFeeCalculator recalculates fees from the aggregate before they are
// stored.
func WithFeeCalculator(c *fees.Calculator) Option { return func(pl *Pipeline) { pl.calc = c } }

func WithLocale(locale string) Option { return func(pl *Pipeline) { pl.locale = locale } }

// New returns a pipeline over s. Events go to the log and caching is off
// unless configured.
func New(s Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:  s,
		events: events.LogPublisher{},
		cache:  cache.Nop{},
		locale: DefaultLocale,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit validates d and stores it as a submitted contract. An empty or
// unknown contractID creates a new contract. Validation failures return
// before any store call.
func (p *Pipeline) Submit(ctx context.Context, contractID string, d *onboarding.Data) Result {
	if err := onboarding.ValidateForSubmission(d); err != nil {
		var verr *onboarding.ValidationError
		if errors.As(err, &verr) {
			return Result{Section: SectionValidation, Missing: verr.Missing, Error: validationMessage(p.locale, verr.Missing)}
		}
		return Result{Section: SectionValidation, Error: err.Error()}
	}

	now := p.now().UTC()
	contract, err := p.upsertContract(ctx, contractID, onboarding.StatusSubmitted, &now)
	if err != nil {
		return p.failure(contractID, err)
	}
	if err := p.writeSections(ctx, contract.ID, d); err != nil {
		return p.failure(contract.ID, err)
	}

	log.Printf("✅ Contract %s submitted (%s)", contract.ContractNumber, contract.ID)
	p.afterSubmit(ctx, contract)
	return Result{Success: true, ContractID: contract.ID, ContractNumber: contract.ContractNumber}
}

// SaveDraft stores d without validation and without changing the contract
// status. A missing contract is created as a draft.
func (p *Pipeline) SaveDraft(ctx context.Context, contractID string, d *onboarding.Data) Result {
	contract, err := p.upsertContract(ctx, contractID, "", nil)
	if err != nil {
		return p.failure(contractID, err)
	}
	if err := p.writeSections(ctx, contract.ID, d); err != nil {
		return p.failure(contract.ID, err)
	}
	p.invalidate(ctx)
	return Result{Success: true, ContractID: contract.ID, ContractNumber: contract.ContractNumber}
}

// upsertContract loads or creates the root row. A non-empty status is
// written to an existing contract.
func (p *Pipeline) upsertContract(ctx context.Context, id string, status onboarding.ContractStatus, submittedAt *time.Time) (*store.Contract, error) {
	if id != "" {
		existing, err := p.store.GetContract(ctx, id)
		switch {
		case err == nil:
			if status != "" {
				if err := p.store.UpdateContractStatus(ctx, id, status, submittedAt); err != nil {
					return nil, wrap(SectionContract, err)
				}
				existing.Status = status
				if submittedAt != nil {
					existing.SubmittedAt = submittedAt
				}
			}
			return existing, nil
		case store.IsNotFound(err):
			log.Printf("⚠️ Contract %s not found, creating a new one", id)
		default:
			return nil, wrap(SectionContract, err)
		}
	}

	c := &store.Contract{Status: status, SubmittedAt: submittedAt}
	if c.Status == "" {
		c.Status = onboarding.StatusDraft
	}
	if err := p.store.CreateContract(ctx, c); err != nil {
		return nil, wrap(SectionContract, err)
	}
	return c, nil
}

// writeSections wipes the child rows of contractID and inserts every
// section in dependency order, stopping at the first failure.
func (p *Pipeline) writeSections(ctx context.Context, contractID string, d *onboarding.Data) error {
	feeValues := d.Fees
	if p.calc != nil {
		feeValues = p.calc.Calculate(d)
	}

	steps := []struct {
		section Section
		write   func() error
	}{
		{SectionCleanup, func() error { return p.store.DeleteContractChildren(ctx, contractID) }},
		{SectionContactInfo, func() error { return p.store.InsertContactInfo(ctx, contractID, d.ContactInfo) }},
		{SectionCompanyInfo, func() error { return p.store.InsertCompanyInfo(ctx, contractID, d.CompanyInfo) }},
		{SectionBusinessLocations, func() error {
			return p.store.InsertBusinessLocations(ctx, contractID, d.BusinessLocations)
		}},
		{SectionDeviceSelection, func() error {
			return p.store.InsertDeviceSelection(ctx, contractID, d.DeviceSelection, feeValues)
		}},
		{SectionAuthorizedPersons, func() error {
			return p.store.InsertAuthorizedPersons(ctx, contractID, d.AuthorizedPersons)
		}},
		{SectionActualOwners, func() error { return p.store.InsertActualOwners(ctx, contractID, d.ActualOwners) }},
		{SectionConsents, func() error { return p.store.InsertConsents(ctx, contractID, d.Consents) }},
		{SectionCustomFields, func() error { return p.store.SaveCustomFields(ctx, contractID, d.CustomFields) }},
	}
	for _, step := range steps {
		if err := step.write(); err != nil {
			return wrap(step.section, err)
		}
	}
	return nil
}

func (p *Pipeline) failure(contractID string, err error) Result {
	res := Result{ContractID: contractID, Error: err.Error()}
	var serr *SectionError
	if errors.As(err, &serr) {
		res.Section = serr.Section
		res.Error = serr.Message(p.locale)
	}
	log.Printf("⚠️ Persisting contract %q failed: %v", contractID, err)
	return res
}

// afterSubmit records the submission for admins. Failures are logged only.
func (p *Pipeline) afterSubmit(ctx context.Context, c *store.Contract) {
	id := c.ID
	n := &store.Notification{
		ContractID: &id,
		Kind:       store.NotificationContractSubmitted,
		Title:      title(p.locale, false),
		Message:    submittedMessage(p.locale, c.ContractNumber),
	}
	if err := p.store.CreateNotification(ctx, n); err != nil {
		log.Printf("⚠️ Failed to create notification for %s: %v", c.ID, err)
	} else if p.notifier != nil {
		p.notifier.Notify(*n)
	}

	if err := p.events.Publish(ctx, events.Event{
		Type:           events.ContractSubmitted,
		ContractID:     c.ID,
		ContractNumber: c.ContractNumber,
		OccurredAt:     p.now().UTC(),
	}); err != nil {
		log.Printf("⚠️ Failed to publish %s for %s: %v", events.ContractSubmitted, c.ID, err)
	}
	p.invalidate(ctx)
}

func (p *Pipeline) invalidate(ctx context.Context) {
	if err := p.cache.InvalidatePrefix(ctx, AdminCachePrefix); err != nil {
		log.Printf("⚠️ Failed to invalidate admin cache: %v", err)
	}
}

// Notice renders r as a user-facing notice.
func (r Result) Notice(locale string) onboarding.Notice {
	if r.Success {
		return onboarding.InfoNotice(title(locale, false), r.ContractNumber)
	}
	return onboarding.ErrorNotice(title(locale, true), r.Error)
}
