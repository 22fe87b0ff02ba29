package wizard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"merchant-onboarding/internal/fees"
	"merchant-onboarding/internal/onboarding"
	"merchant-onboarding/internal/registry"
	"merchant-onboarding/internal/renderer"
	"merchant-onboarding/internal/store"
	"merchant-onboarding/internal/submission"
)

var (
	// ErrStepOutOfRange is returned for step indexes outside the session's steps.
	ErrStepOutOfRange = errors.New("step index out of range")
	// ErrInvalidChange wraps field changes the aggregate cannot take.
	ErrInvalidChange = errors.New("invalid field change")
)

// Store loads contracts and the wizard configuration.
type Store interface {
	GetContract(ctx context.Context, id string) (*store.Contract, error)
	LoadAggregate(ctx context.Context, contractID string) (*onboarding.Data, error)
	GetActiveConfiguration(ctx context.Context) (*onboarding.Configuration, error)
	ListSteps(ctx context.Context, configurationID string) ([]onboarding.OnboardingStep, error)
}

// Submitter persists sessions. *submission.Pipeline implements it.
type Submitter interface {
	submission.DraftSaver
	Submit(ctx context.Context, contractID string, d *onboarding.Data) submission.Result
}

// FieldChange sets one field of the aggregate.
type FieldChange struct {
	Key   string `json:"key" binding:"required"`
	Value any    `json:"value"`
}

// StepInfo is the navigation entry of one step.
type StepInfo struct {
	Index   int    `json:"index"`
	StepKey string `json:"stepKey"`
	Title   string `json:"title"`
}

// View is the client-facing state of a session.
type View struct {
	SessionID      string              `json:"sessionId"`
	ContractID     string              `json:"contractId,omitempty"`
	ContractNumber string              `json:"contractNumber,omitempty"`
	CurrentStep    int                 `json:"currentStep"`
	Steps          []StepInfo          `json:"steps"`
	Data           *onboarding.Data    `json:"data"`
	Notices        []onboarding.Notice `json:"notices,omitempty"`
}

// Service runs wizard sessions.
type Service struct {
	store     Store
	submitter Submitter
	sessions  *Manager
	renderer  *renderer.Renderer
	calc      *fees.Calculator
	debounce  time.Duration
	locale    string
}

// Option configures a Service.
type Option func(*Service)

// WithDebounce sets the auto-save delay.
func WithDebounce(d time.Duration) Option { return func(s *Service) { s.debounce = d } }

// WithFeeCalculator recalculates fees after location and device changes.
func WithFeeCalculator(c *fees.Calculator) Option { return func(s *Service) { s.calc = c } }

func WithLocale(locale string) Option { return func(s *Service) { s.locale = locale } }

// NewService returns a wizard service. sessions may be shared with a janitor.
func NewService(st Store, sub Submitter, r *renderer.Renderer, sessions *Manager, opts ...Option) *Service {
	svc := &Service{
		store:     st,
		submitter: sub,
		sessions:  sessions,
		renderer:  r,
		debounce:  submission.DefaultDebounce,
		locale:    submission.DefaultLocale,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Sessions exposes the session manager.
func (svc *Service) Sessions() *Manager {
	return svc.sessions
}

// Start opens a session. With a contract id the stored aggregate is loaded
// and auto-save is enabled; otherwise the session starts empty.
func (svc *Service) Start(ctx context.Context, contractID string) (*View, error) {
	steps, err := svc.loadSteps(ctx)
	if err != nil {
		return nil, err
	}

	data := onboarding.NewData()
	var contract *store.Contract
	if contractID != "" {
		contract, err = svc.store.GetContract(ctx, contractID)
		if err != nil {
			return nil, fmt.Errorf("failed to load contract %s: %w", contractID, err)
		}
		data, err = svc.store.LoadAggregate(ctx, contractID)
		if err != nil {
			return nil, fmt.Errorf("failed to load contract %s: %w", contractID, err)
		}
	}

	s := NewSession("", data, steps)
	if contract != nil {
		s.ContractID = contract.ID
		s.ContractNumber = contract.ContractNumber
		s.saver = submission.NewAutoSaver(svc.submitter, contract.ID, svc.debounce)
	}
	svc.sessions.Add(s)
	log.Printf("✅ Wizard session %s started (contract %q, %d steps)", s.ID, contractID, len(steps))

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(nil)
}

// loadSteps returns the enabled steps of the active configuration, or the
// default layout when none is stored.
func (svc *Service) loadSteps(ctx context.Context) ([]onboarding.OnboardingStep, error) {
	cfg, err := svc.store.GetActiveConfiguration(ctx)
	if store.IsNotFound(err) {
		log.Printf("⚠️ No active onboarding configuration, using the default steps")
		return enabledSteps(onboarding.DefaultSteps()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active configuration: %w", err)
	}
	steps, err := svc.store.ListSteps(ctx, cfg.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load steps: %w", err)
	}
	enabled := enabledSteps(steps)
	if len(enabled) == 0 {
		log.Printf("⚠️ Configuration %s has no enabled steps, using the default steps", cfg.ID)
		return enabledSteps(onboarding.DefaultSteps()), nil
	}
	return enabled, nil
}

func enabledSteps(steps []onboarding.OnboardingStep) []onboarding.OnboardingStep {
	out := make([]onboarding.OnboardingStep, 0, len(steps))
	for _, st := range steps {
		if st.IsEnabled {
			out = append(out, st)
		}
	}
	return out
}

// Get returns the current view of a session.
func (svc *Service) Get(id string) (*View, error) {
	s, err := svc.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(nil)
}

// RenderStep renders step index of the session.
func (svc *Service) RenderStep(id string, index int) (*renderer.RenderedStep, error) {
	s, err := svc.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.Steps) {
		return nil, fmt.Errorf("%w: %d", ErrStepOutOfRange, index)
	}
	out := svc.renderer.Render(s.Steps[index], s.Data)
	return &out, nil
}

// UpdateFields applies changes in order. Either all changes apply or none.
// Values of configured custom fields are coerced to their field type. Fees
// are derived and cannot be written directly.
func (svc *Service) UpdateFields(id string, changes []FieldChange) (*View, error) {
	return svc.mutateSession(id, func(s *Session, d *onboarding.Data) error {
		for _, c := range changes {
			if c.Key == feesSection || strings.HasPrefix(c.Key, feesSection+".") {
				return fmt.Errorf("%w: %s is calculated", ErrInvalidChange, c.Key)
			}
			value := c.Value
			if f, ok := findField(s.Steps, c.Key); ok {
				value = registry.Coerce(f.FieldType, value)
			}
			if err := renderer.ApplyFieldChange(d, c.Key, value); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidChange, err)
			}
		}
		if err := d.CheckReferences(); err != nil {
			return err
		}
		if svc.calc != nil && touchesFees(changes) {
			svc.calc.Apply(d)
		}
		return nil
	})
}

const feesSection = "fees"

func findField(steps []onboarding.OnboardingStep, key string) (onboarding.OnboardingField, bool) {
	for _, st := range steps {
		for _, f := range st.Fields {
			if f.FieldKey == key {
				return f, true
			}
		}
	}
	return onboarding.OnboardingField{}, false
}

func touchesFees(changes []FieldChange) bool {
	for _, c := range changes {
		if strings.HasPrefix(c.Key, "businessLocations") || strings.HasPrefix(c.Key, "deviceSelection") {
			return true
		}
	}
	return false
}

// Navigate moves the session to step to, running the auto-fill rules.
// Moving forward is refused while required fields of the current step are
// empty.
func (svc *Service) Navigate(id string, to int) (*View, error) {
	s, err := svc.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if to < 0 || to >= len(s.Steps) {
		return nil, fmt.Errorf("%w: %d", ErrStepOutOfRange, to)
	}
	if to > s.Current {
		if missing := renderer.ValidateFields(s.Steps[s.Current], s.Data); len(missing) > 0 {
			return s.view([]onboarding.Notice{missingNotice(svc.locale, missing)})
		}
	}

	notices, err := s.navigator.Navigate(s.Data, s.Steps, s.Current, to)
	if err != nil {
		return nil, err
	}
	s.Current = to
	if len(notices) > 0 {
		svc.scheduleSave(s)
	}
	return s.view(notices)
}

// Recalculate refreshes the fees of the session from its locations and
// devices.
func (svc *Service) Recalculate(id string) (onboarding.Fees, error) {
	calc := svc.calc
	if calc == nil {
		calc = fees.NewCalculator(fees.DefaultRates())
	}
	var out onboarding.Fees
	_, err := svc.mutate(id, func(d *onboarding.Data) error {
		out = calc.Apply(d)
		return nil
	})
	return out, err
}

// SaveDraft stores the session as a draft. A session without a contract
// gets one and auto-saves from then on.
func (svc *Service) SaveDraft(ctx context.Context, id string) (submission.Result, error) {
	s, err := svc.sessions.Get(id)
	if err != nil {
		return submission.Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res := svc.submitter.SaveDraft(ctx, s.ContractID, s.Data)
	if res.Success && s.ContractID == "" {
		s.ContractID = res.ContractID
		s.ContractNumber = res.ContractNumber
		s.saver = submission.NewAutoSaver(svc.submitter, res.ContractID, svc.debounce)
	}
	return res, nil
}

// Submit persists the session as a submitted contract. A successful
// submission ends the session; a failed one keeps it for corrections.
func (svc *Service) Submit(ctx context.Context, id string) (submission.Result, error) {
	s, err := svc.sessions.Get(id)
	if err != nil {
		return submission.Result{}, err
	}

	s.flushSaver(ctx)

	s.mu.Lock()
	res := svc.submitter.Submit(ctx, s.ContractID, s.Data)
	if res.Success {
		s.ContractID = res.ContractID
		s.ContractNumber = res.ContractNumber
	}
	s.mu.Unlock()

	if res.Success {
		if err := svc.sessions.Delete(id); err != nil {
			log.Printf("⚠️ Failed to discard submitted session %s: %v", id, err)
		}
	}
	return res, nil
}

// End saves pending edits and discards the session.
func (svc *Service) End(ctx context.Context, id string) error {
	s, err := svc.sessions.Get(id)
	if err != nil {
		return err
	}
	s.flushSaver(ctx)
	return svc.sessions.Delete(id)
}

// mutate applies fn to a copy of the session data and keeps it only when fn
// succeeds.
func (svc *Service) mutate(id string, fn func(d *onboarding.Data) error) (*View, error) {
	return svc.mutateSession(id, func(_ *Session, d *onboarding.Data) error { return fn(d) })
}

func (svc *Service) mutateSession(id string, fn func(s *Session, d *onboarding.Data) error) (*View, error) {
	s, err := svc.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.Data.Clone()
	if err != nil {
		return nil, err
	}
	if err := fn(s, next); err != nil {
		return nil, err
	}
	s.Data = next
	svc.scheduleSave(s)
	return s.view(nil)
}

// scheduleSave must be called with s.mu held.
func (svc *Service) scheduleSave(s *Session) {
	if s.saver != nil {
		s.saver.Schedule(s.Data)
	}
}

// view must be called with s.mu held.
func (s *Session) view(notices []onboarding.Notice) (*View, error) {
	data, err := s.Data.Clone()
	if err != nil {
		return nil, err
	}
	steps := make([]StepInfo, len(s.Steps))
	for i, st := range s.Steps {
		steps[i] = StepInfo{Index: i, StepKey: st.StepKey, Title: st.Title}
	}
	return &View{
		SessionID:      s.ID,
		ContractID:     s.ContractID,
		ContractNumber: s.ContractNumber,
		CurrentStep:    s.Current,
		Steps:          steps,
		Data:           data,
		Notices:        notices,
	}, nil
}
