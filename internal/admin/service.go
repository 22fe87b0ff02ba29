// Package admin is the back-office layer: contract listings and bulk
// mutations, the dashboard, notifications, translations and the wizard
// configuration editor.
package admin

import (
	"context"
	"errors"
	"log"
	"time"

	"merchant-onboarding/internal/agent"
	"merchant-onboarding/internal/cache"
	"merchant-onboarding/internal/events"
	"merchant-onboarding/internal/onboarding"
	"merchant-onboarding/internal/registry"
	"merchant-onboarding/internal/store"
)

// CachePrefix is shared with the submission pipeline, which invalidates it
// after every write.
const CachePrefix = "admin:"

// DefaultCacheTTL is how long listings and the dashboard stay cached.
const DefaultCacheTTL = 30 * time.Second

var (
	// ErrAgentUnavailable is returned by Suggest when no AI agent is configured.
	ErrAgentUnavailable = errors.New("translation agent is not configured")
	// ErrNoContracts is returned by bulk operations called without ids.
	ErrNoContracts = errors.New("no contracts selected")
	// ErrEmptyPatch is returned by BulkUpdate when the patch changes nothing.
	ErrEmptyPatch = errors.New("nothing to update")
	// ErrInvalid wraps rejected input.
	ErrInvalid = errors.New("invalid input")
)

// Store is the persistence the admin layer reads and writes.
type Store interface {
	ListContracts(ctx context.Context, f store.ContractFilter) ([]store.ContractSummary, error)
	BulkUpdateContracts(ctx context.Context, ids []string, patch store.ContractPatch) (int64, error)
	DeleteContracts(ctx context.Context, ids []string) (int64, error)

	CreateNotification(ctx context.Context, n *store.Notification) error
	ListNotifications(ctx context.Context, unreadOnly bool, limit int) ([]store.Notification, error)
	UnreadNotificationCount(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error

	ListTranslations(ctx context.Context, locale string) ([]store.Translation, error)
	UpsertTranslation(ctx context.Context, t *store.Translation) error
	DeleteTranslation(ctx context.Context, locale, key string) error

	GetActiveConfiguration(ctx context.Context) (*onboarding.Configuration, error)
	ListSteps(ctx context.Context, configurationID string) ([]onboarding.OnboardingStep, error)
	GetStep(ctx context.Context, id string) (*onboarding.OnboardingStep, error)
	UpsertStep(ctx context.Context, step *onboarding.OnboardingStep) error
	UpsertField(ctx context.Context, f *onboarding.OnboardingField) error
	UpsertStepModule(ctx context.Context, m *onboarding.StepModule) error
	DeleteField(ctx context.Context, id string) error
	DeleteStepModule(ctx context.Context, id string) error
	ReorderSteps(ctx context.Context, configurationID string, ids []string) error
	ReorderFields(ctx context.Context, stepID string, ids []string) error
	ReorderModules(ctx context.Context, stepID string, ids []string) error
}

// Translator suggests translations for catalog entries.
type Translator interface {
	SuggestTranslation(ctx context.Context, req agent.SuggestionRequest) (*agent.Suggestion, error)
}

// Notifier receives notifications as they are created.
type Notifier interface {
	Notify(n store.Notification)
}

// Service implements the admin operations.
type Service struct {
	store      Store
	cache      cache.Cache
	events     events.Publisher
	notifier   Notifier
	translator Translator
	modules    *registry.Registry
	locale     string
	ttl        time.Duration
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithCache(c cache.Cache) Option { return func(s *Service) { s.cache = c } }

func WithEvents(p events.Publisher) Option { return func(s *Service) { s.events = p } }

func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

// WithTranslator enables Suggest. Pass only a non-nil translator.
func WithTranslator(t Translator) Option { return func(s *Service) { s.translator = t } }

// WithRegistry lets the configuration editor warn about unknown module keys.
func WithRegistry(r *registry.Registry) Option { return func(s *Service) { s.modules = r } }

func WithLocale(locale string) Option { return func(s *Service) { s.locale = locale } }

func WithCacheTTL(ttl time.Duration) Option { return func(s *Service) { s.ttl = ttl } }

// New returns a Service over st.
func New(st Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		cache:  cache.Nop{},
		events: events.LogPublisher{},
		locale: "sk",
		ttl:    DefaultCacheTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.InvalidatePrefix(ctx, CachePrefix); err != nil {
		log.Printf("⚠️ Failed to invalidate admin cache: %v", err)
	}
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.events.Publish(ctx, e); err != nil {
		log.Printf("⚠️ Failed to publish %s: %v", e.Type, err)
	}
}

// notify stores n and pushes it to live clients. Failures are logged only.
func (s *Service) notify(ctx context.Context, n *store.Notification) {
	if err := s.store.CreateNotification(ctx, n); err != nil {
		log.Printf("⚠️ Failed to create %s notification: %v", n.Kind, err)
		return
	}
	if s.notifier != nil {
		s.notifier.Notify(*n)
	}
}
