package datastore

import (
	"context"
	"time"

	"merchant-onboarding/internal/onboarding"
	"merchant-onboarding/internal/store"
)

// DataStore defines the interface for all data access operations
// This interface is implemented by the PostgreSQL store and the in-memory store
type DataStore interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error

	// Contract Operations
	CreateContract(ctx context.Context, c *store.Contract) error
	GetContract(ctx context.Context, id string) (*store.Contract, error)
	UpdateContractStatus(ctx context.Context, id string, status onboarding.ContractStatus, submittedAt *time.Time) error
	SaveCustomFields(ctx context.Context, id string, fields map[string]any) error
	LoadAggregate(ctx context.Context, contractID string) (*onboarding.Data, error)

	// Contract Section Writers
	DeleteContractChildren(ctx context.Context, contractID string) error
	InsertContactInfo(ctx context.Context, contractID string, c onboarding.ContactInfo) error
	InsertCompanyInfo(ctx context.Context, contractID string, c onboarding.CompanyInfo) error
	InsertBusinessLocations(ctx context.Context, contractID string, locations []onboarding.BusinessLocation) error
	InsertDeviceSelection(ctx context.Context, contractID string, sel onboarding.DeviceSelection, fees onboarding.Fees) error
	InsertAuthorizedPersons(ctx context.Context, contractID string, persons []onboarding.AuthorizedPerson) error
	InsertActualOwners(ctx context.Context, contractID string, owners []onboarding.ActualOwner) error
	InsertConsents(ctx context.Context, contractID string, c onboarding.Consents) error

	// Onboarding Configuration
	GetActiveConfiguration(ctx context.Context) (*onboarding.Configuration, error)
	CreateConfiguration(ctx context.Context, name string, active bool, steps []onboarding.OnboardingStep) (*onboarding.Configuration, error)
	SeedDefaultConfiguration(ctx context.Context, name string) (*onboarding.Configuration, error)
	ListSteps(ctx context.Context, configurationID string) ([]onboarding.OnboardingStep, error)
	GetStep(ctx context.Context, id string) (*onboarding.OnboardingStep, error)
	UpsertStep(ctx context.Context, step *onboarding.OnboardingStep) error
	UpsertField(ctx context.Context, f *onboarding.OnboardingField) error
	UpsertStepModule(ctx context.Context, m *onboarding.StepModule) error
	DeleteField(ctx context.Context, id string) error
	DeleteStepModule(ctx context.Context, id string) error
	SetStepEnabled(ctx context.Context, id string, enabled bool) error
	ReorderSteps(ctx context.Context, configurationID string, ids []string) error
	ReorderFields(ctx context.Context, stepID string, ids []string) error
	ReorderModules(ctx context.Context, stepID string, ids []string) error

	// Admin Operations
	ListContracts(ctx context.Context, f store.ContractFilter) ([]store.ContractSummary, error)
	BulkUpdateContracts(ctx context.Context, ids []string, patch store.ContractPatch) (int64, error)
	DeleteContracts(ctx context.Context, ids []string) (int64, error)

	// Notifications
	CreateNotification(ctx context.Context, n *store.Notification) error
	ListNotifications(ctx context.Context, unreadOnly bool, limit int) ([]store.Notification, error)
	UnreadNotificationCount(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error

	// Translations
	ListTranslations(ctx context.Context, locale string) ([]store.Translation, error)
	UpsertTranslation(ctx context.Context, t *store.Translation) error
	DeleteTranslation(ctx context.Context, locale, key string) error
}

// Type represents the type of data store to use
type Type string

const (
	// PostgreSQLStore uses a real PostgreSQL database
	PostgreSQLStore Type = "postgresql"
	// MemoryStore keeps everything in process, optionally seeded from JSON
	MemoryStore Type = "memory"
)

// Config holds configuration for data store creation
type Config struct {
	Type             Type
	ConnectionString string
	SeedDataPath     string
}

// NewDataStore creates a new data store based on configuration
func NewDataStore(config Config) (DataStore, error) {
	switch config.Type {
	case PostgreSQLStore:
		s, err := store.NewStore(config.ConnectionString)
		if err != nil {
			return nil, err
		}
		return s, nil
	case MemoryStore:
		m := NewMemory()
		if config.SeedDataPath != "" {
			if err := m.LoadSeed(config.SeedDataPath); err != nil {
				return nil, err
			}
		}
		return m, nil
	default:
		return nil, &UnsupportedStoreTypeError{Type: string(config.Type)}
	}
}

// UnsupportedStoreTypeError is returned when an unsupported store type is requested
type UnsupportedStoreTypeError struct {
	Type string
}

func (e *UnsupportedStoreTypeError) Error() string {
	return "unsupported store type: " + e.Type
}

var _ DataStore = (*store.Store)(nil)
