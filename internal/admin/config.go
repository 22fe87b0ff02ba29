package admin

import (
	"context"
	"fmt"
	"log"

	"merchant-onboarding/internal/onboarding"
)

// ActiveSteps returns the active configuration with its steps, fields and
// modules ordered by position.
func (s *Service) ActiveSteps(ctx context.Context) (*onboarding.Configuration, []onboarding.OnboardingStep, error) {
	cfg, err := s.store.GetActiveConfiguration(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load active configuration: %w", err)
	}
	steps, err := s.store.ListSteps(ctx, cfg.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load steps of %s: %w", cfg.ID, err)
	}
	return cfg, steps, nil
}

// StepUpdate changes the editable attributes of a step. Nil fields stay
// untouched.
type StepUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	IsEnabled   *bool   `json:"isEnabled,omitempty"`
}

// UpdateStep applies u to the step with the given id.
func (s *Service) UpdateStep(ctx context.Context, id string, u StepUpdate) (*onboarding.OnboardingStep, error) {
	step, err := s.store.GetStep(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load step %s: %w", id, err)
	}
	if u.Title != nil {
		step.Title = *u.Title
	}
	if u.Description != nil {
		step.Description = *u.Description
	}
	if u.IsEnabled != nil {
		step.IsEnabled = *u.IsEnabled
	}
	if err := s.store.UpsertStep(ctx, step); err != nil {
		return nil, fmt.Errorf("failed to save step %s: %w", id, err)
	}
	return step, nil
}

// ReorderSteps sets the step order of a configuration. ids must name every
// step exactly once.
func (s *Service) ReorderSteps(ctx context.Context, configurationID string, ids []string) error {
	if err := s.store.ReorderSteps(ctx, configurationID, ids); err != nil {
		return fmt.Errorf("failed to reorder steps: %w", err)
	}
	return nil
}

func (s *Service) ReorderFields(ctx context.Context, stepID string, ids []string) error {
	if err := s.store.ReorderFields(ctx, stepID, ids); err != nil {
		return fmt.Errorf("failed to reorder fields: %w", err)
	}
	return nil
}

func (s *Service) ReorderModules(ctx context.Context, stepID string, ids []string) error {
	if err := s.store.ReorderModules(ctx, stepID, ids); err != nil {
		return fmt.Errorf("failed to reorder modules: %w", err)
	}
	return nil
}

// SaveField creates or updates a custom field.
func (s *Service) SaveField(ctx context.Context, f *onboarding.OnboardingField) error {
	if f.StepID == "" || f.FieldKey == "" {
		return fmt.Errorf("%w: stepId and fieldKey are required", ErrInvalid)
	}
	if !f.FieldType.Valid() {
		return fmt.Errorf("%w: unknown field type %q", ErrInvalid, f.FieldType)
	}
	if err := s.store.UpsertField(ctx, f); err != nil {
		return fmt.Errorf("failed to save field %s: %w", f.FieldKey, err)
	}
	return nil
}

func (s *Service) DeleteField(ctx context.Context, id string) error {
	if err := s.store.DeleteField(ctx, id); err != nil {
		return fmt.Errorf("failed to delete field %s: %w", id, err)
	}
	return nil
}

// SaveModule attaches a module to a step or updates the attachment. Keys the
// registry does not know are stored anyway; the renderer skips them.
func (s *Service) SaveModule(ctx context.Context, m *onboarding.StepModule) error {
	if m.StepID == "" || m.ModuleKey == "" {
		return fmt.Errorf("%w: stepId and moduleKey are required", ErrInvalid)
	}
	if s.modules != nil {
		if def, ok := s.modules.Get(m.ModuleKey); !ok {
			log.Printf("⚠️ Module %q is not registered", m.ModuleKey)
		} else if m.ModuleName == "" {
			m.ModuleName = def.Name
		}
	}
	if err := s.store.UpsertStepModule(ctx, m); err != nil {
		return fmt.Errorf("failed to save module %s: %w", m.ModuleKey, err)
	}
	return nil
}

func (s *Service) DeleteModule(ctx context.Context, id string) error {
	if err := s.store.DeleteStepModule(ctx, id); err != nil {
		return fmt.Errorf("failed to delete module %s: %w", id, err)
	}
	return nil
}
