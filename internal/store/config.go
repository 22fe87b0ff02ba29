package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"merchant-onboarding/internal/onboarding"
)

type configurationRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}

type stepRow struct {
	ID              string `db:"id"`
	ConfigurationID string `db:"configuration_id"`
	StepKey         string `db:"step_key"`
	Title           string `db:"title"`
	Description     string `db:"description"`
	Position        int    `db:"position"`
	IsEnabled       bool   `db:"is_enabled"`
}

type fieldRow struct {
	ID         string                         `db:"id"`
	StepID     string                         `db:"step_id"`
	FieldKey   string                         `db:"field_key"`
	FieldLabel string                         `db:"field_label"`
	FieldType  string                         `db:"field_type"`
	IsRequired bool                           `db:"is_required"`
	IsEnabled  bool                           `db:"is_enabled"`
	Position   int                            `db:"position"`
	Options    JSONB[onboarding.FieldOptions] `db:"field_options"`
}

type moduleRow struct {
	ID            string                `db:"id"`
	StepID        string                `db:"step_id"`
	ModuleKey     string                `db:"module_key"`
	ModuleName    string                `db:"module_name"`
	Position      int                   `db:"position"`
	IsEnabled     bool                  `db:"is_enabled"`
	Configuration JSONB[map[string]any] `db:"configuration"`
}

// GetActiveConfiguration returns the configuration the wizard runs on.
func (s *Store) GetActiveConfiguration(ctx context.Context) (*onboarding.Configuration, error) {
	var row configurationRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, name, is_active, created_at FROM onboarding_configurations WHERE is_active ORDER BY created_at DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("active configuration: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active configuration: %w", err)
	}
	return &onboarding.Configuration{ID: row.ID, Name: row.Name, IsActive: row.IsActive, CreatedAt: row.CreatedAt}, nil
}

// ListSteps returns the steps of a configuration by position, each with its
// fields and modules by position.
func (s *Store) ListSteps(ctx context.Context, configurationID string) ([]onboarding.OnboardingStep, error) {
	var steps []stepRow
	if err := s.db.SelectContext(ctx, &steps,
		`SELECT id, configuration_id, step_key, title, description, position, is_enabled
		FROM onboarding_steps WHERE configuration_id = $1 ORDER BY position`, configurationID); err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}

	var fields []fieldRow
	if err := s.db.SelectContext(ctx, &fields,
		`SELECT f.id, f.step_id, f.field_key, f.field_label, f.field_type, f.is_required, f.is_enabled, f.position, f.field_options
		FROM onboarding_fields f JOIN onboarding_steps s ON s.id = f.step_id
		WHERE s.configuration_id = $1 ORDER BY f.position`, configurationID); err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}

	var modules []moduleRow
	if err := s.db.SelectContext(ctx, &modules,
		`SELECT m.id, m.step_id, m.module_key, m.module_name, m.position, m.is_enabled, m.configuration
		FROM step_modules m JOIN onboarding_steps s ON s.id = m.step_id
		WHERE s.configuration_id = $1 ORDER BY m.position`, configurationID); err != nil {
		return nil, fmt.Errorf("failed to list step modules: %w", err)
	}

	fieldsByStep := make(map[string][]onboarding.OnboardingField)
	for _, f := range fields {
		fieldsByStep[f.StepID] = append(fieldsByStep[f.StepID], fieldFromRow(f))
	}
	modulesByStep := make(map[string][]onboarding.StepModule)
	for _, m := range modules {
		modulesByStep[m.StepID] = append(modulesByStep[m.StepID], moduleFromRow(m))
	}

	out := make([]onboarding.OnboardingStep, 0, len(steps))
	for _, st := range steps {
		step := stepFromRow(st)
		step.Fields = fieldsByStep[st.ID]
		step.Modules = modulesByStep[st.ID]
		if step.Fields == nil {
			step.Fields = []onboarding.OnboardingField{}
		}
		if step.Modules == nil {
			step.Modules = []onboarding.StepModule{}
		}
		out = append(out, step)
	}
	return out, nil
}

// GetStep returns a step without its fields and modules.
func (s *Store) GetStep(ctx context.Context, id string) (*onboarding.OnboardingStep, error) {
	var row stepRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, configuration_id, step_key, title, description, position, is_enabled FROM onboarding_steps WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("step %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get step: %w", err)
	}
	step := stepFromRow(row)
	return &step, nil
}

// UpsertStep inserts or updates a step. A blank id is generated.
func (s *Store) UpsertStep(ctx context.Context, step *onboarding.OnboardingStep) error {
	if step.ID == "" {
		step.ID = onboarding.NewID()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO onboarding_steps (id, configuration_id, step_key, title, description, position, is_enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET step_key = EXCLUDED.step_key, title = EXCLUDED.title,
			description = EXCLUDED.description, position = EXCLUDED.position, is_enabled = EXCLUDED.is_enabled`,
		step.ID, step.ConfigurationID, step.StepKey, step.Title, step.Description, step.Position, step.IsEnabled)
	if err != nil {
		return fmt.Errorf("failed to upsert step: %w", err)
	}
	return nil
}

// UpsertField inserts or updates a custom field. A blank id is generated.
func (s *Store) UpsertField(ctx context.Context, f *onboarding.OnboardingField) error {
	if !f.FieldType.Valid() {
		return fmt.Errorf("unsupported field type %q", f.FieldType)
	}
	if f.ID == "" {
		f.ID = onboarding.NewID()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO onboarding_fields (id, step_id, field_key, field_label, field_type, is_required, is_enabled, position, field_options)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET field_key = EXCLUDED.field_key, field_label = EXCLUDED.field_label,
			field_type = EXCLUDED.field_type, is_required = EXCLUDED.is_required, is_enabled = EXCLUDED.is_enabled,
			position = EXCLUDED.position, field_options = EXCLUDED.field_options`,
		f.ID, f.StepID, f.FieldKey, f.FieldLabel, string(f.FieldType), f.IsRequired, f.IsEnabled, f.Position, NewJSONB(f.Options))
	if err != nil {
		return fmt.Errorf("failed to upsert field: %w", err)
	}
	return nil
}

// UpsertStepModule inserts or updates a step module. A blank id is generated.
func (s *Store) UpsertStepModule(ctx context.Context, m *onboarding.StepModule) error {
	if m.ID == "" {
		m.ID = onboarding.NewID()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO step_modules (id, step_id, module_key, module_name, position, is_enabled, configuration)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET module_key = EXCLUDED.module_key, module_name = EXCLUDED.module_name,
			position = EXCLUDED.position, is_enabled = EXCLUDED.is_enabled, configuration = EXCLUDED.configuration`,
		m.ID, m.StepID, m.ModuleKey, m.ModuleName, m.Position, m.IsEnabled, NewJSONB(m.Configuration))
	if err != nil {
		return fmt.Errorf("failed to upsert step module: %w", err)
	}
	return nil
}

// DeleteField removes a custom field and renumbers the remaining fields.
func (s *Store) DeleteField(ctx context.Context, id string) error {
	return s.deleteAndRenumber(ctx, "onboarding_fields", id)
}

// DeleteStepModule removes a module from its step and renumbers the rest.
func (s *Store) DeleteStepModule(ctx context.Context, id string) error {
	return s.deleteAndRenumber(ctx, "step_modules", id)
}

func (s *Store) deleteAndRenumber(ctx context.Context, table, id string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var stepID string
		err := tx.GetContext(ctx, &stepID, `DELETE FROM `+table+` WHERE id = $1 RETURNING step_id`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s %s: %w", table, id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
		var ids []string
		if err := tx.SelectContext(ctx, &ids, `SELECT id FROM `+table+` WHERE step_id = $1 ORDER BY position`, stepID); err != nil {
			return fmt.Errorf("failed to list %s: %w", table, err)
		}
		return writePositions(ctx, tx, table, ids)
	})
}

// SetStepEnabled toggles a step.
func (s *Store) SetStepEnabled(ctx context.Context, id string, enabled bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE onboarding_steps SET is_enabled = $1 WHERE id = $2`, enabled, id)
	if err != nil {
		return fmt.Errorf("failed to toggle step: %w", err)
	}
	return expectRows(res, "step", id)
}

// ReorderSteps stores the given step order. ids must name every step of
// the configuration exactly once.
func (s *Store) ReorderSteps(ctx context.Context, configurationID string, ids []string) error {
	return s.reorder(ctx, "onboarding_steps", "configuration_id", configurationID, ids)
}

// ReorderFields stores the given field order of a step.
func (s *Store) ReorderFields(ctx context.Context, stepID string, ids []string) error {
	return s.reorder(ctx, "onboarding_fields", "step_id", stepID, ids)
}

// ReorderModules stores the given module order of a step.
func (s *Store) ReorderModules(ctx context.Context, stepID string, ids []string) error {
	return s.reorder(ctx, "step_modules", "step_id", stepID, ids)
}

func (s *Store) reorder(ctx context.Context, table, parentColumn, parentID string, ids []string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var current []string
		if err := tx.SelectContext(ctx, &current,
			`SELECT id FROM `+table+` WHERE `+parentColumn+` = $1 ORDER BY position`, parentID); err != nil {
			return fmt.Errorf("failed to list %s: %w", table, err)
		}
		ordered, err := onboarding.ReorderByIDs(current, ids,
			func(id string) string { return id },
			func(*string, int) {})
		if err != nil {
			return err
		}
		return writePositions(ctx, tx, table, ordered)
	})
}

// writePositions stores dense positions for ids in slice order.
func writePositions(ctx context.Context, tx *sqlx.Tx, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE `+table+` AS t SET position = o.ord - 1
		FROM unnest($1::uuid[]) WITH ORDINALITY AS o(id, ord)
		WHERE t.id = o.id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to renumber %s: %w", table, err)
	}
	return nil
}

// CreateConfiguration stores a configuration with its steps, fields and
// modules. An active configuration deactivates every other one.
func (s *Store) CreateConfiguration(ctx context.Context, name string, active bool, steps []onboarding.OnboardingStep) (*onboarding.Configuration, error) {
	cfg := &onboarding.Configuration{ID: onboarding.NewID(), Name: name, IsActive: active}
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if active {
			if _, err := tx.ExecContext(ctx, `UPDATE onboarding_configurations SET is_active = false WHERE is_active`); err != nil {
				return fmt.Errorf("failed to deactivate configurations: %w", err)
			}
		}
		if err := tx.GetContext(ctx, &cfg.CreatedAt,
			`INSERT INTO onboarding_configurations (id, name, is_active) VALUES ($1, $2, $3) RETURNING created_at`,
			cfg.ID, name, active); err != nil {
			return fmt.Errorf("failed to create configuration: %w", err)
		}

		for i, step := range steps {
			if step.ID == "" {
				step.ID = onboarding.NewID()
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO onboarding_steps (id, configuration_id, step_key, title, description, position, is_enabled)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				step.ID, cfg.ID, step.StepKey, step.Title, step.Description, i, step.IsEnabled); err != nil {
				return fmt.Errorf("failed to create step %s: %w", step.StepKey, err)
			}
			for j, f := range step.Fields {
				if f.ID == "" {
					f.ID = onboarding.NewID()
				}
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO onboarding_fields (id, step_id, field_key, field_label, field_type, is_required, is_enabled, position, field_options)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
					f.ID, step.ID, f.FieldKey, f.FieldLabel, string(f.FieldType), f.IsRequired, f.IsEnabled, j, NewJSONB(f.Options)); err != nil {
					return fmt.Errorf("failed to create field %s: %w", f.FieldKey, err)
				}
			}
			for j, m := range step.Modules {
				if m.ID == "" {
					m.ID = onboarding.NewID()
				}
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO step_modules (id, step_id, module_key, module_name, position, is_enabled, configuration)
					VALUES ($1, $2, $3, $4, $5, $6, $7)`,
					m.ID, step.ID, m.ModuleKey, m.ModuleName, j, m.IsEnabled, NewJSONB(m.Configuration)); err != nil {
					return fmt.Errorf("failed to create module %s: %w", m.ModuleKey, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func stepFromRow(r stepRow) onboarding.OnboardingStep {
	return onboarding.OnboardingStep{
		ID:              r.ID,
		ConfigurationID: r.ConfigurationID,
		StepKey:         r.StepKey,
		Title:           r.Title,
		Description:     r.Description,
		Position:        r.Position,
		IsEnabled:       r.IsEnabled,
	}
}

func fieldFromRow(r fieldRow) onboarding.OnboardingField {
	return onboarding.OnboardingField{
		ID:         r.ID,
		StepID:     r.StepID,
		FieldKey:   r.FieldKey,
		FieldLabel: r.FieldLabel,
		FieldType:  onboarding.FieldType(r.FieldType),
		IsRequired: r.IsRequired,
		IsEnabled:  r.IsEnabled,
		Position:   r.Position,
		Options:    r.Options.V,
	}
}

func moduleFromRow(r moduleRow) onboarding.StepModule {
	return onboarding.StepModule{
		ID:            r.ID,
		StepID:        r.StepID,
		ModuleKey:     r.ModuleKey,
		ModuleName:    r.ModuleName,
		Position:      r.Position,
		IsEnabled:     r.IsEnabled,
		Configuration: r.Configuration.V,
	}
}

// SeedDefaultConfiguration stores the stock wizard layout as the active
// configuration.
func (s *Store) SeedDefaultConfiguration(ctx context.Context, name string) (*onboarding.Configuration, error) {
	return s.CreateConfiguration(ctx, name, true, onboarding.DefaultSteps())
}
