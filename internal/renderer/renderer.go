// Package renderer turns a configured step into an ordered list of bound
// module and field views for the current aggregate.
package renderer

import (
	"log"
	"sort"

	"merchant-onboarding/internal/onboarding"
	"merchant-onboarding/internal/registry"
)

// MessageNothingConfigured is the message key of the placeholder shown for
// a step with nothing to render.
const MessageNothingConfigured = "step.nothing_configured"

// RenderedModule is a module resolved against the registry.
type RenderedModule struct {
	ID       string `json:"id"`
	Key      string `json:"key"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Position int    `json:"position"`
	View     any    `json:"view"`
}

// RenderedField is a custom field bound to its current value.
type RenderedField struct {
	ID       string                  `json:"id"`
	Key      string                  `json:"key"`
	Label    string                  `json:"label"`
	Type     onboarding.FieldType    `json:"type"`
	Widget   registry.Widget         `json:"widget"`
	Required bool                    `json:"required"`
	Position int                     `json:"position"`
	Options  onboarding.FieldOptions `json:"options"`
	Value    any                     `json:"value"`
}

// RenderedStep is the view of one step. Modules always come before fields.
type RenderedStep struct {
	StepKey     string           `json:"stepKey"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Modules     []RenderedModule `json:"modules"`
	Fields      []RenderedField  `json:"fields"`
	Placeholder bool             `json:"placeholder"`
	Message     string           `json:"message,omitempty"`
}

// Renderer resolves module keys through a registry.
type Renderer struct {
	modules *registry.Registry
}

// New returns a renderer backed by modules.
func New(modules *registry.Registry) *Renderer {
	return &Renderer{modules: modules}
}

// Render builds the view of step for data. Unregistered modules are skipped;
// a step with nothing to show renders the placeholder.
func (r *Renderer) Render(step onboarding.OnboardingStep, data *onboarding.Data) RenderedStep {
	out := RenderedStep{
		StepKey:     step.StepKey,
		Title:       step.Title,
		Description: step.Description,
		Modules:     []RenderedModule{},
		Fields:      []RenderedField{},
	}

	for _, m := range EnabledModules(step.Modules) {
		def, ok := r.modules.Get(m.ModuleKey)
		if !ok {
			log.Printf("⚠️ step %s: no component found for module %q, skipping", step.StepKey, m.ModuleKey)
			continue
		}
		var view any
		if def.Component != nil {
			view = def.Component.Build(data, m.Configuration)
		}
		name := m.ModuleName
		if name == "" {
			name = def.Name
		}
		out.Modules = append(out.Modules, RenderedModule{
			ID:       m.ID,
			Key:      m.ModuleKey,
			Name:     name,
			Category: def.Category,
			Position: m.Position,
			View:     view,
		})
	}

	for _, f := range EnabledFields(step.Fields) {
		value, _ := Lookup(data, f.FieldKey)
		out.Fields = append(out.Fields, RenderedField{
			ID:       f.ID,
			Key:      f.FieldKey,
			Label:    f.FieldLabel,
			Type:     f.FieldType,
			Widget:   registry.WidgetFor(f.FieldType),
			Required: f.IsRequired,
			Position: f.Position,
			Options:  f.Options,
			Value:    value,
		})
	}

	if len(out.Modules) == 0 && len(out.Fields) == 0 {
		out.Placeholder = true
		out.Message = MessageNothingConfigured
	}
	return out
}

// EnabledFields returns the enabled fields ordered by position. Equal
// positions keep their input order.
func EnabledFields(fields []onboarding.OnboardingField) []onboarding.OnboardingField {
	out := make([]onboarding.OnboardingField, 0, len(fields))
	for _, f := range fields {
		if f.IsEnabled {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// EnabledModules returns the enabled modules ordered by position. Equal
// positions keep their input order.
func EnabledModules(modules []onboarding.StepModule) []onboarding.StepModule {
	out := make([]onboarding.StepModule, 0, len(modules))
	for _, m := range modules {
		if m.IsEnabled {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// ValidateFields returns the keys of enabled required fields that are empty.
func ValidateFields(step onboarding.OnboardingStep, data *onboarding.Data) []string {
	var missing []string
	for _, f := range EnabledFields(step.Fields) {
		if !f.IsRequired {
			continue
		}
		value, _ := Lookup(data, f.FieldKey)
		if registry.IsEmptyValue(f.FieldType, value) {
			missing = append(missing, f.FieldKey)
		}
	}
	return missing
}
