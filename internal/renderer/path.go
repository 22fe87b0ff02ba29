package renderer

import (
	"encoding/json"
	"fmt"
	"strings"

	"merchant-onboarding/internal/onboarding"
)

// Lookup resolves a field key against the aggregate. A key whose first
// segment names a section ("contactInfo.firstName") is read from the typed
// aggregate; any other key is read from the custom fields, first as a flat
// key and then as a nested path.
func Lookup(data *onboarding.Data, key string) (any, bool) {
	if data == nil || key == "" {
		return nil, false
	}
	segments := strings.Split(key, ".")
	if onboarding.IsSection(segments[0]) {
		tree, err := toTree(data)
		if err != nil {
			return nil, false
		}
		return getPath(tree, segments)
	}
	if v, ok := data.CustomFields[key]; ok {
		return v, true
	}
	return getPath(data.CustomFields, segments)
}

// ApplyFieldChange writes value under key. Section keys are written through
// the typed aggregate and fail when the value does not fit the target
// field. Other keys land in the custom fields: plain keys flat, dotted keys
// as nested maps.
func ApplyFieldChange(data *onboarding.Data, key string, value any) error {
	if key == "" {
		return fmt.Errorf("field key is empty")
	}
	segments := strings.Split(key, ".")
	if onboarding.IsSection(segments[0]) {
		if len(segments) == 1 {
			return fmt.Errorf("field key %q addresses a whole section", key)
		}
		tree, err := toTree(data)
		if err != nil {
			return err
		}
		if err := setPath(tree, segments, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
		raw, err := json.Marshal(tree)
		if err != nil {
			return fmt.Errorf("failed to marshal onboarding data: %w", err)
		}
		next := onboarding.NewData()
		if err := json.Unmarshal(raw, next); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		*data = *next
		return nil
	}

	if len(segments) == 1 {
		data.SetCustomField(key, value)
		return nil
	}
	if data.CustomFields == nil {
		data.CustomFields = map[string]any{}
	}
	if err := setPath(data.CustomFields, segments, value); err != nil {
		return err
	}
	delete(data.CustomFields, key)
	return nil
}

func toTree(data *onboarding.Data) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal onboarding data: %w", err)
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode onboarding data: %w", err)
	}
	return tree, nil
}

func getPath(tree map[string]any, segments []string) (any, bool) {
	var cur any = tree
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func setPath(tree map[string]any, segments []string, value any) error {
	cur := tree
	for i, seg := range segments[:len(segments)-1] {
		next, ok := cur[seg]
		if !ok || next == nil {
			child := map[string]any{}
			cur[seg] = child
			cur = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%s is not an object", strings.Join(segments[:i+1], "."))
		}
		cur = child
	}
	cur[segments[len(segments)-1]] = value
	return nil
}
