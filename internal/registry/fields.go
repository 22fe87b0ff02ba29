package registry

import (
	"log"
	"strconv"
	"strings"

	"merchant-onboarding/internal/onboarding"
)

// Widget describes how a front end renders a field type.
type Widget struct {
	Input      string `json:"input"`
	Multiple   bool   `json:"multiple,omitempty"`
	UsesOption bool   `json:"usesOptions,omitempty"`
}

// WidgetFor resolves the widget of a field type. Unknown types fall back to
// a plain text input.
func WidgetFor(t onboarding.FieldType) Widget {
	switch t {
	case onboarding.FieldText:
		return Widget{Input: "text"}
	case onboarding.FieldEmail:
		return Widget{Input: "email"}
	case onboarding.FieldPhone:
		return Widget{Input: "tel"}
	case onboarding.FieldTextarea:
		return Widget{Input: "textarea"}
	case onboarding.FieldSelect:
		return Widget{Input: "select", UsesOption: true}
	case onboarding.FieldMultiselect:
		return Widget{Input: "select", Multiple: true, UsesOption: true}
	case onboarding.FieldCheckbox:
		return Widget{Input: "checkbox"}
	case onboarding.FieldRadio:
		return Widget{Input: "radio", UsesOption: true}
	case onboarding.FieldDate:
		return Widget{Input: "date"}
	case onboarding.FieldNumber:
		return Widget{Input: "number"}
	default:
		log.Printf("⚠️ unknown field type %q, rendering as text", t)
		return Widget{Input: "text"}
	}
}

// Coerce converts a raw submitted value into the shape stored for t.
// Values that cannot be converted are returned unchanged.
func Coerce(t onboarding.FieldType, value any) any {
	switch t {
	case onboarding.FieldCheckbox:
		switch v := value.(type) {
		case bool:
			return v
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err == nil {
				return b
			}
		}
	case onboarding.FieldNumber:
		switch v := value.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err == nil {
				return f
			}
		}
	case onboarding.FieldMultiselect:
		switch v := value.(type) {
		case []string:
			return v
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case string:
			if v == "" {
				return []string{}
			}
			return strings.Split(v, ",")
		}
	case onboarding.FieldText, onboarding.FieldEmail, onboarding.FieldPhone,
		onboarding.FieldTextarea, onboarding.FieldSelect, onboarding.FieldRadio, onboarding.FieldDate:
		if s, ok := value.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return value
}

// IsEmptyValue reports whether a field value counts as not filled in.
func IsEmptyValue(t onboarding.FieldType, value any) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case bool:
		// A required checkbox must be ticked.
		return t == onboarding.FieldCheckbox && !v
	}
	return false
}
