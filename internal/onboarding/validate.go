package onboarding

import (
	"fmt"
	"strings"
)

// ValidationError lists the required fields missing before submission.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

// Required field identifiers reported in ValidationError.Missing.
const (
	FieldContactFirstName = "contactInfo.firstName"
	FieldContactLastName  = "contactInfo.lastName"
	FieldContactEmail     = "contactInfo.email"
	FieldCompanyName      = "companyInfo.companyName"
)

// ValidateForSubmission checks the minimum data a contract needs.
// It returns nil or a *ValidationError.
func ValidateForSubmission(d *Data) error {
	var missing []string
	if blank(d.ContactInfo.FirstName) {
		missing = append(missing, FieldContactFirstName)
	}
	if blank(d.ContactInfo.LastName) {
		missing = append(missing, FieldContactLastName)
	}
	if blank(d.ContactInfo.Email) {
		missing = append(missing, FieldContactEmail)
	}
	if blank(d.CompanyInfo.CompanyName) {
		missing = append(missing, FieldCompanyName)
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// ContactComplete reports whether the contact step has everything auto-fill
// needs to derive other entities from it.
func ContactComplete(c ContactInfo) bool {
	return !blank(c.FirstName) && !blank(c.LastName) && !blank(c.Email) && !blank(c.Phone)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
