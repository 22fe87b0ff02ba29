package store

import (
	"time"

	"github.com/shopspring/decimal"

	"merchant-onboarding/internal/onboarding"
)

// Contract is the root row every onboarding table hangs off.
type Contract struct {
	ID             string                    `db:"id" json:"id"`
	ContractNumber string                    `db:"contract_number" json:"contractNumber"`
	Status         onboarding.ContractStatus `db:"status" json:"status"`
	Type           string                    `db:"contract_type" json:"contractType"`
	Salesperson    string                    `db:"salesperson" json:"salesperson"`
	SubmittedAt    *time.Time                `db:"submitted_at" json:"submittedAt,omitempty"`
	CreatedAt      time.Time                 `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time                 `db:"updated_at" json:"updatedAt"`
}

// DefaultContractType is used for contracts created by the wizard.
const DefaultContractType = "standard"

// ContractFilter narrows contract listings. Empty fields do not filter.
// From is inclusive, To exclusive, both on created_at.
type ContractFilter struct {
	Status      onboarding.ContractStatus
	Type        string
	Salesperson string
	From        *time.Time
	To          *time.Time
}

// ContractSummary is one admin table row: the contract plus the columns
// joined from its child tables.
type ContractSummary struct {
	Contract
	ContactFirstName string          `db:"contact_first_name" json:"contactFirstName"`
	ContactLastName  string          `db:"contact_last_name" json:"contactLastName"`
	ContactEmail     string          `db:"contact_email" json:"contactEmail"`
	ContactPhone     string          `db:"contact_phone" json:"contactPhone"`
	CompanyName      string          `db:"company_name" json:"companyName"`
	CompanyICO       string          `db:"ico" json:"ico"`
	LocationCount    int             `db:"location_count" json:"locationCount"`
	TotalTurnover    decimal.Decimal `db:"total_turnover" json:"totalTurnover"`
	MonthlyFees      decimal.Decimal `db:"monthly_fees" json:"monthlyFees"`
}

// ContractPatch is a bulk update payload. Nil fields stay untouched.
type ContractPatch struct {
	Status      *onboarding.ContractStatus `json:"status,omitempty"`
	Salesperson *string                    `json:"salesperson,omitempty"`
	Type        *string                    `json:"contractType,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ContractPatch) IsEmpty() bool {
	return p.Status == nil && p.Salesperson == nil && p.Type == nil
}

// Notification kinds.
const (
	NotificationContractSubmitted = "contract_submitted"
	NotificationStatusChanged     = "status_changed"
	NotificationContractsDeleted  = "contracts_deleted"
)

// Notification is an admin inbox entry.
type Notification struct {
	ID         string    `db:"id" json:"id"`
	ContractID *string   `db:"contract_id" json:"contractId,omitempty"`
	Kind       string    `db:"kind" json:"kind"`
	Title      string    `db:"title" json:"title"`
	Message    string    `db:"message" json:"message"`
	IsRead     bool      `db:"is_read" json:"isRead"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Translation is one localized UI string.
type Translation struct {
	Locale    string    `db:"locale" json:"locale"`
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
