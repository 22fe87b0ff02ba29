// Package onboarding holds the in-memory aggregate collected by the merchant
// onboarding wizard, together with the reducers that mutate it.
//
// One Data value is owned by exactly one wizard session. It is created when a
// session starts (empty, or loaded from a stored contract), mutated by user
// input and by cross-step auto-fill, and discarded after a successful
// submission.
package onboarding

import (
	"time"

	"github.com/shopspring/decimal"
)

// Salutation of a contact person.
type Salutation string

const (
	SalutationMr  Salutation = "mr"
	SalutationMrs Salutation = "mrs"
	SalutationMs  Salutation = "ms"
)

// RegistryType tells where a company is registered.
type RegistryType string

const (
	RegistryPublic   RegistryType = "public"
	RegistryBusiness RegistryType = "business"
	RegistryOther    RegistryType = "other"
)

// Seasonality of a business location.
type Seasonality string

const (
	SeasonalityYearRound Seasonality = "year_round"
	SeasonalitySeasonal  Seasonality = "seasonal"
)

// DocumentType of an authorized person's identity document.
type DocumentType string

const (
	DocumentIDCard          DocumentType = "id_card"
	DocumentPassport        DocumentType = "passport"
	DocumentResidencePermit DocumentType = "residence_permit"
)

// ContractStatus is a fixed enum; any status may be set to any other.
type ContractStatus string

const (
	StatusDraft     ContractStatus = "draft"
	StatusSubmitted ContractStatus = "submitted"
	StatusInReview  ContractStatus = "in_review"
	StatusApproved  ContractStatus = "approved"
	StatusRejected  ContractStatus = "rejected"
	StatusCompleted ContractStatus = "completed"
)

// ContractStatuses lists every status in lifecycle order.
var ContractStatuses = []ContractStatus{
	StatusDraft, StatusSubmitted, StatusInReview, StatusApproved, StatusRejected, StatusCompleted,
}

// Valid reports whether s is one of the known statuses.
func (s ContractStatus) Valid() bool {
	for _, known := range ContractStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Address is a postal address.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// IsEmpty reports whether no part of the address is filled.
func (a Address) IsEmpty() bool {
	return a.Street == "" && a.City == "" && a.ZipCode == "" && a.Country == ""
}

// ContactInfo is the first wizard step: who is filling in the application.
type ContactInfo struct {
	Salutation  Salutation `json:"salutation"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	PhonePrefix string     `json:"phonePrefix"`
	Note        string     `json:"note,omitempty"`
}

// ContactPerson is embedded in company info and in every business location.
type ContactPerson struct {
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	PhonePrefix       string `json:"phonePrefix"`
	IsTechnicalPerson bool   `json:"isTechnicalPerson"`
}

// IsEmpty reports whether no identity field is filled.
func (p ContactPerson) IsEmpty() bool {
	return p.FirstName == "" && p.LastName == "" && p.Email == "" && p.Phone == ""
}

// CompanyInfo describes the legal entity signing the contract.
type CompanyInfo struct {
	RegistrationNumber       string        `json:"ico"`
	TaxID                    string        `json:"dic"`
	VATNumber                string        `json:"icDph"`
	IsVATPayer               bool          `json:"isVatPayer"`
	RegistryType             RegistryType  `json:"registryType"`
	CompanyName              string        `json:"companyName"`
	Court                    string        `json:"court,omitempty"`
	Section                  string        `json:"section,omitempty"`
	InsertNumber             string        `json:"insertNumber,omitempty"`
	Address                  Address       `json:"address"`
	ContactAddress           *Address      `json:"contactAddress,omitempty"`
	ContactAddressSameAsMain bool          `json:"contactAddressSameAsMain"`
	ContactPerson            ContactPerson `json:"contactPerson"`
}

// DayHours is the opening schedule for one weekday.
type DayHours struct {
	Day  string `json:"day"`
	Open bool   `json:"open"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// BusinessLocation is one operating location of the merchant.
// ID is client generated and independent of the persisted row id.
type BusinessLocation struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	URL                string          `json:"url,omitempty"`
	HasPOS             bool            `json:"hasPOS"`
	Address            Address         `json:"address"`
	IBAN               string          `json:"iban"`
	ContactPerson      ContactPerson   `json:"contactPerson"`
	BusinessSector     string          `json:"businessSector,omitempty"`
	EstimatedTurnover  decimal.Decimal `json:"estimatedTurnover"`
	AverageTransaction decimal.Decimal `json:"averageTransaction"`
	OpeningHours       []DayHours      `json:"openingHours,omitempty"`
	Seasonality        Seasonality     `json:"seasonality"`
	SeasonalWeeks      *int            `json:"seasonalWeeks,omitempty"`
	Position           int             `json:"position"`
}

// Addon is an optional extra attached to a device or service card.
type Addon struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	MonthlyFee  decimal.Decimal `json:"monthlyFee"`
	IsPerDevice bool            `json:"isPerDevice"`
}

// CardType distinguishes hardware from services in the device selection.
type CardType string

const (
	CardDevice  CardType = "device"
	CardService CardType = "service"
)

// DeviceCard is one selected device or service.
type DeviceCard struct {
	ID          string          `json:"id"`
	Type        CardType        `json:"type"`
	Category    string          `json:"category"`
	Name        string          `json:"name"`
	Count       int             `json:"count"`
	MonthlyFee  decimal.Decimal `json:"monthlyFee"`
	CompanyCost decimal.Decimal `json:"companyCost"`
	Addons      []Addon         `json:"addons,omitempty"`
}

// LocationAssignment places a number of devices of one card at one location.
type LocationAssignment struct {
	LocationID string `json:"locationId"`
	CardID     string `json:"cardId"`
	Count      int    `json:"count"`
}

// DeviceSelection is the solution/device step.
type DeviceSelection struct {
	SelectedSolutions []string             `json:"selectedSolutions"`
	DynamicCards      []DeviceCard         `json:"dynamicCards"`
	Assignments       []LocationAssignment `json:"assignments,omitempty"`
	Note              string               `json:"note,omitempty"`
}

// Fees is the derived output of the fee calculator; never user-entered.
type Fees struct {
	CalculatedAt      *time.Time      `json:"calculatedAt,omitempty"`
	TotalTurnover     decimal.Decimal `json:"totalTurnover"`
	MonthlyDeviceFees decimal.Decimal `json:"monthlyDeviceFees"`
	CustomerPayments  decimal.Decimal `json:"customerPayments"`
	CompanyCosts      decimal.Decimal `json:"companyCosts"`
	Margin            decimal.Decimal `json:"margin"`
	EffectiveRate     decimal.Decimal `json:"effectiveRate"`
}

// AuthorizedPerson may sign on behalf of the company.
type AuthorizedPerson struct {
	ID                   string       `json:"id"`
	Title                string       `json:"title,omitempty"`
	FirstName            string       `json:"firstName"`
	LastName             string       `json:"lastName"`
	MaidenName           string       `json:"maidenName,omitempty"`
	Email                string       `json:"email"`
	Phone                string       `json:"phone"`
	BirthDate            string       `json:"birthDate,omitempty"`
	BirthPlace           string       `json:"birthPlace,omitempty"`
	BirthNumber          string       `json:"birthNumber,omitempty"`
	Citizenship          string       `json:"citizenship,omitempty"`
	PermanentAddress     Address      `json:"permanentAddress"`
	DocumentType         DocumentType `json:"documentType,omitempty"`
	DocumentNumber       string       `json:"documentNumber,omitempty"`
	DocumentValidity     string       `json:"documentValidity,omitempty"`
	DocumentIssuer       string       `json:"documentIssuer,omitempty"`
	DocumentCountry      string       `json:"documentCountry,omitempty"`
	IsPoliticallyExposed bool         `json:"isPoliticallyExposed"`
	CreatedFromContact   bool         `json:"createdFromContact,omitempty"`
}

// ActualOwner is a beneficial owner of the company.
type ActualOwner struct {
	ID                   string  `json:"id"`
	FirstName            string  `json:"firstName"`
	LastName             string  `json:"lastName"`
	MaidenName           string  `json:"maidenName,omitempty"`
	Email                string  `json:"email,omitempty"`
	Phone                string  `json:"phone,omitempty"`
	BirthDate            string  `json:"birthDate,omitempty"`
	BirthNumber          string  `json:"birthNumber,omitempty"`
	Citizenship          string  `json:"citizenship,omitempty"`
	PermanentAddress     Address `json:"permanentAddress"`
	IsPoliticallyExposed bool    `json:"isPoliticallyExposed"`
	CreatedFromContact   bool    `json:"createdFromContact,omitempty"`
}

// Consents collected on the final step.
type Consents struct {
	GDPRConsent                    bool       `json:"gdprConsent"`
	TermsConsent                   bool       `json:"termsConsent"`
	MarketingConsent               bool       `json:"marketingConsent"`
	ElectronicCommunicationConsent bool       `json:"electronicCommunicationConsent"`
	SignatureDate                  *time.Time `json:"signatureDate,omitempty"`
	SignatureName                  string     `json:"signatureName,omitempty"`
	SigningPersonID                string     `json:"signingPersonId,omitempty"`
}

// Data is the single aggregate for one onboarding session.
type Data struct {
	ContactInfo       ContactInfo        `json:"contactInfo"`
	CompanyInfo       CompanyInfo        `json:"companyInfo"`
	BusinessLocations []BusinessLocation `json:"businessLocations"`
	DeviceSelection   DeviceSelection    `json:"deviceSelection"`
	Fees              Fees               `json:"fees"`
	AuthorizedPersons []AuthorizedPerson `json:"authorizedPersons"`
	ActualOwners      []ActualOwner      `json:"actualOwners"`
	Consents          Consents           `json:"consents"`
	CustomFields      map[string]any     `json:"customFields,omitempty"`
}

// Sections are the top-level JSON keys of Data.
var Sections = []string{
	"contactInfo", "companyInfo", "businessLocations", "deviceSelection",
	"fees", "authorizedPersons", "actualOwners", "consents",
}

// IsSection reports whether key names a top-level section of the aggregate.
func IsSection(key string) bool {
	for _, s := range Sections {
		if s == key {
			return true
		}
	}
	return false
}
