package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"merchant-onboarding/internal/onboarding"
)

const contractColumns = `id, contract_number, status, contract_type, salesperson, submitted_at, created_at, updated_at`

// ChildTables lists the per-contract tables in reverse dependency order,
// the order they are wiped in.
var ChildTables = []string{
	"consents",
	"actual_owners",
	"authorized_persons",
	"location_assignments",
	"device_selection",
	"business_locations",
	"company_info",
	"contact_info",
}

// CreateContract inserts a contract and fills in its generated id, number
// and timestamps.
func (s *Store) CreateContract(ctx context.Context, c *Contract) error {
	if c.Status == "" {
		c.Status = onboarding.StatusDraft
	}
	if c.Type == "" {
		c.Type = DefaultContractType
	}
	query := `INSERT INTO contracts (status, contract_type, salesperson, submitted_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, contract_number, created_at, updated_at`

	err := s.db.QueryRowxContext(ctx, query, c.Status, c.Type, c.Salesperson, c.SubmittedAt).
		Scan(&c.ID, &c.ContractNumber, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contract: %w", err)
	}
	return nil
}

// GetContract returns the contract with id.
func (s *Store) GetContract(ctx context.Context, id string) (*Contract, error) {
	var c Contract
	err := s.db.GetContext(ctx, &c, `SELECT `+contractColumns+` FROM contracts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("contract %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return &c, nil
}

// UpdateContractStatus sets the status and, when submittedAt is non-nil,
// the submission timestamp.
func (s *Store) UpdateContractStatus(ctx context.Context, id string, status onboarding.ContractStatus, submittedAt *time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE contracts SET status = $1, submitted_at = COALESCE($2, submitted_at), updated_at = now() WHERE id = $3`,
		status, submittedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update contract status: %w", err)
	}
	return expectRows(res, "contract", id)
}

// SaveCustomFields stores the values of configured custom fields.
func (s *Store) SaveCustomFields(ctx context.Context, id string, fields map[string]any) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE contracts SET custom_fields = $1, updated_at = now() WHERE id = $2`,
		NewJSONB(fields), id)
	if err != nil {
		return fmt.Errorf("failed to save custom fields: %w", err)
	}
	return expectRows(res, "contract", id)
}

// DeleteContractChildren removes every child row of a contract. Deleting
// rows that do not exist is not an error.
func (s *Store) DeleteContractChildren(ctx context.Context, contractID string) error {
	for _, table := range ChildTables {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE contract_id = $1`, contractID); err != nil {
			return fmt.Errorf("failed to wipe %s: %w", table, err)
		}
	}
	return nil
}

// InsertContactInfo stores the contact step.
func (s *Store) InsertContactInfo(ctx context.Context, contractID string, c onboarding.ContactInfo) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contact_info (contract_id, salutation, first_name, last_name, email, phone, phone_prefix, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		contractID, nullString(string(c.Salutation)), c.FirstName, c.LastName, c.Email, c.Phone, c.PhonePrefix, c.Note)
	if err != nil {
		return fmt.Errorf("failed to insert contact info: %w", err)
	}
	return nil
}

// InsertCompanyInfo stores the company step.
func (s *Store) InsertCompanyInfo(ctx context.Context, contractID string, c onboarding.CompanyInfo) error {
	var contactAddress any
	if c.ContactAddress != nil && !c.ContactAddressSameAsMain {
		contactAddress = NewJSONB(*c.ContactAddress)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO company_info (contract_id, ico, dic, ic_dph, is_vat_payer, registry_type, company_name,
			court, section, insert_number, address, contact_address, contact_address_same_as_main, contact_person)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		contractID, c.RegistrationNumber, c.TaxID, c.VATNumber, c.IsVATPayer, nullString(string(c.RegistryType)),
		c.CompanyName, c.Court, c.Section, c.InsertNumber, NewJSONB(c.Address), contactAddress,
		c.ContactAddressSameAsMain, NewJSONB(c.ContactPerson))
	if err != nil {
		return fmt.Errorf("failed to insert company info: %w", err)
	}
	return nil
}

// InsertBusinessLocations stores every location in list order.
func (s *Store) InsertBusinessLocations(ctx context.Context, contractID string, locations []onboarding.BusinessLocation) error {
	query := `INSERT INTO business_locations (contract_id, client_id, name, url, has_pos, address, iban, contact_person,
			business_sector, estimated_turnover, average_transaction, opening_hours, seasonality, seasonal_weeks, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	for i, l := range locations {
		seasonality := l.Seasonality
		if seasonality == "" {
			seasonality = onboarding.SeasonalityYearRound
		}
		_, err := s.db.ExecContext(ctx, query,
			contractID, l.ID, l.Name, l.URL, l.HasPOS, NewJSONB(l.Address), l.IBAN, NewJSONB(l.ContactPerson),
			l.BusinessSector, l.EstimatedTurnover, l.AverageTransaction, NewJSONB(l.OpeningHours),
			seasonality, l.SeasonalWeeks, i)
		if err != nil {
			return fmt.Errorf("failed to insert business location %q: %w", l.Name, err)
		}
	}
	return nil
}

// InsertDeviceSelection stores the selection with the calculated fees and
// the per-location device assignments.
func (s *Store) InsertDeviceSelection(ctx context.Context, contractID string, sel onboarding.DeviceSelection, fees onboarding.Fees) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO device_selection (contract_id, selected_solutions, dynamic_cards, note, fees)
		VALUES ($1, $2, $3, $4, $5)`,
		contractID, NewJSONB(sel.SelectedSolutions), NewJSONB(sel.DynamicCards), sel.Note, NewJSONB(fees))
	if err != nil {
		return fmt.Errorf("failed to insert device selection: %w", err)
	}
	for _, a := range sel.Assignments {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO location_assignments (contract_id, location_client_id, card_id, count) VALUES ($1, $2, $3, $4)`,
			contractID, a.LocationID, a.CardID, a.Count)
		if err != nil {
			return fmt.Errorf("failed to insert location assignment: %w", err)
		}
	}
	return nil
}

// InsertAuthorizedPersons stores every authorized person in list order.
func (s *Store) InsertAuthorizedPersons(ctx context.Context, contractID string, persons []onboarding.AuthorizedPerson) error {
	query := `INSERT INTO authorized_persons (contract_id, client_id, title, first_name, last_name, maiden_name, email, phone,
			birth_date, birth_place, birth_number, citizenship, permanent_address, document_type, document_number,
			document_validity, document_issuer, document_country, is_politically_exposed, created_from_contact, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	for i, p := range persons {
		_, err := s.db.ExecContext(ctx, query,
			contractID, p.ID, p.Title, p.FirstName, p.LastName, p.MaidenName, p.Email, p.Phone,
			p.BirthDate, p.BirthPlace, p.BirthNumber, p.Citizenship, NewJSONB(p.PermanentAddress),
			nullString(string(p.DocumentType)), p.DocumentNumber, p.DocumentValidity, p.DocumentIssuer,
			p.DocumentCountry, p.IsPoliticallyExposed, p.CreatedFromContact, i)
		if err != nil {
			return fmt.Errorf("failed to insert authorized person: %w", err)
		}
	}
	return nil
}

// InsertActualOwners stores every actual owner in list order.
func (s *Store) InsertActualOwners(ctx context.Context, contractID string, owners []onboarding.ActualOwner) error {
	query := `INSERT INTO actual_owners (contract_id, client_id, first_name, last_name, maiden_name, email, phone,
			birth_date, birth_number, citizenship, permanent_address, is_politically_exposed, created_from_contact, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	for i, o := range owners {
		_, err := s.db.ExecContext(ctx, query,
			contractID, o.ID, o.FirstName, o.LastName, o.MaidenName, o.Email, o.Phone,
			o.BirthDate, o.BirthNumber, o.Citizenship, NewJSONB(o.PermanentAddress),
			o.IsPoliticallyExposed, o.CreatedFromContact, i)
		if err != nil {
			return fmt.Errorf("failed to insert actual owner: %w", err)
		}
	}
	return nil
}

// InsertConsents stores the consents step.
func (s *Store) InsertConsents(ctx context.Context, contractID string, c onboarding.Consents) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO consents (contract_id, gdpr_consent, terms_consent, marketing_consent,
			electronic_communication_consent, signature_date, signature_name, signing_person_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		contractID, c.GDPRConsent, c.TermsConsent, c.MarketingConsent, c.ElectronicCommunicationConsent,
		c.SignatureDate, c.SignatureName, c.SigningPersonID)
	if err != nil {
		return fmt.Errorf("failed to insert consents: %w", err)
	}
	return nil
}

type contactInfoRow struct {
	Salutation  sql.NullString `db:"salutation"`
	FirstName   string         `db:"first_name"`
	LastName    string         `db:"last_name"`
	Email       string         `db:"email"`
	Phone       string         `db:"phone"`
	PhonePrefix string         `db:"phone_prefix"`
	Note        string         `db:"note"`
}

type companyInfoRow struct {
	ICO                      string                          `db:"ico"`
	DIC                      string                          `db:"dic"`
	ICDPH                    string                          `db:"ic_dph"`
	IsVATPayer               bool                            `db:"is_vat_payer"`
	RegistryType             sql.NullString                  `db:"registry_type"`
	CompanyName              string                          `db:"company_name"`
	Court                    string                          `db:"court"`
	Section                  string                          `db:"section"`
	InsertNumber             string                          `db:"insert_number"`
	Address                  JSONB[onboarding.Address]       `db:"address"`
	ContactAddress           JSONB[*onboarding.Address]      `db:"contact_address"`
	ContactAddressSameAsMain bool                            `db:"contact_address_same_as_main"`
	ContactPerson            JSONB[onboarding.ContactPerson] `db:"contact_person"`
}

type locationRow struct {
	ClientID           string                          `db:"client_id"`
	Name               string                          `db:"name"`
	URL                string                          `db:"url"`
	HasPOS             bool                            `db:"has_pos"`
	Address            JSONB[onboarding.Address]       `db:"address"`
	IBAN               string                          `db:"iban"`
	ContactPerson      JSONB[onboarding.ContactPerson] `db:"contact_person"`
	BusinessSector     string                          `db:"business_sector"`
	EstimatedTurnover  decimal.Decimal                 `db:"estimated_turnover"`
	AverageTransaction decimal.Decimal                 `db:"average_transaction"`
	OpeningHours       JSONB[[]onboarding.DayHours]    `db:"opening_hours"`
	Seasonality        string                          `db:"seasonality"`
	SeasonalWeeks      *int                            `db:"seasonal_weeks"`
	Position           int                             `db:"position"`
}

type deviceSelectionRow struct {
	SelectedSolutions JSONB[[]string]                `db:"selected_solutions"`
	DynamicCards      JSONB[[]onboarding.DeviceCard] `db:"dynamic_cards"`
	Note              string                         `db:"note"`
	Fees              JSONB[onboarding.Fees]         `db:"fees"`
}

type assignmentRow struct {
	LocationClientID string `db:"location_client_id"`
	CardID           string `db:"card_id"`
	Count            int    `db:"count"`
}

type personRow struct {
	ClientID             string                    `db:"client_id"`
	Title                string                    `db:"title"`
	FirstName            string                    `db:"first_name"`
	LastName             string                    `db:"last_name"`
	MaidenName           string                    `db:"maiden_name"`
	Email                string                    `db:"email"`
	Phone                string                    `db:"phone"`
	BirthDate            string                    `db:"birth_date"`
	BirthPlace           string                    `db:"birth_place"`
	BirthNumber          string                    `db:"birth_number"`
	Citizenship          string                    `db:"citizenship"`
	PermanentAddress     JSONB[onboarding.Address] `db:"permanent_address"`
	DocumentType         sql.NullString            `db:"document_type"`
	DocumentNumber       string                    `db:"document_number"`
	DocumentValidity     string                    `db:"document_validity"`
	DocumentIssuer       string                    `db:"document_issuer"`
	DocumentCountry      string                    `db:"document_country"`
	IsPoliticallyExposed bool                      `db:"is_politically_exposed"`
	CreatedFromContact   bool                      `db:"created_from_contact"`
}

type ownerRow struct {
	ClientID             string                    `db:"client_id"`
	FirstName            string                    `db:"first_name"`
	LastName             string                    `db:"last_name"`
	MaidenName           string                    `db:"maiden_name"`
	Email                string                    `db:"email"`
	Phone                string                    `db:"phone"`
	BirthDate            string                    `db:"birth_date"`
	BirthNumber          string                    `db:"birth_number"`
	Citizenship          string                    `db:"citizenship"`
	PermanentAddress     JSONB[onboarding.Address] `db:"permanent_address"`
	IsPoliticallyExposed bool                      `db:"is_politically_exposed"`
	CreatedFromContact   bool                      `db:"created_from_contact"`
}

type consentsRow struct {
	GDPRConsent                    bool       `db:"gdpr_consent"`
	TermsConsent                   bool       `db:"terms_consent"`
	MarketingConsent               bool       `db:"marketing_consent"`
	ElectronicCommunicationConsent bool       `db:"electronic_communication_consent"`
	SignatureDate                  *time.Time `db:"signature_date"`
	SignatureName                  string     `db:"signature_name"`
	SigningPersonID                string     `db:"signing_person_id"`
}

// getLatest loads the newest single-row child of a contract; a missing row
// leaves dest untouched.
func (s *Store) getLatest(ctx context.Context, dest any, query, contractID string) (bool, error) {
	err := s.db.GetContext(ctx, dest, query, contractID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// LoadAggregate rebuilds the wizard aggregate of a stored contract.
func (s *Store) LoadAggregate(ctx context.Context, contractID string) (*onboarding.Data, error) {
	var custom JSONB[map[string]any]
	err := s.db.GetContext(ctx, &custom, `SELECT custom_fields FROM contracts WHERE id = $1`, contractID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("contract %s: %w", contractID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}

	d := onboarding.NewData()
	if custom.V != nil {
		d.CustomFields = custom.V
	}

	var ci contactInfoRow
	found, err := s.getLatest(ctx, &ci, `SELECT salutation, first_name, last_name, email, phone, phone_prefix, note
		FROM contact_info WHERE contract_id = $1 ORDER BY created_at DESC LIMIT 1`, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contact info: %w", err)
	}
	if found {
		d.ContactInfo = onboarding.ContactInfo{
			Salutation:  onboarding.Salutation(ci.Salutation.String),
			FirstName:   ci.FirstName,
			LastName:    ci.LastName,
			Email:       ci.Email,
			Phone:       ci.Phone,
			PhonePrefix: ci.PhonePrefix,
			Note:        ci.Note,
		}
	}

	var co companyInfoRow
	found, err = s.getLatest(ctx, &co, `SELECT ico, dic, ic_dph, is_vat_payer, registry_type, company_name, court, section,
			insert_number, address, contact_address, contact_address_same_as_main, contact_person
		FROM company_info WHERE contract_id = $1 ORDER BY created_at DESC LIMIT 1`, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to load company info: %w", err)
	}
	if found {
		d.CompanyInfo = onboarding.CompanyInfo{
			RegistrationNumber:       co.ICO,
			TaxID:                    co.DIC,
			VATNumber:                co.ICDPH,
			IsVATPayer:               co.IsVATPayer,
			RegistryType:             onboarding.RegistryType(co.RegistryType.String),
			CompanyName:              co.CompanyName,
			Court:                    co.Court,
			Section:                  co.Section,
			InsertNumber:             co.InsertNumber,
			Address:                  co.Address.V,
			ContactAddress:           co.ContactAddress.V,
			ContactAddressSameAsMain: co.ContactAddressSameAsMain,
			ContactPerson:            co.ContactPerson.V,
		}
	}

	var locations []locationRow
	if err := s.db.SelectContext(ctx, &locations, `SELECT client_id, name, url, has_pos, address, iban, contact_person,
			business_sector, estimated_turnover, average_transaction, opening_hours, seasonality, seasonal_weeks, position
		FROM business_locations WHERE contract_id = $1 ORDER BY position`, contractID); err != nil {
		return nil, fmt.Errorf("failed to load business locations: %w", err)
	}
	for _, l := range locations {
		d.BusinessLocations = append(d.BusinessLocations, onboarding.BusinessLocation{
			ID:                 l.ClientID,
			Name:               l.Name,
			URL:                l.URL,
			HasPOS:             l.HasPOS,
			Address:            l.Address.V,
			IBAN:               l.IBAN,
			ContactPerson:      l.ContactPerson.V,
			BusinessSector:     l.BusinessSector,
			EstimatedTurnover:  l.EstimatedTurnover,
			AverageTransaction: l.AverageTransaction,
			OpeningHours:       l.OpeningHours.V,
			Seasonality:        onboarding.Seasonality(l.Seasonality),
			SeasonalWeeks:      l.SeasonalWeeks,
			Position:           l.Position,
		})
	}

	var ds deviceSelectionRow
	found, err = s.getLatest(ctx, &ds, `SELECT selected_solutions, dynamic_cards, note, fees
		FROM device_selection WHERE contract_id = $1 ORDER BY created_at DESC LIMIT 1`, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to load device selection: %w", err)
	}
	if found {
		d.DeviceSelection.SelectedSolutions = ds.SelectedSolutions.V
		d.DeviceSelection.DynamicCards = ds.DynamicCards.V
		d.DeviceSelection.Note = ds.Note
		d.Fees = ds.Fees.V
		if d.DeviceSelection.SelectedSolutions == nil {
			d.DeviceSelection.SelectedSolutions = []string{}
		}
		if d.DeviceSelection.DynamicCards == nil {
			d.DeviceSelection.DynamicCards = []onboarding.DeviceCard{}
		}
	}

	var assignments []assignmentRow
	if err := s.db.SelectContext(ctx, &assignments, `SELECT location_client_id, card_id, count
		FROM location_assignments WHERE contract_id = $1 ORDER BY created_at`, contractID); err != nil {
		return nil, fmt.Errorf("failed to load location assignments: %w", err)
	}
	for _, a := range assignments {
		d.DeviceSelection.Assignments = append(d.DeviceSelection.Assignments, onboarding.LocationAssignment{
			LocationID: a.LocationClientID,
			CardID:     a.CardID,
			Count:      a.Count,
		})
	}

	var persons []personRow
	if err := s.db.SelectContext(ctx, &persons, `SELECT client_id, title, first_name, last_name, maiden_name, email, phone,
			birth_date, birth_place, birth_number, citizenship, permanent_address, document_type, document_number,
			document_validity, document_issuer, document_country, is_politically_exposed, created_from_contact
		FROM authorized_persons WHERE contract_id = $1 ORDER BY position`, contractID); err != nil {
		return nil, fmt.Errorf("failed to load authorized persons: %w", err)
	}
	for _, p := range persons {
		d.AuthorizedPersons = append(d.AuthorizedPersons, onboarding.AuthorizedPerson{
			ID:                   p.ClientID,
			Title:                p.Title,
			FirstName:            p.FirstName,
			LastName:             p.LastName,
			MaidenName:           p.MaidenName,
			Email:                p.Email,
			Phone:                p.Phone,
			BirthDate:            p.BirthDate,
			BirthPlace:           p.BirthPlace,
			BirthNumber:          p.BirthNumber,
			Citizenship:          p.Citizenship,
			PermanentAddress:     p.PermanentAddress.V,
			DocumentType:         onboarding.DocumentType(p.DocumentType.String),
			DocumentNumber:       p.DocumentNumber,
			DocumentValidity:     p.DocumentValidity,
			DocumentIssuer:       p.DocumentIssuer,
			DocumentCountry:      p.DocumentCountry,
			IsPoliticallyExposed: p.IsPoliticallyExposed,
			CreatedFromContact:   p.CreatedFromContact,
		})
	}

	var owners []ownerRow
	if err := s.db.SelectContext(ctx, &owners, `SELECT client_id, first_name, last_name, maiden_name, email, phone,
			birth_date, birth_number, citizenship, permanent_address, is_politically_exposed, created_from_contact
		FROM actual_owners WHERE contract_id = $1 ORDER BY position`, contractID); err != nil {
		return nil, fmt.Errorf("failed to load actual owners: %w", err)
	}
	for _, o := range owners {
		d.ActualOwners = append(d.ActualOwners, onboarding.ActualOwner{
			ID:                   o.ClientID,
			FirstName:            o.FirstName,
			LastName:             o.LastName,
			MaidenName:           o.MaidenName,
			Email:                o.Email,
			Phone:                o.Phone,
			BirthDate:            o.BirthDate,
			BirthNumber:          o.BirthNumber,
			Citizenship:          o.Citizenship,
			PermanentAddress:     o.PermanentAddress.V,
			IsPoliticallyExposed: o.IsPoliticallyExposed,
			CreatedFromContact:   o.CreatedFromContact,
		})
	}

	var cs consentsRow
	found, err = s.getLatest(ctx, &cs, `SELECT gdpr_consent, terms_consent, marketing_consent, electronic_communication_consent,
			signature_date, signature_name, signing_person_id
		FROM consents WHERE contract_id = $1 ORDER BY created_at DESC LIMIT 1`, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to load consents: %w", err)
	}
	if found {
		d.Consents = onboarding.Consents(cs)
	}

	return d, nil
}
