package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

const summaryQuery = `SELECT c.id, c.contract_number, c.status, c.contract_type, c.salesperson, c.submitted_at,
		c.created_at, c.updated_at,
		COALESCE(ci.first_name, '') AS contact_first_name,
		COALESCE(ci.last_name, '') AS contact_last_name,
		COALESCE(ci.email, '') AS contact_email,
		COALESCE(ci.phone, '') AS contact_phone,
		COALESCE(co.company_name, '') AS company_name,
		COALESCE(co.ico, '') AS ico,
		(SELECT count(*) FROM business_locations bl WHERE bl.contract_id = c.id) AS location_count,
		(SELECT COALESCE(sum(bl.estimated_turnover), 0) FROM business_locations bl WHERE bl.contract_id = c.id) AS total_turnover,
		COALESCE((SELECT (ds.fees->>'customerPayments')::numeric FROM device_selection ds
			WHERE ds.contract_id = c.id ORDER BY ds.created_at DESC LIMIT 1), 0) AS monthly_fees
	FROM contracts c
	LEFT JOIN LATERAL (SELECT first_name, last_name, email, phone FROM contact_info
		WHERE contract_id = c.id ORDER BY created_at DESC LIMIT 1) ci ON true
	LEFT JOIN LATERAL (SELECT company_name, ico FROM company_info
		WHERE contract_id = c.id ORDER BY created_at DESC LIMIT 1) co ON true`

// ListContracts returns contract summaries matching f, newest first.
func (s *Store) ListContracts(ctx context.Context, f ContractFilter) ([]ContractSummary, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("c.status = $%d", f.Status)
	}
	if f.Type != "" {
		add("c.contract_type = $%d", f.Type)
	}
	if f.Salesperson != "" {
		add("c.salesperson = $%d", f.Salesperson)
	}
	if f.From != nil {
		add("c.created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("c.created_at < $%d", *f.To)
	}

	query := summaryQuery
	if len(where) > 0 {
		query += "\n\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\tORDER BY c.created_at DESC"

	var rows []ContractSummary
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	return rows, nil
}

// BulkUpdateContracts applies patch to every contract in ids and returns
// the number of rows changed.
func (s *Store) BulkUpdateContracts(ctx context.Context, ids []string, patch ContractPatch) (int64, error) {
	if len(ids) == 0 || patch.IsEmpty() {
		return 0, nil
	}
	var status, salesperson, contractType sql.NullString
	if patch.Status != nil {
		status = sql.NullString{String: string(*patch.Status), Valid: true}
	}
	if patch.Salesperson != nil {
		salesperson = sql.NullString{String: *patch.Salesperson, Valid: true}
	}
	if patch.Type != nil {
		contractType = sql.NullString{String: *patch.Type, Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE contracts SET
			status = COALESCE($1::contract_status, status),
			salesperson = COALESCE($2, salesperson),
			contract_type = COALESCE($3, contract_type),
			submitted_at = CASE WHEN $1::contract_status = 'submitted' THEN COALESCE(submitted_at, now()) ELSE submitted_at END,
			updated_at = now()
		WHERE id = ANY($4)`,
		status, salesperson, contractType, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to update contracts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// DeleteContracts removes contracts and, through the cascading foreign
// keys, their child rows.
func (s *Store) DeleteContracts(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM contracts WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to delete contracts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// CreateNotification stores n and fills in its id and timestamp.
func (s *Store) CreateNotification(ctx context.Context, n *Notification) error {
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO notifications (contract_id, kind, title, message) VALUES ($1, $2, $3, $4)
		RETURNING id, is_read, created_at`,
		n.ContractID, n.Kind, n.Title, n.Message).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListNotifications returns the newest notifications first. A limit of
// zero or less returns all of them.
func (s *Store) ListNotifications(ctx context.Context, unreadOnly bool, limit int) ([]Notification, error) {
	query := `SELECT id, contract_id, kind, title, message, is_read, created_at FROM notifications`
	if unreadOnly {
		query += ` WHERE NOT is_read`
	}
	query += ` ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	var out []Notification
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return out, nil
}

// UnreadNotificationCount counts unread notifications.
func (s *Store) UnreadNotificationCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT count(*) FROM notifications WHERE NOT is_read`); err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return n, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return expectRows(res, "notification", id)
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE NOT is_read`); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

// ListTranslations returns the strings of a locale ordered by key.
func (s *Store) ListTranslations(ctx context.Context, locale string) ([]Translation, error) {
	var out []Translation
	if err := s.db.SelectContext(ctx, &out,
		`SELECT locale, key, value, updated_at FROM translations WHERE locale = $1 ORDER BY key`, locale); err != nil {
		return nil, fmt.Errorf("failed to list translations: %w", err)
	}
	return out, nil
}

// UpsertTranslation inserts or replaces one string.
func (s *Store) UpsertTranslation(ctx context.Context, t *Translation) error {
	err := s.db.GetContext(ctx, &t.UpdatedAt,
		`INSERT INTO translations (locale, key, value) VALUES ($1, $2, $3)
		ON CONFLICT (locale, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		RETURNING updated_at`,
		t.Locale, t.Key, t.Value)
	if err != nil {
		return fmt.Errorf("failed to upsert translation: %w", err)
	}
	return nil
}

func (s *Store) DeleteTranslation(ctx context.Context, locale, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translations WHERE locale = $1 AND key = $2`, locale, key)
	if err != nil {
		return fmt.Errorf("failed to delete translation: %w", err)
	}
	return expectRows(res, "translation", locale+"/"+key)
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
