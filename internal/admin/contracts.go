package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"merchant-onboarding/internal/events"
	"merchant-onboarding/internal/onboarding"
	"merchant-onboarding/internal/store"
)

// Filter narrows the contract listing. Search is matched in process against
// the number, contact, company and salesperson columns; everything else is
// pushed down to the store.
type Filter struct {
	Status      onboarding.ContractStatus `json:"status,omitempty"`
	Type        string                    `json:"type,omitempty"`
	Salesperson string                    `json:"salesperson,omitempty"`
	From        *time.Time                `json:"from,omitempty"`
	To          *time.Time                `json:"to,omitempty"`
	Search      string                    `json:"search,omitempty"`
}

func (f Filter) storeFilter() store.ContractFilter {
	return store.ContractFilter{
		Status:      f.Status,
		Type:        f.Type,
		Salesperson: f.Salesperson,
		From:        f.From,
		To:          f.To,
	}
}

// ContractRow is a listing row with derived columns.
type ContractRow struct {
	store.ContractSummary
	ContactName         string `json:"contactName"`
	DaysSinceSubmission *int   `json:"daysSinceSubmission,omitempty"`
}

// Dashboard summarizes the contract book.
type Dashboard struct {
	Total               int                               `json:"total"`
	ByStatus            map[onboarding.ContractStatus]int `json:"byStatus"`
	SubmittedLast30Days int                               `json:"submittedLast30Days"`
	// ApprovalRate is the percentage of decided contracts (approved,
	// completed or rejected) that were approved or completed.
	ApprovalRate decimal.Decimal `json:"approvalRate"`
	// MonthlyFees sums the monthly customer payments of approved and
	// completed contracts.
	MonthlyFees   decimal.Decimal `json:"monthlyFees"`
	TotalTurnover decimal.Decimal `json:"totalTurnover"`
}

// ListContracts returns the contracts matching f, newest first.
func (s *Service) ListContracts(ctx context.Context, f Filter) ([]ContractRow, error) {
	summaries, err := s.summaries(ctx, f.storeFilter())
	if err != nil {
		return nil, err
	}

	now := s.now()
	terms := strings.Fields(strings.ToLower(f.Search))
	rows := make([]ContractRow, 0, len(summaries))
	for _, sum := range summaries {
		if !matches(sum, terms) {
			continue
		}
		rows = append(rows, newRow(sum, now))
	}
	return rows, nil
}

// summaries reads through the cache. Cache failures fall back to the store.
func (s *Service) summaries(ctx context.Context, f store.ContractFilter) ([]store.ContractSummary, error) {
	key, err := cacheKey("contracts", f)
	if err != nil {
		return nil, err
	}

	var cached []store.ContractSummary
	hit, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		log.Printf("⚠️ Admin cache read failed for %s: %v", key, err)
	}
	if hit {
		return cached, nil
	}

	list, err := s.store.ListContracts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	if err := s.cache.SetJSON(ctx, key, list, s.ttl); err != nil {
		log.Printf("⚠️ Admin cache write failed for %s: %v", key, err)
	}
	return list, nil
}

func cacheKey(kind string, v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to build cache key: %w", err)
	}
	return CachePrefix + kind + ":" + string(raw), nil
}

func newRow(sum store.ContractSummary, now time.Time) ContractRow {
	row := ContractRow{
		ContractSummary: sum,
		ContactName:     strings.TrimSpace(sum.ContactFirstName + " " + sum.ContactLastName),
	}
	if sum.SubmittedAt != nil {
		days := int(now.Sub(*sum.SubmittedAt) / (24 * time.Hour))
		if days < 0 {
			days = 0
		}
		row.DaysSinceSubmission = &days
	}
	return row
}

// matches reports whether every term occurs in one of the searchable columns.
func matches(sum store.ContractSummary, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	haystack := strings.ToLower(strings.Join([]string{
		sum.ContractNumber,
		sum.ContactFirstName,
		sum.ContactLastName,
		sum.ContactEmail,
		sum.ContactPhone,
		sum.CompanyName,
		sum.CompanyICO,
		sum.Salesperson,
	}, "\x00"))
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

// Dashboard aggregates every contract.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	key := CachePrefix + "dashboard"
	var cached Dashboard
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		log.Printf("⚠️ Admin cache read failed for %s: %v", key, err)
	} else if hit {
		return &cached, nil
	}

	list, err := s.store.ListContracts(ctx, store.ContractFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}

	d := summarize(list, s.now())
	if err := s.cache.SetJSON(ctx, key, d, s.ttl); err != nil {
		log.Printf("⚠️ Admin cache write failed for %s: %v", key, err)
	}
	return d, nil
}

func summarize(list []store.ContractSummary, now time.Time) *Dashboard {
	d := &Dashboard{
		Total:         len(list),
		ByStatus:      make(map[onboarding.ContractStatus]int, len(onboarding.ContractStatuses)),
		ApprovalRate:  decimal.Zero,
		MonthlyFees:   decimal.Zero,
		TotalTurnover: decimal.Zero,
	}
	for _, st := range onboarding.ContractStatuses {
		d.ByStatus[st] = 0
	}

	since := now.Add(-30 * 24 * time.Hour)
	approved, decided := 0, 0
	for _, c := range list {
		d.ByStatus[c.Status]++
		if c.SubmittedAt != nil && !c.SubmittedAt.Before(since) {
			d.SubmittedLast30Days++
		}
		switch c.Status {
		case onboarding.StatusApproved, onboarding.StatusCompleted:
			approved++
			decided++
			d.MonthlyFees = d.MonthlyFees.Add(c.MonthlyFees)
			d.TotalTurnover = d.TotalTurnover.Add(c.TotalTurnover)
		case onboarding.StatusRejected:
			decided++
		}
	}
	if decided > 0 {
		d.ApprovalRate = decimal.NewFromInt(int64(approved)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(decided))).
			Round(1)
	}
	return d
}

// BulkUpdate applies patch to every contract in ids. Any status may be set
// regardless of the current one.
func (s *Service) BulkUpdate(ctx context.Context, ids []string, patch store.ContractPatch) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoContracts
	}
	if patch.IsEmpty() {
		return 0, ErrEmptyPatch
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return 0, fmt.Errorf("%w: unknown contract status %q", ErrInvalid, *patch.Status)
	}

	n, err := s.store.BulkUpdateContracts(ctx, ids, patch)
	if err != nil {
		return 0, fmt.Errorf("failed to update contracts: %w", err)
	}
	log.Printf("✅ Updated %d of %d contracts", n, len(ids))
	if n == 0 {
		return 0, nil
	}

	s.invalidate(ctx)
	s.publish(ctx, events.Event{
		Type:        events.ContractsUpdated,
		ContractIDs: ids,
		Changes:     patchChanges(patch),
		OccurredAt:  s.now().UTC(),
	})
	if patch.Status != nil {
		note := &store.Notification{
			Kind:    store.NotificationStatusChanged,
			Title:   s.text(statusChangedTitle),
			Message: fmt.Sprintf(s.text(statusChangedMessage), n, *patch.Status),
		}
		if len(ids) == 1 {
			note.ContractID = &ids[0]
		}
		s.notify(ctx, note)
	}
	return n, nil
}

func patchChanges(p store.ContractPatch) map[string]string {
	changes := map[string]string{}
	if p.Status != nil {
		changes["status"] = string(*p.Status)
	}
	if p.Salesperson != nil {
		changes["salesperson"] = *p.Salesperson
	}
	if p.Type != nil {
		changes["contractType"] = *p.Type
	}
	return changes
}

// BulkDelete removes the contracts in ids together with their child rows.
func (s *Service) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoContracts
	}

	n, err := s.store.DeleteContracts(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete contracts: %w", err)
	}
	log.Printf("✅ Deleted %d of %d contracts", n, len(ids))
	if n == 0 {
		return 0, nil
	}

	s.invalidate(ctx)
	s.publish(ctx, events.Event{
		Type:        events.ContractsDeleted,
		ContractIDs: ids,
		OccurredAt:  s.now().UTC(),
	})
	s.notify(ctx, &store.Notification{
		Kind:    store.NotificationContractsDeleted,
		Title:   s.text(deletedTitle),
		Message: fmt.Sprintf(s.text(deletedMessage), n),
	})
	return n, nil
}
