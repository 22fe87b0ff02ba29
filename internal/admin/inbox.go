package admin

import (
	"context"
	"fmt"
	"strings"

	"merchant-onboarding/internal/agent"
	"merchant-onboarding/internal/store"
)

// DefaultNotificationLimit caps notification listings without an explicit limit.
const DefaultNotificationLimit = 50

// Notifications lists the newest notifications.
func (s *Service) Notifications(ctx context.Context, unreadOnly bool, limit int) ([]store.Notification, error) {
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	list, err := s.store.ListNotifications(ctx, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	n, err := s.store.UnreadNotificationCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return n, nil
}

// MarkRead returns store.ErrNotFound for unknown ids.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	if err := s.store.MarkNotificationRead(ctx, id); err != nil {
		return fmt.Errorf("failed to mark notification %s read: %w", id, err)
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context) error {
	if err := s.store.MarkAllNotificationsRead(ctx); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

// Translations lists the catalog of one locale ordered by key.
func (s *Service) Translations(ctx context.Context, locale string) ([]store.Translation, error) {
	list, err := s.store.ListTranslations(ctx, locale)
	if err != nil {
		return nil, fmt.Errorf("failed to list translations: %w", err)
	}
	return list, nil
}

// SaveTranslation inserts or replaces one entry.
func (s *Service) SaveTranslation(ctx context.Context, t *store.Translation) error {
	t.Locale = strings.TrimSpace(t.Locale)
	t.Key = strings.TrimSpace(t.Key)
	if t.Locale == "" || t.Key == "" {
		return fmt.Errorf("%w: locale and key are required", ErrInvalid)
	}
	if err := s.store.UpsertTranslation(ctx, t); err != nil {
		return fmt.Errorf("failed to save translation %s/%s: %w", t.Locale, t.Key, err)
	}
	return nil
}

func (s *Service) DeleteTranslation(ctx context.Context, locale, key string) error {
	if err := s.store.DeleteTranslation(ctx, locale, key); err != nil {
		return fmt.Errorf("failed to delete translation %s/%s: %w", locale, key, err)
	}
	return nil
}

// Suggest asks the translator for a translation of req. Without source text
// the stored value of req.Key in the source locale is used.
func (s *Service) Suggest(ctx context.Context, req agent.SuggestionRequest) (*agent.Suggestion, error) {
	if s.translator == nil {
		return nil, ErrAgentUnavailable
	}
	if req.SourceLocale == "" {
		req.SourceLocale = s.locale
	}
	if strings.TrimSpace(req.SourceText) == "" {
		list, err := s.Translations(ctx, req.SourceLocale)
		if err != nil {
			return nil, err
		}
		for _, t := range list {
			if t.Key == req.Key {
				req.SourceText = t.Value
				break
			}
		}
		if req.SourceText == "" {
			return nil, fmt.Errorf("no %s text for %q: %w", req.SourceLocale, req.Key, store.ErrNotFound)
		}
	}

	sug, err := s.translator.SuggestTranslation(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest translation: %w", err)
	}
	return sug, nil
}
