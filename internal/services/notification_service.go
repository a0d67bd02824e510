package services

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-suggestion-box/internal/domain"
	"github.com/tbourn/go-suggestion-box/internal/repo"
)

// NotificationService appends and reads per-recipient notifications.
// Recipients are identified by email.
type NotificationService struct {
	Store *repo.Store
}

// Create appends an unread notification. suggestionID may be empty.
func (s *NotificationService) Create(ctx context.Context, recipient string, typ domain.NotificationType, title, message, suggestionID string) (domain.Notification, error) {
	if !typ.Valid() {
		return domain.Notification{}, ErrValidation
	}
	n, err := s.Store.Notifications.Create(ctx, domain.Notification{
		UserID:       recipient,
		Type:         typ,
		Title:        title,
		Message:      message,
		SuggestionID: suggestionID,
	})
	if err != nil {
		return domain.Notification{}, err
	}
	notificationsCreated.WithLabelValues(string(typ)).Inc()
	return n, nil
}

// ListFor returns the recipient's notifications, newest first. Equal
// timestamps keep insertion order.
func (s *NotificationService) ListFor(ctx context.Context, recipient string) ([]domain.Notification, error) {
	ctx, span := otel.Tracer("services/NotificationService").Start(ctx, "ListFor",
		trace.WithAttributes(attribute.String("recipient", recipient)))
	defer span.End()

	all, err := s.Store.Notifications.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Notification, 0, len(all))
	for _, n := range all {
		if n.UserID == recipient {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UnreadCount counts the recipient's unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, recipient string) (int, error) {
	all, err := s.Store.Notifications.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, it := range all {
		if it.UserID == recipient && !it.Read {
			n++
		}
	}
	return n, nil
}

// MarkRead marks one notification read. It reports false when the id is
// unknown.
func (s *NotificationService) MarkRead(ctx context.Context, id string) (bool, error) {
	_, ok, err := s.Store.Notifications.Update(ctx, id, func(n *domain.Notification) { n.Read = true })
	return ok, err
}

// MarkAllRead marks every unread notification of recipient read and
// reports how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipient string) (int, error) {
	changed := 0
	err := s.Store.Notifications.Mutate(ctx, func(items []domain.Notification, _ time.Time) ([]domain.Notification, bool, error) {
		for i := range items {
			if items[i].UserID == recipient && !items[i].Read {
				items[i].Read = true
				changed++
			}
		}
		return items, changed > 0, nil
	})
	return changed, err
}
