package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/internal/repositories"
	"github.com/anonto42/folio/backend/pkg/telemetry"
)

// NotificationService owns the per-recipient notification feed
type NotificationService struct {
	repo    repositories.NotificationRepository
	log     *zap.Logger
	now     func() time.Time
	emitted metric.Int64Counter
}

func NewNotificationService(repo repositories.NotificationRepository, log *zap.Logger) *NotificationService {
	emitted, err := telemetry.Meter().Int64Counter("folio.notifications.emitted",
		metric.WithDescription("Notifications stored, by type"))
	if err != nil {
		log.Warn("Failed to create notification counter", zap.Error(err))
	}
	return &NotificationService{repo: repo, log: log, now: time.Now, emitted: emitted}
}

// SetClock replaces the clock used for timestamps and recency grouping
func (s *NotificationService) SetClock(now func() time.Time) {
	s.now = now
}

// Add stores a notification unread and stamped now. Notifications to nobody, or from
// the recipient to themselves, are dropped and Add returns nil.
func (s *NotificationService) Add(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	if n.RecipientID == "" || n.RecipientID == n.ActorID {
		return nil, nil
	}
	n.ID = 0
	n.IsRead = false
	n.CreatedAt = s.now()
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return nil, err
	}
	if s.emitted != nil {
		s.emitted.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(n.Type))))
	}
	return n, nil
}

// notify is Add for side effects of other operations: failures are logged, never returned
func (s *NotificationService) notify(ctx context.Context, n *models.Notification) {
	if _, err := s.Add(ctx, n); err != nil {
		s.log.Error("Failed to store notification",
			zap.String("type", string(n.Type)),
			zap.String("recipient", n.RecipientID),
			zap.Error(err))
	}
}

func (s *NotificationService) List(ctx context.Context, sess *models.Session, page, limit int) ([]models.Notification, int64, error) {
	if !sess.IsAuthenticated() {
		return nil, 0, ErrUnauthenticated
	}
	return s.repo.GetByRecipientID(ctx, sess.UserID, page, limit)
}

func (s *NotificationService) Unread(ctx context.Context, sess *models.Session) ([]models.Notification, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	return s.repo.GetUnread(ctx, sess.UserID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, sess *models.Session) (int64, error) {
	if !sess.IsAuthenticated() {
		return 0, ErrUnauthenticated
	}
	return s.repo.GetUnreadCount(ctx, sess.UserID)
}

// Grouped returns the whole feed bucketed by local-midnight boundaries
func (s *NotificationService) Grouped(ctx context.Context, sess *models.Session) (*models.NotificationGroups, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	all, _, err := s.repo.GetByRecipientID(ctx, sess.UserID, 0, 0)
	if err != nil {
		return nil, err
	}
	groups := GroupByRecency(all, s.now())
	return &groups, nil
}

// GroupByRecency splits ns, newest first, into today, yesterday and earlier relative to
// midnight in now's location
func GroupByRecency(ns []models.Notification, now time.Time) models.NotificationGroups {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := today.AddDate(0, 0, -1)

	groups := models.NotificationGroups{
		Today:     []models.Notification{},
		Yesterday: []models.Notification{},
		Earlier:   []models.Notification{},
	}
	for _, n := range ns {
		created := n.CreatedAt.In(now.Location())
		switch {
		case !created.Before(today):
			groups.Today = append(groups.Today, n)
		case !created.Before(yesterday):
			groups.Yesterday = append(groups.Yesterday, n)
		default:
			groups.Earlier = append(groups.Earlier, n)
		}
	}
	return groups
}

// MarkAsRead flips one notification of the session's feed. Foreign or unknown ids are ignored.
func (s *NotificationService) MarkAsRead(ctx context.Context, sess *models.Session, id uint) error {
	if !sess.IsAuthenticated() {
		return ErrUnauthenticated
	}
	_, err := s.repo.MarkAsRead(ctx, sess.UserID, id)
	return err
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, sess *models.Session) (int64, error) {
	if !sess.IsAuthenticated() {
		return 0, ErrUnauthenticated
	}
	return s.repo.MarkAllAsRead(ctx, sess.UserID)
}

// Delete removes one notification of the session's feed. Foreign or unknown ids are ignored.
func (s *NotificationService) Delete(ctx context.Context, sess *models.Session, id uint) error {
	if !sess.IsAuthenticated() {
		return ErrUnauthenticated
	}
	_, err := s.repo.Delete(ctx, sess.UserID, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	return err
}

func (s *NotificationService) ClearAll(ctx context.Context, sess *models.Session) (int64, error) {
	if !sess.IsAuthenticated() {
		return 0, ErrUnauthenticated
	}
	return s.repo.DeleteAll(ctx, sess.UserID)
}
