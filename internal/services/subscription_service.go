package services

import (
	"context"
	"fmt"

	"github.com/anonto42/folio/backend/internal/identity"
	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/internal/repositories"
)

// SubscriptionService maintains the directed subscriber -> target graph
type SubscriptionService struct {
	repo          repositories.SubscriptionRepository
	resolver      *identity.Resolver
	notifications *NotificationService
}

func NewSubscriptionService(repo repositories.SubscriptionRepository, resolver *identity.Resolver, notifications *NotificationService) *SubscriptionService {
	return &SubscriptionService{repo: repo, resolver: resolver, notifications: notifications}
}

// target resolves a user reference. Unknown users resolve to "".
func (s *SubscriptionService) target(ctx context.Context, ref string) (string, error) {
	id, registered, err := s.resolver.Resolve(ctx, ref)
	if err != nil || !registered {
		return "", err
	}
	return id, nil
}

// Subscribe adds an edge and notifies the target. Subscribing to yourself, to an unknown
// user or twice does nothing. The result reports whether the caller is now subscribed.
func (s *SubscriptionService) Subscribe(ctx context.Context, sess *models.Session, ref string) (bool, error) {
	if !sess.IsAuthenticated() {
		return false, ErrUnauthenticated
	}
	target, err := s.target(ctx, ref)
	if err != nil {
		return false, err
	}
	if target == "" || sess.Is(target) {
		return false, nil
	}

	created, err := s.repo.Create(ctx, sess.UserID, target)
	if err != nil {
		return false, err
	}
	if created {
		s.notifications.notify(ctx, &models.Notification{
			Type:        models.NotificationSubscription,
			RecipientID: target,
			ActorID:     sess.UserID,
			ActorName:   sess.Name(),
			Message:     fmt.Sprintf("%s subscribed to you", sess.Name()),
		})
	}
	return true, nil
}

// Unsubscribe removes the edge if present
func (s *SubscriptionService) Unsubscribe(ctx context.Context, sess *models.Session, ref string) error {
	if !sess.IsAuthenticated() {
		return ErrUnauthenticated
	}
	target, err := s.target(ctx, ref)
	if err != nil || target == "" {
		return err
	}
	return s.repo.Delete(ctx, sess.UserID, target)
}

func (s *SubscriptionService) IsSubscribed(ctx context.Context, sess *models.Session, ref string) (bool, error) {
	if !sess.IsAuthenticated() {
		return false, nil
	}
	target, err := s.target(ctx, ref)
	if err != nil || target == "" {
		return false, err
	}
	return s.repo.Exists(ctx, sess.UserID, target)
}

func (s *SubscriptionService) SubscribersOf(ctx context.Context, ref string) ([]string, error) {
	target, err := s.target(ctx, ref)
	if err != nil || target == "" {
		return []string{}, err
	}
	return s.repo.SubscribersOf(ctx, target)
}

func (s *SubscriptionService) SubscribedToBy(ctx context.Context, ref string) ([]string, error) {
	subscriber, err := s.target(ctx, ref)
	if err != nil || subscriber == "" {
		return []string{}, err
	}
	return s.repo.SubscribedToBy(ctx, subscriber)
}

func (s *SubscriptionService) Counts(ctx context.Context, ref string) (models.SubscriptionCounts, error) {
	id, err := s.target(ctx, ref)
	if err != nil || id == "" {
		return models.SubscriptionCounts{}, err
	}
	return s.repo.Counts(ctx, id)
}
