package repositories

import (
	"context"

	"github.com/anonto42/folio/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository stores the directed follow graph
type SubscriptionRepository interface {
	// Create reports whether a new edge was inserted
	Create(ctx context.Context, subscriberID, targetID string) (bool, error)
	Delete(ctx context.Context, subscriberID, targetID string) error
	Exists(ctx context.Context, subscriberID, targetID string) (bool, error)
	SubscribersOf(ctx context.Context, targetID string) ([]string, error)
	SubscribedToBy(ctx context.Context, subscriberID string) ([]string, error)
	Counts(ctx context.Context, userID string) (models.SubscriptionCounts, error)
}

type PostgresSubscriptionRepository struct {
	db *gorm.DB
}

func NewPostgresSubscriptionRepository(db *gorm.DB) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{db: db}
}

func (r *PostgresSubscriptionRepository) Create(ctx context.Context, subscriberID, targetID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Subscription{SubscriberID: subscriberID, TargetID: targetID})
	return res.RowsAffected > 0, res.Error
}

func (r *PostgresSubscriptionRepository) Delete(ctx context.Context, subscriberID, targetID string) error {
	return r.db.WithContext(ctx).
		Where("subscriber_id = ? AND target_id = ?", subscriberID, targetID).
		Delete(&models.Subscription{}).Error
}

func (r *PostgresSubscriptionRepository) Exists(ctx context.Context, subscriberID, targetID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("subscriber_id = ? AND target_id = ?", subscriberID, targetID).
		Count(&count).Error
	return count > 0, err
}

func (r *PostgresSubscriptionRepository) SubscribersOf(ctx context.Context, targetID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("target_id = ?", targetID).
		Order("created_at").
		Pluck("subscriber_id", &ids).Error
	return ids, err
}

func (r *PostgresSubscriptionRepository) SubscribedToBy(ctx context.Context, subscriberID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("subscriber_id = ?", subscriberID).
		Order("created_at").
		Pluck("target_id", &ids).Error
	return ids, err
}

func (r *PostgresSubscriptionRepository) Counts(ctx context.Context, userID string) (models.SubscriptionCounts, error) {
	var c models.SubscriptionCounts
	db := r.db.WithContext(ctx).Model(&models.Subscription{})
	if err := db.Where("target_id = ?", userID).Count(&c.Subscribers).Error; err != nil {
		return c, err
	}
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).Where("subscriber_id = ?", userID).Count(&c.Subscriptions).Error
	return c, err
}
