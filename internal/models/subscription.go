package models

import "time"

// Subscription is a directed follow edge, unique per (subscriber, target)
type Subscription struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	SubscriberID string    `json:"subscriber_id" gorm:"size:255;index;uniqueIndex:idx_subscriber_target"`
	TargetID     string    `json:"target_id" gorm:"size:255;index;uniqueIndex:idx_subscriber_target"`
	CreatedAt    time.Time `json:"created_at"`
}

type SubscriptionCounts struct {
	Subscribers   int64 `json:"subscribers"`
	Subscriptions int64 `json:"subscriptions"`
}
