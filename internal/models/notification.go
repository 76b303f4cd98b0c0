package models

import "time"

type NotificationType string

const (
	NotificationLike         NotificationType = "like"
	NotificationComment      NotificationType = "comment"
	NotificationReply        NotificationType = "reply"
	NotificationShare        NotificationType = "share"
	NotificationSubscription NotificationType = "subscription"
	NotificationMention      NotificationType = "mention"
	NotificationAppointment  NotificationType = "appointment"
)

// Notification is owned by exactly one recipient and only ever mutated to flip IsRead
type Notification struct {
	ID              uint             `json:"id" gorm:"primaryKey"`
	Type            NotificationType `json:"type" gorm:"size:20;index"`
	RecipientID     string           `json:"recipient_id" gorm:"size:255;index"`
	ActorID         string           `json:"actor_id" gorm:"size:255"`
	ActorName       string           `json:"actor_name" gorm:"size:100"`
	PostID          string           `json:"post_id,omitempty" gorm:"size:64"`
	PostTitle       string           `json:"post_title,omitempty" gorm:"size:200"`
	CommentID       string           `json:"comment_id,omitempty" gorm:"size:64"`
	AppointmentID   string           `json:"appointment_id,omitempty" gorm:"size:64"`
	AppointmentDate string           `json:"appointment_date,omitempty" gorm:"size:10"`
	AppointmentTime string           `json:"appointment_time,omitempty" gorm:"size:5"`
	Message         string           `json:"message"`
	IsRead          bool             `json:"is_read" gorm:"default:false;index"`
	CreatedAt       time.Time        `json:"created_at" gorm:"index"`
}

// Link is the client route a notification points at
func (n *Notification) Link() string {
	switch {
	case n.AppointmentID != "":
		return "/appointments/" + n.AppointmentID
	case n.PostID != "":
		return "/posts/" + n.PostID
	case n.Type == NotificationSubscription:
		return "/u/" + n.ActorID
	default:
		return "/notifications"
	}
}

// NotificationGroups buckets a feed by local-midnight boundaries
type NotificationGroups struct {
	Today     []Notification `json:"today"`
	Yesterday []Notification `json:"yesterday"`
	Earlier   []Notification `json:"earlier"`
}
