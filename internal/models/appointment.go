package models

import (
	"fmt"
	"time"
)

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentApproved  AppointmentStatus = "approved"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentCompleted AppointmentStatus = "completed"
)

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentPending:  {AppointmentApproved, AppointmentCancelled},
	AppointmentApproved: {AppointmentCancelled},
}

// CanTransitionTo reports whether next is reachable from s in one step.
// cancelled and completed are terminal.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentApproved, AppointmentCancelled, AppointmentCompleted:
		return true
	}
	return false
}

// Booker is the contact block submitted with a booking
type Booker struct {
	Name    string `json:"name" gorm:"size:100"`
	Email   string `json:"email" gorm:"size:255"`
	Phone   string `json:"phone,omitempty" gorm:"size:32"`
	Company string `json:"company,omitempty" gorm:"size:100"`
	Role    string `json:"role,omitempty" gorm:"size:100"`
}

type Appointment struct {
	ID               string            `json:"id" gorm:"primaryKey;size:36"`
	PortfolioID      string            `json:"portfolio_id" gorm:"size:36;index"`
	PortfolioOwnerID string            `json:"portfolio_owner_id" gorm:"size:255;index"`
	BookerID         string            `json:"booker_id" gorm:"size:255;index"`
	Booker           Booker            `json:"booker" gorm:"embedded;embeddedPrefix:booker_"`
	Date             string            `json:"date" gorm:"size:10"`
	Time             string            `json:"time" gorm:"size:5"`
	DurationMinutes  int               `json:"duration_minutes"`
	Reason           string            `json:"reason"`
	Status           AppointmentStatus `json:"status" gorm:"size:16;index"`
	MeetingLink      string            `json:"meeting_link,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// FormattedWhen renders the slot for messages, e.g. "Mon, Jan 2 2026 at 3:04 PM".
// Unparseable values are returned as stored.
func (a *Appointment) FormattedWhen() string {
	t, err := time.Parse("2006-01-02 15:04", a.Date+" "+a.Time)
	if err != nil {
		return fmt.Sprintf("%s at %s", a.Date, a.Time)
	}
	return t.Format("Mon, Jan 2 2006 at 3:04 PM")
}

type BookAppointmentRequest struct {
	PortfolioID     string `json:"portfolio_id" validate:"required"`
	Name            string `json:"name" validate:"required,min=2,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Company         string `json:"company,omitempty" validate:"omitempty,max=100"`
	Role            string `json:"role,omitempty" validate:"omitempty,max=100"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string `json:"time" validate:"required,datetime=15:04"`
	DurationMinutes int    `json:"duration_minutes" validate:"omitempty,min=15,max=240"`
	Reason          string `json:"reason" validate:"required,max=2000"`
}

type CancelAppointmentRequest struct {
	ByOwner bool `json:"by_owner"`
}
