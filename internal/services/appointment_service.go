package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anonto42/folio/backend/internal/identity"
	"github.com/anonto42/folio/backend/internal/mailer"
	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/internal/repositories"
	"github.com/anonto42/folio/backend/pkg/config"
	"github.com/anonto42/folio/backend/pkg/telemetry"
)

const defaultAppointmentMinutes = 30

// AppointmentService runs the booking workflow: pending -> approved | cancelled
type AppointmentService struct {
	appointments   repositories.AppointmentRepository
	portfolios     repositories.PortfolioRepository
	resolver       *identity.Resolver
	notifications  *NotificationService
	mail           mailer.Mailer
	meetingBaseURL string
	log            *zap.Logger
}

func NewAppointmentService(
	appointments repositories.AppointmentRepository,
	portfolios repositories.PortfolioRepository,
	resolver *identity.Resolver,
	notifications *NotificationService,
	mail mailer.Mailer,
	cfg *config.AppointmentConfig,
	log *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		appointments:   appointments,
		portfolios:     portfolios,
		resolver:       resolver,
		notifications:  notifications,
		mail:           mail,
		meetingBaseURL: strings.TrimRight(cfg.MeetingBaseURL, "/"),
		log:            log,
	}
}

// ownerOf resolves the owner of a portfolio, "" when it has none
func (s *AppointmentService) ownerOf(ctx context.Context, portfolioID string) (string, error) {
	p, err := s.portfolios.Get(ctx, portfolioID)
	if errors.Is(err, repositories.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	owner, _, err := s.resolver.Resolve(ctx, p.UserID)
	return owner, err
}

func (s *AppointmentService) save(ctx context.Context, a *models.Appointment) error {
	outcome, err := s.appointments.Save(ctx, a)
	if err != nil {
		return err
	}
	if outcome == repositories.OutcomeFallback {
		s.log.Warn("Appointment saved to snapshot store only", zap.String("appointment_id", a.ID))
	}
	return nil
}

func appointmentNotification(a *models.Appointment, recipient string, actorID, actorName, msg string) *models.Notification {
	return &models.Notification{
		Type:            models.NotificationAppointment,
		RecipientID:     recipient,
		ActorID:         actorID,
		ActorName:       actorName,
		AppointmentID:   a.ID,
		AppointmentDate: a.Date,
		AppointmentTime: a.Time,
		Message:         msg,
	}
}

// Book creates a pending appointment on a portfolio and notifies its owner. The owner is
// resolved from the portfolio record now, so stored bookings always carry a real owner.
// sess may be nil for anonymous bookers, who are identified by their email.
func (s *AppointmentService) Book(ctx context.Context, sess *models.Session, req models.BookAppointmentRequest) (*models.Appointment, error) {
	ctx, span := telemetry.StartSpan(ctx, "appointment.book")
	defer span.End()

	owner, err := s.ownerOf(ctx, req.PortfolioID)
	if err != nil {
		return nil, err
	}
	if owner == "" {
		return nil, fmt.Errorf("portfolio %s: %w", req.PortfolioID, ErrOwnerUnresolved)
	}

	bookerID := ""
	if sess.IsAuthenticated() {
		bookerID = sess.UserID
	} else if bookerID, _, err = s.resolver.Resolve(ctx, req.Email); err != nil {
		return nil, err
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = defaultAppointmentMinutes
	}
	now := s.notifications.now()
	a := &models.Appointment{
		ID:               uuid.NewString(),
		PortfolioID:      req.PortfolioID,
		PortfolioOwnerID: owner,
		BookerID:         bookerID,
		Booker: models.Booker{
			Name:    req.Name,
			Email:   identity.Canonical(req.Email),
			Phone:   req.Phone,
			Company: req.Company,
			Role:    req.Role,
		},
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: duration,
		Reason:          req.Reason,
		Status:          models.AppointmentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.save(ctx, a); err != nil {
		return nil, err
	}

	s.notifications.notify(ctx, appointmentNotification(a, owner, bookerID, req.Name,
		fmt.Sprintf("%s requested an appointment on %s", req.Name, a.FormattedWhen())))
	return a, nil
}

// load returns nil for unknown ids
func (s *AppointmentService) load(ctx context.Context, id string) (*models.Appointment, error) {
	a, err := s.appointments.Get(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	return a, err
}

func (s *AppointmentService) transition(ctx context.Context, a *models.Appointment, next models.AppointmentStatus) error {
	if !a.Status.CanTransitionTo(next) {
		return fmt.Errorf("%s -> %s: %w", a.Status, next, ErrInvalidTransition)
	}
	a.Status = next
	a.UpdatedAt = s.notifications.now()
	return s.save(ctx, a)
}

// Approve confirms a pending appointment, issues a meeting link and tells the booker
func (s *AppointmentService) Approve(ctx context.Context, sess *models.Session, id string) (*models.Appointment, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	a, err := s.load(ctx, id)
	if err != nil || a == nil {
		return nil, err
	}
	if !sess.Is(a.PortfolioOwnerID) {
		return nil, ErrForbidden
	}

	prevLink := a.MeetingLink
	if a.Status.CanTransitionTo(models.AppointmentApproved) {
		a.MeetingLink = s.meetingBaseURL + "/" + uuid.NewString()
	}
	if err := s.transition(ctx, a, models.AppointmentApproved); err != nil {
		a.MeetingLink = prevLink
		return nil, err
	}

	when := a.FormattedWhen()
	s.notifications.notify(ctx, appointmentNotification(a, a.BookerID, sess.UserID, sess.Name(),
		fmt.Sprintf("%s approved your appointment on %s. Meeting link: %s", sess.Name(), when, a.MeetingLink)))

	if a.Booker.Email != "" {
		err := s.mail.Send(ctx, mailer.Message{
			To:      a.Booker.Email,
			Subject: "Your appointment is confirmed",
			Body: fmt.Sprintf("Hi %s,\n\n%s approved your appointment on %s (%d minutes).\nJoin here: %s\n",
				a.Booker.Name, sess.Name(), when, a.DurationMinutes, a.MeetingLink),
		})
		if err != nil {
			s.log.Warn("Failed to email booker", zap.String("appointment_id", a.ID), zap.Error(err))
		}
	}
	return a, nil
}

// isBooker also accepts the account whose current email made the booking before signing up
func isBooker(sess *models.Session, email string, a *models.Appointment) bool {
	return sess.Is(a.BookerID) || (email != "" && a.BookerID == email)
}

// emailOf reads the caller's email from the account, not the token, so an address the
// caller gave up no longer grants access to bookings made with it
func (s *AppointmentService) emailOf(ctx context.Context, sess *models.Session) (string, error) {
	return s.resolver.Email(ctx, sess.UserID)
}

// Cancel moves a pending or approved appointment to cancelled and tells the other party.
// byOwner selects which side the caller acts for.
func (s *AppointmentService) Cancel(ctx context.Context, sess *models.Session, id string, byOwner bool) (*models.Appointment, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	a, err := s.load(ctx, id)
	if err != nil || a == nil {
		return nil, err
	}

	recipient := a.PortfolioOwnerID
	if byOwner {
		recipient = a.BookerID
		if !sess.Is(a.PortfolioOwnerID) {
			return nil, ErrForbidden
		}
	} else {
		email, err := s.emailOf(ctx, sess)
		if err != nil {
			return nil, err
		}
		if !isBooker(sess, email, a) {
			return nil, ErrForbidden
		}
	}

	if err := s.transition(ctx, a, models.AppointmentCancelled); err != nil {
		return nil, err
	}
	s.notifications.notify(ctx, appointmentNotification(a, recipient, sess.UserID, sess.Name(),
		fmt.Sprintf("%s cancelled the appointment on %s", sess.Name(), a.FormattedWhen())))
	return a, nil
}

// ReconcileOwners repairs appointments stored without a usable owner id by re-deriving it
// from their portfolio. Records whose portfolio has no owner either are left alone.
// It is idempotent and returns the number of records repaired.
func (s *AppointmentService) ReconcileOwners(ctx context.Context) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "appointment.reconcile_owners")
	defer span.End()

	unowned, err := s.appointments.ListUnowned(ctx, identity.Placeholders())
	if err != nil {
		return 0, err
	}
	repaired := 0
	for i := range unowned {
		// listings merge snapshot copies, which may be older than the primary record
		a, err := s.load(ctx, unowned[i].ID)
		if err != nil {
			return repaired, err
		}
		if a == nil || !identity.IsPlaceholder(a.PortfolioOwnerID) {
			continue
		}
		owner, err := s.ownerOf(ctx, a.PortfolioID)
		if err != nil {
			return repaired, err
		}
		if owner == "" {
			continue
		}
		a.PortfolioOwnerID = owner
		if err := s.save(ctx, a); err != nil {
			return repaired, err
		}
		repaired++
	}
	if repaired > 0 {
		s.log.Info("Repaired appointment owners", zap.Int("count", repaired))
	}
	return repaired, nil
}

func (s *AppointmentService) reconcileBeforeRead(ctx context.Context) {
	if _, err := s.ReconcileOwners(ctx); err != nil {
		s.log.Warn("Owner reconciliation failed", zap.Error(err))
	}
}

func newestFirst(as []models.Appointment) []models.Appointment {
	sort.SliceStable(as, func(i, j int) bool { return as[i].CreatedAt.After(as[j].CreatedAt) })
	return as
}

// Received lists appointments booked on the caller's portfolios
func (s *AppointmentService) Received(ctx context.Context, sess *models.Session) ([]models.Appointment, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	s.reconcileBeforeRead(ctx)
	as, err := s.appointments.ListByOwner(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	return newestFirst(as), nil
}

// Booked lists appointments the caller made, including anonymous bookings made with
// the caller's email before they signed up
func (s *AppointmentService) Booked(ctx context.Context, sess *models.Session) ([]models.Appointment, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	s.reconcileBeforeRead(ctx)
	as, err := s.appointments.ListByBooker(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	email, err := s.emailOf(ctx, sess)
	if err != nil {
		return nil, err
	}
	if email != "" && email != sess.UserID {
		byEmail, err := s.appointments.ListByBooker(ctx, email)
		if err != nil {
			return nil, err
		}
		as = append(as, byEmail...)
	}
	return newestFirst(as), nil
}

// Get returns an appointment to its owner, its booker or an admin
func (s *AppointmentService) Get(ctx context.Context, sess *models.Session, id string) (*models.Appointment, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	a, err := s.load(ctx, id)
	if err != nil || a == nil {
		return nil, err
	}
	if sess.Is(a.PortfolioOwnerID) || sess.IsAdmin() {
		return a, nil
	}
	email, err := s.emailOf(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !isBooker(sess, email, a) {
		return nil, ErrForbidden
	}
	return a, nil
}
