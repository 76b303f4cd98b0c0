package repositories

import (
	"context"
	"slices"
	"strings"

	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/internal/snapshot"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const appointmentsKey = "appointments"

// AppointmentStore is one backing store for appointments
type AppointmentStore interface {
	Save(ctx context.Context, a *models.Appointment) error
	Get(ctx context.Context, id string) (*models.Appointment, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Appointment, error)
	ListByBooker(ctx context.Context, bookerID string) ([]models.Appointment, error)
	// ListUnowned returns records whose owner id is one of placeholders, compared case-insensitively
	ListUnowned(ctx context.Context, placeholders []string) ([]models.Appointment, error)
}

// AppointmentRepository is what services use: writes report the store that took them
type AppointmentRepository interface {
	Save(ctx context.Context, a *models.Appointment) (Outcome, error)
	Get(ctx context.Context, id string) (*models.Appointment, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Appointment, error)
	ListByBooker(ctx context.Context, bookerID string) ([]models.Appointment, error)
	ListUnowned(ctx context.Context, placeholders []string) ([]models.Appointment, error)
}

type PostgresAppointmentRepository struct {
	db *gorm.DB
}

func NewPostgresAppointmentRepository(db *gorm.DB) *PostgresAppointmentRepository {
	return &PostgresAppointmentRepository{db: db}
}

func (r *PostgresAppointmentRepository) Save(ctx context.Context, a *models.Appointment) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *PostgresAppointmentRepository) Get(ctx context.Context, id string) (*models.Appointment, error) {
	var a models.Appointment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *PostgresAppointmentRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Appointment, error) {
	appointments := []models.Appointment{}
	err := r.db.WithContext(ctx).Where(query, args...).Order("created_at DESC").Find(&appointments).Error
	return appointments, err
}

func (r *PostgresAppointmentRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Appointment, error) {
	return r.list(ctx, "portfolio_owner_id = ?", ownerID)
}

func (r *PostgresAppointmentRepository) ListByBooker(ctx context.Context, bookerID string) ([]models.Appointment, error) {
	return r.list(ctx, "booker_id = ?", bookerID)
}

func (r *PostgresAppointmentRepository) ListUnowned(ctx context.Context, placeholders []string) ([]models.Appointment, error) {
	return r.list(ctx, "portfolio_owner_id IS NULL OR LOWER(TRIM(portfolio_owner_id)) IN ?", placeholders)
}

// SnapshotAppointmentRepository keeps appointments as one JSON array in the snapshot store
type SnapshotAppointmentRepository struct {
	items *snapshot.Collection[models.Appointment]
}

func NewSnapshotAppointmentRepository(store snapshot.Store) *SnapshotAppointmentRepository {
	return &SnapshotAppointmentRepository{
		items: snapshot.NewCollection(store, appointmentsKey, func(a *models.Appointment) string { return a.ID }),
	}
}

func (r *SnapshotAppointmentRepository) Save(ctx context.Context, a *models.Appointment) error {
	return r.items.Upsert(ctx, a)
}

func (r *SnapshotAppointmentRepository) Get(ctx context.Context, id string) (*models.Appointment, error) {
	a, err := r.items.Find(ctx, id)
	if err != nil {
		return nil, snapshotErr(err)
	}
	return a, nil
}

func (r *SnapshotAppointmentRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Appointment, error) {
	return r.items.Filter(ctx, func(a *models.Appointment) bool { return a.PortfolioOwnerID == ownerID })
}

func (r *SnapshotAppointmentRepository) ListByBooker(ctx context.Context, bookerID string) ([]models.Appointment, error) {
	return r.items.Filter(ctx, func(a *models.Appointment) bool { return a.BookerID == bookerID })
}

func (r *SnapshotAppointmentRepository) ListUnowned(ctx context.Context, placeholders []string) ([]models.Appointment, error) {
	return r.items.Filter(ctx, func(a *models.Appointment) bool {
		return slices.Contains(placeholders, normalizeRef(a.PortfolioOwnerID))
	})
}

// FallbackAppointmentRepository composes a primary and a snapshot store with a
// write-through policy
type FallbackAppointmentRepository struct {
	primary  AppointmentStore
	fallback AppointmentStore
	log      *zap.Logger
}

func NewFallbackAppointmentRepository(primary, fallback AppointmentStore, log *zap.Logger) *FallbackAppointmentRepository {
	return &FallbackAppointmentRepository{primary: primary, fallback: fallback, log: log}
}

func appointmentID(a *models.Appointment) string { return a.ID }

func normalizeRef(ref string) string {
	return strings.ToLower(strings.TrimSpace(ref))
}

func (r *FallbackAppointmentRepository) Save(ctx context.Context, a *models.Appointment) (Outcome, error) {
	return writeThrough(r.log, "appointment.save",
		func() error { return r.primary.Save(ctx, a) },
		func() error { return r.fallback.Save(ctx, a) })
}

func (r *FallbackAppointmentRepository) Get(ctx context.Context, id string) (*models.Appointment, error) {
	return readThrough(r.log, "appointment.get",
		func() (*models.Appointment, error) { return r.primary.Get(ctx, id) },
		func() (*models.Appointment, error) { return r.fallback.Get(ctx, id) })
}

func (r *FallbackAppointmentRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Appointment, error) {
	return listThrough(r.log, "appointment.list_by_owner", appointmentID,
		func() ([]models.Appointment, error) { return r.primary.ListByOwner(ctx, ownerID) },
		func() ([]models.Appointment, error) { return r.fallback.ListByOwner(ctx, ownerID) })
}

func (r *FallbackAppointmentRepository) ListByBooker(ctx context.Context, bookerID string) ([]models.Appointment, error) {
	return listThrough(r.log, "appointment.list_by_booker", appointmentID,
		func() ([]models.Appointment, error) { return r.primary.ListByBooker(ctx, bookerID) },
		func() ([]models.Appointment, error) { return r.fallback.ListByBooker(ctx, bookerID) })
}

func (r *FallbackAppointmentRepository) ListUnowned(ctx context.Context, placeholders []string) ([]models.Appointment, error) {
	return listThrough(r.log, "appointment.list_unowned", appointmentID,
		func() ([]models.Appointment, error) { return r.primary.ListUnowned(ctx, placeholders) },
		func() ([]models.Appointment, error) { return r.fallback.ListUnowned(ctx, placeholders) })
}

// Compile-time checks
var (
	_ AppointmentStore      = (*PostgresAppointmentRepository)(nil)
	_ AppointmentStore      = (*SnapshotAppointmentRepository)(nil)
	_ AppointmentRepository = (*FallbackAppointmentRepository)(nil)
	_ error                 = (*WriteError)(nil)
)
