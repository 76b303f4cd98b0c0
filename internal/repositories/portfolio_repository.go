package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/internal/snapshot"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const portfoliosKey = "portfolios"

// PortfolioStore is one backing store for portfolios
type PortfolioStore interface {
	Save(ctx context.Context, p *models.Portfolio) error
	Get(ctx context.Context, id string) (*models.Portfolio, error)
	GetBySlug(ctx context.Context, slug string) (*models.Portfolio, error)
	ListByUser(ctx context.Context, userID string) ([]models.Portfolio, error)
	Delete(ctx context.Context, id string) error
}

type PortfolioRepository interface {
	Save(ctx context.Context, p *models.Portfolio) (Outcome, error)
	Get(ctx context.Context, id string) (*models.Portfolio, error)
	GetBySlug(ctx context.Context, slug string) (*models.Portfolio, error)
	ListByUser(ctx context.Context, userID string) ([]models.Portfolio, error)
	Delete(ctx context.Context, id string) (Outcome, error)
}

type PostgresPortfolioRepository struct {
	db *gorm.DB
}

func NewPostgresPortfolioRepository(db *gorm.DB) *PostgresPortfolioRepository {
	return &PostgresPortfolioRepository{db: db}
}

func (r *PostgresPortfolioRepository) Save(ctx context.Context, p *models.Portfolio) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *PostgresPortfolioRepository) Get(ctx context.Context, id string) (*models.Portfolio, error) {
	var p models.Portfolio
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *PostgresPortfolioRepository) GetBySlug(ctx context.Context, slug string) (*models.Portfolio, error) {
	var p models.Portfolio
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *PostgresPortfolioRepository) ListByUser(ctx context.Context, userID string) ([]models.Portfolio, error) {
	portfolios := []models.Portfolio{}
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&portfolios).Error
	return portfolios, err
}

func (r *PostgresPortfolioRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Portfolio{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SnapshotPortfolioRepository stores portfolios under the collection key plus per-entity
// keys: portfolios:<id> holds the record and portfolios:slug:<slug> holds its id.
type SnapshotPortfolioRepository struct {
	store snapshot.Store
	items *snapshot.Collection[models.Portfolio]
}

func NewSnapshotPortfolioRepository(store snapshot.Store) *SnapshotPortfolioRepository {
	return &SnapshotPortfolioRepository{
		store: store,
		items: snapshot.NewCollection(store, portfoliosKey, portfolioID),
	}
}

func portfolioID(p *models.Portfolio) string { return p.ID }

func portfolioKey(id string) string { return portfoliosKey + ":" + id }
func portfolioSlugKey(slug string) string { return portfoliosKey + ":slug:" + slug }

func (r *SnapshotPortfolioRepository) Save(ctx context.Context, p *models.Portfolio) error {
	if prev, err := r.Get(ctx, p.ID); err == nil && prev.Slug != p.Slug {
		if err := r.store.Delete(ctx, portfolioSlugKey(prev.Slug)); err != nil {
			return err
		}
	}
	if err := r.items.Upsert(ctx, p); err != nil {
		return err
	}
	if err := snapshot.SetJSON(ctx, r.store, portfolioKey(p.ID), p); err != nil {
		return err
	}
	return r.store.Set(ctx, portfolioSlugKey(p.Slug), []byte(p.ID))
}

func (r *SnapshotPortfolioRepository) Get(ctx context.Context, id string) (*models.Portfolio, error) {
	var p models.Portfolio
	if err := snapshot.GetJSON(ctx, r.store, portfolioKey(id), &p); err != nil {
		return nil, snapshotErr(err)
	}
	return &p, nil
}

func (r *SnapshotPortfolioRepository) GetBySlug(ctx context.Context, slug string) (*models.Portfolio, error) {
	id, err := r.store.Get(ctx, portfolioSlugKey(slug))
	if err != nil {
		return nil, snapshotErr(err)
	}
	return r.Get(ctx, string(id))
}

func (r *SnapshotPortfolioRepository) ListByUser(ctx context.Context, userID string) ([]models.Portfolio, error) {
	return r.items.Filter(ctx, func(p *models.Portfolio) bool { return p.UserID == userID })
}

func (r *SnapshotPortfolioRepository) Delete(ctx context.Context, id string) error {
	p, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.items.Remove(ctx, id); err != nil {
		return err
	}
	if err := r.store.Delete(ctx, portfolioSlugKey(p.Slug)); err != nil {
		return err
	}
	return r.store.Delete(ctx, portfolioKey(id))
}

// FallbackPortfolioRepository composes a primary and a snapshot store with the same
// write-through policy as appointments
type FallbackPortfolioRepository struct {
	primary  PortfolioStore
	fallback PortfolioStore
	log      *zap.Logger
}

func NewFallbackPortfolioRepository(primary, fallback PortfolioStore, log *zap.Logger) *FallbackPortfolioRepository {
	return &FallbackPortfolioRepository{primary: primary, fallback: fallback, log: log}
}

func (r *FallbackPortfolioRepository) Save(ctx context.Context, p *models.Portfolio) (Outcome, error) {
	return writeThrough(r.log, "portfolio.save",
		func() error { return r.primary.Save(ctx, p) },
		func() error { return r.fallback.Save(ctx, p) })
}

func (r *FallbackPortfolioRepository) Get(ctx context.Context, id string) (*models.Portfolio, error) {
	return readThrough(r.log, "portfolio.get",
		func() (*models.Portfolio, error) { return r.primary.Get(ctx, id) },
		func() (*models.Portfolio, error) { return r.fallback.Get(ctx, id) })
}

func (r *FallbackPortfolioRepository) GetBySlug(ctx context.Context, slug string) (*models.Portfolio, error) {
	return readThrough(r.log, "portfolio.get_by_slug",
		func() (*models.Portfolio, error) { return r.primary.GetBySlug(ctx, slug) },
		func() (*models.Portfolio, error) { return r.fallback.GetBySlug(ctx, slug) })
}

func (r *FallbackPortfolioRepository) ListByUser(ctx context.Context, userID string) ([]models.Portfolio, error) {
	return listThrough(r.log, "portfolio.list_by_user", portfolioID,
		func() ([]models.Portfolio, error) { return r.primary.ListByUser(ctx, userID) },
		func() ([]models.Portfolio, error) { return r.fallback.ListByUser(ctx, userID) })
}

// Delete removes the record from both stores. A record known only to the snapshot
// is deleted there and reported as a fallback outcome.
func (r *FallbackPortfolioRepository) Delete(ctx context.Context, id string) (Outcome, error) {
	outcome, err := writeThrough(r.log, "portfolio.delete",
		func() error { return r.primary.Delete(ctx, id) },
		func() error {
			if err := r.fallback.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			return nil
		})
	if errors.Is(err, ErrNotFound) {
		if ferr := r.fallback.Delete(ctx, id); ferr != nil {
			return 0, ferr
		}
		return OutcomeFallback, nil
	}
	return outcome, err
}

var (
	_ PortfolioStore      = (*PostgresPortfolioRepository)(nil)
	_ PortfolioStore      = (*SnapshotPortfolioRepository)(nil)
	_ PortfolioRepository = (*FallbackPortfolioRepository)(nil)
)
