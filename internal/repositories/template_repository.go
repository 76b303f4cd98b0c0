package repositories

import (
	"context"

	"github.com/anonto42/folio/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TemplateRepository interface {
	Seed(ctx context.Context, templates []models.Template) error
	List(ctx context.Context, category string) ([]models.Template, error)
	Get(ctx context.Context, id string) (*models.Template, error)
}

type PostgresTemplateRepository struct {
	db *gorm.DB
}

func NewPostgresTemplateRepository(db *gorm.DB) *PostgresTemplateRepository {
	return &PostgresTemplateRepository{db: db}
}

// Seed inserts templates that do not exist yet and leaves edited ones alone
func (r *PostgresTemplateRepository) Seed(ctx context.Context, templates []models.Template) error {
	if len(templates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&templates).Error
}

func (r *PostgresTemplateRepository) List(ctx context.Context, category string) ([]models.Template, error) {
	templates := []models.Template{}
	q := r.db.WithContext(ctx).Order("name")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	err := q.Find(&templates).Error
	return templates, err
}

func (r *PostgresTemplateRepository) Get(ctx context.Context, id string) (*models.Template, error) {
	var t models.Template
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}
