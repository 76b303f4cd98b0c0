package repositories

import (
	"github.com/anonto42/folio/backend/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates every relational table
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Notification{},
		&models.Subscription{},
		&models.Appointment{},
		&models.Portfolio{},
		&models.Template{},
	)
}
