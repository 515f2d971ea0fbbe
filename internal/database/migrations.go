package database

import (
	"fmt"

	"estate/server/internal/models"
)

func (d *Database) RunMigrations() error {
	err := d.db.AutoMigrate(
		&models.Partner{},
		&models.PropertyType{},
		&models.PropertyTag{},
		&models.Property{},
		&models.Offer{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Accept checks look up accepted offers per property
	err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_offers_property_status
		ON estate_property_offers(property_id, status);
	`).Error
	if err != nil {
		return fmt.Errorf("failed to create offer status index: %w", err)
	}

	return nil
}
