package database

import (
	"context"
	"fmt"

	"estate/server/internal/models"
)

func (d *Database) CreatePartner(ctx context.Context, p *models.Partner) error {
	if err := d.conn(ctx).Create(p).Error; err != nil {
		return translateError(err, "partner", p.Name)
	}
	return nil
}

func (d *Database) GetPartner(ctx context.Context, id int64) (*models.Partner, error) {
	var p models.Partner
	if err := d.conn(ctx).First(&p, id).Error; err != nil {
		return nil, translateError(err, "partner", id)
	}
	return &p, nil
}

func (d *Database) ListPartners(ctx context.Context) ([]models.Partner, error) {
	var partners []models.Partner
	if err := d.conn(ctx).Order("name asc").Find(&partners).Error; err != nil {
		return nil, fmt.Errorf("failed to list partners: %w", err)
	}
	return partners, nil
}
