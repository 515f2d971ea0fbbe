package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"estate/server/internal/models"
)

func (d *Database) CreateOffer(ctx context.Context, o *models.Offer) error {
	if err := d.conn(ctx).Omit(clause.Associations).Create(o).Error; err != nil {
		return translateError(err, "offer", o.PropertyID)
	}
	o.ComputeDeadline(time.Now())
	return nil
}

func (d *Database) GetOffer(ctx context.Context, id int64) (*models.Offer, error) {
	var o models.Offer
	if err := d.conn(ctx).Preload("Partner").First(&o, id).Error; err != nil {
		return nil, translateError(err, "offer", id)
	}
	o.ComputeDeadline(time.Now())
	return &o, nil
}

// ListOffers returns the offers of a property, highest price first.
func (d *Database) ListOffers(ctx context.Context, propertyID int64) ([]models.Offer, error) {
	var offers []models.Offer
	err := d.conn(ctx).Preload("Partner").
		Where("property_id = ?", propertyID).
		Order("price desc").
		Find(&offers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list offers of property %d: %w", propertyID, err)
	}
	now := time.Now()
	for i := range offers {
		offers[i].ComputeDeadline(now)
	}
	return offers, nil
}

func (d *Database) UpdateOffer(ctx context.Context, id int64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := d.conn(ctx).Model(&models.Offer{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return translateError(result.Error, "offer", id)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("offer %d: %w", id, models.ErrNotFound)
	}
	return nil
}

func (d *Database) DeleteOffer(ctx context.Context, id int64) error {
	result := d.conn(ctx).Delete(&models.Offer{}, id)
	if result.Error != nil {
		return translateError(result.Error, "offer", id)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("offer %d: %w", id, models.ErrNotFound)
	}
	return nil
}

func (d *Database) CountAcceptedOffers(ctx context.Context, propertyID int64) (int64, error) {
	var count int64
	err := d.conn(ctx).Model(&models.Offer{}).
		Where("property_id = ? AND status = ?", propertyID, string(models.OfferStatusAccepted)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count accepted offers of property %d: %w", propertyID, err)
	}
	return count, nil
}

// SyncOfferPropertyType copies the property's type onto its offers.
func (d *Database) SyncOfferPropertyType(ctx context.Context, propertyID int64, typeID *int64) error {
	err := d.conn(ctx).Model(&models.Offer{}).
		Where("property_id = ?", propertyID).
		Update("property_type_id", typeID).Error
	if err != nil {
		return fmt.Errorf("failed to sync offer types of property %d: %w", propertyID, err)
	}
	return nil
}
