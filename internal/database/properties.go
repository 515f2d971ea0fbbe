package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"estate/server/internal/models"
)

func (d *Database) CreateProperty(ctx context.Context, p *models.Property) error {
	if err := d.conn(ctx).Omit(clause.Associations).Create(p).Error; err != nil {
		return translateError(err, "property", p.Name)
	}
	p.Derive()
	return nil
}

// preloadProperty loads the relations the derived fields depend on.
func preloadProperty(db *gorm.DB) *gorm.DB {
	return db.
		Preload("PropertyType").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Preload("Offers", func(db *gorm.DB) *gorm.DB { return db.Order("price desc") }).
		Preload("Offers.Partner")
}

func (d *Database) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	var p models.Property
	if err := preloadProperty(d.conn(ctx)).First(&p, id).Error; err != nil {
		return nil, translateError(err, "property", id)
	}
	deriveProperty(&p)
	return &p, nil
}

func (d *Database) ListProperties(ctx context.Context, filter models.PropertyFilter) ([]models.Property, error) {
	query := preloadProperty(d.conn(ctx)).Order("id desc")

	if !filter.IncludeInactive {
		query = query.Where("active = ?", true)
	}
	if filter.State != "" {
		query = query.Where("state = ?", filter.State)
	}
	if filter.PropertyTypeID != nil {
		query = query.Where("property_type_id = ?", *filter.PropertyTypeID)
	}
	if filter.PostcodePrefix != "" {
		query = query.Where("postcode LIKE ?", filter.PostcodePrefix+"%")
	}

	var properties []models.Property
	if err := query.Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	for i := range properties {
		deriveProperty(&properties[i])
	}
	return properties, nil
}

func (d *Database) UpdateProperty(ctx context.Context, id int64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := d.conn(ctx).Model(&models.Property{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return translateError(result.Error, "property", id)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("property %d: %w", id, models.ErrNotFound)
	}
	return nil
}

func (d *Database) ReplacePropertyTags(ctx context.Context, id int64, tagIDs []int64) error {
	var tags []models.PropertyTag
	if len(tagIDs) > 0 {
		if err := d.conn(ctx).Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
			return fmt.Errorf("failed to load tags: %w", err)
		}
		if len(tags) != len(uniqueIDs(tagIDs)) {
			return models.NewValidationError("tag_ids", "Unknown tag in tag_ids.")
		}
	}

	property := &models.Property{ID: id}
	if err := d.conn(ctx).Model(property).Association("Tags").Replace(tags); err != nil {
		return fmt.Errorf("failed to replace tags of property %d: %w", id, err)
	}
	return nil
}

func (d *Database) DeleteProperty(ctx context.Context, id int64) error {
	db := d.conn(ctx)

	if err := db.Where("property_id = ?", id).Delete(&models.Offer{}).Error; err != nil {
		return fmt.Errorf("failed to delete offers of property %d: %w", id, err)
	}
	if err := db.Model(&models.Property{ID: id}).Association("Tags").Clear(); err != nil {
		return fmt.Errorf("failed to unlink tags of property %d: %w", id, err)
	}

	result := db.Delete(&models.Property{}, id)
	if result.Error != nil {
		return translateError(result.Error, "property", id)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("property %d: %w", id, models.ErrNotFound)
	}
	return nil
}

func (d *Database) CancelPropertiesByType(ctx context.Context, typeID int64) (int64, error) {
	result := d.conn(ctx).Model(&models.Property{}).
		Where("property_type_id = ?", typeID).
		Update("state", models.StateCanceled)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cancel properties of type %d: %w", typeID, result.Error)
	}
	return result.RowsAffected, nil
}

func (d *Database) GetPropertyStats(ctx context.Context) (models.PropertyStats, error) {
	var stats models.PropertyStats
	err := d.conn(ctx).Model(&models.Property{}).
		Select(`
			COUNT(*) AS total_properties,
			COALESCE(AVG(expected_price), 0) AS average_price,
			COALESCE(SUM(CASE WHEN state = ? THEN 1 ELSE 0 END), 0) AS total_sold,
			COALESCE(SUM(CASE WHEN state IN ? THEN 1 ELSE 0 END), 0) AS total_open
		`, string(models.StateSold), []string{string(models.StateNew), string(models.StateReceived), string(models.StateAccepted)}).
		Where("active = ?", true).
		Scan(&stats).Error
	if err != nil {
		return stats, fmt.Errorf("failed to compute property stats: %w", err)
	}
	return stats, nil
}

func deriveProperty(p *models.Property) {
	now := time.Now()
	for i := range p.Offers {
		p.Offers[i].ComputeDeadline(now)
	}
	p.Derive()
}

func uniqueIDs(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
