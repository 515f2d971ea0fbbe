package database

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"estate/server/internal/models"
)

func (d *Database) CreatePropertyType(ctx context.Context, t *models.PropertyType) error {
	if err := d.conn(ctx).Omit(clause.Associations).Create(t).Error; err != nil {
		return translateError(err, "property type", t.Name)
	}
	return nil
}

func (d *Database) GetPropertyType(ctx context.Context, id int64) (*models.PropertyType, error) {
	var t models.PropertyType
	if err := d.conn(ctx).First(&t, id).Error; err != nil {
		return nil, translateError(err, "property type", id)
	}
	types := []models.PropertyType{t}
	if err := d.fillTypeCounts(ctx, types); err != nil {
		return nil, err
	}
	return &types[0], nil
}

// ListPropertyTypes orders by sequence descending, then name.
func (d *Database) ListPropertyTypes(ctx context.Context) ([]models.PropertyType, error) {
	var types []models.PropertyType
	if err := d.conn(ctx).Order("sequence desc").Order("name asc").Find(&types).Error; err != nil {
		return nil, fmt.Errorf("failed to list property types: %w", err)
	}
	if err := d.fillTypeCounts(ctx, types); err != nil {
		return nil, err
	}
	return types, nil
}

type typeCount struct {
	PropertyTypeID int64
	Total          int64
}

// fillTypeCounts recomputes offer and property counts on read.
func (d *Database) fillTypeCounts(ctx context.Context, types []models.PropertyType) error {
	if len(types) == 0 {
		return nil
	}
	ids := make([]int64, len(types))
	for i, t := range types {
		ids[i] = t.ID
	}

	var propertyCounts []typeCount
	err := d.conn(ctx).Model(&models.Property{}).
		Select("property_type_id, COUNT(*) AS total").
		Where("property_type_id IN ? AND active = ?", ids, true).
		Group("property_type_id").
		Scan(&propertyCounts).Error
	if err != nil {
		return fmt.Errorf("failed to count properties per type: %w", err)
	}

	var offerCounts []typeCount
	err = d.conn(ctx).Model(&models.Offer{}).
		Select("property_type_id, COUNT(*) AS total").
		Where("property_type_id IN ?", ids).
		Group("property_type_id").
		Scan(&offerCounts).Error
	if err != nil {
		return fmt.Errorf("failed to count offers per type: %w", err)
	}

	byID := make(map[int64]*models.PropertyType, len(types))
	for i := range types {
		types[i].PropertyCount = 0
		types[i].OfferCount = 0
		byID[types[i].ID] = &types[i]
	}
	for _, c := range propertyCounts {
		if t, ok := byID[c.PropertyTypeID]; ok {
			t.PropertyCount = c.Total
		}
	}
	for _, c := range offerCounts {
		if t, ok := byID[c.PropertyTypeID]; ok {
			t.OfferCount = c.Total
		}
	}
	return nil
}

func (d *Database) DeletePropertyType(ctx context.Context, id int64) error {
	db := d.conn(ctx)

	err := db.Model(&models.Property{}).Where("property_type_id = ?", id).Update("property_type_id", nil).Error
	if err != nil {
		return fmt.Errorf("failed to detach properties from type %d: %w", id, err)
	}
	err = db.Model(&models.Offer{}).Where("property_type_id = ?", id).Update("property_type_id", nil).Error
	if err != nil {
		return fmt.Errorf("failed to detach offers from type %d: %w", id, err)
	}

	result := db.Delete(&models.PropertyType{}, id)
	if result.Error != nil {
		return translateError(result.Error, "property type", id)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("property type %d: %w", id, models.ErrNotFound)
	}
	return nil
}

func (d *Database) CreateTag(ctx context.Context, t *models.PropertyTag) error {
	if err := d.conn(ctx).Create(t).Error; err != nil {
		return translateError(err, "tag", t.Name)
	}
	return nil
}

func (d *Database) FindTagByName(ctx context.Context, name string) (*models.PropertyTag, error) {
	var t models.PropertyTag
	if err := d.conn(ctx).Where("name = ?", name).First(&t).Error; err != nil {
		return nil, translateError(err, "tag", name)
	}
	return &t, nil
}

func (d *Database) ListTags(ctx context.Context) ([]models.PropertyTag, error) {
	var tags []models.PropertyTag
	if err := d.conn(ctx).Order("name asc").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

func (d *Database) DeleteTag(ctx context.Context, id int64) error {
	db := d.conn(ctx)
	if err := db.Exec("DELETE FROM estate_property_tag_rel WHERE property_tag_id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to unlink tag %d: %w", id, err)
	}
	result := db.Delete(&models.PropertyTag{}, id)
	if result.Error != nil {
		return translateError(result.Error, "tag", id)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("tag %d: %w", id, models.ErrNotFound)
	}
	return nil
}
