package models

import "time"

const (
	DefaultTypeSequence = 1

	// tagPaletteSize bounds the colors handed out to auto-created tags.
	tagPaletteSize = 11
)

type PropertyType struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;uniqueIndex:idx_property_type_name" json:"name"`
	Sequence  int       `gorm:"not null" json:"sequence"`
	CreatedAt time.Time `json:"created_at"`

	OfferCount    int64 `gorm:"-" json:"offer_count"`
	PropertyCount int64 `gorm:"-" json:"property_count"`
}

func (PropertyType) TableName() string {
	return "estate_property_types"
}

func (t *PropertyType) Validate() error {
	if t.Name == "" {
		return NewValidationError("name", "The type name is required.")
	}
	return nil
}

type PropertyTag struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;uniqueIndex:idx_property_tag_name" json:"name"`
	Color     int       `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

func (PropertyTag) TableName() string {
	return "estate_property_tags"
}

func (t *PropertyTag) Validate() error {
	if t.Name == "" {
		return NewValidationError("name", "The tag name is required.")
	}
	return nil
}

// TagColorForSequence maps a type sequence onto the 1..11 tag palette.
func TagColorForSequence(sequence int) int {
	c := sequence % tagPaletteSize
	if c < 0 {
		c += tagPaletteSize
	}
	return c + 1
}
