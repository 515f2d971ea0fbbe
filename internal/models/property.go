package models

import (
	"math"
	"time"
)

// PropertyState is the position of a property in the sale workflow.
type PropertyState string

const (
	StateNew      PropertyState = "new"
	StateReceived PropertyState = "received"
	StateAccepted PropertyState = "accepted"
	StateSold     PropertyState = "sold"
	StateCanceled PropertyState = "canceled"
)

// IsValid reports whether s is one of the known states.
func (s PropertyState) IsValid() bool {
	switch s {
	case StateNew, StateReceived, StateAccepted, StateSold, StateCanceled:
		return true
	default:
		return false
	}
}

// Deletable reports whether a property in this state may be removed.
func (s PropertyState) Deletable() bool {
	return s == StateNew || s == StateCanceled
}

// AcceptsOffers reports whether new offers can be made in this state.
func (s PropertyState) AcceptsOffers() bool {
	return s == StateNew || s == StateReceived
}

type GardenOrientation string

const (
	OrientationUnset GardenOrientation = ""
	OrientationNorth GardenOrientation = "north"
	OrientationSouth GardenOrientation = "south"
	OrientationEast  GardenOrientation = "east"
	OrientationWest  GardenOrientation = "west"
)

func (o GardenOrientation) IsValid() bool {
	switch o {
	case OrientationUnset, OrientationNorth, OrientationSouth, OrientationEast, OrientationWest:
		return true
	default:
		return false
	}
}

const (
	DefaultBedrooms   = 2
	DefaultLivingArea = 50

	// SellingPriceFloor is the minimum ratio of selling to expected price.
	SellingPriceFloor = 0.9

	// PricePrecision is the number of decimals prices are compared with.
	PricePrecision = 2
)

type Property struct {
	ID                int64             `gorm:"primaryKey" json:"id"`
	Name              string            `gorm:"not null" json:"name"`
	Description       string            `json:"description"`
	OtherInfo         string            `json:"other_info"`
	Postcode          string            `gorm:"index" json:"postcode"`
	DateAvailability  *time.Time        `gorm:"type:date" json:"date_availability"`
	ExpectedPrice     float64           `gorm:"not null;check:chk_expected_price_positive,expected_price > 0" json:"expected_price"`
	SellingPrice      float64           `gorm:"not null;check:chk_selling_price_positive,selling_price >= 0" json:"selling_price"`
	Bedrooms          int               `json:"bedrooms"`
	LivingArea        int               `json:"living_area"`
	Facades           int               `json:"facades"`
	Garage            bool              `json:"garage"`
	Garden            bool              `json:"garden"`
	GardenArea        int               `json:"garden_area"`
	GardenOrientation GardenOrientation `json:"garden_orientation"`
	State             PropertyState     `gorm:"not null;index" json:"state"`
	Active            bool              `gorm:"not null" json:"active"`
	PropertyTypeID    *int64            `gorm:"index" json:"property_type_id"`
	PropertyType      *PropertyType     `gorm:"constraint:OnDelete:SET NULL" json:"property_type,omitempty"`
	Offers            []Offer           `gorm:"constraint:OnDelete:CASCADE" json:"offers,omitempty"`
	Tags              []PropertyTag     `gorm:"many2many:estate_property_tag_rel" json:"tags"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`

	TotalArea int     `gorm:"-" json:"total_area"`
	BestOffer float64 `gorm:"-" json:"best_offer"`
}

func (Property) TableName() string {
	return "estate_properties"
}

// NewProperty returns a property carrying the creation defaults.
func NewProperty(today time.Time) Property {
	availability := DateOf(today).AddDate(0, 3, 0)
	return Property{
		State:            StateNew,
		Active:           true,
		Bedrooms:         DefaultBedrooms,
		LivingArea:       DefaultLivingArea,
		DateAvailability: &availability,
	}
}

// ComputeTotalArea returns living area plus garden area.
func ComputeTotalArea(livingArea, gardenArea int) int {
	return livingArea + gardenArea
}

// ComputeBestOffer returns the highest offer price, or 0 without offers.
func ComputeBestOffer(offers []Offer) float64 {
	best := 0.0
	for i, offer := range offers {
		if i == 0 || offer.Price > best {
			best = offer.Price
		}
	}
	return best
}

// Derive recomputes the fields that are never stored. It must be called
// after every mutation of the areas or of the loaded offers.
func (p *Property) Derive() {
	p.TotalArea = ComputeTotalArea(p.LivingArea, p.GardenArea)
	p.BestOffer = ComputeBestOffer(p.Offers)
}

// CheckSellingPrice enforces that a non-zero selling price is at least
// 90% of the expected price.
func CheckSellingPrice(sellingPrice, expectedPrice float64) error {
	if FloatIsZero(sellingPrice, PricePrecision) {
		return nil
	}
	if FloatCompare(sellingPrice, expectedPrice*SellingPriceFloor, PricePrecision) < 0 {
		return NewValidationError("selling_price", "The selling price cannot be lower than 90% of the expected price!")
	}
	return nil
}

// Validate checks the stored-value invariants of a property.
func (p *Property) Validate() error {
	if p.Name == "" {
		return NewValidationError("name", "The title is required.")
	}
	if p.ExpectedPrice <= 0 {
		return NewValidationError("expected_price", "The expected price must be positive.")
	}
	if p.SellingPrice < 0 {
		return NewValidationError("selling_price", "The selling price must be non-negative.")
	}
	if !p.State.IsValid() {
		return NewValidationError("state", "Unknown state "+string(p.State)+".")
	}
	if !p.GardenOrientation.IsValid() {
		return NewValidationError("garden_orientation", "Unknown garden orientation "+string(p.GardenOrientation)+".")
	}
	return CheckSellingPrice(p.SellingPrice, p.ExpectedPrice)
}

// FloatIsZero reports whether v rounds to zero at the given precision.
func FloatIsZero(v float64, digits int) bool {
	return roundTo(v, digits) == 0
}

// FloatCompare compares a and b after rounding to the given precision and
// returns -1, 0 or 1.
func FloatCompare(a, b float64, digits int) int {
	delta := roundTo(a-b, digits)
	switch {
	case delta < 0:
		return -1
	case delta > 0:
		return 1
	default:
		return 0
	}
}

func roundTo(v float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	return math.Round(v*scale) / scale
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type PropertyStats struct {
	TotalProperties int     `json:"total_properties"`
	AveragePrice    float64 `json:"average_price"`
	TotalSold       int     `json:"total_sold"`
	TotalOpen       int     `json:"total_open"`
}
