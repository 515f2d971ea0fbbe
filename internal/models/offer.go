package models

import (
	"fmt"
	"time"
)

type OfferStatus string

const (
	OfferStatusNone     OfferStatus = "none"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusRefused  OfferStatus = "refused"
)

const DefaultOfferValidity = 7

const (
	minDeadlineYear = 1
	maxDeadlineYear = 9999
	secondsPerDay   = 24 * 60 * 60
)

// Offer is a partner's bid on a property.
type Offer struct {
	ID             int64       `gorm:"primaryKey" json:"id"`
	Price          float64     `gorm:"not null;check:chk_offer_price_positive,price > 0" json:"price"`
	Status         OfferStatus `gorm:"not null;index" json:"status"`
	PartnerID      int64       `gorm:"not null;index" json:"partner_id"`
	Partner        *Partner    `gorm:"constraint:OnDelete:RESTRICT" json:"partner,omitempty"`
	PropertyID     int64       `gorm:"not null;index" json:"property_id"`
	PropertyTypeID *int64      `gorm:"index" json:"property_type_id"`
	Validity       int         `gorm:"not null" json:"validity"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`

	DateDeadline time.Time `gorm:"-" json:"date_deadline"`
}

func (Offer) TableName() string {
	return "estate_property_offers"
}

// deadlineAnchor is the creation date, or today for an offer not yet stored.
func (o *Offer) deadlineAnchor(today time.Time) time.Time {
	if !o.CreatedAt.IsZero() {
		return DateOf(o.CreatedAt)
	}
	return DateOf(today)
}

// ComputeDeadline derives the deadline from the validity.
func (o *Offer) ComputeDeadline(today time.Time) time.Time {
	o.DateDeadline = o.deadlineAnchor(today).AddDate(0, 0, o.Validity)
	return o.DateDeadline
}

// SetValidity updates the validity and the deadline derived from it. The
// deadline must stay within years 1 to 9999.
func (o *Offer) SetValidity(days int, today time.Time) error {
	anchor := o.deadlineAnchor(today)
	// Bounding the day count first keeps AddDate away from int overflow.
	limit := (maxDeadlineYear + 1) * 366
	if days > limit || days < -limit {
		return validityOutOfRange()
	}
	if !deadlineInRange(anchor.AddDate(0, 0, days)) {
		return validityOutOfRange()
	}
	o.Validity = days
	o.ComputeDeadline(today)
	return nil
}

// SetDeadline back-derives the validity from a deadline, counting calendar
// days between UTC midnights.
func (o *Offer) SetDeadline(deadline, today time.Time) error {
	target := DateOf(deadline)
	if !deadlineInRange(target) {
		return NewValidationError("date_deadline",
			fmt.Sprintf("The deadline must be between years %d and %d.", minDeadlineYear, maxDeadlineYear))
	}
	anchor := o.deadlineAnchor(today)
	o.Validity = int((target.Unix() - anchor.Unix()) / secondsPerDay)
	o.DateDeadline = anchor.AddDate(0, 0, o.Validity)
	return nil
}

func deadlineInRange(t time.Time) bool {
	return t.Year() >= minDeadlineYear && t.Year() <= maxDeadlineYear
}

func validityOutOfRange() error {
	return NewValidationError("validity",
		fmt.Sprintf("The validity puts the deadline outside years %d to %d.", minDeadlineYear, maxDeadlineYear))
}

func (o *Offer) Validate() error {
	if o.Price <= 0 {
		return NewValidationError("price", "The offer price must be positive.")
	}
	if o.PartnerID == 0 {
		return NewValidationError("partner_id", "A partner is required.")
	}
	if o.PropertyID == 0 {
		return NewValidationError("property_id", "A property is required.")
	}
	switch o.Status {
	case OfferStatusNone, OfferStatusAccepted, OfferStatusRefused:
	default:
		return NewValidationError("status", "Unknown offer status "+string(o.Status)+".")
	}
	if !o.DateDeadline.IsZero() && !deadlineInRange(o.DateDeadline) {
		return validityOutOfRange()
	}
	return nil
}

// Partner is the buyer behind an offer.
type Partner struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

func (Partner) TableName() string {
	return "partners"
}
