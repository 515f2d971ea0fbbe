package api

import (
	"time"

	"estate/server/internal/models"
	"estate/server/internal/workflow"
)

const dateLayout = "2006-01-02"

// propertyRequest is the writable part of a property. State and selling
// price are driven by the workflow and ignored when sent.
type propertyRequest struct {
	Name              *string  `json:"name"`
	Description       *string  `json:"description"`
	OtherInfo         *string  `json:"other_info"`
	Postcode          *string  `json:"postcode"`
	DateAvailability  *string  `json:"date_availability"`
	ExpectedPrice     *float64 `json:"expected_price"`
	Bedrooms          *int     `json:"bedrooms"`
	LivingArea        *int     `json:"living_area"`
	Facades           *int     `json:"facades"`
	Garage            *bool    `json:"garage"`
	Garden            *bool    `json:"garden"`
	GardenArea        *int     `json:"garden_area"`
	GardenOrientation *string  `json:"garden_orientation"`
	Active            *bool    `json:"active"`
	PropertyTypeID    *int64   `json:"property_type_id"`
	TagIDs            *[]int64 `json:"tag_ids"`
}

func (r propertyRequest) fields() (workflow.PropertyFields, error) {
	f := workflow.PropertyFields{
		Name:           r.Name,
		Description:    r.Description,
		OtherInfo:      r.OtherInfo,
		Postcode:       r.Postcode,
		ExpectedPrice:  r.ExpectedPrice,
		Bedrooms:       r.Bedrooms,
		LivingArea:     r.LivingArea,
		Facades:        r.Facades,
		Garage:         r.Garage,
		Garden:         r.Garden,
		GardenArea:     r.GardenArea,
		Active:         r.Active,
		PropertyTypeID: r.PropertyTypeID,
		TagIDs:         r.TagIDs,
	}
	if r.DateAvailability != nil {
		d, err := parseDate("date_availability", *r.DateAvailability)
		if err != nil {
			return f, err
		}
		f.DateAvailability = &d
	}
	if r.GardenOrientation != nil {
		o := models.GardenOrientation(*r.GardenOrientation)
		if !o.IsValid() {
			return f, models.NewValidationError("garden_orientation", "Unknown garden orientation "+*r.GardenOrientation+".")
		}
		f.GardenOrientation = &o
	}
	return f, nil
}

type onchangeRequest struct {
	Values  propertyRequest `json:"values"`
	Changed []string        `json:"changed" binding:"required"`
}

type offerRequest struct {
	PartnerID    int64   `json:"partner_id" binding:"required"`
	Price        float64 `json:"price"`
	Validity     *int    `json:"validity"`
	DateDeadline *string `json:"date_deadline"`
}

// offerPatchRequest changes one side of the validity/deadline pair. When
// both are sent the deadline wins.
type offerPatchRequest struct {
	Validity     *int    `json:"validity"`
	DateDeadline *string `json:"date_deadline"`
}

type propertyTypeRequest struct {
	Name     string `json:"name" binding:"required"`
	Sequence *int   `json:"sequence"`
}

type tagRequest struct {
	Name  string `json:"name" binding:"required"`
	Color int    `json:"color"`
}

type partnerRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func parseDate(field, value string) (time.Time, error) {
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, models.NewValidationError(field, "Dates must use the YYYY-MM-DD format.")
	}
	return d, nil
}
