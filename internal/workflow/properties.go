package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"estate/server/internal/models"
)

// PropertyFields carries the user-editable fields of a property. Nil
// fields are left alone. State and selling price are never editable.
type PropertyFields struct {
	Name              *string
	Description       *string
	OtherInfo         *string
	Postcode          *string
	DateAvailability  *time.Time
	ExpectedPrice     *float64
	Bedrooms          *int
	LivingArea        *int
	Facades           *int
	Garage            *bool
	Garden            *bool
	GardenArea        *int
	GardenOrientation *models.GardenOrientation
	Active            *bool
	PropertyTypeID    *int64
	TagIDs            *[]int64
}

// apply copies the set fields onto p and returns them as column updates.
func (f PropertyFields) apply(p *models.Property) map[string]interface{} {
	cols := make(map[string]interface{})
	if f.Name != nil {
		p.Name = *f.Name
		cols["name"] = p.Name
	}
	if f.Description != nil {
		p.Description = *f.Description
		cols["description"] = p.Description
	}
	if f.OtherInfo != nil {
		p.OtherInfo = *f.OtherInfo
		cols["other_info"] = p.OtherInfo
	}
	if f.Postcode != nil {
		p.Postcode = *f.Postcode
		cols["postcode"] = p.Postcode
	}
	if f.DateAvailability != nil {
		d := models.DateOf(*f.DateAvailability)
		p.DateAvailability = &d
		cols["date_availability"] = d
	}
	if f.ExpectedPrice != nil {
		p.ExpectedPrice = *f.ExpectedPrice
		cols["expected_price"] = p.ExpectedPrice
	}
	if f.Bedrooms != nil {
		p.Bedrooms = *f.Bedrooms
		cols["bedrooms"] = p.Bedrooms
	}
	if f.LivingArea != nil {
		p.LivingArea = *f.LivingArea
		cols["living_area"] = p.LivingArea
	}
	if f.Facades != nil {
		p.Facades = *f.Facades
		cols["facades"] = p.Facades
	}
	if f.Garage != nil {
		p.Garage = *f.Garage
		cols["garage"] = p.Garage
	}
	if f.Garden != nil {
		p.Garden = *f.Garden
		cols["garden"] = p.Garden
	}
	if f.GardenArea != nil {
		p.GardenArea = *f.GardenArea
		cols["garden_area"] = p.GardenArea
	}
	if f.GardenOrientation != nil {
		p.GardenOrientation = *f.GardenOrientation
		cols["garden_orientation"] = string(p.GardenOrientation)
	}
	if f.Active != nil {
		p.Active = *f.Active
		cols["active"] = p.Active
	}
	if f.PropertyTypeID != nil {
		id := *f.PropertyTypeID
		p.PropertyTypeID = &id
		cols["property_type_id"] = id
	}
	return cols
}

// PropertyResult is a stored property with the advisory warnings raised
// while writing it.
type PropertyResult struct {
	Property *models.Property `json:"data"`
	Warnings []models.Warning `json:"warnings"`
}

func (e *Engine) CreateProperty(ctx context.Context, fields PropertyFields) (*PropertyResult, error) {
	p := models.NewProperty(e.now())
	fields.apply(&p)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	err := e.store.Transaction(ctx, func(tx models.Store) error {
		if p.PropertyTypeID != nil {
			if err := checkTypeExists(ctx, tx, *p.PropertyTypeID); err != nil {
				return err
			}
		}
		if err := tx.CreateProperty(ctx, &p); err != nil {
			return err
		}
		if fields.TagIDs != nil {
			return tx.ReplacePropertyTags(ctx, p.ID, *fields.TagIDs)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	stored, err := e.store.GetProperty(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"property_id": stored.ID,
		"name":        stored.Name,
	}).Info("Property created")

	var warnings []models.Warning
	if fields.DateAvailability != nil {
		warnings = availabilityWarnings(stored.DateAvailability, e.today())
	}
	return &PropertyResult{Property: stored, Warnings: warnings}, nil
}

func (e *Engine) UpdateProperty(ctx context.Context, id int64, fields PropertyFields) (*PropertyResult, error) {
	unlock := e.locks.Lock(id)
	defer unlock()

	err := e.store.Transaction(ctx, func(tx models.Store) error {
		p, err := tx.LockProperty(ctx, id)
		if err != nil {
			return err
		}
		previousType := p.PropertyTypeID

		cols := fields.apply(p)
		if err := p.Validate(); err != nil {
			return err
		}

		if fields.PropertyTypeID != nil {
			if err := checkTypeExists(ctx, tx, *fields.PropertyTypeID); err != nil {
				return err
			}
		}
		if err := tx.UpdateProperty(ctx, id, cols); err != nil {
			return err
		}
		if fields.PropertyTypeID != nil && !sameID(previousType, p.PropertyTypeID) {
			if err := tx.SyncOfferPropertyType(ctx, id, p.PropertyTypeID); err != nil {
				return err
			}
		}
		if fields.TagIDs != nil {
			return tx.ReplacePropertyTags(ctx, id, *fields.TagIDs)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update property %d: %w", id, err)
	}

	stored, err := e.store.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}

	var warnings []models.Warning
	if fields.DateAvailability != nil {
		warnings = availabilityWarnings(stored.DateAvailability, e.today())
	}
	return &PropertyResult{Property: stored, Warnings: warnings}, nil
}

func (e *Engine) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	return e.store.GetProperty(ctx, id)
}

func (e *Engine) ListProperties(ctx context.Context, filter models.PropertyFilter) ([]models.Property, error) {
	return e.store.ListProperties(ctx, filter)
}

func (e *Engine) PropertyStats(ctx context.Context) (models.PropertyStats, error) {
	return e.store.GetPropertyStats(ctx)
}

// ActionSold marks a property sold. Canceled properties cannot be sold.
func (e *Engine) ActionSold(ctx context.Context, id int64) (*models.Property, error) {
	return e.transition(ctx, id, models.StateSold, models.EventPropertySold, func(p *models.Property) error {
		if p.State == models.StateCanceled {
			return models.NewInvalidOperation("A canceled property cannot be marked as sold.")
		}
		return nil
	})
}

// ActionCancel cancels a property. Sold properties cannot be canceled.
func (e *Engine) ActionCancel(ctx context.Context, id int64) (*models.Property, error) {
	return e.transition(ctx, id, models.StateCanceled, models.EventPropertyCanceled, func(p *models.Property) error {
		if p.State == models.StateSold {
			return models.NewInvalidOperation("A sold property cannot be cancelled.")
		}
		return nil
	})
}

func (e *Engine) transition(ctx context.Context, id int64, target models.PropertyState, eventType models.EventType, guard func(*models.Property) error) (*models.Property, error) {
	unlock := e.locks.Lock(id)
	defer unlock()

	var name string
	err := e.store.Transaction(ctx, func(tx models.Store) error {
		p, err := tx.LockProperty(ctx, id)
		if err != nil {
			return err
		}
		if err := guard(p); err != nil {
			return err
		}
		name = p.Name
		return tx.UpdateProperty(ctx, id, map[string]interface{}{"state": string(target)})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set property %d to %s: %w", id, target, err)
	}

	e.logger.WithFields(logrus.Fields{
		"property_id": id,
		"state":       target,
	}).Info("Property state changed")

	event := e.newEvent(eventType)
	event.PropertyID = id
	event.PropertyName = name
	e.publish(event)

	return e.store.GetProperty(ctx, id)
}

// DeleteProperty removes a new or canceled property along with its offers.
func (e *Engine) DeleteProperty(ctx context.Context, id int64) error {
	unlock := e.locks.Lock(id)
	defer unlock()

	err := e.store.Transaction(ctx, func(tx models.Store) error {
		p, err := tx.LockProperty(ctx, id)
		if err != nil {
			return err
		}
		if !p.State.Deletable() {
			return models.NewInvalidOperation(`Only properties in "New" or "Canceled" state can be deleted.`)
		}
		return tx.DeleteProperty(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete property %d: %w", id, err)
	}

	e.logger.WithField("property_id", id).Info("Property deleted")
	return nil
}

func checkTypeExists(ctx context.Context, tx models.Store, typeID int64) error {
	if _, err := tx.GetPropertyType(ctx, typeID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.NewValidationError("property_type_id", "Unknown property type.")
		}
		return err
	}
	return nil
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
