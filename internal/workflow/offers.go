package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"estate/server/internal/models"
)

// OfferInput describes a new offer. Deadline, when set, wins over
// Validity and back-derives it.
type OfferInput struct {
	PropertyID int64
	PartnerID  int64
	Price      float64
	Validity   *int
	Deadline   *time.Time
}

// CreateOffer records a bid on an open property and moves a new property
// to received.
func (e *Engine) CreateOffer(ctx context.Context, in OfferInput) (*models.Offer, error) {
	unlock := e.locks.Lock(in.PropertyID)
	defer unlock()

	now := e.now()
	offer := &models.Offer{
		Price:      in.Price,
		Status:     models.OfferStatusNone,
		PartnerID:  in.PartnerID,
		PropertyID: in.PropertyID,
		Validity:   e.defaultValidity,
		CreatedAt:  now,
	}
	offer.ComputeDeadline(now)
	if in.Validity != nil {
		if err := offer.SetValidity(*in.Validity, now); err != nil {
			return nil, err
		}
	}
	if in.Deadline != nil {
		if err := offer.SetDeadline(*in.Deadline, now); err != nil {
			return nil, err
		}
	}
	if err := offer.Validate(); err != nil {
		return nil, err
	}

	var property *models.Property
	err := e.store.Transaction(ctx, func(tx models.Store) error {
		p, err := tx.LockProperty(ctx, in.PropertyID)
		if err != nil {
			return err
		}
		if !p.State.AcceptsOffers() {
			return models.NewInvalidOperation("Cannot create an offer on a property in state %q.", p.State)
		}
		if _, err := tx.GetPartner(ctx, in.PartnerID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.NewValidationError("partner_id", "Unknown partner.")
			}
			return err
		}

		offer.PropertyTypeID = p.PropertyTypeID
		if err := tx.CreateOffer(ctx, offer); err != nil {
			return err
		}
		if p.State == models.StateNew {
			if err := tx.UpdateProperty(ctx, p.ID, map[string]interface{}{"state": string(models.StateReceived)}); err != nil {
				return err
			}
		}
		property = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create offer on property %d: %w", in.PropertyID, err)
	}

	e.logger.WithFields(logrus.Fields{
		"offer_id":    offer.ID,
		"property_id": offer.PropertyID,
		"price":       offer.Price,
	}).Info("Offer created")

	event := e.newEvent(models.EventOfferCreated)
	event.PropertyID = property.ID
	event.PropertyName = property.Name
	event.OfferID = offer.ID
	event.Price = offer.Price
	e.publish(event)

	return e.store.GetOffer(ctx, offer.ID)
}

// AcceptOffer accepts an offer and fixes the property's selling price.
// It fails when any offer of the property is already accepted.
func (e *Engine) AcceptOffer(ctx context.Context, id int64) (*models.Offer, error) {
	propertyID, err := e.offerPropertyID(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(propertyID)
	defer unlock()

	var property *models.Property
	var offer *models.Offer
	err = e.store.Transaction(ctx, func(tx models.Store) error {
		p, err := tx.LockProperty(ctx, propertyID)
		if err != nil {
			return err
		}
		o, err := tx.GetOffer(ctx, id)
		if err != nil {
			return err
		}

		accepted, err := tx.CountAcceptedOffers(ctx, propertyID)
		if err != nil {
			return err
		}
		if accepted > 0 {
			return models.NewInvalidOperation("Another offer has already been accepted for this property.")
		}
		if p.State == models.StateSold || p.State == models.StateCanceled {
			return models.NewInvalidOperation("Cannot accept an offer on a property in state %q.", p.State)
		}
		if err := models.CheckSellingPrice(o.Price, p.ExpectedPrice); err != nil {
			return err
		}

		if err := tx.UpdateOffer(ctx, id, map[string]interface{}{"status": string(models.OfferStatusAccepted)}); err != nil {
			return err
		}
		err = tx.UpdateProperty(ctx, propertyID, map[string]interface{}{
			"selling_price": o.Price,
			"state":         string(models.StateAccepted),
		})
		if err != nil {
			return err
		}
		property, offer = p, o
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to accept offer %d: %w", id, err)
	}

	e.logger.WithFields(logrus.Fields{
		"offer_id":    id,
		"property_id": propertyID,
		"price":       offer.Price,
	}).Info("Offer accepted")

	event := e.newEvent(models.EventOfferAccepted)
	event.PropertyID = propertyID
	event.PropertyName = property.Name
	event.OfferID = id
	event.Price = offer.Price
	e.publish(event)

	return e.store.GetOffer(ctx, id)
}

// RefuseOffer refuses an offer. When the property's selling price came
// from this offer it is reset to zero.
func (e *Engine) RefuseOffer(ctx context.Context, id int64) (*models.Offer, error) {
	propertyID, err := e.offerPropertyID(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(propertyID)
	defer unlock()

	var property *models.Property
	var offer *models.Offer
	err = e.store.Transaction(ctx, func(tx models.Store) error {
		p, err := tx.LockProperty(ctx, propertyID)
		if err != nil {
			return err
		}
		o, err := tx.GetOffer(ctx, id)
		if err != nil {
			return err
		}

		if err := tx.UpdateOffer(ctx, id, map[string]interface{}{"status": string(models.OfferStatusRefused)}); err != nil {
			return err
		}
		if !models.FloatIsZero(p.SellingPrice, models.PricePrecision) &&
			models.FloatCompare(p.SellingPrice, o.Price, models.PricePrecision) == 0 {
			if err := tx.UpdateProperty(ctx, propertyID, map[string]interface{}{"selling_price": 0.0}); err != nil {
				return err
			}
		}
		property, offer = p, o
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to refuse offer %d: %w", id, err)
	}

	e.logger.WithFields(logrus.Fields{
		"offer_id":    id,
		"property_id": propertyID,
	}).Info("Offer refused")

	event := e.newEvent(models.EventOfferRefused)
	event.PropertyID = propertyID
	event.PropertyName = property.Name
	event.OfferID = id
	event.Price = offer.Price
	e.publish(event)

	return e.store.GetOffer(ctx, id)
}

// SetOfferValidity changes the validity and so the deadline.
func (e *Engine) SetOfferValidity(ctx context.Context, id int64, days int) (*models.Offer, error) {
	return e.updateOfferInterval(ctx, id, func(o *models.Offer) error {
		return o.SetValidity(days, e.now())
	})
}

// SetOfferDeadline changes the deadline and back-derives the validity.
func (e *Engine) SetOfferDeadline(ctx context.Context, id int64, deadline time.Time) (*models.Offer, error) {
	return e.updateOfferInterval(ctx, id, func(o *models.Offer) error {
		return o.SetDeadline(deadline, e.now())
	})
}

func (e *Engine) updateOfferInterval(ctx context.Context, id int64, change func(*models.Offer) error) (*models.Offer, error) {
	var offer *models.Offer
	err := e.store.Transaction(ctx, func(tx models.Store) error {
		o, err := tx.GetOffer(ctx, id)
		if err != nil {
			return err
		}
		if err := change(o); err != nil {
			return err
		}
		offer = o
		return tx.UpdateOffer(ctx, id, map[string]interface{}{"validity": o.Validity})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update offer %d: %w", id, err)
	}
	return offer, nil
}

func (e *Engine) GetOffer(ctx context.Context, id int64) (*models.Offer, error) {
	return e.store.GetOffer(ctx, id)
}

func (e *Engine) ListOffers(ctx context.Context, propertyID int64) ([]models.Offer, error) {
	if _, err := e.store.GetProperty(ctx, propertyID); err != nil {
		return nil, err
	}
	return e.store.ListOffers(ctx, propertyID)
}

func (e *Engine) DeleteOffer(ctx context.Context, id int64) error {
	propertyID, err := e.offerPropertyID(ctx, id)
	if err != nil {
		return err
	}

	unlock := e.locks.Lock(propertyID)
	defer unlock()

	if err := e.store.DeleteOffer(ctx, id); err != nil {
		return fmt.Errorf("failed to delete offer %d: %w", id, err)
	}
	return nil
}

// offerPropertyID resolves the property an offer belongs to. It never
// changes, so it is safe to read before taking the property lock.
func (e *Engine) offerPropertyID(ctx context.Context, id int64) (int64, error) {
	o, err := e.store.GetOffer(ctx, id)
	if err != nil {
		return 0, err
	}
	return o.PropertyID, nil
}
