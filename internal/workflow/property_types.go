package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"estate/server/internal/models"
)

// CreatePropertyType stores a new type and provisions the tag of the same
// name unless one already exists. A nil sequence defaults to 1.
func (e *Engine) CreatePropertyType(ctx context.Context, name string, sequence *int) (*models.PropertyType, error) {
	t := &models.PropertyType{Name: name, Sequence: models.DefaultTypeSequence}
	if sequence != nil {
		t.Sequence = *sequence
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	var tagCreated bool
	err := e.store.Transaction(ctx, func(tx models.Store) error {
		if err := tx.CreatePropertyType(ctx, t); err != nil {
			return err
		}

		_, err := tx.FindTagByName(ctx, t.Name)
		if err == nil {
			return nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return err
		}
		tag := &models.PropertyTag{
			Name:  t.Name,
			Color: models.TagColorForSequence(t.Sequence),
		}
		if err := tx.CreateTag(ctx, tag); err != nil {
			return err
		}
		tagCreated = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create property type %q: %w", name, err)
	}

	e.logger.WithFields(logrus.Fields{
		"type_id":     t.ID,
		"name":        t.Name,
		"tag_created": tagCreated,
	}).Info("Property type created")

	return e.store.GetPropertyType(ctx, t.ID)
}

// DeletePropertyType cancels every property of the type, then removes the
// type. Properties are kept, detached from it.
func (e *Engine) DeletePropertyType(ctx context.Context, id int64) error {
	var name string
	var canceled int64
	err := e.store.Transaction(ctx, func(tx models.Store) error {
		t, err := tx.GetPropertyType(ctx, id)
		if err != nil {
			return err
		}
		name = t.Name

		canceled, err = tx.CancelPropertiesByType(ctx, id)
		if err != nil {
			return err
		}
		return tx.DeletePropertyType(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete property type %d: %w", id, err)
	}

	e.logger.WithFields(logrus.Fields{
		"type_id":  id,
		"name":     name,
		"canceled": canceled,
	}).Info("Property type deleted")

	event := e.newEvent(models.EventPropertyTypeDeleted)
	event.PropertyName = name
	event.Count = int(canceled)
	e.publish(event)
	return nil
}

func (e *Engine) GetPropertyType(ctx context.Context, id int64) (*models.PropertyType, error) {
	return e.store.GetPropertyType(ctx, id)
}

func (e *Engine) ListPropertyTypes(ctx context.Context) ([]models.PropertyType, error) {
	return e.store.ListPropertyTypes(ctx)
}

// TypeProperties lists the properties related to a type.
func (e *Engine) TypeProperties(ctx context.Context, id int64) ([]models.Property, error) {
	if _, err := e.store.GetPropertyType(ctx, id); err != nil {
		return nil, err
	}
	return e.store.ListProperties(ctx, models.PropertyFilter{PropertyTypeID: &id})
}

func (e *Engine) CreateTag(ctx context.Context, name string, color int) (*models.PropertyTag, error) {
	tag := &models.PropertyTag{Name: name, Color: color}
	if err := tag.Validate(); err != nil {
		return nil, err
	}
	if err := e.store.CreateTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("failed to create tag %q: %w", name, err)
	}
	return tag, nil
}

func (e *Engine) ListTags(ctx context.Context) ([]models.PropertyTag, error) {
	return e.store.ListTags(ctx)
}

func (e *Engine) DeleteTag(ctx context.Context, id int64) error {
	return e.store.Transaction(ctx, func(tx models.Store) error {
		return tx.DeleteTag(ctx, id)
	})
}

func (e *Engine) CreatePartner(ctx context.Context, partner *models.Partner) (*models.Partner, error) {
	if partner.Name == "" {
		return nil, models.NewValidationError("name", "The partner name is required.")
	}
	if err := e.store.CreatePartner(ctx, partner); err != nil {
		return nil, fmt.Errorf("failed to create partner: %w", err)
	}
	return partner, nil
}

func (e *Engine) ListPartners(ctx context.Context) ([]models.Partner, error) {
	return e.store.ListPartners(ctx)
}
