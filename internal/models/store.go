package models

import "context"

// PropertyFilter narrows property listings.
type PropertyFilter struct {
	State           PropertyState
	PropertyTypeID  *int64
	PostcodePrefix  string
	IncludeInactive bool
}

// Store is the record-store boundary the workflow runs against: CRUD and
// query primitives per entity, plus transactions and property row locks.
// Reads fill the derived fields of the returned records.
type Store interface {
	// Transaction runs fn against a store bound to one transaction. A
	// returned error rolls back every write made through tx.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	// LockProperty loads a property and locks its row until the
	// transaction ends.
	LockProperty(ctx context.Context, id int64) (*Property, error)
	CreateProperty(ctx context.Context, p *Property) error
	GetProperty(ctx context.Context, id int64) (*Property, error)
	ListProperties(ctx context.Context, filter PropertyFilter) ([]Property, error)
	UpdateProperty(ctx context.Context, id int64, fields map[string]interface{}) error
	ReplacePropertyTags(ctx context.Context, id int64, tagIDs []int64) error
	// DeleteProperty removes the property together with its offers and
	// tag links.
	DeleteProperty(ctx context.Context, id int64) error
	// CancelPropertiesByType sets every property of the type to canceled
	// and returns how many were touched.
	CancelPropertiesByType(ctx context.Context, typeID int64) (int64, error)
	GetPropertyStats(ctx context.Context) (PropertyStats, error)

	CreateOffer(ctx context.Context, o *Offer) error
	GetOffer(ctx context.Context, id int64) (*Offer, error)
	ListOffers(ctx context.Context, propertyID int64) ([]Offer, error)
	UpdateOffer(ctx context.Context, id int64, fields map[string]interface{}) error
	DeleteOffer(ctx context.Context, id int64) error
	CountAcceptedOffers(ctx context.Context, propertyID int64) (int64, error)
	SyncOfferPropertyType(ctx context.Context, propertyID int64, typeID *int64) error

	CreatePropertyType(ctx context.Context, t *PropertyType) error
	GetPropertyType(ctx context.Context, id int64) (*PropertyType, error)
	ListPropertyTypes(ctx context.Context) ([]PropertyType, error)
	// DeletePropertyType detaches properties and offers from the type
	// before removing it.
	DeletePropertyType(ctx context.Context, id int64) error

	CreateTag(ctx context.Context, t *PropertyTag) error
	FindTagByName(ctx context.Context, name string) (*PropertyTag, error)
	ListTags(ctx context.Context) ([]PropertyTag, error)
	DeleteTag(ctx context.Context, id int64) error

	CreatePartner(ctx context.Context, p *Partner) error
	GetPartner(ctx context.Context, id int64) (*Partner, error)
	ListPartners(ctx context.Context) ([]Partner, error)
}
