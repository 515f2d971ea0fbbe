package workflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"estate/server/internal/database"
	"estate/server/internal/models"
	"estate/server/internal/workflow"
)

var day = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// MockPublisher records published events
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(events ...models.Event) error {
	args := m.Called(events)
	return args.Error(0)
}

type fixture struct {
	ctx     context.Context
	db      *database.Database
	engine  *workflow.Engine
	partner *models.Partner
}

func setup(t *testing.T, opts ...workflow.Option) *fixture {
	db, err := database.NewTestDatabase()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	opts = append([]workflow.Option{workflow.WithClock(func() time.Time { return day })}, opts...)
	engine := workflow.NewEngine(db, logger, opts...)

	ctx := context.Background()
	partner, err := engine.CreatePartner(ctx, &models.Partner{Name: "Jane Buyer"})
	require.NoError(t, err)

	return &fixture{ctx: ctx, db: db, engine: engine, partner: partner}
}

func strPtr(s string) *string        { return &s }
func floatPtr(f float64) *float64    { return &f }
func intPtr(i int) *int              { return &i }
func boolPtr(b bool) *bool           { return &b }
func timePtr(t time.Time) *time.Time { return &t }

func (f *fixture) property(t *testing.T, expected float64) *models.Property {
	res, err := f.engine.CreateProperty(f.ctx, workflow.PropertyFields{
		Name:          strPtr("House on the hill"),
		ExpectedPrice: floatPtr(expected),
	})
	require.NoError(t, err)
	return res.Property
}

func (f *fixture) offer(t *testing.T, propertyID int64, price float64) *models.Offer {
	o, err := f.engine.CreateOffer(f.ctx, workflow.OfferInput{
		PropertyID: propertyID,
		PartnerID:  f.partner.ID,
		Price:      price,
	})
	require.NoError(t, err)
	return o
}

func (f *fixture) reload(t *testing.T, id int64) *models.Property {
	p, err := f.engine.GetProperty(f.ctx, id)
	require.NoError(t, err)
	return p
}

func (f *fixture) setState(t *testing.T, id int64, state models.PropertyState) {
	require.NoError(t, f.db.UpdateProperty(f.ctx, id, map[string]interface{}{"state": string(state)}))
}

func TestCreateProperty_Defaults(t *testing.T) {
	f := setup(t)

	res, err := f.engine.CreateProperty(f.ctx, workflow.PropertyFields{
		Name:          strPtr("Flat"),
		ExpectedPrice: floatPtr(150000),
	})
	require.NoError(t, err)
	p := res.Property

	assert.Equal(t, models.StateNew, p.State)
	assert.True(t, p.Active)
	assert.Equal(t, 2, p.Bedrooms)
	assert.Equal(t, 50, p.LivingArea)
	assert.Equal(t, 0.0, p.SellingPrice)
	assert.Equal(t, 50, p.TotalArea)
	require.NotNil(t, p.DateAvailability)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), models.DateOf(*p.DateAvailability))
	assert.Empty(t, res.Warnings)
}

func TestCreateProperty_Validation(t *testing.T) {
	f := setup(t)

	_, err := f.engine.CreateProperty(f.ctx, workflow.PropertyFields{Name: strPtr("Free"), ExpectedPrice: floatPtr(0)})
	assert.True(t, models.IsValidationError(err))

	_, err = f.engine.CreateProperty(f.ctx, workflow.PropertyFields{ExpectedPrice: floatPtr(10)})
	assert.True(t, models.IsValidationError(err))

	_, err = f.engine.CreateProperty(f.ctx, workflow.PropertyFields{
		Name:           strPtr("Typed"),
		ExpectedPrice:  floatPtr(10),
		PropertyTypeID: func() *int64 { id := int64(77); return &id }(),
	})
	assert.True(t, models.IsValidationError(err))
}

func TestCreateProperty_PastAvailabilityWarns(t *testing.T) {
	f := setup(t)

	res, err := f.engine.CreateProperty(f.ctx, workflow.PropertyFields{
		Name:             strPtr("Old stock"),
		ExpectedPrice:    floatPtr(1000),
		DateAvailability: timePtr(day.AddDate(0, 0, -1)),
	})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "The availability date has been set in the past.", res.Warnings[0].Message)
	assert.NotZero(t, res.Property.ID)
}

func TestUpdateProperty_TotalAreaFollowsAreas(t *testing.T) {
	f := setup(t)
	p := f.property(t, 100000)

	res, err := f.engine.UpdateProperty(f.ctx, p.ID, workflow.PropertyFields{
		LivingArea: intPtr(80),
		Garden:     boolPtr(true),
		GardenArea: intPtr(25),
	})
	require.NoError(t, err)
	assert.Equal(t, 105, res.Property.TotalArea)

	res, err = f.engine.UpdateProperty(f.ctx, p.ID, workflow.PropertyFields{GardenArea: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, 80, res.Property.TotalArea)
}

func TestUpdateProperty_ExpectedPriceRespectsSellingFloor(t *testing.T) {
	f := setup(t)
	p := f.property(t, 100000)
	o := f.offer(t, p.ID, 95000)
	_, err := f.engine.AcceptOffer(f.ctx, o.ID)
	require.NoError(t, err)

	_, err = f.engine.UpdateProperty(f.ctx, p.ID, workflow.PropertyFields{ExpectedPrice: floatPtr(200000)})
	assert.True(t, models.IsValidationError(err))
	assert.Equal(t, 100000.0, f.reload(t, p.ID).ExpectedPrice)

	_, err = f.engine.UpdateProperty(f.ctx, p.ID, workflow.PropertyFields{ExpectedPrice: floatPtr(105000)})
	assert.NoError(t, err)
}

func TestUpdateProperty_TypeChangeSyncsOffers(t *testing.T) {
	f := setup(t)
	house, err := f.engine.CreatePropertyType(f.ctx, "House", nil)
	require.NoError(t, err)
	flat, err := f.engine.CreatePropertyType(f.ctx, "Flat", nil)
	require.NoError(t, err)

	res, err := f.engine.CreateProperty(f.ctx, workflow.PropertyFields{
		Name:           strPtr("Terraced"),
		ExpectedPrice:  floatPtr(100000),
		PropertyTypeID: &house.ID,
	})
	require.NoError(t, err)
	o := f.offer(t, res.Property.ID, 99000)
	require.NotNil(t, o.PropertyTypeID)
	assert.Equal(t, house.ID, *o.PropertyTypeID)

	_, err = f.engine.UpdateProperty(f.ctx, res.Property.ID, workflow.PropertyFields{PropertyTypeID: &flat.ID})
	require.NoError(t, err)

	o, err = f.engine.GetOffer(f.ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, o.PropertyTypeID)
	assert.Equal(t, flat.ID, *o.PropertyTypeID)
}

func TestUpdateProperty_Tags(t *testing.T) {
	f := setup(t)
	p := f.property(t, 1000)
	a, err := f.engine.CreateTag(f.ctx, "renovated", 3)
	require.NoError(t, err)
	b, err := f.engine.CreateTag(f.ctx, "cozy", 4)
	require.NoError(t, err)

	res, err := f.engine.UpdateProperty(f.ctx, p.ID, workflow.PropertyFields{TagIDs: &[]int64{a.ID, b.ID}})
	require.NoError(t, err)
	require.Len(t, res.Property.Tags, 2)
	assert.Equal(t, "cozy", res.Property.Tags[0].Name)

	res, err = f.engine.UpdateProperty(f.ctx, p.ID, workflow.PropertyFields{TagIDs: &[]int64{}})
	require.NoError(t, err)
	assert.Empty(t, res.Property.Tags)
}

func TestActionSold(t *testing.T) {
	states := []models.PropertyState{
		models.StateNew, models.StateReceived, models.StateAccepted, models.StateSold, models.StateCanceled,
	}
	for _, state := range states {
		t.Run(string(state), func(t *testing.T) {
			f := setup(t)
			p := f.property(t, 1000)
			f.setState(t, p.ID, state)

			got, err := f.engine.ActionSold(f.ctx, p.ID)
			if state == models.StateCanceled {
				assert.True(t, models.IsInvalidOperation(err))
				assert.Equal(t, models.StateCanceled, f.reload(t, p.ID).State)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.StateSold, got.State)
		})
	}
}

func TestActionCancel(t *testing.T) {
	states := []models.PropertyState{
		models.StateNew, models.StateReceived, models.StateAccepted, models.StateSold, models.StateCanceled,
	}
	for _, state := range states {
		t.Run(string(state), func(t *testing.T) {
			f := setup(t)
			p := f.property(t, 1000)
			f.setState(t, p.ID, state)

			got, err := f.engine.ActionCancel(f.ctx, p.ID)
			if state == models.StateSold {
				assert.True(t, models.IsInvalidOperation(err))
				assert.Equal(t, models.StateSold, f.reload(t, p.ID).State)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.StateCanceled, got.State)
		})
	}
}

func TestDeleteProperty(t *testing.T) {
	tests := []struct {
		state   models.PropertyState
		allowed bool
	}{
		{models.StateNew, true},
		{models.StateCanceled, true},
		{models.StateReceived, false},
		{models.StateAccepted, false},
		{models.StateSold, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			f := setup(t)
			p := f.property(t, 1000)
			f.setState(t, p.ID, tt.state)

			err := f.engine.DeleteProperty(f.ctx, p.ID)
			if !tt.allowed {
				assert.True(t, models.IsInvalidOperation(err))
				f.reload(t, p.ID)
				return
			}
			require.NoError(t, err)
			_, err = f.engine.GetProperty(f.ctx, p.ID)
			assert.True(t, errors.Is(err, models.ErrNotFound))
		})
	}
}

func TestDeleteProperty_RemovesOffers(t *testing.T) {
	f := setup(t)
	p := f.property(t, 1000)
	o := f.offer(t, p.ID, 950)
	_, err := f.engine.ActionCancel(f.ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, f.engine.DeleteProperty(f.ctx, p.ID))

	_, err = f.engine.GetOffer(f.ctx, o.ID)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestCreateOffer_AdvancesNewProperty(t *testing.T) {
	f := setup(t)
	p := f.property(t, 100000)

	o := f.offer(t, p.ID, 90000)
	assert.Equal(t, models.OfferStatusNone, o.Status)
	assert.Equal(t, 7, o.Validity)
	assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), models.DateOf(o.DateDeadline))
	assert.Equal(t, models.StateReceived, f.reload(t, p.ID).State)

	f.offer(t, p.ID, 91000)
	got := f.reload(t, p.ID)
	assert.Equal(t, models.StateReceived, got.State)
	assert.Equal(t, 91000.0, got.BestOffer)
}

func TestCreateOffer_ClosedPropertyFails(t *testing.T) {
	for _, state := range []models.PropertyState{models.StateAccepted, models.StateSold, models.StateCanceled} {
		t.Run(string(state), func(t *testing.T) {
			f := setup(t)
			p := f.property(t, 1000)
			f.setState(t, p.ID, state)

			_, err := f.engine.CreateOffer(f.ctx, workflow.OfferInput{PropertyID: p.ID, PartnerID: f.partner.ID, Price: 1000})
			assert.True(t, models.IsInvalidOperation(err))

			offers, err := f.engine.ListOffers(f.ctx, p.ID)
			require.NoError(t, err)
			assert.Empty(t, offers)
		})
	}
}

func TestCreateOffer_Validation(t *testing.T) {
	f := setup(t)
	p := f.property(t, 1000)

	_, err := f.engine.CreateOffer(f.ctx, workflow.OfferInput{PropertyID: p.ID, PartnerID: f.partner.ID, Price: 0})
	assert.True(t, models.IsValidationError(err))

	_, err = f.engine.CreateOffer(f.ctx, workflow.OfferInput{PropertyID: p.ID, PartnerID: 999, Price: 10})
	assert.True(t, models.IsValidationError(err))
	assert.Equal(t, models.StateNew, f.reload(t, p.ID).State)

	_, err = f.engine.CreateOffer(f.ctx, workflow.OfferInput{PropertyID: 999, PartnerID: f.partner.ID, Price: 10})
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestCreateOffer_WithDeadline(t *testing.T) {
	f := setup(t)
	p := f.property(t, 1000)

	o, err := f.engine.CreateOffer(f.ctx, workflow.OfferInput{
		PropertyID: p.ID,
		PartnerID:  f.partner.ID,
		Price:      990,
		Deadline:   timePtr(day.AddDate(0, 0, 12)),
	})
	require.NoError(t, err)
	assert.Equal(t, 12, o.Validity)
}

func TestAcceptOffer(t *testing.T) {
	f := setup(t)
	p := f.property(t, 100000)
	low := f.offer(t, p.ID, 92000)
	high := f.offer(t, p.ID, 97000)

	got, err := f.engine.AcceptOffer(f.ctx, high.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusAccepted, got.Status)

	prop := f.reload(t, p.ID)
	assert.Equal(t, 97000.0, prop.SellingPrice)
	assert.Equal(t, models.StateAccepted, prop.State)

	_, err = f.engine.AcceptOffer(f.ctx, low.ID)
	assert.True(t, models.IsInvalidOperation(err))
	_, err = f.engine.AcceptOffer(f.ctx, high.ID)
	assert.True(t, models.IsInvalidOperation(err))

	low, err = f.engine.GetOffer(f.ctx, low.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusNone, low.Status)
	assert.Equal(t, 97000.0, f.reload(t, p.ID).SellingPrice)
}

func TestAcceptOffer_BelowFloorRollsBack(t *testing.T) {
	f := setup(t)
	p := f.property(t, 100000)
	o := f.offer(t, p.ID, 80000)

	_, err := f.engine.AcceptOffer(f.ctx, o.ID)
	assert.True(t, models.IsValidationError(err))

	o, err = f.engine.GetOffer(f.ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusNone, o.Status)

	prop := f.reload(t, p.ID)
	assert.Equal(t, 0.0, prop.SellingPrice)
	assert.Equal(t, models.StateReceived, prop.State)
}

func TestAcceptOffer_ClosedPropertyFails(t *testing.T) {
	f := setup(t)
	p := f.property(t, 1000)
	o := f.offer(t, p.ID, 1000)
	_, err := f.engine.ActionSold(f.ctx, p.ID)
	require.NoError(t, err)

	_, err = f.engine.AcceptOffer(f.ctx, o.ID)
	assert.True(t, models.IsInvalidOperation(err))
	assert.Equal(t, models.StateSold, f.reload(t, p.ID).State)
}

func TestAcceptOffer_ConcurrentAcceptsOnlyOneWins(t *testing.T) {
	f := setup(t)
	p := f.property(t, 100000)

	const bidders = 8
	offers := make([]*models.Offer, bidders)
	for i := range offers {
		offers[i] = f.offer(t, p.ID, 95000+float64(i))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, rejected := 0, 0
	for _, o := range offers {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := f.engine.AcceptOffer(f.ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if models.IsInvalidOperation(err) {
				rejected++
			}
		}(o.ID)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, bidders-1, rejected)

	list, err := f.engine.ListOffers(f.ctx, p.ID)
	require.NoError(t, err)
	accepted := 0
	for _, o := range list {
		if o.Status == models.OfferStatusAccepted {
			accepted++
			assert.Equal(t, o.Price, f.reload(t, p.ID).SellingPrice)
		}
	}
	assert.Equal(t, 1, accepted)
}

func TestRefuseOffer(t *testing.T) {
	f := setup(t)
	p := f.property(t, 100000)
	accepted := f.offer(t, p.ID, 95000)
	other := f.offer(t, p.ID, 93000)
	_, err := f.engine.AcceptOffer(f.ctx, accepted.ID)
	require.NoError(t, err)

	got, err := f.engine.RefuseOffer(f.ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusRefused, got.Status)
	assert.Equal(t, 95000.0, f.reload(t, p.ID).SellingPrice)

	_, err = f.engine.RefuseOffer(f.ctx, accepted.ID)
	require.NoError(t, err)
	prop := f.reload(t, p.ID)
	assert.Equal(t, 0.0, prop.SellingPrice)

	// With no accepted offer left another one can be accepted
	_, err = f.engine.AcceptOffer(f.ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 93000.0, f.reload(t, p.ID).SellingPrice)
}

func TestOfferValidityDeadlineDuality(t *testing.T) {
	f := setup(t)
	p := f.property(t, 1000)
	o := f.offer(t, p.ID, 1000)

	o, err := f.engine.SetOfferValidity(f.ctx, o.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), models.DateOf(o.DateDeadline))

	o, err = f.engine.SetOfferDeadline(f.ctx, o.ID, day.AddDate(0, 0, 15))
	require.NoError(t, err)
	assert.Equal(t, 15, o.Validity)

	stored, err := f.engine.GetOffer(f.ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, stored.Validity)
	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), models.DateOf(stored.DateDeadline))
}

func TestOfferFarDeadlineKeepsCalendarDays(t *testing.T) {
	f := setup(t)
	p := f.property(t, 1000)
	o := f.offer(t, p.ID, 1000)

	deadline := time.Date(2500, 1, 1, 0, 0, 0, 0, time.UTC)
	o, err := f.engine.SetOfferDeadline(f.ctx, o.ID, deadline)
	require.NoError(t, err)
	assert.Equal(t, 173796, o.Validity)
	assert.Equal(t, deadline, models.DateOf(o.DateDeadline))

	stored, err := f.engine.GetOffer(f.ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, deadline, models.DateOf(stored.DateDeadline))
}

func TestOfferIntervalOutOfRange(t *testing.T) {
	f := setup(t)
	p := f.property(t, 1000)
	o := f.offer(t, p.ID, 1000)

	// 9999-12-31 is the last supported deadline
	last, err := f.engine.SetOfferValidity(f.ctx, o.ID, 2913113)
	require.NoError(t, err)
	assert.Equal(t, time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC), models.DateOf(last.DateDeadline))

	_, err = f.engine.SetOfferValidity(f.ctx, o.ID, 2913114)
	assert.True(t, models.IsValidationError(err))

	_, err = f.engine.SetOfferValidity(f.ctx, o.ID, 3000000)
	assert.True(t, models.IsValidationError(err))

	_, err = f.engine.SetOfferDeadline(f.ctx, o.ID, time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, models.IsValidationError(err))

	_, err = f.engine.CreateOffer(f.ctx, workflow.OfferInput{
		PropertyID: p.ID,
		PartnerID:  f.partner.ID,
		Price:      1000,
		Validity:   intPtr(3000000),
	})
	assert.True(t, models.IsValidationError(err))

	stored, err := f.engine.GetOffer(f.ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 2913113, stored.Validity)
	_, err = json.Marshal(stored)
	assert.NoError(t, err)

	property, err := f.engine.GetProperty(f.ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, property.Offers, 1)
	_, err = json.Marshal(property)
	assert.NoError(t, err)
}

func TestDefaultValidityOption(t *testing.T) {
	f := setup(t, workflow.WithDefaultValidity(14))
	p := f.property(t, 1000)

	o := f.offer(t, p.ID, 1000)
	assert.Equal(t, 14, o.Validity)
}

func TestCreatePropertyType_ProvisionsTag(t *testing.T) {
	f := setup(t)

	villa, err := f.engine.CreatePropertyType(f.ctx, "Villa", intPtr(5))
	require.NoError(t, err)
	assert.Equal(t, 5, villa.Sequence)

	tags, err := f.engine.ListTags(f.ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "Villa", tags[0].Name)
	assert.Equal(t, 6, tags[0].Color)
}

func TestCreatePropertyType_KeepsExistingTag(t *testing.T) {
	f := setup(t)
	_, err := f.engine.CreateTag(f.ctx, "Villa", 2)
	require.NoError(t, err)

	_, err = f.engine.CreatePropertyType(f.ctx, "Villa", intPtr(5))
	require.NoError(t, err)

	tags, err := f.engine.ListTags(f.ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, 2, tags[0].Color)
}

func TestCreatePropertyType_DuplicateNameRollsBack(t *testing.T) {
	f := setup(t)
	_, err := f.engine.CreatePropertyType(f.ctx, "House", nil)
	require.NoError(t, err)

	_, err = f.engine.CreatePropertyType(f.ctx, "House", intPtr(3))
	assert.True(t, models.IsValidationError(err))

	types, err := f.engine.ListPropertyTypes(f.ctx)
	require.NoError(t, err)
	assert.Len(t, types, 1)
	assert.Equal(t, 1, types[0].Sequence)
}

func TestDeletePropertyType_CancelsProperties(t *testing.T) {
	pub := &MockPublisher{}
	pub.On("Publish", mock.Anything).Return(nil)
	f := setup(t, workflow.WithPublisher(pub))

	pt, err := f.engine.CreatePropertyType(f.ctx, "Bungalow", nil)
	require.NoError(t, err)

	var ids []int64
	for _, name := range []string{"One", "Two"} {
		res, err := f.engine.CreateProperty(f.ctx, workflow.PropertyFields{
			Name:           strPtr(name),
			ExpectedPrice:  floatPtr(1000),
			PropertyTypeID: &pt.ID,
		})
		require.NoError(t, err)
		ids = append(ids, res.Property.ID)
	}
	_, err = f.engine.ActionSold(f.ctx, ids[1])
	require.NoError(t, err)

	related, err := f.engine.TypeProperties(f.ctx, pt.ID)
	require.NoError(t, err)
	assert.Len(t, related, 2)

	require.NoError(t, f.engine.DeletePropertyType(f.ctx, pt.ID))

	for _, id := range ids {
		p := f.reload(t, id)
		assert.Equal(t, models.StateCanceled, p.State)
		assert.Nil(t, p.PropertyTypeID)
	}
	_, err = f.engine.GetPropertyType(f.ctx, pt.ID)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	pub.AssertCalled(t, "Publish", mock.MatchedBy(func(events []models.Event) bool {
		return len(events) == 1 && events[0].Type == models.EventPropertyTypeDeleted && events[0].Count == 2
	}))
}

func TestPropertyTypeCounts(t *testing.T) {
	f := setup(t)
	pt, err := f.engine.CreatePropertyType(f.ctx, "Loft", nil)
	require.NoError(t, err)

	res, err := f.engine.CreateProperty(f.ctx, workflow.PropertyFields{
		Name:           strPtr("Docklands"),
		ExpectedPrice:  floatPtr(1000),
		PropertyTypeID: &pt.ID,
	})
	require.NoError(t, err)
	f.offer(t, res.Property.ID, 900)
	f.offer(t, res.Property.ID, 950)

	got, err := f.engine.GetPropertyType(f.ctx, pt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.PropertyCount)
	assert.Equal(t, int64(2), got.OfferCount)
}

func TestPropertyTypeCounts_SkipArchivedProperties(t *testing.T) {
	f := setup(t)
	pt, err := f.engine.CreatePropertyType(f.ctx, "Loft", nil)
	require.NoError(t, err)

	var ids []int64
	for _, name := range []string{"Docklands", "Harbour"} {
		res, err := f.engine.CreateProperty(f.ctx, workflow.PropertyFields{
			Name:           strPtr(name),
			ExpectedPrice:  floatPtr(1000),
			PropertyTypeID: &pt.ID,
		})
		require.NoError(t, err)
		ids = append(ids, res.Property.ID)
	}
	f.offer(t, ids[1], 900)

	_, err = f.engine.UpdateProperty(f.ctx, ids[1], workflow.PropertyFields{Active: boolPtr(false)})
	require.NoError(t, err)

	got, err := f.engine.GetPropertyType(f.ctx, pt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.PropertyCount)
	assert.Equal(t, int64(1), got.OfferCount)

	properties, err := f.engine.TypeProperties(f.ctx, pt.ID)
	require.NoError(t, err)
	require.Len(t, properties, 1)
	assert.Equal(t, ids[0], properties[0].ID)
}

func TestEventsArePublishedAfterCommit(t *testing.T) {
	pub := &MockPublisher{}
	pub.On("Publish", mock.Anything).Return(nil)
	f := setup(t, workflow.WithPublisher(pub))

	p := f.property(t, 1000)
	o := f.offer(t, p.ID, 1000)
	_, err := f.engine.AcceptOffer(f.ctx, o.ID)
	require.NoError(t, err)

	var types []models.EventType
	for _, call := range pub.Calls {
		for _, e := range call.Arguments.Get(0).([]models.Event) {
			types = append(types, e.Type)
			assert.Equal(t, p.ID, e.PropertyID)
			assert.NotEmpty(t, e.ID)
		}
	}
	assert.Equal(t, []models.EventType{models.EventOfferCreated, models.EventOfferAccepted}, types)
}

func TestFailedOperationPublishesNothing(t *testing.T) {
	pub := &MockPublisher{}
	f := setup(t, workflow.WithPublisher(pub))

	p := f.property(t, 1000)
	f.setState(t, p.ID, models.StateSold)
	_, err := f.engine.ActionCancel(f.ctx, p.ID)
	require.Error(t, err)

	pub.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	pub := &MockPublisher{}
	pub.On("Publish", mock.Anything).Return(errors.New("queue is full"))
	f := setup(t, workflow.WithPublisher(pub))

	p := f.property(t, 1000)
	_, err := f.engine.ActionSold(f.ctx, p.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.StateSold, f.reload(t, p.ID).State)
}

// failingStore breaks the property write of an accept to prove the offer
// status change is rolled back with it
type failingStore struct {
	models.Store
}

func (s failingStore) Transaction(ctx context.Context, fn func(tx models.Store) error) error {
	return s.Store.Transaction(ctx, func(tx models.Store) error {
		return fn(failingStore{Store: tx})
	})
}

func (s failingStore) UpdateProperty(ctx context.Context, id int64, fields map[string]interface{}) error {
	if _, ok := fields["selling_price"]; ok {
		return errors.New("disk on fire")
	}
	return s.Store.UpdateProperty(ctx, id, fields)
}

func TestAcceptOffer_PartialWriteIsRolledBack(t *testing.T) {
	f := setup(t)
	p := f.property(t, 1000)
	o := f.offer(t, p.ID, 1000)

	broken := workflow.NewEngine(failingStore{Store: f.db}, nil)
	_, err := broken.AcceptOffer(f.ctx, o.ID)
	require.Error(t, err)

	o, err = f.engine.GetOffer(f.ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusNone, o.Status)
	assert.Equal(t, models.StateReceived, f.reload(t, p.ID).State)
}

func TestListProperties_Filters(t *testing.T) {
	f := setup(t)
	a := f.property(t, 1000)
	b := f.property(t, 2000)
	_, err := f.engine.UpdateProperty(f.ctx, b.ID, workflow.PropertyFields{Postcode: strPtr("1012AB")})
	require.NoError(t, err)
	f.offer(t, a.ID, 1000)
	_, err = f.engine.UpdateProperty(f.ctx, a.ID, workflow.PropertyFields{Active: boolPtr(false)})
	require.NoError(t, err)

	all, err := f.engine.ListProperties(f.ctx, models.PropertyFilter{IncludeInactive: true})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID)

	active, err := f.engine.ListProperties(f.ctx, models.PropertyFilter{})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, b.ID, active[0].ID)

	received, err := f.engine.ListProperties(f.ctx, models.PropertyFilter{State: models.StateReceived, IncludeInactive: true})
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, a.ID, received[0].ID)

	byPostcode, err := f.engine.ListProperties(f.ctx, models.PropertyFilter{PostcodePrefix: "1012"})
	require.NoError(t, err)
	require.Len(t, byPostcode, 1)
	assert.Equal(t, b.ID, byPostcode[0].ID)
}
