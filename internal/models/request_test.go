package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validRequest(now time.Time) Request {
	return Request{
		Requester:   primitive.NewObjectID(),
		Title:       "Meals for weekend shelter program",
		Description: "We serve around 80 guests every Saturday and Sunday",
		FoodTypes:   []string{"cooked", "packaged"},
		Quantity:    Quantity{Amount: 160, Unit: "meals"},
		Urgency:     "high",
		NeededBy:    now.Add(72 * time.Hour),
		Location: Location{
			Coordinates: GeoPoint{Type: "Point", Coordinates: []float64{-73.9857, 40.7484}},
		},
		Beneficiaries:       Beneficiaries{Count: 80, Type: "homeless"},
		DietaryRestrictions: []string{"none"},
		Allergens:           []string{"none"},
		Status:              RequestPending,
		ContactInfo:         ContactInfo{Email: "ops@shelter.org", PreferredContact: "email"},
	}
}

func TestRequestValidate(t *testing.T) {
	now := time.Now()

	t.Run("valid request passes", func(t *testing.T) {
		r := validRequest(now)
		require.NoError(t, r.Validate(now))
	})

	t.Run("neededBy in the past", func(t *testing.T) {
		r := validRequest(now)
		r.NeededBy = now.Add(-time.Hour)
		assert.EqualError(t, r.Validate(now), "needed by date must be in the future")
	})

	t.Run("neededBy equal to now", func(t *testing.T) {
		r := validRequest(now)
		r.NeededBy = now
		assert.Error(t, r.Validate(now))
	})

	t.Run("invalid urgency", func(t *testing.T) {
		r := validRequest(now)
		r.Urgency = "extreme"
		assert.EqualError(t, r.Validate(now), "invalid urgency level: extreme")
	})

	t.Run("zero beneficiaries", func(t *testing.T) {
		r := validRequest(now)
		r.Beneficiaries.Count = 0
		assert.EqualError(t, r.Validate(now), "beneficiary count must be at least 1")
	})

	t.Run("invalid beneficiary type", func(t *testing.T) {
		r := validRequest(now)
		r.Beneficiaries.Type = "pets"
		assert.Error(t, r.Validate(now))
	})

	t.Run("invalid food type", func(t *testing.T) {
		r := validRequest(now)
		r.FoodTypes = []string{"cooked", "imaginary"}
		assert.EqualError(t, r.Validate(now), "invalid food type value: imaginary")
	})

	t.Run("invalid contact method", func(t *testing.T) {
		r := validRequest(now)
		r.ContactInfo.PreferredContact = "fax"
		assert.Error(t, r.Validate(now))
	})
}

func TestRequestFulfill(t *testing.T) {
	now := time.Now()

	t.Run("partial fulfillment stays pending", func(t *testing.T) {
		r := validRequest(now)
		require.NoError(t, r.Fulfill(primitive.NewObjectID(), Quantity{Amount: 60, Unit: "meals"}, now))

		assert.Equal(t, RequestPending, r.Status)
		assert.Equal(t, 60.0, r.TotalFulfilled())
		assert.Equal(t, 37, r.FulfillmentPercentage())
	})

	t.Run("cumulative fulfillment flips status", func(t *testing.T) {
		r := validRequest(now)
		require.NoError(t, r.Fulfill(primitive.NewObjectID(), Quantity{Amount: 100, Unit: "meals"}, now))
		require.NoError(t, r.Fulfill(primitive.NewObjectID(), Quantity{Amount: 60, Unit: "meals"}, now))

		assert.Equal(t, RequestFulfilled, r.Status)
		assert.Len(t, r.FulfilledBy, 2)
		assert.Equal(t, 100, r.FulfillmentPercentage())
	})

	t.Run("overfulfillment caps percentage at 100", func(t *testing.T) {
		r := validRequest(now)
		require.NoError(t, r.Fulfill(primitive.NewObjectID(), Quantity{Amount: 500, Unit: "meals"}, now))
		assert.Equal(t, 100, r.FulfillmentPercentage())
	})

	t.Run("non-pending request rejects fulfillment", func(t *testing.T) {
		r := validRequest(now)
		r.Status = RequestCancelled
		assert.EqualError(t, r.Fulfill(primitive.NewObjectID(), Quantity{Amount: 10, Unit: "meals"}, now), "request is not pending")
	})

	t.Run("non-positive quantity rejected", func(t *testing.T) {
		r := validRequest(now)
		assert.Error(t, r.Fulfill(primitive.NewObjectID(), Quantity{Amount: 0, Unit: "meals"}, now))
	})
}

func TestRequestCancel(t *testing.T) {
	now := time.Now()

	r := validRequest(now)
	require.NoError(t, r.Cancel())
	assert.Equal(t, RequestCancelled, r.Status)

	assert.EqualError(t, r.Cancel(), "only pending requests can be cancelled")

	fulfilled := validRequest(now)
	fulfilled.Status = RequestFulfilled
	assert.Error(t, fulfilled.Cancel())
}
