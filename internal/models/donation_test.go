package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validDonation(now time.Time) Donation {
	return Donation{
		Donor:               primitive.NewObjectID(),
		Title:               "Leftover catering trays",
		Description:         "Six trays of cooked pasta from an office event",
		FoodType:            "cooked",
		Quantity:            Quantity{Amount: 30, Unit: "meals"},
		Allergens:           []string{"wheat", "dairy"},
		DietaryRestrictions: []string{"none"},
		PreparationTime:     now.Add(-2 * time.Hour),
		ExpiryTime:          now.Add(24 * time.Hour),
		PickupTime:          PickupWindow{Start: now.Add(1 * time.Hour), End: now.Add(6 * time.Hour)},
		Location: Location{
			Coordinates: GeoPoint{Type: "Point", Coordinates: []float64{-122.4194, 37.7749}},
		},
		Status: DonationAvailable,
	}
}

func TestDonationValidate(t *testing.T) {
	now := time.Now()

	t.Run("valid donation passes", func(t *testing.T) {
		d := validDonation(now)
		require.NoError(t, d.Validate())
	})

	t.Run("missing title", func(t *testing.T) {
		d := validDonation(now)
		d.Title = ""
		assert.EqualError(t, d.Validate(), "donation title is required")
	})

	t.Run("title too long", func(t *testing.T) {
		d := validDonation(now)
		d.Title = strings.Repeat("x", 101)
		assert.Error(t, d.Validate())
	})

	t.Run("invalid food type", func(t *testing.T) {
		d := validDonation(now)
		d.FoodType = "liquid"
		assert.EqualError(t, d.Validate(), "invalid food type: liquid")
	})

	t.Run("quantity below one", func(t *testing.T) {
		d := validDonation(now)
		d.Quantity.Amount = 0.5
		assert.EqualError(t, d.Validate(), "quantity must be at least 1")
	})

	t.Run("invalid quantity unit", func(t *testing.T) {
		d := validDonation(now)
		d.Quantity.Unit = "buckets"
		assert.Error(t, d.Validate())
	})

	t.Run("invalid allergen", func(t *testing.T) {
		d := validDonation(now)
		d.Allergens = []string{"pollen"}
		assert.EqualError(t, d.Validate(), "invalid allergen value: pollen")
	})

	t.Run("expiry before preparation", func(t *testing.T) {
		d := validDonation(now)
		d.ExpiryTime = d.PreparationTime.Add(-time.Minute)
		assert.EqualError(t, d.Validate(), "expiry time must be after preparation time")
	})

	t.Run("pickup end before start", func(t *testing.T) {
		d := validDonation(now)
		d.PickupTime.Start, d.PickupTime.End = d.PickupTime.End, d.PickupTime.Start
		assert.EqualError(t, d.Validate(), "pickup end time must be after start time")
	})

	t.Run("pickup start equal to end", func(t *testing.T) {
		d := validDonation(now)
		d.PickupTime.End = d.PickupTime.Start
		assert.Error(t, d.Validate())
	})

	t.Run("bad coordinates", func(t *testing.T) {
		d := validDonation(now)
		d.Location.Coordinates.Coordinates = []float64{-200, 37.7749}
		assert.EqualError(t, d.Validate(), "location coordinates out of range")
	})

	t.Run("non-point geometry", func(t *testing.T) {
		d := validDonation(now)
		d.Location.Coordinates.Type = "Polygon"
		assert.Error(t, d.Validate())
	})

	t.Run("negative estimated value", func(t *testing.T) {
		d := validDonation(now)
		d.EstimatedValue = -10
		assert.Error(t, d.Validate())
	})
}

func TestDonationIsAvailable(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		mutate func(*Donation)
		want   bool
	}{
		{"available and fresh", func(d *Donation) {}, true},
		{"already claimed", func(d *Donation) { d.Status = DonationClaimed }, false},
		{"cancelled", func(d *Donation) { d.Status = DonationCancelled }, false},
		{"expired", func(d *Donation) { d.ExpiryTime = now.Add(-time.Minute) }, false},
		{"pickup window closed", func(d *Donation) { d.PickupTime.End = now.Add(-time.Minute) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDonation(now)
			tt.mutate(&d)
			assert.Equal(t, tt.want, d.IsAvailable(now))
		})
	}
}

func TestDonationCanPickUp(t *testing.T) {
	now := time.Now()
	claimant := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	d := validDonation(now)
	d.Status = DonationClaimed
	d.ClaimedBy = &claimant

	require.NoError(t, d.CanPickUp(claimant))

	err := d.CanPickUp(stranger)
	assert.ErrorContains(t, err, "access denied")

	unclaimed := validDonation(now)
	err = unclaimed.CanPickUp(claimant)
	assert.ErrorContains(t, err, "access denied")

	d.Status = DonationPickedUp
	err = d.CanPickUp(claimant)
	assert.ErrorContains(t, err, "must be claimed")
}
