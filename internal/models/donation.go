package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DonationAvailable = "available"
	DonationClaimed   = "claimed"
	DonationPickedUp  = "picked-up"
	DonationExpired   = "expired"
	DonationCancelled = "cancelled"
)

const (
	maxTitleLen        = 100
	maxDescriptionLen  = 500
	maxInstructionsLen = 200
	maxNotesLen        = 300
)

var FoodTypes = []string{"cooked", "packaged", "fresh", "frozen", "canned", "baked", "other"}

var QuantityUnits = []string{"meals", "pounds", "kilograms", "pieces", "servings", "containers"}

var Allergens = []string{"dairy", "eggs", "fish", "shellfish", "tree nuts", "peanuts", "wheat", "soy", "none"}

var DietaryRestrictions = []string{"vegetarian", "vegan", "gluten-free", "halal", "kosher", "none"}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func validateSet(values []string, set []string, field string) error {
	for _, v := range values {
		if !contains(set, v) {
			return fmt.Errorf("invalid %s value: %s", field, v)
		}
	}
	return nil
}

type Quantity struct {
	Amount float64 `bson:"amount" json:"amount"`
	Unit   string  `bson:"unit" json:"unit"`
}

func (q Quantity) Validate() error {
	if q.Amount < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}
	if !contains(QuantityUnits, q.Unit) {
		return fmt.Errorf("invalid quantity unit: %s", q.Unit)
	}
	return nil
}

// GeoPoint is a GeoJSON point, coordinates ordered [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

func (p GeoPoint) Validate() error {
	if p.Type != "Point" {
		return fmt.Errorf("location coordinates type must be Point")
	}
	if len(p.Coordinates) != 2 {
		return fmt.Errorf("location coordinates must be [longitude, latitude]")
	}
	lng, lat := p.Coordinates[0], p.Coordinates[1]
	if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		return fmt.Errorf("location coordinates out of range")
	}
	return nil
}

type Location struct {
	Address            Address  `bson:"address,omitempty" json:"address"`
	Coordinates        GeoPoint `bson:"coordinates" json:"coordinates"`
	PickupInstructions string   `bson:"pickupInstructions,omitempty" json:"pickupInstructions,omitempty"`
}

type PickupWindow struct {
	Start time.Time `bson:"start" json:"start"`
	End   time.Time `bson:"end" json:"end"`
}

type Image struct {
	URL     string `bson:"url" json:"url"`
	Caption string `bson:"caption,omitempty" json:"caption,omitempty"`
}

type Donation struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Donor               primitive.ObjectID  `bson:"donor" json:"donor"`
	Title               string              `bson:"title" json:"title"`
	Description         string              `bson:"description" json:"description"`
	FoodType            string              `bson:"foodType" json:"foodType"`
	Quantity            Quantity            `bson:"quantity" json:"quantity"`
	Allergens           []string            `bson:"allergens" json:"allergens"`
	DietaryRestrictions []string            `bson:"dietaryRestrictions" json:"dietaryRestrictions"`
	PreparationTime     time.Time           `bson:"preparationTime" json:"preparationTime"`
	ExpiryTime          time.Time           `bson:"expiryTime" json:"expiryTime"`
	PickupTime          PickupWindow        `bson:"pickupTime" json:"pickupTime"`
	Location            Location            `bson:"location" json:"location"`
	Images              []Image             `bson:"images" json:"images"`
	Status              string              `bson:"status" json:"status"`
	ClaimedBy           *primitive.ObjectID `bson:"claimedBy,omitempty" json:"claimedBy,omitempty"`
	Claimed             bool                `bson:"claimed" json:"claimed"`
	ClaimedAt           *time.Time          `bson:"claimedAt,omitempty" json:"claimedAt,omitempty"`
	PickedUpAt          *time.Time          `bson:"pickedUpAt,omitempty" json:"pickedUpAt,omitempty"`
	Tags                []string            `bson:"tags" json:"tags"`
	IsUrgent            bool                `bson:"isUrgent" json:"isUrgent"`
	EstimatedValue      float64             `bson:"estimatedValue,omitempty" json:"estimatedValue,omitempty"`
	Notes               string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt           time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time           `bson:"updatedAt" json:"updatedAt"`

	// Attached by handlers, never persisted.
	DonorProfile   *PublicUser `bson:"-" json:"donorProfile,omitempty"`
	ClaimerProfile *PublicUser `bson:"-" json:"claimerProfile,omitempty"`
}

// Validate checks the creation/update invariants. It does not inspect status
// fields; lifecycle transitions are validated separately.
func (d *Donation) Validate() error {
	if d.Title == "" {
		return fmt.Errorf("donation title is required")
	}
	if len(d.Title) > maxTitleLen {
		return fmt.Errorf("title cannot exceed %d characters", maxTitleLen)
	}
	if d.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(d.Description) > maxDescriptionLen {
		return fmt.Errorf("description cannot exceed %d characters", maxDescriptionLen)
	}
	if !contains(FoodTypes, d.FoodType) {
		return fmt.Errorf("invalid food type: %s", d.FoodType)
	}
	if err := d.Quantity.Validate(); err != nil {
		return err
	}
	if err := validateSet(d.Allergens, Allergens, "allergen"); err != nil {
		return err
	}
	if err := validateSet(d.DietaryRestrictions, DietaryRestrictions, "dietary restriction"); err != nil {
		return err
	}
	if d.PreparationTime.IsZero() {
		return fmt.Errorf("preparation time is required")
	}
	if d.ExpiryTime.IsZero() {
		return fmt.Errorf("expiry time is required")
	}
	if !d.ExpiryTime.After(d.PreparationTime) {
		return fmt.Errorf("expiry time must be after preparation time")
	}
	if d.PickupTime.Start.IsZero() || d.PickupTime.End.IsZero() {
		return fmt.Errorf("pickup start and end times are required")
	}
	if !d.PickupTime.Start.Before(d.PickupTime.End) {
		return fmt.Errorf("pickup end time must be after start time")
	}
	if err := d.Location.Coordinates.Validate(); err != nil {
		return err
	}
	if len(d.Location.PickupInstructions) > maxInstructionsLen {
		return fmt.Errorf("pickup instructions cannot exceed %d characters", maxInstructionsLen)
	}
	if d.EstimatedValue < 0 {
		return fmt.Errorf("estimated value cannot be negative")
	}
	if len(d.Notes) > maxNotesLen {
		return fmt.Errorf("notes cannot exceed %d characters", maxNotesLen)
	}
	return nil
}

// IsAvailable reports whether the donation can still be claimed: status is
// available, it has not expired, and the pickup window has not closed.
func (d *Donation) IsAvailable(now time.Time) bool {
	return d.Status == DonationAvailable &&
		d.ExpiryTime.After(now) &&
		d.PickupTime.End.After(now)
}

// CanPickUp checks the picked-up transition: only the recorded claimant may
// confirm pickup, and only while the donation is claimed.
func (d *Donation) CanPickUp(userID primitive.ObjectID) error {
	if d.ClaimedBy == nil || *d.ClaimedBy != userID {
		return fmt.Errorf("access denied: you can only mark donations you claimed as picked up")
	}
	if d.Status != DonationClaimed {
		return fmt.Errorf("donation must be claimed before marking as picked up")
	}
	return nil
}
