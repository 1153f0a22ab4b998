package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RequestPending   = "pending"
	RequestFulfilled = "fulfilled"
	RequestCancelled = "cancelled"
	RequestExpired   = "expired"
)

var UrgencyLevels = []string{"low", "medium", "high", "critical"}

var BeneficiaryTypes = []string{"children", "adults", "families", "elderly", "homeless", "refugees", "other"}

var ContactMethods = []string{"phone", "email", "both"}

type Beneficiaries struct {
	Count       int    `bson:"count" json:"count"`
	Type        string `bson:"type" json:"type"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

type ContactInfo struct {
	Phone            string `bson:"phone,omitempty" json:"phone,omitempty"`
	Email            string `bson:"email,omitempty" json:"email,omitempty"`
	PreferredContact string `bson:"preferredContact" json:"preferredContact"`
}

// Fulfillment links a claimed donation to this request and records how much
// of the outstanding need it covered.
type Fulfillment struct {
	Donation    primitive.ObjectID `bson:"donation" json:"donation"`
	FulfilledAt time.Time          `bson:"fulfilledAt" json:"fulfilledAt"`
	Quantity    Quantity           `bson:"quantity" json:"quantity"`
}

type Request struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Requester           primitive.ObjectID `bson:"requester" json:"requester"`
	Title               string             `bson:"title" json:"title"`
	Description         string             `bson:"description" json:"description"`
	FoodTypes           []string           `bson:"foodTypes" json:"foodTypes"`
	Quantity            Quantity           `bson:"quantity" json:"quantity"`
	Urgency             string             `bson:"urgency" json:"urgency"`
	NeededBy            time.Time          `bson:"neededBy" json:"neededBy"`
	Location            Location           `bson:"location" json:"location"`
	Beneficiaries       Beneficiaries      `bson:"beneficiaries" json:"beneficiaries"`
	DietaryRestrictions []string           `bson:"dietaryRestrictions" json:"dietaryRestrictions"`
	Allergens           []string           `bson:"allergens" json:"allergens"`
	Status              string             `bson:"status" json:"status"`
	FulfilledBy         []Fulfillment      `bson:"fulfilledBy" json:"fulfilledBy"`
	Tags                []string           `bson:"tags" json:"tags"`
	IsUrgent            bool               `bson:"isUrgent" json:"isUrgent"`
	Notes               string             `bson:"notes,omitempty" json:"notes,omitempty"`
	ContactInfo         ContactInfo        `bson:"contactInfo" json:"contactInfo"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt" json:"updatedAt"`

	// Attached by handlers, never persisted.
	RequesterProfile *PublicUser `bson:"-" json:"requesterProfile,omitempty"`
}

// Validate checks the creation/update invariants. now is the reference point
// for the neededBy deadline.
func (r *Request) Validate(now time.Time) error {
	if r.Title == "" {
		return fmt.Errorf("request title is required")
	}
	if len(r.Title) > maxTitleLen {
		return fmt.Errorf("title cannot exceed %d characters", maxTitleLen)
	}
	if r.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(r.Description) > maxDescriptionLen {
		return fmt.Errorf("description cannot exceed %d characters", maxDescriptionLen)
	}
	if err := validateSet(r.FoodTypes, FoodTypes, "food type"); err != nil {
		return err
	}
	if err := r.Quantity.Validate(); err != nil {
		return err
	}
	if !contains(UrgencyLevels, r.Urgency) {
		return fmt.Errorf("invalid urgency level: %s", r.Urgency)
	}
	if r.NeededBy.IsZero() {
		return fmt.Errorf("needed by date is required")
	}
	if !r.NeededBy.After(now) {
		return fmt.Errorf("needed by date must be in the future")
	}
	if err := r.Location.Coordinates.Validate(); err != nil {
		return err
	}
	if r.Beneficiaries.Count < 1 {
		return fmt.Errorf("beneficiary count must be at least 1")
	}
	if !contains(BeneficiaryTypes, r.Beneficiaries.Type) {
		return fmt.Errorf("invalid beneficiary type: %s", r.Beneficiaries.Type)
	}
	if err := validateSet(r.DietaryRestrictions, DietaryRestrictions, "dietary restriction"); err != nil {
		return err
	}
	if err := validateSet(r.Allergens, Allergens, "allergen"); err != nil {
		return err
	}
	if r.ContactInfo.PreferredContact != "" && !contains(ContactMethods, r.ContactInfo.PreferredContact) {
		return fmt.Errorf("invalid preferred contact method: %s", r.ContactInfo.PreferredContact)
	}
	if len(r.Notes) > maxNotesLen {
		return fmt.Errorf("notes cannot exceed %d characters", maxNotesLen)
	}
	return nil
}

// TotalFulfilled sums the quantity amounts across recorded fulfillments.
func (r *Request) TotalFulfilled() float64 {
	var total float64
	for _, f := range r.FulfilledBy {
		total += f.Quantity.Amount
	}
	return total
}

// FulfillmentPercentage reports progress toward the requested amount, capped
// at 100.
func (r *Request) FulfillmentPercentage() int {
	if len(r.FulfilledBy) == 0 || r.Quantity.Amount <= 0 {
		return 0
	}
	pct := int(r.TotalFulfilled() / r.Quantity.Amount * 100)
	if pct > 100 {
		return 100
	}
	return pct
}

// Fulfill appends a fulfillment record and flips the status to fulfilled once
// the cumulative amount covers the requested quantity.
func (r *Request) Fulfill(donationID primitive.ObjectID, quantity Quantity, at time.Time) error {
	if r.Status != RequestPending {
		return fmt.Errorf("request is not pending")
	}
	if quantity.Amount <= 0 {
		return fmt.Errorf("fulfillment quantity must be positive")
	}

	r.FulfilledBy = append(r.FulfilledBy, Fulfillment{
		Donation:    donationID,
		FulfilledAt: at,
		Quantity:    quantity,
	})

	if r.TotalFulfilled() >= r.Quantity.Amount {
		r.Status = RequestFulfilled
	}

	return nil
}

// Cancel moves a pending request to cancelled.
func (r *Request) Cancel() error {
	if r.Status != RequestPending {
		return fmt.Errorf("only pending requests can be cancelled")
	}
	r.Status = RequestCancelled
	return nil
}
