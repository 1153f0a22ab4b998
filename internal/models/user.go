package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	UserTypeDonor = "donor"
	UserTypeNGO   = "ngo"
)

func ValidUserType(t string) bool {
	return t == UserTypeDonor || t == UserTypeNGO
}

type Address struct {
	Street  string `bson:"street,omitempty" json:"street,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	ZipCode string `bson:"zipCode,omitempty" json:"zipCode,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
}

// UserStats holds the donor's lifetime aggregates, incremented when one of
// their donations is claimed.
type UserStats struct {
	TotalDonations int     `bson:"totalDonations" json:"totalDonations"`
	TotalMeals     float64 `bson:"totalMeals" json:"totalMeals"`
}

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"`
	UserType     string             `bson:"userType" json:"userType"`
	Organization string             `bson:"organization,omitempty" json:"organization,omitempty"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address      Address            `bson:"address,omitempty" json:"address"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	Stats        UserStats          `bson:"stats" json:"stats"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PublicUser is the projection attached to donations and requests in place of
// a bare owner reference.
type PublicUser struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Organization string             `bson:"organization,omitempty" json:"organization,omitempty"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Name:         u.Name,
		Organization: u.Organization,
		Phone:        u.Phone,
	}
}
