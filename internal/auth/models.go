package auth

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account roles.
const (
	RoleCommunity = "community"
	RoleNGO       = "ngo"
	RolePanchayat = "panchayat"
	RoleAdmin     = "admin"
	RoleVerifier  = "verifier"
)

// selfRegisterRoles are the roles a user may pick at registration time.
// Admin and verifier accounts are provisioned out of band.
var selfRegisterRoles = map[string]bool{
	RoleCommunity: true,
	RoleNGO:       true,
	RolePanchayat: true,
}

// Organization details for NGO / panchayat accounts.
type Organization struct {
	Name               string `bson:"name,omitempty" json:"name,omitempty"`
	Type               string `bson:"type,omitempty" json:"type,omitempty"`
	RegistrationNumber string `bson:"registrationNumber,omitempty" json:"registrationNumber,omitempty"`
}

// UserLocation is the account's home region.
type UserLocation struct {
	State    string `bson:"state,omitempty" json:"state,omitempty"`
	District string `bson:"district,omitempty" json:"district,omitempty"`
	Village  string `bson:"village,omitempty" json:"village,omitempty"`
}

// User is a registry account. The password hash is never serialized to
// clients.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	Password     string             `bson:"password" json:"-"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Role         string             `bson:"role" json:"role"`
	Organization *Organization      `bson:"organization,omitempty" json:"organization,omitempty"`
	Location     *UserLocation      `bson:"location,omitempty" json:"location,omitempty"`
	Avatar       string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	IsVerified   bool               `bson:"isVerified" json:"isVerified"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
