package domain

import (
	"errors"
	"strings"
	"time"
)

// Role is the local-authority field on a synced user. Provider-sourced sync
// never overwrites it.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

var ErrUserNotFound = errors.New("user not found")
var ErrInvalidRole = errors.New("invalid role")
var ErrIdentityNotFound = errors.New("identity not found")
var ErrEmptyBatch = errors.New("bulk sync requires at least one external id")
var ErrForbidden = errors.New("access forbidden")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrOperatorExists = errors.New("operator already exists")
var ErrOperatorNotFound = errors.New("operator not found")

// Address is locally authoritative and never sourced from the provider.
type Address struct {
	Street     string `json:"street" bson:"street"`
	City       string `json:"city" bson:"city"`
	State      string `json:"state" bson:"state"`
	PostalCode string `json:"postalCode" bson:"postalCode"`
	Country    string `json:"country" bson:"country"`
}

// SyncedUser is the local mirror of an identity record owned by the external
// provider. Provider-sourced fields are overwritten wholesale on every
// successful sync; Role and Address belong to this system.
type SyncedUser struct {
	ID           string    `json:"id"`
	ExternalID   string    `json:"externalId"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	Username     string    `json:"username,omitempty"`
	Email        string    `json:"email,omitempty"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	Role         Role      `json:"role"`
	Address      *Address  `json:"address,omitempty"`
	LastSyncedAt time.Time `json:"lastSyncedAt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DisplayName returns "First Last", falling back to the username, then a
// placeholder for records with no usable profile fields.
func (u *SyncedUser) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return "Unknown User"
}

const (
	OperatorRoleAdmin   = "admin"
	OperatorRoleService = "service"
)

// Operator models a local account allowed to call the operator API
// (reconciliation, role management). Operators are not synced users.
type Operator struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	LastLoginAt  time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
