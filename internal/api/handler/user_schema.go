package handler

import (
	"time"

	"github.com/identity-mirror/idsync/internal/core/domain"
)

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type changeAddressRequest struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

type userResponse struct {
	ID           string          `json:"id"`
	ExternalID   string          `json:"externalId"`
	DisplayName  string          `json:"displayName"`
	FirstName    string          `json:"firstName,omitempty"`
	LastName     string          `json:"lastName,omitempty"`
	Username     string          `json:"username,omitempty"`
	Email        string          `json:"email,omitempty"`
	ImageURL     string          `json:"imageUrl,omitempty"`
	Role         string          `json:"role"`
	Address      *domain.Address `json:"address,omitempty"`
	LastSyncedAt time.Time       `json:"lastSyncedAt"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type listUsersResponse struct {
	Items      []userResponse `json:"items"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
}

func toUserResponse(u *domain.SyncedUser) userResponse {
	return userResponse{
		ID:           u.ID,
		ExternalID:   u.ExternalID,
		DisplayName:  u.DisplayName(),
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Username:     u.Username,
		Email:        u.Email,
		ImageURL:     u.ImageURL,
		Role:         string(u.Role),
		Address:      u.Address,
		LastSyncedAt: u.LastSyncedAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
