package handler

import (
	"time"

	"github.com/identity-mirror/idsync/internal/core/domain"
)

type bulkSyncRequest struct {
	ExternalIDs []string `json:"externalIds" validate:"required,min=1,dive,required"`
}

type bulkSyncResponse struct {
	RequestedAt time.Time                `json:"requestedAt"`
	Total       int                      `json:"total"`
	Succeeded   int                      `json:"succeeded"`
	Failed      int                      `json:"failed"`
	Results     []domain.BulkSyncOutcome `json:"results"`
}

type syncUserResponse struct {
	Message    string `json:"message"`
	ExternalID string `json:"externalId"`
}
