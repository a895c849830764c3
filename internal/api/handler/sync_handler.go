package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/identity-mirror/idsync/internal/core/ports"
)

// SyncHandler exposes on-demand reconciliation to operators.
type SyncHandler struct {
	reconciler ports.ReconcileService
	bus        ports.EventBus
	log        zerolog.Logger
}

func NewSyncHandler(reconciler ports.ReconcileService, bus ports.EventBus, log zerolog.Logger) *SyncHandler {
	return &SyncHandler{reconciler: reconciler, bus: bus, log: log}
}

// SyncUser handles POST /v1/sync/users/:externalId. It re-fetches one
// identity from the provider and re-emits an update event for it.
//
// @Summary      Resync a single identity
// @Tags         sync
// @Produce      json
// @Security     BearerAuth
// @Param        externalId  path      string  true  "External identity ID"
// @Success      202   {object}  syncUserResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/sync/users/{externalId} [post]
func (h *SyncHandler) SyncUser(c echo.Context) error {
	externalID := c.Param("externalId")
	if externalID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing external id")
	}

	operator, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	if _, err := h.reconciler.SyncUser(c.Request().Context(), externalID); err != nil {
		return err
	}

	h.log.Info().Str("operator", operator).Str("external_id", externalID).Msg("manual resync requested")

	return c.JSON(http.StatusAccepted, syncUserResponse{
		Message:    "sync event published",
		ExternalID: externalID,
	})
}

// BulkSync handles POST /v1/sync/users/bulk. It reconciles a batch of
// identities, returning one outcome per requested ID in request order.
//
// @Summary      Resync a batch of identities
// @Tags         sync
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      bulkSyncRequest  true  "External identity IDs"
// @Success      200   {object}  bulkSyncResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/sync/users/bulk [post]
func (h *SyncHandler) BulkSync(c echo.Context) error {
	var req bulkSyncRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	operator, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	h.log.Info().Str("operator", operator).Int("count", len(req.ExternalIDs)).Msg("bulk resync requested")

	requestedAt := time.Now().UTC()

	// The request itself is an observable event; failing to announce it must
	// not block the reconciliation.
	if err := h.bus.PublishBulkSyncRequested(c.Request().Context(), req.ExternalIDs, requestedAt); err != nil {
		h.log.Warn().Err(err).Int("count", len(req.ExternalIDs)).Msg("failed to publish bulk-sync event")
	}

	results, err := h.reconciler.BulkSync(c.Request().Context(), req.ExternalIDs)
	if err != nil {
		return err
	}

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}

	return c.JSON(http.StatusOK, bulkSyncResponse{
		RequestedAt: requestedAt,
		Total:       len(results),
		Succeeded:   succeeded,
		Failed:      len(results) - succeeded,
		Results:     results,
	})
}
