package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/identity-mirror/idsync/internal/core/domain"
	"github.com/identity-mirror/idsync/internal/core/ports"
	"github.com/identity-mirror/idsync/internal/pkg/metrics"
)

// EventHandler is the inbound boundary for bus-delivered lifecycle events.
// It routes by event name to the matching sync handler and reports the
// handler's outcome; a failed outcome surfaces as an error status so the bus
// runtime redelivers.
type EventHandler struct {
	service ports.SyncService
}

// NewEventHandler creates an EventHandler calling into service.
func NewEventHandler(service ports.SyncService) *EventHandler {
	return &EventHandler{service: service}
}

// Receive handles deliveries on /v1/events for any HTTP verb the bus
// transport uses. Event types this pipeline does not consume are a no-op
// success: the endpoint is shared with unrelated consumers.
//
// @Summary      Receive a bus-delivered identity lifecycle event
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        body  body      eventEnvelope  true  "Event envelope"
// @Success      200   {object}  domain.SyncOutcome
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/events [post]
func (h *EventHandler) Receive(c echo.Context) error {
	var env eventEnvelope
	if err := c.Bind(&env); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if env.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing event name")
	}

	switch domain.EventName(env.Name) {
	case domain.EventIdentityCreated:
		in, err := h.identityInput(c, env)
		if err != nil {
			return err
		}
		outcome, err := h.service.HandleCreated(c.Request().Context(), in)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, outcome)

	case domain.EventIdentityUpdated:
		in, err := h.identityInput(c, env)
		if err != nil {
			return err
		}
		outcome, err := h.service.HandleUpdated(c.Request().Context(), in)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, outcome)

	case domain.EventIdentityDeleted:
		var payload identityDeletedPayload
		if err := decodePayload(env.Data, &payload); err != nil {
			return err
		}
		if err := c.Validate(&payload); err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		outcome, err := h.service.HandleDeleted(c.Request().Context(), payload.ExternalID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, outcome)

	default:
		metrics.EventsIgnoredTotal.WithLabelValues(env.Name).Inc()
		return c.JSON(http.StatusOK, ignoredResponse{Message: "event ignored", Event: env.Name})
	}
}

// identityInput decodes and validates the created/updated payload, mapping
// it to the service DTO. The payload's own timestamp wins over the envelope's.
func (h *EventHandler) identityInput(c echo.Context, env eventEnvelope) (ports.IdentityEventInput, error) {
	var payload identityEventPayload
	if err := decodePayload(env.Data, &payload); err != nil {
		return ports.IdentityEventInput{}, err
	}
	if err := c.Validate(&payload); err != nil {
		return ports.IdentityEventInput{}, echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ts := payload.Timestamp
	if ts.IsZero() {
		ts = env.TS
	}

	return ports.IdentityEventInput{
		ExternalID: payload.ExternalID,
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
		Username:   payload.Username,
		Email:      payload.Email,
		ImageURL:   payload.ImageURL,
		Timestamp:  ts,
	}, nil
}

func decodePayload(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "missing event data")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event data")
	}
	return nil
}
