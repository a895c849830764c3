package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/identity-mirror/idsync/internal/core/domain"
	"github.com/identity-mirror/idsync/internal/core/ports"
)

// UserHandler exposes read access and local profile edits on synced users.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Get handles GET /v1/users/:externalId.
//
// @Summary      Get a synced user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        externalId  path      string  true  "External identity ID"
// @Success      200   {object}  userResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/users/{externalId} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.service.GetByExternalID(c.Request().Context(), c.Param("externalId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// List handles GET /v1/users with role/search filters and pagination.
//
// @Summary      List synced users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        role    query     string  false  "Filter by role"
// @Param        search  query     string  false  "Partial match on username or email"
// @Param        page    query     int     false  "Page (1-based)"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Success      200   {object}  listUsersResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := h.service.List(c.Request().Context(), ports.ListUsersFilter{
		Role:   c.QueryParam("role"),
		Search: c.QueryParam("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return err
	}

	items := make([]userResponse, 0, len(result.Items))
	for _, u := range result.Items {
		items = append(items, toUserResponse(u))
	}

	return c.JSON(http.StatusOK, listUsersResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
		TotalPages: result.TotalPages,
	})
}

// ChangeRole handles PATCH /v1/users/:externalId/role. Role is locally
// authoritative, so this is the only write path for it.
//
// @Summary      Change a user's local role
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        externalId  path      string             true  "External identity ID"
// @Param        body        body      changeRoleRequest  true  "New role"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/users/{externalId}/role [patch]
func (h *UserHandler) ChangeRole(c echo.Context) error {
	var req changeRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.service.ChangeRole(c.Request().Context(), c.Param("externalId"), domain.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// ChangeAddress handles PUT /v1/users/:externalId/address.
//
// @Summary      Set a user's local address
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        externalId  path      string                true  "External identity ID"
// @Param        body        body      changeAddressRequest  true  "Address"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/users/{externalId}/address [put]
func (h *UserHandler) ChangeAddress(c echo.Context) error {
	var req changeAddressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.service.ChangeAddress(c.Request().Context(), c.Param("externalId"), domain.Address{
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}
