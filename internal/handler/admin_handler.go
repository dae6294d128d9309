package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"datamarket/internal/model"
	"datamarket/internal/service"
)

// AdminHandler serves /api/admin. Every route sits behind RequireRole(admin).
type AdminHandler struct {
	admin service.AdminService
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(admin service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// ChangeRoleRequest sets a user's role.
type ChangeRoleRequest struct {
	Role string `json:"role"`
}

// ChangeRoleResponse returns the updated user.
type ChangeRoleResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// DeletedCountResponse reports how many rows a bulk delete removed.
type DeletedCountResponse struct {
	Message string `json:"message"`
	Deleted int    `json:"deleted"`
}

// Dashboard godoc
// @Summary Admin greeting
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, MessageResponse{Message: "Welcome to the Admin Dashboard!"})
}

// ListUsers godoc
// @Summary List users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.User
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.admin.ListUsers(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, users)
}

// DeleteUser godoc
// @Summary Delete a user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.admin.DeleteUser(c.Request().Context(), id); err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "User deleted"})
}

// ChangeRole godoc
// @Summary Change a user's role
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body ChangeRoleRequest true "New role (admin or user)"
// @Success 200 {object} ChangeRoleResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id}/role [patch]
func (h *AdminHandler) ChangeRole(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req ChangeRoleRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	user, err := h.admin.ChangeRole(c.Request().Context(), id, req.Role)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, ChangeRoleResponse{
		Message: fmt.Sprintf("User role updated to %s", user.Role),
		User:    user,
	})
}

// ListDatasets godoc
// @Summary List all datasets
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} DatasetResponse
// @Router /admin/datasets [get]
func (h *AdminHandler) ListDatasets(c echo.Context) error {
	datasets, err := h.admin.ListDatasets(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, toDatasetResponses(datasets))
}

// DeleteDataset godoc
// @Summary Delete any dataset with its files
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Dataset ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/datasets/{id} [delete]
func (h *AdminHandler) DeleteDataset(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.admin.DeleteDataset(c.Request().Context(), id); err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Dataset deleted"})
}

// DeleteUserDatasets godoc
// @Summary Delete every dataset a user uploaded
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} DeletedCountResponse
// @Router /admin/users/{id}/datasets [delete]
func (h *AdminHandler) DeleteUserDatasets(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	n, err := h.admin.DeleteUserDatasets(c.Request().Context(), id)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, DeletedCountResponse{Message: "User datasets deleted", Deleted: n})
}

// ListPurchases godoc
// @Summary List all purchases
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.PurchaseRecord
// @Router /admin/purchases [get]
func (h *AdminHandler) ListPurchases(c echo.Context) error {
	rows, err := h.admin.ListPurchases(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, rows)
}

// RecentPurchases godoc
// @Summary Latest purchases for the notification feed
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.PurchaseRecord
// @Router /admin/recent-purchases [get]
func (h *AdminHandler) RecentPurchases(c echo.Context) error {
	rows, err := h.admin.RecentPurchases(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, rows)
}

// Stats godoc
// @Summary Dashboard counters
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.AdminStats
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c echo.Context) error {
	stats, err := h.admin.Stats(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, stats)
}
