package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "datamarket/internal/errors"
	"datamarket/internal/model"
	"datamarket/internal/service"
)

// PurchaseHandler exposes the entitlement ledger.
type PurchaseHandler struct {
	purchases service.PurchaseService
	datasets  service.DatasetService
}

// NewPurchaseHandler creates a new purchase handler.
func NewPurchaseHandler(purchases service.PurchaseService, datasets service.DatasetService) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases, datasets: datasets}
}

// PurchaseRequest records an entitlement directly.
type PurchaseRequest struct {
	UserID    uint `json:"userId" validate:"required"`
	DatasetID uint `json:"datasetId" validate:"required"`
}

// PurchaseResponse reports the stored purchase.
type PurchaseResponse struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message,omitempty"`
	Purchase *model.Purchase `json:"purchase"`
}

// Purchase godoc
// @Summary Record a purchase
// @Description Admins may grant any dataset. Other callers may only claim a free dataset for themselves; paid datasets go through /payment/verify.
// @Tags purchases
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PurchaseRequest true "Purchase"
// @Success 200 {object} PurchaseResponse "Already purchased"
// @Success 201 {object} PurchaseResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /purchases/purchase [post]
func (h *PurchaseHandler) Purchase(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return badRequest("Missing user ID or dataset ID", "VALIDATION_ERROR")
	}

	ctx := c.Request().Context()
	if !claims.IsAdmin() {
		if req.UserID != claims.UserID {
			return errorResponse(apperrors.ErrForbidden)
		}
		dataset, err := h.datasets.Get(ctx, req.DatasetID)
		if errors.Is(err, apperrors.ErrNotFound) {
			return errorResponse(fmt.Errorf("%w: dataset %d", apperrors.ErrInvalidReference, req.DatasetID))
		}
		if err != nil {
			return errorResponse(err)
		}
		if dataset.Price.IsPositive() {
			return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
				Error: "paid datasets are granted through payment verification",
				Code:  "PAYMENT_REQUIRED",
			})
		}
	}

	purchase, created, err := h.purchases.RecordPurchase(ctx, req.UserID, req.DatasetID)
	if err != nil {
		return errorResponse(err)
	}
	if !created {
		return c.JSON(http.StatusOK, PurchaseResponse{Success: true, Message: "Already purchased", Purchase: purchase})
	}
	return c.JSON(http.StatusCreated, PurchaseResponse{Success: true, Purchase: purchase})
}

// ListForUser godoc
// @Summary Datasets a user has purchased
// @Tags purchases
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 200 {array} model.PurchasedDataset
// @Failure 403 {object} errors.ErrorResponse
// @Router /purchases/user/{userId} [get]
func (h *PurchaseHandler) ListForUser(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}
	userID, err := parseID(c, "userId")
	if err != nil {
		return err
	}
	if userID != claims.UserID && !claims.IsAdmin() {
		return errorResponse(apperrors.ErrForbidden)
	}

	rows, err := h.purchases.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, rows)
}
