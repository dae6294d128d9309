package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"datamarket/internal/model"
	"datamarket/internal/service"
)

// PaymentHandler handles payment endpoints.
type PaymentHandler struct {
	paymentService service.PaymentService
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// VerifyRequest is the checkout callback payload. When DatasetID is set the
// purchase is recorded in the same request.
type VerifyRequest struct {
	OrderID   string `json:"orderId" validate:"required"`
	PaymentID string `json:"paymentId" validate:"required"`
	Signature string `json:"signature" validate:"required"`
	DatasetID uint   `json:"datasetId"`
}

// VerifyResponse reports the verification outcome.
type VerifyResponse struct {
	Success  bool            `json:"success"`
	Purchase *model.Purchase `json:"purchase,omitempty"`
}

// CreateOrder godoc
// @Summary Open a payment order for a dataset
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Dataset ID"
// @Success 200 {object} service.OrderResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /payment/razorpay/{id} [post]
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}
	datasetID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.paymentService.CreateOrder(c.Request().Context(), datasetID, claims.UserID)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, order)
}

// Verify godoc
// @Summary Verify a payment signature and grant the dataset
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body VerifyRequest true "Checkout callback"
// @Success 200 {object} VerifyResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /payment/verify [post]
func (h *PaymentHandler) Verify(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req VerifyRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return validationError(err)
	}

	ctx := c.Request().Context()
	if req.DatasetID == 0 {
		if err := h.paymentService.VerifyPayment(ctx, req.OrderID, req.PaymentID, req.Signature); err != nil {
			return errorResponse(err)
		}
		return c.JSON(http.StatusOK, VerifyResponse{Success: true})
	}

	purchase, _, err := h.paymentService.VerifyAndRecord(ctx, service.VerifyInput{
		UserID:    claims.UserID,
		DatasetID: req.DatasetID,
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, VerifyResponse{Success: true, Purchase: purchase})
}
