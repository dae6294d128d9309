package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "datamarket/internal/errors"
	"datamarket/internal/metrics"
	"datamarket/internal/model"
	"datamarket/internal/payment"
	"datamarket/internal/repository"
)

var minorUnits = decimal.NewFromInt(100)

// OrderResult is what the browser checkout needs to complete a payment.
type OrderResult struct {
	Key      string `json:"key"`
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// VerifyInput carries the checkout callback fields.
type VerifyInput struct {
	UserID    uint
	DatasetID uint
	OrderID   string
	PaymentID string
	Signature string
}

// PaymentService bridges the payment gateway and the entitlement ledger.
type PaymentService interface {
	CreateOrder(ctx context.Context, datasetID, userID uint) (*OrderResult, error)
	VerifyPayment(ctx context.Context, orderID, paymentID, signature string) error
	// VerifyAndRecord checks the signature, confirms the order was opened
	// for the dataset and user, and grants the entitlement.
	VerifyAndRecord(ctx context.Context, in VerifyInput) (*model.Purchase, bool, error)
}

type paymentService struct {
	gateway   payment.Gateway
	datasets  repository.DatasetRepository
	purchases PurchaseService
	currency  string
	log       *zap.Logger
}

// NewPaymentService builds a PaymentService. A nil gateway makes every
// operation fail with ErrPaymentNotConfigured.
func NewPaymentService(
	gateway payment.Gateway,
	datasets repository.DatasetRepository,
	purchases PurchaseService,
	currency string,
	log *zap.Logger,
) PaymentService {
	return &paymentService{
		gateway:   gateway,
		datasets:  datasets,
		purchases: purchases,
		currency:  currency,
		log:       log,
	}
}

func (s *paymentService) CreateOrder(ctx context.Context, datasetID, userID uint) (*OrderResult, error) {
	if s.gateway == nil {
		return nil, apperrors.ErrPaymentNotConfigured
	}

	dataset, err := s.datasets.FindByID(ctx, datasetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: dataset %d", apperrors.ErrNotFound, datasetID)
		}
		return nil, fmt.Errorf("find dataset: %w", err)
	}

	amount := dataset.Price.Mul(minorUnits).Round(0).IntPart()
	if amount <= 0 {
		return nil, fmt.Errorf("%w: dataset is free, claim it without payment", apperrors.ErrBadRequest)
	}

	order, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
		Amount:         amount,
		Currency:       s.currency,
		Receipt:        strconv.FormatUint(uint64(dataset.ID), 10),
		PaymentCapture: 1,
		Notes: map[string]string{
			"dataset_id": strconv.FormatUint(uint64(dataset.ID), 10),
			"user_id":    strconv.FormatUint(uint64(userID), 10),
		},
	})
	metrics.GatewayOrders.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.log.Info("payment order created",
		zap.String("order_id", order.ID),
		zap.Uint("dataset_id", dataset.ID),
		zap.Uint("user_id", userID),
		zap.Int64("amount", amount))

	return &OrderResult{
		Key:      s.gateway.KeyID(),
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
	}, nil
}

func (s *paymentService) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) error {
	if s.gateway == nil {
		return apperrors.ErrPaymentNotConfigured
	}
	if orderID == "" || paymentID == "" || signature == "" {
		return fmt.Errorf("%w: order id, payment id and signature are required", apperrors.ErrBadRequest)
	}
	if !s.gateway.VerifySignature(orderID, paymentID, signature) {
		metrics.PaymentVerifications.WithLabelValues("mismatch").Inc()
		return apperrors.ErrVerificationFailed
	}
	metrics.PaymentVerifications.WithLabelValues("ok").Inc()
	return nil
}

func (s *paymentService) VerifyAndRecord(ctx context.Context, in VerifyInput) (*model.Purchase, bool, error) {
	if err := s.VerifyPayment(ctx, in.OrderID, in.PaymentID, in.Signature); err != nil {
		return nil, false, err
	}

	order, err := s.gateway.FetchOrder(ctx, in.OrderID)
	if err != nil {
		return nil, false, fmt.Errorf("fetch order: %w", err)
	}
	if !orderMatches(order, in) {
		metrics.PaymentVerifications.WithLabelValues("order_mismatch").Inc()
		s.log.Warn("payment order does not match purchase",
			zap.String("order_id", in.OrderID),
			zap.String("receipt", order.Receipt),
			zap.Uint("dataset_id", in.DatasetID),
			zap.Uint("user_id", in.UserID))
		return nil, false, apperrors.ErrVerificationFailed
	}

	return s.purchases.RecordPurchase(ctx, in.UserID, in.DatasetID)
}

// orderMatches binds a paid order to the dataset it was opened for and,
// when the order carries one, to the buyer.
func orderMatches(order *payment.Order, in VerifyInput) bool {
	if order.Receipt != strconv.FormatUint(uint64(in.DatasetID), 10) {
		return false
	}
	if uid, ok := order.Notes["user_id"]; ok && uid != strconv.FormatUint(uint64(in.UserID), 10) {
		return false
	}
	return true
}
