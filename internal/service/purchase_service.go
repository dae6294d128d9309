package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	apperrors "datamarket/internal/errors"
	"datamarket/internal/metrics"
	"datamarket/internal/model"
	"datamarket/internal/repository"
)

// PurchaseService is the entitlement ledger.
type PurchaseService interface {
	HasPurchased(ctx context.Context, userID, datasetID uint) (bool, error)
	// RecordPurchase is idempotent per (user, dataset). created reports
	// whether this call inserted the row.
	RecordPurchase(ctx context.Context, userID, datasetID uint) (purchase *model.Purchase, created bool, err error)
	ListForUser(ctx context.Context, userID uint) ([]model.PurchasedDataset, error)
}

type purchaseService struct {
	purchases repository.PurchaseRepository
	users     repository.UserRepository
	datasets  repository.DatasetRepository
	now       func() time.Time
}

// NewPurchaseService builds a PurchaseService.
func NewPurchaseService(
	purchases repository.PurchaseRepository,
	users repository.UserRepository,
	datasets repository.DatasetRepository,
) PurchaseService {
	return &purchaseService{
		purchases: purchases,
		users:     users,
		datasets:  datasets,
		now:       time.Now,
	}
}

func (s *purchaseService) HasPurchased(ctx context.Context, userID, datasetID uint) (bool, error) {
	ok, err := s.purchases.Exists(ctx, userID, datasetID)
	if err != nil {
		return false, fmt.Errorf("check purchase: %w", err)
	}
	return ok, nil
}

func (s *purchaseService) RecordPurchase(ctx context.Context, userID, datasetID uint) (*model.Purchase, bool, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("%w: user does not exist", apperrors.ErrInvalidReference)
		}
		return nil, false, fmt.Errorf("find user: %w", err)
	}
	if _, err := s.datasets.FindByID(ctx, datasetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("%w: dataset does not exist", apperrors.ErrInvalidReference)
		}
		return nil, false, fmt.Errorf("find dataset: %w", err)
	}

	purchase, created, err := s.purchases.InsertIfAbsent(ctx, userID, datasetID, s.now().UTC())
	if err != nil {
		// the user or dataset was deleted between the lookups and the insert
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, false, apperrors.ErrInvalidReference
		}
		return nil, false, fmt.Errorf("record purchase: %w", err)
	}

	metrics.PurchasesRecorded.WithLabelValues(strconv.FormatBool(created)).Inc()
	return purchase, created, nil
}

func (s *purchaseService) ListForUser(ctx context.Context, userID uint) ([]model.PurchasedDataset, error) {
	rows, err := s.purchases.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return rows, nil
}
