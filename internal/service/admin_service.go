package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "datamarket/internal/errors"
	"datamarket/internal/model"
	"datamarket/internal/repository"
)

// RecentPurchaseLimit is how many rows the admin notification feed shows.
const RecentPurchaseLimit = 5

// AdminStats is the dashboard summary.
type AdminStats struct {
	TotalDatasets int64              `json:"totalDatasets"`
	TotalUsers    int64              `json:"totalUsers"`
	UploadsByDate []model.DailyCount `json:"uploadsByDate"`
}

// AdminService holds the management operations behind /api/admin.
type AdminService interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	DeleteUser(ctx context.Context, id uint) error
	ChangeRole(ctx context.Context, id uint, role string) (*model.User, error)
	ListDatasets(ctx context.Context) ([]model.Dataset, error)
	DeleteDataset(ctx context.Context, id uint) error
	DeleteUserDatasets(ctx context.Context, userID uint) (int, error)
	ListPurchases(ctx context.Context) ([]model.PurchaseRecord, error)
	RecentPurchases(ctx context.Context) ([]model.PurchaseRecord, error)
	Stats(ctx context.Context) (*AdminStats, error)
}

type adminService struct {
	users     repository.UserRepository
	datasets  repository.DatasetRepository
	purchases repository.PurchaseRepository
	catalog   DatasetService
}

// NewAdminService builds an AdminService. Dataset deletion goes through
// catalog so stored files are removed too.
func NewAdminService(
	users repository.UserRepository,
	datasets repository.DatasetRepository,
	purchases repository.PurchaseRepository,
	catalog DatasetService,
) AdminService {
	return &adminService{
		users:     users,
		datasets:  datasets,
		purchases: purchases,
		catalog:   catalog,
	}
}

func (s *adminService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// DeleteUser removes the account and its purchases. Datasets the user
// uploaded stay listed so existing buyers keep access.
func (s *adminService) DeleteUser(ctx context.Context, id uint) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user %d", apperrors.ErrNotFound, id)
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *adminService) ChangeRole(ctx context.Context, id uint, role string) (*model.User, error) {
	r := model.Role(role)
	if !r.Valid() {
		return nil, apperrors.ErrInvalidRole
	}

	if err := s.users.UpdateRole(ctx, id, r); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", apperrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("update role: %w", err)
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	return user, nil
}

func (s *adminService) ListDatasets(ctx context.Context) ([]model.Dataset, error) {
	return s.catalog.List(ctx)
}

func (s *adminService) DeleteDataset(ctx context.Context, id uint) error {
	return s.catalog.DeleteAsAdmin(ctx, id)
}

func (s *adminService) DeleteUserDatasets(ctx context.Context, userID uint) (int, error) {
	return s.catalog.DeleteByUploader(ctx, userID)
}

func (s *adminService) ListPurchases(ctx context.Context) ([]model.PurchaseRecord, error) {
	rows, err := s.purchases.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return rows, nil
}

func (s *adminService) RecentPurchases(ctx context.Context) ([]model.PurchaseRecord, error) {
	rows, err := s.purchases.Recent(ctx, RecentPurchaseLimit)
	if err != nil {
		return nil, fmt.Errorf("recent purchases: %w", err)
	}
	return rows, nil
}

func (s *adminService) Stats(ctx context.Context) (*AdminStats, error) {
	totalDatasets, err := s.datasets.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count datasets: %w", err)
	}
	totalUsers, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	uploads, err := s.datasets.UploadsByDate(ctx)
	if err != nil {
		return nil, fmt.Errorf("uploads by date: %w", err)
	}
	return &AdminStats{
		TotalDatasets: totalDatasets,
		TotalUsers:    totalUsers,
		UploadsByDate: uploads,
	}, nil
}
