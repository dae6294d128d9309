package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"datamarket/internal/cache"
	apperrors "datamarket/internal/errors"
	"datamarket/internal/model"
	"datamarket/internal/repository"
	"datamarket/internal/storage"
)

const datasetCacheTTL = 5 * time.Minute

// UploadFile is one file of a multi-file dataset upload.
type UploadFile struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// CreateDatasetInput is the metadata part of an upload.
type CreateDatasetInput struct {
	Title       string
	Description string
	Price       decimal.Decimal
}

// DatasetStats summarizes purchase activity for one dataset.
type DatasetStats struct {
	TotalPurchases    int64 `json:"totalPurchases"`
	LastHourPurchases int64 `json:"lastHourPurchases"`
}

// DatasetService exposes catalog operations.
type DatasetService interface {
	Search(ctx context.Context, query string) ([]model.Dataset, error)
	List(ctx context.Context) ([]model.Dataset, error)
	Get(ctx context.Context, id uint) (*model.Dataset, error)
	Create(ctx context.Context, input CreateDatasetInput, files []UploadFile, ownerID uint) (*model.Dataset, error)
	DeleteAsOwner(ctx context.Context, id, requesterID uint) error
	DeleteAsAdmin(ctx context.Context, id uint) error
	DeleteByUploader(ctx context.Context, uploaderID uint) (int, error)
	Stats(ctx context.Context, id uint) (*DatasetStats, error)
}

type datasetService struct {
	repo      repository.DatasetRepository
	purchases repository.PurchaseRepository
	store     storage.Storage
	cache     *cache.Client
	log       *zap.Logger
	now       func() time.Time
}

// NewDatasetService builds a DatasetService.
func NewDatasetService(
	repo repository.DatasetRepository,
	purchases repository.PurchaseRepository,
	store storage.Storage,
	cache *cache.Client,
	log *zap.Logger,
) DatasetService {
	return &datasetService{
		repo:      repo,
		purchases: purchases,
		store:     store,
		cache:     cache,
		log:       log,
		now:       time.Now,
	}
}

func (s *datasetService) cacheKey(id uint) string {
	return fmt.Sprintf("dataset:%d", id)
}

func (s *datasetService) Search(ctx context.Context, query string) ([]model.Dataset, error) {
	datasets, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search datasets: %w", err)
	}
	return datasets, nil
}

func (s *datasetService) List(ctx context.Context) ([]model.Dataset, error) {
	datasets, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	return datasets, nil
}

// Get reads through the cache. FilePath is not serialized to JSON, so the
// cached copy carries its own file list.
func (s *datasetService) Get(ctx context.Context, id uint) (*model.Dataset, error) {
	var cached cachedDataset
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return cached.toModel(), nil
	}

	dataset, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: dataset %d", apperrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("find dataset: %w", err)
	}

	s.cache.SetJSON(ctx, s.cacheKey(id), newCachedDataset(dataset), datasetCacheTTL)
	return dataset, nil
}

// Create uploads every file and then inserts the metadata row. Any failure
// removes the objects already written.
func (s *datasetService) Create(ctx context.Context, input CreateDatasetInput, files []UploadFile, ownerID uint) (dataset *model.Dataset, err error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", apperrors.ErrBadRequest)
	}
	if input.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", apperrors.ErrBadRequest)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: at least one file is required", apperrors.ErrBadRequest)
	}

	keys := make([]string, 0, len(files))
	defer func() {
		if err != nil && len(keys) > 0 {
			s.removeObjects(ctx, keys)
		}
	}()

	for _, f := range files {
		key := storage.NewDatasetKey(f.Name)
		if err := s.upload(ctx, key, f); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	dataset = &model.Dataset{
		Title:       input.Title,
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price.Round(2),
		UploaderID:  ownerID,
	}
	dataset.SetFiles(keys)

	if err := s.repo.Create(ctx, dataset); err != nil {
		return nil, fmt.Errorf("create dataset: %w", err)
	}
	return dataset, nil
}

func (s *datasetService) upload(ctx context.Context, key string, f UploadFile) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open upload %s: %w", f.Name, err)
	}
	defer rc.Close()

	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.store.Put(ctx, key, rc, f.Size, contentType); err != nil {
		return fmt.Errorf("upload %s: %w", f.Name, err)
	}
	return nil
}

// removeObjects runs even when ctx was cancelled mid-upload.
func (s *datasetService) removeObjects(ctx context.Context, keys []string) {
	if err := s.store.Delete(context.WithoutCancel(ctx), keys...); err != nil {
		s.log.Error("cleanup of uploaded objects failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (s *datasetService) DeleteAsOwner(ctx context.Context, id, requesterID uint) error {
	dataset, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if dataset.UploaderID != requesterID {
		return fmt.Errorf("%w: you can only delete your own datasets", apperrors.ErrForbidden)
	}
	return s.delete(ctx, dataset)
}

func (s *datasetService) DeleteAsAdmin(ctx context.Context, id uint) error {
	dataset, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	return s.delete(ctx, dataset)
}

// DeleteByUploader removes every dataset of one user and returns how many
// were deleted.
func (s *datasetService) DeleteByUploader(ctx context.Context, uploaderID uint) (int, error) {
	datasets, err := s.repo.ListByUploader(ctx, uploaderID)
	if err != nil {
		return 0, fmt.Errorf("list datasets by uploader: %w", err)
	}
	for i := range datasets {
		if err := s.delete(ctx, &datasets[i]); err != nil {
			return i, err
		}
	}
	return len(datasets), nil
}

func (s *datasetService) Stats(ctx context.Context, id uint) (*DatasetStats, error) {
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}

	total, err := s.purchases.CountForDataset(ctx, id, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("count purchases: %w", err)
	}
	lastHour, err := s.purchases.CountForDataset(ctx, id, s.now().UTC().Add(-time.Hour))
	if err != nil {
		return nil, fmt.Errorf("count recent purchases: %w", err)
	}
	return &DatasetStats{TotalPurchases: total, LastHourPurchases: lastHour}, nil
}

func (s *datasetService) find(ctx context.Context, id uint) (*model.Dataset, error) {
	dataset, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: dataset %d", apperrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("find dataset: %w", err)
	}
	return dataset, nil
}

// delete removes stored files first so a failed storage call leaves the
// row in place for a retry.
func (s *datasetService) delete(ctx context.Context, dataset *model.Dataset) error {
	if files := dataset.Files(); len(files) > 0 {
		if err := s.store.Delete(ctx, files...); err != nil {
			return fmt.Errorf("delete dataset files: %w", err)
		}
	}
	if err := s.repo.Delete(ctx, dataset.ID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("delete dataset: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(dataset.ID))
	return nil
}

// cachedDataset mirrors model.Dataset including the storage keys.
type cachedDataset struct {
	ID          uint            `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	FilePath    string          `json:"file_path"`
	UploaderID  uint            `json:"uploader_id"`
	CreatedAt   time.Time       `json:"created_at"`
}

func newCachedDataset(d *model.Dataset) cachedDataset {
	return cachedDataset{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Price:       d.Price,
		FilePath:    d.FilePath,
		UploaderID:  d.UploaderID,
		CreatedAt:   d.CreatedAt,
	}
}

func (c cachedDataset) toModel() *model.Dataset {
	return &model.Dataset{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Price:       c.Price,
		FilePath:    c.FilePath,
		UploaderID:  c.UploaderID,
		CreatedAt:   c.CreatedAt,
	}
}
