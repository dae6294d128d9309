package repository

import (
	"context"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"datamarket/internal/model"
)

// DatasetRepository defines dataset persistence operations.
type DatasetRepository interface {
	Create(ctx context.Context, dataset *model.Dataset) error
	FindByID(ctx context.Context, id uint) (*model.Dataset, error)
	// Search matches title case-insensitively. An empty query returns all.
	Search(ctx context.Context, query string) ([]model.Dataset, error)
	List(ctx context.Context) ([]model.Dataset, error)
	ListByUploader(ctx context.Context, uploaderID uint) ([]model.Dataset, error)
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	UploadsByDate(ctx context.Context) ([]model.DailyCount, error)
}

type datasetRepository struct {
	db *gorm.DB
}

// NewDatasetRepository creates a new dataset repository.
func NewDatasetRepository(db *gorm.DB) DatasetRepository {
	return &datasetRepository{db: db}
}

func (r *datasetRepository) Create(ctx context.Context, dataset *model.Dataset) error {
	return r.db.WithContext(ctx).Create(dataset).Error
}

func (r *datasetRepository) FindByID(ctx context.Context, id uint) (*model.Dataset, error) {
	var dataset model.Dataset
	if err := r.db.WithContext(ctx).First(&dataset, id).Error; err != nil {
		return nil, err
	}
	return &dataset, nil
}

func (r *datasetRepository) Search(ctx context.Context, query string) ([]model.Dataset, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where("LOWER(title) LIKE LOWER(?) ESCAPE '!'", "%"+escapeLike(query)+"%")
	}
	var datasets []model.Dataset
	if err := q.Find(&datasets).Error; err != nil {
		return nil, err
	}
	return datasets, nil
}

func (r *datasetRepository) List(ctx context.Context) ([]model.Dataset, error) {
	var datasets []model.Dataset
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&datasets).Error; err != nil {
		return nil, err
	}
	return datasets, nil
}

func (r *datasetRepository) ListByUploader(ctx context.Context, uploaderID uint) ([]model.Dataset, error) {
	var datasets []model.Dataset
	if err := r.db.WithContext(ctx).Where("uploader_id = ?", uploaderID).
		Order("id ASC").Find(&datasets).Error; err != nil {
		return nil, err
	}
	return datasets, nil
}

// Delete removes the dataset row together with its purchases. It returns
// gorm.ErrRecordNotFound when the dataset does not exist.
func (r *datasetRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dataset_id = ?", id).Delete(&model.Purchase{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Dataset{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *datasetRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Dataset{}).Count(&n).Error
	return n, err
}

// UploadsByDate buckets datasets by UTC creation day, oldest first.
// Bucketing happens here rather than in SQL because date formatting
// functions differ between postgres, mysql and sqlite.
func (r *datasetRepository) UploadsByDate(ctx context.Context) ([]model.DailyCount, error) {
	var created []time.Time
	if err := r.db.WithContext(ctx).Model(&model.Dataset{}).
		Pluck("created_at", &created).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, t := range created {
		counts[t.UTC().Format("2006-01-02")]++
	}

	out := make([]model.DailyCount, 0, len(counts))
	for date, n := range counts {
		out = append(out, model.DailyCount{Date: date, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// escapeLike makes wildcard characters in user input match literally.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
