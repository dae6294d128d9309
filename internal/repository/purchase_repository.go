package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"datamarket/internal/model"
)

// PurchaseRepository defines entitlement persistence operations.
type PurchaseRepository interface {
	// InsertIfAbsent records a purchase unless one already exists for the
	// pair. It returns the stored row and whether this call created it.
	InsertIfAbsent(ctx context.Context, userID, datasetID uint, at time.Time) (*model.Purchase, bool, error)
	Exists(ctx context.Context, userID, datasetID uint) (bool, error)
	ListForUser(ctx context.Context, userID uint) ([]model.PurchasedDataset, error)
	ListAll(ctx context.Context) ([]model.PurchaseRecord, error)
	Recent(ctx context.Context, limit int) ([]model.PurchaseRecord, error)
	// CountForDataset counts purchases made at or after since. A zero since
	// counts every purchase.
	CountForDataset(ctx context.Context, datasetID uint, since time.Time) (int64, error)
}

type purchaseRepository struct {
	db *gorm.DB
}

// NewPurchaseRepository creates a new purchase repository.
func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) InsertIfAbsent(ctx context.Context, userID, datasetID uint, at time.Time) (*model.Purchase, bool, error) {
	purchase := model.Purchase{UserID: userID, DatasetID: datasetID, PurchasedAt: at}

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "dataset_id"}},
		DoNothing: true,
	}).Create(&purchase)
	if res.Error != nil {
		return nil, false, res.Error
	}
	created := res.RowsAffected == 1

	var stored model.Purchase
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND dataset_id = ?", userID, datasetID).
		First(&stored).Error; err != nil {
		return nil, false, err
	}
	return &stored, created, nil
}

func (r *purchaseRepository) Exists(ctx context.Context, userID, datasetID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Purchase{}).
		Where("user_id = ? AND dataset_id = ?", userID, datasetID).
		Count(&n).Error
	return n > 0, err
}

func (r *purchaseRepository) ListForUser(ctx context.Context, userID uint) ([]model.PurchasedDataset, error) {
	var rows []model.PurchasedDataset
	err := r.db.WithContext(ctx).Table("purchases AS p").
		Select("d.id, d.title, d.description, p.purchased_at").
		Joins("JOIN datasets d ON d.id = p.dataset_id").
		Where("p.user_id = ?", userID).
		Order("p.purchased_at DESC").Order("p.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *purchaseRepository) ListAll(ctx context.Context) ([]model.PurchaseRecord, error) {
	return r.records(ctx, 0)
}

func (r *purchaseRepository) Recent(ctx context.Context, limit int) ([]model.PurchaseRecord, error) {
	return r.records(ctx, limit)
}

func (r *purchaseRepository) records(ctx context.Context, limit int) ([]model.PurchaseRecord, error) {
	q := r.db.WithContext(ctx).Table("purchases AS p").
		Select("p.id, p.user_id, u.email, u.name AS buyer_name, p.dataset_id, d.title AS dataset_title, p.purchased_at").
		Joins("JOIN users u ON u.id = p.user_id").
		Joins("JOIN datasets d ON d.id = p.dataset_id").
		Order("p.purchased_at DESC").Order("p.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []model.PurchaseRecord
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *purchaseRepository) CountForDataset(ctx context.Context, datasetID uint, since time.Time) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Purchase{}).Where("dataset_id = ?", datasetID)
	if !since.IsZero() {
		q = q.Where("purchased_at >= ?", since)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}
