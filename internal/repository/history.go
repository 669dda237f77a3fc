package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xelth-com/eckposgo/internal/logger"
	"github.com/xelth-com/eckposgo/internal/models"
)

type PriceChangeRepo interface {
	Record(ctx context.Context, tx *gorm.DB, c *models.PriceChange) error
	ForProduct(ctx context.Context, tx *gorm.DB, productID uint, limit int) ([]models.PriceChange, error)
}

type priceChangeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPriceChangeRepo(db *gorm.DB, baseLog *logger.Logger) PriceChangeRepo {
	return &priceChangeRepo{db: db, log: baseLog.With("repo", "PriceChangeRepo")}
}

func (r *priceChangeRepo) Record(ctx context.Context, tx *gorm.DB, c *models.PriceChange) error {
	return pick(r.db, tx).WithContext(ctx).Create(c).Error
}

// ForProduct returns the most recent changes first
func (r *priceChangeRepo) ForProduct(ctx context.Context, tx *gorm.DB, productID uint, limit int) ([]models.PriceChange, error) {
	var out []models.PriceChange
	err := pick(r.db, tx).WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

type SnapshotRepo interface {
	Save(ctx context.Context, tx *gorm.DB, s *models.DemandModelSnapshot) error
	// Latest returns the newest snapshot, or nil when no model was ever saved
	Latest(ctx context.Context, tx *gorm.DB) (*models.DemandModelSnapshot, error)
}

type snapshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) SnapshotRepo {
	return &snapshotRepo{db: db, log: baseLog.With("repo", "SnapshotRepo")}
}

func (r *snapshotRepo) Save(ctx context.Context, tx *gorm.DB, s *models.DemandModelSnapshot) error {
	return pick(r.db, tx).WithContext(ctx).Create(s).Error
}

func (r *snapshotRepo) Latest(ctx context.Context, tx *gorm.DB) (*models.DemandModelSnapshot, error) {
	var s models.DemandModelSnapshot
	err := pick(r.db, tx).WithContext(ctx).Order("id DESC").Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
