package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xelth-com/eckposgo/internal/logger"
	"github.com/xelth-com/eckposgo/internal/models"
)

type StoreStatusRepo interface {
	Create(ctx context.Context, tx *gorm.DB, s *models.StoreStatus) error
	// Latest returns the newest snapshot, or nil when none was recorded
	Latest(ctx context.Context, tx *gorm.DB) (*models.StoreStatus, error)
}

type storeStatusRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStoreStatusRepo(db *gorm.DB, baseLog *logger.Logger) StoreStatusRepo {
	return &storeStatusRepo{db: db, log: baseLog.With("repo", "StoreStatusRepo")}
}

func (r *storeStatusRepo) Create(ctx context.Context, tx *gorm.DB, s *models.StoreStatus) error {
	return pick(r.db, tx).WithContext(ctx).Create(s).Error
}

func (r *storeStatusRepo) Latest(ctx context.Context, tx *gorm.DB) (*models.StoreStatus, error) {
	var s models.StoreStatus
	err := pick(r.db, tx).WithContext(ctx).
		Order("timestamp DESC").
		Order("id DESC").
		Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
