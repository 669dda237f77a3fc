package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/xelth-com/eckposgo/internal/apperr"
	"github.com/xelth-com/eckposgo/internal/logger"
	"github.com/xelth-com/eckposgo/internal/models"
)

type StaffRepo interface {
	Create(ctx context.Context, tx *gorm.DB, u *models.StaffUser) error
	GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*models.StaffUser, error)
	TouchLogin(ctx context.Context, tx *gorm.DB, id string, at time.Time) error
}

type staffRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStaffRepo(db *gorm.DB, baseLog *logger.Logger) StaffRepo {
	return &staffRepo{db: db, log: baseLog.With("repo", "StaffRepo")}
}

func (r *staffRepo) Create(ctx context.Context, tx *gorm.DB, u *models.StaffUser) error {
	err := pick(r.db, tx).WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("username %q already exists", u.Username)
	}
	return err
}

func (r *staffRepo) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*models.StaffUser, error) {
	var u models.StaffUser
	err := pick(r.db, tx).WithContext(ctx).Where("username = ?", username).Take(&u).Error
	if err != nil {
		return nil, notFound(err, "staff user %q not found", username)
	}
	return &u, nil
}

func (r *staffRepo) TouchLogin(ctx context.Context, tx *gorm.DB, id string, at time.Time) error {
	return pick(r.db, tx).WithContext(ctx).
		Model(&models.StaffUser{}).
		Where("id = ?", id).
		Update("last_login", at).Error
}
