package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xelth-com/eckposgo/internal/apperr"
	"github.com/xelth-com/eckposgo/internal/logger"
	"github.com/xelth-com/eckposgo/internal/models"
	"github.com/xelth-com/eckposgo/internal/pricing"
)

type GroupRepo interface {
	Create(ctx context.Context, tx *gorm.DB, g *models.ProfitGroup) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ProfitGroup, error)
	List(ctx context.Context, tx *gorm.DB) ([]models.ProfitGroup, error)
	States(ctx context.Context, tx *gorm.DB, ids []uint) ([]pricing.GroupState, error)
	AddMember(ctx context.Context, tx *gorm.DB, groupID, productID uint) error
	RemoveMember(ctx context.Context, tx *gorm.DB, groupID, productID uint) error
}

type groupRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGroupRepo(db *gorm.DB, baseLog *logger.Logger) GroupRepo {
	return &groupRepo{db: db, log: baseLog.With("repo", "GroupRepo")}
}

func (r *groupRepo) Create(ctx context.Context, tx *gorm.DB, g *models.ProfitGroup) error {
	return pick(r.db, tx).WithContext(ctx).Omit("Products").Create(g).Error
}

// GetByID loads the group with its members ordered by product ID
func (r *groupRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ProfitGroup, error) {
	var g models.ProfitGroup
	err := pick(r.db, tx).WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("products.id") }).
		First(&g, id).Error
	if err != nil {
		return nil, notFound(err, "profit group %d not found", id)
	}
	return &g, nil
}

func (r *groupRepo) List(ctx context.Context, tx *gorm.DB) ([]models.ProfitGroup, error) {
	var out []models.ProfitGroup
	err := pick(r.db, tx).WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("products.id") }).
		Order("id").
		Find(&out).Error
	return out, err
}

// States loads constraint-solver snapshots for the given groups, ascending by ID
func (r *groupRepo) States(ctx context.Context, tx *gorm.DB, ids []uint) ([]pricing.GroupState, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var groups []models.ProfitGroup
	err := pick(r.db, tx).WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("products.id") }).
		Where("id IN ?", ids).
		Order("id").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	states := make([]pricing.GroupState, 0, len(groups))
	for _, g := range groups {
		states = append(states, g.State())
	}
	return states, nil
}

// AddMember links a product to a group; linking twice is a no-op
func (r *groupRepo) AddMember(ctx context.Context, tx *gorm.DB, groupID, productID uint) error {
	conn := pick(r.db, tx).WithContext(ctx)
	if err := r.requireBoth(conn, groupID, productID); err != nil {
		return err
	}
	return conn.Clauses(clause.OnConflict{DoNothing: true}).
		Table("product_group_association").
		Create(map[string]interface{}{"product_id": productID, "group_id": groupID}).Error
}

func (r *groupRepo) RemoveMember(ctx context.Context, tx *gorm.DB, groupID, productID uint) error {
	conn := pick(r.db, tx).WithContext(ctx)
	if err := r.requireBoth(conn, groupID, productID); err != nil {
		return err
	}
	res := conn.Exec("DELETE FROM product_group_association WHERE group_id = ? AND product_id = ?", groupID, productID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Validation("product %d is not a member of profit group %d", productID, groupID)
	}
	return nil
}

func (r *groupRepo) requireBoth(conn *gorm.DB, groupID, productID uint) error {
	var n int64
	if err := conn.Model(&models.ProfitGroup{}).Where("id = ?", groupID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("profit group %d not found", groupID)
	}
	if err := conn.Model(&models.Product{}).Where("id = ?", productID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("product %d not found", productID)
	}
	return nil
}
