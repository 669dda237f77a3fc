package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/xelth-com/eckposgo/internal/apperr"
	"github.com/xelth-com/eckposgo/internal/logger"
	"github.com/xelth-com/eckposgo/internal/models"
)

type RuleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rule *models.PricingRule) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.PricingRule, error)
	List(ctx context.Context, tx *gorm.DB, productID *uint) ([]models.PricingRule, error)
	ActiveForProduct(ctx context.Context, tx *gorm.DB, productID uint) ([]models.PricingRule, error)
	Update(ctx context.Context, tx *gorm.DB, rule *models.PricingRule) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

type ruleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRuleRepo(db *gorm.DB, baseLog *logger.Logger) RuleRepo {
	return &ruleRepo{db: db, log: baseLog.With("repo", "RuleRepo")}
}

func (r *ruleRepo) Create(ctx context.Context, tx *gorm.DB, rule *models.PricingRule) error {
	return pick(r.db, tx).WithContext(ctx).Create(rule).Error
}

func (r *ruleRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.PricingRule, error) {
	var rule models.PricingRule
	if err := pick(r.db, tx).WithContext(ctx).First(&rule, id).Error; err != nil {
		return nil, notFound(err, "pricing rule %d not found", id)
	}
	return &rule, nil
}

// List returns all rules, or only the rules of one product when productID is set
func (r *ruleRepo) List(ctx context.Context, tx *gorm.DB, productID *uint) ([]models.PricingRule, error) {
	q := pick(r.db, tx).WithContext(ctx).Order("id")
	if productID != nil {
		q = q.Where("product_id = ?", *productID)
	}
	var out []models.PricingRule
	err := q.Find(&out).Error
	return out, err
}

func (r *ruleRepo) ActiveForProduct(ctx context.Context, tx *gorm.DB, productID uint) ([]models.PricingRule, error) {
	var out []models.PricingRule
	err := pick(r.db, tx).WithContext(ctx).
		Where("product_id = ? AND is_active = ?", productID, true).
		Order("id").
		Find(&out).Error
	return out, err
}

func (r *ruleRepo) Update(ctx context.Context, tx *gorm.DB, rule *models.PricingRule) error {
	res := pick(r.db, tx).WithContext(ctx).
		Model(rule).
		Select("rule_type", "condition", "discount_percentage", "is_active").
		Updates(rule)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("pricing rule %d not found", rule.ID)
	}
	return nil
}

func (r *ruleRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	res := pick(r.db, tx).WithContext(ctx).Delete(&models.PricingRule{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("pricing rule %d not found", id)
	}
	return nil
}
