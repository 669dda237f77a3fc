package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xelth-com/eckposgo/internal/apperr"
	"github.com/xelth-com/eckposgo/internal/logger"
	"github.com/xelth-com/eckposgo/internal/models"
)

type ProductRepo interface {
	Create(ctx context.Context, tx *gorm.DB, p *models.Product) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Product, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]models.Product, error)
	List(ctx context.Context, tx *gorm.DB, offset, limit int) ([]models.Product, error)
	ListIDs(ctx context.Context, tx *gorm.DB) ([]uint, error)
	Update(ctx context.Context, tx *gorm.DB, p *models.Product) error
	SetCurrentPrice(ctx context.Context, tx *gorm.DB, id uint, price float64) error
	DecrementStock(ctx context.Context, tx *gorm.DB, id uint, qty int) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	GroupIDs(ctx context.Context, tx *gorm.DB, productID uint) ([]uint, error)
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return &productRepo{db: db, log: baseLog.With("repo", "ProductRepo")}
}

func (r *productRepo) Create(ctx context.Context, tx *gorm.DB, p *models.Product) error {
	err := pick(r.db, tx).WithContext(ctx).Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("sku %q already exists", p.SKU)
	}
	return err
}

func (r *productRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Product, error) {
	var p models.Product
	if err := pick(r.db, tx).WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err, "product %d not found", id)
	}
	return &p, nil
}

func (r *productRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]models.Product, error) {
	var out []models.Product
	if len(ids) == 0 {
		return out, nil
	}
	err := pick(r.db, tx).WithContext(ctx).
		Where("id IN ?", ids).
		Order("id").
		Find(&out).Error
	return out, err
}

func (r *productRepo) List(ctx context.Context, tx *gorm.DB, offset, limit int) ([]models.Product, error) {
	var out []models.Product
	err := pick(r.db, tx).WithContext(ctx).
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *productRepo) ListIDs(ctx context.Context, tx *gorm.DB) ([]uint, error) {
	var ids []uint
	err := pick(r.db, tx).WithContext(ctx).
		Model(&models.Product{}).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *productRepo) Update(ctx context.Context, tx *gorm.DB, p *models.Product) error {
	res := pick(r.db, tx).WithContext(ctx).
		Model(p).
		Select("sku", "name", "description", "cost_price", "base_price", "stock_quantity").
		Updates(p)
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("sku %q already exists", p.SKU)
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("product %d not found", p.ID)
	}
	return nil
}

func (r *productRepo) SetCurrentPrice(ctx context.Context, tx *gorm.DB, id uint, price float64) error {
	res := pick(r.db, tx).WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("current_price", price)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("product %d not found", id)
	}
	return nil
}

// DecrementStock removes qty units, refusing to go below zero
func (r *productRepo) DecrementStock(ctx context.Context, tx *gorm.DB, id uint, qty int) error {
	res := pick(r.db, tx).WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Validation("not enough stock available")
	}
	return nil
}

// Delete removes a product with its rules, memberships and price history.
// Products that appear on recorded sales are kept.
func (r *productRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	return pick(r.db, tx).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sold int64
		if err := tx.Model(&models.SaleItem{}).Where("product_id = ?", id).Count(&sold).Error; err != nil {
			return err
		}
		if sold > 0 {
			return apperr.Conflict("product %d has recorded sales", id)
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.PricingRule{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.PriceChange{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM product_group_association WHERE product_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("product %d not found", id)
		}
		return nil
	})
}

// GroupIDs lists the groups a product belongs to in ascending ID order
func (r *productRepo) GroupIDs(ctx context.Context, tx *gorm.DB, productID uint) ([]uint, error) {
	var ids []uint
	err := pick(r.db, tx).WithContext(ctx).
		Table("product_group_association").
		Where("product_id = ?", productID).
		Order("group_id").
		Pluck("group_id", &ids).Error
	return ids, err
}
