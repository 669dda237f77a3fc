package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/xelth-com/eckposgo/internal/apperr"
	"github.com/xelth-com/eckposgo/internal/logger"
	"github.com/xelth-com/eckposgo/internal/models"
)

// Period bounds a query on sale timestamps; nil ends are open
type Period struct {
	From *time.Time
	To   *time.Time
}

func (p Period) apply(q *gorm.DB, column string) *gorm.DB {
	if p.From != nil {
		q = q.Where(column+" >= ?", *p.From)
	}
	if p.To != nil {
		q = q.Where(column+" <= ?", *p.To)
	}
	return q
}

// SaleLine is one sold item joined with its sale and product
type SaleLine struct {
	SaleID      uint
	ProductID   uint
	ProductName string
	Timestamp   time.Time
	Quantity    int
	PriceAtSale float64
	CostPrice   float64
}

// ProductSales is an aggregate of everything sold of one product
type ProductSales struct {
	ProductID     uint    `json:"product_id"`
	ProductName   string  `json:"product_name"`
	TotalQuantity int     `json:"total_quantity_sold"`
	TotalRevenue  float64 `json:"total_revenue"`
}

type SaleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, s *models.Sale) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Sale, error)
	List(ctx context.Context, tx *gorm.DB, period Period, offset, limit int) ([]models.Sale, error)
	AddItem(ctx context.Context, tx *gorm.DB, item *models.SaleItem) error
	Totals(ctx context.Context, tx *gorm.DB, period Period) ([]float64, error)
	Lines(ctx context.Context, tx *gorm.DB, period Period) ([]SaleLine, error)
	TopProducts(ctx context.Context, tx *gorm.DB, limit int) ([]ProductSales, error)
}

type saleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSaleRepo(db *gorm.DB, baseLog *logger.Logger) SaleRepo {
	return &saleRepo{db: db, log: baseLog.With("repo", "SaleRepo")}
}

func (r *saleRepo) Create(ctx context.Context, tx *gorm.DB, s *models.Sale) error {
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now().UTC()
	}
	return pick(r.db, tx).WithContext(ctx).Omit("Items", "Customer").Create(s).Error
}

func (r *saleRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Sale, error) {
	var s models.Sale
	err := pick(r.db, tx).WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sale_items.id") }).
		Preload("Items.Product").
		First(&s, id).Error
	if err != nil {
		return nil, notFound(err, "sale %d not found", id)
	}
	return &s, nil
}

// List returns sales newest first
func (r *saleRepo) List(ctx context.Context, tx *gorm.DB, period Period, offset, limit int) ([]models.Sale, error) {
	q := period.apply(pick(r.db, tx).WithContext(ctx), "timestamp")
	var out []models.Sale
	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sale_items.id") }).
		Order("timestamp DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// AddItem stores the line and adds its subtotal to the sale total
func (r *saleRepo) AddItem(ctx context.Context, tx *gorm.DB, item *models.SaleItem) error {
	conn := pick(r.db, tx).WithContext(ctx)
	if err := conn.Omit("Product").Create(item).Error; err != nil {
		return err
	}
	res := conn.Model(&models.Sale{}).
		Where("id = ?", item.SaleID).
		Update("total_amount", gorm.Expr("total_amount + ?", item.PriceAtSale*float64(item.Quantity)))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("sale %d not found", item.SaleID)
	}
	return nil
}

func (r *saleRepo) Totals(ctx context.Context, tx *gorm.DB, period Period) ([]float64, error) {
	var totals []float64
	q := period.apply(pick(r.db, tx).WithContext(ctx).Model(&models.Sale{}), "timestamp")
	err := q.Order("id").Pluck("total_amount", &totals).Error
	return totals, err
}

// Lines returns every sold item in the period, oldest first
func (r *saleRepo) Lines(ctx context.Context, tx *gorm.DB, period Period) ([]SaleLine, error) {
	q := pick(r.db, tx).WithContext(ctx).
		Table("sale_items").
		Select("sale_items.sale_id, sale_items.product_id, products.name AS product_name, sales.timestamp, " +
			"sale_items.quantity, sale_items.price_at_sale, products.cost_price").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Joins("JOIN products ON products.id = sale_items.product_id")
	q = period.apply(q, "sales.timestamp")

	var out []SaleLine
	err := q.Order("sales.timestamp").Order("sale_items.id").Scan(&out).Error
	return out, err
}

func (r *saleRepo) TopProducts(ctx context.Context, tx *gorm.DB, limit int) ([]ProductSales, error) {
	var out []ProductSales
	err := pick(r.db, tx).WithContext(ctx).
		Table("sale_items").
		Select("products.id AS product_id, products.name AS product_name, " +
			"SUM(sale_items.quantity) AS total_quantity, " +
			"SUM(sale_items.price_at_sale * sale_items.quantity) AS total_revenue").
		Joins("JOIN products ON products.id = sale_items.product_id").
		Group("products.id, products.name").
		Order("total_quantity DESC").
		Order("products.id").
		Limit(limit).
		Scan(&out).Error
	return out, err
}
