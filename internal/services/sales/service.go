package sales

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/xelth-com/eckposgo/internal/apperr"
	"github.com/xelth-com/eckposgo/internal/logger"
	"github.com/xelth-com/eckposgo/internal/models"
	"github.com/xelth-com/eckposgo/internal/repository"
	"github.com/xelth-com/eckposgo/internal/services/pricing"
)

// Repricer recomputes a product after its stock moved
type Repricer interface {
	RecomputeProduct(ctx context.Context, productID uint, trigger pricing.Trigger) (*pricing.Result, error)
}

// Notifier receives products whose stock changed
type Notifier interface {
	StockChanged(p models.Product)
}

// Service runs the checkout flow
type Service struct {
	repos    *repository.Repos
	repricer Repricer
	notifier Notifier
	log      *logger.Logger
}

func NewService(repos *repository.Repos, repricer Repricer, notifier Notifier, baseLog *logger.Logger) *Service {
	return &Service{
		repos:    repos,
		repricer: repricer,
		notifier: notifier,
		log:      baseLog.With("service", "SalesService"),
	}
}

// NewSale opens a basket
type NewSale struct {
	CustomerID    *uint  `json:"customer_id"`
	PaymentMethod string `json:"payment_method"`
}

// ItemLine is a sold item as presented to clients
type ItemLine struct {
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Subtotal    float64 `json:"subtotal"`
}

// Detail is a sale with its resolved item lines
type Detail struct {
	ID            uint       `json:"id"`
	CustomerID    *uint      `json:"customer_id"`
	TotalAmount   float64    `json:"total_amount"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
	Items         []ItemLine `json:"items"`
}

func (s *Service) Create(ctx context.Context, in NewSale) (*Detail, error) {
	sale := &models.Sale{CustomerID: in.CustomerID, PaymentMethod: in.PaymentMethod}
	if err := s.repos.Sales.Create(ctx, nil, sale); err != nil {
		return nil, err
	}
	s.log.Info("sale opened", "sale_id", sale.ID)
	return &Detail{
		ID:            sale.ID,
		CustomerID:    sale.CustomerID,
		TotalAmount:   sale.TotalAmount,
		PaymentMethod: sale.PaymentMethod,
		Timestamp:     sale.Timestamp,
		Items:         []ItemLine{},
	}, nil
}

// AddItem sells qty units of a product at its live price. Stock is
// decremented in the same transaction; the product is then repriced since
// stock-level rules may now match differently.
func (s *Service) AddItem(ctx context.Context, saleID, productID uint, qty int) (*models.SaleItem, error) {
	if qty <= 0 {
		return nil, apperr.Validation("quantity must be positive")
	}
	var (
		item    *models.SaleItem
		product *models.Product
	)
	err := s.repos.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repos.Sales.GetByID(ctx, tx, saleID); err != nil {
			return err
		}
		p, err := s.repos.Products.GetByID(ctx, tx, productID)
		if err != nil {
			return err
		}
		if p.StockQuantity < qty {
			return apperr.Validation("not enough stock available")
		}
		if err := s.repos.Products.DecrementStock(ctx, tx, productID, qty); err != nil {
			return err
		}
		item = &models.SaleItem{SaleID: saleID, ProductID: productID, Quantity: qty, PriceAtSale: p.CurrentPrice}
		if err := s.repos.Sales.AddItem(ctx, tx, item); err != nil {
			return err
		}
		p.StockQuantity -= qty
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("item sold", "sale_id", saleID, "product_id", productID, "quantity", qty, "price", item.PriceAtSale)
	if s.notifier != nil {
		s.notifier.StockChanged(*product)
	}
	if s.repricer != nil {
		if _, err := s.repricer.RecomputeProduct(ctx, productID, pricing.TriggerSale); err != nil {
			// the sale is committed; a failed reprice is retried by the next trigger
			s.log.Error("reprice after sale failed", "product_id", productID, "error", err)
		}
	}
	return item, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*Detail, error) {
	sale, err := s.repos.Sales.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return detail(sale), nil
}

// List returns sales newest first, filtered to the period
func (s *Service) List(ctx context.Context, period repository.Period, offset, limit int) ([]models.Sale, error) {
	return s.repos.Sales.List(ctx, nil, period, offset, limit)
}

func detail(sale *models.Sale) *Detail {
	d := &Detail{
		ID:            sale.ID,
		CustomerID:    sale.CustomerID,
		TotalAmount:   sale.TotalAmount,
		PaymentMethod: sale.PaymentMethod,
		Timestamp:     sale.Timestamp,
		Items:         make([]ItemLine, 0, len(sale.Items)),
	}
	for _, it := range sale.Items {
		line := ItemLine{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.PriceAtSale,
			Subtotal:  it.PriceAtSale * float64(it.Quantity),
		}
		if it.Product != nil {
			line.ProductName = it.Product.Name
		}
		d.Items = append(d.Items, line)
	}
	return d
}
