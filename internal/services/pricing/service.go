package pricing

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/xelth-com/eckposgo/internal/logger"
	"github.com/xelth-com/eckposgo/internal/metrics"
	"github.com/xelth-com/eckposgo/internal/models"
	core "github.com/xelth-com/eckposgo/internal/pricing"
	"github.com/xelth-com/eckposgo/internal/repository"
)

// Trigger names why a recompute ran; it labels metrics and price history
type Trigger string

const (
	TriggerRuleChange    Trigger = "rule_change"
	TriggerStoreStatus   Trigger = "store_status"
	TriggerProductChange Trigger = "product_change"
	TriggerMembership    Trigger = "group_membership"
	TriggerSale          Trigger = "sale"
	TriggerRebalance     Trigger = "group_rebalance"
	TriggerManual        Trigger = "manual"
)

// maxMembershipRetries bounds how often a recompute restarts when the
// product's group set changes between reading it and locking it
const maxMembershipRetries = 5

// Notifier receives products whose live price was written
type Notifier interface {
	PricesChanged(products []models.Product)
}

// Service owns every write to products.current_price
type Service struct {
	repos    *repository.Repos
	locks    *groupLocks
	notifier Notifier
	loc      *time.Location
	now      func() time.Time
	log      *logger.Logger
}

// NewService creates the pricing service. Rules are evaluated on the wall
// clock of loc.
func NewService(repos *repository.Repos, notifier Notifier, loc *time.Location, baseLog *logger.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repos:    repos,
		locks:    newGroupLocks(),
		notifier: notifier,
		loc:      loc,
		now:      time.Now,
		log:      baseLog.With("service", "PricingService"),
	}
}

// SetClock replaces the time source used for rule evaluation
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Result is the outcome of one product recompute
type Result struct {
	Product  models.Product `json:"product"`
	OldPrice float64        `json:"old_price"`
	Quote    core.Quote     `json:"quote"`
}

// Changed reports whether the recompute moved the live price
func (r Result) Changed() bool {
	return r.OldPrice != r.Product.CurrentPrice
}

// RecomputeProduct composes and stores the live price of one product and
// notifies subscribers when it moved.
func (s *Service) RecomputeProduct(ctx context.Context, productID uint, trigger Trigger) (*Result, error) {
	res, err := s.recompute(ctx, productID, trigger)
	if err != nil {
		return nil, err
	}
	if res.Changed() {
		s.notify([]models.Product{res.Product})
	}
	return res, nil
}

// RecomputeAll recomputes every product in ascending ID order and sends a
// single notification carrying the whole catalog. When a product fails, the
// products written before it are still announced.
func (s *Service) RecomputeAll(ctx context.Context, trigger Trigger) ([]Result, error) {
	ids, err := s.repos.Products.ListIDs(ctx, nil)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(ids))
	products := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		res, err := s.recompute(ctx, id, trigger)
		if err != nil {
			s.notify(products)
			return results, fmt.Errorf("recompute product %d: %w", id, err)
		}
		results = append(results, *res)
		products = append(products, res.Product)
	}
	s.log.Info("recomputed all prices", "trigger", trigger, "products", len(ids))
	s.notify(products)
	return results, nil
}

// recompute holds the locks of every group the product belongs to for the
// whole read-compute-write transaction.
func (s *Service) recompute(ctx context.Context, productID uint, trigger Trigger) (*Result, error) {
	for attempt := 0; attempt < maxMembershipRetries; attempt++ {
		groupIDs, err := s.repos.Products.GroupIDs(ctx, nil, productID)
		if err != nil {
			return nil, err
		}
		unlock := s.locks.lock(groupIDs)
		res, stale, err := s.recomputeLocked(ctx, productID, groupIDs, trigger)
		unlock()
		if stale {
			continue
		}
		return res, err
	}
	return nil, fmt.Errorf("product %d group membership kept changing during recompute", productID)
}

func (s *Service) recomputeLocked(ctx context.Context, productID uint, groupIDs []uint, trigger Trigger) (*Result, bool, error) {
	var (
		res   Result
		stale bool
	)
	err := s.repos.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repos.Products.GroupIDs(ctx, tx, productID)
		if err != nil {
			return err
		}
		if !sameIDs(current, groupIDs) {
			stale = true
			return nil
		}

		product, err := s.repos.Products.GetByID(ctx, tx, productID)
		if err != nil {
			return err
		}
		rules, err := s.activeRules(ctx, tx, productID)
		if err != nil {
			return err
		}
		status, err := s.repos.StoreStatus.Latest(ctx, tx)
		if err != nil {
			return err
		}
		groups, err := s.repos.Groups.States(ctx, tx, groupIDs)
		if err != nil {
			return err
		}

		evalCtx := core.EvalContext{Now: s.now().In(s.loc), Store: status.Context()}
		quote := core.Compose(product.PricingInput(), rules, evalCtx, groups)

		res = Result{Product: *product, OldPrice: product.CurrentPrice, Quote: quote}
		res.Product.CurrentPrice = quote.Price
		if !res.Changed() {
			return nil
		}
		if err := s.repos.Products.SetCurrentPrice(ctx, tx, productID, quote.Price); err != nil {
			return err
		}
		return s.repos.PriceChanges.Record(ctx, tx, &models.PriceChange{
			ProductID: productID,
			OldPrice:  res.OldPrice,
			NewPrice:  quote.Price,
			Trigger:   string(trigger),
		})
	})
	if err != nil || stale {
		return nil, stale, err
	}

	metrics.PriceRecomputes.WithLabelValues(string(trigger)).Inc()
	if res.Quote.FloorApplied {
		metrics.PriceFloorApplied.Inc()
	}
	s.log.Debug("price recomputed",
		"product_id", productID,
		"trigger", trigger,
		"discount", res.Quote.TotalDiscount,
		"old_price", res.OldPrice,
		"new_price", res.Product.CurrentPrice,
		"floor_applied", res.Quote.FloorApplied,
	)
	return &res, false, nil
}

// activeRules decodes the product's active rules. Rows whose condition no
// longer parses stay in the set with a nil condition and never match.
func (s *Service) activeRules(ctx context.Context, tx *gorm.DB, productID uint) ([]core.Rule, error) {
	rows, err := s.repos.Rules.ActiveForProduct(ctx, tx, productID)
	if err != nil {
		return nil, err
	}
	rules := make([]core.Rule, 0, len(rows))
	for _, row := range rows {
		rule, err := row.Rule()
		if err != nil {
			s.log.Warn("pricing rule condition does not parse", "rule_id", row.ID, "error", err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Quote previews the composed price without writing it
func (s *Service) Quote(ctx context.Context, productID uint) (core.Quote, error) {
	product, err := s.repos.Products.GetByID(ctx, nil, productID)
	if err != nil {
		return core.Quote{}, err
	}
	groupIDs, err := s.repos.Products.GroupIDs(ctx, nil, productID)
	if err != nil {
		return core.Quote{}, err
	}
	rules, err := s.activeRules(ctx, nil, productID)
	if err != nil {
		return core.Quote{}, err
	}
	status, err := s.repos.StoreStatus.Latest(ctx, nil)
	if err != nil {
		return core.Quote{}, err
	}
	groups, err := s.repos.Groups.States(ctx, nil, groupIDs)
	if err != nil {
		return core.Quote{}, err
	}
	evalCtx := core.EvalContext{Now: s.now().In(s.loc), Store: status.Context()}
	return core.Compose(product.PricingInput(), rules, evalCtx, groups), nil
}

func (s *Service) notify(products []models.Product) {
	if s.notifier == nil || len(products) == 0 {
		return
	}
	s.notifier.PricesChanged(products)
}
