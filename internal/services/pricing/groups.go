package pricing

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/xelth-com/eckposgo/internal/apperr"
	"github.com/xelth-com/eckposgo/internal/metrics"
	"github.com/xelth-com/eckposgo/internal/models"
	core "github.com/xelth-com/eckposgo/internal/pricing"
)

// MemberReport is one product's line in a group price check
type MemberReport struct {
	ID               uint    `json:"id"`
	Name             string  `json:"name"`
	Cost             float64 `json:"cost"`
	Price            float64 `json:"price"`
	IndividualProfit float64 `json:"individual_profit"`
}

// GroupReport tells whether a profit group currently meets its target
type GroupReport struct {
	GroupID           uint           `json:"group_id"`
	GroupName         string         `json:"group_name"`
	MinProfitRequired float64        `json:"min_profit_required"`
	CurrentProfit     float64        `json:"current_profit"`
	MeetsRequirement  bool           `json:"meets_requirement"`
	Products          []MemberReport `json:"products"`
}

// RebalanceReport is the result of spreading a group's shortfall evenly
type RebalanceReport struct {
	Message            string           `json:"message"`
	CurrentProfit      float64          `json:"current_profit"`
	MinProfitRequired  float64          `json:"min_profit_required"`
	ProfitShortfall    float64          `json:"profit_shortfall,omitempty"`
	IncreasePerProduct float64          `json:"price_increase_per_product,omitempty"`
	UpdatedProducts    []models.Product `json:"updated_products,omitempty"`
}

// CreateGroup validates and stores a new, empty profit group
func (s *Service) CreateGroup(ctx context.Context, name string, minProfit float64) (*models.ProfitGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("group name is required")
	}
	if minProfit < 0 {
		return nil, apperr.Validation("min_profit_price must not be negative")
	}
	g := &models.ProfitGroup{Name: name, MinProfitPrice: minProfit}
	if err := s.repos.Groups.Create(ctx, nil, g); err != nil {
		return nil, err
	}
	s.log.Info("profit group created", "group_id", g.ID, "min_profit", minProfit)
	return g, nil
}

// AddToGroup links a product to a group and recomputes that product so the
// new constraint takes effect immediately.
func (s *Service) AddToGroup(ctx context.Context, groupID, productID uint) (*Result, error) {
	unlock := s.locks.lock([]uint{groupID})
	err := s.repos.Groups.AddMember(ctx, nil, groupID, productID)
	unlock()
	if err != nil {
		return nil, err
	}
	s.log.Info("product added to group", "group_id", groupID, "product_id", productID)
	return s.RecomputeProduct(ctx, productID, TriggerMembership)
}

// RemoveFromGroup unlinks a product and recomputes it without the group's
// constraint.
func (s *Service) RemoveFromGroup(ctx context.Context, groupID, productID uint) (*Result, error) {
	unlock := s.locks.lock([]uint{groupID})
	err := s.repos.Groups.RemoveMember(ctx, nil, groupID, productID)
	unlock()
	if err != nil {
		return nil, err
	}
	s.log.Info("product removed from group", "group_id", groupID, "product_id", productID)
	return s.RecomputeProduct(ctx, productID, TriggerMembership)
}

// CheckGroup reports the group's current profit against its target
func (s *Service) CheckGroup(ctx context.Context, groupID uint) (*GroupReport, error) {
	g, err := s.repos.Groups.GetByID(ctx, nil, groupID)
	if err != nil {
		return nil, err
	}
	profit := core.GroupProfit(g.State())
	report := &GroupReport{
		GroupID:           g.ID,
		GroupName:         g.Name,
		MinProfitRequired: g.MinProfitPrice,
		CurrentProfit:     profit,
		MeetsRequirement:  profit >= g.MinProfitPrice,
		Products:          make([]MemberReport, 0, len(g.Products)),
	}
	for _, p := range g.Products {
		report.Products = append(report.Products, MemberReport{
			ID:               p.ID,
			Name:             p.Name,
			Cost:             p.CostPrice,
			Price:            p.CurrentPrice,
			IndividualProfit: p.CurrentPrice - p.CostPrice,
		})
	}
	return report, nil
}

// RebalanceGroup raises every member's price by an equal share of the
// group's shortfall. Prices are written as computed, without rounding or the
// markup floor. Every group touched by any member is locked for the write;
// if the member set moves between reading it and locking, the lock set is
// rebuilt.
func (s *Service) RebalanceGroup(ctx context.Context, groupID uint) (*RebalanceReport, error) {
	for attempt := 0; attempt < maxMembershipRetries; attempt++ {
		lockIDs, err := s.rebalanceLockIDs(ctx, nil, groupID)
		if err != nil {
			return nil, err
		}
		unlock := s.locks.lock(lockIDs)
		report, stale, err := s.rebalanceLocked(ctx, groupID, lockIDs)
		unlock()
		if stale {
			continue
		}
		return report, err
	}
	return nil, fmt.Errorf("profit group %d membership kept changing during rebalance", groupID)
}

// rebalanceLockIDs is the group itself plus every group any member belongs
// to, sorted and deduplicated.
func (s *Service) rebalanceLockIDs(ctx context.Context, tx *gorm.DB, groupID uint) ([]uint, error) {
	g, err := s.repos.Groups.GetByID(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}
	ids := []uint{groupID}
	for _, p := range g.Products {
		memberOf, err := s.repos.Products.GroupIDs(ctx, tx, p.ID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, memberOf...)
	}
	return normalizeIDs(ids), nil
}

func (s *Service) rebalanceLocked(ctx context.Context, groupID uint, lockIDs []uint) (*RebalanceReport, bool, error) {
	var (
		report  *RebalanceReport
		updated []models.Product
		stale   bool
	)
	err := s.repos.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.rebalanceLockIDs(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if !sameIDs(current, lockIDs) {
			stale = true
			return nil
		}
		g, err := s.repos.Groups.GetByID(ctx, tx, groupID)
		if err != nil {
			return err
		}
		res := core.Rebalance(g.State())
		report = &RebalanceReport{CurrentProfit: res.ProfitBefore, MinProfitRequired: g.MinProfitPrice}
		switch {
		case len(g.Products) == 0:
			report.Message = "No products in this group"
			return nil
		case !res.Adjusted:
			report.Message = "Group already meets profit requirement"
			return nil
		}

		byID := make(map[uint]models.Product, len(g.Products))
		for _, p := range g.Products {
			byID[p.ID] = p
		}
		for _, m := range res.Members {
			p := byID[m.ProductID]
			if err := s.repos.Products.SetCurrentPrice(ctx, tx, m.ProductID, m.CurrentPrice); err != nil {
				return err
			}
			if err := s.repos.PriceChanges.Record(ctx, tx, &models.PriceChange{
				ProductID: m.ProductID,
				OldPrice:  p.CurrentPrice,
				NewPrice:  m.CurrentPrice,
				Trigger:   string(TriggerRebalance),
			}); err != nil {
				return err
			}
			p.CurrentPrice = m.CurrentPrice
			updated = append(updated, p)
		}
		report.Message = "Adjusted prices to meet profit requirement"
		report.ProfitShortfall = res.Shortfall
		report.IncreasePerProduct = res.IncreasePerProduct
		report.UpdatedProducts = updated
		return nil
	})
	if err != nil || stale {
		return nil, stale, err
	}
	if len(updated) > 0 {
		metrics.GroupRebalances.Inc()
		s.log.Info("profit group rebalanced",
			"group_id", groupID,
			"shortfall", report.ProfitShortfall,
			"increase_per_product", report.IncreasePerProduct,
		)
		s.notify(updated)
	}
	return report, false, nil
}
