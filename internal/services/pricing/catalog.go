package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"gorm.io/datatypes"

	"github.com/xelth-com/eckposgo/internal/apperr"
	"github.com/xelth-com/eckposgo/internal/models"
	core "github.com/xelth-com/eckposgo/internal/pricing"
)

// NewProduct is the payload for creating a product
type NewProduct struct {
	SKU           string  `json:"sku"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	CostPrice     float64 `json:"cost_price"`
	BasePrice     float64 `json:"base_price"`
	StockQuantity int     `json:"stock_quantity"`
}

// ProductPatch carries the fields of a partial product update
type ProductPatch struct {
	SKU           *string  `json:"sku"`
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	CostPrice     *float64 `json:"cost_price"`
	BasePrice     *float64 `json:"base_price"`
	StockQuantity *int     `json:"stock_quantity"`
}

func validatePrices(cost, base float64, stock int) error {
	switch {
	case cost < 0:
		return apperr.Validation("cost_price must not be negative")
	case base <= 0:
		return apperr.Validation("base_price must be positive")
	case stock < 0:
		return apperr.Validation("stock_quantity must not be negative")
	}
	return nil
}

// CreateProduct stores a product and composes its first live price
func (s *Service) CreateProduct(ctx context.Context, in NewProduct) (*models.Product, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	if in.SKU == "" || in.Name == "" {
		return nil, apperr.Validation("sku and name are required")
	}
	if err := validatePrices(in.CostPrice, in.BasePrice, in.StockQuantity); err != nil {
		return nil, err
	}
	p := &models.Product{
		SKU:           in.SKU,
		Name:          in.Name,
		Description:   in.Description,
		CostPrice:     in.CostPrice,
		BasePrice:     in.BasePrice,
		CurrentPrice:  in.BasePrice,
		StockQuantity: in.StockQuantity,
	}
	if err := s.repos.Products.Create(ctx, nil, p); err != nil {
		return nil, err
	}
	s.log.Info("product created", "product_id", p.ID, "sku", p.SKU)
	res, err := s.RecomputeProduct(ctx, p.ID, TriggerProductChange)
	if err != nil {
		return nil, err
	}
	return &res.Product, nil
}

// UpdateProduct applies a partial update. Any change to cost, base price or
// stock recomputes the live price.
func (s *Service) UpdateProduct(ctx context.Context, id uint, patch ProductPatch) (*models.Product, error) {
	p, err := s.repos.Products.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if patch.SKU != nil {
		if p.SKU = strings.TrimSpace(*patch.SKU); p.SKU == "" {
			return nil, apperr.Validation("sku must not be empty")
		}
	}
	if patch.Name != nil {
		if p.Name = strings.TrimSpace(*patch.Name); p.Name == "" {
			return nil, apperr.Validation("name must not be empty")
		}
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	repriced := patch.CostPrice != nil || patch.BasePrice != nil || patch.StockQuantity != nil
	if patch.CostPrice != nil {
		p.CostPrice = *patch.CostPrice
	}
	if patch.BasePrice != nil {
		p.BasePrice = *patch.BasePrice
	}
	if patch.StockQuantity != nil {
		p.StockQuantity = *patch.StockQuantity
	}
	if err := validatePrices(p.CostPrice, p.BasePrice, p.StockQuantity); err != nil {
		return nil, err
	}
	if err := s.repos.Products.Update(ctx, nil, p); err != nil {
		return nil, err
	}
	if !repriced {
		return p, nil
	}
	res, err := s.RecomputeProduct(ctx, id, TriggerProductChange)
	if err != nil {
		return nil, err
	}
	return &res.Product, nil
}

// DeleteProduct removes a product while holding its groups' locks so no
// sibling recompute reads a half-deleted membership.
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	groupIDs, err := s.repos.Products.GroupIDs(ctx, nil, id)
	if err != nil {
		return err
	}
	unlock := s.locks.lock(groupIDs)
	defer unlock()
	if err := s.repos.Products.Delete(ctx, nil, id); err != nil {
		return err
	}
	s.log.Info("product deleted", "product_id", id)
	return nil
}

// NewRule is the payload for creating a pricing rule. Condition may be a
// JSON object or a string holding one.
type NewRule struct {
	ProductID          uint            `json:"product_id"`
	RuleType           string          `json:"rule_type"`
	Condition          json.RawMessage `json:"condition"`
	DiscountPercentage float64         `json:"discount_percentage"`
	IsActive           *bool           `json:"is_active"`
}

// RulePatch carries the fields of a partial rule update
type RulePatch struct {
	RuleType           *string         `json:"rule_type"`
	Condition          json.RawMessage `json:"condition"`
	DiscountPercentage *float64        `json:"discount_percentage"`
	IsActive           *bool           `json:"is_active"`
}

// normalizeCondition unwraps a condition sent as a JSON string
func normalizeCondition(raw json.RawMessage) []byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err == nil {
			return []byte(inner)
		}
	}
	return raw
}

// validateRule checks type, payload and discount, returning the canonical
// condition encoding to store
func validateRule(ruleType string, condition []byte, discount float64) (datatypes.JSON, error) {
	cond, err := core.ParseCondition(core.RuleType(ruleType), condition)
	if err != nil {
		return nil, err
	}
	if err := core.ValidateDiscount(discount); err != nil {
		return nil, err
	}
	canonical, err := json.Marshal(cond)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(canonical), nil
}

// CreateRule validates and stores a rule, then recomputes its product
func (s *Service) CreateRule(ctx context.Context, in NewRule) (*models.PricingRule, error) {
	if _, err := s.repos.Products.GetByID(ctx, nil, in.ProductID); err != nil {
		return nil, err
	}
	cond, err := validateRule(in.RuleType, normalizeCondition(in.Condition), in.DiscountPercentage)
	if err != nil {
		return nil, err
	}
	rule := &models.PricingRule{
		ProductID:          in.ProductID,
		RuleType:           in.RuleType,
		Condition:          cond,
		DiscountPercentage: in.DiscountPercentage,
		IsActive:           in.IsActive == nil || *in.IsActive,
	}
	if err := s.repos.Rules.Create(ctx, nil, rule); err != nil {
		return nil, err
	}
	s.log.Info("pricing rule created", "rule_id", rule.ID, "product_id", rule.ProductID, "type", rule.RuleType)
	if _, err := s.RecomputeProduct(ctx, rule.ProductID, TriggerRuleChange); err != nil {
		return nil, err
	}
	return rule, nil
}

// UpdateRule applies a partial update, revalidating the combined result
func (s *Service) UpdateRule(ctx context.Context, id uint, patch RulePatch) (*models.PricingRule, error) {
	rule, err := s.repos.Rules.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	ruleType := rule.RuleType
	if patch.RuleType != nil {
		ruleType = *patch.RuleType
	}
	condition := []byte(rule.Condition)
	if len(patch.Condition) > 0 {
		condition = normalizeCondition(patch.Condition)
	}
	discount := rule.DiscountPercentage
	if patch.DiscountPercentage != nil {
		discount = *patch.DiscountPercentage
	}
	cond, err := validateRule(ruleType, condition, discount)
	if err != nil {
		return nil, err
	}
	rule.RuleType = ruleType
	rule.Condition = cond
	rule.DiscountPercentage = discount
	if patch.IsActive != nil {
		rule.IsActive = *patch.IsActive
	}
	if err := s.repos.Rules.Update(ctx, nil, rule); err != nil {
		return nil, err
	}
	if _, err := s.RecomputeProduct(ctx, rule.ProductID, TriggerRuleChange); err != nil {
		return nil, err
	}
	return rule, nil
}

// DeleteRule removes a rule and recomputes the product it belonged to
func (s *Service) DeleteRule(ctx context.Context, id uint) error {
	rule, err := s.repos.Rules.GetByID(ctx, nil, id)
	if err != nil {
		return err
	}
	if err := s.repos.Rules.Delete(ctx, nil, id); err != nil {
		return err
	}
	s.log.Info("pricing rule deleted", "rule_id", id, "product_id", rule.ProductID)
	_, err = s.RecomputeProduct(ctx, rule.ProductID, TriggerRuleChange)
	return err
}

// StoreStatusInput is a new occupancy reading; omitted fields record zero
type StoreStatusInput struct {
	VacancyRate *float64 `json:"vacancy_rate"`
	LineLength  *int     `json:"line_length"`
}

// UpdateStoreStatus records a snapshot and reprices the whole catalog
func (s *Service) UpdateStoreStatus(ctx context.Context, in StoreStatusInput) (*models.StoreStatus, error) {
	status := &models.StoreStatus{Timestamp: s.now().UTC()}
	if in.VacancyRate != nil {
		status.VacancyRate = *in.VacancyRate
	}
	if in.LineLength != nil {
		status.LineLength = *in.LineLength
	}
	if status.VacancyRate < 0 || status.VacancyRate > 100 {
		return nil, apperr.Validation("vacancy_rate must be between 0 and 100")
	}
	if status.LineLength < 0 {
		return nil, apperr.Validation("line_length must not be negative")
	}
	if err := s.repos.StoreStatus.Create(ctx, nil, status); err != nil {
		return nil, err
	}
	s.log.Info("store status updated", "vacancy_rate", status.VacancyRate, "line_length", status.LineLength)
	if _, err := s.RecomputeAll(ctx, TriggerStoreStatus); err != nil {
		return nil, err
	}
	return status, nil
}

// LatestStoreStatus returns the newest snapshot, or a zero reading stamped
// now when none exists
func (s *Service) LatestStoreStatus(ctx context.Context) (*models.StoreStatus, error) {
	status, err := s.repos.StoreStatus.Latest(ctx, nil)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return &models.StoreStatus{Timestamp: s.now().UTC()}, nil
	}
	return status, nil
}

// PriceHistory lists the most recent price changes of a product
func (s *Service) PriceHistory(ctx context.Context, productID uint, limit int) ([]models.PriceChange, error) {
	if _, err := s.repos.Products.GetByID(ctx, nil, productID); err != nil {
		return nil, err
	}
	return s.repos.PriceChanges.ForProduct(ctx, nil, productID, limit)
}
