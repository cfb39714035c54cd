package service

import (
	"time"

	"github.com/lumimall/internal/constants"
	"github.com/lumimall/internal/models"
	"github.com/lumimall/internal/repository"

	"github.com/shopspring/decimal"
)

// autoPromotionKinds 自动生效的促销类型（优惠码促销需要用户主动提交，见 CouponService）
var autoPromotionKinds = []string{
	constants.PromotionKindPercent,
	constants.PromotionKindFixed,
	constants.PromotionKindFlashSale,
}

// PriceQuote 价格解析结果
type PriceQuote struct {
	UnitPrice     models.Money      `json:"unit_price"`     // 生效单价
	OriginalPrice models.Money      `json:"original_price"` // 促销前单价
	Promotion     *models.Promotion `json:"promotion,omitempty"`
}

// PricingService 价格解析服务
type PricingService struct {
	promotionRepo repository.PromotionRepository
}

// NewPricingService 创建价格解析服务
func NewPricingService(promotionRepo repository.PromotionRepository) *PricingService {
	return &PricingService{promotionRepo: promotionRepo}
}

// ResolvePrice 解析商品（可选规格）在指定时间点的生效单价。
// 纯读操作，时间由调用方显式传入。
func (s *PricingService) ResolvePrice(product *models.Product, variant *models.ProductVariant, now time.Time) (*PriceQuote, error) {
	if product == nil {
		return nil, ErrProductNotFound
	}
	base := product.BasePrice
	if variant != nil {
		base = variant.Price
	}

	candidates, err := s.promotionRepo.ListActiveInWindow(now, autoPromotionKinds)
	if err != nil {
		return nil, err
	}

	best, unitPrice := selectBestPromotion(base, product.ID, candidates)
	return &PriceQuote{
		UnitPrice:     unitPrice,
		OriginalPrice: base,
		Promotion:     best,
	}, nil
}

// selectBestPromotion 在候选促销中选出生效促销。
// 规则：折后单价最低者胜出；并列时取 ID 较大（较新创建）的促销。
// 无适用促销时返回原价。
func selectBestPromotion(base models.Money, productID uint, candidates []models.Promotion) (*models.Promotion, models.Money) {
	var best *models.Promotion
	bestPrice := base
	for i := range candidates {
		promo := &candidates[i]
		if !promo.ItemIDs.Contains(productID) {
			continue
		}
		price := discountedUnitPrice(base, promo)
		switch {
		case best == nil && price.Decimal.LessThan(base.Decimal):
			best = promo
			bestPrice = price
		case best != nil && price.Decimal.LessThan(bestPrice.Decimal):
			best = promo
			bestPrice = price
		case best != nil && price.Decimal.Equal(bestPrice.Decimal) && promo.ID > best.ID:
			best = promo
		}
	}
	return best, bestPrice
}

// discountedUnitPrice 计算促销折后单价。
// 百分比与固定金额同时配置时百分比优先；结果不会低于 0。
func discountedUnitPrice(base models.Money, promo *models.Promotion) models.Money {
	discounted := base.Decimal
	if promo.DiscountPercent.Decimal.GreaterThan(decimal.Zero) {
		percent := decimal.NewFromInt(100).Sub(promo.DiscountPercent.Decimal)
		if percent.LessThan(decimal.Zero) {
			percent = decimal.Zero
		}
		discounted = base.Decimal.Mul(percent).Div(decimal.NewFromInt(100))
	} else if promo.DiscountAmount.Decimal.GreaterThan(decimal.Zero) {
		discounted = base.Decimal.Sub(promo.DiscountAmount.Decimal)
	}
	if discounted.LessThan(decimal.Zero) {
		discounted = decimal.Zero
	}
	return models.NewMoneyFromDecimal(discounted)
}
