package service

import (
	"strings"
	"time"

	"github.com/lumimall/internal/constants"
	"github.com/lumimall/internal/models"
	"github.com/lumimall/internal/repository"

	"github.com/shopspring/decimal"
)

// CouponService 优惠码校验服务
type CouponService struct {
	promotionRepo repository.PromotionRepository
}

// NewCouponService 创建优惠码服务
func NewCouponService(promotionRepo repository.PromotionRepository) *CouponService {
	return &CouponService{promotionRepo: promotionRepo}
}

// Validate 校验优惠码并计算折扣金额。
// 校验顺序固定：存在且启用 → 有效期 → 使用次数 → 订单门槛。
// 本方法只读，不累加使用次数；使用次数在订单落库时原子消费。
func (s *CouponService) Validate(code string, subtotal models.Money, now time.Time) (models.Money, *models.Promotion, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return models.Money{}, nil, ErrCouponInvalid
	}

	coupon, err := s.promotionRepo.GetByCode(trimmed)
	if err != nil {
		return models.Money{}, nil, err
	}
	if coupon == nil || !coupon.IsActive || coupon.Kind != constants.PromotionKindCoupon {
		return models.Money{}, nil, ErrCouponNotFound
	}

	if !coupon.InWindow(now) {
		return models.Money{}, coupon, ErrCouponExpired
	}

	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return models.Money{}, coupon, ErrCouponExhausted
	}

	if subtotal.Decimal.Cmp(coupon.MinOrderValue.Decimal) < 0 {
		return models.Money{}, coupon, ErrCouponBelowMin
	}

	discount := calculateCouponDiscount(coupon, subtotal)
	return discount, coupon, nil
}

// calculateCouponDiscount 计算折扣金额。
// 百分比路径按小计计算并受最大优惠金额限制；固定金额路径原样返回，不做上限截断。
func calculateCouponDiscount(coupon *models.Promotion, subtotal models.Money) models.Money {
	if coupon.DiscountPercent.Decimal.GreaterThan(decimal.Zero) {
		discount := subtotal.Decimal.Mul(coupon.DiscountPercent.Decimal).Div(decimal.NewFromInt(100))
		if coupon.MaxDiscountCap.Decimal.GreaterThan(decimal.Zero) && discount.GreaterThan(coupon.MaxDiscountCap.Decimal) {
			discount = coupon.MaxDiscountCap.Decimal
		}
		return models.NewMoneyFromDecimal(discount)
	}
	return models.NewMoneyFromDecimal(coupon.DiscountAmount.Decimal)
}
