package service

import (
	"errors"
	"testing"
	"time"

	"github.com/lumimall/internal/models"
	"github.com/lumimall/internal/repository"

	"github.com/shopspring/decimal"
)

func TestValidateCouponUnknownCode(t *testing.T) {
	db := newTestDB(t, "coupon_unknown")
	svc := NewCouponService(repository.NewPromotionRepository(db))

	_, _, err := svc.Validate("NOPE", models.NewMoneyFromInt(100000), time.Now())
	if !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected coupon not found, got: %v", err)
	}
}

func TestValidateCouponEmptyCode(t *testing.T) {
	db := newTestDB(t, "coupon_empty")
	svc := NewCouponService(repository.NewPromotionRepository(db))

	_, _, err := svc.Validate("   ", models.NewMoneyFromInt(100000), time.Now())
	if !errors.Is(err, ErrCouponInvalid) {
		t.Fatalf("expected coupon invalid, got: %v", err)
	}
}

func TestValidateCouponBelowMinimum(t *testing.T) {
	db := newTestDB(t, "coupon_below_min")
	createTestCoupon(t, db, "MIN500K", 20, 500000, 0, 0, nil)
	svc := NewCouponService(repository.NewPromotionRepository(db))

	_, _, err := svc.Validate("MIN500K", models.NewMoneyFromInt(400000), time.Now())
	if !errors.Is(err, ErrCouponBelowMin) {
		t.Fatalf("expected below minimum, got: %v", err)
	}
}

func TestValidateCouponPercentWithCap(t *testing.T) {
	db := newTestDB(t, "coupon_cap")
	createTestCoupon(t, db, "CAP100K", 20, 500000, 100000, 0, nil)
	svc := NewCouponService(repository.NewPromotionRepository(db))

	discount, coupon, err := svc.Validate("CAP100K", models.NewMoneyFromInt(600000), time.Now())
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if coupon == nil {
		t.Fatalf("expected coupon to be returned")
	}
	// 20% of 600000 = 120000，被上限 100000 截断
	if !discount.Decimal.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("expected discount 100000, got %s", discount.String())
	}
}

func TestValidateCouponFixedAmountIgnoresCap(t *testing.T) {
	db := newTestDB(t, "coupon_fixed")
	coupon := &models.Promotion{
		Name:           "固定金额券",
		Kind:           "coupon",
		Code:           "FIX150K",
		DiscountAmount: models.NewMoneyFromInt(150000),
		MaxDiscountCap: models.NewMoneyFromInt(100000),
		IsActive:       true,
	}
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	svc := NewCouponService(repository.NewPromotionRepository(db))

	discount, _, err := svc.Validate("FIX150K", models.NewMoneyFromInt(600000), time.Now())
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if !discount.Decimal.Equal(decimal.NewFromInt(150000)) {
		t.Fatalf("expected fixed discount 150000, got %s", discount.String())
	}
}

func TestValidateCouponExpired(t *testing.T) {
	db := newTestDB(t, "coupon_expired")
	past := time.Now().Add(-time.Hour)
	createTestCoupon(t, db, "EXPIRED", 20, 0, 0, 0, &past)
	svc := NewCouponService(repository.NewPromotionRepository(db))

	_, _, err := svc.Validate("EXPIRED", models.NewMoneyFromInt(600000), time.Now())
	if !errors.Is(err, ErrCouponExpired) {
		t.Fatalf("expected coupon expired, got: %v", err)
	}
}

// 过期判定先于门槛判定：同时过期且不满门槛时报过期。
func TestValidateCouponExpiredBeforeBelowMin(t *testing.T) {
	db := newTestDB(t, "coupon_order")
	past := time.Now().Add(-time.Hour)
	createTestCoupon(t, db, "EXPMIN", 20, 500000, 0, 0, &past)
	svc := NewCouponService(repository.NewPromotionRepository(db))

	_, _, err := svc.Validate("EXPMIN", models.NewMoneyFromInt(400000), time.Now())
	if !errors.Is(err, ErrCouponExpired) {
		t.Fatalf("expected expired to win over below minimum, got: %v", err)
	}
}

func TestValidateCouponExhausted(t *testing.T) {
	db := newTestDB(t, "coupon_exhausted")
	coupon := createTestCoupon(t, db, "ONEUSE", 20, 0, 0, 1, nil)
	if err := db.Model(coupon).Update("used_count", 1).Error; err != nil {
		t.Fatalf("update used count failed: %v", err)
	}
	svc := NewCouponService(repository.NewPromotionRepository(db))

	_, _, err := svc.Validate("ONEUSE", models.NewMoneyFromInt(600000), time.Now())
	if !errors.Is(err, ErrCouponExhausted) {
		t.Fatalf("expected coupon exhausted, got: %v", err)
	}
}

func TestValidateCouponInactive(t *testing.T) {
	db := newTestDB(t, "coupon_inactive")
	coupon := createTestCoupon(t, db, "OFF", 20, 0, 0, 0, nil)
	if err := db.Model(coupon).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate coupon failed: %v", err)
	}
	svc := NewCouponService(repository.NewPromotionRepository(db))

	_, _, err := svc.Validate("OFF", models.NewMoneyFromInt(600000), time.Now())
	if !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected inactive coupon to be treated as not found, got: %v", err)
	}
}

// Validate 只读，不动 used_count，消费发生在订单落库时。
func TestValidateCouponDoesNotConsumeUsage(t *testing.T) {
	db := newTestDB(t, "coupon_readonly")
	coupon := createTestCoupon(t, db, "READONLY", 10, 0, 0, 5, nil)
	svc := NewCouponService(repository.NewPromotionRepository(db))

	if _, _, err := svc.Validate("READONLY", models.NewMoneyFromInt(600000), time.Now()); err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	var reloaded models.Promotion
	if err := db.First(&reloaded, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if reloaded.UsedCount != 0 {
		t.Fatalf("expected used_count unchanged, got %d", reloaded.UsedCount)
	}
}
