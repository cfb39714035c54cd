package service

import (
	"errors"
	"testing"

	"github.com/lumimall/internal/config"
	"github.com/lumimall/internal/models"
	"github.com/lumimall/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func spinTestConfig() config.SpinConfig {
	return config.SpinConfig{
		Prizes: []config.SpinPrizeConfig{
			{Label: "九折券", Kind: "percent_voucher", Value: 10, Weight: 25, Code: "SPIN-P10"},
			{Label: "立减 50000", Kind: "fixed_voucher", Value: 50000, Weight: 25, Code: "SPIN-F50K"},
			{Label: "再来一次", Kind: "extra_spin", Weight: 25},
			{Label: "谢谢参与", Kind: "none", Weight: 25},
		},
		VoucherValidDays:  30,
		VoucherUsageLimit: 100,
	}
}

// fixedRoll 返回固定落点，落点到奖项的映射见 spinTestConfig 的权重表。
func fixedRoll(value float64) func() float64 {
	return func() float64 { return value }
}

func newSpinService(t *testing.T, db *gorm.DB, roll func() float64) *SpinService {
	t.Helper()
	svc, err := NewSpinService(
		repository.NewUserRepository(db),
		repository.NewPromotionRepository(db),
		nil,
		spinTestConfig(),
		roll,
	)
	if err != nil {
		t.Fatalf("NewSpinService error: %v", err)
	}
	return svc
}

func TestNewSpinServiceRejectsEmptyPrizes(t *testing.T) {
	db := newTestDB(t, "spin_empty_cfg")
	_, err := NewSpinService(
		repository.NewUserRepository(db),
		repository.NewPromotionRepository(db),
		nil,
		config.SpinConfig{},
		nil,
	)
	if err == nil {
		t.Fatalf("expected error for empty prize table")
	}
}

func TestSpinNoCredits(t *testing.T) {
	db := newTestDB(t, "spin_no_credits")
	user := createTestUser(t, db, "spin_none@example.com", 0)
	svc := newSpinService(t, db, fixedRoll(90))

	_, err := svc.Spin(user.ID)
	if !errors.Is(err, ErrSpinNoCredits) {
		t.Fatalf("expected no credits, got: %v", err)
	}
}

func TestSpinNonePrizeConsumesCredit(t *testing.T) {
	db := newTestDB(t, "spin_none_prize")
	user := createTestUser(t, db, "spin_blank@example.com", 2)
	svc := newSpinService(t, db, fixedRoll(90))

	result, err := svc.Spin(user.ID)
	if err != nil {
		t.Fatalf("Spin error: %v", err)
	}
	if result.PrizeKind != "none" {
		t.Fatalf("expected none prize, got %s", result.PrizeKind)
	}
	if result.CouponCode != "" {
		t.Fatalf("expected no coupon code, got %s", result.CouponCode)
	}
	if result.RemainingCredits != 1 {
		t.Fatalf("expected 1 remaining credit, got %d", result.RemainingCredits)
	}
}

// 再来一次：本次消耗即刻返还，余额净不变。
func TestSpinExtraSpinRefundsCredit(t *testing.T) {
	db := newTestDB(t, "spin_extra")
	user := createTestUser(t, db, "spin_extra@example.com", 2)
	svc := newSpinService(t, db, fixedRoll(60))

	result, err := svc.Spin(user.ID)
	if err != nil {
		t.Fatalf("Spin error: %v", err)
	}
	if result.PrizeKind != "extra_spin" {
		t.Fatalf("expected extra_spin, got %s", result.PrizeKind)
	}
	if result.RemainingCredits != 2 {
		t.Fatalf("expected credits unchanged at 2, got %d", result.RemainingCredits)
	}
}

func TestSpinPercentVoucherCreatesCoupon(t *testing.T) {
	db := newTestDB(t, "spin_percent")
	user := createTestUser(t, db, "spin_percent@example.com", 3)
	svc := newSpinService(t, db, fixedRoll(10))

	result, err := svc.Spin(user.ID)
	if err != nil {
		t.Fatalf("Spin error: %v", err)
	}
	if result.PrizeKind != "percent_voucher" {
		t.Fatalf("expected percent_voucher, got %s", result.PrizeKind)
	}
	if result.CouponCode != "SPIN-P10" {
		t.Fatalf("expected coupon code SPIN-P10, got %s", result.CouponCode)
	}
	if result.RemainingCredits != 2 {
		t.Fatalf("expected 2 remaining credits, got %d", result.RemainingCredits)
	}

	var coupon models.Promotion
	if err := db.Where("code = ?", "SPIN-P10").First(&coupon).Error; err != nil {
		t.Fatalf("load voucher coupon failed: %v", err)
	}
	if coupon.Kind != "coupon" || !coupon.IsActive {
		t.Fatalf("unexpected voucher coupon: %+v", coupon)
	}
	if !coupon.DiscountPercent.Decimal.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected 10 percent voucher, got %s", coupon.DiscountPercent.String())
	}
	if coupon.UsageLimit != 100 {
		t.Fatalf("expected usage limit 100, got %d", coupon.UsageLimit)
	}
	if coupon.StartsAt == nil || coupon.EndsAt == nil {
		t.Fatalf("expected validity window to be set")
	}
}

// 同一奖品的优惠码只建一次，后续抽中直接复用。
func TestSpinVoucherCouponReused(t *testing.T) {
	db := newTestDB(t, "spin_reuse")
	user := createTestUser(t, db, "spin_reuse@example.com", 5)
	svc := newSpinService(t, db, fixedRoll(30))

	first, err := svc.Spin(user.ID)
	if err != nil {
		t.Fatalf("first Spin error: %v", err)
	}
	second, err := svc.Spin(user.ID)
	if err != nil {
		t.Fatalf("second Spin error: %v", err)
	}
	if first.CouponCode != "SPIN-F50K" || second.CouponCode != "SPIN-F50K" {
		t.Fatalf("expected same voucher code, got %s / %s", first.CouponCode, second.CouponCode)
	}

	var count int64
	if err := db.Model(&models.Promotion{}).Where("code = ?", "SPIN-F50K").Count(&count).Error; err != nil {
		t.Fatalf("count voucher coupons failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected single voucher coupon, got %d", count)
	}

	var fixed models.Promotion
	if err := db.Where("code = ?", "SPIN-F50K").First(&fixed).Error; err != nil {
		t.Fatalf("load voucher failed: %v", err)
	}
	if !fixed.DiscountAmount.Decimal.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("expected fixed voucher 50000, got %s", fixed.DiscountAmount.String())
	}
}

// 奖品落地失败时整体回滚，不吞用户的抽奖次数。
func TestSpinRollsBackCreditOnPrizeFailure(t *testing.T) {
	db := newTestDB(t, "spin_rollback")
	user := createTestUser(t, db, "spin_rollback@example.com", 2)
	// 奖品编码对应的促销已存在但被停用，发券会失败
	coupon := createTestCoupon(t, db, "SPIN-P10", 10, 0, 0, 0, nil)
	if err := db.Model(coupon).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate coupon failed: %v", err)
	}
	svc := newSpinService(t, db, fixedRoll(10))

	_, err := svc.Spin(user.ID)
	if !errors.Is(err, ErrSpinPrizeInvalid) {
		t.Fatalf("expected prize invalid, got: %v", err)
	}

	var reloaded models.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.SpinCredits != 2 {
		t.Fatalf("expected credits restored to 2, got %d", reloaded.SpinCredits)
	}
}

// 奖品编码的历史券被软删除后，抽中要重新发一张活券，而不是崩溃或复用死券。
func TestSpinReissuesVoucherAfterSoftDelete(t *testing.T) {
	db := newTestDB(t, "spin_reissue")
	user := createTestUser(t, db, "spin_reissue@example.com", 2)
	stale := createTestCoupon(t, db, "SPIN-F50K", 0, 0, 0, 0, nil)
	if err := db.Delete(&models.Promotion{}, stale.ID).Error; err != nil {
		t.Fatalf("soft delete coupon failed: %v", err)
	}
	svc := newSpinService(t, db, fixedRoll(30))

	result, err := svc.Spin(user.ID)
	if err != nil {
		t.Fatalf("Spin error: %v", err)
	}
	if result.CouponCode != "SPIN-F50K" {
		t.Fatalf("expected coupon code SPIN-F50K, got %s", result.CouponCode)
	}

	var live models.Promotion
	if err := db.Where("code = ?", "SPIN-F50K").First(&live).Error; err != nil {
		t.Fatalf("load reissued voucher failed: %v", err)
	}
	if !live.IsActive || live.Kind != "coupon" {
		t.Fatalf("unexpected reissued voucher: %+v", live)
	}
	if !live.DiscountAmount.Decimal.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("expected fixed voucher 50000, got %s", live.DiscountAmount.String())
	}

	// 软删除的旧券仍在表里，新旧两行共存
	var total int64
	if err := db.Unscoped().Model(&models.Promotion{}).Where("code = ?", "SPIN-F50K").Count(&total).Error; err != nil {
		t.Fatalf("count voucher rows failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 voucher rows including the deleted one, got %d", total)
	}
}

func TestSpinDeterministicWithSeededRoll(t *testing.T) {
	db := newTestDB(t, "spin_deterministic")
	user := createTestUser(t, db, "spin_det@example.com", 10)
	svc := newSpinService(t, db, fixedRoll(60))

	for i := 0; i < 3; i++ {
		result, err := svc.Spin(user.ID)
		if err != nil {
			t.Fatalf("Spin %d error: %v", i, err)
		}
		if result.PrizeKind != "extra_spin" {
			t.Fatalf("expected deterministic extra_spin, got %s", result.PrizeKind)
		}
	}
}
