package service

import (
	"testing"
	"time"

	"github.com/lumimall/internal/models"
	"github.com/lumimall/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func createTestPromotion(t *testing.T, db *gorm.DB, kind string, percent, amount int64, itemIDs models.UintArray) *models.Promotion {
	t.Helper()
	promo := &models.Promotion{
		Name:            "测试促销",
		Kind:            kind,
		DiscountPercent: models.NewMoneyFromInt(percent),
		DiscountAmount:  models.NewMoneyFromInt(amount),
		ItemIDs:         itemIDs,
		IsActive:        true,
	}
	if err := db.Create(promo).Error; err != nil {
		t.Fatalf("create promotion failed: %v", err)
	}
	return promo
}

func TestResolvePricePercentPromotion(t *testing.T) {
	db := newTestDB(t, "pricing_percent")
	product := createTestProduct(t, db, "pricing-percent", 1000000)
	createTestPromotion(t, db, "percent", 10, 0, models.UintArray{product.ID})

	svc := NewPricingService(repository.NewPromotionRepository(db))
	quote, err := svc.ResolvePrice(product, nil, time.Now())
	if err != nil {
		t.Fatalf("ResolvePrice error: %v", err)
	}
	if !quote.UnitPrice.Decimal.Equal(decimal.NewFromInt(900000)) {
		t.Fatalf("expected 900000, got %s", quote.UnitPrice.String())
	}
	if !quote.OriginalPrice.Decimal.Equal(decimal.NewFromInt(1000000)) {
		t.Fatalf("expected original 1000000, got %s", quote.OriginalPrice.String())
	}
	if quote.Promotion == nil {
		t.Fatalf("expected applied promotion")
	}
}

func TestResolvePriceNoApplicablePromotion(t *testing.T) {
	db := newTestDB(t, "pricing_none")
	product := createTestProduct(t, db, "pricing-none", 250000)
	other := createTestProduct(t, db, "pricing-other", 100000)
	createTestPromotion(t, db, "percent", 50, 0, models.UintArray{other.ID})

	svc := NewPricingService(repository.NewPromotionRepository(db))
	quote, err := svc.ResolvePrice(product, nil, time.Now())
	if err != nil {
		t.Fatalf("ResolvePrice error: %v", err)
	}
	if !quote.UnitPrice.Decimal.Equal(decimal.NewFromInt(250000)) {
		t.Fatalf("expected base price, got %s", quote.UnitPrice.String())
	}
	if quote.Promotion != nil {
		t.Fatalf("expected no promotion, got %+v", quote.Promotion)
	}
}

func TestResolvePriceVariantOverridesBase(t *testing.T) {
	db := newTestDB(t, "pricing_variant")
	product := createTestProduct(t, db, "pricing-variant", 100000)
	variant := createTestVariant(t, db, product.ID, 130000, 60000, 5)

	svc := NewPricingService(repository.NewPromotionRepository(db))
	quote, err := svc.ResolvePrice(product, variant, time.Now())
	if err != nil {
		t.Fatalf("ResolvePrice error: %v", err)
	}
	if !quote.UnitPrice.Decimal.Equal(decimal.NewFromInt(130000)) {
		t.Fatalf("expected variant price 130000, got %s", quote.UnitPrice.String())
	}
}

func TestResolvePriceFlooredAtZero(t *testing.T) {
	db := newTestDB(t, "pricing_floor")
	product := createTestProduct(t, db, "pricing-floor", 30000)
	createTestPromotion(t, db, "fixed", 0, 50000, models.UintArray{product.ID})

	svc := NewPricingService(repository.NewPromotionRepository(db))
	quote, err := svc.ResolvePrice(product, nil, time.Now())
	if err != nil {
		t.Fatalf("ResolvePrice error: %v", err)
	}
	if !quote.UnitPrice.Decimal.Equal(decimal.Zero) {
		t.Fatalf("expected floored price 0, got %s", quote.UnitPrice.String())
	}
}

func TestResolvePriceTieBreakPrefersNewerPromotion(t *testing.T) {
	db := newTestDB(t, "pricing_tiebreak")
	product := createTestProduct(t, db, "pricing-tiebreak", 200000)
	first := createTestPromotion(t, db, "percent", 25, 0, models.UintArray{product.ID})
	second := createTestPromotion(t, db, "percent", 25, 0, models.UintArray{product.ID})
	if second.ID <= first.ID {
		t.Fatalf("expected second promotion to have higher id")
	}

	svc := NewPricingService(repository.NewPromotionRepository(db))
	quote, err := svc.ResolvePrice(product, nil, time.Now())
	if err != nil {
		t.Fatalf("ResolvePrice error: %v", err)
	}
	if !quote.UnitPrice.Decimal.Equal(decimal.NewFromInt(150000)) {
		t.Fatalf("expected 150000, got %s", quote.UnitPrice.String())
	}
	if quote.Promotion == nil || quote.Promotion.ID != second.ID {
		t.Fatalf("expected tie-break to pick promotion %d, got %+v", second.ID, quote.Promotion)
	}
}

func TestResolvePriceIgnoresExpiredPromotion(t *testing.T) {
	db := newTestDB(t, "pricing_expired")
	product := createTestProduct(t, db, "pricing-expired", 100000)
	past := time.Now().Add(-48 * time.Hour)
	promo := createTestPromotion(t, db, "percent", 30, 0, models.UintArray{product.ID})
	if err := db.Model(promo).Update("ends_at", past).Error; err != nil {
		t.Fatalf("update promotion window failed: %v", err)
	}

	svc := NewPricingService(repository.NewPromotionRepository(db))
	quote, err := svc.ResolvePrice(product, nil, time.Now())
	if err != nil {
		t.Fatalf("ResolvePrice error: %v", err)
	}
	if !quote.UnitPrice.Decimal.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("expected base price for expired promotion, got %s", quote.UnitPrice.String())
	}
}
