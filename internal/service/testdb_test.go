package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/lumimall/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// newTestDB 打开独立的内存库并迁移全部表，同时接管全局 models.DB。
func newTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	models.DB = db
	if err := models.AutoMigrate(); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string, spinCredits int) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "x",
		Status:       "active",
		SpinCredits:  spinCredits,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func createTestProduct(t *testing.T, db *gorm.DB, slug string, basePrice int64) *models.Product {
	t.Helper()
	product := &models.Product{
		Slug:      slug,
		TitleJSON: models.JSON{"zh-CN": "测试商品"},
		BasePrice: models.NewMoneyFromInt(basePrice),
		IsActive:  true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func createTestVariant(t *testing.T, db *gorm.DB, productID uint, price, importPrice int64, stock int) *models.ProductVariant {
	t.Helper()
	variant := &models.ProductVariant{
		ProductID:     productID,
		Color:         "黑色",
		Size:          "M",
		Price:         models.NewMoneyFromInt(price),
		ImportPrice:   models.NewMoneyFromInt(importPrice),
		StockQuantity: stock,
		IsActive:      true,
	}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	return variant
}

func createTestCoupon(t *testing.T, db *gorm.DB, code string, percent, minOrder, maxCap int64, usageLimit int, endsAt *time.Time) *models.Promotion {
	t.Helper()
	coupon := &models.Promotion{
		Name:            "测试优惠码 " + code,
		Kind:            "coupon",
		Code:            code,
		DiscountPercent: models.NewMoneyFromDecimal(decimal.NewFromInt(percent)),
		MinOrderValue:   models.NewMoneyFromInt(minOrder),
		MaxDiscountCap:  models.NewMoneyFromInt(maxCap),
		UsageLimit:      usageLimit,
		EndsAt:          endsAt,
		IsActive:        true,
	}
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	return coupon
}
