package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/lumimall/internal/models"
	"github.com/lumimall/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newCartService(db *gorm.DB) *CartService {
	pricing := NewPricingService(repository.NewPromotionRepository(db))
	return NewCartService(
		repository.NewCartRepository(db),
		repository.NewProductRepository(db),
		repository.NewVariantRepository(db),
		repository.NewUserRepository(db),
		pricing,
		"VND",
	)
}

func TestCartAddItemMergesSameLine(t *testing.T) {
	db := newTestDB(t, "cart_merge")
	user := createTestUser(t, db, "cart_merge@example.com", 0)
	product := createTestProduct(t, db, "cart-merge", 100000)
	variant := createTestVariant(t, db, product.ID, 100000, 50000, 10)
	svc := newCartService(db)

	if _, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, VariantID: variant.ID, Quantity: 2}); err != nil {
		t.Fatalf("first AddItem error: %v", err)
	}
	view, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, VariantID: variant.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("second AddItem error: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("expected merged single line, got %d", len(view.Items))
	}
	if view.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", view.Items[0].Quantity)
	}
	if !view.TotalAmount.Decimal.Equal(decimal.NewFromInt(500000)) {
		t.Fatalf("expected total 500000, got %s", view.TotalAmount.String())
	}
}

// 库存校验按合并后的累计数量判断，两次各加 2 不能在库存 2 时变成 4。
func TestCartAddItemCumulativeStockCap(t *testing.T) {
	db := newTestDB(t, "cart_stock_cap")
	user := createTestUser(t, db, "cart_stock@example.com", 0)
	product := createTestProduct(t, db, "cart-stock", 100000)
	variant := createTestVariant(t, db, product.ID, 100000, 50000, 2)
	svc := newCartService(db)

	if _, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, VariantID: variant.ID, Quantity: 2}); err != nil {
		t.Fatalf("first AddItem error: %v", err)
	}
	_, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, VariantID: variant.ID, Quantity: 2})
	if !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected out of stock, got: %v", err)
	}

	view, err := svc.GetCart(user.ID)
	if err != nil {
		t.Fatalf("GetCart error: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity capped at 2, got %+v", view.Items)
	}
}

func TestCartAddItemRejectsInvalidQuantity(t *testing.T) {
	db := newTestDB(t, "cart_bad_qty")
	user := createTestUser(t, db, "cart_qty@example.com", 0)
	product := createTestProduct(t, db, "cart-qty", 100000)
	svc := newCartService(db)

	_, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 0})
	if !errors.Is(err, ErrQuantityInvalid) {
		t.Fatalf("expected quantity invalid, got: %v", err)
	}
}

// 促销开始后读购物车应把行单价同步到当前生效价。
func TestCartGetCartResyncsUnitPrice(t *testing.T) {
	db := newTestDB(t, "cart_resync")
	user := createTestUser(t, db, "cart_resync@example.com", 0)
	product := createTestProduct(t, db, "cart-resync", 1000000)
	svc := newCartService(db)

	if _, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}

	createTestPromotion(t, db, "percent", 10, 0, models.UintArray{product.ID})

	view, err := svc.GetCart(user.ID)
	if err != nil {
		t.Fatalf("GetCart error: %v", err)
	}
	if !view.Items[0].UnitPrice.Decimal.Equal(decimal.NewFromInt(900000)) {
		t.Fatalf("expected resynced price 900000, got %s", view.Items[0].UnitPrice.String())
	}

	// 价差已经落库
	var line models.CartItem
	if err := db.Where("user_id = ?", user.ID).First(&line).Error; err != nil {
		t.Fatalf("load cart line failed: %v", err)
	}
	if !line.UnitPrice.Decimal.Equal(decimal.NewFromInt(900000)) {
		t.Fatalf("expected persisted price 900000, got %s", line.UnitPrice.String())
	}
}

func TestCartGetCartDropsInactiveProductLines(t *testing.T) {
	db := newTestDB(t, "cart_inactive")
	user := createTestUser(t, db, "cart_inactive@example.com", 0)
	product := createTestProduct(t, db, "cart-inactive", 100000)
	svc := newCartService(db)

	if _, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	if err := db.Model(product).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	view, err := svc.GetCart(user.ID)
	if err != nil {
		t.Fatalf("GetCart error: %v", err)
	}
	if len(view.Items) != 0 {
		t.Fatalf("expected inactive product line dropped, got %+v", view.Items)
	}
}

func TestCartUpdateQuantityLineNotFound(t *testing.T) {
	db := newTestDB(t, "cart_update_missing")
	user := createTestUser(t, db, "cart_update@example.com", 0)
	svc := newCartService(db)

	_, err := svc.UpdateQuantity(user.ID, 999, 1)
	if !errors.Is(err, ErrCartLineNotFound) {
		t.Fatalf("expected cart line not found, got: %v", err)
	}
}

func TestCartUpdateQuantityRespectsStock(t *testing.T) {
	db := newTestDB(t, "cart_update_stock")
	user := createTestUser(t, db, "cart_update_stock@example.com", 0)
	product := createTestProduct(t, db, "cart-update-stock", 100000)
	variant := createTestVariant(t, db, product.ID, 100000, 50000, 3)
	svc := newCartService(db)

	view, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, VariantID: variant.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	lineID := view.Items[0].LineID

	if _, err := svc.UpdateQuantity(user.ID, lineID, 4); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected out of stock, got: %v", err)
	}
	updated, err := svc.UpdateQuantity(user.ID, lineID, 3)
	if err != nil {
		t.Fatalf("UpdateQuantity error: %v", err)
	}
	if updated.Items[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", updated.Items[0].Quantity)
	}
}

// 删除不存在的行不是错误。
func TestCartRemoveLineIdempotent(t *testing.T) {
	db := newTestDB(t, "cart_remove")
	user := createTestUser(t, db, "cart_remove@example.com", 0)
	product := createTestProduct(t, db, "cart-remove", 100000)
	svc := newCartService(db)

	view, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	lineID := view.Items[0].LineID

	view, err = svc.RemoveLine(user.ID, lineID)
	if err != nil {
		t.Fatalf("RemoveLine error: %v", err)
	}
	if len(view.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", view.Items)
	}

	view, err = svc.RemoveLine(user.ID, lineID)
	if err != nil {
		t.Fatalf("expected idempotent removal, got: %v", err)
	}
	if len(view.Items) != 0 {
		t.Fatalf("expected cart to stay empty")
	}
}

// 删除后重新加购同一商品同一规格必须成功，不能撞唯一索引。
func TestCartReAddAfterRemove(t *testing.T) {
	db := newTestDB(t, "cart_readd")
	user := createTestUser(t, db, "cart_readd@example.com", 0)
	product := createTestProduct(t, db, "cart-readd", 100000)
	variant := createTestVariant(t, db, product.ID, 100000, 50000, 10)
	svc := newCartService(db)

	view, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, VariantID: variant.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	if _, err := svc.RemoveLine(user.ID, view.Items[0].LineID); err != nil {
		t.Fatalf("RemoveLine error: %v", err)
	}

	view, err = svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, VariantID: variant.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("re-add after remove error: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].Quantity != 3 {
		t.Fatalf("expected fresh line with quantity 3, got %+v", view.Items)
	}

	// 表里没有死行，唯一索引只被活行占用
	var count int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		t.Fatalf("count cart lines failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 cart line row, got %d", count)
	}
}

// 下架商品加购与存在的商品区分为不同错误。
func TestCartAddItemInactiveProduct(t *testing.T) {
	db := newTestDB(t, "cart_add_inactive")
	user := createTestUser(t, db, "cart_add_inactive@example.com", 0)
	product := createTestProduct(t, db, "cart-add-inactive", 100000)
	svc := newCartService(db)

	if err := db.Model(product).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	_, err := svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, Quantity: 1})
	if !errors.Is(err, ErrProductNotAvailable) {
		t.Fatalf("expected product not available, got: %v", err)
	}
	_, err = svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: 999, Quantity: 1})
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected product not found, got: %v", err)
	}
}

// 并发加购同一规格时库存上限只放行一个。
func TestCartAddItemConcurrentStockCap(t *testing.T) {
	db := newTestDB(t, "cart_concurrent")
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	user := createTestUser(t, db, "cart_concurrent@example.com", 0)
	product := createTestProduct(t, db, "cart-concurrent", 100000)
	variant := createTestVariant(t, db, product.ID, 100000, 50000, 2)
	svc := newCartService(db)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, VariantID: variant.ID, Quantity: 2})
		}(i)
	}
	wg.Wait()

	success, outOfStock := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			success++
		case errors.Is(err, ErrOutOfStock):
			outOfStock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 || outOfStock != 1 {
		t.Fatalf("expected exactly one success and one out-of-stock, got success=%d outOfStock=%d", success, outOfStock)
	}

	view, err := svc.GetCart(user.ID)
	if err != nil {
		t.Fatalf("GetCart error: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].Quantity != 2 {
		t.Fatalf("expected single line with quantity 2, got %+v", view.Items)
	}
}
