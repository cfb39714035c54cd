package service

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/lumimall/internal/constants"
	"github.com/lumimall/internal/models"
	"github.com/lumimall/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newOrderService(db *gorm.DB) *OrderService {
	promotionRepo := repository.NewPromotionRepository(db)
	pricing := NewPricingService(promotionRepo)
	couponSvc := NewCouponService(promotionRepo)
	return NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewProductRepository(db),
		repository.NewVariantRepository(db),
		promotionRepo,
		repository.NewCartRepository(db),
		repository.NewUserRepository(db),
		pricing,
		couponSvc,
		nil,
		"VND",
	)
}

func TestMergePlaceOrderItems(t *testing.T) {
	items := []PlaceOrderItem{
		{ProductID: 1, VariantID: 10, Quantity: 1},
		{ProductID: 1, VariantID: 10, Quantity: 2},
		{ProductID: 1, VariantID: 11, Quantity: 1},
		{ProductID: 2, Quantity: 1},
	}
	merged, err := mergePlaceOrderItems(items)
	if err != nil {
		t.Fatalf("mergePlaceOrderItems error: %v", err)
	}
	if len(merged) != 3 {
		t.Fatalf("expected 3 items, got %d", len(merged))
	}
	if merged[0].ProductID != 1 || merged[0].VariantID != 10 || merged[0].Quantity != 3 {
		t.Fatalf("unexpected merged item: %+v", merged[0])
	}
}

func TestMergePlaceOrderItemsRejectsInvalidLine(t *testing.T) {
	_, err := mergePlaceOrderItems([]PlaceOrderItem{{ProductID: 1, Quantity: 0}})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got: %v", err)
	}
}

func TestIsTransitionAllowed(t *testing.T) {
	cases := []struct {
		from    string
		to      string
		allowed bool
	}{
		{constants.OrderStatusPendingApproval, constants.OrderStatusProcessing, true},
		{constants.OrderStatusPendingApproval, constants.OrderStatusCanceled, true},
		{constants.OrderStatusPendingApproval, constants.OrderStatusFailed, true},
		{constants.OrderStatusPendingApproval, constants.OrderStatusCompleted, false},
		{constants.OrderStatusPendingApproval, constants.OrderStatusShipped, false},
		{constants.OrderStatusProcessing, constants.OrderStatusShipped, true},
		{constants.OrderStatusProcessing, constants.OrderStatusCanceled, true},
		{constants.OrderStatusProcessing, constants.OrderStatusFailed, false},
		{constants.OrderStatusShipped, constants.OrderStatusCompleted, true},
		{constants.OrderStatusShipped, constants.OrderStatusCanceled, false},
		{constants.OrderStatusCompleted, constants.OrderStatusShipped, false},
		{constants.OrderStatusCanceled, constants.OrderStatusProcessing, false},
		{constants.OrderStatusShipped, constants.OrderStatusShipped, true},
	}
	for _, tc := range cases {
		if got := isTransitionAllowed(tc.from, tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestGenerateOrderNoFormat(t *testing.T) {
	orderNo := generateOrderNo()
	if !strings.HasPrefix(orderNo, "LM") {
		t.Fatalf("expected LM prefix, got %s", orderNo)
	}
	if len(orderNo) != 2+14+6 {
		t.Fatalf("unexpected order no length: %s", orderNo)
	}
}

func TestPlaceOrderEmpty(t *testing.T) {
	db := newTestDB(t, "order_empty")
	user := createTestUser(t, db, "order_empty@example.com", 0)
	svc := newOrderService(db)

	_, err := svc.PlaceOrder(PlaceOrderInput{UserID: user.ID})
	if !errors.Is(err, ErrOrderEmpty) {
		t.Fatalf("expected empty order, got: %v", err)
	}
}

func TestPlaceOrderInsufficientStockLeavesStockUntouched(t *testing.T) {
	db := newTestDB(t, "order_stock")
	user := createTestUser(t, db, "order_stock@example.com", 0)
	product := createTestProduct(t, db, "order-stock", 100000)
	variant := createTestVariant(t, db, product.ID, 100000, 50000, 1)
	svc := newOrderService(db)

	_, err := svc.PlaceOrder(PlaceOrderInput{
		UserID: user.ID,
		Items:  []PlaceOrderItem{{ProductID: product.ID, VariantID: variant.ID, Quantity: 3}},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got: %v", err)
	}

	var reloaded models.ProductVariant
	if err := db.First(&reloaded, variant.ID).Error; err != nil {
		t.Fatalf("reload variant failed: %v", err)
	}
	if reloaded.StockQuantity != 1 {
		t.Fatalf("expected stock unchanged at 1, got %d", reloaded.StockQuantity)
	}
}

func TestPlaceOrderFromCartClearsCartAndGrantsSpinCredit(t *testing.T) {
	db := newTestDB(t, "order_cart")
	user := createTestUser(t, db, "order_cart@example.com", 0)
	product := createTestProduct(t, db, "order-cart", 200000)
	variant := createTestVariant(t, db, product.ID, 200000, 120000, 5)
	if err := db.Create(&models.CartItem{
		UserID:    user.ID,
		ProductID: product.ID,
		VariantID: variant.ID,
		Quantity:  2,
		UnitPrice: models.NewMoneyFromInt(200000),
	}).Error; err != nil {
		t.Fatalf("create cart line failed: %v", err)
	}
	svc := newOrderService(db)

	order, err := svc.PlaceOrder(PlaceOrderInput{
		UserID: user.ID,
		Shipping: ShippingInput{
			FirstName:   "Linh",
			LastName:    "Nguyen",
			Phone:       "0901234567",
			AddressLine: "12 Hang Bac",
			City:        "Hanoi",
		},
		PaymentMethod: "cod",
	})
	if err != nil {
		t.Fatalf("PlaceOrder error: %v", err)
	}

	if !strings.HasPrefix(order.OrderNo, "LM") {
		t.Fatalf("expected LM order no, got %s", order.OrderNo)
	}
	if order.Status != constants.OrderStatusPendingApproval {
		t.Fatalf("expected pending_approval, got %s", order.Status)
	}
	if order.CustomerName != "Linh Nguyen" {
		t.Fatalf("unexpected customer name: %s", order.CustomerName)
	}
	if order.ShippingAddr != "12 Hang Bac, Hanoi" {
		t.Fatalf("unexpected shipping addr: %s", order.ShippingAddr)
	}
	if !order.TotalAmount.Decimal.Equal(decimal.NewFromInt(400000)) {
		t.Fatalf("expected total 400000, got %s", order.TotalAmount.String())
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected 1 order item, got %d", len(order.Items))
	}
	if !order.Items[0].ImportPrice.Decimal.Equal(decimal.NewFromInt(120000)) {
		t.Fatalf("expected import price snapshot 120000, got %s", order.Items[0].ImportPrice.String())
	}

	// 库存扣减
	var reloadedVariant models.ProductVariant
	if err := db.First(&reloadedVariant, variant.ID).Error; err != nil {
		t.Fatalf("reload variant failed: %v", err)
	}
	if reloadedVariant.StockQuantity != 3 {
		t.Fatalf("expected stock 3, got %d", reloadedVariant.StockQuantity)
	}

	// 购物车清空
	var lineCount int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", user.ID).Count(&lineCount).Error; err != nil {
		t.Fatalf("count cart lines failed: %v", err)
	}
	if lineCount != 0 {
		t.Fatalf("expected empty cart, got %d lines", lineCount)
	}

	// 抽奖次数 +1
	var reloadedUser models.User
	if err := db.First(&reloadedUser, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloadedUser.SpinCredits != 1 {
		t.Fatalf("expected 1 spin credit, got %d", reloadedUser.SpinCredits)
	}
}

func TestPlaceOrderWithCouponConsumesUsage(t *testing.T) {
	db := newTestDB(t, "order_coupon")
	user := createTestUser(t, db, "order_coupon@example.com", 0)
	product := createTestProduct(t, db, "order-coupon", 600000)
	coupon := createTestCoupon(t, db, "SAVE20", 20, 500000, 100000, 1, nil)
	svc := newOrderService(db)

	order, err := svc.PlaceOrder(PlaceOrderInput{
		UserID:     user.ID,
		Items:      []PlaceOrderItem{{ProductID: product.ID, Quantity: 1}},
		CouponCode: "SAVE20",
	})
	if err != nil {
		t.Fatalf("PlaceOrder error: %v", err)
	}
	if !order.DiscountAmount.Decimal.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("expected capped discount 100000, got %s", order.DiscountAmount.String())
	}
	if !order.TotalAmount.Decimal.Equal(decimal.NewFromInt(500000)) {
		t.Fatalf("expected total 500000, got %s", order.TotalAmount.String())
	}
	if order.CouponID == nil || *order.CouponID != coupon.ID {
		t.Fatalf("expected coupon id recorded, got %+v", order.CouponID)
	}

	var reloaded models.Promotion
	if err := db.First(&reloaded, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if reloaded.UsedCount != 1 {
		t.Fatalf("expected used_count 1, got %d", reloaded.UsedCount)
	}

	// 次数用尽后再次下单被拒
	_, err = svc.PlaceOrder(PlaceOrderInput{
		UserID:     user.ID,
		Items:      []PlaceOrderItem{{ProductID: product.ID, Quantity: 1}},
		CouponCode: "SAVE20",
	})
	if !errors.Is(err, ErrCouponExhausted) {
		t.Fatalf("expected coupon exhausted, got: %v", err)
	}
}

func TestPlaceOrderCouponBelowMinRejected(t *testing.T) {
	db := newTestDB(t, "order_coupon_min")
	user := createTestUser(t, db, "order_coupon_min@example.com", 0)
	product := createTestProduct(t, db, "order-coupon-min", 400000)
	createTestCoupon(t, db, "MIN500", 20, 500000, 0, 0, nil)
	svc := newOrderService(db)

	_, err := svc.PlaceOrder(PlaceOrderInput{
		UserID:     user.ID,
		Items:      []PlaceOrderItem{{ProductID: product.ID, Quantity: 1}},
		CouponCode: "MIN500",
	})
	if !errors.Is(err, ErrCouponBelowMin) {
		t.Fatalf("expected below minimum, got: %v", err)
	}

	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected no order created, got %d", orderCount)
	}
}

func TestUpdateOrderStatusRejectsInvalidTransition(t *testing.T) {
	db := newTestDB(t, "order_fsm")
	user := createTestUser(t, db, "order_fsm@example.com", 0)
	product := createTestProduct(t, db, "order-fsm", 100000)
	svc := newOrderService(db)

	order, err := svc.PlaceOrder(PlaceOrderInput{
		UserID: user.ID,
		Items:  []PlaceOrderItem{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder error: %v", err)
	}

	if _, err := svc.UpdateOrderStatus(order.ID, constants.OrderStatusCompleted); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected invalid transition, got: %v", err)
	}

	updated, err := svc.UpdateOrderStatus(order.ID, constants.OrderStatusProcessing)
	if err != nil {
		t.Fatalf("UpdateOrderStatus error: %v", err)
	}
	if updated.Status != constants.OrderStatusProcessing {
		t.Fatalf("expected processing, got %s", updated.Status)
	}
}

func TestUpdateOrderStatusCancelRestoresStock(t *testing.T) {
	db := newTestDB(t, "order_cancel_stock")
	user := createTestUser(t, db, "order_cancel_stock@example.com", 0)
	product := createTestProduct(t, db, "order-cancel-stock", 100000)
	variant := createTestVariant(t, db, product.ID, 100000, 50000, 5)
	svc := newOrderService(db)

	order, err := svc.PlaceOrder(PlaceOrderInput{
		UserID: user.ID,
		Items:  []PlaceOrderItem{{ProductID: product.ID, VariantID: variant.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder error: %v", err)
	}

	canceled, err := svc.UpdateOrderStatus(order.ID, constants.OrderStatusCanceled)
	if err != nil {
		t.Fatalf("UpdateOrderStatus error: %v", err)
	}
	if canceled.CanceledAt == nil {
		t.Fatalf("expected canceled_at to be set")
	}

	var reloaded models.ProductVariant
	if err := db.First(&reloaded, variant.ID).Error; err != nil {
		t.Fatalf("reload variant failed: %v", err)
	}
	if reloaded.StockQuantity != 5 {
		t.Fatalf("expected stock restored to 5, got %d", reloaded.StockQuantity)
	}
}

func TestCancelOrderOnlyPendingApproval(t *testing.T) {
	db := newTestDB(t, "order_user_cancel")
	user := createTestUser(t, db, "order_user_cancel@example.com", 0)
	product := createTestProduct(t, db, "order-user-cancel", 100000)
	svc := newOrderService(db)

	order, err := svc.PlaceOrder(PlaceOrderInput{
		UserID: user.ID,
		Items:  []PlaceOrderItem{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder error: %v", err)
	}

	if _, err := svc.UpdateOrderStatus(order.ID, constants.OrderStatusProcessing); err != nil {
		t.Fatalf("UpdateOrderStatus error: %v", err)
	}
	if _, err := svc.CancelOrder(order.ID, user.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected cancel rejected after processing, got: %v", err)
	}
}

func TestCancelOrderNotFoundForOtherUser(t *testing.T) {
	db := newTestDB(t, "order_cancel_other")
	owner := createTestUser(t, db, "order_owner@example.com", 0)
	other := createTestUser(t, db, "order_other@example.com", 0)
	product := createTestProduct(t, db, "order-cancel-other", 100000)
	svc := newOrderService(db)

	order, err := svc.PlaceOrder(PlaceOrderInput{
		UserID: owner.ID,
		Items:  []PlaceOrderItem{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder error: %v", err)
	}

	if _, err := svc.CancelOrder(order.ID, other.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected order not found for other user, got: %v", err)
	}
}

func TestGetOrderForAdminComputesMargin(t *testing.T) {
	db := newTestDB(t, "order_margin")
	user := createTestUser(t, db, "order_margin@example.com", 0)
	product := createTestProduct(t, db, "order-margin", 200000)
	variant := createTestVariant(t, db, product.ID, 200000, 120000, 10)
	svc := newOrderService(db)

	order, err := svc.PlaceOrder(PlaceOrderInput{
		UserID: user.ID,
		Items:  []PlaceOrderItem{{ProductID: product.ID, VariantID: variant.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder error: %v", err)
	}

	view, err := svc.GetOrderForAdmin(order.ID)
	if err != nil {
		t.Fatalf("GetOrderForAdmin error: %v", err)
	}
	// (200000 - 120000) * 3
	if !view.MarginAmount.Decimal.Equal(decimal.NewFromInt(240000)) {
		t.Fatalf("expected margin 240000, got %s", view.MarginAmount.String())
	}
}

func TestPlaceOrderInactiveProductRejected(t *testing.T) {
	db := newTestDB(t, "order_inactive")
	user := createTestUser(t, db, "order_inactive@example.com", 0)
	product := createTestProduct(t, db, "order-inactive", 100000)
	svc := newOrderService(db)

	if err := db.Model(product).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	_, err := svc.PlaceOrder(PlaceOrderInput{
		UserID: user.ID,
		Items:  []PlaceOrderItem{{ProductID: product.ID, Quantity: 1}},
	})
	if !errors.Is(err, ErrProductNotAvailable) {
		t.Fatalf("expected product not available, got: %v", err)
	}
}

// 下单清空购物车后重新加购同一商品同一规格必须成功。
func TestPlaceOrderThenReAddToCart(t *testing.T) {
	db := newTestDB(t, "order_readd")
	user := createTestUser(t, db, "order_readd@example.com", 0)
	product := createTestProduct(t, db, "order-readd", 150000)
	variant := createTestVariant(t, db, product.ID, 150000, 80000, 10)
	cartSvc := newCartService(db)
	orderSvc := newOrderService(db)

	if _, err := cartSvc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, VariantID: variant.ID, Quantity: 2}); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	if _, err := orderSvc.PlaceOrder(PlaceOrderInput{UserID: user.ID}); err != nil {
		t.Fatalf("PlaceOrder error: %v", err)
	}

	view, err := cartSvc.AddItem(AddCartItemInput{UserID: user.ID, ProductID: product.ID, VariantID: variant.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("re-add after checkout error: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].Quantity != 1 {
		t.Fatalf("expected fresh line with quantity 1, got %+v", view.Items)
	}
}

// 并发抢最后的库存只放行一单，条件扣减是权威校验。
func TestPlaceOrderConcurrentLastUnits(t *testing.T) {
	db := newTestDB(t, "order_concurrent")
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	user := createTestUser(t, db, "order_concurrent@example.com", 0)
	product := createTestProduct(t, db, "order-concurrent", 100000)
	variant := createTestVariant(t, db, product.ID, 100000, 50000, 2)
	svc := newOrderService(db)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.PlaceOrder(PlaceOrderInput{
				UserID: user.ID,
				Items:  []PlaceOrderItem{{ProductID: product.ID, VariantID: variant.ID, Quantity: 2}},
			})
		}(i)
	}
	wg.Wait()

	success, insufficient := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			success++
		case errors.Is(err, ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 || insufficient != 1 {
		t.Fatalf("expected exactly one success and one insufficient-stock, got success=%d insufficient=%d", success, insufficient)
	}

	var reloaded models.ProductVariant
	if err := db.First(&reloaded, variant.ID).Error; err != nil {
		t.Fatalf("reload variant failed: %v", err)
	}
	if reloaded.StockQuantity != 0 {
		t.Fatalf("expected stock 0, got %d", reloaded.StockQuantity)
	}

	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 1 {
		t.Fatalf("expected 1 order, got %d", orderCount)
	}
}
