package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/lumimall/internal/constants"
	"github.com/lumimall/internal/logger"
	"github.com/lumimall/internal/models"
	"github.com/lumimall/internal/queue"
	"github.com/lumimall/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const orderNoMaxAttempts = 5

// allowedTransitions 订单状态机：当前状态 → 允许的目标状态。
// 正向推进不可回退；取消仅允许在发货前；失败仅允许在待审核阶段标记。
var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPendingApproval: {
		constants.OrderStatusProcessing: true,
		constants.OrderStatusCanceled:   true,
		constants.OrderStatusFailed:     true,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusShipped:  true,
		constants.OrderStatusCanceled: true,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusCompleted: true,
	},
}

// PlaceOrderItem 下单行输入
type PlaceOrderItem struct {
	ProductID uint `json:"product_id"`
	VariantID uint `json:"variant_id"`
	Quantity  int  `json:"quantity"`
}

// ShippingInput 收货信息输入
type ShippingInput struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
}

// PlaceOrderInput 下单输入。Items 为空时使用购物车内容。
type PlaceOrderInput struct {
	UserID        uint
	Items         []PlaceOrderItem
	CouponCode    string
	Shipping      ShippingInput
	PaymentMethod string
	ClientIP      string
}

// orderLinePlan 单行下单计划（校验阶段产物，应用阶段按此扣减与落库）
type orderLinePlan struct {
	Product     *models.Product
	Variant     *models.ProductVariant
	Item        models.OrderItem
	Quantity    int
	NeedsStock  bool
	FromCartRow uint
}

// OrderService 订单服务
type OrderService struct {
	orderRepo     repository.OrderRepository
	productRepo   repository.ProductRepository
	variantRepo   repository.VariantRepository
	promotionRepo repository.PromotionRepository
	cartRepo      repository.CartRepository
	userRepo      repository.UserRepository
	pricing       *PricingService
	couponService *CouponService
	queueClient   *queue.Client
	currency      string
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, variantRepo repository.VariantRepository, promotionRepo repository.PromotionRepository, cartRepo repository.CartRepository, userRepo repository.UserRepository, pricing *PricingService, couponService *CouponService, queueClient *queue.Client, currency string) *OrderService {
	if currency == "" {
		currency = constants.SiteCurrencyDefault
	}
	return &OrderService{
		orderRepo:     orderRepo,
		productRepo:   productRepo,
		variantRepo:   variantRepo,
		promotionRepo: promotionRepo,
		cartRepo:      cartRepo,
		userRepo:      userRepo,
		pricing:       pricing,
		couponService: couponService,
		queueClient:   queueClient,
		currency:      currency,
	}
}

// PlaceOrder 下单：校验全部通过后在单个事务内扣库存、落订单、清购物车、发放抽奖次数。
// 事务内任何一步失败整体回滚，不会留下部分扣减。
func (s *OrderService) PlaceOrder(input PlaceOrderInput) (*models.Order, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}

	items := input.Items
	usedCart := false
	if len(items) == 0 {
		cartLines, err := s.cartRepo.ListByUser(input.UserID)
		if err != nil {
			return nil, err
		}
		for _, line := range cartLines {
			items = append(items, PlaceOrderItem{
				ProductID: line.ProductID,
				VariantID: line.VariantID,
				Quantity:  line.Quantity,
			})
		}
		usedCart = true
	}
	if len(items) == 0 {
		return nil, ErrOrderEmpty
	}

	merged, err := mergePlaceOrderItems(items)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	plans, subtotal, err := s.buildLinePlans(merged, now)
	if err != nil {
		return nil, err
	}

	discount := decimal.Zero
	var appliedCoupon *models.Promotion
	if strings.TrimSpace(input.CouponCode) != "" {
		d, coupon, err := s.couponService.Validate(input.CouponCode, models.NewMoneyFromDecimal(subtotal), now)
		if err != nil {
			return nil, err
		}
		discount = d.Decimal
		appliedCoupon = coupon
	}
	total := normalizeOrderAmount(subtotal.Sub(discount))

	order := &models.Order{
		UserID:         input.UserID,
		Status:         constants.OrderStatusPendingApproval,
		Currency:       s.currency,
		OriginalAmount: models.NewMoneyFromDecimal(subtotal),
		DiscountAmount: models.NewMoneyFromDecimal(discount),
		TotalAmount:    models.NewMoneyFromDecimal(total),
		CustomerName:   joinNonEmpty(" ", input.Shipping.FirstName, input.Shipping.LastName),
		CustomerPhone:  strings.TrimSpace(input.Shipping.Phone),
		ShippingAddr:   joinNonEmpty(", ", input.Shipping.AddressLine, input.Shipping.City),
		PaymentMethod:  strings.TrimSpace(input.PaymentMethod),
		ClientIP:       strings.TrimSpace(input.ClientIP),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if appliedCoupon != nil {
		order.CouponID = &appliedCoupon.ID
	}

	// 订单编号唯一约束冲突时换新编号整体重试
	var lastErr error
	for attempt := 0; attempt < orderNoMaxAttempts; attempt++ {
		order.ID = 0
		order.OrderNo = generateOrderNo()
		err = models.DB.Transaction(func(tx *gorm.DB) error {
			return s.applyOrder(tx, order, plans, appliedCoupon, usedCart, input.UserID, now)
		})
		if err == nil {
			break
		}
		lastErr = err
		if isDuplicateKeyError(err) {
			continue
		}
		if isBusinessError(err) {
			return nil, err
		}
		logger.Errorw("order_create_failed",
			"user_id", input.UserID,
			"order_no", order.OrderNo,
			"error", err,
		)
		return nil, ErrOrderCreateFailed
	}
	if err != nil {
		logger.Errorw("order_no_conflict_retries_exhausted",
			"user_id", input.UserID,
			"error", lastErr,
		)
		return nil, ErrOrderCreateFailed
	}

	if s.queueClient != nil {
		if err := s.queueClient.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{
			OrderID: order.ID,
			Status:  order.Status,
		}); err != nil {
			logger.Warnw("order_enqueue_status_email_failed",
				"order_id", order.ID,
				"order_no", order.OrderNo,
				"error", err,
			)
		}
	}

	full, err := s.orderRepo.GetByID(order.ID)
	if err == nil && full != nil {
		return full, nil
	}
	return order, nil
}

// applyOrder 事务体：条件扣库存 → 消费优惠码 → 落订单 → 清购物车 → 抽奖次数 +1。
func (s *OrderService) applyOrder(tx *gorm.DB, order *models.Order, plans []orderLinePlan, coupon *models.Promotion, clearCart bool, userID uint, now time.Time) error {
	variantRepo := s.variantRepo.WithTx(tx)
	for _, plan := range plans {
		if !plan.NeedsStock {
			continue
		}
		affected, err := variantRepo.DecrementStock(plan.Variant.ID, plan.Quantity)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInsufficientStock
		}
	}

	if coupon != nil {
		affected, err := s.promotionRepo.WithTx(tx).ConsumeUsage(coupon.ID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrCouponExhausted
		}
	}

	orderItems := make([]models.OrderItem, 0, len(plans))
	for _, plan := range plans {
		item := plan.Item
		item.CreatedAt = now
		item.UpdatedAt = now
		orderItems = append(orderItems, item)
	}
	if err := s.orderRepo.WithTx(tx).Create(order, orderItems); err != nil {
		return err
	}

	if clearCart {
		if err := s.cartRepo.WithTx(tx).ClearByUser(userID); err != nil {
			return err
		}
	}

	if _, err := s.userRepo.WithTx(tx).IncrementSpinCredits(userID, 1); err != nil {
		return err
	}
	return nil
}

// buildLinePlans 校验阶段：逐行解析商品与规格、预检库存、按当前生效价生成订单项快照。
func (s *OrderService) buildLinePlans(items []PlaceOrderItem, now time.Time) ([]orderLinePlan, decimal.Decimal, error) {
	plans := make([]orderLinePlan, 0, len(items))
	subtotal := decimal.Zero
	for _, line := range items {
		if line.ProductID == 0 || line.Quantity <= 0 {
			return nil, decimal.Zero, ErrInvalidInput
		}
		product, err := s.productRepo.GetByID(line.ProductID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if product == nil {
			return nil, decimal.Zero, ErrProductNotFound
		}
		if !product.IsActive {
			return nil, decimal.Zero, ErrProductNotAvailable
		}

		var variant *models.ProductVariant
		if line.VariantID != 0 {
			variant, err = s.variantRepo.GetByID(line.VariantID)
			if err != nil {
				return nil, decimal.Zero, err
			}
			if variant == nil || variant.ProductID != product.ID {
				return nil, decimal.Zero, ErrVariantNotFound
			}
			// 预检仅用于快速失败，权威校验是事务内的条件扣减
			if variant.StockQuantity < line.Quantity {
				return nil, decimal.Zero, ErrInsufficientStock
			}
		}

		quote, err := s.pricing.ResolvePrice(product, variant, now)
		if err != nil {
			return nil, decimal.Zero, err
		}

		lineTotal := quote.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(lineTotal)

		item := models.OrderItem{
			ProductID:  product.ID,
			VariantID:  line.VariantID,
			TitleJSON:  product.TitleJSON,
			UnitPrice:  quote.UnitPrice,
			Quantity:   line.Quantity,
			TotalPrice: models.NewMoneyFromDecimal(lineTotal),
		}
		if variant != nil {
			item.VariantLabel = variant.Label()
			item.ImportPrice = variant.ImportPrice
		}
		if quote.Promotion != nil {
			item.PromotionID = &quote.Promotion.ID
		}

		plans = append(plans, orderLinePlan{
			Product:    product,
			Variant:    variant,
			Item:       item,
			Quantity:   line.Quantity,
			NeedsStock: variant != nil,
		})
	}
	return plans, subtotal, nil
}

// UpdateOrderStatus 管理端推进订单状态，非法迁移返回 ErrOrderStatusInvalid。
func (s *OrderService) UpdateOrderStatus(orderID uint, targetStatus string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	target := strings.TrimSpace(targetStatus)
	if target == "" {
		return nil, ErrOrderStatusInvalid
	}
	if order.Status == target {
		return order, nil
	}
	if !isTransitionAllowed(order.Status, target) {
		return nil, ErrOrderStatusInvalid
	}

	now := time.Now()
	updates := map[string]interface{}{"updated_at": now}
	switch target {
	case constants.OrderStatusCanceled:
		updates["canceled_at"] = now
	case constants.OrderStatusCompleted:
		updates["completed_at"] = now
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).UpdateStatus(order.ID, target, updates); err != nil {
			return err
		}
		// 取消与失败都把已扣库存回补
		if target == constants.OrderStatusCanceled || target == constants.OrderStatusFailed {
			return s.restoreStock(tx, order.Items)
		}
		return nil
	})
	if err != nil {
		logger.Errorw("order_status_update_failed",
			"order_id", order.ID,
			"from", order.Status,
			"to", target,
			"error", err,
		)
		return nil, ErrOrderUpdateFailed
	}

	if s.queueClient != nil {
		if err := s.queueClient.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{
			OrderID: order.ID,
			Status:  target,
		}); err != nil {
			logger.Warnw("order_enqueue_status_email_failed",
				"order_id", order.ID,
				"status", target,
				"error", err,
			)
		}
	}

	return s.orderRepo.GetByID(order.ID)
}

// CancelOrder 用户取消自己的订单，仅待审核状态允许。
func (s *OrderService) CancelOrder(orderID uint, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPendingApproval {
		return nil, ErrOrderStatusInvalid
	}

	now := time.Now()
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"canceled_at": now,
			"updated_at":  now,
		}
		if err := s.orderRepo.WithTx(tx).UpdateStatus(order.ID, constants.OrderStatusCanceled, updates); err != nil {
			return err
		}
		return s.restoreStock(tx, order.Items)
	})
	if err != nil {
		return nil, ErrOrderUpdateFailed
	}
	return s.orderRepo.GetByID(order.ID)
}

func (s *OrderService) restoreStock(tx *gorm.DB, items []models.OrderItem) error {
	variantRepo := s.variantRepo.WithTx(tx)
	for _, item := range items {
		if item.VariantID == 0 {
			continue
		}
		if _, err := variantRepo.IncrementStock(item.VariantID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// GetOrderByUser 用户订单详情
func (s *OrderService) GetOrderByUser(orderID uint, userID uint) (*models.Order, error) {
	if orderID == 0 || userID == 0 {
		return nil, ErrInvalidInput
	}
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrdersByUser 用户订单列表
func (s *OrderService) ListOrdersByUser(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if filter.UserID == 0 {
		return nil, 0, ErrInvalidInput
	}
	return s.orderRepo.ListByUser(filter)
}

// OrderAdminView 管理端订单视图（含毛利）
type OrderAdminView struct {
	models.Order
	MarginAmount models.Money `json:"margin_amount"`
}

// GetOrderForAdmin 管理端订单详情
func (s *OrderService) GetOrderForAdmin(orderID uint) (*OrderAdminView, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return &OrderAdminView{
		Order:        *order,
		MarginAmount: orderMargin(order),
	}, nil
}

// ListOrdersForAdmin 管理端订单列表
func (s *OrderService) ListOrdersForAdmin(filter repository.OrderListFilter) ([]OrderAdminView, int64, error) {
	orders, total, err := s.orderRepo.ListAdmin(filter)
	if err != nil {
		return nil, 0, err
	}
	views := make([]OrderAdminView, 0, len(orders))
	for i := range orders {
		views = append(views, OrderAdminView{
			Order:        orders[i],
			MarginAmount: orderMargin(&orders[i]),
		})
	}
	return views, total, nil
}

// orderMargin 基于订单项的成本快照计算毛利
func orderMargin(order *models.Order) models.Money {
	margin := decimal.Zero
	for _, item := range order.Items {
		perUnit := item.UnitPrice.Decimal.Sub(item.ImportPrice.Decimal)
		margin = margin.Add(perUnit.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return models.NewMoneyFromDecimal(margin)
}

func isTransitionAllowed(current, target string) bool {
	if current == target {
		return true
	}
	nexts, ok := allowedTransitions[current]
	if !ok {
		return false
	}
	return nexts[target]
}

func mergePlaceOrderItems(items []PlaceOrderItem) ([]PlaceOrderItem, error) {
	if len(items) == 0 {
		return nil, nil
	}
	merged := make([]PlaceOrderItem, 0, len(items))
	indexMap := make(map[string]int)
	for _, item := range items {
		if item.ProductID == 0 || item.Quantity <= 0 {
			return nil, ErrInvalidInput
		}
		key := fmt.Sprintf("%d:%d", item.ProductID, item.VariantID)
		if idx, ok := indexMap[key]; ok {
			merged[idx].Quantity += item.Quantity
			continue
		}
		indexMap[key] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

func normalizeOrderAmount(amount decimal.Decimal) decimal.Decimal {
	normalized := amount.Round(2)
	if normalized.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return normalized
}

func joinNonEmpty(sep string, parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return strings.Join(cleaned, sep)
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	randPart := randNumeric(6)
	return fmt.Sprintf("LM%s%s", now, randPart)
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

func isBusinessError(err error) bool {
	for _, target := range []error{
		ErrInvalidInput,
		ErrProductNotFound,
		ErrProductNotAvailable,
		ErrVariantNotFound,
		ErrInsufficientStock,
		ErrOrderEmpty,
		ErrCouponNotFound,
		ErrCouponExpired,
		ErrCouponExhausted,
		ErrCouponBelowMin,
		ErrCouponInvalid,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
