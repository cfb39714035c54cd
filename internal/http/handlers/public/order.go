package public

import (
	"errors"
	"strconv"

	handlershared "github.com/lumimall/internal/http/handlers/shared"
	"github.com/lumimall/internal/http/response"
	"github.com/lumimall/internal/i18n"
	"github.com/lumimall/internal/repository"
	"github.com/lumimall/internal/service"

	"github.com/gin-gonic/gin"
)

// PlaceOrderRequest 下单请求。Items 为空时结算当前购物车。
type PlaceOrderRequest struct {
	Items         []PlaceOrderItemRequest `json:"items"`
	CouponCode    string                  `json:"coupon_code"`
	FirstName     string                  `json:"first_name"`
	LastName      string                  `json:"last_name"`
	Phone         string                  `json:"phone" binding:"required"`
	AddressLine   string                  `json:"address_line" binding:"required"`
	City          string                  `json:"city"`
	PaymentMethod string                  `json:"payment_method"`
}

// PlaceOrderItemRequest 下单行请求
type PlaceOrderItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	VariantID uint `json:"variant_id"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// PlaceOrder 下单
func (h *Handler) PlaceOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	items := make([]service.PlaceOrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.PlaceOrderItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}

	order, err := h.OrderService.PlaceOrder(service.PlaceOrderInput{
		UserID:     uid,
		Items:      items,
		CouponCode: req.CouponCode,
		Shipping: service.ShippingInput{
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Phone:       req.Phone,
			AddressLine: req.AddressLine,
			City:        req.City,
		},
		PaymentMethod: req.PaymentMethod,
		ClientIP:      c.ClientIP(),
	})
	if err != nil {
		respondOrderCreateError(c, err)
		return
	}
	response.Success(c, order)
}

// ListOrders 用户订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	orders, total, err := h.OrderService.ListOrdersByUser(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   c.Query("status"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"items": orders}, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetOrder 用户订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	order, err := h.OrderService.GetOrderByUser(uint(orderID), uid)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.Success(c, order)
}

// CancelOrder 用户取消订单（仅待审核状态）
func (h *Handler) CancelOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	order, err := h.OrderService.CancelOrder(uint(orderID), uid)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
		case errors.Is(err, service.ErrOrderStatusInvalid):
			respondError(c, response.CodeBadRequest, "error.invalid_transition", nil)
		default:
			respondError(c, response.CodeInternal, "error.order_update_failed", err)
		}
		return
	}
	locale := i18n.ResolveLocale(c)
	response.SuccessWithMsg(c, i18n.T(locale, "msg.order_canceled"), order)
}
