package public

import (
	"time"

	"github.com/lumimall/internal/http/response"
	"github.com/lumimall/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ValidateCouponRequest 优惠码校验请求
type ValidateCouponRequest struct {
	Code     string          `json:"code" binding:"required"`
	Subtotal decimal.Decimal `json:"subtotal" binding:"required"`
}

// ValidateCouponResponse 优惠码校验响应
type ValidateCouponResponse struct {
	Code           string       `json:"code"`
	DiscountAmount models.Money `json:"discount_amount"`
	PayableAmount  models.Money `json:"payable_amount"`
}

// ValidateCoupon 预校验优惠码，只计算不消费使用次数。
func (h *Handler) ValidateCoupon(c *gin.Context) {
	var req ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	subtotal := models.NewMoneyFromDecimal(req.Subtotal)
	discount, coupon, err := h.CouponService.Validate(req.Code, subtotal, time.Now())
	if err != nil {
		respondCouponError(c, err)
		return
	}

	payable := subtotal.Decimal.Sub(discount.Decimal)
	if payable.LessThan(decimal.Zero) {
		payable = decimal.Zero
	}
	response.Success(c, ValidateCouponResponse{
		Code:           coupon.Code,
		DiscountAmount: discount,
		PayableAmount:  models.NewMoneyFromDecimal(payable),
	})
}
