package public

import (
	"errors"

	"github.com/lumimall/internal/http/response"
	"github.com/lumimall/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, key: "error.bad_request"},
	{target: service.ErrQuantityInvalid, code: response.CodeBadRequest, key: "error.quantity_invalid"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, key: "error.product_not_available"},
	{target: service.ErrVariantNotFound, code: response.CodeNotFound, key: "error.variant_not_found"},
	{target: service.ErrOutOfStock, code: response.CodeBadRequest, key: "error.out_of_stock"},
	{target: service.ErrCartLineNotFound, code: response.CodeNotFound, key: "error.cart_line_not_found"},
	{target: service.ErrUserNotFound, code: response.CodeUnauthorized, key: "error.unauthorized"},
}

var couponErrorRules = []mappedHandlerError{
	{target: service.ErrCouponInvalid, code: response.CodeBadRequest, key: "error.coupon_invalid"},
	{target: service.ErrCouponNotFound, code: response.CodeBadRequest, key: "error.coupon_not_found"},
	{target: service.ErrCouponExpired, code: response.CodeBadRequest, key: "error.coupon_expired"},
	{target: service.ErrCouponExhausted, code: response.CodeBadRequest, key: "error.coupon_exhausted"},
	{target: service.ErrCouponBelowMin, code: response.CodeBadRequest, key: "error.coupon_below_min"},
}

var orderCreateErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, key: "error.bad_request"},
	{target: service.ErrOrderEmpty, code: response.CodeBadRequest, key: "error.order_empty"},
	{target: service.ErrProductNotFound, code: response.CodeBadRequest, key: "error.product_not_found"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, key: "error.product_not_available"},
	{target: service.ErrVariantNotFound, code: response.CodeBadRequest, key: "error.variant_not_found"},
	{target: service.ErrInsufficientStock, code: response.CodeConflict, key: "error.insufficient_stock"},
}

var spinErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, key: "error.bad_request"},
	{target: service.ErrSpinNoCredits, code: response.CodeBadRequest, key: "error.spin_no_credits"},
}

func respondCouponError(c *gin.Context, err error) {
	respondWithMappedError(c, err, couponErrorRules, response.CodeInternal, "error.internal")
}

func respondOrderCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(orderCreateErrorRules, couponErrorRules), response.CodeInternal, "error.order_create_failed")
}

func respondCartError(c *gin.Context, err error) {
	respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.internal")
}

func respondSpinError(c *gin.Context, err error) {
	respondWithMappedError(c, err, spinErrorRules, response.CodeInternal, "error.spin_failed")
}
