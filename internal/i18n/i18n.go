package i18n

import (
	"fmt"
	"strings"

	"github.com/lumimall/internal/constants"

	"github.com/gin-gonic/gin"
)

// messages 各语言文案表，键统一使用 error.* / msg.* 前缀
var messages = map[string]map[string]string{
	constants.LocaleZhCN: {
		"error.bad_request":            "请求参数错误",
		"error.unauthorized":           "未授权，请先登录",
		"error.forbidden":              "没有操作权限",
		"error.not_found":              "资源不存在",
		"error.internal":               "服务器内部错误",
		"error.rate_limited":           "请求过于频繁，请 %d 秒后再试",
		"error.rate_limit_unavailable": "限流服务不可用，请稍后再试",
		"error.auth_header_missing":    "缺少认证信息",
		"error.auth_header_invalid":    "认证信息格式错误",
		"error.token_invalid":          "无效的 token",
		"error.jwt_secret_missing":     "JWT 密钥未配置",
		"error.user_disabled":          "账号已被禁用",
		"error.invalid_credentials":    "邮箱或密码错误",
		"error.email_taken":            "邮箱已被注册",
		"error.user_id_invalid":        "用户ID无效",
		"error.user_id_type_invalid":   "用户ID类型错误",
		"error.product_not_found":      "商品不存在",
		"error.product_not_available":  "商品已下架",
		"error.variant_not_found":      "商品规格不存在",
		"error.slug_exists":            "商品标识已存在",
		"error.quantity_invalid":       "数量必须大于 0",
		"error.out_of_stock":           "库存不足",
		"error.cart_line_not_found":    "购物车项不存在",
		"error.coupon_invalid":         "优惠码无效",
		"error.coupon_not_found":       "优惠码不存在或已停用",
		"error.coupon_expired":         "优惠码不在有效期内",
		"error.coupon_exhausted":       "优惠码已被用完",
		"error.coupon_below_min":       "未达到优惠码使用门槛",
		"error.promotion_invalid":      "促销规则无效",
		"error.order_empty":            "订单不能为空",
		"error.order_not_found":        "订单不存在",
		"error.insufficient_stock":     "商品库存不足，下单失败",
		"error.invalid_transition":     "订单状态不允许该变更",
		"error.order_create_failed":    "订单创建失败",
		"error.order_update_failed":    "订单更新失败",
		"error.order_fetch_failed":     "订单查询失败",
		"error.spin_no_credits":        "抽奖次数不足",
		"error.spin_failed":            "抽奖失败，请稍后再试",
		"msg.cart_line_removed":        "已从购物车移除",
		"msg.order_canceled":           "订单已取消",
	},
	constants.LocaleViVN: {
		"error.bad_request":            "tham số yêu cầu không hợp lệ",
		"error.unauthorized":           "chưa đăng nhập, vui lòng đăng nhập",
		"error.forbidden":              "không có quyền thao tác",
		"error.not_found":              "không tìm thấy tài nguyên",
		"error.internal":               "lỗi hệ thống",
		"error.rate_limited":           "thao tác quá nhanh, thử lại sau %d giây",
		"error.rate_limit_unavailable": "dịch vụ giới hạn tần suất không khả dụng, vui lòng thử lại sau",
		"error.auth_header_missing":    "thiếu thông tin xác thực",
		"error.auth_header_invalid":    "thông tin xác thực sai định dạng",
		"error.token_invalid":          "token không hợp lệ",
		"error.jwt_secret_missing":     "chưa cấu hình khóa JWT",
		"error.user_disabled":          "tài khoản đã bị khóa",
		"error.invalid_credentials":    "email hoặc mật khẩu không đúng",
		"error.email_taken":            "email đã được đăng ký",
		"error.user_id_invalid":        "mã người dùng không hợp lệ",
		"error.user_id_type_invalid":   "kiểu mã người dùng không hợp lệ",
		"error.product_not_found":      "sản phẩm không tồn tại",
		"error.product_not_available":  "sản phẩm đã ngừng bán",
		"error.variant_not_found":      "phân loại sản phẩm không tồn tại",
		"error.slug_exists":            "mã định danh sản phẩm đã tồn tại",
		"error.quantity_invalid":       "số lượng phải lớn hơn 0",
		"error.out_of_stock":           "không đủ hàng tồn kho",
		"error.cart_line_not_found":    "không tìm thấy mục trong giỏ hàng",
		"error.coupon_invalid":         "mã giảm giá không hợp lệ",
		"error.coupon_not_found":       "mã giảm giá không tồn tại hoặc đã ngừng",
		"error.coupon_expired":         "mã giảm giá ngoài thời hạn sử dụng",
		"error.coupon_exhausted":       "mã giảm giá đã hết lượt dùng",
		"error.coupon_below_min":       "chưa đạt mức tối thiểu để dùng mã giảm giá",
		"error.promotion_invalid":      "cấu hình khuyến mãi không hợp lệ",
		"error.order_empty":            "đơn hàng không được để trống",
		"error.order_not_found":        "đơn hàng không tồn tại",
		"error.insufficient_stock":     "tồn kho không đủ, đặt hàng thất bại",
		"error.invalid_transition":     "trạng thái đơn hàng không cho phép thay đổi này",
		"error.order_create_failed":    "tạo đơn hàng thất bại",
		"error.order_update_failed":    "cập nhật đơn hàng thất bại",
		"error.order_fetch_failed":     "truy vấn đơn hàng thất bại",
		"error.spin_no_credits":        "đã hết lượt quay thưởng",
		"error.spin_failed":            "quay thưởng thất bại, vui lòng thử lại sau",
		"msg.cart_line_removed":        "đã xóa khỏi giỏ hàng",
		"msg.order_canceled":           "đơn hàng đã hủy",
	},
	constants.LocaleEnUS: {
		"error.bad_request":            "invalid request parameters",
		"error.unauthorized":           "unauthorized, please sign in",
		"error.forbidden":              "permission denied",
		"error.not_found":              "resource not found",
		"error.internal":               "internal server error",
		"error.rate_limited":           "too many requests, retry in %d seconds",
		"error.rate_limit_unavailable": "rate limiter unavailable, please retry later",
		"error.auth_header_missing":    "missing authorization header",
		"error.auth_header_invalid":    "malformed authorization header",
		"error.token_invalid":          "invalid token",
		"error.jwt_secret_missing":     "jwt secret is not configured",
		"error.user_disabled":          "account disabled",
		"error.invalid_credentials":    "invalid email or password",
		"error.email_taken":            "email already registered",
		"error.user_id_invalid":        "invalid user id",
		"error.user_id_type_invalid":   "unexpected user id type",
		"error.product_not_found":      "product not found",
		"error.product_not_available":  "product not available",
		"error.variant_not_found":      "product variant not found",
		"error.slug_exists":            "product slug already exists",
		"error.quantity_invalid":       "quantity must be positive",
		"error.out_of_stock":           "out of stock",
		"error.cart_line_not_found":    "cart line not found",
		"error.coupon_invalid":         "invalid coupon code",
		"error.coupon_not_found":       "coupon not found or inactive",
		"error.coupon_expired":         "coupon is outside its validity window",
		"error.coupon_exhausted":       "coupon usage limit reached",
		"error.coupon_below_min":       "order subtotal below coupon minimum",
		"error.promotion_invalid":      "invalid promotion configuration",
		"error.order_empty":            "order must contain at least one line",
		"error.order_not_found":        "order not found",
		"error.insufficient_stock":     "insufficient stock for order",
		"error.invalid_transition":     "order status transition not allowed",
		"error.order_create_failed":    "failed to create order",
		"error.order_update_failed":    "failed to update order",
		"error.order_fetch_failed":     "failed to fetch order",
		"error.spin_no_credits":        "no spin credits left",
		"error.spin_failed":            "spin failed, please retry later",
		"msg.cart_line_removed":        "removed from cart",
		"msg.order_canceled":           "order canceled",
	},
}

// ResolveLocale 解析请求语言（query 参数优先，其次 Accept-Language，默认 zh-CN）
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return constants.LocaleZhCN
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		if normalized, ok := matchLocale(lang); ok {
			return normalized
		}
	}
	accept := c.GetHeader("Accept-Language")
	for _, part := range strings.Split(accept, ",") {
		lang := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if lang == "" {
			continue
		}
		if normalized, ok := matchLocale(lang); ok {
			return normalized
		}
	}
	return constants.LocaleZhCN
}

// T 按语言翻译指定键，缺失时回退到 zh-CN，再缺失时返回键本身
func T(locale, key string) string {
	if table, ok := messages[locale]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[constants.LocaleZhCN][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译后格式化
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

func matchLocale(lang string) (string, bool) {
	lang = strings.ToLower(lang)
	for _, supported := range constants.SupportedLocales {
		if strings.EqualFold(supported, lang) {
			return supported, true
		}
		prefix := strings.SplitN(strings.ToLower(supported), "-", 2)[0]
		if strings.SplitN(lang, "-", 2)[0] == prefix {
			return supported, true
		}
	}
	return "", false
}
