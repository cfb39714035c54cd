package service

import "errors"

// 业务语义错误，由 handler 层映射为响应码与国际化文案
var (
	ErrInvalidInput        = errors.New("请求参数错误")
	ErrProductNotFound     = errors.New("商品不存在")
	ErrProductNotAvailable = errors.New("商品已下架")
	ErrVariantNotFound     = errors.New("商品规格不存在")
	ErrQuantityInvalid     = errors.New("数量必须大于 0")
	ErrSlugExists          = errors.New("商品标识已存在")

	ErrOutOfStock       = errors.New("库存不足")
	ErrCartLineNotFound = errors.New("购物车项不存在")

	ErrCouponNotFound     = errors.New("优惠码不存在或已停用")
	ErrCouponExpired      = errors.New("优惠码不在有效期内")
	ErrCouponExhausted    = errors.New("优惠码已被用完")
	ErrCouponBelowMin     = errors.New("未达到优惠码使用门槛")
	ErrCouponInvalid      = errors.New("优惠码无效")

	ErrPromotionInvalid = errors.New("促销规则无效")

	ErrOrderEmpty         = errors.New("订单不能为空")
	ErrOrderNotFound      = errors.New("订单不存在")
	ErrInsufficientStock  = errors.New("商品库存不足，下单失败")
	ErrOrderStatusInvalid = errors.New("订单状态不允许该变更")
	ErrOrderCreateFailed  = errors.New("订单创建失败")
	ErrOrderUpdateFailed  = errors.New("订单更新失败")
	ErrOrderFetchFailed   = errors.New("订单查询失败")

	ErrSpinNoCredits    = errors.New("抽奖次数不足")
	ErrSpinPrizeInvalid = errors.New("奖品配置无效")

	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrUserDisabled       = errors.New("账号已被禁用")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailTaken         = errors.New("邮箱已被注册")
)
