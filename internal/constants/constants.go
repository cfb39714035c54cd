package constants

// 订单状态常量
const (
	OrderStatusPendingApproval = "pending_approval"
	OrderStatusProcessing      = "processing"
	OrderStatusShipped         = "shipped"
	OrderStatusCompleted       = "completed"
	OrderStatusCanceled        = "canceled"
	OrderStatusFailed          = "failed"
)

// 促销类型常量
const (
	PromotionKindPercent   = "percent"
	PromotionKindFixed     = "fixed"
	PromotionKindGift      = "gift"
	PromotionKindFlashSale = "flash_sale"
	PromotionKindCoupon    = "coupon"
)

// 奖品类型常量
const (
	PrizeKindPercentVoucher = "percent_voucher"
	PrizeKindFixedVoucher   = "fixed_voucher"
	PrizeKindExtraSpin      = "extra_spin"
	PrizeKindNone           = "none"
)

// 库存常量
const (
	StockUnlimited = -1
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 队列常量
const (
	QueueDefault         = "default"
	TaskOrderStatusEmail = "order:status_email"
	TaskSpinRewardNotify = "spin:reward_notify"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "lm"
)

// 币种常量
const (
	SiteCurrencyDefault = "VND"
)

// 站点语言常量
const (
	LocaleZhCN = "zh-CN"
	LocaleViVN = "vi-VN"
	LocaleEnUS = "en-US"
)

// 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleZhCN, LocaleViVN, LocaleEnUS}
