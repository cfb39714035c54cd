package repository

import "time"

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page         int
	PageSize     int
	Search       string
	OnlyActive   bool
	WithVariants bool
}

// PromotionListFilter 查询促销列表的过滤条件
type PromotionListFilter struct {
	Page     int
	PageSize int
	Kind     string
	Code     string
	IsActive *bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
