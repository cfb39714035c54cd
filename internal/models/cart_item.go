package models

import (
	"time"
)

// CartItem 购物车项（同用户下商品+规格唯一，VariantID 为 0 表示无规格）。
// 购物车行是瞬态数据，删除即物理删除，避免死行占用唯一索引导致无法重新加购。
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                                  // 主键
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_product_variant" json:"user_id"`    // 用户ID
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_user_product_variant" json:"product_id"` // 商品ID
	VariantID uint      `gorm:"not null;default:0;uniqueIndex:idx_cart_user_product_variant" json:"variant_id"` // 规格ID（0 表示无规格）
	Quantity  int       `gorm:"not null" json:"quantity"`                                              // 数量
	UnitPrice Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`              // 单价快照（读取时会与当前生效价同步）
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                               // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                                               // 更新时间

	Product *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
	Variant *ProductVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"` // 关联规格
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}
