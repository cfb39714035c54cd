package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem 订单项表（下单时的价格与成本快照）
type OrderItem struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                        // 主键
	OrderID      uint           `gorm:"index;not null" json:"order_id"`                              // 订单ID
	ProductID    uint           `gorm:"index;not null" json:"product_id"`                            // 商品ID
	VariantID    uint           `gorm:"index;not null;default:0" json:"variant_id"`                  // 规格ID（0 表示无规格）
	TitleJSON    JSON           `gorm:"type:json;not null" json:"title"`                             // 商品标题快照
	VariantLabel string         `gorm:"type:varchar(120)" json:"variant_label"`                      // 规格展示名快照
	UnitPrice    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`    // 成交单价
	ImportPrice  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"-"`             // 进货成本快照（用于毛利统计，不返回给前端）
	Quantity     int            `gorm:"not null" json:"quantity"`                                    // 数量
	TotalPrice   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`   // 小计
	PromotionID  *uint          `gorm:"index" json:"promotion_id,omitempty"`                         // 生效的自动促销ID
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                                     // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                              // 软删除时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
