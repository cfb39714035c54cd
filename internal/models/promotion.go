package models

import (
	"time"

	"gorm.io/gorm"
)

// Promotion 促销规则（自动促销与优惠码共用一张表）
type Promotion struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                          // 主键
	Name            string         `gorm:"not null" json:"name"`                                          // 名称
	Kind            string         `gorm:"type:varchar(20);not null;index" json:"kind"`                   // 类型（percent/fixed/gift/flash_sale/coupon）
	Code            string         `gorm:"index;type:varchar(64)" json:"code,omitempty"`                  // 优惠码（coupon 类型必填，其余为空；未删除的非空值由部分唯一索引约束）
	DiscountPercent Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_percent"` // 折扣百分比（0-100，优先于固定金额）
	DiscountAmount  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`  // 固定优惠金额
	MinOrderValue   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"min_order_value"`  // 使用门槛
	MaxDiscountCap  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"max_discount_cap"` // 最大优惠金额（0 表示不限制）
	UsageLimit      int            `gorm:"not null;default:0" json:"usage_limit"`                         // 总使用上限（0 表示不限制）
	UsedCount       int            `gorm:"not null;default:0" json:"used_count"`                          // 已使用次数
	ItemIDs         UintArray      `gorm:"type:json" json:"item_ids"`                                     // 适用商品ID集合（纯优惠码为空）
	StartsAt        *time.Time     `gorm:"index" json:"starts_at"`                                        // 生效时间（含）
	EndsAt          *time.Time     `gorm:"index" json:"ends_at"`                                          // 失效时间（含）
	IsActive        bool           `gorm:"not null;default:true" json:"is_active"`                        // 是否启用
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间
}

// TableName 指定表名
func (Promotion) TableName() string {
	return "promotions"
}

// InWindow 判断时间是否落在生效窗口内（边界含，空值表示开区间）
func (p Promotion) InWindow(now time.Time) bool {
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return false
	}
	if p.EndsAt != nil && now.After(*p.EndsAt) {
		return false
	}
	return true
}
