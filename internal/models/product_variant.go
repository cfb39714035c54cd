package models

import (
	"time"

	"gorm.io/gorm"
)

// ProductVariant 商品规格表（颜色/尺码维度，独立价格与库存）
type ProductVariant struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                       // 主键
	ProductID     uint           `gorm:"not null;index" json:"product_id"`                           // 商品ID
	Color         string         `gorm:"type:varchar(50)" json:"color"`                              // 颜色
	Size          string         `gorm:"type:varchar(50)" json:"size"`                               // 尺码
	Price         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`        // 规格售价（覆盖商品基础价格）
	ImportPrice   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"-"`            // 进货成本（不返回给前端）
	StockQuantity int            `gorm:"not null;default:0" json:"stock_quantity"`                   // 库存数量（不允许为负）
	IsActive      bool           `gorm:"default:true;index" json:"is_active"`                        // 是否启用
	SortOrder     int            `gorm:"default:0;index" json:"sort_order"`                          // 排序权重
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                                                 // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (ProductVariant) TableName() string {
	return "product_variants"
}

// Label 返回规格展示名
func (v ProductVariant) Label() string {
	switch {
	case v.Color != "" && v.Size != "":
		return v.Color + " / " + v.Size
	case v.Color != "":
		return v.Color
	default:
		return v.Size
	}
}
