package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表（创建后除状态外不可变）
type Order struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                          // 主键
	OrderNo        string         `gorm:"uniqueIndex;not null" json:"order_no"`                          // 订单编号
	UserID         uint           `gorm:"index;not null" json:"user_id"`                                 // 用户ID
	Status         string         `gorm:"index;not null" json:"status"`                                  // 订单状态
	Currency       string         `gorm:"not null" json:"currency"`                                      // 币种
	OriginalAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"original_amount"` // 原始金额
	DiscountAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠码优惠金额
	TotalAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`    // 实付金额
	CouponID       *uint          `gorm:"index" json:"coupon_id,omitempty"`                              // 使用的优惠码促销ID
	CustomerName   string         `gorm:"type:varchar(200)" json:"customer_name"`                        // 收件人姓名
	CustomerPhone  string         `gorm:"type:varchar(50)" json:"customer_phone"`                        // 收件人电话
	ShippingAddr   string         `gorm:"type:varchar(500)" json:"shipping_addr"`                        // 收货地址
	PaymentMethod  string         `gorm:"type:varchar(50)" json:"payment_method"`                        // 支付方式（仅记录）
	ClientIP       string         `gorm:"type:varchar(64)" json:"client_ip,omitempty"`                   // 下单客户端IP
	CanceledAt     *time.Time     `gorm:"index" json:"canceled_at"`                                      // 取消时间
	CompletedAt    *time.Time     `gorm:"index" json:"completed_at"`                                     // 完成时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
