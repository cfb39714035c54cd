package queue

import (
	"encoding/json"

	"github.com/lumimall/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderStatusEmail 订单状态邮件通知任务
	TaskOrderStatusEmail = constants.TaskOrderStatusEmail
	// TaskSpinRewardNotify 抽奖中奖通知任务
	TaskSpinRewardNotify = constants.TaskSpinRewardNotify
)

// OrderStatusEmailPayload 订单状态邮件任务载荷
type OrderStatusEmailPayload struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

// SpinRewardNotifyPayload 抽奖中奖通知任务载荷
type SpinRewardNotifyPayload struct {
	UserID     uint   `json:"user_id"`
	PrizeLabel string `json:"prize_label"`
	PrizeKind  string `json:"prize_kind"`
	CouponCode string `json:"coupon_code,omitempty"`
}

// NewOrderStatusEmailTask 创建订单状态邮件任务
func NewOrderStatusEmailTask(payload OrderStatusEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderStatusEmail, body), nil
}

// NewSpinRewardNotifyTask 创建抽奖中奖通知任务
func NewSpinRewardNotifyTask(payload SpinRewardNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSpinRewardNotify, body), nil
}
