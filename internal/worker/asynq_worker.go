package worker

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/lumimall/internal/logger"
	"github.com/lumimall/internal/provider"
	"github.com/lumimall/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderStatusEmail, c.handleOrderStatusEmail)
	mux.HandleFunc(queue.TaskSpinRewardNotify, c.handleSpinRewardNotify)
}

func (c *Consumer) handleOrderStatusEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_status_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderStatusEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_status_email_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_status_email_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_status_email_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	user, err := c.UserRepo.GetByID(order.UserID)
	if err != nil {
		logger.Warnw("worker_order_status_email_fetch_user_failed", "order_id", order.ID, "user_id", order.UserID, "error", err)
		return err
	}
	if user == nil || strings.TrimSpace(user.Email) == "" {
		logger.Debugw("worker_order_status_email_skip_empty_receiver", "order_id", order.ID, "order_no", order.OrderNo)
		return nil
	}
	status := strings.TrimSpace(payload.Status)
	if status == "" {
		status = order.Status
	}
	// 邮件通道未接入，投递记录落日志
	logger.Infow("order_status_notification",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"status", status,
		"receiver_email", user.Email,
		"locale", user.Locale,
		"total_amount", order.TotalAmount.String(),
		"currency", order.Currency,
	)
	return nil
}

func (c *Consumer) handleSpinRewardNotify(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_spin_reward_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.SpinRewardNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_spin_reward_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.UserID == 0 {
		logger.Debugw("worker_spin_reward_notify_skip_invalid_payload", "user_id", payload.UserID)
		return nil
	}
	user, err := c.UserRepo.GetByID(payload.UserID)
	if err != nil {
		logger.Warnw("worker_spin_reward_notify_fetch_user_failed", "user_id", payload.UserID, "error", err)
		return err
	}
	if user == nil {
		logger.Debugw("worker_spin_reward_notify_skip_user_not_found", "user_id", payload.UserID)
		return nil
	}
	logger.Infow("spin_reward_notification",
		"user_id", user.ID,
		"receiver_email", user.Email,
		"prize_label", payload.PrizeLabel,
		"prize_kind", payload.PrizeKind,
		"coupon_code", payload.CouponCode,
	)
	return nil
}
