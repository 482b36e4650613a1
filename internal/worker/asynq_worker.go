package worker

import (
	"context"
	"encoding/json"

	"github.com/bakehouse-api/internal/constants"
	"github.com/bakehouse-api/internal/logger"
	"github.com/bakehouse-api/internal/provider"
	"github.com/bakehouse-api/internal/queue"

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
	mux.HandleFunc(queue.TaskOrderPaidEmail, c.handleOrderPaidEmail)
}

func (c *Consumer) handleOrderPaidEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_paid_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderPaidEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_paid_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_paid_email_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_paid_email_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_paid_email_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	// 仅对已支付订单发信，避免重试期间状态回退造成误发
	if order.PaymentStatus != constants.PaymentStatusPaid {
		logger.Debugw("worker_order_paid_email_skip_not_paid",
			"order_id", order.ID,
			"payment_status", order.PaymentStatus,
		)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_order_paid_email_skip_email_service_nil", "order_id", order.ID)
		return nil
	}
	if err := c.EmailService.SendOrderPaidEmails(order); err != nil {
		logger.Warnw("worker_order_paid_email_send_failed",
			"order_id", order.ID,
			"gateway_order_id", order.GatewayOrderID,
			"error", err,
		)
		return err
	}
	return nil
}
