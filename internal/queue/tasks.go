package queue

import (
	"encoding/json"

	"github.com/bakehouse-api/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderPaidEmail 订单结算邮件通知任务
	TaskOrderPaidEmail = constants.TaskOrderPaidEmail
)

// OrderPaidEmailPayload 订单结算邮件任务载荷
type OrderPaidEmailPayload struct {
	OrderID uint `json:"order_id"`
}

// NewOrderPaidEmailTask 创建订单结算邮件任务
func NewOrderPaidEmailTask(payload OrderPaidEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderPaidEmail, body), nil
}
