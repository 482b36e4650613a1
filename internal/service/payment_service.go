package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bakehouse-api/internal/constants"
	"github.com/bakehouse-api/internal/logger"
	"github.com/bakehouse-api/internal/models"
	"github.com/bakehouse-api/internal/payment/razorpay"
	"github.com/bakehouse-api/internal/queue"
	"github.com/bakehouse-api/internal/repository"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// VerifyPaymentInput 支付回调校验输入
type VerifyPaymentInput struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

// PaymentService 支付结算服务
type PaymentService struct {
	orderRepo     repository.OrderRepository
	cartRepo      repository.CartRepository
	gateway       PaymentGateway
	queueClient   *queue.Client
	emailService  *EmailService
	signingSecret string
}

// NewPaymentService 创建支付结算服务
func NewPaymentService(orderRepo repository.OrderRepository, cartRepo repository.CartRepository, gateway PaymentGateway, queueClient *queue.Client, emailService *EmailService, signingSecret string) *PaymentService {
	return &PaymentService{
		orderRepo:     orderRepo,
		cartRepo:      cartRepo,
		gateway:       gateway,
		queueClient:   queueClient,
		emailService:  emailService,
		signingSecret: signingSecret,
	}
}

// VerifyPayment 校验支付回调并结算订单
// 签名校验失败在订单查询之前返回，避免泄露订单是否存在；
// 已支付订单直接返回且不重复触发副作用；
// 状态落地使用条件更新，竞争到的并发请求按幂等成功处理。
func (s *PaymentService) VerifyPayment(ctx context.Context, input VerifyPaymentInput) (*models.Order, error) {
	gatewayOrderID := strings.TrimSpace(input.GatewayOrderID)
	gatewayPaymentID := strings.TrimSpace(input.GatewayPaymentID)
	signature := strings.TrimSpace(input.Signature)
	if gatewayOrderID == "" || gatewayPaymentID == "" || signature == "" {
		return nil, ErrPaymentInvalid
	}

	log := logger.S().With(
		"gateway_order_id", gatewayOrderID,
		"gateway_payment_id", gatewayPaymentID,
	)

	if !razorpay.VerifySignature(s.signingSecret, gatewayOrderID, gatewayPaymentID, signature) {
		log.Warnw("payment_verify_signature_mismatch")
		return nil, ErrSignatureInvalid
	}

	order, err := s.orderRepo.GetByGatewayOrderID(gatewayOrderID)
	if err != nil {
		log.Errorw("payment_verify_order_fetch_failed", "error", err)
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		log.Warnw("payment_verify_order_not_found")
		return nil, ErrOrderNotFound
	}

	// 幂等处理：已支付订单不再触发任何副作用
	if order.PaymentStatus == constants.PaymentStatusPaid {
		log.Infow("payment_verify_idempotent_paid", "order_id", order.ID)
		return order, nil
	}

	if s.gateway == nil {
		return nil, ErrGatewayUnavailable
	}
	payment, err := s.gateway.FetchPayment(ctx, gatewayPaymentID)
	if err != nil {
		log.Warnw("payment_verify_gateway_fetch_failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if payment.OrderID != "" && payment.OrderID != gatewayOrderID {
		log.Warnw("payment_verify_order_mismatch", "payment_order_id", payment.OrderID)
		return nil, ErrPaymentInvalid
	}
	if payment.AmountMinor != 0 && payment.AmountMinor != order.TotalAmount.MinorUnits() {
		// 金额不一致仅告警，以网关扣款状态为准
		log.Warnw("payment_verify_amount_mismatch",
			"order_id", order.ID,
			"stored_amount_minor", order.TotalAmount.MinorUnits(),
			"gateway_amount_minor", payment.AmountMinor,
		)
	}

	switch payment.Status {
	case constants.GatewayPaymentCaptured:
		return s.settleOrder(order, gatewayOrderID, gatewayPaymentID, log)
	case constants.GatewayPaymentFailed:
		if _, err := s.orderRepo.MarkFailed(gatewayOrderID); err != nil {
			log.Errorw("payment_verify_mark_failed_failed", "order_id", order.ID, "error", err)
			return nil, ErrOrderUpdateFailed
		}
		log.Infow("payment_verify_marked_failed", "order_id", order.ID)
		return nil, ErrPaymentFailed
	default:
		log.Infow("payment_verify_not_captured", "order_id", order.ID, "gateway_status", payment.Status)
		return nil, ErrPaymentNotCaptured
	}
}

func (s *PaymentService) settleOrder(order *models.Order, gatewayOrderID, gatewayPaymentID string, log *zap.SugaredLogger) (*models.Order, error) {
	settledEmail := strings.ToLower(strings.TrimSpace(order.CustomerEmail))
	now := time.Now()

	rows, err := s.orderRepo.MarkPaid(gatewayOrderID, gatewayPaymentID, settledEmail, now)
	if err != nil {
		log.Errorw("payment_settle_mark_paid_failed", "order_id", order.ID, "error", err)
		return nil, ErrOrderUpdateFailed
	}
	if rows == 0 {
		// 条件更新未命中：重读确认是否为并发结算
		current, err := s.orderRepo.GetByGatewayOrderID(gatewayOrderID)
		if err != nil {
			log.Errorw("payment_settle_reread_failed", "order_id", order.ID, "error", err)
			return nil, ErrOrderFetchFailed
		}
		if current != nil && current.PaymentStatus == constants.PaymentStatusPaid {
			log.Infow("payment_settle_idempotent_race", "order_id", order.ID)
			return current, nil
		}
		log.Warnw("payment_settle_state_conflict", "order_id", order.ID)
		return nil, ErrOrderUpdateFailed
	}

	settled, err := s.orderRepo.GetByGatewayOrderID(gatewayOrderID)
	if err != nil || settled == nil {
		// 状态已落地，读取失败时退回内存副本
		log.Warnw("payment_settle_reload_failed", "order_id", order.ID, "error", err)
		order.PaymentStatus = constants.PaymentStatusPaid
		order.GatewayPaymentID = gatewayPaymentID
		order.SettledEmail = settledEmail
		order.PaidAt = &now
		settled = order
	}

	log.Infow("payment_settled",
		"order_id", settled.ID,
		"settled_email", settledEmail,
		"amount", settled.TotalAmount.String(),
	)

	// 副作用严格在持久化之后执行，失败仅记录日志
	s.clearCartAsync(settled, log)
	s.notifyOrderPaidAsync(settled, log)
	return settled, nil
}

func (s *PaymentService) clearCartAsync(order *models.Order, log *zap.SugaredLogger) {
	if s.cartRepo == nil || order == nil {
		return
	}
	if err := s.cartRepo.DeleteByVisitor(order.VisitorID); err != nil {
		log.Warnw("payment_settle_cart_clear_failed",
			"order_id", order.ID,
			"visitor_id", order.VisitorID,
			"error", err,
		)
	}
}

func (s *PaymentService) notifyOrderPaidAsync(order *models.Order, log *zap.SugaredLogger) {
	if order == nil {
		return
	}
	if s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueOrderPaidEmail(queue.OrderPaidEmailPayload{
			OrderID: order.ID,
		}, asynq.MaxRetry(3)); err != nil {
			log.Warnw("payment_enqueue_paid_email_failed", "order_id", order.ID, "error", err)
		}
		return
	}
	if s.emailService == nil {
		return
	}
	if err := s.emailService.SendOrderPaidEmails(order); err != nil {
		log.Warnw("payment_send_paid_email_failed", "order_id", order.ID, "error", err)
	}
}
