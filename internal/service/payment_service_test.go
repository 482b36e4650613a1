package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bakehouse-api/internal/constants"
	"github.com/bakehouse-api/internal/models"
	"github.com/bakehouse-api/internal/payment/razorpay"
	"github.com/bakehouse-api/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const testSigningSecret = "payment-service-test-secret"

type fakeGateway struct {
	createOrder     *razorpay.GatewayOrder
	createErr       error
	createCalls     int
	lastCreateInput razorpay.CreateOrderInput

	payment    *razorpay.Payment
	fetchErr   error
	fetchCalls int
}

func (g *fakeGateway) CreateOrder(ctx context.Context, input razorpay.CreateOrderInput) (*razorpay.GatewayOrder, error) {
	g.createCalls++
	g.lastCreateInput = input
	if g.createErr != nil {
		return nil, g.createErr
	}
	return g.createOrder, nil
}

func (g *fakeGateway) FetchPayment(ctx context.Context, paymentID string) (*razorpay.Payment, error) {
	g.fetchCalls++
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	return g.payment, nil
}

func (g *fakeGateway) KeyID() string {
	return "rzp_test_key"
}

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func signPayment(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSigningSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func newPaymentServiceTest(t *testing.T, gateway *fakeGateway) (*PaymentService, *gorm.DB) {
	t.Helper()
	db := setupServiceTestDB(t)
	orderRepo := repository.NewOrderRepository(db)
	cartRepo := repository.NewCartRepository(db)
	return NewPaymentService(orderRepo, cartRepo, gateway, nil, nil, testSigningSecret), db
}

func createPendingOrder(t *testing.T, db *gorm.DB, gatewayOrderID, visitorID string, amount string) *models.Order {
	t.Helper()
	order := &models.Order{
		VisitorID:      visitorID,
		GatewayOrderID: gatewayOrderID,
		PaymentStatus:  constants.PaymentStatusPending,
		Currency:       constants.GatewayCurrencyDefault,
		TotalAmount:    models.NewMoneyFromDecimal(decimal.RequireFromString(amount)),
		CustomerName:   "Priya Sharma",
		CustomerEmail:  "Priya.Sharma@Example.com",
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func createVisitorCart(t *testing.T, db *gorm.DB, visitorID string) *models.Cart {
	t.Helper()
	cart := &models.Cart{VisitorID: visitorID}
	if err := db.Create(cart).Error; err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	item := &models.CartItem{
		CartID:    cart.ID,
		Name:      "Sourdough Loaf",
		UnitPrice: models.NewMoneyFromDecimal(decimal.RequireFromString("180.00")),
		Quantity:  2,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("create cart item failed: %v", err)
	}
	return cart
}

func TestVerifyPaymentRejectsMissingParams(t *testing.T) {
	svc, _ := newPaymentServiceTest(t, &fakeGateway{})
	_, err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		GatewayOrderID: "order_x",
		Signature:      "sig",
	})
	if !errors.Is(err, ErrPaymentInvalid) {
		t.Fatalf("expected ErrPaymentInvalid, got: %v", err)
	}
}

func TestVerifyPaymentSignatureCheckedBeforeOrderLookup(t *testing.T) {
	gateway := &fakeGateway{}
	svc, _ := newPaymentServiceTest(t, gateway)

	// 订单不存在且签名错误时必须返回签名错误，避免探测订单是否存在
	_, err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		GatewayOrderID:   "order_unknown",
		GatewayPaymentID: "pay_unknown",
		Signature:        "deadbeef",
	})
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got: %v", err)
	}
	if gateway.fetchCalls != 0 {
		t.Fatalf("gateway must not be called on signature mismatch")
	}
}

func TestVerifyPaymentOrderNotFound(t *testing.T) {
	svc, _ := newPaymentServiceTest(t, &fakeGateway{})
	_, err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		GatewayOrderID:   "order_missing",
		GatewayPaymentID: "pay_1",
		Signature:        signPayment("order_missing", "pay_1"),
	})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}

func TestVerifyPaymentSettlesOrder(t *testing.T) {
	gateway := &fakeGateway{
		payment: &razorpay.Payment{
			ID:          "pay_settle_1",
			OrderID:     "order_settle_1",
			Status:      constants.GatewayPaymentCaptured,
			AmountMinor: 54000,
		},
	}
	svc, db := newPaymentServiceTest(t, gateway)
	createPendingOrder(t, db, "order_settle_1", "visitor-settle", "540.00")
	createVisitorCart(t, db, "visitor-settle")

	settled, err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		GatewayOrderID:   "order_settle_1",
		GatewayPaymentID: "pay_settle_1",
		Signature:        signPayment("order_settle_1", "pay_settle_1"),
	})
	if err != nil {
		t.Fatalf("verify payment failed: %v", err)
	}
	if settled.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("expected paid status, got: %s", settled.PaymentStatus)
	}
	if settled.GatewayPaymentID != "pay_settle_1" {
		t.Fatalf("expected gateway payment id recorded, got: %s", settled.GatewayPaymentID)
	}
	if settled.SettledEmail != "priya.sharma@example.com" {
		t.Fatalf("expected lowercased settled email, got: %s", settled.SettledEmail)
	}
	if settled.PaidAt == nil {
		t.Fatalf("expected paid_at to be set")
	}

	var stored models.Order
	if err := db.Where("gateway_order_id = ?", "order_settle_1").First(&stored).Error; err != nil {
		t.Fatalf("load stored order failed: %v", err)
	}
	if stored.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("expected stored order paid, got: %s", stored.PaymentStatus)
	}

	// 结算成功后购物车被清空
	var cartCount int64
	if err := db.Model(&models.Cart{}).Where("visitor_id = ?", "visitor-settle").Count(&cartCount).Error; err != nil {
		t.Fatalf("count carts failed: %v", err)
	}
	if cartCount != 0 {
		t.Fatalf("expected cart cleared after settlement, got %d carts", cartCount)
	}
}

func TestVerifyPaymentIdempotentWhenAlreadyPaid(t *testing.T) {
	gateway := &fakeGateway{}
	svc, db := newPaymentServiceTest(t, gateway)

	paidAt := time.Now().Add(-time.Hour)
	order := &models.Order{
		VisitorID:        "visitor-paid",
		GatewayOrderID:   "order_paid_1",
		GatewayPaymentID: "pay_paid_1",
		PaymentStatus:    constants.PaymentStatusPaid,
		Currency:         constants.GatewayCurrencyDefault,
		TotalAmount:      models.NewMoneyFromDecimal(decimal.RequireFromString("315.00")),
		CustomerName:     "Arun Mehta",
		CustomerEmail:    "arun@example.com",
		SettledEmail:     "arun@example.com",
		PaidAt:           &paidAt,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create paid order failed: %v", err)
	}
	createVisitorCart(t, db, "visitor-paid")

	got, err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		GatewayOrderID:   "order_paid_1",
		GatewayPaymentID: "pay_paid_1",
		Signature:        signPayment("order_paid_1", "pay_paid_1"),
	})
	if err != nil {
		t.Fatalf("expected idempotent success, got: %v", err)
	}
	if got.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("expected paid status, got: %s", got.PaymentStatus)
	}
	if gateway.fetchCalls != 0 {
		t.Fatalf("gateway must not be called for already paid order")
	}

	// 重复回调不再触发副作用，购物车保持不变
	var cartCount int64
	if err := db.Model(&models.Cart{}).Where("visitor_id = ?", "visitor-paid").Count(&cartCount).Error; err != nil {
		t.Fatalf("count carts failed: %v", err)
	}
	if cartCount != 1 {
		t.Fatalf("expected cart untouched on idempotent replay, got %d carts", cartCount)
	}
}

func TestVerifyPaymentNotCapturedLeavesPending(t *testing.T) {
	gateway := &fakeGateway{
		payment: &razorpay.Payment{
			ID:      "pay_auth_1",
			OrderID: "order_auth_1",
			Status:  "authorized",
		},
	}
	svc, db := newPaymentServiceTest(t, gateway)
	createPendingOrder(t, db, "order_auth_1", "visitor-auth", "100.00")

	_, err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		GatewayOrderID:   "order_auth_1",
		GatewayPaymentID: "pay_auth_1",
		Signature:        signPayment("order_auth_1", "pay_auth_1"),
	})
	if !errors.Is(err, ErrPaymentNotCaptured) {
		t.Fatalf("expected ErrPaymentNotCaptured, got: %v", err)
	}

	var stored models.Order
	if err := db.Where("gateway_order_id = ?", "order_auth_1").First(&stored).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.PaymentStatus != constants.PaymentStatusPending {
		t.Fatalf("expected order still pending, got: %s", stored.PaymentStatus)
	}
}

func TestVerifyPaymentFailedMarksFailed(t *testing.T) {
	gateway := &fakeGateway{
		payment: &razorpay.Payment{
			ID:      "pay_fail_1",
			OrderID: "order_fail_1",
			Status:  constants.GatewayPaymentFailed,
		},
	}
	svc, db := newPaymentServiceTest(t, gateway)
	createPendingOrder(t, db, "order_fail_1", "visitor-fail", "100.00")

	_, err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		GatewayOrderID:   "order_fail_1",
		GatewayPaymentID: "pay_fail_1",
		Signature:        signPayment("order_fail_1", "pay_fail_1"),
	})
	if !errors.Is(err, ErrPaymentFailed) {
		t.Fatalf("expected ErrPaymentFailed, got: %v", err)
	}

	var stored models.Order
	if err := db.Where("gateway_order_id = ?", "order_fail_1").First(&stored).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.PaymentStatus != constants.PaymentStatusFailed {
		t.Fatalf("expected order failed, got: %s", stored.PaymentStatus)
	}
}

func TestVerifyPaymentGatewayUnavailable(t *testing.T) {
	gateway := &fakeGateway{fetchErr: errors.New("connection refused")}
	svc, db := newPaymentServiceTest(t, gateway)
	createPendingOrder(t, db, "order_gw_1", "visitor-gw", "100.00")

	_, err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		GatewayOrderID:   "order_gw_1",
		GatewayPaymentID: "pay_gw_1",
		Signature:        signPayment("order_gw_1", "pay_gw_1"),
	})
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got: %v", err)
	}

	var stored models.Order
	if err := db.Where("gateway_order_id = ?", "order_gw_1").First(&stored).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.PaymentStatus != constants.PaymentStatusPending {
		t.Fatalf("expected order still pending, got: %s", stored.PaymentStatus)
	}
}

func TestVerifyPaymentOrderMismatchRejected(t *testing.T) {
	gateway := &fakeGateway{
		payment: &razorpay.Payment{
			ID:      "pay_mismatch_1",
			OrderID: "order_other",
			Status:  constants.GatewayPaymentCaptured,
		},
	}
	svc, db := newPaymentServiceTest(t, gateway)
	createPendingOrder(t, db, "order_mismatch_1", "visitor-mismatch", "100.00")

	_, err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		GatewayOrderID:   "order_mismatch_1",
		GatewayPaymentID: "pay_mismatch_1",
		Signature:        signPayment("order_mismatch_1", "pay_mismatch_1"),
	})
	if !errors.Is(err, ErrPaymentInvalid) {
		t.Fatalf("expected ErrPaymentInvalid, got: %v", err)
	}

	var stored models.Order
	if err := db.Where("gateway_order_id = ?", "order_mismatch_1").First(&stored).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.PaymentStatus != constants.PaymentStatusPending {
		t.Fatalf("expected order still pending, got: %s", stored.PaymentStatus)
	}
}

func TestVerifyPaymentAmountMismatchStillSettles(t *testing.T) {
	gateway := &fakeGateway{
		payment: &razorpay.Payment{
			ID:          "pay_amount_1",
			OrderID:     "order_amount_1",
			Status:      constants.GatewayPaymentCaptured,
			AmountMinor: 99999,
		},
	}
	svc, db := newPaymentServiceTest(t, gateway)
	createPendingOrder(t, db, "order_amount_1", "visitor-amount", "100.00")

	settled, err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		GatewayOrderID:   "order_amount_1",
		GatewayPaymentID: "pay_amount_1",
		Signature:        signPayment("order_amount_1", "pay_amount_1"),
	})
	if err != nil {
		t.Fatalf("expected settlement despite amount mismatch, got: %v", err)
	}
	if settled.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("expected paid status, got: %s", settled.PaymentStatus)
	}
}

func TestVerifyPaymentConcurrentSettleIsIdempotent(t *testing.T) {
	gateway := &fakeGateway{
		payment: &razorpay.Payment{
			ID:      "pay_race_1",
			OrderID: "order_race_1",
			Status:  constants.GatewayPaymentCaptured,
		},
	}
	svc, db := newPaymentServiceTest(t, gateway)
	createPendingOrder(t, db, "order_race_1", "visitor-race", "100.00")

	// 模拟并发结算：条件更新前另一请求已落地已支付状态
	raceRepo := &racingOrderRepository{
		OrderRepository: repository.NewOrderRepository(db),
	}
	svc.orderRepo = raceRepo

	got, err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		GatewayOrderID:   "order_race_1",
		GatewayPaymentID: "pay_race_1",
		Signature:        signPayment("order_race_1", "pay_race_1"),
	})
	if err != nil {
		t.Fatalf("expected idempotent success on settle race, got: %v", err)
	}
	if got.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("expected paid status, got: %s", got.PaymentStatus)
	}
}

// racingOrderRepository 在首次 MarkPaid 前抢先结算，模拟并发回调
type racingOrderRepository struct {
	repository.OrderRepository
	raced bool
}

func (r *racingOrderRepository) MarkPaid(gatewayOrderID, gatewayPaymentID, settledEmail string, paidAt time.Time) (int64, error) {
	if !r.raced {
		r.raced = true
		if _, err := r.OrderRepository.MarkPaid(gatewayOrderID, "pay_other_request", settledEmail, paidAt.Add(-time.Second)); err != nil {
			return 0, err
		}
	}
	return r.OrderRepository.MarkPaid(gatewayOrderID, gatewayPaymentID, settledEmail, paidAt)
}
