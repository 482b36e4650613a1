package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bakehouse-api/internal/constants"
	"github.com/bakehouse-api/internal/models"
	"github.com/bakehouse-api/internal/payment/razorpay"
	"github.com/bakehouse-api/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var razorpayGatewayOrderFixture = razorpay.GatewayOrder{
	ID:          "order_checkout_1",
	AmountMinor: 45500,
	Currency:    "INR",
	Status:      "created",
	Raw: map[string]interface{}{
		"id":       "order_checkout_1",
		"amount":   float64(45500),
		"currency": "INR",
		"status":   "created",
	},
}

func newOrderServiceTest(t *testing.T, gateway *fakeGateway) (*OrderService, *gorm.DB) {
	t.Helper()
	db := setupServiceTestDB(t)
	// Checkout 走 models.DB 的事务入口
	oldDB := models.DB
	models.DB = db
	t.Cleanup(func() { models.DB = oldDB })
	return NewOrderService(repository.NewOrderRepository(db), gateway, ""), db
}

func checkoutInputFixture() CheckoutInput {
	return CheckoutInput{
		VisitorID: "visitor-checkout",
		Customer: CustomerInfo{
			Name:    "Priya Sharma",
			Email:   "priya@example.com",
			Phone:   "+91-9800000001",
			Address: "14 Lakeview Road",
			City:    "Pune",
		},
		Items: []CheckoutItem{
			{Name: "Sourdough Loaf", Price: models.NewMoneyFromDecimal(decimal.RequireFromString("180.00")), Quantity: 2},
			{Name: "Cinnamon Roll", Price: models.NewMoneyFromDecimal(decimal.RequireFromString("95.00")), Quantity: 1},
		},
		ClientIP: "203.0.113.10",
	}
}

func TestCheckoutCreatesPendingOrder(t *testing.T) {
	gateway := &fakeGateway{
		createOrder: &razorpayGatewayOrderFixture,
	}
	svc, db := newOrderServiceTest(t, gateway)

	result, err := svc.Checkout(context.Background(), checkoutInputFixture())
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if result.OrderID == 0 {
		t.Fatalf("expected persisted order id")
	}
	if result.KeyID != "rzp_test_key" {
		t.Fatalf("unexpected key id: %s", result.KeyID)
	}

	// 金额换算为最小货币单位后送网关：180*2 + 95 = 455.00 => 45500 paise
	if gateway.lastCreateInput.AmountMinor != 45500 {
		t.Fatalf("expected 45500 paise sent to gateway, got: %d", gateway.lastCreateInput.AmountMinor)
	}
	if gateway.lastCreateInput.Currency != constants.GatewayCurrencyDefault {
		t.Fatalf("unexpected currency: %s", gateway.lastCreateInput.Currency)
	}
	if gateway.lastCreateInput.Notes["visitor_id"] != "visitor-checkout" {
		t.Fatalf("expected visitor id in gateway notes, got: %+v", gateway.lastCreateInput.Notes)
	}

	var order models.Order
	if err := db.Preload("Items").First(&order, result.OrderID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if order.PaymentStatus != constants.PaymentStatusPending {
		t.Fatalf("expected pending order, got: %s", order.PaymentStatus)
	}
	if order.GatewayOrderID != "order_checkout_1" {
		t.Fatalf("unexpected gateway order id: %s", order.GatewayOrderID)
	}
	if order.TotalAmount.String() != "455.00" {
		t.Fatalf("unexpected total amount: %s", order.TotalAmount.String())
	}
	if order.Country != constants.CustomerCountryDefault {
		t.Fatalf("expected default country, got: %s", order.Country)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 order items, got: %d", len(order.Items))
	}
	if order.Items[0].TotalPrice.String() != "360.00" {
		t.Fatalf("unexpected item subtotal: %s", order.Items[0].TotalPrice.String())
	}
}

func TestCheckoutGatewayFailurePersistsNothing(t *testing.T) {
	gateway := &fakeGateway{createErr: errors.New("gateway timeout")}
	svc, db := newOrderServiceTest(t, gateway)

	_, err := svc.Checkout(context.Background(), checkoutInputFixture())
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got: %v", err)
	}

	var count int64
	if err := db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no persisted orders after gateway failure, got: %d", count)
	}
}

func TestCheckoutRejectsInvalidCustomer(t *testing.T) {
	svc, _ := newOrderServiceTest(t, &fakeGateway{createOrder: &razorpayGatewayOrderFixture})

	input := checkoutInputFixture()
	input.Customer.Email = "not-an-email"
	if _, err := svc.Checkout(context.Background(), input); !errors.Is(err, ErrInvalidCustomer) {
		t.Fatalf("expected ErrInvalidCustomer for bad email, got: %v", err)
	}

	input = checkoutInputFixture()
	input.Customer.Name = "   "
	if _, err := svc.Checkout(context.Background(), input); !errors.Is(err, ErrInvalidCustomer) {
		t.Fatalf("expected ErrInvalidCustomer for blank name, got: %v", err)
	}
}

func TestCheckoutRejectsInvalidItems(t *testing.T) {
	svc, _ := newOrderServiceTest(t, &fakeGateway{createOrder: &razorpayGatewayOrderFixture})

	input := checkoutInputFixture()
	input.Items = nil
	if _, err := svc.Checkout(context.Background(), input); !errors.Is(err, ErrInvalidOrderItem) {
		t.Fatalf("expected ErrInvalidOrderItem for empty items, got: %v", err)
	}

	input = checkoutInputFixture()
	input.Items[0].Quantity = 0
	if _, err := svc.Checkout(context.Background(), input); !errors.Is(err, ErrInvalidOrderItem) {
		t.Fatalf("expected ErrInvalidOrderItem for zero quantity, got: %v", err)
	}

	input = checkoutInputFixture()
	input.Items = []CheckoutItem{
		{Name: "Free Sample", Price: models.NewMoneyFromDecimal(decimal.Zero), Quantity: 1},
	}
	if _, err := svc.Checkout(context.Background(), input); !errors.Is(err, ErrInvalidOrderItem) {
		t.Fatalf("expected ErrInvalidOrderItem for zero total, got: %v", err)
	}
}

func TestListBySettledEmailLowercasesInput(t *testing.T) {
	svc, db := newOrderServiceTest(t, &fakeGateway{})

	order := &models.Order{
		VisitorID:      "visitor-email",
		GatewayOrderID: "order_email_1",
		PaymentStatus:  constants.PaymentStatusPaid,
		Currency:       constants.GatewayCurrencyDefault,
		TotalAmount:    models.NewMoneyFromDecimal(decimal.RequireFromString("100.00")),
		CustomerName:   "Arun Mehta",
		CustomerEmail:  "Arun@Example.com",
		SettledEmail:   "arun@example.com",
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	orders, err := svc.ListBySettledEmail("  ARUN@Example.COM  ")
	if err != nil {
		t.Fatalf("list by settled email failed: %v", err)
	}
	if len(orders) != 1 || orders[0].GatewayOrderID != "order_email_1" {
		t.Fatalf("unexpected orders: %+v", orders)
	}

	if _, err := svc.ListBySettledEmail("   "); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail for blank email, got: %v", err)
	}
}
