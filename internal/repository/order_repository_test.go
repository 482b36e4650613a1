package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/bakehouse-api/internal/constants"
	"github.com/bakehouse-api/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderRepositoryTest(t *testing.T) (*GormOrderRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewOrderRepository(db), db
}

func newTestOrder(gatewayOrderID, visitorID, status string) *models.Order {
	return &models.Order{
		VisitorID:      visitorID,
		GatewayOrderID: gatewayOrderID,
		PaymentStatus:  status,
		Currency:       constants.GatewayCurrencyDefault,
		TotalAmount:    models.NewMoneyFromDecimal(decimal.RequireFromString("455.00")),
		CustomerName:   "Priya Sharma",
		CustomerEmail:  "priya@example.com",
	}
}

func TestOrderRepositoryCreateWithItems(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)

	order := newTestOrder("order_create_1", "visitor-1", constants.PaymentStatusPending)
	items := []models.OrderItem{
		{
			Name:       "Sourdough Loaf",
			UnitPrice:  models.NewMoneyFromDecimal(decimal.RequireFromString("180.00")),
			Quantity:   2,
			TotalPrice: models.NewMoneyFromDecimal(decimal.RequireFromString("360.00")),
		},
		{
			Name:       "Cinnamon Roll",
			UnitPrice:  models.NewMoneyFromDecimal(decimal.RequireFromString("95.00")),
			Quantity:   1,
			TotalPrice: models.NewMoneyFromDecimal(decimal.RequireFromString("95.00")),
		},
	}
	if err := repo.Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.ID == 0 {
		t.Fatalf("expected order id assigned")
	}

	var count int64
	if err := db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&count).Error; err != nil {
		t.Fatalf("count items failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 items linked to order, got: %d", count)
	}

	got, err := repo.GetByGatewayOrderID("order_create_1")
	if err != nil {
		t.Fatalf("get by gateway order id failed: %v", err)
	}
	if got == nil || len(got.Items) != 2 {
		t.Fatalf("expected preloaded items, got: %+v", got)
	}
}

func TestOrderRepositoryNotFoundReturnsNil(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)

	got, err := repo.GetByGatewayOrderID("order_missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing order, got: %+v", got)
	}

	got, err = repo.GetByIDAndVisitor(42, "visitor-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing visitor order, got: %+v", got)
	}
}

func TestOrderRepositoryMarkPaidConditional(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)
	if err := db.Create(newTestOrder("order_paid_1", "visitor-1", constants.PaymentStatusPending)).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	paidAt := time.Now().UTC().Truncate(time.Second)
	rows, err := repo.MarkPaid("order_paid_1", "pay_1", "priya@example.com", paidAt)
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 row updated, got: %d", rows)
	}

	got, err := repo.GetByGatewayOrderID("order_paid_1")
	if err != nil || got == nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if got.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("expected paid status, got: %s", got.PaymentStatus)
	}
	if got.GatewayPaymentID != "pay_1" || got.SettledEmail != "priya@example.com" {
		t.Fatalf("unexpected settlement fields: %+v", got)
	}
	if got.PaidAt == nil {
		t.Fatalf("expected paid_at set")
	}

	// 二次结算条件不再命中
	rows, err = repo.MarkPaid("order_paid_1", "pay_2", "priya@example.com", time.Now())
	if err != nil {
		t.Fatalf("second mark paid errored: %v", err)
	}
	if rows != 0 {
		t.Fatalf("expected 0 rows on replay, got: %d", rows)
	}
	got, _ = repo.GetByGatewayOrderID("order_paid_1")
	if got.GatewayPaymentID != "pay_1" {
		t.Fatalf("replay must not overwrite payment id, got: %s", got.GatewayPaymentID)
	}
}

func TestOrderRepositoryMarkFailedOnlyPending(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)
	if err := db.Create(newTestOrder("order_fail_1", "visitor-1", constants.PaymentStatusPending)).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	rows, err := repo.MarkFailed("order_fail_1")
	if err != nil {
		t.Fatalf("mark failed errored: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 row updated, got: %d", rows)
	}

	// 已失败订单不可再次流转
	rows, err = repo.MarkFailed("order_fail_1")
	if err != nil {
		t.Fatalf("second mark failed errored: %v", err)
	}
	if rows != 0 {
		t.Fatalf("expected 0 rows on replay, got: %d", rows)
	}

	// 已支付订单不可被置为失败
	paid := newTestOrder("order_fail_2", "visitor-1", constants.PaymentStatusPaid)
	if err := db.Create(paid).Error; err != nil {
		t.Fatalf("create paid order failed: %v", err)
	}
	rows, err = repo.MarkFailed("order_fail_2")
	if err != nil {
		t.Fatalf("mark failed on paid order errored: %v", err)
	}
	if rows != 0 {
		t.Fatalf("paid order must not transition to failed, got rows: %d", rows)
	}
}

func TestOrderRepositoryListBySettledEmail(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)

	first := newTestOrder("order_email_1", "visitor-1", constants.PaymentStatusPaid)
	first.SettledEmail = "arun@example.com"
	second := newTestOrder("order_email_2", "visitor-2", constants.PaymentStatusPaid)
	second.SettledEmail = "arun@example.com"
	other := newTestOrder("order_email_3", "visitor-3", constants.PaymentStatusPaid)
	other.SettledEmail = "someone@example.com"
	for _, order := range []*models.Order{first, second, other} {
		if err := db.Create(order).Error; err != nil {
			t.Fatalf("create order failed: %v", err)
		}
	}

	orders, err := repo.ListBySettledEmail("arun@example.com")
	if err != nil {
		t.Fatalf("list by settled email failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got: %d", len(orders))
	}
	if orders[0].GatewayOrderID != "order_email_2" {
		t.Fatalf("expected newest order first, got: %s", orders[0].GatewayOrderID)
	}
}

func TestOrderRepositoryListAdminFilters(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)

	pending := newTestOrder("order_admin_1", "visitor-a", constants.PaymentStatusPending)
	paid := newTestOrder("order_admin_2", "visitor-a", constants.PaymentStatusPaid)
	paid.SettledEmail = "arun@example.com"
	otherVisitor := newTestOrder("order_admin_3", "visitor-b", constants.PaymentStatusPaid)
	for _, order := range []*models.Order{pending, paid, otherVisitor} {
		if err := db.Create(order).Error; err != nil {
			t.Fatalf("create order failed: %v", err)
		}
	}

	orders, total, err := repo.ListAdmin(OrderListFilter{
		Page:     1,
		PageSize: 10,
	})
	if err != nil {
		t.Fatalf("list admin failed: %v", err)
	}
	if total != 3 || len(orders) != 3 {
		t.Fatalf("expected all 3 orders, got total=%d len=%d", total, len(orders))
	}

	orders, total, err = repo.ListAdmin(OrderListFilter{
		Page:          1,
		PageSize:      10,
		VisitorID:     "visitor-a",
		PaymentStatus: constants.PaymentStatusPaid,
	})
	if err != nil {
		t.Fatalf("filtered list admin failed: %v", err)
	}
	if total != 1 || len(orders) != 1 || orders[0].GatewayOrderID != "order_admin_2" {
		t.Fatalf("unexpected filtered result: total=%d orders=%+v", total, orders)
	}

	orders, total, err = repo.ListAdmin(OrderListFilter{
		Page:         1,
		PageSize:     10,
		SettledEmail: "arun@example.com",
	})
	if err != nil {
		t.Fatalf("settled email filter failed: %v", err)
	}
	if total != 1 || orders[0].GatewayOrderID != "order_admin_2" {
		t.Fatalf("unexpected settled email result: total=%d orders=%+v", total, orders)
	}
}
