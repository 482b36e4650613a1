package main

import (
	"fmt"
	"time"

	"github.com/bakehouse-api/internal/config"
	"github.com/bakehouse-api/internal/constants"
	"github.com/bakehouse-api/internal/logger"
	"github.com/bakehouse-api/internal/models"

	"github.com/shopspring/decimal"
)

// 演示访客 ID，前端调试时可直接写入 bh_uuid Cookie 使用
const (
	demoVisitorCart  = "11111111-1111-4111-8111-111111111111"
	demoVisitorOrder = "22222222-2222-4222-8222-222222222222"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 演示购物车
	cartItems := []models.CartItem{
		{
			Name:      "Sourdough Loaf",
			UnitPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(180.00)),
			Quantity:  1,
			ImageURL:  "https://images.unsplash.com/photo-1585478259715-876acc5be8eb?w=800",
		},
		{
			Name:      "Almond Croissant",
			UnitPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(105.00)),
			Quantity:  2,
			ImageURL:  "https://images.unsplash.com/photo-1555507036-ab1f4038808a?w=800",
		},
		{
			Name:      "Cinnamon Roll",
			UnitPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(95.00)),
			Quantity:  3,
			ImageURL:  "https://images.unsplash.com/photo-1509365465985-25d11c17e812?w=800",
		},
	}

	var cart models.Cart
	if err := models.DB.Where("visitor_id = ?", demoVisitorCart).First(&cart).Error; err != nil {
		cart = models.Cart{VisitorID: demoVisitorCart}
		if err := models.DB.Create(&cart).Error; err != nil {
			stdLog.Fatalf("Failed to create demo cart: %v", err)
		}
		stdLog.Printf("Created demo cart for visitor %s", demoVisitorCart)
	} else {
		stdLog.Printf("Demo cart already exists for visitor %s", demoVisitorCart)
	}

	for _, item := range cartItems {
		var existing models.CartItem
		if err := models.DB.Where("cart_id = ? AND name = ?", cart.ID, item.Name).First(&existing).Error; err != nil {
			item.CartID = cart.ID
			if err := models.DB.Create(&item).Error; err != nil {
				stdLog.Printf("Failed to create cart item %s: %v", item.Name, err)
			} else {
				stdLog.Printf("Created cart item: %s", item.Name)
			}
		} else {
			existing.UnitPrice = item.UnitPrice
			existing.Quantity = item.Quantity
			existing.ImageURL = item.ImageURL
			if err := models.DB.Save(&existing).Error; err != nil {
				stdLog.Printf("Failed to update cart item %s: %v", item.Name, err)
			} else {
				stdLog.Printf("Updated cart item: %s", item.Name)
			}
		}
	}

	// 演示订单：一单待支付、一单已支付，便于后台筛选联调
	now := time.Now()
	paidAt := now.Add(-2 * time.Hour)
	orders := []models.Order{
		{
			VisitorID:      demoVisitorOrder,
			GatewayOrderID: "order_seed_pending_001",
			CustomerName:   "Priya Sharma",
			CustomerEmail:  "priya@example.com",
			CustomerPhone:  "+91-9800000001",
			AddressLine:    "14 Lakeview Road",
			City:           "Pune",
			PostalCode:     "411001",
			Country:        constants.CustomerCountryDefault,
			Currency:       constants.GatewayCurrencyDefault,
			TotalAmount:    models.NewMoneyFromDecimal(decimal.NewFromFloat(540.00)),
			PaymentStatus:  constants.PaymentStatusPending,
			Items: []models.OrderItem{
				{
					Name:       "Sourdough Loaf",
					UnitPrice:  models.NewMoneyFromDecimal(decimal.NewFromFloat(180.00)),
					Quantity:   3,
					TotalPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(540.00)),
				},
			},
		},
		{
			VisitorID:        demoVisitorOrder,
			GatewayOrderID:   "order_seed_paid_001",
			GatewayPaymentID: "pay_seed_001",
			CustomerName:     "Arun Mehta",
			CustomerEmail:    "Arun@Example.com",
			CustomerPhone:    "+91-9800000002",
			AddressLine:      "7 Hill Crest Avenue",
			City:             "Mumbai",
			PostalCode:       "400001",
			Country:          constants.CustomerCountryDefault,
			Currency:         constants.GatewayCurrencyDefault,
			TotalAmount:      models.NewMoneyFromDecimal(decimal.NewFromFloat(315.00)),
			PaymentStatus:    constants.PaymentStatusPaid,
			SettledEmail:     "arun@example.com",
			PaidAt:           &paidAt,
			Items: []models.OrderItem{
				{
					Name:       "Almond Croissant",
					UnitPrice:  models.NewMoneyFromDecimal(decimal.NewFromFloat(105.00)),
					Quantity:   3,
					TotalPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(315.00)),
				},
			},
		},
	}

	for _, order := range orders {
		var existing models.Order
		if err := models.DB.Where("gateway_order_id = ?", order.GatewayOrderID).First(&existing).Error; err != nil {
			if err := models.DB.Create(&order).Error; err != nil {
				stdLog.Printf("Failed to create order %s: %v", order.GatewayOrderID, err)
			} else {
				stdLog.Printf("Created order: %s", order.GatewayOrderID)
			}
		} else {
			stdLog.Printf("Order already exists: %s", order.GatewayOrderID)
		}
	}

	fmt.Println("\nDemo data created:")
	fmt.Printf("- Cart visitor: %s (%d items)\n", demoVisitorCart, len(cartItems))
	fmt.Printf("- Order visitor: %s (1 pending + 1 paid)\n", demoVisitorOrder)
}
