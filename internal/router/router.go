package router

import (
	"fmt"
	"strings"

	"github.com/bakehouse-api/internal/cache"
	"github.com/bakehouse-api/internal/config"
	"github.com/bakehouse-api/internal/constants"
	adminhandlers "github.com/bakehouse-api/internal/http/handlers/admin"
	publichandlers "github.com/bakehouse-api/internal/http/handlers/public"
	"github.com/bakehouse-api/internal/logger"
	"github.com/bakehouse-api/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", redisPrefix),
		WindowSeconds: cfg.Security.CheckoutRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CheckoutRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.CheckoutRateLimit.BlockSeconds,
		MessageKey:    "error.rate_limited",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 访客接口（购物车、下单、支付、订单查询）
		storefront := apiV1.Group("")
		storefront.Use(VisitorIdentityMiddleware(cfg.Visitor))
		{
			storefront.GET("/cart", publicHandler.GetCart)
			storefront.POST("/cart/items", publicHandler.AddCartItems)
			storefront.PUT("/cart/items/:id", publicHandler.UpdateCartItem)
			storefront.DELETE("/cart/items/:id", publicHandler.RemoveCartItem)

			storefront.POST("/checkout", RateLimitMiddleware(redisClient, checkoutRule, KeyByVisitor), publicHandler.Checkout)
			storefront.POST("/payments/verify", publicHandler.VerifyPayment)

			storefront.GET("/orders", publicHandler.ListMyOrders)
			storefront.GET("/orders/by-email", publicHandler.ListOrdersByEmail)
			storefront.GET("/orders/:id", publicHandler.GetMyOrder)
		}

		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/captcha", publicHandler.GetCaptchaConfig)
			public.GET("/captcha/image", publicHandler.GetImageCaptcha)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
			{
				authorized.GET("/profile", adminHandler.GetProfile)
				authorized.GET("/orders", adminHandler.AdminListOrders)
				authorized.GET("/orders/:id", adminHandler.AdminGetOrder)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
