package provider

import (
	"github.com/bakehouse-api/internal/cache"
	"github.com/bakehouse-api/internal/config"
	"github.com/bakehouse-api/internal/logger"
	"github.com/bakehouse-api/internal/models"
	"github.com/bakehouse-api/internal/payment/razorpay"
	"github.com/bakehouse-api/internal/queue"
	"github.com/bakehouse-api/internal/repository"
	"github.com/bakehouse-api/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Gateway     *razorpay.Client

	// Repositories
	AdminRepo repository.AdminRepository
	CartRepo  repository.CartRepository
	OrderRepo repository.OrderRepository

	// Services
	AuthService    *service.AuthService
	EmailService   *service.EmailService
	CaptchaService *service.CaptchaService
	CartService    *service.CartService
	OrderService   *service.OrderService
	PaymentService *service.PaymentService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	gatewayCfg := razorpay.Config{
		KeyID:     cfg.Razorpay.KeyID,
		KeySecret: cfg.Razorpay.KeySecret,
		BaseURL:   cfg.Razorpay.BaseURL,
		Currency:  cfg.Razorpay.Currency,
		TimeoutMS: cfg.Razorpay.TimeoutMS,
	}
	var gateway *razorpay.Client
	if err := razorpay.ValidateConfig(&gatewayCfg); err != nil {
		logger.Warnw("provider_gateway_config_incomplete", "error", err)
	} else if client, err := razorpay.NewClient(gatewayCfg); err != nil {
		logger.Errorw("provider_gateway_init_failed", "error", err)
	} else {
		gateway = client
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Gateway:     gateway,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
}

func (c *Container) initServices() {
	// 避免将 typed-nil 指针塞进接口
	var gateway service.PaymentGateway
	if c.Gateway != nil {
		gateway = c.Gateway
	}

	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.CartService = service.NewCartService(c.CartRepo)
	c.OrderService = service.NewOrderService(c.OrderRepo, gateway, c.Config.Razorpay.Currency)
	c.PaymentService = service.NewPaymentService(
		c.OrderRepo,
		c.CartRepo,
		gateway,
		c.QueueClient,
		c.EmailService,
		c.Config.Razorpay.KeySecret,
	)
}
