package provider

import (
	"github.com/lumimall/internal/cache"
	"github.com/lumimall/internal/config"
	"github.com/lumimall/internal/logger"
	"github.com/lumimall/internal/models"
	"github.com/lumimall/internal/queue"
	"github.com/lumimall/internal/repository"
	"github.com/lumimall/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo     repository.AdminRepository
	UserRepo      repository.UserRepository
	ProductRepo   repository.ProductRepository
	VariantRepo   repository.VariantRepository
	PromotionRepo repository.PromotionRepository
	CartRepo      repository.CartRepository
	OrderRepo     repository.OrderRepository

	// Services
	AuthService      *service.AuthService
	ProductService   *service.ProductService
	PromotionService *service.PromotionService
	PricingService   *service.PricingService
	CouponService    *service.CouponService
	CartService      *service.CartService
	OrderService     *service.OrderService
	SpinService      *service.SpinService
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

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
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
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.VariantRepo = repository.NewVariantRepository(db)
	c.PromotionRepo = repository.NewPromotionRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
}

func (c *Container) initServices() {
	currency := c.Config.Order.Currency

	c.AuthService = service.NewAuthService(c.AdminRepo, c.UserRepo, c.Config.JWT, c.Config.UserJWT)
	c.ProductService = service.NewProductService(c.ProductRepo, c.VariantRepo)
	c.PromotionService = service.NewPromotionService(c.PromotionRepo)
	c.PricingService = service.NewPricingService(c.PromotionRepo)
	c.CouponService = service.NewCouponService(c.PromotionRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo, c.VariantRepo, c.UserRepo, c.PricingService, currency)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.ProductRepo, c.VariantRepo, c.PromotionRepo, c.CartRepo, c.UserRepo, c.PricingService, c.CouponService, c.QueueClient, currency)

	spinService, err := service.NewSpinService(c.UserRepo, c.PromotionRepo, c.QueueClient, c.Config.Spin, nil)
	if err != nil {
		logger.Errorw("provider_init_spin_service_failed", "error", err)
		panic(err)
	}
	c.SpinService = spinService
}
