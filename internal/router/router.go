package router

import (
	"fmt"
	"strings"

	"github.com/lumimall/internal/cache"
	"github.com/lumimall/internal/config"
	"github.com/lumimall/internal/constants"
	adminhandlers "github.com/lumimall/internal/http/handlers/admin"
	publichandlers "github.com/lumimall/internal/http/handlers/public"
	"github.com/lumimall/internal/logger"
	"github.com/lumimall/internal/provider"

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
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
	}
	spinRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:spin", redisPrefix),
		WindowSeconds: 60,
		MaxRequests:   30,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/products", publicHandler.ListProducts)
			public.GET("/products/:slug", publicHandler.GetProduct)
			public.GET("/spin/prizes", publicHandler.GetSpinPrizes)
			public.POST("/coupons/validate", publicHandler.ValidateCoupon)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.Me)
			user.GET("/me/cart", publicHandler.GetCart)
			user.POST("/me/cart/items", publicHandler.AddCartItem)
			user.PUT("/me/cart/items/:line_id", publicHandler.UpdateCartItem)
			user.DELETE("/me/cart/items/:line_id", publicHandler.DeleteCartItem)
			user.POST("/me/orders", publicHandler.PlaceOrder)
			user.GET("/me/orders", publicHandler.ListOrders)
			user.GET("/me/orders/:id", publicHandler.GetOrder)
			user.POST("/me/orders/:id/cancel", publicHandler.CancelOrder)
			user.POST("/me/spin", RateLimitMiddleware(redisClient, spinRule, KeyByIP), publicHandler.Spin)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.Login)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
			{
				authorized.GET("/me", adminHandler.Me)

				// 商品管理
				authorized.GET("/products", adminHandler.ListProducts)
				authorized.GET("/products/:id", adminHandler.GetProduct)
				authorized.POST("/products", adminHandler.CreateProduct)
				authorized.PUT("/products/:id", adminHandler.UpdateProduct)
				authorized.DELETE("/products/:id", adminHandler.DeleteProduct)
				authorized.POST("/products/:id/variants", adminHandler.CreateVariant)
				authorized.PUT("/products/:id/variants/:variant_id", adminHandler.UpdateVariant)
				authorized.DELETE("/products/:id/variants/:variant_id", adminHandler.DeleteVariant)

				// 促销与优惠码管理
				authorized.GET("/promotions", adminHandler.ListPromotions)
				authorized.GET("/promotions/:id", adminHandler.GetPromotion)
				authorized.POST("/promotions", adminHandler.CreatePromotion)
				authorized.PUT("/promotions/:id", adminHandler.UpdatePromotion)
				authorized.DELETE("/promotions/:id", adminHandler.DeletePromotion)

				// 订单管理
				authorized.GET("/orders", adminHandler.ListOrders)
				authorized.GET("/orders/:id", adminHandler.GetOrder)
				authorized.PATCH("/orders/:id", adminHandler.UpdateOrderStatus)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
