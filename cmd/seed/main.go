package main

import (
	"fmt"
	"time"

	"github.com/lumimall/internal/config"
	"github.com/lumimall/internal/logger"
	"github.com/lumimall/internal/models"

	"golang.org/x/crypto/bcrypt"
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

	// 添加商品（含规格）
	type variantSeed struct {
		Color       string
		Size        string
		Price       int64
		ImportPrice int64
		Stock       int
	}
	type productSeed struct {
		Product  models.Product
		Variants []variantSeed
	}

	products := []productSeed{
		{
			Product: models.Product{
				TitleJSON: models.JSON(map[string]interface{}{
					"zh-CN": "基础款纯棉 T 恤",
					"vi-VN": "Áo thun cotton cơ bản",
					"en-US": "Basic Cotton Tee",
				}),
				Slug: "basic-cotton-tee",
				DescriptionJSON: models.JSON(map[string]interface{}{
					"zh-CN": "百搭纯棉面料，春夏必备。",
					"vi-VN": "Chất liệu cotton dễ phối, thiết yếu cho xuân hè.",
					"en-US": "Versatile cotton fabric, a spring and summer staple.",
				}),
				BasePrice: models.NewMoneyFromInt(159000),
				Images: models.StringArray([]string{
					"https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=800",
				}),
				Tags:      models.StringArray([]string{"Tee", "Cotton", "Basics"}),
				IsActive:  true,
				SortOrder: 300,
			},
			Variants: []variantSeed{
				{Color: "白色", Size: "M", Price: 159000, ImportPrice: 80000, Stock: 40},
				{Color: "白色", Size: "L", Price: 159000, ImportPrice: 80000, Stock: 35},
				{Color: "黑色", Size: "M", Price: 169000, ImportPrice: 85000, Stock: 25},
				{Color: "黑色", Size: "L", Price: 169000, ImportPrice: 85000, Stock: 18},
			},
		},
		{
			Product: models.Product{
				TitleJSON: models.JSON(map[string]interface{}{
					"zh-CN": "宽松直筒牛仔裤",
					"vi-VN": "Quần jean ống đứng rộng",
					"en-US": "Relaxed Straight Jeans",
				}),
				Slug: "relaxed-straight-jeans",
				DescriptionJSON: models.JSON(map[string]interface{}{
					"zh-CN": "复古水洗，舒适直筒剪裁。",
					"vi-VN": "Wash cổ điển, dáng ống đứng thoải mái.",
					"en-US": "Vintage wash with a comfortable straight cut.",
				}),
				BasePrice: models.NewMoneyFromInt(459000),
				Images: models.StringArray([]string{
					"https://images.unsplash.com/photo-1542272604-787c3835535d?w=800",
				}),
				Tags:      models.StringArray([]string{"Jeans", "Denim"}),
				IsActive:  true,
				SortOrder: 280,
			},
			Variants: []variantSeed{
				{Color: "浅蓝", Size: "29", Price: 459000, ImportPrice: 240000, Stock: 12},
				{Color: "浅蓝", Size: "31", Price: 459000, ImportPrice: 240000, Stock: 9},
				{Color: "深蓝", Size: "31", Price: 479000, ImportPrice: 250000, Stock: 6},
			},
		},
		{
			Product: models.Product{
				TitleJSON: models.JSON(map[string]interface{}{
					"zh-CN": "帆布托特包",
					"vi-VN": "Túi tote vải canvas",
					"en-US": "Canvas Tote Bag",
				}),
				Slug: "canvas-tote-bag",
				DescriptionJSON: models.JSON(map[string]interface{}{
					"zh-CN": "大容量加厚帆布，单一款式。",
					"vi-VN": "Canvas dày dặn sức chứa lớn, một kiểu duy nhất.",
					"en-US": "Roomy heavyweight canvas, single style.",
				}),
				BasePrice: models.NewMoneyFromInt(209000),
				Images: models.StringArray([]string{
					"https://images.unsplash.com/photo-1544816155-12df9643f363?w=800",
				}),
				Tags:      models.StringArray([]string{"Bag", "Canvas"}),
				IsActive:  true,
				SortOrder: 260,
			},
		},
		{
			Product: models.Product{
				TitleJSON: models.JSON(map[string]interface{}{
					"zh-CN": "演示商品-库存紧张",
					"vi-VN": "Sản phẩm demo - sắp hết hàng",
					"en-US": "Demo Product - Low Stock",
				}),
				Slug: "demo-low-stock",
				DescriptionJSON: models.JSON(map[string]interface{}{
					"zh-CN": "用于前台库存徽章与并发下单演示。",
					"vi-VN": "Dùng để demo nhãn tồn kho và đặt hàng đồng thời.",
					"en-US": "For stock badge and concurrent checkout demos.",
				}),
				BasePrice: models.NewMoneyFromInt(99000),
				Images: models.StringArray([]string{
					"https://images.unsplash.com/photo-1556905055-8f358a7a47b2?w=800",
				}),
				Tags:      models.StringArray([]string{"库存演示", "Low"}),
				IsActive:  true,
				SortOrder: 240,
			},
			Variants: []variantSeed{
				{Color: "灰色", Size: "F", Price: 99000, ImportPrice: 45000, Stock: 1},
			},
		},
	}

	for _, seed := range products {
		prod := seed.Product
		var existing models.Product
		if err := models.DB.Where("slug = ?", prod.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&prod).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", prod.Slug, err)
				continue
			}
			stdLog.Printf("Created product: %s", prod.Slug)
		} else {
			existing.TitleJSON = prod.TitleJSON
			existing.DescriptionJSON = prod.DescriptionJSON
			existing.BasePrice = prod.BasePrice
			existing.Images = prod.Images
			existing.Tags = prod.Tags
			existing.IsActive = prod.IsActive
			existing.SortOrder = prod.SortOrder
			if err := models.DB.Save(&existing).Error; err != nil {
				stdLog.Printf("Failed to update product %s: %v", prod.Slug, err)
				continue
			}
			prod = existing
			stdLog.Printf("Updated product: %s", prod.Slug)
		}

		for _, v := range seed.Variants {
			var existingVariant models.ProductVariant
			err := models.DB.Where("product_id = ? AND color = ? AND size = ?", prod.ID, v.Color, v.Size).First(&existingVariant).Error
			if err != nil {
				variant := models.ProductVariant{
					ProductID:     prod.ID,
					Color:         v.Color,
					Size:          v.Size,
					Price:         models.NewMoneyFromInt(v.Price),
					ImportPrice:   models.NewMoneyFromInt(v.ImportPrice),
					StockQuantity: v.Stock,
					IsActive:      true,
				}
				if err := models.DB.Create(&variant).Error; err != nil {
					stdLog.Printf("Failed to create variant %s %s/%s: %v", prod.Slug, v.Color, v.Size, err)
				}
				continue
			}
			existingVariant.Price = models.NewMoneyFromInt(v.Price)
			existingVariant.ImportPrice = models.NewMoneyFromInt(v.ImportPrice)
			existingVariant.StockQuantity = v.Stock
			existingVariant.IsActive = true
			if err := models.DB.Save(&existingVariant).Error; err != nil {
				stdLog.Printf("Failed to update variant %s %s/%s: %v", prod.Slug, v.Color, v.Size, err)
			}
		}
	}

	// 添加促销与优惠码
	now := time.Now()
	flashStart := now.Add(-24 * time.Hour)
	flashEnd := now.AddDate(0, 0, 7)
	couponEnd := now.AddDate(0, 1, 0)

	var teeProduct models.Product
	var teeIDs models.UintArray
	if err := models.DB.Where("slug = ?", "basic-cotton-tee").First(&teeProduct).Error; err == nil {
		teeIDs = models.UintArray{teeProduct.ID}
	}
	var jeansProduct models.Product
	var jeansIDs models.UintArray
	if err := models.DB.Where("slug = ?", "relaxed-straight-jeans").First(&jeansProduct).Error; err == nil {
		jeansIDs = models.UintArray{jeansProduct.ID}
	}

	promotions := []models.Promotion{
		{
			Name:            "T 恤限时 9 折",
			Kind:            "percent",
			DiscountPercent: models.NewMoneyFromInt(10),
			ItemIDs:         teeIDs,
			StartsAt:        &flashStart,
			EndsAt:          &flashEnd,
			IsActive:        true,
		},
		{
			Name:           "牛仔裤立减 20000",
			Kind:           "fixed",
			DiscountAmount: models.NewMoneyFromInt(20000),
			ItemIDs:        jeansIDs,
			StartsAt:       &flashStart,
			EndsAt:         &flashEnd,
			IsActive:       true,
		},
		{
			Name:            "新客 8 折券",
			Kind:            "coupon",
			Code:            "WELCOME20",
			DiscountPercent: models.NewMoneyFromInt(20),
			MinOrderValue:   models.NewMoneyFromInt(500000),
			MaxDiscountCap:  models.NewMoneyFromInt(100000),
			UsageLimit:      200,
			EndsAt:          &couponEnd,
			IsActive:        true,
		},
	}

	for _, promo := range promotions {
		var existing models.Promotion
		query := models.DB.Where("name = ?", promo.Name)
		if promo.Code != "" {
			query = models.DB.Where("code = ?", promo.Code)
		}
		if err := query.First(&existing).Error; err != nil {
			if err := models.DB.Create(&promo).Error; err != nil {
				stdLog.Printf("Failed to create promotion %s: %v", promo.Name, err)
			} else {
				stdLog.Printf("Created promotion: %s", promo.Name)
			}
		} else {
			stdLog.Printf("Promotion already exists: %s", promo.Name)
		}
	}

	// 添加演示用户（带抽奖次数）
	demoEmail := "demo@lumimall.dev"
	var existingUser models.User
	if err := models.DB.Where("email = ?", demoEmail).First(&existingUser).Error; err != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte("demo123456"), bcrypt.DefaultCost)
		if err != nil {
			stdLog.Printf("Failed to hash demo user password: %v", err)
		} else {
			user := models.User{
				Email:        demoEmail,
				PasswordHash: string(hash),
				DisplayName:  "Demo",
				Locale:       "vi-VN",
				Status:       "active",
				SpinCredits:  3,
			}
			if err := models.DB.Create(&user).Error; err != nil {
				stdLog.Printf("Failed to create demo user: %v", err)
			} else {
				stdLog.Printf("Created demo user: %s", demoEmail)
			}
		}
	} else {
		stdLog.Printf("Demo user already exists: %s", demoEmail)
	}

	fmt.Println("\n✅ Seed data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 4 Products (含规格与库存演示商品)")
	fmt.Println("- 3 Promotions (percent + fixed + coupon)")
	fmt.Println("- 1 Demo user (demo@lumimall.dev / demo123456, 3 spin credits)")
}
