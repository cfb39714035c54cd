package public

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lumimall/internal/constants"
	"github.com/lumimall/internal/models"
	"github.com/lumimall/internal/provider"
	"github.com/lumimall/internal/repository"
	"github.com/lumimall/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newCatalogHandler(t *testing.T, name string) (*Handler, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	models.DB = db
	if err := models.AutoMigrate(); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	productRepo := repository.NewProductRepository(db)
	variantRepo := repository.NewVariantRepository(db)
	promotionRepo := repository.NewPromotionRepository(db)
	container := &provider.Container{
		ProductService: service.NewProductService(productRepo, variantRepo),
		PricingService: service.NewPricingService(promotionRepo),
	}
	return New(container), db
}

// 商品详情必须返回当前生效价，而不是原始标价。
func TestGetProductReturnsEffectivePrice(t *testing.T) {
	h, db := newCatalogHandler(t, "catalog_effective")

	product := &models.Product{
		Slug:      "sale-tee",
		TitleJSON: models.JSON{"zh-CN": "促销 T 恤"},
		BasePrice: models.NewMoneyFromInt(1000000),
		IsActive:  true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	variant := &models.ProductVariant{
		ProductID:     product.ID,
		Color:         "黑色",
		Size:          "M",
		Price:         models.NewMoneyFromInt(1200000),
		ImportPrice:   models.NewMoneyFromInt(500000),
		StockQuantity: 5,
		IsActive:      true,
	}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	promo := &models.Promotion{
		Name:            "九折促销",
		Kind:            constants.PromotionKindPercent,
		DiscountPercent: models.NewMoneyFromInt(10),
		ItemIDs:         models.UintArray{product.ID},
		IsActive:        true,
	}
	if err := db.Create(promo).Error; err != nil {
		t.Fatalf("create promotion failed: %v", err)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v1/public/products/sale-tee", nil)
	c.Params = gin.Params{{Key: "slug", Value: "sale-tee"}}
	h.GetProduct(c)

	var resp struct {
		StatusCode int         `json:"status_code"`
		Data       ProductView `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 0 {
		t.Fatalf("expected success response, got %d: %s", resp.StatusCode, w.Body.String())
	}
	if !resp.Data.Price.Decimal.Equal(decimal.NewFromInt(900000)) {
		t.Fatalf("expected effective price 900000, got %s", resp.Data.Price.String())
	}
	if !resp.Data.BasePrice.Decimal.Equal(decimal.NewFromInt(1000000)) {
		t.Fatalf("expected base price 1000000, got %s", resp.Data.BasePrice.String())
	}
	if len(resp.Data.Variants) != 1 {
		t.Fatalf("expected 1 variant, got %d", len(resp.Data.Variants))
	}
	if !resp.Data.Variants[0].Price.Decimal.Equal(decimal.NewFromInt(1080000)) {
		t.Fatalf("expected variant effective price 1080000, got %s", resp.Data.Variants[0].Price.String())
	}
	if !resp.Data.Variants[0].OriginalPrice.Decimal.Equal(decimal.NewFromInt(1200000)) {
		t.Fatalf("expected variant original price 1200000, got %s", resp.Data.Variants[0].OriginalPrice.String())
	}
}

// 没有适用促销时生效价等于标价。
func TestGetProductWithoutPromotionKeepsBasePrice(t *testing.T) {
	h, db := newCatalogHandler(t, "catalog_plain")

	product := &models.Product{
		Slug:      "plain-tote",
		TitleJSON: models.JSON{"zh-CN": "帆布包"},
		BasePrice: models.NewMoneyFromInt(250000),
		IsActive:  true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v1/public/products/plain-tote", nil)
	c.Params = gin.Params{{Key: "slug", Value: "plain-tote"}}
	h.GetProduct(c)

	var resp struct {
		StatusCode int         `json:"status_code"`
		Data       ProductView `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 0 {
		t.Fatalf("expected success response, got %d: %s", resp.StatusCode, w.Body.String())
	}
	if !resp.Data.Price.Decimal.Equal(decimal.NewFromInt(250000)) {
		t.Fatalf("expected price 250000, got %s", resp.Data.Price.String())
	}
}
