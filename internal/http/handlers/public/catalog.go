package public

import (
	"errors"
	"strconv"
	"strings"
	"time"

	handlershared "github.com/lumimall/internal/http/handlers/shared"
	"github.com/lumimall/internal/http/response"
	"github.com/lumimall/internal/models"
	"github.com/lumimall/internal/service"

	"github.com/gin-gonic/gin"
)

// ProductVariantView 商品规格响应（不暴露成本价）
type ProductVariantView struct {
	ID            uint         `json:"id"`
	Color         string       `json:"color"`
	Size          string       `json:"size"`
	Label         string       `json:"label"`
	Price         models.Money `json:"price"`          // 当前生效价
	OriginalPrice models.Money `json:"original_price"` // 促销前价
	StockQuantity int          `json:"stock_quantity"`
	IsActive      bool         `json:"is_active"`
}

// ProductView 商品响应
type ProductView struct {
	ID          uint                 `json:"id"`
	Slug        string               `json:"slug"`
	Title       models.JSON          `json:"title"`
	Description models.JSON          `json:"description"`
	BasePrice   models.Money         `json:"base_price"`
	Price       models.Money         `json:"price"` // 当前生效价（无规格购买时）
	Images      models.StringArray   `json:"images"`
	Tags        models.StringArray   `json:"tags"`
	Variants    []ProductVariantView `json:"variants"`
}

// buildProductView 组装商品视图，价格逐项走价格解析得到当前生效价。
// 详情缓存只存原始商品数据，价格每次请求现算，促销窗口变化不会读到过期价。
func (h *Handler) buildProductView(product *models.Product, now time.Time) (ProductView, error) {
	baseQuote, err := h.PricingService.ResolvePrice(product, nil, now)
	if err != nil {
		return ProductView{}, err
	}

	variants := make([]ProductVariantView, 0, len(product.Variants))
	for i := range product.Variants {
		v := product.Variants[i]
		if !v.IsActive {
			continue
		}
		quote, err := h.PricingService.ResolvePrice(product, &v, now)
		if err != nil {
			return ProductView{}, err
		}
		variants = append(variants, ProductVariantView{
			ID:            v.ID,
			Color:         v.Color,
			Size:          v.Size,
			Label:         v.Label(),
			Price:         quote.UnitPrice,
			OriginalPrice: quote.OriginalPrice,
			StockQuantity: v.StockQuantity,
			IsActive:      v.IsActive,
		})
	}
	return ProductView{
		ID:          product.ID,
		Slug:        product.Slug,
		Title:       product.TitleJSON,
		Description: product.DescriptionJSON,
		BasePrice:   product.BasePrice,
		Price:       baseQuote.UnitPrice,
		Images:      product.Images,
		Tags:        product.Tags,
		Variants:    variants,
	}, nil
}

// ListProducts 公开商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)
	search := strings.TrimSpace(c.Query("search"))

	products, total, err := h.ProductService.ListPublic(search, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	now := time.Now()
	views := make([]ProductView, 0, len(products))
	for i := range products {
		view, err := h.buildProductView(&products[i], now)
		if err != nil {
			respondError(c, response.CodeInternal, "error.internal", err)
			return
		}
		views = append(views, view)
	}
	response.SuccessWithPage(c, gin.H{"items": views}, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetProduct 公开商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	product, err := h.ProductService.GetPublicBySlug(slug)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "error.product_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	view, err := h.buildProductView(product, time.Now())
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, view)
}
