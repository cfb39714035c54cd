package admin

import (
	"errors"
	"strconv"

	handlershared "github.com/lumimall/internal/http/handlers/shared"
	"github.com/lumimall/internal/http/response"
	"github.com/lumimall/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProductRequest 商品创建/更新请求
type ProductRequest struct {
	Slug        string                 `json:"slug" binding:"required"`
	Title       map[string]interface{} `json:"title" binding:"required"`
	Description map[string]interface{} `json:"description"`
	BasePrice   decimal.Decimal        `json:"base_price"`
	Images      []string               `json:"images"`
	Tags        []string               `json:"tags"`
	IsActive    *bool                  `json:"is_active"`
	SortOrder   int                    `json:"sort_order"`
}

// VariantRequest 规格创建/更新请求
type VariantRequest struct {
	Color         string          `json:"color"`
	Size          string          `json:"size"`
	Price         decimal.Decimal `json:"price"`
	ImportPrice   decimal.Decimal `json:"import_price"`
	StockQuantity int             `json:"stock_quantity"`
	IsActive      *bool           `json:"is_active"`
	SortOrder     int             `json:"sort_order"`
}

func (r ProductRequest) toInput() service.ProductInput {
	return service.ProductInput{
		Slug:            r.Slug,
		TitleJSON:       r.Title,
		DescriptionJSON: r.Description,
		BasePrice:       r.BasePrice,
		Images:          r.Images,
		Tags:            r.Tags,
		IsActive:        r.IsActive,
		SortOrder:       r.SortOrder,
	}
}

func (r VariantRequest) toInput() service.VariantInput {
	return service.VariantInput{
		Color:         r.Color,
		Size:          r.Size,
		Price:         r.Price,
		ImportPrice:   r.ImportPrice,
		StockQuantity: r.StockQuantity,
		IsActive:      r.IsActive,
		SortOrder:     r.SortOrder,
	}
}

func respondProductError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		respondError(c, response.CodeNotFound, "error.product_not_found", nil)
	case errors.Is(err, service.ErrVariantNotFound):
		respondError(c, response.CodeNotFound, "error.variant_not_found", nil)
	case errors.Is(err, service.ErrSlugExists):
		respondError(c, response.CodeConflict, "error.slug_exists", nil)
	case errors.Is(err, service.ErrInvalidInput):
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
	default:
		respondError(c, response.CodeInternal, "error.internal", err)
	}
}

func parsePathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(id), true
}

// ListProducts 后台商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	products, total, err := h.ProductService.ListAdmin(c.Query("search"), page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"items": products}, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetProduct 后台商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parsePathID(c, "id")
	if !ok {
		return
	}
	product, err := h.ProductService.GetAdminByID(id)
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, product)
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.ProductService.Create(req.toInput())
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, product)
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parsePathID(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.ProductService.Update(id, req.toInput())
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, product)
}

// DeleteProduct 删除商品
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parsePathID(c, "id")
	if !ok {
		return
	}
	if err := h.ProductService.Delete(id); err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// CreateVariant 新增规格
func (h *Handler) CreateVariant(c *gin.Context) {
	productID, ok := parsePathID(c, "id")
	if !ok {
		return
	}
	var req VariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	variant, err := h.ProductService.CreateVariant(productID, req.toInput())
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, variant)
}

// UpdateVariant 更新规格
func (h *Handler) UpdateVariant(c *gin.Context) {
	productID, ok := parsePathID(c, "id")
	if !ok {
		return
	}
	variantID, ok := parsePathID(c, "variant_id")
	if !ok {
		return
	}
	var req VariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	variant, err := h.ProductService.UpdateVariant(productID, variantID, req.toInput())
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, variant)
}

// DeleteVariant 删除规格
func (h *Handler) DeleteVariant(c *gin.Context) {
	productID, ok := parsePathID(c, "id")
	if !ok {
		return
	}
	variantID, ok := parsePathID(c, "variant_id")
	if !ok {
		return
	}
	if err := h.ProductService.DeleteVariant(productID, variantID); err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
