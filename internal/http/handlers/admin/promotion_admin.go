package admin

import (
	"errors"
	"strconv"
	"time"

	handlershared "github.com/lumimall/internal/http/handlers/shared"
	"github.com/lumimall/internal/http/response"
	"github.com/lumimall/internal/repository"
	"github.com/lumimall/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PromotionRequest 促销创建/更新请求
type PromotionRequest struct {
	Name            string          `json:"name" binding:"required"`
	Kind            string          `json:"kind" binding:"required"`
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	MinOrderValue   decimal.Decimal `json:"min_order_value"`
	MaxDiscountCap  decimal.Decimal `json:"max_discount_cap"`
	UsageLimit      int             `json:"usage_limit"`
	ItemIDs         []uint          `json:"item_ids"`
	StartsAt        *time.Time      `json:"starts_at"`
	EndsAt          *time.Time      `json:"ends_at"`
	IsActive        *bool           `json:"is_active"`
}

func (r PromotionRequest) toInput() service.PromotionInput {
	return service.PromotionInput{
		Name:            r.Name,
		Kind:            r.Kind,
		Code:            r.Code,
		DiscountPercent: r.DiscountPercent,
		DiscountAmount:  r.DiscountAmount,
		MinOrderValue:   r.MinOrderValue,
		MaxDiscountCap:  r.MaxDiscountCap,
		UsageLimit:      r.UsageLimit,
		ItemIDs:         r.ItemIDs,
		StartsAt:        r.StartsAt,
		EndsAt:          r.EndsAt,
		IsActive:        r.IsActive,
	}
}

func respondPromotionError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrPromotionInvalid) {
		respondError(c, response.CodeBadRequest, "error.promotion_invalid", nil)
		return
	}
	respondError(c, response.CodeInternal, "error.internal", err)
}

// ListPromotions 促销列表
func (h *Handler) ListPromotions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.PromotionListFilter{
		Page:     page,
		PageSize: pageSize,
		Kind:     c.Query("kind"),
		Code:     c.Query("code"),
	}
	if raw := c.Query("is_active"); raw != "" {
		active := raw == "true" || raw == "1"
		filter.IsActive = &active
	}

	promotions, total, err := h.PromotionService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"items": promotions}, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetPromotion 促销详情
func (h *Handler) GetPromotion(c *gin.Context) {
	id, ok := parsePathID(c, "id")
	if !ok {
		return
	}
	promotion, err := h.PromotionService.GetByID(id)
	if err != nil {
		respondPromotionError(c, err)
		return
	}
	response.Success(c, promotion)
}

// CreatePromotion 创建促销
func (h *Handler) CreatePromotion(c *gin.Context) {
	var req PromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	promotion, err := h.PromotionService.Create(req.toInput())
	if err != nil {
		respondPromotionError(c, err)
		return
	}
	response.Success(c, promotion)
}

// UpdatePromotion 更新促销
func (h *Handler) UpdatePromotion(c *gin.Context) {
	id, ok := parsePathID(c, "id")
	if !ok {
		return
	}
	var req PromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	promotion, err := h.PromotionService.Update(id, req.toInput())
	if err != nil {
		respondPromotionError(c, err)
		return
	}
	response.Success(c, promotion)
}

// DeletePromotion 删除促销
func (h *Handler) DeletePromotion(c *gin.Context) {
	id, ok := parsePathID(c, "id")
	if !ok {
		return
	}
	if err := h.PromotionService.Delete(id); err != nil {
		respondPromotionError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
