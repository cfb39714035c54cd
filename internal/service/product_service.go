package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lumimall/internal/cache"
	"github.com/lumimall/internal/logger"
	"github.com/lumimall/internal/models"
	"github.com/lumimall/internal/repository"

	"github.com/shopspring/decimal"
)

const productDetailCacheTTL = time.Minute

// ProductService 商品业务服务
type ProductService struct {
	repo        repository.ProductRepository
	variantRepo repository.VariantRepository
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository, variantRepo repository.VariantRepository) *ProductService {
	return &ProductService{repo: repo, variantRepo: variantRepo}
}

// ProductInput 创建/更新商品输入
type ProductInput struct {
	Slug            string
	TitleJSON       map[string]interface{}
	DescriptionJSON map[string]interface{}
	BasePrice       decimal.Decimal
	Images          []string
	Tags            []string
	IsActive        *bool
	SortOrder       int
}

// VariantInput 创建/更新规格输入
type VariantInput struct {
	Color         string
	Size          string
	Price         decimal.Decimal
	ImportPrice   decimal.Decimal
	StockQuantity int
	IsActive      *bool
	SortOrder     int
}

// ListPublic 获取公开商品列表
func (s *ProductService) ListPublic(search string, page, pageSize int) ([]models.Product, int64, error) {
	filter := repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		Search:       search,
		OnlyActive:   true,
		WithVariants: true,
	}
	return s.repo.List(filter)
}

// GetPublicBySlug 获取公开商品详情，短 TTL 缓存，后台变更时主动失效。
func (s *ProductService) GetPublicBySlug(slug string) (*models.Product, error) {
	ctx := context.Background()
	cacheKey := productDetailCacheKey(slug)

	var cached models.Product
	if hit, err := cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	product, err := s.repo.GetBySlug(slug, true)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if err := cache.SetJSON(ctx, cacheKey, product, productDetailCacheTTL); err != nil {
		logger.Warnw("product_detail_cache_set_failed", "slug", slug, "error", err)
	}
	return product, nil
}

func productDetailCacheKey(slug string) string {
	return fmt.Sprintf("product:detail:%s", strings.TrimSpace(slug))
}

// invalidateProductCache 后台商品或规格变更后清理详情缓存
func (s *ProductService) invalidateProductCache(slug string) {
	if err := cache.Del(context.Background(), productDetailCacheKey(slug)); err != nil {
		logger.Warnw("product_detail_cache_del_failed", "slug", slug, "error", err)
	}
}

// ListAdmin 获取后台商品列表
func (s *ProductService) ListAdmin(search string, page, pageSize int) ([]models.Product, int64, error) {
	filter := repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		Search:       search,
		OnlyActive:   false,
		WithVariants: true,
	}
	return s.repo.List(filter)
}

// GetAdminByID 获取后台商品详情
func (s *ProductService) GetAdminByID(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create 创建商品
func (s *ProductService) Create(input ProductInput) (*models.Product, error) {
	slug := strings.TrimSpace(input.Slug)
	if slug == "" || len(input.TitleJSON) == 0 {
		return nil, ErrInvalidInput
	}
	if input.BasePrice.LessThan(decimal.Zero) {
		return nil, ErrInvalidInput
	}
	count, err := s.repo.CountBySlug(slug, nil)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugExists
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	product := &models.Product{
		Slug:            slug,
		TitleJSON:       models.JSON(input.TitleJSON),
		DescriptionJSON: models.JSON(input.DescriptionJSON),
		BasePrice:       models.NewMoneyFromDecimal(input.BasePrice),
		Images:          models.StringArray(input.Images),
		Tags:            models.StringArray(input.Tags),
		IsActive:        isActive,
		SortOrder:       input.SortOrder,
	}
	if err := s.repo.Create(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Update 更新商品
func (s *ProductService) Update(id uint, input ProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	originalSlug := product.Slug

	slug := strings.TrimSpace(input.Slug)
	if slug != "" && slug != product.Slug {
		count, err := s.repo.CountBySlug(slug, &id)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrSlugExists
		}
		product.Slug = slug
	}
	if len(input.TitleJSON) > 0 {
		product.TitleJSON = models.JSON(input.TitleJSON)
	}
	if input.DescriptionJSON != nil {
		product.DescriptionJSON = models.JSON(input.DescriptionJSON)
	}
	if input.BasePrice.GreaterThanOrEqual(decimal.Zero) {
		product.BasePrice = models.NewMoneyFromDecimal(input.BasePrice)
	}
	if input.Images != nil {
		product.Images = models.StringArray(input.Images)
	}
	if input.Tags != nil {
		product.Tags = models.StringArray(input.Tags)
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	product.SortOrder = input.SortOrder

	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	s.invalidateProductCache(originalSlug)
	if product.Slug != originalSlug {
		s.invalidateProductCache(product.Slug)
	}
	return s.repo.GetByID(id)
}

// Delete 删除商品及其规格
func (s *ProductService) Delete(id uint) error {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	if err := s.variantRepo.DeleteByProduct(id); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.invalidateProductCache(product.Slug)
	return nil
}

// CreateVariant 为商品新增规格
func (s *ProductService) CreateVariant(productID uint, input VariantInput) (*models.ProductVariant, error) {
	product, err := s.repo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if input.Price.LessThan(decimal.Zero) || input.StockQuantity < 0 {
		return nil, ErrInvalidInput
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	variant := &models.ProductVariant{
		ProductID:     productID,
		Color:         strings.TrimSpace(input.Color),
		Size:          strings.TrimSpace(input.Size),
		Price:         models.NewMoneyFromDecimal(input.Price),
		ImportPrice:   models.NewMoneyFromDecimal(input.ImportPrice),
		StockQuantity: input.StockQuantity,
		IsActive:      isActive,
		SortOrder:     input.SortOrder,
	}
	if err := s.variantRepo.Create(variant); err != nil {
		return nil, err
	}
	s.invalidateProductCache(product.Slug)
	return variant, nil
}

// UpdateVariant 更新规格
func (s *ProductService) UpdateVariant(productID, variantID uint, input VariantInput) (*models.ProductVariant, error) {
	variant, err := s.variantRepo.GetByID(variantID)
	if err != nil {
		return nil, err
	}
	if variant == nil || variant.ProductID != productID {
		return nil, ErrVariantNotFound
	}
	if input.Price.LessThan(decimal.Zero) || input.StockQuantity < 0 {
		return nil, ErrInvalidInput
	}

	variant.Color = strings.TrimSpace(input.Color)
	variant.Size = strings.TrimSpace(input.Size)
	variant.Price = models.NewMoneyFromDecimal(input.Price)
	variant.ImportPrice = models.NewMoneyFromDecimal(input.ImportPrice)
	variant.StockQuantity = input.StockQuantity
	if input.IsActive != nil {
		variant.IsActive = *input.IsActive
	}
	variant.SortOrder = input.SortOrder

	if err := s.variantRepo.Update(variant); err != nil {
		return nil, err
	}
	s.invalidateVariantProductCache(productID)
	return variant, nil
}

// DeleteVariant 删除规格
func (s *ProductService) DeleteVariant(productID, variantID uint) error {
	variant, err := s.variantRepo.GetByID(variantID)
	if err != nil {
		return err
	}
	if variant == nil || variant.ProductID != productID {
		return ErrVariantNotFound
	}
	if err := s.variantRepo.Delete(variantID); err != nil {
		return err
	}
	s.invalidateVariantProductCache(productID)
	return nil
}

func (s *ProductService) invalidateVariantProductCache(productID uint) {
	product, err := s.repo.GetByID(productID)
	if err != nil || product == nil {
		return
	}
	s.invalidateProductCache(product.Slug)
}
