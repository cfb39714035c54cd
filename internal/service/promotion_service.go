package service

import (
	"strings"
	"time"

	"github.com/lumimall/internal/constants"
	"github.com/lumimall/internal/models"
	"github.com/lumimall/internal/repository"

	"github.com/shopspring/decimal"
)

// validPromotionKinds 可配置的促销类型
var validPromotionKinds = map[string]bool{
	constants.PromotionKindPercent:   true,
	constants.PromotionKindFixed:     true,
	constants.PromotionKindGift:      true,
	constants.PromotionKindFlashSale: true,
	constants.PromotionKindCoupon:    true,
}

// PromotionInput 创建/更新促销输入
type PromotionInput struct {
	Name            string
	Kind            string
	Code            string
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	MinOrderValue   decimal.Decimal
	MaxDiscountCap  decimal.Decimal
	UsageLimit      int
	ItemIDs         []uint
	StartsAt        *time.Time
	EndsAt          *time.Time
	IsActive        *bool
}

// PromotionService 促销管理服务
type PromotionService struct {
	repo repository.PromotionRepository
}

// NewPromotionService 创建促销管理服务
func NewPromotionService(repo repository.PromotionRepository) *PromotionService {
	return &PromotionService{repo: repo}
}

// List 获取促销列表
func (s *PromotionService) List(filter repository.PromotionListFilter) ([]models.Promotion, int64, error) {
	return s.repo.List(filter)
}

// GetByID 获取促销详情
func (s *PromotionService) GetByID(id uint) (*models.Promotion, error) {
	promotion, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if promotion == nil {
		return nil, ErrPromotionInvalid
	}
	return promotion, nil
}

// Create 创建促销
func (s *PromotionService) Create(input PromotionInput) (*models.Promotion, error) {
	promotion, err := s.buildPromotion(&models.Promotion{IsActive: true}, input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(promotion); err != nil {
		return nil, err
	}
	return promotion, nil
}

// Update 更新促销
func (s *PromotionService) Update(id uint, input PromotionInput) (*models.Promotion, error) {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrPromotionInvalid
	}
	promotion, err := s.buildPromotion(existing, input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(promotion); err != nil {
		return nil, err
	}
	return promotion, nil
}

// Delete 删除促销
func (s *PromotionService) Delete(id uint) error {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrPromotionInvalid
	}
	return s.repo.Delete(id)
}

// buildPromotion 校验输入并填充促销字段。
// 优惠码类必须有编码；折扣比例限定 (0, 100]；窗口起止不能颠倒。
func (s *PromotionService) buildPromotion(promotion *models.Promotion, input PromotionInput) (*models.Promotion, error) {
	name := strings.TrimSpace(input.Name)
	kind := strings.TrimSpace(input.Kind)
	if name == "" || !validPromotionKinds[kind] {
		return nil, ErrPromotionInvalid
	}

	code := strings.TrimSpace(input.Code)
	if kind == constants.PromotionKindCoupon && code == "" {
		return nil, ErrPromotionInvalid
	}

	hasPercent := input.DiscountPercent.GreaterThan(decimal.Zero)
	hasAmount := input.DiscountAmount.GreaterThan(decimal.Zero)
	if kind != constants.PromotionKindGift && !hasPercent && !hasAmount {
		return nil, ErrPromotionInvalid
	}
	if hasPercent && input.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, ErrPromotionInvalid
	}
	if input.MinOrderValue.LessThan(decimal.Zero) || input.MaxDiscountCap.LessThan(decimal.Zero) {
		return nil, ErrPromotionInvalid
	}
	if input.UsageLimit < 0 {
		return nil, ErrPromotionInvalid
	}
	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return nil, ErrPromotionInvalid
	}

	promotion.Name = name
	promotion.Kind = kind
	promotion.Code = code
	promotion.DiscountPercent = models.NewMoneyFromDecimal(input.DiscountPercent)
	promotion.DiscountAmount = models.NewMoneyFromDecimal(input.DiscountAmount)
	promotion.MinOrderValue = models.NewMoneyFromDecimal(input.MinOrderValue)
	promotion.MaxDiscountCap = models.NewMoneyFromDecimal(input.MaxDiscountCap)
	promotion.UsageLimit = input.UsageLimit
	promotion.ItemIDs = models.UintArray(input.ItemIDs)
	promotion.StartsAt = input.StartsAt
	promotion.EndsAt = input.EndsAt
	if input.IsActive != nil {
		promotion.IsActive = *input.IsActive
	}
	return promotion, nil
}
