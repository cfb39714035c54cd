package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/lumimall/internal/models"

	"gorm.io/gorm"
)

// PromotionRepository 促销数据访问接口
type PromotionRepository interface {
	GetByID(id uint) (*models.Promotion, error)
	GetByCode(code string) (*models.Promotion, error)
	ListActiveInWindow(now time.Time, kinds []string) ([]models.Promotion, error)
	Create(promotion *models.Promotion) error
	Update(promotion *models.Promotion) error
	Delete(id uint) error
	List(filter PromotionListFilter) ([]models.Promotion, int64, error)
	ConsumeUsage(id uint) (int64, error)
	WithTx(tx *gorm.DB) *GormPromotionRepository
}

// GormPromotionRepository GORM 实现
type GormPromotionRepository struct {
	db *gorm.DB
}

// NewPromotionRepository 创建促销仓库
func NewPromotionRepository(db *gorm.DB) *GormPromotionRepository {
	return &GormPromotionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPromotionRepository) WithTx(tx *gorm.DB) *GormPromotionRepository {
	if tx == nil {
		return r
	}
	return &GormPromotionRepository{db: tx}
}

// GetByID 根据ID获取促销
func (r *GormPromotionRepository) GetByID(id uint) (*models.Promotion, error) {
	var promotion models.Promotion
	if err := r.db.First(&promotion, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promotion, nil
}

// GetByCode 根据优惠码获取促销（不校验有效性，由服务层判定）
func (r *GormPromotionRepository) GetByCode(code string) (*models.Promotion, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var promotion models.Promotion
	if err := r.db.Where("code = ?", code).First(&promotion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promotion, nil
}

// ListActiveInWindow 获取指定时间点处于生效窗口的促销。
// 商品适用范围存储为 JSON 数组，包含关系由服务层在内存中判断。
func (r *GormPromotionRepository) ListActiveInWindow(now time.Time, kinds []string) ([]models.Promotion, error) {
	query := r.db.Where("is_active = ?", true)
	if len(kinds) > 0 {
		query = query.Where("kind IN ?", kinds)
	}
	query = query.Where("(starts_at IS NULL OR starts_at <= ?)", now)
	query = query.Where("(ends_at IS NULL OR ends_at >= ?)", now)

	var promotions []models.Promotion
	if err := query.Order("id asc").Find(&promotions).Error; err != nil {
		return nil, err
	}
	return promotions, nil
}

// Create 创建促销
func (r *GormPromotionRepository) Create(promotion *models.Promotion) error {
	return r.db.Create(promotion).Error
}

// Update 更新促销
func (r *GormPromotionRepository) Update(promotion *models.Promotion) error {
	return r.db.Save(promotion).Error
}

// Delete 删除促销
func (r *GormPromotionRepository) Delete(id uint) error {
	return r.db.Delete(&models.Promotion{}, id).Error
}

// List 获取促销列表
func (r *GormPromotionRepository) List(filter PromotionListFilter) ([]models.Promotion, int64, error) {
	var promotions []models.Promotion
	query := r.db.Model(&models.Promotion{})

	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if code := strings.TrimSpace(filter.Code); code != "" {
		query = query.Where("code = ?", code)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id desc").Find(&promotions).Error; err != nil {
		return nil, 0, err
	}
	return promotions, total, nil
}

// ConsumeUsage 条件累加使用次数（不超过使用上限，0 表示不限制）
func (r *GormPromotionRepository) ConsumeUsage(id uint) (int64, error) {
	if id == 0 {
		return 0, errors.New("invalid promotion id")
	}
	result := r.db.Model(&models.Promotion{}).
		Where("id = ? AND (usage_limit = 0 OR used_count < usage_limit)", id).
		Update("used_count", gorm.Expr("used_count + ?", 1))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
