package repository

import (
	"errors"

	"github.com/lumimall/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	ListByUser(userID uint) ([]models.CartItem, error)
	ListByUserForUpdate(userID uint) ([]models.CartItem, error)
	GetByUserAndLine(userID, lineID uint) (*models.CartItem, error)
	GetByUserProductVariant(userID, productID, variantID uint) (*models.CartItem, error)
	Create(item *models.CartItem) error
	UpdateLine(lineID uint, updates map[string]interface{}) error
	DeleteByUserAndLine(userID, lineID uint) (int64, error)
	ClearByUser(userID uint) error
	WithTx(tx *gorm.DB) *GormCartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// ListByUser 获取用户购物车项
func (r *GormCartRepository) ListByUser(userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Preload("Product").Preload("Variant").
		Where("user_id = ?", userID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListByUserForUpdate 以行锁获取用户购物车项，用于序列化同一购物车的并发变更。
// 必须在事务内调用。
func (r *GormCartRepository) ListByUserForUpdate(userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetByUserAndLine 获取用户购物车单行
func (r *GormCartRepository) GetByUserAndLine(userID, lineID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.Where("user_id = ? AND id = ?", userID, lineID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetByUserProductVariant 按商品+规格获取用户购物车行
func (r *GormCartRepository) GetByUserProductVariant(userID, productID, variantID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.Where("user_id = ? AND product_id = ? AND variant_id = ?", userID, productID, variantID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// Create 新增购物车行
func (r *GormCartRepository) Create(item *models.CartItem) error {
	if item == nil {
		return nil
	}
	return r.db.Create(item).Error
}

// UpdateLine 更新购物车行字段
func (r *GormCartRepository) UpdateLine(lineID uint, updates map[string]interface{}) error {
	if lineID == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.CartItem{}).Where("id = ?", lineID).Updates(updates).Error
}

// DeleteByUserAndLine 删除购物车行（幂等，返回受影响行数）
func (r *GormCartRepository) DeleteByUserAndLine(userID, lineID uint) (int64, error) {
	result := r.db.Where("user_id = ? AND id = ?", userID, lineID).Delete(&models.CartItem{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ClearByUser 清空购物车
func (r *GormCartRepository) ClearByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
