package repository

import (
	"errors"

	"github.com/lumimall/internal/models"

	"gorm.io/gorm"
)

// VariantRepository 商品规格数据访问接口
type VariantRepository interface {
	ListByProduct(productID uint, onlyActive bool) ([]models.ProductVariant, error)
	GetByID(id uint) (*models.ProductVariant, error)
	ListByIDs(ids []uint) ([]models.ProductVariant, error)
	Create(item *models.ProductVariant) error
	CreateBatch(items []models.ProductVariant) error
	Update(item *models.ProductVariant) error
	DeleteByProduct(productID uint) error
	Delete(id uint) error
	DecrementStock(variantID uint, quantity int) (int64, error)
	IncrementStock(variantID uint, quantity int) (int64, error)
	WithTx(tx *gorm.DB) VariantRepository
}

// GormVariantRepository GORM 实现
type GormVariantRepository struct {
	db *gorm.DB
}

// NewVariantRepository 创建规格仓库
func NewVariantRepository(db *gorm.DB) *GormVariantRepository {
	return &GormVariantRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVariantRepository) WithTx(tx *gorm.DB) VariantRepository {
	if tx == nil {
		return r
	}
	return &GormVariantRepository{db: tx}
}

// ListByProduct 根据商品获取规格列表
func (r *GormVariantRepository) ListByProduct(productID uint, onlyActive bool) ([]models.ProductVariant, error) {
	if productID == 0 {
		return nil, errors.New("invalid product id")
	}
	query := r.db.Model(&models.ProductVariant{}).Where("product_id = ?", productID)
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	var items []models.ProductVariant
	if err := query.Order("sort_order DESC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetByID 根据 ID 获取规格
func (r *GormVariantRepository) GetByID(id uint) (*models.ProductVariant, error) {
	if id == 0 {
		return nil, errors.New("invalid variant id")
	}
	var item models.ProductVariant
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListByIDs 批量获取规格
func (r *GormVariantRepository) ListByIDs(ids []uint) ([]models.ProductVariant, error) {
	if len(ids) == 0 {
		return []models.ProductVariant{}, nil
	}
	var items []models.ProductVariant
	if err := r.db.Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Create 创建规格
func (r *GormVariantRepository) Create(item *models.ProductVariant) error {
	if item == nil {
		return errors.New("variant is nil")
	}
	return r.db.Create(item).Error
}

// CreateBatch 批量创建规格
func (r *GormVariantRepository) CreateBatch(items []models.ProductVariant) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Create(&items).Error
}

// Update 更新规格
func (r *GormVariantRepository) Update(item *models.ProductVariant) error {
	if item == nil {
		return errors.New("variant is nil")
	}
	return r.db.Save(item).Error
}

// DeleteByProduct 删除指定商品下的规格
func (r *GormVariantRepository) DeleteByProduct(productID uint) error {
	if productID == 0 {
		return errors.New("invalid product id")
	}
	return r.db.Where("product_id = ?", productID).Delete(&models.ProductVariant{}).Error
}

// Delete 删除规格
func (r *GormVariantRepository) Delete(id uint) error {
	return r.db.Delete(&models.ProductVariant{}, id).Error
}

// DecrementStock 条件扣减库存（仅当剩余库存足够时生效，返回受影响行数）
func (r *GormVariantRepository) DecrementStock(variantID uint, quantity int) (int64, error) {
	if variantID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock decrement params")
	}
	result := r.db.Model(&models.ProductVariant{}).
		Where("id = ? AND stock_quantity >= ?", variantID, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// IncrementStock 归还库存（订单取消时回补）
func (r *GormVariantRepository) IncrementStock(variantID uint, quantity int) (int64, error) {
	if variantID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock increment params")
	}
	result := r.db.Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
