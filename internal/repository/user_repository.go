package repository

import (
	"errors"
	"strings"

	"github.com/lumimall/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	GetByEmail(email string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	GetByIDForUpdate(id uint) (*models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	IncrementSpinCredits(userID uint, delta int) (int64, error)
	ConsumeSpinCredit(userID uint) (int64, error)
	WithTx(tx *gorm.DB) *GormUserRepository
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserRepository) WithTx(tx *gorm.DB) *GormUserRepository {
	if tx == nil {
		return r
	}
	return &GormUserRepository{db: tx}
}

// GetByEmail 根据邮箱获取用户
func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", strings.TrimSpace(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByID 根据 ID 获取用户
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByIDForUpdate 以行锁获取用户，用于序列化同一用户的购物车与余额变更。
// 必须在事务内调用。
func (r *GormUserRepository) GetByIDForUpdate(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create 创建用户
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// Update 更新用户
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// IncrementSpinCredits 增加抽奖次数
func (r *GormUserRepository) IncrementSpinCredits(userID uint, delta int) (int64, error) {
	if userID == 0 || delta <= 0 {
		return 0, errors.New("invalid spin credits increment params")
	}
	result := r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("spin_credits", gorm.Expr("spin_credits + ?", delta))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ConsumeSpinCredit 条件扣减一次抽奖次数（余额不足时不生效）
func (r *GormUserRepository) ConsumeSpinCredit(userID uint) (int64, error) {
	if userID == 0 {
		return 0, errors.New("invalid user id")
	}
	result := r.db.Model(&models.User{}).
		Where("id = ? AND spin_credits > 0", userID).
		Update("spin_credits", gorm.Expr("spin_credits - ?", 1))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
