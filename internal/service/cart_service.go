package service

import (
	"time"

	"github.com/lumimall/internal/constants"
	"github.com/lumimall/internal/models"
	"github.com/lumimall/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartLineView 购物车行详情（用于响应）
type CartLineView struct {
	LineID        uint         `json:"line_id"`
	ProductID     uint         `json:"product_id"`
	VariantID     uint         `json:"variant_id"`
	Title         models.JSON  `json:"title"`
	VariantLabel  string       `json:"variant_label,omitempty"`
	Quantity      int          `json:"quantity"`
	UnitPrice     models.Money `json:"unit_price"`
	OriginalPrice models.Money `json:"original_price"`
	TotalPrice    models.Money `json:"total_price"`
	StockQuantity int          `json:"stock_quantity"` // -1 表示不限库存
}

// CartView 购物车视图，总额每次读取时重新计算
type CartView struct {
	Items       []CartLineView `json:"items"`
	TotalAmount models.Money   `json:"total_amount"`
	Currency    string         `json:"currency"`
}

// AddCartItemInput 加入购物车输入
type AddCartItemInput struct {
	UserID    uint
	ProductID uint
	VariantID uint
	Quantity  int
}

// CartService 购物车服务。
// 同一用户的购物车变更通过用户行锁串行化，避免并发读改写竞争。
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	variantRepo repository.VariantRepository
	userRepo    repository.UserRepository
	pricing     *PricingService
	currency    string
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, variantRepo repository.VariantRepository, userRepo repository.UserRepository, pricing *PricingService, currency string) *CartService {
	if currency == "" {
		currency = constants.SiteCurrencyDefault
	}
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		variantRepo: variantRepo,
		userRepo:    userRepo,
		pricing:     pricing,
		currency:    currency,
	}
}

// GetCart 读取购物车并同步各行单价到当前生效价。
// 读路径会写：促销开始或过期后第一次读取会把价差落库。
func (s *CartService) GetCart(userID uint) (*CartView, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	view := &CartView{Items: []CartLineView{}, Currency: s.currency}
	now := time.Now()

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		items, err := cartRepo.ListByUserForUpdate(userID)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, item := range items {
			product, variant, err := s.resolveCatalog(tx, item.ProductID, item.VariantID)
			if err != nil {
				return err
			}
			if product == nil || !product.IsActive {
				// 商品下架后自动清理对应购物车行
				if _, err := cartRepo.DeleteByUserAndLine(userID, item.ID); err != nil {
					return err
				}
				continue
			}
			if item.VariantID != 0 && variant == nil {
				if _, err := cartRepo.DeleteByUserAndLine(userID, item.ID); err != nil {
					return err
				}
				continue
			}

			quote, err := s.pricing.ResolvePrice(product, variant, now)
			if err != nil {
				return err
			}
			if !quote.UnitPrice.Decimal.Equal(item.UnitPrice.Decimal) {
				if err := cartRepo.UpdateLine(item.ID, map[string]interface{}{
					"unit_price": quote.UnitPrice,
					"updated_at": now,
				}); err != nil {
					return err
				}
			}

			lineTotal := quote.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity)))
			total = total.Add(lineTotal)
			view.Items = append(view.Items, CartLineView{
				LineID:        item.ID,
				ProductID:     item.ProductID,
				VariantID:     item.VariantID,
				Title:         product.TitleJSON,
				VariantLabel:  variantLabel(variant),
				Quantity:      item.Quantity,
				UnitPrice:     quote.UnitPrice,
				OriginalPrice: quote.OriginalPrice,
				TotalPrice:    models.NewMoneyFromDecimal(lineTotal),
				StockQuantity: availableStock(variant),
			})
		}
		view.TotalAmount = models.NewMoneyFromDecimal(total)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// AddItem 加入购物车，同商品同规格合并数量，单价总是重新盖戳为当前生效价。
func (s *CartService) AddItem(input AddCartItemInput) (*CartView, error) {
	if input.UserID == 0 || input.ProductID == 0 {
		return nil, ErrInvalidInput
	}
	if input.Quantity <= 0 {
		return nil, ErrQuantityInvalid
	}

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		// 用户行锁串行化同一购物车的并发变更（空购物车也能锁住）
		if _, err := s.lockUser(tx, input.UserID); err != nil {
			return err
		}

		product, variant, err := s.resolveCatalog(tx, input.ProductID, input.VariantID)
		if err != nil {
			return err
		}
		if product == nil {
			return ErrProductNotFound
		}
		if !product.IsActive {
			return ErrProductNotAvailable
		}
		if input.VariantID != 0 && variant == nil {
			return ErrVariantNotFound
		}

		cartRepo := s.cartRepo.WithTx(tx)
		existing, err := cartRepo.GetByUserProductVariant(input.UserID, input.ProductID, input.VariantID)
		if err != nil {
			return err
		}

		cumulative := input.Quantity
		if existing != nil {
			cumulative += existing.Quantity
		}
		stock := availableStock(variant)
		if stock != constants.StockUnlimited && cumulative > stock {
			return ErrOutOfStock
		}

		now := time.Now()
		quote, err := s.pricing.ResolvePrice(product, variant, now)
		if err != nil {
			return err
		}

		if existing != nil {
			return cartRepo.UpdateLine(existing.ID, map[string]interface{}{
				"quantity":   cumulative,
				"unit_price": quote.UnitPrice,
				"updated_at": now,
			})
		}
		return cartRepo.Create(&models.CartItem{
			UserID:    input.UserID,
			ProductID: input.ProductID,
			VariantID: input.VariantID,
			Quantity:  input.Quantity,
			UnitPrice: quote.UnitPrice,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(input.UserID)
}

// UpdateQuantity 修改购物车行数量，重新校验库存并盖戳当前价。
func (s *CartService) UpdateQuantity(userID, lineID uint, quantity int) (*CartView, error) {
	if userID == 0 || lineID == 0 {
		return nil, ErrInvalidInput
	}
	if quantity <= 0 {
		return nil, ErrQuantityInvalid
	}

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockUser(tx, userID); err != nil {
			return err
		}

		cartRepo := s.cartRepo.WithTx(tx)
		line, err := cartRepo.GetByUserAndLine(userID, lineID)
		if err != nil {
			return err
		}
		if line == nil {
			return ErrCartLineNotFound
		}

		product, variant, err := s.resolveCatalog(tx, line.ProductID, line.VariantID)
		if err != nil {
			return err
		}
		if product == nil {
			return ErrProductNotFound
		}
		if !product.IsActive {
			return ErrProductNotAvailable
		}
		stock := availableStock(variant)
		if stock != constants.StockUnlimited && quantity > stock {
			return ErrOutOfStock
		}

		now := time.Now()
		quote, err := s.pricing.ResolvePrice(product, variant, now)
		if err != nil {
			return err
		}
		return cartRepo.UpdateLine(line.ID, map[string]interface{}{
			"quantity":   quantity,
			"unit_price": quote.UnitPrice,
			"updated_at": now,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(userID)
}

// RemoveLine 删除购物车行。幂等：行不存在不算错误。
func (s *CartService) RemoveLine(userID, lineID uint) (*CartView, error) {
	if userID == 0 || lineID == 0 {
		return nil, ErrInvalidInput
	}
	if _, err := s.cartRepo.DeleteByUserAndLine(userID, lineID); err != nil {
		return nil, err
	}
	return s.GetCart(userID)
}

func (s *CartService) lockUser(tx *gorm.DB, userID uint) (*models.User, error) {
	user, err := s.userRepo.WithTx(tx).GetByIDForUpdate(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *CartService) resolveCatalog(tx *gorm.DB, productID, variantID uint) (*models.Product, *models.ProductVariant, error) {
	product, err := s.productRepo.WithTx(tx).GetByID(productID)
	if err != nil {
		return nil, nil, err
	}
	if variantID == 0 {
		return product, nil, nil
	}
	variant, err := s.variantRepo.WithTx(tx).GetByID(variantID)
	if err != nil {
		return nil, nil, err
	}
	if variant != nil && product != nil && variant.ProductID != product.ID {
		variant = nil
	}
	return product, variant, nil
}

// availableStock 返回可售库存。无规格商品视为不限库存。
func availableStock(variant *models.ProductVariant) int {
	if variant == nil {
		return constants.StockUnlimited
	}
	return variant.StockQuantity
}

func variantLabel(variant *models.ProductVariant) string {
	if variant == nil {
		return ""
	}
	return variant.Label()
}
