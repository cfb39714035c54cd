package service

import (
	"math/rand"
	"time"

	"github.com/lumimall/internal/config"
	"github.com/lumimall/internal/constants"
	"github.com/lumimall/internal/logger"
	"github.com/lumimall/internal/models"
	"github.com/lumimall/internal/queue"
	"github.com/lumimall/internal/repository"
	"github.com/lumimall/internal/reward"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SpinResult 单次抽奖结果
type SpinResult struct {
	PrizeLabel       string  `json:"prize_label"`
	PrizeKind        string  `json:"prize_kind"`
	PrizeValue       float64 `json:"prize_value"`
	CouponCode       string  `json:"coupon_code,omitempty"`
	RemainingCredits int     `json:"remaining_credits"`
}

// SpinService 抽奖服务。
// 抽奖次数的扣减是条件更新，并发抽奖不会把余额扣成负数。
type SpinService struct {
	userRepo      repository.UserRepository
	promotionRepo repository.PromotionRepository
	queueClient   *queue.Client
	wheel         *reward.Wheel
	cfg           config.SpinConfig
	roll          func() float64
}

// NewSpinService 创建抽奖服务。随机落点可注入，默认使用 math/rand。
func NewSpinService(userRepo repository.UserRepository, promotionRepo repository.PromotionRepository, queueClient *queue.Client, cfg config.SpinConfig, roll func() float64) (*SpinService, error) {
	prizes := make([]reward.Prize, 0, len(cfg.Prizes))
	for _, p := range cfg.Prizes {
		prizes = append(prizes, reward.Prize{
			Label:  p.Label,
			Kind:   p.Kind,
			Value:  p.Value,
			Weight: p.Weight,
			Code:   p.Code,
		})
	}
	wheel, err := reward.NewWheel(prizes)
	if err != nil {
		return nil, err
	}
	if roll == nil {
		roll = func() float64 { return rand.Float64() * 100 }
	}
	return &SpinService{
		userRepo:      userRepo,
		promotionRepo: promotionRepo,
		queueClient:   queueClient,
		wheel:         wheel,
		cfg:           cfg,
		roll:          roll,
	}, nil
}

// Prizes 返回奖池（权重已归一化为 100）
func (s *SpinService) Prizes() []reward.Prize {
	return s.wheel.Prizes()
}

// Spin 消耗一次抽奖机会并抽取奖品。
// 扣减、奖品落地在同一事务内，任何一步失败不会吞掉用户的抽奖次数。
func (s *SpinService) Spin(userID uint) (*SpinResult, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}

	prize := s.wheel.Pick(s.roll())
	now := time.Now()
	result := &SpinResult{
		PrizeLabel: prize.Label,
		PrizeKind:  prize.Kind,
		PrizeValue: prize.Value,
	}

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		affected, err := userRepo.ConsumeSpinCredit(userID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrSpinNoCredits
		}

		switch prize.Kind {
		case constants.PrizeKindExtraSpin:
			// 再来一次：本次消耗即刻返还
			if _, err := userRepo.IncrementSpinCredits(userID, 1); err != nil {
				return err
			}
		case constants.PrizeKindPercentVoucher, constants.PrizeKindFixedVoucher:
			coupon, err := s.ensureVoucherCoupon(tx, prize, now)
			if err != nil {
				return err
			}
			result.CouponCode = coupon.Code
		case constants.PrizeKindNone:
			// 未中奖
		default:
			return ErrSpinPrizeInvalid
		}

		user, err := userRepo.GetByID(userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
		result.RemainingCredits = user.SpinCredits
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.queueClient != nil && prize.Kind != constants.PrizeKindNone {
		if err := s.queueClient.EnqueueSpinRewardNotify(queue.SpinRewardNotifyPayload{
			UserID:     userID,
			PrizeLabel: prize.Label,
			PrizeKind:  prize.Kind,
			CouponCode: result.CouponCode,
		}); err != nil {
			logger.Warnw("spin_enqueue_reward_notify_failed",
				"user_id", userID,
				"prize", prize.Label,
				"error", err,
			)
		}
	}

	return result, nil
}

// ensureVoucherCoupon 懒创建奖品对应的优惠码促销。
// 同一奖品共用一个固定编码的优惠码，已存在且未停用时直接复用。
func (s *SpinService) ensureVoucherCoupon(tx *gorm.DB, prize reward.Prize, now time.Time) (*models.Promotion, error) {
	if prize.Code == "" || prize.Value <= 0 {
		return nil, ErrSpinPrizeInvalid
	}
	promotionRepo := s.promotionRepo.WithTx(tx)

	existing, err := promotionRepo.GetByCode(prize.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.IsActive && existing.Kind == constants.PromotionKindCoupon {
		return existing, nil
	}
	if existing != nil {
		return nil, ErrSpinPrizeInvalid
	}

	validDays := s.cfg.VoucherValidDays
	if validDays <= 0 {
		validDays = 30
	}
	startsAt := now
	endsAt := now.AddDate(0, 0, validDays)
	coupon := &models.Promotion{
		Name:       prize.Label,
		Kind:       constants.PromotionKindCoupon,
		Code:       prize.Code,
		UsageLimit: s.cfg.VoucherUsageLimit,
		StartsAt:   &startsAt,
		EndsAt:     &endsAt,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	value := decimal.NewFromFloat(prize.Value)
	if prize.Kind == constants.PrizeKindPercentVoucher {
		coupon.DiscountPercent = models.NewMoneyFromDecimal(value)
	} else {
		coupon.DiscountAmount = models.NewMoneyFromDecimal(value)
	}

	if err := promotionRepo.Create(coupon); err != nil {
		// 并发抽中同一奖品时可能撞唯一索引，回读一次
		if isDuplicateKeyError(err) {
			existing, rerr := promotionRepo.GetByCode(prize.Code)
			if rerr != nil {
				return nil, rerr
			}
			if existing == nil || !existing.IsActive || existing.Kind != constants.PromotionKindCoupon {
				return nil, ErrSpinPrizeInvalid
			}
			return existing, nil
		}
		return nil, err
	}
	return coupon, nil
}
