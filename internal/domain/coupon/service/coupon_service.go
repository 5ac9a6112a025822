package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"backcheck_api/internal/domain/coupon/model"
	"backcheck_api/internal/domain/coupon/repository"
	"backcheck_api/pkg/apperr"
	"backcheck_api/pkg/logger"
	"backcheck_api/pkg/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	surveyCouponDiscount = 15
	surveyCouponMonths   = 3
	surveyCodeRetries    = 10
)

// claimGuardScript is an atomic fast-path run before the database claim. It
// rejects a second claim by the same user and, when a stock key exists for
// the template, refuses once the counter hits zero. Missing stock key means
// the template is unlimited.
var claimGuardScript = redis.NewScript(`
local user_key = KEYS[1]
local stock_key = KEYS[2]
local user_id = ARGV[1]

if redis.call("SISMEMBER", user_key, user_id) == 1 then
    return -1
end

local stock = redis.call("GET", stock_key)
if stock then
    if tonumber(stock) <= 0 then
        return -2
    end
    redis.call("DECR", stock_key)
end

redis.call("SADD", user_key, user_id)
return 1
`)

// ValidCoupon is what ValidateCoupon hands back to the order flow: the
// personal coupon that will actually be marked used, plus the money math
// already done.
type ValidCoupon struct {
	Coupon          *model.Coupon `json:"coupon"`
	DiscountPercent int           `json:"discountPercent"`
	DiscountAmount  float64       `json:"discountAmount"`
	FinalPrice      float64       `json:"finalPrice"`
}

type CreateCouponInput struct {
	Code            string           `json:"code" binding:"required"`
	DiscountPercent int              `json:"discountPercent" binding:"required,min=1,max=100"`
	ExpiryDate      time.Time        `json:"expiryDate" binding:"required"`
	Description     string           `json:"description"`
	IsPublic        bool             `json:"isPublic"`
	IsClaimable     *bool            `json:"isClaimable"`
	RemainingClaims *int             `json:"remainingClaims"`
	ClaimedBy       *string          `json:"claimedBy"`
	CouponType      model.CouponType `json:"couponType"`
}

type UpdateCouponInput struct {
	DiscountPercent *int       `json:"discountPercent" binding:"omitempty,min=1,max=100"`
	ExpiryDate      *time.Time `json:"expiryDate"`
	Description     *string    `json:"description"`
	IsActive        *bool      `json:"isActive"`
	IsClaimable     *bool      `json:"isClaimable"`
	RemainingClaims *int       `json:"remainingClaims"`
}

type CouponService interface {
	CreateCoupon(input *CreateCouponInput) (*model.Coupon, error)
	FindAll() ([]model.Coupon, error)
	FindOne(id string) (*model.Coupon, error)
	FindPublicCoupons() ([]model.Coupon, error)
	FindSurveyCoupons() ([]model.Coupon, error)
	FindUserCoupons(userID string, includeUsed bool) ([]model.Coupon, error)
	FindReleasedCoupons(limit int) ([]model.Coupon, error)
	UpdateCoupon(id string, input *UpdateCouponInput) (*model.Coupon, error)
	RemoveCoupon(id string) error

	ClaimCoupon(couponID, userID string) (*model.Coupon, error)
	ValidateCoupon(code string, priceAfterPromotion float64, userID string) (*ValidCoupon, error)
	CalculateDiscount(discountPercent int, priceAfterPromotion float64) float64
	MarkAsUsed(couponID, orderID string) error
	ReleaseCouponsForOrder(orderID string)
	CreateSurveyCoupon(userID string) (*model.Coupon, error)
}

// claimGuard is the Redis fast path in front of the database claim. Run
// reports whether the guard actually ran; Rollback undoes its bookkeeping
// after a database-side failure.
type claimGuard interface {
	Run(couponID, userID string) (bool, error)
	Rollback(couponID, userID string)
	Seed(coupon *model.Coupon)
}

type couponService struct {
	repo  repository.CouponRepository
	guard claimGuard
}

func NewCouponService(repo repository.CouponRepository, rdb *redis.Client) CouponService {
	var guard claimGuard = noopClaimGuard{}
	if rdb != nil {
		guard = &redisClaimGuard{rdb: rdb}
	}
	return &couponService{repo: repo, guard: guard}
}

func (s *couponService) CreateCoupon(input *CreateCouponInput) (*model.Coupon, error) {
	couponType := input.CouponType
	if couponType == "" {
		if input.IsPublic {
			couponType = model.CouponTypePublic
		} else {
			couponType = model.CouponTypePrivate
		}
	}

	coupon := &model.Coupon{
		Code:            strings.ToUpper(strings.TrimSpace(input.Code)),
		DiscountPercent: input.DiscountPercent,
		ExpiryDate:      input.ExpiryDate,
		Description:     input.Description,
		IsActive:        true,
		IsPublic:        input.IsPublic,
		IsClaimable:     true,
		RemainingClaims: -1,
		ClaimedBy:       input.ClaimedBy,
		CouponType:      couponType,
	}
	if input.IsClaimable != nil {
		coupon.IsClaimable = *input.IsClaimable
	}
	if input.RemainingClaims != nil {
		coupon.RemainingClaims = *input.RemainingClaims
	}
	if input.ClaimedBy != nil {
		now := time.Now()
		coupon.ClaimedAt = &now
	}

	if err := s.repo.Create(coupon); err != nil {
		return nil, err
	}

	s.guard.Seed(coupon)
	return coupon, nil
}

func (s *couponService) FindAll() ([]model.Coupon, error) {
	return s.repo.GetAll()
}

func (s *couponService) FindOne(id string) (*model.Coupon, error) {
	coupon, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Errorf(apperr.NotFound, "coupon with ID %s not found", id)
		}
		return nil, err
	}
	return coupon, nil
}

func (s *couponService) FindPublicCoupons() ([]model.Coupon, error) {
	return s.repo.FindPublicTemplates(time.Now())
}

func (s *couponService) FindSurveyCoupons() ([]model.Coupon, error) {
	return s.repo.FindSurveyTemplates(time.Now())
}

func (s *couponService) FindUserCoupons(userID string, includeUsed bool) ([]model.Coupon, error) {
	return s.repo.FindByUser(userID, includeUsed)
}

func (s *couponService) FindReleasedCoupons(limit int) ([]model.Coupon, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.FindReleased(limit)
}

func (s *couponService) UpdateCoupon(id string, input *UpdateCouponInput) (*model.Coupon, error) {
	coupon, err := s.FindOne(id)
	if err != nil {
		return nil, err
	}

	if input.DiscountPercent != nil {
		coupon.DiscountPercent = *input.DiscountPercent
	}
	if input.ExpiryDate != nil {
		coupon.ExpiryDate = *input.ExpiryDate
	}
	if input.Description != nil {
		coupon.Description = *input.Description
	}
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}
	if input.IsClaimable != nil {
		coupon.IsClaimable = *input.IsClaimable
	}
	if input.RemainingClaims != nil {
		coupon.RemainingClaims = *input.RemainingClaims
	}

	if err := s.repo.Update(coupon); err != nil {
		return nil, err
	}
	if input.RemainingClaims != nil {
		s.guard.Seed(coupon)
	}
	return coupon, nil
}

func (s *couponService) RemoveCoupon(id string) error {
	deleted, err := s.repo.Delete(id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return apperr.Errorf(apperr.NotFound, "coupon with ID %s not found", id)
	}
	return nil
}

// ClaimCoupon copies a public template into the user's wallet. A user claims
// a given template at most once, and a finite template never hands out more
// copies than its remaining count.
func (s *couponService) ClaimCoupon(couponID, userID string) (*model.Coupon, error) {
	template, err := s.FindOne(couponID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	switch {
	case template.IsClaimCopy() || !template.IsPublic || !template.IsClaimable:
		return nil, apperr.New(apperr.InvalidState, "this coupon cannot be claimed")
	case !template.IsActive:
		return nil, apperr.New(apperr.InvalidState, "this coupon is not available")
	case template.IsExpired(now):
		return nil, apperr.New(apperr.InvalidState, "this coupon has expired")
	case !template.HasClaimsLeft():
		return nil, apperr.New(apperr.InvalidState, "this coupon has been fully claimed")
	}

	guarded, err := s.guard.Run(couponID, userID)
	if err != nil {
		return nil, err
	}
	rollback := func() {
		if guarded {
			s.guard.Rollback(couponID, userID)
		}
	}

	if _, err := s.repo.FindClaimByTemplateAndUser(couponID, userID); err == nil {
		// The guard did not know about this claim (it predates the key or
		// Redis was flushed), so undo its bookkeeping too.
		rollback()
		return nil, apperr.New(apperr.Conflict, "you have already claimed this coupon")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		rollback()
		return nil, err
	}

	if template.RemainingClaims != -1 {
		affected, err := s.repo.DecrementRemainingClaims(couponID)
		if err != nil {
			rollback()
			return nil, err
		}
		if affected == 0 {
			rollback()
			return nil, apperr.New(apperr.InvalidState, "this coupon has been fully claimed")
		}
	}

	templateID := template.ID
	claim := &model.Coupon{
		Code:             template.Code,
		DiscountPercent:  template.DiscountPercent,
		ExpiryDate:       template.ExpiryDate,
		Description:      template.Description,
		IsActive:         true,
		IsPublic:         false,
		IsClaimable:      false,
		RemainingClaims:  -1,
		ClaimedBy:        &userID,
		ClaimedAt:        &now,
		OriginalCouponID: &templateID,
		CouponType:       template.CouponType,
	}

	if err := s.repo.Create(claim); err != nil {
		rollback()
		return nil, err
	}

	metrics.CouponsClaimed.Inc()
	logger.Log.Info("coupon claimed",
		zap.String("template_id", templateID),
		zap.String("user_id", userID),
		zap.String("code", claim.Code))
	return claim, nil
}

// redisClaimGuard backs the guard with the Lua script above. Redis being
// down must not block claiming, so errors fall through to the database path.
type redisClaimGuard struct {
	rdb *redis.Client
}

func (g *redisClaimGuard) Run(couponID, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	keys := []string{claimUsersKey(couponID), claimStockKey(couponID)}
	result, err := claimGuardScript.Run(ctx, g.rdb, keys, userID).Int()
	if err != nil {
		logger.Log.Warn("coupon claim guard unavailable",
			zap.String("coupon_id", couponID),
			zap.Error(err))
		return false, nil
	}

	switch result {
	case -1:
		return true, apperr.New(apperr.Conflict, "you have already claimed this coupon")
	case -2:
		return true, apperr.New(apperr.InvalidState, "this coupon has been fully claimed")
	}
	return true, nil
}

func (g *redisClaimGuard) Rollback(couponID, userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	pipe := g.rdb.Pipeline()
	pipe.SRem(ctx, claimUsersKey(couponID), userID)
	pipe.Incr(ctx, claimStockKey(couponID))
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Log.Warn("failed to roll back coupon claim guard",
			zap.String("coupon_id", couponID),
			zap.Error(err))
	}
}

// Seed writes the stock counter for a finite public template so the script
// can refuse claims once it runs out. Unlimited templates carry no key.
func (g *redisClaimGuard) Seed(coupon *model.Coupon) {
	if !coupon.IsPublic || coupon.RemainingClaims < 0 {
		return
	}
	ttl := time.Until(coupon.ExpiryDate)
	if ttl <= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := g.rdb.Set(ctx, claimStockKey(coupon.ID), coupon.RemainingClaims, ttl).Err(); err != nil {
		logger.Log.Warn("failed to seed coupon claim stock",
			zap.String("coupon_id", coupon.ID),
			zap.Error(err))
	}
}

// noopClaimGuard stands in when no Redis client is configured.
type noopClaimGuard struct{}

func (noopClaimGuard) Run(couponID, userID string) (bool, error) { return false, nil }
func (noopClaimGuard) Rollback(couponID, userID string)          {}
func (noopClaimGuard) Seed(coupon *model.Coupon)                 {}

// ValidateCoupon resolves a code typed at checkout into the personal coupon
// it will consume. Public templates are usable only through a prior claim;
// the claim copy is what comes back.
func (s *couponService) ValidateCoupon(code string, priceAfterPromotion float64, userID string) (*ValidCoupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	now := time.Now()

	if userID != "" {
		personal, err := s.repo.FindPersonalByCode(code, userID)
		if err == nil {
			if personal.IsExpired(now) {
				return nil, apperr.New(apperr.InvalidState, "this coupon has expired")
			}
			return s.buildValidCoupon(personal, priceAfterPromotion), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	coupon, err := s.repo.GetByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "coupon not found in system")
		}
		return nil, err
	}

	if !coupon.IsActive {
		return nil, apperr.New(apperr.InvalidState, "this coupon is not available")
	}
	if coupon.IsExpired(now) {
		return nil, apperr.New(apperr.InvalidState, "this coupon has expired")
	}

	if coupon.IsPublic && !coupon.IsClaimCopy() {
		if userID == "" {
			return nil, apperr.New(apperr.Forbidden, "please log in to use this coupon")
		}
		claim, err := s.repo.FindClaimByTemplateAndUser(coupon.ID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.New(apperr.InvalidState, "you have not claimed this coupon yet")
			}
			return nil, err
		}
		coupon = claim
	}

	if coupon.ClaimedBy != nil && *coupon.ClaimedBy != userID {
		return nil, apperr.New(apperr.Forbidden, "this coupon does not belong to you")
	}
	if coupon.IsUsed {
		return nil, apperr.New(apperr.InvalidState, "this coupon has already been used")
	}
	if coupon.IsExpired(now) {
		return nil, apperr.New(apperr.InvalidState, "this coupon has expired")
	}

	return s.buildValidCoupon(coupon, priceAfterPromotion), nil
}

func (s *couponService) buildValidCoupon(coupon *model.Coupon, priceAfterPromotion float64) *ValidCoupon {
	discount := s.CalculateDiscount(coupon.DiscountPercent, priceAfterPromotion)
	return &ValidCoupon{
		Coupon:          coupon,
		DiscountPercent: coupon.DiscountPercent,
		DiscountAmount:  discount,
		FinalPrice:      priceAfterPromotion - discount,
	}
}

// CalculateDiscount floors the percentage cut so the customer never pays a
// fractional satang and the discount never rounds up.
func (s *couponService) CalculateDiscount(discountPercent int, priceAfterPromotion float64) float64 {
	if discountPercent <= 0 || priceAfterPromotion <= 0 {
		return 0
	}
	return math.Floor(priceAfterPromotion * float64(discountPercent) / 100)
}

func (s *couponService) MarkAsUsed(couponID, orderID string) error {
	coupon, err := s.FindOne(couponID)
	if err != nil {
		return err
	}
	if coupon.IsUsed {
		return apperr.New(apperr.InvalidState, "this coupon has already been used")
	}

	now := time.Now()
	coupon.IsUsed = true
	coupon.UsedAt = &now
	coupon.UsedInOrder = &orderID
	return s.repo.Update(coupon)
}

// ReleaseCouponsForOrder frees every coupon the order consumed. Deleting an
// order must never fail because the release did, so errors only get logged.
func (s *couponService) ReleaseCouponsForOrder(orderID string) {
	released, err := s.repo.ReleaseByOrder(orderID)
	if err != nil {
		logger.Log.Error("failed to release coupons for order",
			zap.String("order_id", orderID),
			zap.Error(err))
		return
	}
	if released > 0 {
		metrics.CouponsReleased.Add(float64(released))
		logger.Log.Info("released coupons for order",
			zap.String("order_id", orderID),
			zap.Int64("count", released))
	}
}

// CreateSurveyCoupon issues the one-off 15% reward for completing the
// satisfaction survey.
func (s *couponService) CreateSurveyCoupon(userID string) (*model.Coupon, error) {
	if _, err := s.repo.FindSurveyCouponByUser(userID); err == nil {
		return nil, apperr.New(apperr.Conflict, "you have already received a survey coupon")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	code, err := s.generateSurveyCode()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	coupon := &model.Coupon{
		Code:            code,
		DiscountPercent: surveyCouponDiscount,
		ExpiryDate:      now.AddDate(0, surveyCouponMonths, 0),
		Description:     "Thank you for completing our satisfaction survey",
		IsActive:        true,
		IsPublic:        false,
		IsClaimable:     false,
		RemainingClaims: -1,
		ClaimedBy:       &userID,
		ClaimedAt:       &now,
		CouponType:      model.CouponTypeSurvey,
	}

	if err := s.repo.Create(coupon); err != nil {
		return nil, err
	}

	logger.Log.Info("survey coupon issued",
		zap.String("user_id", userID),
		zap.String("code", code))
	return coupon, nil
}

// generateSurveyCode tries a handful of random SUR codes before falling back
// to a timestamp suffix that cannot collide in practice.
func (s *couponService) generateSurveyCode() (string, error) {
	for i := 0; i < surveyCodeRetries; i++ {
		code := fmt.Sprintf("SUR%04d", rand.Intn(10000))
		if _, err := s.repo.GetByCode(code); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return code, nil
			}
			return "", err
		}
	}
	return fmt.Sprintf("SUR%d", time.Now().UnixMilli()%1000000), nil
}

func claimUsersKey(couponID string) string {
	return "coupon:claimed:" + couponID
}

func claimStockKey(couponID string) string {
	return "coupon:stock:" + couponID
}
