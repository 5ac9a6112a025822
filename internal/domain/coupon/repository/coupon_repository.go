package repository

import (
	"time"

	"backcheck_api/internal/domain/coupon/model"

	"gorm.io/gorm"
)

type CouponRepository interface {
	Create(coupon *model.Coupon) error
	GetByID(id string) (*model.Coupon, error)
	GetByCode(code string) (*model.Coupon, error)
	GetAll() ([]model.Coupon, error)
	Update(coupon *model.Coupon) error
	Delete(id string) (int64, error)

	FindPublicTemplates(now time.Time) ([]model.Coupon, error)
	FindSurveyTemplates(now time.Time) ([]model.Coupon, error)
	FindByUser(userID string, includeUsed bool) ([]model.Coupon, error)

	FindPersonalByCode(code, userID string) (*model.Coupon, error)
	FindClaimByTemplateAndUser(templateID, userID string) (*model.Coupon, error)
	FindSurveyCouponByUser(userID string) (*model.Coupon, error)
	DecrementRemainingClaims(id string) (int64, error)

	FindUsedInOrder(orderID string) ([]model.Coupon, error)
	ReleaseByOrder(orderID string) (int64, error)
	FindReleased(limit int) ([]model.Coupon, error)
}

type couponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Create(coupon *model.Coupon) error {
	return r.db.Create(coupon).Error
}

func (r *couponRepository) GetByID(id string) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := r.db.First(&coupon, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// GetByCode prefers the template over claim copies sharing the same code.
func (r *couponRepository) GetByCode(code string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.db.Where("code = ?", code).
		Order("(original_coupon_id IS NULL) desc, created_at asc").
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) GetAll() ([]model.Coupon, error) {
	var coupons []model.Coupon
	if err := r.db.Order("created_at desc").Find(&coupons).Error; err != nil {
		return nil, err
	}
	return coupons, nil
}

func (r *couponRepository) Update(coupon *model.Coupon) error {
	return r.db.Save(coupon).Error
}

func (r *couponRepository) Delete(id string) (int64, error) {
	result := r.db.Delete(&model.Coupon{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

func (r *couponRepository) FindPublicTemplates(now time.Time) ([]model.Coupon, error) {
	var coupons []model.Coupon
	err := r.db.Where("is_public = ? AND is_claimable = ? AND is_active = ? AND original_coupon_id IS NULL AND expiry_date > ?",
		true, true, true, now).
		Order("created_at desc").
		Find(&coupons).Error
	if err != nil {
		return nil, err
	}
	return coupons, nil
}

func (r *couponRepository) FindSurveyTemplates(now time.Time) ([]model.Coupon, error) {
	var coupons []model.Coupon
	err := r.db.Where("coupon_type = ? AND is_active = ? AND original_coupon_id IS NULL AND expiry_date > ?",
		model.CouponTypeSurvey, true, now).
		Order("created_at desc").
		Find(&coupons).Error
	if err != nil {
		return nil, err
	}
	return coupons, nil
}

func (r *couponRepository) FindByUser(userID string, includeUsed bool) ([]model.Coupon, error) {
	query := r.db.Where("claimed_by = ? AND is_active = ?", userID, true)
	if !includeUsed {
		query = query.Where("is_used = ?", false)
	}

	var coupons []model.Coupon
	if err := query.Order("claimed_at desc").Find(&coupons).Error; err != nil {
		return nil, err
	}
	return coupons, nil
}

func (r *couponRepository) FindPersonalByCode(code, userID string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.db.Where("code = ? AND claimed_by = ? AND is_used = ? AND is_active = ?",
		code, userID, false, true).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) FindClaimByTemplateAndUser(templateID, userID string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.db.Where("original_coupon_id = ? AND claimed_by = ?", templateID, userID).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) FindSurveyCouponByUser(userID string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.db.Where("claimed_by = ? AND coupon_type = ?", userID, model.CouponTypeSurvey).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// DecrementRemainingClaims takes one claim off a finite template. The guard
// in the WHERE clause makes concurrent claims race safely: whoever finds
// remaining_claims already at zero gets RowsAffected 0 and must not issue a
// copy. Unlimited templates (-1) are never decremented.
func (r *couponRepository) DecrementRemainingClaims(id string) (int64, error) {
	result := r.db.Model(&model.Coupon{}).
		Where("id = ? AND remaining_claims > 0", id).
		UpdateColumn("remaining_claims", gorm.Expr("remaining_claims - 1"))
	return result.RowsAffected, result.Error
}

func (r *couponRepository) FindUsedInOrder(orderID string) ([]model.Coupon, error) {
	var coupons []model.Coupon
	err := r.db.Where("used_in_order = ? AND is_used = ?", orderID, true).
		Find(&coupons).Error
	if err != nil {
		return nil, err
	}
	return coupons, nil
}

// ReleaseByOrder clears the used flag on every coupon consumed by the order
// so the user can apply them again.
func (r *couponRepository) ReleaseByOrder(orderID string) (int64, error) {
	result := r.db.Model(&model.Coupon{}).
		Where("used_in_order = ? AND is_used = ?", orderID, true).
		Updates(map[string]interface{}{
			"is_used":       false,
			"used_at":       nil,
			"used_in_order": nil,
		})
	return result.RowsAffected, result.Error
}

// FindReleased is an audit query for coupons stuck halfway through a
// release: the used flag cleared and the order link gone, but used_at still
// set. A clean release nulls all three, so anything here points at a crash
// or partial write worth inspecting.
func (r *couponRepository) FindReleased(limit int) ([]model.Coupon, error) {
	var coupons []model.Coupon
	err := r.db.Where("is_used = ? AND used_at IS NOT NULL AND used_in_order IS NULL", false).
		Order("updated_at desc").
		Limit(limit).
		Find(&coupons).Error
	if err != nil {
		return nil, err
	}
	return coupons, nil
}
