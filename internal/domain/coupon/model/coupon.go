package model

import (
	"time"

	baseModel "backcheck_api/pkg/model"
)

type CouponType string

const (
	CouponTypePublic  CouponType = "PUBLIC"  // claimable from the public list
	CouponTypeSurvey  CouponType = "SURVEY"  // issued for completing the survey
	CouponTypePrivate CouponType = "PRIVATE" // issued directly to one user
	CouponTypeSpecial CouponType = "SPECIAL" // campaign coupons
)

// Coupon models both sides of the template/claim duality: a public template
// owned by nobody, and the personal copy created when a user claims it. A
// claim copy shares the template's code and points back at it through
// OriginalCouponID; templates and directly-issued personal coupons (survey
// rewards) leave it nil.
type Coupon struct {
	baseModel.BaseModel
	Code            string     `gorm:"type:varchar(64);index;not null" json:"code"`
	DiscountPercent int        `gorm:"not null" json:"discountPercent"` // 0-100
	ExpiryDate      time.Time  `gorm:"not null" json:"expiryDate"`
	Description     string     `gorm:"default:''" json:"description"`
	IsActive        bool       `gorm:"default:true" json:"isActive"`
	IsUsed          bool       `gorm:"default:false" json:"isUsed"`
	UsedAt          *time.Time `json:"usedAt"`
	UsedInOrder     *string    `gorm:"type:uuid;index" json:"usedInOrder"`

	// Public template fields.
	IsPublic        bool `gorm:"default:false" json:"isPublic"`
	IsClaimable     bool `gorm:"default:true" json:"isClaimable"`
	RemainingClaims int  `gorm:"default:-1" json:"remainingClaims"` // -1 = unlimited

	// Personal claim fields.
	ClaimedBy        *string    `gorm:"type:uuid;index" json:"claimedBy"`
	ClaimedAt        *time.Time `json:"claimedAt"`
	OriginalCouponID *string    `gorm:"type:uuid;index" json:"originalCouponId"`

	CouponType CouponType `gorm:"type:varchar(20);default:'PUBLIC'" json:"couponType"`
}

// IsExpired reports whether the coupon is past its expiry at the given time.
func (c *Coupon) IsExpired(now time.Time) bool {
	return now.After(c.ExpiryDate)
}

// IsClaimCopy reports whether this coupon is a personal copy of a template.
func (c *Coupon) IsClaimCopy() bool {
	return c.OriginalCouponID != nil
}

// HasClaimsLeft reports whether a finite template still has claims to give.
func (c *Coupon) HasClaimsLeft() bool {
	return c.RemainingClaims == -1 || c.RemainingClaims > 0
}
