package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	baseModel "backcheck_api/pkg/model"
)

type OrderType string

const (
	OrderTypeCompany  OrderType = "company"
	OrderTypePersonal OrderType = "personal"
)

type OrderStatus string

const (
	StatusAwaitingPayment     OrderStatus = "awaiting_payment"
	StatusPendingVerification OrderStatus = "pending_verification"
	StatusPaymentVerified     OrderStatus = "payment_verified"
	StatusProcessing          OrderStatus = "processing"
	StatusCompleted           OrderStatus = "completed"
	StatusCancelled           OrderStatus = "cancelled"
)

// ValidStatus reports whether s is one of the six order states.
func ValidStatus(s OrderStatus) bool {
	switch s {
	case StatusAwaitingPayment, StatusPendingVerification, StatusPaymentVerified,
		StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// OrderServiceLine is one purchased service, snapshotted at creation so
// later catalog edits never change what the customer bought.
type OrderServiceLine struct {
	ServiceID string  `json:"service_id"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type OrderServiceLineList []OrderServiceLine

func (l OrderServiceLineList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *OrderServiceLineList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for OrderServiceLineList: %T", value)
	}
}

// Order is the aggregate root of a background-check purchase. Candidates
// hang off it by order_id; coupon and payment are single optional links.
type Order struct {
	baseModel.BaseModel
	TrackingNumber string               `gorm:"type:varchar(32);uniqueIndex;not null" json:"trackingNumber"`
	UserID         string               `gorm:"type:uuid;index;not null" json:"userId"`
	OrderType      OrderType            `gorm:"type:varchar(20);not null" json:"orderType"`
	OrderStatus    OrderStatus          `gorm:"type:varchar(32);default:'awaiting_payment';index" json:"orderStatus"`
	Services       OrderServiceLineList `gorm:"type:jsonb;default:'[]'" json:"services"`

	SubTotalPrice     float64 `gorm:"not null" json:"subTotalPrice"`
	PromotionDiscount float64 `gorm:"default:0" json:"promotionDiscount"`
	CouponDiscount    float64 `gorm:"default:0" json:"couponDiscount"`
	TotalPrice        float64 `gorm:"not null" json:"totalPrice"`

	CouponID  *string `gorm:"type:uuid" json:"couponId"`
	PaymentID *string `gorm:"type:uuid" json:"paymentId"`

	IsReviewed bool       `gorm:"default:false" json:"isReviewed"`
	ReviewedAt *time.Time `json:"reviewedAt"`
	ReviewID   *string    `gorm:"type:uuid" json:"reviewId"`

	PaymentApprovalSent bool `gorm:"default:false" json:"paymentApprovalSent"`
}

// IsAwaitingPayment gates deletion and coupon changes.
func (o *Order) IsAwaitingPayment() bool {
	return o.OrderStatus == StatusAwaitingPayment
}

// AfterPromotionPrice is the base the coupon percentage applies to.
func (o *Order) AfterPromotionPrice() float64 {
	return o.SubTotalPrice - o.PromotionDiscount
}
