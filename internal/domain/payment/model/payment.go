package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	baseModel "backcheck_api/pkg/model"
)

type PaymentMethod string

const (
	MethodQRPayment    PaymentMethod = "qr_payment"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

func ValidMethod(m PaymentMethod) bool {
	return m == MethodQRPayment || m == MethodBankTransfer
}

type PaymentStatus string

const (
	StatusPendingVerification PaymentStatus = "pending_verification"
	StatusCompleted           PaymentStatus = "completed"
	StatusAwaitingPayment     PaymentStatus = "awaiting_payment"
	StatusFailed              PaymentStatus = "failed"
	StatusRefunded            PaymentStatus = "refunded"
)

func ValidStatus(s PaymentStatus) bool {
	switch s {
	case StatusPendingVerification, StatusCompleted, StatusAwaitingPayment,
		StatusFailed, StatusRefunded:
		return true
	}
	return false
}

// TransferInfo is the evidence the customer submits: who transferred, when,
// how much, and the uploaded slip.
type TransferInfo struct {
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
	Reference   string    `json:"reference,omitempty"`
	ReceiptFile string    `json:"receipt_file,omitempty"` // object key in storage
	ReceiptURL  string    `json:"receipt_url,omitempty"`
}

func (t TransferInfo) Value() (driver.Value, error) {
	b, err := json.Marshal(t)
	return string(b), err
}

func (t *TransferInfo) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("unsupported type for TransferInfo: %T", value)
	}
}

// Payment is the claimed payment evidence for one order. No gateway is
// involved; an admin verifies it by hand and the status update drives the
// order state machine.
type Payment struct {
	baseModel.BaseModel
	PaymentNumber    string        `gorm:"type:varchar(32);uniqueIndex;not null" json:"paymentNumber"`
	OrderID          string        `gorm:"type:uuid;uniqueIndex;not null" json:"orderId"`
	UserID           string        `gorm:"type:uuid;index;not null" json:"userId"`
	PaymentMethod    PaymentMethod `gorm:"type:varchar(20);not null" json:"paymentMethod"`
	PaymentStatus    PaymentStatus `gorm:"type:varchar(32);default:'pending_verification'" json:"paymentStatus"`
	TransferInfo     *TransferInfo `gorm:"type:jsonb" json:"transferInfo"`
	PaymentUpdatedBy *string       `gorm:"type:uuid" json:"paymentUpdatedBy"`
}
