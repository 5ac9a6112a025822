package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	baseModel "backcheck_api/pkg/model"
)

// StringList is a jsonb array of strings.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *StringList) Scan(value interface{}) error {
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
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
}

// Review is the single post-completion review of an order. Username,
// tracking number and service titles are snapshots so the listing renders
// without joins and survives later edits.
type Review struct {
	baseModel.BaseModel
	OrderID string `gorm:"type:uuid;uniqueIndex;not null" json:"orderId"`
	UserID  string `gorm:"type:uuid;index;not null" json:"userId"`
	Rating  int    `gorm:"not null" json:"rating"` // 1-5
	Comment string `json:"comment"`

	Username       string     `gorm:"type:varchar(64)" json:"username"`
	TrackingNumber string     `gorm:"type:varchar(32)" json:"trackingNumber"`
	ServiceTitles  StringList `gorm:"type:jsonb;default:'[]'" json:"serviceTitles"`
}
