package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	baseModel "backcheck_api/pkg/model"
)

// RequiredDocument is the metadata for one document a candidate must supply
// before the check can run.
type RequiredDocument struct {
	DocumentID   string   `json:"document_id"`
	DocumentName string   `json:"document_name"`
	Required     bool     `json:"required"`
	FileTypes    []string `json:"file_types"`
	MaxSize      int64    `json:"max_size,omitempty"`
}

// RequiredDocumentList is stored as a jsonb column.
type RequiredDocumentList []RequiredDocument

func (l RequiredDocumentList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *RequiredDocumentList) Scan(value interface{}) error {
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
		return fmt.Errorf("unsupported type for RequiredDocumentList: %T", value)
	}
}

// Service is one background-check product in the catalog. Orders snapshot
// the title and price at purchase time rather than referencing them live.
type Service struct {
	baseModel.BaseModel
	Title             string               `gorm:"type:varchar(255);not null" json:"title"`
	Description       string               `json:"description"`
	Price             float64              `gorm:"not null" json:"price"`
	Image             string               `json:"image"`
	RequiredDocuments RequiredDocumentList `gorm:"type:jsonb;default:'[]'" json:"requiredDocuments"`
}
