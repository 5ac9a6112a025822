package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"

	baseModel "backcheck_api/pkg/model"
)

// AssignedService is the snapshot of one check a candidate goes through,
// copied from the catalog when the order is placed.
type AssignedService struct {
	ServiceID   string `json:"service_id"`
	ServiceName string `json:"service_name"`
}

type AssignedServiceList []AssignedService

func (l AssignedServiceList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *AssignedServiceList) Scan(value interface{}) error {
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
		return fmt.Errorf("unsupported type for AssignedServiceList: %T", value)
	}
}

// Result verdicts an admin can attach to a check.
const (
	ResultStatusPass    = "pass"
	ResultStatusFail    = "fail"
	ResultStatusPending = "pending"
)

// ValidResultStatus reports whether s is one of the known verdicts.
func ValidResultStatus(s string) bool {
	return s == ResultStatusPass || s == ResultStatusFail || s == ResultStatusPending
}

// ServiceResult is the uploaded outcome document for one assigned service.
type ServiceResult struct {
	ServiceID   string    `json:"service_id"`
	ServiceName string    `json:"service_name"`
	ResultFile  string    `json:"result_file"` // object key in storage
	ResultURL   string    `json:"result_url"`
	FileName    string    `json:"file_name"`
	FileType    string    `json:"file_type"`
	FileSize    int64     `json:"file_size"`
	Status      string    `json:"status"` // pass, fail or pending
	Note        string    `json:"note,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
	UploadedBy  string    `json:"uploaded_by"`
}

type ServiceResultList []ServiceResult

func (l ServiceResultList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *ServiceResultList) Scan(value interface{}) error {
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
		return fmt.Errorf("unsupported type for ServiceResultList: %T", value)
	}
}

// SummaryResultDoc is the overall report covering all of a candidate's
// checks. A candidate is not finished until one exists.
type SummaryResultDoc struct {
	ResultFile    string    `json:"result_file"`
	ResultURL     string    `json:"result_url"`
	FileName      string    `json:"file_name"`
	FileType      string    `json:"file_type"`
	FileSize      int64     `json:"file_size"`
	OverallStatus string    `json:"overall_status"` // pass, fail or pending
	Note          string    `json:"note,omitempty"`
	UploadedAt    time.Time `json:"uploaded_at"`
	UploadedBy    string    `json:"uploaded_by"`
}

func (d SummaryResultDoc) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	return string(b), err
}

func (d *SummaryResultDoc) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("unsupported type for SummaryResultDoc: %T", value)
	}
}

// Candidate is one person being checked under an order. Results live
// embedded on the candidate, not as separate rows.
type Candidate struct {
	baseModel.BaseModel
	OrderID          string              `gorm:"type:uuid;index;not null" json:"orderId"`
	FirstName        string              `gorm:"type:varchar(100);not null" json:"firstName"`
	LastName         string              `gorm:"type:varchar(100);not null" json:"lastName"`
	Email            string              `gorm:"type:varchar(255)" json:"email"`
	Company          string              `gorm:"type:varchar(255)" json:"company"`
	Phone            string              `gorm:"type:varchar(32)" json:"phone"`
	AssignedServices AssignedServiceList `gorm:"type:jsonb;default:'[]'" json:"assignedServices"`
	ServiceResults   ServiceResultList   `gorm:"type:jsonb;default:'[]'" json:"serviceResults"`
	SummaryResult    *SummaryResultDoc   `gorm:"type:jsonb" json:"summaryResult"`
}

// ResultForService returns the uploaded result for a service, or nil.
func (c *Candidate) ResultForService(serviceID string) *ServiceResult {
	for i := range c.ServiceResults {
		if c.ServiceResults[i].ServiceID == serviceID {
			return &c.ServiceResults[i]
		}
	}
	return nil
}

// IsAssigned reports whether the service belongs to this candidate.
func (c *Candidate) IsAssigned(serviceID string) bool {
	for _, s := range c.AssignedServices {
		if s.ServiceID == serviceID {
			return true
		}
	}
	return false
}

// CompletedServiceCount counts assigned services that have a result.
func (c *Candidate) CompletedServiceCount() int {
	count := 0
	for _, s := range c.AssignedServices {
		if c.ResultForService(s.ServiceID) != nil {
			count++
		}
	}
	return count
}

// IsComplete reports whether every assigned service has a result and the
// summary report exists. The summary counts as one extra unit of work.
func (c *Candidate) IsComplete() bool {
	return c.CompletedServiceCount() == len(c.AssignedServices) && c.SummaryResult != nil
}

// CompletionPercentage is the tracker value shown to the customer. The
// summary is the +1 in the denominator.
func (c *Candidate) CompletionPercentage() int {
	total := len(c.AssignedServices) + 1
	done := c.CompletedServiceCount()
	if c.SummaryResult != nil {
		done++
	}
	return int(math.Round(float64(done) * 100 / float64(total)))
}
