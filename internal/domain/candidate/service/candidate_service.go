package service

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"backcheck_api/internal/domain/candidate/model"
	"backcheck_api/internal/domain/candidate/repository"
	"backcheck_api/internal/pkg/storage"
	"backcheck_api/internal/pkg/worker"
	"backcheck_api/pkg/apperr"
	"backcheck_api/pkg/logger"
	"backcheck_api/pkg/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderGateway is the narrow view of the order module the tracker needs:
// who owns the parent order, and a nudge to re-derive the order's completed
// status after results change. The order module installs it at startup.
type OrderGateway interface {
	OrderOwner(orderID string) (string, error)
	ReconcileOrderCompletion(orderID string)
}

var orderGateway OrderGateway

func SetOrderGateway(gw OrderGateway) {
	orderGateway = gw
}

// CandidateInput is the per-person payload supplied at order creation.
type CandidateInput struct {
	FirstName        string                    `json:"firstName" binding:"required"`
	LastName         string                    `json:"lastName" binding:"required"`
	Email            string                    `json:"email" binding:"omitempty,email"`
	Company          string                    `json:"company"`
	Phone            string                    `json:"phone"`
	AssignedServices model.AssignedServiceList `json:"assignedServices" binding:"required,min=1"`
}

// ResultUpload carries the verdict and note accompanying a result file.
type ResultUpload struct {
	Status string
	Note   string
}

// CandidateResults is the tracker view returned to the customer.
type CandidateResults struct {
	Candidate             *model.Candidate        `json:"candidate"`
	ServiceResults        model.ServiceResultList `json:"serviceResults"`
	SummaryResult         *model.SummaryResultDoc `json:"summaryResult"`
	CompletedServiceCount int                     `json:"completedServiceCount"`
	TotalServiceCount     int                     `json:"totalServiceCount"`
	HasSummary            bool                    `json:"hasSummary"`
	CompletionPercentage  int                     `json:"completionPercentage"`
	IsComplete            bool                    `json:"isComplete"`
	// Result keeps the field older clients read before per-service tracking
	// existed. It mirrors the summary's overall status.
	Result string `json:"result"`
}

type CandidateService interface {
	CreateForOrder(orderID string, inputs []CandidateInput) ([]model.Candidate, error)
	FindOne(id string) (*model.Candidate, error)
	FindByOrder(orderID string) ([]model.Candidate, error)
	FindAll(page, limit int) ([]model.Candidate, int64, error)
	UpdateCandidate(id string, input *CandidateInput) (*model.Candidate, error)
	DeleteCandidate(id string) error
	DeleteByOrder(orderID string) error

	GetCandidateResults(id, requesterID string, isAdmin bool) (*CandidateResults, error)
	UploadServiceResult(candidateID, serviceID string, file *multipart.FileHeader, upload ResultUpload, adminID string) (*model.Candidate, error)
	UploadSummaryResult(candidateID string, file *multipart.FileHeader, upload ResultUpload, adminID string) (*model.Candidate, error)
	DeleteServiceResult(candidateID, serviceID string) (*model.Candidate, error)
	DeleteSummaryResult(candidateID string) (*model.Candidate, error)
}

type candidateService struct {
	repo    repository.CandidateRepository
	storage storage.FileStorage
}

func NewCandidateService(repo repository.CandidateRepository, fs storage.FileStorage) CandidateService {
	return &candidateService{repo: repo, storage: fs}
}

func (s *candidateService) CreateForOrder(orderID string, inputs []CandidateInput) ([]model.Candidate, error) {
	created := make([]model.Candidate, 0, len(inputs))
	for i := range inputs {
		in := inputs[i]
		candidate := &model.Candidate{
			OrderID:          orderID,
			FirstName:        in.FirstName,
			LastName:         in.LastName,
			Email:            in.Email,
			Company:          in.Company,
			Phone:            in.Phone,
			AssignedServices: in.AssignedServices,
			ServiceResults:   model.ServiceResultList{},
		}
		if err := s.repo.Create(candidate); err != nil {
			return created, err
		}
		created = append(created, *candidate)
	}
	return created, nil
}

func (s *candidateService) FindOne(id string) (*model.Candidate, error) {
	candidate, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Errorf(apperr.NotFound, "candidate with ID %s not found", id)
		}
		return nil, err
	}
	return candidate, nil
}

func (s *candidateService) FindByOrder(orderID string) ([]model.Candidate, error) {
	return s.repo.GetByOrderID(orderID)
}

func (s *candidateService) FindAll(page, limit int) ([]model.Candidate, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.repo.GetList(page, limit)
}

func (s *candidateService) UpdateCandidate(id string, input *CandidateInput) (*model.Candidate, error) {
	candidate, err := s.FindOne(id)
	if err != nil {
		return nil, err
	}

	candidate.FirstName = input.FirstName
	candidate.LastName = input.LastName
	candidate.Email = input.Email
	candidate.Company = input.Company
	candidate.Phone = input.Phone
	if input.AssignedServices != nil {
		candidate.AssignedServices = input.AssignedServices
	}

	if err := s.repo.Update(candidate); err != nil {
		return nil, err
	}
	s.reconcile(candidate.OrderID)
	return candidate, nil
}

func (s *candidateService) DeleteCandidate(id string) error {
	candidate, err := s.FindOne(id)
	if err != nil {
		return err
	}

	deleted, err := s.repo.Delete(id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return apperr.Errorf(apperr.NotFound, "candidate with ID %s not found", id)
	}

	s.cleanupResultFiles(candidate)
	s.reconcile(candidate.OrderID)
	return nil
}

func (s *candidateService) DeleteByOrder(orderID string) error {
	candidates, err := s.repo.GetByOrderID(orderID)
	if err != nil {
		return err
	}

	if _, err := s.repo.DeleteByOrderID(orderID); err != nil {
		return err
	}

	for i := range candidates {
		s.cleanupResultFiles(&candidates[i])
	}
	return nil
}

// cleanupResultFiles removes stored result documents after their candidate
// row is gone. Storage failures only cost orphaned objects.
func (s *candidateService) cleanupResultFiles(candidate *model.Candidate) {
	for _, result := range candidate.ServiceResults {
		key := result.ResultFile
		worker.Fire("delete-service-result-file", func() error {
			return s.storage.DeleteFile(key)
		})
	}
	if candidate.SummaryResult != nil {
		key := candidate.SummaryResult.ResultFile
		worker.Fire("delete-summary-result-file", func() error {
			return s.storage.DeleteFile(key)
		})
	}
}

func (s *candidateService) GetCandidateResults(id, requesterID string, isAdmin bool) (*CandidateResults, error) {
	candidate, err := s.FindOne(id)
	if err != nil {
		return nil, err
	}

	if !isAdmin {
		if orderGateway == nil {
			return nil, apperr.New(apperr.Internal, "order lookup unavailable")
		}
		owner, err := orderGateway.OrderOwner(candidate.OrderID)
		if err != nil {
			return nil, err
		}
		if owner != requesterID {
			return nil, apperr.New(apperr.Forbidden, "you do not have access to this candidate")
		}
	}

	results := &CandidateResults{
		Candidate:             candidate,
		ServiceResults:        candidate.ServiceResults,
		SummaryResult:         candidate.SummaryResult,
		CompletedServiceCount: candidate.CompletedServiceCount(),
		TotalServiceCount:     len(candidate.AssignedServices),
		HasSummary:            candidate.SummaryResult != nil,
		CompletionPercentage:  candidate.CompletionPercentage(),
		IsComplete:            candidate.IsComplete(),
	}
	if candidate.SummaryResult != nil {
		results.Result = candidate.SummaryResult.OverallStatus
	}
	return results, nil
}

func (s *candidateService) UploadServiceResult(candidateID, serviceID string, file *multipart.FileHeader, upload ResultUpload, adminID string) (*model.Candidate, error) {
	if upload.Status == "" {
		upload.Status = model.ResultStatusPending
	}
	if !model.ValidResultStatus(upload.Status) {
		return nil, apperr.Errorf(apperr.Validation, "invalid result status %q", upload.Status)
	}

	candidate, err := s.FindOne(candidateID)
	if err != nil {
		return nil, err
	}
	if !candidate.IsAssigned(serviceID) {
		return nil, apperr.Errorf(apperr.Validation, "service %s is not assigned to this candidate", serviceID)
	}

	serviceName := ""
	for _, a := range candidate.AssignedServices {
		if a.ServiceID == serviceID {
			serviceName = a.ServiceName
		}
	}

	name := resultFilename(candidate, serviceName, file.Filename)
	uploaded, err := s.storage.UploadFile(file, fmt.Sprintf("results/%s/services", candidateID), name)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to store result document")
	}

	newResult := model.ServiceResult{
		ServiceID:   serviceID,
		ServiceName: serviceName,
		ResultFile:  uploaded.Filename,
		ResultURL:   uploaded.URL,
		FileName:    file.Filename,
		FileType:    file.Header.Get("Content-Type"),
		FileSize:    file.Size,
		Status:      upload.Status,
		Note:        upload.Note,
		UploadedAt:  time.Now(),
		UploadedBy:  adminID,
	}

	// Re-uploading replaces the previous document for the same service.
	replaced := false
	for i := range candidate.ServiceResults {
		if candidate.ServiceResults[i].ServiceID == serviceID {
			old := candidate.ServiceResults[i].ResultFile
			candidate.ServiceResults[i] = newResult
			replaced = true
			worker.Fire("delete-replaced-result-file", func() error {
				return s.storage.DeleteFile(old)
			})
			break
		}
	}
	if !replaced {
		candidate.ServiceResults = append(candidate.ServiceResults, newResult)
	}

	if err := s.repo.Update(candidate); err != nil {
		worker.Fire("delete-orphan-result-file", func() error {
			return s.storage.DeleteFile(uploaded.Filename)
		})
		return nil, err
	}

	metrics.ResultsUploaded.WithLabelValues("service").Inc()
	logger.Log.Info("service result uploaded",
		zap.String("candidate_id", candidateID),
		zap.String("service_id", serviceID),
		zap.String("admin_id", adminID))

	s.reconcile(candidate.OrderID)
	return candidate, nil
}

func (s *candidateService) UploadSummaryResult(candidateID string, file *multipart.FileHeader, upload ResultUpload, adminID string) (*model.Candidate, error) {
	if !model.ValidResultStatus(upload.Status) {
		return nil, apperr.Errorf(apperr.Validation, "invalid result status %q", upload.Status)
	}

	candidate, err := s.FindOne(candidateID)
	if err != nil {
		return nil, err
	}

	name := resultFilename(candidate, "summary", file.Filename)
	uploaded, err := s.storage.UploadFile(file, fmt.Sprintf("results/%s/summary", candidateID), name)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to store summary document")
	}

	if candidate.SummaryResult != nil {
		old := candidate.SummaryResult.ResultFile
		worker.Fire("delete-replaced-summary-file", func() error {
			return s.storage.DeleteFile(old)
		})
	}

	candidate.SummaryResult = &model.SummaryResultDoc{
		ResultFile:    uploaded.Filename,
		ResultURL:     uploaded.URL,
		FileName:      file.Filename,
		FileType:      file.Header.Get("Content-Type"),
		FileSize:      file.Size,
		OverallStatus: upload.Status,
		Note:          upload.Note,
		UploadedAt:    time.Now(),
		UploadedBy:    adminID,
	}

	if err := s.repo.Update(candidate); err != nil {
		worker.Fire("delete-orphan-summary-file", func() error {
			return s.storage.DeleteFile(uploaded.Filename)
		})
		return nil, err
	}

	metrics.ResultsUploaded.WithLabelValues("summary").Inc()
	logger.Log.Info("summary result uploaded",
		zap.String("candidate_id", candidateID),
		zap.String("admin_id", adminID))

	s.reconcile(candidate.OrderID)
	return candidate, nil
}

func (s *candidateService) DeleteServiceResult(candidateID, serviceID string) (*model.Candidate, error) {
	candidate, err := s.FindOne(candidateID)
	if err != nil {
		return nil, err
	}

	removed := ""
	kept := candidate.ServiceResults[:0]
	for _, result := range candidate.ServiceResults {
		if result.ServiceID == serviceID {
			removed = result.ResultFile
			continue
		}
		kept = append(kept, result)
	}
	if removed == "" {
		return nil, apperr.Errorf(apperr.NotFound, "no result uploaded for service %s", serviceID)
	}
	candidate.ServiceResults = kept

	if err := s.repo.Update(candidate); err != nil {
		return nil, err
	}

	worker.Fire("delete-service-result-file", func() error {
		return s.storage.DeleteFile(removed)
	})
	s.reconcile(candidate.OrderID)
	return candidate, nil
}

func (s *candidateService) DeleteSummaryResult(candidateID string) (*model.Candidate, error) {
	candidate, err := s.FindOne(candidateID)
	if err != nil {
		return nil, err
	}
	if candidate.SummaryResult == nil {
		return nil, apperr.New(apperr.NotFound, "no summary result uploaded")
	}

	removed := candidate.SummaryResult.ResultFile
	candidate.SummaryResult = nil

	if err := s.repo.Update(candidate); err != nil {
		return nil, err
	}

	worker.Fire("delete-summary-result-file", func() error {
		return s.storage.DeleteFile(removed)
	})
	s.reconcile(candidate.OrderID)
	return candidate, nil
}

func (s *candidateService) reconcile(orderID string) {
	if orderGateway != nil {
		orderGateway.ReconcileOrderCompletion(orderID)
	}
}

// resultFilename builds a human-readable object name so admins can tell
// result files apart in the storage console.
func resultFilename(candidate *model.Candidate, label, originalName string) string {
	base := fmt.Sprintf("%s_%s_%s_%d", candidate.FirstName, candidate.LastName, label, time.Now().UnixMilli())
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, base)
	return base + filepath.Ext(originalName)
}
