package service

import (
	"errors"
	"mime/multipart"
	"net/textproto"
	"testing"

	"backcheck_api/internal/domain/candidate/model"
	"backcheck_api/internal/pkg/storage"
	"backcheck_api/pkg/apperr"
	baseModel "backcheck_api/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockCandidateRepository is a mock of CandidateRepository
type MockCandidateRepository struct {
	mock.Mock
}

func (m *MockCandidateRepository) Create(candidate *model.Candidate) error {
	args := m.Called(candidate)
	return args.Error(0)
}

func (m *MockCandidateRepository) GetByID(id string) (*model.Candidate, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Candidate), args.Error(1)
}

func (m *MockCandidateRepository) GetByOrderID(orderID string) ([]model.Candidate, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Candidate), args.Error(1)
}

func (m *MockCandidateRepository) GetList(page, limit int) ([]model.Candidate, int64, error) {
	args := m.Called(page, limit)
	return args.Get(0).([]model.Candidate), args.Get(1).(int64), args.Error(2)
}

func (m *MockCandidateRepository) Update(candidate *model.Candidate) error {
	args := m.Called(candidate)
	return args.Error(0)
}

func (m *MockCandidateRepository) Delete(id string) (int64, error) {
	args := m.Called(id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCandidateRepository) DeleteByOrderID(orderID string) (int64, error) {
	args := m.Called(orderID)
	return args.Get(0).(int64), args.Error(1)
}

// MockFileStorage is a mock of storage.FileStorage
type MockFileStorage struct {
	mock.Mock
}

func (m *MockFileStorage) UploadFile(file *multipart.FileHeader, folder, customName string) (*storage.UploadResult, error) {
	args := m.Called(file, folder, customName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.UploadResult), args.Error(1)
}

func (m *MockFileStorage) DeleteFile(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockFileStorage) FileURL(path string) string {
	args := m.Called(path)
	return args.String(0)
}

// MockOrderGateway is a mock of OrderGateway
type MockOrderGateway struct {
	mock.Mock
}

func (m *MockOrderGateway) OrderOwner(orderID string) (string, error) {
	args := m.Called(orderID)
	return args.String(0), args.Error(1)
}

func (m *MockOrderGateway) ReconcileOrderCompletion(orderID string) {
	m.Called(orderID)
}

func testFileHeader(name string) *multipart.FileHeader {
	return &multipart.FileHeader{
		Filename: name,
		Size:     2048,
		Header:   textproto.MIMEHeader{"Content-Type": []string{"application/pdf"}},
	}
}

func testCandidate(id string) *model.Candidate {
	return &model.Candidate{
		BaseModel: baseModel.BaseModel{ID: id},
		OrderID:   "order-1",
		FirstName: "Jane",
		LastName:  "Doe",
		AssignedServices: model.AssignedServiceList{
			{ServiceID: "svc-1", ServiceName: "Criminal Record Check"},
			{ServiceID: "svc-2", ServiceName: "Employment Verification"},
		},
		ServiceResults: model.ServiceResultList{},
	}
}

func TestCreateForOrder(t *testing.T) {
	mockRepo := new(MockCandidateRepository)
	service := NewCandidateService(mockRepo, new(MockFileStorage))

	inputs := []CandidateInput{
		{FirstName: "Jane", LastName: "Doe", AssignedServices: model.AssignedServiceList{{ServiceID: "svc-1"}}},
		{FirstName: "John", LastName: "Smith", AssignedServices: model.AssignedServiceList{{ServiceID: "svc-1"}}},
	}

	mockRepo.On("Create", mock.AnythingOfType("*model.Candidate")).Return(nil).Times(2)

	created, err := service.CreateForOrder("order-1", inputs)

	assert.NoError(t, err)
	assert.Len(t, created, 2)
	assert.Equal(t, "order-1", created[0].OrderID)
	assert.Equal(t, "Jane", created[0].FirstName)
	mockRepo.AssertExpectations(t)
}

func TestUploadServiceResult(t *testing.T) {
	t.Run("Unassigned service is rejected before storage", func(t *testing.T) {
		mockRepo := new(MockCandidateRepository)
		mockStorage := new(MockFileStorage)
		service := NewCandidateService(mockRepo, mockStorage)

		mockRepo.On("GetByID", "cand-1").Return(testCandidate("cand-1"), nil)

		_, err := service.UploadServiceResult("cand-1", "svc-99", testFileHeader("report.pdf"), ResultUpload{}, "admin-1")

		assert.True(t, apperr.Is(err, apperr.Validation))
		mockStorage.AssertNotCalled(t, "UploadFile", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unknown verdict is rejected", func(t *testing.T) {
		service := NewCandidateService(new(MockCandidateRepository), new(MockFileStorage))

		_, err := service.UploadServiceResult("cand-1", "svc-1", testFileHeader("report.pdf"), ResultUpload{Status: "ok"}, "admin-1")

		assert.True(t, apperr.Is(err, apperr.Validation))
	})

	t.Run("Upload stores the file and nudges the order", func(t *testing.T) {
		mockRepo := new(MockCandidateRepository)
		mockStorage := new(MockFileStorage)
		gateway := new(MockOrderGateway)
		SetOrderGateway(gateway)
		defer SetOrderGateway(nil)
		service := NewCandidateService(mockRepo, mockStorage)
		candidate := testCandidate("cand-1")

		mockRepo.On("GetByID", "cand-1").Return(candidate, nil)
		mockStorage.On("UploadFile", mock.Anything, "results/cand-1/services", mock.AnythingOfType("string")).
			Return(&storage.UploadResult{Filename: "results/cand-1/services/Jane_Doe.pdf", URL: "https://cdn/x.pdf"}, nil)
		mockRepo.On("Update", candidate).Return(nil)
		gateway.On("ReconcileOrderCompletion", "order-1").Return()

		updated, err := service.UploadServiceResult("cand-1", "svc-1", testFileHeader("report.pdf"), ResultUpload{Status: model.ResultStatusPass, Note: "clean"}, "admin-1")

		assert.NoError(t, err)
		result := updated.ResultForService("svc-1")
		assert.NotNil(t, result)
		assert.Equal(t, model.ResultStatusPass, result.Status)
		assert.Equal(t, "clean", result.Note)
		assert.Equal(t, "Criminal Record Check", result.ServiceName)
		assert.Equal(t, "admin-1", result.UploadedBy)
		gateway.AssertCalled(t, "ReconcileOrderCompletion", "order-1")
	})

	t.Run("Re-upload replaces the previous document", func(t *testing.T) {
		mockRepo := new(MockCandidateRepository)
		mockStorage := new(MockFileStorage)
		service := NewCandidateService(mockRepo, mockStorage)
		candidate := testCandidate("cand-1")
		candidate.ServiceResults = model.ServiceResultList{
			{ServiceID: "svc-1", ResultFile: "results/cand-1/services/old.pdf", Status: model.ResultStatusPending},
		}

		mockRepo.On("GetByID", "cand-1").Return(candidate, nil)
		mockStorage.On("UploadFile", mock.Anything, "results/cand-1/services", mock.AnythingOfType("string")).
			Return(&storage.UploadResult{Filename: "results/cand-1/services/new.pdf"}, nil)
		mockStorage.On("DeleteFile", "results/cand-1/services/old.pdf").Return(nil)
		mockRepo.On("Update", candidate).Return(nil)

		updated, err := service.UploadServiceResult("cand-1", "svc-1", testFileHeader("report.pdf"), ResultUpload{Status: model.ResultStatusFail}, "admin-1")

		assert.NoError(t, err)
		assert.Len(t, updated.ServiceResults, 1)
		assert.Equal(t, "results/cand-1/services/new.pdf", updated.ServiceResults[0].ResultFile)
		mockStorage.AssertExpectations(t)
	})

	t.Run("Save failure cleans up the fresh upload", func(t *testing.T) {
		mockRepo := new(MockCandidateRepository)
		mockStorage := new(MockFileStorage)
		service := NewCandidateService(mockRepo, mockStorage)
		candidate := testCandidate("cand-1")

		mockRepo.On("GetByID", "cand-1").Return(candidate, nil)
		mockStorage.On("UploadFile", mock.Anything, mock.Anything, mock.Anything).
			Return(&storage.UploadResult{Filename: "results/cand-1/services/orphan.pdf"}, nil)
		mockRepo.On("Update", candidate).Return(errors.New("db down"))
		mockStorage.On("DeleteFile", "results/cand-1/services/orphan.pdf").Return(nil)

		_, err := service.UploadServiceResult("cand-1", "svc-1", testFileHeader("report.pdf"), ResultUpload{}, "admin-1")

		assert.Error(t, err)
		mockStorage.AssertCalled(t, "DeleteFile", "results/cand-1/services/orphan.pdf")
	})
}

func TestUploadSummaryResult(t *testing.T) {
	t.Run("Summary requires an explicit verdict", func(t *testing.T) {
		service := NewCandidateService(new(MockCandidateRepository), new(MockFileStorage))

		_, err := service.UploadSummaryResult("cand-1", testFileHeader("summary.pdf"), ResultUpload{}, "admin-1")

		assert.True(t, apperr.Is(err, apperr.Validation))
	})

	t.Run("Summary upload completes the candidate", func(t *testing.T) {
		mockRepo := new(MockCandidateRepository)
		mockStorage := new(MockFileStorage)
		gateway := new(MockOrderGateway)
		SetOrderGateway(gateway)
		defer SetOrderGateway(nil)
		service := NewCandidateService(mockRepo, mockStorage)
		candidate := testCandidate("cand-1")

		mockRepo.On("GetByID", "cand-1").Return(candidate, nil)
		mockStorage.On("UploadFile", mock.Anything, "results/cand-1/summary", mock.AnythingOfType("string")).
			Return(&storage.UploadResult{Filename: "results/cand-1/summary/final.pdf"}, nil)
		mockRepo.On("Update", candidate).Return(nil)
		gateway.On("ReconcileOrderCompletion", "order-1").Return()

		updated, err := service.UploadSummaryResult("cand-1", testFileHeader("summary.pdf"), ResultUpload{Status: model.ResultStatusPass}, "admin-1")

		assert.NoError(t, err)
		assert.NotNil(t, updated.SummaryResult)
		assert.Equal(t, model.ResultStatusPass, updated.SummaryResult.OverallStatus)
		gateway.AssertCalled(t, "ReconcileOrderCompletion", "order-1")
	})
}

func TestDeleteServiceResult(t *testing.T) {
	t.Run("Removes the entry and reconciles", func(t *testing.T) {
		mockRepo := new(MockCandidateRepository)
		mockStorage := new(MockFileStorage)
		gateway := new(MockOrderGateway)
		SetOrderGateway(gateway)
		defer SetOrderGateway(nil)
		service := NewCandidateService(mockRepo, mockStorage)
		candidate := testCandidate("cand-1")
		candidate.ServiceResults = model.ServiceResultList{
			{ServiceID: "svc-1", ResultFile: "results/cand-1/services/a.pdf"},
		}

		mockRepo.On("GetByID", "cand-1").Return(candidate, nil)
		mockRepo.On("Update", candidate).Return(nil)
		mockStorage.On("DeleteFile", "results/cand-1/services/a.pdf").Return(nil)
		gateway.On("ReconcileOrderCompletion", "order-1").Return()

		updated, err := service.DeleteServiceResult("cand-1", "svc-1")

		assert.NoError(t, err)
		assert.Empty(t, updated.ServiceResults)
		gateway.AssertCalled(t, "ReconcileOrderCompletion", "order-1")
	})

	t.Run("Missing result is NotFound", func(t *testing.T) {
		mockRepo := new(MockCandidateRepository)
		service := NewCandidateService(mockRepo, new(MockFileStorage))

		mockRepo.On("GetByID", "cand-1").Return(testCandidate("cand-1"), nil)

		_, err := service.DeleteServiceResult("cand-1", "svc-1")

		assert.True(t, apperr.Is(err, apperr.NotFound))
	})
}

func TestGetCandidateResults(t *testing.T) {
	t.Run("Owner sees the tracker view", func(t *testing.T) {
		mockRepo := new(MockCandidateRepository)
		gateway := new(MockOrderGateway)
		SetOrderGateway(gateway)
		defer SetOrderGateway(nil)
		service := NewCandidateService(mockRepo, new(MockFileStorage))
		candidate := testCandidate("cand-1")
		candidate.ServiceResults = model.ServiceResultList{{ServiceID: "svc-1", Status: model.ResultStatusPass}}
		candidate.SummaryResult = &model.SummaryResultDoc{OverallStatus: model.ResultStatusFail}

		mockRepo.On("GetByID", "cand-1").Return(candidate, nil)
		gateway.On("OrderOwner", "order-1").Return("user-1", nil)

		results, err := service.GetCandidateResults("cand-1", "user-1", false)

		assert.NoError(t, err)
		assert.Equal(t, 1, results.CompletedServiceCount)
		assert.Equal(t, 2, results.TotalServiceCount)
		assert.True(t, results.HasSummary)
		assert.False(t, results.IsComplete)
		assert.Equal(t, model.ResultStatusFail, results.Result)
	})

	t.Run("Stranger is Forbidden", func(t *testing.T) {
		mockRepo := new(MockCandidateRepository)
		gateway := new(MockOrderGateway)
		SetOrderGateway(gateway)
		defer SetOrderGateway(nil)
		service := NewCandidateService(mockRepo, new(MockFileStorage))

		mockRepo.On("GetByID", "cand-1").Return(testCandidate("cand-1"), nil)
		gateway.On("OrderOwner", "order-1").Return("user-1", nil)

		_, err := service.GetCandidateResults("cand-1", "user-2", false)

		assert.True(t, apperr.Is(err, apperr.Forbidden))
	})

	t.Run("Admin bypasses the ownership check", func(t *testing.T) {
		mockRepo := new(MockCandidateRepository)
		service := NewCandidateService(mockRepo, new(MockFileStorage))

		mockRepo.On("GetByID", "cand-1").Return(testCandidate("cand-1"), nil)

		results, err := service.GetCandidateResults("cand-1", "admin-1", true)

		assert.NoError(t, err)
		assert.Equal(t, 0, results.CompletionPercentage)
	})

	t.Run("Unknown candidate is NotFound", func(t *testing.T) {
		mockRepo := new(MockCandidateRepository)
		service := NewCandidateService(mockRepo, new(MockFileStorage))

		mockRepo.On("GetByID", "cand-1").Return(nil, gorm.ErrRecordNotFound)

		_, err := service.GetCandidateResults("cand-1", "admin-1", true)

		assert.True(t, apperr.Is(err, apperr.NotFound))
	})
}
