package service

import (
	"errors"
	"mime/multipart"
	"regexp"
	"testing"

	candidateModel "backcheck_api/internal/domain/candidate/model"
	candidateService "backcheck_api/internal/domain/candidate/service"
	catalogModel "backcheck_api/internal/domain/catalog/model"
	couponModel "backcheck_api/internal/domain/coupon/model"
	couponService "backcheck_api/internal/domain/coupon/service"
	"backcheck_api/internal/domain/order/model"
	"backcheck_api/pkg/apperr"
	baseModel "backcheck_api/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockOrderRepository is a mock of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(order *model.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(id string) (*model.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByTrackingNumber(trackingNumber string) (*model.Order, error) {
	args := m.Called(trackingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByUser(userID string) ([]model.Order, error) {
	args := m.Called(userID)
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetList(page, limit int, status model.OrderStatus) ([]model.Order, int64, error) {
	args := m.Called(page, limit, status)
	return args.Get(0).([]model.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) Update(order *model.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *MockOrderRepository) Delete(id string) (int64, error) {
	args := m.Called(id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) FindReviewable(userID string) ([]model.Order, error) {
	args := m.Called(userID)
	return args.Get(0).([]model.Order), args.Error(1)
}

// MockCouponService is a mock of coupon service.CouponService
type MockCouponService struct {
	mock.Mock
}

func (m *MockCouponService) CreateCoupon(input *couponService.CreateCouponInput) (*couponModel.Coupon, error) {
	args := m.Called(input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*couponModel.Coupon), args.Error(1)
}

func (m *MockCouponService) FindAll() ([]couponModel.Coupon, error) {
	args := m.Called()
	return args.Get(0).([]couponModel.Coupon), args.Error(1)
}

func (m *MockCouponService) FindOne(id string) (*couponModel.Coupon, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*couponModel.Coupon), args.Error(1)
}

func (m *MockCouponService) FindPublicCoupons() ([]couponModel.Coupon, error) {
	args := m.Called()
	return args.Get(0).([]couponModel.Coupon), args.Error(1)
}

func (m *MockCouponService) FindSurveyCoupons() ([]couponModel.Coupon, error) {
	args := m.Called()
	return args.Get(0).([]couponModel.Coupon), args.Error(1)
}

func (m *MockCouponService) FindUserCoupons(userID string, includeUsed bool) ([]couponModel.Coupon, error) {
	args := m.Called(userID, includeUsed)
	return args.Get(0).([]couponModel.Coupon), args.Error(1)
}

func (m *MockCouponService) FindReleasedCoupons(limit int) ([]couponModel.Coupon, error) {
	args := m.Called(limit)
	return args.Get(0).([]couponModel.Coupon), args.Error(1)
}

func (m *MockCouponService) UpdateCoupon(id string, input *couponService.UpdateCouponInput) (*couponModel.Coupon, error) {
	args := m.Called(id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*couponModel.Coupon), args.Error(1)
}

func (m *MockCouponService) RemoveCoupon(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockCouponService) ClaimCoupon(couponID, userID string) (*couponModel.Coupon, error) {
	args := m.Called(couponID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*couponModel.Coupon), args.Error(1)
}

func (m *MockCouponService) ValidateCoupon(code string, priceAfterPromotion float64, userID string) (*couponService.ValidCoupon, error) {
	args := m.Called(code, priceAfterPromotion, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*couponService.ValidCoupon), args.Error(1)
}

func (m *MockCouponService) CalculateDiscount(discountPercent int, priceAfterPromotion float64) float64 {
	args := m.Called(discountPercent, priceAfterPromotion)
	return args.Get(0).(float64)
}

func (m *MockCouponService) MarkAsUsed(couponID, orderID string) error {
	args := m.Called(couponID, orderID)
	return args.Error(0)
}

func (m *MockCouponService) ReleaseCouponsForOrder(orderID string) {
	m.Called(orderID)
}

func (m *MockCouponService) CreateSurveyCoupon(userID string) (*couponModel.Coupon, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*couponModel.Coupon), args.Error(1)
}

// MockCandidateService is a mock of candidate service.CandidateService
type MockCandidateService struct {
	mock.Mock
}

func (m *MockCandidateService) CreateForOrder(orderID string, inputs []candidateService.CandidateInput) ([]candidateModel.Candidate, error) {
	args := m.Called(orderID, inputs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]candidateModel.Candidate), args.Error(1)
}

func (m *MockCandidateService) FindOne(id string) (*candidateModel.Candidate, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*candidateModel.Candidate), args.Error(1)
}

func (m *MockCandidateService) FindByOrder(orderID string) ([]candidateModel.Candidate, error) {
	args := m.Called(orderID)
	return args.Get(0).([]candidateModel.Candidate), args.Error(1)
}

func (m *MockCandidateService) FindAll(page, limit int) ([]candidateModel.Candidate, int64, error) {
	args := m.Called(page, limit)
	return args.Get(0).([]candidateModel.Candidate), args.Get(1).(int64), args.Error(2)
}

func (m *MockCandidateService) UpdateCandidate(id string, input *candidateService.CandidateInput) (*candidateModel.Candidate, error) {
	args := m.Called(id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*candidateModel.Candidate), args.Error(1)
}

func (m *MockCandidateService) DeleteCandidate(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockCandidateService) DeleteByOrder(orderID string) error {
	args := m.Called(orderID)
	return args.Error(0)
}

func (m *MockCandidateService) GetCandidateResults(id, requesterID string, isAdmin bool) (*candidateService.CandidateResults, error) {
	args := m.Called(id, requesterID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*candidateService.CandidateResults), args.Error(1)
}

func (m *MockCandidateService) UploadServiceResult(candidateID, serviceID string, file *multipart.FileHeader, upload candidateService.ResultUpload, adminID string) (*candidateModel.Candidate, error) {
	args := m.Called(candidateID, serviceID, file, upload, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*candidateModel.Candidate), args.Error(1)
}

func (m *MockCandidateService) UploadSummaryResult(candidateID string, file *multipart.FileHeader, upload candidateService.ResultUpload, adminID string) (*candidateModel.Candidate, error) {
	args := m.Called(candidateID, file, upload, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*candidateModel.Candidate), args.Error(1)
}

func (m *MockCandidateService) DeleteServiceResult(candidateID, serviceID string) (*candidateModel.Candidate, error) {
	args := m.Called(candidateID, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*candidateModel.Candidate), args.Error(1)
}

func (m *MockCandidateService) DeleteSummaryResult(candidateID string) (*candidateModel.Candidate, error) {
	args := m.Called(candidateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*candidateModel.Candidate), args.Error(1)
}

// MockCatalogService is a mock of catalog service.CatalogService
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) Create(service *catalogModel.Service) (*catalogModel.Service, error) {
	args := m.Called(service)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogModel.Service), args.Error(1)
}

func (m *MockCatalogService) FindAll() ([]catalogModel.Service, error) {
	args := m.Called()
	return args.Get(0).([]catalogModel.Service), args.Error(1)
}

func (m *MockCatalogService) FindOne(id string) (*catalogModel.Service, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogModel.Service), args.Error(1)
}

func (m *MockCatalogService) Update(id string, update *catalogModel.Service) (*catalogModel.Service, error) {
	args := m.Called(id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogModel.Service), args.Error(1)
}

func (m *MockCatalogService) Remove(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

type orderMocks struct {
	repo       *MockOrderRepository
	coupons    *MockCouponService
	candidates *MockCandidateService
	catalog    *MockCatalogService
}

func newOrderService() (OrderService, *orderMocks) {
	m := &orderMocks{
		repo:       new(MockOrderRepository),
		coupons:    new(MockCouponService),
		candidates: new(MockCandidateService),
		catalog:    new(MockCatalogService),
	}
	return NewOrderService(m.repo, m.coupons, m.candidates, m.catalog), m
}

func testCatalogService(id, title string, price float64) *catalogModel.Service {
	return &catalogModel.Service{
		BaseModel: baseModel.BaseModel{ID: id},
		Title:     title,
		Price:     price,
	}
}

func testCreateInput() *CreateOrderInput {
	return &CreateOrderInput{
		OrderType: model.OrderTypeCompany,
		Services: []ServiceLineInput{
			{ServiceID: "svc-1", Quantity: 1},
		},
		Candidates: []candidateService.CandidateInput{
			{
				FirstName:        "Jane",
				LastName:         "Doe",
				AssignedServices: candidateModel.AssignedServiceList{{ServiceID: "svc-1", ServiceName: "Criminal Record Check"}},
			},
		},
		SubTotalPrice: 1000,
		TotalPrice:    1000,
	}
}

func TestCreateOrder(t *testing.T) {
	t.Run("Coupon validated on price after promotion", func(t *testing.T) {
		service, m := newOrderService()
		input := testCreateInput()
		input.PromotionDiscount = 100
		input.TotalPrice = 810
		input.CouponCode = "SAVE10"

		coupon := &couponModel.Coupon{BaseModel: baseModel.BaseModel{ID: "claim-1"}, DiscountPercent: 10}
		valid := &couponService.ValidCoupon{
			Coupon:          coupon,
			DiscountPercent: 10,
			DiscountAmount:  90,
			FinalPrice:      810,
		}

		m.catalog.On("FindOne", "svc-1").Return(testCatalogService("svc-1", "Criminal Record Check", 1000), nil)
		m.coupons.On("ValidateCoupon", "SAVE10", float64(900), "user-1").Return(valid, nil)
		m.repo.On("Create", mock.AnythingOfType("*model.Order")).Return(nil).Run(func(args mock.Arguments) {
			args.Get(0).(*model.Order).ID = "order-1"
		})
		m.candidates.On("CreateForOrder", "order-1", input.Candidates).
			Return([]candidateModel.Candidate{{}}, nil)
		m.coupons.On("MarkAsUsed", "claim-1", "order-1").Return(nil)

		order, err := service.CreateOrder("user-1", input)

		assert.NoError(t, err)
		assert.Equal(t, model.StatusAwaitingPayment, order.OrderStatus)
		assert.Equal(t, "claim-1", *order.CouponID)
		assert.Equal(t, float64(90), order.CouponDiscount)
		assert.Equal(t, float64(810), order.TotalPrice)
		assert.Equal(t, "Criminal Record Check", order.Services[0].Title)
		assert.Equal(t, float64(1000), order.Services[0].UnitPrice)
		m.coupons.AssertExpectations(t)
		m.repo.AssertExpectations(t)
	})

	t.Run("Invalid coupon fails before any write", func(t *testing.T) {
		service, m := newOrderService()
		input := testCreateInput()
		input.CouponCode = "BAD"

		m.catalog.On("FindOne", "svc-1").Return(testCatalogService("svc-1", "Criminal Record Check", 1000), nil)
		m.coupons.On("ValidateCoupon", "BAD", float64(1000), "user-1").
			Return(nil, apperr.New(apperr.NotFound, "coupon not found"))

		_, err := service.CreateOrder("user-1", input)

		assert.True(t, apperr.Is(err, apperr.NotFound))
		m.repo.AssertNotCalled(t, "Create", mock.Anything)
	})

	t.Run("Candidate fan-out failure compensates order and candidates", func(t *testing.T) {
		service, m := newOrderService()
		input := testCreateInput()

		m.catalog.On("FindOne", "svc-1").Return(testCatalogService("svc-1", "Criminal Record Check", 1000), nil)
		m.repo.On("Create", mock.AnythingOfType("*model.Order")).Return(nil).Run(func(args mock.Arguments) {
			args.Get(0).(*model.Order).ID = "order-1"
		})
		m.candidates.On("CreateForOrder", "order-1", input.Candidates).
			Return(nil, errors.New("db down"))
		m.candidates.On("DeleteByOrder", "order-1").Return(nil)
		m.repo.On("Delete", "order-1").Return(int64(1), nil)

		_, err := service.CreateOrder("user-1", input)

		assert.True(t, apperr.Is(err, apperr.Internal))
		m.candidates.AssertCalled(t, "DeleteByOrder", "order-1")
		m.repo.AssertCalled(t, "Delete", "order-1")
	})

	t.Run("Assignment outside the order fails before any write", func(t *testing.T) {
		service, m := newOrderService()
		input := testCreateInput()
		input.Candidates[0].AssignedServices = candidateModel.AssignedServiceList{
			{ServiceID: "svc-1", ServiceName: "Criminal Record Check"},
			{ServiceID: "svc-99", ServiceName: "Not In This Order"},
		}

		m.catalog.On("FindOne", "svc-1").Return(testCatalogService("svc-1", "Criminal Record Check", 1000), nil)

		_, err := service.CreateOrder("user-1", input)

		assert.True(t, apperr.Is(err, apperr.Validation))
		assert.Contains(t, err.Error(), "svc-99")
		m.repo.AssertNotCalled(t, "Create", mock.Anything)
		m.candidates.AssertNotCalled(t, "CreateForOrder", mock.Anything, mock.Anything)
	})

	t.Run("Client-sent service names are replaced by catalog titles", func(t *testing.T) {
		service, m := newOrderService()
		input := testCreateInput()
		input.Candidates[0].AssignedServices[0].ServiceName = "Whatever The Client Typed"

		var fannedOut []candidateService.CandidateInput
		m.catalog.On("FindOne", "svc-1").Return(testCatalogService("svc-1", "Criminal Record Check", 1000), nil)
		m.repo.On("Create", mock.AnythingOfType("*model.Order")).Return(nil).Run(func(args mock.Arguments) {
			args.Get(0).(*model.Order).ID = "order-1"
		})
		m.candidates.On("CreateForOrder", "order-1", mock.Anything).
			Return([]candidateModel.Candidate{{}}, nil).
			Run(func(args mock.Arguments) {
				fannedOut = args.Get(1).([]candidateService.CandidateInput)
			})

		_, err := service.CreateOrder("user-1", input)

		assert.NoError(t, err)
		assert.Equal(t, "Criminal Record Check", fannedOut[0].AssignedServices[0].ServiceName)
	})

	t.Run("Unknown service in the cart fails the order", func(t *testing.T) {
		service, m := newOrderService()
		input := testCreateInput()

		m.catalog.On("FindOne", "svc-1").
			Return(nil, apperr.New(apperr.NotFound, "service not found"))

		_, err := service.CreateOrder("user-1", input)

		assert.True(t, apperr.Is(err, apperr.NotFound))
		m.repo.AssertNotCalled(t, "Create", mock.Anything)
	})
}

func TestApplyAndRemoveCoupon(t *testing.T) {
	t.Run("Apply then remove restores the total", func(t *testing.T) {
		service, m := newOrderService()
		order := &model.Order{
			BaseModel:     baseModel.BaseModel{ID: "order-1"},
			UserID:        "user-1",
			OrderStatus:   model.StatusAwaitingPayment,
			SubTotalPrice: 1000,
			TotalPrice:    1000,
		}

		coupon := &couponModel.Coupon{BaseModel: baseModel.BaseModel{ID: "claim-1"}, DiscountPercent: 10}
		valid := &couponService.ValidCoupon{Coupon: coupon, DiscountPercent: 10, DiscountAmount: 100, FinalPrice: 900}

		m.repo.On("GetByID", "order-1").Return(order, nil)
		m.coupons.On("ValidateCoupon", "SAVE10", float64(1000), "user-1").Return(valid, nil)
		m.coupons.On("MarkAsUsed", "claim-1", "order-1").Return(nil)
		m.repo.On("Update", order).Return(nil)
		m.coupons.On("ReleaseCouponsForOrder", "order-1").Return()

		applied, err := service.ApplyCoupon("order-1", "SAVE10")
		assert.NoError(t, err)
		assert.Equal(t, float64(900), applied.TotalPrice)
		assert.Equal(t, "claim-1", *applied.CouponID)
		assert.Equal(t, float64(100), applied.CouponDiscount)

		removed, err := service.RemoveCoupon("order-1")
		assert.NoError(t, err)
		assert.Equal(t, float64(1000), removed.TotalPrice)
		assert.Nil(t, removed.CouponID)
		assert.Equal(t, float64(0), removed.CouponDiscount)
		m.coupons.AssertCalled(t, "ReleaseCouponsForOrder", "order-1")
	})

	t.Run("Second coupon on the same order is rejected", func(t *testing.T) {
		service, m := newOrderService()
		couponID := "claim-1"
		order := &model.Order{
			BaseModel: baseModel.BaseModel{ID: "order-1"},
			CouponID:  &couponID,
		}

		m.repo.On("GetByID", "order-1").Return(order, nil)

		_, err := service.ApplyCoupon("order-1", "SAVE10")

		assert.True(t, apperr.Is(err, apperr.InvalidState))
		m.coupons.AssertNotCalled(t, "ValidateCoupon", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Removing from a coupon-less order is rejected", func(t *testing.T) {
		service, m := newOrderService()
		order := &model.Order{BaseModel: baseModel.BaseModel{ID: "order-1"}}

		m.repo.On("GetByID", "order-1").Return(order, nil)

		_, err := service.RemoveCoupon("order-1")

		assert.True(t, apperr.Is(err, apperr.InvalidState))
	})
}

func TestUpdateOrderStatus(t *testing.T) {
	t.Run("Unknown status is rejected", func(t *testing.T) {
		service, m := newOrderService()

		_, err := service.UpdateOrderStatus("order-1", model.OrderStatus("shipped"))

		assert.True(t, apperr.Is(err, apperr.Validation))
		m.repo.AssertNotCalled(t, "GetByID", mock.Anything)
	})

	t.Run("Valid transition is saved", func(t *testing.T) {
		service, m := newOrderService()
		order := &model.Order{
			BaseModel:   baseModel.BaseModel{ID: "order-1"},
			OrderStatus: model.StatusPaymentVerified,
		}

		m.repo.On("GetByID", "order-1").Return(order, nil)
		m.repo.On("Update", order).Return(nil)

		updated, err := service.UpdateOrderStatus("order-1", model.StatusProcessing)

		assert.NoError(t, err)
		assert.Equal(t, model.StatusProcessing, updated.OrderStatus)
	})
}

func TestDeleteOrder(t *testing.T) {
	t.Run("Candidate cleanup failure does not block deletion", func(t *testing.T) {
		service, m := newOrderService()
		order := &model.Order{BaseModel: baseModel.BaseModel{ID: "order-1"}, TrackingNumber: "SCT12345678901"}

		m.repo.On("GetByID", "order-1").Return(order, nil)
		m.coupons.On("ReleaseCouponsForOrder", "order-1").Return()
		m.candidates.On("DeleteByOrder", "order-1").Return(errors.New("db down"))
		m.repo.On("Delete", "order-1").Return(int64(1), nil)

		err := service.DeleteOrder("order-1")

		assert.NoError(t, err)
		m.coupons.AssertCalled(t, "ReleaseCouponsForOrder", "order-1")
	})

	t.Run("Missing order is NotFound", func(t *testing.T) {
		service, m := newOrderService()

		m.repo.On("GetByID", "order-1").Return(nil, gorm.ErrRecordNotFound)

		err := service.DeleteOrder("order-1")

		assert.True(t, apperr.Is(err, apperr.NotFound))
	})
}

func TestGenerateTrackingNumber(t *testing.T) {
	pattern := regexp.MustCompile(`^SCT\d{11}$`)
	for i := 0; i < 10; i++ {
		assert.Regexp(t, pattern, generateTrackingNumber())
	}
}
