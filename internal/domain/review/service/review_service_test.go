package service

import (
	"testing"

	orderModel "backcheck_api/internal/domain/order/model"
	orderService "backcheck_api/internal/domain/order/service"
	"backcheck_api/internal/domain/review/model"
	"backcheck_api/internal/domain/review/repository"
	userModel "backcheck_api/internal/domain/user/model"
	"backcheck_api/pkg/apperr"
	baseModel "backcheck_api/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockReviewRepository is a mock of ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(review *model.Review) error {
	args := m.Called(review)
	return args.Error(0)
}

func (m *MockReviewRepository) GetByID(id string) (*model.Review, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockReviewRepository) GetByOrderID(orderID string) (*model.Review, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockReviewRepository) GetByOrderAndUser(orderID, userID string) (*model.Review, error) {
	args := m.Called(orderID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockReviewRepository) GetByUser(userID string) ([]model.Review, error) {
	args := m.Called(userID)
	return args.Get(0).([]model.Review), args.Error(1)
}

func (m *MockReviewRepository) GetList(page, limit int) ([]model.Review, int64, error) {
	args := m.Called(page, limit)
	return args.Get(0).([]model.Review), args.Get(1).(int64), args.Error(2)
}

func (m *MockReviewRepository) Update(review *model.Review) error {
	args := m.Called(review)
	return args.Error(0)
}

func (m *MockReviewRepository) Delete(id string) (int64, error) {
	args := m.Called(id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReviewRepository) Stats() (*repository.RatingStats, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.RatingStats), args.Error(1)
}

// MockOrderService is a mock of order service.OrderService
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(userID string, input *orderService.CreateOrderInput) (*orderModel.Order, error) {
	args := m.Called(userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderModel.Order), args.Error(1)
}

func (m *MockOrderService) FindOne(id string) (*orderModel.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderModel.Order), args.Error(1)
}

func (m *MockOrderService) FindByTrackingNumber(trackingNumber string) (*orderModel.Order, error) {
	args := m.Called(trackingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderModel.Order), args.Error(1)
}

func (m *MockOrderService) FindByUser(userID string) ([]orderModel.Order, error) {
	args := m.Called(userID)
	return args.Get(0).([]orderModel.Order), args.Error(1)
}

func (m *MockOrderService) FindAll(page, limit int, status orderModel.OrderStatus) ([]orderModel.Order, int64, error) {
	args := m.Called(page, limit, status)
	return args.Get(0).([]orderModel.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderService) UpdateOrderStatus(id string, status orderModel.OrderStatus) (*orderModel.Order, error) {
	args := m.Called(id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderModel.Order), args.Error(1)
}

func (m *MockOrderService) DeleteOrder(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockOrderService) ApplyCoupon(orderID, code string) (*orderModel.Order, error) {
	args := m.Called(orderID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderModel.Order), args.Error(1)
}

func (m *MockOrderService) RemoveCoupon(orderID string) (*orderModel.Order, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderModel.Order), args.Error(1)
}

func (m *MockOrderService) MarkOrderAsReviewed(orderID, reviewID string) error {
	args := m.Called(orderID, reviewID)
	return args.Error(0)
}

func (m *MockOrderService) MarkApprovalSent(orderID string) {
	m.Called(orderID)
}

func (m *MockOrderService) FindReviewableOrders(userID string) ([]orderModel.Order, error) {
	args := m.Called(userID)
	return args.Get(0).([]orderModel.Order), args.Error(1)
}

// MockUserRepository is a mock of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *userModel.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id string) (*userModel.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userModel.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(username string) (*userModel.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userModel.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*userModel.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userModel.User), args.Error(1)
}

func (m *MockUserRepository) GetList(offset, limit int) ([]userModel.User, int64, error) {
	args := m.Called(offset, limit)
	return args.Get(0).([]userModel.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) Update(user *userModel.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(user *userModel.User) error {
	args := m.Called(user)
	return args.Error(0)
}

type reviewMocks struct {
	repo   *MockReviewRepository
	orders *MockOrderService
	users  *MockUserRepository
}

func newReviewService() (ReviewService, *reviewMocks) {
	m := &reviewMocks{
		repo:   new(MockReviewRepository),
		orders: new(MockOrderService),
		users:  new(MockUserRepository),
	}
	return NewReviewService(m.repo, m.orders, m.users), m
}

func completedOrder() *orderModel.Order {
	return &orderModel.Order{
		BaseModel:      baseModel.BaseModel{ID: "order-1"},
		TrackingNumber: "SCT12345678901",
		UserID:         "user-1",
		OrderStatus:    orderModel.StatusCompleted,
		Services: orderModel.OrderServiceLineList{
			{ServiceID: "svc-1", Title: "Criminal Record Check", Quantity: 1, UnitPrice: 500},
			{ServiceID: "svc-2", Title: "Employment Verification", Quantity: 1, UnitPrice: 500},
		},
	}
}

func reviewInput() *CreateReviewInput {
	return &CreateReviewInput{OrderID: "order-1", Rating: 5, Comment: "fast turnaround"}
}

func TestCreateReview(t *testing.T) {
	t.Run("Completed owned order gets a review with snapshots", func(t *testing.T) {
		service, m := newReviewService()

		m.orders.On("FindOne", "order-1").Return(completedOrder(), nil)
		m.repo.On("GetByOrderAndUser", "order-1", "user-1").Return(nil, gorm.ErrRecordNotFound)
		m.users.On("GetByID", "user-1").Return(&userModel.User{Username: "jane"}, nil)
		m.repo.On("Create", mock.AnythingOfType("*model.Review")).Return(nil).Run(func(args mock.Arguments) {
			args.Get(0).(*model.Review).ID = "review-1"
		})
		m.orders.On("MarkOrderAsReviewed", "order-1", "review-1").Return(nil)

		review, err := service.CreateReview("user-1", reviewInput())

		assert.NoError(t, err)
		assert.Equal(t, 5, review.Rating)
		assert.Equal(t, "jane", review.Username)
		assert.Equal(t, "SCT12345678901", review.TrackingNumber)
		assert.Equal(t, model.StringList{"Criminal Record Check", "Employment Verification"}, review.ServiceTitles)
		m.orders.AssertCalled(t, "MarkOrderAsReviewed", "order-1", "review-1")
	})

	t.Run("Order still in progress is rejected", func(t *testing.T) {
		service, m := newReviewService()
		order := completedOrder()
		order.OrderStatus = orderModel.StatusProcessing

		m.orders.On("FindOne", "order-1").Return(order, nil)

		_, err := service.CreateReview("user-1", reviewInput())

		assert.True(t, apperr.Is(err, apperr.InvalidState))
		m.repo.AssertNotCalled(t, "Create", mock.Anything)
	})

	t.Run("Someone else's order is Forbidden", func(t *testing.T) {
		service, m := newReviewService()

		m.orders.On("FindOne", "order-1").Return(completedOrder(), nil)

		_, err := service.CreateReview("user-2", reviewInput())

		assert.True(t, apperr.Is(err, apperr.Forbidden))
	})

	t.Run("Second review on the same order conflicts", func(t *testing.T) {
		service, m := newReviewService()

		m.orders.On("FindOne", "order-1").Return(completedOrder(), nil)
		m.repo.On("GetByOrderAndUser", "order-1", "user-1").
			Return(&model.Review{BaseModel: baseModel.BaseModel{ID: "review-0"}}, nil)

		_, err := service.CreateReview("user-1", reviewInput())

		assert.True(t, apperr.Is(err, apperr.Conflict))
		m.repo.AssertNotCalled(t, "Create", mock.Anything)
	})

	t.Run("Missing username does not block the review", func(t *testing.T) {
		service, m := newReviewService()

		m.orders.On("FindOne", "order-1").Return(completedOrder(), nil)
		m.repo.On("GetByOrderAndUser", "order-1", "user-1").Return(nil, gorm.ErrRecordNotFound)
		m.users.On("GetByID", "user-1").Return(nil, gorm.ErrRecordNotFound)
		m.repo.On("Create", mock.AnythingOfType("*model.Review")).Return(nil)
		m.orders.On("MarkOrderAsReviewed", "order-1", mock.Anything).Return(nil)

		review, err := service.CreateReview("user-1", reviewInput())

		assert.NoError(t, err)
		assert.Empty(t, review.Username)
	})
}

func TestCheckOrderReviewStatus(t *testing.T) {
	t.Run("Completed and unreviewed can be reviewed", func(t *testing.T) {
		service, m := newReviewService()

		m.orders.On("FindOne", "order-1").Return(completedOrder(), nil)

		status, err := service.CheckOrderReviewStatus("order-1", "user-1")

		assert.NoError(t, err)
		assert.True(t, status.CanReview)
		assert.True(t, status.IsCompleted)
		assert.False(t, status.IsReviewed)
	})

	t.Run("Already reviewed cannot be reviewed again", func(t *testing.T) {
		service, m := newReviewService()
		order := completedOrder()
		order.IsReviewed = true

		m.orders.On("FindOne", "order-1").Return(order, nil)

		status, err := service.CheckOrderReviewStatus("order-1", "user-1")

		assert.NoError(t, err)
		assert.False(t, status.CanReview)
		assert.True(t, status.IsReviewed)
	})

	t.Run("In-progress order cannot be reviewed yet", func(t *testing.T) {
		service, m := newReviewService()
		order := completedOrder()
		order.OrderStatus = orderModel.StatusProcessing

		m.orders.On("FindOne", "order-1").Return(order, nil)

		status, err := service.CheckOrderReviewStatus("order-1", "user-1")

		assert.NoError(t, err)
		assert.False(t, status.CanReview)
		assert.False(t, status.IsCompleted)
	})

	t.Run("Stranger is Forbidden", func(t *testing.T) {
		service, m := newReviewService()

		m.orders.On("FindOne", "order-1").Return(completedOrder(), nil)

		_, err := service.CheckOrderReviewStatus("order-1", "user-2")

		assert.True(t, apperr.Is(err, apperr.Forbidden))
	})
}

func TestUpdateReview(t *testing.T) {
	existing := func() *model.Review {
		return &model.Review{
			BaseModel: baseModel.BaseModel{ID: "review-1"},
			OrderID:   "order-1",
			UserID:    "user-1",
			Rating:    3,
		}
	}

	t.Run("Owner can edit", func(t *testing.T) {
		service, m := newReviewService()
		review := existing()

		m.repo.On("GetByID", "review-1").Return(review, nil)
		m.repo.On("Update", review).Return(nil)

		updated, err := service.UpdateReview("review-1", "user-1", false, &UpdateReviewInput{Rating: 4, Comment: "better"})

		assert.NoError(t, err)
		assert.Equal(t, 4, updated.Rating)
	})

	t.Run("Non-owner without admin is Forbidden", func(t *testing.T) {
		service, m := newReviewService()

		m.repo.On("GetByID", "review-1").Return(existing(), nil)

		_, err := service.UpdateReview("review-1", "user-2", false, &UpdateReviewInput{Rating: 1})

		assert.True(t, apperr.Is(err, apperr.Forbidden))
	})

	t.Run("Admin can edit anyone's review", func(t *testing.T) {
		service, m := newReviewService()
		review := existing()

		m.repo.On("GetByID", "review-1").Return(review, nil)
		m.repo.On("Update", review).Return(nil)

		_, err := service.UpdateReview("review-1", "admin-1", true, &UpdateReviewInput{Rating: 2})

		assert.NoError(t, err)
	})
}

func TestDeleteReview(t *testing.T) {
	t.Run("Owner can delete", func(t *testing.T) {
		service, m := newReviewService()
		review := &model.Review{BaseModel: baseModel.BaseModel{ID: "review-1"}, UserID: "user-1"}

		m.repo.On("GetByID", "review-1").Return(review, nil)
		m.repo.On("Delete", "review-1").Return(int64(1), nil)

		assert.NoError(t, service.DeleteReview("review-1", "user-1", false))
	})

	t.Run("Non-owner is Forbidden", func(t *testing.T) {
		service, m := newReviewService()
		review := &model.Review{BaseModel: baseModel.BaseModel{ID: "review-1"}, UserID: "user-1"}

		m.repo.On("GetByID", "review-1").Return(review, nil)

		err := service.DeleteReview("review-1", "user-2", false)

		assert.True(t, apperr.Is(err, apperr.Forbidden))
		m.repo.AssertNotCalled(t, "Delete", mock.Anything)
	})
}
