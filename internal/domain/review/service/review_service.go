package service

import (
	"errors"
	"time"

	orderModel "backcheck_api/internal/domain/order/model"
	orderService "backcheck_api/internal/domain/order/service"
	"backcheck_api/internal/domain/review/model"
	"backcheck_api/internal/domain/review/repository"
	userRepository "backcheck_api/internal/domain/user/repository"
	"backcheck_api/pkg/apperr"
	"backcheck_api/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateReviewInput struct {
	OrderID string `json:"orderId" binding:"required"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

type UpdateReviewInput struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

// ReviewStatus answers "can this order be reviewed right now".
type ReviewStatus struct {
	CanReview   bool                   `json:"canReview"`
	IsCompleted bool                   `json:"isCompleted"`
	IsReviewed  bool                   `json:"isReviewed"`
	ReviewedAt  *time.Time             `json:"reviewedAt"`
	OrderStatus orderModel.OrderStatus `json:"orderStatus"`
}

type ReviewService interface {
	CreateReview(userID string, input *CreateReviewInput) (*model.Review, error)
	CheckOrderReviewStatus(orderID, userID string) (*ReviewStatus, error)
	FindOne(id string) (*model.Review, error)
	FindByOrder(orderID string) (*model.Review, error)
	FindMine(userID string) ([]model.Review, error)
	FindAll(page, limit int) ([]model.Review, int64, error)
	Stats() (*repository.RatingStats, error)
	UpdateReview(id, requesterID string, isAdmin bool, input *UpdateReviewInput) (*model.Review, error)
	DeleteReview(id, requesterID string, isAdmin bool) error
}

type reviewService struct {
	repo   repository.ReviewRepository
	orders orderService.OrderService
	users  userRepository.UserRepository
}

func NewReviewService(
	repo repository.ReviewRepository,
	orders orderService.OrderService,
	users userRepository.UserRepository,
) ReviewService {
	return &reviewService{repo: repo, orders: orders, users: users}
}

// CreateReview is the gate: completed orders only, owner only, one review
// per order. The order is marked reviewed in the same request.
func (s *reviewService) CreateReview(userID string, input *CreateReviewInput) (*model.Review, error) {
	order, err := s.orders.FindOne(input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperr.New(apperr.Forbidden, "you do not own this order")
	}
	if order.OrderStatus != orderModel.StatusCompleted {
		return nil, apperr.New(apperr.InvalidState, "only completed orders can be reviewed")
	}

	if _, err := s.repo.GetByOrderAndUser(input.OrderID, userID); err == nil {
		return nil, apperr.New(apperr.Conflict, "this order has already been reviewed")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	username := ""
	if user, err := s.users.GetByID(userID); err == nil {
		username = user.Username
	}

	titles := make(model.StringList, 0, len(order.Services))
	for _, line := range order.Services {
		titles = append(titles, line.Title)
	}

	review := &model.Review{
		OrderID:        input.OrderID,
		UserID:         userID,
		Rating:         input.Rating,
		Comment:        input.Comment,
		Username:       username,
		TrackingNumber: order.TrackingNumber,
		ServiceTitles:  titles,
	}
	if err := s.repo.Create(review); err != nil {
		return nil, err
	}

	if err := s.orders.MarkOrderAsReviewed(input.OrderID, review.ID); err != nil {
		logger.Log.Error("review created but order not marked reviewed",
			zap.String("review_id", review.ID),
			zap.String("order_id", input.OrderID),
			zap.Error(err))
	}

	logger.Log.Info("review created",
		zap.String("review_id", review.ID),
		zap.String("order_id", input.OrderID),
		zap.Int("rating", input.Rating))
	return review, nil
}

func (s *reviewService) CheckOrderReviewStatus(orderID, userID string) (*ReviewStatus, error) {
	order, err := s.orders.FindOne(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperr.New(apperr.Forbidden, "you do not own this order")
	}

	isCompleted := order.OrderStatus == orderModel.StatusCompleted
	return &ReviewStatus{
		CanReview:   isCompleted && !order.IsReviewed,
		IsCompleted: isCompleted,
		IsReviewed:  order.IsReviewed,
		ReviewedAt:  order.ReviewedAt,
		OrderStatus: order.OrderStatus,
	}, nil
}

func (s *reviewService) FindOne(id string) (*model.Review, error) {
	review, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Errorf(apperr.NotFound, "review with ID %s not found", id)
		}
		return nil, err
	}
	return review, nil
}

func (s *reviewService) FindByOrder(orderID string) (*model.Review, error) {
	review, err := s.repo.GetByOrderID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Errorf(apperr.NotFound, "no review for order %s", orderID)
		}
		return nil, err
	}
	return review, nil
}

func (s *reviewService) FindMine(userID string) ([]model.Review, error) {
	return s.repo.GetByUser(userID)
}

func (s *reviewService) FindAll(page, limit int) ([]model.Review, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.repo.GetList(page, limit)
}

func (s *reviewService) Stats() (*repository.RatingStats, error) {
	return s.repo.Stats()
}

func (s *reviewService) UpdateReview(id, requesterID string, isAdmin bool, input *UpdateReviewInput) (*model.Review, error) {
	review, err := s.FindOne(id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && review.UserID != requesterID {
		return nil, apperr.New(apperr.Forbidden, "you can only edit your own review")
	}

	review.Rating = input.Rating
	review.Comment = input.Comment
	if err := s.repo.Update(review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) DeleteReview(id, requesterID string, isAdmin bool) error {
	review, err := s.FindOne(id)
	if err != nil {
		return err
	}
	if !isAdmin && review.UserID != requesterID {
		return apperr.New(apperr.Forbidden, "you can only delete your own review")
	}

	deleted, err := s.repo.Delete(id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return apperr.Errorf(apperr.NotFound, "review with ID %s not found", id)
	}
	return nil
}
