package service

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	candidateService "backcheck_api/internal/domain/candidate/service"
	catalogService "backcheck_api/internal/domain/catalog/service"
	couponService "backcheck_api/internal/domain/coupon/service"
	"backcheck_api/internal/domain/order/model"
	"backcheck_api/internal/domain/order/repository"
	"backcheck_api/pkg/apperr"
	"backcheck_api/pkg/logger"
	"backcheck_api/pkg/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const trackingPrefix = "SCT"

type ServiceLineInput struct {
	ServiceID string `json:"serviceId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type CreateOrderInput struct {
	OrderType         model.OrderType                   `json:"orderType" binding:"required,oneof=company personal"`
	Services          []ServiceLineInput                `json:"services" binding:"required,min=1,dive"`
	Candidates        []candidateService.CandidateInput `json:"candidates" binding:"required,min=1,dive"`
	SubTotalPrice     float64                           `json:"subTotalPrice" binding:"required,min=0"`
	PromotionDiscount float64                           `json:"promotionDiscount" binding:"min=0"`
	TotalPrice        float64                           `json:"totalPrice" binding:"required,min=0"`
	CouponCode        string                            `json:"couponCode"`
}

type OrderService interface {
	CreateOrder(userID string, input *CreateOrderInput) (*model.Order, error)
	FindOne(id string) (*model.Order, error)
	FindByTrackingNumber(trackingNumber string) (*model.Order, error)
	FindByUser(userID string) ([]model.Order, error)
	FindAll(page, limit int, status model.OrderStatus) ([]model.Order, int64, error)
	UpdateOrderStatus(id string, status model.OrderStatus) (*model.Order, error)
	DeleteOrder(id string) error

	ApplyCoupon(orderID, code string) (*model.Order, error)
	RemoveCoupon(orderID string) (*model.Order, error)

	MarkOrderAsReviewed(orderID, reviewID string) error
	MarkApprovalSent(orderID string)
	FindReviewableOrders(userID string) ([]model.Order, error)
}

type orderService struct {
	repo       repository.OrderRepository
	coupons    couponService.CouponService
	candidates candidateService.CandidateService
	catalog    catalogService.CatalogService
}

func NewOrderService(
	repo repository.OrderRepository,
	coupons couponService.CouponService,
	candidates candidateService.CandidateService,
	catalog catalogService.CatalogService,
) OrderService {
	return &orderService{
		repo:       repo,
		coupons:    coupons,
		candidates: candidates,
		catalog:    catalog,
	}
}

// CreateOrder places an order: coupon validation first so a bad code fails
// the whole request, then the order row, then the candidate fan-out, and
// only after everything is persisted is the coupon marked used. A mark-used
// failure is logged rather than undoing a live order.
func (s *orderService) CreateOrder(userID string, input *CreateOrderInput) (*model.Order, error) {
	lines, err := s.snapshotLines(input.Services)
	if err != nil {
		return nil, err
	}
	if err := stampAssignedServices(input.Candidates, lines); err != nil {
		return nil, err
	}

	var validCoupon *couponService.ValidCoupon
	if input.CouponCode != "" {
		afterPromotion := input.SubTotalPrice - input.PromotionDiscount
		validCoupon, err = s.coupons.ValidateCoupon(input.CouponCode, afterPromotion, userID)
		if err != nil {
			return nil, err
		}
	}

	order := &model.Order{
		TrackingNumber:    generateTrackingNumber(),
		UserID:            userID,
		OrderType:         input.OrderType,
		OrderStatus:       model.StatusAwaitingPayment,
		Services:          lines,
		SubTotalPrice:     input.SubTotalPrice,
		PromotionDiscount: input.PromotionDiscount,
		TotalPrice:        input.TotalPrice,
	}
	if validCoupon != nil {
		couponID := validCoupon.Coupon.ID
		order.CouponID = &couponID
		order.CouponDiscount = validCoupon.DiscountAmount
	}

	if err := s.repo.Create(order); err != nil {
		return nil, err
	}

	orderID := order.ID
	if _, err := s.candidates.CreateForOrder(orderID, input.Candidates); err != nil {
		// Partial fan-out: compensate by removing what was created so no
		// half-built order survives.
		if cErr := s.candidates.DeleteByOrder(orderID); cErr != nil {
			logger.Log.Error("failed to clean up candidates after fan-out failure",
				zap.String("order_id", orderID),
				zap.Error(cErr))
		}
		if _, dErr := s.repo.Delete(orderID); dErr != nil {
			logger.Log.Error("failed to clean up order after fan-out failure",
				zap.String("order_id", orderID),
				zap.Error(dErr))
		}
		return nil, apperr.Wrap(apperr.Internal, err, "failed to create candidates")
	}

	if validCoupon != nil {
		if err := s.coupons.MarkAsUsed(validCoupon.Coupon.ID, orderID); err != nil {
			logger.Log.Error("order created but coupon not marked used",
				zap.String("order_id", orderID),
				zap.String("coupon_id", validCoupon.Coupon.ID),
				zap.Error(err))
		}
	}

	metrics.OrdersCreated.Inc()
	logger.Log.Info("order created",
		zap.String("order_id", orderID),
		zap.String("tracking_number", order.TrackingNumber),
		zap.String("user_id", userID),
		zap.Float64("total_price", order.TotalPrice))
	return order, nil
}

// stampAssignedServices checks every candidate assignment against the
// order's own service lines and overwrites the client-sent service name with
// the catalog title, so result uploads can trust the assignment snapshot.
func stampAssignedServices(candidates []candidateService.CandidateInput, lines model.OrderServiceLineList) error {
	titles := make(map[string]string, len(lines))
	for _, line := range lines {
		titles[line.ServiceID] = line.Title
	}

	for ci := range candidates {
		for si := range candidates[ci].AssignedServices {
			assigned := &candidates[ci].AssignedServices[si]
			title, ok := titles[assigned.ServiceID]
			if !ok {
				return apperr.Errorf(apperr.Validation,
					"candidate %s %s is assigned service %s which is not part of this order",
					candidates[ci].FirstName, candidates[ci].LastName, assigned.ServiceID)
			}
			assigned.ServiceName = title
		}
	}
	return nil
}

// snapshotLines resolves catalog entries into frozen order lines.
func (s *orderService) snapshotLines(inputs []ServiceLineInput) (model.OrderServiceLineList, error) {
	lines := make(model.OrderServiceLineList, 0, len(inputs))
	for _, in := range inputs {
		svc, err := s.catalog.FindOne(in.ServiceID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, model.OrderServiceLine{
			ServiceID: in.ServiceID,
			Title:     svc.Title,
			Quantity:  in.Quantity,
			UnitPrice: svc.Price,
		})
	}
	return lines, nil
}

func (s *orderService) FindOne(id string) (*model.Order, error) {
	order, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Errorf(apperr.NotFound, "order with ID %s not found", id)
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) FindByTrackingNumber(trackingNumber string) (*model.Order, error) {
	order, err := s.repo.GetByTrackingNumber(trackingNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Errorf(apperr.NotFound, "order %s not found", trackingNumber)
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) FindByUser(userID string) ([]model.Order, error) {
	return s.repo.GetByUser(userID)
}

func (s *orderService) FindAll(page, limit int, status model.OrderStatus) ([]model.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	if status != "" && !model.ValidStatus(status) {
		return nil, 0, apperr.Errorf(apperr.Validation, "invalid order status %q", status)
	}
	return s.repo.GetList(page, limit, status)
}

func (s *orderService) UpdateOrderStatus(id string, status model.OrderStatus) (*model.Order, error) {
	if !model.ValidStatus(status) {
		return nil, apperr.Errorf(apperr.Validation, "invalid order status %q", status)
	}

	order, err := s.FindOne(id)
	if err != nil {
		return nil, err
	}

	previous := order.OrderStatus
	order.OrderStatus = status
	if err := s.repo.Update(order); err != nil {
		return nil, err
	}

	if status == model.StatusCompleted && previous != model.StatusCompleted {
		metrics.OrdersCompleted.Inc()
	}
	logger.Log.Info("order status updated",
		zap.String("order_id", id),
		zap.String("from", string(previous)),
		zap.String("to", string(status)))
	return order, nil
}

// DeleteOrder tears an order down. The coupon release and candidate cleanup
// are best-effort; only the order row itself must go.
func (s *orderService) DeleteOrder(id string) error {
	order, err := s.FindOne(id)
	if err != nil {
		return err
	}

	s.coupons.ReleaseCouponsForOrder(id)

	if err := s.candidates.DeleteByOrder(id); err != nil {
		logger.Log.Error("failed to delete candidates for order",
			zap.String("order_id", id),
			zap.Error(err))
	}

	deleted, err := s.repo.Delete(id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return apperr.Errorf(apperr.NotFound, "order with ID %s not found", id)
	}

	metrics.OrdersDeleted.Inc()
	logger.Log.Info("order deleted",
		zap.String("order_id", id),
		zap.String("tracking_number", order.TrackingNumber))
	return nil
}

// ApplyCoupon attaches a coupon to an order still awaiting payment and takes
// the discount off the total.
func (s *orderService) ApplyCoupon(orderID, code string) (*model.Order, error) {
	order, err := s.FindOne(orderID)
	if err != nil {
		return nil, err
	}
	if order.CouponID != nil {
		return nil, apperr.New(apperr.InvalidState, "order already has a coupon applied")
	}

	valid, err := s.coupons.ValidateCoupon(code, order.AfterPromotionPrice(), order.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.coupons.MarkAsUsed(valid.Coupon.ID, orderID); err != nil {
		return nil, err
	}

	couponID := valid.Coupon.ID
	order.CouponID = &couponID
	order.CouponDiscount = valid.DiscountAmount
	order.TotalPrice -= valid.DiscountAmount

	if err := s.repo.Update(order); err != nil {
		return nil, err
	}

	logger.Log.Info("coupon applied to order",
		zap.String("order_id", orderID),
		zap.String("coupon_id", couponID),
		zap.Float64("discount", valid.DiscountAmount))
	return order, nil
}

// RemoveCoupon detaches the coupon, restores the total and frees the coupon
// for reuse. Releasing keeps the ledger consistent with order deletion,
// where released coupons also become usable again.
func (s *orderService) RemoveCoupon(orderID string) (*model.Order, error) {
	order, err := s.FindOne(orderID)
	if err != nil {
		return nil, err
	}
	if order.CouponID == nil {
		return nil, apperr.New(apperr.InvalidState, "order has no coupon to remove")
	}

	order.TotalPrice += order.CouponDiscount
	order.CouponID = nil
	order.CouponDiscount = 0

	if err := s.repo.Update(order); err != nil {
		return nil, err
	}

	s.coupons.ReleaseCouponsForOrder(orderID)

	logger.Log.Info("coupon removed from order", zap.String("order_id", orderID))
	return order, nil
}

func (s *orderService) MarkOrderAsReviewed(orderID, reviewID string) error {
	order, err := s.FindOne(orderID)
	if err != nil {
		return err
	}

	now := time.Now()
	order.IsReviewed = true
	order.ReviewedAt = &now
	order.ReviewID = &reviewID
	return s.repo.Update(order)
}

// MarkApprovalSent remembers that the payment-approved notification went
// out, so verification retries do not notify twice.
func (s *orderService) MarkApprovalSent(orderID string) {
	order, err := s.FindOne(orderID)
	if err != nil {
		return
	}
	order.PaymentApprovalSent = true
	if err := s.repo.Update(order); err != nil {
		logger.Log.Warn("failed to record approval notification",
			zap.String("order_id", orderID),
			zap.Error(err))
	}
}

func (s *orderService) FindReviewableOrders(userID string) ([]model.Order, error) {
	return s.repo.FindReviewable(userID)
}

// generateTrackingNumber builds the human-facing order code: prefix, the
// trailing digits of the current epoch millis, and a zero-padded random
// suffix. Unique in practice, with a database unique index as the backstop.
func generateTrackingNumber() string {
	millis := fmt.Sprintf("%d", time.Now().UnixMilli())
	return fmt.Sprintf("%s%s%03d", trackingPrefix, millis[5:], rand.Intn(1000))
}
