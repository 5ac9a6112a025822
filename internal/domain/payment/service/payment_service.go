package service

import (
	"errors"
	"fmt"
	"math/rand"
	"mime/multipart"
	"time"

	orderModel "backcheck_api/internal/domain/order/model"
	orderRepository "backcheck_api/internal/domain/order/repository"
	orderService "backcheck_api/internal/domain/order/service"
	"backcheck_api/internal/domain/payment/model"
	"backcheck_api/internal/domain/payment/repository"
	"backcheck_api/internal/pkg/push"
	"backcheck_api/internal/pkg/storage"
	"backcheck_api/internal/pkg/worker"
	"backcheck_api/pkg/apperr"
	"backcheck_api/pkg/logger"
	"backcheck_api/pkg/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const paymentPrefix = "PAY"

type CreatePaymentInput struct {
	OrderID       string
	PaymentMethod model.PaymentMethod
	TransferName  string
	TransferDate  time.Time
	Amount        float64
	Reference     string
}

type PaymentService interface {
	CreatePayment(userID string, input *CreatePaymentInput, receipt *multipart.FileHeader) (*model.Payment, error)
	FindOne(id string) (*model.Payment, error)
	FindByOrder(orderID string) (*model.Payment, error)
	FindAll(page, limit int, status model.PaymentStatus) ([]model.Payment, int64, error)
	UpdatePaymentStatus(id string, status model.PaymentStatus, adminID string) (*model.Payment, error)
	Remove(id string) error
}

type paymentService struct {
	repo    repository.PaymentRepository
	orders  orderRepository.OrderRepository
	orderOp orderService.OrderService
	storage storage.FileStorage
}

func NewPaymentService(
	repo repository.PaymentRepository,
	orders orderRepository.OrderRepository,
	orderOp orderService.OrderService,
	fs storage.FileStorage,
) PaymentService {
	return &paymentService{
		repo:    repo,
		orders:  orders,
		orderOp: orderOp,
		storage: fs,
	}
}

// CreatePayment records payment evidence against an order. One payment per
// order; submitting moves the order to pending_verification.
func (s *paymentService) CreatePayment(userID string, input *CreatePaymentInput, receipt *multipart.FileHeader) (*model.Payment, error) {
	if !model.ValidMethod(input.PaymentMethod) {
		return nil, apperr.Errorf(apperr.Validation, "invalid payment method %q", input.PaymentMethod)
	}

	order, err := s.orders.GetByID(input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Errorf(apperr.NotFound, "order with ID %s not found", input.OrderID)
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperr.New(apperr.Forbidden, "you do not own this order")
	}
	if order.PaymentID != nil {
		return nil, apperr.New(apperr.Conflict, "order already has a payment")
	}

	info := &model.TransferInfo{
		Name:      input.TransferName,
		Date:      input.TransferDate,
		Amount:    input.Amount,
		Reference: input.Reference,
	}
	if receipt != nil {
		uploaded, err := s.storage.UploadFile(receipt, "receipts", "")
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, err, "failed to store receipt")
		}
		info.ReceiptFile = uploaded.Filename
		info.ReceiptURL = uploaded.URL
	}

	payment := &model.Payment{
		PaymentNumber: generatePaymentNumber(),
		OrderID:       input.OrderID,
		UserID:        userID,
		PaymentMethod: input.PaymentMethod,
		PaymentStatus: model.StatusPendingVerification,
		TransferInfo:  info,
	}

	if err := s.repo.Create(payment); err != nil {
		if info.ReceiptFile != "" {
			key := info.ReceiptFile
			worker.Fire("delete-orphan-receipt", func() error {
				return s.storage.DeleteFile(key)
			})
		}
		return nil, err
	}

	paymentID := payment.ID
	order.PaymentID = &paymentID
	order.OrderStatus = orderModel.StatusPendingVerification
	if err := s.orders.Update(order); err != nil {
		logger.Log.Error("payment created but order link not saved",
			zap.String("payment_id", paymentID),
			zap.String("order_id", input.OrderID),
			zap.Error(err))
	}

	logger.Log.Info("payment submitted",
		zap.String("payment_id", paymentID),
		zap.String("payment_number", payment.PaymentNumber),
		zap.String("order_id", input.OrderID))
	return payment, nil
}

func (s *paymentService) FindOne(id string) (*model.Payment, error) {
	payment, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Errorf(apperr.NotFound, "payment with ID %s not found", id)
		}
		return nil, err
	}
	return payment, nil
}

func (s *paymentService) FindByOrder(orderID string) (*model.Payment, error) {
	payment, err := s.repo.GetByOrderID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Errorf(apperr.NotFound, "no payment for order %s", orderID)
		}
		return nil, err
	}
	return payment, nil
}

func (s *paymentService) FindAll(page, limit int, status model.PaymentStatus) ([]model.Payment, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	if status != "" && !model.ValidStatus(status) {
		return nil, 0, apperr.Errorf(apperr.Validation, "invalid payment status %q", status)
	}
	return s.repo.GetList(page, limit, status)
}

// UpdatePaymentStatus records the admin's verdict and moves the order
// accordingly: completed verifies it, failures send it back to awaiting
// payment.
func (s *paymentService) UpdatePaymentStatus(id string, status model.PaymentStatus, adminID string) (*model.Payment, error) {
	if !model.ValidStatus(status) {
		return nil, apperr.Errorf(apperr.Validation, "invalid payment status %q", status)
	}

	payment, err := s.FindOne(id)
	if err != nil {
		return nil, err
	}

	payment.PaymentStatus = status
	payment.PaymentUpdatedBy = &adminID
	if err := s.repo.Update(payment); err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(payment.OrderID)
	if err != nil {
		logger.Log.Error("payment updated but order not loadable",
			zap.String("payment_id", id),
			zap.String("order_id", payment.OrderID),
			zap.Error(err))
		return payment, nil
	}

	order.OrderStatus = orderStatusFor(status)
	if err := s.orders.Update(order); err != nil {
		logger.Log.Error("payment updated but order status not saved",
			zap.String("payment_id", id),
			zap.String("order_id", payment.OrderID),
			zap.Error(err))
		return payment, nil
	}

	if status == model.StatusCompleted {
		metrics.PaymentsVerified.Inc()
		s.notifyApproval(order, payment)
	}

	logger.Log.Info("payment status updated",
		zap.String("payment_id", id),
		zap.String("status", string(status)),
		zap.String("order_status", string(order.OrderStatus)),
		zap.String("admin_id", adminID))
	return payment, nil
}

// orderStatusFor maps a payment verdict onto the order state machine.
func orderStatusFor(status model.PaymentStatus) orderModel.OrderStatus {
	switch status {
	case model.StatusCompleted:
		return orderModel.StatusPaymentVerified
	case model.StatusPendingVerification:
		return orderModel.StatusPendingVerification
	default: // failed, refunded, awaiting_payment
		return orderModel.StatusAwaitingPayment
	}
}

// notifyApproval pushes the payment-approved notice to the customer once
// per order. Notification failure never affects the verification itself.
func (s *paymentService) notifyApproval(order *orderModel.Order, payment *model.Payment) {
	if order.PaymentApprovalSent || push.GlobalPushService == nil {
		return
	}

	userID := payment.UserID
	tracking := order.TrackingNumber
	worker.Fire("payment-approval-push", func() error {
		return push.GlobalPushService.PushToAccount(
			userID,
			"Payment approved",
			fmt.Sprintf("Your payment for order %s has been verified.", tracking),
			map[string]string{"order_id": order.ID, "type": "payment_approved"},
		)
	})
	s.orderOp.MarkApprovalSent(order.ID)
}

// Remove deletes the payment record and sends the order back to awaiting
// payment (admin).
func (s *paymentService) Remove(id string) error {
	payment, err := s.FindOne(id)
	if err != nil {
		return err
	}

	deleted, err := s.repo.Delete(id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return apperr.Errorf(apperr.NotFound, "payment with ID %s not found", id)
	}

	order, err := s.orders.GetByID(payment.OrderID)
	if err == nil {
		order.PaymentID = nil
		order.OrderStatus = orderModel.StatusAwaitingPayment
		if uErr := s.orders.Update(order); uErr != nil {
			logger.Log.Error("payment removed but order not reverted",
				zap.String("payment_id", id),
				zap.String("order_id", payment.OrderID),
				zap.Error(uErr))
		}
	}

	if payment.TransferInfo != nil && payment.TransferInfo.ReceiptFile != "" {
		key := payment.TransferInfo.ReceiptFile
		worker.Fire("delete-receipt-file", func() error {
			return s.storage.DeleteFile(key)
		})
	}

	logger.Log.Info("payment removed", zap.String("payment_id", id))
	return nil
}

// generatePaymentNumber mirrors the tracking-number shape with its own
// prefix.
func generatePaymentNumber() string {
	millis := fmt.Sprintf("%d", time.Now().UnixMilli())
	return fmt.Sprintf("%s%s%03d", paymentPrefix, millis[5:], rand.Intn(1000))
}
