package handler

import (
	"net/http"
	"strconv"
	"time"

	"backcheck_api/internal/domain/payment/model"
	"backcheck_api/internal/domain/payment/service"
	"backcheck_api/internal/pkg/middleware"
	"backcheck_api/pkg/response"

	"github.com/gin-gonic/gin"
)

const maxReceiptSize = 10 << 20 // 10 MB

type PaymentHandler struct {
	service service.PaymentService
}

func NewPaymentHandler(service service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// Create submits payment evidence for an order. Multipart so the transfer
// slip can ride along.
func (h *PaymentHandler) Create(c *gin.Context) {
	orderID := c.PostForm("orderId")
	method := model.PaymentMethod(c.PostForm("paymentMethod"))
	if orderID == "" || method == "" {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "orderId and paymentMethod are required")
		return
	}

	amount, err := strconv.ParseFloat(c.DefaultPostForm("amount", "0"), 64)
	if err != nil || amount <= 0 {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "amount must be a positive number")
		return
	}

	transferDate := time.Now()
	if raw := c.PostForm("transferDate"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "transferDate must be RFC3339")
			return
		}
		transferDate = parsed
	}

	// Receipt is optional for QR payments.
	receipt, _ := c.FormFile("receipt")
	if receipt != nil && receipt.Size > maxReceiptSize {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "receipt exceeds 10MB")
		return
	}

	payment, err := h.service.CreatePayment(middleware.CurrentUserID(c), &service.CreatePaymentInput{
		OrderID:       orderID,
		PaymentMethod: method,
		TransferName:  c.PostForm("transferName"),
		TransferDate:  transferDate,
		Amount:        amount,
		Reference:     c.PostForm("reference"),
	}, receipt)
	if err != nil {
		response.HandleError(c, err, response.ErrPaymentState)
		return
	}
	response.Success(c, payment)
}

// FindAll lists payments, optionally by status (admin).
func (h *PaymentHandler) FindAll(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	status := model.PaymentStatus(c.Query("status"))

	payments, total, err := h.service.FindAll(page, limit, status)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": payments, "total": total})
}

// FindOne fetches one payment. Owner or admin.
func (h *PaymentHandler) FindOne(c *gin.Context) {
	payment, err := h.service.FindOne(c.Param("id"))
	if err != nil {
		response.HandleError(c, err, response.ErrPaymentNotFound)
		return
	}
	if !middleware.IsAdmin(c) && payment.UserID != middleware.CurrentUserID(c) {
		response.Error(c, http.StatusForbidden, response.ErrNoPermission, "You do not have access to this payment")
		return
	}
	response.Success(c, payment)
}

// FindByOrder fetches the payment attached to an order. Owner or admin.
func (h *PaymentHandler) FindByOrder(c *gin.Context) {
	payment, err := h.service.FindByOrder(c.Param("orderId"))
	if err != nil {
		response.HandleError(c, err, response.ErrPaymentNotFound)
		return
	}
	if !middleware.IsAdmin(c) && payment.UserID != middleware.CurrentUserID(c) {
		response.Error(c, http.StatusForbidden, response.ErrNoPermission, "You do not have access to this payment")
		return
	}
	response.Success(c, payment)
}

type UpdateStatusInput struct {
	Status model.PaymentStatus `json:"status" binding:"required"`
}

// UpdateStatus records the verification verdict (admin).
func (h *PaymentHandler) UpdateStatus(c *gin.Context) {
	var input UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	payment, err := h.service.UpdatePaymentStatus(c.Param("id"), input.Status, middleware.CurrentUserID(c))
	if err != nil {
		response.HandleError(c, err, response.ErrPaymentState)
		return
	}
	response.Success(c, payment)
}

// Remove deletes a payment record and reverts the order (admin).
func (h *PaymentHandler) Remove(c *gin.Context) {
	if err := h.service.Remove(c.Param("id")); err != nil {
		response.HandleError(c, err, response.ErrPaymentNotFound)
		return
	}
	response.Success(c, "Payment deleted")
}
