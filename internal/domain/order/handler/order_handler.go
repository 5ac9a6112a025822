package handler

import (
	"net/http"
	"strconv"

	candidateService "backcheck_api/internal/domain/candidate/service"
	"backcheck_api/internal/domain/order/model"
	"backcheck_api/internal/domain/order/service"
	"backcheck_api/internal/pkg/middleware"
	"backcheck_api/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	service    service.OrderService
	candidates candidateService.CandidateService
}

func NewOrderHandler(svc service.OrderService, candidates candidateService.CandidateService) *OrderHandler {
	return &OrderHandler{service: svc, candidates: candidates}
}

// Create places an order for the authenticated user.
func (h *OrderHandler) Create(c *gin.Context) {
	var input service.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	order, err := h.service.CreateOrder(middleware.CurrentUserID(c), &input)
	if err != nil {
		response.HandleError(c, err, response.ErrCouponInvalid)
		return
	}
	response.Success(c, order)
}

// FindMine lists the authenticated user's orders.
func (h *OrderHandler) FindMine(c *gin.Context) {
	orders, err := h.service.FindByUser(middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, orders)
}

// FindReviewable lists the user's completed, not-yet-reviewed orders.
func (h *OrderHandler) FindReviewable(c *gin.Context) {
	orders, err := h.service.FindReviewableOrders(middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, orders)
}

// FindAll lists orders, optionally filtered by status (admin).
func (h *OrderHandler) FindAll(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	status := model.OrderStatus(c.Query("status"))

	orders, total, err := h.service.FindAll(page, limit, status)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": orders, "total": total})
}

// FindOne fetches an order. Owners and admins only.
func (h *OrderHandler) FindOne(c *gin.Context) {
	order, ok := h.loadOwnedOrder(c, c.Param("id"))
	if !ok {
		return
	}
	response.Success(c, order)
}

// FindByTracking resolves the human-facing tracking code.
func (h *OrderHandler) FindByTracking(c *gin.Context) {
	order, err := h.service.FindByTrackingNumber(c.Param("trackingNumber"))
	if err != nil {
		response.HandleError(c, err, response.ErrOrderNotFound)
		return
	}
	if !h.canAccess(c, order) {
		response.Error(c, http.StatusForbidden, response.ErrOrderNotOwned, "You do not have access to this order")
		return
	}
	response.Success(c, order)
}

// FindCandidates lists the order's candidates for its owner.
func (h *OrderHandler) FindCandidates(c *gin.Context) {
	order, ok := h.loadOwnedOrder(c, c.Param("id"))
	if !ok {
		return
	}

	candidates, err := h.candidates.FindByOrder(order.ID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, candidates)
}

type UpdateStatusInput struct {
	Status model.OrderStatus `json:"status" binding:"required"`
}

// UpdateStatus force-sets the order status (admin).
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var input UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	order, err := h.service.UpdateOrderStatus(c.Param("id"), input.Status)
	if err != nil {
		response.HandleError(c, err, response.ErrOrderState)
		return
	}
	response.Success(c, order)
}

// Remove deletes an order. Only the owner (or an admin) may delete, and only
// while it still awaits payment.
func (h *OrderHandler) Remove(c *gin.Context) {
	order, ok := h.loadOwnedOrder(c, c.Param("id"))
	if !ok {
		return
	}
	if !order.IsAwaitingPayment() {
		response.Error(c, http.StatusBadRequest, response.ErrOrderState,
			"Only orders awaiting payment can be deleted")
		return
	}

	if err := h.service.DeleteOrder(order.ID); err != nil {
		response.HandleError(c, err, response.ErrOrderNotFound)
		return
	}
	response.Success(c, "Order deleted")
}

type ApplyCouponInput struct {
	Code string `json:"code" binding:"required"`
}

// ApplyCoupon attaches a coupon while the order awaits payment.
func (h *OrderHandler) ApplyCoupon(c *gin.Context) {
	var input ApplyCouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	order, ok := h.loadOwnedOrder(c, c.Param("id"))
	if !ok {
		return
	}
	if !order.IsAwaitingPayment() {
		response.Error(c, http.StatusBadRequest, response.ErrOrderState,
			"Coupons can only be changed while the order awaits payment")
		return
	}

	updated, err := h.service.ApplyCoupon(order.ID, input.Code)
	if err != nil {
		response.HandleError(c, err, response.ErrCouponInvalid)
		return
	}
	response.Success(c, updated)
}

// RemoveCoupon detaches the applied coupon while the order awaits payment.
func (h *OrderHandler) RemoveCoupon(c *gin.Context) {
	order, ok := h.loadOwnedOrder(c, c.Param("id"))
	if !ok {
		return
	}
	if !order.IsAwaitingPayment() {
		response.Error(c, http.StatusBadRequest, response.ErrOrderState,
			"Coupons can only be changed while the order awaits payment")
		return
	}

	updated, err := h.service.RemoveCoupon(order.ID)
	if err != nil {
		response.HandleError(c, err, response.ErrCouponInvalid)
		return
	}
	response.Success(c, updated)
}

func (h *OrderHandler) canAccess(c *gin.Context, order *model.Order) bool {
	return middleware.IsAdmin(c) || order.UserID == middleware.CurrentUserID(c)
}

// loadOwnedOrder fetches the order and writes the error response itself when
// the order is missing or the requester has no access.
func (h *OrderHandler) loadOwnedOrder(c *gin.Context, id string) (*model.Order, bool) {
	order, err := h.service.FindOne(id)
	if err != nil {
		response.HandleError(c, err, response.ErrOrderNotFound)
		return nil, false
	}
	if !h.canAccess(c, order) {
		response.Error(c, http.StatusForbidden, response.ErrOrderNotOwned, "You do not have access to this order")
		return nil, false
	}
	return order, true
}
