package handler

import (
	"net/http"
	"strconv"

	"backcheck_api/internal/domain/review/service"
	"backcheck_api/internal/pkg/middleware"
	"backcheck_api/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	service service.ReviewService
}

func NewReviewHandler(service service.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// Create posts the review for a completed order.
func (h *ReviewHandler) Create(c *gin.Context) {
	var input service.CreateReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	review, err := h.service.CreateReview(middleware.CurrentUserID(c), &input)
	if err != nil {
		response.HandleError(c, err, response.ErrReviewExists)
		return
	}
	response.Success(c, review)
}

// CheckOrder tells the client whether the review button should show.
func (h *ReviewHandler) CheckOrder(c *gin.Context) {
	status, err := h.service.CheckOrderReviewStatus(c.Param("orderId"), middleware.CurrentUserID(c))
	if err != nil {
		response.HandleError(c, err, response.ErrOrderNotFound)
		return
	}
	response.Success(c, status)
}

// FindAll is the public review feed.
func (h *ReviewHandler) FindAll(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	reviews, total, err := h.service.FindAll(page, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, gin.H{"items": reviews, "total": total})
}

// Stats returns the aggregate rating numbers.
func (h *ReviewHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, stats)
}

// FindMine lists the authenticated user's reviews.
func (h *ReviewHandler) FindMine(c *gin.Context) {
	reviews, err := h.service.FindMine(middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, reviews)
}

func (h *ReviewHandler) FindOne(c *gin.Context) {
	review, err := h.service.FindOne(c.Param("id"))
	if err != nil {
		response.HandleError(c, err, response.ErrReviewNotFound)
		return
	}
	response.Success(c, review)
}

// FindByOrder fetches the review attached to an order.
func (h *ReviewHandler) FindByOrder(c *gin.Context) {
	review, err := h.service.FindByOrder(c.Param("orderId"))
	if err != nil {
		response.HandleError(c, err, response.ErrReviewNotFound)
		return
	}
	response.Success(c, review)
}

func (h *ReviewHandler) Update(c *gin.Context) {
	var input service.UpdateReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	review, err := h.service.UpdateReview(
		c.Param("id"),
		middleware.CurrentUserID(c),
		middleware.IsAdmin(c),
		&input,
	)
	if err != nil {
		response.HandleError(c, err, response.ErrReviewNotFound)
		return
	}
	response.Success(c, review)
}

func (h *ReviewHandler) Remove(c *gin.Context) {
	err := h.service.DeleteReview(c.Param("id"), middleware.CurrentUserID(c), middleware.IsAdmin(c))
	if err != nil {
		response.HandleError(c, err, response.ErrReviewNotFound)
		return
	}
	response.Success(c, "Review deleted")
}
