package handler

import (
	"net/http"
	"strconv"

	"backcheck_api/internal/domain/coupon/service"
	"backcheck_api/internal/pkg/middleware"
	"backcheck_api/pkg/response"

	"github.com/gin-gonic/gin"
)

type CouponHandler struct {
	service service.CouponService
}

func NewCouponHandler(service service.CouponService) *CouponHandler {
	return &CouponHandler{service: service}
}

// Create registers a coupon template or issues a private coupon (admin).
func (h *CouponHandler) Create(c *gin.Context) {
	var input service.CreateCouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	coupon, err := h.service.CreateCoupon(&input)
	if err != nil {
		response.HandleError(c, err, response.ErrCouponInvalid)
		return
	}
	response.Success(c, coupon)
}

// FindAll lists every coupon, templates and claims alike (admin).
func (h *CouponHandler) FindAll(c *gin.Context) {
	coupons, err := h.service.FindAll()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, coupons)
}

// FindPublic lists claimable public templates.
func (h *CouponHandler) FindPublic(c *gin.Context) {
	coupons, err := h.service.FindPublicCoupons()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, coupons)
}

// FindSurvey lists active survey coupon templates (admin).
func (h *CouponHandler) FindSurvey(c *gin.Context) {
	coupons, err := h.service.FindSurveyCoupons()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, coupons)
}

// FindMine lists the authenticated user's wallet.
func (h *CouponHandler) FindMine(c *gin.Context) {
	includeUsed := c.Query("includeUsed") == "true"

	coupons, err := h.service.FindUserCoupons(middleware.CurrentUserID(c), includeUsed)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, coupons)
}

// FindReleased lists personal coupons freed back into circulation (admin).
func (h *CouponHandler) FindReleased(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	coupons, err := h.service.FindReleasedCoupons(limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, coupons)
}

func (h *CouponHandler) FindOne(c *gin.Context) {
	coupon, err := h.service.FindOne(c.Param("id"))
	if err != nil {
		response.HandleError(c, err, response.ErrCouponNotFound)
		return
	}
	response.Success(c, coupon)
}

func (h *CouponHandler) Update(c *gin.Context) {
	var input service.UpdateCouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	coupon, err := h.service.UpdateCoupon(c.Param("id"), &input)
	if err != nil {
		response.HandleError(c, err, response.ErrCouponNotFound)
		return
	}
	response.Success(c, coupon)
}

func (h *CouponHandler) Remove(c *gin.Context) {
	if err := h.service.RemoveCoupon(c.Param("id")); err != nil {
		response.HandleError(c, err, response.ErrCouponNotFound)
		return
	}
	response.Success(c, "Coupon deleted")
}

// Claim copies a public template into the user's wallet.
func (h *CouponHandler) Claim(c *gin.Context) {
	claim, err := h.service.ClaimCoupon(c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		response.HandleError(c, err, response.ErrCouponClaimed)
		return
	}
	response.Success(c, claim)
}

type ValidateInput struct {
	Code                string  `json:"code" binding:"required"`
	PriceAfterPromotion float64 `json:"priceAfterPromotion" binding:"required,min=0"`
}

// Validate checks a code at checkout and returns the discount math.
func (h *CouponHandler) Validate(c *gin.Context) {
	var input ValidateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	valid, err := h.service.ValidateCoupon(input.Code, input.PriceAfterPromotion, middleware.CurrentUserID(c))
	if err != nil {
		response.HandleError(c, err, response.ErrCouponInvalid)
		return
	}
	response.Success(c, valid)
}

// ClaimSurveyReward issues the one-off survey thank-you coupon.
func (h *CouponHandler) ClaimSurveyReward(c *gin.Context) {
	coupon, err := h.service.CreateSurveyCoupon(middleware.CurrentUserID(c))
	if err != nil {
		response.HandleError(c, err, response.ErrCouponClaimed)
		return
	}
	response.Success(c, coupon)
}
