package handler

import (
	"net/http"
	"strconv"
	"time"

	"backcheck_api/internal/domain/user/service"
	"backcheck_api/internal/pkg/middleware"
	"backcheck_api/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type RegisterInput struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register creates an account.
func (h *UserHandler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	user, err := h.service.Register(input.Username, input.Email, input.Password)
	if err != nil {
		response.HandleError(c, err, response.ErrUserExists)
		return
	}

	response.Success(c, user)
}

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login issues an access token.
func (h *UserHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	token, expireAt, err := h.service.Login(input.Username, input.Password)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, response.ErrAuthFailed, "Invalid username or password")
		return
	}

	response.Success(c, gin.H{"token": token, "expireAt": expireAt})
}

// Logout revokes the current token until its natural expiry.
func (h *UserHandler) Logout(c *gin.Context) {
	jti, _ := c.Get("jti")
	jtiStr, _ := jti.(string)

	// Without the original expiry we keep the entry for the max token life.
	if err := h.service.Logout(jtiStr, time.Now().Add(72*time.Hour)); err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, "Logged out")
}

// Profile returns the authenticated user.
func (h *UserHandler) Profile(c *gin.Context) {
	user, err := h.service.GetUser(middleware.CurrentUserID(c))
	if err != nil {
		response.HandleError(c, err, response.ErrUserNotFound)
		return
	}
	response.Success(c, user)
}

type UpdateProfileInput struct {
	Email          string `json:"email" binding:"omitempty,email"`
	ProfilePicture string `json:"profilePicture"`
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	user, err := h.service.UpdateProfile(middleware.CurrentUserID(c), input.Email, input.ProfilePicture)
	if err != nil {
		response.HandleError(c, err, response.ErrUserNotFound)
		return
	}
	response.Success(c, user)
}

// GetUsers lists accounts (admin).
func (h *UserHandler) GetUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	users, total, err := h.service.GetUsers(page, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, gin.H{"items": users, "total": total})
}

// GetUser fetches one account (admin).
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.service.GetUser(c.Param("id"))
	if err != nil {
		response.HandleError(c, err, response.ErrUserNotFound)
		return
	}
	response.Success(c, user)
}

// DeleteUser removes an account (admin).
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.service.DeleteUser(c.Param("id")); err != nil {
		response.HandleError(c, err, response.ErrUserNotFound)
		return
	}
	response.Success(c, "User deleted")
}
