package response

import (
	"net/http"

	"backcheck_api/pkg/apperr"

	"github.com/gin-gonic/gin"
)

// Response is the uniform JSON envelope.
type Response struct {
	Code    int         `json:"code"`    // business code
	Message string      `json:"message"` // human-readable message
	Data    interface{} `json:"data"`    // payload
}

// Success writes a 200 with business code 0.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error writes an explicit HTTP status and business code.
func Error(c *gin.Context, httpCode int, errCode int, msg string) {
	c.JSON(httpCode, Response{
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}

// Fail writes a business failure with HTTP 200 and a non-zero code.
func Fail(c *gin.Context, errCode int, msg string) {
	c.JSON(http.StatusOK, Response{
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}

// HandleError maps a classified service error onto an HTTP status and a
// business code. businessCode overrides the per-kind default when non-zero.
func HandleError(c *gin.Context, err error, businessCode ...int) {
	code := 0
	if len(businessCode) > 0 {
		code = businessCode[0]
	}

	switch apperr.KindOf(err) {
	case apperr.NotFound:
		if code == 0 {
			code = ErrOrderNotFound
		}
		Error(c, http.StatusNotFound, code, err.Error())
	case apperr.InvalidState:
		if code == 0 {
			code = ErrOrderState
		}
		Error(c, http.StatusBadRequest, code, err.Error())
	case apperr.Forbidden:
		if code == 0 {
			code = ErrNoPermission
		}
		Error(c, http.StatusForbidden, code, err.Error())
	case apperr.Conflict:
		if code == 0 {
			code = ErrCouponClaimed
		}
		Error(c, http.StatusConflict, code, err.Error())
	case apperr.Validation:
		if code == 0 {
			code = ErrInvalidParam
		}
		Error(c, http.StatusBadRequest, code, err.Error())
	default:
		Error(c, http.StatusInternalServerError, ErrServerInternal, err.Error())
	}
}
