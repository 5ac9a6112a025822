package handler

import (
	"net/http"
	"strconv"

	"backcheck_api/internal/domain/candidate/service"
	"backcheck_api/internal/pkg/middleware"
	"backcheck_api/pkg/response"

	"github.com/gin-gonic/gin"
)

const maxResultFileSize = 20 << 20 // 20 MB

type CandidateHandler struct {
	service service.CandidateService
}

func NewCandidateHandler(service service.CandidateService) *CandidateHandler {
	return &CandidateHandler{service: service}
}

// FindAll lists candidates across all orders (admin).
func (h *CandidateHandler) FindAll(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	candidates, total, err := h.service.FindAll(page, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, gin.H{"items": candidates, "total": total})
}

func (h *CandidateHandler) FindOne(c *gin.Context) {
	candidate, err := h.service.FindOne(c.Param("id"))
	if err != nil {
		response.HandleError(c, err, response.ErrCandidateNotFound)
		return
	}
	response.Success(c, candidate)
}

// GetResults returns the tracker view. Owners of the parent order and
// admins may read it.
func (h *CandidateHandler) GetResults(c *gin.Context) {
	results, err := h.service.GetCandidateResults(
		c.Param("id"),
		middleware.CurrentUserID(c),
		middleware.IsAdmin(c),
	)
	if err != nil {
		response.HandleError(c, err, response.ErrCandidateNotFound)
		return
	}
	response.Success(c, results)
}

func (h *CandidateHandler) Update(c *gin.Context) {
	var input service.CandidateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	candidate, err := h.service.UpdateCandidate(c.Param("id"), &input)
	if err != nil {
		response.HandleError(c, err, response.ErrCandidateNotFound)
		return
	}
	response.Success(c, candidate)
}

func (h *CandidateHandler) Remove(c *gin.Context) {
	if err := h.service.DeleteCandidate(c.Param("id")); err != nil {
		response.HandleError(c, err, response.ErrCandidateNotFound)
		return
	}
	response.Success(c, "Candidate deleted")
}

// UploadServiceResult attaches a result document for one assigned service
// (admin, multipart).
func (h *CandidateHandler) UploadServiceResult(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "result file is required")
		return
	}
	if file.Size > maxResultFileSize {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "result file exceeds 20MB")
		return
	}

	candidate, err := h.service.UploadServiceResult(
		c.Param("id"),
		c.Param("serviceId"),
		file,
		service.ResultUpload{
			Status: c.PostForm("status"),
			Note:   c.PostForm("note"),
		},
		middleware.CurrentUserID(c),
	)
	if err != nil {
		response.HandleError(c, err, response.ErrServiceNotAssigned)
		return
	}
	response.Success(c, candidate)
}

// UploadSummaryResult attaches the overall report (admin, multipart).
func (h *CandidateHandler) UploadSummaryResult(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "summary file is required")
		return
	}
	if file.Size > maxResultFileSize {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "summary file exceeds 20MB")
		return
	}

	status := c.PostForm("status")
	if status == "" {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "status is required")
		return
	}

	candidate, err := h.service.UploadSummaryResult(
		c.Param("id"),
		file,
		service.ResultUpload{
			Status: status,
			Note:   c.PostForm("note"),
		},
		middleware.CurrentUserID(c),
	)
	if err != nil {
		response.HandleError(c, err, response.ErrCandidateNotFound)
		return
	}
	response.Success(c, candidate)
}

// DeleteServiceResult removes one uploaded result (admin).
func (h *CandidateHandler) DeleteServiceResult(c *gin.Context) {
	candidate, err := h.service.DeleteServiceResult(c.Param("id"), c.Param("serviceId"))
	if err != nil {
		response.HandleError(c, err, response.ErrResultNotFound)
		return
	}
	response.Success(c, candidate)
}

// DeleteSummaryResult removes the overall report (admin).
func (h *CandidateHandler) DeleteSummaryResult(c *gin.Context) {
	candidate, err := h.service.DeleteSummaryResult(c.Param("id"))
	if err != nil {
		response.HandleError(c, err, response.ErrResultNotFound)
		return
	}
	response.Success(c, candidate)
}
