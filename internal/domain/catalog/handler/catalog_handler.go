package handler

import (
	"net/http"

	"backcheck_api/internal/domain/catalog/model"
	"backcheck_api/internal/domain/catalog/service"
	"backcheck_api/pkg/response"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	service service.CatalogService
}

func NewCatalogHandler(service service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

type ServiceInput struct {
	Title             string                     `json:"title" binding:"required"`
	Description       string                     `json:"description"`
	Price             float64                    `json:"price" binding:"required,min=0"`
	Image             string                     `json:"image"`
	RequiredDocuments model.RequiredDocumentList `json:"requiredDocuments"`
}

func (h *CatalogHandler) Create(c *gin.Context) {
	var input ServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	created, err := h.service.Create(&model.Service{
		Title:             input.Title,
		Description:       input.Description,
		Price:             input.Price,
		Image:             input.Image,
		RequiredDocuments: input.RequiredDocuments,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, created)
}

func (h *CatalogHandler) FindAll(c *gin.Context) {
	services, err := h.service.FindAll()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, services)
}

func (h *CatalogHandler) FindOne(c *gin.Context) {
	found, err := h.service.FindOne(c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, found)
}

func (h *CatalogHandler) Update(c *gin.Context) {
	var input ServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	updated, err := h.service.Update(c.Param("id"), &model.Service{
		Title:             input.Title,
		Description:       input.Description,
		Price:             input.Price,
		Image:             input.Image,
		RequiredDocuments: input.RequiredDocuments,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, updated)
}

func (h *CatalogHandler) Remove(c *gin.Context) {
	if err := h.service.Remove(c.Param("id")); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Service deleted")
}
