package catalog

import (
	"backcheck_api/internal/domain/catalog/handler"
	"backcheck_api/internal/domain/catalog/repository"
	"backcheck_api/internal/domain/catalog/service"
	"backcheck_api/internal/pkg/middleware"
	"backcheck_api/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// CatalogModule serves the background-check service catalog.
type CatalogModule struct{}

func init() {
	registry.Register(&CatalogModule{})
}

func (m *CatalogModule) Name() string {
	return "catalog"
}

func (m *CatalogModule) Priority() int {
	return 5
}

func (m *CatalogModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewServiceRepository(ctx.DB)
	svc := service.NewCatalogService(repo)
	h := handler.NewCatalogHandler(svc)

	setupRoutes(ctx.Router, h)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.CatalogHandler) {
	g := r.Group("/services")

	// Catalog reads are public (pricing pages).
	g.GET("/", h.FindAll)
	g.GET("/:id", h.FindOne)

	admin := g.Group("")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.POST("/", h.Create)
		admin.PUT("/:id", h.Update)
		admin.DELETE("/:id", h.Remove)
	}
}
