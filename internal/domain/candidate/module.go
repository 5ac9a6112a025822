package candidate

import (
	"backcheck_api/internal/domain/candidate/handler"
	"backcheck_api/internal/domain/candidate/repository"
	"backcheck_api/internal/domain/candidate/service"
	"backcheck_api/internal/pkg/middleware"
	"backcheck_api/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// CandidateModule tracks the people under check and their result documents.
type CandidateModule struct{}

func init() {
	registry.Register(&CandidateModule{})
}

func (m *CandidateModule) Name() string {
	return "candidate"
}

func (m *CandidateModule) Priority() int {
	// Before order: orders fan out into candidates.
	return 15
}

func (m *CandidateModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewCandidateRepository(ctx.DB)
	svc := service.NewCandidateService(repo, ctx.Storage)
	h := handler.NewCandidateHandler(svc)

	setupRoutes(ctx.Router, h)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.CandidateHandler) {
	g := r.Group("/candidates")
	g.Use(middleware.AuthMiddleware())

	// Order owners read the tracker for their own candidates.
	g.GET("/:id/results", h.GetResults)

	admin := g.Group("")
	admin.Use(middleware.AdminMiddleware())
	{
		admin.GET("/", h.FindAll)
		admin.GET("/:id", h.FindOne)
		admin.PUT("/:id", h.Update)
		admin.DELETE("/:id", h.Remove)

		admin.POST("/:id/results/:serviceId", h.UploadServiceResult)
		admin.DELETE("/:id/results/:serviceId", h.DeleteServiceResult)
		admin.POST("/:id/summary", h.UploadSummaryResult)
		admin.DELETE("/:id/summary", h.DeleteSummaryResult)
	}
}
