package review

import (
	candidateRepository "backcheck_api/internal/domain/candidate/repository"
	candidateService "backcheck_api/internal/domain/candidate/service"
	catalogRepository "backcheck_api/internal/domain/catalog/repository"
	catalogService "backcheck_api/internal/domain/catalog/service"
	couponRepository "backcheck_api/internal/domain/coupon/repository"
	couponService "backcheck_api/internal/domain/coupon/service"
	orderRepository "backcheck_api/internal/domain/order/repository"
	orderService "backcheck_api/internal/domain/order/service"
	"backcheck_api/internal/domain/review/handler"
	"backcheck_api/internal/domain/review/repository"
	"backcheck_api/internal/domain/review/service"
	userRepository "backcheck_api/internal/domain/user/repository"
	"backcheck_api/internal/pkg/middleware"
	"backcheck_api/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// ReviewModule gates reviews behind order completion.
type ReviewModule struct{}

func init() {
	registry.Register(&ReviewModule{})
}

func (m *ReviewModule) Name() string {
	return "review"
}

func (m *ReviewModule) Priority() int {
	return 30
}

func (m *ReviewModule) Init(ctx *registry.ModuleContext) error {
	orderRepo := orderRepository.NewOrderRepository(ctx.DB)
	coupons := couponService.NewCouponService(couponRepository.NewCouponRepository(ctx.DB), ctx.Redis)
	candidates := candidateService.NewCandidateService(candidateRepository.NewCandidateRepository(ctx.DB), ctx.Storage)
	catalog := catalogService.NewCatalogService(catalogRepository.NewServiceRepository(ctx.DB))
	orders := orderService.NewOrderService(orderRepo, coupons, candidates, catalog)

	svc := service.NewReviewService(
		repository.NewReviewRepository(ctx.DB),
		orders,
		userRepository.NewUserRepository(ctx.DB),
	)
	h := handler.NewReviewHandler(svc)

	setupRoutes(ctx.Router, h)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.ReviewHandler) {
	g := r.Group("/reviews")

	// The feed and the aggregate rating are public marketing surfaces.
	g.GET("/", h.FindAll)
	g.GET("/stats", h.Stats)

	auth := g.Group("")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.POST("/", h.Create)
		auth.GET("/me", h.FindMine)
		auth.GET("/order/:orderId", h.FindByOrder)
		auth.GET("/order/:orderId/status", h.CheckOrder)
		auth.GET("/:id", h.FindOne)
		auth.PUT("/:id", h.Update)
		auth.DELETE("/:id", h.Remove)
	}
}
