package order

import (
	candidateRepository "backcheck_api/internal/domain/candidate/repository"
	candidateService "backcheck_api/internal/domain/candidate/service"
	catalogRepository "backcheck_api/internal/domain/catalog/repository"
	catalogService "backcheck_api/internal/domain/catalog/service"
	couponRepository "backcheck_api/internal/domain/coupon/repository"
	couponService "backcheck_api/internal/domain/coupon/service"
	"backcheck_api/internal/domain/order/handler"
	"backcheck_api/internal/domain/order/reconcile"
	"backcheck_api/internal/domain/order/repository"
	"backcheck_api/internal/domain/order/service"
	"backcheck_api/internal/pkg/middleware"
	"backcheck_api/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// OrderModule owns the order lifecycle and wires the tracker's
// reconciliation back-channel.
type OrderModule struct{}

func init() {
	registry.Register(&OrderModule{})
}

func (m *OrderModule) Name() string {
	return "order"
}

func (m *OrderModule) Priority() int {
	// After coupon and candidate, whose services it composes.
	return 20
}

func (m *OrderModule) Init(ctx *registry.ModuleContext) error {
	orderRepo := repository.NewOrderRepository(ctx.DB)
	candidateRepo := candidateRepository.NewCandidateRepository(ctx.DB)

	coupons := couponService.NewCouponService(couponRepository.NewCouponRepository(ctx.DB), ctx.Redis)
	candidates := candidateService.NewCandidateService(candidateRepo, ctx.Storage)
	catalog := catalogService.NewCatalogService(catalogRepository.NewServiceRepository(ctx.DB))

	// Result mutations on candidates reconcile order completion through here.
	candidateService.SetOrderGateway(reconcile.New(orderRepo, candidateRepo))

	svc := service.NewOrderService(orderRepo, coupons, candidates, catalog)
	h := handler.NewOrderHandler(svc, candidates)

	setupRoutes(ctx.Router, h)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.OrderHandler) {
	g := r.Group("/orders")
	g.Use(middleware.AuthMiddleware())
	{
		g.POST("/", h.Create)
		g.GET("/me", h.FindMine)
		g.GET("/me/reviewable", h.FindReviewable)
		g.GET("/tracking/:trackingNumber", h.FindByTracking)
		g.GET("/:id", h.FindOne)
		g.GET("/:id/candidates", h.FindCandidates)
		g.DELETE("/:id", h.Remove)
		g.POST("/:id/coupon", h.ApplyCoupon)
		g.DELETE("/:id/coupon", h.RemoveCoupon)

		admin := g.Group("")
		admin.Use(middleware.AdminMiddleware())
		{
			admin.GET("/", h.FindAll)
			admin.PUT("/:id/status", h.UpdateStatus)
		}
	}
}
