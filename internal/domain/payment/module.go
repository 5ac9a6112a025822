package payment

import (
	candidateRepository "backcheck_api/internal/domain/candidate/repository"
	candidateService "backcheck_api/internal/domain/candidate/service"
	catalogRepository "backcheck_api/internal/domain/catalog/repository"
	catalogService "backcheck_api/internal/domain/catalog/service"
	couponRepository "backcheck_api/internal/domain/coupon/repository"
	couponService "backcheck_api/internal/domain/coupon/service"
	orderRepository "backcheck_api/internal/domain/order/repository"
	orderService "backcheck_api/internal/domain/order/service"
	"backcheck_api/internal/domain/payment/handler"
	"backcheck_api/internal/domain/payment/repository"
	"backcheck_api/internal/domain/payment/service"
	"backcheck_api/internal/pkg/middleware"
	"backcheck_api/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// PaymentModule records payment evidence and drives verification.
type PaymentModule struct{}

func init() {
	registry.Register(&PaymentModule{})
}

func (m *PaymentModule) Name() string {
	return "payment"
}

func (m *PaymentModule) Priority() int {
	return 25
}

func (m *PaymentModule) Init(ctx *registry.ModuleContext) error {
	orderRepo := orderRepository.NewOrderRepository(ctx.DB)
	coupons := couponService.NewCouponService(couponRepository.NewCouponRepository(ctx.DB), ctx.Redis)
	candidates := candidateService.NewCandidateService(candidateRepository.NewCandidateRepository(ctx.DB), ctx.Storage)
	catalog := catalogService.NewCatalogService(catalogRepository.NewServiceRepository(ctx.DB))
	orders := orderService.NewOrderService(orderRepo, coupons, candidates, catalog)

	svc := service.NewPaymentService(repository.NewPaymentRepository(ctx.DB), orderRepo, orders, ctx.Storage)
	h := handler.NewPaymentHandler(svc)

	setupRoutes(ctx.Router, h)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.PaymentHandler) {
	g := r.Group("/payments")
	g.Use(middleware.AuthMiddleware())
	{
		g.POST("/", h.Create)
		g.GET("/:id", h.FindOne)
		g.GET("/order/:orderId", h.FindByOrder)

		admin := g.Group("")
		admin.Use(middleware.AdminMiddleware())
		{
			admin.GET("/", h.FindAll)
			admin.PUT("/:id/status", h.UpdateStatus)
			admin.DELETE("/:id", h.Remove)
		}
	}
}
