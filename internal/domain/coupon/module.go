package coupon

import (
	"backcheck_api/internal/domain/coupon/handler"
	"backcheck_api/internal/domain/coupon/repository"
	"backcheck_api/internal/domain/coupon/service"
	"backcheck_api/internal/pkg/middleware"
	"backcheck_api/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// CouponModule runs the coupon ledger: public templates, personal claims and
// the survey reward.
type CouponModule struct{}

func init() {
	registry.Register(&CouponModule{})
}

func (m *CouponModule) Name() string {
	return "coupon"
}

func (m *CouponModule) Priority() int {
	// Orders validate and consume coupons, so this comes before order.
	return 10
}

func (m *CouponModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewCouponRepository(ctx.DB)
	svc := service.NewCouponService(repo, ctx.Redis)
	h := handler.NewCouponHandler(svc)

	setupRoutes(ctx.Router, h)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.CouponHandler) {
	g := r.Group("/coupons")

	// The claimable template list is the public storefront banner.
	g.GET("/public", h.FindPublic)

	auth := g.Group("")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.GET("/me", h.FindMine)
		auth.POST("/validate", h.Validate)
		auth.POST("/survey-reward", h.ClaimSurveyReward)
		auth.POST("/:id/claim", h.Claim)

		admin := auth.Group("")
		admin.Use(middleware.AdminMiddleware())
		{
			admin.POST("/", h.Create)
			admin.GET("/", h.FindAll)
			admin.GET("/survey", h.FindSurvey)
			admin.GET("/released", h.FindReleased)
			admin.GET("/:id", h.FindOne)
			admin.PUT("/:id", h.Update)
			admin.DELETE("/:id", h.Remove)
		}
	}
}
