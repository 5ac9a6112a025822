package user

import (
	"backcheck_api/internal/domain/user/handler"
	"backcheck_api/internal/domain/user/repository"
	"backcheck_api/internal/domain/user/service"
	"backcheck_api/internal/pkg/middleware"
	"backcheck_api/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// UserModule provides auth and the user directory.
type UserModule struct{}

func init() {
	registry.Register(&UserModule{})
}

func (m *UserModule) Name() string {
	return "user"
}

func (m *UserModule) Priority() int {
	// Other modules resolve users, so this initializes first.
	return 1
}

func (m *UserModule) Init(ctx *registry.ModuleContext) error {
	uRepo := repository.NewUserRepository(ctx.DB)

	blacklist := service.NewRedisTokenBlacklist(ctx.Redis)
	middleware.SetTokenBlacklist(blacklist)

	uService := service.NewUserService(uRepo, blacklist)
	uHandler := handler.NewUserHandler(uService)

	setupRoutes(ctx.Router, uHandler)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.UserHandler) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", middleware.AuthMiddleware(), h.Logout)
	}

	users := r.Group("/users")
	users.Use(middleware.AuthMiddleware())
	{
		users.GET("/me", h.Profile)
		users.PUT("/me", h.UpdateProfile)

		admin := users.Group("")
		admin.Use(middleware.AdminMiddleware())
		{
			admin.GET("/", h.GetUsers)
			admin.GET("/:id", h.GetUser)
			admin.DELETE("/:id", h.DeleteUser)
		}
	}
}
