package main

import (
	"time"

	"backcheck_api/internal/pkg/config"
	"backcheck_api/internal/pkg/middleware"
	"backcheck_api/internal/pkg/push"
	"backcheck_api/internal/pkg/registry"
	"backcheck_api/internal/pkg/storage"
	"backcheck_api/internal/pkg/worker"
	"backcheck_api/pkg/database"
	"backcheck_api/pkg/logger"
	"backcheck_api/pkg/metrics"

	// Self-registering domain modules.
	_ "backcheck_api/internal/domain/candidate"
	_ "backcheck_api/internal/domain/catalog"
	_ "backcheck_api/internal/domain/coupon"
	_ "backcheck_api/internal/domain/order"
	_ "backcheck_api/internal/domain/payment"
	_ "backcheck_api/internal/domain/review"
	_ "backcheck_api/internal/domain/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()

	logger.Init(config.GlobalConfig.App.Debug)
	defer logger.Sync()

	db := database.InitDatabase()
	rdb := database.InitRedis()

	fileStorage, err := storage.NewAliyunOSSStorage()
	if err != nil {
		logger.Log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	if err := push.InitPushService(); err != nil {
		// Push is optional in dev; payment approval just won't notify.
		logger.Log.Warn("Push service not available", zap.Error(err))
	}

	worker.Global = worker.NewCleanupPool(4, 256)
	worker.Global.Start()

	gin.SetMode(config.GlobalConfig.Server.Mode)
	router := gin.New()
	router.Use(
		middleware.TraceMiddleware(),
		middleware.LoggerMiddleware(),
		gin.Recovery(),
		metrics.Middleware(),
		middleware.RateLimitMiddleware(),
	)
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Trace-ID"},
		ExposeHeaders:    []string{"X-Trace-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/metrics", metrics.Handler())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if err := registry.InitModules(&registry.ModuleContext{
		DB:      db,
		Redis:   rdb,
		Router:  router,
		Storage: fileStorage,
	}); err != nil {
		logger.Log.Fatal("Failed to initialize modules", zap.Error(err))
	}

	addr := ":" + config.GlobalConfig.Server.Port
	logger.Log.Info("Server starting", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Log.Fatal("Server stopped", zap.Error(err))
	}
}
