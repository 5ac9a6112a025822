package registry

import (
	"backcheck_api/internal/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ModuleContext carries the shared handles every module may need at init.
type ModuleContext struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Router  *gin.Engine
	Storage storage.FileStorage
}

// Module is one self-contained domain (models + repo + service + routes).
type Module interface {
	// Name returns the module name.
	Name() string

	// Init wires dependencies and registers routes.
	Init(ctx *ModuleContext) error

	// Priority orders initialization (lower first). Modules that other
	// modules build services on top of (user, catalog) come first.
	Priority() int
}

var moduleRegistry = make(map[string]Module)

// Register is called from each module's init().
func Register(module Module) {
	moduleRegistry[module.Name()] = module
}

// GetModules returns all registered modules.
func GetModules() map[string]Module {
	return moduleRegistry
}

// InitModules initializes all modules ordered by priority.
func InitModules(ctx *ModuleContext) error {
	modules := make([]Module, 0, len(moduleRegistry))
	for _, m := range moduleRegistry {
		modules = append(modules, m)
	}

	// Module count is tiny, a simple sort is enough.
	for i := 0; i < len(modules); i++ {
		for j := i + 1; j < len(modules); j++ {
			if modules[i].Priority() > modules[j].Priority() {
				modules[i], modules[j] = modules[j], modules[i]
			}
		}
	}

	for _, module := range modules {
		if err := module.Init(ctx); err != nil {
			return err
		}
	}

	return nil
}
