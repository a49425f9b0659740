package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/tasko/internal/domain/entity"
	handlers "github.com/oksasatya/tasko/internal/interface/http"
	"github.com/oksasatya/tasko/internal/interface/middleware"
	"github.com/oksasatya/tasko/pkg/helpers"
)

// TaskModule serves /tasks. Role checks here mirror the service guards.
type TaskModule struct {
	Handler *handlers.TaskHandler
	RDB     *redis.Client
	JWT     *helpers.JWTManager
}

func NewTaskModule(h *handlers.TaskHandler, rdb *redis.Client, jwt *helpers.JWTManager) *TaskModule {
	return &TaskModule{Handler: h, RDB: rdb, JWT: jwt}
}

func (m *TaskModule) Register(rg *gin.RouterGroup) {
	client := middleware.RequireRole(entity.RoleClient)
	worker := middleware.RequireRole(entity.RoleWorker)
	// lifecycle actions get their own bucket per route
	act := middleware.RateLimit(m.RDB, 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	g := rg.Group("/tasks")
	g.Use(middleware.Auth(m.RDB, m.JWT))
	g.Use(middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		g.POST("", client, m.Handler.Create)
		g.GET("/client", client, m.Handler.ListClient)
		g.GET("/available", worker, m.Handler.ListAvailable)
		g.GET("/worker", worker, m.Handler.ListWorker)
		g.GET("/search", worker, m.Handler.Search)

		g.POST("/:id/accept", act, worker, m.Handler.Accept)
		g.POST("/:id/deposit", act, client, m.Handler.Deposit)
		g.POST("/:id/start", act, m.Handler.Start)
		g.POST("/:id/complete", act, worker, m.Handler.Complete)
		g.POST("/:id/review", act, client, m.Handler.Review)
	}
}
