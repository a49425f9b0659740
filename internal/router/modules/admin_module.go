package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/tasko/internal/domain/entity"
	handlers "github.com/oksasatya/tasko/internal/interface/http"
	"github.com/oksasatya/tasko/internal/interface/middleware"
	"github.com/oksasatya/tasko/pkg/helpers"
)

type AdminModule struct {
	Handler *handlers.AdminHandler
	RDB     *redis.Client
	JWT     *helpers.JWTManager
}

func NewAdminModule(h *handlers.AdminHandler, rdb *redis.Client, jwt *helpers.JWTManager) *AdminModule {
	return &AdminModule{Handler: h, RDB: rdb, JWT: jwt}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/admin")
	g.Use(middleware.Auth(m.RDB, m.JWT), middleware.RequireRole(entity.RoleAdmin))
	{
		g.GET("/users", m.Handler.ListUsers)
		g.POST("/users/:id/verify", m.Handler.VerifyUser)
		g.GET("/tasks", m.Handler.ListTasks)
		g.GET("/payouts", m.Handler.ListPayouts)
	}
}
