package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/tasko/internal/interface/http"
	"github.com/oksasatya/tasko/internal/interface/middleware"
	"github.com/oksasatya/tasko/pkg/helpers"
)

// AuthModule serves /auth: registration, sessions and the caller's profile.
type AuthModule struct {
	Auth  *handlers.AuthHandler
	Users *handlers.UserHandler
	RDB   *redis.Client
	JWT   *helpers.JWTManager
}

func NewAuthModule(auth *handlers.AuthHandler, users *handlers.UserHandler, rdb *redis.Client, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Auth: auth, Users: users, RDB: rdb, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public with rate limiting
	registerLimiter := middleware.RateLimit(m.RDB, 5, time.Minute, middleware.KeyByIP(), nil)
	loginLimiter := middleware.RateLimit(m.RDB, 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(m.RDB, 60, time.Minute, middleware.KeyByIP(), nil)

	g := rg.Group("/auth")
	g.POST("/register", registerLimiter, m.Auth.Register)
	g.POST("/login", loginLimiter, m.Auth.Login)
	g.POST("/refresh", refreshLimiter, m.Auth.Refresh)

	// Protected
	auth := g.Group("")
	auth.Use(middleware.Auth(m.RDB, m.JWT))
	auth.Use(middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/logout", m.Auth.Logout)
		auth.GET("/me", m.Users.Me)
		auth.PUT("/profile", m.Users.UpdateProfile)
		auth.PUT("/profile/location", m.Users.UpdateLocation)
		auth.POST("/profile/avatar", middleware.RateLimit(m.RDB, 10, time.Minute, middleware.KeyByUserID(), nil), m.Users.UploadAvatar)
	}
}
