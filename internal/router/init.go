package router

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tasko/config"
	"github.com/oksasatya/tasko/internal/application"
	"github.com/oksasatya/tasko/internal/container"
	gcsinfra "github.com/oksasatya/tasko/internal/infrastructure/gcs"
	"github.com/oksasatya/tasko/internal/infrastructure/payment"
	pginfra "github.com/oksasatya/tasko/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/tasko/internal/interface/http"
	"github.com/oksasatya/tasko/internal/router/modules"
	"github.com/oksasatya/tasko/pkg/helpers"
)

// Deps is everything the HTTP modules need.
type Deps struct {
	Config *config.Config
	Logger *logrus.Logger
	Redis  *redis.Client
	JWT    *helpers.JWTManager

	Users *application.UserService
	Tasks *application.TaskService
	Admin *application.AdminService
}

// BuildDeps wires the services from the container singletons.
func BuildDeps() Deps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()

	users := pginfra.NewUserRepository(pool)
	tasks := pginfra.NewTaskRepository(pool)
	store := pginfra.NewStore(pool)

	var avatars application.AvatarStore
	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		avatars = gcsinfra.NewAvatarStore(gcs, cfg.GCSBucket)
	}
	var pub application.JobPublisher
	if p := container.GetRabbitPub(); p != nil {
		pub = p
	}

	notifier := application.NewNotifier(pub, cfg, logger)
	index := application.NewTaskIndex(container.GetES(), cfg.ESTasksIndex, logger)

	return Deps{
		Config: cfg,
		Logger: logger,
		Redis:  container.GetRedis(),
		JWT:    container.GetJWT(),
		Users:  application.NewUserService(users, container.GetJWT(), avatars, container.GetRedis(), cfg.SessionTTL, logger),
		Tasks:  application.NewTaskService(tasks, users, store, payment.NewMockGateway(logger), notifier, index, logger, cfg),
		Admin:  application.NewAdminService(users, tasks, cfg.CommissionRate, logger),
	}
}

// InitModules registers every feature module on the registry.
// This function should be called once during application startup.
func InitModules(r *Registry, d Deps) {
	cookieDomain, cookieSecure := "", false
	if d.Config != nil {
		cookieDomain, cookieSecure = d.Config.CookieDomain, d.Config.CookieSecure
	}

	r.Add(modules.NewAuthModule(
		handlers.NewAuthHandler(d.Users, d.Logger, cookieDomain, cookieSecure),
		handlers.NewUserHandler(d.Users, d.Logger),
		d.Redis, d.JWT,
	))
	r.Add(modules.NewTaskModule(handlers.NewTaskHandler(d.Tasks, d.Logger), d.Redis, d.JWT))
	r.Add(modules.NewAdminModule(handlers.NewAdminHandler(d.Admin, d.Logger), d.Redis, d.JWT))
	if d.Config == nil || d.Config.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(d.Redis))
	}
}
