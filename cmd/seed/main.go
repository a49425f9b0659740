package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/oksasatya/tasko/config"
	"github.com/oksasatya/tasko/internal/domain/entity"
	pginfra "github.com/oksasatya/tasko/internal/infrastructure/postgres"
	"github.com/oksasatya/tasko/pkg/helpers"
)

type seedUser struct {
	name, email, password string
	role                  entity.Role
	location              *entity.GeoPoint
	skills                []string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Admins cannot sign up through the API, so the first one comes from here.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), 2, 1, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	users := pginfra.NewUserRepository(pool)

	nairobi := &entity.GeoPoint{Latitude: -1.2921, Longitude: 36.8219, Address: "Nairobi CBD"}
	seeds := []seedUser{
		{name: "Admin", email: getenv("SEED_ADMIN_EMAIL", "admin@tasko.local"), password: getenv("SEED_ADMIN_PASSWORD", "admin12345"), role: entity.RoleAdmin},
		{name: "Demo Client", email: "client@tasko.local", password: "password123", role: entity.RoleClient, location: nairobi},
		{name: "Demo Worker", email: "worker@tasko.local", password: "password123", role: entity.RoleWorker, location: nairobi, skills: []string{"delivery", "cleaning"}},
	}

	for _, s := range seeds {
		entry := logger.WithField("email", s.email)
		if _, err := users.GetByEmail(ctx, s.email); err == nil {
			entry.Info("user exists, skipped")
			continue
		} else if !errors.Is(err, entity.ErrNotFound) {
			log.Fatalf("lookup %s: %v", s.email, err)
		}

		hash, err := helpers.HashPassword(s.password)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}
		u := &entity.User{
			Name:       s.name,
			Email:      s.email,
			Password:   hash,
			Role:       s.role,
			Skills:     s.skills,
			Location:   s.location,
			IsVerified: s.role == entity.RoleAdmin,
		}
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("failed to seed %s: %v", s.email, err)
		}
		entry.WithFields(map[string]any{"id": u.ID, "role": u.Role}).Info("seeded user")
	}
}
