package main

import (
	"context"
	"errors"
	"log"
	"os"

	"gorm.io/gorm"

	"github.com/Omakidx/link6ync/internal/config"
	"github.com/Omakidx/link6ync/internal/db"
	"github.com/Omakidx/link6ync/internal/model"
	"github.com/Omakidx/link6ync/internal/repository"
)

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.Link{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	email := model.NormalizeEmail(getEnv("ADMIN_EMAIL", "admin@link6ync.local"))
	password := getEnv("ADMIN_PASSWORD", "changeme")
	name := getEnv("ADMIN_NAME", "Administrator")

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)

	if _, err := userRepo.FindByEmail(ctx, email); err == nil {
		log.Printf("Admin user %s already exists, nothing to do", email)
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("Failed to look up admin user: %v", err)
	}

	hash, err := model.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	admin := &model.User{
		Name:            name,
		Email:           email,
		PasswordHash:    hash,
		Role:            model.RoleAdmin,
		IsEmailVerified: true,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}

	log.Printf("Created admin user %s (%s)", email, admin.ID)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
