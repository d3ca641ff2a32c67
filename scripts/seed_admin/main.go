// Command seed_admin creates or refreshes the initial operator account.
// Intended for first-time environment setup:
//
//	go run ./scripts/seed_admin -email admin@example.com -password changeme
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/tms-allocation-api/internal/models"
	"github.com/noah-isme/tms-allocation-api/internal/repository"
	"github.com/noah-isme/tms-allocation-api/pkg/config"
	"github.com/noah-isme/tms-allocation-api/pkg/database"
)

func main() {
	var (
		email    string
		password string
		fullName string
		role     string
	)
	flag.StringVar(&email, "email", "", "operator email (required)")
	flag.StringVar(&password, "password", "", "operator password (required)")
	flag.StringVar(&fullName, "name", "Administrator", "operator display name")
	flag.StringVar(&role, "role", string(models.RoleAdmin), "operator role")
	flag.Parse()

	if email == "" || password == "" {
		log.Fatal("both -email and -password are required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo := repository.NewUserRepository(db)
	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
		Role:         models.UserRole(role),
		Active:       true,
	}
	if err := repo.Create(ctx, user); err != nil {
		log.Fatalf("failed to create operator: %v", err)
	}
	log.Printf("operator %s created with id %s", user.Email, user.ID)
}
