package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/term"

	"github.com/eduplatforme/exam-backend/internal/config"
	"github.com/eduplatforme/exam-backend/internal/database"
	"github.com/eduplatforme/exam-backend/internal/logger"
	"github.com/eduplatforme/exam-backend/internal/model"
	"github.com/eduplatforme/exam-backend/internal/repository"
	"github.com/eduplatforme/exam-backend/internal/service"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	filiereRepo := repository.NewFiliereRepository(pool)
	authService := service.NewAuthService(cfg)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)
	prompt := func(label string) string {
		fmt.Print(label)
		v, _ := reader.ReadString('\n')
		return strings.TrimSpace(v)
	}

	fmt.Println("=== Create New User ===")

	username := prompt("Enter Username: ")
	if username == "" {
		fmt.Println("Error: Username is required")
		return
	}

	email := prompt("Enter Email: ")
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	firstName := prompt("Enter First Name: ")
	lastName := prompt("Enter Last Name: ")

	role := model.Role(prompt("Enter Role (student/teacher/admin, default student): "))
	if role == "" {
		role = model.RoleStudent
	}
	if !role.Valid() {
		fmt.Printf("Error: unknown role %q\n", role)
		return
	}

	var filiereID *uuid.UUID
	if code := prompt("Enter Filière Code (optional): "); code != "" {
		f, err := filiereRepo.GetByCode(ctx, code)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				fmt.Printf("Error: filière %q not found\n", code)
				return
			}
			log.Fatal().Err(err).Msg("Failed to look up filière")
		}
		filiereID = &f.ID
	}

	// Password
	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	hash, err := authService.HashPassword(password)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		FirstName:    firstName,
		LastName:     lastName,
		FiliereID:    filiereID,
	}

	if err := userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			fmt.Println("Error: username or email already taken")
			return
		}
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	token, err := authService.GenerateToken(user.ID, user.Role)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to sign token")
	}

	fmt.Printf("\nSuccess! %s '%s' (%s) created with ID: %s\n", user.Role, user.DisplayName(), user.Email, user.ID)
	fmt.Printf("Development token (expires in %s):\n%s\n", cfg.JWTExpiry, token)
}
