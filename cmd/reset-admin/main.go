package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/busseva/busseva-backend/internal/config"
	"github.com/busseva/busseva-backend/internal/database"
	"github.com/busseva/busseva-backend/internal/logger"
	"github.com/busseva/busseva-backend/internal/repository"
	"github.com/busseva/busseva-backend/internal/service"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, "")

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	if err := database.Migrate(ctx, cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	// ─── Initialize Service ────────────────────────────────────────────
	adminRepo := repository.NewAdminRepository(pool)
	adminService := service.NewAdminService(cfg, adminRepo, log)

	// Make sure the account exists before resetting it.
	if err := adminService.EnsureDefaultAdmin(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to provision admin")
	}

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Reset Admin Password ===")

	fmt.Printf("Username (default %s): ", cfg.AdminUsername)
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)
	if username == "" {
		username = cfg.AdminUsername
	}

	fmt.Print("New Password: ")
	password, err := readPassword(reader)
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	fmt.Println()
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	fmt.Print("Confirm Password: ")
	confirm, err := readPassword(reader)
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	fmt.Println()
	if confirm != password {
		fmt.Println("Error: Passwords do not match")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	if err := adminService.ResetPassword(ctx, username, password); err != nil {
		if errors.Is(err, service.ErrAdminNotFound) {
			fmt.Printf("Error: admin '%s' does not exist\n", username)
			return
		}
		log.Fatal().Err(err).Msg("Failed to reset password")
	}

	fmt.Printf("\nSuccess! Password for '%s' has been reset.\n", username)
}

// readPassword reads without echo from a terminal, or a plain line when
// stdin is piped.
func readPassword(reader *bufio.Reader) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		b, err := term.ReadPassword(int(syscall.Stdin))
		return string(b), err
	}
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
