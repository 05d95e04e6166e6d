// Package main issues employee access tokens for local development and scripts.
//
// Usage:
//
//	go run ./cmd/token -employee 7 -name "Dr. Petrovic" -ttl 8h
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/dental-clinic/backend/config"
	"github.com/dental-clinic/backend/internal/integration/adapters"
)

func main() {
	_ = godotenv.Load()

	employeeID := flag.Int64("employee", 0, "employee id recorded on ledger entries")
	name := flag.String("name", "", "employee display name")
	ttl := flag.Duration("ttl", 8*time.Hour, "token lifetime")
	flag.Parse()

	if *employeeID <= 0 {
		slog.Error("employee id must be positive", "employee", *employeeID)
		os.Exit(2)
	}

	cfg := config.Load()
	tokenService := adapters.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer)

	token, err := tokenService.GenerateAccessToken(context.Background(), *employeeID, *name, *ttl)
	if err != nil {
		slog.Error("Failed to issue token", "error", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
