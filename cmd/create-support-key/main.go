package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"go.uber.org/zap"

	"github.com/ripenred/checkout-api/internal/config"
	"github.com/ripenred/checkout-api/internal/domain"
	"github.com/ripenred/checkout-api/internal/repository/postgres"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run cmd/create-support-key/main.go <operator-name> <api-key>")
		fmt.Println("Example: go run cmd/create-support-key/main.go \"Order Desk\" \"desk-api-key-12345\"")
		os.Exit(1)
	}

	operatorName := os.Args[1]
	apiKey := os.Args[2]

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// Hash the API key
	keyHash, err := bcrypt.GenerateFromPassword([]byte(apiKey), 10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash API key: %v\n", err)
		os.Exit(1)
	}

	// Create repositories
	repos := postgres.NewRepositories(db, logger)

	key := &domain.SupportKey{
		Name:     operatorName,
		KeyHash:  string(keyHash),
		IsActive: true,
	}

	if err := repos.SupportKey.Create(context.Background(), key); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create support key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Support key created successfully!\n\n")
	fmt.Printf("Key ID: %s\n", key.ID.String())
	fmt.Printf("Operator: %s\n", key.Name)
	fmt.Printf("API Key: %s\n", apiKey)
	fmt.Printf("\nIMPORTANT: Save this API key securely! You won't be able to see it again.\n")
	fmt.Printf("\nUse this API key in the Authorization header:\n")
	fmt.Printf("Authorization: Bearer %s\n", apiKey)
}
