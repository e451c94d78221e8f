package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/teambalancer/teambalancer-api/internal/config"
	"github.com/teambalancer/teambalancer-api/internal/database"
	"github.com/teambalancer/teambalancer-api/internal/models"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage: promote-admin <discord-id|username>")
		os.Exit(1)
	}

	who := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	result, err := db.Pool.Exec(ctx, `
		UPDATE users SET role = $1, updated_at = NOW()
		WHERE discord_id = $2 OR username = $2
	`, models.RoleAdmin, who)
	if err != nil {
		log.Fatalf("Failed to update user: %v", err)
	}

	switch n := result.RowsAffected(); {
	case n == 0:
		log.Fatalf("No user found with discord id or username: %s", who)
	case n > 1:
		fmt.Printf("Promoted %d users matching %s to admin\n", n, who)
	default:
		fmt.Printf("Successfully promoted %s to admin\n", who)
	}
}
