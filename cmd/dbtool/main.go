package main

import (
	"context"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"field-route-service/internal/adapters/cache"
	"field-route-service/internal/platform/db"
)

// dbtool bootstraps the cache schema against DATABASE_URL.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()

	pg, err := db.Open(ctx, dbURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pg.Close()

	if err := cache.InitSchema(ctx, pg); err != nil {
		log.Fatal(err)
	}

	log.Println("schema initialized")
}
