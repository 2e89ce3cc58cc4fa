package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"field-route-service/internal/adapters/cache"
	"field-route-service/internal/adapters/geocode"
	"field-route-service/internal/adapters/legcost"
	"field-route-service/internal/adapters/ors"
	"field-route-service/internal/api"
	"field-route-service/internal/platform/db"
	"field-route-service/internal/ports"
)

// main is the application composition root.
// It wires concrete adapters (ORS, postgres, redis) behind ports and starts
// the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	port := getEnv("PORT", "8080")
	defaultTZ := getEnv("DEFAULT_TIMEZONE", "UTC")

	orsKey := os.Getenv("ORS_API_KEY")
	if strings.TrimSpace(orsKey) == "" {
		log.Fatal("ORS_API_KEY is required")
	}

	client, err := ors.NewClient(orsKey)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	// Geocode results are cached in postgres when DATABASE_URL is set.
	var geocodeCache *cache.SQLGeocodeCache
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pg, err := db.Open(ctx, dbURL)
		if err != nil {
			log.Fatal(err)
		}
		defer pg.Close()

		if err := cache.InitSchema(ctx, pg); err != nil {
			log.Fatal(err)
		}
		geocodeCache = cache.NewSQLGeocodeCache(pg)
	} else {
		log.Println("DATABASE_URL not set; geocode caching disabled")
	}

	// Leg costs are cached in redis when REDIS_ADDR is set.
	var legCache *cache.RedisLegCache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal(err)
		}
		defer rdb.Close()

		legCache = cache.NewRedisLegCache(rdb, 0)
	} else {
		log.Println("REDIS_ADDR not set; leg cost caching disabled")
	}

	geocoder, err := geocode.NewORSGeocoder(client, geocodeCache)
	if err != nil {
		log.Fatal(err)
	}

	// LEG_PROVIDER=haversine runs without road routing (local development).
	var legCosts ports.LegCostProvider
	if getEnv("LEG_PROVIDER", "ors") == "haversine" {
		log.Println("using haversine leg cost estimator")
		legCosts = legcost.NewHaversineEstimator(0)
	} else {
		legCosts, err = legcost.NewORSLegCostProvider(client, legCache)
		if err != nil {
			log.Fatal(err)
		}
	}

	router := api.NewRouter(geocoder, legCosts, defaultTZ)

	// Timeouts are tuned for cold-cache route optimization (external API latency).
	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
