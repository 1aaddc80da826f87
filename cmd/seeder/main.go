package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"time"

	"backend/internal/config"
	"backend/internal/game"
	"backend/internal/models"
	"backend/internal/repository"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	force := flag.Bool("force", false, "overwrite existing game state records")
	flag.Parse()

	log.Println("🌱 Starting seeder for World Light Game State Service...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize PostgreSQL
	db, err := initPostgres(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	log.Println("✓ Connected to PostgreSQL")

	// Initialize Redis
	redisClient, err := initRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("✓ Connected to Redis")

	// Initialize repositories
	postgresRepo := repository.NewPostgresRepository(db)
	kv := repository.NewRedisKV(redisClient)

	// Run migrations for the archive tables
	if err := postgresRepo.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("✓ Database migrations completed")

	ctx := context.Background()

	exists, err := kv.Exists(ctx, game.KeyCities)
	if err != nil {
		log.Fatalf("Failed to check existing state: %v", err)
	}
	if exists && !*force {
		log.Println("⚠️ Game state already initialized; run with -force to overwrite")
		return
	}

	cities := game.DefaultCities()
	if err := seedGameState(ctx, kv, cities); err != nil {
		log.Fatalf("Failed to seed game state: %v", err)
	}

	log.Printf("✅ Seeding completed successfully!")
	log.Printf("   - Cities: %d", len(cities))
	log.Printf("   - Leaderboard: empty")
	log.Printf("   - Stats: zeroed")

	// Close connections
	postgresRepo.Close()
	kv.Close()

	log.Println("\n🎉 Seeder finished!")
}

// seedGameState writes the three global records in one pipeline
func seedGameState(ctx context.Context, kv *repository.RedisKV, cities models.CitySet) error {
	citiesJSON, err := json.Marshal(cities)
	if err != nil {
		return err
	}
	statsJSON, err := json.Marshal(models.GlobalStats{LastUpdate: time.Now().UnixMilli()})
	if err != nil {
		return err
	}

	return kv.PutMany(ctx, map[string]string{
		game.KeyCities:      string(citiesJSON),
		game.KeyStats:       string(statsJSON),
		game.KeyLeaderboard: "[]",
	})
}

// initPostgres initializes PostgreSQL connection
func initPostgres(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDSN()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

// initRedis initializes Redis connection
func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Username:     cfg.Redis.Username,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}
