package main

import (
	"os"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/abeme/go_bm_api/entity"
	"github.com/abeme/go_bm_api/logger"
	"github.com/abeme/go_bm_api/router"
	"github.com/abeme/go_bm_api/service"
)

func main() {
	log, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// init DB (SQLite via GORM)
	dbFile := os.Getenv("DB_FILE")
	if dbFile == "" {
		dbFile = "dev.db"
	}
	log.Info("opening sqlite database", "file", dbFile)
	db, err := gorm.Open(sqlite.Open(dbFile), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to open sqlite db", "err", err)
	}

	if err := db.AutoMigrate(
		&entity.User{},
		&entity.Rating{},
		&entity.Relationship{},
		&entity.RevealConsent{},
		&entity.Message{},
		&entity.LovePrint{},
		&entity.DailyPrompt{},
		&entity.DailyPromptAnswer{},
		&entity.CompatibilityReport{},
	); err != nil {
		log.Fatal("migrate failed", "err", err)
	}

	// init redis
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})

	r, bus := router.New(db, rdb, log)
	defer bus.Close()

	// Operational trail of relationship transitions, including those relayed
	// from other instances over Redis.
	evs, stopEvents := bus.Subscribe()
	defer stopEvents()
	go func() {
		for ev := range evs {
			log.Info("relationship event", "kind", ev.Kind, "relationship", ev.RelationshipID, "stage", ev.Stage)
		}
	}()

	if err := service.NewDailyPromptService(db, rdb).Seed(); err != nil {
		log.Fatal("prompt seed failed", "err", err)
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.Info("starting server", "addr", addr)
	if err := r.Run(addr); err != nil {
		log.Fatal("server failed", "err", err)
	}
}
