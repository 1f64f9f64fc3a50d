package main

import (
	"context"
	"net/http"
	"time"

	"github.com/avdeenkov/procurement-service/internal/db"
	"github.com/avdeenkov/procurement-service/internal/handlers"
	"github.com/avdeenkov/procurement-service/internal/logger"
	"github.com/avdeenkov/procurement-service/internal/notify"
	"github.com/avdeenkov/procurement-service/internal/repository"
	"github.com/avdeenkov/procurement-service/internal/router"
	"github.com/avdeenkov/procurement-service/internal/router/config"
	"github.com/avdeenkov/procurement-service/internal/scheduler"
	"github.com/avdeenkov/procurement-service/internal/services"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logrus.Fatal("cannot load config: ", err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	runDBMigration(log, cfg.MigrationURL, cfg.PostgresConn)

	ctx := context.Background()
	dbPool, err := db.InitDb(ctx, cfg)
	if err != nil {
		log.Fatalf("error initializing database: %v", err)
	}
	defer dbPool.Close()

	tracker := notify.NewRedisTracker(notify.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.AlertSentTTL,
	})
	if err := tracker.Ping(ctx); err != nil {
		log.Fatalf("error connecting to redis: %v", err)
	}
	defer tracker.Close()

	tenderRepo := repository.NewPostgresTenderRepository(dbPool)
	offerRepo := repository.NewPostgresOfferRepository(dbPool)
	equityRepo := repository.NewPostgresEquityRepository(dbPool)
	accessRepo := repository.NewPostgresAccessRepository(dbPool)
	searchRepo := repository.NewPostgresSavedSearchRepository(dbPool)

	equityService := services.NewEquityService(equityRepo, log)
	tenderService := services.NewTenderService(tenderRepo, accessRepo, equityService, log)
	offerService := services.NewOfferService(offerRepo, tenderRepo, accessRepo, equityService, log)
	searchService := services.NewSavedSearchService(searchRepo, accessRepo, log)
	alertService := services.NewAlertService(searchRepo, tenderRepo, tracker, notify.NewLogDispatcher(log), log)

	jobs := scheduler.New(tenderService, alertService, cfg.JobTimeout, log)
	if err := jobs.Start(cfg.ExpiryCronSpec, cfg.AlertCronSpec); err != nil {
		log.Fatalf("error starting scheduler: %v", err)
	}
	defer jobs.Stop()

	tenderHandler := handlers.NewTenderHandler(tenderService, log, 5*time.Second)
	offerHandler := handlers.NewOfferHandler(offerService, log, 5*time.Second)
	equityHandler := handlers.NewEquityHandler(equityService, log, 5*time.Second)
	searchHandler := handlers.NewSavedSearchHandler(searchService, log, 5*time.Second)

	routes := router.InitRoutes(tenderHandler, offerHandler, equityHandler, searchHandler)

	log.Infof("server is listening on %s...", cfg.ServerAddress)
	if err := http.ListenAndServe(cfg.ServerAddress, routes); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func runDBMigration(log *logrus.Logger, migrationURL string, dbSource string) {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		log.Fatal("cannot create a new migrate instance: ", err)
	}

	if err = migration.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatal("failed to run migrate up: ", err)
	}
	log.Info("db migrated successfully")
}
