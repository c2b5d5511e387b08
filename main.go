package main

import (
	"log"

	"lms/config"
	"lms/database"
	"lms/models"
	syncRoutes "lms/routers/syncRoutes"
	"lms/services"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/robfig/cron/v3"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	db, err := database.ConnectLedger(cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
	if err != nil {
		log.Fatalf("Failed to connect ledger database: %v", err)
	}

	// Store clients are built once and shared; every component gets its
	// handle explicitly.
	ledger := database.NewGormLedger(db, models.LedgerKeyColumns())
	index := database.NewHttpIndex(cfg.IndexBaseURL)
	capacity := utils.NewCapacityClient(cfg.CapacityBaseURL, cfg.CapacityApiKey)
	alerts := utils.NewAlertMailer(cfg.SendgridApiKey, cfg.AlertSender, cfg.AlertRecipient)

	writer := services.NewEnrollmentWriter(ledger, index, cfg.EnrollBatchSize)
	updater := services.NewBatchCounterUpdater(capacity, ledger, index)
	resync := services.NewResynchronizer(ledger, index, cfg.SyncChunkSize, cfg.SyncPageSize, alerts)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	syncRoutes.SetupSyncRoutes(app, writer, updater, resync)

	if cfg.ResyncEnabled {
		scheduler := cron.New()
		utils.StartResyncScheduler(scheduler, resync, cfg.ResyncCron)
		scheduler.Start()
	}

	log.Printf("Server is running on port %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
