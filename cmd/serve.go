package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"inventory-sync/core/config"
	"inventory-sync/core/loader"
	"inventory-sync/core/logger"
	"inventory-sync/core/middleware"
	"inventory-sync/core/middleware/rayid"
	"inventory-sync/feature/health"
	"inventory-sync/feature/inventory"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// @title Inventory Sync API
// @version 1.0
// @description Triggers and inspects ERP to storefront inventory syncs.
// @host localhost:8080
// @BasePath /

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the inventory sync server",
	Long:  `Starts the HTTP server exposing POST /sync and the health endpoints.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Wire database, lock, archive and store pipelines
		ctx := context.Background()
		a, err := newApp(ctx, cfg, logg)
		if err != nil {
			logg.Fatal("Failed to initialize", zap.Error(err))
		}

		// 4. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			ReadTimeout:           cfg.Server.ReadTimeout(),
			WriteTimeout:          cfg.Server.WriteTimeout(),
		})

		// 5. Register Features
		mgr := loader.NewManager()
		mgr.Register(inventory.NewFeature(a.sync, a.registry.Stores()))
		mgr.Register(health.NewFeature(a.health))

		// RayID first so every log line carries it.
		app.Use(rayid.New())
		app.Use(middleware.Logging(logg))

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 6. Start Server
		go func() {
			logg.Info("Starting server",
				zap.String("port", cfg.Server.Port),
				zap.Strings("stores", a.registry.Stores()),
			)
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 7. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout()); err != nil {
			logg.Error("Shutdown did not complete", zap.Error(err))
		}
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
