package main

import (
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/alenva214/Space-app/internal/app"
	"github.com/alenva214/Space-app/internal/config"
)

func main() {
	// Config
	cfg, err := config.Load(".env")
	if err != nil {
		log.Warn("Warning: .env file not found")
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("app init: %v", err)
	}

	// Notification engine
	if a.Scheduler != nil {
		a.Scheduler.Start()
	}

	// Server
	go func() {
		log.Infof("Server running on :%s 🚀", cfg.AppPort)
		if err := a.Fiber.Listen(":" + cfg.AppPort); err != nil {
			log.Fatalf("server: %v", err)
		}
	}()

	// Graceful shutdown: stop the timer first so no cycle fires during
	// teardown, then drain the HTTP server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if err := a.Fiber.Shutdown(); err != nil {
		log.Errorf("server shutdown: %v", err)
	}
}
