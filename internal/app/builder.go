package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/alenva214/Space-app/internal/acquisition"
	"github.com/alenva214/Space-app/internal/config"
	database "github.com/alenva214/Space-app/internal/db"
	"github.com/alenva214/Space-app/internal/handlers"
	"github.com/alenva214/Space-app/internal/location"
	"github.com/alenva214/Space-app/internal/metrics"
	"github.com/alenva214/Space-app/internal/middleware"
	"github.com/alenva214/Space-app/internal/notification"
	"github.com/alenva214/Space-app/internal/user"
)

// App bundles the HTTP server and the notification scheduler so main can
// start and stop both.
type App struct {
	Fiber     *fiber.App
	Scheduler *notification.Scheduler
}

func New(cfg *config.Config) (*App, error) {
	/* ------------ DB ------------ */
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if err := database.Migrate(db,
		&user.User{},
		&location.Location{},
	); err != nil {
		return nil, fmt.Errorf("db migrate: %w", err)
	}

	return build(cfg, db)
}

func build(cfg *config.Config, db *gorm.DB) (*App, error) {
	/* ------------ Services ------------ */
	userRepo := user.NewGormRepo(db)
	userSvc, err := user.NewService(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}
	locationRepo := location.NewRepository(db)

	timeout := time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	var acqClient *acquisition.Client
	if cfg.AcqUsername != "" && cfg.AcqPassword != "" {
		acqClient, err = acquisition.New(acquisition.Config{
			BaseURL:     cfg.AcqBaseURL,
			Credentials: acquisition.Credentials{Username: cfg.AcqUsername, Password: cfg.AcqPassword},
			Dataset:     cfg.AcqDataset,
			Margin:      cfg.QueryMarginDegrees,
			Client:      &http.Client{Timeout: timeout},
		})
		if err != nil {
			return nil, fmt.Errorf("acquisition client: %w", err)
		}
	} else {
		log.Warn("acquisition API credentials missing; overpass notifications disabled")
	}

	var dispatcher notification.Dispatcher = logDispatcher{}
	if cfg.SMTPHost != "" && cfg.SMTPPort != "" && cfg.SMTPFrom != "" {
		smtpCfg, err := notification.ConfigFromEnv(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
		if err != nil {
			log.Warnf("invalid SMTP configuration: %v", err)
		} else {
			mailer, err := notification.NewMailer(smtpCfg)
			if err != nil {
				log.Warnf("mailer init failed: %v", err)
			} else {
				dispatcher = mailer
			}
		}
	} else {
		log.Warn("SMTP configuration incomplete; notification emails disabled")
	}

	/* ------------ Notification engine ------------ */
	var scheduler *notification.Scheduler
	if acqClient != nil {
		cycle := notification.NewCycle(locationRepo, acqClient, dispatcher, timeout)
		interval := time.Duration(cfg.NotificationIntervalHours) * time.Hour
		scheduler = notification.NewScheduler(cycle, interval)
	}

	/* ------------ Fiber ------------ */
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Accept, Authorization, Content-Type",
		AllowCredentials: true,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"status": "db error"})
		}
		if err := sqlDB.Ping(); err != nil {
			return c.Status(500).JSON(fiber.Map{"status": "db down"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	/* ------------ Public routes ------------ */
	app.Post("/register", handlers.Register(userRepo, userSvc))
	app.Post("/login", handlers.Login(userRepo, userSvc))
	app.Get("/logout", handlers.Logout)

	/* ------------ Protected routes ------------ */
	var previewer handlers.OverpassPreviewer
	if acqClient != nil {
		previewer = acqClient
	}

	api := app.Group("/", middleware.Auth(userSvc))
	api.Post("/locations", handlers.SubmitLocation(locationRepo, previewer))
	api.Get("/locations", handlers.ListLocations(locationRepo))
	api.Delete("/locations/:id", handlers.DeleteLocation(locationRepo))
	api.Put("/locations/:id/notify", handlers.UpdateNotification(locationRepo))

	return &App{Fiber: app, Scheduler: scheduler}, nil
}

// logDispatcher replaces the mailer when SMTP is not configured.
type logDispatcher struct{}

func (logDispatcher) Notify(recipientEmail, locationName string, passTime time.Time) error {
	log.Infof("SMTP configuration missing; skipping email to %s (location=%s, pass=%s)",
		recipientEmail, locationName, passTime)
	return nil
}
