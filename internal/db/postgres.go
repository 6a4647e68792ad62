package db

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens a DB connection and returns *gorm.DB
func Connect(dsn string) (*gorm.DB, error) {
	// SSL mode kontrolü - Heroku için otomatik ekle
	if !strings.Contains(dsn, "sslmode=") {
		if strings.Contains(dsn, "?") {
			dsn += "&sslmode=require"
		} else {
			dsn += " sslmode=require"
		}
		log.Info("🔒 SSL mode automatically enabled")
	}

	log.Info("📡 Connecting to database...")

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Errorf("❌ Database connection failed: %v", err)
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Errorf("❌ Failed to get database instance: %v", err)
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		log.Errorf("❌ Database ping failed: %v", err)
		return nil, err
	}

	log.Info("✅ Database connected successfully!")
	return db, nil
}

// Migrate runs AutoMigrate for the given models
func Migrate(db *gorm.DB, models ...interface{}) error {
	// run only if MIGRATE_ON_START=true (env-toggled)
	if os.Getenv("MIGRATE_ON_START") != "true" {
		log.Info("⏭️  Skipping migrations (MIGRATE_ON_START != true)")
		return nil
	}

	log.Info("🔄 Running migrations...")

	if err := db.AutoMigrate(models...); err != nil {
		log.Errorf("❌ Migration failed: %v", err)
		return err
	}

	log.Info("✅ Migrations completed successfully!")
	return nil
}
