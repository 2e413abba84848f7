package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"feed-report/config"
	"feed-report/models"
)

// Open baut die PostgreSQL-Verbindung auf und setzt die Pool-Parameter.
func Open(cfg *config.Config) (*gorm.DB, error) {
	if cfg == nil || (strings.TrimSpace(cfg.DatabaseURL) == "" && strings.TrimSpace(cfg.DBHost) == "") {
		return nil, errors.New("database DSN must not be empty")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := ConfigurePool(db, cfg); err != nil {
		return nil, err
	}
	return db, nil
}

// ConfigurePool überträgt die Pool-Einstellungen auf das darunterliegende *sql.DB.
func ConfigurePool(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	if cfg.DBMaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
	if cfg.DBConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	}
	return nil
}

// AutoMigrate legt alle Tabellen des Dienstes an bzw. aktualisiert sie.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("database handle is nil")
	}
	return db.AutoMigrate(
		&models.Mix{},
		&models.Ingredient{},
		&models.Report{},
		&models.ReportExport{},
	)
}

// Ping prüft, ob die Datenbank erreichbar ist.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
