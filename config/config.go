package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	// Entweder DATABASE_URL oder die Einzelwerte DB_* müssen gesetzt sein.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST"`
	DBPort      int    `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME"`
	DBSSLMode   string `envconfig:"DB_SSLMODE" default:"disable"`

	DBMaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	DBMaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	DBConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"3000"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// OpenRouter (OpenAI-kompatible Chat Completions)
	OpenRouterAPIKey string        `envconfig:"OPENROUTER_API_KEY" required:"true"`
	LLMBaseURL       string        `envconfig:"LLM_BASE_URL" default:"https://openrouter.ai/api/v1"`
	LLMModel         string        `envconfig:"LLM_MODEL" default:"anthropic/claude-3-haiku"`
	LLMTimeout       time.Duration `envconfig:"LLM_TIMEOUT" default:"90s"`
	LLMAppURL        string        `envconfig:"LLM_APP_URL"`
	LLMAppTitle      string        `envconfig:"LLM_APP_TITLE" default:"AI Nutrient Reporting Tool"`

	// S3-Export der Reports, optional
	S3URL    string `envconfig:"S3_URL"`
	S3Region string `envconfig:"S3_REGION"`
	S3Key    string `envconfig:"S3_KEY"`
	S3Secret string `envconfig:"S3_SECRET"`
	S3Bucket string `envconfig:"S3_BUCKET"`

	// Leer = Archiv-Job deaktiviert
	ArchiveCronSchedule string `envconfig:"ARCHIVE_CRON_SCHEDULE"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
// DATABASE_URL hat Vorrang vor den Einzelwerten.
func (c *Config) DSN() string {
	if strings.TrimSpace(c.DatabaseURL) != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// S3Enabled meldet, ob der Report-Export konfiguriert ist.
func (c *Config) S3Enabled() bool {
	return c.S3URL != "" && c.S3Bucket != "" && c.S3Key != "" && c.S3Secret != ""
}

// Validate prüft Abhängigkeiten zwischen Feldern, die envconfig nicht abbilden kann.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		var missing []string
		if c.DBHost == "" {
			missing = append(missing, "DB_HOST")
		}
		if c.DBUser == "" {
			missing = append(missing, "DB_USER")
		}
		if c.DBName == "" {
			missing = append(missing, "DB_NAME")
		}
		if len(missing) > 0 {
			return fmt.Errorf("DATABASE_URL not set and missing %s", strings.Join(missing, ", "))
		}
	}

	anyS3 := c.S3URL != "" || c.S3Bucket != "" || c.S3Key != "" || c.S3Secret != ""
	if anyS3 && !c.S3Enabled() {
		return errors.New("S3 export requires S3_URL, S3_BUCKET, S3_KEY and S3_SECRET")
	}
	if c.ArchiveCronSchedule != "" && !c.S3Enabled() {
		return errors.New("ARCHIVE_CRON_SCHEDULE requires S3 export to be configured")
	}
	return nil
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
