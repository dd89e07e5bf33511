package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"8181"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// OpenRouter (bzw. jede OpenAI-kompatible Chat-Completions-API)
	AIBaseURL     string  `envconfig:"AI_BASE_URL" default:"https://openrouter.ai/api/v1"`
	AIAPIKey      string  `envconfig:"AI_API_KEY"`
	AIModel       string  `envconfig:"AI_MODEL" default:"anthropic/claude-3.5-sonnet"`
	AIVisionModel string  `envconfig:"AI_VISION_MODEL" default:"anthropic/claude-3.5-sonnet"`
	AITemperature float64 `envconfig:"AI_TEMPERATURE" default:"0.2"`
	AIMaxTokens   int     `envconfig:"AI_MAX_TOKENS" default:"2048"`
	AppReferer    string  `envconfig:"APP_REFERER" default:"https://aletheon.app"`
	AppTitle      string  `envconfig:"APP_TITLE" default:"Aletheon"`

	// Katalog-Provider (Museums-APIs)
	HarvardArtBaseURL  string `envconfig:"HARVARDART_BASE_URL" default:"https://api.harvardartmuseums.org"`
	HarvardArtAPIKey   string `envconfig:"HARVARDART_API_KEY"`
	SmithsonianBaseURL string `envconfig:"SMITHSONIAN_BASE_URL" default:"https://api.si.edu/openaccess/api/v1.0"`
	SmithsonianAPIKey  string `envconfig:"SMITHSONIAN_API_KEY"`
	EnabledProviders   string `envconfig:"ENABLED_PROVIDERS" default:"harvardart"`

	// S3-kompatibler Objektspeicher für Artefakt-Bilder
	S3Key    string `envconfig:"S3_KEY" required:"true"`
	S3Secret string `envconfig:"S3_SECRET" required:"true"`
	S3URL    string `envconfig:"S3_URL" required:"true"`
	S3Region string `envconfig:"S3_REGION" required:"true"`
	S3Bucket string `envconfig:"S3_BUCKET" required:"true"`

	// Katalog-Cache
	CatalogCacheSize  int    `envconfig:"CATALOG_CACHE_SIZE" default:"512"`
	ReconcileSchedule string `envconfig:"RECONCILE_SCHEDULE" default:"*/15 * * * *"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
