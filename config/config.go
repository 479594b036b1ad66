package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from
// environment variables or a .env file.
//
// Example ENV equivalent:
//
//	SERVER_PORT=8080
//	POSTGRES_HOST=localhost
//	POSTGRES_PORT=5432
//	POSTGRES_USER=admin
//	POSTGRES_PASSWORD=secret
//	POSTGRES_DB=carteira
//	POSTGRES_SSLMODE=disable
//	CDA_DIR=./data/cda
//	TRADES_DIR=./data/trades
//	FEES_MAX_DEPTH=1
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Data     DataConfig
	Fees     FeesConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string
}

// PostgresConfig defines connection details for PostgreSQL. URL is the
// computed DSN used by database/sql.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// DataConfig locates the input directories for the ingestion modes.
type DataConfig struct {
	CDADir    string // monthly cda_fi_YYYYMM.zip archives
	TradesDir string // DD-MM-YYYY_NEGOCIOS.csv exports
}

// FeesConfig tunes the fee waterfall.
type FeesConfig struct {
	MaxDepth int // effective-fee look-through depth (>= 1)
}

// AppConfig is the globally accessible configuration instance,
// populated once via LoadConfig().
var AppConfig Config

// LoadConfig initializes AppConfig from defaults, an optional .env
// file, and environment variables (in that precedence order, lowest
// to highest), then validates the required fields.
func LoadConfig() {
	viper.SetDefault("SERVER_PORT", "8080")

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "carteira")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	viper.SetDefault("CDA_DIR", "./data/cda")
	viper.SetDefault("TRADES_DIR", "./data/trades")
	viper.SetDefault("FEES_MAX_DEPTH", 1)

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		Data: DataConfig{
			CDADir:    viper.GetString("CDA_DIR"),
			TradesDir: viper.GetString("TRADES_DIR"),
		},
		Fees: FeesConfig{
			MaxDepth: viper.GetInt("FEES_MAX_DEPTH"),
		},
	}

	AppConfig.Postgres.URL = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		AppConfig.Postgres.User,
		AppConfig.Postgres.Password,
		AppConfig.Postgres.Host,
		AppConfig.Postgres.Port,
		AppConfig.Postgres.DBName,
		AppConfig.Postgres.SSLMode,
	)

	validateConfig()
}

// validateConfig ensures required variables are present and terminates
// the application if they are missing.
func validateConfig() {
	var missing []string

	if AppConfig.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if AppConfig.Postgres.Host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}
	if AppConfig.Postgres.Port == 0 {
		missing = append(missing, "POSTGRES_PORT")
	}
	if AppConfig.Postgres.User == "" {
		missing = append(missing, "POSTGRES_USER")
	}
	if AppConfig.Postgres.Password == "" {
		missing = append(missing, "POSTGRES_PASSWORD")
	}
	if AppConfig.Postgres.DBName == "" {
		missing = append(missing, "POSTGRES_DB")
	}
	if AppConfig.Fees.MaxDepth < 1 {
		missing = append(missing, "FEES_MAX_DEPTH")
	}

	if len(missing) > 0 {
		log.Fatalf("missing required environment variables: %v\n", missing)
	}
}
