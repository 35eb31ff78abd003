package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string   `mapstructure:"PORT"`
	Env               string   `mapstructure:"ENV"`
	DatabaseURL       string   `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32    `mapstructure:"DB_MIN_CONNS"`
	LocalFHIRBaseURL  string   `mapstructure:"LOCAL_FHIR_BASE_URL"`
	PublicFHIRBaseURL string   `mapstructure:"PUBLIC_FHIR_BASE_URL"`
	ArtifactDir       string   `mapstructure:"ARTIFACT_DIR"`
	SettingsFile      string   `mapstructure:"SETTINGS_FILE"`
	JWTSecret         string   `mapstructure:"JWT_SECRET"`
	StripeWebhookKey  string   `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	CORSOrigins       []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS      float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int      `mapstructure:"RATE_LIMIT_BURST"`
	FHIRTimeoutSec    int      `mapstructure:"FHIR_TIMEOUT_SEC"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("LOCAL_FHIR_BASE_URL", "http://localhost:8080/fhir")
	v.SetDefault("PUBLIC_FHIR_BASE_URL", "https://hapi.fhir.org/baseR4")
	v.SetDefault("ARTIFACT_DIR", "")
	v.SetDefault("SETTINGS_FILE", "bootcamp-settings.json")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("FHIR_TIMEOUT_SEC", 30)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("LOCAL_FHIR_BASE_URL")
	v.BindEnv("PUBLIC_FHIR_BASE_URL")
	v.BindEnv("ARTIFACT_DIR")
	v.BindEnv("SETTINGS_FILE")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("STRIPE_WEBHOOK_SECRET")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("FHIR_TIMEOUT_SEC")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active — all requests get admin access.")
		log.Println("WARNING: Set ENV=production and configure JWT_SECRET for production.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. In production the
// JWT secret must be set so admin routes are actually protected, and the
// webhook secret must be present so Stripe event signatures are checked.
func (c *Config) Validate() error {
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.IsProduction() && c.StripeWebhookKey == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required in production")
	}
	if c.FHIRTimeoutSec <= 0 {
		return fmt.Errorf("FHIR_TIMEOUT_SEC must be positive, got %d", c.FHIRTimeoutSec)
	}
	if c.LocalFHIRBaseURL == "" || c.PublicFHIRBaseURL == "" {
		return fmt.Errorf("both LOCAL_FHIR_BASE_URL and PUBLIC_FHIR_BASE_URL must be set")
	}
	return nil
}
