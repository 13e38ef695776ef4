package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	URL             string
	Host            string
	User            string
	Password        string
	Name            string
	Port            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	// JWTSecret verifies HS256 tokens. JWTPublicKey (PEM) verifies RS256
	// tokens from an external identity provider and takes precedence.
	JWTSecret    string
	JWTPublicKey string
	JWTIssuer    string
	JWTAudience  string
}

type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadFolder string
}

type SeedConfig struct {
	AdminCognitoID string
	AdminEmail     string
}

type Config struct {
	AppEnv          string
	Port            string
	APIPrefix       string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration

	Database   DatabaseConfig
	RedisURL   string
	Auth       AuthConfig
	Cloudinary CloudinaryConfig
	Seed       SeedConfig

	RoleRequestCooldown time.Duration
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// DSN prefers DATABASE_URL and falls back to the discrete DB_* settings.
func (c *Config) DSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Database.Host, c.Database.User, c.Database.Password, c.Database.Name, c.Database.Port,
	)
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		AppEnv:         v.GetString("APP_ENV"),
		Port:           v.GetString("PORT"),
		APIPrefix:      normalizePrefix(v.GetString("API_PREFIX")),
		AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),

		Database: DatabaseConfig{
			URL:          v.GetString("DATABASE_URL"),
			Host:         v.GetString("DB_HOST"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASS"),
			Name:         v.GetString("DB_NAME"),
			Port:         v.GetString("DB_PORT"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		RedisURL: v.GetString("REDIS_URL"),

		Auth: AuthConfig{
			JWTSecret:    v.GetString("JWT_SECRET"),
			JWTPublicKey: v.GetString("JWT_PUBLIC_KEY"),
			JWTIssuer:    v.GetString("JWT_ISSUER"),
			JWTAudience:  v.GetString("JWT_AUDIENCE"),
		},

		Cloudinary: CloudinaryConfig{
			CloudName:    v.GetString("CLOUDINARY_CLOUD_NAME"),
			APIKey:       v.GetString("CLOUDINARY_API_KEY"),
			APISecret:    v.GetString("CLOUDINARY_API_SECRET"),
			UploadFolder: v.GetString("CLOUDINARY_UPLOAD_FOLDER"),
		},

		Seed: SeedConfig{
			AdminCognitoID: v.GetString("SEED_ADMIN_COGNITO_ID"),
			AdminEmail:     v.GetString("SEED_ADMIN_EMAIL"),
		},
	}

	// Parsing durations
	var err error
	cfg.Database.ConnMaxLifetime, err = time.ParseDuration(v.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}
	cfg.ShutdownTimeout, err = time.ParseDuration(v.GetString("SHUTDOWN_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}
	cfg.RoleRequestCooldown, err = time.ParseDuration(v.GetString("ROLE_REQUEST_COOLDOWN"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROLE_REQUEST_COOLDOWN: %w", err)
	}

	if cfg.Auth.JWTSecret == "" && cfg.Auth.JWTPublicKey == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET or JWT_PUBLIC_KEY must be set in production")
		}
		cfg.Auth.JWTSecret = "change-me"
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "5000")
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "authorhub")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_MAX_OPEN_CONNS", 30)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")

	v.SetDefault("CLOUDINARY_UPLOAD_FOLDER", "authorhub")
	v.SetDefault("ROLE_REQUEST_COOLDOWN", "30s")
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
