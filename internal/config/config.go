package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every runtime parameter, sourced from environment variables.
type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"localhost"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBName string `envconfig:"DB_NAME" default:"fakenews_db"`
	DBUser string `envconfig:"DB_USER" default:"fakenews_user"`
	DBPass string `envconfig:"DB_PASS" required:"true"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`

	HTTPPort string `envconfig:"PORT" default:"8080"`

	// JWTSecret signs bearer tokens. Tokens are valid for TokenTTL and
	// there is no refresh path; expiry means a fresh login.
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"168h"`

	BcryptCost int `envconfig:"BCRYPT_COST" default:"10"`

	// ArticleCacheTTL bounds staleness of the cached article list.
	ArticleCacheTTL time.Duration `envconfig:"ARTICLE_CACHE_TTL" default:"60s"`
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
