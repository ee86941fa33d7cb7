// Package config loads application configuration from the environment.
// An optional .env file is read first; viper then resolves every key from
// the process environment, falling back to the defaults registered below.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable of the same upper-case name.
type Config struct {
	Env          string // application environment (dev, test, prod)
	Port         string // HTTP port to listen on
	DBUser       string
	DBPass       string // may be empty
	DBHost       string
	DBPort       string
	DBName       string
	JWTSecret    string // secret used to sign access tokens
	AccessTTLMin int    // access token lifetime in minutes
	BcryptCost   int
	// MigrateOnStart applies the embedded goose migrations before serving.
	MigrateOnStart bool
	// PublicURL is the base URL of the booking frontend; verification links
	// are built from it.
	PublicURL   string
	CORSOrigins []string
	// AdminUsername and AdminPassword create the first admin account at
	// startup when no account of that name exists.
	AdminUsername string
	AdminPassword string

	RateLimit RateLimitConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Mail      MailConfig
	Events    EventsConfig
}

var requiredKeys = []string{"DB_USER", "DB_HOST", "DB_NAME", "JWT_SECRET"}

// Load reads configuration values and returns a Config. Missing required
// values are reported together in a single error.
func Load() (Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	var missing []string
	for _, k := range requiredKeys {
		if strings.TrimSpace(v.GetString(k)) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}

	cfg := Config{
		Env:            v.GetString("APP_ENV"),
		Port:           v.GetString("APP_PORT"),
		DBUser:         v.GetString("DB_USER"),
		DBPass:         v.GetString("DB_PASS"),
		DBHost:         v.GetString("DB_HOST"),
		DBPort:         v.GetString("DB_PORT"),
		DBName:         v.GetString("DB_NAME"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		AccessTTLMin:   v.GetInt("ACCESS_TOKEN_TTL_MIN"),
		BcryptCost:     v.GetInt("BCRYPT_COST"),
		MigrateOnStart: v.GetBool("MIGRATE_ON_START"),
		PublicURL:      strings.TrimRight(v.GetString("PUBLIC_URL"), "/"),
		CORSOrigins:    splitList(v.GetString("CORS_ORIGINS")),
		AdminUsername:  strings.TrimSpace(v.GetString("ADMIN_USERNAME")),
		AdminPassword:  v.GetString("ADMIN_PASSWORD"),
		RateLimit:      loadRateLimitConfig(v),
		Cache:          loadCacheConfig(v),
		Redis:          loadRedisConfig(v),
		Mail:           loadMailConfig(v),
		Events:         loadEventsConfig(v),
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("ACCESS_TOKEN_TTL_MIN", 480)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("MIGRATE_ON_START", true)
	v.SetDefault("PUBLIC_URL", "http://localhost:5173")
	v.SetDefault("CORS_ORIGINS", "*")
	setRateLimitDefaults(v)
	setCacheDefaults(v)
	setRedisDefaults(v)
	setMailDefaults(v)
	setEventsDefaults(v)
}

func (c Config) validate() error {
	if c.AccessTTLMin <= 0 {
		return errors.New("ACCESS_TOKEN_TTL_MIN must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST out of range: %d", c.BcryptCost)
	}
	if c.AdminUsername != "" && len(c.AdminPassword) < 8 {
		return errors.New("ADMIN_PASSWORD must have at least 8 characters when ADMIN_USERNAME is set")
	}
	return c.Mail.validate()
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
