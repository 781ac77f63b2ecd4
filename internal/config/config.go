package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseDriver string        `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string        `env:"DATABASE_URL,required"`
	JWTSecret      string        `env:"JWT_SECRET,required"`
	JWTExpiry      time.Duration `env:"JWT_EXPIRY" envDefault:"1h"`
	Port           int           `env:"PORT" envDefault:"8443"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv         string        `env:"APP_ENV" envDefault:"production"`
	ClientOrigin   string        `env:"CLIENT_ORIGIN" envDefault:"https://localhost:5173"`
	TLSCertFile    string        `env:"TLS_CERT_FILE"`
	TLSKeyFile     string        `env:"TLS_KEY_FILE"`

	RedisURL            string        `env:"REDIS_URL"`
	RateLimitMax        int           `env:"RATE_LIMIT_MAX" envDefault:"200"`
	RateLimitWindow     time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`
	AuthRateLimitMax    int           `env:"AUTH_RATE_LIMIT_MAX" envDefault:"5"`
	AuthRateLimitWindow time.Duration `env:"AUTH_RATE_LIMIT_WINDOW" envDefault:"1m"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: dotenv: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite3" {
		return nil, fmt.Errorf("config.Load: unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, fmt.Errorf("config.Load: TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}

	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) TLSEnabled() bool {
	return c.TLSCertFile != ""
}
