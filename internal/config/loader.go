package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/example/campus-scheduler/internal/logging"
)

// Config captures environment driven configuration values for the scheduler service.
type Config struct {
	HTTPPort            int
	SQLiteDSN           string
	JWTSecret           string
	TokenTTL            time.Duration
	OTPTTL              time.Duration
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	Location            *time.Location
	DigestCron          string
	BootstrapAdminEmail string
	LogLevel            slog.Level
}

// UsesRedis reports whether one-time codes are kept in Redis rather than in memory.
func (c Config) UsesRedis() bool {
	return c.RedisAddr != ""
}

// LoadDotEnv loads variables from the given files into the environment without
// overriding values already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load parses configuration values from the current process environment.
//
// Optional values fall back to defaults; every missing or malformed variable is
// reported together.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:   8080,
		SQLiteDSN:  "campus-scheduler.db",
		TokenTTL:   7 * 24 * time.Hour,
		OTPTTL:     5 * time.Minute,
		Location:   time.UTC,
		DigestCron: "0 7 * * *",
		LogLevel:   slog.LevelInfo,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := env("HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, key("HTTP_PORT"))
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := env("SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := env("JWT_SECRET"); secret == "" {
		missing = append(missing, key("JWT_SECRET"))
	} else {
		cfg.JWTSecret = secret
	}

	parseDuration("TOKEN_TTL", &cfg.TokenTTL, &invalid)
	parseDuration("OTP_TTL", &cfg.OTPTTL, &invalid)

	cfg.RedisAddr = env("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv(key("REDIS_PASSWORD"))
	if dbValue := env("REDIS_DB"); dbValue != "" {
		db, err := strconv.Atoi(dbValue)
		if err != nil || db < 0 {
			invalid = append(invalid, key("REDIS_DB"))
		} else {
			cfg.RedisDB = db
		}
	}

	if tz := env("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			invalid = append(invalid, key("TIMEZONE"))
		} else {
			cfg.Location = loc
		}
	}

	if spec := env("DIGEST_CRON"); spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			invalid = append(invalid, key("DIGEST_CRON"))
		} else {
			cfg.DigestCron = spec
		}
	}

	cfg.BootstrapAdminEmail = strings.ToLower(env("BOOTSTRAP_ADMIN_EMAIL"))

	if levelValue := env("LOG_LEVEL"); levelValue != "" {
		level, err := logging.ParseLevel(levelValue)
		if err != nil {
			invalid = append(invalid, key("LOG_LEVEL"))
		} else {
			cfg.LogLevel = level
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

const prefix = "SCHEDULER_"

func key(name string) string {
	return prefix + name
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(key(name)))
}

func parseDuration(name string, target *time.Duration, invalid *[]string) {
	value := env(name)
	if value == "" {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		*invalid = append(*invalid, key(name))
		return
	}
	*target = d
}
