package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/corp_site/pkg/hash"
)

var ErrConfiguration = errors.New("configuration error")

type Config struct {
	ServiceName string
	AuthAddr    string
	LogLevel    string

	DatabaseURL string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte
	TokenIssuer      string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	CookieSecure     bool

	SeedAdminUsername string
	SeedAdminEmail    string
	SeedAdminPassword string

	KafkaBrokers []string
	KafkaTopic   string

	RedisAddr        string
	RedisPassword    string
	LoginMaxAttempts int
	LoginWindow      time.Duration

	// invalid lists variables that were set but could not be parsed.
	invalid []string
}

// Load reads the process environment, after merging an optional .env file.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v. Using system environment variables", err)
	}

	access := []byte(os.Getenv("JWT_SECRET"))
	refresh := []byte(os.Getenv("JWT_REFRESH_SECRET"))
	if len(refresh) == 0 {
		refresh = access
	}

	var e envReader
	cfg := Config{
		ServiceName: EnvDefault("SERVICE_NAME", "auth"),
		AuthAddr:    EnvDefault("AUTH_ADDR", ":8081"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret:  access,
		JWTRefreshSecret: refresh,
		TokenIssuer:      EnvDefault("TOKEN_ISSUER", "corp_site"),
		AccessTTL:        e.durationOr("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTTL:       e.durationOr("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		CookieSecure:     e.boolOr("COOKIE_SECURE", true),

		SeedAdminUsername: EnvDefault("SEED_ADMIN_USERNAME", "admin"),
		SeedAdminEmail:    EnvDefault("SEED_ADMIN_EMAIL", "admin@localhost"),
		SeedAdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   EnvDefault("KAFKA_TOPIC", "user_events"),

		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		LoginMaxAttempts: e.intOr("LOGIN_MAX_ATTEMPTS", 10),
		LoginWindow:      e.durationOr("LOGIN_WINDOW", 15*time.Minute),
	}
	cfg.invalid = e.bad
	return cfg
}

// Validate reports settings the service cannot start without.
func (c Config) Validate() error {
	if len(c.invalid) > 0 {
		return fmt.Errorf("%w: cannot parse %s", ErrConfiguration, strings.Join(c.invalid, ", "))
	}
	if len(c.JWTAccessSecret) == 0 {
		return fmt.Errorf("%w: JWT_SECRET is required", ErrConfiguration)
	}
	if c.AccessTTL <= 0 {
		return fmt.Errorf("%w: ACCESS_TOKEN_TTL must be positive", ErrConfiguration)
	}
	if c.RefreshTTL <= 0 {
		return fmt.Errorf("%w: REFRESH_TOKEN_TTL must be positive", ErrConfiguration)
	}
	if c.RefreshTTL < c.AccessTTL {
		return fmt.Errorf("%w: REFRESH_TOKEN_TTL is shorter than ACCESS_TOKEN_TTL", ErrConfiguration)
	}
	if c.LoginMaxAttempts < 0 {
		return fmt.Errorf("%w: LOGIN_MAX_ATTEMPTS must not be negative", ErrConfiguration)
	}
	if len(c.SeedAdminPassword) > hash.MaxPasswordBytes {
		return fmt.Errorf("%w: SEED_ADMIN_PASSWORD is longer than %d bytes", ErrConfiguration, hash.MaxPasswordBytes)
	}
	return nil
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envReader parses typed variables, remembering the ones that are set
// but malformed so Validate can refuse them.
type envReader struct {
	bad []string
}

func (e *envReader) intOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.bad = append(e.bad, key)
		return def
	}
	return n
}

func (e *envReader) boolOr(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.bad = append(e.bad, key)
		return def
	}
	return b
}

func (e *envReader) durationOr(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.bad = append(e.bad, key)
		return def
	}
	return d
}
