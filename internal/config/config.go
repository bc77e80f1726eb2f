package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/docflow/review-service/internal/storage"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Postgres  PostgresConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Archive   ArchiveConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

type StoreConfig struct {
	Backend         string
	ConnectAttempts uint64
}

type PostgresConfig struct {
	DSN      string
	MaxConns int32
	Timeout  time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// StatsTTL bounds how long cached approval stats are served.
	StatsTTL time.Duration
}

// Enabled reports whether a Redis host was configured.
func (r RedisConfig) Enabled() bool { return r.Host != "" }

func (r RedisConfig) Addr() string { return net.JoinHostPort(r.Host, r.Port) }

type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	AccessTokenTTL time.Duration
	Keycloak       KeycloakConfig
	// InsecureTokens accepts unsigned tokens. Local runs only.
	InsecureTokens bool
}

type KeycloakConfig struct {
	URL      string
	Realm    string
	ClientID string
}

// IssuerURL is the realm's OIDC issuer, empty when Keycloak is not configured.
func (k KeycloakConfig) IssuerURL() string {
	if k.URL == "" || k.Realm == "" {
		return ""
	}
	return strings.TrimRight(k.URL, "/") + "/realms/" + k.Realm
}

type RateLimitConfig struct {
	Enabled bool
	// Backend is "memory" or "redis".
	Backend string
	RPS     float64
	Burst   int
	Window  time.Duration
}

type ArchiveConfig struct {
	Enabled bool
	MinIO   storage.MinIOConfig
	Prefix  string
}

type LogConfig struct {
	Level string
}

// LoadConfig loads configuration from environment variables and an optional
// .env file. envFiles override the default ".env".
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 10)
	v.SetDefault("STORE_BACKEND", BackendMemory)
	v.SetDefault("STORE_CONNECT_ATTEMPTS", 5)
	v.SetDefault("POSTGRES_MAX_CONNS", 10)
	v.SetDefault("POSTGRES_TIMEOUT", 10)
	v.SetDefault("MONGODB_DATABASE", "review")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("STATS_CACHE_TTL", 60)
	v.SetDefault("JWT_ISSUER", "review-service")
	v.SetDefault("JWT_ACCESS_TOKEN_TTL", 15)
	v.SetDefault("AUTH_INSECURE_TOKENS", false)
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_BACKEND", "memory")
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW", 1)
	v.SetDefault("ARCHIVE_ENABLED", false)
	v.SetDefault("MINIO_BUCKET", "approved-documents")
	v.SetDefault("ARCHIVE_PREFIX", "approved/")
	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("SERVER_PORT"),
			Host:            v.GetString("SERVER_HOST"),
			Environment:     v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:     time.Duration(v.GetInt("SERVER_READ_TIMEOUT")) * time.Second,
			WriteTimeout:    time.Duration(v.GetInt("SERVER_WRITE_TIMEOUT")) * time.Second,
			ShutdownTimeout: time.Duration(v.GetInt("SERVER_SHUTDOWN_TIMEOUT")) * time.Second,
		},
		Store: StoreConfig{
			Backend:         strings.ToLower(v.GetString("STORE_BACKEND")),
			ConnectAttempts: v.GetUint64("STORE_CONNECT_ATTEMPTS"),
		},
		Postgres: PostgresConfig{
			DSN:      v.GetString("POSTGRES_DSN"),
			MaxConns: v.GetInt32("POSTGRES_MAX_CONNS"),
			Timeout:  time.Duration(v.GetInt("POSTGRES_TIMEOUT")) * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			StatsTTL: time.Duration(v.GetInt("STATS_CACHE_TTL")) * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret:      v.GetString("JWT_SECRET"),
			JWTIssuer:      v.GetString("JWT_ISSUER"),
			AccessTokenTTL: time.Duration(v.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
			Keycloak: KeycloakConfig{
				URL:      v.GetString("KEYCLOAK_URL"),
				Realm:    v.GetString("KEYCLOAK_REALM"),
				ClientID: v.GetString("KEYCLOAK_CLIENT_ID"),
			},
			InsecureTokens: v.GetBool("AUTH_INSECURE_TOKENS"),
		},
		RateLimit: RateLimitConfig{
			Enabled: v.GetBool("RATE_LIMIT_ENABLED"),
			Backend: strings.ToLower(v.GetString("RATE_LIMIT_BACKEND")),
			RPS:     v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:   v.GetInt("RATE_LIMIT_BURST"),
			Window:  time.Duration(v.GetInt("RATE_LIMIT_WINDOW")) * time.Second,
		},
		Archive: ArchiveConfig{
			Enabled: v.GetBool("ARCHIVE_ENABLED"),
			MinIO: storage.MinIOConfig{
				Endpoint:  v.GetString("MINIO_ENDPOINT"),
				AccessKey: v.GetString("MINIO_ACCESS_KEY"),
				SecretKey: v.GetString("MINIO_SECRET_KEY"),
				UseSSL:    v.GetBool("MINIO_USE_SSL"),
				Bucket:    v.GetString("MINIO_BUCKET"),
			},
			Prefix: v.GetString("ARCHIVE_PREFIX"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var problems []string
	switch c.Store.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			problems = append(problems, "POSTGRES_DSN is required for the postgres backend")
		}
	case BackendMongo:
		if c.MongoDB.URI == "" {
			problems = append(problems, "MONGODB_URI is required for the mongo backend")
		}
		if c.MongoDB.Database == "" {
			problems = append(problems, "MONGODB_DATABASE is required for the mongo backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown STORE_BACKEND %q", c.Store.Backend))
	}
	if c.Store.ConnectAttempts == 0 {
		problems = append(problems, "STORE_CONNECT_ATTEMPTS must be at least 1")
	}
	if c.Auth.JWTSecret == "" && c.Auth.Keycloak.IssuerURL() == "" && !c.Auth.InsecureTokens {
		problems = append(problems, "no token verifier: set JWT_SECRET, KEYCLOAK_URL+KEYCLOAK_REALM or AUTH_INSECURE_TOKENS")
	}
	if c.Auth.Keycloak.IssuerURL() != "" && c.Auth.Keycloak.ClientID == "" {
		problems = append(problems, "KEYCLOAK_CLIENT_ID is required with KEYCLOAK_URL")
	}
	if c.RateLimit.Enabled {
		switch c.RateLimit.Backend {
		case "memory":
		case "redis":
			if !c.Redis.Enabled() {
				problems = append(problems, "REDIS_HOST is required for the redis rate limiter")
			}
		default:
			problems = append(problems, fmt.Sprintf("unknown RATE_LIMIT_BACKEND %q", c.RateLimit.Backend))
		}
		if c.RateLimit.RPS <= 0 {
			problems = append(problems, "RATE_LIMIT_RPS must be positive")
		}
	}
	if c.Archive.Enabled && c.Archive.MinIO.Endpoint == "" {
		problems = append(problems, "MINIO_ENDPOINT is required when ARCHIVE_ENABLED")
	}
	if len(problems) > 0 {
		return errors.Newf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
