package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timeouts, intervals, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server      ServerConfig
	DB          DBConfig
	Redis       RedisConfig
	CORS        CORSConfig
	Log         LogConfig
	JWT         JWTConfig
	Idempotency IdempotencyConfig
	Broadcast   BroadcastConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"UTC"`
}

// Addr empty means the in-process bus only (single-instance deployment).
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:""`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	Prefix   string `envconfig:"REDIS_CHANNEL_PREFIX" default:"slotstream"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization,Idempotency-Key"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
}

type JWTConfig struct {
	Secret string `envconfig:"JWT_SECRET" required:"true"`
}

type IdempotencyConfig struct {
	DefaultTTL       time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
	AwaitTimeout     time.Duration `envconfig:"IDEMPOTENCY_AWAIT_TIMEOUT" default:"30s"`
	MaxRetries       int32         `envconfig:"IDEMPOTENCY_MAX_RETRIES" default:"3"`
	MaxSnapshotBytes int           `envconfig:"IDEMPOTENCY_MAX_SNAPSHOT_BYTES" default:"65536"`
	SweepInterval    time.Duration `envconfig:"IDEMPOTENCY_SWEEP_INTERVAL" default:"10m"`
}

type BroadcastConfig struct {
	ReconcileInterval time.Duration `envconfig:"BROADCAST_RECONCILE_INTERVAL" default:"5s"`
	HeartbeatInterval time.Duration `envconfig:"BROADCAST_HEARTBEAT_INTERVAL" default:"30s"`
	TenantScanRate    float64       `envconfig:"BROADCAST_TENANT_SCAN_RATE" default:"2"`
	TenantScanBurst   int           `envconfig:"BROADCAST_TENANT_SCAN_BURST" default:"4"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
		},
		Log: LogConfig{
			Level:      "error", // Error level only for tests
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		JWT: JWTConfig{
			Secret: "test-secret",
		},
		Idempotency: IdempotencyConfig{
			DefaultTTL:       24 * time.Hour,
			AwaitTimeout:     5 * time.Second,
			MaxRetries:       3,
			MaxSnapshotBytes: 65536,
			SweepInterval:    time.Minute,
		},
		Broadcast: BroadcastConfig{
			ReconcileInterval: time.Second,
			HeartbeatInterval: 5 * time.Second,
			TenantScanRate:    100,
			TenantScanBurst:   100,
		},
	}
}
