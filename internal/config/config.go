package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server     ServerConfig
	App        AppConfig
	Cache      CacheConfig
	Store      StoreConfig
	PaymentsDB PaymentsDBConfig
	Auction    AuctionConfig
	Settlement SettlementConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"terrabid-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	AdminKey    string `envconfig:"ADMIN_KEY" default:""` // key for admin endpoints (auction creation, wallet credit)
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Type string `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis

	// SnapshotTTL bounds per-entity snapshot keys; these are also explicitly
	// invalidated on every write. ListTTL bounds list/aggregate keys, which
	// are only TTL-expired.
	SnapshotTTL time.Duration `envconfig:"CACHE_SNAPSHOT_TTL" default:"5m"`
	ListTTL     time.Duration `envconfig:"CACHE_LIST_TTL" default:"30s"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// StoreConfig holds settings for the transactional store.
type StoreConfig struct {
	Type    string        `envconfig:"STORE_TYPE" default:"sqlite"` // sqlite or postgres
	Path    string        `envconfig:"STORE_PATH" default:"./data/terrabid.db"`
	Timeout time.Duration `envconfig:"STORE_TIMEOUT" default:"10s"`
	// PostgreSQL settings
	Host     string `envconfig:"STORE_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"STORE_DB_PORT" default:"5432"`
	Name     string `envconfig:"STORE_DB_NAME" default:"terrabid"`
	User     string `envconfig:"STORE_DB_USER" default:"postgres"`
	Password string `envconfig:"STORE_DB_PASS" default:""`
	SSLMode  string `envconfig:"STORE_DB_SSLMODE" default:"disable"`
}

// PaymentsDBConfig holds MySQL connection settings for the upstream payment
// processor's confirmation records (read-only, optional).
type PaymentsDBConfig struct {
	Enabled  bool   `envconfig:"PAYMENTS_DB_ENABLED" default:"false"`
	Host     string `envconfig:"PAYMENTS_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"PAYMENTS_DB_PORT" default:"3306"`
	Name     string `envconfig:"PAYMENTS_DB_NAME" default:"payments"`
	User     string `envconfig:"PAYMENTS_DB_USER" default:"root"`
	Password string `envconfig:"PAYMENTS_DB_PASS" default:""`
}

// AuctionConfig holds bidding and protection-window settings.
type AuctionConfig struct {
	// BidIncrement is the minimum amount a new bid must exceed the current bid by.
	BidIncrement int64 `envconfig:"BID_INCREMENT" default:"1"`

	// ProtectionTiers maps a price threshold to a protection duration, as
	// comma-separated "threshold=duration" pairs. The tier with the highest
	// threshold not exceeding the winning price applies.
	ProtectionTiers string `envconfig:"PROTECTION_TIERS" default:"0=168h,100=336h,400=720h"`
}

// SettlementConfig holds settings for the scheduled auction-close runs.
type SettlementConfig struct {
	CronKey    string        `envconfig:"SETTLEMENT_CRON_KEY" default:""`
	BatchLimit int           `envconfig:"SETTLEMENT_BATCH_LIMIT" default:"100"`
	RunTimeout time.Duration `envconfig:"SETTLEMENT_RUN_TIMEOUT" default:"60s"`
}

// ProtectionTier is one parsed entry of the protection step table.
type ProtectionTier struct {
	MinPrice int64
	Duration time.Duration
}

// ProtectionTable parses and validates the configured protection tiers.
// Tiers are returned sorted ascending by threshold. Durations must be
// non-decreasing in price so a higher winning amount never earns a shorter
// protection window.
func (a *AuctionConfig) ProtectionTable() ([]ProtectionTier, error) {
	parts := strings.Split(a.ProtectionTiers, ",")
	tiers := make([]ProtectionTier, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid protection tier %q: want threshold=duration", part)
		}
		min, err := strconv.ParseInt(strings.TrimSpace(kv[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid protection tier threshold %q: %w", kv[0], err)
		}
		dur, err := time.ParseDuration(strings.TrimSpace(kv[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid protection tier duration %q: %w", kv[1], err)
		}
		tiers = append(tiers, ProtectionTier{MinPrice: min, Duration: dur})
	}
	if len(tiers) == 0 {
		return nil, fmt.Errorf("protection tier table is empty")
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinPrice < tiers[j].MinPrice })
	if tiers[0].MinPrice != 0 {
		return nil, fmt.Errorf("protection tier table must include a 0-threshold baseline")
	}
	for i := 1; i < len(tiers); i++ {
		if tiers[i].Duration < tiers[i-1].Duration {
			return nil, fmt.Errorf("protection duration must be non-decreasing in price: tier %d=%v is below tier %d=%v",
				tiers[i].MinPrice, tiers[i].Duration, tiers[i-1].MinPrice, tiers[i-1].Duration)
		}
	}
	return tiers, nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (s *StoreConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		s.User, s.Password, s.Host, s.Port, s.Name, s.SSLMode)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// DSN returns the MySQL data source name for the payments database.
func (p *PaymentsDBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		p.User, p.Password, p.Host, p.Port, p.Name)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
