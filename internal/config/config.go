package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the pinboard service.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Port: The port for the monitoring server.
// - Storage: Where the marker set is persisted.
// - Geocoder: Geocoding provider and result cache settings.
// - HistoryCapacity: How many undo snapshots are kept.
// - Reset: Clears the persisted marker set at startup.
// - ImportFile: A file imported once at startup, if set.
// - ExportDir: A directory the marker set is exported to on shutdown, if set.
type Config struct {
	Env             string
	Port            int
	Storage         StorageConfig
	Database        PostgresConfig
	Geocoder        GeocoderConfig
	HistoryCapacity int
	Reset           bool
	ImportFile      string
	ExportDir       string
}

// StorageConfig selects the durable slot backend.
type StorageConfig struct {
	Type       string // postgres, sqlite or memory
	SQLitePath string // Database file for the sqlite backend
	Slot       string // Name of the slot holding the markers
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// GeocoderConfig holds the geocoding provider and cache settings.
type GeocoderConfig struct {
	ProviderType string        // google, nominatim or visicom
	APIKey       string        // Required for Google and Visicom
	RateLimit    int           // Requests per second
	CacheTTL     time.Duration // Lifetime of a cached search result
	RedisAddr    string        // Shared cache; in-process cache when empty
	QueryPrefix  string        // Prefix for more accurate geocoding
}

const envPrefix = "PINBOARD"

// MustLoad reads the configuration from the environment (and .env), with an
// optional config file named by PINBOARD_CONFIG. It panics on invalid values.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			panic("failed to read configuration file")
		}
	}

	port, err := strconv.Atoi(v.GetString("port"))
	if err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	rateLimit, err := strconv.Atoi(v.GetString("geocoder.rate_limit"))
	if err != nil || rateLimit < 0 {
		panic("failed to parse geocoder rate limit from configuration, must be a non-negative integer")
	}

	cacheTTL, err := time.ParseDuration(v.GetString("geocoder.cache_ttl"))
	if err != nil || cacheTTL <= 0 {
		panic("failed to parse geocoder cache ttl from configuration")
	}

	capacity, err := strconv.Atoi(v.GetString("history_capacity"))
	if err != nil || capacity <= 0 {
		panic("failed to parse history capacity from configuration, must be a positive integer")
	}

	reset, err := strconv.ParseBool(v.GetString("reset"))
	if err != nil {
		panic("failed to parse reset flag from configuration, must be a boolean")
	}

	return &Config{
		Env:  v.GetString("env"),
		Port: port,
		Storage: StorageConfig{
			Type:       v.GetString("storage.type"),
			SQLitePath: v.GetString("storage.sqlite_path"),
			Slot:       v.GetString("storage.slot"),
		},
		Database: PostgresConfig{
			Host:     v.GetString("postgres.host"),
			Port:     v.GetString("postgres.port"),
			User:     v.GetString("postgres.user"),
			Password: v.GetString("postgres.password"),
			Name:     v.GetString("postgres.name"),
		},
		Geocoder: GeocoderConfig{
			ProviderType: v.GetString("geocoder.provider"),
			APIKey:       v.GetString("geocoder.api_key"),
			RateLimit:    rateLimit,
			CacheTTL:     cacheTTL,
			RedisAddr:    v.GetString("geocoder.redis_addr"),
			QueryPrefix:  v.GetString("geocoder.query_prefix"),
		},
		HistoryCapacity: capacity,
		Reset:           reset,
		ImportFile:      v.GetString("import_file"),
		ExportDir:       v.GetString("export_dir"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("config", "")
	v.SetDefault("env", "production")
	v.SetDefault("port", 8080)

	v.SetDefault("storage.type", "sqlite")
	v.SetDefault("storage.sqlite_path", "pinboard.db")
	v.SetDefault("storage.slot", "pinboard.markers")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.name", "pinboard")

	v.SetDefault("geocoder.provider", "nominatim")
	v.SetDefault("geocoder.api_key", "")
	v.SetDefault("geocoder.rate_limit", 5)
	v.SetDefault("geocoder.cache_ttl", "5m")
	v.SetDefault("geocoder.redis_addr", "")
	v.SetDefault("geocoder.query_prefix", "")

	v.SetDefault("history_capacity", 50)
	v.SetDefault("reset", false)
	v.SetDefault("import_file", "")
	v.SetDefault("export_dir", "")
}

// bindLegacyEnv keeps the unprefixed DB_* variables shared with other services working.
func bindLegacyEnv(v *viper.Viper) {
	legacy := map[string]string{
		"postgres.host":     "DB_HOST",
		"postgres.port":     "DB_PORT",
		"postgres.user":     "DB_USERNAME",
		"postgres.password": "DB_PASSWORD",
		"postgres.name":     "DB_NAME",
	}
	for key, env := range legacy {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, env)
	}
}
