package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"facilitydesk/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"

	// PermWriteBookings lets an API client create and manage bookings.
	PermWriteBookings = "write:bookings"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Booking    BookingConfig    `yaml:"booking"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	// Timezone is the IANA zone every calendar day is computed in.
	Timezone string `yaml:"timezone"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"pool_size"`
	StateTTL time.Duration `yaml:"state_ttl"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled    bool         `yaml:"enabled"`
	Port       int          `yaml:"port"`
	Reflection bool         `yaml:"reflection"`
	TLS        APITLSConfig `yaml:"tls"`
}

type APITLSConfig struct {
	Enabled           bool   `yaml:"enabled"`
	CertFile          string `yaml:"cert_file"`
	KeyFile           string `yaml:"key_file"`
	ClientCAFile      string `yaml:"client_ca_file"`
	RequireClientCert bool   `yaml:"require_client_cert"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

// Can reports whether the client holds perm.
func (k APIClientKey) Can(perm string) bool {
	for _, p := range k.Permissions {
		if strings.TrimSpace(p) == perm {
			return true
		}
	}
	return false
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type BookingConfig struct {
	Venues        []string `yaml:"venues"`
	VehicleOrigin string   `yaml:"vehicle_origin"`
	DefaultHour   int      `yaml:"default_hour"`
	MonthsAhead   int      `yaml:"months_ahead"`
	// MaxBookingDays caps how far ahead a booking may be scheduled.
	MaxBookingDays int             `yaml:"max_booking_days"`
	Reminders      RemindersConfig `yaml:"reminders"`
}

type RemindersConfig struct {
	Enabled bool `yaml:"enabled"`
	// Hour is the local hour of the daily reminder run.
	Hour       int `yaml:"hour"`
	MaxRetries int `yaml:"max_retries"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if c.Booking.DefaultHour < 0 || c.Booking.DefaultHour > 23 {
		return fmt.Errorf("booking default_hour %d is out of range", c.Booking.DefaultHour)
	}

	if c.Booking.Reminders.Hour < 0 || c.Booking.Reminders.Hour > 23 {
		return fmt.Errorf("booking reminders hour %d is out of range", c.Booking.Reminders.Hour)
	}

	if c.Redis.Enabled && c.Redis.Address == "" {
		return errors.New("redis address is required when redis is enabled")
	}

	return ValidateVenues(c.Booking.Venues)
}

// ValidateVenues rejects blank and duplicate venue names.
func ValidateVenues(venues []string) error {
	seen := make(map[string]bool, len(venues))
	for i, v := range venues {
		name := strings.ToLower(strings.TrimSpace(v))
		if name == "" {
			return fmt.Errorf("venue #%d has an empty name", i+1)
		}
		if seen[name] {
			return fmt.Errorf("duplicate venue found: %s", v)
		}
		seen[name] = true
	}
	return nil
}

// Location resolves app.timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.App.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "facilitydesk"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
		if c.Database.Path == "" {
			c.Database.Driver = DriverMemory
		}
	}
	if c.Redis.StateTTL == 0 {
		c.Redis.StateTTL = models.DefaultStateTTL
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}

	if len(c.Booking.Venues) == 0 {
		c.Booking.Venues = append([]string(nil), models.DefaultVenues...)
	}
	if c.Booking.VehicleOrigin == "" {
		c.Booking.VehicleOrigin = models.DefaultVehicleOrigin
	}
	if c.Booking.DefaultHour == 0 {
		c.Booking.DefaultHour = models.DefaultBookingHour
	}
	if c.Booking.MonthsAhead == 0 {
		c.Booking.MonthsAhead = models.DefaultMonthsAhead
	}
	if c.Booking.MaxBookingDays == 0 {
		c.Booking.MaxBookingDays = models.DefaultMaxBookingDays
	}
}
