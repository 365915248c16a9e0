package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"facilitydesk/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("FACILITYDESK_DB", filepath.Join(tmpDir, "bookings.db"))

	yamlContent := `
app:
  timezone: "Asia/Jakarta"
database:
  path: "${FACILITYDESK_DB}"
redis:
  state_ttl: 2h
booking:
  venues:
    - "Aula Lantai III"
    - "Ruang Sidang Lantai II"
  months_ahead: 6
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("expected sqlite driver when a path is set, got %s", cfg.Database.Driver)
	}
	if cfg.Database.Path != filepath.Join(tmpDir, "bookings.db") {
		t.Errorf("expected expanded database path, got %s", cfg.Database.Path)
	}
	if cfg.Redis.StateTTL != 2*time.Hour {
		t.Errorf("expected state ttl 2h, got %s", cfg.Redis.StateTTL)
	}
	if len(cfg.Booking.Venues) != 2 {
		t.Errorf("expected 2 venues, got %d", len(cfg.Booking.Venues))
	}
	if cfg.Booking.MonthsAhead != 6 {
		t.Errorf("expected months_ahead 6, got %d", cfg.Booking.MonthsAhead)
	}

	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc.String() != "Asia/Jakarta" {
		t.Errorf("expected Asia/Jakarta, got %s", loc)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid sqlite config",
			cfg: Config{
				Database: DatabaseConfig{Driver: DriverSQLite, Path: "path"},
				Booking:  BookingConfig{Venues: []string{"Aula"}},
			},
			wantErr: false,
		},
		{
			name: "memory driver needs no path",
			cfg: Config{
				Database: DatabaseConfig{Driver: DriverMemory},
			},
			wantErr: false,
		},
		{
			name: "sqlite without path",
			cfg: Config{
				Database: DatabaseConfig{Driver: DriverSQLite},
			},
			wantErr: true,
		},
		{
			name: "unknown driver",
			cfg: Config{
				Database: DatabaseConfig{Driver: "postgres", Path: "path"},
			},
			wantErr: true,
		},
		{
			name: "bad timezone",
			cfg: Config{
				App:      AppConfig{Timezone: "Mars/Olympus"},
				Database: DatabaseConfig{Driver: DriverMemory},
			},
			wantErr: true,
		},
		{
			name: "default hour out of range",
			cfg: Config{
				Database: DatabaseConfig{Driver: DriverMemory},
				Booking:  BookingConfig{DefaultHour: 24},
			},
			wantErr: true,
		},
		{
			name: "redis enabled without address",
			cfg: Config{
				Database: DatabaseConfig{Driver: DriverMemory},
				Redis:    RedisConfig{Enabled: true},
			},
			wantErr: true,
		},
		{
			name: "reminder hour out of range",
			cfg: Config{
				Database: DatabaseConfig{Driver: DriverMemory},
				Booking:  BookingConfig{Reminders: RemindersConfig{Enabled: true, Hour: 25}},
			},
			wantErr: true,
		},
		{
			name: "duplicate venue",
			cfg: Config{
				Database: DatabaseConfig{Driver: DriverMemory},
				Booking:  BookingConfig{Venues: []string{"Aula", " aula "}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Database.Driver != DriverMemory {
		t.Errorf("expected memory driver without a path, got %s", cfg.Database.Driver)
	}
	if cfg.API.GRPC.Port != 8081 {
		t.Errorf("expected default gRPC port 8081, got %d", cfg.API.GRPC.Port)
	}
	if cfg.Booking.VehicleOrigin != models.DefaultVehicleOrigin {
		t.Errorf("expected default vehicle origin %q, got %q", models.DefaultVehicleOrigin, cfg.Booking.VehicleOrigin)
	}
	if cfg.Booking.DefaultHour != models.DefaultBookingHour {
		t.Errorf("expected default hour %d, got %d", models.DefaultBookingHour, cfg.Booking.DefaultHour)
	}
	if len(cfg.Booking.Venues) != len(models.DefaultVenues) {
		t.Errorf("expected %d default venues, got %d", len(models.DefaultVenues), len(cfg.Booking.Venues))
	}
	if cfg.Redis.StateTTL != models.DefaultStateTTL {
		t.Errorf("expected default state ttl, got %s", cfg.Redis.StateTTL)
	}
}

func TestAPIClientKey_Can(t *testing.T) {
	key := APIClientKey{Permissions: []string{"read:bookings", " write:bookings "}}
	if !key.Can(PermWriteBookings) {
		t.Error("expected write permission")
	}
	if (APIClientKey{}).Can(PermWriteBookings) {
		t.Error("expected no permission on an empty key")
	}
}
