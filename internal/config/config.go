package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/device"
)

type Config struct {
	Database DatabaseConfig
	App      AppConfig
	Auth     AuthConfig
	ERPNext  ERPNextConfig
	Policy   PolicyConfig
	Sync     SyncConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

type AuthConfig struct {
	JWTSecret       string
	TokenExpiration string
}

// ERPNextConfig points at the downstream Shift Sync API.
type ERPNextConfig struct {
	URL       string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// PolicyConfig carries the attendance policy constants. They are plain
// deployment configuration; none of them is derived from the devices.
type PolicyConfig struct {
	// OvernightCutoffHour is exclusive: punches with wall-clock hour in
	// [0, cutoff) belong to the previous shift day.
	OvernightCutoffHour int
	ShiftStart          time.Time
	ShiftEnd            time.Time
	ClockSkewOffset     time.Duration
	PunchInCodes        []int
	PunchOutCodes       []int
	// DirectionStrategy selects the punch classifier: "positional" or "codes".
	DirectionStrategy string
	ChunkSize         int
}

type SyncConfig struct {
	Devices        []device.Device
	ShiftDeviceMap device.ShiftDeviceMap
	DumpDir        string
	CycleInterval  time.Duration
}

func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	config := &Config{}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "fingerprint_sync"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	config.Auth = AuthConfig{
		JWTSecret:       getEnv("JWT_SECRET_KEY", ""),
		TokenExpiration: getEnv("JWT_EXPIRATION_TIME", "24h"),
	}

	erpTimeout, err := time.ParseDuration(getEnv("ERPNEXT_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ERPNEXT_TIMEOUT: %w", err)
	}
	config.ERPNext = ERPNextConfig{
		URL:       strings.TrimRight(getEnv("ERPNEXT_URL", ""), "/"),
		APIKey:    getEnv("ERPNEXT_API_KEY", ""),
		APISecret: getEnv("ERPNEXT_API_SECRET", ""),
		Timeout:   erpTimeout,
	}

	policy, err := loadPolicy()
	if err != nil {
		return nil, err
	}
	config.Policy = policy

	syncCfg, err := loadSync()
	if err != nil {
		return nil, err
	}
	config.Sync = syncCfg

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadPolicy() (PolicyConfig, error) {
	cutoff, err := strconv.Atoi(getEnv("OVERNIGHT_CUTOFF_HOUR", "4"))
	if err != nil {
		return PolicyConfig{}, fmt.Errorf("invalid OVERNIGHT_CUTOFF_HOUR: %w", err)
	}

	shiftStart, err := time.Parse("15:04", getEnv("SHIFT_START", "08:30"))
	if err != nil {
		return PolicyConfig{}, fmt.Errorf("invalid SHIFT_START: %w", err)
	}
	shiftEnd, err := time.Parse("15:04", getEnv("SHIFT_END", "15:00"))
	if err != nil {
		return PolicyConfig{}, fmt.Errorf("invalid SHIFT_END: %w", err)
	}

	skew, err := time.ParseDuration(getEnv("CLOCK_SKEW_OFFSET", "3h"))
	if err != nil {
		return PolicyConfig{}, fmt.Errorf("invalid CLOCK_SKEW_OFFSET: %w", err)
	}

	inCodes, err := parseIntList(getEnv("PUNCH_IN_CODES", "0,4"))
	if err != nil {
		return PolicyConfig{}, fmt.Errorf("invalid PUNCH_IN_CODES: %w", err)
	}
	outCodes, err := parseIntList(getEnv("PUNCH_OUT_CODES", "1,5"))
	if err != nil {
		return PolicyConfig{}, fmt.Errorf("invalid PUNCH_OUT_CODES: %w", err)
	}

	chunkSize, err := strconv.Atoi(getEnv("RECONCILE_CHUNK_SIZE", "100"))
	if err != nil {
		return PolicyConfig{}, fmt.Errorf("invalid RECONCILE_CHUNK_SIZE: %w", err)
	}

	return PolicyConfig{
		OvernightCutoffHour: cutoff,
		ShiftStart:          shiftStart,
		ShiftEnd:            shiftEnd,
		ClockSkewOffset:     skew,
		PunchInCodes:        inCodes,
		PunchOutCodes:       outCodes,
		DirectionStrategy:   getEnv("PUNCH_DIRECTION_STRATEGY", "positional"),
		ChunkSize:           chunkSize,
	}, nil
}

func loadSync() (SyncConfig, error) {
	devices, err := parseDevices(getEnv("DEVICES", ""))
	if err != nil {
		return SyncConfig{}, err
	}

	mapping, err := parseShiftDeviceMap(getEnv("SHIFT_DEVICE_MAP", ""))
	if err != nil {
		return SyncConfig{}, err
	}

	interval, err := time.ParseDuration(getEnv("SYNC_CYCLE_INTERVAL", "5m"))
	if err != nil {
		return SyncConfig{}, fmt.Errorf("invalid SYNC_CYCLE_INTERVAL: %w", err)
	}

	return SyncConfig{
		Devices:        devices,
		ShiftDeviceMap: mapping,
		DumpDir:        getEnv("DUMP_DIR", "dumps"),
		CycleInterval:  interval,
	}, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.ERPNext.URL == "" {
		return fmt.Errorf("ERPNEXT_URL is required")
	}
	if c.ERPNext.APIKey == "" || c.ERPNext.APISecret == "" {
		return fmt.Errorf("ERPNEXT_API_KEY and ERPNEXT_API_SECRET are required")
	}
	if len(c.Sync.Devices) == 0 {
		return fmt.Errorf("DEVICES is required")
	}
	if len(c.Sync.ShiftDeviceMap) == 0 {
		return fmt.Errorf("SHIFT_DEVICE_MAP is required")
	}
	if c.Policy.OvernightCutoffHour < 0 || c.Policy.OvernightCutoffHour > 23 {
		return fmt.Errorf("OVERNIGHT_CUTOFF_HOUR must be between 0 and 23")
	}
	switch c.Policy.DirectionStrategy {
	case "positional", "codes":
	default:
		return fmt.Errorf("PUNCH_DIRECTION_STRATEGY must be 'positional' or 'codes'")
	}
	for shift, ids := range c.Sync.ShiftDeviceMap {
		if len(ids) == 0 {
			return fmt.Errorf("SHIFT_DEVICE_MAP: shift %q has no devices", shift)
		}
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// parseDevices parses "dev1@10.0.0.11,dev2@10.0.0.12" into device entries.
func parseDevices(value string) ([]device.Device, error) {
	if value == "" {
		return nil, nil
	}
	var devices []device.Device
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, ip, found := strings.Cut(entry, "@")
		if !found || id == "" || ip == "" {
			return nil, fmt.Errorf("invalid DEVICES entry %q, expected id@ip", entry)
		}
		devices = append(devices, device.Device{ID: strings.TrimSpace(id), IP: strings.TrimSpace(ip)})
	}
	return devices, nil
}

// parseShiftDeviceMap parses "Day Shift=dev1|dev2;Night Shift=dev3".
func parseShiftDeviceMap(value string) (device.ShiftDeviceMap, error) {
	if value == "" {
		return nil, nil
	}
	mapping := make(device.ShiftDeviceMap)
	for _, entry := range strings.Split(value, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		shift, devs, found := strings.Cut(entry, "=")
		if !found || shift == "" || devs == "" {
			return nil, fmt.Errorf("invalid SHIFT_DEVICE_MAP entry %q, expected shift=dev1|dev2", entry)
		}
		var ids []string
		for _, id := range strings.Split(devs, "|") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		mapping[strings.TrimSpace(shift)] = ids
	}
	return mapping, nil
}

func parseIntList(value string) ([]int, error) {
	var result []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
