package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/device"
)

func TestParseDevices(t *testing.T) {
	t.Parallel()

	devices, err := parseDevices("dev1@10.0.0.11, dev2@10.0.0.12")

	require.NoError(t, err)
	assert.Equal(t, []device.Device{
		{ID: "dev1", IP: "10.0.0.11"},
		{ID: "dev2", IP: "10.0.0.12"},
	}, devices)
}

func TestParseDevices_Invalid(t *testing.T) {
	t.Parallel()

	_, err := parseDevices("dev1")
	assert.Error(t, err)

	_, err = parseDevices("@10.0.0.11")
	assert.Error(t, err)
}

func TestParseShiftDeviceMap(t *testing.T) {
	t.Parallel()

	mapping, err := parseShiftDeviceMap("Day Shift=dev1|dev2;Night Shift=dev3")

	require.NoError(t, err)
	assert.Equal(t, device.ShiftDeviceMap{
		"Day Shift":   {"dev1", "dev2"},
		"Night Shift": {"dev3"},
	}, mapping)
}

func TestParseShiftDeviceMap_Invalid(t *testing.T) {
	t.Parallel()

	_, err := parseShiftDeviceMap("Day Shift")
	assert.Error(t, err)
}

func TestParseIntList(t *testing.T) {
	t.Parallel()

	codes, err := parseIntList("0, 4")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 4}, codes)

	_, err = parseIntList("0,x")
	assert.Error(t, err)
}

func TestLoad_PolicyDefaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("JWT_SECRET_KEY", "jwt-secret")
	t.Setenv("ERPNEXT_URL", "https://erp.example.com/")
	t.Setenv("ERPNEXT_API_KEY", "key")
	t.Setenv("ERPNEXT_API_SECRET", "secret")
	t.Setenv("DEVICES", "dev1@10.0.0.11")
	t.Setenv("SHIFT_DEVICE_MAP", "Day Shift=dev1")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Policy.OvernightCutoffHour)
	assert.Equal(t, []int{0, 4}, cfg.Policy.PunchInCodes)
	assert.Equal(t, []int{1, 5}, cfg.Policy.PunchOutCodes)
	assert.Equal(t, "positional", cfg.Policy.DirectionStrategy)
	assert.Equal(t, 100, cfg.Policy.ChunkSize)
	assert.Equal(t, 8, cfg.Policy.ShiftStart.Hour())
	assert.Equal(t, 30, cfg.Policy.ShiftStart.Minute())
	assert.Equal(t, "https://erp.example.com", cfg.ERPNext.URL)
}

func TestLoad_RejectsBadDirectionStrategy(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("JWT_SECRET_KEY", "jwt-secret")
	t.Setenv("ERPNEXT_URL", "https://erp.example.com")
	t.Setenv("ERPNEXT_API_KEY", "key")
	t.Setenv("ERPNEXT_API_SECRET", "secret")
	t.Setenv("DEVICES", "dev1@10.0.0.11")
	t.Setenv("SHIFT_DEVICE_MAP", "Day Shift=dev1")
	t.Setenv("PUNCH_DIRECTION_STRATEGY", "magic")

	_, err := Load()
	assert.Error(t, err)
}
