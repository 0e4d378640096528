package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "GO_ENV", "LOG_LEVEL", "ALLOWED_ORIGINS",
		"ROOM_CODE_LENGTH", "ROOM_CODE_MAX_ATTEMPTS", "CONNECTION_SEND_BUFFER",
		"DEFAULT_BAN_MINUTES", "DEFAULT_MUTE_MINUTES",
		"RATE_LIMIT_CREATE_CODE", "RATE_LIMIT_WS_UPGRADE",
	}
	for _, k := range keys {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func TestValidateEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := ValidateEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "production", cfg.GoEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 6, cfg.RoomCodeLength)
	assert.Equal(t, 100, cfg.RoomCodeMaxAttempts)
	assert.Equal(t, 256, cfg.ConnectionSendBuf)
	assert.Equal(t, 5, cfg.DefaultBanMinutes)
	assert.Equal(t, 5, cfg.DefaultMuteMinutes)
}

func TestValidateEnv_InvalidPort(t *testing.T) {
	clearEnv(t)
	os.Setenv("PORT", "not-a-port")

	_, err := ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
}

func TestValidateEnv_PortOutOfRange(t *testing.T) {
	clearEnv(t)
	os.Setenv("PORT", "99999")

	_, err := ValidateEnv()
	require.Error(t, err)
}

func TestValidateEnv_OverridesApplied(t *testing.T) {
	clearEnv(t)
	os.Setenv("PORT", "9090")
	os.Setenv("GO_ENV", "development")
	os.Setenv("ROOM_CODE_LENGTH", "8")
	os.Setenv("DEFAULT_BAN_MINUTES", "10")

	cfg, err := ValidateEnv()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "development", cfg.GoEnv)
	assert.Equal(t, 8, cfg.RoomCodeLength)
	assert.Equal(t, 10, cfg.DefaultBanMinutes)
}

func TestValidateEnv_InvalidRoomCodeLength(t *testing.T) {
	clearEnv(t)
	os.Setenv("ROOM_CODE_LENGTH", "0")

	_, err := ValidateEnv()
	require.Error(t, err)
}

func TestAllowedOriginsList_DefaultsWhenUnset(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOriginsList())
}

func TestAllowedOriginsList_SplitsCommaSeparatedValue(t *testing.T) {
	cfg := &Config{AllowedOrigins: "http://localhost:3000,https://example.com"}
	assert.Equal(t, []string{"http://localhost:3000", "https://example.com"}, cfg.AllowedOriginsList())
}
