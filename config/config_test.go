package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_TestEnvironment(t *testing.T) {
	os.Setenv("GO_ENV", "test")
	defer os.Unsetenv("GO_ENV")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.True(t, cfg.IsTest())
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("GO_ENV", "test")
	defer os.Unsetenv("GO_ENV")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "usd", cfg.Currency)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, 5*time.Minute, cfg.UnreadReminderDelay)
	assert.Equal(t, 0.30, cfg.BaseRatePerWord)
	assert.Equal(t, 2.0, cfg.BroadcastMultiplier)
	assert.Equal(t, 50.0, cfg.RushFee)
	assert.Equal(t, 75.0, cfg.MinimumFee)
}

func TestLoad_PricingOverrides(t *testing.T) {
	os.Setenv("GO_ENV", "test")
	os.Setenv("VO_BASE_RATE_PER_WORD", "0.45")
	os.Setenv("VO_MINIMUM_FEE", "100")
	os.Setenv("UNREAD_REMINDER_DELAY", "10m")
	defer func() {
		os.Unsetenv("GO_ENV")
		os.Unsetenv("VO_BASE_RATE_PER_WORD")
		os.Unsetenv("VO_MINIMUM_FEE")
		os.Unsetenv("UNREAD_REMINDER_DELAY")
	}()

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 0.45, cfg.BaseRatePerWord)
	assert.Equal(t, 100.0, cfg.MinimumFee)
	assert.Equal(t, 10*time.Minute, cfg.UnreadReminderDelay)
}

func TestValidate(t *testing.T) {
	valid := &Config{
		GoEnv:           "test",
		BaseRatePerWord: 0.30,
		MinimumFee:      75,
	}
	assert.NoError(t, valid.Validate())

	missingDB := &Config{
		GoEnv:           "production",
		BaseRatePerWord: 0.30,
	}
	err := missingDB.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	badRate := &Config{
		GoEnv:           "test",
		BaseRatePerWord: 0,
	}
	assert.Error(t, badRate.Validate())

	negativeMinimum := &Config{
		GoEnv:           "test",
		BaseRatePerWord: 0.30,
		MinimumFee:      -1,
	}
	assert.Error(t, negativeMinimum.Validate())
}

func TestSetAndGetConfig(t *testing.T) {
	original := GetConfig()
	defer SetConfig(original)

	cfg := &Config{Port: "9999"}
	SetConfig(cfg)
	assert.Equal(t, cfg, GetConfig())
}

func TestSetAndGetDB(t *testing.T) {
	original := GetDB()
	defer SetDB(original)

	SetDB(nil)
	assert.Nil(t, GetDB())
}
