package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/devananda/smartbank/internal/engine"
)

func TestEngineConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	assert.Equal(t, engine.DefaultConfig(), EngineConfig())
}

func TestEngineConfigOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("engine.lock_wait", "500ms")
	viper.Set("engine.account_number_attempts", 25)
	viper.Set("engine.account_number_prefix", "XX")
	viper.Set("engine.goal_policy", "latest-created")

	cfg := EngineConfig()
	assert.Equal(t, 500*time.Millisecond, cfg.LockWait)
	assert.Equal(t, 25, cfg.AccountNumberAttempts)
	assert.Equal(t, "XX", cfg.AccountNumberPrefix)
	assert.Equal(t, engine.GoalPolicyLatestCreated, cfg.GoalPolicy)
}

func TestExpandPath(t *testing.T) {
	t.Setenv("SMARTBANK_TEST_DIR", "/tmp/smartbank")

	assert.Equal(t, "/tmp/smartbank/data.db", ExpandPath("$SMARTBANK_TEST_DIR/data.db"))
	assert.Equal(t, "", ExpandPath(""))
	assert.NotEqual(t, "~", ExpandPath("~"))
	assert.NotContains(t, ExpandPath("~/data.db"), "~")
}
