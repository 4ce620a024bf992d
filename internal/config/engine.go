package config

import (
	"github.com/spf13/viper"

	"github.com/devananda/smartbank/internal/engine"
)

// EngineConfig builds the engine settings from viper, falling back to the
// engine defaults for anything unset. Runtime-tunable values live here
// rather than in process-wide mutable state.
func EngineConfig() engine.Config {
	cfg := engine.DefaultConfig()

	if wait := viper.GetDuration("engine.lock_wait"); wait > 0 {
		cfg.LockWait = wait
	}
	if attempts := viper.GetInt("engine.account_number_attempts"); attempts > 0 {
		cfg.AccountNumberAttempts = attempts
	}
	if prefix := viper.GetString("engine.account_number_prefix"); prefix != "" {
		cfg.AccountNumberPrefix = prefix
	}
	if policy := viper.GetString("engine.goal_policy"); policy != "" {
		cfg.GoalPolicy = engine.GoalPolicy(policy)
	}
	return cfg
}
