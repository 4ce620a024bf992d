// Package config resolves runtime settings for the ledger engine and its
// CLI from viper-backed configuration.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves a configured file path: a leading ~ becomes the
// user's home directory and $VAR references are replaced from the
// environment. Used for database.path so config files stay portable.
func ExpandPath(path string) string {
	switch {
	case path == "":
		return path
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}
