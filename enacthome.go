package security

import (
	"os"
	"path/filepath"
)

// DefaultHome resolves the host-owned root directory used by the trusted-
// key and security-config stores: $ENACT_HOME if set, otherwise
// $HOME/.enact.
func DefaultHome() string {
	if home := os.Getenv("ENACT_HOME"); home != "" {
		return home
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".enact")
	}
	return ".enact"
}
