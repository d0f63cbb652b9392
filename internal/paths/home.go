package paths

import (
	"os"
	"path/filepath"
)

const envHome = "KANRI_HOME_DIR"

// Home returns the base directory for kanri configuration/state.
// Defaults to ~/.kanri, can be overridden via KANRI_HOME_DIR.
func Home() string {
	if v := os.Getenv(envHome); v != "" {
		return v
	}
	hd, err := os.UserHomeDir()
	if err != nil || hd == "" {
		return ".kanri"
	}
	return filepath.Join(hd, ".kanri")
}

func EnsureHome() (string, error) {
	h := Home()
	if err := os.MkdirAll(h, 0o755); err != nil {
		return "", err
	}
	return h, nil
}
