package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// LoadSecret reads the single-line email API key file. A mode that
// lets group or others read the key gets a warning and is tightened
// to owner-only.
func LoadSecret(path string, logger zerolog.Logger) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("could not read secret file %s: %w", path, err)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn().
			Str("path", path).
			Str("mode", fmt.Sprintf("%04o", perm)).
			Msg("secret file readable by group or others, tightening to 0600")
		if err := os.Chmod(path, 0o600); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("could not tighten secret file mode")
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("could not read secret file %s: %w", path, err)
	}

	key, _, _ := strings.Cut(strings.TrimSpace(string(raw)), "\n")
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("secret file %s is empty", path)
	}
	return key, nil
}

// WriteSecret persists the API key readable by owner only.
func WriteSecret(path, key string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(key+"\n"), 0o600)
}
