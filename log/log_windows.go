//go:build windows

package log

import (
	"os"
	"path/filepath"
)

func defaultDir(getenv func(string) string) (string, error) {
	base := getenv("LOCALAPPDATA")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, "AppData", "Local")
	}
	return filepath.Join(base, "VoiceMode", "Logs"), nil
}
