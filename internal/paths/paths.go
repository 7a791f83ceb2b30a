// Package paths provides sudo-aware path resolution for jellyrename.
//
// When running with sudo, these functions resolve to the original user's
// directories (via SUDO_USER) instead of root's.
package paths

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

const appDirName = "jellyrename"

// UserHomeDir returns the home directory of the actual user.
// If running with sudo, returns the SUDO_USER's home directory, not root's.
func UserHomeDir() (string, error) {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" && sudoUser != "root" {
		u, err := user.Lookup(sudoUser)
		if err == nil {
			return u.HomeDir, nil
		}
	}

	return os.UserHomeDir()
}

// UserConfigDir honours XDG_CONFIG_HOME unless running under sudo, and
// otherwise falls back to ~/.config of the actual user.
func UserConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" && os.Getenv("SUDO_USER") == "" {
		return xdg, nil
	}
	homeDir, err := UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config"), nil
}

// AppDir returns ~/.config/jellyrename for the actual user.
func AppDir() (string, error) {
	configDir, err := UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appDirName), nil
}

func inAppDir(elem ...string) (string, error) {
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{dir}, elem...)...), nil
}

// ConfigPath returns ~/.config/jellyrename/config.toml.
func ConfigPath() (string, error) {
	return inAppDir("config.toml")
}

// EnvPath returns the optional .env file read alongside the config.
func EnvPath() (string, error) {
	return inAppDir(".env")
}

// HistoryPath returns the rename journal database.
func HistoryPath() (string, error) {
	return inAppDir("history.db")
}

// LockPath returns the file locked for the duration of a run.
func LockPath() (string, error) {
	return inAppDir("jellyrename.lock")
}

// LogPath returns the default log file.
func LogPath() (string, error) {
	return inAppDir("logs", "jellyrename.log")
}

// ExpandHome replaces a leading ~ with the actual user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ActualUser returns the actual username (not root when using sudo).
func ActualUser() string {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" && sudoUser != "root" {
		return sudoUser
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}
