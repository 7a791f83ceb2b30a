package paths

import (
	"os"
	"os/user"
	"path/filepath"
	"testing"
)

func TestUserHomeDir_NoSudo(t *testing.T) {
	t.Setenv("SUDO_USER", "")

	got, err := UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir() error = %v", err)
	}

	expected, _ := os.UserHomeDir()
	if got != expected {
		t.Errorf("UserHomeDir() = %q, want %q", got, expected)
	}
}

func TestUserHomeDir_WithSudoUser(t *testing.T) {
	currentUser, err := user.Current()
	if err != nil {
		t.Skip("Cannot get current user")
	}

	t.Setenv("SUDO_USER", currentUser.Username)

	got, err := UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir() error = %v", err)
	}

	if got != currentUser.HomeDir {
		t.Errorf("UserHomeDir() = %q, want %q", got, currentUser.HomeDir)
	}
}

func TestUserHomeDir_NonexistentUser(t *testing.T) {
	t.Setenv("SUDO_USER", "nonexistent_user_12345")

	got, err := UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir() error = %v", err)
	}

	expected, _ := os.UserHomeDir()
	if got != expected {
		t.Errorf("UserHomeDir() = %q, want %q", got, expected)
	}
}

func TestAppFiles_FollowXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("SUDO_USER", "")
	t.Setenv("XDG_CONFIG_HOME", xdg)

	tests := []struct {
		name string
		fn   func() (string, error)
		want string
	}{
		{"config", ConfigPath, filepath.Join(xdg, "jellyrename", "config.toml")},
		{"env", EnvPath, filepath.Join(xdg, "jellyrename", ".env")},
		{"history", HistoryPath, filepath.Join(xdg, "jellyrename", "history.db")},
		{"lock", LockPath, filepath.Join(xdg, "jellyrename", "jellyrename.lock")},
		{"log", LogPath, filepath.Join(xdg, "jellyrename", "logs", "jellyrename.log")},
	}

	for _, tt := range tests {
		got, err := tt.fn()
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestExpandHome(t *testing.T) {
	t.Setenv("SUDO_USER", "")
	home, _ := os.UserHomeDir()

	got, err := ExpandHome("~/Videos")
	if err != nil {
		t.Fatalf("ExpandHome() error = %v", err)
	}
	if got != filepath.Join(home, "Videos") {
		t.Errorf("ExpandHome() = %q", got)
	}

	got, _ = ExpandHome("/srv/tv")
	if got != "/srv/tv" {
		t.Errorf("absolute path changed: %q", got)
	}

	got, _ = ExpandHome("~other/tv")
	if got != "~other/tv" {
		t.Errorf("~user form must be left alone: %q", got)
	}
}
