package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Nomadcxx/jellyrename/internal/config"
	"github.com/Nomadcxx/jellyrename/internal/decision"
	"github.com/Nomadcxx/jellyrename/internal/history"
	"github.com/Nomadcxx/jellyrename/internal/provider"
	"github.com/Nomadcxx/jellyrename/internal/renamer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{fmt.Errorf("wrapped: %w", decision.ErrUserAbort), exitAbort},
		{context.Canceled, exitAbort},
		{fmt.Errorf("%w: boom", renamer.ErrTooManyProviderFailures), exitProvider},
		{provider.Wrap("tvmaze", "search", errors.New("dial tcp")), exitProvider},
		{fmt.Errorf("%w: bad template", config.ErrInvalidConfig), exitProvider},
		{fmt.Errorf("%w: lock", errSetup), exitProvider},
		{errors.New("unknown flag"), exitUsage},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), "%v", tt.err)
	}
}

// tvmazeServer serves Scrubs season 1 episode 1 and nothing else.
func tvmazeServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/search/shows":
			if !strings.EqualFold(r.URL.Query().Get("q"), "scrubs") {
				w.Write([]byte("[]"))
				return
			}
			json.NewEncoder(w).Encode([]map[string]any{
				{"score": 1, "show": map[string]any{"id": 1, "name": "Scrubs", "premiered": "2001-10-02"}},
			})
		case "/shows/1/episodebynumber":
			if r.URL.Query().Get("season") != "1" || r.URL.Query().Get("number") != "1" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"id": 10, "name": "My First Day", "season": 1, "number": 1})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

type cliEnv struct {
	configPath  string
	historyPath string
	mediaDir    string
}

func newCLIEnv(t *testing.T, providerURL string, edit func(*config.Config)) *cliEnv {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, ".config"))
	t.Setenv("SUDO_USER", "")

	env := &cliEnv{
		configPath:  filepath.Join(root, "config.toml"),
		historyPath: filepath.Join(root, "history.db"),
		mediaDir:    filepath.Join(root, "media"),
	}
	require.NoError(t, os.MkdirAll(env.mediaDir, 0755))

	cfg := config.DefaultConfig()
	cfg.Provider.TVMaze.URL = providerURL
	cfg.Provider.RetryAttempts = 1
	cfg.History.Path = env.historyPath
	cfg.Logging.File = "-"
	if edit != nil {
		edit(cfg)
	}
	require.NoError(t, cfg.SaveAs(env.configPath))
	return env
}

func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	args = append([]string{"--config", e.configPath, "--no-color"}, args...)
	code := execute(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (e *cliEnv) touch(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.mediaDir, name)
	require.NoError(t, os.WriteFile(path, []byte(name), 0644))
	return path
}

func TestRenameInteractive(t *testing.T) {
	env := newCLIEnv(t, tvmazeServer(t).URL, nil)
	env.touch(t, "scrubs.s01e01.avi")

	code, out, errOut := env.run(t, "y\n", env.mediaDir)
	require.Equal(t, exitOK, code, errOut)

	assert.Contains(t, out, "Scrubs - [01x01] - My First Day.avi")
	assert.Contains(t, out, "Renamed 1, unchanged 0, skipped 0")
	assert.FileExists(t, filepath.Join(env.mediaDir, "Scrubs - [01x01] - My First Day.avi"))
}

func TestRenameAbortExitCode(t *testing.T) {
	env := newCLIEnv(t, tvmazeServer(t).URL, nil)
	src := env.touch(t, "scrubs.s01e01.avi")

	code, _, errOut := env.run(t, "q\n", env.mediaDir)
	assert.Equal(t, exitAbort, code)
	assert.Contains(t, errOut, "aborted by user")
	assert.FileExists(t, src)
}

func TestRenameBatchWithSkips(t *testing.T) {
	env := newCLIEnv(t, tvmazeServer(t).URL, nil)
	env.touch(t, "scrubs.s01e01.avi")
	env.touch(t, "a.fake.show.s12e24.fake.avi")

	code, out, errOut := env.run(t, "", "--batch", env.mediaDir)
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Skipped a.fake.show.s12e24.fake.avi: no match found")
	assert.FileExists(t, filepath.Join(env.mediaDir, "Scrubs - [01x01] - My First Day.avi"))
}

func TestProviderFailureLimitExitCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	env := newCLIEnv(t, server.URL, func(cfg *config.Config) {
		cfg.Run.MaxConsecutiveProviderFailures = 1
	})
	env.touch(t, "scrubs.s01e01.avi")

	code, _, errOut := env.run(t, "", "--batch", env.mediaDir)
	assert.Equal(t, exitProvider, code)
	assert.Contains(t, errOut, "too many consecutive provider failures")
}

func TestInvalidConfigExitCode(t *testing.T) {
	env := newCLIEnv(t, "http://127.0.0.1:1", func(cfg *config.Config) {
		cfg.Provider.Name = "imdb"
	})
	env.touch(t, "scrubs.s01e01.avi")

	code, _, _ := env.run(t, "", "--batch", env.mediaDir)
	assert.Equal(t, exitProvider, code)
}

func TestMissingPathExitCode(t *testing.T) {
	env := newCLIEnv(t, tvmazeServer(t).URL, nil)
	code, _, errOut := env.run(t, "", "--batch", filepath.Join(env.mediaDir, "nope"))
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, "unable to access")
}

func TestHistoryAndUndo(t *testing.T) {
	env := newCLIEnv(t, tvmazeServer(t).URL, nil)
	src := env.touch(t, "scrubs.s01e01.avi")

	code, _, errOut := env.run(t, "", "--always", env.mediaDir)
	require.Equal(t, exitOK, code, errOut)
	require.NoFileExists(t, src)

	journal, err := history.OpenPath(env.historyPath)
	require.NoError(t, err)
	runs, err := journal.Runs(1)
	require.NoError(t, err)
	require.NoError(t, journal.Close())
	require.Len(t, runs, 1)
	runID := runs[0].ShortID()

	code, out, errOut := env.run(t, "", "history")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, runID)

	code, out, errOut = env.run(t, "", "history", runID)
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "scrubs.s01e01.avi")

	code, out, errOut = env.run(t, "", "undo", runID, "--yes")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Restored 1 of 1")
	assert.FileExists(t, src)
}

func TestConfigCommands(t *testing.T) {
	env := newCLIEnv(t, tvmazeServer(t).URL, func(cfg *config.Config) {
		cfg.Provider.Sonarr.APIKey = "topsecret"
	})

	code, out, _ := env.run(t, "", "config", "path")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, env.configPath+"\n", out)

	code, out, errOut := env.run(t, "", "config", "show")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "[provider.tvmaze]")
	assert.NotContains(t, out, "topsecret")

	code, _, errOut = env.run(t, "", "config", "init")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, "already exists")

	code, out, errOut = env.run(t, "", "config", "test")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Provider tvmaze answered (1 result(s)")
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	code := execute(context.Background(), []string{"version"}, strings.NewReader(""), &out, &out)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "jellyrename dev\n", out.String())
}
