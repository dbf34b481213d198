// Package testutil holds shared scaffolding for tests that need an
// isolated config or cache location instead of the real user dirs.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// SetEnv sets an environment variable for the duration of the test and
// restores the previous state on cleanup.
func SetEnv(t *testing.T, key, value string) {
	t.Helper()

	old, had := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

// ConfigHome points XDG_CONFIG_HOME at a fresh temp dir and returns it,
// so config loading never touches the real user config.
func ConfigHome(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	SetEnv(t, "XDG_CONFIG_HOME", dir)
	return dir
}

// CacheHome points XDG_CACHE_HOME at a fresh temp dir and returns it,
// which keeps daemon socket and pid files out of the real user cache.
func CacheHome(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	SetEnv(t, "XDG_CACHE_HOME", dir)
	return dir
}

// WriteConfig drops content as the calltriage config file under
// configHome and returns its path.
func WriteConfig(t *testing.T, configHome, content string) string {
	t.Helper()

	dir := filepath.Join(configHome, "calltriage")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// WaitFor polls condition every 10ms until it holds or the timeout
// passes, then fails the test.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}
