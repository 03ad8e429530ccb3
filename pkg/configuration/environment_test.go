package configuration

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnv_FallsBackToGoModRoot(t *testing.T) {
	tmp := t.TempDir()

	requireWriteFile(t, filepath.Join(tmp, "go.mod"), "module example.com/test\n\ngo 1.22\n")
	requireWriteFile(t, filepath.Join(tmp, ".env.local"), "STAFFING_TEST_ENV_LOAD=ok\n")

	sub := filepath.Join(tmp, "pkg", "crud")
	requireMkdirAll(t, sub)

	origWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	if err := os.Chdir(sub); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	_ = os.Unsetenv("STAFFING_TEST_ENV_LOAD")

	n, err := LoadEnv([]string{".env", ".env.local"})
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 env file loaded, got %d", n)
	}
	if got := os.Getenv("STAFFING_TEST_ENV_LOAD"); got != "ok" {
		t.Fatalf("expected env var loaded from repo root, got %q", got)
	}
}

func TestLoadEnv_PrefersWorkingDirectory(t *testing.T) {
	tmp := t.TempDir()

	requireWriteFile(t, filepath.Join(tmp, "go.mod"), "module example.com/test\n\ngo 1.22\n")
	requireWriteFile(t, filepath.Join(tmp, ".env"), "STAFFING_TEST_ENV_ROOT=root\n")
	sub := filepath.Join(tmp, "cmd")
	requireMkdirAll(t, sub)
	requireWriteFile(t, filepath.Join(sub, ".env"), "STAFFING_TEST_ENV_ROOT=local\n")

	origWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	if err := os.Chdir(sub); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	_ = os.Unsetenv("STAFFING_TEST_ENV_ROOT")

	n, err := LoadEnv([]string{".env", ".env.local"})
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 env file loaded, got %d", n)
	}
	if got := os.Getenv("STAFFING_TEST_ENV_ROOT"); got != "local" {
		t.Fatalf("expected working directory env to win, got %q", got)
	}
}

func TestLoadEnv_NoFiles(t *testing.T) {
	tmp := t.TempDir()
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	n, err := LoadEnv([]string{".env.does-not-exist"})
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no env files, got %d", n)
	}
}

func TestCacheOptions_Validate(t *testing.T) {
	cases := []struct {
		name    string
		opts    CacheOptions
		wantErr bool
	}{
		{name: "memory", opts: CacheOptions{Storage: "memory"}},
		{name: "redis normalized", opts: CacheOptions{Storage: " Redis ", RedisURL: "localhost:6379"}},
		{name: "redis without url", opts: CacheOptions{Storage: "redis"}, wantErr: true},
		{name: "unknown storage", opts: CacheOptions{Storage: "memcached"}, wantErr: true},
		{name: "negative ttl", opts: CacheOptions{Storage: "memory", TTL: -1}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.opts.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateLogLevel(t *testing.T) {
	c := &Configuration{LogLevel: " INFO "}
	if err := c.validateLogLevel(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.LogLevel != "info" {
		t.Fatalf("expected normalized level, got %q", c.LogLevel)
	}
	if c.LogrusLogLevel().String() != "info" {
		t.Fatalf("expected logrus info level, got %s", c.LogrusLogLevel())
	}

	c = &Configuration{LogLevel: "verbose"}
	if err := c.validateLogLevel(); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func requireWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func requireMkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}
