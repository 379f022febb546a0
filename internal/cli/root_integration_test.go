package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/odysseus0/sharedfeed/internal/config"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"XDG_CONFIG_HOME",
		"SHAREDFEED_DB_PATH",
		"SHAREDFEED_USER_EMAIL",
		"SHAREDFEED_STALE_MINUTES",
		"SHAREDFEED_FETCH_CONCURRENCY",
		"SHAREDFEED_RETENTION_DAYS",
		"SHAREDFEED_MAX_ENTRIES_PER_FEED",
		"SHAREDFEED_HTTP_TIMEOUT_SECONDS",
		"SHAREDFEED_USER_AGENT",
		"SHAREDFEED_LOG_LEVEL",
		"SHAREDFEED_REFRESH_MINUTES",
	} {
		t.Setenv(key, "")
	}
}

func writeConfigFile(t *testing.T, home string, body string) string {
	t.Helper()
	path := filepath.Join(home, ".config", "sharedfeed", "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestRootCommand_DBFlagOverridesEnvAndConfig(t *testing.T) {
	clearConfigEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	configDB := filepath.Join(t.TempDir(), "from-config.db")
	writeConfigFile(t, home, `db_path = "`+configDB+`"`+"\n")

	envDB := filepath.Join(t.TempDir(), "from-env.db")
	t.Setenv("SHAREDFEED_DB_PATH", envDB)

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DBPath != envDB {
		t.Fatalf("LoadConfig DBPath = %q, want %q", cfg.DBPath, envDB)
	}

	flagDB := filepath.Join(t.TempDir(), "from-flag.db")
	root := NewRootCmd(cfg)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"--db", flagDB, "user", "list", "-o", "json"})

	if err := root.Execute(); err != nil {
		t.Fatalf("root.Execute: %v (stderr: %s)", err, stderr.String())
	}

	if _, err := os.Stat(flagDB); err != nil {
		t.Fatalf("expected flag DB at %q: %v", flagDB, err)
	}
	if _, err := os.Stat(envDB); !os.IsNotExist(err) {
		t.Fatalf("expected env DB not to be opened, stat err: %v", err)
	}
	if _, err := os.Stat(configDB); !os.IsNotExist(err) {
		t.Fatalf("expected config DB not to be opened, stat err: %v", err)
	}
}

func TestRootCommand_UserFlagOverridesConfig(t *testing.T) {
	clearConfigEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeConfigFile(t, home, `user_email = "config@example.com"`+"\n")

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.UserEmail != "config@example.com" {
		t.Fatalf("LoadConfig UserEmail = %q", cfg.UserEmail)
	}

	dbPath := filepath.Join(t.TempDir(), "sharedfeed.db")
	for _, email := range []string{"config@example.com", "flag@example.com"} {
		root := NewRootCmd(cfg)
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs([]string{"--db", dbPath, "user", "add", email})
		if err := root.Execute(); err != nil {
			t.Fatalf("user add %s: %v", email, err)
		}
	}

	root := NewRootCmd(cfg)
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--db", dbPath, "--user", "flag@example.com", "subscribe", "http://", "-o", "json"})
	err = root.Execute()
	if ErrorExitCode(err) != exitInvalidInput {
		t.Fatalf("expected invalid input for bad url as flag user, got %v", err)
	}

	root = NewRootCmd(cfg)
	stdout.Reset()
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--db", dbPath, "get", "stats", "-o", "json"})
	if err := root.Execute(); err != nil {
		t.Fatalf("stats as config user: %v", err)
	}
	st := decodeJSON[Stats](t, stdout.String())
	if st.Feeds != 0 {
		t.Fatalf("expected no feeds for config user, got %+v", st)
	}
}
