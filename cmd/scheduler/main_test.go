package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/appointment-scheduler/internal/refresh"
)

type testEnv struct {
	dir        string
	configPath string
	auditSink  string
}

func newTestEnv(t *testing.T, auditSink string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{dir: dir, configPath: filepath.Join(dir, "config.yaml"), auditSink: auditSink}

	content := strings.Join([]string{
		"app:",
		"  log_level: debug",
		"  timezone: UTC",
		"database:",
		"  path: " + filepath.Join(dir, "scheduler.db"),
		"audit:",
		"  sink: " + auditSink,
		"  path: " + filepath.Join(dir, "logins.log"),
		"",
	}, "\n")
	if err := os.WriteFile(env.configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

// run executes the CLI with input on stdin and every password prompt
// answered with password.
func (e *testEnv) run(t *testing.T, input, password string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := newApp(strings.NewReader(input), &out, &errOut)
	a.readPassword = func() (string, error) { return password, nil }

	argv := append([]string{"scheduler", "--config", e.configPath}, args...)
	err := a.command().Run(context.Background(), argv)
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, input, password string, args ...string) string {
	t.Helper()
	out, err := e.run(t, input, password, args...)
	if err != nil {
		t.Fatalf("%v failed: %v\noutput:\n%s", args, err, out)
	}
	return out
}

func TestStatusBeforeAndAfterMigrate(t *testing.T) {
	env := newTestEnv(t, "file")

	out := env.mustRun(t, "", "", "status")
	if !strings.Contains(out, "Current version: none") {
		t.Errorf("expected no version before migrating, got:\n%s", out)
	}
	if !strings.Contains(out, "pending") {
		t.Errorf("expected pending migrations, got:\n%s", out)
	}

	out = env.mustRun(t, "", "", "migrate")
	if !strings.Contains(out, "schema version 002") {
		t.Errorf("unexpected migrate output:\n%s", out)
	}

	out = env.mustRun(t, "", "", "status")
	if !strings.Contains(out, "Current version: 002") {
		t.Errorf("unexpected status output:\n%s", out)
	}
	if strings.Contains(out, "pending") {
		t.Errorf("expected no pending migrations, got:\n%s", out)
	}
}

func TestUserAddAndLogin(t *testing.T) {
	for _, sink := range []string{"file", "database"} {
		t.Run(sink, func(t *testing.T) {
			env := newTestEnv(t, sink)

			out := env.mustRun(t, "", "s3cret!", "user", "add", "alice")
			if !strings.Contains(out, "Created consultant alice") {
				t.Fatalf("unexpected user add output:\n%s", out)
			}

			out = env.mustRun(t, "", "", "audit", "list")
			if !strings.Contains(out, "No logins recorded.") {
				t.Errorf("expected empty audit trail, got:\n%s", out)
			}

			out = env.mustRun(t, "login alice\nwhoami\nexit\ny\n", "s3cret!")
			if !strings.Contains(out, "Welcome, alice.") {
				t.Fatalf("expected login to succeed, got:\n%s", out)
			}
			if !strings.Contains(out, "Bye!") {
				t.Errorf("expected exit confirmation, got:\n%s", out)
			}

			out = env.mustRun(t, "", "", "audit", "list")
			if !strings.HasSuffix(strings.TrimSpace(out), "\talice") {
				t.Errorf("expected alice in audit trail, got:\n%s", out)
			}
		})
	}
}

func TestRunSubcommandRejectsWrongPassword(t *testing.T) {
	env := newTestEnv(t, "file")
	env.mustRun(t, "", "s3cret!", "user", "add", "alice")

	out := env.mustRun(t, "login alice\n", "wrong", "run")
	if !strings.Contains(out, "Login failed") {
		t.Errorf("expected login failure, got:\n%s", out)
	}

	if _, err := os.Stat(filepath.Join(env.dir, "logins.log")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected no audit file after failed login, stat err = %v", err)
	}
}

func TestRunStopsRefreshScheduleWhenWatcherFails(t *testing.T) {
	env := newTestEnv(t, "file")
	config, err := os.ReadFile(env.configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	config = append(config, []byte("refresh:\n  cron: \"@every 1h\"\n  watch: true\n")...)
	if err := os.WriteFile(env.configPath, config, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var out, errOut bytes.Buffer
	a := newApp(strings.NewReader(""), &out, &errOut)
	watchErr := errors.New("inotify limit reached")
	a.newWatcher = func(string, refresh.Refresher, time.Duration, *slog.Logger) (*refresh.Watcher, error) {
		return nil, watchErr
	}

	err = a.command().Run(context.Background(), []string{"scheduler", "--config", env.configPath, "run"})
	if !errors.Is(err, watchErr) {
		t.Fatalf("expected watcher error, got %v", err)
	}
	logs := errOut.String()
	if !strings.Contains(logs, "refresh schedule started") || !strings.Contains(logs, "refresh schedule stopped") {
		t.Fatalf("expected the refresh schedule to stop before returning, logs:\n%s", logs)
	}
}

func TestUserAddPasswordMismatch(t *testing.T) {
	env := newTestEnv(t, "file")

	var out, errOut bytes.Buffer
	a := newApp(strings.NewReader(""), &out, &errOut)
	answers := []string{"first", "second"}
	a.readPassword = func() (string, error) {
		next := answers[0]
		answers = answers[1:]
		return next, nil
	}

	err := a.command().Run(context.Background(), []string{"scheduler", "--config", env.configPath, "user", "add", "alice"})
	if !errors.Is(err, errPasswordMismatch) {
		t.Fatalf("expected errPasswordMismatch, got %v", err)
	}
}

func TestUserAddRequiresUsername(t *testing.T) {
	env := newTestEnv(t, "file")

	_, err := env.run(t, "", "pw", "user", "add")
	if err == nil || !strings.Contains(err.Error(), "usage") {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestCustomerAdd(t *testing.T) {
	env := newTestEnv(t, "file")

	out := env.mustRun(t, "", "", "customer", "add", "--name", "Acme", "--city", "Phoenix", "--phone", "555-0100")
	if !strings.Contains(out, "Created customer Acme (") {
		t.Errorf("unexpected customer add output:\n%s", out)
	}
}

func TestInvalidConfig(t *testing.T) {
	env := newTestEnv(t, "file")
	if err := os.WriteFile(env.configPath, []byte("app:\n  log_level: chatty\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := env.run(t, "", "", "status")
	if err == nil || !strings.Contains(err.Error(), "failed to parse config") {
		t.Fatalf("expected config error, got %v", err)
	}
}
