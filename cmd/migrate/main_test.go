package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"
)

type fakeMigrator struct {
	upErr   error
	steps   int
	forced  int
	version uint
	verErr  error
	closed  bool
}

func (f *fakeMigrator) Up() error { return f.upErr }
func (f *fakeMigrator) Steps(n int) error { f.steps = n; return nil }
func (f *fakeMigrator) Force(version int) error { f.forced = version; return nil }
func (f *fakeMigrator) Version() (uint, bool, error) {
	return f.version, false, f.verErr
}
func (f *fakeMigrator) Close() (error, error) { f.closed = true; return nil, nil }

func run(t *testing.T, m *fakeMigrator, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/clinic")
	var gotURL string
	cmd := newRootCmd(func(url string) (migrator, error) {
		gotURL = url
		return m, nil
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil && gotURL != "postgres://localhost/clinic" {
		t.Fatalf("expected DATABASE_URL to be used, got %q", gotURL)
	}
	return out.String(), err
}

func TestUpTreatsNoChangeAsSuccess(t *testing.T) {
	m := &fakeMigrator{upErr: migrate.ErrNoChange}
	out, err := run(t, m, "up")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "migrations complete") || !m.closed {
		t.Fatalf("expected completion and close, got %q closed=%v", out, m.closed)
	}
}

func TestUpPropagatesFailure(t *testing.T) {
	_, err := run(t, &fakeMigrator{upErr: errors.New("boom")}, "up")
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected migrate up failure, got %v", err)
	}
}

func TestDownRollsBackSteps(t *testing.T) {
	m := &fakeMigrator{}
	if _, err := run(t, m, "down", "--steps", "2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.steps != -2 {
		t.Fatalf("expected -2 steps, got %d", m.steps)
	}
	if _, err := run(t, &fakeMigrator{}, "down", "--steps", "0"); err == nil {
		t.Fatalf("expected error for zero steps")
	}
}

func TestForce(t *testing.T) {
	m := &fakeMigrator{}
	if _, err := run(t, m, "force", "3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.forced != 3 {
		t.Fatalf("expected forced version 3, got %d", m.forced)
	}
	if _, err := run(t, &fakeMigrator{}, "force", "three"); err == nil {
		t.Fatalf("expected error for non-numeric version")
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, &fakeMigrator{version: 4}, "version")
	if err != nil || !strings.Contains(out, "version 4") {
		t.Fatalf("unexpected output %q err=%v", out, err)
	}
	out, err = run(t, &fakeMigrator{verErr: migrate.ErrNilVersion}, "version")
	if err != nil || !strings.Contains(out, "no migrations applied") {
		t.Fatalf("unexpected output %q err=%v", out, err)
	}
}

func TestMissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	cmd := newRootCmd(func(string) (migrator, error) {
		t.Fatalf("opener must not be called")
		return nil, nil
	})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"up"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}
