package config_test

import (
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/louisbranch/offlinecache/internal/platform/config"
)

const exitSubprocessEnv = "OFFLINECACHE_TEST_EXITF"

// runExitf re-executes the test binary so os.Exit happens out of process.
func runExitf(t *testing.T, testName string) (string, int) {
	t.Helper()
	cmd := exec.Command(os.Args[0], "-test.run=^"+testName+"$")
	cmd.Env = append(os.Environ(), exitSubprocessEnv+"=1")
	out, err := cmd.CombinedOutput()
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *exec.ExitError, got %T: %v", err, err)
	}
	return string(out), exitErr.ExitCode()
}

func TestExitfWritesMessageAndExits(t *testing.T) {
	if os.Getenv(exitSubprocessEnv) == "1" {
		config.Exitf("parse flags: %s", "origin is required")
		return
	}

	out, code := runExitf(t, "TestExitfWritesMessageAndExits")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(out, "parse flags: origin is required\n") {
		t.Fatalf("output = %q", out)
	}
}

func TestExitCodefUsesCode(t *testing.T) {
	if os.Getenv(exitSubprocessEnv) == "1" {
		config.ExitCodef(config.ExitUsage, "signup %s: %s", "planName", "plan_required")
		return
	}

	out, code := runExitf(t, "TestExitCodefUsesCode")
	if code != config.ExitUsage {
		t.Fatalf("exit code = %d, want %d", code, config.ExitUsage)
	}
	if !strings.Contains(out, "signup planName: plan_required") {
		t.Fatalf("output = %q", out)
	}
}
