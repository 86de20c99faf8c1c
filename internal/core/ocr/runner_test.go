package ocr

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunnerMissingTool(t *testing.T) {
	_, _, err := NewExecRunner().Run(context.Background(), "lyrics-no-such-tool", nil)
	if !errors.Is(err, exec.ErrNotFound) {
		t.Fatalf("expected exec.ErrNotFound, got %v", err)
	}
}

func TestExecRunnerEnv(t *testing.T) {
	requireShell(t)
	r := NewExecRunner(WithEnv("LYRICS_TEST_LANG=hin"))
	out, _, err := r.Run(context.Background(), "sh", nil, "-c", `printf %s "$LYRICS_TEST_LANG"`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if string(out) != "hin" {
		t.Fatalf("stdout = %q", out)
	}
}

func TestExecRunnerKeepsStderr(t *testing.T) {
	requireShell(t)
	_, errb, err := NewExecRunner(WithStderrCap(4)).Run(context.Background(), "sh", nil, "-c", "echo 'bad page' >&2; exit 3")
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 3 {
		t.Fatalf("expected exit status 3, got %v", err)
	}
	if strings.TrimSpace(string(errb)) != "bad page" {
		t.Fatalf("stderr = %q", errb)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("abcdef", 3); got != "abc...(truncated)" {
		t.Errorf("Truncate = %q", got)
	}
	// "हरि" is 9 bytes; cutting at 4 must not split the second rune.
	if got := Truncate("हरि", 4); got != "ह...(truncated)" {
		t.Errorf("Truncate = %q", got)
	}
}
