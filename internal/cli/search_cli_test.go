package cli

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"fedsearch/internal/flags"
)

func withoutEnv(key string) []string {
	out := make([]string, 0, len(os.Environ()))
	prefix := key + "="
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, prefix) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	// internal/cli -> repo root
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func goExe() string {
	if runtime.GOOS == "windows" {
		return "go.exe"
	}
	return "go"
}

func buildFedsearchBinary(t *testing.T) string {
	t.Helper()

	outPath := filepath.Join(t.TempDir(), "fedsearch-test")
	if runtime.GOOS == "windows" {
		outPath += ".exe"
	}

	cmd := exec.Command(goExe(), "build", "-o", outPath, "./cmd/fedsearch")
	cmd.Dir = repoRoot(t)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build fedsearch binary: %v; output=%s", err, string(out))
	}

	return outPath
}

func exitCode(t *testing.T, err error, out []byte) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %T: %v; output=%s", err, err, string(out))
	}
	return exitErr.ProcessState.ExitCode()
}

func TestSearch_ExitCode3_WhenNoDomainsFile(t *testing.T) {
	binary := buildFedsearchBinary(t)
	cmd := exec.Command(binary, "search", "unfinished-runs")
	cmd.Env = withoutEnv(flags.EnvDomainsFile)

	out, err := cmd.CombinedOutput()
	if code := exitCode(t, err, out); code != 3 {
		t.Fatalf("expected exit code 3, got %d; output=%s", code, string(out))
	}
	if !strings.Contains(string(out), "--domains-file must be provided") {
		t.Fatalf("expected validation message; output=%s", string(out))
	}
}

func TestSearch_DryRunAndUnknownSearch(t *testing.T) {
	binary := buildFedsearchBinary(t)
	dir := t.TempDir()
	domains := filepath.Join(dir, "domains.yaml")
	yaml := "domains:\n  - name: LINZ\n    driver: remote\n    url: http://127.0.0.1:1/\n"
	if err := os.WriteFile(domains, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := exec.Command(binary, "search", "unfinished-runs", "--domains-file", domains, "--dry-run")
	out, err := cmd.CombinedOutput()
	if code := exitCode(t, err, out); code != 0 {
		t.Fatalf("expected exit code 0, got %d; output=%s", code, string(out))
	}
	if !strings.Contains(string(out), "LINZ (remote)") {
		t.Fatalf("expected resolved domain in dry run; output=%s", string(out))
	}

	cmd = exec.Command(binary, "search", "no-such-search", "--domains-file", domains)
	out, err = cmd.CombinedOutput()
	if code := exitCode(t, err, out); code != 3 {
		t.Fatalf("expected exit code 3, got %d; output=%s", code, string(out))
	}
	if !strings.Contains(string(out), "search not found: no-such-search") {
		t.Fatalf("expected unknown search message; output=%s", string(out))
	}
}
