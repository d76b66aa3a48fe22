//go:build e2e

package main

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var bin string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "mentorgraph-e2e-*")
	if err != nil {
		panic("failed to create temp dir: " + err.Error())
	}
	defer os.RemoveAll(tmp)

	bin = filepath.Join(tmp, "mentorgraph")
	build := exec.Command("go", "build", "-ldflags", "-X github.com/msalah0e/mentorgraph/cmd.version=0.4.0-test", "-o", bin, ".")
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		panic("failed to build mentorgraph: " + err.Error())
	}

	os.Exit(m.Run())
}

const studentsJSON = `[
  {"id": 1, "firstName": "Ada", "lastName": "Lovelace", "promo": 2023},
  {"id": 2, "firstName": "Alan", "lastName": "Turing", "promo": 2024},
  {"id": 3, "firstName": "Grace", "lastName": "Hopper", "promo": 2025}
]`

const tutoringYAML = `- {id: 10, mentorId: 1, studentId: 2, family: blue, year: 2023/2024, color: "#0000ff"}
- {id: 11, mentorId: 2, studentId: 3, family: blue, year: 2024/2025, color: "#0000ff"}
- {id: 12, mentorId: 1, studentId: 3, family: red, year: 2023/2024, color: red}
`

// run executes the binary inside a scratch directory with an isolated HOME
// and the sample dataset on disk.
func run(t *testing.T, dir string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"HOME="+dir,
		"XDG_CONFIG_HOME="+filepath.Join(dir, ".config"),
		"NO_COLOR=1",
	)

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("failed to run mentorgraph %v: %v", args, err)
		}
	}
	return outBuf.String(), errBuf.String(), exitCode
}

func workdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "students.json"), []byte(studentsJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tutoring.yaml"), []byte(tutoringYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

var data = []string{"--students", "students.json", "--tutoring", "tutoring.yaml"}

// --- Core CLI ---

func TestE2E_Version(t *testing.T) {
	out, _, code := run(t, t.TempDir(), "--version")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "0.4.0-test") {
		t.Errorf("expected version output to contain '0.4.0-test', got %q", out)
	}
}

func TestE2E_Help(t *testing.T) {
	out, _, code := run(t, t.TempDir(), "--help")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, want := range []string{"Available Commands", "render", "serve", "years"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected help to contain %q", want)
		}
	}
}

func TestE2E_UnknownCommand(t *testing.T) {
	_, _, code := run(t, t.TempDir(), "explode")
	if code == 0 {
		t.Fatal("expected non-zero exit for unknown command")
	}
}

// --- Config ---

func TestE2E_ConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()
	if _, _, code := run(t, dir, "config", "init"); code != 0 {
		t.Fatalf("config init: exit %d", code)
	}
	if _, err := os.Stat(filepath.Join(dir, ".config", "mentorgraph", "config.toml")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	out, _, code := run(t, dir, "config", "show")
	if code != 0 {
		t.Fatalf("config show: exit %d", code)
	}
	if !strings.Contains(out, "[simulation]") || !strings.Contains(out, "parainage-telecom.svg") {
		t.Errorf("unexpected config output: %q", out)
	}
}

func TestE2E_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(path, []byte("[view]\nwidth = -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, code := run(t, dir, "--config", path, "config", "show")
	if code == 0 {
		t.Fatal("expected non-zero exit for invalid config")
	}
}

// --- Dataset ---

func TestE2E_YearsJSON(t *testing.T) {
	dir := workdir(t)
	out, _, code := run(t, dir, append(data, "years", "--json")...)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	var years []struct {
		Year  string `json:"year"`
		Links int    `json:"links"`
	}
	if err := json.Unmarshal([]byte(out), &years); err != nil {
		t.Fatalf("decode years: %v\n%s", err, out)
	}
	if len(years) != 2 || years[0].Year != "2023/2024" || years[0].Links != 2 {
		t.Errorf("unexpected years: %+v", years)
	}
}

func TestE2E_MissingDataset(t *testing.T) {
	dir := t.TempDir()
	_, _, code := run(t, dir, "--students", "nope.json", "--tutoring", "nope.yaml", "years")
	if code == 0 {
		t.Fatal("expected non-zero exit for missing files")
	}
}

// --- Render ---

func TestE2E_RenderFile(t *testing.T) {
	dir := workdir(t)
	_, _, code := run(t, dir, append(data, "render", "--arrange")...)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	svg, err := os.ReadFile(filepath.Join(dir, "parainage-telecom.svg"))
	if err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	if !strings.Contains(string(svg), "Grace Hopper") {
		t.Error("snapshot missing a node label")
	}

	out, _, code := run(t, dir, "activity", "--count", "0")
	if code != 0 {
		t.Fatalf("activity: exit %d", code)
	}
	if !strings.Contains(out, "Promo arrange") || !strings.Contains(out, "Export: saved") {
		t.Errorf("activity missing render notifications: %q", out)
	}
}

func TestE2E_RenderDOTToStdout(t *testing.T) {
	dir := workdir(t)
	out, _, code := run(t, dir, append(data, "render", "--format", "dot", "-o", "-", "--year", "2024/2025")...)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, `"2" -> "3"`) || strings.Contains(out, `"1" -> "2"`) {
		t.Errorf("unexpected DOT output: %q", out)
	}
}

// --- Serve ---

func TestE2E_ServeStatusNotRunning(t *testing.T) {
	out, _, code := run(t, t.TempDir(), "serve", "status")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "not running") {
		t.Errorf("unexpected status output: %q", out)
	}
}
