// main_test.go
package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	cutarelease "github.com/bcomnes/cutarelease/pkg"
)

// TestMain triggers the CLI as a subprocess when GO_HELPER_PROCESS is set.
func TestMain(m *testing.M) {
	if os.Getenv("GO_HELPER_PROCESS") == "1" {
		main()
		os.Exit(0)
	}
	os.Exit(m.Run())
}

// gitEnv isolates git from the user's global and system configuration.
var gitEnv = []string{"GIT_CONFIG_GLOBAL=" + os.DevNull, "GIT_CONFIG_NOSYSTEM=1"}

// runCLI runs the CLI in helper process mode, feeding it stdin, and returns
// its combined output and exit code.
func runCLI(t *testing.T, stdin string, args []string, extraEnv ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(os.Args[0], args...)
	cmd.Env = append(os.Environ(), "GO_HELPER_PROCESS=1")
	cmd.Env = append(cmd.Env, gitEnv...)
	cmd.Env = append(cmd.Env, extraEnv...)
	cmd.Stdin = strings.NewReader(stdin)
	out, err := cmd.CombinedOutput()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return string(out), 0
	case errors.As(err, &exitErr):
		return string(out), exitErr.ExitCode()
	default:
		t.Fatalf("failed to run CLI: %v", err)
		return "", -1
	}
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), gitEnv...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
	return string(out)
}

const (
	testChangelog = "# myproj Changelog\n\n## myproj 1.0.1 (not yet released)\n\n- added foo\n"
	testPython    = "\"\"\"myproj\"\"\"\n\n__version_info__ = (1, 0, 1)\n__version__ = '.'.join(map(str, __version_info__))\n"
)

// newRepo creates a git repository holding files, all committed.
func newRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	requireGit(t)
	dir := t.TempDir()
	runGit(t, dir, "init")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "initial commit")
	return dir
}

// addRemote gives dir a bare origin with an upstream branch.
func addRemote(t *testing.T, dir string) string {
	t.Helper()
	remote := t.TempDir()
	runGit(t, remote, "init", "--bare")
	runGit(t, dir, "remote", "add", "origin", remote)
	runGit(t, dir, "push", "-u", "origin", "HEAD")
	return remote
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestCLIHelp(t *testing.T) {
	out, code := runCLI(t, "", []string{"--help"})
	if code != 0 {
		t.Errorf("exit code = %d, expected 0", code)
	}
	for _, s := range []string{"cutarelease", "--dry-run", "--version-file", "--changelog", "--no-publish"} {
		if !strings.Contains(out, s) {
			t.Errorf("help output lacks %q:\n%s", s, out)
		}
	}
}

func TestCLIVersionFlag(t *testing.T) {
	out, _ := runCLI(t, "", []string{"--version"})
	if !strings.Contains(out, Version) {
		t.Errorf("expected CLI version in output, got:\n%s", out)
	}
}

func TestCLIUnexpectedArgs(t *testing.T) {
	out, code := runCLI(t, "", []string{"1.2.3"})
	if code != exitError {
		t.Errorf("exit code = %d, expected %d", code, exitError)
	}
	if !strings.Contains(out, "unexpected arguments [1.2.3]") {
		t.Errorf("expected unexpected arguments error, got:\n%s", out)
	}
}

func TestCLINoVersionFile(t *testing.T) {
	dir := t.TempDir()
	out, code := runCLI(t, "", []string{"-C", dir, "-n", "-v"})
	if code != exitError {
		t.Errorf("exit code = %d, expected %d", code, exitError)
	}
	for _, s := range []string{"cutarelease: error: could not find a version file", "error class: input error"} {
		if !strings.Contains(out, s) {
			t.Errorf("output lacks %q:\n%s", s, out)
		}
	}
}

// TestCLIProcessErrorExitCode checks that a failing git command exits 1 with
// the one-line error, not with git's own status.
func TestCLIProcessErrorExitCode(t *testing.T) {
	dir := newRepo(t, map[string]string{
		"CHANGES.md": testChangelog,
		"VERSION":    "1.0.1\n",
	})
	out, code := runCLI(t, "", []string{"-y", "-C", dir, "--no-publish", "-v"})
	if code != exitError {
		t.Errorf("exit code = %d, expected %d", code, exitError)
	}
	for _, s := range []string{
		"cutarelease: error: error running 'git push --tags'",
		"cutarelease: error class: process error",
		"cutarelease: command: git push --tags (exit status 128)",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("output lacks %q:\n%s", s, out)
		}
	}
}

func TestCLIVerboseFromEnv(t *testing.T) {
	dir := t.TempDir()
	out, code := runCLI(t, "", []string{"-C", dir, "-n"}, "CUTARELEASE_VERBOSE=false")
	if code != exitError {
		t.Errorf("exit code = %d, expected %d", code, exitError)
	}
	if strings.Contains(out, "error class:") {
		t.Errorf("CUTARELEASE_VERBOSE=false still printed verbose detail:\n%s", out)
	}

	out, _ = runCLI(t, "", []string{"-C", dir, "-n"}, "CUTARELEASE_VERBOSE=true")
	if !strings.Contains(out, "error class: input error") {
		t.Errorf("CUTARELEASE_VERBOSE=true did not print verbose detail:\n%s", out)
	}
}

func TestCLIDryRun(t *testing.T) {
	dir := newRepo(t, map[string]string{
		"CHANGES.md": testChangelog,
		"myproj.py":  testPython,
	})
	out, code := runCLI(t, "", []string{"-C", dir, "-p", "myproj", "-n"})
	if code != 0 {
		t.Fatalf("exit code = %d, output:\n%s", code, out)
	}
	for _, s := range []string{
		"Dry run complete",
		"Released Version: 1.0.1",
		"Next Version:     1.0.2",
		"Actions that would be taken:",
		"  tag 1.0.1\n",
		"  commit CHANGES.md myproj.py: prep for future dev\n",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("output lacks %q:\n%s", s, out)
		}
	}
	if got := readFile(t, dir, "CHANGES.md"); got != testChangelog {
		t.Errorf("dry run modified the changelog:\n%s", got)
	}
	if tags := runGit(t, dir, "tag", "-l"); tags != "" {
		t.Errorf("dry run created tags %q", tags)
	}
	if n := strings.Count(runGit(t, dir, "log", "--oneline"), "\n"); n != 1 {
		t.Errorf("dry run made commits, log has %d entries", n)
	}
}

func TestCLIRelease(t *testing.T) {
	dir := newRepo(t, map[string]string{
		"CHANGES.md": testChangelog,
		"myproj.py":  testPython,
	})
	remote := addRemote(t, dir)

	out, code := runCLI(t, "", []string{"-C", dir, "-p", "myproj", "-y"})
	if code != 0 {
		t.Fatalf("exit code = %d, output:\n%s", code, out)
	}
	if !strings.Contains(out, "Release successful!") || !strings.Contains(out, "Actions taken:") {
		t.Errorf("unexpected output:\n%s", out)
	}

	expected := "# myproj Changelog\n\n## myproj 1.0.2 (not yet released)\n\n(nothing yet)\n\n\n## myproj 1.0.1\n\n- added foo\n"
	if got := readFile(t, dir, "CHANGES.md"); got != expected {
		t.Errorf("changelog =\n%q\nexpected\n%q", got, expected)
	}
	if got := readFile(t, dir, "myproj.py"); !strings.Contains(got, "__version_info__ = (1, 0, 2)\n") {
		t.Errorf("version file not advanced:\n%s", got)
	}

	log := runGit(t, dir, "log", "--format=%s")
	if log != "prep for future dev\nprepare for 1.0.1 release\ninitial commit\n" {
		t.Errorf("git log =\n%s", log)
	}
	// The tag points at the release commit.
	if got := runGit(t, dir, "log", "-1", "--format=%s", "1.0.1"); got != "prepare for 1.0.1 release\n" {
		t.Errorf("tag 1.0.1 points at %q", got)
	}
	if got := runGit(t, dir, "show", "1.0.1:CHANGES.md"); got != "# myproj Changelog\n\n## myproj 1.0.1\n\n- added foo\n" {
		t.Errorf("released changelog = %q", got)
	}
	if got := runGit(t, remote, "tag", "-l"); got != "1.0.1\n" {
		t.Errorf("remote tags = %q", got)
	}
	if got := runGit(t, remote, "log", "-1", "--format=%s"); got != "prep for future dev\n" {
		t.Errorf("remote head = %q", got)
	}

	// The next section is empty, so a second release is refused.
	out, code = runCLI(t, "", []string{"-C", dir, "-p", "myproj", "-y"})
	if code != exitError || !strings.Contains(out, "nothing has been added to this release") {
		t.Errorf("second release: exit code %d, output:\n%s", code, out)
	}
}

func TestCLIAbort(t *testing.T) {
	dir := newRepo(t, map[string]string{
		"CHANGES.md": testChangelog,
		"VERSION":    "1.0.1\n",
	})
	out, code := runCLI(t, "no\n", []string{"-C", dir})
	if code != 0 {
		t.Fatalf("exit code = %d, output:\n%s", code, out)
	}
	if !strings.Contains(out, "cut a 1.0.1 release?") || !strings.Contains(out, "Release aborted (user abort).") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if got := readFile(t, dir, "CHANGES.md"); got != testChangelog {
		t.Errorf("aborted run modified the changelog:\n%s", got)
	}
}

func TestCLINoAnswer(t *testing.T) {
	dir := newRepo(t, map[string]string{
		"CHANGES.md": testChangelog,
		"VERSION":    "1.0.1\n",
	})
	out, code := runCLI(t, "", []string{"-C", dir})
	if code != exitError || !strings.Contains(out, "no answer") {
		t.Errorf("exit code %d, output:\n%s", code, out)
	}
}

func TestCLIConfigAndEnv(t *testing.T) {
	dir := newRepo(t, map[string]string{
		"HISTORY.md":       "## 0.3.0 (not yet released)\n\n- a\n",
		"src/version.txt":  "var VERSION = \"0.3.0\";\n",
		".cutarelease.yml": "changelog: HISTORY.md\nversion_files:\n  - js:src/version.txt\n",
		"package.json":     `{"version": "9.9.9"}`,
	})
	out, code := runCLI(t, "", nil, "CUTARELEASE_DIR="+dir, "CUTARELEASE_DRY_RUN=true")
	if code != 0 {
		t.Fatalf("exit code = %d, output:\n%s", code, out)
	}
	for _, s := range []string{"Released Version: 0.3.0", "write src/version.txt", "publish to npm (after confirmation)"} {
		if !strings.Contains(out, s) {
			t.Errorf("output lacks %q:\n%s", s, out)
		}
	}

	// Flags win over the config file.
	out, code = runCLI(t, "", []string{"-C", dir, "-n", "--no-publish", "-f", "package.json"})
	if code != exitError || !strings.Contains(out, "expected version \"9.9.9\"") {
		t.Errorf("exit code %d, output:\n%s", code, out)
	}
	if strings.Contains(out, "publish to npm") {
		t.Errorf("--no-publish still offered to publish:\n%s", out)
	}
}

func TestCLIBadConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "release.yml"), []byte("changelog: \"\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	out, code := runCLI(t, "", []string{"-C", dir, "--config", "release.yml", "-n"})
	if code != exitError || !strings.Contains(out, "release.yml") {
		t.Errorf("exit code %d, output:\n%s", code, out)
	}
}

func TestReportError(t *testing.T) {
	cmdErr := &cutarelease.CommandError{
		Command: cutarelease.Cmd(".", "git", "push"),
		Err:     errors.New("exit status 128"),
	}
	err := fmt.Errorf("push failed: %w", cmdErr)

	var buf bytes.Buffer
	if code := reportError(&buf, err, false); code != exitError {
		t.Errorf("reportError = %d, expected %d", code, exitError)
	}
	if got := buf.String(); got != "cutarelease: error: push failed: error running 'git push': exit status 128\n" {
		t.Errorf("output = %q", got)
	}

	buf.Reset()
	reportError(&buf, err, true)
	for _, s := range []string{"error class: process error", "command: git push (exit status -1)"} {
		if !strings.Contains(buf.String(), s) {
			t.Errorf("verbose output lacks %q: %q", s, buf.String())
		}
	}
}
