// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/imago-dev/imago/pkg/imagofile"
)

// writeImagofile writes source as <dir>/Imagofile and returns the path.
func writeImagofile(t *testing.T, dir, source string) string {
	t.Helper()
	path := filepath.Join(dir, imagofile.DefaultName)
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("failed to write Imagofile: %v", err)
	}
	return path
}

// runCheckIn runs the check command against dir, capturing stdout/stderr.
// Not parallel-safe: mutates the package-level flag vars.
func runCheckIn(t *testing.T, dir string) (string, string, error) {
	t.Helper()

	origFile, origDir := checkFile, checkContextDir
	t.Cleanup(func() { checkFile, checkContextDir = origFile, origDir })
	checkFile, checkContextDir = "", dir

	var stdout, stderr bytes.Buffer
	checkCmd.SetOut(&stdout)
	checkCmd.SetErr(&stderr)
	t.Cleanup(func() {
		checkCmd.SetOut(nil)
		checkCmd.SetErr(nil)
	})

	err := runCheck(checkCmd, nil)
	return stdout.String(), stderr.String(), err
}

func TestRunCheck_ValidProgram(t *testing.T) {
	dir := t.TempDir()
	writeImagofile(t, dir, `
base() :- from("alpine:3.20").

app("prod") :-
    base(),
    run("apk add --no-cache ca-certificates").
`)

	stdout, stderr, err := runCheckIn(t, dir)
	if err != nil {
		t.Fatalf("runCheck() error = %v (stderr: %s)", err, stderr)
	}

	if !strings.Contains(stdout, "2 clauses") {
		t.Errorf("output %q should mention 2 clauses", stdout)
	}
	if !strings.Contains(stdout, "base") || !strings.Contains(stdout, "app") {
		t.Errorf("output %q should list the predicates", stdout)
	}
}

func TestRunCheck_ParseError(t *testing.T) {
	dir := t.TempDir()
	writeImagofile(t, dir, `app("prod") :- from("alpine:3.20")`)

	_, _, err := runCheckIn(t, dir)
	if err == nil {
		t.Fatal("runCheck() should fail for a clause missing its period")
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error type = %T, want *ExitError", err)
	}
	if exitErr.Code != 1 {
		t.Errorf("exit code = %d, want 1", exitErr.Code)
	}
}

func TestRunCheck_BuiltinRedefinition(t *testing.T) {
	dir := t.TempDir()
	writeImagofile(t, dir, `run("x") :- from("alpine:3.20").`)

	_, _, err := runCheckIn(t, dir)
	if err == nil {
		t.Fatal("runCheck() should reject a rule head that redefines a builtin")
	}
}

func TestRunCheck_NoImagofile(t *testing.T) {
	_, _, err := runCheckIn(t, t.TempDir())
	if err == nil {
		t.Fatal("runCheck() should fail when no Imagofile exists")
	}
}
