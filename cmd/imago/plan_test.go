// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"strings"
	"testing"
)

// runPlanIn runs the plan command against dir, capturing stdout/stderr.
// Not parallel-safe: mutates the package-level flag vars.
func runPlanIn(t *testing.T, dir, query string, dockerfile bool) (string, string, error) {
	t.Helper()

	origFile, origDir, origDf := planFile, planContextDir, planDockerfile
	t.Cleanup(func() { planFile, planContextDir, planDockerfile = origFile, origDir, origDf })
	planFile, planContextDir, planDockerfile = "", dir, dockerfile

	var stdout, stderr bytes.Buffer
	planCmd.SetOut(&stdout)
	planCmd.SetErr(&stderr)
	t.Cleanup(func() {
		planCmd.SetOut(nil)
		planCmd.SetErr(nil)
	})

	err := runPlan(planCmd, []string{query})
	return stdout.String(), stderr.String(), err
}

const planTestProgram = `
base() :- from("alpine:3.20").

app("prod") :-
    (base(),
     run("apk add --no-cache ca-certificates")) :: set_entrypoint("/bin/app").
`

func TestRunPlan_NodeGraph(t *testing.T) {
	dir := t.TempDir()
	writeImagofile(t, dir, planTestProgram)

	stdout, stderr, err := runPlanIn(t, dir, `app("prod")`, false)
	if err != nil {
		t.Fatalf("runPlan() error = %v (stderr: %s)", err, stderr)
	}

	for _, want := range []string{"Plan", "Targets", "alpine:3.20", "from", "run", `app("prod")`} {
		if !strings.Contains(stdout, want) {
			t.Errorf("plan output should contain %q, got:\n%s", want, stdout)
		}
	}
}

func TestRunPlan_Dockerfile(t *testing.T) {
	dir := t.TempDir()
	writeImagofile(t, dir, planTestProgram)

	stdout, stderr, err := runPlanIn(t, dir, `app("prod")`, true)
	if err != nil {
		t.Fatalf("runPlan() error = %v (stderr: %s)", err, stderr)
	}

	if !strings.Contains(stdout, "FROM alpine:3.20 AS n0") {
		t.Errorf("Dockerfile output should start stages from alpine, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "RUN apk add --no-cache ca-certificates") {
		t.Errorf("Dockerfile output should contain the run step, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "ENTRYPOINT /bin/app") {
		t.Errorf("Dockerfile output should contain the entrypoint, got:\n%s", stdout)
	}
}

func TestRunPlan_UndefinedPredicate(t *testing.T) {
	dir := t.TempDir()
	writeImagofile(t, dir, planTestProgram)

	_, _, err := runPlanIn(t, dir, `missing("x")`, false)
	if err == nil {
		t.Fatal("runPlan() should fail for an undefined predicate")
	}
}
