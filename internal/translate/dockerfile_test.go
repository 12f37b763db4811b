// SPDX-License-Identifier: MPL-2.0

package translate

import (
	"strings"
	"testing"

	"github.com/imago-dev/imago/internal/logic"
	"github.com/imago-dev/imago/internal/plan"
	"github.com/imago-dev/imago/internal/resolve"
)

func compile(t *testing.T, src, query string) *plan.Plan {
	t.Helper()
	prog, err := logic.Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	lit, err := logic.ParseQuery(query)
	if err != nil {
		t.Fatalf("ParseQuery() error = %v", err)
	}
	sols, err := resolve.Resolve(prog, lit)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	p, err := plan.Compile(sols)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return p
}

func render(t *testing.T, src, query string) string {
	t.Helper()
	out, err := Dockerfile(compile(t, src, query))
	if err != nil {
		t.Fatalf("Dockerfile() error = %v", err)
	}
	return out
}

func TestDockerfile_LinearChain(t *testing.T) {
	t.Parallel()

	got := render(t, `app :- from("alpine:3.20"), run("apk add git").`, "app")
	want := "FROM alpine:3.20 AS n0\n\nFROM n0 AS n1\nRUN apk add git\n"
	if got != want {
		t.Errorf("Dockerfile() = %q, want %q", got, want)
	}
}

func TestDockerfile_WorkdirLines(t *testing.T) {
	t.Parallel()

	src := `app :- from("alpine"), run("make")::in_workdir("/src"), run("true").`
	got := render(t, src, "app")
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")

	var workdirs []string
	for _, l := range lines {
		if strings.HasPrefix(l, "WORKDIR ") {
			workdirs = append(workdirs, strings.TrimPrefix(l, "WORKDIR "))
		}
	}
	// The scoped stage sets /src; the following stage restores the root.
	if len(workdirs) != 2 || workdirs[0] != "/src" || workdirs[1] != "/" {
		t.Errorf("WORKDIR lines = %v, want [/src /]", workdirs)
	}
}

func TestDockerfile_SetWorkdirPersists(t *testing.T) {
	t.Parallel()

	src := `
a :- from("alpine")::set_workdir("/tmp/new_dir"),
     run("echo aaa > a").
`
	got := render(t, src, "a")
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")

	var workdirs []string
	for _, l := range lines {
		if strings.HasPrefix(l, "WORKDIR ") {
			workdirs = append(workdirs, strings.TrimPrefix(l, "WORKDIR "))
		}
	}
	// The run stage inherits the directory through its parent stage, so
	// no second WORKDIR appears and nothing resets it.
	if len(workdirs) != 1 || workdirs[0] != "/tmp/new_dir" {
		t.Errorf("WORKDIR lines = %v, want [/tmp/new_dir]", workdirs)
	}
}

func TestDockerfile_UserAndPath(t *testing.T) {
	t.Parallel()

	src := `app :- from("alpine")::set_user("deploy")::append_path("/opt/bin").`
	got := render(t, src, "app")
	if !strings.Contains(got, "USER deploy") {
		t.Errorf("missing USER instruction in:\n%s", got)
	}
	if !strings.Contains(got, `ENV PATH="$PATH:/opt/bin"`) {
		t.Errorf("missing PATH append in:\n%s", got)
	}
}

func TestDockerfile_CopyForms(t *testing.T) {
	t.Parallel()

	src := `
builder :- from("golang:1.25"), copy(".", "/src"), run("cd /src && go build -o /out/app .").
app :- from("alpine"), builder::copy("/out/app", "/usr/local/bin/app").
`
	got := render(t, src, "app")
	if !strings.Contains(got, `COPY [".","/src"]`) {
		t.Errorf("missing local copy instruction in:\n%s", got)
	}
	wantFrom := `COPY --from=n3 ["/out/app","/usr/local/bin/app"]`
	if !strings.Contains(got, wantFrom) {
		t.Errorf("missing %q in:\n%s", wantFrom, got)
	}
}

func TestDockerfile_EnvPrefixQuoting(t *testing.T) {
	t.Parallel()

	src := `app :- from("alpine"), run("make")::in_env("CFLAGS", "-O2 -g").`
	got := render(t, src, "app")
	if !strings.Contains(got, "RUN CFLAGS='-O2 -g' make") {
		t.Errorf("scoped env not quoted into the run line:\n%s", got)
	}
}

func TestDockerfile_ConfigInstructions(t *testing.T) {
	t.Parallel()

	src := `
app :- from("scratch")
	::set_env("PATH", "/bin")
	::set_entrypoint("/bin/app")
	::set_cmd("serve")
	::set_label("org.label", "a b").
`
	got := render(t, src, "app")
	for _, want := range []string{
		"FROM scratch AS n0",
		`ENV PATH="/bin"`,
		"ENTRYPOINT /bin/app",
		"CMD serve",
		`LABEL org.label="a b"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestDockerfile_EscapesPassThrough(t *testing.T) {
	t.Parallel()

	src := `app :- from("alpine"), run("printf \"a\nb\"").`
	got := render(t, src, "app")
	if !strings.Contains(got, `RUN printf \"a\nb\"`) {
		t.Errorf("escape sequences not preserved verbatim:\n%s", got)
	}
}

func TestDockerfile_InvalidEnvKey(t *testing.T) {
	t.Parallel()

	src := `app :- from("alpine"), run("make")::in_env("BAD KEY", "v").`
	_, err := Dockerfile(compile(t, src, "app"))
	if err == nil {
		t.Fatal("Dockerfile() succeeded, want error")
	}
	if !strings.Contains(err.Error(), "BAD KEY") {
		t.Errorf("error %v does not name the key", err)
	}
}

func TestStageName(t *testing.T) {
	t.Parallel()

	if got := StageName(7); got != "n7" {
		t.Errorf("StageName(7) = %q, want n7", got)
	}
}
