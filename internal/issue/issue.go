// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ImagofileNotFoundId Id = iota + 1
	ImagofileParseErrorId
	QueryResolutionFailedId
	RecursiveRuleId
	UngroundArgumentId
	ContainerEngineNotFoundId
	ImageBuildFailedId
	ConfigLoadFailedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty, because we need to have docs about all issue types
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	imagofileNotFoundIssue = &Issue{
		id: ImagofileNotFoundId,
		mdMsg: `
# No Imagofile found!

We searched for an Imagofile but couldn't find one in the expected locations.

## Search locations (in order of precedence):
1. The path given via --file
2. Current directory
3. Parent directories up to the filesystem root

## Things you can try:
- Create an Imagofile in your current directory:
~~~
app("prod") :-
    from("alpine:3.20"),
    run("apk add --no-cache ca-certificates").
~~~

- Or point imago at an existing one:
~~~
$ imago build --file path/to/Imagofile 'app("prod")'
~~~`,
	}

	imagofileParseErrorIssue = &Issue{
		id: ImagofileParseErrorId,
		mdMsg: `
# Failed to parse Imagofile!

Your Imagofile contains a syntax error.

## Common issues:
- A clause missing its terminating period
- An unterminated string literal
- Unbalanced parentheses in a rule body
- A builtin name used as a rule head (from, run, copy, ...)

## Things you can try:
- Check the line/column reported above
- Validate the file without building:
~~~
$ imago check
~~~

## Example of a valid rule:
~~~
app(Variant) :-
    (base(), build(Variant)) :: set_entrypoint("/usr/local/bin/app").
~~~`,
	}

	queryResolutionFailedIssue = &Issue{
		id: QueryResolutionFailedId,
		mdMsg: `
# Query could not be resolved!

No rule in the Imagofile derives the query you asked for.

## Things you can try:
- Check for typos in the predicate name and its arguments
- Remember that arguments unify literally:
  ` + "`app(\"prod\")`" + ` only matches a clause head compatible with ` + "`\"prod\"`" + `
- Inspect the rules imago sees:
~~~
$ imago plan 'app(X)'
~~~

- If a disjunction (';') is involved, at least one alternative must succeed`,
	}

	recursiveRuleIssue = &Issue{
		id: RecursiveRuleId,
		mdMsg: `
# Recursive rule detected!

A predicate depends on itself, directly or through other predicates.
Build derivations must be finite, so recursion is rejected.

## Example of a cycle:
~~~
base() :- tools().
tools() :- base().   # cycle: base -> tools -> base
~~~

## Things you can try:
- Review the chain of predicates reported above
- Restructure the rules into a linear derivation
- Shared predicates are fine; only cycles are rejected`,
	}

	ungroundArgumentIssue = &Issue{
		id: UngroundArgumentId,
		mdMsg: `
# Unground argument!

A build step still contains an unbound variable after resolution,
so imago cannot tell what to execute.

## Things you can try:
- Bind the variable in the query: ` + "`app(\"prod\")`" + ` instead of ` + "`app(X)`" + `
- Bind it in the rule body with unification:
~~~
app(V) :-
    V = "prod",
    from("alpine:3.20").
~~~

- Check that every variable used in a builtin appears in the clause head
  or is bound earlier in the body`,
	}

	containerEngineNotFoundIssue = &Issue{
		id: ContainerEngineNotFoundId,
		mdMsg: `
# Container engine not found!

imago needs Docker or Podman to execute builds, and neither was found.

## Supported container engines:
- **Docker**
- **Podman**

## Things you can try:
- Install Docker:
  - https://docs.docker.com/get-docker/

- Install Podman:
  - Linux: ` + "`sudo apt install podman`" + ` or ` + "`sudo dnf install podman`" + `
  - macOS: ` + "`brew install podman`" + `

- Configure your preferred engine in ~/.config/imago/config.cue:
~~~cue
container_engine: "podman"  // or "docker"
~~~

- Translation alone needs no engine:
~~~
$ imago plan --dockerfile 'app("prod")'
~~~`,
	}

	imageBuildFailedIssue = &Issue{
		id: ImageBuildFailedId,
		mdMsg: `
# Image build failed!

The container engine reported an error while building one of the targets.

## Common causes:
- A run() step exited non-zero
- A copy() source path does not exist in the build context
- The base image could not be pulled

## Things you can try:
- Read the engine output above; it names the failing step
- Re-run the failing step's command inside the base image manually
- Retry without the cache if a stale layer is suspected:
~~~
$ imago build --no-cache 'app("prod")'
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the imago configuration file.

## Configuration file locations:
- Linux: ~/.config/imago/config.cue
- macOS: ~/Library/Application Support/imago/config.cue
- Windows: %APPDATA%\imago\config.cue

## Things you can try:
- Check the configuration syntax
- Remove the config file to use defaults:
~~~
$ rm ~/.config/imago/config.cue
~~~

## Example configuration:
~~~cue
container_engine: "docker"
concurrency:      4
tag_prefix:       "imago"
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

You don't have permission to perform this operation.

## Common causes:
- The container engine socket requires elevated permissions
- The cache directory is not writable
- The build context contains unreadable files

## Things you can try:
- For Docker, ensure you're in the docker group:
~~~
$ sudo usermod -aG docker $USER
~~~

- Use rootless containers with Podman
- Point the cache somewhere writable:
~~~
$ imago build --cache-dir /tmp/imago-cache 'app("prod")'
~~~`,
	}

	issues = map[Id]*Issue{
		imagofileNotFoundIssue.Id():       imagofileNotFoundIssue,
		imagofileParseErrorIssue.Id():     imagofileParseErrorIssue,
		queryResolutionFailedIssue.Id():   queryResolutionFailedIssue,
		recursiveRuleIssue.Id():           recursiveRuleIssue,
		ungroundArgumentIssue.Id():        ungroundArgumentIssue,
		containerEngineNotFoundIssue.Id(): containerEngineNotFoundIssue,
		imageBuildFailedIssue.Id():        imageBuildFailedIssue,
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		permissionDeniedIssue.Id():        permissionDeniedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
