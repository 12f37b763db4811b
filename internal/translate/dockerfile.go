// SPDX-License-Identifier: MPL-2.0

// Package translate renders a build plan as one multi-stage Dockerfile.
// Every plan node becomes a named stage, so any node can be built (and
// layer-cached) independently with the backend's target selection.
package translate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/imago-dev/imago/internal/plan"
)

// StageName returns the Dockerfile stage name of a node.
func StageName(id plan.NodeID) string {
	return fmt.Sprintf("n%d", id)
}

// EnvKeyError is returned when a scoped environment key cannot be used as
// a shell assignment.
type EnvKeyError struct {
	Key string
}

func (e *EnvKeyError) Error() string {
	return fmt.Sprintf("environment key %q is not a valid shell identifier", e.Key)
}

var envKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Dockerfile renders the whole plan. Stages appear in topological order
// so every FROM and COPY --from reference points backwards.
func Dockerfile(p *plan.Plan) (string, error) {
	order, err := p.TopologicalOrder()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	// effective tracks the working directory each stage leaves behind,
	// since child stages inherit it through FROM. The empty string means
	// the base image's default.
	effective := make(map[plan.NodeID]string, len(order))

	for _, id := range order {
		n := p.Node(id)
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		switch n.Kind {
		case plan.KindFrom:
			fmt.Fprintf(&sb, "FROM %s AS %s\n", n.Image, StageName(n.ID))
			effective[n.ID] = ""

		case plan.KindRun:
			effective[n.ID] = emitStage(&sb, p, n, effective)
			line, err := runLine(n)
			if err != nil {
				return "", err
			}
			sb.WriteString(line)
			sb.WriteByte('\n')

		case plan.KindCopyLocal:
			effective[n.ID] = emitStage(&sb, p, n, effective)
			fmt.Fprintf(&sb, "COPY %s\n", jsonArgs(n.SrcPath, n.DstPath))

		case plan.KindCopyImage:
			effective[n.ID] = emitStage(&sb, p, n, effective)
			fmt.Fprintf(&sb, "COPY --from=%s %s\n", StageName(n.Source), jsonArgs(n.SrcPath, n.DstPath))

		case plan.KindSetWorkdir:
			fmt.Fprintf(&sb, "FROM %s AS %s\n", StageName(n.Parent), StageName(n.ID))
			fmt.Fprintf(&sb, "WORKDIR %s\n", n.Workdir)
			effective[n.ID] = n.Workdir

		case plan.KindSetEnv:
			fmt.Fprintf(&sb, "FROM %s AS %s\n", StageName(n.Parent), StageName(n.ID))
			fmt.Fprintf(&sb, "ENV %s=%s\n", n.Key, strconv.Quote(n.Value))
			effective[n.ID] = effective[n.Parent]

		case plan.KindSetEntrypoint:
			fmt.Fprintf(&sb, "FROM %s AS %s\n", StageName(n.Parent), StageName(n.ID))
			// Shell form: a flat command string runs through the shell.
			fmt.Fprintf(&sb, "ENTRYPOINT %s\n", n.Command)
			effective[n.ID] = effective[n.Parent]

		case plan.KindSetCmd:
			fmt.Fprintf(&sb, "FROM %s AS %s\n", StageName(n.Parent), StageName(n.ID))
			fmt.Fprintf(&sb, "CMD %s\n", n.Command)
			effective[n.ID] = effective[n.Parent]

		case plan.KindSetLabel:
			fmt.Fprintf(&sb, "FROM %s AS %s\n", StageName(n.Parent), StageName(n.ID))
			fmt.Fprintf(&sb, "LABEL %s=%s\n", n.Key, strconv.Quote(n.Value))
			effective[n.ID] = effective[n.Parent]

		case plan.KindSetUser:
			fmt.Fprintf(&sb, "FROM %s AS %s\n", StageName(n.Parent), StageName(n.ID))
			fmt.Fprintf(&sb, "USER %s\n", n.Value)
			effective[n.ID] = effective[n.Parent]

		case plan.KindAppendPath:
			fmt.Fprintf(&sb, "FROM %s AS %s\n", StageName(n.Parent), StageName(n.ID))
			fmt.Fprintf(&sb, "ENV PATH=%s\n", strconv.Quote("$PATH:"+n.Value))
			effective[n.ID] = effective[n.Parent]

		default:
			return "", fmt.Errorf("unsupported node kind %s", n.Kind)
		}
	}
	return sb.String(), nil
}

// emitStage writes the FROM line of a filesystem stage and, when needed,
// a WORKDIR line that makes the stage's directory match the node. It
// returns the directory the stage leaves in effect. A node without a
// workdir restores the root when an ancestor stage changed it.
func emitStage(sb *strings.Builder, p *plan.Plan, n *plan.Node, effective map[plan.NodeID]string) string {
	fmt.Fprintf(sb, "FROM %s AS %s\n", StageName(n.Parent), StageName(n.ID))
	inherited := effective[n.Parent]
	want := n.Workdir
	if want == "" && inherited != "" {
		want = "/"
	}
	if want != "" && want != inherited {
		fmt.Fprintf(sb, "WORKDIR %s\n", want)
		return want
	}
	return inherited
}

// runLine renders a RUN instruction with the node's scoped environment
// assignments prefixed in shell form.
func runLine(n *plan.Node) (string, error) {
	var sb strings.Builder
	sb.WriteString("RUN ")
	for _, e := range n.Env {
		if !envKeyPattern.MatchString(e.Key) {
			return "", &EnvKeyError{Key: e.Key}
		}
		quoted, err := syntax.Quote(e.Value, syntax.LangPOSIX)
		if err != nil {
			return "", fmt.Errorf("quoting value of %s: %w", e.Key, err)
		}
		fmt.Fprintf(&sb, "%s=%s ", e.Key, quoted)
	}
	// The command is a shell fragment from the program source and is
	// inserted verbatim, escape sequences included.
	sb.WriteString(n.Command)
	return sb.String(), nil
}

// jsonArgs renders arguments in Dockerfile JSON (exec) form, which keeps
// paths with spaces intact.
func jsonArgs(args ...string) string {
	b, _ := json.Marshal(args)
	return string(b)
}
