// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/imago-dev/imago/internal/evaluate"
	"github.com/imago-dev/imago/internal/plan"
	"github.com/imago-dev/imago/internal/translate"
	"github.com/imago-dev/imago/pkg/imagofile"

	"github.com/spf13/cobra"
)

var (
	planFile       string
	planContextDir string
	planDockerfile bool

	planCmd = &cobra.Command{
		Use:   "plan <query>",
		Short: "Show the build plan for a query without building",
		Long: `Plan resolves the query and compiles it into the deduplicated
build plan, but stops before invoking a container engine. By default
it prints the plan's nodes in build order plus the query's targets;
with --dockerfile it prints the generated multi-stage Dockerfile.`,
		Example: `  imago plan 'app("prod")'
  imago plan --dockerfile 'app(X)' > Dockerfile`,
		Args: cobra.ExactArgs(1),
		RunE: runPlan,
	}
)

func init() {
	planCmd.Flags().StringVarP(&planFile, "file", "f", "", "path to the Imagofile (default: <context>/Imagofile)")
	planCmd.Flags().StringVar(&planContextDir, "context", ".", "build context directory")
	planCmd.Flags().BoolVar(&planDockerfile, "dockerfile", false, "print the generated Dockerfile instead of the node graph")
}

func runPlan(cmd *cobra.Command, args []string) error {
	stderr := cmd.ErrOrStderr()

	contextDir, err := filepath.Abs(planContextDir)
	if err != nil {
		return failWithIssue(stderr, fmt.Errorf("resolve context directory: %w", err))
	}

	source, _, err := imagofile.Read(contextDir, planFile)
	if err != nil {
		return failWithIssue(stderr, err)
	}

	p, err := evaluate.BuildPlan(source, args[0])
	if err != nil {
		return failWithIssue(stderr, err)
	}

	if planDockerfile {
		dockerfile, err := translate.Dockerfile(p)
		if err != nil {
			return failWithIssue(stderr, err)
		}
		fmt.Fprint(cmd.OutOrStdout(), dockerfile)
		return nil
	}

	return printPlan(cmd, p)
}

// printPlan renders the node graph in build order, then the query targets.
func printPlan(cmd *cobra.Command, p *plan.Plan) error {
	stdout := cmd.OutOrStdout()

	order, err := p.TopologicalOrder()
	if err != nil {
		return failWithIssue(cmd.ErrOrStderr(), err)
	}

	fmt.Fprintln(stdout, TitleStyle.Render("Plan")+SubtitleStyle.Render(fmt.Sprintf(" (%d nodes)", p.Len())))
	for _, id := range order {
		n := p.Node(id)
		fmt.Fprintf(stdout, "  %s %-16s %s\n",
			TagStyle.Render(translate.StageName(id)),
			n.Kind.String(),
			describeNode(n))
	}

	fmt.Fprintln(stdout, TitleStyle.Render("Targets"))
	for _, out := range p.Outputs {
		fmt.Fprintf(stdout, "  %s -> %s %s\n",
			out.Fact.String(),
			TagStyle.Render(translate.StageName(out.Node)),
			SubtitleStyle.Render(p.Node(out.Node).Fingerprint[:12]))
	}
	return nil
}

// describeNode summarizes a node's operation for plan output.
func describeNode(n *plan.Node) string {
	switch n.Kind {
	case plan.KindFrom:
		return n.Image
	case plan.KindRun:
		desc := n.Command
		if len(n.Env) > 0 {
			pairs := make([]string, len(n.Env))
			for i, e := range n.Env {
				pairs[i] = e.Key + "=" + e.Value
			}
			desc = strings.Join(pairs, " ") + " " + desc
		}
		if n.Workdir != "" {
			desc = fmt.Sprintf("%s (in %s)", desc, n.Workdir)
		}
		return desc
	case plan.KindCopyLocal:
		return fmt.Sprintf("%s -> %s", n.SrcPath, n.DstPath)
	case plan.KindCopyImage:
		return fmt.Sprintf("%s:%s -> %s", translate.StageName(n.Source), n.SrcPath, n.DstPath)
	case plan.KindSetWorkdir:
		return n.Workdir
	case plan.KindSetEnv, plan.KindSetLabel:
		return n.Key + "=" + n.Value
	case plan.KindSetEntrypoint, plan.KindSetCmd:
		return n.Command
	case plan.KindSetUser:
		return n.Value
	case plan.KindAppendPath:
		return "PATH += " + n.Value
	default:
		return ""
	}
}
