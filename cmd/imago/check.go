// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/imago-dev/imago/internal/evaluate"
	"github.com/imago-dev/imago/pkg/imagofile"

	"github.com/spf13/cobra"
)

var (
	checkFile       string
	checkContextDir string

	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Parse and validate the Imagofile",
		Long: `Check parses the Imagofile and runs static validation (such as
rejecting rules that redefine builtins) without resolving a query or
touching a container engine.`,
		Example: `  imago check
  imago check --file deploy/Imagofile`,
		Args: cobra.NoArgs,
		RunE: runCheck,
	}
)

func init() {
	checkCmd.Flags().StringVarP(&checkFile, "file", "f", "", "path to the Imagofile (default: <context>/Imagofile)")
	checkCmd.Flags().StringVar(&checkContextDir, "context", ".", "build context directory")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	stderr := cmd.ErrOrStderr()

	contextDir, err := filepath.Abs(checkContextDir)
	if err != nil {
		return failWithIssue(stderr, fmt.Errorf("resolve context directory: %w", err))
	}

	source, path, err := imagofile.Read(contextDir, checkFile)
	if err != nil {
		return failWithIssue(stderr, err)
	}

	prog, err := evaluate.Check(source)
	if err != nil {
		return failWithIssue(stderr, err)
	}

	preds := prog.Predicates()
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d clauses, %d predicates (%s)\n",
		SuccessStyle.Render("✓"), path, len(prog.Clauses), len(preds),
		strings.Join(preds, ", "))
	return nil
}
