// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/imago-dev/imago/internal/container"
	"github.com/imago-dev/imago/internal/executor"
	"github.com/imago-dev/imago/internal/issue"
	"github.com/imago-dev/imago/internal/logic"
	"github.com/imago-dev/imago/internal/resolve"
	"github.com/imago-dev/imago/pkg/imagofile"
)

// ServiceError is an error that carries optional rendering information for
// the CLI layer. When the CLI layer receives a ServiceError, it renders the
// styled error message (if present) before formatting the underlying error.
// Always create via newServiceError to enforce the Err-must-be-non-nil invariant.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
	// StyledMessage is the optional pre-rendered styled error text.
	StyledMessage string
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
// All construction sites must use this instead of struct literals.
func newServiceError(err error, issueID issue.Id, styledMessage string) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{
		Err:           err,
		IssueID:       issueID,
		StyledMessage: styledMessage,
	}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// renderServiceError renders a ServiceError in the CLI layer.
// It prints any styled message first, then the optional issue help section.
func renderServiceError(stderr io.Writer, svcErr *ServiceError) {
	if svcErr == nil {
		return
	}

	if svcErr.StyledMessage != "" {
		fmt.Fprint(stderr, svcErr.StyledMessage)
	}

	if svcErr.IssueID == 0 {
		return
	}

	if catalogEntry := issue.Get(svcErr.IssueID); catalogEntry != nil {
		rendered, renderErr := catalogEntry.Render("dark")
		if renderErr != nil {
			slog.Warn("failed to render issue catalog entry", "issueID", svcErr.IssueID, "error", renderErr)
		} else {
			fmt.Fprint(stderr, rendered)
		}
	}
}

// classifyIssueID maps pipeline errors to issue catalog entries. Zero means
// no catalog entry applies.
func classifyIssueID(err error) issue.Id {
	var (
		builtinErr *logic.BuiltinRedefinedError
		cycleErr   *resolve.CyclicDependencyError
		undefErr   *resolve.UndefinedPredicateError
		opErr      *resolve.UnknownOperatorError
		noDerivErr *resolve.NoDerivationError
		ungroundA  *resolve.UngroundArgumentError
		ungroundQ  *resolve.UngroundQueryError
		engineErr  *container.ErrEngineNotAvailable
		buildErr   *container.BuildError
		targetsErr *executor.TargetsFailedError
	)

	switch {
	case errors.Is(err, imagofile.ErrNotFound):
		return issue.ImagofileNotFoundId
	case errors.Is(err, logic.ErrParse), errors.As(err, &builtinErr):
		return issue.ImagofileParseErrorId
	case errors.As(err, &cycleErr):
		return issue.RecursiveRuleId
	case errors.As(err, &ungroundA), errors.As(err, &ungroundQ):
		return issue.UngroundArgumentId
	case errors.As(err, &undefErr), errors.As(err, &opErr), errors.As(err, &noDerivErr):
		return issue.QueryResolutionFailedId
	case errors.As(err, &engineErr):
		return issue.ContainerEngineNotFoundId
	case errors.As(err, &buildErr), errors.As(err, &targetsErr):
		return issue.ImageBuildFailedId
	case errors.Is(err, fs.ErrPermission):
		return issue.PermissionDeniedId
	default:
		return 0
	}
}

// failWithIssue renders the styled error (plus its catalog entry, if any)
// and converts it into an ExitError for Execute.
func failWithIssue(stderr io.Writer, err error) error {
	styled := ErrorStyle.Render("Error: ") + formatErrorForDisplay(err, verbose) + "\n"
	svcErr := newServiceError(err, classifyIssueID(err), styled)
	renderServiceError(stderr, svcErr)
	return &ExitError{Code: 1, Err: svcErr}
}
