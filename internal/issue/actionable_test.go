// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{
			name: "operation only",
			err:  &ActionableError{Operation: "parse Imagofile"},
			want: "failed to parse Imagofile",
		},
		{
			name: "operation with resource",
			err: &ActionableError{
				Operation: "parse Imagofile",
				Resource:  "./Imagofile",
			},
			want: "failed to parse Imagofile: ./Imagofile",
		},
		{
			name: "operation with cause",
			err: &ActionableError{
				Operation: "load configuration",
				Cause:     errors.New("syntax error at line 5"),
			},
			want: "failed to load configuration: syntax error at line 5",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "parse Imagofile",
				Resource:  "./Imagofile",
				Cause:     errors.New("file not found"),
			},
			want: "failed to parse Imagofile: ./Imagofile: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("underlying error")
	err := &ActionableError{Operation: "resolve query", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	noCause := &ActionableError{Operation: "resolve query"}
	if noCause.Unwrap() != nil {
		t.Error("Unwrap() should return nil without a cause")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name:     "plain error",
			err:      &ActionableError{Operation: "load configuration"},
			contains: []string{"failed to load configuration"},
		},
		{
			name: "suggestions as bullets",
			err: &ActionableError{
				Operation:   "parse Imagofile",
				Resource:    "./Imagofile",
				Suggestions: []string{"Create an Imagofile in the project root", "Check file permissions"},
			},
			contains: []string{
				"failed to parse Imagofile",
				"./Imagofile",
				"• Create an Imagofile in the project root",
				"• Check file permissions",
			},
		},
		{
			name: "cause chain only in verbose mode",
			err: &ActionableError{
				Operation: "load configuration",
				Cause:     errors.New("syntax error"),
			},
			contains: []string{"failed to load configuration: syntax error"},
			excludes: []string{"Error chain:"},
		},
		{
			name: "nested causes numbered in verbose mode",
			err: &ActionableError{
				Operation: "build image",
				Cause: &ActionableError{
					Operation: "parse Imagofile",
					Cause:     errors.New("file not found"),
				},
			},
			verbose: true,
			contains: []string{
				"Error chain:",
				"1. failed to parse Imagofile: file not found",
				"2. file not found",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.err.Format(tt.verbose)

			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("Format() missing %q\ngot:\n%s", s, got)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("Format() should not contain %q\ngot:\n%s", s, got)
				}
			}
		})
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	t.Run("full context", func(t *testing.T) {
		t.Parallel()

		err := NewErrorContext().
			WithOperation("load configuration").
			WithResource("/home/u/.config/imago/config.cue").
			WithSuggestion("Check that the file contains valid CUE syntax").
			WithSuggestion("Verify the configuration values match the expected schema").
			Wrap(errors.New("parse error")).
			Build()

		if err == nil {
			t.Fatal("Build() returned nil")
		}
		if err.Operation != "load configuration" {
			t.Errorf("Operation = %q", err.Operation)
		}
		if err.Resource != "/home/u/.config/imago/config.cue" {
			t.Errorf("Resource = %q", err.Resource)
		}
		if len(err.Suggestions) != 2 {
			t.Errorf("Suggestions count = %d, want 2", len(err.Suggestions))
		}
		if err.Cause == nil || err.Cause.Error() != "parse error" {
			t.Errorf("Cause = %v", err.Cause)
		}
	})

	t.Run("missing operation returns nil", func(t *testing.T) {
		t.Parallel()

		if err := NewErrorContext().WithResource("some/path").Build(); err != nil {
			t.Errorf("Build() = %v, want nil", err)
		}
	})
}

func TestErrorContext_BuildError(t *testing.T) {
	t.Parallel()

	err := NewErrorContext().WithOperation("build image").BuildError()
	if err == nil {
		t.Fatal("BuildError() returned nil")
	}
	if _, ok := errors.AsType[*ActionableError](err); !ok {
		t.Error("BuildError() should return *ActionableError")
	}

	// A typed nil inside the interface would compare non-nil here.
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want nil", err)
	}
}

func TestErrorContext_Reuse(t *testing.T) {
	t.Parallel()

	ctx := NewErrorContext().
		WithOperation("build image").
		WithResource("app:latest")

	err1 := ctx.Wrap(errors.New("engine exited with status 1")).Build()
	err2 := ctx.Wrap(errors.New("engine not found")).Build()

	if err1.Cause.Error() == err2.Cause.Error() {
		t.Error("reused context should allow different causes")
	}
	if err1.Operation != err2.Operation {
		t.Error("reused context should preserve the operation")
	}
}
