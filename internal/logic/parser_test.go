// SPDX-License-Identifier: MPL-2.0

package logic

import (
	"errors"
	"testing"
)

func TestParse_Facts(t *testing.T) {
	t.Parallel()

	prog, err := Parse(`base("alpine", "3.20").` + "\n" + `nullary.`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := len(prog.Clauses); got != 2 {
		t.Fatalf("len(Clauses) = %d, want 2", got)
	}
	first := prog.Clauses[0]
	if first.Body != nil {
		t.Errorf("fact has non-nil body: %v", first.Body)
	}
	if got := first.Head.Signature(); got != "base/2" {
		t.Errorf("Signature() = %q, want %q", got, "base/2")
	}
	if got := first.Head.Args[0].Value; got != "alpine" {
		t.Errorf("Args[0].Value = %q, want %q", got, "alpine")
	}
	second := prog.Clauses[1]
	if got := second.Head.Signature(); got != "nullary/0" {
		t.Errorf("Signature() = %q, want %q", got, "nullary/0")
	}
}

func TestParse_Rule(t *testing.T) {
	t.Parallel()

	prog, err := Parse(`app(X) :- from("golang"), run(X).`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	clause := prog.Clauses[0]
	if got := clause.Head.Args[0].Kind; got != TermVariable {
		t.Errorf("head arg kind = %v, want TermVariable", got)
	}
	and, ok := clause.Body.(*AndExpr)
	if !ok {
		t.Fatalf("body = %T, want *AndExpr", clause.Body)
	}
	left, ok := and.Left.(*LiteralExpr)
	if !ok {
		t.Fatalf("left = %T, want *LiteralExpr", and.Left)
	}
	if got := left.Lit.Predicate; got != "from" {
		t.Errorf("left predicate = %q, want %q", got, "from")
	}
	right, ok := and.Right.(*LiteralExpr)
	if !ok {
		t.Fatalf("right = %T, want *LiteralExpr", and.Right)
	}
	if got := right.Lit.Args[0].Value; got != "X" {
		t.Errorf("right arg = %q, want %q", got, "X")
	}
}

func TestParse_Precedence(t *testing.T) {
	t.Parallel()

	// `,` binds tighter than `;`: a, b; c parses as (a, b); c.
	prog, err := Parse(`p :- a, b; c.`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	or, ok := prog.Clauses[0].Body.(*OrExpr)
	if !ok {
		t.Fatalf("body = %T, want *OrExpr", prog.Clauses[0].Body)
	}
	if _, ok := or.Left.(*AndExpr); !ok {
		t.Errorf("or.Left = %T, want *AndExpr", or.Left)
	}
	if lit, ok := or.Right.(*LiteralExpr); !ok || lit.Lit.Predicate != "c" {
		t.Errorf("or.Right = %v, want literal c", or.Right)
	}
}

func TestParse_OperatorChain(t *testing.T) {
	t.Parallel()

	prog, err := Parse(`p :- run("make")::in_workdir("/src")::in_env("CC", "gcc").`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	outer, ok := prog.Clauses[0].Body.(*OpExpr)
	if !ok {
		t.Fatalf("body = %T, want *OpExpr", prog.Clauses[0].Body)
	}
	if got := outer.Op.Signature(); got != "in_env/2" {
		t.Errorf("outer op = %q, want in_env/2", got)
	}
	inner, ok := outer.Operand.(*OpExpr)
	if !ok {
		t.Fatalf("operand = %T, want *OpExpr", outer.Operand)
	}
	if got := inner.Op.Signature(); got != "in_workdir/1" {
		t.Errorf("inner op = %q, want in_workdir/1", got)
	}
	if lit, ok := inner.Operand.(*LiteralExpr); !ok || lit.Lit.Predicate != "run" {
		t.Errorf("innermost operand = %v, want run goal", inner.Operand)
	}
}

func TestParse_GroupWithOperator(t *testing.T) {
	t.Parallel()

	prog, err := Parse(`p :- (from("alpine"), run("ls"))::set_workdir("/app").`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	op, ok := prog.Clauses[0].Body.(*OpExpr)
	if !ok {
		t.Fatalf("body = %T, want *OpExpr", prog.Clauses[0].Body)
	}
	group, ok := op.Operand.(*GroupExpr)
	if !ok {
		t.Fatalf("operand = %T, want *GroupExpr", op.Operand)
	}
	if _, ok := group.Body.(*AndExpr); !ok {
		t.Errorf("group body = %T, want *AndExpr", group.Body)
	}
}

func TestParse_UnificationSugar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{name: "variable lhs", src: `p(X) :- X = "1.17".`},
		{name: "constant lhs", src: `p(X) :- "1.17" = X.`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			prog, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			lit, ok := prog.Clauses[0].Body.(*LiteralExpr)
			if !ok {
				t.Fatalf("body = %T, want *LiteralExpr", prog.Clauses[0].Body)
			}
			if got := lit.Lit.Predicate; got != BuiltinStringEq {
				t.Errorf("predicate = %q, want %q", got, BuiltinStringEq)
			}
			if got := lit.Lit.Arity(); got != 2 {
				t.Errorf("arity = %d, want 2", got)
			}
		})
	}
}

func TestParse_CommentsAndWhitespace(t *testing.T) {
	t.Parallel()

	src := `
# base images
base("alpine"). # trailing comment

app :-
	# indented comment
	from("alpine").
`
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := len(prog.Clauses); got != 2 {
		t.Fatalf("len(Clauses) = %d, want 2", got)
	}
}

func TestParse_EscapesPreserved(t *testing.T) {
	t.Parallel()

	prog, err := Parse(`p :- run("printf \"a\nb\"").`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	lit := prog.Clauses[0].Body.(*LiteralExpr).Lit
	want := `printf \"a\nb\"`
	if got := lit.Args[0].Value; got != want {
		t.Errorf("arg value = %q, want %q", got, want)
	}
}

func TestParse_AnonymousVariablesAreDistinct(t *testing.T) {
	t.Parallel()

	prog, err := Parse(`p :- q(_, _).`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	args := prog.Clauses[0].Body.(*LiteralExpr).Lit.Args
	if args[0].Kind != TermVariable || args[1].Kind != TermVariable {
		t.Fatalf("anonymous args not variables: %v", args)
	}
	if args[0].Value == args[1].Value {
		t.Errorf("anonymous variables share a name: %q", args[0].Value)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{name: "missing period", src: `p :- q`},
		{name: "unterminated string", src: `p :- run("ls.`},
		{name: "escaped closing quote", src: `p :- run("ls\").`},
		{name: "unbalanced paren", src: `p :- (a, b.`},
		{name: "empty args", src: `p().`},
		{name: "dangling operator", src: `p :- q ::.`},
		{name: "equals after call", src: `p :- q(X) = "v".`},
		{name: "bare string goal", src: `p :- "orphan".`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tt.src)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tt.src)
			}
			if !errors.Is(err, ErrParse) {
				t.Errorf("error %v is not ErrParse", err)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Errorf("error %T is not *ParseError", err)
			} else if perr.Position.Line < 1 || perr.Position.Column < 1 {
				t.Errorf("position not set: %+v", perr.Position)
			}
		})
	}
}

func TestParseQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		wantSig string
		wantErr bool
	}{
		{name: "nullary", src: `all`, wantSig: "all/0"},
		{name: "with args", src: `app("prod", X)`, wantSig: "app/2"},
		{name: "trailing period", src: `app("prod").`, wantSig: "app/1"},
		{name: "trailing garbage", src: `app("prod") extra`, wantErr: true},
		{name: "empty", src: ``, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			lit, err := ParseQuery(tt.src)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseQuery(%q) succeeded, want error", tt.src)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseQuery(%q) error = %v", tt.src, err)
			}
			if got := lit.Signature(); got != tt.wantSig {
				t.Errorf("Signature() = %q, want %q", got, tt.wantSig)
			}
		})
	}
}
