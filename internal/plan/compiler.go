// SPDX-License-Identifier: MPL-2.0

package plan

import (
	"fmt"
	"path"

	"github.com/imago-dev/imago/internal/logic"
	"github.com/imago-dev/imago/internal/resolve"
	"github.com/imago-dev/imago/pkg/imagofile"
)

// state carries the compilation context through a derivation walk: the
// node built so far, the working directory for commands and copy
// destinations, and the environment assignments in scope.
type state struct {
	cur NodeID
	cwd string
	env []EnvVar
}

type compiler struct {
	plan *Plan

	// memo shares the result of a grounded predicate expansion that
	// builds a complete image. Two targets depending on the same
	// grounded predicate reuse one chain. The expansion's final working
	// directory is recorded so a set_workdir inside the predicate keeps
	// applying in the caller's branch.
	memo map[string]memoEntry
}

type memoEntry struct {
	node NodeID
	cwd  string
}

// Compile turns resolved solutions into a build plan. Outputs keep
// solution order. Derivation subtrees shared between solutions compile to
// shared nodes.
func Compile(solutions []*resolve.Solution) (*Plan, error) {
	c := &compiler{plan: NewPlan(), memo: make(map[string]memoEntry)}
	for _, sol := range solutions {
		st, err := c.walk(sol.Steps, state{cur: NoNode})
		if err != nil {
			return nil, err
		}
		if st.cur == NoNode {
			return nil, &NoImageError{Lit: sol.Query}
		}
		args := make([]string, len(sol.Query.Args))
		for i, a := range sol.Query.Args {
			args[i] = a.Value
		}
		fact := imagofile.NewFact(sol.Query.Predicate, args...)
		c.plan.Outputs = append(c.plan.Outputs, Output{Fact: fact, Node: st.cur})
	}
	return c.plan, nil
}

func (c *compiler) walk(steps []resolve.Derivation, st state) (state, error) {
	var err error
	for _, step := range steps {
		st, err = c.step(step, st)
		if err != nil {
			return st, err
		}
	}
	return st, nil
}

func (c *compiler) step(d resolve.Derivation, st state) (state, error) {
	switch n := d.(type) {
	case *resolve.BuiltinStep:
		return c.builtin(n.Lit, st)
	case *resolve.Scope:
		return c.scope(n, st)
	case *resolve.Expansion:
		return c.expansion(n, st)
	default:
		return st, fmt.Errorf("unsupported derivation node %T", d)
	}
}

func (c *compiler) builtin(lit logic.Literal, st state) (state, error) {
	switch lit.Predicate {
	case logic.BuiltinFrom:
		if st.cur != NoNode {
			return st, &BaseRedefinedError{Lit: lit}
		}
		st.cur = c.plan.add(&Node{
			Kind:   KindFrom,
			Parent: NoNode,
			Source: NoNode,
			Image:  lit.Args[0].Value,
		})
		return st, nil
	case logic.BuiltinRun:
		if st.cur == NoNode {
			return st, &MissingBaseError{Lit: lit}
		}
		st.cur = c.plan.add(&Node{
			Kind:    KindRun,
			Parent:  st.cur,
			Source:  NoNode,
			Command: lit.Args[0].Value,
			Workdir: st.cwd,
			Env:     cloneEnv(st.env),
		})
		return st, nil
	case logic.BuiltinCopy:
		if st.cur == NoNode {
			return st, &MissingBaseError{Lit: lit}
		}
		// Local copy sources are context-relative only.
		if path.IsAbs(lit.Args[0].Value) {
			return st, &AbsoluteCopySourceError{Lit: lit}
		}
		st.cur = c.plan.add(&Node{
			Kind:    KindCopyLocal,
			Parent:  st.cur,
			Source:  NoNode,
			SrcPath: lit.Args[0].Value,
			DstPath: joinPath(st.cwd, lit.Args[1].Value),
			Workdir: st.cwd,
		})
		return st, nil
	default:
		return st, fmt.Errorf("unexpected builtin %s in derivation", lit.Signature())
	}
}

func (c *compiler) scope(sc *resolve.Scope, st state) (state, error) {
	op := sc.Op
	switch op.Predicate {
	case logic.OpInWorkdir:
		sub := st
		sub.cwd = joinPath(st.cwd, op.Args[0].Value)
		res, err := c.walk(sc.Body, sub)
		if err != nil {
			return st, err
		}
		st.cur = res.cur
		return st, nil

	case logic.OpSetWorkdir:
		// Unlike in_workdir, the new directory persists for the
		// remainder of the branch.
		abs := joinPath(st.cwd, op.Args[0].Value)
		sub := st
		sub.cwd = abs
		res, err := c.walk(sc.Body, sub)
		if err != nil {
			return st, err
		}
		if res.cur == NoNode {
			return st, &MissingBaseError{Lit: op}
		}
		st.cur = c.plan.add(&Node{
			Kind:    KindSetWorkdir,
			Parent:  res.cur,
			Source:  NoNode,
			Workdir: abs,
		})
		st.cwd = abs
		return st, nil

	case logic.OpInEnv:
		sub := st
		sub.env = append(cloneEnv(st.env), EnvVar{Key: op.Args[0].Value, Value: op.Args[1].Value})
		res, err := c.walk(sc.Body, sub)
		if err != nil {
			return st, err
		}
		st.cur = res.cur
		return st, nil

	case logic.OpSetEnv:
		return c.configNode(sc, st, &Node{Kind: KindSetEnv, Key: op.Args[0].Value, Value: op.Args[1].Value})
	case logic.OpSetEntrypoint:
		return c.configNode(sc, st, &Node{Kind: KindSetEntrypoint, Command: op.Args[0].Value})
	case logic.OpSetCmd:
		return c.configNode(sc, st, &Node{Kind: KindSetCmd, Command: op.Args[0].Value})
	case logic.OpSetLabel:
		return c.configNode(sc, st, &Node{Kind: KindSetLabel, Key: op.Args[0].Value, Value: op.Args[1].Value})
	case logic.OpSetUser:
		return c.configNode(sc, st, &Node{Kind: KindSetUser, Value: op.Args[0].Value})
	case logic.OpAppendPath:
		return c.configNode(sc, st, &Node{Kind: KindAppendPath, Value: op.Args[0].Value})

	case logic.OpCopy:
		// The operand compiles as its own image; the copy pulls a path
		// out of it into the current chain.
		if st.cur == NoNode {
			return st, &MissingBaseError{Lit: op}
		}
		res, err := c.walk(sc.Body, state{cur: NoNode})
		if err != nil {
			return st, err
		}
		if res.cur == NoNode {
			return st, &NoImageError{Lit: op}
		}
		st.cur = c.plan.add(&Node{
			Kind:    KindCopyImage,
			Parent:  st.cur,
			Source:  res.cur,
			SrcPath: op.Args[0].Value,
			DstPath: joinPath(st.cwd, op.Args[1].Value),
			Workdir: st.cwd,
		})
		return st, nil

	default:
		return st, fmt.Errorf("unexpected operator %s in derivation", op.Signature())
	}
}

// configNode compiles the scope body, then appends an image config node
// to its result. The template carries the config fields; parentage is
// filled in here.
func (c *compiler) configNode(sc *resolve.Scope, st state, template *Node) (state, error) {
	res, err := c.walk(sc.Body, st)
	if err != nil {
		return st, err
	}
	if res.cur == NoNode {
		return st, &MissingBaseError{Lit: sc.Op}
	}
	template.Parent = res.cur
	template.Source = NoNode
	st.cur = c.plan.add(template)
	return st, nil
}

// expansion compiles a predicate expansion. When no image exists yet, the
// expansion must build its own and the result is memoized under the
// grounded head so other targets reuse it. Otherwise the expansion's
// steps continue the current chain in place.
func (c *compiler) expansion(exp *resolve.Expansion, st state) (state, error) {
	if len(exp.Steps) == 0 {
		return st, nil
	}
	if st.cur != NoNode {
		return c.walk(exp.Steps, st)
	}
	key := exp.Head.String()
	if e, ok := c.memo[key]; ok {
		st.cur = e.node
		st.cwd = e.cwd
		return st, nil
	}
	res, err := c.walk(exp.Steps, state{cur: NoNode})
	if err != nil {
		return st, err
	}
	if res.cur != NoNode {
		c.memo[key] = memoEntry{node: res.cur, cwd: res.cwd}
		st.cur = res.cur
		st.cwd = res.cwd
	}
	return st, nil
}

func cloneEnv(env []EnvVar) []EnvVar {
	if len(env) == 0 {
		return nil
	}
	out := make([]EnvVar, len(env))
	copy(out, env)
	return out
}

// joinPath resolves p against base. An absolute p replaces base entirely;
// an empty base means the image's default directory, which resolves
// relative paths from the root.
func joinPath(base, p string) string {
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	if base == "" {
		base = "/"
	}
	return path.Join(base, p)
}
