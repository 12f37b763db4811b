// SPDX-License-Identifier: MPL-2.0

// Package plan turns derivation trees into a deduplicated graph of build
// operations. Nodes are content-addressed: a shared base chain appears
// once no matter how many targets build on it.
package plan

import (
	"github.com/imago-dev/imago/internal/dag"
	"github.com/imago-dev/imago/pkg/imagofile"
)

type (
	// Output names one buildable target: the grounded query fact and the
	// node whose filesystem and config realize it.
	Output struct {
		Fact imagofile.Fact
		Node NodeID
	}

	// Plan is the compiled build graph. Nodes live in an arena indexed
	// by NodeID; Outputs keep solution order.
	Plan struct {
		nodes   []*Node
		byPrint map[string]NodeID
		Outputs []Output
	}
)

// NewPlan creates an empty plan.
func NewPlan() *Plan {
	return &Plan{byPrint: make(map[string]NodeID)}
}

// Node returns the node with the given id.
func (p *Plan) Node(id NodeID) *Node { return p.nodes[id] }

// Nodes returns the arena in creation order.
func (p *Plan) Nodes() []*Node { return p.nodes }

// Len returns the number of distinct nodes.
func (p *Plan) Len() int { return len(p.nodes) }

// add interns a node. If an identical node (same operation, same
// ancestry) already exists, its id is returned and n is discarded.
func (p *Plan) add(n *Node) NodeID {
	parentFP, sourceFP := "", ""
	if n.Parent != NoNode {
		parentFP = p.nodes[n.Parent].Fingerprint
	}
	if n.Source != NoNode {
		sourceFP = p.nodes[n.Source].Fingerprint
	}
	n.Fingerprint = fingerprint(n, parentFP, sourceFP)
	if id, ok := p.byPrint[n.Fingerprint]; ok {
		return id
	}
	n.ID = NodeID(len(p.nodes))
	p.nodes = append(p.nodes, n)
	p.byPrint[n.Fingerprint] = n.ID
	return n.ID
}

// TopologicalOrder returns every node ordered so parents and copy sources
// come before the nodes that use them. Construction cannot produce a
// cycle, so the error return guards against future invariant breakage
// rather than expected input.
func (p *Plan) TopologicalOrder() ([]NodeID, error) {
	g := dag.New[NodeID]()
	for _, n := range p.nodes {
		g.AddNode(n.ID)
		if n.Parent != NoNode {
			g.AddEdge(n.Parent, n.ID)
		}
		if n.Source != NoNode {
			g.AddEdge(n.Source, n.ID)
		}
	}
	return g.TopologicalSort()
}

// Dependencies returns the set of nodes an output's node transitively
// depends on, including the node itself, in topological order.
func (p *Plan) Dependencies(out NodeID) []NodeID {
	seen := make(map[NodeID]bool)
	var visit func(NodeID)
	var order []NodeID
	visit = func(id NodeID) {
		if id == NoNode || seen[id] {
			return
		}
		seen[id] = true
		n := p.nodes[id]
		visit(n.Parent)
		visit(n.Source)
		order = append(order, id)
	}
	visit(out)
	return order
}
