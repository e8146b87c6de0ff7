// Package depgraph builds the read/write dependency graph over one
// loop-linear op list: for every pair of ops (A, B) with A before B in
// program order, it records whether B depends on A through a shared
// memory location (RAW/WAR/WAW). internal/vectorize uses it to prove a
// loop body carries no cycle and is therefore safe to lift.
package depgraph

import (
	"fmt"
	"strings"

	"mpcc/internal/cfgbuild"
	"mpcc/internal/ir"
	"mpcc/internal/looplinear"
	"mpcc/internal/muxlower"
	"mpcc/internal/ssa"
)

// Kind tags why B depends on A.
type Kind int

const (
	RAW Kind = iota
	WAR
	WAW
)

func (k Kind) String() string {
	switch k {
	case RAW:
		return "RAW"
	case WAR:
		return "WAR"
	case WAW:
		return "WAW"
	default:
		return "?"
	}
}

// Location is a memory location an op reads or writes: a plain variable
// when Index is nil, or one element of an array when it isn't. Both are
// keyed by the variable's unsubscripted base name — dependence here is
// about the shape of one iteration's template, not about which exact SSA
// version an op touches.
type Location struct {
	Base  ir.Var
	Index cfgbuild.Operand
}

// Collides reports whether two locations might alias. Same base name is
// required; for two array accesses, the indices must be provably disjoint
// (both literal constants and different) to rule out a collision —
// anything else, including a data-dependent index, is assumed to alias.
// Exported so internal/vectorize can reuse it when collapsing a lifted
// loop's dep-graph contribution down to a single node.
func (l Location) Collides(o Location) bool {
	if l.Base != o.Base {
		return false
	}
	if l.Index == nil || o.Index == nil {
		return true
	}
	lc, lok := l.Index.(cfgbuild.OperandConstant)
	rc, rok := o.Index.(cfgbuild.OperandConstant)
	if lok && rok {
		return lc.Value.IntValue == rc.Value.IntValue
	}
	return true
}

// Node is one op's read/write footprint.
type Node struct {
	Op     looplinear.Op
	Reads  []Location
	Writes []Location
}

// Edge records that node To depends on node From.
type Edge struct {
	From, To int
	Kind     Kind
}

// Graph is the dependency graph of one op list (a function body, or a
// single loop's body — never across a loop boundary in one call, since
// loop iterations are analyzed as a single template, not unrolled).
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// Build computes the dependency graph of ops. carried is the set of Φs
// this op list carries across loop iterations (nil for a non-loop body);
// for each one, a synthetic edge closes the cycle from the last write of
// its base name back to the first read, modeling the next iteration
// consuming this iteration's carried value.
func Build(ops []looplinear.Op, carried []*ssa.Phi) *Graph {
	g := &Graph{}
	for _, op := range ops {
		g.Nodes = append(g.Nodes, nodeFor(op))
	}
	for i := 0; i < len(g.Nodes); i++ {
		for j := i + 1; j < len(g.Nodes); j++ {
			addEdges(g, i, j)
		}
	}
	addCarriedEdges(g, carried)
	return g
}

func nodeFor(op looplinear.Op) Node {
	n := Node{Op: op}
	if op.Loop != nil {
		if lv, ok := op.Loop.Low.(cfgbuild.OperandVar); ok {
			n.Reads = append(n.Reads, Location{Base: lv.Var.WithoutSubscript()})
		}
		if hv, ok := op.Loop.High.(cfgbuild.OperandVar); ok {
			n.Reads = append(n.Reads, Location{Base: hv.Var.WithoutSubscript()})
		}
		for _, phi := range op.Loop.CarriedPhis {
			n.Writes = append(n.Writes, Location{Base: phi.Base})
		}
		return n
	}

	a := op.Assign
	n.Writes = []Location{writeLocation(a)}
	n.Reads = readLocations(a.RHS)
	return n
}

// writeLocation reports what an assignment writes: an array element for a
// functional store, the whole variable otherwise.
func writeLocation(a *cfgbuild.Assignment) Location {
	if store, ok := a.RHS.(cfgbuild.RHSStore); ok {
		return Location{Base: store.Array.WithoutSubscript(), Index: store.Index}
	}
	return Location{Base: a.LHS.WithoutSubscript()}
}

func readLocations(rhs cfgbuild.RHS) []Location {
	var locs []Location
	addVar := func(o cfgbuild.Operand) {
		if v, ok := o.(cfgbuild.OperandVar); ok {
			locs = append(locs, Location{Base: v.Var.WithoutSubscript()})
		}
	}
	switch r := rhs.(type) {
	case cfgbuild.RHSOperand:
		addVar(r.Operand)
	case cfgbuild.RHSBinOp:
		addVar(r.Left)
		addVar(r.Right)
	case cfgbuild.RHSUnaryOp:
		addVar(r.Operand)
	case cfgbuild.RHSLoad:
		locs = append(locs, Location{Base: r.Array.WithoutSubscript(), Index: r.Index})
	case cfgbuild.RHSStore:
		addVar(r.Index)
		addVar(r.Value)
	case cfgbuild.RHSList:
		for _, it := range r.Items {
			addVar(it)
		}
	case cfgbuild.RHSTuple:
		for _, it := range r.Items {
			addVar(it)
		}
	case muxlower.MuxOp:
		addVar(r.Cond)
		addVar(r.Then)
		addVar(r.Else)
	}
	return locs
}

func addEdges(g *Graph, i, j int) {
	a, b := g.Nodes[i], g.Nodes[j]
	if anyCollides(b.Reads, a.Writes) {
		g.Edges = append(g.Edges, Edge{From: i, To: j, Kind: RAW})
	}
	if anyCollides(b.Writes, a.Reads) {
		g.Edges = append(g.Edges, Edge{From: i, To: j, Kind: WAR})
	}
	if anyCollides(b.Writes, a.Writes) {
		g.Edges = append(g.Edges, Edge{From: i, To: j, Kind: WAW})
	}
}

func anyCollides(xs, ys []Location) bool {
	for _, x := range xs {
		for _, y := range ys {
			if x.Collides(y) {
				return true
			}
		}
	}
	return false
}

// addCarriedEdges closes the loop for scalar carries only (Index == nil):
// a whole-variable carry like an accumulator refers to the exact same slot
// every iteration, so its last write this iteration feeds its first read
// next iteration. An array carried only through indexed element accesses
// is deliberately left alone here — successive iterations generally use
// different indices, and proving which is C9's job (array/mux refinement),
// not this conservative same-base-name check.
func addCarriedEdges(g *Graph, carried []*ssa.Phi) {
	for _, phi := range carried {
		lastWrite := -1
		for i, n := range g.Nodes {
			for _, w := range n.Writes {
				if w.Base == phi.Base && w.Index == nil {
					lastWrite = i
				}
			}
		}
		firstRead := -1
		for i, n := range g.Nodes {
			for _, r := range n.Reads {
				if r.Base == phi.Base && r.Index == nil {
					firstRead = i
					break
				}
			}
			if firstRead != -1 {
				break
			}
		}
		if lastWrite == -1 || firstRead == -1 {
			continue
		}
		g.Edges = append(g.Edges, Edge{From: lastWrite, To: firstRead, Kind: RAW})
	}
}

// HasCycle reports whether g's edges form a cycle: a loop whose graph has
// one cannot be vectorized (4.10) — something in one iteration depends on
// a later iteration's result.
func HasCycle(g *Graph) bool {
	adj := make(map[int][]int, len(g.Nodes))
	for _, e := range g.Edges {
		adj[e.From] = append(adj[e.From], e.To)
	}
	const (
		white = iota
		gray
		black
	)
	color := make([]int, len(g.Nodes))
	var visit func(int) bool
	visit = func(n int) bool {
		color[n] = gray
		for _, m := range adj[n] {
			if color[m] == gray {
				return true
			}
			if color[m] == white && visit(m) {
				return true
			}
		}
		color[n] = black
		return false
	}
	for i := range g.Nodes {
		if color[i] == white && visit(i) {
			return true
		}
	}
	return false
}

// Print renders g's edges as `(from, to, KIND)` triples in insertion order.
func Print(g *Graph) string {
	var b strings.Builder
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "(%d, %d, %s)\n", e.From, e.To, e.Kind)
	}
	return b.String()
}
