package vectorize

import (
	"fmt"

	"mpcc/internal/cfgbuild"
	"mpcc/internal/depgraph"
	"mpcc/internal/diag"
	"mpcc/internal/typecheck"
)

// Finalize is phase 2: once env (from internal/typecheck) assigns a
// complete VarType to every vector-array var, walk fn validating that each
// VecArray operand is genuinely array-shaped (dims >= 1) and each
// VecBroadcast operand is genuinely scalar (dims == 0) — the shape a loop's
// own structure implied in phase 1, now checked against the types that
// structure actually produced.
func Finalize(fn *Function, env typecheck.Env) error {
	return finalizeNodes(fn.Body, env)
}

func finalizeNodes(nodes []Node, env typecheck.Env) error {
	for _, n := range nodes {
		if n.Loop != nil {
			if err := finalizeNodes(n.Loop.Body, env); err != nil {
				return err
			}
		}
		if n.Vector != nil {
			if err := finalizeVectorLoop(n.Vector, env); err != nil {
				return err
			}
		}
	}
	return nil
}

func finalizeVectorLoop(v *VectorLoop, env typecheck.Env) error {
	for _, a := range v.Body {
		if err := checkShapes(a.RHS, env); err != nil {
			return err
		}
	}
	return nil
}

func checkShapes(rhs VecRHS, env typecheck.Env) error {
	var operands []VecOperand
	switch r := rhs.(type) {
	case VecBinOp:
		operands = []VecOperand{r.Left, r.Right}
	case VecUnaryOp:
		operands = []VecOperand{r.Operand}
	case VecMux:
		operands = []VecOperand{r.Cond, r.Then, r.Else}
	case VecCopy:
		operands = []VecOperand{r.From}
	default:
		diag.Assertf("vectorize", "unhandled VecRHS %T", rhs)
	}
	for _, op := range operands {
		if err := checkOperandShape(op, env); err != nil {
			return err
		}
	}
	return nil
}

func checkOperandShape(op VecOperand, env typecheck.Env) error {
	switch o := op.(type) {
	case VecArray:
		t, ok := env[o.Var]
		if !ok {
			return diag.New(diag.ErrIncompleteType, fmt.Sprintf("%s used as a vector lane but has no inferred type", o.Var), diag.Position{})
		}
		if !t.HasDims || t.Dims == 0 {
			return diag.New(diag.ErrTypeMismatch, fmt.Sprintf("%s is used as an N-wide vector but its type is %s", o.Var, t), diag.Position{})
		}
	case VecBroadcast:
		if v, ok := o.Operand.(cfgbuild.OperandVar); ok {
			t, ok := env[v.Var]
			if !ok {
				return diag.New(diag.ErrIncompleteType, fmt.Sprintf("%s used as a loop-invariant broadcast but has no inferred type", v.Var), diag.Position{})
			}
			if t.HasDims && t.Dims != 0 {
				return diag.New(diag.ErrTypeMismatch, fmt.Sprintf("%s is broadcast as a scalar but its type is %s", v.Var, t), diag.Position{})
			}
		}
	}
	return nil
}

// CollapsedGraph is phase 2's rewritten dependency graph: a vector loop that
// lifted cleanly contributes exactly one node, standing in for the whole
// N-element group it computes, instead of one node per lane op.
type CollapsedGraph struct {
	Nodes []CollapsedNode
	Edges []depgraph.Edge
}

// CollapsedNode is one top-level step's read/write footprint, at the
// granularity phase 2 exposes downstream: an ordinary assignment, a scalar
// loop (summarized by its bounds and carried state, same as C8 already does
// for an unlifted ForLoop), or one vector loop collapsed to a single unit.
type CollapsedNode struct {
	Node   Node
	Reads  []depgraph.Location
	Writes []depgraph.Location
}

// Collapse builds fn's top-level CollapsedGraph. Only the top-level body is
// collapsed — a vector loop's own internal dependency structure no longer
// matters once it is proven safe and lifted to a single group.
func Collapse(fn *Function) *CollapsedGraph {
	g := &CollapsedGraph{}
	for _, n := range fn.Body {
		g.Nodes = append(g.Nodes, collapsedNodeFor(n))
	}
	for i := 0; i < len(g.Nodes); i++ {
		for j := i + 1; j < len(g.Nodes); j++ {
			addCollapsedEdges(g, i, j)
		}
	}
	return g
}

func collapsedNodeFor(n Node) CollapsedNode {
	cn := CollapsedNode{Node: n}
	switch {
	case n.Assign != nil:
		cn.Writes = []depgraph.Location{writeLocationOf(n.Assign)}
		cn.Reads = readLocationsOf(n.Assign.RHS)
	case n.Loop != nil:
		if lv, ok := n.Loop.Low.(cfgbuild.OperandVar); ok {
			cn.Reads = append(cn.Reads, depgraph.Location{Base: lv.Var.WithoutSubscript()})
		}
		if hv, ok := n.Loop.High.(cfgbuild.OperandVar); ok {
			cn.Reads = append(cn.Reads, depgraph.Location{Base: hv.Var.WithoutSubscript()})
		}
		for _, phi := range n.Loop.CarriedPhis {
			cn.Writes = append(cn.Writes, depgraph.Location{Base: phi.Base})
		}
	case n.Vector != nil:
		if lv, ok := n.Vector.Low.(cfgbuild.OperandVar); ok {
			cn.Reads = append(cn.Reads, depgraph.Location{Base: lv.Var.WithoutSubscript()})
		}
		if hv, ok := n.Vector.High.(cfgbuild.OperandVar); ok {
			cn.Reads = append(cn.Reads, depgraph.Location{Base: hv.Var.WithoutSubscript()})
		}
		for _, a := range n.Vector.Body {
			cn.Writes = append(cn.Writes, depgraph.Location{Base: a.LHS.WithoutSubscript()})
			cn.Reads = append(cn.Reads, vecOperandLocations(a.RHS)...)
		}
	}
	return cn
}

func writeLocationOf(a *cfgbuild.Assignment) depgraph.Location {
	if store, ok := a.RHS.(cfgbuild.RHSStore); ok {
		return depgraph.Location{Base: store.Array.WithoutSubscript(), Index: store.Index}
	}
	return depgraph.Location{Base: a.LHS.WithoutSubscript()}
}

func readLocationsOf(rhs cfgbuild.RHS) []depgraph.Location {
	var locs []depgraph.Location
	addVar := func(o cfgbuild.Operand) {
		if v, ok := o.(cfgbuild.OperandVar); ok {
			locs = append(locs, depgraph.Location{Base: v.Var.WithoutSubscript()})
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
		locs = append(locs, depgraph.Location{Base: r.Array.WithoutSubscript(), Index: r.Index})
	case cfgbuild.RHSStore:
		addVar(r.Index)
		addVar(r.Value)
	}
	return locs
}

func vecOperandLocations(rhs VecRHS) []depgraph.Location {
	var operands []VecOperand
	switch r := rhs.(type) {
	case VecBinOp:
		operands = []VecOperand{r.Left, r.Right}
	case VecUnaryOp:
		operands = []VecOperand{r.Operand}
	case VecMux:
		operands = []VecOperand{r.Cond, r.Then, r.Else}
	case VecCopy:
		operands = []VecOperand{r.From}
	}
	var locs []depgraph.Location
	for _, op := range operands {
		switch v := op.(type) {
		case VecArray:
			locs = append(locs, depgraph.Location{Base: v.Var.WithoutSubscript()})
		case VecBroadcast:
			if ov, ok := v.Operand.(cfgbuild.OperandVar); ok {
				locs = append(locs, depgraph.Location{Base: ov.Var.WithoutSubscript()})
			}
		}
	}
	return locs
}

func addCollapsedEdges(g *CollapsedGraph, i, j int) {
	a, b := g.Nodes[i], g.Nodes[j]
	if anyCollidesCollapsed(b.Reads, a.Writes) {
		g.Edges = append(g.Edges, depgraph.Edge{From: i, To: j, Kind: depgraph.RAW})
	}
	if anyCollidesCollapsed(b.Writes, a.Reads) {
		g.Edges = append(g.Edges, depgraph.Edge{From: i, To: j, Kind: depgraph.WAR})
	}
	if anyCollidesCollapsed(b.Writes, a.Writes) {
		g.Edges = append(g.Edges, depgraph.Edge{From: i, To: j, Kind: depgraph.WAW})
	}
}

func anyCollidesCollapsed(xs, ys []depgraph.Location) bool {
	for _, x := range xs {
		for _, y := range ys {
			if x.Collides(y) {
				return true
			}
		}
	}
	return false
}
