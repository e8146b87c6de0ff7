// Package vectorize implements the two-phase vectorizer: phase 1 (LiftLoops)
// identifies loops whose body carries no loop-iteration cycle through the
// dependency graph and rewrites their per-lane scalar ops into vector form;
// phase 2, run after type propagation, validates the lifted shapes
// (Finalize) and collapses each vector loop to a single dependency-graph
// node (Collapse).
package vectorize

import (
	"mpcc/internal/cfgbuild"
	"mpcc/internal/depgraph"
	"mpcc/internal/ir"
	"mpcc/internal/looplinear"
	"mpcc/internal/muxlower"
	"mpcc/internal/ssa"
)

// VecOperand is one vector operation's operand: either every lane reads the
// same loop-invariant value (VecBroadcast) or each lane reads the
// correspondingly-indexed element of an N-wide array (VecArray).
type VecOperand interface {
	isVecOperand()
	String() string
}

// VecBroadcast is a loop-invariant scalar, inserted so every lane sees the
// same value — the "scalar broadcast" the vectorizer must insert per 4.10.
type VecBroadcast struct{ Operand cfgbuild.Operand }

func (VecBroadcast) isVecOperand()      {}
func (v VecBroadcast) String() string { return "bcast(" + v.Operand.String() + ")" }

// VecArray is an N-wide value: lane i reads/writes element i of Var.
type VecArray struct{ Var ir.Var }

func (VecArray) isVecOperand()      {}
func (v VecArray) String() string { return v.Var.String() }

// VecRHS is the right-hand side of a vector assignment: the N-wide
// counterpart of cfgbuild.RHS's scalar shapes.
type VecRHS interface {
	isVecRHS()
	String() string
}

type VecBinOp struct {
	Left  VecOperand
	Op    ir.BinOpKind
	Right VecOperand
}

func (VecBinOp) isVecRHS() {}
func (r VecBinOp) String() string { return r.Left.String() + " " + r.Op.String() + " " + r.Right.String() }

type VecUnaryOp struct {
	Op      ir.UnaryOpKind
	Operand VecOperand
}

func (VecUnaryOp) isVecRHS() {}
func (r VecUnaryOp) String() string { return r.Op.String() + " " + r.Operand.String() }

// VecMux is the vector form of a mux: lane i selects Then[i] or Else[i]
// depending on Cond[i] (or the single broadcast condition).
type VecMux struct{ Cond, Then, Else VecOperand }

func (VecMux) isVecRHS() {}
func (r VecMux) String() string {
	return "mux(" + r.Cond.String() + ", " + r.Then.String() + ", " + r.Else.String() + ")"
}

// VecCopy is an identity vector assignment: every lane of LHS equals the
// corresponding lane of From. It is what a lifted RHSStore or RHSOperand
// becomes once the load/store pair it used to need collapses away.
type VecCopy struct{ From VecOperand }

func (VecCopy) isVecRHS() {}
func (r VecCopy) String() string { return r.From.String() }

// VecAssign is one lifted op: `LHS := RHS`, applied element-wise across all
// N lanes at once.
type VecAssign struct {
	LHS ir.Var
	RHS VecRHS
}

// VectorLoop is a loop whose entire body was lifted to vector form. Bounds
// are carried rather than a precomputed width, since computing High-Low is
// the emitter's concern, not this IR's.
type VectorLoop struct {
	Low, High cfgbuild.Operand
	Body      []VecAssign
}

// ScalarLoop is a loop phase 1 could not lift, re-expressed recursively over
// Node so a lifted inner loop can still live inside an unlifted outer one.
type ScalarLoop struct {
	Counter     ir.Var
	Low, High   cfgbuild.Operand
	CarriedPhis []*ssa.Phi
	Body        []Node
}

// Node is one step of a vectorize.Function's body: exactly one field is set.
type Node struct {
	Assign *cfgbuild.Assignment
	Loop   *ScalarLoop
	Vector *VectorLoop
}

// Function mirrors looplinear.Function with loops replaced by whichever of
// ScalarLoop/VectorLoop phase 1 decided each one became.
type Function struct {
	Params []ir.Var
	Body   []Node
	Return cfgbuild.Operand
}

// LiftLoops runs phase 1 over fn, returning the rewritten function. Nesting
// is walked bottom-up, but only a loop whose own body contains no nested
// loop is itself considered for lifting — biometric's outer argmin loop
// would fail the lift (it carries a scalar accumulator) whether or not its
// inner distance loop already lifted, so this keeps the two decisions
// independent instead of letting an inner success or failure bias the
// outer one.
func LiftLoops(fn *looplinear.Function) *Function {
	return &Function{
		Params: fn.Params,
		Body:   liftOps(fn.Body),
		Return: fn.Return,
	}
}

func liftOps(ops []looplinear.Op) []Node {
	nodes := make([]Node, 0, len(ops))
	for _, op := range ops {
		nodes = append(nodes, liftOp(op))
	}
	return nodes
}

func liftOp(op looplinear.Op) Node {
	if op.Assign != nil {
		return Node{Assign: op.Assign}
	}
	loop := op.Loop
	if !hasNestedLoop(loop.Body) {
		if v, ok := tryLift(loop); ok {
			return Node{Vector: v}
		}
	}
	return Node{Loop: &ScalarLoop{
		Counter:     loop.Counter,
		Low:         loop.Low,
		High:        loop.High,
		CarriedPhis: loop.CarriedPhis,
		Body:        liftOps(loop.Body),
	}}
}

func hasNestedLoop(ops []looplinear.Op) bool {
	for _, op := range ops {
		if op.Loop != nil {
			return true
		}
	}
	return false
}

// tryLift attempts to rewrite loop's body into vector form, failing
// (returning ok=false) on any shape 4.10 doesn't cover: a surviving scalar
// carry, a dependency-graph cycle, or a body op this package doesn't know
// how to translate elementwise.
func tryLift(loop *looplinear.ForLoop) (*VectorLoop, bool) {
	if hasScalarCarry(loop) {
		return nil, false
	}
	if depgraph.HasCycle(depgraph.Build(loop.Body, loop.CarriedPhis)) {
		return nil, false
	}

	env := make(map[ir.Var]VecOperand, len(loop.Body))
	var body []VecAssign
	for _, op := range loop.Body {
		if op.Loop != nil {
			return nil, false
		}
		a := op.Assign
		switch rhs := a.RHS.(type) {
		case cfgbuild.RHSLoad:
			if !isCounter(rhs.Index, loop.Counter) {
				return nil, false
			}
			env[a.LHS] = VecArray{Var: rhs.Array}
			continue
		case cfgbuild.RHSOperand:
			v, ok := toVecOperand(env, rhs.Operand, loop.Counter)
			if !ok {
				return nil, false
			}
			body = append(body, VecAssign{LHS: a.LHS, RHS: VecCopy{From: v}})
		case cfgbuild.RHSBinOp:
			l, ok1 := toVecOperand(env, rhs.Left, loop.Counter)
			r, ok2 := toVecOperand(env, rhs.Right, loop.Counter)
			if !ok1 || !ok2 {
				return nil, false
			}
			body = append(body, VecAssign{LHS: a.LHS, RHS: VecBinOp{Left: l, Op: rhs.Op, Right: r}})
		case cfgbuild.RHSUnaryOp:
			v, ok := toVecOperand(env, rhs.Operand, loop.Counter)
			if !ok {
				return nil, false
			}
			body = append(body, VecAssign{LHS: a.LHS, RHS: VecUnaryOp{Op: rhs.Op, Operand: v}})
		case cfgbuild.RHSStore:
			if !isCounter(rhs.Index, loop.Counter) {
				return nil, false
			}
			v, ok := toVecOperand(env, rhs.Value, loop.Counter)
			if !ok {
				return nil, false
			}
			body = append(body, VecAssign{LHS: a.LHS, RHS: VecCopy{From: v}})
		case muxlower.MuxOp:
			c, ok1 := toVecOperand(env, rhs.Cond, loop.Counter)
			th, ok2 := toVecOperand(env, rhs.Then, loop.Counter)
			el, ok3 := toVecOperand(env, rhs.Else, loop.Counter)
			if !ok1 || !ok2 || !ok3 {
				return nil, false
			}
			body = append(body, VecAssign{LHS: a.LHS, RHS: VecMux{Cond: c, Then: th, Else: el}})
		default:
			return nil, false
		}
		env[a.LHS] = VecArray{Var: a.LHS}
	}
	if len(body) == 0 {
		return nil, false
	}
	return &VectorLoop{Low: loop.Low, High: loop.High, Body: body}, true
}

// hasScalarCarry reports whether loop carries any Φ besides the counter
// that behaves as a whole-variable accumulator rather than the array/mux
// refinement pattern C9 produces; a surviving scalar carry blocks lifting
// per 4.10.
func hasScalarCarry(loop *looplinear.ForLoop) bool {
	for _, phi := range loop.CarriedPhis {
		if !isArrayCarried(phi, loop.Body) {
			return true
		}
	}
	return false
}

func isArrayCarried(phi *ssa.Phi, body []looplinear.Op) bool {
	for _, op := range body {
		if op.Assign == nil {
			continue
		}
		if store, ok := op.Assign.RHS.(cfgbuild.RHSStore); ok && store.Array.WithoutSubscript() == phi.Base {
			return true
		}
	}
	return false
}

func isCounter(op cfgbuild.Operand, counter ir.Var) bool {
	v, ok := op.(cfgbuild.OperandVar)
	return ok && v.Var == counter
}

// toVecOperand classifies op as either an already-lifted array (tracked in
// env), the counter itself (unsupported — this package only lifts direct
// elementwise array accesses, never arithmetic on the index), or a
// loop-invariant value broadcast across every lane.
func toVecOperand(env map[ir.Var]VecOperand, op cfgbuild.Operand, counter ir.Var) (VecOperand, bool) {
	v, ok := op.(cfgbuild.OperandVar)
	if !ok {
		return VecBroadcast{Operand: op}, true
	}
	if v.Var == counter {
		return nil, false
	}
	if vec, ok := env[v.Var]; ok {
		return vec, true
	}
	return VecBroadcast{Operand: op}, true
}
