// Package looplinear rewrites a mux-lowered SSA function into a flat,
// structured form: straight-line Assignments interleaved with explicit
// ForLoop nodes, instead of a block graph. Branch-join Φs are already gone
// (internal/muxlower turned them into mux assignments), so every remaining
// block boundary is either ordinary fallthrough or a loop back edge —
// exactly the two shapes this package needs to recognize.
package looplinear

import (
	"mpcc/internal/cfgbuild"
	"mpcc/internal/diag"
	"mpcc/internal/ir"
	"mpcc/internal/ssa"
)

// Op is one step of a linearized function body: exactly one of Assign or
// Loop is set.
type Op struct {
	Assign *cfgbuild.Assignment
	Loop   *ForLoop
}

// ForLoop is a loop whose header test has been recognized as `counter <
// high`, counter seeded at Low. Counter is the exact SSA name the loop
// body uses to read the induction variable (the header Φ's renamed LHS),
// not just its base name, so later stages can match index operands against
// it directly. CarriedPhis holds every other Φ at the header (the loop's
// carried state besides the counter itself); their Base is the variable's
// plain name, their two Args are the preheader value and the latch value
// in that order.
type ForLoop struct {
	Counter     ir.Var
	Low         cfgbuild.Operand
	High        cfgbuild.Operand
	CarriedPhis []*ssa.Phi
	Body        []Op
}

// Function is fn's body flattened to Ops, ending in the value it returns.
type Function struct {
	Params []ir.Var
	Body   []Op
	Return cfgbuild.Operand
}

// Build flattens fn's block graph into loop-linear form.
func Build(fn *ssa.Function) *Function {
	cfg := fn.CFG
	l := &linearizer{
		cfg:     cfg,
		phis:    fn.Phis,
		headers: cfgbuild.BackEdgeTargets(cfg),
		dom:     cfgbuild.ComputeDominance(cfg),
	}
	ops, ret := l.run(cfg.Entry)
	return &Function{Params: cfg.Params, Body: ops, Return: ret}
}

type linearizer struct {
	cfg     *cfgbuild.CFG
	phis    map[cfgbuild.BlockID][]*ssa.Phi
	headers map[cfgbuild.BlockID]bool
	dom     *cfgbuild.Dominance
}

func assignOps(as []cfgbuild.Assignment) []Op {
	ops := make([]Op, len(as))
	for i := range as {
		ops[i] = Op{Assign: &as[i]}
	}
	return ops
}

// run walks from cur to the function's Return, descending into loops and
// flattening if/else arms as it goes.
func (l *linearizer) run(cur cfgbuild.BlockID) ([]Op, cfgbuild.Operand) {
	var ops []Op
	for {
		blk := l.cfg.Block(cur)
		ops = append(ops, assignOps(blk.Assignments)...)
		switch t := blk.Terminator.(type) {
		case cfgbuild.Return:
			return ops, t.Value
		case cfgbuild.Jump:
			if l.headers[t.Target] {
				loopOp, exit := l.buildForLoop(cur, t.Target)
				ops = append(ops, Op{Loop: loopOp})
				cur = exit
				continue
			}
			cur = t.Target
		case cfgbuild.ConditionalJump:
			brOps, join := l.handleConditional(t)
			ops = append(ops, brOps...)
			cur = join
		default:
			diag.Assertf("looplinear", "bb%d has unhandled terminator %T", cur, blk.Terminator)
		}
	}
}

// runArm walks one if/else arm from start until it hits the Jump that
// rejoins the enclosing branch, returning the ops it collected and the
// rejoin block.
func (l *linearizer) runArm(start cfgbuild.BlockID) ([]Op, cfgbuild.BlockID) {
	var ops []Op
	cur := start
	for {
		blk := l.cfg.Block(cur)
		ops = append(ops, assignOps(blk.Assignments)...)
		switch t := blk.Terminator.(type) {
		case cfgbuild.Jump:
			if l.headers[t.Target] {
				loopOp, exit := l.buildForLoop(cur, t.Target)
				ops = append(ops, Op{Loop: loopOp})
				cur = exit
				continue
			}
			return ops, t.Target
		case cfgbuild.ConditionalJump:
			brOps, join := l.handleConditional(t)
			ops = append(ops, brOps...)
			cur = join
		default:
			diag.Assertf("looplinear", "if-arm starting at bb%d ended in %T, want a join Jump", start, blk.Terminator)
		}
	}
}

// handleConditional flattens both arms of an if/else into sequential ops —
// every MPC value here is secret-shared, so both arms already run
// unconditionally and the mux assignment at the join picks the live one.
// It returns the combined ops and the block where both arms rejoin.
func (l *linearizer) handleConditional(t cfgbuild.ConditionalJump) ([]Op, cfgbuild.BlockID) {
	thenOps, join := l.runArm(t.TrueTarget)
	if t.FalseTarget == join {
		return thenOps, join
	}
	elseOps, elseJoin := l.runArm(t.FalseTarget)
	if elseJoin != join {
		diag.Assertf("looplinear", "if/else arms rejoin at different blocks (bb%d vs bb%d)", join, elseJoin)
	}
	return append(thenOps, elseOps...), join
}

// linearizeUntil walks a loop body from start, stopping at (and excluding)
// stop — the latch block, whose only content is the counter increment this
// package represents structurally instead of as an Op.
func (l *linearizer) linearizeUntil(start, stop cfgbuild.BlockID) []Op {
	var ops []Op
	cur := start
	for cur != stop {
		blk := l.cfg.Block(cur)
		ops = append(ops, assignOps(blk.Assignments)...)
		switch t := blk.Terminator.(type) {
		case cfgbuild.Jump:
			if l.headers[t.Target] && t.Target != stop {
				loopOp, exit := l.buildForLoop(cur, t.Target)
				ops = append(ops, Op{Loop: loopOp})
				cur = exit
				continue
			}
			cur = t.Target
		case cfgbuild.ConditionalJump:
			brOps, join := l.handleConditional(t)
			ops = append(ops, brOps...)
			cur = join
		default:
			diag.Assertf("looplinear", "bb%d (inside loop body) has unhandled terminator %T", cur, blk.Terminator)
		}
	}
	return ops
}

// buildForLoop recognizes the header/body/latch/join shape internal/cfgbuild
// always produces for a for-statement and recovers its Counter, Low and
// High from the header's bound check and the counter's own Φ. preheader is
// the block that jumped into header; header is the loop header itself.
func (l *linearizer) buildForLoop(preheader, header cfgbuild.BlockID) (*ForLoop, cfgbuild.BlockID) {
	headerBlk := l.cfg.Block(header)
	cj, ok := headerBlk.Terminator.(cfgbuild.ConditionalJump)
	if !ok {
		diag.Assertf("looplinear", "loop header bb%d has no ConditionalJump terminator", header)
	}

	var high cfgbuild.Operand
	var counterBase ir.Var
	found := false
	for _, a := range headerBlk.Assignments {
		bo, ok := a.RHS.(cfgbuild.RHSBinOp)
		if !ok || bo.Op != ir.LT {
			continue
		}
		leftVar, ok := bo.Left.(cfgbuild.OperandVar)
		if !ok {
			continue
		}
		counterBase = leftVar.Var.WithoutSubscript()
		high = bo.Right
		found = true
		break
	}
	if !found {
		diag.Assertf("looplinear", "loop header bb%d has no counter bound check", header)
	}

	var counterPhi *ssa.Phi
	var carried []*ssa.Phi
	for _, phi := range l.phis[header] {
		if phi.Base == counterBase {
			counterPhi = phi
			continue
		}
		carried = append(carried, phi)
	}
	if counterPhi == nil {
		diag.Assertf("looplinear", "loop header bb%d has no Φ for counter %s", header, counterBase)
	}

	var low cfgbuild.Operand
	for _, arg := range counterPhi.Args {
		if arg.Pred == preheader {
			low = cfgbuild.OperandVar{Var: arg.Val}
		}
	}

	var latch cfgbuild.BlockID
	for _, e := range headerBlk.Preds {
		if e.From != preheader {
			latch = e.From
		}
	}

	body := l.linearizeUntil(cj.TrueTarget, latch)

	return &ForLoop{
		Counter:     counterPhi.LHS,
		Low:         low,
		High:        high,
		CarriedPhis: carried,
		Body:        body,
	}, cj.FalseTarget
}
