// Package muxlower rewrites branch-join Φs into explicit mux operations, so
// every later stage sees straight-line value selection instead of control
// flow. Loop-header Φs are left untouched here: internal/looplinear consumes
// them directly as the loop's carried state.
package muxlower

import (
	"mpcc/internal/cfgbuild"
	"mpcc/internal/diag"
	"mpcc/internal/ir"
	"mpcc/internal/ssa"
)

// MuxOp is the ternary select this pass introduces: `lhs = mux(cond, then,
// else)`. It lives in muxlower rather than cfgbuild because it is this
// stage's output vocabulary, not an input TAC shape.
type MuxOp struct {
	Cond cfgbuild.Operand
	Then cfgbuild.Operand
	Else cfgbuild.Operand
}

func (MuxOp) isRHS() {}
func (m MuxOp) String() string {
	return "mux(" + m.Cond.String() + ", " + m.Then.String() + ", " + m.Else.String() + ")"
}

var _ cfgbuild.RHS = MuxOp{}

// Lower rewrites every branch-join Φ in fn into a MuxOp assignment prepended
// to the join block, and removes it from fn.Phis. Loop-header Φs (detected
// via back-edge analysis) are left in fn.Phis for internal/looplinear.
func Lower(fn *ssa.Function) {
	cfg := fn.CFG
	headers := cfgbuild.BackEdgeTargets(cfg)
	dom := cfgbuild.ComputeDominance(cfg)

	for _, blk := range cfg.Blocks {
		if headers[blk.ID] {
			continue
		}
		phis := fn.Phis[blk.ID]
		if len(phis) == 0 {
			continue
		}

		controller := dom.IDom[blk.ID]
		cj, ok := cfg.Block(controller).Terminator.(cfgbuild.ConditionalJump)
		if !ok {
			diag.Assertf("muxlower", "join bb%d's controlling block bb%d has no ConditionalJump terminator", blk.ID, controller)
		}
		thenSide := cfgbuild.ReachableExcluding(cfg, cj.TrueTarget, blk.ID)

		var muxed []cfgbuild.Assignment
		for _, phi := range phis {
			if len(phi.Args) != 2 {
				diag.Assertf("muxlower", "branch-join Φ for %s at bb%d has %d args, want 2", phi.Base, blk.ID, len(phi.Args))
			}
			var thenVal, elseVal ir.Var
			for _, a := range phi.Args {
				if thenSide[a.Pred] {
					thenVal = a.Val
				} else {
					elseVal = a.Val
				}
			}
			muxed = append(muxed, cfgbuild.Assignment{
				LHS: phi.LHS,
				RHS: MuxOp{
					Cond: cj.Cond,
					Then: cfgbuild.OperandVar{Var: thenVal},
					Else: cfgbuild.OperandVar{Var: elseVal},
				},
			})
		}
		blk.Assignments = append(muxed, blk.Assignments...)
		delete(fn.Phis, blk.ID)
	}
}

