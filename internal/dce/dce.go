// Package dce removes SSA assignments and Φs that nothing observable
// depends on: liveness is seeded from the two places a value can escape a
// function (the Return terminator and every ConditionalJump's condition)
// and propagated backward through operand uses to a fixed point.
package dce

import (
	"mpcc/internal/cfgbuild"
	"mpcc/internal/ir"
	"mpcc/internal/muxlower"
	"mpcc/internal/ssa"
)

type defSite struct {
	isPhi bool
	phi   *ssa.Phi
	block *cfgbuild.Block
	index int
}

// Eliminate removes every Assignment and Φ in fn that no live terminator
// transitively depends on, in place. Running it again on its own output is
// a no-op: every remaining definition already has a path to a terminator.
func Eliminate(fn *ssa.Function) {
	cfg := fn.CFG
	defIndex := make(map[ir.Var]defSite)
	for _, b := range cfg.Blocks {
		for i, a := range b.Assignments {
			defIndex[a.LHS] = defSite{block: b, index: i}
		}
	}
	for id, phis := range fn.Phis {
		for _, p := range phis {
			defIndex[p.LHS] = defSite{isPhi: true, phi: p, block: cfg.Block(id)}
		}
	}

	liveAssignments := make(map[*cfgbuild.Block]map[int]bool)
	livePhis := make(map[*ssa.Phi]bool)

	var markLive func(v ir.Var)
	markLive = func(v ir.Var) {
		site, ok := defIndex[v]
		if !ok {
			return
		}
		if site.isPhi {
			if livePhis[site.phi] {
				return
			}
			livePhis[site.phi] = true
			for _, arg := range site.phi.Args {
				markLive(arg.Val)
			}
			return
		}
		if liveAssignments[site.block] == nil {
			liveAssignments[site.block] = make(map[int]bool)
		}
		if liveAssignments[site.block][site.index] {
			return
		}
		liveAssignments[site.block][site.index] = true
		for _, v := range operandVars(site.block.Assignments[site.index].RHS) {
			markLive(v)
		}
	}

	for _, b := range cfg.Blocks {
		switch t := b.Terminator.(type) {
		case cfgbuild.Return:
			if v, ok := t.Value.(cfgbuild.OperandVar); ok {
				markLive(v.Var)
			}
		case cfgbuild.ConditionalJump:
			if v, ok := t.Cond.(cfgbuild.OperandVar); ok {
				markLive(v.Var)
			}
		}
	}

	for _, b := range cfg.Blocks {
		kept := b.Assignments[:0]
		for i, a := range b.Assignments {
			if liveAssignments[b][i] {
				kept = append(kept, a)
			}
		}
		b.Assignments = kept
	}
	for id, phis := range fn.Phis {
		var kept []*ssa.Phi
		for _, p := range phis {
			if livePhis[p] {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			delete(fn.Phis, id)
		} else {
			fn.Phis[id] = kept
		}
	}
}

func operandVars(rhs cfgbuild.RHS) []ir.Var {
	var vars []ir.Var
	add := func(o cfgbuild.Operand) {
		if v, ok := o.(cfgbuild.OperandVar); ok {
			vars = append(vars, v.Var)
		}
	}
	switch n := rhs.(type) {
	case cfgbuild.RHSOperand:
		add(n.Operand)
	case cfgbuild.RHSBinOp:
		add(n.Left)
		add(n.Right)
	case cfgbuild.RHSUnaryOp:
		add(n.Operand)
	case cfgbuild.RHSLoad:
		vars = append(vars, n.Array)
		add(n.Index)
	case cfgbuild.RHSStore:
		vars = append(vars, n.Array)
		add(n.Index)
		add(n.Value)
	case cfgbuild.RHSList:
		for _, it := range n.Items {
			add(it)
		}
	case cfgbuild.RHSTuple:
		for _, it := range n.Items {
			add(it)
		}
	case muxlower.MuxOp:
		add(n.Cond)
		add(n.Then)
		add(n.Else)
	}
	return vars
}
