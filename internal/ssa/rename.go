package ssa

import (
	"mpcc/internal/cfgbuild"
	"mpcc/internal/diag"
	"mpcc/internal/ir"
)

// renamer drives the dominator-tree DFS renaming pass: each base variable
// gets a stack of its currently-visible SSA names and a monotonic counter,
// exactly as in Cytron et al. §6 / Briggs, Cooper, Harvey & Simpson's
// renaming algorithm.
type renamer struct {
	cfg      *cfgbuild.CFG
	dom      *cfgbuild.Dominance
	phis     map[cfgbuild.BlockID][]*Phi
	counters map[ir.Var]int
	stacks   map[ir.Var][]ir.Var
}

// rename performs the full renaming pass in place on cfg, seeding
// parameters at subscript 0 and everything else starting at subscript 1.
func rename(cfg *cfgbuild.CFG, dom *cfgbuild.Dominance, phis map[cfgbuild.BlockID][]*Phi) {
	r := &renamer{
		cfg:      cfg,
		dom:      dom,
		phis:     phis,
		counters: make(map[ir.Var]int),
		stacks:   make(map[ir.Var][]ir.Var),
	}
	for _, p := range cfg.Params {
		seeded := p.WithSubscript(0)
		r.stacks[p] = append(r.stacks[p], seeded)
	}
	r.renameBlock(cfg.Entry)
}

func (r *renamer) fresh(base ir.Var) ir.Var {
	r.counters[base]++
	v := base.WithSubscript(r.counters[base])
	r.stacks[base] = append(r.stacks[base], v)
	return v
}

func (r *renamer) top(base ir.Var) ir.Var {
	stack := r.stacks[base]
	if len(stack) == 0 {
		diag.Assertf("ssa", "use of undefined variable %q before any definition dominates this point", base.BaseName())
	}
	return stack[len(stack)-1]
}

func (r *renamer) pop(base ir.Var) {
	stack := r.stacks[base]
	r.stacks[base] = stack[:len(stack)-1]
}

func (r *renamer) renameOperand(o cfgbuild.Operand) cfgbuild.Operand {
	if v, ok := o.(cfgbuild.OperandVar); ok {
		return cfgbuild.OperandVar{Var: r.top(v.Var.WithoutSubscript())}
	}
	return o
}

func (r *renamer) renameRHS(rhs cfgbuild.RHS) cfgbuild.RHS {
	switch n := rhs.(type) {
	case cfgbuild.RHSOperand:
		return cfgbuild.RHSOperand{Operand: r.renameOperand(n.Operand)}
	case cfgbuild.RHSBinOp:
		return cfgbuild.RHSBinOp{Left: r.renameOperand(n.Left), Op: n.Op, Right: r.renameOperand(n.Right)}
	case cfgbuild.RHSUnaryOp:
		return cfgbuild.RHSUnaryOp{Op: n.Op, Operand: r.renameOperand(n.Operand)}
	case cfgbuild.RHSLoad:
		return cfgbuild.RHSLoad{Array: r.top(n.Array.WithoutSubscript()), Index: r.renameOperand(n.Index)}
	case cfgbuild.RHSStore:
		return cfgbuild.RHSStore{
			Array: r.top(n.Array.WithoutSubscript()),
			Index: r.renameOperand(n.Index),
			Value: r.renameOperand(n.Value),
		}
	case cfgbuild.RHSList:
		items := make([]cfgbuild.Operand, len(n.Items))
		for i, it := range n.Items {
			items[i] = r.renameOperand(it)
		}
		return cfgbuild.RHSList{Items: items}
	case cfgbuild.RHSTuple:
		items := make([]cfgbuild.Operand, len(n.Items))
		for i, it := range n.Items {
			items[i] = r.renameOperand(it)
		}
		return cfgbuild.RHSTuple{Items: items}
	default:
		diag.Assertf("ssa", "unhandled RHS %T during renaming", rhs)
		return nil
	}
}

func (r *renamer) renameTerminator(t cfgbuild.Terminator) cfgbuild.Terminator {
	switch n := t.(type) {
	case cfgbuild.Jump:
		return n
	case cfgbuild.ConditionalJump:
		return cfgbuild.ConditionalJump{Cond: r.renameOperand(n.Cond), TrueTarget: n.TrueTarget, FalseTarget: n.FalseTarget}
	case cfgbuild.Return:
		return cfgbuild.Return{Value: r.renameOperand(n.Value)}
	default:
		diag.Assertf("ssa", "unhandled Terminator %T during renaming", t)
		return nil
	}
}

func (r *renamer) renameBlock(id cfgbuild.BlockID) {
	block := r.cfg.Block(id)
	var pushed []ir.Var

	for _, phi := range r.phis[id] {
		phi.LHS = r.fresh(phi.Base)
		pushed = append(pushed, phi.Base)
	}

	for i := range block.Assignments {
		a := &block.Assignments[i]
		a.RHS = r.renameRHS(a.RHS)
		base := a.LHS.WithoutSubscript()
		a.LHS = r.fresh(base)
		pushed = append(pushed, base)
	}

	block.Terminator = r.renameTerminator(block.Terminator)

	for _, e := range block.Succs {
		kept := r.phis[e.To][:0]
		for _, phi := range r.phis[e.To] {
			// No definition of phi.Base reaches this edge (a temp, or a
			// variable first assigned inside the loop or arm this Φ
			// closes), so there is nothing to merge in from here: the Φ
			// is dropped instead of being given an undefined argument.
			if len(r.stacks[phi.Base]) == 0 {
				continue
			}
			phi.Args = append(phi.Args, PhiArg{Pred: id, Val: r.top(phi.Base)})
			kept = append(kept, phi)
		}
		if len(kept) == 0 {
			delete(r.phis, e.To)
		} else {
			r.phis[e.To] = kept
		}
	}

	for _, child := range r.dom.Children[id] {
		r.renameBlock(child)
	}

	for i := len(pushed) - 1; i >= 0; i-- {
		r.pop(pushed[i])
	}
}
