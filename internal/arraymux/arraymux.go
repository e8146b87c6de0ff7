// Package arraymux rewrites the whole-array mux pattern internal/muxlower
// leaves behind when a conditional array write has no else branch —
// `A' := mux(c, store(A, i, x), A)` — into a targeted element write,
// `A' := store(A, i, mux(c, x, A[i]))`, whenever the analysis can see the
// "then" value came from storing into exactly the untaken path's array.
// This turns an apparent whole-array dependency into a single-element one,
// which is what internal/vectorize needs to lift the loop.
package arraymux

import (
	"fmt"

	"mpcc/internal/cfgbuild"
	"mpcc/internal/ir"
	"mpcc/internal/looplinear"
	"mpcc/internal/muxlower"
)

// Refine rewrites every qualifying mux in fn's loop bodies in place. The
// top-level body is left alone: the pattern only matters inside a loop,
// where the array is carried across iterations and the vectorizer needs
// per-element granularity to lift it.
func Refine(fn *looplinear.Function) {
	b := &builder{}
	for i := range fn.Body {
		if fn.Body[i].Loop != nil {
			fn.Body[i].Loop.Body = b.refineLoopBody(fn.Body[i].Loop.Body)
		}
	}
}

type builder struct{ next int }

func (b *builder) newTemp(tag string) ir.Var {
	v := ir.NewVar(fmt.Sprintf("__arraymux_%s%d", tag, b.next))
	b.next++
	return v
}

func (b *builder) refineLoopBody(ops []looplinear.Op) []looplinear.Op {
	for i := range ops {
		if ops[i].Loop != nil {
			ops[i].Loop.Body = b.refineLoopBody(ops[i].Loop.Body)
		}
	}

	defs := make(map[ir.Var]*cfgbuild.Assignment, len(ops))
	for _, op := range ops {
		if op.Assign != nil {
			defs[op.Assign.LHS] = op.Assign
		}
	}

	superseded := make(map[ir.Var]bool)
	replacements := make(map[ir.Var][]looplinear.Op)
	for _, op := range ops {
		if op.Assign == nil {
			continue
		}
		mux, ok := op.Assign.RHS.(muxlower.MuxOp)
		if !ok {
			continue
		}
		thenVar, ok := mux.Then.(cfgbuild.OperandVar)
		if !ok {
			continue
		}
		elseVar, ok := mux.Else.(cfgbuild.OperandVar)
		if !ok {
			continue
		}
		def, ok := defs[thenVar.Var]
		if !ok {
			continue
		}
		store, ok := def.RHS.(cfgbuild.RHSStore)
		if !ok || store.Array != elseVar.Var {
			continue
		}
		replacements[op.Assign.LHS] = b.refine(op.Assign.LHS, mux.Cond, store)
		superseded[thenVar.Var] = true
	}
	if len(replacements) == 0 {
		return ops
	}

	out := make([]looplinear.Op, 0, len(ops))
	for _, op := range ops {
		if op.Assign == nil {
			out = append(out, op)
			continue
		}
		if superseded[op.Assign.LHS] {
			continue
		}
		if repl, ok := replacements[op.Assign.LHS]; ok {
			out = append(out, repl...)
			continue
		}
		out = append(out, op)
	}
	return out
}

// refine emits the three ops that replace a whole-array mux assignment:
// load the untaken path's element, select between it and the stored value,
// store the selection back at the same index.
func (b *builder) refine(lhs ir.Var, cond cfgbuild.Operand, store cfgbuild.RHSStore) []looplinear.Op {
	oldElem := b.newTemp("old")
	loadAssign := cfgbuild.Assignment{LHS: oldElem, RHS: cfgbuild.RHSLoad{Array: store.Array, Index: store.Index}}

	selected := b.newTemp("sel")
	selectAssign := cfgbuild.Assignment{
		LHS: selected,
		RHS: muxlower.MuxOp{Cond: cond, Then: store.Value, Else: cfgbuild.OperandVar{Var: oldElem}},
	}

	storeAssign := cfgbuild.Assignment{
		LHS: lhs,
		RHS: cfgbuild.RHSStore{Array: store.Array, Index: store.Index, Value: cfgbuild.OperandVar{Var: selected}},
	}

	return []looplinear.Op{{Assign: &loadAssign}, {Assign: &selectAssign}, {Assign: &storeAssign}}
}
