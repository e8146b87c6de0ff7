package ssa

import (
	"mpcc/internal/cfgbuild"
	"mpcc/internal/ir"
)

// Phi is a Φ-function: at its block, it selects LHS from one of Args
// depending on which predecessor control arrived from. Before renaming,
// LHS and each Arg's Val are the unversioned base Var; renaming fills in
// the real SSA subscripts.
type Phi struct {
	Base ir.Var
	LHS  ir.Var
	Args []PhiArg
}

// PhiArg pairs a predecessor block with the value flowing in from it.
type PhiArg struct {
	Pred cfgbuild.BlockID
	Val  ir.Var
}

// placePhis runs the iterated dominance-frontier worklist algorithm from
// Cytron et al. §5: every assigned variable gets a Φ at each block in the
// iterated dominance frontier of its def sites. Renaming later drops any of
// these Φs that an incoming edge reaches with no definition of its variable.
func placePhis(cfg *cfgbuild.CFG, dom *cfgbuild.Dominance) map[cfgbuild.BlockID][]*Phi {
	defsites := collectDefsites(cfg)

	phis := make(map[cfgbuild.BlockID][]*Phi)
	hasPhi := make(map[cfgbuild.BlockID]map[ir.Var]bool)
	markHasPhi := func(b cfgbuild.BlockID, v ir.Var) {
		if hasPhi[b] == nil {
			hasPhi[b] = make(map[ir.Var]bool)
		}
		hasPhi[b][v] = true
	}

	for v, defs := range defsites {
		everOnWorklist := make(map[cfgbuild.BlockID]bool, len(defs))
		worklist := make([]cfgbuild.BlockID, len(defs))
		copy(worklist, defs)
		for _, d := range defs {
			everOnWorklist[d] = true
		}

		for len(worklist) > 0 {
			n := worklist[len(worklist)-1]
			worklist = worklist[:len(worklist)-1]
			for _, f := range dom.Frontier[n] {
				if hasPhi[f][v] {
					continue
				}
				phis[f] = append(phis[f], &Phi{Base: v})
				markHasPhi(f, v)
				if !everOnWorklist[f] {
					everOnWorklist[f] = true
					worklist = append(worklist, f)
				}
			}
		}
	}
	return phis
}

func collectDefsites(cfg *cfgbuild.CFG) map[ir.Var][]cfgbuild.BlockID {
	defsites := make(map[ir.Var][]cfgbuild.BlockID)
	for _, b := range cfg.Blocks {
		seen := make(map[ir.Var]bool)
		for _, a := range b.Assignments {
			base := a.LHS.WithoutSubscript()
			if seen[base] {
				continue
			}
			seen[base] = true
			defsites[base] = append(defsites[base], b.ID)
		}
	}
	return defsites
}
