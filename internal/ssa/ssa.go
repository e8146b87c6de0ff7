// Package ssa turns a TAC CFG (internal/cfgbuild) into SSA form: every
// variable gets a fresh versioned name at each definition, and Φ-functions
// are placed at the join points the dominance frontier identifies, following
// Cytron, Ferrante, Rosen, Wegman & Zadeck's classical construction.
package ssa

import "mpcc/internal/cfgbuild"

// Function is a CFG whose Assignments, Terminators and Phis all carry
// renamed, versioned Vars. The CFG's block graph shape is unchanged from
// what cfgbuild produced — only the variable names inside it, plus the
// added Phis — so every later stage keeps working with *cfgbuild.CFG block
// IDs and edges.
type Function struct {
	CFG  *cfgbuild.CFG
	Phis map[cfgbuild.BlockID][]*Phi
}

// Build runs Φ placement and renaming over cfg in place and returns the
// resulting SSA view.
func Build(cfg *cfgbuild.CFG) *Function {
	dom := cfgbuild.ComputeDominance(cfg)
	phis := placePhis(cfg, dom)
	rename(cfg, dom, phis)
	return &Function{CFG: cfg, Phis: phis}
}

// PhisAt returns the Φ-functions placed at block id, in the order placement
// discovered them (stable across a single Build call, not meaningful
// across two).
func (f *Function) PhisAt(id cfgbuild.BlockID) []*Phi {
	return f.Phis[id]
}
