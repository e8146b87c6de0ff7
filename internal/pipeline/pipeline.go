// Package pipeline sequences C3→C12 behind a Stage interface: cfgbuild →
// ssa → muxlower → dce → looplinear → arraymux → vectorize(lift) →
// typecheck → vectorize(finalize) → vectorize(collapse). Each stage reads
// and writes Result, the one mutable container threading every
// representation the lowering produces, the way the teacher's
// OptimizationPipeline threads a single *ir.Program through each
// OptimizationPass.Apply — adapted here since C3→C12, unlike the teacher's
// passes, each change the IR's own Go type rather than mutating one shape
// in place.
package pipeline

import (
	"mpcc/internal/arraymux"
	"mpcc/internal/ast"
	"mpcc/internal/cfgbuild"
	"mpcc/internal/dce"
	"mpcc/internal/looplinear"
	"mpcc/internal/muxlower"
	"mpcc/internal/ssa"
	"mpcc/internal/typecheck"
	"mpcc/internal/vectorize"
)

// Result accumulates every stage's output. Fields are left nil until the
// stage that produces them has run, so CompileUntil's partial Result makes
// it obvious which stages actually executed.
type Result struct {
	Source     *ast.Function
	CFG        *cfgbuild.CFG
	SSA        *ssa.Function
	LoopLinear *looplinear.Function
	Lifted     *vectorize.Function
	Types      typecheck.Env
	Collapsed  *vectorize.CollapsedGraph
}

// Stage is one step of the lowering pipeline.
type Stage interface {
	Name() string
	Run(r *Result) error
}

// Stages is the fixed C3→C12 sequence, in order.
var Stages = []Stage{
	cfgStage{},
	ssaStage{},
	muxStage{},
	dceStage{},
	loopLinearStage{},
	arrayMuxStage{},
	liftStage{},
	typecheckStage{},
	finalizeStage{},
	collapseStage{},
}

// Compile runs every stage over src in order, stopping at the first error —
// spec.md §7's "each stage fails fast, no partial IR is emitted" realized as
// an early return with a nil *Result.
func Compile(src *ast.Function) (*Result, error) {
	return CompileUntil(src, "")
}

// CompileUntil runs Stages in order, stopping after the named stage runs
// (or after every stage, if until is empty or never matches). The partial
// Result from a stopped-early run is still returned alongside a nil error,
// letting golden tests and -until-stage inspect an intermediate form.
func CompileUntil(src *ast.Function, until string) (*Result, error) {
	r := &Result{Source: src}
	for _, s := range Stages {
		if err := s.Run(r); err != nil {
			return nil, err
		}
		if s.Name() == until {
			break
		}
	}
	return r, nil
}

type cfgStage struct{}

func (cfgStage) Name() string { return "cfgbuild" }
func (cfgStage) Run(r *Result) error {
	r.CFG = cfgbuild.Build(r.Source)
	return nil
}

type ssaStage struct{}

func (ssaStage) Name() string { return "ssa" }
func (ssaStage) Run(r *Result) error {
	r.SSA = ssa.Build(r.CFG)
	return nil
}

type muxStage struct{}

func (muxStage) Name() string { return "muxlower" }
func (muxStage) Run(r *Result) error {
	muxlower.Lower(r.SSA)
	return nil
}

type dceStage struct{}

func (dceStage) Name() string { return "dce" }
func (dceStage) Run(r *Result) error {
	dce.Eliminate(r.SSA)
	return nil
}

type loopLinearStage struct{}

func (loopLinearStage) Name() string { return "looplinear" }
func (loopLinearStage) Run(r *Result) error {
	r.LoopLinear = looplinear.Build(r.SSA)
	return nil
}

type arrayMuxStage struct{}

func (arrayMuxStage) Name() string { return "arraymux" }
func (arrayMuxStage) Run(r *Result) error {
	arraymux.Refine(r.LoopLinear)
	return nil
}

type liftStage struct{}

func (liftStage) Name() string { return "vectorize-lift" }
func (liftStage) Run(r *Result) error {
	r.Lifted = vectorize.LiftLoops(r.LoopLinear)
	return nil
}

type typecheckStage struct{}

func (typecheckStage) Name() string { return "typecheck" }
func (typecheckStage) Run(r *Result) error {
	env, err := typecheck.Propagate(r.Source.Parameters, r.LoopLinear)
	if err != nil {
		return err
	}
	r.Types = env
	return nil
}

type finalizeStage struct{}

func (finalizeStage) Name() string { return "vectorize-finalize" }
func (finalizeStage) Run(r *Result) error {
	return vectorize.Finalize(r.Lifted, r.Types)
}

type collapseStage struct{}

func (collapseStage) Name() string { return "vectorize-collapse" }
func (collapseStage) Run(r *Result) error {
	r.Collapsed = vectorize.Collapse(r.Lifted)
	return nil
}
