package pipeline

import (
	"fmt"

	"mpcc/internal/ast"
	"mpcc/internal/cfgbuild"
	"mpcc/internal/looplinear"
	"mpcc/internal/ssa"
	"mpcc/internal/vectorize"
)

// PrintStage renders the canonical textual form (spec.md §6) of the IR
// produced by the named stage, for the mpcc CLI's -dump-stage flag and for
// golden-file comparisons. It reports false if the Result field holding
// that stage's IR is still nil or the name isn't recognized. Stages that
// rewrite the same IR share a field (ssa/muxlower/dce, looplinear/arraymux,
// vectorize-lift/vectorize-finalize), so a later stage of such a group
// prints as soon as the first one has run.
func PrintStage(r *Result, name string) (string, bool) {
	switch name {
	case "source":
		if r.Source == nil {
			return "", false
		}
		return ast.Print(r.Source), true
	case "cfgbuild":
		if r.CFG == nil {
			return "", false
		}
		return cfgbuild.Print(r.CFG), true
	case "ssa", "muxlower", "dce":
		if r.SSA == nil {
			return "", false
		}
		return ssa.Print(r.SSA), true
	case "looplinear", "arraymux":
		if r.LoopLinear == nil {
			return "", false
		}
		return looplinear.Print(r.LoopLinear), true
	case "vectorize-lift", "vectorize-finalize":
		if r.Lifted == nil {
			return "", false
		}
		return vectorize.Print(r.Lifted), true
	case "vectorize-collapse":
		if r.Collapsed == nil {
			return "", false
		}
		return printCollapsed(r.Collapsed), true
	default:
		return "", false
	}
}

// PrintAll concatenates every stage whose Result field has been populated,
// in pipeline order. Used to compare a Result's full textual shape before
// and after re-running an idempotent stage.
func PrintAll(r *Result) string {
	var out string
	for _, name := range []string{
		"source", "cfgbuild", "ssa", "looplinear", "vectorize-lift", "vectorize-collapse",
	} {
		if s, ok := PrintStage(r, name); ok {
			out += "## " + name + "\n" + s
		}
	}
	return out
}

func printCollapsed(g *vectorize.CollapsedGraph) string {
	s := fmt.Sprintf("collapsed graph: %d nodes, %d edges\n", len(g.Nodes), len(g.Edges))
	for _, e := range g.Edges {
		s += fmt.Sprintf("  %d -> %d (%s)\n", e.From, e.To, e.Kind)
	}
	return s
}
