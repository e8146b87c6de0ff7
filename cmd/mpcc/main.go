// Package main is the mpcc command: read a restricted-language program
// (either one of the four named golden scenarios or a fixture DSL source
// file), run it through the C3→C12 lowering pipeline, and print the IR at
// whichever stage was asked for, in the caret-error/color-banner style of
// kanso's own cmd/kanso-cli.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"

	"mpcc/internal/ast"
	"mpcc/internal/fixture"
	"mpcc/internal/pipeline"
)

func main() {
	fixtureName := flag.String("fixture", "", "name of a built-in golden scenario (max_dist_between_syms, minimal_points, convex_hull, biometric)")
	fixtureFile := flag.String("fixture-file", "", "path to a fixture DSL source file")
	dumpStage := flag.String("dump-stage", "vectorize-collapse", "stage to print: source, cfgbuild, ssa, muxlower, dce, looplinear, arraymux, vectorize-lift, vectorize-finalize, vectorize-collapse")
	untilStage := flag.String("until-stage", "", "stop the pipeline after this stage (default: run every stage)")
	jsonOut := flag.Bool("json", false, "print stage output as a JSON-wrapped string instead of plain text")
	flag.Parse()

	fn, err := load(*fixtureName, *fixtureFile)
	if err != nil {
		reportError(err)
		os.Exit(1)
	}

	r, err := pipeline.CompileUntil(fn, *untilStage)
	if err != nil {
		reportError(err)
		os.Exit(1)
	}

	out, ok := pipeline.PrintStage(r, *dumpStage)
	if !ok {
		color.Red("stage %q hasn't run, or isn't a known stage name", *dumpStage)
		os.Exit(1)
	}

	if *jsonOut {
		fmt.Printf("{%q: %q}\n", *dumpStage, out)
	} else {
		fmt.Print(out)
	}
	color.Green("compiled %s through %s", fn.Name, lastRunStage(r, *dumpStage))
}

func load(fixtureName, fixtureFile string) (*ast.Function, error) {
	switch {
	case fixtureName != "" && fixtureFile != "":
		return nil, fmt.Errorf("mpcc: pass only one of -fixture and -fixture-file")
	case fixtureName != "":
		fn, err := fixture.Build(fixtureName)
		if err != nil {
			return nil, fmt.Errorf("mpcc: unknown fixture %q (known: %s): %w", fixtureName, knownFixtures(), err)
		}
		return fn, nil
	case fixtureFile != "":
		src, err := os.ReadFile(fixtureFile)
		if err != nil {
			return nil, fmt.Errorf("mpcc: reading %s: %w", fixtureFile, err)
		}
		return fixture.ParseString(fixtureFile, string(src))
	default:
		return nil, fmt.Errorf("mpcc: one of -fixture or -fixture-file is required")
	}
}

func knownFixtures() string {
	names := []string{
		fixture.MaxDistBetweenSyms,
		fixture.MinimalPoints,
		fixture.ConvexHull,
		fixture.Biometric,
	}
	sort.Strings(names)
	return fmt.Sprintf("%v", names)
}

func lastRunStage(r *pipeline.Result, requested string) string {
	if _, ok := pipeline.PrintStage(r, requested); ok {
		return requested
	}
	return "source"
}

// reportError renders a *fixture.ParseError with its caret-under-the-column
// rendering already built in, and falls back to a plain message for every
// other stage error (a *diag.Diagnostic from typecheck or the fixture
// builder's restricted-grammar narrowing already stringifies usefully on
// its own).
func reportError(err error) {
	color.Red("mpcc: %v", err)
}
