package ssa

import (
	"fmt"
	"strings"
)

// Print renders fn's canonical textual form: each block's Φs, then its
// assignments, then its terminator, with variables shown by their full
// `name!subscript` SSA names.
func Print(fn *Function) string {
	var b strings.Builder
	cfg := fn.CFG
	fmt.Fprintf(&b, "function %s:\n", cfg.FunctionName)
	for _, blk := range cfg.Blocks {
		fmt.Fprintf(&b, "bb%d:\n", blk.ID)
		for _, phi := range fn.PhisAt(blk.ID) {
			fmt.Fprintf(&b, "    %s = phi(%s)\n", phi.LHS, phiArgsString(phi.Args))
		}
		for _, a := range blk.Assignments {
			fmt.Fprintf(&b, "    %s\n", a)
		}
		fmt.Fprintf(&b, "    %s\n", blk.Terminator)
	}
	return b.String()
}

func phiArgsString(args []PhiArg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("bb%d: %s", a.Pred, a.Val)
	}
	return strings.Join(parts, ", ")
}
