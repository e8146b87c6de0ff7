package cfgbuild

import (
	"fmt"
	"strings"
)

// Print renders cfg's canonical textual form: one `bbN:` label per block,
// its assignments indented below, and the terminator last.
func Print(cfg *CFG) string {
	var b strings.Builder
	fmt.Fprintf(&b, "function %s:\n", cfg.FunctionName)
	for _, blk := range cfg.Blocks {
		fmt.Fprintf(&b, "bb%d:\n", blk.ID)
		for _, a := range blk.Assignments {
			fmt.Fprintf(&b, "    %s\n", a)
		}
		fmt.Fprintf(&b, "    %s\n", blk.Terminator)
	}
	return b.String()
}
