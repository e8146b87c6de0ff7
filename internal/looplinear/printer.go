package looplinear

import (
	"fmt"
	"strings"

	"mpcc/internal/ssa"
)

// Print renders fn's canonical textual form: Assignments on their own
// lines, ForLoops as a `for counter in [low, high)` header with an indented
// body, ending in the returned operand.
func Print(fn *Function) string {
	var b strings.Builder
	fmt.Fprintf(&b, "function:\n")
	printOps(&b, fn.Body, 1)
	fmt.Fprintf(&b, "    return %s\n", fn.Return)
	return b.String()
}

func printOps(b *strings.Builder, ops []Op, indent int) {
	pad := strings.Repeat("    ", indent)
	for _, op := range ops {
		if op.Assign != nil {
			fmt.Fprintf(b, "%s%s\n", pad, op.Assign)
			continue
		}
		loop := op.Loop
		fmt.Fprintf(b, "%sfor %s in [%s, %s):\n", pad, loop.Counter, loop.Low, loop.High)
		for _, phi := range loop.CarriedPhis {
			fmt.Fprintf(b, "%s    carry %s = phi(%s)\n", pad, phi.Base, phiArgsString(phi.Args))
		}
		printOps(b, loop.Body, indent+1)
	}
}

func phiArgsString(args []ssa.PhiArg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("bb%d: %s", a.Pred, a.Val)
	}
	return strings.Join(parts, ", ")
}
