package vectorize

import (
	"fmt"
	"strings"

	"mpcc/internal/ssa"
)

// Print renders fn's canonical textual form: an unlifted loop prints the
// same as internal/looplinear's, a lifted one prints `vector for` with its
// body's VecAssigns instead.
func Print(fn *Function) string {
	var b strings.Builder
	fmt.Fprintf(&b, "function:\n")
	printNodes(&b, fn.Body, 1)
	fmt.Fprintf(&b, "    return %s\n", fn.Return)
	return b.String()
}

func printNodes(b *strings.Builder, nodes []Node, indent int) {
	pad := strings.Repeat("    ", indent)
	for _, n := range nodes {
		switch {
		case n.Assign != nil:
			fmt.Fprintf(b, "%s%s\n", pad, n.Assign)
		case n.Loop != nil:
			loop := n.Loop
			fmt.Fprintf(b, "%sfor %s in [%s, %s):\n", pad, loop.Counter, loop.Low, loop.High)
			for _, phi := range loop.CarriedPhis {
				fmt.Fprintf(b, "%s    carry %s = phi(%s)\n", pad, phi.Base, phiArgsString(phi.Args))
			}
			printNodes(b, loop.Body, indent+1)
		case n.Vector != nil:
			vec := n.Vector
			fmt.Fprintf(b, "%svector for [%s, %s):\n", pad, vec.Low, vec.High)
			for _, a := range vec.Body {
				fmt.Fprintf(b, "%s    %s = %s\n", pad, a.LHS, a.RHS)
			}
		}
	}
}

func phiArgsString(args []ssa.PhiArg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("bb%d: %s", a.Pred, a.Val)
	}
	return strings.Join(parts, ", ")
}
