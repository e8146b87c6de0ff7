package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mpcc/internal/ast"
	"mpcc/internal/cfgbuild"
	"mpcc/internal/ir"
	"mpcc/internal/looplinear"
	"mpcc/internal/ssa"
)

func TestBuildFindsRAWWithinStraightLine(t *testing.T) {
	x := ir.NewVar("x")
	y := ir.NewVar("y")
	fn := &ast.Function{
		Name:       "f",
		Parameters: []*ir.Parameter{{Var: x, Type: ir.Scalar(ir.SHARED, ir.INT)}},
		Body: []ast.Statement{
			ast.AssignStmt{LHS: ast.VarNode{Var: y}, RHS: ast.BinOpExpr{Left: ast.VarNode{Var: x}, Op: ir.ADD, Right: ast.ConstantNode{Value: ir.IntConstant(1)}}},
		},
		ReturnValue: ast.VarNode{Var: y},
	}
	cfg := cfgbuild.Build(fn)
	ssaFn := ssa.Build(cfg)
	lin := looplinear.Build(ssaFn)

	g := Build(lin.Body, nil)
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, []Edge{{From: 0, To: 1, Kind: RAW}}, g.Edges)
	assert.False(t, HasCycle(g))
}

func sumRangeLinear(t *testing.T) *looplinear.Function {
	t.Helper()
	i := ir.NewVar("i")
	n := ir.NewVar("N")
	acc := ir.NewVar("acc")
	fn := &ast.Function{
		Name:       "sumRange",
		Parameters: []*ir.Parameter{{Var: n, Type: ir.Scalar(ir.PLAINTEXT, ir.INT)}},
		Body: []ast.Statement{
			ast.AssignStmt{LHS: ast.VarNode{Var: acc}, RHS: ast.ConstantNode{Value: ir.IntConstant(0)}},
			ast.ForStmt{
				Counter:  i,
				BoundLow: ast.ConstantNode{Value: ir.IntConstant(0)},
				BoundHi:  ast.VarNode{Var: n},
				Body: []ast.Statement{
					ast.AssignStmt{
						LHS: ast.VarNode{Var: acc},
						RHS: ast.BinOpExpr{Left: ast.VarNode{Var: acc}, Op: ir.ADD, Right: ast.VarNode{Var: i}},
					},
				},
			},
		},
		ReturnValue: ast.VarNode{Var: acc},
	}
	cfg := cfgbuild.Build(fn)
	ssaFn := ssa.Build(cfg)
	return looplinear.Build(ssaFn)
}

func TestBuildDetectsCarriedAccumulatorCycle(t *testing.T) {
	lin := sumRangeLinear(t)
	require.NotNil(t, lin.Body[len(lin.Body)-1].Loop)
	loop := lin.Body[len(lin.Body)-1].Loop

	g := Build(loop.Body, loop.CarriedPhis)
	assert.True(t, HasCycle(g), "running accumulator must block vectorization")
}

func TestBuildDoesNotFlagUnrelatedOpsAsCyclic(t *testing.T) {
	x := ir.NewVar("x")
	i := ir.NewVar("i")
	n := ir.NewVar("N")
	arr := ir.NewVar("A")
	fn := &ast.Function{
		Name:       "mapAdd",
		Parameters: []*ir.Parameter{{Var: n, Type: ir.Scalar(ir.PLAINTEXT, ir.INT)}, {Var: x, Type: ir.Scalar(ir.SHARED, ir.INT)}},
		Body: []ast.Statement{
			ast.AssignStmt{LHS: ast.VarNode{Var: arr}, RHS: ast.ListExpr{}},
			ast.ForStmt{
				Counter:  i,
				BoundLow: ast.ConstantNode{Value: ir.IntConstant(0)},
				BoundHi:  ast.VarNode{Var: n},
				Body: []ast.Statement{
					ast.AssignStmt{
						LHS: ast.SubscriptExpr{Array: arr, Index: ast.VarNode{Var: i}},
						RHS: ast.BinOpExpr{Left: ast.SubscriptExpr{Array: arr, Index: ast.VarNode{Var: i}}, Op: ir.ADD, Right: ast.VarNode{Var: x}},
					},
				},
			},
		},
		ReturnValue: ast.VarNode{Var: arr},
	}
	cfg := cfgbuild.Build(fn)
	ssaFn := ssa.Build(cfg)
	lin := looplinear.Build(ssaFn)
	loop := lin.Body[len(lin.Body)-1].Loop
	require.NotNil(t, loop)

	g := Build(loop.Body, loop.CarriedPhis)
	assert.False(t, HasCycle(g), "A is carried only through A[i] accesses, which get no synthetic carry edge, and the in-body edges only run forward")
}
