package arraymux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mpcc/internal/ast"
	"mpcc/internal/cfgbuild"
	"mpcc/internal/ir"
	"mpcc/internal/looplinear"
	"mpcc/internal/muxlower"
	"mpcc/internal/ssa"
)

// buildConditionalStore lowers: for i in [0, N): if (X[i] == 0): A[i] = 1
// — a conditional array write with no else branch, the exact shape
// internal/muxlower turns into a whole-array mux.
func buildConditionalStore(t *testing.T) *looplinear.Function {
	t.Helper()
	n := ir.NewVar("N")
	x := ir.NewVar("X")
	a := ir.NewVar("A")
	i := ir.NewVar("i")
	fn := &ast.Function{
		Name: "maybeMark",
		Parameters: []*ir.Parameter{
			{Var: n, Type: ir.Scalar(ir.PLAINTEXT, ir.INT)},
			{Var: x, Type: ir.List(ir.SHARED, 1, ir.INT)},
			{Var: a, Type: ir.List(ir.SHARED, 1, ir.INT)},
		},
		Body: []ast.Statement{
			ast.ForStmt{
				Counter:  i,
				BoundLow: ast.ConstantNode{Value: ir.IntConstant(0)},
				BoundHi:  ast.VarNode{Var: n},
				Body: []ast.Statement{
					ast.IfStmt{
						Condition: ast.BinOpExpr{
							Left:  ast.SubscriptExpr{Array: x, Index: ast.VarNode{Var: i}},
							Op:    ir.EQ,
							Right: ast.ConstantNode{Value: ir.IntConstant(0)},
						},
						Then: []ast.Statement{
							ast.AssignStmt{
								LHS: ast.SubscriptExpr{Array: a, Index: ast.VarNode{Var: i}},
								RHS: ast.ConstantNode{Value: ir.IntConstant(1)},
							},
						},
					},
				},
			},
		},
		ReturnValue: ast.VarNode{Var: a},
	}
	cfg := cfgbuild.Build(fn)
	ssaFn := ssa.Build(cfg)
	muxlower.Lower(ssaFn)
	return looplinear.Build(ssaFn)
}

func TestRefineRewritesWholeArrayMuxToElementStore(t *testing.T) {
	lin := buildConditionalStore(t)
	require.Len(t, lin.Body, 2)
	loop := lin.Body[1].Loop
	require.NotNil(t, loop)

	var sawWholeArrayMux bool
	for _, op := range loop.Body {
		if op.Assign == nil {
			continue
		}
		if _, ok := op.Assign.RHS.(muxlower.MuxOp); ok {
			sawWholeArrayMux = true
		}
	}
	require.True(t, sawWholeArrayMux, "precondition: muxlower should have produced a whole-array mux")

	Refine(lin)

	var storeCount int
	var muxFeedsStore bool
	for idx, op := range loop.Body {
		if op.Assign == nil {
			continue
		}
		store, ok := op.Assign.RHS.(cfgbuild.RHSStore)
		if !ok {
			continue
		}
		storeCount++
		val, ok := store.Value.(cfgbuild.OperandVar)
		require.True(t, ok)
		for _, prior := range loop.Body[:idx] {
			if prior.Assign != nil && prior.Assign.LHS == val.Var {
				if _, ok := prior.Assign.RHS.(muxlower.MuxOp); ok {
					muxFeedsStore = true
				}
			}
		}
	}
	assert.Equal(t, 1, storeCount, "exactly one store remains: the refined element write")
	assert.True(t, muxFeedsStore, "the store's value should come from a mux between the new value and the old element")
}

func TestRefineLeavesNonQualifyingMuxAlone(t *testing.T) {
	x := ir.NewVar("x")
	c := ir.NewVar("c")
	fn := &ast.Function{
		Name: "maybeInc",
		Parameters: []*ir.Parameter{
			{Var: x, Type: ir.Scalar(ir.SHARED, ir.INT)},
			{Var: c, Type: ir.Scalar(ir.PLAINTEXT, ir.BOOL)},
		},
		Body: []ast.Statement{
			ast.IfStmt{
				Condition: ast.VarNode{Var: c},
				Then: []ast.Statement{
					ast.AssignStmt{
						LHS: ast.VarNode{Var: x},
						RHS: ast.BinOpExpr{Left: ast.VarNode{Var: x}, Op: ir.ADD, Right: ast.ConstantNode{Value: ir.IntConstant(1)}},
					},
				},
			},
		},
		ReturnValue: ast.VarNode{Var: x},
	}
	cfg := cfgbuild.Build(fn)
	ssaFn := ssa.Build(cfg)
	muxlower.Lower(ssaFn)
	lin := looplinear.Build(ssaFn)
	before := len(lin.Body)

	Refine(lin)

	assert.Equal(t, before, len(lin.Body), "no loop body here, so Refine has nothing to touch")
}
