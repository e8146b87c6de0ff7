package typecheck

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

func buildSumRange() (*ast.Function, *looplinear.Function) {
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
	muxlower.Lower(ssaFn)
	return fn, looplinear.Build(ssaFn)
}

func TestPropagateInfersPlaintextAccumulatorThroughLoop(t *testing.T) {
	fn, lin := buildSumRange()
	env, err := Propagate(fn.Parameters, lin)
	require.NoError(t, err)

	retT, err := operandType(env, lin.Return)
	require.NoError(t, err)
	assert.Equal(t, ir.Scalar(ir.PLAINTEXT, ir.INT), retT)

	loop := lin.Body[2].Loop
	require.NotNil(t, loop)
	counterT, ok := env[loop.Counter]
	require.True(t, ok)
	assert.Equal(t, ir.PLAINTEXT, counterT.Visibility)
	assert.Equal(t, ir.INT, counterT.DataType)
}

func buildMaybeInc() (*ast.Function, *looplinear.Function) {
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
	return fn, looplinear.Build(ssaFn)
}

func TestPropagateMergesMuxArmsToShared(t *testing.T) {
	fn, lin := buildMaybeInc()
	env, err := Propagate(fn.Parameters, lin)
	require.NoError(t, err)

	retT, err := operandType(env, lin.Return)
	require.NoError(t, err)
	assert.Equal(t, ir.SHARED, retT.Visibility)
	assert.Equal(t, ir.INT, retT.DataType)
}

func buildConditionalStore() (*ast.Function, *looplinear.Function) {
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
	return fn, looplinear.Build(ssaFn)
}

func TestPropagateKeepsArrayShapeThroughConditionalStore(t *testing.T) {
	fn, lin := buildConditionalStore()
	env, err := Propagate(fn.Parameters, lin)
	require.NoError(t, err)

	retT, err := operandType(env, lin.Return)
	require.NoError(t, err)
	assert.Equal(t, ir.List(ir.SHARED, 1, ir.INT), retT)
}

func TestInferBinOpRejectsMismatchedDataType(t *testing.T) {
	env := Env{
		ir.NewVar("b"): ir.Scalar(ir.PLAINTEXT, ir.BOOL),
		ir.NewVar("n"): ir.Scalar(ir.PLAINTEXT, ir.INT),
	}
	_, err := inferRHS(env, cfgbuild.RHSBinOp{
		Left:  cfgbuild.OperandVar{Var: ir.NewVar("b")},
		Op:    ir.ADD,
		Right: cfgbuild.OperandVar{Var: ir.NewVar("n")},
	})
	require.Error(t, err)
}
