package ssa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mpcc/internal/ast"
	"mpcc/internal/cfgbuild"
	"mpcc/internal/ir"
)

func TestBuildPlacesPhiAtIfJoin(t *testing.T) {
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
	ssaFn := Build(cfg)

	join := cfgbuild.BlockID(2)
	phis := ssaFn.PhisAt(join)
	require.Len(t, phis, 1)
	assert.Equal(t, x, phis[0].Base)
	require.Len(t, phis[0].Args, 2)

	ret := cfg.Block(join).Terminator.(cfgbuild.Return)
	retVar, ok := ret.Value.(cfgbuild.OperandVar)
	require.True(t, ok)
	assert.Equal(t, phis[0].LHS, retVar.Var)
}

func TestBuildSeedsParametersAtSubscriptZero(t *testing.T) {
	x := ir.NewVar("x")
	fn := &ast.Function{
		Name:        "identity",
		Parameters:  []*ir.Parameter{{Var: x, Type: ir.Scalar(ir.SHARED, ir.INT)}},
		ReturnValue: ast.VarNode{Var: x},
	}
	cfg := cfgbuild.Build(fn)
	Build(cfg)

	ret := cfg.Block(cfg.Entry).Terminator.(cfgbuild.Return)
	retVar := ret.Value.(cfgbuild.OperandVar)
	assert.True(t, retVar.Var.HasSubscript())
	assert.Equal(t, 0, retVar.Var.Subscript())
}

func TestBuildPlacesPhiAtLoopHeaderForCarriedVariable(t *testing.T) {
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
	ssaFn := Build(cfg)

	header := cfgbuild.BlockID(1)
	phis := ssaFn.PhisAt(header)
	bases := map[ir.Var]bool{}
	for _, p := range phis {
		bases[p.Base] = true
	}
	assert.True(t, bases[i])
	assert.True(t, bases[acc])

	// join has a single predecessor (the loop-exit edge out of the
	// header), so no merge happens there: the return value is exactly
	// the header's Φ-selected name for acc, not a fresh join-level Φ.
	join := cfgbuild.BlockID(3)
	assert.Empty(t, ssaFn.PhisAt(join))

	var accPhiLHS ir.Var
	for _, p := range phis {
		if p.Base == acc {
			accPhiLHS = p.LHS
		}
	}
	ret := cfg.Block(join).Terminator.(cfgbuild.Return)
	retVar := ret.Value.(cfgbuild.OperandVar)
	assert.Equal(t, accPhiLHS, retVar.Var)
}

func TestUndefinedVariableReadPanics(t *testing.T) {
	x := ir.NewVar("x")
	y := ir.NewVar("y")
	fn := &ast.Function{
		Name:        "bad",
		ReturnValue: ast.VarNode{Var: x},
	}
	cfg := cfgbuild.Build(fn)
	// Simulate a malformed CFG where a read references a var with no
	// reaching definition.
	cfg.Block(cfg.Entry).Terminator = cfgbuild.Return{Value: cfgbuild.OperandVar{Var: y}}
	assert.Panics(t, func() { Build(cfg) })
}
