package cfgbuild

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mpcc/internal/ast"
	"mpcc/internal/ir"
)

func TestBuildStraightLine(t *testing.T) {
	x := ir.NewVar("x")
	fn := &ast.Function{
		Name: "double",
		Body: []ast.Statement{
			ast.AssignStmt{
				LHS: ast.VarNode{Var: x},
				RHS: ast.BinOpExpr{Left: ast.VarNode{Var: x}, Op: ir.ADD, Right: ast.VarNode{Var: x}},
			},
		},
		ReturnValue: ast.VarNode{Var: x},
	}

	cfg := Build(fn)
	require.Len(t, cfg.Blocks, 1)
	entry := cfg.Blocks[0]
	require.Len(t, entry.Assignments, 2)
	assert.Equal(t, x, entry.Assignments[1].LHS)
	ret, ok := entry.Terminator.(Return)
	require.True(t, ok)
	assert.Equal(t, OperandVar{Var: x}, ret.Value)
}

func TestBuildIfWithoutElse(t *testing.T) {
	x := ir.NewVar("x")
	c := ir.NewVar("c")
	fn := &ast.Function{
		Name: "maybeInc",
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

	cfg := Build(fn)
	// entry, if.then, if.join
	require.Len(t, cfg.Blocks, 3)
	entry := cfg.Blocks[0]
	cj, ok := entry.Terminator.(ConditionalJump)
	require.True(t, ok)
	assert.Equal(t, BlockID(1), cj.TrueTarget)
	assert.Equal(t, BlockID(2), cj.FalseTarget)

	join := cfg.Blocks[2]
	_, ok = join.Terminator.(Return)
	require.True(t, ok)
	require.Len(t, join.Preds, 2)
}

func TestBuildForLoopShape(t *testing.T) {
	i := ir.NewVar("i")
	n := ir.NewVar("N")
	acc := ir.NewVar("acc")
	fn := &ast.Function{
		Name: "sumRange",
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

	cfg := Build(fn)
	// entry, for.header, for.body, for.join, for.latch
	require.Len(t, cfg.Blocks, 5)
	header := cfg.Blocks[1]
	cj, ok := header.Terminator.(ConditionalJump)
	require.True(t, ok)
	assert.Equal(t, BlockID(2), cj.TrueTarget)
	assert.Equal(t, BlockID(3), cj.FalseTarget)

	latch := cfg.Blocks[4]
	jmp, ok := latch.Terminator.(Jump)
	require.True(t, ok)
	assert.Equal(t, BlockID(1), jmp.Target)
	require.Len(t, header.Preds, 2)
}

func TestArrayStoreLowersToFunctionalUpdate(t *testing.T) {
	a := ir.NewVar("A")
	i := ir.NewVar("i")
	fn := &ast.Function{
		Name: "setZero",
		Body: []ast.Statement{
			ast.AssignStmt{
				LHS: ast.SubscriptExpr{Array: a, Index: ast.VarNode{Var: i}},
				RHS: ast.ConstantNode{Value: ir.IntConstant(0)},
			},
		},
		ReturnValue: ast.VarNode{Var: a},
	}

	cfg := Build(fn)
	entry := cfg.Blocks[0]
	require.Len(t, entry.Assignments, 1)
	store, ok := entry.Assignments[0].RHS.(RHSStore)
	require.True(t, ok)
	assert.Equal(t, a, entry.Assignments[0].LHS)
	assert.Equal(t, a, store.Array)
}
