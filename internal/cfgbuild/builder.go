package cfgbuild

import (
	"mpcc/internal/ast"
	"mpcc/internal/ir"
)

// Builder lowers one restricted-AST function into a TAC CFG. It tracks only
// the block currently being appended to and a monotonic counter for
// synthetic temporaries; there is no variable-stack or dominance state here
// — that belongs to internal/ssa, which consumes this package's output.
type Builder struct {
	cfg          *CFG
	current      *Block
	synthCounter int
}

// Build lowers fn into a fresh CFG.
func Build(fn *ast.Function) *CFG {
	cfg := &CFG{FunctionName: fn.Name, Entry: 0}
	for _, p := range fn.Parameters {
		cfg.Params = append(cfg.Params, p.Var)
	}
	b := &Builder{cfg: cfg}
	b.current = cfg.newBlock("entry")

	b.lowerStatements(fn.Body)
	ret := b.flatten(fn.ReturnValue)
	b.current.Terminator = Return{Value: ret}
	return cfg
}

func (b *Builder) newTemp() ir.Var {
	id := b.synthCounter
	b.synthCounter++
	return ir.NewSyntheticVar(id)
}

func (b *Builder) emit(a Assignment) {
	b.current.Assignments = append(b.current.Assignments, a)
}

// flatten lowers a general Expression to a flat Operand, emitting any
// intermediate Assignments the expression needs into the current block.
func (b *Builder) flatten(expr ast.Expression) Operand {
	switch e := expr.(type) {
	case ast.VarNode:
		return OperandVar{Var: e.Var}
	case ast.ConstantNode:
		return OperandConstant{Value: e.Value}
	case ast.SubscriptExpr:
		idx := b.flattenIndex(e.Index)
		t := b.newTemp()
		b.emit(Assignment{LHS: t, RHS: RHSLoad{Array: e.Array, Index: idx}})
		return OperandVar{Var: t}
	case ast.BinOpExpr:
		left := b.flatten(e.Left)
		right := b.flatten(e.Right)
		t := b.newTemp()
		b.emit(Assignment{LHS: t, RHS: RHSBinOp{Left: left, Op: e.Op, Right: right}})
		return OperandVar{Var: t}
	case ast.UnaryOpExpr:
		operand := b.flatten(e.Operand)
		t := b.newTemp()
		b.emit(Assignment{LHS: t, RHS: RHSUnaryOp{Op: e.Op, Operand: operand}})
		return OperandVar{Var: t}
	case ast.ListExpr:
		items := make([]Operand, len(e.Items))
		for i, it := range e.Items {
			items[i] = b.flatten(it)
		}
		t := b.newTemp()
		b.emit(Assignment{LHS: t, RHS: RHSList{Items: items}})
		return OperandVar{Var: t}
	case ast.TupleExpr:
		items := make([]Operand, len(e.Items))
		for i, it := range e.Items {
			items[i] = b.flatten(it)
		}
		t := b.newTemp()
		b.emit(Assignment{LHS: t, RHS: RHSTuple{Items: items}})
		return OperandVar{Var: t}
	default:
		panic("cfgbuild: unhandled Expression")
	}
}

// flattenIndex lowers a SubscriptIndex (the restricted Var|Constant|BinOp|
// UnaryOp grammar) to a flat Operand.
func (b *Builder) flattenIndex(idx ast.SubscriptIndex) Operand {
	switch n := idx.(type) {
	case ast.VarNode:
		return OperandVar{Var: n.Var}
	case ast.ConstantNode:
		return OperandConstant{Value: n.Value}
	case ast.IndexBinOp:
		left := b.flattenIndex(n.Left)
		right := b.flattenIndex(n.Right)
		t := b.newTemp()
		b.emit(Assignment{LHS: t, RHS: RHSBinOp{Left: left, Op: n.Op, Right: right}})
		return OperandVar{Var: t}
	case ast.IndexUnaryOp:
		operand := b.flattenIndex(n.Operand)
		t := b.newTemp()
		b.emit(Assignment{LHS: t, RHS: RHSUnaryOp{Op: n.Op, Operand: operand}})
		return OperandVar{Var: t}
	default:
		panic("cfgbuild: unhandled SubscriptIndex")
	}
}

func (b *Builder) flattenLoopBound(lb ast.LoopBound) Operand {
	switch n := lb.(type) {
	case ast.VarNode:
		return OperandVar{Var: n.Var}
	case ast.ConstantNode:
		return OperandConstant{Value: n.Value}
	default:
		panic("cfgbuild: unhandled LoopBound")
	}
}

func (b *Builder) lowerStatements(stmts []ast.Statement) {
	for _, s := range stmts {
		b.lowerStatement(s)
	}
}

func (b *Builder) lowerStatement(s ast.Statement) {
	switch n := s.(type) {
	case ast.AssignStmt:
		b.lowerAssign(n)
	case ast.ForStmt:
		b.lowerFor(n)
	case ast.IfStmt:
		b.lowerIf(n)
	default:
		panic("cfgbuild: unhandled Statement")
	}
}

func (b *Builder) lowerAssign(n ast.AssignStmt) {
	val := b.flatten(n.RHS)
	switch lhs := n.LHS.(type) {
	case ast.VarNode:
		b.emit(Assignment{LHS: lhs.Var, RHS: RHSOperand{Operand: val}})
	case ast.SubscriptExpr:
		idx := b.flattenIndex(lhs.Index)
		b.emit(Assignment{LHS: lhs.Array, RHS: RHSStore{Array: lhs.Array, Index: idx, Value: val}})
	default:
		panic("cfgbuild: unhandled AssignLHS")
	}
}

// lowerFor emits the classic header/body/latch/join shape: the header holds
// the bound check, the body is whatever lowering the loop's statements
// produces (itself possibly several blocks), and the latch increments the
// counter and jumps back to the header. The loop variable and anything
// assigned in the body keep their plain base names here; C4 discovers the
// header and join as multi-predecessor points and places Φs there.
func (b *Builder) lowerFor(n ast.ForStmt) {
	low := b.flattenLoopBound(n.BoundLow)
	high := b.flattenLoopBound(n.BoundHi)
	b.emit(Assignment{LHS: n.Counter, RHS: RHSOperand{Operand: low}})

	header := b.cfg.newBlock("for.header")
	b.cfg.addEdge(b.current.ID, header.ID, UNCONDITIONAL)
	b.current.Terminator = Jump{Target: header.ID}

	body := b.cfg.newBlock("for.body")
	join := b.cfg.newBlock("for.join")

	b.current = header
	cond := b.newTemp()
	b.emit(Assignment{LHS: cond, RHS: RHSBinOp{Left: OperandVar{Var: n.Counter}, Op: ir.LT, Right: high}})
	header.Terminator = ConditionalJump{Cond: OperandVar{Var: cond}, TrueTarget: body.ID, FalseTarget: join.ID}
	b.cfg.addEdge(header.ID, body.ID, TRUE)
	b.cfg.addEdge(header.ID, join.ID, FALSE)

	b.current = body
	b.lowerStatements(n.Body)

	latch := b.cfg.newBlock("for.latch")
	b.cfg.addEdge(b.current.ID, latch.ID, UNCONDITIONAL)
	b.current.Terminator = Jump{Target: latch.ID}

	b.current = latch
	next := b.newTemp()
	b.emit(Assignment{LHS: next, RHS: RHSBinOp{Left: OperandVar{Var: n.Counter}, Op: ir.ADD, Right: OperandConstant{Value: ir.IntConstant(1)}}})
	b.emit(Assignment{LHS: n.Counter, RHS: RHSOperand{Operand: OperandVar{Var: next}}})
	b.cfg.addEdge(latch.ID, header.ID, UNCONDITIONAL)
	latch.Terminator = Jump{Target: header.ID}

	b.current = join
}

// lowerIf emits branch/join: a then-block, an else-block when one is
// present (otherwise the false edge goes straight to join), and a join
// block where control resumes.
func (b *Builder) lowerIf(n ast.IfStmt) {
	cond := b.flatten(n.Condition)

	thenBlock := b.cfg.newBlock("if.then")
	join := b.cfg.newBlock("if.join")
	elseBlock := join
	hasElse := len(n.Else) > 0
	if hasElse {
		elseBlock = b.cfg.newBlock("if.else")
	}

	b.current.Terminator = ConditionalJump{Cond: cond, TrueTarget: thenBlock.ID, FalseTarget: elseBlock.ID}
	b.cfg.addEdge(b.current.ID, thenBlock.ID, TRUE)
	b.cfg.addEdge(b.current.ID, elseBlock.ID, FALSE)

	b.current = thenBlock
	b.lowerStatements(n.Then)
	b.cfg.addEdge(b.current.ID, join.ID, UNCONDITIONAL)
	b.current.Terminator = Jump{Target: join.ID}

	if hasElse {
		b.current = elseBlock
		b.lowerStatements(n.Else)
		b.cfg.addEdge(b.current.ID, join.ID, UNCONDITIONAL)
		b.current.Terminator = Jump{Target: join.ID}
	}

	b.current = join
}
