// Package typecheck propagates VarTypes through a loop-linear function,
// seeding from its parameters' declared types and folding every RHS shape's
// typing rule forward to a fixed point. A loop's carried Φs need their own
// inner fixpoint: the body must be walked at least once before the latch
// value's type is known, so the carried variable's type can only be pinned
// down by iterating until it stops changing.
package typecheck

import (
	"fmt"

	"mpcc/internal/cfgbuild"
	"mpcc/internal/diag"
	"mpcc/internal/ir"
	"mpcc/internal/looplinear"
	"mpcc/internal/muxlower"
	"mpcc/internal/ssa"
)

// Env maps every SSA-named Var seen during propagation to its inferred type.
type Env map[ir.Var]ir.VarType

// maxCarriedIterations bounds the carried-Φ fixpoint loop. Two passes cover
// every real program (seed, then one body pass to see the latch value); this
// just guards against a propagation bug turning into an infinite loop.
const maxCarriedIterations = 8

// Propagate seeds env from params' declared types and walks fn's body,
// returning the inferred type of every Var the body defines (including
// parameters' SSA subscript-0 renamed form). It returns the first
// diag.Diagnostic raised by a type rule violation.
func Propagate(params []*ir.Parameter, fn *looplinear.Function) (Env, error) {
	env := make(Env, len(params))
	for _, p := range params {
		env[p.Var.WithSubscript(0)] = p.Type
	}
	if err := processOps(env, fn.Body); err != nil {
		return nil, err
	}
	if _, err := operandType(env, fn.Return); err != nil {
		return nil, err
	}
	return env, nil
}

func processOps(env Env, ops []looplinear.Op) error {
	for _, op := range ops {
		if op.Loop != nil {
			if err := processLoop(env, op.Loop); err != nil {
				return err
			}
			continue
		}
		t, err := inferRHS(env, op.Assign.RHS)
		if err != nil {
			return err
		}
		env[op.Assign.LHS] = t
	}
	return nil
}

func processLoop(env Env, loop *looplinear.ForLoop) error {
	lowT, err := operandType(env, loop.Low)
	if err != nil {
		return err
	}
	highT, err := operandType(env, loop.High)
	if err != nil {
		return err
	}
	bound, err := ir.MergeVarTypes(ir.DefaultMergeOptions, lowT, highT)
	if err != nil {
		return typeError(diag.ErrTypeMismatch, "loop bounds: %v", err)
	}
	env[loop.Counter] = ir.Scalar(bound.Visibility, ir.INT)

	for _, phi := range loop.CarriedPhis {
		if t, ok, err := mergeKnownArgTypes(env, phi); err != nil {
			return err
		} else if ok {
			env[phi.LHS] = t
		}
	}

	for iter := 0; iter < maxCarriedIterations; iter++ {
		if err := processOps(env, loop.Body); err != nil {
			return err
		}
		changed := false
		for _, phi := range loop.CarriedPhis {
			merged, ok, err := mergeKnownArgTypes(env, phi)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if merged != env[phi.LHS] {
				changed = true
			}
			env[phi.LHS] = merged
		}
		if !changed {
			return nil
		}
	}
	return typeError(diag.ErrIncompleteType, "loop carried variable type did not converge after %d iterations", maxCarriedIterations)
}

// mergeKnownArgTypes merges whichever of phi's Args already have a known
// type in env. Early on only the preheader arg is known; after the body has
// run once the latch arg's type is known too, so later calls merge both.
func mergeKnownArgTypes(env Env, phi *ssa.Phi) (ir.VarType, bool, error) {
	var known []ir.VarType
	for _, a := range phi.Args {
		if t, ok := env[a.Val]; ok {
			known = append(known, t)
		}
	}
	if len(known) == 0 {
		return ir.VarType{}, false, nil
	}
	if len(known) == 1 {
		return known[0], true, nil
	}
	merged, err := ir.MergeVarTypes(ir.DefaultMergeOptions, known...)
	if err != nil {
		return ir.VarType{}, false, typeError(diag.ErrTypeMismatch, "carried variable %s: %v", phi.Base, err)
	}
	return merged, true, nil
}

func operandType(env Env, op cfgbuild.Operand) (ir.VarType, error) {
	switch o := op.(type) {
	case cfgbuild.OperandConstant:
		return ir.Scalar(ir.PLAINTEXT, o.Value.DataType), nil
	case cfgbuild.OperandVar:
		t, ok := env[o.Var]
		if !ok {
			return ir.VarType{}, typeError(diag.ErrIncompleteType, "%s used before its type is known", o.Var)
		}
		return t, nil
	default:
		diag.Assertf("typecheck", "unhandled Operand %T", op)
		return ir.VarType{}, nil
	}
}

func inferRHS(env Env, rhs cfgbuild.RHS) (ir.VarType, error) {
	switch r := rhs.(type) {
	case cfgbuild.RHSOperand:
		return operandType(env, r.Operand)
	case cfgbuild.RHSBinOp:
		return inferBinOp(env, r)
	case cfgbuild.RHSUnaryOp:
		return inferUnaryOp(env, r)
	case cfgbuild.RHSLoad:
		arrT, ok := env[r.Array]
		if !ok {
			return ir.VarType{}, typeError(diag.ErrIncompleteType, "%s used before its type is known", r.Array)
		}
		if !arrT.HasDims || arrT.Dims == 0 {
			return ir.VarType{}, typeError(diag.ErrTypeMismatch, "%s is not indexable (%s)", r.Array, arrT)
		}
		return arrT.DropDim(), nil
	case cfgbuild.RHSStore:
		return inferStore(env, r)
	case cfgbuild.RHSList:
		return inferList(env, r)
	case cfgbuild.RHSTuple:
		return inferTuple(env, r)
	case muxlower.MuxOp:
		return inferMux(env, r)
	default:
		diag.Assertf("typecheck", "unhandled RHS %T", rhs)
		return ir.VarType{}, nil
	}
}

func inferBinOp(env Env, r cfgbuild.RHSBinOp) (ir.VarType, error) {
	lt, err := operandType(env, r.Left)
	if err != nil {
		return ir.VarType{}, err
	}
	rt, err := operandType(env, r.Right)
	if err != nil {
		return ir.VarType{}, err
	}
	if err := checkOperandDataType(r.Op.GetOperandDataTypes(), lt, r.Left); err != nil {
		return ir.VarType{}, err
	}
	if err := checkOperandDataType(r.Op.GetOperandDataTypes(), rt, r.Right); err != nil {
		return ir.VarType{}, err
	}
	opts := ir.DefaultMergeOptions
	opts.MixedDatatypesAllowed = len(r.Op.GetOperandDataTypes()) > 1
	merged, err := ir.MergeVarTypes(opts, lt, rt)
	if err != nil {
		return ir.VarType{}, typeError(diag.ErrTypeMismatch, "%s: %v", r, err)
	}
	return ir.Scalar(merged.Visibility, r.Op.GetRetDataType()), nil
}

func inferUnaryOp(env Env, r cfgbuild.RHSUnaryOp) (ir.VarType, error) {
	t, err := operandType(env, r.Operand)
	if err != nil {
		return ir.VarType{}, err
	}
	if err := checkOperandDataType(r.Op.GetOperandDataTypes(), t, r.Operand); err != nil {
		return ir.VarType{}, err
	}
	return ir.Scalar(t.Visibility, r.Op.GetRetDataType()), nil
}

func checkOperandDataType(allowed []ir.DataType, t ir.VarType, operand cfgbuild.Operand) error {
	if t.DataType == ir.DataTypeUnknown {
		return nil
	}
	for _, a := range allowed {
		if a == t.DataType {
			return nil
		}
	}
	return typeError(diag.ErrOperandDataType, "%s has datatype %s, want one of %v", operand, t.DataType, allowed)
}

func inferStore(env Env, r cfgbuild.RHSStore) (ir.VarType, error) {
	arrT, ok := env[r.Array]
	if !ok {
		return ir.VarType{}, typeError(diag.ErrIncompleteType, "%s used before its type is known", r.Array)
	}
	valT, err := operandType(env, r.Value)
	if err != nil {
		return ir.VarType{}, err
	}
	elemT := arrT.DropDim()
	merged, err := ir.MergeVarTypes(ir.DefaultMergeOptions, elemT, valT)
	if err != nil {
		return ir.VarType{}, typeError(diag.ErrTypeMismatch, "store into %s: %v", r.Array, err)
	}
	return merged.AddDim(), nil
}

func inferList(env Env, r cfgbuild.RHSList) (ir.VarType, error) {
	if len(r.Items) == 0 {
		return ir.Unknown().AddDim(), nil
	}
	types := make([]ir.VarType, len(r.Items))
	for i, it := range r.Items {
		t, err := operandType(env, it)
		if err != nil {
			return ir.VarType{}, err
		}
		types[i] = t
	}
	merged, err := ir.MergeVarTypes(ir.DefaultMergeOptions, types...)
	if err != nil {
		return ir.VarType{}, typeError(diag.ErrTypeMismatch, "list literal: %v", err)
	}
	return merged.AddDim(), nil
}

// inferTuple approximates a tuple's type as the merge of its elements'
// types. VarType has no tuple shape of its own — the restricted language
// only ever uses RHSTuple to build a function's final multi-value return,
// never as a value that gets indexed or stored, so collapsing it to the
// merged component type loses nothing a later stage reads.
func inferTuple(env Env, r cfgbuild.RHSTuple) (ir.VarType, error) {
	if len(r.Items) == 0 {
		return ir.VarType{}, typeError(diag.ErrIncompleteType, "empty tuple")
	}
	types := make([]ir.VarType, len(r.Items))
	for i, it := range r.Items {
		t, err := operandType(env, it)
		if err != nil {
			return ir.VarType{}, err
		}
		types[i] = t
	}
	merged, err := ir.MergeVarTypes(ir.MergeOptions{MixedSharedPlaintextAllowed: true, MixedDatatypesAllowed: true}, types...)
	if err != nil {
		return ir.VarType{}, typeError(diag.ErrTypeMismatch, "tuple: %v", err)
	}
	return merged, nil
}

// inferMux types a mux(c, then, else): c must be BOOL or INT (an INT
// condition is accepted as it is, never rejected), and the result is
// the merge of the two arms, exactly the Φ-argument merge rule a plain join
// would have used before C5 replaced it with this mux.
func inferMux(env Env, r muxlower.MuxOp) (ir.VarType, error) {
	condT, err := operandType(env, r.Cond)
	if err != nil {
		return ir.VarType{}, err
	}
	if err := checkOperandDataType([]ir.DataType{ir.BOOL, ir.INT}, condT, r.Cond); err != nil {
		return ir.VarType{}, err
	}
	thenT, err := operandType(env, r.Then)
	if err != nil {
		return ir.VarType{}, err
	}
	elseT, err := operandType(env, r.Else)
	if err != nil {
		return ir.VarType{}, err
	}
	merged, err := ir.MergeVarTypes(ir.DefaultMergeOptions, thenT, elseT)
	if err != nil {
		return ir.VarType{}, typeError(diag.ErrVisibilityMismatch, "mux arms: %v", err)
	}
	return merged, nil
}

func typeError(code, format string, args ...any) error {
	return diag.New(code, fmt.Sprintf(format, args...), diag.Position{})
}
