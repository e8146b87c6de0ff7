// Package ir holds the vocabulary shared by every stage of the lowering
// pipeline: variables, constants, operators, the visibility/datatype/dims
// lattice, and function parameters. Nothing here is specific to any one
// stage's representation of a program; it is imported by the restricted AST
// and by every IR form the pipeline produces downstream of it.
package ir

import "fmt"

// DataType is the closed set of primitive value kinds the backend knows
// about. The zero value is "unknown" so partially-inferred VarTypes can be
// represented without a pointer.
type DataType int

const (
	DataTypeUnknown DataType = iota
	INT
	BOOL
)

func (d DataType) String() string {
	switch d {
	case INT:
		return "int"
	case BOOL:
		return "bool"
	default:
		return "?"
	}
}

// Visibility is PLAINTEXT (publicly known) or SHARED (secret-shared across
// parties). The zero value is "unknown" (bottom of the lattice).
type Visibility int

const (
	VisibilityUnknown Visibility = iota
	PLAINTEXT
	SHARED
)

func (v Visibility) String() string {
	switch v {
	case PLAINTEXT:
		return "plaintext"
	case SHARED:
		return "shared"
	default:
		return "?"
	}
}

// MergeVisibility implements the merge rule from the data model: any SHARED
// participant forces SHARED, all-PLAINTEXT stays PLAINTEXT, and unknowns
// propagate as bottom when nothing else is known.
func MergeVisibility(vs ...Visibility) Visibility {
	sawKnown := false
	allPlaintext := true
	for _, v := range vs {
		if v == VisibilityUnknown {
			continue
		}
		sawKnown = true
		if v == SHARED {
			return SHARED
		}
		if v != PLAINTEXT {
			allPlaintext = false
		}
	}
	if !sawKnown {
		return VisibilityUnknown
	}
	if allPlaintext {
		return PLAINTEXT
	}
	return VisibilityUnknown
}

// VarType is the triple (visibility?, dims?, datatype?) from the data model.
// Dims is only meaningful when HasDims is true; dims == 0 means scalar.
type VarType struct {
	Visibility Visibility
	HasDims    bool
	Dims       int
	DataType   DataType
}

// Scalar builds a complete, zero-dimensional VarType.
func Scalar(vis Visibility, dt DataType) VarType {
	return VarType{Visibility: vis, HasDims: true, Dims: 0, DataType: dt}
}

// List builds a complete VarType for a dims-deep nesting of lists.
func List(vis Visibility, dims int, dt DataType) VarType {
	return VarType{Visibility: vis, HasDims: true, Dims: dims, DataType: dt}
}

// Unknown is the fully-bottom VarType: every field unresolved.
func Unknown() VarType { return VarType{} }

// DropDim returns the element type of a one-dimension-shallower VarType.
func (t VarType) DropDim() VarType {
	if !t.HasDims {
		return VarType{Visibility: t.Visibility, DataType: t.DataType}
	}
	return VarType{Visibility: t.Visibility, HasDims: true, Dims: t.Dims - 1, DataType: t.DataType}
}

// AddDim returns the type of a list whose elements have this type.
func (t VarType) AddDim() VarType {
	if !t.HasDims {
		return VarType{Visibility: t.Visibility, DataType: t.DataType}
	}
	return VarType{Visibility: t.Visibility, HasDims: true, Dims: t.Dims + 1, DataType: t.DataType}
}

func (t VarType) IsPlaintext() bool { return t.Visibility == PLAINTEXT }
func (t VarType) IsShared() bool    { return t.Visibility == SHARED }

// CouldBecome holds iff every known field of t matches the corresponding
// field of super, or super leaves that field unknown.
func (t VarType) CouldBecome(super VarType) bool {
	if t.Visibility != VisibilityUnknown && super.Visibility != VisibilityUnknown && t.Visibility != super.Visibility {
		return false
	}
	if t.HasDims && super.HasDims && t.Dims != super.Dims {
		return false
	}
	if t.DataType != DataTypeUnknown && super.DataType != DataTypeUnknown && t.DataType != super.DataType {
		return false
	}
	return true
}

// IsComplete holds iff all three fields are known.
func (t VarType) IsComplete() bool {
	return t.Visibility != VisibilityUnknown && t.HasDims && t.DataType != DataTypeUnknown
}

// MergeOptions controls which field mismatches MergeVarTypes tolerates.
type MergeOptions struct {
	MixedSharedPlaintextAllowed bool
	MixedDatatypesAllowed       bool
}

// DefaultMergeOptions matches the merge used for Φ-operand / mux-branch
// unification: shared and plaintext values may be merged (the result is
// forced to SHARED), but datatypes must agree unless the caller says
// otherwise.
var DefaultMergeOptions = MergeOptions{MixedSharedPlaintextAllowed: true}

// MergeVarTypes implements VarType.merge from the data model: visibility
// follows the SHARED-dominates lattice, dims must agree when both known,
// and datatypes must agree unless mixing is explicitly permitted (EQ and
// logical operators accept INT ∪ BOOL operands).
func MergeVarTypes(opts MergeOptions, types ...VarType) (VarType, error) {
	if len(types) == 0 {
		panic("ir: MergeVarTypes requires at least one type")
	}

	visibilities := make([]Visibility, 0, len(types))
	dims := make([]int, 0, len(types))
	datatypes := make([]DataType, 0, len(types))
	for _, t := range types {
		visibilities = append(visibilities, t.Visibility)
		if t.HasDims {
			dims = append(dims, t.Dims)
		}
		if t.DataType != DataTypeUnknown {
			datatypes = append(datatypes, t.DataType)
		}
	}

	distinctVis := distinctKnownVisibilities(visibilities)
	if len(distinctVis) > 1 && !opts.MixedSharedPlaintextAllowed {
		return VarType{}, fmt.Errorf("ir: cannot merge types with different visibilities: %v", types)
	}

	merged := VarType{}
	merged.Visibility = MergeVisibility(visibilities...)

	if len(distinctInts(dims)) > 1 {
		return VarType{}, fmt.Errorf("ir: cannot merge types with different dimensionality: %v", types)
	}
	if len(dims) > 0 {
		merged.HasDims = true
		merged.Dims = dims[0]
	}

	distinctDT := distinctDataTypes(datatypes)
	if len(distinctDT) > 1 && !opts.MixedDatatypesAllowed {
		return VarType{}, fmt.Errorf("ir: cannot merge types with different datatypes: %v", types)
	}
	if len(datatypes) > 0 {
		merged.DataType = datatypes[0]
	}

	return merged, nil
}

func distinctKnownVisibilities(vs []Visibility) []Visibility {
	seen := map[Visibility]bool{}
	var out []Visibility
	for _, v := range vs {
		if v == VisibilityUnknown || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func distinctInts(vs []int) []int {
	seen := map[int]bool{}
	var out []int
	for _, v := range vs {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func distinctDataTypes(vs []DataType) []DataType {
	seen := map[DataType]bool{}
	var out []DataType
	for _, v := range vs {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// String renders the canonical textual form from spec §6:
// visibility[list[…[datatype]…]] with brackets matching dims.
func (t VarType) String() string {
	s := t.Visibility.String() + "["
	if t.HasDims {
		for i := 0; i < t.Dims; i++ {
			s += "list["
		}
	}
	s += t.DataType.String()
	if t.HasDims {
		for i := 0; i < t.Dims; i++ {
			s += "]"
		}
	}
	s += "]"
	if !t.HasDims {
		s += "(unknown dims)"
	}
	return s
}
