package ir

import "strconv"

// Var is either a user-provided name or a compiler-generated synthetic
// index, optionally carrying an SSA rename subscript. Two Vars are equal
// iff all three fields are equal — Var is a plain value type, never a
// pointer, so equality is just (==) once embedded in a comparable struct.
type Var struct {
	name         string
	synthetic    int
	isSynthetic  bool
	hasSubscript bool
	subscript    int
}

// NewVar builds a user-named variable.
func NewVar(name string) Var {
	return Var{name: name}
}

// NewSyntheticVar builds a compiler-generated temporary identified by id.
func NewSyntheticVar(id int) Var {
	return Var{synthetic: id, isSynthetic: true}
}

// IsSynthetic reports whether this Var was compiler-generated.
func (v Var) IsSynthetic() bool { return v.isSynthetic }

// BaseName returns the unsubscripted name (user name, or "!id" for
// synthetics), ignoring any SSA rename subscript.
func (v Var) BaseName() string {
	if v.isSynthetic {
		return "!" + strconv.Itoa(v.synthetic)
	}
	return v.name
}

// HasSubscript reports whether this Var carries an SSA rename subscript.
func (v Var) HasSubscript() bool { return v.hasSubscript }

// Subscript returns the SSA rename subscript; only valid if HasSubscript().
func (v Var) Subscript() int { return v.subscript }

// WithSubscript returns a copy of v carrying the given SSA rename subscript.
func (v Var) WithSubscript(i int) Var {
	v.hasSubscript = true
	v.subscript = i
	return v
}

// WithoutSubscript returns a copy of v with any SSA subscript removed.
func (v Var) WithoutSubscript() Var {
	v.hasSubscript = false
	v.subscript = 0
	return v
}

// String renders the canonical textual form from spec §6: "name" or
// "name!subscript" (where name is "!tempid" for synthetics).
func (v Var) String() string {
	s := v.BaseName()
	if v.hasSubscript {
		s += "!" + strconv.Itoa(v.subscript)
	}
	return s
}

// Constant is a literal integer or boolean tagged with its DataType.
type Constant struct {
	IntValue  int64
	BoolValue bool
	DataType  DataType
}

// IntConstant builds an INT constant.
func IntConstant(v int64) Constant { return Constant{IntValue: v, DataType: INT} }

// BoolConstant builds a BOOL constant.
func BoolConstant(v bool) Constant { return Constant{BoolValue: v, DataType: BOOL} }

func (c Constant) String() string {
	if c.DataType == BOOL {
		if c.BoolValue {
			return "True"
		}
		return "False"
	}
	return strconv.FormatInt(c.IntValue, 10)
}

// Parameter is a function parameter: (var, var_type, default_values,
// party_idx?). DefaultValues accumulates sample inputs recovered from
// example call sites by an upstream collaborator; the core never
// interprets them, only preserves them verbatim for the emitter. Each
// element is one call site's value, flattened to match the parameter's
// rank (a single element for scalars, a slice of elements for 1-D lists).
type Parameter struct {
	Var           Var
	Type          VarType
	DefaultValues [][]int64
	PartyIdx      *int
}

// AssignPartyIndices assigns party_idx in declaration order to every SHARED
// parameter, starting at 0, leaving PLAINTEXT parameters untouched.
func AssignPartyIndices(params []*Parameter) {
	next := 0
	for _, p := range params {
		if p.Type.Visibility == SHARED {
			idx := next
			p.PartyIdx = &idx
			next++
		} else {
			p.PartyIdx = nil
		}
	}
}

func (p Parameter) String() string {
	return p.Var.String() + ": " + p.Type.String()
}
