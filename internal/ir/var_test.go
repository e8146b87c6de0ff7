package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVarString(t *testing.T) {
	assert.Equal(t, "x", NewVar("x").String())
	assert.Equal(t, "x!2", NewVar("x").WithSubscript(2).String())
	assert.Equal(t, "!3", NewSyntheticVar(3).String())
	assert.Equal(t, "!3!1", NewSyntheticVar(3).WithSubscript(1).String())
}

func TestVarEquality(t *testing.T) {
	a := NewVar("x").WithSubscript(1)
	b := NewVar("x").WithSubscript(1)
	c := NewVar("x").WithSubscript(2)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, NewVar("x"), NewSyntheticVar(0))
}

func TestConstantString(t *testing.T) {
	assert.Equal(t, "42", IntConstant(42).String())
	assert.Equal(t, "True", BoolConstant(true).String())
	assert.Equal(t, "False", BoolConstant(false).String())
}

func TestBinOpKindDataTypes(t *testing.T) {
	assert.Equal(t, INT, ADD.GetRetDataType())
	assert.Equal(t, []DataType{INT}, ADD.GetOperandDataTypes())
	assert.Equal(t, BOOL, EQ.GetRetDataType())
	assert.Equal(t, []DataType{INT, BOOL}, EQ.GetOperandDataTypes())
	assert.Equal(t, "//", DIV.String())
	assert.Equal(t, "and", AND.String())
}

func TestUnaryOpKindDataTypes(t *testing.T) {
	assert.Equal(t, INT, NEGATE.GetRetDataType())
	assert.Equal(t, BOOL, NOT.GetRetDataType())
	assert.Equal(t, []DataType{BOOL, INT}, NOT.GetOperandDataTypes())
}
