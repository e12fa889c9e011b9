package interpreter

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rubiojr/lox/ast"
	"github.com/rubiojr/lox/parser"
	"github.com/rubiojr/lox/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapedReturnIsInternal(t *testing.T) {
	prog, errs := parser.Parse("t.lox", "return 1;")
	require.Empty(t, errs)

	i := New(Options{Stdout: &bytes.Buffer{}})
	out := i.execute(prog)
	assert.Equal(t, StatusInternalError, out.Status)
	assert.True(t, errors.Is(out.Internal, ErrInternal))
	assert.Equal(t, out.Internal, out.Err())
}

func TestBindingMismatchIsInternal(t *testing.T) {
	prog, errs := parser.Parse("t.lox", "{ var a = 1; print a; }")
	require.Empty(t, errs)
	b, errs := resolver.Resolve(prog)
	require.Empty(t, errs)

	block := prog.Statements[0].(*ast.BlockStmt)
	ref := block.Body[1].(*ast.PrintStmt).Value.(*ast.Variable)

	var buf bytes.Buffer
	i := New(Options{Stdout: &buf})
	i.bindings.Merge(b)
	i.bindings[ref] = 3
	out := i.execute(prog)
	assert.Equal(t, StatusInternalError, out.Status)
	assert.ErrorIs(t, out.Internal, ErrInternal)
	assert.Empty(t, buf.String())
}
