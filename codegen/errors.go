package codegen

import (
	"fmt"

	"js2f/parser"
)

// Kind classifies a compile failure
type Kind string

const (
	UnimplementedNode    Kind = "UnimplementedNode"
	UnimplementedFeature Kind = "UnimplementedFeature"
	DuplicateDeclaration Kind = "DuplicateDeclaration"
	ThisOutsideFunction  Kind = "ThisOutsideFunction"
	GlobalsUnsupported   Kind = "GlobalsUnsupported"
	UnsupportedIntrinsic Kind = "UnsupportedIntrinsic"
	UnsupportedOperator  Kind = "UnsupportedOperator"
	WrongArity           Kind = "WrongArity"
	OutOfRegisters       Kind = "OutOfRegisters"
	RegisterConflict     Kind = "RegisterConflict"
	BreakOutsideLoop     Kind = "BreakOutsideLoop"
	DirectiveMalformed   Kind = "DirectiveMalformed"
	DirectiveMisplaced   Kind = "DirectiveMisplaced"
	InternalError        Kind = "InternalError"
)

// Error is a fatal compile error carrying the offending node so callers
// can frame the source span.
type Error struct {
	Kind Kind
	Node parser.Node // may be nil for allocator failures
	Msg  string
}

func (e *Error) Error() string {
	if e.Node != nil {
		pos := e.Node.Position()
		return fmt.Sprintf("%d:%d: %s: %s", pos.Line, pos.Column+1, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// errf builds an Error attached to a node
func errf(kind Kind, node parser.Node, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Node: node, Msg: fmt.Sprintf(format, args...)}
}

// withNode attaches a node to allocator errors surfaced during visitation
func withNode(err error, node parser.Node) error {
	if err == nil {
		return nil
	}
	if cerr, ok := err.(*Error); ok && cerr.Node == nil {
		cerr.Node = node
	}
	return err
}
