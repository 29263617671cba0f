package codegen

import (
	"strings"

	"js2f/parser"
)

// binaryOpcodes maps source operators to VM mnemonics. The bitwise AND/OR
// mnemonics are transposed relative to the source operators; the
// downstream assembler's table is keyed by these exact names.
var binaryOpcodes = map[string]string{
	"==":         "equals",
	"===":        "strictEquals",
	"<":          "lessThan",
	">":          "greaterThan",
	"<<":         "shiftLeft",
	">>":         "shiftRight",
	">>>":        "shiftRight2",
	"+":          "add",
	"-":          "subtract",
	"*":          "multiply",
	"/":          "divide",
	"%":          "modulo",
	"|":          "bitwiseAnd",
	"^":          "bitwiseXor",
	"&":          "bitwiseOr",
	"instanceof": "instanceOf",
}

// negatedOpcodes maps operators emitted as a base comparison plus not
var negatedOpcodes = map[string]string{
	"!=":  "equals",
	"!==": "strictEquals",
	"<=":  "greaterThan",
	">=":  "lessThan",
}

// genExpr emits one expression, leaving exactly one value on the stack.
// When voidOffered is set the parent has no use for the value; an
// expression that takes the offer leaves the stack clean and returns
// acked=true. Only assignment honors the offer.
func (g *Generator) genExpr(expr parser.Expr, voidOffered bool) (acked bool, err error) {
	switch e := expr.(type) {
	case *parser.NumericLiteral, *parser.BooleanLiteral, *parser.StringLiteral,
		*parser.NullLiteral, *parser.BigIntLiteral, *parser.RegExpLiteral:
		g.emit("push %s", literalOperand(expr))
		return false, nil
	case *parser.Identifier:
		return false, g.genIdentifier(e, false)
	case *parser.TemplateLiteral:
		return false, g.genTemplate(e)
	case *parser.ThisExpression:
		return false, g.genThis(e)
	case *parser.ArrayExpression:
		return false, g.genArray(e)
	case *parser.MemberExpression:
		return false, g.genMember(e, false)
	case *parser.NewExpression:
		return false, g.genNew(e)
	case *parser.CallExpression:
		return false, g.genCall(e)
	case *parser.BinaryExpression:
		return false, g.genBinary(e)
	case *parser.UnaryExpression:
		return false, g.genUnary(e)
	case *parser.UpdateExpression:
		return false, g.genUpdate(e)
	case *parser.AssignmentExpression:
		return g.genAssign(e, voidOffered)
	case *parser.FunctionExpression:
		// Rewritten as an anonymous declaration; the VM's function2
		// leaves the function value on the stack.
		return false, g.genFunction("", e.Params, e.Body, e)
	default:
		return false, errf(UnimplementedNode, expr, "no visitor for %T", expr)
	}
}

// pushableLiteral reports whether an expression compiles to a single push
// with no side effects, and is therefore safe to re-emit.
func pushableLiteral(expr parser.Expr) bool {
	switch e := expr.(type) {
	case *parser.NumericLiteral, *parser.BooleanLiteral, *parser.StringLiteral,
		*parser.NullLiteral, *parser.BigIntLiteral, *parser.RegExpLiteral:
		return true
	case *parser.Identifier:
		return e.Name == "undefined"
	}
	return false
}

// literalOperand renders a pushable literal as a push operand
func literalOperand(expr parser.Expr) string {
	switch e := expr.(type) {
	case *parser.NumericLiteral:
		return e.Raw
	case *parser.BigIntLiteral:
		return strings.TrimSuffix(e.Raw, "n")
	case *parser.BooleanLiteral:
		if e.Value {
			return "TRUE"
		}
		return "FALSE"
	case *parser.StringLiteral:
		return quoteString(e.Value)
	case *parser.NullLiteral:
		return "NULL"
	case *parser.RegExpLiteral:
		return quoteString(e.Raw)
	case *parser.Identifier:
		return "UNDEF"
	}
	return ""
}

// quoteString escapes control characters and wraps the text in single quotes
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// genIdentifier resolves an identifier to a register push or a named
// variable load. skipGet stops before the getVariable, for parents that
// only need the name on the stack.
func (g *Generator) genIdentifier(e *parser.Identifier, skipGet bool) error {
	if e.Name == "undefined" {
		g.emit("push UNDEF")
		return nil
	}
	if r, ok := g.lookupRegister(e.Name); ok {
		g.emit("push %s", r)
		return nil
	}
	g.emit("push %s", quoteString(e.Name))
	if !skipGet {
		g.emit("getVariable")
	}
	return nil
}

// genTemplate folds template chunks and interpolations into a string
// accumulator, strictly left to right
func (g *Generator) genTemplate(e *parser.TemplateLiteral) error {
	g.emit("push ''")
	for i, chunk := range e.Quasis {
		g.emit("push %s", quoteString(chunk))
		if i < len(e.Expressions) {
			if _, err := g.genExpr(e.Expressions[i], false); err != nil {
				return err
			}
			g.emit("add")
		}
		g.emit("add")
	}
	return nil
}

// genThis pushes the register bound to this
func (g *Generator) genThis(e *parser.ThisExpression) error {
	entry, ok := g.regvars.Peek()
	if !ok {
		return errf(ThisOutsideFunction, e, "this used outside a function")
	}
	r, ok := entry.ctx.GetVariableRegister("this")
	if !ok {
		if _, insideFn := g.currentFunction(); insideFn {
			return errf(InternalError, e, "function context has no register for this")
		}
		return errf(ThisOutsideFunction, e, "this used outside a function")
	}
	g.emit("push %s", r)
	return nil
}

// genArray pushes elements in reverse followed by the length
func (g *Generator) genArray(e *parser.ArrayExpression) error {
	for i := len(e.Elements) - 1; i >= 0; i-- {
		if _, err := g.genExpr(e.Elements[i], false); err != nil {
			return err
		}
	}
	g.emit("push %d", len(e.Elements))
	g.emit("initArray")
	return nil
}

// genMember pushes object then property. skipGet stops before the
// getMember, for call and assignment parents.
func (g *Generator) genMember(e *parser.MemberExpression, skipGet bool) error {
	switch obj := e.Object.(type) {
	case *parser.Identifier:
		if err := g.genIdentifier(obj, false); err != nil {
			return err
		}
	case *parser.NewExpression, *parser.MemberExpression, *parser.ThisExpression:
		if _, err := g.genExpr(e.Object, false); err != nil {
			return err
		}
	default:
		return errf(UnimplementedFeature, e.Object, "unsupported member object %T", obj)
	}

	if e.Computed {
		if _, err := g.genExpr(e.Property, false); err != nil {
			return err
		}
	} else {
		prop, ok := e.Property.(*parser.Identifier)
		if !ok {
			return errf(UnimplementedFeature, e.Property, "member property must be an identifier")
		}
		g.emit("push %s", quoteString(prop.Name))
	}

	if !skipGet {
		g.emit("getMember")
	}
	return nil
}

// genNew constructs an instance: arguments reversed, argc, class name
func (g *Generator) genNew(e *parser.NewExpression) error {
	callee, ok := e.Callee.(*parser.Identifier)
	if !ok {
		return errf(UnimplementedFeature, e.Callee, "new callee must be an identifier")
	}
	for i := len(e.Arguments) - 1; i >= 0; i-- {
		if _, err := g.genExpr(e.Arguments[i], false); err != nil {
			return err
		}
	}
	g.emit("push %d", len(e.Arguments))
	g.emit("push %s", quoteString(callee.Name))
	g.emit("new")
	return nil
}

// genCall compiles the intrinsic forms first, then the general
// callFunction/callMethod shapes
func (g *Generator) genCall(e *parser.CallExpression) error {
	if id, ok := e.Callee.(*parser.Identifier); ok {
		switch id.Name {
		case "trace":
			return errf(UnsupportedIntrinsic, e, "trace() is not available on the target VM")
		case "int":
			if len(e.Arguments) != 1 {
				return errf(WrongArity, e, "int() takes exactly 1 argument, got %d", len(e.Arguments))
			}
			if _, err := g.genExpr(e.Arguments[0], false); err != nil {
				return err
			}
			g.emit("int")
			return nil
		}
	}

	for i := len(e.Arguments) - 1; i >= 0; i-- {
		if _, err := g.genExpr(e.Arguments[i], false); err != nil {
			return err
		}
	}
	g.emit("push %d", len(e.Arguments))

	switch callee := e.Callee.(type) {
	case *parser.Identifier:
		if err := g.genIdentifier(callee, true); err != nil {
			return err
		}
		g.emit("callFunction")
	case *parser.MemberExpression:
		if err := g.genMember(callee, true); err != nil {
			return err
		}
		g.emit("callMethod")
	default:
		return errf(UnimplementedFeature, e.Callee, "unsupported callee %T", callee)
	}
	return nil
}

// genBinary emits left, right, then the operator
func (g *Generator) genBinary(e *parser.BinaryExpression) error {
	opcode, direct := binaryOpcodes[e.Operator]
	negated, viaNot := negatedOpcodes[e.Operator]
	if !direct && !viaNot {
		return errf(UnsupportedOperator, e, "operator %q is not supported", e.Operator)
	}

	if _, err := g.genExpr(e.Left, false); err != nil {
		return err
	}
	if _, err := g.genExpr(e.Right, false); err != nil {
		return err
	}
	if direct {
		g.emit("%s", opcode)
	} else {
		g.emit("%s", negated)
		g.emit("not")
	}
	return nil
}

// genUnary supports only logical not
func (g *Generator) genUnary(e *parser.UnaryExpression) error {
	if e.Operator != "!" {
		return errf(UnsupportedOperator, e, "unary operator %q is not supported", e.Operator)
	}
	if _, err := g.genExpr(e.Argument, false); err != nil {
		return err
	}
	g.emit("not")
	return nil
}

// genUpdate emits postfix increment/decrement. For a register variable
// the sequence leaves the post-update value, not the pre-update value;
// for any other variable the final setVariable consumes the value and
// nothing is left on the stack. Callers depending on ECMAScript postfix
// semantics are out of luck.
func (g *Generator) genUpdate(e *parser.UpdateExpression) error {
	if e.Prefix {
		return errf(UnimplementedFeature, e, "prefix %s is not supported", e.Operator)
	}
	id, ok := e.Argument.(*parser.Identifier)
	if !ok {
		return errf(UnimplementedFeature, e.Argument, "%s target must be an identifier", e.Operator)
	}

	opcode := "increment"
	if e.Operator == "--" {
		opcode = "decrement"
	}

	if r, ok := g.lookupRegister(id.Name); ok {
		g.emit("push %s", r)
		g.emit("%s", opcode)
		g.emit("setRegister %s", r)
		return nil
	}
	g.emit("push %s", quoteString(id.Name))
	g.emit("push %s", quoteString(id.Name))
	g.emit("getVariable")
	g.emit("%s", opcode)
	g.emit("setVariable")
	return nil
}

// genAssign compiles an assignment. The stack discipline around
// setVariable/setMember (which consume their inputs) depends on where the
// assignment sits:
//
//  1. target in a register: setRegister leaves the value in place
//  2. parent offered void: the consuming store is already stack-clean
//     (callee cleanup); the offer is acknowledged only inside a function
//  3. literal right side: re-push after the store
//  4. inside a function: stash the value in a temporary register
//  5. at the root: borrow r:1 around the store
func (g *Generator) genAssign(e *parser.AssignmentExpression, voidOffered bool) (bool, error) {
	if e.Operator != "=" {
		return false, errf(UnsupportedOperator, e, "compound assignment %q is not supported", e.Operator)
	}

	member, isMember := e.Left.(*parser.MemberExpression)
	id, isIdent := e.Left.(*parser.Identifier)
	if !isMember && !isIdent {
		return false, errf(UnimplementedFeature, e.Left, "assignment target must be an identifier or member expression")
	}

	// Case 1: the target lives in a register
	if isIdent {
		if r, ok := g.lookupRegister(id.Name); ok {
			if _, err := g.genExpr(e.Right, false); err != nil {
				return false, err
			}
			g.emit("setRegister %s", r)
			if voidOffered {
				g.emit("pop")
				return true, nil
			}
			return false, nil
		}
	}

	emitTarget := func() error {
		if isMember {
			return g.genMember(member, true)
		}
		g.emit("push %s", quoteString(id.Name))
		return nil
	}
	storeOp := "setVariable"
	if isMember {
		storeOp = "setMember"
	}

	_, insideFn := g.currentFunction()

	// Case 2: the parent offered a stack-clean result. The consuming
	// store is already clean; inside a function we can acknowledge the
	// offer. At the root there is no coordination and the statement's
	// trailing pop lands on an empty stack, which the VM absorbs.
	if voidOffered {
		if err := emitTarget(); err != nil {
			return false, err
		}
		if _, err := g.genExpr(e.Right, false); err != nil {
			return false, err
		}
		g.emit("%s", storeOp)
		return insideFn, nil
	}

	// Case 3: literal right side, idempotent under re-push
	if pushableLiteral(e.Right) {
		if err := emitTarget(); err != nil {
			return false, err
		}
		if _, err := g.genExpr(e.Right, false); err != nil {
			return false, err
		}
		g.emit("%s", storeOp)
		g.emit("push %s", literalOperand(e.Right))
		return false, nil
	}

	// Case 4: inside a function, park the value in a temporary register
	// across the consuming store (caller cleanup)
	if insideFn {
		fn, _ := g.currentFunction()
		if err := emitTarget(); err != nil {
			return false, err
		}
		if _, err := g.genExpr(e.Right, false); err != nil {
			return false, err
		}
		temp, err := fn.AllocTemporaryRegister()
		if err != nil {
			return false, withNode(err, e)
		}
		g.emit("setRegister %s", temp)
		g.emit("%s", storeOp)
		g.emit("push %s", temp)
		fn.FreeTemporaryRegister(temp)
		return false, nil
	}

	// Case 5: at the root, borrow the globally shared r:1 around the
	// store. The save at the top of the sequence is restored by the
	// final setRegister; no user code runs in between.
	borrowed := &Register{ID: 1}
	g.emit("push %s", borrowed)
	if err := emitTarget(); err != nil {
		return false, err
	}
	if _, err := g.genExpr(e.Right, false); err != nil {
		return false, err
	}
	g.emit("setRegister %s", borrowed)
	g.emit("%s", storeOp)
	g.emit("setRegister %s", borrowed)
	return false, nil
}
