package codegen

import (
	"fmt"
	"sort"
	"strings"

	"js2f/parser"
)

const indentUnit = "  "

// Options controls optional generator output
type Options struct {
	// EchoSource emits each statement's source text as a comment before
	// its instructions.
	EchoSource bool
}

// regVarsEntry marks whether a register-variables context came from a
// directive or from a function preamble.
type regVarsEntry struct {
	ctx       *RegisterVariablesContext
	directive bool
}

// Generator walks the AST and emits stack-machine assembly lines.
// One generator compiles one source file.
type Generator struct {
	src  string
	opts Options

	lines  []string
	depth  int
	labels int

	fns     contextStack[*FunctionContext]
	regvars contextStack[regVarsEntry]
	loops   contextStack[*LoopContext]
}

// NewGenerator creates a generator for one source text
func NewGenerator(src string, opts Options) *Generator {
	return &Generator{src: src, opts: opts}
}

// Generate emits instructions for a whole program. On error the lines
// emitted so far are still returned so callers can dump partial output.
func (g *Generator) Generate(prog *parser.Program) ([]string, error) {
	for _, stmt := range prog.Body {
		if err := g.genStmt(stmt); err != nil {
			return g.lines, err
		}
	}
	if err := g.processDirectives(prog.Trailing); err != nil {
		return g.lines, err
	}
	return g.lines, nil
}

// emit appends one instruction line at the current indentation
func (g *Generator) emit(format string, args ...interface{}) {
	line := format
	if len(args) > 0 {
		line = fmt.Sprintf(format, args...)
	}
	g.lines = append(g.lines, strings.Repeat(indentUnit, g.depth)+line)
}

// emitLabel appends a label line. Labels sit one indent level below the
// code they bracket; the caller indents bodies after emitting the label.
func (g *Generator) emitLabel(label string) {
	g.lines = append(g.lines, strings.Repeat(indentUnit, g.depth)+label+":")
}

// emitRaw appends a line verbatim, without indentation
func (g *Generator) emitRaw(line string) {
	g.lines = append(g.lines, line)
}

func (g *Generator) indent() {
	g.depth++
}

func (g *Generator) deindent() {
	if g.depth == 0 {
		g.emitRaw("// warning: indentation underflow")
		return
	}
	g.depth--
}

// nextLabelID hands out a fresh id for a labeled construct
func (g *Generator) nextLabelID() int {
	g.labels++
	return g.labels
}

// currentFunction returns the innermost function context, if any
func (g *Generator) currentFunction() (*FunctionContext, bool) {
	return g.fns.Peek()
}

// lookupRegister resolves a name in the innermost register-variables context
func (g *Generator) lookupRegister(name string) (*Register, bool) {
	entry, ok := g.regvars.Peek()
	if !ok {
		return nil, false
	}
	return entry.ctx.GetVariableRegister(name)
}

// echoSource emits the statement's source text as a comment
func (g *Generator) echoSource(stmt parser.Stmt) {
	start, end := stmt.Range()
	if start < 0 || end > len(g.src) || start >= end {
		return
	}
	text := g.src[start:end]
	if !strings.Contains(text, "\n") {
		g.emitRaw("//-- " + text)
		return
	}
	g.emitRaw("/*--[[")
	for _, line := range strings.Split(text, "\n") {
		g.emitRaw(line)
	}
	g.emitRaw("--]]*/")
}

// genStmt emits one statement, processing attached directives before and
// after. Every statement leaves the stack at the height it found it,
// except expression statements whose expression leaves no value (a
// root-level store to a named variable or member, or a postfix update of
// a variable not held in a register): their trailing pop finds nothing of
// the statement's own to remove, and the VM absorbs it.
func (g *Generator) genStmt(stmt parser.Stmt) error {
	if err := g.processDirectives(stmt.Comments().Leading); err != nil {
		return err
	}
	if g.opts.EchoSource {
		g.echoSource(stmt)
	}

	var err error
	switch s := stmt.(type) {
	case *parser.ExpressionStatement:
		err = g.genExpressionStatement(s)
	case *parser.VariableDeclaration:
		err = g.genVariableDeclaration(s)
	case *parser.BlockStatement:
		err = g.genStatements(s.Body)
	case *parser.IfStatement:
		err = g.genIf(s)
	case *parser.WhileStatement:
		err = g.genWhile(s)
	case *parser.BreakStatement:
		err = g.genBreak(s)
	case *parser.ReturnStatement:
		err = g.genReturn(s)
	case *parser.FunctionDeclaration:
		err = g.genFunction(s.Name, s.Params, s.Body, s)
	default:
		err = errf(UnimplementedNode, stmt, "no visitor for %T", stmt)
	}
	if err != nil {
		return err
	}

	return g.processDirectives(stmt.Comments().Trailing)
}

// genStatements emits a statement list
func (g *Generator) genStatements(stmts []parser.Stmt) error {
	for _, stmt := range stmts {
		if err := g.genStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

// genExpressionStatement offers the expression a stack-clean emission; if
// it does not acknowledge, the leftover value is popped.
func (g *Generator) genExpressionStatement(s *parser.ExpressionStatement) error {
	acked, err := g.genExpr(s.Expression, true)
	if err != nil {
		return err
	}
	if !acked {
		g.emit("pop")
	}
	return nil
}

// genVariableDeclaration handles var declarations; let, const, and the
// multi-declarator form are not part of the subset.
func (g *Generator) genVariableDeclaration(s *parser.VariableDeclaration) error {
	if s.Kind != "var" {
		return errf(UnimplementedFeature, s, "%s declarations are not supported, use var", s.Kind)
	}
	if len(s.Declarators) > 1 {
		return errf(UnimplementedFeature, s.Declarators[1], "only one declarator per var statement is supported")
	}
	for _, d := range s.Declarators {
		if err := g.genDeclarator(d); err != nil {
			return err
		}
	}
	return nil
}

// genDeclarator declares one variable and compiles its initializer
func (g *Generator) genDeclarator(d *parser.VariableDeclarator) error {
	id, ok := d.ID.(*parser.Identifier)
	if !ok {
		return errf(UnimplementedFeature, d, "declaration target must be an identifier")
	}

	fn, insideFn := g.currentFunction()
	if !insideFn {
		if d.Init != nil {
			return errf(GlobalsUnsupported, d, "global variable %q cannot have an initializer", id.Name)
		}
		return nil
	}

	if _, err := fn.DeclareVariable(id); err != nil {
		return err
	}
	if d.Init == nil {
		return nil
	}
	if _, err := g.genExpr(d.Init, false); err != nil {
		return err
	}
	if r, ok := g.lookupRegister(id.Name); ok {
		g.emit("setRegister %s", r)
		g.emit("pop")
	}
	return nil
}

// genIf emits the branch diamond for an if/else
func (g *Generator) genIf(s *parser.IfStatement) error {
	n := g.nextLabelID()
	trueLabel := fmt.Sprintf("if_%d_true", n)
	falseLabel := fmt.Sprintf("if_%d_false", n)
	endLabel := fmt.Sprintf("if_%d_end", n)

	if _, err := g.genExpr(s.Test, false); err != nil {
		return err
	}
	g.emit("not")
	g.emit("branchIfTrue %s", falseLabel)

	g.emitLabel(trueLabel)
	g.indent()
	if err := g.genStmt(s.Consequent); err != nil {
		return err
	}
	g.emit("branch %s", endLabel)
	g.deindent()

	g.emitLabel(falseLabel)
	if s.Alternate != nil {
		g.indent()
		if err := g.genStmt(s.Alternate); err != nil {
			return err
		}
		g.deindent()
	}
	g.emitLabel(endLabel)
	return nil
}

// genWhile emits the loop skeleton around a LoopContext so breaks can
// target the end label
func (g *Generator) genWhile(s *parser.WhileStatement) error {
	n := g.nextLabelID()
	testLabel := fmt.Sprintf("while_%d_test", n)
	endLabel := fmt.Sprintf("while_%d_end", n)

	return g.loops.Wrap(&LoopContext{endLabel: endLabel}, func() error {
		g.emitLabel(testLabel)
		g.indent()
		if _, err := g.genExpr(s.Test, false); err != nil {
			return err
		}
		g.emit("not")
		g.emit("branchIfTrue %s", endLabel)
		if err := g.genStmt(s.Body); err != nil {
			return err
		}
		g.emit("branch %s", testLabel)
		g.deindent()
		g.emitLabel(endLabel)
		return nil
	})
}

// genBreak jumps to the innermost loop's end label
func (g *Generator) genBreak(s *parser.BreakStatement) error {
	if s.Label != "" {
		return errf(UnimplementedFeature, s, "labeled break is not supported")
	}
	loop, ok := g.loops.Peek()
	if !ok {
		return errf(BreakOutsideLoop, s, "break outside of loop")
	}
	g.emit("branch %s", loop.endLabel)
	return nil
}

// genReturn emits the argument (or UNDEF) and returns
func (g *Generator) genReturn(s *parser.ReturnStatement) error {
	if s.Argument != nil {
		if _, err := g.genExpr(s.Argument, false); err != nil {
			return err
		}
	} else {
		g.emit("push UNDEF")
	}
	g.emit("return")
	return nil
}

// genFunction emits a function2 block. name is empty for function
// expressions, which are rewritten as anonymous declarations.
func (g *Generator) genFunction(name string, params []*parser.Identifier, body *parser.BlockStatement, node parser.Node) error {
	alloc := NewRegisterAllocator()
	fctx := NewFunctionContext(alloc)

	if _, err := fctx.DeclareMeta("this"); err != nil {
		return withNode(err, node)
	}
	for _, p := range params {
		if _, err := fctx.DeclareArg(p.Name); err != nil {
			return withNode(err, p)
		}
	}

	args := registerList(fctx.args)
	meta := registerList(fctx.meta)
	if name != "" {
		g.emit("function2 '%s' (%s) (%s)", name, args, meta)
	} else {
		g.emit("function2 (%s) (%s)", args, meta)
	}

	g.indent()
	err := g.fns.Wrap(fctx, func() error {
		return g.regvars.Wrap(regVarsEntry{ctx: fctx.RegisterVars()}, func() error {
			return g.genStatements(body.Body)
		})
	})
	g.deindent()
	if err != nil {
		return err
	}

	if name != "" {
		g.emit("end // of function %s", name)
	} else {
		g.emit("end")
	}
	return nil
}

// registerList renders a register map as sorted r:<id>='<name>' entries
func registerList(regs map[string]*Register) string {
	list := make([]*Register, 0, len(regs))
	for _, r := range regs {
		list = append(list, r)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

	parts := make([]string, len(list))
	for i, r := range list {
		parts[i] = fmt.Sprintf("r:%d='%s'", r.ID, r.Name)
	}
	return strings.Join(parts, ", ")
}
