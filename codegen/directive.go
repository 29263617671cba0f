package codegen

import (
	"regexp"
	"strconv"
	"strings"

	"js2f/parser"
)

// Directive names recognized in line comments. Directives let user code
// embedded into externally-provided functions declare which VM registers
// hold which variables.
const (
	directivePrefix      = "@js2f/"
	directivePushContext = "push-register-context"
	directivePopContext  = "pop-register-context"
)

var registerAssignment = regexp.MustCompile(`^r:([0-9]+)=([A-Za-z_$][A-Za-z0-9_$]*)$`)

// processDirectives scans a statement's attached line comments for
// directives and applies them. Block comments never carry directives.
func (g *Generator) processDirectives(comments []parser.Comment) error {
	for i := range comments {
		c := &comments[i]
		if c.Block {
			continue
		}
		text := strings.TrimSpace(c.Text)
		if !strings.HasPrefix(text, directivePrefix) {
			continue
		}
		if err := g.applyDirective(c, strings.TrimPrefix(text, directivePrefix)); err != nil {
			return err
		}
	}
	return nil
}

// applyDirective dispatches one directive body (prefix already stripped)
func (g *Generator) applyDirective(c *parser.Comment, body string) error {
	name, rest, _ := strings.Cut(body, ":")
	name = strings.TrimSpace(name)

	switch name {
	case directivePushContext:
		return g.pushRegisterContext(c, rest)
	case directivePopContext:
		if strings.TrimSpace(rest) != "" {
			return errf(DirectiveMalformed, c, "%s takes no arguments", directivePopContext)
		}
		return g.popRegisterContext(c)
	default:
		return errf(DirectiveMalformed, c, "unknown directive %q", directivePrefix+name)
	}
}

// pushRegisterContext parses r:<n>=<name> assignments and pushes a
// register-variables context built from them
func (g *Generator) pushRegisterContext(c *parser.Comment, args string) error {
	if g.fns.Len() > 0 {
		return errf(DirectiveMisplaced, c, "%s may not appear inside a function", directivePushContext)
	}

	fields := strings.Fields(args)
	if len(fields) == 0 {
		return errf(DirectiveMalformed, c, "%s needs at least one r:<n>=<name> assignment", directivePushContext)
	}

	vars := make(map[string]*Register, len(fields))
	seenIDs := make(map[int]bool, len(fields))
	for _, field := range fields {
		m := registerAssignment.FindStringSubmatch(field)
		if m == nil {
			return errf(DirectiveMalformed, c, "malformed register assignment %q", field)
		}
		id, err := strconv.Atoi(m[1])
		if err != nil || id < minRegister || id > maxRegister {
			return errf(DirectiveMalformed, c, "register id in %q out of range [%d,%d]", field, minRegister, maxRegister)
		}
		name := m[2]
		if _, dup := vars[name]; dup {
			return errf(DirectiveMalformed, c, "name %q assigned twice", name)
		}
		if seenIDs[id] {
			return errf(DirectiveMalformed, c, "register %d assigned twice", id)
		}
		seenIDs[id] = true
		vars[name] = &Register{ID: id, Name: name}
	}

	g.regvars.Push(regVarsEntry{ctx: NewRegisterVariablesContext(vars), directive: true})
	return nil
}

// popRegisterContext pops the top directive-pushed context
func (g *Generator) popRegisterContext(c *parser.Comment) error {
	top, ok := g.regvars.Peek()
	if !ok || !top.directive {
		return errf(DirectiveMisplaced, c, "%s without a matching push", directivePopContext)
	}
	g.regvars.Pop()
	return nil
}
