package codegen

import "js2f/parser"

// FunctionContext bundles one function's allocator with its register maps.
// Locals are reserved lazily on first declaration; args and meta are
// reserved by the function preamble.
type FunctionContext struct {
	alloc  *RegisterAllocator
	meta   map[string]*Register
	args   map[string]*Register
	locals map[string]*Register
}

// NewFunctionContext creates a context over a fresh allocator
func NewFunctionContext(alloc *RegisterAllocator) *FunctionContext {
	return &FunctionContext{
		alloc:  alloc,
		meta:   make(map[string]*Register),
		args:   make(map[string]*Register),
		locals: make(map[string]*Register),
	}
}

// DeclareMeta reserves a register for a pseudo-variable such as this
func (f *FunctionContext) DeclareMeta(name string) (*Register, error) {
	r, err := f.alloc.Allocate(name, "")
	if err != nil {
		return nil, err
	}
	f.meta[name] = r
	return r, nil
}

// DeclareArg reserves the next register for a positional parameter
func (f *FunctionContext) DeclareArg(name string) (*Register, error) {
	r, err := f.alloc.Allocate(name, "")
	if err != nil {
		return nil, err
	}
	f.args[name] = r
	return r, nil
}

// DeclareVariable records a local and allocates its register. Redeclaring
// a name already bound in this function fails.
func (f *FunctionContext) DeclareVariable(id *parser.Identifier) (*Register, error) {
	name := id.Name
	if _, dup := f.locals[name]; dup {
		return nil, errf(DuplicateDeclaration, id, "variable %q already declared", name)
	}
	if _, dup := f.args[name]; dup {
		return nil, errf(DuplicateDeclaration, id, "variable %q shadows a parameter", name)
	}
	if _, dup := f.meta[name]; dup {
		return nil, errf(DuplicateDeclaration, id, "variable %q shadows a meta register", name)
	}
	r, err := f.alloc.Allocate("", "local:"+name)
	if err != nil {
		return nil, withNode(err, id)
	}
	f.locals[name] = r
	return r, nil
}

// AllocTemporaryRegister claims a short-lived register
func (f *FunctionContext) AllocTemporaryRegister() (*Register, error) {
	return f.alloc.Allocate("", "temp")
}

// FreeTemporaryRegister releases a temporary
func (f *FunctionContext) FreeTemporaryRegister(r *Register) {
	f.alloc.Free(r)
}

// RegisterVars projects the function's register maps as a lookup context
func (f *FunctionContext) RegisterVars() *RegisterVariablesContext {
	return &RegisterVariablesContext{meta: f.meta, args: f.args, locals: f.locals}
}

// RegisterVariablesContext resolves variable names to registers. Locals
// shadow args, which shadow meta.
type RegisterVariablesContext struct {
	meta   map[string]*Register
	args   map[string]*Register
	locals map[string]*Register
}

// NewRegisterVariablesContext builds a context from explicit name→register
// assignments, as supplied by a push-register-context directive.
func NewRegisterVariablesContext(vars map[string]*Register) *RegisterVariablesContext {
	return &RegisterVariablesContext{locals: vars}
}

// GetVariableRegister resolves a name, or reports absence
func (c *RegisterVariablesContext) GetVariableRegister(name string) (*Register, bool) {
	if r, ok := c.locals[name]; ok {
		return r, true
	}
	if c.args != nil {
		if r, ok := c.args[name]; ok {
			return r, true
		}
	}
	if c.meta != nil {
		if r, ok := c.meta[name]; ok {
			return r, true
		}
	}
	return nil, false
}

// LoopContext exposes the enclosing loop's break target
type LoopContext struct {
	endLabel string
}

// contextStack is a LIFO stack shared by the three context kinds.
// Wrap keeps pushes and pops structurally balanced: compilation is
// synchronous, so a scoped push/defer-pop discipline is sufficient.
type contextStack[T any] struct {
	items []T
}

func (s *contextStack[T]) Push(v T) {
	s.items = append(s.items, v)
}

func (s *contextStack[T]) Pop() (T, bool) {
	var zero T
	if len(s.items) == 0 {
		return zero, false
	}
	v := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return v, true
}

func (s *contextStack[T]) Peek() (T, bool) {
	var zero T
	if len(s.items) == 0 {
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

func (s *contextStack[T]) Len() int {
	return len(s.items)
}

// Wrap pushes v, runs fn, and pops — even when fn fails
func (s *contextStack[T]) Wrap(v T, fn func() error) error {
	s.Push(v)
	defer s.Pop()
	return fn()
}
