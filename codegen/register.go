package codegen

import "fmt"

// Register file bounds. Slot 0 is reserved: the VM binds this/arguments
// there in some function2 configurations.
const (
	minRegister = 1
	maxRegister = 254
)

// reservedNames lists assembler keywords; a register whose symbolic name
// collides with one must be quoted when rendered.
var reservedNames = map[string]bool{
	"push": true, "pop": true, "new": true, "end": true, "function2": true,
	"getVariable": true, "setVariable": true, "getMember": true, "setMember": true,
	"setRegister": true, "callFunction": true, "callMethod": true, "initArray": true,
	"add": true, "subtract": true, "multiply": true, "divide": true, "modulo": true,
	"equals": true, "strictEquals": true, "lessThan": true, "greaterThan": true,
	"not": true, "branch": true, "branchIfTrue": true, "return": true, "int": true,
	"increment": true, "decrement": true, "shiftLeft": true, "shiftRight": true,
	"shiftRight2": true, "bitwiseAnd": true, "bitwiseOr": true, "bitwiseXor": true,
	"instanceOf": true, "r": true, "TRUE": true, "FALSE": true, "UNDEF": true,
}

// Register is a named slot in the function2 register file. Equality is by
// id; the name and debug tag only affect rendering.
type Register struct {
	ID       int
	Name     string // symbolic name, rendered as r:<name> when set
	DebugTag string // rendered as a trailing /*tag*/ comment
}

// String renders the register reference for the assembler
func (r *Register) String() string {
	var ref string
	switch {
	case r.Name == "":
		ref = fmt.Sprintf("r:%d", r.ID)
	case reservedNames[r.Name]:
		ref = "r:'" + r.Name + "'"
	default:
		ref = "r:" + r.Name
	}
	if r.DebugTag != "" {
		ref += " /*" + r.DebugTag + "*/"
	}
	return ref
}

// RegisterAllocator hands out slots from the 254-slot register file.
// Each function constructs its own allocator.
type RegisterAllocator struct {
	held map[int]*Register
}

// NewRegisterAllocator creates an empty allocator
func NewRegisterAllocator() *RegisterAllocator {
	return &RegisterAllocator{held: make(map[int]*Register)}
}

// Allocate claims the lowest free slot and returns its register
func (a *RegisterAllocator) Allocate(name, debugTag string) (*Register, error) {
	for id := minRegister; id <= maxRegister; id++ {
		if _, taken := a.held[id]; !taken {
			r := &Register{ID: id, Name: name, DebugTag: debugTag}
			a.held[id] = r
			return r, nil
		}
	}
	return nil, &Error{Kind: OutOfRegisters, Msg: "register file exhausted"}
}

// Assign claims a specific slot, failing if it is already held
func (a *RegisterAllocator) Assign(id int, name, debugTag string) (*Register, error) {
	if id < minRegister || id > maxRegister {
		return nil, &Error{Kind: RegisterConflict, Msg: fmt.Sprintf("register id %d out of range [%d,%d]", id, minRegister, maxRegister)}
	}
	if _, taken := a.held[id]; taken {
		return nil, &Error{Kind: RegisterConflict, Msg: fmt.Sprintf("register %d already allocated", id)}
	}
	r := &Register{ID: id, Name: name, DebugTag: debugTag}
	a.held[id] = r
	return r, nil
}

// Free releases a register's slot. Freeing an unheld slot is a no-op.
func (a *RegisterAllocator) Free(r *Register) {
	delete(a.held, r.ID)
}

// Held reports whether a slot is currently allocated
func (a *RegisterAllocator) Held(id int) bool {
	_, taken := a.held[id]
	return taken
}
