// Package scripting runs scene scripts in a sandboxed GopherLua VM. Scripts
// drive a table through the scene.* module; every interaction with the host
// is injected via Runner callback fields.
package scripting

import (
	"context"
	"strings"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the opcode budget of one script run when no
// limit is configured.
const DefaultInstructionLimit = 100_000

// MaxRepeatLength caps the length of a string built by string.rep.
const MaxRepeatLength = 1 << 16

// removedGlobals are stripped after the base library is opened. Scripts
// report through scene.log and scene.chat instead of print.
var removedGlobals = []string{"dofile", "loadfile", "load", "loadstring", "collectgarbage", "require", "print", "module"}

// opcodeBudget is a context that cancels itself once Done has been called
// limit times. GopherLua polls Done once per opcode, so the budget is an
// exact instruction count.
type opcodeBudget struct {
	context.Context
	cancel context.CancelFunc
	left   atomic.Int64
}

func (b *opcodeBudget) Done() <-chan struct{} {
	if b.left.Add(-1) <= 0 {
		b.cancel()
	}
	return b.Context.Done()
}

func newOpcodeBudget(limit int) (*opcodeBudget, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	b := &opcodeBudget{Context: ctx, cancel: cancel}
	b.left.Store(int64(limit))
	return b, cancel
}

// NewSandboxedState creates a GopherLua LState for a scene script. Only the
// base, table, string and math libraries are opened, file and module
// loaders are removed, string.rep is length-capped, and the VM stops after
// instLimit opcodes.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: The caller owns the LState and must call the returned
// cancel and L.Close() when done.
func NewSandboxedState(instLimit int) (*lua.LState, context.CancelFunc) {
	if instLimit <= 0 {
		instLimit = DefaultInstructionLimit
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath} {
		open(L)
	}
	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	if str, ok := L.GetGlobal("string").(*lua.LTable); ok {
		L.SetField(str, "rep", L.NewFunction(boundedRep))
	}

	budget, cancel := newOpcodeBudget(instLimit)
	L.SetContext(budget)
	return L, cancel
}

// boundedRep is string.rep(s, n [, sep]) refusing results longer than
// MaxRepeatLength.
func boundedRep(L *lua.LState) int {
	s := L.CheckString(1)
	n := L.CheckInt(2)
	sep := L.OptString(3, "")
	if n <= 0 || (s == "" && sep == "") {
		L.Push(lua.LString(""))
		return 1
	}
	if n > MaxRepeatLength || n*len(s)+(n-1)*len(sep) > MaxRepeatLength {
		L.RaiseError("string.rep: result longer than %d bytes", MaxRepeatLength)
		return 0
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = s
	}
	L.Push(lua.LString(strings.Join(parts, sep)))
	return 1
}
