package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/summonbeast/internal/game/dice"
)

// DefaultWho is the chat sender used when a script omits one.
const DefaultWho = "script"

// Runner executes scene scripts. Each Run gets a fresh sandboxed VM with
// the scene.* module registered.
type Runner struct {
	roller    *dice.Roller
	logger    *zap.Logger
	instLimit int

	// Injected after construction. nil = no-op in scene.* functions.
	AddToken    func(ctx context.Context, name, characterID string) (tokenID string, err error)
	RemoveToken func(ctx context.Context, tokenID string) error
	Chat        func(ctx context.Context, who, content string) error
	Attr        func(ctx context.Context, characterID, name string) (current, maxValue string, ok bool, err error)
}

// NewRunner creates a Runner whose scripts may execute at most instLimit
// Lua opcodes each.
//
// Precondition: roller and logger must be non-nil; instLimit >= 0, 0 uses DefaultInstructionLimit.
func NewRunner(roller *dice.Roller, logger *zap.Logger, instLimit int) *Runner {
	return &Runner{roller: roller, logger: logger, instLimit: instLimit}
}

// RunFile executes the script at path.
//
// Postcondition: Returns an error if the script fails to load, raises an
// error, or exceeds its instruction limit.
func (r *Runner) RunFile(ctx context.Context, path string) error {
	L, cancel := NewSandboxedState(r.instLimit)
	defer cancel()
	defer L.Close()

	r.RegisterModules(ctx, L)
	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("scripting: running %q: %w", path, err)
	}
	r.logger.Debug("scene script finished", zap.String("path", path))
	return nil
}

// RunString executes src; name identifies it in errors.
func (r *Runner) RunString(ctx context.Context, name, src string) error {
	L, cancel := NewSandboxedState(r.instLimit)
	defer cancel()
	defer L.Close()

	r.RegisterModules(ctx, L)
	if err := L.DoString(src); err != nil {
		return fmt.Errorf("scripting: running %q: %w", name, err)
	}
	return nil
}

// RunDir executes every *.lua file in dir in lexicographic order, each in
// its own VM.
//
// Precondition: dir must be a readable directory.
// Postcondition: Stops at and returns the first failure.
func (r *Runner) RunDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := r.RunFile(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

// RegisterModules registers the scene global into L. Host callbacks receive
// ctx.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: scene global is defined in L.
func (r *Runner) RegisterModules(ctx context.Context, L *lua.LState) {
	scene := L.NewTable()
	L.SetFuncs(scene, map[string]lua.LGFunction{
		"add_token": func(L *lua.LState) int {
			characterID := L.CheckString(1)
			name := L.OptString(2, "")
			if r.AddToken == nil {
				L.Push(lua.LNil)
				return 1
			}
			id, err := r.AddToken(ctx, name, characterID)
			if err != nil {
				L.RaiseError("scene.add_token: %s", err.Error())
				return 0
			}
			L.Push(lua.LString(id))
			return 1
		},
		"remove_token": func(L *lua.LState) int {
			tokenID := L.CheckString(1)
			if r.RemoveToken == nil {
				return 0
			}
			if err := r.RemoveToken(ctx, tokenID); err != nil {
				L.RaiseError("scene.remove_token: %s", err.Error())
			}
			return 0
		},
		"chat": func(L *lua.LState) int {
			content := L.CheckString(1)
			who := L.OptString(2, DefaultWho)
			if r.Chat == nil {
				return 0
			}
			if err := r.Chat(ctx, who, content); err != nil {
				L.RaiseError("scene.chat: %s", err.Error())
			}
			return 0
		},
		"attr": func(L *lua.LState) int {
			characterID := L.CheckString(1)
			name := L.CheckString(2)
			if r.Attr == nil {
				L.Push(lua.LNil)
				return 1
			}
			current, maxValue, ok, err := r.Attr(ctx, characterID, name)
			if err != nil {
				L.RaiseError("scene.attr: %s", err.Error())
				return 0
			}
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LString(current))
			L.Push(lua.LString(maxValue))
			return 2
		},
		"roll": func(L *lua.LState) int {
			res, err := r.roller.RollExpr(L.CheckString(1))
			if err != nil {
				L.RaiseError("scene.roll: %s", err.Error())
				return 0
			}
			L.Push(lua.LNumber(res.Total()))
			return 1
		},
		"log": func(L *lua.LState) int {
			r.logger.Info("scene script", zap.String("message", L.CheckString(1)))
			return 0
		},
	})
	L.SetGlobal("scene", scene)
}
