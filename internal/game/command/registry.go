package command

import (
	"fmt"
	"sort"
)

// Registry maps triggers and aliases to Command definitions. Lookups match
// the trigger exactly, case included.
type Registry struct {
	commands map[string]*Command // canonical trigger → command
	aliases  map[string]string   // alias → canonical trigger
}

// NewRegistry creates a Registry populated with the given commands.
//
// Precondition: No two commands may share a trigger or alias.
// Postcondition: Returns a Registry or an error on name/alias collisions.
func NewRegistry(cmds []Command) (*Registry, error) {
	r := &Registry{
		commands: make(map[string]*Command, len(cmds)),
		aliases:  make(map[string]string),
	}

	for i := range cmds {
		cmd := &cmds[i]
		name := cmd.Name
		if name == "" {
			return nil, fmt.Errorf("command %d has an empty trigger", i)
		}
		if _, exists := r.commands[name]; exists {
			return nil, fmt.Errorf("duplicate command trigger: %q", cmd.Name)
		}
		if owner, exists := r.aliases[name]; exists {
			return nil, fmt.Errorf("command trigger %q conflicts with an alias of %q", cmd.Name, owner)
		}
		r.commands[name] = cmd

		for _, alias := range cmd.Aliases {
			if _, exists := r.commands[alias]; exists {
				return nil, fmt.Errorf("alias %q conflicts with a command trigger", alias)
			}
			if owner, exists := r.aliases[alias]; exists {
				return nil, fmt.Errorf("duplicate alias %q: used by %q and %q", alias, owner, cmd.Name)
			}
			r.aliases[alias] = name
		}
	}

	return r, nil
}

// DefaultRegistry creates a Registry with the default trigger and the
// legacy underscore spelling as an alias.
//
// Postcondition: Returns a non-nil Registry.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinCommands(DefaultTrigger, []string{LegacyTrigger}))
	if err != nil {
		panic(fmt.Sprintf("building default registry: %v", err))
	}
	return r
}

// Resolve looks up a command by trigger or alias.
//
// Postcondition: Returns (command, true) if found, or (nil, false).
func (r *Registry) Resolve(trigger string) (*Command, bool) {
	if cmd, ok := r.commands[trigger]; ok {
		return cmd, true
	}
	if canonical, ok := r.aliases[trigger]; ok {
		return r.commands[canonical], true
	}
	return nil, false
}

// Commands returns all registered commands sorted by trigger.
func (r *Registry) Commands() []*Command {
	result := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		result = append(result, cmd)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}
