// Package command provides the chat-command registry, the line parser, and
// validation of the summon-beast command arguments.
package command

// Default chat trigger and its alternate spelling.
const (
	DefaultTrigger = "!summon-beast"
	LegacyTrigger  = "!summon_beast"
)

// Handler identifiers.
const (
	HandlerSummonBeast = "summon_beast"
	HandlerSummonHelp  = "summon_help"
)

// Command defines a chat command the handler responds to.
type Command struct {
	// Name is the canonical trigger, including its leading "!".
	Name string
	// Aliases are alternate triggers for this command.
	Aliases []string
	// Usage is the argument synopsis shown in help output.
	Usage string
	// Help is the short help text.
	Help string
	// Handler identifies the code path that serves the command.
	Handler string
}

// BuiltinCommands returns the summon command registered under trigger plus
// its help companion "<trigger>-help".
//
// Precondition: trigger must be non-empty and start with "!".
func BuiltinCommands(trigger string, aliases []string) []Command {
	return []Command{
		{
			Name:    trigger,
			Aliases: aliases,
			Usage:   "<beast type> <spell level> <spell attack bonus>",
			Help:    "Set the Bestial Spirit sheet for the level Summon Beast was cast at",
			Handler: HandlerSummonBeast,
		},
		{
			Name:    trigger + "-help",
			Usage:   "",
			Help:    "Show summon beast usage",
			Handler: HandlerSummonHelp,
		},
	}
}
