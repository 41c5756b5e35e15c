package command

import "strings"

// ParseResult holds the command word and arguments of a chat line.
type ParseResult struct {
	// Command is the first word of the input, as typed.
	Command string
	// Args are the remaining whitespace-separated words.
	Args []string
}

// Parse splits a chat line into a command word and arguments. Any run of
// whitespace separates arguments.
//
// Postcondition: Returns a ParseResult. If line is blank, Command is empty
// and Args is nil.
func Parse(line string) ParseResult {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ParseResult{}
	}

	res := ParseResult{Command: fields[0]}
	if len(fields) > 1 {
		res.Args = fields[1:]
	}
	return res
}
