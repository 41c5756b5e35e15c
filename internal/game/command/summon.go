package command

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// EventTypeAPI marks chat messages the host routes to script commands.
const EventTypeAPI = "api"

// SummonArgCount is the number of arguments the summon command takes.
const SummonArgCount = 3

// maxSafeInteger is the largest integer a float64 represents exactly.
const maxSafeInteger = 1<<53 - 1

// Event is an inbound chat notification from the host.
type Event struct {
	// Type is the host message type; only EventTypeAPI messages are commands.
	Type string
	// Content is the raw message text, trigger included.
	Content string
	// Who is the display name of the sender, if the host provides one.
	Who string
}

// ErrorCode classifies a rejected summon command.
type ErrorCode int

const (
	// NoTarget means no Bestial Spirit token is on the map.
	NoTarget ErrorCode = iota + 1
	// TooFewArgs means fewer than SummonArgCount arguments were given.
	TooFewArgs
	// TooManyArgs means more than SummonArgCount arguments were given.
	TooManyArgs
	// BadArgument means one or more arguments failed validation.
	BadArgument
)

// String returns the code's identifier.
func (c ErrorCode) String() string {
	switch c {
	case NoTarget:
		return "no_target"
	case TooFewArgs:
		return "too_few_args"
	case TooManyArgs:
		return "too_many_args"
	case BadArgument:
		return "bad_argument"
	default:
		return fmt.Sprintf("error_code(%d)", int(c))
	}
}

// Title is the headline shown to the player for the code.
func (c ErrorCode) Title() string {
	switch c {
	case NoTarget:
		return "Token for Bestial Spirit not present"
	case TooFewArgs:
		return "Not enough arguments provided!"
	case TooManyArgs:
		return "Too many arguments provided!"
	case BadArgument:
		return "Arguments entered incorrectly!"
	default:
		return "Unknown error"
	}
}

// Detail is one message attached to a ParseError.
type Detail struct {
	// Position is the 1-based argument position, or 0 for command-level details.
	Position int
	// Argument names the argument ("beast type", "spell level", ...).
	Argument string
	// Value is the rejected input.
	Value string
	// Message explains what the argument must be.
	Message string
}

// Heading summarises the detail, e.g.
// "Issue with second argument (spell level): abc".
func (d Detail) Heading() string {
	if d.Position == 0 {
		return ""
	}
	return fmt.Sprintf("Issue with %s argument (%s): %s", ordinal(d.Position), d.Argument, d.Value)
}

// ParseError reports why a summon command was rejected. Details hold one
// entry per violated argument, in argument order.
type ParseError struct {
	Code    ErrorCode
	Details []Detail
}

func (e *ParseError) Error() string {
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		if h := d.Heading(); h != "" {
			parts = append(parts, h)
		} else {
			parts = append(parts, d.Message)
		}
	}
	if len(parts) == 0 {
		return "summon beast: " + e.Code.String()
	}
	return fmt.Sprintf("summon beast: %s: %s", e.Code, strings.Join(parts, "; "))
}

// AsParseError unwraps err to a *ParseError.
func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// UsageIntro opens the usage text shared by the argument-count errors and
// the help command.
const UsageIntro = "The summon beast API takes in 3 arguments:"

const (
	noTargetMessage = "A token representing a Bestial Spirit must be present on the map. " +
		"Make sure the token references the Bestial Spirit character sheet."
	beastTypeMessage = `This argument must be a word ("land", "air", "water") describing the type of beast being summoned. ` +
		`If the provided word cannot be interpreted, the beast type will default to "land".`
	spellLevelMessage  = "This argument must be a number describing the level the Summon Beast spell was cast at."
	attackBonusMessage = "This argument must be a number describing the spell attack bonus of the caster of the Summon Beast spell."
)

// UsageArguments lists the summon command's arguments in order.
var UsageArguments = []string{
	`beast type ("land", "air", "water")`,
	"spell level",
	"spell attack bonus",
}

// SummonParams are the validated arguments of a summon command. The beast
// type is kept raw; resolving it to a category is left to the stat formulas.
type SummonParams struct {
	Category         string
	SpellLevel       int
	SpellAttackBonus int
}

// SummonParser recognises summon commands in chat events.
type SummonParser struct {
	registry *Registry
}

// NewSummonParser creates a SummonParser resolving triggers through reg.
//
// Precondition: reg must be non-nil.
func NewSummonParser(reg *Registry) *SummonParser {
	return &SummonParser{registry: reg}
}

// Match resolves evt to a registered command.
//
// Postcondition: Returns (cmd, args, true) when evt is an api-type message
// whose first word is a registered trigger; otherwise (nil, nil, false).
func (p *SummonParser) Match(evt Event) (*Command, []string, bool) {
	if evt.Type != EventTypeAPI {
		return nil, nil, false
	}
	line := Parse(evt.Content)
	if line.Command == "" {
		return nil, nil, false
	}
	cmd, ok := p.registry.Resolve(line.Command)
	if !ok {
		return nil, nil, false
	}
	return cmd, line.Args, true
}

// Parse turns a chat event into validated summon parameters.
//
// Postcondition: Returns (nil, nil) when evt is not a summon command;
// (params, nil) on success; (nil, *ParseError) otherwise.
func (p *SummonParser) Parse(evt Event, targetActive bool) (*SummonParams, error) {
	cmd, args, ok := p.Match(evt)
	if !ok || cmd.Handler != HandlerSummonBeast {
		return nil, nil
	}
	return ValidateSummon(args, targetActive)
}

// ValidateSummon checks the summon command arguments. All three arguments
// are checked so that every problem is reported at once.
//
// Postcondition: Returns params on success or a *ParseError.
func ValidateSummon(args []string, targetActive bool) (*SummonParams, error) {
	if !targetActive {
		return nil, NoTargetError()
	}

	switch {
	case len(args) < SummonArgCount:
		return nil, &ParseError{Code: TooFewArgs, Details: []Detail{{Message: usageMessage()}}}
	case len(args) > SummonArgCount:
		return nil, &ParseError{Code: TooManyArgs, Details: []Detail{{Message: usageMessage()}}}
	}

	var details []Detail
	if isNumeric(args[0]) {
		details = append(details, Detail{Position: 1, Argument: "beast type", Value: args[0], Message: beastTypeMessage})
	}
	level, ok := parseSafeInteger(args[1])
	if !ok {
		details = append(details, Detail{Position: 2, Argument: "spell level", Value: args[1], Message: spellLevelMessage})
	}
	bonus, ok := parseSafeInteger(args[2])
	if !ok {
		details = append(details, Detail{Position: 3, Argument: "spell attack bonus", Value: args[2], Message: attackBonusMessage})
	}
	if len(details) > 0 {
		return nil, &ParseError{Code: BadArgument, Details: details}
	}

	return &SummonParams{
		Category:         args[0],
		SpellLevel:       level,
		SpellAttackBonus: bonus,
	}, nil
}

// NoTargetError is the error reported when no Bestial Spirit sheet is active.
func NoTargetError() *ParseError {
	return &ParseError{Code: NoTarget, Details: []Detail{{Message: noTargetMessage}}}
}

func usageMessage() string {
	return UsageIntro + " " + strings.Join(UsageArguments, ", ")
}

// decimalNumber is the decimal literal grammar of a chat argument: an
// optional sign, digits with an optional fraction, an optional exponent.
var decimalNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// radixPrefixes are the unsigned integer prefixes a number may carry.
var radixPrefixes = map[string]int{"0x": 16, "0X": 16, "0o": 8, "0O": 8, "0b": 2, "0B": 2}

// numberValue reads s the way the tabletop's scripting host coerces a chat
// argument to a number. Accepted: decimal literals with optional exponent,
// "Infinity" with an optional sign, and unsigned 0x, 0o and 0b integers.
// Hex floats, digit separators and spellings such as "inf" or "nan" are
// not numbers. Decimal overflow reads as an infinity.
//
// Postcondition: ok is false or v is not NaN.
func numberValue(s string) (v float64, ok bool) {
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	if len(s) > 2 {
		if base, found := radixPrefixes[s[:2]]; found {
			return radixValue(s[2:], base)
		}
	}
	if !decimalNumber.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return v, true
}

// radixValue converts the digits after a base prefix. Values past uint64
// are still numbers, just not safe integers.
func radixValue(digits string, base int) (float64, bool) {
	u, err := strconv.ParseUint(digits, base, 64)
	if err == nil {
		return float64(u), true
	}
	if !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return math.Inf(1), true
}

// isNumeric reports whether s reads as a number.
func isNumeric(s string) bool {
	_, ok := numberValue(s)
	return ok
}

// parseSafeInteger accepts a number whose value is an integer of magnitude
// at most 2^53-1, so "4", "4.0", "+4" and "0x4" are all level 4.
func parseSafeInteger(s string) (int, bool) {
	v, ok := numberValue(s)
	if !ok || math.IsInf(v, 0) {
		return 0, false
	}
	if v != math.Trunc(v) || math.Abs(v) > maxSafeInteger {
		return 0, false
	}
	return int(v), true
}

func ordinal(n int) string {
	switch n {
	case 1:
		return "first"
	case 2:
		return "second"
	case 3:
		return "third"
	default:
		return strconv.Itoa(n) + "th"
	}
}
