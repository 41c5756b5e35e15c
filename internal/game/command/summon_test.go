package command

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func apiEvent(content string) Event {
	return Event{Type: EventTypeAPI, Content: content}
}

func requireParseError(t *testing.T, err error, code ErrorCode) *ParseError {
	t.Helper()
	require.Error(t, err)
	pe, ok := AsParseError(err)
	require.True(t, ok, "expected *ParseError, got %T", err)
	assert.Equal(t, code, pe.Code)
	return pe
}

func TestSummonParser_Valid(t *testing.T) {
	p := NewSummonParser(DefaultRegistry())

	params, err := p.Parse(apiEvent("!summon-beast air 4 5"), true)
	require.NoError(t, err)
	assert.Equal(t, &SummonParams{Category: "air", SpellLevel: 4, SpellAttackBonus: 5}, params)
}

func TestSummonParser_KeepsRawCategory(t *testing.T) {
	p := NewSummonParser(DefaultRegistry())

	params, err := p.Parse(apiEvent("!summon-beast Lava 12 -1"), true)
	require.NoError(t, err)
	assert.Equal(t, "Lava", params.Category)
	assert.Equal(t, 12, params.SpellLevel)
	assert.Equal(t, -1, params.SpellAttackBonus)
}

func TestSummonParser_LegacyTrigger(t *testing.T) {
	p := NewSummonParser(DefaultRegistry())

	params, err := p.Parse(apiEvent("!summon_beast water 2 3"), true)
	require.NoError(t, err)
	require.NotNil(t, params)
	assert.Equal(t, "water", params.Category)
}

func TestSummonParser_IgnoresTriggerInOtherCase(t *testing.T) {
	p := NewSummonParser(DefaultRegistry())

	for _, line := range []string{"!SUMMON-BEAST air 4 5", "!Summon-Beast air 4 5"} {
		params, err := p.Parse(apiEvent(line), true)
		assert.NoError(t, err, line)
		assert.Nil(t, params, line)
	}
}

func TestSummonParser_IgnoresNonAPIEvents(t *testing.T) {
	p := NewSummonParser(DefaultRegistry())

	params, err := p.Parse(Event{Type: "general", Content: "!summon-beast air 4 5"}, true)
	assert.NoError(t, err)
	assert.Nil(t, params)
}

func TestSummonParser_IgnoresOtherCommands(t *testing.T) {
	p := NewSummonParser(DefaultRegistry())

	for _, content := range []string{"!roll 1d20", "", "hello", "!summon-beastly air 4 5"} {
		params, err := p.Parse(apiEvent(content), false)
		assert.NoError(t, err, "content %q", content)
		assert.Nil(t, params, "content %q", content)
	}
}

func TestSummonParser_HelpIsNotASummon(t *testing.T) {
	p := NewSummonParser(DefaultRegistry())

	params, err := p.Parse(apiEvent("!summon-beast-help"), false)
	assert.NoError(t, err)
	assert.Nil(t, params)

	cmd, _, ok := p.Match(apiEvent("!summon-beast-help"))
	require.True(t, ok)
	assert.Equal(t, HandlerSummonHelp, cmd.Handler)
}

func TestSummonParser_BadSpellLevel(t *testing.T) {
	p := NewSummonParser(DefaultRegistry())

	_, err := p.Parse(apiEvent("!summon-beast land abc 3"), true)
	pe := requireParseError(t, err, BadArgument)
	require.Len(t, pe.Details, 1)
	assert.Equal(t, 2, pe.Details[0].Position)
	assert.Equal(t, "spell level", pe.Details[0].Argument)
	assert.Equal(t, "abc", pe.Details[0].Value)
	assert.Equal(t, "Issue with second argument (spell level): abc", pe.Details[0].Heading())
}

func TestSummonParser_TooFewArgs(t *testing.T) {
	p := NewSummonParser(DefaultRegistry())

	_, err := p.Parse(apiEvent("!summon-beast land 3"), true)
	pe := requireParseError(t, err, TooFewArgs)
	require.Len(t, pe.Details, 1)
	assert.Contains(t, pe.Details[0].Message, UsageIntro)
	assert.Equal(t, "Not enough arguments provided!", pe.Code.Title())
}

func TestSummonParser_NoArgs(t *testing.T) {
	p := NewSummonParser(DefaultRegistry())

	_, err := p.Parse(apiEvent("!summon-beast"), true)
	requireParseError(t, err, TooFewArgs)
}

func TestSummonParser_TooManyArgs(t *testing.T) {
	p := NewSummonParser(DefaultRegistry())

	_, err := p.Parse(apiEvent("!summon-beast land 3 4 5"), true)
	pe := requireParseError(t, err, TooManyArgs)
	assert.Equal(t, "Too many arguments provided!", pe.Code.Title())
}

func TestSummonParser_NoTarget(t *testing.T) {
	p := NewSummonParser(DefaultRegistry())

	for _, content := range []string{
		"!summon-beast air 4 5",
		"!summon-beast",
		"!summon-beast 1 x y",
		"!summon-beast a b c d e",
	} {
		_, err := p.Parse(apiEvent(content), false)
		requireParseError(t, err, NoTarget)
	}
}

func TestValidateSummon_AllArgumentsBad(t *testing.T) {
	_, err := ValidateSummon([]string{"7", "x", "y"}, true)
	pe := requireParseError(t, err, BadArgument)
	require.Len(t, pe.Details, 3)
	assert.Equal(t, 1, pe.Details[0].Position)
	assert.Equal(t, 2, pe.Details[1].Position)
	assert.Equal(t, 3, pe.Details[2].Position)
	assert.Contains(t, pe.Error(), "Issue with first argument (beast type): 7")
}

func TestValidateSummon_NumericCategoryForms(t *testing.T) {
	for _, cat := range []string{"3", "-2.5", "1e3", ".5", "5.", "Infinity", "-Infinity", "1e400", "0x10", "0o7", "0b11", "0xffffffffffffffffff"} {
		_, err := ValidateSummon([]string{cat, "4", "5"}, true)
		pe := requireParseError(t, err, BadArgument)
		assert.Equal(t, 1, pe.Details[0].Position, "category %q", cat)
	}
}

func TestValidateSummon_NonNumbersAreWords(t *testing.T) {
	for _, cat := range []string{"NaN", "nan", "inf", "Inf", "infinity", "INFINITY", "0x1p4", "1_000", "0x", "-0x10", "0xg"} {
		params, err := ValidateSummon([]string{cat, "4", "5"}, true)
		require.NoError(t, err, "category %q", cat)
		assert.Equal(t, cat, params.Category)
	}
}

func TestValidateSummon_IntegerForms(t *testing.T) {
	cases := map[string]int{
		"4":                4,
		"+4":               4,
		"-3":               -3,
		"4.0":              4,
		"1e1":              10,
		"9007199254740991": 9007199254740991,
		"0x10":             16,
		"0X1f":             31,
		"0o7":              7,
		"0b11":             3,
		".5e1":             5,
		"04":               4,
	}
	for in, want := range cases {
		params, err := ValidateSummon([]string{"air", in, in}, true)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, params.SpellLevel, "input %q", in)
		assert.Equal(t, want, params.SpellAttackBonus, "input %q", in)
	}
}

func TestValidateSummon_RejectsNonSafeIntegers(t *testing.T) {
	for _, in := range []string{"4.5", "abc", "NaN", "Infinity", "9007199254740993", "1e400", "four",
		"0x1p4", "-0x10", "+0b11", "0x20000000000000", "0xffffffffffffffffff", "inf", "1_000", "0o8"} {
		_, err := ValidateSummon([]string{"air", in, "5"}, true)
		pe := requireParseError(t, err, BadArgument)
		require.Len(t, pe.Details, 1, "input %q", in)
		assert.Equal(t, 2, pe.Details[0].Position, "input %q", in)
	}
}

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "no_target", NoTarget.String())
	assert.Equal(t, "bad_argument", BadArgument.String())
	assert.Equal(t, "error_code(99)", ErrorCode(99).String())
	assert.Equal(t, "Token for Bestial Spirit not present", NoTarget.Title())
	assert.Equal(t, "Arguments entered incorrectly!", BadArgument.Title())
}

func TestAsParseError_Wrapped(t *testing.T) {
	inner := &ParseError{Code: TooManyArgs}
	pe, ok := AsParseError(fmt.Errorf("handling chat: %w", inner))
	require.True(t, ok)
	assert.Same(t, inner, pe)

	_, ok = AsParseError(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestPropertyParseIsIdempotent(t *testing.T) {
	p := NewSummonParser(DefaultRegistry())
	rapid.Check(t, func(rt *rapid.T) {
		cat := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "category")
		level := rapid.IntRange(-100, 100).Draw(rt, "level")
		sab := rapid.IntRange(-100, 100).Draw(rt, "sab")
		content := fmt.Sprintf("!summon-beast %s %d %d", cat, level, sab)

		a, errA := p.Parse(apiEvent(content), true)
		b, errB := p.Parse(apiEvent(content), true)
		require.NoError(rt, errA)
		require.NoError(rt, errB)
		assert.Equal(rt, a, b)
		assert.Equal(rt, level, a.SpellLevel)
		assert.Equal(rt, sab, a.SpellAttackBonus)
	})
}

func TestPropertyAllBadArgumentsReportThreeDetails(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cat := fmt.Sprint(rapid.IntRange(-1000, 1000).Draw(rt, "numericCategory"))
		level := rapid.StringMatching(`[a-z]{1,8}`).Draw(rt, "level")
		sab := rapid.StringMatching(`[a-z]{1,8}`).Draw(rt, "sab")
		if level == "inf" || level == "infinity" || level == "nan" || sab == "inf" || sab == "infinity" || sab == "nan" {
			return
		}

		_, err := ValidateSummon([]string{cat, level, sab}, true)
		pe, ok := AsParseError(err)
		require.True(rt, ok)
		assert.Equal(rt, BadArgument, pe.Code)
		assert.Len(rt, pe.Details, 3)
	})
}

func TestPropertyArgumentCountErrors(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		args := rapid.SliceOfN(rapid.StringMatching(`[a-z0-9]{1,5}`), 0, 8).Draw(rt, "args")
		_, err := ValidateSummon(args, true)
		switch {
		case len(args) < SummonArgCount:
			pe, ok := AsParseError(err)
			require.True(rt, ok)
			assert.Equal(rt, TooFewArgs, pe.Code)
		case len(args) > SummonArgCount:
			pe, ok := AsParseError(err)
			require.True(rt, ok)
			assert.Equal(rt, TooManyArgs, pe.Code)
		}
	})
}

func TestProperty_RadixLiteralsReadAsIntegers(t *testing.T) {
	prefixes := map[string]int{"0x": 16, "0o": 8, "0b": 2}
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 1<<20).Draw(rt, "n")
		prefix := rapid.SampledFrom([]string{"0x", "0o", "0b"}).Draw(rt, "prefix")
		lit := prefix + strconv.FormatInt(int64(n), prefixes[prefix])

		params, err := ValidateSummon([]string{"air", lit, lit}, true)
		if err != nil {
			rt.Fatalf("%q rejected: %v", lit, err)
		}
		if params.SpellLevel != n || params.SpellAttackBonus != n {
			rt.Fatalf("%q read as %d/%d, want %d", lit, params.SpellLevel, params.SpellAttackBonus, n)
		}
		if _, err := ValidateSummon([]string{lit, "4", "5"}, true); err == nil {
			rt.Fatalf("%q accepted as a beast type", lit)
		}
	})
}
