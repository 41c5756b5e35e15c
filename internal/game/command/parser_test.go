package command

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestParse_Empty(t *testing.T) {
	result := Parse("")
	assert.Equal(t, "", result.Command)
	assert.Nil(t, result.Args)
}

func TestParse_Blank(t *testing.T) {
	result := Parse(" \t ")
	assert.Equal(t, "", result.Command)
	assert.Nil(t, result.Args)
}

func TestParse_SingleWord(t *testing.T) {
	result := Parse("!summon-beast")
	assert.Equal(t, "!summon-beast", result.Command)
	assert.Nil(t, result.Args)
}

func TestParse_KeepsCase(t *testing.T) {
	result := Parse("!SUMMON-BEAST Air 4 5")
	assert.Equal(t, "!SUMMON-BEAST", result.Command)
	assert.Equal(t, []string{"Air", "4", "5"}, result.Args)
}

func TestParse_ExtraWhitespace(t *testing.T) {
	result := Parse("  !summon-beast   air\t4  5  ")
	assert.Equal(t, "!summon-beast", result.Command)
	assert.Equal(t, []string{"air", "4", "5"}, result.Args)
}

func TestPropertyParseCommandIsFirstWordVerbatim(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		word := rapid.StringMatching(`![A-Za-z_-]{1,20}`).Draw(t, "word")
		result := Parse(word + " air 4 5")
		if result.Command != word {
			t.Fatalf("command %q, want %q", result.Command, word)
		}
	})
}

func TestPropertyParseArgsHaveNoWhitespace(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		words := rapid.SliceOfN(rapid.StringMatching(`[a-z0-9]{1,6}`), 1, 6).Draw(t, "words")
		sep := rapid.SampledFrom([]string{" ", "  ", "\t", " \t "}).Draw(t, "sep")
		result := Parse(strings.Join(words, sep))
		if result.Command != words[0] {
			t.Fatalf("command %q, want %q", result.Command, words[0])
		}
		if len(result.Args) != len(words)-1 {
			t.Fatalf("got %d args, want %d", len(result.Args), len(words)-1)
		}
	})
}
