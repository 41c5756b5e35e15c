// Package beast computes the spell-level-dependent statistics of the Bestial
// Spirit conjured by the Summon Beast spell.
package beast

import (
	"strings"

	"golang.org/x/text/cases"
)

// Category is the environment the spirit is summoned for.
type Category int

// Land is the zero value so that an unrecognised word falls back to it.
const (
	Land Category = iota
	Air
	Water
)

var categoryNames = [...]string{
	Land:  "land",
	Air:   "air",
	Water: "water",
}

// String returns the lowercase category word written onto the sheet.
func (c Category) String() string {
	if c < Land || c > Water {
		return categoryNames[Land]
	}
	return categoryNames[c]
}

// synonyms maps every accepted (case-folded) word to its category.
var synonyms = map[string]Category{
	"land": Land, "earth": Land, "ground": Land, "walking": Land, "walker": Land,
	"air": Air, "sky": Air, "wind": Air, "airborne": Air, "flying": Air, "flyer": Air,
	"water": Water, "ocean": Water, "sea": Water, "aquatic": Water, "swimming": Water, "swimmer": Water,
}

// ParseCategory resolves a player-supplied word to a Category.
// Matching ignores case; unrecognised words resolve to Land.
//
// Postcondition: Always returns one of Land, Air, Water.
func ParseCategory(word string) Category {
	folded := cases.Fold().String(strings.TrimSpace(word))
	if c, ok := synonyms[folded]; ok {
		return c
	}
	return Land
}

// IsKnownCategory reports whether word is one of the recognised synonyms.
func IsKnownCategory(word string) bool {
	_, ok := synonyms[cases.Fold().String(strings.TrimSpace(word))]
	return ok
}
