package beast

import (
	"fmt"
	"strconv"

	"github.com/cory-johannsen/summonbeast/internal/game/dice"
)

// Spell level bounds. Summon Beast needs at least a 2nd-level slot and
// slots stop at 9th.
const (
	MinSpellLevel = 2
	MaxSpellLevel = 9
)

// DisplayNamePrefix is the base name of the summoned creature's sheet.
const DisplayNamePrefix = "Bestial Spirit"

// Stats are the derived values written onto the Bestial Spirit sheet.
// A Stats value is never mutated after Derive returns it.
type Stats struct {
	Category      Category
	ArmorClass    int
	HitPoints     int
	Speed         string
	Attacks       int
	Multiattack   string
	AttackBonus   int
	DamageFormula string
}

// ClampSpellLevel bounds level to [MinSpellLevel, MaxSpellLevel].
func ClampSpellLevel(level int) int {
	return min(max(level, MinSpellLevel), MaxSpellLevel)
}

// Derive computes the spirit's statistics. Unrecognised categories fall
// back to Land and the spell level is clamped, so Derive never fails.
//
// Postcondition: ArmorClass == 11 + ClampSpellLevel(spellLevel);
// AttackBonus == spellAttackBonus.
func Derive(category string, spellLevel, spellAttackBonus int) Stats {
	cat := ParseCategory(category)
	level := ClampSpellLevel(spellLevel)
	attacks := level / 2

	return Stats{
		Category:      cat,
		ArmorClass:    11 + level,
		HitPoints:     baseHitPoints(cat) + 5*level,
		Speed:         "30 ft.; " + extraSpeed(cat),
		Attacks:       attacks,
		Multiattack:   multiattack(attacks),
		AttackBonus:   spellAttackBonus,
		DamageFormula: "1d8+" + strconv.Itoa(4+level),
	}
}

func baseHitPoints(c Category) int {
	switch c {
	case Air:
		return 20
	case Land, Water:
		return 30
	}
	panic(fmt.Sprintf("beast: unknown category %d", int(c)))
}

func extraSpeed(c Category) string {
	switch c {
	case Air:
		return "fly 60 ft."
	case Water:
		return "swim 30 ft."
	case Land:
		return "climb 30 ft."
	}
	panic(fmt.Sprintf("beast: unknown category %d", int(c)))
}

func multiattack(attacks int) string {
	if attacks == 1 {
		return "The beast makes 1 attack."
	}
	return fmt.Sprintf("The beast makes %d attacks.", attacks)
}

// DisplayName is the sheet name embedding the resolved category,
// e.g. "Bestial Spirit (air)".
func (s Stats) DisplayName() string {
	return fmt.Sprintf("%s (%s)", DisplayNamePrefix, s.Category)
}

// Damage returns the Maul damage formula as a parsed dice expression.
func (s Stats) Damage() dice.Expression {
	return dice.MustParse(s.DamageFormula)
}
