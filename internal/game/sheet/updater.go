package sheet

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/cory-johannsen/summonbeast/internal/game/beast"
	"github.com/cory-johannsen/summonbeast/internal/game/command"
	"github.com/cory-johannsen/summonbeast/internal/host"
)

// Action names the updater rewrites.
const (
	MaulAction        = "Maul"
	MultiattackAction = "Multiattack"
)

// Report describes what Apply wrote.
type Report struct {
	// Stats are the values derived from the command parameters.
	Stats beast.Stats
	// Written lists "<attribute>.<field>" for every value set, in write order.
	Written []string
	// Missing lists expected attributes the sheet did not have.
	Missing []string
}

// Updater rewrites a Bestial Spirit sheet from summon parameters.
type Updater struct {
	store  host.Store
	logger *zap.Logger
}

// NewUpdater creates an Updater reading and writing through store.
//
// Precondition: store and logger must be non-nil.
func NewUpdater(store host.Store, logger *zap.Logger) *Updater {
	return &Updater{store: store, logger: logger}
}

// Apply derives the spirit's statistics from params and writes them onto
// characterID's sheet. Attributes the sheet lacks are logged and skipped;
// rows other than Maul and Multiattack are left alone.
//
// Precondition: params must come from a successful command parse.
// Postcondition: Returns a Report, or an error if the store fails.
func (u *Updater) Apply(ctx context.Context, characterID string, params command.SummonParams) (Report, error) {
	stats := beast.Derive(params.Category, params.SpellLevel, params.SpellAttackBonus)
	rep := Report{Stats: stats}

	attrs, err := u.store.Attributes(ctx, characterID)
	if err != nil {
		return rep, fmt.Errorf("reading attributes of %q: %w", characterID, err)
	}

	w := &writer{ctx: ctx, rep: &rep}
	seen := make(map[string]bool, 4)
	for _, a := range attrs {
		switch a.Name() {
		case AttrName:
			w.set(a, host.FieldCurrent, stats.DisplayName())
		case AttrAC:
			w.set(a, host.FieldCurrent, strconv.Itoa(stats.ArmorClass))
		case AttrHP:
			w.set(a, host.FieldMax, strconv.Itoa(stats.HitPoints))
			w.set(a, host.FieldCurrent, strconv.Itoa(stats.HitPoints))
		case AttrSpeed:
			w.set(a, host.FieldCurrent, stats.Speed)
		default:
			continue
		}
		seen[a.Name()] = true
	}
	for _, name := range []string{AttrName, AttrAC, AttrHP, AttrSpeed} {
		if !seen[name] {
			rep.Missing = append(rep.Missing, name)
		}
	}

	for _, row := range BuildRows(attrs) {
		switch r := row.(type) {
		case AttackRow:
			if r.Name() != MaulAction {
				continue
			}
			w.setField(r.ActionRow, "attack_damage", stats.DamageFormula)
			w.setField(r.ActionRow, "attack_tohit", strconv.Itoa(stats.AttackBonus))
		case PlainRow:
			if r.Name() != MultiattackAction {
				continue
			}
			w.setField(r.ActionRow, "description", stats.Multiattack)
		}
	}

	if w.err != nil {
		return rep, fmt.Errorf("writing sheet %q: %w", characterID, w.err)
	}

	for _, m := range rep.Missing {
		u.logger.Warn("sheet attribute missing",
			zap.String("character_id", characterID),
			zap.String("attribute", m),
		)
	}
	u.logger.Debug("sheet updated",
		zap.String("character_id", characterID),
		zap.String("category", stats.Category.String()),
		zap.Int("armor_class", stats.ArmorClass),
		zap.Int("hit_points", stats.HitPoints),
		zap.Int("writes", len(rep.Written)),
	)
	return rep, nil
}

// writer applies sets until the first failure.
type writer struct {
	ctx context.Context
	rep *Report
	err error
}

func (w *writer) set(a host.Attribute, field host.Field, value string) {
	if w.err != nil {
		return
	}
	if err := a.Set(w.ctx, field, value); err != nil {
		w.err = fmt.Errorf("setting %s.%s: %w", a.Name(), field, err)
		return
	}
	w.rep.Written = append(w.rep.Written, a.Name()+"."+string(field))
}

func (w *writer) setField(row ActionRow, field, value string) {
	a, ok := row.Field(field)
	if !ok {
		w.rep.Missing = append(w.rep.Missing, ActionPrefix+row.ID+"_"+field)
		return
	}
	w.set(a, host.FieldCurrent, value)
}
