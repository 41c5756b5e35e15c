// Package sheet writes derived Bestial Spirit statistics onto an NPC
// character sheet held by the host.
package sheet

import (
	"strings"

	"github.com/cory-johannsen/summonbeast/internal/host"
)

// Scalar attribute names on the NPC sheet.
const (
	AttrName  = "npc_name"
	AttrAC    = "npc_ac"
	AttrHP    = "hp"
	AttrSpeed = "npc_speed"
)

// ActionPrefix starts the name of every NPC action-row attribute:
// "repeating_npcaction_<rowId>_<field>".
const ActionPrefix = "repeating_npcaction_"

// FieldKind classifies an action-row field.
type FieldKind int

const (
	FieldOther FieldKind = iota
	FieldName
	FieldDescription
	FieldAttackToHit
	FieldAttackDamage
	FieldAttackDamageType
	FieldAttackRange
	FieldAttackTarget
)

// knownFields maps field names to kinds. Names not listed decode to FieldOther.
var knownFields = map[string]FieldKind{
	"name":              FieldName,
	"description":       FieldDescription,
	"attack_tohit":      FieldAttackToHit,
	"attack_damage":     FieldAttackDamage,
	"attack_damagetype": FieldAttackDamageType,
	"attack_range":      FieldAttackRange,
	"attack_target":     FieldAttackTarget,
}

// IsAttack reports whether the field only exists on attack rows.
func (k FieldKind) IsAttack() bool {
	switch k {
	case FieldAttackToHit, FieldAttackDamage, FieldAttackDamageType, FieldAttackRange, FieldAttackTarget:
		return true
	default:
		return false
	}
}

// ActionField is a decoded action-row attribute name.
type ActionField struct {
	RowID string
	Field string
	Kind  FieldKind
}

// DecodeActionField splits "repeating_npcaction_<rowId>_<field>" into its
// row id and field name. Known field names are matched as suffixes first so
// that row ids containing underscores still decode; otherwise the row id
// ends at the first underscore.
//
// Postcondition: ok is false iff name lacks the prefix or the "_" separator.
func DecodeActionField(name string) (ActionField, bool) {
	rest, ok := strings.CutPrefix(name, ActionPrefix)
	if !ok {
		return ActionField{}, false
	}

	best := ""
	for field := range knownFields {
		if len(field) > len(best) && strings.HasSuffix(rest, "_"+field) && len(rest) > len(field)+1 {
			best = field
		}
	}
	if best != "" {
		return ActionField{
			RowID: rest[:len(rest)-len(best)-1],
			Field: best,
			Kind:  knownFields[best],
		}, true
	}

	rowID, field, ok := strings.Cut(rest, "_")
	if !ok {
		return ActionField{}, false
	}
	return ActionField{RowID: rowID, Field: field, Kind: knownFields[field]}, true
}

// ActionRow is the set of attributes sharing one row id.
type ActionRow struct {
	ID     string
	Fields map[string]host.Attribute
}

// Name returns the row's display name, or "" when it has none.
func (r ActionRow) Name() string {
	if a, ok := r.Fields["name"]; ok {
		return a.Get(host.FieldCurrent)
	}
	return ""
}

// Field returns the attribute holding field.
func (r ActionRow) Field(field string) (host.Attribute, bool) {
	a, ok := r.Fields[field]
	return a, ok
}

// Row is either an AttackRow or a PlainRow.
type Row interface {
	Action() ActionRow
}

// AttackRow is an action row carrying to-hit or damage fields.
type AttackRow struct{ ActionRow }

// PlainRow is an action row without attack fields.
type PlainRow struct{ ActionRow }

// Action implements Row.
func (r AttackRow) Action() ActionRow { return r.ActionRow }

// Action implements Row.
func (r PlainRow) Action() ActionRow { return r.ActionRow }

// BuildRows groups action-row attributes by row id and classifies each row.
// Attributes that are not action-row fields are skipped.
//
// Postcondition: Rows are returned in order of their first attribute.
func BuildRows(attrs []host.Attribute) []Row {
	type pending struct {
		row    ActionRow
		attack bool
	}
	var order []string
	byID := make(map[string]*pending)

	for _, a := range attrs {
		f, ok := DecodeActionField(a.Name())
		if !ok {
			continue
		}
		p, exists := byID[f.RowID]
		if !exists {
			p = &pending{row: ActionRow{ID: f.RowID, Fields: make(map[string]host.Attribute)}}
			byID[f.RowID] = p
			order = append(order, f.RowID)
		}
		p.row.Fields[f.Field] = a
		if f.Kind.IsAttack() {
			p.attack = true
		}
	}

	rows := make([]Row, 0, len(order))
	for _, id := range order {
		p := byID[id]
		if p.attack {
			rows = append(rows, AttackRow{p.row})
		} else {
			rows = append(rows, PlainRow{p.row})
		}
	}
	return rows
}
