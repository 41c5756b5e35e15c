// Package host defines the virtual tabletop object model the summon handler
// works against: characters, their attributes, tokens on the map, and the
// shared chat.
package host

import (
	"context"
	"errors"
)

// ErrCharacterNotFound is returned when a character lookup yields no results.
var ErrCharacterNotFound = errors.New("character not found")

// ErrTokenNotFound is returned when a token lookup yields no results.
var ErrTokenNotFound = errors.New("token not found")

// Field names a sub-value of an attribute.
type Field string

// Attribute sub-fields.
const (
	FieldCurrent Field = "current"
	FieldMax     Field = "max"
	FieldName    Field = "name"
)

// Character is a character sheet.
type Character struct {
	ID   string
	Name string
}

// Token is a graphic on the map. Represents holds the id of the character
// sheet the token stands for, or "" when it represents none.
type Token struct {
	ID         string
	Name       string
	Represents string
}

// Attribute is a named value stored on a character sheet.
type Attribute interface {
	// Name returns the attribute name, e.g. "npc_ac".
	Name() string
	// Get returns the value of field, or "" when unset.
	Get(field Field) string
	// Set overwrites the value of field.
	Set(ctx context.Context, field Field, value string) error
}

// Store resolves characters and their attributes.
type Store interface {
	// Character returns the character with id, or ErrCharacterNotFound.
	Character(ctx context.Context, id string) (*Character, error)
	// Attributes returns every attribute owned by characterID.
	Attributes(ctx context.Context, characterID string) ([]Attribute, error)
}

// Board places and removes tokens on the map.
type Board interface {
	// AddToken places a token standing for characterID, which may be "".
	AddToken(ctx context.Context, name, characterID string) (Token, error)
	// RemoveToken deletes the token with id, or returns ErrTokenNotFound.
	RemoveToken(ctx context.Context, id string) (Token, error)
}

// Roster lists the sheets and tokens of a table and deletes sheets.
type Roster interface {
	// Characters returns every character sheet sorted by name.
	Characters(ctx context.Context) ([]Character, error)
	// Tokens returns the tokens on the map.
	Tokens(ctx context.Context) ([]Token, error)
	// DeleteCharacter removes a sheet and its attributes, or returns
	// ErrCharacterNotFound.
	DeleteCharacter(ctx context.Context, id string) error
}

// Chat posts formatted messages to the shared chat surface.
type Chat interface {
	// Send posts html as speaker.
	Send(ctx context.Context, speaker, html string) error
}

// ChatFunc adapts a function to Chat.
type ChatFunc func(ctx context.Context, speaker, html string) error

// Send calls f.
func (f ChatFunc) Send(ctx context.Context, speaker, html string) error {
	return f(ctx, speaker, html)
}
