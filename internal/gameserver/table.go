package gameserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/summonbeast/internal/game/command"
	"github.com/cory-johannsen/summonbeast/internal/host"
)

// Table drives one scene of a host: it places and removes tokens on the
// board and feeds the resulting notifications to the handler.
type Table struct {
	scene   string
	board   host.Board
	store   host.Store
	handler *SummonHandler
}

// NewTable creates a Table for scene.
//
// Precondition: scene must be non-empty; board, store and handler must be non-nil.
func NewTable(scene string, board host.Board, store host.Store, handler *SummonHandler) *Table {
	return &Table{scene: scene, board: board, store: store, handler: handler}
}

// Scene returns the scene id the table routes events to.
func (t *Table) Scene() string {
	return t.scene
}

// PlaceToken adds a token for characterID and reports it to the handler.
//
// Postcondition: Returns the new token, or an error if the board or store fails.
func (t *Table) PlaceToken(ctx context.Context, name, characterID string) (host.Token, error) {
	if name == "" && characterID != "" {
		c, err := t.store.Character(ctx, characterID)
		if err != nil {
			return host.Token{}, fmt.Errorf("placing token: %w", err)
		}
		name = c.Name
	}
	tok, err := t.board.AddToken(ctx, name, characterID)
	if err != nil {
		return host.Token{}, fmt.Errorf("placing token: %w", err)
	}
	if err := t.handler.HandleTokenAdded(ctx, t.scene, tok); err != nil {
		return tok, err
	}
	return tok, nil
}

// RemoveToken deletes the token with id and reports it to the handler.
//
// Postcondition: Returns host.ErrTokenNotFound (wrapped) for unknown ids.
func (t *Table) RemoveToken(ctx context.Context, id string) error {
	tok, err := t.board.RemoveToken(ctx, id)
	if err != nil {
		return fmt.Errorf("removing token: %w", err)
	}
	return t.handler.HandleTokenRemoved(ctx, t.scene, tok)
}

// Say posts a chat line from who. Lines starting with "!" are api messages.
func (t *Table) Say(ctx context.Context, who, content string) error {
	evt := command.Event{Type: "general", Content: content, Who: who}
	if strings.HasPrefix(strings.TrimSpace(content), "!") {
		evt.Type = command.EventTypeAPI
	}
	return t.handler.HandleChat(ctx, t.scene, evt)
}

// Attribute returns the named attribute of characterID.
//
// Postcondition: ok is false when the sheet has no such attribute.
func (t *Table) Attribute(ctx context.Context, characterID, name string) (attr host.Attribute, ok bool, err error) {
	attrs, err := t.store.Attributes(ctx, characterID)
	if err != nil {
		return nil, false, err
	}
	for _, a := range attrs {
		if a.Name() == name {
			return a, true, nil
		}
	}
	return nil, false, nil
}

// Sheet returns every attribute of characterID.
func (t *Table) Sheet(ctx context.Context, characterID string) ([]host.Attribute, error) {
	return t.store.Attributes(ctx, characterID)
}

// ErrNoRoster is returned by the listing methods when the store cannot
// enumerate its sheets and tokens.
var ErrNoRoster = errors.New("host cannot list sheets or tokens")

func (t *Table) roster() (host.Roster, error) {
	if r, ok := t.store.(host.Roster); ok {
		return r, nil
	}
	return nil, ErrNoRoster
}

// Characters returns every sheet on the host.
func (t *Table) Characters(ctx context.Context) ([]host.Character, error) {
	r, err := t.roster()
	if err != nil {
		return nil, err
	}
	return r.Characters(ctx)
}

// Tokens returns the tokens on the map.
func (t *Table) Tokens(ctx context.Context) ([]host.Token, error) {
	r, err := t.roster()
	if err != nil {
		return nil, err
	}
	return r.Tokens(ctx)
}

// DeleteCharacter removes a sheet from the host. Its tokens stay on the
// map; a summon aimed at the deleted sheet reports a missing target.
func (t *Table) DeleteCharacter(ctx context.Context, characterID string) error {
	r, err := t.roster()
	if err != nil {
		return err
	}
	if err := r.DeleteCharacter(ctx, characterID); err != nil {
		return fmt.Errorf("deleting sheet: %w", err)
	}
	return nil
}

// ActiveTarget returns the character id of the scene's active Bestial
// Spirit sheet.
//
// Postcondition: ok is false when no target is set.
func (t *Table) ActiveTarget() (characterID string, ok bool) {
	return t.handler.ActiveTarget(t.scene)
}
