// Package memory provides an in-process virtual tabletop host: characters,
// attributes, tokens and a chat transcript held in maps. It backs the
// console and scripted sessions and the handler tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/cory-johannsen/summonbeast/internal/host"
)

// Host is an in-memory host.Store, host.Board and host.Roster.
// All methods are safe for concurrent use.
type Host struct {
	mu         sync.RWMutex
	characters map[string]*host.Character
	attrs      map[string][]*Attribute // character id → attributes in creation order
	tokens     map[string]host.Token
}

var (
	_ host.Store  = (*Host)(nil)
	_ host.Board  = (*Host)(nil)
	_ host.Roster = (*Host)(nil)
)

// NewHost creates an empty Host.
func NewHost() *Host {
	return &Host{
		characters: make(map[string]*host.Character),
		attrs:      make(map[string][]*Attribute),
		tokens:     make(map[string]host.Token),
	}
}

// CreateCharacter adds a character sheet. An empty id is replaced by a
// fresh UUID.
//
// Precondition: name must be non-empty.
// Postcondition: Returns the created character, or an error if id is taken.
func (h *Host) CreateCharacter(id, name string) (*host.Character, error) {
	if name == "" {
		return nil, fmt.Errorf("character name must not be empty")
	}
	if id == "" {
		id = uuid.NewString()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.characters[id]; exists {
		return nil, fmt.Errorf("character %q already exists", id)
	}
	c := &host.Character{ID: id, Name: name}
	h.characters[id] = c
	return c, nil
}

// Character implements host.Store.
func (h *Host) Character(_ context.Context, id string) (*host.Character, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.characters[id]
	if !ok {
		return nil, fmt.Errorf("character %q: %w", id, host.ErrCharacterNotFound)
	}
	out := *c
	return &out, nil
}

// Characters implements host.Roster.
func (h *Host) Characters(_ context.Context) ([]host.Character, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]host.Character, 0, len(h.characters))
	for _, c := range h.characters {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteCharacter implements host.Roster. Tokens that represent the sheet
// stay on the map.
func (h *Host) DeleteCharacter(_ context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.characters[id]; !ok {
		return fmt.Errorf("character %q: %w", id, host.ErrCharacterNotFound)
	}
	delete(h.characters, id)
	delete(h.attrs, id)
	return nil
}

// SetAttribute creates or overwrites the named attribute of characterID.
//
// Precondition: characterID must reference an existing character; name must be non-empty.
// Postcondition: Returns the attribute, or an error if the character is unknown.
func (h *Host) SetAttribute(characterID, name, current, maxValue string) (*Attribute, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.characters[characterID]; !ok {
		return nil, fmt.Errorf("character %q: %w", characterID, host.ErrCharacterNotFound)
	}
	for _, a := range h.attrs[characterID] {
		if a.Name() == name {
			a.set(host.FieldCurrent, current)
			a.set(host.FieldMax, maxValue)
			return a, nil
		}
	}
	a := &Attribute{id: uuid.NewString(), name: name, current: current, max: maxValue}
	h.attrs[characterID] = append(h.attrs[characterID], a)
	return a, nil
}

// Attributes implements host.Store.
func (h *Host) Attributes(_ context.Context, characterID string) ([]host.Attribute, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.characters[characterID]; !ok {
		return nil, fmt.Errorf("character %q: %w", characterID, host.ErrCharacterNotFound)
	}
	src := h.attrs[characterID]
	out := make([]host.Attribute, len(src))
	for i, a := range src {
		out[i] = a
	}
	return out, nil
}

// Attribute returns the named attribute of characterID.
func (h *Host) Attribute(characterID, name string) (*Attribute, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, a := range h.attrs[characterID] {
		if a.Name() == name {
			return a, true
		}
	}
	return nil, false
}

// AddToken places a token representing characterID on the map. An empty
// characterID adds a token that represents no sheet.
//
// Postcondition: Returns the new token with a fresh ID.
func (h *Host) AddToken(_ context.Context, name, characterID string) (host.Token, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	tok := host.Token{ID: uuid.NewString(), Name: name, Represents: characterID}
	h.tokens[tok.ID] = tok
	return tok, nil
}

// RemoveToken implements host.Board.
//
// Postcondition: Returns the removed token, or host.ErrTokenNotFound.
func (h *Host) RemoveToken(_ context.Context, id string) (host.Token, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	tok, ok := h.tokens[id]
	if !ok {
		return host.Token{}, fmt.Errorf("token %q: %w", id, host.ErrTokenNotFound)
	}
	delete(h.tokens, id)
	return tok, nil
}

// Tokens implements host.Roster. Tokens are sorted by ID.
func (h *Host) Tokens(_ context.Context) ([]host.Token, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]host.Token, 0, len(h.tokens))
	for _, t := range h.tokens {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Attribute is an in-memory host.Attribute.
type Attribute struct {
	mu      sync.Mutex
	id      string
	name    string
	current string
	max     string
}

// ID returns the attribute's object id.
func (a *Attribute) ID() string { return a.id }

// Name implements host.Attribute.
func (a *Attribute) Name() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.name
}

// Get implements host.Attribute.
func (a *Attribute) Get(field host.Field) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch field {
	case host.FieldCurrent:
		return a.current
	case host.FieldMax:
		return a.max
	case host.FieldName:
		return a.name
	default:
		return ""
	}
}

// Set implements host.Attribute.
func (a *Attribute) Set(_ context.Context, field host.Field, value string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.setLocked(field, value) {
		return fmt.Errorf("attribute %q: unknown field %q", a.name, field)
	}
	return nil
}

func (a *Attribute) set(field host.Field, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setLocked(field, value)
}

func (a *Attribute) setLocked(field host.Field, value string) bool {
	switch field {
	case host.FieldCurrent:
		a.current = value
	case host.FieldMax:
		a.max = value
	case host.FieldName:
		a.name = value
	default:
		return false
	}
	return true
}
