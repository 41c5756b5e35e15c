package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/summonbeast/internal/host"
	"github.com/cory-johannsen/summonbeast/internal/host/fixture"
)

func TestHost_CreateCharacter(t *testing.T) {
	h := NewHost()
	c, err := h.CreateCharacter("c1", "Bestial Spirit")
	require.NoError(t, err)
	assert.Equal(t, "c1", c.ID)

	got, err := h.Character(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Bestial Spirit", got.Name)
}

func TestHost_CreateCharacter_GeneratesID(t *testing.T) {
	h := NewHost()
	c, err := h.CreateCharacter("", "Wolf")
	require.NoError(t, err)
	assert.Len(t, c.ID, 36)
}

func TestHost_CreateCharacter_Errors(t *testing.T) {
	h := NewHost()
	_, err := h.CreateCharacter("c1", "")
	assert.Error(t, err)

	_, err = h.CreateCharacter("c1", "A")
	require.NoError(t, err)
	_, err = h.CreateCharacter("c1", "B")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestHost_Character_NotFound(t *testing.T) {
	_, err := NewHost().Character(context.Background(), "nope")
	assert.True(t, errors.Is(err, host.ErrCharacterNotFound))
}

func TestHost_Characters_SortedByName(t *testing.T) {
	h := NewHost()
	_, _ = h.CreateCharacter("2", "Wolf")
	_, _ = h.CreateCharacter("1", "Bestial Spirit")
	cs, err := h.Characters(context.Background())
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.Equal(t, "Bestial Spirit", cs[0].Name)
	assert.Equal(t, "Wolf", cs[1].Name)
}

func TestHost_SetAttribute_OverwritesInPlace(t *testing.T) {
	h := NewHost()
	_, _ = h.CreateCharacter("c1", "A")
	first, err := h.SetAttribute("c1", "hp", "10", "10")
	require.NoError(t, err)
	_, err = h.SetAttribute("c1", "npc_ac", "12", "")
	require.NoError(t, err)
	second, err := h.SetAttribute("c1", "hp", "5", "20")
	require.NoError(t, err)
	assert.Same(t, first, second)

	attrs, err := h.Attributes(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, attrs, 2)
	assert.Equal(t, "hp", attrs[0].Name())
	assert.Equal(t, "5", attrs[0].Get(host.FieldCurrent))
	assert.Equal(t, "20", attrs[0].Get(host.FieldMax))
}

func TestHost_SetAttribute_UnknownCharacter(t *testing.T) {
	_, err := NewHost().SetAttribute("nope", "hp", "1", "")
	assert.True(t, errors.Is(err, host.ErrCharacterNotFound))

	_, err = NewHost().Attributes(context.Background(), "nope")
	assert.True(t, errors.Is(err, host.ErrCharacterNotFound))
}

func TestAttribute_GetSet(t *testing.T) {
	h := NewHost()
	_, _ = h.CreateCharacter("c1", "A")
	a, err := h.SetAttribute("c1", "hp", "1", "2")
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID())

	ctx := context.Background()
	require.NoError(t, a.Set(ctx, host.FieldCurrent, "7"))
	require.NoError(t, a.Set(ctx, host.FieldMax, "9"))
	assert.Equal(t, "7", a.Get(host.FieldCurrent))
	assert.Equal(t, "9", a.Get(host.FieldMax))
	assert.Equal(t, "hp", a.Get(host.FieldName))
	assert.Equal(t, "", a.Get(host.Field("bogus")))

	err = a.Set(ctx, host.Field("bogus"), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")

	require.NoError(t, a.Set(ctx, host.FieldName, "hit_points"))
	_, ok := h.Attribute("c1", "hit_points")
	assert.True(t, ok)
}

func TestHost_Tokens(t *testing.T) {
	h := NewHost()
	ctx := context.Background()
	tok, err := h.AddToken(ctx, "Bestial Spirit", "c1")
	require.NoError(t, err)
	assert.NotEmpty(t, tok.ID)
	assert.Equal(t, "c1", tok.Represents)
	toks, err := h.Tokens(ctx)
	require.NoError(t, err)
	assert.Len(t, toks, 1)

	removed, err := h.RemoveToken(ctx, tok.ID)
	require.NoError(t, err)
	assert.Equal(t, tok, removed)
	toks, err = h.Tokens(ctx)
	require.NoError(t, err)
	assert.Empty(t, toks)

	_, err = h.RemoveToken(ctx, tok.ID)
	assert.True(t, errors.Is(err, host.ErrTokenNotFound))
}

func TestHost_DeleteCharacter(t *testing.T) {
	h := NewHost()
	ctx := context.Background()
	_, _ = h.CreateCharacter("c1", "Bestial Spirit")
	_, err := h.SetAttribute("c1", "hp", "40", "40")
	require.NoError(t, err)
	tok, err := h.AddToken(ctx, "Bestial Spirit", "c1")
	require.NoError(t, err)

	require.NoError(t, h.DeleteCharacter(ctx, "c1"))
	_, err = h.Character(ctx, "c1")
	assert.True(t, errors.Is(err, host.ErrCharacterNotFound))
	_, ok := h.Attribute("c1", "hp")
	assert.False(t, ok)
	toks, err := h.Tokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, []host.Token{tok}, toks)

	err = h.DeleteCharacter(ctx, "c1")
	assert.True(t, errors.Is(err, host.ErrCharacterNotFound))

	_, err = h.CreateCharacter("c1", "Bestial Spirit")
	require.NoError(t, err, "a deleted id is free again")
}

func TestTranscript(t *testing.T) {
	tr := NewTranscript()
	_, ok := tr.Last()
	assert.False(t, ok)

	ctx := context.Background()
	require.NoError(t, tr.Send(ctx, "Summon Beast API", "one"))
	require.NoError(t, tr.Send(ctx, "Summon Beast API", "two"))
	last, ok := tr.Last()
	require.True(t, ok)
	assert.Equal(t, "two", last.HTML)
	assert.Len(t, tr.Messages(), 2)

	tr.Reset()
	assert.Empty(t, tr.Messages())
}

const fixtureYAML = `
id: spirit
name: Bestial Spirit
attributes:
  - name: npc_ac
    current: "11"
  - name: hp
    current: "30"
    max: "30"
actions:
  - id: -Mmaul
    name: Maul
    fields:
      attack_tohit: "0"
      attack_damage: 1d8+4
`

func TestHost_Seed(t *testing.T) {
	f, err := fixture.LoadSheetFromBytes([]byte(fixtureYAML))
	require.NoError(t, err)

	h := NewHost()
	c, err := h.Seed(f)
	require.NoError(t, err)
	assert.Equal(t, "spirit", c.ID)

	attrs, err := h.Attributes(context.Background(), "spirit")
	require.NoError(t, err)
	assert.Len(t, attrs, 5)

	a, ok := h.Attribute("spirit", "repeating_npcaction_-Mmaul_attack_damage")
	require.True(t, ok)
	assert.Equal(t, "1d8+4", a.Get(host.FieldCurrent))
	a, ok = h.Attribute("spirit", "repeating_npcaction_-Mmaul_name")
	require.True(t, ok)
	assert.Equal(t, "Maul", a.Get(host.FieldCurrent))
	a, ok = h.Attribute("spirit", "hp")
	require.True(t, ok)
	assert.Equal(t, "30", a.Get(host.FieldMax))
}

func TestHost_SeedDuplicate(t *testing.T) {
	f, err := fixture.LoadSheetFromBytes([]byte(fixtureYAML))
	require.NoError(t, err)

	h := NewHost()
	_, err = h.Seed(f)
	require.NoError(t, err)
	_, err = h.Seed(f)
	assert.Error(t, err)
}
