package gameserver_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/summonbeast/internal/gameserver"
	"github.com/cory-johannsen/summonbeast/internal/host"
)

func TestTable_PlaceSayRemove(t *testing.T) {
	f := newHarness(t, gameserver.HandlerConfig{})
	table := gameserver.NewTable(scene, f.host, f.host, f.handler)
	ctx := context.Background()
	assert.Equal(t, scene, table.Scene())

	tok, err := table.PlaceToken(ctx, "", "spirit")
	require.NoError(t, err)
	assert.Equal(t, "Bestial Spirit", tok.Name)

	require.NoError(t, table.Say(ctx, "GM", "!summon-beast water 5 7"))
	ac, ok, err := table.Attribute(ctx, "spirit", "npc_ac")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "16", ac.Get(host.FieldCurrent))

	require.NoError(t, table.RemoveToken(ctx, tok.ID))
	_, active := f.sessions.Scene(scene).ActiveTarget()
	assert.False(t, active)
}

func TestTable_SayPlainChatIsIgnored(t *testing.T) {
	f := newHarness(t, gameserver.HandlerConfig{})
	table := gameserver.NewTable(scene, f.host, f.host, f.handler)

	require.NoError(t, table.Say(context.Background(), "GM", "summon-beast air 4 5"))
	assert.Empty(t, f.chat.Messages())
}

func TestTable_Errors(t *testing.T) {
	f := newHarness(t, gameserver.HandlerConfig{})
	table := gameserver.NewTable(scene, f.host, f.host, f.handler)
	ctx := context.Background()

	_, err := table.PlaceToken(ctx, "", "nobody")
	assert.True(t, errors.Is(err, host.ErrCharacterNotFound))

	err = table.RemoveToken(ctx, "missing")
	assert.True(t, errors.Is(err, host.ErrTokenNotFound))

	_, ok, err := table.Attribute(ctx, "spirit", "npc_missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = table.Sheet(ctx, "nobody")
	assert.Error(t, err)
}

func TestTable_Roster(t *testing.T) {
	f := newHarness(t, gameserver.HandlerConfig{})
	table := gameserver.NewTable(scene, f.host, f.host, f.handler)
	ctx := context.Background()

	chars, err := table.Characters(ctx)
	require.NoError(t, err)
	require.Len(t, chars, 2)
	assert.Equal(t, "Bestial Spirit", chars[0].Name)
	assert.Equal(t, "Dire Wolf", chars[1].Name)

	tok, err := table.PlaceToken(ctx, "", "spirit")
	require.NoError(t, err)
	toks, err := table.Tokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, []host.Token{tok}, toks)

	id, ok := table.ActiveTarget()
	require.True(t, ok)
	assert.Equal(t, "spirit", id)
}

func TestTable_DeleteTrackedSheet(t *testing.T) {
	f := newHarness(t, gameserver.HandlerConfig{})
	table := gameserver.NewTable(scene, f.host, f.host, f.handler)
	ctx := context.Background()

	_, err := table.PlaceToken(ctx, "", "spirit")
	require.NoError(t, err)
	require.NoError(t, table.DeleteCharacter(ctx, "spirit"))

	require.NoError(t, table.Say(ctx, "GM", "!summon-beast air 4 5"))
	assert.Contains(t, f.onlyPost(t).HTML, "ERROR-Token for Bestial Spirit not present")
	_, ok := table.ActiveTarget()
	assert.False(t, ok)

	err = table.DeleteCharacter(ctx, "spirit")
	assert.True(t, errors.Is(err, host.ErrCharacterNotFound))
}

// storeOnly hides every method but host.Store.
type storeOnly struct{ host.Store }

func TestTable_RosterUnsupported(t *testing.T) {
	f := newHarness(t, gameserver.HandlerConfig{})
	table := gameserver.NewTable(scene, f.host, storeOnly{f.host}, f.handler)
	ctx := context.Background()

	_, err := table.Characters(ctx)
	assert.ErrorIs(t, err, gameserver.ErrNoRoster)
	_, err = table.Tokens(ctx)
	assert.ErrorIs(t, err, gameserver.ErrNoRoster)
	assert.ErrorIs(t, table.DeleteCharacter(ctx, "spirit"), gameserver.ErrNoRoster)
}
