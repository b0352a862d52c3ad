package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/ultimate-tictactoe/internal/game"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestRoomRoundtrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	state := game.NewMatch()
	require.NoError(t, state.Apply(game.Move{Board: 4, Cell: 4}))

	saved := &RoomData{
		Code:      "AB12",
		Started:   true,
		CreatedAt: 1700000000,
		Players: []PlayerData{
			{ID: "u1", Role: game.MarkX},
			{ID: "u2", Role: game.MarkO},
		},
		State: state,
	}
	require.NoError(t, store.SaveRoom(ctx, saved))

	loaded, err := store.LoadRoom(ctx, "AB12")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "AB12", loaded.Code)
	assert.True(t, loaded.Started)
	require.Len(t, loaded.Players, 2)
	assert.Equal(t, game.MarkO, loaded.Players[1].Role)
	require.NotNil(t, loaded.State)
	assert.Equal(t, game.MarkX, loaded.State.Boards[4][4])
	require.NotNil(t, loaded.State.ActiveBoard)
	assert.Equal(t, 4, *loaded.State.ActiveBoard)
}

func TestLoadMissingRoom(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	loaded, err := store.LoadRoom(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestDeleteRoom(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRoom(ctx, &RoomData{Code: "AB12"}))
	require.NoError(t, store.DeleteRoom(ctx, "AB12"))

	loaded, err := store.LoadRoom(ctx, "AB12")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestListRoomCodes(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRoom(ctx, &RoomData{Code: "AB12"}))
	require.NoError(t, store.SaveRoom(ctx, &RoomData{Code: "CD34"}))

	codes, err := store.ListRoomCodes(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"AB12", "CD34"}, codes)
}

func TestMatchQueueFIFO(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnqueueMatch(ctx, "u1"))
	require.NoError(t, store.EnqueueMatch(ctx, "u2"))
	require.NoError(t, store.EnqueueMatch(ctx, "u3"))

	n, err := store.MatchQueueLen(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	pair, err := store.PopMatchPair(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, pair)
}

func TestMatchQueueRemove(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnqueueMatch(ctx, "u1"))
	require.NoError(t, store.EnqueueMatch(ctx, "u2"))
	require.NoError(t, store.RemoveFromMatchQueue(ctx, "u1"))

	pair, err := store.PopMatchPair(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, pair)
}
