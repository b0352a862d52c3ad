package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/ultimate-tictactoe/internal/game"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("known tag", func(t *testing.T) {
		t.Parallel()
		msg, err := Decode([]byte(`{"type":"join_room","code":"AB12CD"}`))
		require.NoError(t, err)
		assert.Equal(t, MsgJoinRoom, msg.Type)

		payload, err := Parse[JoinRoom](msg)
		require.NoError(t, err)
		assert.Equal(t, "AB12CD", payload.Code)
	})

	t.Run("unknown tag still decodes", func(t *testing.T) {
		t.Parallel()
		// 未知消息由调用方记录并丢弃，解码本身不报错
		msg, err := Decode([]byte(`{"type":"server_gossip","stuff":1}`))
		require.NoError(t, err)
		assert.Equal(t, MessageType("server_gossip"), msg.Type)
	})

	t.Run("missing tag", func(t *testing.T) {
		t.Parallel()
		_, err := Decode([]byte(`{"code":"AB12CD"}`))
		assert.ErrorIs(t, err, ErrMissingType)
	})

	t.Run("bad json", func(t *testing.T) {
		t.Parallel()
		_, err := Decode([]byte(`{"type":`))
		assert.Error(t, err)
	})
}

func TestEncode_WireShape(t *testing.T) {
	t.Parallel()

	t.Run("hello", func(t *testing.T) {
		t.Parallel()
		data, err := Encode(NewHello("secret-token"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"hello","token":"secret-token"}`, string(data))
	})

	t.Run("move keeps zero indexes", func(t *testing.T) {
		t.Parallel()
		data, err := Encode(NewMoveRequest(0, 0))
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"move","boardIndex":0,"cellIndex":0}`, string(data))
	})

	t.Run("tag only", func(t *testing.T) {
		t.Parallel()
		data, err := Encode(NewTag(MsgFindMatch))
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"find_match"}`, string(data))
	})
}

func TestStatePush_Roundtrip(t *testing.T) {
	t.Parallel()

	state := game.NewMatch()
	require.NoError(t, state.Apply(game.Move{Board: 4, Cell: 7}))

	data, err := Encode(NewStatePush(state))
	require.NoError(t, err)

	msg, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, MsgState, msg.Type)

	push, err := Parse[StatePush](msg)
	require.NoError(t, err)
	require.NotNil(t, push.Payload)
	assert.Equal(t, game.MarkX, push.Payload.Boards[4][7])
	require.NotNil(t, push.Payload.ActiveBoard)
	assert.Equal(t, 7, *push.Payload.ActiveBoard)
	assert.Equal(t, game.MarkO, push.Payload.Turn)
}

func TestNewJoinRoom_Normalizes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "AB12CD", NewJoinRoom("  ab12cd ").Code)
}

func TestNormalizeRoomCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "XY99", NormalizeRoomCode("xy99"))
	assert.Equal(t, "", NormalizeRoomCode("   "))
}
