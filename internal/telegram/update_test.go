package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUpdateMessage(t *testing.T) {
	body := []byte(`{
		"update_id": 10,
		"message": {
			"message_id": 55,
			"text": "/start",
			"chat": {"id": 123, "type": "private"},
			"from": {"id": 99, "username": "ali", "first_name": "Ali", "last_name": "Veli"}
		}
	}`)

	update, err := ParseUpdate(body)
	require.NoError(t, err)
	require.NotNil(t, update.Message)
	assert.Nil(t, update.Callback)

	msg := update.Message
	assert.Equal(t, 55, msg.ID)
	assert.Equal(t, int64(123), msg.Chat.ID)
	assert.True(t, msg.Chat.IsPrivate())
	assert.Equal(t, int64(99), msg.From.ID)
	assert.Equal(t, "ali", msg.From.Username)
	assert.Equal(t, "/start", msg.Text)
}

func TestParseUpdateCallback(t *testing.T) {
	body := []byte(`{
		"update_id": 11,
		"callback_query": {
			"id": "cb-1",
			"data": "prices",
			"from": {"id": 99, "username": "ali"},
			"message": {
				"message_id": 56,
				"chat": {"id": -1001, "type": "supergroup"}
			}
		}
	}`)

	update, err := ParseUpdate(body)
	require.NoError(t, err)
	require.NotNil(t, update.Callback)
	assert.Nil(t, update.Message)

	cb := update.Callback
	assert.Equal(t, "cb-1", cb.ID)
	assert.Equal(t, "prices", cb.Data)
	assert.Equal(t, int64(-1001), cb.Chat.ID)
	assert.True(t, cb.Chat.IsGroup())
	assert.Equal(t, int64(99), cb.From.ID)
}

func TestParseUpdateUnknownShapeIsNoop(t *testing.T) {
	body := []byte(`{"update_id": 12, "edited_message": {"message_id": 1, "chat": {"id": 5, "type": "private"}}}`)

	update, err := ParseUpdate(body)
	require.NoError(t, err)
	assert.Nil(t, update.Message)
	assert.Nil(t, update.Callback)
}

func TestParseUpdateMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "message without chat",
			body: `{"update_id": 1, "message": {"message_id": 2, "text": "hi", "from": {"id": 9}}}`,
		},
		{
			name: "message without sender",
			body: `{"update_id": 1, "message": {"message_id": 2, "text": "hi", "chat": {"id": 5, "type": "private"}}}`,
		},
		{
			name: "callback without id",
			body: `{"update_id": 1, "callback_query": {"data": "prices", "from": {"id": 9}, "message": {"message_id": 2, "chat": {"id": 5, "type": "private"}}}}`,
		},
		{
			name: "callback without origin chat",
			body: `{"update_id": 1, "callback_query": {"id": "cb", "data": "prices", "from": {"id": 9}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseUpdate([]byte(tt.body))
			assert.ErrorIs(t, err, ErrMalformedUpdate)
		})
	}
}

func TestParseUpdateInvalidJSON(t *testing.T) {
	_, err := ParseUpdate([]byte(`{not json`))
	assert.Error(t, err)
}

func TestChatTypePredicates(t *testing.T) {
	assert.True(t, Chat{Type: ChatGroup}.IsGroup())
	assert.True(t, Chat{Type: ChatSuperGroup}.IsGroup())
	assert.False(t, Chat{Type: ChatPrivate}.IsGroup())
	assert.True(t, Chat{Type: ChatPrivate}.IsPrivate())
	assert.False(t, Chat{Type: ChatChannel}.IsPrivate())
}
