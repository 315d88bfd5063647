package telegram_test

import (
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telegramsouls/server/internal/telegram"
)

func textUpdate(userID int64, username, firstName, text string, messageID int) telego.Update {
	return telego.Update{
		Message: &telego.Message{
			MessageID: messageID,
			From:      &telego.User{ID: userID, Username: username, FirstName: firstName},
			Text:      text,
		},
	}
}

func TestMessageFromUpdate(t *testing.T) {
	msg, ok := telegram.MessageFromUpdate(textUpdate(42, "alice_dev", "Alice", "/start", 7))
	require.True(t, ok)

	assert.Equal(t, int64(42), msg.SenderID)
	assert.Equal(t, "alice_dev", msg.SenderName)
	assert.Equal(t, "/start", msg.Text)
	assert.Equal(t, int64(7), msg.MessageID)
}

func TestMessageFromUpdate_FirstNameFallback(t *testing.T) {
	msg, ok := telegram.MessageFromUpdate(textUpdate(42, "", "Alice", "hello", 7))
	require.True(t, ok)
	assert.Equal(t, "Alice", msg.SenderName)
}

func TestMessageFromUpdate_NoMessage(t *testing.T) {
	_, ok := telegram.MessageFromUpdate(telego.Update{})
	assert.False(t, ok)
}

func TestMessageFromUpdate_NoSender(t *testing.T) {
	_, ok := telegram.MessageFromUpdate(telego.Update{
		Message: &telego.Message{MessageID: 1, Text: "channel post"},
	})
	assert.False(t, ok)
}

func TestMessageFromUpdate_EmptyTextPreserved(t *testing.T) {
	// Sticker and media messages arrive with empty text; the dispatcher's
	// chat fallback handles them, so they are still convertible.
	msg, ok := telegram.MessageFromUpdate(textUpdate(42, "alice_dev", "Alice", "", 7))
	require.True(t, ok)
	assert.Empty(t, msg.Text)
}
