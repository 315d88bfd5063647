package telegram

import (
	"github.com/mymmrac/telego"

	"github.com/telegramsouls/server/internal/dispatch"
)

// MovementKeyboard builds the persistent reply keyboard whose buttons emit
// the bracketed command tokens the dispatcher recognizes, laid out as a
// compass rose with look in the center.
func MovementKeyboard() *telego.ReplyKeyboardMarkup {
	return &telego.ReplyKeyboardMarkup{
		Keyboard: [][]telego.KeyboardButton{
			{
				{Text: dispatch.TokenNorth},
			},
			{
				{Text: dispatch.TokenWest},
				{Text: dispatch.TokenLook},
				{Text: dispatch.TokenEast},
			},
			{
				{Text: dispatch.TokenSouth},
			},
		},
		ResizeKeyboard: true,
	}
}
