package dialog

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/ka-abfall/abfallbot/internal/backend"
)

// MainMenuKeyboard builds the reply keyboard for the main menu.
func MainMenuKeyboard() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: false,
	}

	markup.Reply(
		markup.Row(markup.Text(MenuSearch.Caption())),
		markup.Row(markup.Text(MenuToggleNotifications.Caption())),
		markup.Row(markup.Text(MenuRequestTomorrow.Caption())),
		markup.Row(markup.Text(MenuRequestData.Caption())),
		markup.Row(markup.Text(MenuDelete.Caption())),
	)

	return markup
}

// SearchModeKeyboard offers manual entry or sharing the device location.
func SearchModeKeyboard() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}

	markup.Reply(
		markup.Row(markup.Text(captionEnterManually)),
		markup.Row(markup.Location(captionFindAuto)),
	)

	return markup
}

// YesNoKeyboard builds a plain yes/no reply keyboard.
func YesNoKeyboard() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}

	markup.Reply(
		markup.Row(markup.Text(captionYes), markup.Text(captionNo)),
	)

	return markup
}

// LocationConfirmKeyboard asks whether the geocoded address is correct.
func LocationConfirmKeyboard() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}

	markup.Reply(
		markup.Row(markup.Text(LocationCorrect.Caption())),
		markup.Row(markup.Text(LocationNumberFalse.Caption())),
		markup.Row(markup.Text(LocationAllFalse.Caption())),
	)

	return markup
}

// StreetsKeyboard lists street candidates plus an escape row.
func StreetsKeyboard(streets []backend.Street) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}

	rows := make([]telebot.Row, 0, len(streets)+1)
	for _, street := range streets {
		rows = append(rows, markup.Row(markup.Text(street.Name)))
	}
	rows = append(rows, markup.Row(markup.Text(captionNoStreetListed)))
	markup.Reply(rows...)

	return markup
}
