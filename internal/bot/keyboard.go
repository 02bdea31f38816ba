package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tazhate/reminders/internal/service"
)

const perPage = 5

// Reminder list keyboard with pagination
func reminderListKeyboard(rows []service.Row, page int) *tgbotapi.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}

	start, end := pageBounds(len(rows), page)

	var kb [][]tgbotapi.InlineKeyboardButton

	for _, row := range rows[start:end] {
		r := row.Reminder
		check := "⬜"
		if r.Done {
			check = "✅"
		}
		kb = append(kb, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s %d", check, row.Index+1),
				"done:"+r.ID,
			),
			tgbotapi.NewInlineKeyboardButtonData(
				truncate(r.Title, 25),
				"view:"+r.ID,
			),
		))
	}

	// Pagination
	var navRow []tgbotapi.InlineKeyboardButton
	if page > 0 {
		navRow = append(navRow, tgbotapi.NewInlineKeyboardButtonData("⬅️", fmt.Sprintf("page:%d", page-1)))
	}
	totalPages := (len(rows) + perPage - 1) / perPage
	if page < totalPages-1 {
		navRow = append(navRow, tgbotapi.NewInlineKeyboardButtonData("➡️", fmt.Sprintf("page:%d", page+1)))
	}
	if len(navRow) > 0 {
		kb = append(kb, navRow)
	}

	kb = append(kb, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", "refresh:list"),
	))

	markup := tgbotapi.NewInlineKeyboardMarkup(kb...)
	return &markup
}

// Single reminder actions
func reminderKeyboard(id string, done bool) tgbotapi.InlineKeyboardMarkup {
	doneLabel := "✅ Done"
	if done {
		doneLabel = "↩️ Not done"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(doneLabel, "done:"+id),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", "del:"+id),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "refresh:list"),
		),
	)
}

func confirmDeleteKeyboard(id string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Yes, delete", "confirm_del:"+id),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "view:"+id),
		),
	)
}

func pageBounds(total, page int) (int, int) {
	start := page * perPage
	if start >= total || start < 0 {
		start = 0
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return start, end
}
