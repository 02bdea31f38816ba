package bot

import (
	"context"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tazhate/reminders/internal/domain"
	"github.com/tazhate/reminders/internal/service"
)

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message != nil {
		b.handleMessage(ctx, update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	chatID := msg.Chat.ID

	if !b.cfg.IsAllowedUser(msg.From.ID) {
		b.SendMessage(chatID, "⛔ Access denied")
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// Текст без команды — то же, что /add
	b.cmdAdd(ctx, chatID, text)
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	msgID := callback.Message.MessageID

	if !b.cfg.IsAllowedUser(callback.From.ID) {
		b.api.Request(tgbotapi.NewCallback(callback.ID, "⛔ Access denied"))
		return
	}

	parts := strings.SplitN(callback.Data, ":", 2)
	if len(parts) < 2 {
		return
	}
	action, arg := parts[0], parts[1]

	switch action {
	case "refresh":
		b.api.Request(tgbotapi.NewCallback(callback.ID, ""))
		b.showList(ctx, chatID, msgID, 0)

	case "page":
		page, _ := strconv.Atoi(arg)
		b.api.Request(tgbotapi.NewCallback(callback.ID, ""))
		b.showList(ctx, chatID, msgID, page)

	case "view":
		b.api.Request(tgbotapi.NewCallback(callback.ID, ""))
		b.showReminder(ctx, chatID, msgID, arg)

	case "done":
		row, ok := b.findRow(ctx, arg)
		if !ok {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "Reminder not found"))
			return
		}
		if err := b.reminderService.SetDone(ctx, row.Index, arg, !row.Reminder.Done); err != nil {
			log.Printf("Error toggling reminder %s: %v", arg, err)
			b.api.Request(tgbotapi.NewCallback(callback.ID, "❌ Error"))
			return
		}
		b.api.Request(tgbotapi.NewCallback(callback.ID, "✅"))
		b.showList(ctx, chatID, msgID, row.Index/perPage)

	case "del":
		row, ok := b.findRow(ctx, arg)
		if !ok {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "Reminder not found"))
			return
		}
		b.api.Request(tgbotapi.NewCallback(callback.ID, ""))
		edit := tgbotapi.NewEditMessageText(chatID, msgID, "Delete «"+truncate(row.Reminder.Title, 40)+"»?")
		kb := confirmDeleteKeyboard(arg)
		edit.ReplyMarkup = &kb
		b.api.Send(edit)

	case "confirm_del":
		row, ok := b.findRow(ctx, arg)
		if !ok {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "Reminder not found"))
			return
		}
		if err := b.reminderService.Delete(ctx, domain.ParamsFor(row.Index, row.Reminder)); err != nil {
			log.Printf("Error deleting reminder %s: %v", arg, err)
			b.api.Request(tgbotapi.NewCallback(callback.ID, "❌ Error"))
			return
		}
		b.api.Request(tgbotapi.NewCallback(callback.ID, "🗑 Deleted"))
		b.showList(ctx, chatID, msgID, 0)
	}
}

func (b *Bot) findRow(ctx context.Context, id string) (service.Row, bool) {
	rows, err := b.reminderService.Rows(ctx)
	if err != nil {
		log.Printf("Error loading reminders: %v", err)
		return service.Row{}, false
	}
	for _, row := range rows {
		if row.Reminder.ID == id {
			return row, true
		}
	}
	return service.Row{}, false
}

func (b *Bot) showList(ctx context.Context, chatID int64, msgID int, page int) {
	rows, err := b.reminderService.Rows(ctx)
	if err != nil {
		log.Printf("Error loading reminders: %v", err)
		return
	}

	edit := tgbotapi.NewEditMessageText(chatID, msgID, formatReminderList(rows, page))
	edit.ParseMode = "HTML"
	edit.ReplyMarkup = reminderListKeyboard(rows, page)
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("Error editing message: %v", err)
	}
}

func (b *Bot) showReminder(ctx context.Context, chatID int64, msgID int, id string) {
	row, ok := b.findRow(ctx, id)
	if !ok {
		edit := tgbotapi.NewEditMessageText(chatID, msgID, "Reminder not found")
		b.api.Send(edit)
		return
	}

	edit := tgbotapi.NewEditMessageText(chatID, msgID, formatReminder(row))
	edit.ParseMode = "HTML"
	kb := reminderKeyboard(id, row.Reminder.Done)
	edit.ReplyMarkup = &kb
	b.api.Send(edit)
}
