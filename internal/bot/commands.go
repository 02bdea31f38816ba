package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tazhate/reminders/internal/domain"
	"github.com/tazhate/reminders/internal/service"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())

	switch cmd {
	case "start":
		b.cmdStart(msg)
	case "help":
		b.cmdHelp(chatID)
	case "add":
		b.cmdAdd(ctx, chatID, args)
	case "list":
		b.cmdList(ctx, chatID)
	case "del":
		b.cmdDelete(ctx, chatID, args)
	default:
		b.SendMessage(chatID, "Unknown command. /help lists them")
	}
}

func (b *Bot) cmdStart(msg *tgbotapi.Message) {
	name := msg.From.FirstName
	if name == "" {
		name = msg.From.UserName
	}
	b.SendMessage(msg.Chat.ID, fmt.Sprintf("👋 Hi, %s! Reminders you create here will ping this chat.\n\n/help for commands", html.EscapeString(name)))
}

func (b *Bot) cmdHelp(chatID int64) {
	text := `<b>Commands</b>

/list — all reminders
/add title | YYYY-MM-DD HH:MM — new reminder
/add title | HH:MM | Daily — repeating
/add title | HH:MM | By the Minute | 15 — every 15 minutes
/del N — delete reminder N

Repeat: ` + repeatNames()
	b.SendMessage(chatID, text)
}

func repeatNames() string {
	names := make([]string, len(domain.Repeats))
	for i, r := range domain.Repeats {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

func (b *Bot) cmdAdd(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.SendMessage(chatID, "Usage: /add title | YYYY-MM-DD HH:MM [| repeat [| minutes]]")
		return
	}

	params, err := parseAddArgs(args, b.reminderService.Now())
	if err != nil {
		b.SendMessage(chatID, "❌ "+html.EscapeString(err.Error()))
		return
	}

	rem, err := b.reminderService.Save(ctx, params)
	if err != nil {
		if service.IsValidation(err) {
			b.SendMessage(chatID, "❌ "+err.Error())
			return
		}
		log.Printf("Error saving reminder: %v", err)
		b.SendMessage(chatID, "❌ Could not save the reminder")
		return
	}

	row := service.Rows([]domain.Reminder{*rem}, b.reminderService.Now())[0]
	b.SendMessage(chatID, fmt.Sprintf("✅ <b>%s</b>\n%s", html.EscapeString(rem.Title), row.When()))
}

func (b *Bot) cmdList(ctx context.Context, chatID int64) {
	rows, err := b.reminderService.Rows(ctx)
	if err != nil {
		log.Printf("Error loading reminders: %v", err)
		b.SendMessage(chatID, "❌ Could not load reminders")
		return
	}

	text := formatReminderList(rows, 0)
	if kb := reminderListKeyboard(rows, 0); kb != nil {
		b.SendMessageWithKeyboard(chatID, text, *kb)
		return
	}
	b.SendMessage(chatID, text)
}

func (b *Bot) cmdDelete(ctx context.Context, chatID int64, args string) {
	n, err := strconv.Atoi(args)
	if err != nil || n < 1 {
		b.SendMessage(chatID, "Usage: /del N (number from /list)")
		return
	}

	list, err := b.reminderService.List(ctx)
	if err != nil {
		log.Printf("Error loading reminders: %v", err)
		b.SendMessage(chatID, "❌ Could not load reminders")
		return
	}
	if n > len(list) {
		b.SendMessage(chatID, fmt.Sprintf("No reminder #%d", n))
		return
	}

	rem := list[n-1]
	if err := b.reminderService.Delete(ctx, domain.ParamsFor(n-1, rem)); err != nil {
		log.Printf("Error deleting reminder: %v", err)
		b.SendMessage(chatID, "❌ Could not delete the reminder")
		return
	}
	b.SendMessage(chatID, fmt.Sprintf("🗑 Deleted: %s", html.EscapeString(rem.Title)))
}

// parseAddArgs reads "title | when [| repeat [| minutes]]". when is either
// "YYYY-MM-DD HH:MM" or a bare "HH:MM", meaning its next occurrence.
func parseAddArgs(args string, now time.Time) (domain.Params, error) {
	parts := strings.Split(args, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 {
		return domain.Params{}, errors.New("expected: title | YYYY-MM-DD HH:MM")
	}

	p := domain.NewParams(now)
	p.Title = parts[0]

	at, err := parseWhen(parts[1], now)
	if err != nil {
		return domain.Params{}, err
	}
	p.Date = at

	if len(parts) > 2 && parts[2] != "" {
		repeat, err := parseRepeatArg(parts[2])
		if err != nil {
			return domain.Params{}, err
		}
		p.Repeat = repeat
	}

	if len(parts) > 3 && parts[3] != "" {
		minutes, err := strconv.Atoi(parts[3])
		if err != nil {
			return domain.Params{}, fmt.Errorf("bad minutes: %q", parts[3])
		}
		p.Minutes = minutes
	}

	return p, nil
}

func parseWhen(s string, now time.Time) (time.Time, error) {
	loc := now.Location()
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, loc); err == nil {
		return t, nil
	}

	clock, err := time.ParseInLocation("15:04", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date: %q", s)
	}
	at := domain.MergeDateTime(now, clock)
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at, nil
}

// parseRepeatArg is case-insensitive, "by the minute" and "minute" both work.
func parseRepeatArg(s string) (domain.Repeat, error) {
	if strings.EqualFold(s, "minute") {
		return domain.RepeatByMinute, nil
	}
	for _, r := range domain.Repeats {
		if strings.EqualFold(string(r), s) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown repeat %q, one of: %s", s, repeatNames())
}

func formatReminderList(rows []service.Row, page int) string {
	if len(rows) == 0 {
		return "No reminders. Create a new one!"
	}

	start, end := pageBounds(len(rows), page)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔔 <b>Reminders</b> (%d)\n\n", len(rows)))
	for _, row := range rows[start:end] {
		r := row.Reminder
		mark := ""
		if r.Done {
			mark = "✅ "
		}
		title := html.EscapeString(r.Title)
		if row.Overdue {
			title = "⚠️ " + title
		}
		sb.WriteString(fmt.Sprintf("%d. %s<b>%s</b>\n   %s\n", row.Index+1, mark, title, row.When()))
	}
	return sb.String()
}

func formatReminder(row service.Row) string {
	r := row.Reminder
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔔 <b>%s</b>\n\n", html.EscapeString(r.Title)))
	sb.WriteString("📅 " + row.When() + "\n")
	if row.Overdue {
		sb.WriteString("⚠️ Overdue\n")
	}
	if r.ShouldSpeak {
		sb.WriteString("🗣 " + html.EscapeString(r.Message) + "\n")
	}
	return sb.String()
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
