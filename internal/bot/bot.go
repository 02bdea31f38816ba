package bot

import (
	"context"
	"fmt"
	"html"
	"log"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tazhate/reminders/config"
	"github.com/tazhate/reminders/internal/service"
)

// Bot is the daemon's outer surface: Telegram commands and delivery, plus
// the HTTP server with health, metrics and the REST API. Without a Telegram
// token only the HTTP part runs.
type Bot struct {
	api             *tgbotapi.BotAPI
	cfg             *config.Config
	reminderService *service.ReminderService
	mux             *http.ServeMux
	server          *http.Server
}

func New(cfg *config.Config, reminderSvc *service.ReminderService) (*Bot, error) {
	bot := &Bot{
		cfg:             cfg,
		reminderService: reminderSvc,
		mux:             http.NewServeMux(),
	}
	bot.server = &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: bot.mux,
	}

	if cfg.TelegramEnabled() {
		api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			return nil, fmt.Errorf("create bot api: %w", err)
		}
		log.Printf("Authorized as @%s", api.Self.UserName)
		bot.api = api

		// Set bot commands (menu button)
		bot.setCommands()
	}

	bot.mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	bot.mux.Handle("/metrics", promhttp.Handler())
	bot.SetupAPI()

	return bot, nil
}

func (b *Bot) setCommands() {
	commands := []tgbotapi.BotCommand{
		{Command: "list", Description: "🔔 My reminders"},
		{Command: "add", Description: "➕ New reminder"},
		{Command: "help", Description: "❓ Commands"},
	}

	cfg := tgbotapi.NewSetMyCommands(commands...)
	if _, err := b.api.Request(cfg); err != nil {
		log.Printf("Failed to set commands: %v", err)
	}
}

// Handler exposes the HTTP routes, mostly for tests.
func (b *Bot) Handler() http.Handler {
	return b.mux
}

func (b *Bot) setupWebhook() (tgbotapi.UpdatesChannel, error) {
	webhookURL := b.cfg.WebhookURL + "/bot"

	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("create webhook: %w", err)
	}

	if _, err := b.api.Request(wh); err != nil {
		return nil, fmt.Errorf("set webhook: %w", err)
	}

	info, err := b.api.GetWebhookInfo()
	if err != nil {
		return nil, fmt.Errorf("get webhook info: %w", err)
	}

	if info.LastErrorDate != 0 {
		log.Printf("Webhook last error: %s", info.LastErrorMessage)
	}

	log.Printf("Webhook set to: %s", webhookURL)
	return b.listenForWebhook("/bot"), nil
}

func (b *Bot) listenForWebhook(pattern string) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update, b.api.Buffer)

	b.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		update, err := b.api.HandleUpdate(r)
		if err != nil {
			log.Printf("Error reading webhook update: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ch <- *update
	})

	return ch
}

func (b *Bot) updates() (tgbotapi.UpdatesChannel, error) {
	if b.api == nil {
		return nil, nil
	}
	if b.cfg.WebhookURL != "" {
		return b.setupWebhook()
	}

	// без webhook — long polling
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		log.Printf("Failed to delete webhook: %v", err)
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	return b.api.GetUpdatesChan(u), nil
}

func (b *Bot) Start(ctx context.Context) error {
	updates, err := b.updates()
	if err != nil {
		return err
	}

	go func() {
		log.Printf("Starting HTTP server on :%s", b.cfg.ServerPort)
		if err := b.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			if b.api != nil && b.cfg.WebhookURL == "" {
				b.api.StopReceivingUpdates()
			}
			return nil
		case update, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// Stop shuts the HTTP server down; safe to call before Start.
func (b *Bot) Stop(ctx context.Context) error {
	return b.server.Shutdown(ctx)
}

func (b *Bot) SendMessage(chatID int64, text string) error {
	if b.api == nil {
		return fmt.Errorf("telegram is not configured")
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) SendMessageWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	if b.api == nil {
		return fmt.Errorf("telegram is not configured")
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	msg.ReplyMarkup = keyboard
	_, err := b.api.Send(msg)
	return err
}

// Notify delivers a fired reminder to the owner chat.
func (b *Bot) Notify(_ context.Context, n service.Notification) error {
	return b.SendMessage(b.cfg.OwnerTelegramID, notificationText(n))
}

func notificationText(n service.Notification) string {
	text := "🔔 <b>Reminder</b>\n\n" + html.EscapeString(n.Title)
	if n.Message != "" {
		text += "\n\n🗣 <i>" + html.EscapeString(n.Message) + "</i>"
	}
	return text
}
