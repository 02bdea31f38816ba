package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tazhate/reminders/config"
	"github.com/tazhate/reminders/internal/app"
	"github.com/tazhate/reminders/internal/bot"
	"github.com/tazhate/reminders/internal/storage"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Загрузка конфига
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage, scheduler, service
	a, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}
	defer a.Close()

	// Инициализация бота
	tgBot, err := bot.New(cfg, a.Reminders)
	if err != nil {
		log.Fatalf("Failed to init bot: %v", err)
	}
	if cfg.TelegramEnabled() {
		a.Reminders.SetSender(tgBot)
	} else {
		log.Println("Telegram is not configured, fired reminders go to the log")
	}

	// remind шлёт изменения через API, пока демон владеет хранилищем
	a.Lease.SetAPIURL(cfg.AdvertisedAPIURL())
	if cfg.AdvertisedAPIURL() == "" {
		log.Println("API is off, remind cannot write while the daemon runs")
	}

	// Restore + запуск scheduler
	if err := a.Start(ctx); err != nil {
		if errors.Is(err, storage.ErrOwned) {
			log.Fatalf("Store is busy, close remind first: %v", err)
		}
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Запуск бота в горутине
	go func() {
		if err := tgBot.Start(ctx); err != nil {
			log.Printf("Bot error: %v", err)
		}
	}()

	log.Println("Reminders daemon started")

	// Ожидание сигнала завершения
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := tgBot.Stop(shutdownCtx); err != nil {
		log.Printf("Error stopping bot: %v", err)
	}

	log.Println("Reminders daemon stopped")
}
