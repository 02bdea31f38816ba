package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tazhate/reminders/config"
	"github.com/tazhate/reminders/internal/app"
	"github.com/tazhate/reminders/internal/domain"
	"github.com/tazhate/reminders/internal/remote"
	"github.com/tazhate/reminders/internal/tui"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "remind",
		Short: "🔔 Reminders in the terminal",
		Long: `Reminders keeps an ordered list of reminders and fires a notification
for each one at its time, repeating if asked to.

  remind                                   # interactive list and editor
  remind list                              # print the list
  remind add -t "Call mom" -a "2026-03-07 18:30" -r Daily
  remind delete 2                          # number from 'remind list'`,
		SilenceUsage: true,
		RunE:         runTUI,
	}

	rootCmd.AddCommand(newListCmd(), newAddCmd(), newDeleteCmd())
	return rootCmd
}

// reminders is what the commands and screens use, served by this process
// or by the daemon that owns the store.
type reminders interface {
	tui.Reminders
	List(ctx context.Context) ([]domain.Reminder, error)
}

// session is one command's view of the store. app is nil when another
// process owns the store and writes go through its API.
type session struct {
	reminders reminders
	app       *app.App
}

func (s *session) Close() error {
	if s.app != nil {
		return s.app.Close()
	}
	return nil
}

func openSession(ctx context.Context, cfg *config.Config) (*session, error) {
	a, err := app.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	owner, live, err := a.Owner(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	if !live {
		return &session{reminders: a.Reminders, app: a}, nil
	}
	a.Close()

	if owner.APIURL == "" {
		return nil, fmt.Errorf("reminders are open in %s; close it first", owner.Name)
	}
	log.Printf("Store owned by %s, using its API at %s", owner.Name, owner.APIURL)
	return &session{
		reminders: remote.New(owner.APIURL, cfg.APIUsername, cfg.APIPassword, cfg.Timezone),
	}, nil
}

func openCmdSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return openSession(ctx, cfg)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// лог в файл, иначе он ломает экран
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := tea.LogToFile(cfg.LogFile, "remind")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	p := tui.NewProgram(ctx, s.reminders)

	// без демона экран сам отвечает за уведомления
	if s.app != nil {
		s.app.Reminders.SetSender(tui.ProgramSender{Program: p})
		if err := s.app.Start(ctx); err != nil {
			return err
		}
	}

	_, err = p.Run()
	return err
}
