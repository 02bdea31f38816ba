package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tazhate/reminders/internal/domain"
	"github.com/tazhate/reminders/internal/service"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print all reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openCmdSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			rows, err := s.reminders.Rows(cmd.Context())
			if err != nil {
				return err
			}
			printRows(cmd.OutOrStdout(), rows)
			return nil
		},
	}
}

func printRows(w io.Writer, rows []service.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No reminders. Create a new one!")
		return
	}
	for _, row := range rows {
		check := "[ ]"
		if row.Reminder.Done {
			check = "[x]"
		}
		overdue := ""
		if row.Overdue {
			overdue = "  (overdue)"
		}
		fmt.Fprintf(w, "%2d. %s %s\n    %s%s\n", row.Index+1, check, row.Reminder.Title, row.When(), overdue)
	}
}

type addFlags struct {
	title   string
	at      string
	repeat  string
	minutes int
	message string
}

func newAddCmd() *cobra.Command {
	var f addFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a reminder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openCmdSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			p, err := f.params(s.reminders.Now())
			if err != nil {
				return err
			}

			rem, err := s.reminders.Save(cmd.Context(), p)
			if err != nil {
				return err
			}
			row := service.Rows([]domain.Reminder{*rem}, s.reminders.Now())[0]
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s\n    %s\n", rem.Title, row.When())
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.title, "title", "t", "", "Reminder title")
	cmd.Flags().StringVarP(&f.at, "at", "a", "", "Date and time, YYYY-MM-DD HH:MM (default: in one hour)")
	cmd.Flags().StringVarP(&f.repeat, "repeat", "r", string(domain.RepeatNever), "Never, By the Minute, Hourly, Daily, Weekly, Monthly or Yearly")
	cmd.Flags().IntVarP(&f.minutes, "minutes", "m", 1, "Interval for By the Minute")
	cmd.Flags().StringVar(&f.message, "say", "", "Message to announce when it fires")
	cmd.MarkFlagRequired("title")

	return cmd
}

func (f addFlags) params(now time.Time) (domain.Params, error) {
	p := domain.NewParams(now)
	p.Title = f.title
	p.Repeat = domain.Repeat(f.repeat)
	p.Minutes = f.minutes

	if f.at != "" {
		at, err := time.ParseInLocation("2006-01-02 15:04", f.at, now.Location())
		if err != nil {
			return p, fmt.Errorf("bad --at %q, want YYYY-MM-DD HH:MM", f.at)
		}
		p.Date = at
	}
	if f.message != "" {
		p.ShouldSpeak = true
		p.Message = f.message
	}
	return p, nil
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <number>",
		Short: "Delete a reminder by its number in 'remind list'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("bad reminder number: %q", args[0])
			}

			s, err := openCmdSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			list, err := s.reminders.List(cmd.Context())
			if err != nil {
				return err
			}
			if n > len(list) {
				return fmt.Errorf("no reminder #%d", n)
			}

			rem := list[n-1]
			if err := s.reminders.Delete(cmd.Context(), domain.ParamsFor(n-1, rem)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🗑 Deleted: %s\n", rem.Title)
			return nil
		},
	}
}
