package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/christopherklint97/timegrid/internal/config"
	"github.com/christopherklint97/timegrid/internal/host"
	"github.com/christopherklint97/timegrid/internal/week"
)

// Loader returns the current collections. *host.Session satisfies it.
type Loader interface {
	Load(ctx context.Context) (week.Snapshot, error)
}

// Scheduler reminds the user about unsubmitted drafts once per work day.
type Scheduler struct {
	cfg      config.ReminderConfig
	loader   Loader
	notifier host.Notifier
	logger   *slog.Logger
	out      io.Writer
}

func New(cfg config.ReminderConfig, loader Loader, notifier host.Notifier, logger *slog.Logger, out io.Writer) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if out == nil {
		out = io.Discard
	}
	return &Scheduler{cfg: cfg, loader: loader, notifier: notifier, logger: logger, out: out}
}

// Run waits for each reminder time until ctx is cancelled. While it runs, a
// PID file lets 'timegrid remind stop' find the process.
func (s *Scheduler) Run(ctx context.Context) error {
	path, err := pidPath()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer os.Remove(path)

	fmt.Fprintf(s.out, "Reminder started (at %s on %s)\n", s.cfg.Time, dayList(s.cfg.WorkDays))

	for {
		next := s.NextReminder(time.Now())
		if next.IsZero() {
			return fmt.Errorf("no work days configured")
		}
		fmt.Fprintf(s.out, "Next reminder %s\n", next.Format("Mon Jan 2 15:04"))

		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out, "\nReminder stopped.")
			return nil
		case <-time.After(time.Until(next)):
		}

		if _, err := s.Check(ctx, next); err != nil {
			s.logger.Error("reminder check failed", "error", err)
		}
	}
}

// NextReminder returns the first reminder time strictly after now, or the
// zero time when no work day is configured.
func (s *Scheduler) NextReminder(now time.Time) time.Time {
	h, m := parseTime(s.cfg.Time)
	for i := 0; i <= 7; i++ {
		d := now.AddDate(0, 0, i)
		at := time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, now.Location())
		if at.After(now) && s.isWorkDay(at) {
			return at
		}
	}
	return time.Time{}
}

// Check loads the collections and notifies about drafts left on the day of
// now. On the last work day of the week every draft of the week counts. It
// returns the message sent, or "" when nothing was pending.
func (s *Scheduler) Check(ctx context.Context, now time.Time) (string, error) {
	snap, err := s.loader.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("loading entries: %w", err)
	}

	w := week.ComputeWeek(now, snap.Entries)
	day, _ := w.Day(week.FormatDate(now))

	var msg string
	if s.isLastWorkDay(now) {
		if n := len(w.DraftIDs()); n > 0 {
			msg = fmt.Sprintf("%d draft %s this week not submitted yet", n, entries(n))
		}
	} else if n := len(week.DraftIDs(day)); n > 0 {
		msg = fmt.Sprintf("%d draft %s for %s not submitted yet", n, entries(n), now.Format("Mon Jan 2"))
	}

	if msg == "" {
		s.logger.Debug("no drafts pending", "date", week.FormatDate(now))
		return "", nil
	}

	s.logger.Info("sending reminder", "message", msg)
	if err := s.notifier.Notify("timegrid", msg); err != nil {
		return msg, fmt.Errorf("sending reminder: %w", err)
	}
	return msg, nil
}

func (s *Scheduler) isWorkDay(t time.Time) bool {
	wd := isoWeekday(t)
	for _, d := range s.cfg.WorkDays {
		if d == wd {
			return true
		}
	}
	return false
}

func (s *Scheduler) isLastWorkDay(t time.Time) bool {
	last := 0
	for _, d := range s.cfg.WorkDays {
		if d > last {
			last = d
		}
	}
	return isoWeekday(t) == last
}

func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // Sunday = 7
	}
	return wd
}

func parseTime(s string) (int, int) {
	if t, err := time.Parse("15:04", s); err == nil {
		return t.Hour(), t.Minute()
	}
	return 16, 30
}

func entries(n int) string {
	if n == 1 {
		return "entry"
	}
	return "entries"
}

func dayList(days []int) string {
	names := make([]string, 0, len(days))
	for _, d := range days {
		if d >= 1 && d <= 7 {
			names = append(names, time.Weekday(d%7).String()[:3])
		}
	}
	return strings.Join(names, ", ")
}

func pidPath() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	return filepath.Join(dir, "timegrid.pid"), nil
}

// ReadPID returns the process ID of a running reminder.
func ReadPID() (int, error) {
	path, err := pidPath()
	if err != nil {
		return 0, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("no running reminder found")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file")
	}
	return pid, nil
}
