package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/christopherklint97/timegrid/internal/config"
	"github.com/christopherklint97/timegrid/internal/host/mocks"
	"github.com/christopherklint97/timegrid/internal/week"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	snap week.Snapshot
	err  error
}

func (f fakeLoader) Load(context.Context) (week.Snapshot, error) {
	return f.snap, f.err
}

func at(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func weekdays() config.ReminderConfig {
	return config.ReminderConfig{Time: "16:30", WorkDays: []int{1, 2, 3, 4, 5}}
}

func TestNextReminder(t *testing.T) {
	s := New(weekdays(), nil, nil, nil, nil)

	// 2024-01-10 is a Wednesday.
	require.Equal(t, at("2024-01-10 16:30"), s.NextReminder(at("2024-01-10 09:00")))
	require.Equal(t, at("2024-01-11 16:30"), s.NextReminder(at("2024-01-10 16:30")))
	// Friday evening skips the weekend.
	require.Equal(t, at("2024-01-15 16:30"), s.NextReminder(at("2024-01-12 17:00")))

	none := New(config.ReminderConfig{Time: "16:30"}, nil, nil, nil, nil)
	require.True(t, none.NextReminder(at("2024-01-10 09:00")).IsZero())
}

func TestNextReminderBadTimeFallsBack(t *testing.T) {
	s := New(config.ReminderConfig{Time: "late", WorkDays: []int{3}}, nil, nil, nil, nil)
	require.Equal(t, at("2024-01-10 16:30"), s.NextReminder(at("2024-01-10 09:00")))
}

func snapshot() week.Snapshot {
	return week.NewSnapshot([]week.TimeEntry{
		{ID: "d1", ProjectID: "p1", TaskID: "t1", Date: "2024-01-08", Duration: 2, Status: week.StatusDraft},
		{ID: "d2", ProjectID: "p1", TaskID: "t1", Date: "2024-01-10", Duration: 3, Status: week.StatusDraft},
		{ID: "s1", ProjectID: "p1", TaskID: "t1", Date: "2024-01-11", Duration: 1, Status: week.StatusSubmitted},
	}, nil)
}

func TestCheckNotifiesTodaysDrafts(t *testing.T) {
	notifier := &mocks.Notifier{}
	notifier.On("Notify", "timegrid", "1 draft entry for Wed Jan 10 not submitted yet").Return(nil).Once()

	s := New(weekdays(), fakeLoader{snap: snapshot()}, notifier, nil, nil)
	msg, err := s.Check(context.Background(), at("2024-01-10 16:30"))
	require.NoError(t, err)
	require.NotEmpty(t, msg)
	notifier.AssertExpectations(t)
}

func TestCheckQuietWhenDaySubmitted(t *testing.T) {
	notifier := &mocks.Notifier{}
	s := New(weekdays(), fakeLoader{snap: snapshot()}, notifier, nil, nil)

	msg, err := s.Check(context.Background(), at("2024-01-11 16:30"))
	require.NoError(t, err)
	require.Empty(t, msg)
	notifier.AssertNotCalled(t, "Notify")
}

func TestCheckLastWorkDayCountsWeek(t *testing.T) {
	notifier := &mocks.Notifier{}
	notifier.On("Notify", "timegrid", "2 draft entries this week not submitted yet").Return(nil).Once()

	s := New(weekdays(), fakeLoader{snap: snapshot()}, notifier, nil, nil)
	_, err := s.Check(context.Background(), at("2024-01-12 16:30"))
	require.NoError(t, err)
	notifier.AssertExpectations(t)
}

func TestCheckErrors(t *testing.T) {
	s := New(weekdays(), fakeLoader{err: errors.New("offline")}, &mocks.Notifier{}, nil, nil)
	_, err := s.Check(context.Background(), at("2024-01-10 16:30"))
	require.ErrorContains(t, err, "loading entries")

	notifier := &mocks.Notifier{}
	notifier.On("Notify", "timegrid", mock.AnythingOfType("string")).Return(errors.New("no dbus"))
	s = New(weekdays(), fakeLoader{snap: snapshot()}, notifier, nil, nil)
	msg, err := s.Check(context.Background(), at("2024-01-10 16:30"))
	require.ErrorContains(t, err, "sending reminder")
	require.NotEmpty(t, msg)
}

func TestRunWritesAndRemovesPID(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	s := New(weekdays(), fakeLoader{}, &mocks.Notifier{}, nil, nil)
	go func() { done <- s.Run(ctx) }()

	pidFile := filepath.Join(home, ".config", "timegrid", "timegrid.pid")
	require.Eventually(t, func() bool {
		_, err := os.Stat(pidFile)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	pid, err := ReadPID()
	require.NoError(t, err)
	require.Equal(t, os.Getpid(), pid)

	cancel()
	require.NoError(t, <-done)
	_, err = os.Stat(pidFile)
	require.True(t, os.IsNotExist(err))
}
