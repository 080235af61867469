package notify

import (
	"errors"
	"testing"

	"github.com/christopherklint97/timegrid/internal/host"
	"github.com/stretchr/testify/require"
)

var _ host.Notifier = (*Desktop)(nil)

func TestDesktopNotify(t *testing.T) {
	var got []string
	d := &Desktop{send: func(title, message string) error {
		got = append(got, title, message)
		return nil
	}}

	require.NoError(t, d.Notify("timegrid", "Submitted 3 time entries"))
	require.Equal(t, []string{"timegrid", "Submitted 3 time entries"}, got)
}

func TestDesktopNotifyError(t *testing.T) {
	d := &Desktop{send: func(string, string) error { return errors.New("no dbus") }}
	require.ErrorContains(t, d.Notify("timegrid", "x"), "no dbus")
}
