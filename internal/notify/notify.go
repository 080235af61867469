package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"
)

// Desktop sends notifications through the platform notification center.
type Desktop struct {
	send func(title, message string) error
}

func NewDesktop() *Desktop {
	return &Desktop{send: func(title, message string) error {
		return beeep.Notify(title, message, "")
	}}
}

func (d *Desktop) Notify(title, message string) error {
	if err := d.send(title, message); err != nil {
		return fmt.Errorf("sending desktop notification: %w", err)
	}
	return nil
}
