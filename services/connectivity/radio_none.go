package connectivity

import (
	"context"
	"errors"
)

var errNoRadio = errors.New("no wireless interface on this board")

// NoRadio is the radio of a board without a wireless chip. It never
// associates.
type NoRadio struct{}

func (NoRadio) Connect(context.Context) error { return errNoRadio }
func (NoRadio) Associated() bool              { return false }
