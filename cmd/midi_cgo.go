//go:build cgo

package cmd

import (
	"github.com/microtonal/tetrachord/midi"
	"github.com/microtonal/tetrachord/midi/rtmidi"
)

func NewMidiContext() midi.Context {
	return rtmidi.NewContext()
}
