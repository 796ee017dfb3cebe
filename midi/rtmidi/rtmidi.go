//go:build cgo

// Package rtmidi implements midi.Context with the rtmidi driver. It needs cgo;
// import it only from files built with the cgo tag.
package rtmidi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/microtonal/tetrachord/midi"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

type (
	RTMIDIContext struct {
		driver     *rtmididrv.Driver
		currentIn  drivers.In
		currentOut drivers.Out
		stopListen func()
		send       func(gomidi.Message) error
		events     chan gomidi.Message
	}

	RTMIDIDevice struct {
		port drivers.Port
	}
)

// NewContext opens the driver. When that fails the context has no devices,
// and opening one returns midi.ErrNoDevice.
func NewContext() *RTMIDIContext {
	m := RTMIDIContext{events: make(chan gomidi.Message, 1024)}
	m.driver, _ = rtmididrv.New()
	return &m
}

func (m *RTMIDIContext) InputDevices(yield func(midi.Device) bool) {
	if m.driver == nil {
		return
	}
	ins, err := m.driver.Ins()
	if err != nil {
		return
	}
	for _, in := range ins {
		if !yield(RTMIDIDevice{port: in}) {
			break
		}
	}
}

func (m *RTMIDIContext) OutputDevices(yield func(midi.Device) bool) {
	if m.driver == nil {
		return
	}
	outs, err := m.driver.Outs()
	if err != nil {
		return
	}
	for _, out := range outs {
		if !yield(RTMIDIDevice{port: out}) {
			break
		}
	}
}

// OpenInput opens the first input whose name starts with namePrefix (or the
// first input at all, with takeFirst), closing the one open before.
func (m *RTMIDIContext) OpenInput(namePrefix string, takeFirst bool) error {
	if m.driver == nil {
		return midi.ErrNoDevice
	}
	ins, err := m.driver.Ins()
	if err != nil {
		return fmt.Errorf("listing MIDI inputs failed: %w", err)
	}
	in, err := find(ins, namePrefix, takeFirst)
	if err != nil {
		return err
	}
	m.closeInput()
	if err := in.Open(); err != nil {
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	stop, err := gomidi.ListenTo(in, m.handleMessage)
	if err != nil {
		in.Close()
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	m.currentIn, m.stopListen = in, stop
	return nil
}

func (m *RTMIDIContext) OpenOutput(namePrefix string, takeFirst bool) error {
	if m.driver == nil {
		return midi.ErrNoDevice
	}
	outs, err := m.driver.Outs()
	if err != nil {
		return fmt.Errorf("listing MIDI outputs failed: %w", err)
	}
	out, err := find(outs, namePrefix, takeFirst)
	if err != nil {
		return err
	}
	m.closeOutput()
	send, err := gomidi.SendTo(out)
	if err != nil {
		return fmt.Errorf("opening MIDI output failed: %w", err)
	}
	m.currentOut, m.send = out, send
	return nil
}

func (m *RTMIDIContext) Events() <-chan gomidi.Message {
	return m.events
}

func (m *RTMIDIContext) Send(msg gomidi.Message) error {
	if m.send == nil {
		return errors.New("no MIDI output open")
	}
	return m.send(msg)
}

func (m *RTMIDIContext) handleMessage(msg gomidi.Message, timestampms int32) {
	select {
	case m.events <- msg: // if the channel is full, just drop the message
	default:
	}
}

func (m *RTMIDIContext) Close() {
	if m.driver == nil {
		return
	}
	m.closeInput()
	m.closeOutput()
	m.driver.Close()
}

func (m *RTMIDIContext) closeInput() {
	if m.stopListen != nil {
		m.stopListen()
		m.stopListen = nil
	}
	if m.currentIn != nil && m.currentIn.IsOpen() {
		m.currentIn.Close()
	}
	m.currentIn = nil
}

func (m *RTMIDIContext) closeOutput() {
	if m.currentOut != nil && m.currentOut.IsOpen() {
		m.currentOut.Close()
	}
	m.currentOut, m.send = nil, nil
}

func (d RTMIDIDevice) String() string {
	return d.port.String()
}

func find[P drivers.Port](ports []P, namePrefix string, takeFirst bool) (P, error) {
	var zero P
	if namePrefix == "" && !takeFirst {
		return zero, fmt.Errorf("%w: no device name given", midi.ErrNoDevice)
	}
	for _, port := range ports {
		if takeFirst || strings.HasPrefix(port.String(), namePrefix) {
			return port, nil
		}
	}
	if takeFirst {
		return zero, fmt.Errorf("%w: could not find any MIDI port", midi.ErrNoDevice)
	}
	return zero, fmt.Errorf("%w: could not find any MIDI port starting with %q", midi.ErrNoDevice, namePrefix)
}
