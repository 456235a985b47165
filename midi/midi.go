// Package midi feeds MIDI note input into the broker: by default to the
// engine as preview notes, or to the editing model as pitch entry when the
// broker routes MIDI there.
package midi

import (
	"errors"
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/rytmi/rytmi"
)

type (
	RTMIDIContext struct {
		broker    *rytmi.Broker
		driver    *rtmididrv.Driver
		currentIn drivers.In
		stop      func()

		// previewTrack is the track preview notes land on when MIDI routes to
		// the engine. Set by the UI whenever the active track changes.
		previewTrack rytmi.TrackID
	}

	RTMIDIDevice struct {
		context *RTMIDIContext
		in      drivers.In
	}
)

// NewContext opens the driver. A nil driver just means no MIDI is available
// and every operation is a no-op.
func NewContext(broker *rytmi.Broker) *RTMIDIContext {
	m := &RTMIDIContext{broker: broker}
	m.driver, _ = rtmididrv.New()
	return m
}

// SetPreviewTrack sets which track preview notes trigger.
func (c *RTMIDIContext) SetPreviewTrack(id rytmi.TrackID) {
	c.previewTrack = id
}

// InputDevices lists the currently available MIDI inputs.
func (c *RTMIDIContext) InputDevices() []RTMIDIDevice {
	if c.driver == nil {
		return nil
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return nil
	}
	ret := make([]RTMIDIDevice, 0, len(ins))
	for _, in := range ins {
		ret = append(ret, RTMIDIDevice{context: c, in: in})
	}
	return ret
}

// TryToOpenBy opens the first input whose name starts with namePrefix, or
// just the first input when takeFirst is set.
func (c *RTMIDIContext) TryToOpenBy(namePrefix string, takeFirst bool) {
	if namePrefix == "" && !takeFirst {
		return
	}
	for _, device := range c.InputDevices() {
		if takeFirst || strings.HasPrefix(device.String(), namePrefix) {
			device.Open()
			return
		}
	}
}

// Open an input device while closing the currently open one if necessary.
func (d RTMIDIDevice) Open() error {
	c := d.context
	if c.currentIn == d.in {
		return nil
	}
	if c.driver == nil {
		return errors.New("no driver available")
	}
	if c.HasDeviceOpen() {
		c.closeCurrent()
	}
	c.currentIn = d.in
	if err := d.in.Open(); err != nil {
		c.currentIn = nil
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	stop, err := midi.ListenTo(d.in, c.handleMessage)
	if err != nil {
		d.in.Close()
		c.currentIn = nil
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	c.stop = stop
	return nil
}

func (d RTMIDIDevice) String() string {
	return d.in.String()
}

func (c *RTMIDIContext) HasDeviceOpen() bool {
	return c.currentIn != nil && c.currentIn.IsOpen()
}

func (c *RTMIDIContext) Close() {
	if c.driver == nil {
		return
	}
	c.closeCurrent()
	c.driver.Close()
}

func (c *RTMIDIContext) closeCurrent() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	if c.currentIn != nil && c.currentIn.IsOpen() {
		c.currentIn.Close()
	}
	c.currentIn = nil
}

// handleMessage runs on the driver's callback goroutine; everything it does
// is a non-blocking send through the broker.
func (c *RTMIDIContext) handleMessage(msg midi.Message, timestampms int32) {
	var channel, key, velocity uint8
	switch {
	case msg.GetNoteStart(&channel, &key, &velocity):
		c.broker.TrySendToMIDI(rytmi.MsgNoteOn{
			TrackID:  c.previewTrack,
			Pitch:    int(key),
			Velocity: float64(velocity) / 127,
		})
	case msg.GetNoteEnd(&channel, &key):
		c.broker.TrySendToMIDI(rytmi.MsgNoteOff{
			TrackID: c.previewTrack,
			Pitch:   int(key),
		})
	}
}
