// Package knobs maps a MIDI control surface onto a sonification session.
package knobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rakyll/portmidi"

	"github.com/whyrusleeping/soundsight/sonify"
)

const (
	statusNoteOff = 0x80
	statusNoteOn  = 0x90
	statusCC      = 0xb0
)

// Default control change numbers.
const (
	VolumeKnob  = 1
	ScalingKnob = 2
)

type Target interface {
	SetMaxVolume(v float64) error
	SetScaling(sc sonify.Scaling) error
	ToggleMute() error
}

// EventReader is satisfied by *portmidi.Stream.
type EventReader interface {
	Read(max int) ([]portmidi.Event, error)
}

type Setter func(float64) error

type knobBind struct {
	mapf func(int64) float64
	sf   Setter
}

func (kb *knobBind) Update(val int64) error {
	return kb.sf(kb.mapf(val))
}

type Controller struct {
	target Target
	in     EventReader
	log    *slog.Logger

	lk        sync.Mutex
	knobsSeen map[int64]int64
	knobBinds map[int64]*knobBind
}

func NewController(in EventReader, target Target, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	mc := &Controller{
		target:    target,
		in:        in,
		log:       log.With("module", "knobs"),
		knobsSeen: make(map[int64]int64),
		knobBinds: make(map[int64]*knobBind),
	}

	mc.BindKnob(VolumeKnob, target.SetMaxVolume, VolumeRange)
	mc.BindKnob(ScalingKnob, func(v float64) error {
		return target.SetScaling(ScalingFor(v))
	}, func(v int64) float64 { return float64(v) })

	return mc
}

// Open starts portmidi and opens the given input device.
func Open(id portmidi.DeviceID, target Target, log *slog.Logger) (*Controller, func() error, error) {
	if err := portmidi.Initialize(); err != nil {
		return nil, nil, err
	}
	in, err := portmidi.NewInputStream(id, 1024)
	if err != nil {
		portmidi.Terminate()
		return nil, nil, err
	}

	closer := func() error {
		err := in.Close()
		portmidi.Terminate()
		return err
	}
	return NewController(in, target, log), closer, nil
}

// VolumeRange maps a 0..127 knob onto (0, 1].
func VolumeRange(v int64) float64 {
	if v < 1 {
		v = 1
	}
	if v > 127 {
		v = 127
	}
	return float64(v) / 127
}

// ScalingFor splits the knob range in thirds.
func ScalingFor(v float64) sonify.Scaling {
	switch {
	case v < 43:
		return sonify.Linear
	case v < 86:
		return sonify.Threshold
	default:
		return sonify.Exponential
	}
}

func (mc *Controller) BindKnob(knobid int64, s Setter, rangeMapFunc func(int64) float64) {
	if s == nil {
		mc.log.Warn("nil setter passed to bind knob", "knob", knobid)
		return
	}

	mc.lk.Lock()
	defer mc.lk.Unlock()
	mc.knobBinds[knobid] = &knobBind{
		mapf: rangeMapFunc,
		sf:   s,
	}
}

// LastValue reports the last raw value seen on a knob.
func (mc *Controller) LastValue(knobid int64) (int64, bool) {
	mc.lk.Lock()
	defer mc.lk.Unlock()
	v, ok := mc.knobsSeen[knobid]
	return v, ok
}

// Run polls the input until ctx is done.
func (mc *Controller) Run(ctx context.Context, poll time.Duration) error {
	tick := time.NewTicker(poll)
	defer tick.Stop()

	for {
		events, err := mc.in.Read(1024)
		if err != nil {
			return err
		}
		for _, ev := range events {
			mc.Handle(ev)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
		}
	}
}

// Handle applies one MIDI event.
func (mc *Controller) Handle(event portmidi.Event) {
	switch event.Status & 0xf0 {
	case statusNoteOn:
		if event.Data2 == 0 {
			// note on with zero velocity is a note off
			return
		}
		if err := mc.target.ToggleMute(); err != nil {
			mc.log.Warn("toggling mute", "err", err)
		}
	case statusNoteOff:
	case statusCC:
		mc.lk.Lock()
		mc.knobsSeen[event.Data1] = event.Data2
		kb, ok := mc.knobBinds[event.Data1]
		mc.lk.Unlock()

		if ok {
			if err := kb.Update(event.Data2); err != nil {
				mc.log.Warn("knob update failed", "knob", event.Data1, "value", event.Data2, "err", err)
			}
		}
	default:
		mc.log.Debug("ignoring midi event", "status", event.Status, "data1", event.Data1, "data2", event.Data2)
	}
}
