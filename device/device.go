// Package device opens audio output streams that pull mono samples from a
// callback on the device's own clock.
package device

import (
	"github.com/pkg/errors"
)

var ErrDeviceUnavailable = errors.New("audio device unavailable")

type Format int

const (
	Float32 Format = iota
	Int16
)

func (f Format) String() string {
	switch f {
	case Float32:
		return "float32"
	case Int16:
		return "int16"
	default:
		return "unknown"
	}
}

func ParseFormat(s string) (Format, error) {
	switch s {
	case "float32":
		return Float32, nil
	case "int16":
		return Int16, nil
	default:
		return 0, errors.Errorf("unknown sample format %q", s)
	}
}

type Config struct {
	SampleRate int

	// BufferFrames is the number of frames the device asks for per callback.
	BufferFrames int

	Format Format
}

// Callback fills out with mono samples, the first of which plays at
// deviceTime seconds. It is called from the device's goroutine and must not
// block.
type Callback func(out []float32, deviceTime float64)

type Device interface {
	Open(cfg Config, cb Callback) (Stream, error)
}

// Stream is an open device stream. Once Close returns the callback is not
// called again.
type Stream interface {
	Close() error
}

const (
	KindSpeaker  = "speaker"
	KindOto      = "oto"
	KindHeadless = "headless"
)

func New(kind string) (Device, error) {
	switch kind {
	case KindSpeaker:
		return new(Speaker), nil
	case KindOto:
		return new(Oto), nil
	case KindHeadless:
		return new(Headless), nil
	default:
		return nil, errors.Wrapf(ErrDeviceUnavailable, "unknown device %q", kind)
	}
}
