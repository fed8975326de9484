package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/whyrusleeping/soundsight/device"
	"github.com/whyrusleeping/soundsight/frames"
	"github.com/whyrusleeping/soundsight/sonify"
	"github.com/whyrusleeping/soundsight/tones"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestPrintCurve(t *testing.T) {
	var buf bytes.Buffer
	if err := printCurve(&buf, 4); err != nil {
		t.Fatal(err)
	}

	want := " 0  3  4  5\n 1  2  7  6\n14 13  8  9\n15 12 11 10\n"
	if buf.String() != want {
		t.Fatalf("got\n%s\nwant\n%s", buf.String(), want)
	}

	if err := printCurve(&buf, 5); err == nil {
		t.Fatal("expected error for side 5")
	}
}

func TestSessionFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	build := sessionFlags(fs)
	if err := fs.Parse([]string{"-side", "4", "-scaling", "exp", "-transform", "fft", "-format", "int16", "-rate", "8000"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := build()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Side != 4 || cfg.Scaling != sonify.Exponential || cfg.Transform != tones.FFT || cfg.Format != device.Int16 {
		t.Fatalf("flags not applied: %+v", cfg)
	}

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	build = sessionFlags(fs)
	fs.Parse([]string{"-scaling", "cubic"})
	if _, err := build(); err == nil {
		t.Fatal("expected error for unknown scaling")
	}
}

func TestCollect(t *testing.T) {
	p, err := frames.NewPattern(frames.Bar, 4)
	if err != nil {
		t.Fatal(err)
	}
	grids, err := collect(p, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(grids) != 3 || grids[2][0][2] != 255 {
		t.Fatalf("unexpected pattern frames: %v", grids)
	}
}

func TestSweep(t *testing.T) {
	cfg := sonify.DefaultConfig()
	cfg.Side = 2
	cfg.SampleRate = 8000

	dev := new(device.Headless)
	eng, err := sonify.NewToneEngine(cfg, dev, sonify.EngineOptions{Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Start(); err != nil {
		t.Fatal(err)
	}
	defer eng.Stop()

	if err := sweep(context.Background(), eng, 0.5, time.Millisecond, quiet); err != nil {
		t.Fatal(err)
	}

	snap := eng.(*sonify.SpectralEngine).Snapshot()
	if snap.Enabled() != 0 || snap.AmplitudeSum() != 0 {
		t.Fatal("sweep should end silent")
	}
}

type stuckEngine struct {
	sonify.ToneEngine
	failAt int
	synced int
}

var errStuck = errors.New("tone stuck")

func (e *stuckEngine) Len() int { return 4 }
func (e *stuckEngine) SetAmplitude(int, float64) error { return nil }
func (e *stuckEngine) Enable(int) error { return nil }
func (e *stuckEngine) Sync() error { e.synced++; return nil }

func (e *stuckEngine) Disable(i int) error {
	if i == e.failAt {
		return errStuck
	}
	return nil
}

func TestSweepReportsSilencingErrors(t *testing.T) {
	for _, failAt := range []int{1, 3} {
		eng := &stuckEngine{failAt: failAt}
		err := sweep(context.Background(), eng, 0.5, time.Millisecond, quiet)
		if !errors.Is(err, errStuck) {
			t.Fatalf("failing to silence tone %d: got %v", failAt, err)
		}
	}

	// the final tone failing must also skip the closing sync
	eng := &stuckEngine{failAt: 3}
	sweep(context.Background(), eng, 0.5, time.Millisecond, quiet)
	if eng.synced != 4 {
		t.Fatalf("synced %d times, want 4", eng.synced)
	}
}

func TestUsageListsCommands(t *testing.T) {
	for _, c := range commands {
		if strings.TrimSpace(c.usage) == "" || c.run == nil {
			t.Fatalf("command %q is incomplete", c.name)
		}
	}
}
