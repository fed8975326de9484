package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/whyrusleeping/soundsight/device"
	"github.com/whyrusleeping/soundsight/sonify"
)

func runSweep(args []string, log *slog.Logger) error {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	build := sessionFlags(fs)
	kind := fs.String("device", device.KindSpeaker, "audio output: speaker or oto")
	step := fs.Duration("step", 125*time.Millisecond, "how long each tone plays")
	fs.Parse(args)

	cfg, err := build()
	if err != nil {
		return err
	}
	dev, err := device.New(*kind)
	if err != nil {
		return err
	}
	eng, err := sonify.NewToneEngine(cfg, dev, sonify.EngineOptions{Logger: log})
	if err != nil {
		return err
	}
	if err := eng.Start(); err != nil {
		return err
	}
	defer eng.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return sweep(ctx, eng, cfg.MaxVolume, *step, log)
}

// sweep plays each tone alone for one step.
func sweep(ctx context.Context, eng sonify.ToneEngine, amp float64, step time.Duration, log *slog.Logger) error {
	tick := time.NewTicker(step)
	defer tick.Stop()

	for i := 0; i < eng.Len(); i++ {
		if i > 0 {
			if err := silenceTone(eng, i-1); err != nil {
				return err
			}
		}
		if err := eng.SetAmplitude(i, amp); err != nil {
			return err
		}
		if err := eng.Enable(i); err != nil {
			return err
		}
		if err := eng.Sync(); err != nil {
			return err
		}
		log.Debug("sweep", "tone", i)

		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
		}
	}

	if err := silenceTone(eng, eng.Len()-1); err != nil {
		return err
	}
	return eng.Sync()
}

func silenceTone(eng sonify.ToneEngine, i int) error {
	if err := eng.SetAmplitude(i, 0); err != nil {
		return err
	}
	return eng.Disable(i)
}
