package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gopxl/beep"
	"github.com/pkg/errors"

	"github.com/whyrusleeping/soundsight/device"
	"github.com/whyrusleeping/soundsight/frames"
	"github.com/whyrusleeping/soundsight/sonify"
)

func runRender(args []string, log *slog.Logger) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	build := sessionFlags(fs)
	out := fs.String("o", "out.wav", "output file")
	frameDur := fs.Duration("frame", 250*time.Millisecond, "duration of each frame")
	count := fs.Int("frames", 16, "number of frames to render from a test pattern")
	pattern := fs.String("pattern", string(frames.Bar), "test pattern when no images are given")
	fs.Parse(args)

	cfg, err := build()
	if err != nil {
		return err
	}

	src, err := frameSource(fs, cfg.Side, *pattern, false)
	if err != nil {
		return err
	}
	grids, err := collect(src, *count)
	if err != nil {
		return err
	}

	dev := new(device.Headless)
	eng, err := sonify.NewToneEngine(cfg, dev, sonify.EngineOptions{Logger: log})
	if err != nil {
		return err
	}
	sess, err := sonify.NewSession(cfg, eng, log)
	if err != nil {
		return err
	}
	if err := sess.Start(); err != nil {
		return err
	}
	defer sess.Close()

	perFrame := beep.SampleRate(cfg.SampleRate).N(*frameDur)

	var segs []beep.Streamer
	for i, g := range grids {
		segs = append(segs,
			beep.Callback(func() {
				if err := sess.Sonify(g); err != nil {
					log.Warn("sonifying frame failed", "frame", i, "err", err)
				}
			}),
			beep.Take(perFrame, dev.Streamer()),
		)
	}

	fi, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer fi.Close()

	if err := device.EncodeWAV(fi, cfg.SampleRate, beep.Seq(segs...)); err != nil {
		return err
	}

	log.Info("wrote wav", "path", *out, "frames", len(grids), "seconds", float64(perFrame*len(grids))/float64(cfg.SampleRate))
	return nil
}

// collect reads up to max grids from src. File sources stop at their end.
func collect(src frames.Source, max int) ([][][]uint8, error) {
	var out [][][]uint8
	for {
		if _, ok := src.(*frames.Pattern); ok && len(out) >= max {
			return out, nil
		}
		g, err := src.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
}
