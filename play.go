package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rakyll/portmidi"
	"golang.org/x/sync/errgroup"

	"github.com/whyrusleeping/soundsight/console"
	"github.com/whyrusleeping/soundsight/device"
	"github.com/whyrusleeping/soundsight/frames"
	"github.com/whyrusleeping/soundsight/hilbert"
	"github.com/whyrusleeping/soundsight/knobs"
	"github.com/whyrusleeping/soundsight/render"
	"github.com/whyrusleeping/soundsight/sonify"
	"github.com/whyrusleeping/soundsight/viz"
)

type playOpts struct {
	device  string
	fps     float64
	pattern string
	loop    bool
	midi    int
	console bool
	viz     bool
}

func playFlags(fs *flag.FlagSet) *playOpts {
	o := new(playOpts)
	fs.StringVar(&o.device, "device", device.KindSpeaker, "audio output: speaker or oto")
	fs.Float64Var(&o.fps, "fps", 4, "frames per second")
	fs.StringVar(&o.pattern, "pattern", string(frames.Bar), "test pattern when no images are given: bar, square or noise")
	fs.BoolVar(&o.loop, "loop", true, "cycle through the images")
	fs.IntVar(&o.midi, "midi", -1, "portmidi input device id for the knobs, -1 for none")
	fs.BoolVar(&o.console, "console", false, "read commands from the terminal")
	return o
}

func runPlay(args []string, log *slog.Logger) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	build := sessionFlags(fs)
	opts := playFlags(fs)
	fs.Parse(args)
	return play(fs, build, opts, log)
}

func runDraw(args []string, log *slog.Logger) error {
	fs := flag.NewFlagSet("draw", flag.ExitOnError)
	build := sessionFlags(fs)
	opts := playFlags(fs)
	fs.Parse(args)
	opts.viz = true
	return play(fs, build, opts, log)
}

func frameSource(fs *flag.FlagSet, side int, pattern string, loop bool) (frames.Source, error) {
	if fs.NArg() > 0 {
		return frames.NewFiles(side, loop, fs.Args()...)
	}
	return frames.NewPattern(frames.PatternKind(pattern), side)
}

func play(fs *flag.FlagSet, build func() (sonify.Config, error), opts *playOpts, log *slog.Logger) error {
	cfg, err := build()
	if err != nil {
		return err
	}
	if opts.device == device.KindHeadless {
		return errors.New("play needs a real output device, use render for offline output")
	}

	src, err := frameSource(fs, cfg.Side, opts.pattern, opts.loop)
	if err != nil {
		return err
	}

	dev, err := device.New(opts.device)
	if err != nil {
		return err
	}

	var tap *render.Tap
	if opts.viz {
		tap = render.NewTap(cfg.SampleRate / 10)
	}

	eng, err := sonify.NewToneEngine(cfg, dev, sonify.EngineOptions{
		Logger: log,
		Tap:    tap,
		OnError: func(err error) {
			log.Warn("render error", "err", err)
		},
	})
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

	sigctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return frames.Run(ctx, src, sess, opts.fps, log)
	})

	if opts.midi >= 0 {
		mc, closeMidi, err := knobs.Open(portmidi.DeviceID(opts.midi), sess, log)
		if err != nil {
			cancel()
			g.Wait()
			return errors.Wrap(err, "opening midi input")
		}
		defer closeMidi()
		g.Go(func() error {
			return mc.Run(ctx, 10*time.Millisecond)
		})
	}

	if opts.console {
		con := console.New(sess, os.Stdout, log)
		go func() {
			con.Run(ctx)
			cancel()
		}()
	}

	if opts.viz {
		curve, err := hilbert.NewIndexer().Table(cfg.Side)
		if err != nil {
			cancel()
			g.Wait()
			return err
		}
		win := viz.New(sess, tap, curve, log)
		if err := win.Run(ctx); err != nil {
			log.Error("visualiser failed", "err", err)
		}
		cancel()
	}

	return g.Wait()
}
