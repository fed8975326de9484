package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/whyrusleeping/soundsight/device"
	"github.com/whyrusleeping/soundsight/sonify"
	"github.com/whyrusleeping/soundsight/tones"
)

func init() {
	// sdl must be driven from the main thread
	runtime.LockOSThread()
}

type command struct {
	name  string
	usage string
	run   func(args []string, log *slog.Logger) error
}

var commands = []command{
	{"play", "sonify images or a test pattern through the speakers", runPlay},
	{"draw", "like play, with the visualiser window open", runDraw},
	{"render", "sonify frames offline into a WAV file", runRender},
	{"sweep", "play every tone on its own, lowest first", runSweep},
	{"curve", "print the curve position of every grid cell", runCurve},
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: soundsight [-v] <command> [flags] [images...]\n\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.name, c.usage)
	}
}

func main() {
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = usage
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	name := flag.Arg(0)
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(flag.Args()[1:], log); err != nil {
			log.Error(name+" failed", "err", err)
			os.Exit(1)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "unknown command %q\n", name)
	usage()
	os.Exit(2)
}

// sessionFlags registers the sonify.Config flags on fs. The returned func
// builds the config once fs has been parsed.
func sessionFlags(fs *flag.FlagSet) func() (sonify.Config, error) {
	def := sonify.DefaultConfig()

	side := fs.Int("side", def.Side, "grid side, a power of two")
	base := fs.Float64("base", def.BaseFrequency, "base frequency in Hz")
	octaves := fs.Float64("octaves", def.Octaves, "octaves spanned by the tones")
	shift := fs.Float64("shift", def.Shift, "semitone shift of the lowest tone")
	scaling := fs.String("scaling", string(def.Scaling), "intensity scaling: linear, threshold or exp")
	maxVol := fs.Float64("max-volume", def.MaxVolume, "amplitude of a full intensity cell")
	backend := fs.String("backend", string(def.Backend), "tone backend")
	transform := fs.String("transform", string(def.Transform), "spectral transform: rfft or fft")
	rate := fs.Int("rate", def.SampleRate, "sample rate in Hz")
	frameSize := fs.Int("frame-size", 0, "spectral frame size, 0 for one second")
	buffer := fs.Int("buffer", def.BufferFrames, "device buffer in frames")
	format := fs.String("format", def.Format.String(), "device sample format: float32 or int16")
	volume := fs.Float64("volume", def.Volume, "output gain")

	return func() (sonify.Config, error) {
		cfg := def
		cfg.Side = *side
		cfg.BaseFrequency = *base
		cfg.Octaves = *octaves
		cfg.Shift = *shift
		cfg.MaxVolume = *maxVol
		cfg.Backend = sonify.Backend(*backend)
		cfg.SampleRate = *rate
		cfg.FrameSize = *frameSize
		cfg.BufferFrames = *buffer
		cfg.Volume = *volume

		var err error
		if cfg.Scaling, err = sonify.ParseScaling(*scaling); err != nil {
			return cfg, err
		}
		if cfg.Transform, err = tones.ParseTransform(*transform); err != nil {
			return cfg, err
		}
		if cfg.Format, err = device.ParseFormat(*format); err != nil {
			return cfg, err
		}
		return cfg, cfg.Validate()
	}
}
