// Package console is a small interactive command line for a running
// session.
package console

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/pkg/errors"

	"github.com/whyrusleeping/soundsight/sonify"
	"github.com/whyrusleeping/soundsight/spectral"
)

var ErrUnknownCommand = errors.New("unknown command")

type Target interface {
	SetMaxVolume(v float64) error
	SetScaling(sc sonify.Scaling) error
	Silence() error
	ToggleMute() error
	Top(n int) ([]spectral.Peak, error)
	Status() sonify.Status
}

type Console struct {
	target Target
	out    io.Writer
	log    *slog.Logger
}

func New(target Target, out io.Writer, log *slog.Logger) *Console {
	if log == nil {
		log = slog.Default()
	}
	return &Console{target: target, out: out, log: log.With("module", "console")}
}

var commands = []prompt.Suggest{
	{Text: "volume", Description: "set the max volume, 0 < v <= 1"},
	{Text: "scaling", Description: "set intensity scaling: linear, threshold or exp"},
	{Text: "silence", Description: "silence every tone until the next frame"},
	{Text: "mute", Description: "toggle mute"},
	{Text: "top", Description: "list the loudest tones"},
	{Text: "status", Description: "show session state"},
	{Text: "help", Description: "list commands"},
	{Text: "exit", Description: "leave the console"},
}

var scalings = []prompt.Suggest{
	{Text: string(sonify.Linear)},
	{Text: string(sonify.Threshold)},
	{Text: string(sonify.Exponential)},
}

// Exec runs one command line.
func (c *Console) Exec(line string) error {
	tokens, err := tokenize(line)
	if err != nil {
		return err
	}
	a := args(tokens)
	if len(a) == 0 {
		return nil
	}

	switch a[0] {
	case "volume":
		if len(a) != 2 {
			return errors.New("usage: volume <value>")
		}
		v, err := strconv.ParseFloat(a[1], 64)
		if err != nil {
			return errors.Wrapf(err, "parsing volume %q", a[1])
		}
		return c.target.SetMaxVolume(v)

	case "scaling":
		if len(a) != 2 {
			return errors.New("usage: scaling <linear|threshold|exp>")
		}
		sc, err := sonify.ParseScaling(a[1])
		if err != nil {
			return err
		}
		return c.target.SetScaling(sc)

	case "silence":
		return c.target.Silence()

	case "mute":
		return c.target.ToggleMute()

	case "top":
		n := 5
		if len(a) > 1 {
			n, err = strconv.Atoi(a[1])
			if err != nil || n <= 0 {
				return errors.Errorf("top wants a positive count, got %q", a[1])
			}
		}
		peaks, err := c.target.Top(n)
		if err != nil {
			return err
		}
		for i, p := range peaks {
			fmt.Fprintf(c.out, "%2d  bin %6d  %9.2f Hz  %.4f\n", i+1, p.Bin, p.Frequency, p.Amplitude)
		}
		return nil

	case "status":
		st := c.target.Status()
		fmt.Fprintf(c.out, "side %d, %d tones (%d on), scaling %s, max volume %.3f, muted %v, streaming %v, %d frames\n",
			st.Side, st.Tones, st.Enabled, st.Scaling, st.MaxVolume, st.Muted, st.Streaming, st.Frames)
		return nil

	case "help":
		for _, s := range commands {
			fmt.Fprintf(c.out, "%-8s %s\n", s.Text, s.Description)
		}
		return nil

	default:
		return errors.Wrapf(ErrUnknownCommand, "%q", a[0])
	}
}

func (c *Console) Completer(d prompt.Document) []prompt.Suggest {
	before := d.TextBeforeCursor()
	fields := strings.Fields(before)
	word := d.GetWordBeforeCursor()

	if len(fields) == 0 || (len(fields) == 1 && word != "") {
		return prompt.FilterHasPrefix(commands, word, true)
	}
	if fields[0] == "scaling" {
		return prompt.FilterHasPrefix(scalings, word, true)
	}
	return nil
}

// Run reads commands until exit or ctx is done. Input blocks, so ctx is only
// checked between lines.
func (c *Console) Run(ctx context.Context) {
	for ctx.Err() == nil {
		line := strings.TrimSpace(prompt.Input("> ", c.Completer))
		if line == "exit" || line == "quit" {
			return
		}
		if err := c.Exec(line); err != nil {
			fmt.Fprintln(c.out, "ERROR: ", err)
			c.log.Debug("command failed", "line", line, "err", err)
		}
	}
}
