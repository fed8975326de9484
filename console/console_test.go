package console

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/c-bata/go-prompt"

	"github.com/whyrusleeping/soundsight/sonify"
	"github.com/whyrusleeping/soundsight/spectral"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestTokenize(t *testing.T) {
	cases := map[string][]string{
		"volume 0.25":         {"volume", "0.25"},
		"volume=0.25":         {"volume", "=", "0.25"},
		"  scaling   exp ":    {"scaling", "exp"},
		"top 3, status":       {"top", "3", ",", "status"},
		"":                    nil,
		"set max_volume -0.5": {"set", "max_volume", "-0.5"},
	}

	for in, want := range cases {
		got, err := tokenize(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if strings.Join(got, "|") != strings.Join(want, "|") {
			t.Errorf("tokenize(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := tokenize("volume $3"); err == nil {
		t.Fatal("expected error for invalid character")
	}
}

type fakeTarget struct {
	volume   float64
	scaling  sonify.Scaling
	silenced int
	toggled  int
}

func (f *fakeTarget) SetMaxVolume(v float64) error {
	if v <= 0 || v > 1 {
		return errors.New("out of range")
	}
	f.volume = v
	return nil
}

func (f *fakeTarget) SetScaling(sc sonify.Scaling) error { f.scaling = sc; return nil }
func (f *fakeTarget) Silence() error                     { f.silenced++; return nil }
func (f *fakeTarget) ToggleMute() error                  { f.toggled++; return nil }

func (f *fakeTarget) Top(n int) ([]spectral.Peak, error) {
	return []spectral.Peak{{Bin: 440, Frequency: 440, Amplitude: 0.5}}[:min(n, 1)], nil
}

func (f *fakeTarget) Status() sonify.Status {
	return sonify.Status{Side: 8, Tones: 64, Scaling: f.scaling, MaxVolume: f.volume}
}

func TestExec(t *testing.T) {
	tgt := new(fakeTarget)
	var out bytes.Buffer
	c := New(tgt, &out, quiet)

	for _, line := range []string{"volume 0.3", "scaling = threshold", "silence", "mute", ""} {
		if err := c.Exec(line); err != nil {
			t.Fatalf("%q: %v", line, err)
		}
	}
	if tgt.volume != 0.3 || tgt.scaling != sonify.Threshold || tgt.silenced != 1 || tgt.toggled != 1 {
		t.Fatalf("commands not applied: %+v", tgt)
	}

	if err := c.Exec("top 1"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "440.00 Hz") {
		t.Fatalf("top output missing peak: %q", out.String())
	}

	out.Reset()
	if err := c.Exec("status"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "scaling threshold") {
		t.Fatalf("status output: %q", out.String())
	}

	bad := []string{"volume", "volume loud", "volume 2", "scaling cubic", "top -1", "top x"}
	for _, line := range bad {
		if err := c.Exec(line); err == nil {
			t.Errorf("%q: expected error", line)
		}
	}

	if err := c.Exec("dance"); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestSessionIsTarget(t *testing.T) {
	var _ Target = (*sonify.Session)(nil)
}

func TestCompleter(t *testing.T) {
	c := New(new(fakeTarget), io.Discard, quiet)

	complete := func(text string) []string {
		buf := prompt.NewBuffer()
		buf.InsertText(text, false, true)
		var out []string
		for _, s := range c.Completer(*buf.Document()) {
			out = append(out, s.Text)
		}
		return out
	}

	if got := complete("sc"); len(got) != 1 || got[0] != "scaling" {
		t.Fatalf("completing command: %v", got)
	}
	if got := complete("scaling th"); len(got) != 1 || got[0] != "threshold" {
		t.Fatalf("completing scaling: %v", got)
	}
	if got := complete("volume 0"); len(got) != 0 {
		t.Fatalf("volume takes no suggestions, got %v", got)
	}
}
