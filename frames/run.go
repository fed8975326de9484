package frames

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/pkg/errors"
)

type Sink interface {
	Sonify(grid [][]uint8) error
	Silence() error
}

// Run pulls a frame from src every 1/rate seconds and hands it to sink. A
// failing frame silences the sink and the loop carries on. Run returns nil
// when src is exhausted or ctx is done.
func Run(ctx context.Context, src Source, sink Sink, rate float64, log *slog.Logger) error {
	if rate <= 0 {
		return errors.Errorf("frame rate must be positive, got %v", rate)
	}
	if log == nil {
		log = slog.Default()
	}

	interval := time.Duration(float64(time.Second) / rate)
	tick := time.NewTicker(interval)
	defer tick.Stop()

	var n int
	for {
		grid, err := src.Next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			log.Info("frame source exhausted", "frames", n)
			return nil
		case ctx.Err() != nil:
			return nil
		case err != nil:
			log.Warn("reading frame failed", "err", err)
			if err := sink.Silence(); err != nil {
				log.Error("silencing sink", "err", err)
			}
		default:
			if err := sink.Sonify(grid); err != nil {
				log.Warn("sonifying frame failed", "err", err)
			}
			n++
		}

		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
		}
	}
}
