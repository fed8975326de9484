package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/whyrusleeping/soundsight/hilbert"
)

func runCurve(args []string, log *slog.Logger) error {
	fs := flag.NewFlagSet("curve", flag.ExitOnError)
	side := fs.Int("side", 8, "grid side, a power of two")
	fs.Parse(args)

	return printCurve(os.Stdout, *side)
}

func printCurve(w io.Writer, side int) error {
	pos, err := hilbert.Build(side)
	if err != nil {
		return err
	}

	width := len(strconv.Itoa(side*side - 1))
	for _, row := range pos {
		cells := make([]string, len(row))
		for j, p := range row {
			cells[j] = fmt.Sprintf("%*d", width, p)
		}
		fmt.Fprintln(w, strings.Join(cells, " "))
	}
	return nil
}
