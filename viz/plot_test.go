package viz

import (
	"math"
	"testing"

	"github.com/whyrusleeping/soundsight/hilbert"
)

func TestPoints(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 100, H: 50}
	pts := Points([]float64{-1, 0, 1, 5}, r, -1, 1)

	if len(pts) != 4 {
		t.Fatalf("got %d points", len(pts))
	}
	if pts[0].X != 10 || pts[3].X != 110 {
		t.Fatalf("x range = %d..%d", pts[0].X, pts[3].X)
	}
	if pts[0].Y != 70 || pts[1].Y != 45 || pts[2].Y != 20 {
		t.Fatalf("y values = %d %d %d", pts[0].Y, pts[1].Y, pts[2].Y)
	}
	if pts[3].Y != 20 {
		t.Fatal("values above the range should clamp to the top")
	}

	if Points(nil, r, 0, 1) != nil {
		t.Fatal("no data should give no points")
	}
}

func TestSpectrum(t *testing.T) {
	const n = 64
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Cos(2 * math.Pi * 5 * float64(i) / n)
	}

	mag := Spectrum(samples)
	if len(mag) != n/2+1 {
		t.Fatalf("got %d bins", len(mag))
	}
	for i, m := range mag {
		if i == 5 {
			if math.Abs(m-0.5) > 1e-9 {
				t.Fatalf("bin 5 magnitude = %v, want 0.5", m)
			}
			continue
		}
		if m > 1e-9 {
			t.Fatalf("bin %d magnitude = %v, want 0", i, m)
		}
	}
}

func TestCurvePath(t *testing.T) {
	tbl, err := hilbert.NewIndexer().Table(4)
	if err != nil {
		t.Fatal(err)
	}
	r := Rect{W: 40, H: 40}
	pts := CurvePath(tbl, r)

	if len(pts) != 16 {
		t.Fatalf("got %d points", len(pts))
	}
	if pts[0].X != 5 || pts[0].Y != 5 {
		t.Fatalf("curve should start in the top left cell, got %+v", pts[0])
	}
	for i := 1; i < len(pts); i++ {
		dx := pts[i].X - pts[i-1].X
		dy := pts[i].Y - pts[i-1].Y
		if dx*dx+dy*dy != 100 {
			t.Fatalf("step %d is not to a neighbouring cell: %+v -> %+v", i, pts[i-1], pts[i])
		}
	}

	cells := Cells(4, r)
	if len(cells) != 16 || cells[5].X != 10 || cells[5].Y != 10 || cells[5].W != 10 {
		t.Fatalf("bad cell layout: %+v", cells[5])
	}
}
