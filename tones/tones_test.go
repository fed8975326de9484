package tones

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
)

func TestFrequenciesAscending(t *testing.T) {
	freqs := Frequencies(440, 3, 64, -18)
	if len(freqs) != 64 {
		t.Fatalf("expected 64 frequencies, got %d", len(freqs))
	}
	if err := CheckOrder(freqs); err != nil {
		t.Fatal(err)
	}

	want := 440 * math.Pow(2, -18.0/12)
	if math.Abs(freqs[0]-want) > 1e-9 {
		t.Fatalf("first frequency %v, want %v", freqs[0], want)
	}
}

func TestCheckOrder(t *testing.T) {
	err := CheckOrder([]float64{100, 50})
	if !errors.Is(err, ErrUnorderedFrequencies) {
		t.Fatalf("expected ErrUnorderedFrequencies, got %v", err)
	}
	if !strings.Contains(err.Error(), "100") || !strings.Contains(err.Error(), "50") {
		t.Fatalf("error should name the offending pair: %v", err)
	}

	if err := CheckOrder([]float64{100, 100}); !errors.Is(err, ErrUnorderedFrequencies) {
		t.Fatalf("duplicates should be rejected, got %v", err)
	}
	if err := CheckOrder(nil); !errors.Is(err, ErrUnorderedFrequencies) {
		t.Fatalf("empty list should be rejected, got %v", err)
	}
	if err := CheckOrder([]float64{0, 10}); !errors.Is(err, ErrUnorderedFrequencies) {
		t.Fatalf("zero frequency should be rejected, got %v", err)
	}
}

func TestAxis(t *testing.T) {
	a, err := NewAxis(RFFT, 8, 8000)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 1000, 2000, 3000, 4000}
	if a.Len() != len(want) {
		t.Fatalf("rfft axis has %d bins, want %d", a.Len(), len(want))
	}
	for i, v := range want {
		if a.At(i) != v {
			t.Fatalf("bin %d = %v, want %v", i, a.At(i), v)
		}
	}

	f, err := NewAxis(FFT, 8, 8000)
	if err != nil {
		t.Fatal(err)
	}
	wantFull := []float64{0, 1000, 2000, 3000, -4000, -3000, -2000, -1000}
	for i, v := range wantFull {
		if f.At(i) != v {
			t.Fatalf("fft bin %d = %v, want %v", i, f.At(i), v)
		}
	}
	if len(f.Searchable()) != 4 {
		t.Fatalf("fft searchable prefix has %d bins, want 4", len(f.Searchable()))
	}

	if _, err := NewAxis("dct", 8, 8000); !errors.Is(err, ErrUnsupportedTransform) {
		t.Fatalf("expected ErrUnsupportedTransform, got %v", err)
	}
	if _, err := ParseTransform("wavelet"); !errors.Is(err, ErrUnsupportedTransform) {
		t.Fatalf("expected ErrUnsupportedTransform, got %v", err)
	}
}

func TestBinMapNearest(t *testing.T) {
	a, err := NewAxis(RFFT, 100, 1000) // bins every 10 Hz
	if err != nil {
		t.Fatal(err)
	}

	m, err := NewBinMap([]float64{12, 26, 31, 499}, a)
	if err != nil {
		t.Fatal(err)
	}
	want := BinMap{1, 3, 3, 50}
	for i := range want {
		if m[i] != want[i] {
			t.Fatalf("bin map = %v, want %v", m, want)
		}
	}
}

func TestBinMapTieGoesToLaterBin(t *testing.T) {
	a, err := NewAxis(RFFT, 100, 1000)
	if err != nil {
		t.Fatal(err)
	}

	m, err := NewBinMap([]float64{15, 45}, a)
	if err != nil {
		t.Fatal(err)
	}
	if m[0] != 2 || m[1] != 5 {
		t.Fatalf("ties should resolve to the higher bin, got %v", m)
	}
}

func TestBinMapUnordered(t *testing.T) {
	a, _ := NewAxis(RFFT, 100, 1000)
	if _, err := NewBinMap([]float64{100, 50}, a); !errors.Is(err, ErrUnorderedFrequencies) {
		t.Fatalf("expected ErrUnorderedFrequencies, got %v", err)
	}
}

func TestBinMapNonDecreasing(t *testing.T) {
	for _, kind := range []Transform{RFFT, FFT} {
		a, err := NewAxis(kind, 96000, 96000)
		if err != nil {
			t.Fatal(err)
		}
		freqs := Frequencies(440, 6, 256, -18)
		m, err := NewBinMap(freqs, a)
		if err != nil {
			t.Fatal(err)
		}
		for i := 1; i < len(m); i++ {
			if m[i] < m[i-1] {
				t.Fatalf("%s: bins decrease at %d: %d -> %d", kind, i, m[i-1], m[i])
			}
		}
		for i, f := range freqs {
			if math.Abs(a.At(m[i])-f) > 0.5 {
				t.Fatalf("%s: tone %v mapped to bin %v", kind, f, a.At(m[i]))
			}
		}
	}
}

func TestBankMutations(t *testing.T) {
	b, err := NewBank([]float64{100, 200, 300})
	if err != nil {
		t.Fatal(err)
	}

	v0 := b.Version()
	if err := b.Apply(Mutation{Op: OpSetAmplitude, Index: 1, Value: 0.5}); err != nil {
		t.Fatal(err)
	}
	if err := b.Apply(Mutation{Op: OpEnable, Index: 1}); err != nil {
		t.Fatal(err)
	}
	if b.Version() == v0 {
		t.Fatal("version should change on mutation")
	}

	snap := b.Snapshot()
	if err := b.Disable(1); err != nil {
		t.Fatal(err)
	}

	if !snap.Tones[1].Enabled || snap.Tones[1].Amplitude != 0.5 {
		t.Fatalf("snapshot should not follow later mutations: %+v", snap.Tones[1])
	}
	if snap.Enabled() != 1 {
		t.Fatalf("expected one enabled tone, got %d", snap.Enabled())
	}

	if err := b.SetAmplitude(3, 1); !errors.Is(err, ErrToneIndex) {
		t.Fatalf("expected ErrToneIndex, got %v", err)
	}
	if _, err := NewBank([]float64{300, 200}); !errors.Is(err, ErrUnorderedFrequencies) {
		t.Fatalf("expected ErrUnorderedFrequencies, got %v", err)
	}
}

func TestBatchReplacesRedundantUpdates(t *testing.T) {
	var b Batch
	b.SetAmplitude(0, 0.1)
	b.Enable(0)
	b.SetAmplitude(0, 0.2)
	b.SetAmplitude(1, 0.3)
	b.Disable(0)

	muts := b.Take()
	if len(muts) != 3 {
		t.Fatalf("expected 3 mutations after coalescing, got %v", muts)
	}
	if muts[0].Value != 0.2 || muts[1].Op != OpDisable {
		t.Fatalf("unexpected coalesced batch: %v", muts)
	}
	if b.Len() != 0 {
		t.Fatal("take should empty the batch")
	}

	b.SetAmplitude(0, 1)
	if b.Len() != 1 {
		t.Fatal("batch should be reusable after take")
	}
}

func TestQueueOrder(t *testing.T) {
	var q Queue[int]
	if q.Push([]Mutation{{Op: OpEnable}}, -1) {
		t.Fatal("push into a closed queue should fail")
	}

	q.Open()
	for i := 0; i < 5; i++ {
		q.Push([]Mutation{{Op: OpSetAmplitude, Index: i, Value: float64(i)}}, i*10)
	}

	var got []int
	n, last := q.Drain(func(m Mutation) {
		got = append(got, m.Index)
	})
	if n != 5 {
		t.Fatalf("drained %d batches, want 5", n)
	}
	if last != 40 {
		t.Fatalf("payload of the newest batch = %d, want 40", last)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("batches applied out of order: %v", got)
		}
	}

	if n, _ := q.Drain(func(Mutation) { t.Fatal("queue should be empty") }); n != 0 {
		t.Fatal("expected empty drain")
	}
}

func TestQueueCloseDiscards(t *testing.T) {
	var q Queue[int]
	q.Open()
	q.Push([]Mutation{{Op: OpEnable}}, 1)
	q.Close()
	q.Push([]Mutation{{Op: OpEnable}}, 2)
	q.Open()

	n, last := q.Drain(func(Mutation) {
		t.Fatal("batches from before close must not be delivered")
	})
	if n != 0 || last != 0 {
		t.Fatalf("drain after reopen = %d, %d", n, last)
	}
}

// Producers racing an Open must never lose a push that reported success.
func TestQueuePushesDuringOpenAreKept(t *testing.T) {
	for round := 0; round < 200; round++ {
		var q Queue[int]

		const producers = 4
		var accepted [producers]int
		var wg sync.WaitGroup
		start := make(chan struct{})
		for p := 0; p < producers; p++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				<-start
				for accepted[p] < 3 {
					if q.Push([]Mutation{{Op: OpEnable, Index: p}}, p) {
						accepted[p]++
					}
				}
			}(p)
		}

		close(start)
		q.Open()
		wg.Wait()

		var want int
		for _, a := range accepted {
			want += a
		}
		if n, _ := q.Drain(func(Mutation) {}); n != want {
			t.Fatalf("round %d: drained %d batches, %d pushes succeeded", round, n, want)
		}
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	var q Queue[struct{}]
	q.Open()

	const producers = 8
	const per = 500

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < per; i++ {
				q.Push([]Mutation{{Op: OpSetAmplitude, Index: p, Value: float64(i)}}, struct{}{})
			}
		}(p)
	}

	last := make([]float64, producers)
	for i := range last {
		last[i] = -1
	}
	var total int

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	check := func(m Mutation) {
		if m.Value <= last[m.Index] {
			t.Errorf("producer %d: value %v after %v", m.Index, m.Value, last[m.Index])
		}
		last[m.Index] = m.Value
		total++
	}

	for {
		select {
		case <-done:
			q.Drain(check)
			if total != producers*per {
				t.Fatalf("delivered %d mutations, want %d", total, producers*per)
			}
			return
		default:
			q.Drain(check)
		}
	}
}

func TestQueueDrainDoesNotAllocate(t *testing.T) {
	var q Queue[*int]
	q.Open()
	v := 7
	apply := func(Mutation) {}

	allocs := testing.AllocsPerRun(100, func() {
		q.Drain(apply)
	})
	if allocs != 0 {
		t.Fatalf("empty drain allocated %v times", allocs)
	}

	q.Push([]Mutation{{Op: OpEnable}}, &v)
	if n, last := q.Drain(apply); n != 1 || last != &v {
		t.Fatal("payload pointer should come back unchanged")
	}
}
