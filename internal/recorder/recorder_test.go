package recorder

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/sugawarayuuta/sonnet"

	"github.com/jbaussand/spin-market/internal/lattice"
)

func TestRunRecordingRoundTrip(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	cfg := lattice.Config{
		Height: 16, Width: 16, InitUp: 0.5,
		NeutralFraction: 0.1, NeutralRegion: lattice.RegionTopLeft,
	}
	runID, err := db.StartRun(cfg, 42, -1.0, 8.0)
	if err != nil {
		t.Fatal(err)
	}
	if runID == "" {
		t.Fatal("empty run ID")
	}

	in := []Sample{
		{Sweep: 0, Magnetization: 1.0, MarketCoupling: 8.0},
		{Sweep: 1, Magnetization: 0.25, MarketCoupling: 2.0},
		{Sweep: 2, Magnetization: -0.5, MarketCoupling: 4.0},
	}
	if err := db.AppendSamples(runID, in); err != nil {
		t.Fatal(err)
	}
	if err := db.RecordShock(runID, 1, 0.2, lattice.RegionRandom); err != nil {
		t.Fatal(err)
	}

	out, err := db.Samples(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d samples, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("sample %d = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestAppendSamplesEmptyIsNoop(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if err := db.AppendSamples("no-such-run", nil); err != nil {
		t.Fatalf("empty append: %v", err)
	}
}

func TestFrameArchiveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFrameWriter(dir, "test-run")
	if err != nil {
		t.Fatal(err)
	}

	frames := []Frame{
		{RunID: "test-run", Sweep: 0, Magnetization: 1, Grid: [][]int8{{1, 1}, {1, 1}}},
		{RunID: "test-run", Sweep: 100, Magnetization: -0.5, Grid: [][]int8{{-1, 1}, {-1, -1}}},
	}
	for _, f := range frames {
		if err := fw.Write(f); err != nil {
			t.Fatal(err)
		}
	}
	if err := fw.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(dir, "frames-test-run.jsonl.zst"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	i := 0
	for sc.Scan() {
		var got Frame
		if err := sonnet.Unmarshal(sc.Bytes(), &got); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if got.Sweep != frames[i].Sweep || got.Magnetization != frames[i].Magnetization {
			t.Fatalf("frame %d = %+v, want %+v", i, got, frames[i])
		}
		i++
	}
	if err := sc.Err(); err != nil {
		t.Fatal(err)
	}
	if i != len(frames) {
		t.Fatalf("read %d frames, want %d", i, len(frames))
	}
}
