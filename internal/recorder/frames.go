package recorder

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/sugawarayuuta/sonnet"
)

// Frame is one grid snapshot for offline rendering: the full interleaved
// grid plus the sweep's magnetization sample.
type Frame struct {
	RunID         string   `json:"run_id"`
	Sweep         int      `json:"sweep"`
	Magnetization float64  `json:"magnetization"`
	Grid          [][]int8 `json:"grid"`
}

// FrameWriter appends frames to a zstd-compressed JSONL archive, one file
// per run.
type FrameWriter struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewFrameWriter creates dir (if needed) and opens the run's frame archive.
func NewFrameWriter(dir, runID string) (*FrameWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("frames dir: %w", err)
	}
	path := filepath.Join(dir, "frames-"+runID+".jsonl.zst")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open frame archive: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	return &FrameWriter{f: f, enc: enc, w: bufio.NewWriter(enc)}, nil
}

// Write appends one frame.
func (fw *FrameWriter) Write(frame Frame) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	b, err := sonnet.Marshal(frame)
	if err != nil {
		return err
	}
	if _, err := fw.w.Write(b); err != nil {
		return err
	}
	if err := fw.w.WriteByte('\n'); err != nil {
		return err
	}
	return fw.w.Flush()
}

// Close flushes and closes the archive.
func (fw *FrameWriter) Close() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if err := fw.w.Flush(); err != nil {
		return err
	}
	if err := fw.enc.Close(); err != nil {
		fw.f.Close()
		return err
	}
	return fw.f.Close()
}
