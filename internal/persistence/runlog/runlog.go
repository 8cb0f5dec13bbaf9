// Package runlog writes and reads episode step logs: one zstd-compressed
// JSONL file per episode, a header line first, then one line per step.
// Together with the resolved config the log is sufficient to re-simulate
// the episode bit-for-bit (see cmd/replay).
package runlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
)

type Header struct {
	Kind    string `json:"kind"` // "header"
	RunID   string `json:"run_id"`
	Episode int    `json:"episode"`
	Seed    int64  `json:"seed"`
	Digest  string `json:"digest"` // engine digest right after reset
}

type StepRecord struct {
	Kind    string `json:"kind"` // "step"
	Episode int    `json:"episode"`
	Step    int    `json:"step"`

	Actions []string  `json:"actions"`
	Rewards []float64 `json:"rewards"`

	Collected []int   `json:"collected,omitempty"`
	Regrown   int     `json:"regrown,omitempty"`
	Zaps      []int   `json:"zaps,omitempty"` // flattened (zapper, target) pairs
	Tax       float64 `json:"tax,omitempty"`

	// Exactly one of these is set, depending on the observation flavor the
	// runner recorded.
	Views []string `json:"views,omitempty"` // per-agent egocentric pix, base64
	Frame string   `json:"frame,omitempty"` // full-world pix, base64

	Digest string `json:"digest"`
	Done   bool   `json:"done"`
}

type Writer struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{f: f, enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}, nil
}

func (w *Writer) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var first error
	if err := w.w.Flush(); err != nil {
		first = err
	}
	if err := w.enc.Close(); err != nil && first == nil {
		first = err
	}
	if err := w.f.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

// Read decodes one episode file.
func Read(path string) (Header, []StepRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return Header{}, nil, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 1024*1024), 64*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return Header{}, nil, err
		}
		return Header{}, nil, fmt.Errorf("%s: empty log", path)
	}
	var hdr Header
	if err := json.Unmarshal(sc.Bytes(), &hdr); err != nil {
		return Header{}, nil, fmt.Errorf("%s: header: %w", path, err)
	}
	if hdr.Kind != "header" {
		return Header{}, nil, fmt.Errorf("%s: first record is %q, want header", path, hdr.Kind)
	}

	var steps []StepRecord
	for sc.Scan() {
		var rec StepRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return Header{}, nil, fmt.Errorf("%s: step %d: %w", path, len(steps), err)
		}
		steps = append(steps, rec)
	}
	if err := sc.Err(); err != nil {
		return Header{}, nil, err
	}
	return hdr, steps, nil
}
