package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTimingJSONLWritten(t *testing.T) {
	dir := t.TempDir()
	writeVHDL(t, dir, "a.vhd", counterVHDL)
	cfg := defaultTestConfig([]string{"*.vhd"}, ".cache", true)

	timingPath := filepath.Join(dir, "timing.jsonl")

	idx, _ := newTestIndexer(dir, cfg)
	idx.Timing = true
	idx.TimingPath = timingPath

	if _, err := idx.Build(context.Background()); err != nil {
		t.Fatalf("build: %v", err)
	}

	raw, err := os.ReadFile(timingPath)
	if err != nil {
		t.Fatalf("read timing file: %v", err)
	}
	lines := bytes.Split(bytes.TrimSpace(raw), []byte("\n"))
	if len(lines) == 0 {
		t.Fatalf("expected timing events, found none")
	}

	phases := map[string]bool{}
	var fileEvent timingEvent
	for _, line := range lines {
		var ev timingEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			t.Fatalf("parse timing event: %v", err)
		}
		if ev.Kind == "stage" {
			phases[ev.Phase] = true
		}
		if ev.Kind == "file" {
			fileEvent = ev
		}
		if ev.EndMS < ev.StartMS {
			t.Fatalf("event ends before it starts: %+v", ev)
		}
	}
	for _, phase := range []string{"scan", "extract", "total"} {
		if !phases[phase] {
			t.Fatalf("expected %s timing event, got %v", phase, phases)
		}
	}
	if fileEvent.File != "a.vhd" || fileEvent.Status != "ok" {
		t.Fatalf("unexpected file event: %+v", fileEvent)
	}
}

func TestResolveTimingPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("VHDL_SENSCHECK_TIMING_JSONL", "")
	t.Setenv("VHDL_SENSCHECK_TIMING", "")

	idx := New(dir, nil, nil)
	if got := idx.resolveTimingPath(); got != "" {
		t.Fatalf("expected timing off by default, got %q", got)
	}

	t.Setenv("VHDL_SENSCHECK_TIMING", "yes")
	if got, want := idx.resolveTimingPath(), filepath.Join(dir, "timing.jsonl"); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	idx.TimingPath = filepath.Join(dir, "custom.jsonl")
	if got := idx.resolveTimingPath(); got != idx.TimingPath {
		t.Fatalf("got %q, want %q", got, idx.TimingPath)
	}

	t.Setenv("VHDL_SENSCHECK_TIMING_JSONL", "/tmp/env.jsonl")
	if got := idx.resolveTimingPath(); got != "/tmp/env.jsonl" {
		t.Fatalf("expected env override, got %q", got)
	}
}

func TestTimingRecorderWithoutPath(t *testing.T) {
	now := time.Now()
	var tr *timingRecorder
	tr.RecordStage("scan", now, "ok")
	tr.Close()
	if tr.Err() != nil {
		t.Fatalf("nil recorder must not report errors")
	}

	tr = newTimingRecorder(now, filepath.Join(t.TempDir(), "missing", "timing.jsonl"))
	if tr.Err() == nil {
		t.Fatalf("expected error for unwritable path")
	}
	tr.RecordFile("extract", "a.vhd", "ok", now)
}
