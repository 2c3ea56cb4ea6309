package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLineHandler_Handle(t *testing.T) {
	ts := time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		opID    string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "basic info message",
			opID:    "op-123",
			level:   slog.LevelInfo,
			message: "snapshot saved",
			want:    "2024-06-15T14:30:45Z\tINFO\top-123\tsnapshot saved\n",
		},
		{
			name:    "debug level",
			opID:    "op-456",
			level:   slog.LevelDebug,
			message: "skipping entry",
			want:    "2024-06-15T14:30:45Z\tDEBUG\top-456\tskipping entry\n",
		},
		{
			name:    "with record attrs",
			opID:    "op-789",
			level:   slog.LevelInfo,
			message: "drift computed",
			attrs:   []slog.Attr{slog.String("root", "/home/me"), slog.Int("added", 2)},
			want:    "2024-06-15T14:30:45Z\tINFO\top-789\tdrift computed\troot=/home/me\tadded=2\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &lineHandler{sinks: []sink{{w: &buf, min: slog.LevelDebug}}, opID: tt.opID}

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			for _, a := range tt.attrs {
				r.AddAttrs(a)
			}

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestLineHandler_SinkLevels(t *testing.T) {
	var file, console bytes.Buffer
	h := &lineHandler{
		sinks: []sink{{w: &file, min: slog.LevelDebug}, {w: &console, min: slog.LevelWarn}},
		opID:  "op-1",
	}
	logger := slog.New(h)

	logger.Debug("detail")
	logger.Warn("careful")

	if !strings.Contains(file.String(), "detail") || !strings.Contains(file.String(), "careful") {
		t.Errorf("file sink = %q, want both records", file.String())
	}
	if strings.Contains(console.String(), "detail") {
		t.Errorf("console sink got debug record: %q", console.String())
	}
	if !strings.Contains(console.String(), "careful") {
		t.Errorf("console sink = %q, want warning", console.String())
	}
}

func TestLineHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &lineHandler{sinks: []sink{{w: &buf, min: slog.LevelDebug}}, opID: "op-1"}

	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "store")}).(*lineHandler)

	r := slog.NewRecord(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), slog.LevelInfo, "save", 0)
	r.AddAttrs(slog.String("key", "abc"))

	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "component=store") {
		t.Errorf("expected pre-set attr component=store, got: %q", got)
	}
	if !strings.Contains(got, "key=abc") {
		t.Errorf("expected record attr key=abc, got: %q", got)
	}
	if len(h.attrs) != 0 {
		t.Errorf("original handler attrs modified: got %d, want 0", len(h.attrs))
	}
}

func TestLineHandler_Enabled(t *testing.T) {
	h := &lineHandler{sinks: []sink{{w: &bytes.Buffer{}, min: slog.LevelInfo}}}
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Enabled(DEBUG) = true, want false")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("Enabled(ERROR) = false, want true")
	}
}

func TestNewLogger(t *testing.T) {
	dir := t.TempDir()

	logger, f, err := newLogger(dir, "test-op", slog.LevelError)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	defer f.Close()

	logger.Info("hello", "n", 1)

	data, err := os.ReadFile(filepath.Join(dir, "fsdrift.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "test-op\thello\tn=1") {
		t.Errorf("log file = %q", data)
	}
}
