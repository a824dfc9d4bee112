package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// decode splits JSON log output into one map per record.
func decode(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for line := range strings.SplitSeq(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		records = append(records, rec)
	}
	return records
}

// newFiltered returns a JSON logger at warn with the given components
// lowered to debug, the way cqlc's --debug flag sets it up.
func newFiltered(t *testing.T, debug ...string) (*slog.Logger, *ComponentFilterHandler, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	base, err := NewHandler(&buf, FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	filter := NewComponentFilterHandler(base, slog.LevelWarn)
	for _, c := range debug {
		filter.SetLevel(c, slog.LevelDebug)
	}
	return slog.New(filter), filter, &buf
}

func TestDefault(t *testing.T) {
	if Default(nil).Enabled(context.Background(), slog.LevelError) {
		t.Error("Default(nil) should discard")
	}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if Default(logger) != logger {
		t.Error("Default should return a non-nil logger unchanged")
	}

	// Chaining on a discard logger must stay silent.
	Discard().With("component", "compiler").With("id", "x").Error("build query")
}

func TestComponentFilterHandler_ScopedDebug(t *testing.T) {
	logger, _, buf := newFiltered(t, "compiler")

	compilerLog := logger.With("component", "compiler")
	batchLog := logger.With("component", "batch")

	compilerLog.Debug("compiled query", "atoms", 2)
	batchLog.Debug("batch started")
	batchLog.Info("batch finished")
	batchLog.Warn("fsnotify error")

	records := decode(t, buf)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %s", len(records), buf)
	}
	if records[0]["msg"] != "compiled query" || records[0]["component"] != "compiler" {
		t.Errorf("unexpected first record: %v", records[0])
	}
	if records[1]["msg"] != "fsnotify error" {
		t.Errorf("unexpected second record: %v", records[1])
	}
}

func TestComponentFilterHandler_ChainedWith(t *testing.T) {
	logger, _, buf := newFiltered(t, "compiler")

	// The compiler scopes its logger once, then adds a per-compilation id.
	perCall := logger.With("component", "compiler").With("id", "0190a6e2")
	if !perCall.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should be enabled for the compiler after a second With")
	}
	perCall.Debug("compiled query")

	other := logger.With("component", "batch").With("id", "0190a6e2")
	if other.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should stay disabled for batch")
	}
	other.Debug("dropped")

	records := decode(t, buf)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d: %s", len(records), buf)
	}
	if records[0]["component"] != "compiler" || records[0]["id"] != "0190a6e2" {
		t.Errorf("attributes lost: %v", records[0])
	}
}

func TestComponentFilterHandler_RecordAttribute(t *testing.T) {
	logger, _, buf := newFiltered(t, "compiler")

	// An unscoped logger may have debug records for some component, so it
	// cannot rule debug out up front.
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("unscoped logger should report debug enabled while an override is debug")
	}

	logger.Debug("using built-in field mapping", "component", "cli")
	logger.Debug("compiled query", "component", "compiler")
	logger.Debug("no component")

	records := decode(t, buf)
	if len(records) != 1 || records[0]["msg"] != "compiled query" {
		t.Fatalf("expected only the compiler record, got: %s", buf)
	}
}

func TestComponentFilterHandler_NoOverrides(t *testing.T) {
	logger, filter, buf := newFiltered(t)

	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at the warn default")
	}
	if got := filter.Level("compiler"); got != slog.LevelWarn {
		t.Errorf("Level(compiler) = %v, want WARN", got)
	}

	logger.With("component", "watch").Error("reload mapping", "error", "boom")
	if records := decode(t, buf); len(records) != 1 {
		t.Errorf("expected the error record, got: %s", buf)
	}
}

func TestComponentFilterHandler_LevelChangeSeenByDerived(t *testing.T) {
	logger, filter, buf := newFiltered(t)

	batchLog := logger.With("component", "batch")
	batchLog.Info("batch started")
	filter.SetLevel("batch", slog.LevelInfo)
	batchLog.Info("batch finished")

	records := decode(t, buf)
	if len(records) != 1 || records[0]["msg"] != "batch finished" {
		t.Errorf("derived logger did not see the new level: %s", buf)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				if !strings.Contains(err.Error(), "invalid log level") {
					t.Errorf("unexpected error text: %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewHandler(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		h, err := NewHandler(&buf, FormatJSON)
		if err != nil {
			t.Fatal(err)
		}
		slog.New(h).Debug("compiled query", "component", "compiler")
		if !strings.Contains(buf.String(), `"component":"compiler"`) {
			t.Errorf("expected JSON debug output, got: %s", buf.String())
		}
	})

	t.Run("text is the default", func(t *testing.T) {
		var buf bytes.Buffer
		h, err := NewHandler(&buf, "")
		if err != nil {
			t.Fatal(err)
		}
		slog.New(h).Info("batch started", "component", "batch")
		if !strings.Contains(buf.String(), "component=batch") {
			t.Errorf("expected text output, got: %s", buf.String())
		}
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewHandler(&bytes.Buffer{}, "xml")
		if err == nil || !strings.Contains(err.Error(), `invalid log format "xml"`) {
			t.Errorf("got %v, want invalid log format error", err)
		}
	})
}
