package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"pressurecache/internal/logging"
)

func TestLogLevelFromString(t *testing.T) {
	cases := map[string]logging.LogLevel{
		"debug":   logging.DEBUG,
		"INFO":    logging.INFO,
		"warning": logging.WARN,
		"error":   logging.ERROR,
		"fatal":   logging.FATAL,
		"bogus":   logging.INFO,
	}
	for in, want := range cases {
		if got := logging.LogLevelFromString(in); got != want {
			t.Errorf("LogLevelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCorrelationID(t *testing.T) {
	id := logging.NewCorrelationID()
	if id == "" {
		t.Fatalf("NewCorrelationID returned empty string")
	}

	ctx := logging.WithCorrelationID(context.Background(), id)
	if got := logging.GetCorrelationID(ctx); got != id {
		t.Errorf("GetCorrelationID = %q, want %q", got, id)
	}
	if got := logging.GetCorrelationID(context.Background()); got != "" {
		t.Errorf("GetCorrelationID on bare context = %q, want empty", got)
	}
	if got := logging.GetCorrelationID(nil); got != "" {
		t.Errorf("GetCorrelationID on nil context = %q, want empty", got)
	}
}

func TestLoggerWritesStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.Config{Level: logging.DEBUG})
	logger.AddWriter(&buf)

	ctx := logging.WithCorrelationID(context.Background(), "test-correlation")
	logger.Info(ctx, logging.ComponentEvictor, logging.ActionEvict, "Eviction pass completed", map[string]interface{}{
		"evicted": 3,
	})
	logger.Close()

	var entry logging.Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Log output is not valid JSON: %v (%q)", err, buf.String())
	}
	if entry.Level != "INFO" || entry.Component != logging.ComponentEvictor {
		t.Errorf("Unexpected entry: %+v", entry)
	}
	if entry.CorrelationID != "test-correlation" {
		t.Errorf("correlation_id = %q, want test-correlation", entry.CorrelationID)
	}
	if entry.Fields["evicted"] != float64(3) {
		t.Errorf("fields = %v, want evicted=3", entry.Fields)
	}
}

func TestCloseFlushesPendingEntries(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.Config{Level: logging.DEBUG})
	logger.AddWriter(&buf)

	// A fatal entry enqueued right before process exit must survive
	// the async channel once Close drains it.
	logger.Fatal(nil, logging.ComponentMain, logging.ActionStop, "server failed", nil)
	logger.Close()

	var entry logging.Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Flushed output is not valid JSON: %v (%q)", err, buf.String())
	}
	if entry.Level != "FATAL" || entry.Message != "server failed" {
		t.Errorf("Unexpected entry after flush: %+v", entry)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.Config{Level: logging.WARN})
	logger.AddWriter(&buf)

	logger.Debug(nil, logging.ComponentCache, logging.ActionGet, "should be dropped")
	logger.Info(nil, logging.ComponentCache, logging.ActionGet, "should be dropped too")
	logger.Close()

	if buf.Len() != 0 {
		t.Errorf("Entries below the configured level must be dropped, got %q", buf.String())
	}
}
