package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWriterEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.InfoLevel).With(String("component", "query"))

	l.Debug("hidden")
	l.Info("price query ok",
		Strings("codes", []string{"600000.XSHG", "000001.XSHE"}),
		Int("rows", 3),
		Duration("duration_ms", 1500*time.Millisecond),
		Error(errors.New("boom")),
	)

	var got map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got); err != nil {
		t.Fatalf("expected a single json line, got %q: %v", buf.String(), err)
	}
	if got["message"] != "price query ok" || got["component"] != "query" {
		t.Fatalf("unexpected event: %v", got)
	}
	if got["codes"] != "600000.XSHG, 000001.XSHE" || got["rows"] != float64(3) || got["duration_ms"] != float64(1500) {
		t.Fatalf("unexpected fields: %v", got)
	}
	if got["error"] != "boom" {
		t.Fatalf("expected error field, got %v", got["error"])
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(&Config{Level: "loud", Output: "stdout"}); err == nil {
		t.Fatalf("expected invalid level error")
	}
}
