package output

import (
	"bufio"
	"io"
	"strings"
	"testing"
	"time"
)

func readOneLine(t *testing.T, write func(io.Writer) error) string {
	t.Helper()
	pr, pw := io.Pipe()
	defer pr.Close()
	defer pw.Close()

	bw := bufio.NewWriterSize(pw, 64*1024)

	lineCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		line, err := bufio.NewReader(pr).ReadString('\n')
		if err != nil {
			errCh <- err
			return
		}
		lineCh <- line
	}()

	if err := write(bw); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	select {
	case line := <-lineCh:
		return line
	case err := <-errCh:
		t.Fatalf("read error: %v", err)
	case <-time.After(250 * time.Millisecond):
		t.Fatalf("timed out waiting for ndjson line; writer likely not flushing")
	}
	return ""
}

func TestEmitSink_NDJSON_FlushesPerWrite(t *testing.T) {
	line := readOneLine(t, func(w io.Writer) error {
		s, err := NewEmitSink(w, "ndjson")
		if err != nil {
			return err
		}
		return s.Write(Event{Type: EventSearchStarted, Search: "unfinished-runs"})
	})
	if !strings.Contains(line, "\"type\":\"search.started\"") {
		t.Fatalf("expected search.started event, got %q", line)
	}
}

func TestConsoleSink_NDJSON_FlushesPerWrite(t *testing.T) {
	line := readOneLine(t, func(w io.Writer) error {
		return NewConsoleSink(w, "ndjson", nil).Write(obj("LINZ", 4, "calibration"))
	})
	if !strings.Contains(line, "\"type\":\"object\"") || !strings.Contains(line, "\"id\":4") {
		t.Fatalf("expected object event, got %q", line)
	}
}
