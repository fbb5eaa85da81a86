package log

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestLevel(t *testing.T) {
	for _, level := range []string{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError} {
		Init(level, "stderr", nil)
		if Level() != level {
			t.Fatalf("Level() = %q, want %q", Level(), level)
		}
	}
}

func TestErrorOutputDuplication(t *testing.T) {
	var main, errOut bytes.Buffer
	logTestWriter = &main
	defer func() { logTestWriter = io.Discard }()
	Init("debug", logTestWriterName, &errOut)

	Infow("round advanced", "phase", "SENDERS_DETERMINED")
	Errorf("snapshot replay failed: %v", errors.New("boom"))

	if !strings.Contains(main.String(), "round advanced") {
		t.Errorf("main output is missing the info line: %q", main.String())
	}
	if !strings.Contains(main.String(), "boom") {
		t.Errorf("main output is missing the error line: %q", main.String())
	}
	if strings.Contains(errOut.String(), "round advanced") {
		t.Errorf("error output should not carry info lines: %q", errOut.String())
	}
	if !strings.Contains(errOut.String(), "boom") {
		t.Errorf("error output is missing the error line: %q", errOut.String())
	}
}

func TestCheckInvalidChars(t *testing.T) {
	t.Cleanup(func() { panicOnInvalidChars = false })
	raw := []byte{'n', 'u', 'l', 0xff, 'l'}

	// guard off: binary garbage passes through without panicking
	panicOnInvalidChars = false
	Init("debug", "stderr", nil)
	Debugf("%s", raw)

	panicOnInvalidChars = true
	Init("debug", "stderr", nil)
	defer func() {
		if recover() == nil {
			t.Errorf("Debugf(%q) with the guard on should have panicked", raw)
		}
	}()
	Debugf("%s", raw)
}

func logSamples() {
	Infof("registered %d participants in %x", 3, []byte{0xaa, 0xbb})
	Debugw("round snapshot stored",
		"eventId", "5d1f2c",
		"phase", "COMMIT",
		"senders", 0,
	)
	Warnw("artifact download stalled",
		"elapsed", 3*time.Second,
		"received", int64(1 << 20),
	)
	Error(errors.New("nullifier already spent"))
}

func BenchmarkLogger(b *testing.B) {
	logTestWriter = io.Discard
	Init("debug", logTestWriterName, nil)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		logSamples()
	}
}
