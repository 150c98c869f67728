package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPanicInc(t *testing.T) {
	n := testutil.ToFloat64(metricPanic.WithLabelValues("test"))
	PanicInc("test")
	if got := testutil.ToFloat64(metricPanic.WithLabelValues("test")); got != n+1 {
		t.Fatalf("got %v, expected %v", got, n+1)
	}
}

func TestWriteTextfile(t *testing.T) {
	PanicInc("textfile")

	p := filepath.Join(t.TempDir(), "mailsign.prom")
	if err := WriteTextfile(p); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	buf, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(buf), `mailsign_panic_total{pkg="textfile"} 1`) {
		t.Fatalf("metric not in textfile:\n%s", buf)
	}

	if err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "mailsign.prom")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
