package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mjl-/mailsign/mlog"
)

var xlog = mlog.New("metrics")

// WriteTextfile writes all registered metrics to path in the text exposition
// format, for the node exporter textfile collector. The file is written to a
// temporary file first and renamed, so readers never see partial data.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	xlog.Debug("wrote metrics textfile", mlog.Field("path", path))
	return nil
}
