// ColorStdoutWriter prints human-friendly, colorized metric lines to STDOUT.
package sim

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"cloudsim/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorWhite   = "\x1b[37m"
	colorGray    = "\x1b[90m"
)

var domainPalette = []string{colorRed, colorGreen, colorYellow, colorBlue, colorMagenta, colorCyan}

// ColorStdoutWriter prints metric events using ANSI colors, one line per
// event, colored by metric domain (the name prefix before the first dot).
type ColorStdoutWriter struct {
	out          io.Writer
	domainColors map[string]string
	colorIdx     int
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter() *ColorStdoutWriter {
	return &ColorStdoutWriter{out: os.Stdout, domainColors: make(map[string]string)}
}

func (w *ColorStdoutWriter) getDomainColor(domain string) string {
	if c, ok := w.domainColors[domain]; ok {
		return c
	}
	c := domainPalette[w.colorIdx%len(domainPalette)]
	w.domainColors[domain] = c
	w.colorIdx++
	return c
}

// Write outputs a single metric event in colorized format.
func (w *ColorStdoutWriter) Write(ev telemetry.MetricEvent) error {
	domain, _, _ := strings.Cut(ev.Name, ".")
	dColor := w.getDomainColor(domain)

	fmt.Fprintf(w.out, "%s[%s]%s ", colorGray, ev.Timestamp.Format(time.RFC3339), colorReset)
	fmt.Fprintf(w.out, "%s%s%s ", dColor, ev.Name, colorReset)
	fmt.Fprintf(w.out, "%s%.3f%s ", colorWhite, ev.Value, colorReset)
	fmt.Fprintf(w.out, "%s%s%s", colorGray, ev.Unit, colorReset)
	if len(ev.Attributes) > 0 {
		keys := make([]string, 0, len(ev.Attributes))
		for k := range ev.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w.out, " %s%s=%s%s", colorCyan, k, ev.Attributes[k], colorReset)
		}
	}
	fmt.Fprintln(w.out)
	return nil
}

// WriteBatch outputs multiple metric events.
func (w *ColorStdoutWriter) WriteBatch(events []telemetry.MetricEvent) error {
	for _, ev := range events {
		_ = w.Write(ev)
	}
	return nil
}
