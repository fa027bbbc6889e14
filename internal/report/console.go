package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/xeronsec/xeron/internal/config"
	"github.com/xeronsec/xeron/internal/model"
)

// ConsoleWriter outputs the same report layout as TextWriter with ANSI
// colors for terminal display: magenta rules, green values, yellow
// category headers, red error states. The palette follows the original
// tool's console output.
type ConsoleWriter struct {
	baseWriter

	categories []config.Category

	header   *color.Color
	section  *color.Color
	value    *color.Color
	notice   *color.Color
	errColor *color.Color
}

// ConsoleWriterOption configures a ConsoleWriter.
type ConsoleWriterOption func(*ConsoleWriter)

// WithNoColor disables ANSI colors; the output is then identical to
// TextWriter. Used for --no-color and non-TTY destinations.
func WithNoColor(noColor bool) ConsoleWriterOption {
	return func(w *ConsoleWriter) {
		if noColor {
			w.header.DisableColor()
			w.section.DisableColor()
			w.value.DisableColor()
			w.notice.DisableColor()
			w.errColor.DisableColor()
		}
	}
}

// NewConsoleWriter creates a ConsoleWriter that outputs to the given writer.
func NewConsoleWriter(output io.Writer, categories []config.Category, opts ...ConsoleWriterOption) *ConsoleWriter {
	w := &ConsoleWriter{
		baseWriter: newBaseWriter(output),
		categories: categories,
		header:     color.New(color.FgHiMagenta, color.Bold),
		section:    color.New(color.FgYellow, color.Bold),
		value:      color.New(color.FgGreen),
		notice:     color.New(color.FgBlue),
		errColor:   color.New(color.FgRed, color.Bold),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report with colors applied.
func (w *ConsoleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	rule := strings.Repeat("=", reportWidth)
	sb.WriteString(w.header.Sprint(rule))
	sb.WriteString("\n")
	sb.WriteString(w.header.Sprint("                        XERON CRAWL REPORT"))
	sb.WriteString("\n")
	sb.WriteString(w.header.Sprint(rule))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Started:  %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Target:   %s (depth %d)\n", w.value.Sprint(report.Target), report.Depth))
	sb.WriteString(fmt.Sprintf("Pages:    %d crawled, %d failed\n", report.PagesCrawled, report.PagesFailed))

	switch {
	case report.TimedOut:
		sb.WriteString(w.errColor.Sprint("Status:   CANCELLED (partial results)"))
		sb.WriteString("\n")
	case report.ErrorMessage != "":
		sb.WriteString(w.errColor.Sprintf("Status:   ERROR - %s (partial results)", report.ErrorMessage))
		sb.WriteString("\n")
	default:
		sb.WriteString("Status:   Complete\n")
	}
	sb.WriteString("\n")

	for _, c := range w.categories {
		matches := report.Results.Matches(c.ID)
		sb.WriteString(strings.Repeat("-", reportWidth))
		sb.WriteString("\n")
		sb.WriteString(w.section.Sprintf("%s (%d)", strings.ToUpper(c.DisplayName()), len(matches)))
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat("-", reportWidth))
		sb.WriteString("\n")

		if len(matches) == 0 {
			sb.WriteString(w.notice.Sprint("  none found"))
			sb.WriteString("\n")
		} else {
			for _, m := range matches {
				sb.WriteString("  ")
				sb.WriteString(w.value.Sprint(m))
				sb.WriteString("\n")
			}
		}
		sb.WriteString("\n")
	}

	writeTextFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}
