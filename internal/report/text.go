package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xeronsec/xeron/internal/config"
	"github.com/xeronsec/xeron/internal/model"
)

// MinReportBytes is the size threshold below which a written report file
// is considered effectively empty. Files under this threshold are replaced
// with the minimal fallback report so the artifact is never silently empty.
const MinReportBytes = 100

// reportWidth is the character width of section rules.
const reportWidth = 70

// TextWriter outputs plain-text reports: a header block with the start
// time, target, and depth, followed by one section per extraction
// category listing its unique matches one per line.
//
// Design decision: We use plain ASCII formatting without ANSI colors
// because this writer's main destination is the report file; the console
// gets the same layout from ConsoleWriter with colors applied on top.
type TextWriter struct {
	baseWriter

	// categories fixes section order and display names. Categories absent
	// from the result set are still printed with a "none found" notice so
	// the report shows what was searched for.
	categories []config.Category
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
// The category table determines section order.
func NewTextWriter(output io.Writer, categories []config.Category) *TextWriter {
	return &TextWriter{
		baseWriter: newBaseWriter(output),
		categories: categories,
	}
}

// Write outputs the report in plain-text format.
func (w *TextWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	writeTextHeader(&sb, report)

	for _, c := range w.categories {
		matches := report.Results.Matches(c.ID)
		sb.WriteString(strings.Repeat("-", reportWidth))
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s (%d)\n", strings.ToUpper(c.DisplayName()), len(matches)))
		sb.WriteString(strings.Repeat("-", reportWidth))
		sb.WriteString("\n")

		if len(matches) == 0 {
			sb.WriteString("  none found\n")
		} else {
			for _, m := range matches {
				sb.WriteString("  ")
				sb.WriteString(m)
				sb.WriteString("\n")
			}
		}
		sb.WriteString("\n")
	}

	writeTextFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeTextHeader writes the report header block.
func writeTextHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("=", reportWidth))
	sb.WriteString("\n")
	sb.WriteString("                        XERON CRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", reportWidth))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Started:  %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Target:   %s (depth %d)\n", report.Target, report.Depth))
	sb.WriteString(fmt.Sprintf("Pages:    %d crawled, %d failed\n", report.PagesCrawled, report.PagesFailed))

	switch {
	case report.TimedOut:
		sb.WriteString("Status:   CANCELLED (partial results)\n")
	case report.ErrorMessage != "":
		sb.WriteString(fmt.Sprintf("Status:   ERROR - %s (partial results)\n", report.ErrorMessage))
	default:
		sb.WriteString("Status:   Complete\n")
	}

	sb.WriteString("\n")
}

// writeTextFooter writes the report footer.
func writeTextFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", reportWidth))
	sb.WriteString("\n")
	sb.WriteString("Report generated by xeron\n")
	sb.WriteString("https://github.com/xeronsec/xeron\n")
	sb.WriteString(strings.Repeat("=", reportWidth))
	sb.WriteString("\n")
}

// FallbackReport returns the minimal report text written when a crawl
// produced no substantial data.
func FallbackReport(target string) string {
	var sb strings.Builder
	sb.WriteString("XERON CRAWL REPORT\n\n")
	sb.WriteString(fmt.Sprintf("The crawl finished with no substantial data acquired. Target URL: %s.\n", target))
	sb.WriteString("Check network connection or ensure the target is online.\n")
	return sb.String()
}

// EnsureNotEmpty replaces the report file with the fallback report when it
// is missing or under MinReportBytes. It returns true if the fallback was
// written.
func EnsureNotEmpty(path, target string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil && info.Size() >= MinReportBytes {
		return false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	if err := os.WriteFile(path, []byte(FallbackReport(target)), 0600); err != nil {
		return false, fmt.Errorf("failed to write fallback report: %w", err)
	}
	return true, nil
}
