package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/xeronsec/xeron/internal/config"
	"github.com/xeronsec/xeron/internal/model"
)

// MarkdownWriter outputs reports in Markdown format, designed for
// documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
//  1. Type-safe markdown generation
//  2. Support for tables, lists, and code blocks
//  3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	categories []config.Category
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, categories []config.Category) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		categories: categories,
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeMatches(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("XERON Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Target", "`" + report.Target + "`"},
			{"Depth", strconv.Itoa(report.Depth)},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Pages Crawled", strconv.Itoa(report.PagesCrawled)},
			{"Pages Failed", strconv.Itoa(report.PagesFailed)},
			{"Status", w.statusText(report)},
		},
	})
	md.PlainText("")
}

// statusText returns the status cell based on report state.
func (w *MarkdownWriter) statusText(report *model.CrawlReport) string {
	if report.TimedOut {
		return "Cancelled (partial results)"
	}
	if report.ErrorMessage != "" {
		return "Error - " + report.ErrorMessage
	}
	return "Complete"
}

// writeSummary writes the per-category match counts.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Summary")
	md.PlainText("")

	rows := make([][]string, 0, len(w.categories)+1)
	for _, c := range w.categories {
		rows = append(rows, []string{c.DisplayName(), strconv.Itoa(report.Results.Count(c.ID))})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(report.Results.Total()) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Category", "Unique Matches"},
		Rows:   rows,
	})
	md.PlainText("")

	if report.Empty() {
		md.Note("The crawl finished with no data acquired.")
		md.PlainText("")
	}
}

// writeMatches writes one section per category with its matches.
func (w *MarkdownWriter) writeMatches(md *markdown.Markdown, report *model.CrawlReport) {
	for _, c := range w.categories {
		matches := report.Results.Matches(c.ID)
		if len(matches) == 0 {
			continue
		}

		md.H2(c.DisplayName())
		md.PlainText("")
		md.BulletList(matches...)
		md.PlainText("")
	}
}
