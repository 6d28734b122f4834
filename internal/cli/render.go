package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/batchkit/internal/batch"
	"github.com/rshade/batchkit/internal/cli/pagination"
	"github.com/rshade/batchkit/internal/diagnostics"
)

const (
	// defaultClusterLimit is how many failure clusters the summary prints.
	defaultClusterLimit = 10

	// tabwriterPadding is the minimum padding between result table columns.
	tabwriterPadding = 2

	// summaryBoxWidth is the width of the styled summary box.
	summaryBoxWidth = 64

	// maxCellWidth truncates long values and messages in the results table.
	maxCellWidth = 60
)

// batchOutcome is the outcome shape produced by the CLI transforms.
type batchOutcome = batch.Outcome[any, any]

// runReport is the JSON document written by run --output json.
type runReport struct {
	RunID       string                    `json:"run_id"`
	Transform   string                    `json:"transform"`
	Mode        string                    `json:"mode"`
	Canceled    bool                      `json:"canceled"`
	ElapsedMS   int64                     `json:"elapsed_ms"`
	Counts      countsReport              `json:"counts"`
	Results     []resultRow               `json:"results"`
	Diagnostics []diagnostics.Record[any] `json:"diagnostics"`
	Clusters    []diagnostics.Cluster     `json:"clusters"`
	Pagination  *pagination.Meta          `json:"pagination,omitempty"`
}

type countsReport struct {
	Total       int `json:"total"`
	Succeeded   int `json:"succeeded"`
	Failed      int `json:"failed"`
	Skipped     int `json:"skipped"`
	Unprocessed int `json:"unprocessed"`
}

// resultRow is one input position in the JSON report.
type resultRow struct {
	Index int    `json:"index"`
	State string `json:"state"`
	Value any    `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

func isWriterTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// renderOutcome writes out in the format selected by p.output.
func renderOutcome(w io.Writer, out *batchOutcome, transformName string, p runParams) error {
	switch strings.ToLower(p.output) {
	case OutputJSON:
		return renderJSON(w, out, transformName, p)
	case OutputSummary:
		return renderSummary(w, out, p.clusters)
	default:
		if err := renderTable(w, out, p.page); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w)
		return renderSummary(w, out, p.clusters)
	}
}

func renderJSON(w io.Writer, out *batchOutcome, transformName string, p runParams) error {
	start, end := p.page.Window(len(out.Results))
	rows := make([]resultRow, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, newResultRow(i, out.Results[i]))
	}

	clusters := out.Summary()
	if clusters == nil {
		clusters = []diagnostics.Cluster{}
	}
	diags := out.Diagnostics
	if diags == nil {
		diags = []diagnostics.Record[any]{}
	}

	report := runReport{
		RunID:       out.RunID,
		Transform:   transformName,
		Mode:        out.Mode.String(),
		Canceled:    out.Canceled,
		ElapsedMS:   out.Elapsed.Milliseconds(),
		Counts:      newCountsReport(out),
		Results:     rows,
		Diagnostics: diags,
		Clusters:    clusters,
	}
	if p.page.IsEnabled() {
		meta := pagination.NewMeta(p.page, len(out.Results))
		report.Pagination = &meta
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func newCountsReport(out *batchOutcome) countsReport {
	c := out.Counts()
	return countsReport{
		Total:       len(out.Results),
		Succeeded:   c.Succeeded,
		Failed:      c.Failed,
		Skipped:     c.Skipped,
		Unprocessed: c.Unprocessed,
	}
}

func newResultRow(i int, slot batch.Slot[any, any]) resultRow {
	row := resultRow{Index: i, State: slot.State.String()}
	switch slot.State {
	case batch.Succeeded:
		row.Value = slot.Value
	case batch.Failed:
		if slot.Failure != nil {
			row.Error = slot.Failure.Message
		}
	}
	return row
}

// renderTable writes one line per result position in the page window.
func renderTable(w io.Writer, out *batchOutcome, page pagination.Params) error {
	start, end := page.Window(len(out.Results))

	tw := tabwriter.NewWriter(w, 0, 0, tabwriterPadding, ' ', 0)
	_, _ = fmt.Fprintln(tw, "INDEX\tSTATE\tRESULT")
	for i := start; i < end; i++ {
		slot := out.Results[i]
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", i, slot.State, truncate(slotText(slot), maxCellWidth))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if page.IsEnabled() {
		meta := pagination.NewMeta(page, len(out.Results))
		_, _ = fmt.Fprintf(w, "Showing %d-%d of %d (page %d of %d)\n",
			min(start+1, end), end, len(out.Results), meta.CurrentPage, meta.TotalPages)
	}
	return nil
}

func slotText(slot batch.Slot[any, any]) string {
	switch slot.State {
	case batch.Succeeded:
		return fmt.Sprint(slot.Value)
	case batch.Failed:
		if slot.Failure != nil {
			return "error: " + slot.Failure.Message
		}
	}
	return "-"
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// renderSummary writes counts and the largest failure clusters, styled when
// w is a terminal.
func renderSummary(w io.Writer, out *batchOutcome, clusterLimit int) error {
	if isWriterTerminal(w) {
		return renderStyledSummary(w, out, clusterLimit)
	}
	_, err := io.WriteString(w, plainSummary(out, clusterLimit))
	return err
}

func plainSummary(out *batchOutcome, clusterLimit int) string {
	p := message.NewPrinter(language.English)
	c := out.Counts()

	var b strings.Builder
	b.WriteString(p.Sprintf("Run %s (%s mode) processed %d of %d items in %s\n",
		out.RunID, out.Mode, len(out.Results)-c.Unprocessed, len(out.Results), out.Elapsed.Round(time.Millisecond)))
	b.WriteString(p.Sprintf("Succeeded: %d  Failed: %d  Skipped: %d  Unprocessed: %d\n",
		c.Succeeded, c.Failed, c.Skipped, c.Unprocessed))
	if out.Canceled {
		b.WriteString("Run was canceled before every item was processed\n")
	}
	writeClusters(&b, p, out.Summary(), clusterLimit)
	return b.String()
}

func writeClusters(b *strings.Builder, p *message.Printer, clusters []diagnostics.Cluster, limit int) {
	if len(clusters) == 0 || limit == 0 {
		return
	}
	b.WriteString("Failure clusters:\n")
	for i, cl := range clusters {
		if i == limit {
			b.WriteString(p.Sprintf("  ... and %d more\n", len(clusters)-limit))
			break
		}
		b.WriteString(p.Sprintf("  %6d × %s (first at #%d)\n", cl.Count, truncate(cl.Example, maxCellWidth), cl.FirstIndex))
	}
}

func renderStyledSummary(w io.Writer, out *batchOutcome, clusterLimit int) error {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	boxStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Width(summaryBoxWidth)

	p := message.NewPrinter(language.English)
	c := out.Counts()

	var content strings.Builder
	content.WriteString(titleStyle.Render("BATCH SUMMARY"))
	content.WriteString("\n")
	content.WriteString(mutedStyle.Render(p.Sprintf("run %s · %s mode · %s",
		out.RunID, out.Mode, out.Elapsed.Round(time.Millisecond))))
	content.WriteString("\n\n")
	content.WriteString(okStyle.Render(p.Sprintf("✓ %d succeeded", c.Succeeded)))
	content.WriteString("   ")
	failures := p.Sprintf("✗ %d failed", c.Failures())
	if c.Failures() > 0 {
		failures = failStyle.Render(failures)
	}
	content.WriteString(failures)
	if c.Unprocessed > 0 {
		content.WriteString("   ")
		content.WriteString(mutedStyle.Render(p.Sprintf("… %d unprocessed", c.Unprocessed)))
	}
	content.WriteString("\n")

	var clusters strings.Builder
	writeClusters(&clusters, p, out.Summary(), clusterLimit)
	if clusters.Len() > 0 {
		content.WriteString("\n")
		content.WriteString(strings.TrimRight(clusters.String(), "\n"))
	}

	_, err := fmt.Fprintln(w, boxStyle.Render(content.String()))
	return err
}
