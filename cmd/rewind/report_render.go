package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"rewind/internal/importer"
	"rewind/internal/viewing"
)

const (
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderImportReport writes the human-readable run report: a header, the
// outcome summary table, and a detail table for anything that needs the
// user's attention.
func renderImportReport(out io.Writer, result *importer.Result) {
	header := fmt.Sprintf("Import run %s (%s)", result.RunID, result.Source)
	if result.DryRun {
		header += " [dry-run]"
	}
	if shouldColorize(out) {
		header = ansiBold + header + ansiReset
	}
	fmt.Fprintln(out, header)

	rows := make([][]string, 0, 8)
	for _, outcome := range importer.Outcomes() {
		if count := result.Count(outcome); count > 0 {
			rows = append(rows, []string{string(outcome), strconv.Itoa(count)})
		}
	}
	rows = append(rows, []string{"total", strconv.Itoa(result.Total())})
	fmt.Fprintln(out, renderTable([]string{"Outcome", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))

	attention := attentionRows(result)
	if len(attention) == 0 {
		return
	}
	fmt.Fprintln(out, "Needs attention:")
	fmt.Fprintln(out, renderTable(
		[]string{"Show", "Episode", "Date", "Outcome", "Reason"},
		attention,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}))
}

// attentionRows selects the events a user likely has to act on: failures and
// shows that could not be matched on TMDB.
func attentionRows(result *importer.Result) [][]string {
	var rows [][]string
	for _, event := range result.Events {
		if event.Outcome != importer.OutcomeFailed && event.Outcome != importer.OutcomeSkippedUnresolved {
			continue
		}
		episode := viewing.EpisodeLabel(event.Season, event.Episode)
		rows = append(rows, []string{event.Show, episode, event.Date, string(event.Outcome), event.Reason})
	}
	return rows
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
