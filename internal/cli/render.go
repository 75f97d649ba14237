package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/JonMunkholm/gridview/internal/controller"
	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/manager"
)

// Output formats accepted by --output.
var outputFormats = []string{"table", "json", "csv", "md"}

// pageJSON mirrors the JSON view endpoint of the web server.
type pageJSON struct {
	Data         []core.Row `json:"data"`
	TotalRecords int        `json:"totalRecords"`
	Page         int        `json:"page"`
	TotalPages   int        `json:"totalPages"`
	Error        string     `json:"error,omitempty"`
}

// renderPage writes one settled view in format.
func renderPage(w io.Writer, cols core.Columns, v controller.View, emptyMessage, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(pageJSON{
			Data:         v.Rows,
			TotalRecords: v.TotalRecords,
			Page:         v.State.Page,
			TotalPages:   v.TotalPages,
			Error:        v.Err,
		})
	}

	visible := cols.Visible()
	if v.TotalRecords == 0 && format == "table" {
		_, _ = fmt.Fprintln(w, emptyMessage)
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault

	header := make(table.Row, len(visible))
	var configs []table.ColumnConfig
	for i, col := range visible {
		header[i] = col.Caption
		if col.Align == core.AlignRight || col.Kind.Normalize() == core.KindNumber {
			configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight})
		}
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for _, r := range v.Rows {
		row := make(table.Row, len(visible))
		for i, col := range visible {
			row[i] = manager.Cell(r, col)
		}
		t.AppendRow(row)
	}

	switch format {
	case "csv":
		t.RenderCSV()
	case "md":
		t.RenderMarkdown()
	default:
		t.AppendFooter(table.Row{manager.NewPager(v.State.Page, v.TotalPages).Indicator(), fmt.Sprintf("%d records", v.TotalRecords)})
		t.Render()
	}
	return nil
}

func validFormat(format string) error {
	for _, f := range outputFormats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("invalid output format %q (want table, json, csv or md)", format)
}
