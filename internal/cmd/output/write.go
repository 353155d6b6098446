package output

import (
	"io"

	md "github.com/nao1215/markdown"

	"github.com/evalia-ai/evalia/internal/cmd/table"
)

// Write renders a command result. Table formats print rows, markdown prints
// rows as a markdown table, and the others serialize raw as is.
func Write(w io.Writer, format Format, rows table.Data, raw any) error {
	switch format {
	case FormatTable, FormatWide, "":
		return NewFormatter(format).Format(w, rows)
	case FormatMarkdown:
		return md.NewMarkdown(w).
			Table(md.TableSet{Header: rows.Headers, Rows: rows.Rows}).
			Build()
	default:
		return NewFormatter(format).Format(w, raw)
	}
}
