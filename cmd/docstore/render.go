package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/wbrown/janus-docstore/docstore"
)

const maxCellWidth = 50

// renderValue formats a query result for the terminal. Pages and arrays of
// documents become markdown tables; everything else prints as a single
// value.
func renderValue(v docstore.Value) string {
	// A page is an object carrying its rows under "data"
	if page, ok := v.(docstore.ObjectV); ok {
		if rows, ok := page["data"].(docstore.ArrayV); ok && len(page) <= 2 {
			return renderRows(rows)
		}
		return renderObject(page)
	}

	if rows, ok := v.(docstore.ArrayV); ok {
		return renderRows(rows)
	}

	return v.String()
}

// renderRows renders an array as a table: one row per element, columns
// drawn from the union of object keys.
func renderRows(rows docstore.ArrayV) string {
	if len(rows) == 0 {
		return "_No rows_"
	}

	columns := collectColumns(rows)
	if columns == nil {
		// Mixed or scalar elements: a single value column
		table := newTable([]string{"value"})
		for _, elem := range rows {
			appendRow(table, []string{cell(elem)})
		}
		return render(table) + rowCount(len(rows))
	}

	table := newTable(columns)
	for _, elem := range rows {
		obj := elem.(docstore.ObjectV)
		row := make([]string, len(columns))
		for i, col := range columns {
			if cellValue, present := obj[col]; present {
				row[i] = cell(cellValue)
			}
		}
		appendRow(table, row)
	}
	return render(table) + rowCount(len(rows))
}

func renderObject(obj docstore.ObjectV) string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := newTable([]string{"field", "value"})
	for _, k := range keys {
		appendRow(table, []string{k, cell(obj[k])})
	}
	return render(table)
}

// collectColumns returns the sorted union of keys if every row is an
// object, nil otherwise.
func collectColumns(rows docstore.ArrayV) []string {
	seen := map[string]bool{}
	for _, elem := range rows {
		obj, ok := elem.(docstore.ObjectV)
		if !ok {
			return nil
		}
		for k := range obj {
			seen[k] = true
		}
	}

	columns := make([]string, 0, len(seen))
	for k := range seen {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	return columns
}

func cell(v docstore.Value) string {
	s := v.String()
	if len(s) > maxCellWidth {
		return s[:maxCellWidth-3] + "..."
	}
	return s
}

func rowCount(n int) string {
	return fmt.Sprintf("\n_%d rows_", n)
}

type renderedTable struct {
	table *tablewriter.Table
	out   *strings.Builder
}

func newTable(headers []string) renderedTable {
	out := &strings.Builder{}

	alignment := make([]tw.Align, len(headers))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(out,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(headers)

	return renderedTable{table: table, out: out}
}

func appendRow(t renderedTable, row []string) {
	t.table.Append(row)
}

func render(t renderedTable) string {
	t.table.Render()
	return t.out.String()
}
