package main

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// listing wraps a go-pretty table with the style every command shares.
type listing struct {
	w table.Writer
}

func newTable(headers ...string) *listing {
	w := table.NewWriter()
	w.SetStyle(table.StyleLight)
	w.Style().Format.Header = text.FormatLower

	row := make(table.Row, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	w.AppendHeader(row)
	return &listing{w: w}
}

func (l *listing) AppendRow(cells ...any) { l.w.AppendRow(table.Row(cells)) }

// AlignRight right-aligns the given 1-based columns.
func (l *listing) AlignRight(cols ...int) {
	configs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		configs[i] = table.ColumnConfig{Number: c, Align: text.AlignRight}
	}
	l.w.SetColumnConfigs(configs)
}

func (l *listing) Render() string { return l.w.Render() }

// metricTable lists run metrics in name order.
func metricTable(values map[string]float64) string {
	names := make([]string, 0, len(values))
	for k := range values {
		names = append(names, k)
	}
	sort.Strings(names)

	t := newTable("metric", "value")
	for _, name := range names {
		t.AppendRow(name, fmt.Sprintf("%.6g", values[name]))
	}
	t.AlignRight(2)
	return t.Render()
}
