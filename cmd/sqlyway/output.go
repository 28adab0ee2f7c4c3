package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// outputFormat is the set of result renderings the query command supports,
// the same vocabulary the teacher's query/executor.go names for its own
// result printer.
type outputFormat string

const (
	formatTable    outputFormat = "table"
	formatJSON     outputFormat = "json"
	formatCSV      outputFormat = "csv"
	formatYAML     outputFormat = "yaml"
	formatMarkdown outputFormat = "markdown"
)

func writeRows(w io.Writer, format outputFormat, columns []string, rows []map[string]any) error {
	switch format {
	case formatJSON:
		return writeJSON(w, rows)
	case formatCSV:
		return writeCSV(w, columns, rows)
	case formatYAML:
		return writeYAML(w, rows)
	case formatMarkdown:
		return writeMarkdown(w, columns, rows)
	case formatTable, "":
		return writeTable(w, columns, rows)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func writeJSON(w io.Writer, rows []map[string]any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func writeYAML(w io.Writer, rows []map[string]any) error {
	data, err := yaml.Marshal(rows)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func writeCSV(w io.Writer, columns []string, rows []map[string]any) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, len(columns))
		for i, c := range columns {
			record[i] = fmt.Sprint(row[c])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeMarkdown(w io.Writer, columns []string, rows []map[string]any) error {
	fmt.Fprintf(w, "| %s |\n", strings.Join(columns, " | "))
	fmt.Fprintf(w, "| %s |\n", strings.Join(repeat("---", len(columns)), " | "))
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = fmt.Sprint(row[c])
		}
		fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
	return nil
}

func writeTable(w io.Writer, columns []string, rows []map[string]any) error {
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = len(c)
	}
	for _, row := range rows {
		for i, c := range columns {
			if l := len(fmt.Sprint(row[c])); l > widths[i] {
				widths[i] = l
			}
		}
	}

	printRow := func(values []string) {
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = fmt.Sprintf("%-*s", widths[i], v)
		}
		fmt.Fprintln(w, strings.Join(parts, "  "))
	}

	printRow(columns)
	for _, row := range rows {
		values := make([]string, len(columns))
		for i, c := range columns {
			values[i] = fmt.Sprint(row[c])
		}
		printRow(values)
	}
	return nil
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}
