package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/libadmin/internal/constants"
)

const defaultIndent = 2

// OutputRenderer handles different output formats.
type OutputRenderer[T any] struct {
	RenderJSON  func(w io.Writer, data T) error
	RenderYAML  func(w io.Writer, data T) error
	RenderTable func(w io.Writer, data T) error
}

// Render outputs data in the specified format.
func (o *OutputRenderer[T]) Render(w io.Writer, data T, format string) error {
	switch format {
	case constants.FormatJSON:
		return o.RenderJSON(w, data)
	case constants.FormatYAML:
		return o.RenderYAML(w, data)
	default:
		return o.RenderTable(w, data)
	}
}

// StandardJSONRenderer writes data as indented JSON.
func StandardJSONRenderer[T any](w io.Writer, data T) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to JSON: %w", err)
	}

	return nil
}

// StandardYAMLRenderer writes data as YAML.
func StandardYAMLRenderer[T any](w io.Writer, data T) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(defaultIndent)

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}

	return encoder.Close()
}

// renderRows writes a table with header and rows.
func renderRows(w io.Writer, header []string, rows [][]string) error {
	headings := make([]any, len(header))
	for i, h := range header {
		headings[i] = h
	}

	table := tablewriter.NewWriter(w)
	table.Header(headings...)

	for _, row := range rows {
		err := table.Append(row)
		if err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// renderProperties writes a two-column property table.
func renderProperties(w io.Writer, pairs [][2]string) error {
	rows := make([][]string, 0, len(pairs))
	for _, pair := range pairs {
		value := pair[1]
		if value == "" {
			value = constants.NotAvailable
		}

		rows = append(rows, []string{pair[0], value})
	}

	return renderRows(w, []string{"Property", "Value"}, rows)
}
