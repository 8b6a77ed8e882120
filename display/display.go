// Package display renders command output as a table, JSON or YAML.
package display

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/gallery/errors"
)

// Output formats accepted by --format.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Format returns the output format of cmd. A set --json flag, local or
// persistent, wins over --format.
func Format(cmd *cobra.Command) string {
	if cmd == nil {
		return FormatTable
	}
	if f := cmd.Flags().Lookup("json"); f != nil && f.Changed {
		if on, _ := cmd.Flags().GetBool("json"); on {
			return FormatJSON
		}
	}
	if format, err := cmd.Flags().GetString("format"); err == nil && format != "" {
		return format
	}
	return FormatTable
}

// MarshalJSON marshals v with indentation.
func MarshalJSON(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// Write encodes v to w as JSON or YAML.
func Write(w io.Writer, format string, v interface{}) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = MarshalJSON(v)
		if err == nil {
			data = append(data, '\n')
		}
	case FormatYAML:
		data, err = yaml.Marshal(v)
	default:
		return errors.Newf("unsupported format: %s (supported: table, json, yaml)", format)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to marshal %s", format)
	}
	_, err = w.Write(data)
	return err
}

// Table is a header plus rows of cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Render writes t to w in format. Table format uses pterm; the structured
// formats encode the rows as a list of header-keyed maps.
func (t Table) Render(w io.Writer, format string) error {
	if format != FormatTable {
		return Write(w, format, t.records())
	}
	if len(t.Rows) == 0 {
		_, err := fmt.Fprintln(w, "(no items)")
		return err
	}

	data := pterm.TableData{t.Header}
	data = append(data, t.Rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Wrap(err, "failed to render table")
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func (t Table) records() []map[string]string {
	records := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Header))
		for i, h := range t.Header {
			if i < len(row) {
				rec[h] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records
}
