// Package output renders run reports and case listings for the CLI.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Format represents the output format type.
type Format string

const (
	// FormatTable outputs data in aligned columns.
	FormatTable Format = "table"
	// FormatJSON outputs data as indented JSON.
	FormatJSON Format = "json"
	// FormatYAML outputs data as YAML.
	FormatYAML Format = "yaml"
)

// ParseFormat parses a string into a Format, returning an error if invalid.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table", "":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid output format: %q (valid: table, json, yaml)", s)
	}
}

func (f Format) String() string {
	return string(f)
}

// Printer writes reports in one format.
type Printer struct {
	out    io.Writer
	format Format
	color  bool
}

// NewPrinter creates a Printer. Color only affects table output.
func NewPrinter(out io.Writer, format Format, color bool) *Printer {
	return &Printer{out: out, format: format, color: color}
}

// Format returns the printer's output format.
func (p *Printer) Format() Format {
	return p.format
}

// Print outputs data in the configured format.
//
// In table format, data is rendered by its Sections when it implements
// Sectioned, as one table when it implements TableRenderer, and as JSON
// otherwise.
func (p *Printer) Print(data any) error {
	switch p.format {
	case FormatTable:
		switch v := data.(type) {
		case Sectioned:
			return p.printSections(v.Sections())
		case TableRenderer:
			return PrintTable(p.out, v, p.paint)
		}
		return PrintJSON(p.out, data)
	case FormatJSON:
		return PrintJSON(p.out, data)
	case FormatYAML:
		return PrintYAML(p.out, data)
	default:
		return fmt.Errorf("unknown format: %s", p.format)
	}
}

func (p *Printer) printSections(sections []Section) error {
	for i, s := range sections {
		if i > 0 {
			_, _ = fmt.Fprintln(p.out)
		}
		if s.Title != "" {
			_, _ = fmt.Fprintln(p.out, s.Title)
		}
		if err := PrintTable(p.out, s.Table, p.paint); err != nil {
			return err
		}
	}
	return nil
}

// Println prints a message followed by a newline.
func (p *Printer) Println(args ...any) {
	_, _ = fmt.Fprintln(p.out, args...)
}

// Printf prints a formatted message.
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// paint colors case status words. Other cells pass through.
func (p *Printer) paint(cell string) string {
	if !p.color {
		return cell
	}
	code, ok := statusColors[cell]
	if !ok {
		return cell
	}
	return "\033[" + code + "m" + cell + "\033[0m"
}

var statusColors = map[string]string{
	"passed":  "32",
	"failed":  "31",
	"errored": "35",
	"skipped": "33",
}

// IsTerminal reports whether w is an *os.File attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
