package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintTable(t *testing.T) {
	data := NewTableData("NAME", "VALUE")
	data.AddRow("key1", "value1")
	data.AddRow("key2", "value2")

	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, data, nil))

	output := buf.String()
	assert.Contains(t, output, "NAME")
	assert.Contains(t, output, "key1")
	assert.Contains(t, output, "value2")
	assert.Len(t, strings.Split(strings.TrimSpace(output), "\n"), 3)
}

func TestPrintTablePaint(t *testing.T) {
	data := NewTableData("STATUS")
	data.AddRow("ok")

	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, data, strings.ToUpper))

	assert.Contains(t, buf.String(), "OK")
}

type twoTables struct{}

func (twoTables) Sections() []Section {
	first := NewTableData("A")
	first.AddRow("one")
	second := NewTableData("B")
	second.AddRow("two")
	return []Section{{Table: first}, {Title: "Second:", Table: second}}
}

func TestPrinterSections(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable, false).Print(twoTables{}))

	output := buf.String()
	assert.Contains(t, output, "one")
	assert.Contains(t, output, "\nSecond:\n")
	assert.Less(t, strings.Index(output, "one"), strings.Index(output, "two"))
}
