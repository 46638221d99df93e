package export

import "fmt"

// Column describes one exported column. Width is in millimetres and only
// used by the PDF renderer; zero spreads the remaining page width.
type Column struct {
	Key   string
	Label string
	Width float64
}

// Row holds cell values by column key. Highlighted rows are emphasised
// where the format allows it.
type Row struct {
	Values    map[string]string
	Highlight bool
}

// Table is the format-neutral content of an export.
type Table struct {
	Title   string
	Columns []Column
	Rows    []Row
}

func (t Table) validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("export requires at least one column")
	}
	return nil
}

func (t Table) record(row Row) []string {
	out := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		out[i] = row.Values[col.Key]
	}
	return out
}

func (t Table) labels() []string {
	out := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		out[i] = col.Label
		if out[i] == "" {
			out[i] = col.Key
		}
	}
	return out
}
