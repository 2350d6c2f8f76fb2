package eval

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/google/uuid"

	"github.com/matzehuels/flowscope/pkg/errors"
)

// StatsCollector accumulates numeric columns across repeated
// evaluations, one row per run, for export. Columns are created on
// first append and keep their creation order. All columns must be
// appended to every row: export fails on mismatched column lengths
// instead of silently padding.
type StatsCollector struct {
	// RunID identifies the collection run in exported data.
	RunID string

	order []string
	cols  map[string][]float64
}

// NewStatsCollector returns an empty collector with a fresh run ID.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{
		RunID: uuid.NewString(),
		cols:  make(map[string][]float64),
	}
}

// Append adds one value to the named column, creating it if needed.
func (c *StatsCollector) Append(column string, v float64) {
	if _, ok := c.cols[column]; !ok {
		c.order = append(c.order, column)
	}
	c.cols[column] = append(c.cols[column], v)
}

// AppendReport adds one full report as a row, one column per metric.
func (c *StatsCollector) AppendReport(r Report) {
	for _, col := range r.Columns() {
		c.Append(col.Name, col.Value)
	}
}

// Columns returns the column names in creation order.
func (c *StatsCollector) Columns() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of rows, assuming consistent columns. With no
// columns it is 0.
func (c *StatsCollector) Len() int {
	if len(c.order) == 0 {
		return 0
	}
	return len(c.cols[c.order[0]])
}

// Rows materializes the collected data row-major. Mismatched column
// lengths are a programmer error and reported, never silently ignored.
func (c *StatsCollector) Rows() ([][]float64, error) {
	if len(c.order) == 0 {
		return nil, nil
	}
	n := len(c.cols[c.order[0]])
	for _, name := range c.order {
		if len(c.cols[name]) != n {
			return nil, errors.New(errors.ErrCodeColumnMismatch,
				"column %q has %d values, expected %d", name, len(c.cols[name]), n)
		}
	}

	rows := make([][]float64, n)
	for i := range rows {
		row := make([]float64, len(c.order))
		for j, name := range c.order {
			row[j] = c.cols[name][i]
		}
		rows[i] = row
	}
	return rows, nil
}

// WriteCSV exports the collected columns as CSV with a header row. The
// run ID is emitted as the first column of every row.
func (c *StatsCollector) WriteCSV(w io.Writer) error {
	rows, err := c.Rows()
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := append([]string{"run_id"}, c.Columns()...)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write CSV header")
	}

	record := make([]string, len(header))
	for _, row := range rows {
		record[0] = c.RunID
		for i, v := range row {
			record[i+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write CSV row")
		}
	}
	cw.Flush()
	return cw.Error()
}
