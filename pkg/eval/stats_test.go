package eval

import (
	"strings"
	"testing"

	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/layout"
)

func TestStatsCollectorRows(t *testing.T) {
	c := NewStatsCollector()
	c.Append("bends", 3)
	c.Append("tension", 1.5)
	c.Append("bends", 5)
	c.Append("tension", 0.5)

	rows, err := c.Rows()
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0][0] != 3 || rows[0][1] != 1.5 {
		t.Errorf("row 0 = %v", rows[0])
	}
	if rows[1][0] != 5 || rows[1][1] != 0.5 {
		t.Errorf("row 1 = %v", rows[1])
	}
	if got := c.Columns(); got[0] != "bends" || got[1] != "tension" {
		t.Errorf("columns = %v", got)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestStatsCollectorMismatch(t *testing.T) {
	c := NewStatsCollector()
	c.Append("bends", 3)
	c.Append("tension", 1.5)
	c.Append("bends", 5) // second row never gets a tension value

	_, err := c.Rows()
	if err == nil {
		t.Fatal("expected error for mismatched column lengths")
	}
	if !errors.Is(err, errors.ErrCodeColumnMismatch) {
		t.Errorf("error code = %v, want COLUMN_MISMATCH", errors.GetCode(err))
	}

	if err := c.WriteCSV(&strings.Builder{}); err == nil {
		t.Error("WriteCSV must surface the mismatch")
	}
}

func TestStatsCollectorCSV(t *testing.T) {
	c := NewStatsCollector()
	c.Append("a", 1)
	c.Append("b", 2.5)

	var buf strings.Builder
	if err := c.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2:\n%s", len(lines), buf.String())
	}
	if lines[0] != "run_id,a,b" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], c.RunID+",") || !strings.HasSuffix(lines[1], "1,2.5") {
		t.Errorf("row = %q", lines[1])
	}
}

func TestStatsCollectorRunIDsUnique(t *testing.T) {
	if NewStatsCollector().RunID == NewStatsCollector().RunID {
		t.Error("collectors share a run ID")
	}
}

func TestAppendReportKeepsColumnsAligned(t *testing.T) {
	g := layout.NewFlatGraph()
	n := g.AddNode(0, 10, 10)
	n.X, n.Y = 5, 5

	c := NewStatsCollector()
	c.AppendReport(Evaluate(g))
	c.AppendReport(Evaluate(g))

	rows, err := c.Rows()
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("rows = %d, want 2", len(rows))
	}
	if len(c.Columns()) != len(Evaluate(g).Columns()) {
		t.Errorf("columns = %d, want %d", len(c.Columns()), len(Evaluate(g).Columns()))
	}
}
