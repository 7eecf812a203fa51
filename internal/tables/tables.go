// Package tables reads the whitespace-delimited numeric text tables that
// the bundled example data ships in (Camino simulation outputs, bvals and
// bvecs files, scheme tables).
package tables

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Read parses path into one float slice per non-empty line. Lines starting
// with '#' are skipped. Rows may have differing column counts.
func Read(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows [][]float64
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		row := make([]float64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, line, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

// ReadVector reads a table and flattens it to a single value sequence,
// accepting both one-row and one-column layouts.
func ReadVector(path string) ([]float64, error) {
	rows, err := Read(path)
	if err != nil {
		return nil, err
	}
	var out []float64
	for _, row := range rows {
		out = append(out, row...)
	}
	return out, nil
}

// ReadDense reads a table with a uniform column count into a dense matrix.
func ReadDense(path string) (*mat.Dense, error) {
	rows, err := Read(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty table", path)
	}
	cols := len(rows[0])
	m := mat.NewDense(len(rows), cols, nil)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%s: row %d has %d columns, want %d", path, i, len(row), cols)
		}
		m.SetRow(i, row)
	}
	return m, nil
}
