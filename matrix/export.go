package matrix

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/carbocation/pfx"
	"github.com/montanaflynn/stats"
)

// SampleColumn is the header label of the row-identifier column.
const SampleColumn = "sample_id"

// WriteCSV writes the matrix with the given column labels. The file is
// assembled at a temporary path in the destination directory and renamed
// into place on success, so a failed run never leaves a partial matrix
// behind.
func (m *Matrix) WriteCSV(path string, labels []string) error {
	if len(labels) != len(m.GeneIDs) {
		return fmt.Errorf("got %d column labels for %d genes", len(labels), len(m.GeneIDs))
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return pfx.Err(err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)

	header := make([]string, 0, 1+len(labels))
	header = append(header, SampleColumn)
	header = append(header, labels...)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return pfx.Err(err)
	}

	line := make([]string, 1+len(labels))
	for i, row := range m.Rows {
		line[0] = m.SampleIDs[i]
		for j, value := range row {
			line[1+j] = strconv.FormatFloat(value, 'g', -1, 64)
		}
		if err := w.Write(line); err != nil {
			tmp.Close()
			return pfx.Err(err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return pfx.Err(err)
	}

	if err := tmp.Close(); err != nil {
		return pfx.Err(err)
	}

	return pfx.Err(os.Rename(tmp.Name(), path))
}

// Stats reports the mean and max over all cells plus the count of non-zero
// cells, mirroring what the matrix consumers first ask of a new export.
func (m *Matrix) Stats() (mean, max float64, nonzero int, err error) {
	cells := make([]float64, 0, len(m.Rows)*len(m.GeneIDs))
	for _, row := range m.Rows {
		for _, value := range row {
			if value != 0 {
				nonzero++
			}
			cells = append(cells, value)
		}
	}

	if len(cells) == 0 {
		return 0, 0, 0, fmt.Errorf("matrix has no cells")
	}

	if mean, err = stats.Mean(cells); err != nil {
		return 0, 0, 0, pfx.Err(err)
	}
	if max, err = stats.Max(cells); err != nil {
		return 0, 0, 0, pfx.Err(err)
	}

	return mean, max, nonzero, nil
}

// ReadCSVShape re-reads an exported matrix and reports its data-row and
// data-column counts, for round-trip verification against the summary.
func ReadCSVShape(path string) (rows, cols int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, pfx.Err(err)
	}
	defer f.Close()

	r := csv.NewReader(f)

	header, err := r.Read()
	if err != nil {
		return 0, 0, pfx.Err(err)
	}
	cols = len(header) - 1

	for {
		if _, err := r.Read(); err == io.EOF {
			break
		} else if err != nil {
			return 0, 0, pfx.Err(err)
		}
		rows++
	}

	return rows, cols, nil
}
