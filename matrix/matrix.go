// Package matrix assembles filtered per-sample expression mappings into one
// rectangular samples-by-genes matrix and exports it.
package matrix

import (
	"fmt"
	"sort"

	"github.com/tcgatools/tcga2matrix/exprtsv"
)

// Builder accumulates samples before the column universe is known. The
// final gene set is the union across all samples, so materialization is
// deferred until every file has been ingested.
type Builder struct {
	samples []*exprtsv.Sample
	seen    map[string]struct{}
}

func NewBuilder() *Builder {
	return &Builder{
		seen: make(map[string]struct{}),
	}
}

// Add registers one ingested sample. Two samples sharing an ID would
// silently overwrite each other's row, so that is an error here rather
// than a policy choice.
func (b *Builder) Add(s *exprtsv.Sample) error {
	if _, exists := b.seen[s.ID]; exists {
		return fmt.Errorf("duplicate sample ID %q", s.ID)
	}
	b.seen[s.ID] = struct{}{}
	b.samples = append(b.samples, s)

	return nil
}

func (b *Builder) SampleCount() int {
	return len(b.samples)
}

// Matrix is the finished rectangular result. Rows follow SampleIDs, cells
// follow GeneIDs; every cell holds a value, with 0 standing in for genes
// absent from a sample's filtered input.
type Matrix struct {
	SampleIDs []string
	GeneIDs   []string

	// Names carries the HGNC symbol for each clean gene ID, merged across
	// samples in ingestion order with the last seen symbol winning.
	Names map[string]string

	Rows [][]float64

	// ZeroFilled counts cells that were absent from their sample's input
	// and explicitly set to 0.
	ZeroFilled int
}

// Build computes the gene-ID union, sorts samples and genes, and fills a
// dense matrix. Output is bit-reproducible for a given set of inputs no
// matter what order the filesystem enumerated them in.
func (b *Builder) Build() *Matrix {
	m := &Matrix{
		Names: make(map[string]string),
	}

	universe := make(map[string]struct{})
	for _, s := range b.samples {
		for id := range s.Expr {
			universe[id] = struct{}{}
		}
		for id, name := range s.Names {
			m.Names[id] = name
		}
	}

	m.GeneIDs = make([]string, 0, len(universe))
	for id := range universe {
		m.GeneIDs = append(m.GeneIDs, id)
	}
	sort.Strings(m.GeneIDs)

	ordered := make([]*exprtsv.Sample, len(b.samples))
	copy(ordered, b.samples)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	m.SampleIDs = make([]string, 0, len(ordered))
	m.Rows = make([][]float64, 0, len(ordered))
	for _, s := range ordered {
		row := make([]float64, len(m.GeneIDs))
		for j, id := range m.GeneIDs {
			if value, exists := s.Expr[id]; exists {
				row[j] = value
			} else {
				m.ZeroFilled++
			}
		}

		m.SampleIDs = append(m.SampleIDs, s.ID)
		m.Rows = append(m.Rows, row)
	}

	return m
}

// Labels produces the output column labels. With useGeneNames, each column
// is labeled with its HGNC symbol where that symbol is unambiguous; when
// two gene IDs share a symbol, the first column in sorted gene-ID order
// takes the symbol and later columns fall back to their Ensembl ID. The
// second return value counts those fallbacks.
func (m *Matrix) Labels(useGeneNames bool) ([]string, int) {
	labels := make([]string, len(m.GeneIDs))

	if !useGeneNames {
		copy(labels, m.GeneIDs)
		return labels, 0
	}

	collisions := 0
	taken := make(map[string]struct{}, len(m.GeneIDs))
	for i, id := range m.GeneIDs {
		name := m.Names[id]
		if name == "" {
			labels[i] = id
			continue
		}
		if _, exists := taken[name]; exists {
			collisions++
			labels[i] = id
			continue
		}
		taken[name] = struct{}{}
		labels[i] = name
	}

	return labels, collisions
}
