// Package exprtsv parses per-sample TCGA RNA-seq quantification files into
// filtered gene expression mappings.
package exprtsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// GeneExpression is one data row of an expression file.
type GeneExpression struct {
	GeneID   string
	GeneName string
	GeneType string
	Value    float64
}

// Sample holds the filtered expression values of one input file, keyed by
// version-stripped Ensembl gene ID.
type Sample struct {
	ID string

	// Expr maps clean gene ID to expression value.
	Expr map[string]float64

	// Names maps clean gene ID to its HGNC symbol, for optional column
	// renaming at export.
	Names map[string]string
}

// RowStats counts what happened to each input row, for the run summary.
type RowStats struct {
	RowsSeen    int
	QCDropped   int
	TypeDropped int

	// Collisions counts rows whose gene ID collapsed onto an ID already
	// recorded for this sample after version stripping. Last occurrence
	// wins.
	Collisions int
}

type Parser struct {
	Layout Layout
}

func New(layout string) (*Parser, error) {
	l, exists := Layouts[layout]
	if !exists {
		return nil, fmt.Errorf("layout %s is not found. Valid layout names include: %s", layout, LayoutNames())
	}

	return NewWithLayout(l)
}

func NewWithLayout(layout Layout) (*Parser, error) {
	return &Parser{Layout: layout}, nil
}

// IsQCRow reports whether the raw gene identifier denotes an upstream
// quality-control summary row (N_unmapped, N_multimapping, N_noFeature,
// N_ambiguous) rather than a real gene measurement.
func IsQCRow(geneID string) bool {
	return strings.HasPrefix(geneID, "N_")
}

// StripVersion removes a trailing ".<digits>" version suffix from an
// Ensembl identifier, so that the same gene joins across samples annotated
// with different GENCODE releases. Idempotent.
func StripVersion(id string) string {
	dot := strings.LastIndexByte(id, '.')
	if dot < 0 || dot == len(id)-1 {
		return id
	}

	for _, r := range id[dot+1:] {
		if r < '0' || r > '9' {
			return id
		}
	}

	return id[:dot]
}

type columns struct {
	geneID     int
	geneType   int
	geneName   int
	expression int
}

// resolveHeader maps the layout's named columns onto header positions.
func (p *Parser) resolveHeader(header []string) (columns, error) {
	cols := columns{geneID: -1, geneType: -1, geneName: -1, expression: -1}

	for i, name := range header {
		switch name {
		case p.Layout.ColGeneID:
			cols.geneID = i
		case p.Layout.ColGeneType:
			cols.geneType = i
		case p.Layout.ColGeneName:
			cols.geneName = i
		case p.Layout.ColExpression:
			cols.expression = i
		}
	}

	for _, missing := range []struct {
		name string
		pos  int
	}{
		{p.Layout.ColGeneID, cols.geneID},
		{p.Layout.ColGeneType, cols.geneType},
		{p.Layout.ColGeneName, cols.geneName},
		{p.Layout.ColExpression, cols.expression},
	} {
		if missing.pos < 0 {
			return cols, fmt.Errorf("required column %q is not present in the header", missing.name)
		}
	}

	return cols, nil
}

// parseRow interprets one data row according to previously resolved columns.
func (p *Parser) parseRow(row []string, cols columns) (GeneExpression, error) {
	g := GeneExpression{
		GeneID:   row[cols.geneID],
		GeneName: row[cols.geneName],
		GeneType: row[cols.geneType],
	}

	if value, err := strconv.ParseFloat(row[cols.expression], 64); err != nil {
		return g, err
	} else {
		g.Value = value
	}

	return g, nil
}

// ParseSample consumes one expression file. Rows are rejected in a fixed
// order: quality-control rows first, regardless of their gene_type, then
// anything that is not protein_coding. Surviving gene IDs are version
// stripped; a within-sample duplicate after stripping is overwritten
// (last occurrence wins) and counted in the returned stats.
func (p *Parser) ParseSample(r io.Reader, sampleID string) (*Sample, RowStats, error) {
	stats := RowStats{}

	cr := csv.NewReader(r)
	cr.Comma = p.Layout.Delimiter
	cr.Comment = p.Layout.Comment
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, stats, errors.New("file contains no header row")
	} else if err != nil {
		return nil, stats, err
	}

	cols, err := p.resolveHeader(header)
	if err != nil {
		return nil, stats, err
	}

	sample := &Sample{
		ID:    sampleID,
		Expr:  make(map[string]float64),
		Names: make(map[string]string),
	}

	for i := 0; ; i++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, stats, fmt.Errorf("data row %d: %w", i, err)
		}

		stats.RowsSeen++

		if IsQCRow(row[cols.geneID]) {
			stats.QCDropped++
			continue
		}

		if row[cols.geneType] != ProteinCoding {
			stats.TypeDropped++
			continue
		}

		g, err := p.parseRow(row, cols)
		if err != nil {
			return nil, stats, fmt.Errorf("data row %d: %w", i, err)
		}

		clean := StripVersion(g.GeneID)
		if _, exists := sample.Expr[clean]; exists {
			stats.Collisions++
		}
		sample.Expr[clean] = g.Value
		sample.Names[clean] = g.GeneName
	}

	return sample, stats, nil
}
