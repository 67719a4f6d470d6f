package matrix

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tcgatools/tcga2matrix/exprtsv"
)

func mustParse(t *testing.T, contents, sampleID string) *exprtsv.Sample {
	t.Helper()

	parser, err := exprtsv.New("GDC_TPM")
	if err != nil {
		t.Fatal(err)
	}

	sample, _, err := parser.ParseSample(strings.NewReader(contents), sampleID)
	if err != nil {
		t.Fatal(err)
	}

	return sample
}

const header = "gene_id\tgene_name\tgene_type\tunstranded\ttpm_unstranded"

// The canonical two-file scenario: the QC row and the non-coding gene must
// leave no trace in the assembled matrix.
func TestTwoSampleAssembly(t *testing.T) {
	a := mustParse(t, strings.Join([]string{
		header,
		"ENSG001.1\tTP53\tprotein_coding\t5\t5.0",
		"N_ambiguous\tX\tprotein_coding\t9\t9.0",
	}, "\n")+"\n", "A")

	b := mustParse(t, strings.Join([]string{
		header,
		"ENSG001.2\tTP53\tprotein_coding\t3\t3.0",
		"ENSG002.1\tY\tlncRNA\t7\t7.0",
	}, "\n")+"\n", "B")

	builder := NewBuilder()
	// Add out of sorted order on purpose; Build sorts.
	if err := builder.Add(b); err != nil {
		t.Fatal(err)
	}
	if err := builder.Add(a); err != nil {
		t.Fatal(err)
	}

	m := builder.Build()

	if len(m.GeneIDs) != 1 || m.GeneIDs[0] != "ENSG001" {
		t.Fatalf("expected exactly the column [ENSG001], got %v", m.GeneIDs)
	}
	if len(m.SampleIDs) != 2 || m.SampleIDs[0] != "A" || m.SampleIDs[1] != "B" {
		t.Fatalf("expected sorted rows [A B], got %v", m.SampleIDs)
	}
	if m.Rows[0][0] != 5.0 || m.Rows[1][0] != 3.0 {
		t.Errorf("cell values: %v", m.Rows)
	}
	if m.ZeroFilled != 0 {
		t.Errorf("expected no zero-filled cells, got %d", m.ZeroFilled)
	}
}

func TestZeroFillRectangular(t *testing.T) {
	a := &exprtsv.Sample{
		ID:    "A",
		Expr:  map[string]float64{"ENSG001": 1.5},
		Names: map[string]string{"ENSG001": "GENE1"},
	}
	b := &exprtsv.Sample{
		ID:    "B",
		Expr:  map[string]float64{"ENSG002": 2.5},
		Names: map[string]string{"ENSG002": "GENE2"},
	}

	builder := NewBuilder()
	if err := builder.Add(a); err != nil {
		t.Fatal(err)
	}
	if err := builder.Add(b); err != nil {
		t.Fatal(err)
	}

	m := builder.Build()

	if len(m.GeneIDs) != 2 {
		t.Fatalf("expected the gene union of size 2, got %v", m.GeneIDs)
	}
	for i, row := range m.Rows {
		if len(row) != len(m.GeneIDs) {
			t.Errorf("row %d has %d cells for %d columns", i, len(row), len(m.GeneIDs))
		}
	}
	if m.Rows[0][1] != 0 || m.Rows[1][0] != 0 {
		t.Errorf("absent genes must be exactly 0: %v", m.Rows)
	}
	if m.ZeroFilled != 2 {
		t.Errorf("expected 2 zero-filled cells, got %d", m.ZeroFilled)
	}
}

func TestSampleWithNoGenesKeepsItsRow(t *testing.T) {
	a := &exprtsv.Sample{ID: "A", Expr: map[string]float64{"ENSG001": 4}, Names: map[string]string{}}
	empty := &exprtsv.Sample{ID: "B", Expr: map[string]float64{}, Names: map[string]string{}}

	builder := NewBuilder()
	if err := builder.Add(a); err != nil {
		t.Fatal(err)
	}
	if err := builder.Add(empty); err != nil {
		t.Fatal(err)
	}

	m := builder.Build()

	if len(m.SampleIDs) != 2 {
		t.Fatalf("empty sample lost its row: %v", m.SampleIDs)
	}
	if m.Rows[1][0] != 0 {
		t.Errorf("empty sample's row must be zero-filled, got %v", m.Rows[1])
	}
}

func TestDuplicateSampleID(t *testing.T) {
	builder := NewBuilder()
	if err := builder.Add(&exprtsv.Sample{ID: "A", Expr: map[string]float64{}}); err != nil {
		t.Fatal(err)
	}
	if err := builder.Add(&exprtsv.Sample{ID: "A", Expr: map[string]float64{}}); err == nil {
		t.Fatal("expected an error for a duplicate sample ID")
	}
}

func TestLabelsRenaming(t *testing.T) {
	a := &exprtsv.Sample{
		ID:   "A",
		Expr: map[string]float64{"ENSG001": 1, "ENSG002": 2, "ENSG003": 3},
		Names: map[string]string{
			"ENSG001": "TP53",
			"ENSG002": "TP53", // same symbol, different gene
			"ENSG003": "BRCA1",
		},
	}

	builder := NewBuilder()
	if err := builder.Add(a); err != nil {
		t.Fatal(err)
	}
	m := builder.Build()

	plain, collisions := m.Labels(false)
	if collisions != 0 || plain[0] != "ENSG001" {
		t.Errorf("plain labels: %v (%d collisions)", plain, collisions)
	}

	named, collisions := m.Labels(true)
	if collisions != 1 {
		t.Errorf("expected 1 rename collision, got %d", collisions)
	}
	// Sorted gene-ID order: ENSG001 takes TP53, ENSG002 falls back.
	if named[0] != "TP53" || named[1] != "ENSG002" || named[2] != "BRCA1" {
		t.Errorf("renamed labels: %v", named)
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	a := &exprtsv.Sample{ID: "A", Expr: map[string]float64{"ENSG001": 5, "ENSG002": 0}, Names: map[string]string{}}
	b := &exprtsv.Sample{ID: "B", Expr: map[string]float64{"ENSG001": 3.25}, Names: map[string]string{}}

	builder := NewBuilder()
	if err := builder.Add(a); err != nil {
		t.Fatal(err)
	}
	if err := builder.Add(b); err != nil {
		t.Fatal(err)
	}
	m := builder.Build()

	out := filepath.Join(t.TempDir(), "matrix.csv")
	labels, _ := m.Labels(false)
	if err := m.WriteCSV(out, labels); err != nil {
		t.Fatal(err)
	}

	rows, cols, err := ReadCSVShape(out)
	if err != nil {
		t.Fatal(err)
	}
	if rows != len(m.SampleIDs) || cols != len(m.GeneIDs) {
		t.Errorf("round-trip shape %dx%d, want %dx%d", rows, cols, len(m.SampleIDs), len(m.GeneIDs))
	}

	bts, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(bts)), "\n")
	if lines[0] != "sample_id,ENSG001,ENSG002" {
		t.Errorf("header: %q", lines[0])
	}
	if lines[1] != "A,5,0" {
		t.Errorf("row A: %q", lines[1])
	}
	// B never saw ENSG002; the cell must be a literal 0, not empty.
	if lines[2] != "B,3.25,0" {
		t.Errorf("row B: %q", lines[2])
	}
}

func TestWriteCSVLabelMismatch(t *testing.T) {
	builder := NewBuilder()
	if err := builder.Add(&exprtsv.Sample{ID: "A", Expr: map[string]float64{"ENSG001": 1}}); err != nil {
		t.Fatal(err)
	}
	m := builder.Build()

	if err := m.WriteCSV(filepath.Join(t.TempDir(), "m.csv"), []string{"a", "b"}); err == nil {
		t.Fatal("expected an error for mismatched label count")
	}
}

func TestStats(t *testing.T) {
	a := &exprtsv.Sample{ID: "A", Expr: map[string]float64{"ENSG001": 4, "ENSG002": 0}, Names: map[string]string{}}
	b := &exprtsv.Sample{ID: "B", Expr: map[string]float64{"ENSG001": 8}, Names: map[string]string{}}

	builder := NewBuilder()
	if err := builder.Add(a); err != nil {
		t.Fatal(err)
	}
	if err := builder.Add(b); err != nil {
		t.Fatal(err)
	}
	m := builder.Build()

	mean, max, nonzero, err := m.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if mean != 3 {
		t.Errorf("mean %v", mean)
	}
	if max != 8 {
		t.Errorf("max %v", max)
	}
	if nonzero != 2 {
		t.Errorf("nonzero %d", nonzero)
	}
}
