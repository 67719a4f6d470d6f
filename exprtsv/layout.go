package exprtsv

import "strings"

// ProteinCoding is the gene_type value that marks a gene for inclusion.
// Everything else (lncRNA, miRNA, pseudogenes, ...) is filtered out.
const ProteinCoding = "protein_coding"

// Layout names the columns of an expression file rather than assuming
// positions, so that a file missing a required column fails loudly instead
// of silently yielding garbage.
type Layout struct {
	Delimiter     rune
	Comment       rune
	ColGeneID     string
	ColGeneType   string
	ColGeneName   string
	ColExpression string
}

// Layouts covers the column sets emitted by the GDC STAR-counts pipeline.
// The three built-ins differ only in which quantification column they pull.
var Layouts = map[string]Layout{
	"GDC_TPM": {
		Delimiter:     '\t',
		Comment:       '#',
		ColGeneID:     "gene_id",
		ColGeneType:   "gene_type",
		ColGeneName:   "gene_name",
		ColExpression: "tpm_unstranded",
	},
	"GDC_FPKM": {
		Delimiter:     '\t',
		Comment:       '#',
		ColGeneID:     "gene_id",
		ColGeneType:   "gene_type",
		ColGeneName:   "gene_name",
		ColExpression: "fpkm_unstranded",
	},
	"GDC_COUNTS": {
		Delimiter:     '\t',
		Comment:       '#',
		ColGeneID:     "gene_id",
		ColGeneType:   "gene_type",
		ColGeneName:   "gene_name",
		ColExpression: "unstranded",
	},
}

func LayoutNames() string {
	b := strings.Builder{}
	i := 0
	for m := range Layouts {
		if i != 0 {
			b.WriteString(", ")
		}
		b.WriteString(m)
		i++
	}

	return b.String()
}
