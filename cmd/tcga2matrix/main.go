// tcga2matrix flattens a folder of TCGA RNA-seq quantification files into
// one samples-by-genes CSV matrix, keeping protein-coding genes only.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"cloud.google.com/go/storage"
	"github.com/tcgatools/tcga2matrix"
	"github.com/tcgatools/tcga2matrix/buildinfo"
	"github.com/tcgatools/tcga2matrix/exprtsv"
	"github.com/tcgatools/tcga2matrix/matrix"
)

type runOptions struct {
	layout       exprtsv.Layout
	autoDelim    bool
	skipErrors   bool
	useGeneNames bool
	concurrency  int
	client       *storage.Client
}

func main() {
	start := time.Now()
	log.Println("tcga2matrix start")
	defer func() {
		log.Printf("tcga2matrix end. Took %.2f seconds\n", time.Since(start).Seconds())
	}()

	buildinfo.Print(os.Stderr)

	var folder, out, layoutName, expressionColumn, suffix, match, manifest, delimiter string
	var skipErrors, useGeneNames bool
	var concurrency int

	flag.StringVar(&folder, "folder", "", "Path to the root folder containing per-sample expression files. The parent directory name of each file becomes its sample ID.")
	flag.StringVar(&out, "out", "", "Path to the output CSV matrix.")
	flag.StringVar(&layoutName, "layout", "GDC_TPM", "Input column layout. One of: "+exprtsv.LayoutNames())
	flag.StringVar(&expressionColumn, "expression-column", "", "(Optional) Overrides the layout's expression value column name.")
	flag.StringVar(&suffix, "suffix", ".tsv", "(Optional) Suffix required of input file names.")
	flag.StringVar(&match, "match", "rna_seq", "(Optional) Substring required in input file names. Pass an empty string to accept any name.")
	flag.StringVar(&manifest, "manifest", "", "(Optional) Tab-delimited manifest with sample_id and path columns. Replaces -folder discovery. Paths may be gs:// objects.")
	flag.StringVar(&delimiter, "delimiter", "auto", "(Optional) Input field delimiter: auto, tab, comma, or a single character.")
	flag.BoolVar(&skipErrors, "skip-errors", false, "(Optional) Skip unreadable or malformed files with a warning instead of aborting.")
	flag.BoolVar(&useGeneNames, "use-gene-names", false, "(Optional) Label output columns with HGNC gene names where unambiguous, instead of Ensembl IDs.")
	flag.IntVar(&concurrency, "concurrency", 4*runtime.NumCPU(), "(Optional) Number of files parsed concurrently.")
	flag.Parse()

	if out == "" || (folder == "" && manifest == "") {
		flag.PrintDefaults()
		os.Exit(1)
	}

	folder = tcga2matrix.ExpandHome(folder)
	out = tcga2matrix.ExpandHome(out)

	parser, err := exprtsv.New(layoutName)
	if err != nil {
		log.Fatalln(err)
	}
	opts := runOptions{
		layout:       parser.Layout,
		skipErrors:   skipErrors,
		useGeneNames: useGeneNames,
		concurrency:  concurrency,
	}
	if expressionColumn != "" {
		opts.layout.ColExpression = expressionColumn
	}

	switch delimiter {
	case "auto":
		opts.autoDelim = true
	case "tab":
		opts.layout.Delimiter = '\t'
	case "comma":
		opts.layout.Delimiter = ','
	default:
		runes := []rune(delimiter)
		if len(runes) != 1 {
			log.Fatalf("-delimiter must be auto, tab, comma, or a single character; got %q\n", delimiter)
		}
		opts.layout.Delimiter = runes[0]
	}

	var tasks []task
	if manifest != "" {
		manifest = tcga2matrix.ExpandHome(manifest)

		sclient, err := storage.NewClient(context.Background())
		if err != nil {
			log.Println("Google Storage client unavailable; gs:// paths will fail:", err)
		} else {
			opts.client = sclient
		}

		tasks, err = readManifest(manifest, opts.client)
		if err != nil {
			log.Fatalln(err)
		}
	} else {
		tasks, err = discoverFolder(folder, suffix, match)
		if err != nil {
			log.Fatalln(err)
		}
	}

	if len(tasks) == 0 {
		log.Fatalf("found no input files (suffix %q, match %q)\n", suffix, match)
	}
	log.Printf("Found %d input files\n", len(tasks))

	summary, err := run(tasks, out, opts)
	if err != nil {
		log.Fatalln(err)
	}

	logSummary(summary)

	if err := verify(out, summary); err != nil {
		log.Fatalln(err)
	}
}

// run parses every discovered file, merges the results in discovery order,
// and exports the assembled matrix.
func run(tasks []task, out string, opts runOptions) (matrix.Summary, error) {
	summary := matrix.Summary{}

	results := parseAll(tasks, opts)

	builder := matrix.NewBuilder()
	for i, res := range results {
		if res.err != nil {
			if !opts.skipErrors {
				return summary, res.err
			}
			log.Println("Skipping:", res.err)
			summary.FilesSkipped++
			continue
		}

		if err := builder.Add(res.sample); err != nil {
			// Duplicate sample IDs mean the inputs are not what the user
			// thinks they are. Never skippable.
			return summary, fmt.Errorf("%s: %w", tasks[i].Path, err)
		}

		summary.SamplesProcessed++
		summary.RowsSeen += res.stats.RowsSeen
		summary.QCDropped += res.stats.QCDropped
		summary.NonCodingDropped += res.stats.TypeDropped
		summary.DuplicateIDCollisions += res.stats.Collisions
	}

	if summary.SamplesProcessed == 0 {
		return summary, fmt.Errorf("all %d input files failed to parse", len(tasks))
	}

	log.Println("Merging samples into the expression matrix")
	m := builder.Build()
	summary.Genes = len(m.GeneIDs)
	summary.ZeroFilledCells = m.ZeroFilled

	labels, renameCollisions := m.Labels(opts.useGeneNames)
	summary.RenameCollisions = renameCollisions

	log.Printf("Writing %d x %d matrix to %s\n", len(m.SampleIDs), len(m.GeneIDs), out)
	if err := m.WriteCSV(out, labels); err != nil {
		return summary, err
	}

	if mean, max, nonzero, err := m.Stats(); err == nil {
		log.Printf("Mean expression across all cells: %.2f\n", mean)
		log.Printf("Max expression value: %.2f\n", max)
		log.Printf("Non-zero cells: %d / %d\n", nonzero, len(m.SampleIDs)*len(m.GeneIDs))
	}

	return summary, nil
}

func logSummary(s matrix.Summary) {
	log.Printf("Samples processed: %d\n", s.SamplesProcessed)
	log.Printf("Files skipped: %d\n", s.FilesSkipped)
	log.Printf("Gene rows seen: %d, dropped as QC rows: %d, dropped as non-coding: %d, retained: %d\n",
		s.RowsSeen, s.QCDropped, s.NonCodingDropped, s.RowsRetained())
	log.Printf("Within-sample duplicate gene IDs after version stripping (last won): %d\n", s.DuplicateIDCollisions)
	if s.RenameCollisions > 0 {
		log.Printf("Gene name collisions at renaming (kept Ensembl ID): %d\n", s.RenameCollisions)
	}
	log.Printf("Final matrix: %d samples x %d genes, %d cells zero-filled\n", s.SamplesProcessed, s.Genes, s.ZeroFilledCells)
}

// verify re-reads the exported CSV and checks its shape against the
// summary.
func verify(out string, s matrix.Summary) error {
	rows, cols, err := matrix.ReadCSVShape(out)
	if err != nil {
		return err
	}

	if rows != s.SamplesProcessed || cols != s.Genes {
		return fmt.Errorf("round-trip mismatch: exported file has %d x %d, summary says %d x %d", rows, cols, s.SamplesProcessed, s.Genes)
	}

	log.Printf("Verified %s: %d samples x %d genes\n", out, rows, cols)

	return nil
}
