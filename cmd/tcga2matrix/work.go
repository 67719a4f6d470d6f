package main

import (
	"bufio"
	"bytes"
	"io"
	"log"
	"strings"

	"github.com/tcgatools/tcga2matrix"
	"github.com/tcgatools/tcga2matrix/exprtsv"
)

type result struct {
	sample *exprtsv.Sample
	stats  exprtsv.RowStats
	err    error
}

// parseAll fans the tasks out over a bounded worker pool. Each worker
// writes into its own slot of the results slice, so the merge that follows
// can run single-threaded in discovery order with no locking.
func parseAll(tasks []task, opts runOptions) []result {
	results := make([]result, len(tasks))

	concurrency := opts.concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan bool, concurrency)

	for i, t := range tasks {
		sem <- true
		go func(i int, t task) {
			defer func() { <-sem }()

			results[i] = parseOne(t, opts)
		}(i, t)

		if (i+1)%100 == 0 {
			log.Printf("Dispatched %d of %d files\n", i+1, len(tasks))
		}
	}

	for i := 0; i < cap(sem); i++ {
		sem <- true
	}

	return results
}

// parseOne ingests a single expression file into a Sample. Any failure is
// wrapped as a FileFormatError naming the path, so the caller's strictness
// policy can report it.
func parseOne(t task, opts runOptions) result {
	rc, err := tcga2matrix.MaybeOpenFromGoogleStorage(t.Path, opts.client)
	if err != nil {
		return result{err: &exprtsv.FileFormatError{Path: t.Path, Err: err}}
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return result{err: &exprtsv.FileFormatError{Path: t.Path, Err: err}}
	}

	dec, err := tcga2matrix.MaybeDecompressReadCloser(raw)
	if err != nil {
		return result{err: &exprtsv.FileFormatError{Path: t.Path, Err: err}}
	}
	defer dec.Close()

	text, err := io.ReadAll(dec)
	if err != nil {
		return result{err: &exprtsv.FileFormatError{Path: t.Path, Err: err}}
	}

	layout := opts.layout
	if opts.autoDelim {
		layout.Delimiter = detectDelimiter(text, layout.Comment)
	}

	parser, err := exprtsv.NewWithLayout(layout)
	if err != nil {
		return result{err: &exprtsv.FileFormatError{Path: t.Path, Err: err}}
	}

	sample, stats, err := parser.ParseSample(bytes.NewReader(text), t.SampleID)
	if err != nil {
		return result{stats: stats, err: &exprtsv.FileFormatError{Path: t.Path, Err: err}}
	}

	return result{sample: sample, stats: stats}
}

// detectDelimiter sniffs the field delimiter from the file contents,
// ignoring comment lines so a leading "# gene-model: ..." annotation does
// not throw the detector off.
func detectDelimiter(text []byte, comment rune) rune {
	b := strings.Builder{}

	scanner := bufio.NewScanner(bytes.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lines := 0
	for scanner.Scan() && lines < 20 {
		line := scanner.Text()
		if strings.HasPrefix(line, string(comment)) || line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
		lines++
	}

	return tcga2matrix.DetermineDelimiter(strings.NewReader(b.String()))
}
