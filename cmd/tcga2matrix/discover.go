package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/gocarina/gocsv"
	"github.com/tcgatools/tcga2matrix"
)

// task is one input file awaiting ingestion.
type task struct {
	SampleID string
	Path     string
}

// discoverFolder walks the input root and keeps files whose names carry the
// required suffix and substring. WalkDir visits lexically, so the task list
// is deterministic for a given tree. The sample ID is the parent directory
// name, which in a GDC download is the per-sample UUID.
func discoverFolder(folder, suffix, match string) ([]task, error) {
	if info, err := os.Stat(folder); err != nil {
		return nil, fmt.Errorf("input folder %s: %w", folder, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("input folder %s is not a directory", folder)
	}

	tasks := []task{}
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(d.Name(), suffix) {
			return nil
		}
		if match != "" && !strings.Contains(d.Name(), match) {
			return nil
		}

		tasks = append(tasks, task{
			SampleID: filepath.Base(filepath.Dir(path)),
			Path:     path,
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// ManifestEntry is one row of a tab-delimited manifest file.
type ManifestEntry struct {
	SampleID string `csv:"sample_id"`
	Path     string `csv:"path"`
}

// readManifest loads an explicit file listing instead of walking a folder.
// The manifest itself, like the files it names, may live in Google Storage.
func readManifest(path string, client *storage.Client) ([]task, error) {
	rc, err := tcga2matrix.MaybeOpenFromGoogleStorage(path, client)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	bts, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	// Tell gocsv to use tab as the delimiter
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = '\t'
		r.LazyQuotes = true
		return r
	})

	entries := []*ManifestEntry{}
	if err := gocsv.UnmarshalBytes(bts, &entries); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	tasks := make([]task, 0, len(entries))
	for i, entry := range entries {
		if entry.SampleID == "" || entry.Path == "" {
			return nil, fmt.Errorf("manifest %s: row %d is missing sample_id or path", path, i)
		}
		tasks = append(tasks, task{SampleID: entry.SampleID, Path: entry.Path})
	}

	return tasks, nil
}
