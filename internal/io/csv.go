// Package io provides data input/output for the pipeline: CSV catalog
// loading and Parquet persistence of the derived feature table.
package io

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prodlens/prodlens/internal/catalog"
	"github.com/prodlens/prodlens/internal/errors"
)

// CSVOptions configures catalog CSV parsing.
type CSVOptions struct {
	Delimiter rune
	Comment   rune
}

// DefaultCSVOptions returns standard comma-delimited parsing.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{Delimiter: ','}
}

// LoadCatalog reads every CSV file under inputPath and unions the rows by
// column name. inputPath may be a directory (all *.csv files in it), a glob
// pattern, or a single file. Files may carry the expected columns in any
// order; columns missing from a file yield empty fields for its rows, and
// unknown columns are ignored. An input path matching no readable file is
// fatal.
func LoadCatalog(inputPath string, opts CSVOptions) ([]catalog.RawRecord, error) {
	files, err := resolveInputFiles(inputPath)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.NewMissingInputError("load", inputPath)
	}

	var records []catalog.RawRecord
	for _, file := range files {
		fileRecords, err := readCatalogFile(file, opts)
		if err != nil {
			return nil, err
		}
		records = append(records, fileRecords...)
	}
	return records, nil
}

func resolveInputFiles(inputPath string) ([]string, error) {
	info, err := os.Stat(inputPath)
	switch {
	case err == nil && info.IsDir():
		return filepath.Glob(filepath.Join(inputPath, "*.csv"))
	case err == nil:
		return []string{inputPath}, nil
	default:
		// Not a file or directory; treat as a glob pattern.
		matches, globErr := filepath.Glob(inputPath)
		if globErr != nil {
			return nil, errors.NewInvalidInputError("load", fmt.Sprintf("bad input pattern %q: %v", inputPath, globErr))
		}
		return matches, nil
	}
}

func readCatalogFile(path string, opts CSVOptions) ([]catalog.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIOError("load", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = opts.Delimiter
	reader.Comment = opts.Comment
	reader.FieldsPerRecord = -1 // scraped files have ragged rows
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewIOError("load", path, err)
	}
	if len(rows) < 2 {
		// Header only or empty: contributes no records.
		return nil, nil
	}

	index := headerIndex(rows[0])

	records := make([]catalog.RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, catalog.RawRecord{
			Name:          fieldAt(row, index, catalog.ColName),
			MainCategory:  fieldAt(row, index, catalog.ColMainCategory),
			SubCategory:   fieldAt(row, index, catalog.ColSubCategory),
			Ratings:       fieldAt(row, index, catalog.ColRatings),
			ReviewCount:   fieldAt(row, index, catalog.ColReviewCount),
			DiscountPrice: fieldAt(row, index, catalog.ColDiscountPrice),
			ActualPrice:   fieldAt(row, index, catalog.ColActualPrice),
		})
	}
	return records, nil
}

// headerIndex maps recognized column names to their position in this file.
func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.ToLower(name))] = i
	}
	return index
}

func fieldAt(row []string, index map[string]int, column string) string {
	i, exists := index[column]
	if !exists || i >= len(row) {
		return ""
	}
	return row[i]
}
