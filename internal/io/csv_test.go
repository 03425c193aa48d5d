package io

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodlens/prodlens/internal/errors"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const basicCSV = `name,main_category,sub_category,ratings,no_of_ratings,discount_price,actual_price
Headphones,electronics,audio,4.2,"1,250","₹1,499","₹2,999"
Speaker,electronics,audio,3.9,87,₹899,₹999
`

func TestLoadCatalogSingleFile(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "catalog.csv", basicCSV)

	records, err := LoadCatalog(path, DefaultCSVOptions())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Headphones", records[0].Name)
	assert.Equal(t, "electronics", records[0].MainCategory)
	assert.Equal(t, "audio", records[0].SubCategory)
	assert.Equal(t, "4.2", records[0].Ratings)
	assert.Equal(t, "1,250", records[0].ReviewCount)
	assert.Equal(t, "₹1,499", records[0].DiscountPrice)
	assert.Equal(t, "₹2,999", records[0].ActualPrice)
}

func TestLoadCatalogDirectoryUnionsFiles(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.csv", basicCSV)
	// different column order, one column missing
	writeFixture(t, dir, "b.csv", `main_category,name,ratings,no_of_ratings,discount_price
kitchen,Pan,4.0,55,₹599
`)
	writeFixture(t, dir, "ignored.txt", "not,a,catalog\n")

	records, err := LoadCatalog(dir, DefaultCSVOptions())
	require.NoError(t, err)
	require.Len(t, records, 3)

	var pan bool
	for _, r := range records {
		if r.Name == "Pan" {
			pan = true
			assert.Equal(t, "kitchen", r.MainCategory)
			assert.Equal(t, "₹599", r.DiscountPrice)
			// columns absent from the file yield empty fields
			assert.Empty(t, r.ActualPrice)
			assert.Empty(t, r.SubCategory)
		}
	}
	assert.True(t, pan)
}

func TestLoadCatalogGlobPattern(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "catalog_a.csv", basicCSV)
	writeFixture(t, dir, "other.csv", basicCSV)

	records, err := LoadCatalog(filepath.Join(dir, "catalog_*.csv"), DefaultCSVOptions())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestLoadCatalogIgnoresUnknownColumns(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "catalog.csv",
		`name,main_category,ratings,no_of_ratings,discount_price,actual_price,link
X,c,4.0,10,₹100,₹200,https://example.com/x
`)

	records, err := LoadCatalog(path, DefaultCSVOptions())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "X", records[0].Name)
}

func TestLoadCatalogRaggedRows(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "catalog.csv",
		`name,main_category,ratings,no_of_ratings,discount_price,actual_price
Short,c,4.0
Full,c,4.1,20,₹150,₹300
`)

	records, err := LoadCatalog(path, DefaultCSVOptions())
	require.NoError(t, err)
	require.Len(t, records, 2)
	// truncated row yields empty fields past its end
	assert.Empty(t, records[0].DiscountPrice)
	assert.Equal(t, "₹150", records[1].DiscountPrice)
}

func TestLoadCatalogHeaderOnlyFile(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "catalog.csv",
		"name,main_category,ratings,no_of_ratings,discount_price,actual_price\n")

	records, err := LoadCatalog(path, DefaultCSVOptions())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoadCatalogMissingInput(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope_*.csv"), DefaultCSVOptions())
	require.Error(t, err)

	var perr *errors.PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "load", perr.Op)
}
