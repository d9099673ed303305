package report

import (
	"compress/gzip"
	"fmt"
	"os"

	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/compress"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"

	"github.com/willbeason/coding-reliability/pkg/agreement"
	"github.com/willbeason/coding-reliability/pkg/tables"
)

// A KappaRow is one entry of the flat Kappa export: a single coefficient
// with its pair label and 1-based source analysis index.
type KappaRow struct {
	Analysis   int
	Comparison string
	Kappa      float64
	SE         float64
	Cases      int
	Defined    bool
}

// KappaRows flattens the inter- and intra-rater coefficient sets of each
// analysis, in analysis order.
func KappaRows(analyses ...*agreement.Analysis) []KappaRow {
	var rows []KappaRow
	for i, a := range analyses {
		for _, set := range [][]agreement.Coefficient{a.Inter, a.Intra} {
			for _, k := range set {
				rows = append(rows, KappaRow{
					Analysis:   i + 1,
					Comparison: pairLabel(k),
					Kappa:      k.Value,
					SE:         k.SE,
					Cases:      k.N,
					Defined:    k.Defined,
				})
			}
		}
	}
	return rows
}

// WriteKappaParquet writes the flat Kappa table as a gzip-compressed
// Parquet file. Undefined coefficients become null kappa and se values.
func WriteKappaParquet(path string, rows []KappaRow) error {
	allocator := memory.NewGoAllocator()
	recordBuilder := array.NewRecordBuilder(allocator, tables.Kappas)
	defer recordBuilder.Release()

	fields := recordBuilder.Fields()
	analysisField := fields[0].(*array.Uint8Builder)
	comparisonField := fields[1].(*array.StringBuilder)
	kappaField := fields[2].(*array.Float64Builder)
	seField := fields[3].(*array.Float64Builder)
	casesField := fields[4].(*array.Uint32Builder)

	for _, row := range rows {
		analysisField.Append(uint8(row.Analysis))
		comparisonField.Append(row.Comparison)
		if row.Defined {
			kappaField.Append(row.Kappa)
			seField.Append(row.SE)
		} else {
			kappaField.AppendNull()
			seField.AppendNull()
		}
		casesField.Append(uint32(row.Cases))
	}

	outFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating %q: %w", ErrWrite, path, err)
	}
	// Don't close outFile; parquet handles closing it.
	writer, err := pqarrow.NewFileWriter(
		tables.Kappas,
		outFile,
		parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Gzip),
			parquet.WithCompressionLevel(gzip.BestCompression)),
		pqarrow.DefaultWriterProps(),
	)
	if err != nil {
		return fmt.Errorf("%w: creating writer for %q: %w", ErrWrite, path, err)
	}

	record := recordBuilder.NewRecord()
	defer record.Release()

	if err := writer.Write(record); err != nil {
		_ = writer.Close()
		return fmt.Errorf("%w: writing %q: %w", ErrWrite, path, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("%w: closing %q: %w", ErrWrite, path, err)
	}
	return nil
}
