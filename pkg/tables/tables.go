// Package tables defines the Arrow schemas for structured exports of
// computed agreement statistics.
package tables

import "github.com/apache/arrow/go/v18/arrow"

const (
	KappasName = "kappas"

	ParquetExt = ".parquet"
)

// Kappas is the flat table of every individual Kappa coefficient across the
// analyses of a run: one row per rater pair per analysis.
var Kappas = arrow.NewSchema([]arrow.Field{
	{Name: "analysis",
		Type: arrow.PrimitiveTypes.Uint8,
		Metadata: NewMetadataBuilder().Add(
			comment, "1-based index of the source analysis within the run",
		).Build()},
	{Name: "comparison",
		Type: arrow.BinaryTypes.String,
		Metadata: NewMetadataBuilder().Add(
			comment, "Rater pair label, e.g. AI1-Human or AI1-AI2",
		).Build()},
	{Name: "kappa",
		Type:     arrow.PrimitiveTypes.Float64,
		Nullable: true,
		Metadata: NewMetadataBuilder().Add(
			comment, "Cohen's Kappa for the pair; null when undefined",
		).Build()},
	{Name: "se",
		Type:     arrow.PrimitiveTypes.Float64,
		Nullable: true,
		Metadata: NewMetadataBuilder().Add(
			comment, "Large-sample standard error of the Kappa; null when undefined",
		).Build()},
	{Name: "cases",
		Type: arrow.PrimitiveTypes.Uint32,
		Metadata: NewMetadataBuilder().Add(
			comment, "Number of cases the Kappa was computed over",
		).Build()},
}, nil)
