package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/loanprep/internal/engine"
	"github.com/leapstack-labs/loanprep/internal/pipeline"
	"github.com/leapstack-labs/loanprep/internal/selection"
	"github.com/leapstack-labs/loanprep/pkg/core"
)

// anomalyKinds documents each data-quality counter a step can record.
var anomalyKinds = [][]string{
	{pipeline.KindUnparseable, "A text value could not be parsed as a number or currency amount."},
	{pipeline.KindImputed, "A missing value was replaced with the column median."},
	{pipeline.KindDivisionByZero, "A ratio had a zero denominator and produced a null."},
	{pipeline.KindUnmapped, "A loan status or category value was not recognized."},
	{pipeline.KindSentinel, "A placeholder loan amount was replaced with the median."},
	{pipeline.KindRescaled, "A credit score above 850 was divided by ten."},
	{pipeline.KindClipped, "A negative income was clipped to zero before the log transform."},
}

// generatePipelineDocs writes the pipeline reference page.
func generatePipelineDocs(outDir string) error {
	log.Printf("Generating pipeline docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Pipeline Reference", "Cleaning and feature steps applied by loanprep run")
	w.GeneratedMarker()

	w.Header(1, "Pipeline Reference")
	w.Paragraph("`loanprep run` applies these steps in order. Each step declares the columns it requires, adds, and removes; a run fails at the first step whose contract does not hold.")

	w.Header(2, "Input Columns")
	var inputs [][]string
	for _, f := range core.RawLoanSchema {
		inputs = append(inputs, []string{InlineCode(f.Name), f.Type.String()})
	}
	w.Table([]string{"Column", "Type"}, inputs)

	w.Header(2, "Steps")
	var steps [][]string
	for i, s := range engine.NewPipeline().Steps() {
		steps = append(steps, []string{
			fmt.Sprint(i), InlineCode(s.Name), codeList(s.Requires), codeList(s.Adds), codeList(s.Removes),
		})
	}
	w.Table([]string{"#", "Step", "Requires", "Adds", "Removes"}, steps)

	w.Header(2, "Data-Quality Anomalies")
	w.Paragraph("Steps recover from bad values locally and count them. Counts are stored per run and shown by `loanprep runs show`.")
	var kinds [][]string
	for _, k := range anomalyKinds {
		kinds = append(kinds, []string{InlineCode(k[0]), k[1]})
	}
	w.Table([]string{"Kind", "Meaning"}, kinds)

	w.Header(2, "Excluded From Training")
	w.Paragraph("`loanprep train` uses every cleaned column except these:")
	excluded := make([]string, len(selection.Dropped))
	for i, name := range selection.Dropped {
		excluded[i] = InlineCode(name)
	}
	w.BulletList(excluded)

	return os.WriteFile(filepath.Join(outDir, "index.md"), w.Bytes(), 0600)
}

func codeList(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = InlineCode(n)
	}
	return strings.Join(out, ", ")
}
