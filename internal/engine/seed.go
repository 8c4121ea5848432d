package engine

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/leapstack-labs/loanprep/pkg/adapter"
	"github.com/leapstack-labs/loanprep/pkg/core"
)

// headerAliases maps normalized headers of the public loan dataset to the
// raw column names where they differ.
var headerAliases = map[string]string{
	"years_in_current_job":      core.ColYearsInJob,
	"years_of_credit_history":   core.ColYearsCreditHistory,
	"number_of_open_accounts":   core.ColNumberOpenAccounts,
	"number_of_credit_problems": core.ColNumberCreditProblems,
}

// SeedResult reports a completed seed.
type SeedResult struct {
	Table string
	Rows  int64
	// Headers maps each raw column to the CSV header it was loaded from.
	Headers map[string]string
}

// Seed loads a raw loan CSV into the source table. Headers are matched to the
// raw columns case-insensitively, ignoring punctuation and spacing; extra
// columns are discarded. The table is replaced, and the loaded row count is
// verified against the file.
func (e *Engine) Seed(ctx context.Context, csvPath string) (*SeedResult, error) {
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}

	staging := e.sourceTable + "__staging"
	e.logger.Info("seeding source table", "table", e.sourceTable, "path", csvPath)

	if err := e.db.LoadCSV(ctx, staging, csvPath); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", csvPath, err)
	}
	defer func() {
		if err := e.db.Exec(ctx, "DROP TABLE IF EXISTS "+quoteTable(staging)); err != nil {
			e.logger.Warn("staging table not dropped", "table", staging, "error", err)
		}
	}()

	fields, err := e.db.DescribeTable(ctx, staging)
	if err != nil {
		return nil, err
	}
	headers := make([]string, len(fields))
	for i, f := range fields {
		headers[i] = f.Name
	}
	mapping, err := MatchHeaders(headers)
	if err != nil {
		return nil, err
	}

	want, err := e.db.CountRows(ctx, staging)
	if err != nil {
		return nil, err
	}

	selects := make([]string, len(core.RawLoanSchema))
	for i, f := range core.RawLoanSchema {
		selects[i] = adapter.QuoteIdent(mapping[f.Name]) + " AS " + adapter.QuoteIdent(f.Name)
	}
	target := quoteTable(e.sourceTable)
	if err := e.db.Exec(ctx, "DROP TABLE IF EXISTS "+target); err != nil {
		return nil, err
	}
	//nolint:gosec // identifiers are quoted
	if err := e.db.Exec(ctx, fmt.Sprintf("CREATE TABLE %s AS SELECT %s FROM %s",
		target, strings.Join(selects, ", "), quoteTable(staging))); err != nil {
		return nil, err
	}

	got, err := e.db.CountRows(ctx, e.sourceTable)
	if err != nil {
		return nil, err
	}
	if got != want {
		return nil, fmt.Errorf("seed verification failed: %s has %d rows, file has %d", e.sourceTable, got, want)
	}

	e.logger.Info("source table seeded", "table", e.sourceTable, "rows", got)
	return &SeedResult{Table: e.sourceTable, Rows: got, Headers: mapping}, nil
}

// MatchHeaders maps every raw loan column to the first header that
// normalizes to it. Missing columns yield a *core.MissingColumnsError.
func MatchHeaders(headers []string) (map[string]string, error) {
	byName := make(map[string]string, len(headers))
	for _, h := range headers {
		n := normalizeHeader(h)
		if alias, ok := headerAliases[n]; ok {
			n = alias
		}
		if _, seen := byName[n]; !seen {
			byName[n] = h
		}
	}

	mapping := make(map[string]string, len(core.RawLoanSchema))
	var missing []string
	for _, f := range core.RawLoanSchema {
		h, ok := byName[f.Name]
		if !ok {
			missing = append(missing, f.Name)
			continue
		}
		mapping[f.Name] = h
	}
	if len(missing) > 0 {
		return nil, &core.MissingColumnsError{Stage: "seed", Columns: missing}
	}
	return mapping, nil
}

// normalizeHeader lowercases h and joins its alphanumeric runs with underscores:
// "Years of Credit History" -> "years_of_credit_history".
func normalizeHeader(h string) string {
	fields := strings.FieldsFunc(strings.ToLower(h), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, "_")
}

// quoteTable quotes each part of a possibly schema-qualified table name.
func quoteTable(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = adapter.QuoteIdent(p)
	}
	return strings.Join(parts, ".")
}
