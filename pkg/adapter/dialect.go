package adapter

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/loanprep/pkg/core"
)

// Dialect captures the SQL differences the shared adapter code depends on.
type Dialect struct {
	Name          string
	DefaultSchema string
	// NumericType stores Numeric and Bool columns.
	NumericType string
	// TextType stores String and Categorical columns.
	TextType string
	// Placeholder formats the n-th (1-based) bind parameter.
	Placeholder func(n int) string
}

// QuestionPlaceholder formats every parameter as "?".
func QuestionPlaceholder(int) string { return "?" }

// DollarPlaceholder formats parameters as "$1", "$2", ...
func DollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

// QuoteIdent quotes an identifier with double quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ParseQualifiedName splits a table reference into schema and name.
// Uses the dialect's default schema if not specified.
func ParseQualifiedName(table string, d *Dialect) (schema, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return d.DefaultSchema, table
}

// QualifiedName returns the quoted schema.table reference for table.
func QualifiedName(table string, d *Dialect) string {
	schema, name := ParseQualifiedName(table, d)
	return QuoteIdent(schema) + "." + QuoteIdent(name)
}

func (d *Dialect) columnType(t core.ColumnType) string {
	if t.IsText() {
		return d.TextType
	}
	return d.NumericType
}
