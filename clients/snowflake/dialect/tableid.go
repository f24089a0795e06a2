package dialect

import (
	"fmt"
	"strings"
)

type TableIdentifier struct {
	database string
	schema   string
	table    string
	dialect  SnowflakeDialect
}

func NewTableIdentifier(database, schema, table string, quoteIdentifiers bool) TableIdentifier {
	return TableIdentifier{
		database: database,
		schema:   schema,
		table:    table,
		dialect:  SnowflakeDialect{QuoteIdentifiers: quoteIdentifiers},
	}
}

func (ti TableIdentifier) Database() string {
	return ti.database
}

func (ti TableIdentifier) Schema() string {
	return ti.schema
}

func (ti TableIdentifier) Table() string {
	return ti.table
}

// WithTable returns an identifier for [table] in the same database and schema.
func (ti TableIdentifier) WithTable(table string) TableIdentifier {
	ti.table = table
	return ti
}

func (ti TableIdentifier) Dialect() SnowflakeDialect {
	return ti.dialect
}

func (ti TableIdentifier) EscapedTable() string {
	return ti.dialect.QuoteIdentifier(ti.table)
}

func (ti TableIdentifier) FullyQualifiedName() string {
	return fmt.Sprintf("%s.%s.%s", ti.dialect.QuoteIdentifier(ti.database), ti.dialect.QuoteIdentifier(ti.schema), ti.EscapedTable())
}

// TableStage returns the location of the table stage, optionally narrowed down to [subPath].
func (ti TableIdentifier) TableStage(subPath string) string {
	location := fmt.Sprintf("%s.%s.%%%s", ti.dialect.QuoteIdentifier(ti.database), ti.dialect.QuoteIdentifier(ti.schema), ti.EscapedTable())
	if subPath == "" {
		return location
	}

	return location + "/" + subPath
}

// NamedStage returns the location of [stageName] in the table's schema, narrowed down to [subPath].
func (ti TableIdentifier) NamedStage(stageName, subPath string) string {
	location := fmt.Sprintf("%s.%s.%s", ti.dialect.QuoteIdentifier(ti.database), ti.dialect.QuoteIdentifier(ti.schema), stageName)
	if subPath == "" {
		return location + "/"
	}

	return location + "/" + strings.Trim(subPath, "/") + "/"
}

func (ti TableIdentifier) String() string {
	return fmt.Sprintf("%s.%s.%s", ti.database, ti.schema, ti.table)
}
