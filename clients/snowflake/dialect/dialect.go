package dialect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/snowflakedb/gosnowflake"

	"github.com/lepaya/data-snowflake-client/lib/frame"
)

// objectNotFoundErrNumber is returned for `SELECT` and `DESC` against a table that does not exist.
const objectNotFoundErrNumber = 2003

type SnowflakeDialect struct {
	// QuoteIdentifiers keeps the case of identifiers by wrapping them in double quotes.
	// Unquoted identifiers are upper-cased by Snowflake.
	QuoteIdentifiers bool
}

func (sd SnowflakeDialect) QuoteIdentifier(identifier string) string {
	if !sd.QuoteIdentifiers {
		return identifier
	}

	return fmt.Sprintf(`"%s"`, strings.ReplaceAll(identifier, `"`, `""`))
}

// SameIdentifier reports whether [name] resolves to the column [existing] as returned by `DESC TABLE`.
func (sd SnowflakeDialect) SameIdentifier(existing, name string) bool {
	if sd.QuoteIdentifiers {
		return existing == name
	}

	return strings.EqualFold(existing, name)
}

// IsTableDoesNotExistErr matches errors like:
// Object 'DATABASE.SCHEMA.TABLE' does not exist or not authorized.
func (SnowflakeDialect) IsTableDoesNotExistErr(err error) bool {
	if err == nil {
		return false
	}

	var snowflakeErr *gosnowflake.SnowflakeError
	if errors.As(err, &snowflakeErr) && snowflakeErr.Number == objectNotFoundErrNumber {
		return true
	}

	return strings.Contains(err.Error(), "does not exist or not authorized")
}

func (sd SnowflakeDialect) BuildUseQuery(objectType, name string) string {
	return fmt.Sprintf("USE %s %s", objectType, sd.QuoteIdentifier(name))
}

func (SnowflakeDialect) BuildSelectAllQuery(tableID TableIdentifier) string {
	return fmt.Sprintf("SELECT * FROM %s", tableID.FullyQualifiedName())
}

func (SnowflakeDialect) BuildDescribeTableQuery(tableID TableIdentifier) string {
	return fmt.Sprintf("DESC TABLE %s", tableID.FullyQualifiedName())
}

func (sd SnowflakeDialect) BuildColumnDefinition(column frame.Column) (string, error) {
	dataType, err := sd.DataTypeForKind(column.Kind)
	if err != nil {
		return "", fmt.Errorf("failed to get data type for column %q: %w", column.Name, err)
	}

	return fmt.Sprintf("%s %s", sd.QuoteIdentifier(column.Name), dataType), nil
}

// BuildCreateTableQuery replaces an existing table when [replace] is set, otherwise it leaves it untouched.
func (SnowflakeDialect) BuildCreateTableQuery(tableID TableIdentifier, replace bool, colSQLParts []string) string {
	if replace {
		return fmt.Sprintf("CREATE OR REPLACE TABLE %s (%s)", tableID.FullyQualifiedName(), strings.Join(colSQLParts, ","))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", tableID.FullyQualifiedName(), strings.Join(colSQLParts, ","))
}

func (SnowflakeDialect) BuildAddColumnQuery(tableID TableIdentifier, sqlPart string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", tableID.FullyQualifiedName(), sqlPart)
}

// BuildSwapTableQuery exchanges the contents and metadata of both tables in a single statement.
func (SnowflakeDialect) BuildSwapTableQuery(tableID, otherTableID TableIdentifier) string {
	return fmt.Sprintf("ALTER TABLE %s SWAP WITH %s", tableID.FullyQualifiedName(), otherTableID.FullyQualifiedName())
}

func (SnowflakeDialect) BuildDropTableQuery(tableID TableIdentifier) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", tableID.FullyQualifiedName())
}

// BuildPutQuery uploads a local file into [stageLocation]. Stage files are compressed by the writers already.
func (SnowflakeDialect) BuildPutQuery(filePath, stageLocation string) string {
	return fmt.Sprintf("PUT 'file://%s' @%s AUTO_COMPRESS=FALSE OVERWRITE=TRUE", filePath, stageLocation)
}

func (SnowflakeDialect) BuildRemoveFilesFromStage(stageLocation string) string {
	return fmt.Sprintf("REMOVE @%s", stageLocation)
}

// QueryAction describes what [query] does to the data, it's used in status messages.
func (SnowflakeDialect) QueryAction(query string) string {
	fields := strings.Fields(strings.TrimLeft(query, "( \t\r\n"))
	if len(fields) == 0 {
		return "Executing"
	}

	switch strings.ToUpper(strings.TrimRight(fields[0], ";")) {
	case "SELECT", "WITH", "SHOW", "DESC", "DESCRIBE":
		return "Selecting"
	case "INSERT", "COPY":
		return "Inserting"
	case "UPDATE", "MERGE":
		return "Updating"
	case "DELETE", "TRUNCATE":
		return "Deleting"
	}

	return "Executing"
}
