package sql

import (
	"fmt"
	"strings"
)

func QuoteLiteral(value string) string {
	// Backslashes start escape sequences inside Snowflake string literals, escape them before the quotes.
	return fmt.Sprintf("'%s'", strings.ReplaceAll(strings.ReplaceAll(value, `\`, `\\`), "'", `\'`))
}
