package database

import (
	"fmt"
	"regexp"
)

const (
	invalidIdentifierTemplateConstant = "invalid SQL identifier %q"
	identifierQuoteConstant           = `"`
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// InvalidIdentifierError reports a table, column, or schema name that cannot be safely interpolated.
type InvalidIdentifierError struct {
	Identifier string
}

func (invalidIdentifierError InvalidIdentifierError) Error() string {
	return fmt.Sprintf(invalidIdentifierTemplateConstant, invalidIdentifierError.Identifier)
}

func quoteIdentifier(identifier string) (string, error) {
	if !identifierPattern.MatchString(identifier) {
		return "", InvalidIdentifierError{Identifier: identifier}
	}
	return identifierQuoteConstant + identifier + identifierQuoteConstant, nil
}

func qualifiedName(schema string, table string) (string, error) {
	quotedSchema, schemaError := quoteIdentifier(schema)
	if schemaError != nil {
		return "", schemaError
	}
	quotedTable, tableError := quoteIdentifier(table)
	if tableError != nil {
		return "", tableError
	}
	return quotedSchema + "." + quotedTable, nil
}
