// Package schemaaudit implements the schema-audit command: a read-only
// diagnosis of the users, transactions, and profiles tables followed by an
// optional, confirmed repair of the transactions.user_id type conflict.
//
// Service drives the workflow programmatically; CommandBuilder wires it into Cobra.
package schemaaudit
