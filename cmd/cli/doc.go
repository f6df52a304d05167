// Package cli constructs the db-scripts command-line interface, wiring the
// Cobra command hierarchy, the configuration loader, and structured logging
// around the schema-audit and data-inspect commands.
package cli
