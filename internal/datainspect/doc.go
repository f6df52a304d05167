// Package datainspect implements the read-only data-inspect command that lists
// the most recent users and their latest transactions.
package datainspect
