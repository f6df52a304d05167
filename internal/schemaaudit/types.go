package schemaaudit

import "errors"

// ReferenceCompatibility classifies the transactions.user_id column type.
type ReferenceCompatibility string

// Supported compatibility values.
const (
	ReferenceCompatibilityUnknown    ReferenceCompatibility = "unknown"
	ReferenceCompatibilityCompatible ReferenceCompatibility = "compatible"
	ReferenceCompatibilityConflict   ReferenceCompatibility = "conflict"
	ReferenceCompatibilityUnexpected ReferenceCompatibility = "unexpected"
)

// RepairOutcome records what the repair phase did.
type RepairOutcome string

// Repair outcomes.
const (
	RepairOutcomeNotRequired RepairOutcome = "not_required"
	RepairOutcomeDryRun      RepairOutcome = "dry_run"
	RepairOutcomeDeclined    RepairOutcome = "declined"
	RepairOutcomeDropped     RepairOutcome = "dropped"
	RepairOutcomeFailed      RepairOutcome = "failed"
)

const (
	conflictingReferenceTypeConstant = "uuid"
)

var compatibleReferenceTypes = map[string]struct{}{
	"integer":  {},
	"bigint":   {},
	"smallint": {},
	"int":      {},
	"int4":     {},
	"int8":     {},
}

// CommandOptions captures the parameters of a single audit run.
type CommandOptions struct {
	DryRun    bool
	AssumeYes bool
}

// TableReport holds the facts gathered for one table. Failure is set when a
// query for this table failed; the facts gathered before the failure remain.
type TableReport struct {
	Table       string
	Exists      bool
	Column      string
	ColumnFound bool
	ColumnType  string
	RowCount    int64
	Failure     error
}

// Diagnosis is the read-only result of the audit phase.
type Diagnosis struct {
	Users        TableReport
	Transactions TableReport
	Profiles     TableReport
	Reference    ReferenceCompatibility
}

// RequiresRepair reports whether the transactions table must be dropped.
func (diagnosis Diagnosis) RequiresRepair() bool {
	return diagnosis.Reference == ReferenceCompatibilityConflict
}

// LinkageAvailable reports whether profiles can be linked to Telegram users.
func (diagnosis Diagnosis) LinkageAvailable() bool {
	return diagnosis.Profiles.Exists && diagnosis.Profiles.ColumnFound
}

// Failure joins the per-table failures, or returns nil when every check succeeded.
func (diagnosis Diagnosis) Failure() error {
	return errors.Join(diagnosis.Users.Failure, diagnosis.Transactions.Failure, diagnosis.Profiles.Failure)
}

// Result combines the diagnosis with the repair outcome.
type Result struct {
	Diagnosis Diagnosis
	Repair    RepairOutcome
}

func classifyReferenceType(dataType string) ReferenceCompatibility {
	if dataType == conflictingReferenceTypeConstant {
		return ReferenceCompatibilityConflict
	}
	if _, compatible := compatibleReferenceTypes[dataType]; compatible {
		return ReferenceCompatibilityCompatible
	}
	return ReferenceCompatibilityUnexpected
}
