package core

import (
	"fmt"
	"strings"
)

// ConfigurationError reports invalid inputs: missing or malformed columns,
// degenerate dataset shapes, or unusable engine settings. It is raised
// before any training happens.
type ConfigurationError struct {
	Columns []string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if len(e.Columns) > 0 {
		return fmt.Sprintf("configuration: %s (column %s)", e.Reason, strings.Join(e.Columns, ", "))
	}
	return "configuration: " + e.Reason
}

// DegenerateFoldError records that an evaluated set lacked one of the two
// classes, leaving AUC and the ROC curve undefined for that repeat. It is
// recoverable: the repeat's AUC is reported as missing.
type DegenerateFoldError struct {
	Repeat    int
	Positives int
	Negatives int
}

func (e *DegenerateFoldError) Error() string {
	return fmt.Sprintf("repeat %d: evaluated set has %d positives and %d negatives, AUC undefined",
		e.Repeat, e.Positives, e.Negatives)
}

// CapabilityError wraps a failure of the external classifier capability.
// It aborts the repeat carrying it; training is deterministic given its
// seed, so the call is never retried.
type CapabilityError struct {
	Repeat int
	Fold   int
	Err    error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("classifier failed at repeat %d fold %d: %v", e.Repeat, e.Fold, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}
