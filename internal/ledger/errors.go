package ledger

import "fmt"

// DataIntegrityError reports a ledger record that references a user outside
// the group's participant set, or a group that cannot be balanced at all.
type DataIntegrityError struct {
	GroupID string
	// Record identifies the offending record, e.g. "expense 9f1c..." or "group".
	Record string
	// UserID is the id that is not a participant. Empty for group-level problems.
	UserID string
	Reason string
}

func (e *DataIntegrityError) Error() string {
	if e.UserID != "" {
		return fmt.Sprintf("data integrity: group %s: %s references %q: %s", e.GroupID, e.Record, e.UserID, e.Reason)
	}
	return fmt.Sprintf("data integrity: group %s: %s: %s", e.GroupID, e.Record, e.Reason)
}

// ValidationError reports a malformed expense or settlement before it is stored.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
