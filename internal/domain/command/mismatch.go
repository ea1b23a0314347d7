package command

import "fmt"

// ValueMismatch describes a field whose declared previous value disagrees
// with the aggregate's current value. It carries enough for the caller to
// retry with corrected data.
type ValueMismatch struct {
	Field    string `json:"field"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
	NewValue any    `json:"new_value"`
	Version  uint64 `json:"version"`
}

// DetectMismatch compares the declared previous value against the actual one.
// It returns ok when they agree and the update may proceed.
func DetectMismatch[T any](field string, previous, actual, next T, version uint64, equal func(a, b T) bool) (ValueMismatch, bool) {
	if equal(previous, actual) {
		return ValueMismatch{}, true
	}
	return ValueMismatch{
		Field:    field,
		Expected: previous,
		Actual:   actual,
		NewValue: next,
		Version:  version,
	}, false
}

// Equal is the equality used for comparable field values.
func Equal[T comparable](a, b T) bool {
	return a == b
}

// RejectMismatch turns a mismatch into a rejected decision.
func RejectMismatch(m ValueMismatch) Decision {
	return Reject(Rejection{
		Code:     RejectionCodeValueMismatch,
		Message:  fmt.Sprintf("%s does not match the current value at version %d", m.Field, m.Version),
		Mismatch: &m,
	})
}
