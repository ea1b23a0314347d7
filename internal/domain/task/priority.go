package task

// Priority ranks a task. The zero value is undefined.
type Priority string

const (
	PriorityUndefined Priority = ""
	PriorityHigh      Priority = "HIGH"
	PriorityNormal    Priority = "NORMAL"
	PriorityLow       Priority = "LOW"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityUndefined, PriorityHigh, PriorityNormal, PriorityLow:
		return true
	default:
		return false
	}
}

func (p Priority) String() string {
	if p == PriorityUndefined {
		return "UNDEFINED"
	}
	return string(p)
}
