package task

// Status is the lifecycle phase of a task. The zero value means the task has
// not been created yet.
type Status string

const (
	StatusNone      Status = ""
	StatusDraft     Status = "DRAFT"
	StatusFinalized Status = "FINALIZED"
	StatusOpen      Status = "OPEN"
	StatusDeleted   Status = "DELETED"
	StatusCompleted Status = "COMPLETED"
)

var legalTransitions = map[Status]map[Status]struct{}{
	StatusNone: {
		StatusDraft:     {},
		StatusFinalized: {},
	},
	StatusDraft: {
		StatusFinalized: {},
	},
	StatusFinalized: {
		StatusDeleted:   {},
		StatusCompleted: {},
	},
	StatusOpen: {
		StatusDeleted:   {},
		StatusCompleted: {},
	},
	StatusDeleted: {
		StatusOpen: {},
	},
	StatusCompleted: {
		StatusOpen: {},
	},
}

func (s Status) String() string {
	if s == StatusNone {
		return "NONE"
	}
	return string(s)
}

// IsLegal reports whether a task may move from current to requested.
func IsLegal(current, requested Status) bool {
	_, ok := legalTransitions[current][requested]
	return ok
}

// CanCreateDraft reports whether a draft may be created over current.
func CanCreateDraft(current Status) bool {
	return current == StatusNone && IsLegal(current, StatusDraft)
}

// CanCreateTask reports whether a finalized task may be created over current.
func CanCreateTask(current Status) bool {
	return current == StatusNone && IsLegal(current, StatusFinalized)
}

// CanFinalizeDraft reports whether current is a draft that may be finalized.
func CanFinalizeDraft(current Status) bool {
	return current == StatusDraft && IsLegal(current, StatusFinalized)
}

// AllowsFieldMutation reports whether description, due date and priority may
// change while the task is in current.
func AllowsFieldMutation(current Status) bool {
	switch current {
	case StatusDraft, StatusFinalized, StatusOpen:
		return true
	default:
		return false
	}
}

// AllowsLabelMutation reports whether labels may be assigned or removed while
// the task is in current.
func AllowsLabelMutation(current Status) bool {
	return AllowsFieldMutation(current)
}

// Terminal reports whether current blocks field mutations.
func Terminal(current Status) bool {
	return current == StatusDeleted || current == StatusCompleted
}
