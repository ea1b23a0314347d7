package task

// Rejection codes returned by Decide.
const (
	RejectionCodeTaskIDRequired           = "TASK_ID_REQUIRED"
	RejectionCodeTaskAlreadyExists        = "TASK_ALREADY_EXISTS"
	RejectionCodeTaskNotCreated           = "TASK_NOT_CREATED"
	RejectionCodeInvalidTransition        = "INVALID_TRANSITION"
	RejectionCodeTaskTerminal             = "TASK_TERMINAL"
	RejectionCodeInappropriateDescription = "INAPPROPRIATE_DESCRIPTION"
	RejectionCodeTooShortDescription      = "TOO_SHORT_DESCRIPTION"
	RejectionCodeInvalidPriority          = "INVALID_PRIORITY"
	RejectionCodeInvalidLabelOperation    = "INVALID_LABEL_OPERATION"
	RejectionCodeLabelAlreadyAssigned     = "LABEL_ALREADY_ASSIGNED"
	RejectionCodeLabelNotAssigned         = "LABEL_NOT_ASSIGNED"
)
