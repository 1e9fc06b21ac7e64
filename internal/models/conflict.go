package models

// ScheduleConflictError reports the assignments that block a requested slot.
// Target is "room" or "professor".
type ScheduleConflictError struct {
	Target    string             `json:"target"`
	Message   string             `json:"message"`
	Conflicts []AssignmentDetail `json:"conflicts"`
}

func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
