package models

// AvailabilityQuery carries the candidate slot for an availability check.
type AvailabilityQuery struct {
	Weekday   string `form:"weekday" json:"weekday" validate:"required"`
	Start     string `form:"start" json:"start" validate:"required"`
	End       string `form:"end" json:"end" validate:"required"`
	PeriodID  int64  `form:"period_id" json:"period_id" validate:"required,gt=0"`
	ExcludeID *int64 `form:"exclude_id" json:"exclude_id,omitempty" validate:"omitempty,gt=0"`
}

// AvailabilityResult lists the assignments that overlap the candidate slot.
// Conflicts is never nil so it always renders as a JSON array.
type AvailabilityResult struct {
	Available bool               `json:"available"`
	Conflicts []AssignmentDetail `json:"conflicts"`
}
