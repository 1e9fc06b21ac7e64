package models

import "time"

// ScheduleAssignment is one weekly recurring occupation of a room by a group.
type ScheduleAssignment struct {
	ID        int64     `db:"id" json:"id"`
	GroupID   int64     `db:"group_id" json:"group_id"`
	RoomID    int64     `db:"room_id" json:"room_id"`
	Weekday   Weekday   `db:"weekday" json:"weekday"`
	StartTime Clock     `db:"start_time" json:"start_time"`
	EndTime   Clock     `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Interval returns the time slot the assignment occupies.
func (a ScheduleAssignment) Interval() TimeInterval {
	return TimeInterval{Weekday: a.Weekday, Start: string(a.StartTime), End: string(a.EndTime)}
}

// AssignmentDetail is an assignment joined with everything needed to display it.
type AssignmentDetail struct {
	ID            int64   `db:"id" json:"id"`
	GroupID       int64   `db:"group_id" json:"group_id"`
	RoomID        int64   `db:"room_id" json:"room_id"`
	RoomCode      string  `db:"room_code" json:"room_code"`
	Weekday       Weekday `db:"weekday" json:"weekday"`
	StartTime     Clock   `db:"start_time" json:"start_time"`
	EndTime       Clock   `db:"end_time" json:"end_time"`
	PeriodID      int64   `db:"period_id" json:"period_id"`
	SubjectCode   string  `db:"subject_code" json:"subject_code"`
	SubjectName   string  `db:"subject_name" json:"subject_name"`
	SectionCode   string  `db:"section_code" json:"section_code"`
	ProfessorID   *string `db:"professor_id" json:"professor_id,omitempty"`
	ProfessorName *string `db:"professor_name" json:"professor_name,omitempty"`
}

// Interval returns the time slot the assignment occupies.
func (a AssignmentDetail) Interval() TimeInterval {
	return TimeInterval{Weekday: a.Weekday, Start: string(a.StartTime), End: string(a.EndTime)}
}

// AssignmentFilter narrows assignment listings.
type AssignmentFilter struct {
	PeriodID    *int64
	RoomID      *int64
	GroupID     *int64
	ProfessorID *string
	Weekday     *Weekday
	Page        int
	PageSize    int
}

// CreateAssignmentRequest books a group into a room slot. ProfessorID, when
// set, reassigns the group's professor before the availability checks run.
type CreateAssignmentRequest struct {
	GroupID     int64   `json:"group_id" validate:"required,gt=0"`
	RoomID      int64   `json:"room_id" validate:"required,gt=0"`
	Weekday     string  `json:"weekday" validate:"required"`
	StartTime   string  `json:"start_time" validate:"required"`
	EndTime     string  `json:"end_time" validate:"required"`
	ProfessorID *string `json:"professor_id,omitempty" validate:"omitempty,max=64"`
}

// UpdateAssignmentRequest changes any subset of an assignment's fields.
type UpdateAssignmentRequest struct {
	GroupID   *int64  `json:"group_id,omitempty" validate:"omitempty,gt=0"`
	RoomID    *int64  `json:"room_id,omitempty" validate:"omitempty,gt=0"`
	Weekday   *string `json:"weekday,omitempty"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
}
