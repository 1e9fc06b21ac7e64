package models

import "time"

// Group is one offering of a subject in a period, taught by one professor and
// identified by a single-letter section code.
type Group struct {
	ID          int64     `db:"id" json:"id"`
	SubjectID   int64     `db:"subject_id" json:"subject_id"`
	PeriodID    int64     `db:"period_id" json:"period_id"`
	SectionCode string    `db:"section_code" json:"section_code"`
	ProfessorID *string   `db:"professor_id" json:"professor_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// GroupDetail joins a group with its subject and professor names.
type GroupDetail struct {
	ID            int64   `db:"id" json:"id"`
	SubjectID     int64   `db:"subject_id" json:"subject_id"`
	SubjectCode   string  `db:"subject_code" json:"subject_code"`
	SubjectName   string  `db:"subject_name" json:"subject_name"`
	SectionCode   string  `db:"section_code" json:"section_code"`
	PeriodID      int64   `db:"period_id" json:"period_id"`
	ProfessorID   *string `db:"professor_id" json:"professor_id,omitempty"`
	ProfessorName *string `db:"professor_name" json:"professor_name,omitempty"`
}

// ActiveGroups is the group listing of the currently selected period.
type ActiveGroups struct {
	Period *AcademicPeriod `json:"period"`
	Groups []GroupDetail   `json:"groups"`
}
