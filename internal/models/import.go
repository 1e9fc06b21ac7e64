package models

import (
	"sort"
	"time"
)

// ImportSession is one timetable cell produced by the document extraction service.
// The JSON names are that service's contract.
type ImportSession struct {
	CourseCode    string `json:"codigo"`
	ProfessorCode string `json:"codigo_p"`
	Name          string `json:"nombre"`
	TimeRange     string `json:"hora"`
}

// SchedulePayload maps room code to weekday name to the sessions held there.
type SchedulePayload map[string]map[string][]ImportSession

// RoomCodes returns the room keys in ascending order.
func (p SchedulePayload) RoomCodes() []string {
	codes := make([]string, 0, len(p))
	for code := range p {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// DayNames returns the weekday keys of one room in ascending order.
func (p SchedulePayload) DayNames(room string) []string {
	days := make([]string, 0, len(p[room]))
	for day := range p[room] {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}

// Each visits every session in deterministic room, day, payload order and stops
// at the first error returned by fn.
func (p SchedulePayload) Each(fn func(room, day string, session ImportSession) error) error {
	for _, room := range p.RoomCodes() {
		for _, day := range p.DayNames(room) {
			for _, session := range p[room][day] {
				if err := fn(room, day, session); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// SessionCount totals the sessions of the payload.
func (p SchedulePayload) SessionCount() int {
	total := 0
	for _, days := range p {
		for _, sessions := range days {
			total += len(sessions)
		}
	}
	return total
}

// ImportResult summarises one reconciliation run.
type ImportResult struct {
	PeriodID           int64    `json:"period_id"`
	SubjectsCreated    int      `json:"subjects_created"`
	GroupsCreated      int      `json:"groups_created"`
	RoomsCreated       int      `json:"rooms_created"`
	AssignmentsCreated int      `json:"assignments_created"`
	Warnings           []string `json:"warnings"`
}

// ImportJobStatus enumerates async import job states.
type ImportJobStatus string

const (
	ImportJobQueued    ImportJobStatus = "queued"
	ImportJobRunning   ImportJobStatus = "running"
	ImportJobSucceeded ImportJobStatus = "succeeded"
	ImportJobFailed    ImportJobStatus = "failed"
)

// ImportJob is the externally visible state of an asynchronous import.
type ImportJob struct {
	ID         string          `json:"id"`
	Status     ImportJobStatus `json:"status"`
	Source     string          `json:"source"`
	Sessions   int             `json:"sessions"`
	Result     *ImportResult   `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedBy  string          `json:"created_by,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}
