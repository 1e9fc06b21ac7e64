package models

import "time"

// PeriodStatus follows planned -> open -> closed.
type PeriodStatus string

const (
	PeriodPlanned PeriodStatus = "planned"
	PeriodOpen    PeriodStatus = "open"
	PeriodClosed  PeriodStatus = "closed"
)

// AcademicPeriod is a term window that groups belong to.
type AcademicPeriod struct {
	ID        int64        `db:"id" json:"id"`
	Code      string       `db:"code" json:"code"`
	StartDate time.Time    `db:"start_date" json:"start_date"`
	EndDate   time.Time    `db:"end_date" json:"end_date"`
	Status    PeriodStatus `db:"status" json:"status"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// PeriodFilter narrows period listings.
type PeriodFilter struct {
	Status   *PeriodStatus
	Page     int
	PageSize int
}

// CreatePeriodRequest registers a planned period. Dates use YYYY-MM-DD.
type CreatePeriodRequest struct {
	Code      string `json:"code" validate:"required,max=32"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// UpdatePeriodRequest changes the window of a period that is not closed.
type UpdatePeriodRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}
