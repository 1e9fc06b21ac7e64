package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-schedule-api/internal/models"
)

const periodColumns = "id, code, start_date, end_date, status, created_at, updated_at"

// PeriodRepository handles persistence for academic periods.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository instantiates a period repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

func (r *PeriodRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns periods, newest first.
func (r *PeriodRepository) List(ctx context.Context, filter models.PeriodFilter) ([]models.AcademicPeriod, int, error) {
	base := "FROM academic_periods WHERE 1=1"
	var args []interface{}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		base += fmt.Sprintf(" AND status = $%d", len(args))
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY start_date DESC, id DESC LIMIT %d OFFSET %d", periodColumns, base, size, (page-1)*size)

	var periods []models.AcademicPeriod
	if err := r.db.SelectContext(ctx, &periods, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list periods: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count periods: %w", err)
	}
	return periods, total, nil
}

// FindByID loads a period by identifier.
func (r *PeriodRepository) FindByID(ctx context.Context, id int64) (*models.AcademicPeriod, error) {
	var period models.AcademicPeriod
	if err := r.db.GetContext(ctx, &period, "SELECT "+periodColumns+" FROM academic_periods WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &period, nil
}

// FindFirstByStatus returns the lowest-id period in the given status.
func (r *PeriodRepository) FindFirstByStatus(ctx context.Context, exec sqlx.ExtContext, status models.PeriodStatus) (*models.AcademicPeriod, error) {
	var period models.AcademicPeriod
	query := "SELECT " + periodColumns + " FROM academic_periods WHERE status = $1 ORDER BY id ASC LIMIT 1"
	if err := sqlx.GetContext(ctx, r.exec(exec), &period, query, status); err != nil {
		return nil, err
	}
	return &period, nil
}

// Create inserts a period and fills its generated id.
func (r *PeriodRepository) Create(ctx context.Context, period *models.AcademicPeriod) error {
	now := time.Now().UTC()
	if period.CreatedAt.IsZero() {
		period.CreatedAt = now
	}
	period.UpdatedAt = now
	if period.Status == "" {
		period.Status = models.PeriodPlanned
	}

	const query = `INSERT INTO academic_periods (code, start_date, end_date, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.GetContext(ctx, &period.ID, query, period.Code, period.StartDate, period.EndDate, period.Status, period.CreatedAt, period.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create period %s: %w", period.Code, ErrDuplicate)
		}
		return fmt.Errorf("create period: %w", err)
	}
	return nil
}

// Update changes the date window of a period.
func (r *PeriodRepository) Update(ctx context.Context, period *models.AcademicPeriod) error {
	period.UpdatedAt = time.Now().UTC()
	const query = `UPDATE academic_periods SET start_date = $2, end_date = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, period.ID, period.StartDate, period.EndDate, period.UpdatedAt); err != nil {
		return fmt.Errorf("update period: %w", err)
	}
	return nil
}

// Open marks the period open and closes any other open period atomically.
func (r *PeriodRepository) Open(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin open period tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `UPDATE academic_periods SET status = 'closed', updated_at = $1 WHERE status = 'open' AND id <> $2`, now, id); err != nil {
		return fmt.Errorf("close open periods: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE academic_periods SET status = 'open', updated_at = $2 WHERE id = $1`, id, now); err != nil {
		return fmt.Errorf("open period: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit open period tx: %w", err)
	}
	return nil
}

// SetStatus updates the lifecycle status of a period.
func (r *PeriodRepository) SetStatus(ctx context.Context, id int64, status models.PeriodStatus) error {
	const query = `UPDATE academic_periods SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("set period status: %w", err)
	}
	return nil
}
