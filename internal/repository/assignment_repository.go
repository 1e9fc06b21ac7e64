package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-schedule-api/internal/models"
)

const assignmentColumns = "id, group_id, room_id, weekday, start_time, end_time, created_at, updated_at"

const assignmentDetailSelect = `
SELECT sa.id, sa.group_id, sa.room_id, r.code AS room_code, sa.weekday, sa.start_time, sa.end_time,
       g.period_id, s.code AS subject_code, s.name AS subject_name, g.section_code,
       g.professor_id, u.full_name AS professor_name
FROM schedule_assignments sa
JOIN course_groups g ON g.id = sa.group_id
JOIN subjects s ON s.id = g.subject_id
JOIN rooms r ON r.id = sa.room_id
LEFT JOIN users u ON u.id = g.professor_id`

const assignmentDetailOrder = ` ORDER BY array_position(ARRAY['Lunes','Martes','Miércoles','Jueves','Viernes','Sábado']::text[], sa.weekday), sa.start_time, r.code, sa.id`

// AssignmentRepository persists schedule assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository instantiates an assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByRoomDay returns the assignments held in a room on a weekday by groups of the period.
func (r *AssignmentRepository) ListByRoomDay(ctx context.Context, exec sqlx.ExtContext, roomID, periodID int64, weekday models.Weekday) ([]models.AssignmentDetail, error) {
	query := assignmentDetailSelect + ` WHERE sa.room_id = $1 AND g.period_id = $2 AND sa.weekday = $3` + assignmentDetailOrder
	var items []models.AssignmentDetail
	if err := sqlx.SelectContext(ctx, r.exec(exec), &items, query, roomID, periodID, weekday); err != nil {
		return nil, fmt.Errorf("list room assignments: %w", err)
	}
	return items, nil
}

// ListByGroupsDay returns the assignments of the given groups on a weekday.
func (r *AssignmentRepository) ListByGroupsDay(ctx context.Context, exec sqlx.ExtContext, groupIDs []int64, weekday models.Weekday) ([]models.AssignmentDetail, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	query := assignmentDetailSelect + ` WHERE sa.group_id = ANY($1) AND sa.weekday = $2` + assignmentDetailOrder
	var items []models.AssignmentDetail
	if err := sqlx.SelectContext(ctx, r.exec(exec), &items, query, pq.Array(groupIDs), weekday); err != nil {
		return nil, fmt.Errorf("list group assignments: %w", err)
	}
	return items, nil
}

// FindByID loads an assignment by identifier.
func (r *AssignmentRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.ScheduleAssignment, error) {
	var item models.ScheduleAssignment
	if err := sqlx.GetContext(ctx, r.exec(exec), &item, "SELECT "+assignmentColumns+" FROM schedule_assignments WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &item, nil
}

// FindDetail loads an assignment with its joined display fields.
func (r *AssignmentRepository) FindDetail(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.AssignmentDetail, error) {
	var item models.AssignmentDetail
	if err := sqlx.GetContext(ctx, r.exec(exec), &item, assignmentDetailSelect+` WHERE sa.id = $1`, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// FindOrCreate inserts the assignment unless an identical slot exists for the
// same group and room. The boolean reports whether a row was inserted.
func (r *AssignmentRepository) FindOrCreate(ctx context.Context, exec sqlx.ExtContext, item *models.ScheduleAssignment) (bool, error) {
	stampAssignment(item)
	target := r.exec(exec)
	const query = `INSERT INTO schedule_assignments (group_id, room_id, weekday, start_time, end_time, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (group_id, room_id, weekday, start_time, end_time) DO NOTHING RETURNING id`
	err := sqlx.GetContext(ctx, target, &item.ID, query, item.GroupID, item.RoomID, item.Weekday, item.StartTime, item.EndTime, item.CreatedAt, item.UpdatedAt)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("upsert assignment: %w", err)
	}

	const existing = `SELECT id FROM schedule_assignments WHERE group_id = $1 AND room_id = $2 AND weekday = $3 AND start_time = $4 AND end_time = $5`
	if err := sqlx.GetContext(ctx, target, &item.ID, existing, item.GroupID, item.RoomID, item.Weekday, item.StartTime, item.EndTime); err != nil {
		return false, fmt.Errorf("load existing assignment: %w", err)
	}
	return false, nil
}

// Create inserts an assignment and fills its generated id.
func (r *AssignmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, item *models.ScheduleAssignment) error {
	stampAssignment(item)
	const query = `INSERT INTO schedule_assignments (group_id, room_id, weekday, start_time, end_time, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &item.ID, query, item.GroupID, item.RoomID, item.Weekday, item.StartTime, item.EndTime, item.CreatedAt, item.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create assignment: %w", ErrDuplicate)
		}
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Update rewrites every mutable field of an assignment.
func (r *AssignmentRepository) Update(ctx context.Context, exec sqlx.ExtContext, item *models.ScheduleAssignment) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedule_assignments SET group_id = $2, room_id = $3, weekday = $4, start_time = $5, end_time = $6, updated_at = $7 WHERE id = $1`
	res, err := r.exec(exec).ExecContext(ctx, query, item.ID, item.GroupID, item.RoomID, item.Weekday, item.StartTime, item.EndTime, item.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update assignment: %w", ErrDuplicate)
		}
		return fmt.Errorf("update assignment: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedule_assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns a page of assignment details matching the filter.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, int, error) {
	where, args := assignmentWhere(filter)
	page, size := normalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("%s%s%s LIMIT %d OFFSET %d", assignmentDetailSelect, where, assignmentDetailOrder, size, (page-1)*size)
	var items []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", err)
	}

	countQuery := `SELECT COUNT(*) FROM schedule_assignments sa JOIN course_groups g ON g.id = sa.group_id` + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", err)
	}
	return items, total, nil
}

// ListAll returns every assignment detail matching the filter, ignoring paging.
func (r *AssignmentRepository) ListAll(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, error) {
	where, args := assignmentWhere(filter)
	var items []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &items, assignmentDetailSelect+where+assignmentDetailOrder, args...); err != nil {
		return nil, fmt.Errorf("list assignments for export: %w", err)
	}
	return items, nil
}

func assignmentWhere(filter models.AssignmentFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	add := func(expr string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(expr, len(args)))
	}

	if filter.PeriodID != nil {
		add("g.period_id = $%d", *filter.PeriodID)
	}
	if filter.RoomID != nil {
		add("sa.room_id = $%d", *filter.RoomID)
	}
	if filter.GroupID != nil {
		add("sa.group_id = $%d", *filter.GroupID)
	}
	if filter.ProfessorID != nil {
		add("g.professor_id = $%d", *filter.ProfessorID)
	}
	if filter.Weekday != nil {
		add("sa.weekday = $%d", *filter.Weekday)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func stampAssignment(item *models.ScheduleAssignment) {
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
}
