package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-schedule-api/internal/models"
)

const groupColumns = "id, subject_id, period_id, section_code, professor_id, created_at, updated_at"

// GroupRepository persists course groups.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository instantiates a group repository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID loads a group by identifier.
func (r *GroupRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Group, error) {
	var group models.Group
	if err := sqlx.GetContext(ctx, r.exec(exec), &group, "SELECT "+groupColumns+" FROM course_groups WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &group, nil
}

// FindByKey loads the group identified by subject, period and section.
func (r *GroupRepository) FindByKey(ctx context.Context, exec sqlx.ExtContext, subjectID, periodID int64, section string) (*models.Group, error) {
	var group models.Group
	query := "SELECT " + groupColumns + " FROM course_groups WHERE subject_id = $1 AND period_id = $2 AND section_code = $3"
	if err := sqlx.GetContext(ctx, r.exec(exec), &group, query, subjectID, periodID, section); err != nil {
		return nil, err
	}
	return &group, nil
}

// FindOrCreate inserts the group unless (subject, period, section) exists, in
// which case the stored group is loaded and its professor left untouched.
func (r *GroupRepository) FindOrCreate(ctx context.Context, exec sqlx.ExtContext, group *models.Group) (bool, error) {
	now := time.Now().UTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now

	target := r.exec(exec)
	const query = `INSERT INTO course_groups (subject_id, period_id, section_code, professor_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (subject_id, period_id, section_code) DO NOTHING RETURNING id`
	err := sqlx.GetContext(ctx, target, &group.ID, query, group.SubjectID, group.PeriodID, group.SectionCode, group.ProfessorID, group.CreatedAt, group.UpdatedAt)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("upsert group: %w", err)
	}

	existing, err := r.FindByKey(ctx, target, group.SubjectID, group.PeriodID, group.SectionCode)
	if err != nil {
		return false, fmt.Errorf("load group: %w", err)
	}
	*group = *existing
	return false, nil
}

// UpdateProfessor reassigns the professor teaching a group.
func (r *GroupRepository) UpdateProfessor(ctx context.Context, exec sqlx.ExtContext, id int64, professorID string) error {
	const query = `UPDATE course_groups SET professor_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, professorID, time.Now().UTC()); err != nil {
		return fmt.Errorf("update group professor: %w", err)
	}
	return nil
}

// ListIDsByProfessor returns the ids of the groups a professor teaches in a period.
func (r *GroupRepository) ListIDsByProfessor(ctx context.Context, exec sqlx.ExtContext, professorID string, periodID int64) ([]int64, error) {
	var ids []int64
	const query = `SELECT id FROM course_groups WHERE professor_id = $1 AND period_id = $2 ORDER BY id`
	if err := sqlx.SelectContext(ctx, r.exec(exec), &ids, query, professorID, periodID); err != nil {
		return nil, fmt.Errorf("list professor groups: %w", err)
	}
	return ids, nil
}

// ListDetailsByPeriod returns every group of a period with subject and professor names.
func (r *GroupRepository) ListDetailsByPeriod(ctx context.Context, periodID int64) ([]models.GroupDetail, error) {
	const query = `
SELECT g.id, g.subject_id, s.code AS subject_code, s.name AS subject_name, g.section_code, g.period_id,
       g.professor_id, u.full_name AS professor_name
FROM course_groups g
JOIN subjects s ON s.id = g.subject_id
LEFT JOIN users u ON u.id = g.professor_id
WHERE g.period_id = $1
ORDER BY s.code ASC, g.section_code ASC`
	var groups []models.GroupDetail
	if err := r.db.SelectContext(ctx, &groups, query, periodID); err != nil {
		return nil, fmt.Errorf("list period groups: %w", err)
	}
	return groups, nil
}
