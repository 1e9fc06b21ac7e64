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

// SubjectRepository persists subjects keyed by their external code.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository instantiates a subject repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

func (r *SubjectRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByCode loads a subject by code.
func (r *SubjectRepository) FindByCode(ctx context.Context, exec sqlx.ExtContext, code string) (*models.Subject, error) {
	var subject models.Subject
	if err := sqlx.GetContext(ctx, r.exec(exec), &subject, `SELECT id, code, name, created_at FROM subjects WHERE code = $1`, code); err != nil {
		return nil, err
	}
	return &subject, nil
}

// FindOrCreate inserts the subject unless its code exists. An existing subject
// keeps its stored name.
func (r *SubjectRepository) FindOrCreate(ctx context.Context, exec sqlx.ExtContext, subject *models.Subject) (bool, error) {
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = time.Now().UTC()
	}
	target := r.exec(exec)
	const query = `INSERT INTO subjects (code, name, created_at) VALUES ($1, $2, $3) ON CONFLICT (code) DO NOTHING RETURNING id`
	err := sqlx.GetContext(ctx, target, &subject.ID, query, subject.Code, subject.Name, subject.CreatedAt)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("upsert subject %s: %w", subject.Code, err)
	}

	existing, err := r.FindByCode(ctx, target, subject.Code)
	if err != nil {
		return false, fmt.Errorf("load subject %s: %w", subject.Code, err)
	}
	*subject = *existing
	return false, nil
}
