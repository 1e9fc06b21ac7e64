package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-schedule-api/internal/models"
)

const userColumns = "id, code, email, full_name, role, active, created_at, updated_at"

// UserRepository reads accounts. Professors are resolved through it by their
// internal id or their external timetable code.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new repository instance.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user by internal identity key.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByCode returns a user by external code.
func (r *UserRepository) FindByCode(ctx context.Context, exec sqlx.ExtContext, code string) (*models.User, error) {
	var target sqlx.ExtContext = r.db
	if exec != nil {
		target = exec
	}
	var user models.User
	if err := sqlx.GetContext(ctx, target, &user, "SELECT "+userColumns+" FROM users WHERE code = $1", code); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByReference matches either the internal id or the external code,
// preferring the id when both exist.
func (r *UserRepository) FindByReference(ctx context.Context, ref string) (*models.User, error) {
	var user models.User
	query := "SELECT " + userColumns + " FROM users WHERE id = $1 OR code = $1 ORDER BY (id = $1) DESC LIMIT 1"
	if err := r.db.GetContext(ctx, &user, query, ref); err != nil {
		return nil, err
	}
	return &user, nil
}
