package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-schedule-api/internal/models"
)

const roomColumns = "id, code, name, capacity, status, created_at, updated_at"

// RoomRepository handles persistence for rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository instantiates a room repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns rooms matching the filter together with the total count.
func (r *RoomRepository) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error) {
	base := "FROM rooms WHERE 1=1"
	var args []interface{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		base += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		base += fmt.Sprintf(" AND (LOWER(code) LIKE $%d OR LOWER(name) LIKE $%d)", len(args), len(args))
	}

	allowedSorts := map[string]bool{"code": true, "name": true, "capacity": true, "created_at": true}
	sortBy := filter.SortBy
	if !allowedSorts[sortBy] {
		sortBy = "code"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", roomColumns, base, sortBy, order, size, (page-1)*size)

	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list rooms: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count rooms: %w", err)
	}
	return rooms, total, nil
}

// FindByID loads a room by identifier.
func (r *RoomRepository) FindByID(ctx context.Context, id int64) (*models.Room, error) {
	var room models.Room
	if err := r.db.GetContext(ctx, &room, "SELECT "+roomColumns+" FROM rooms WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &room, nil
}

// FindByCode loads a room by its unique code.
func (r *RoomRepository) FindByCode(ctx context.Context, exec sqlx.ExtContext, code string) (*models.Room, error) {
	var room models.Room
	if err := sqlx.GetContext(ctx, r.exec(exec), &room, "SELECT "+roomColumns+" FROM rooms WHERE code = $1", code); err != nil {
		return nil, err
	}
	return &room, nil
}

// Create inserts a room and fills its generated id.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	stampRoom(room)
	const query = `INSERT INTO rooms (code, name, capacity, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.GetContext(ctx, &room.ID, query, room.Code, room.Name, room.Capacity, room.Status, room.CreatedAt, room.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create room %s: %w", room.Code, ErrDuplicate)
		}
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

// FindOrCreate inserts the room unless its code exists; on conflict the stored
// row is loaded into room. The boolean reports whether a row was inserted.
func (r *RoomRepository) FindOrCreate(ctx context.Context, exec sqlx.ExtContext, room *models.Room) (bool, error) {
	stampRoom(room)
	target := r.exec(exec)
	const query = `INSERT INTO rooms (code, name, capacity, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (code) DO NOTHING RETURNING id`
	err := sqlx.GetContext(ctx, target, &room.ID, query, room.Code, room.Name, room.Capacity, room.Status, room.CreatedAt, room.UpdatedAt)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("upsert room %s: %w", room.Code, err)
	}

	existing, err := r.FindByCode(ctx, target, room.Code)
	if err != nil {
		return false, fmt.Errorf("load room %s: %w", room.Code, err)
	}
	*room = *existing
	return false, nil
}

// Update modifies the descriptive fields of a room.
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	room.UpdatedAt = time.Now().UTC()
	const query = `UPDATE rooms SET name = $2, capacity = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, room.ID, room.Name, room.Capacity, room.UpdatedAt); err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	return nil
}

// SetStatus activates or deactivates a room.
func (r *RoomRepository) SetStatus(ctx context.Context, id int64, status models.RoomStatus) error {
	const query = `UPDATE rooms SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("set room status: %w", err)
	}
	return nil
}

func stampRoom(room *models.Room) {
	now := time.Now().UTC()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	room.UpdatedAt = now
	if room.Status == "" {
		room.Status = models.RoomActive
	}
}
