package models

import "time"

// RoomStatus marks whether a room accepts new assignments.
type RoomStatus string

const (
	RoomActive   RoomStatus = "active"
	RoomInactive RoomStatus = "inactive"
)

// Room is a physical teaching space. Rooms are never deleted, only deactivated.
type Room struct {
	ID        int64      `db:"id" json:"id"`
	Code      string     `db:"code" json:"code"`
	Name      string     `db:"name" json:"name"`
	Capacity  int        `db:"capacity" json:"capacity"`
	Status    RoomStatus `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// RoomFilter narrows room listings.
type RoomFilter struct {
	Status    *RoomStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// CreateRoomRequest is the payload for registering a room.
type CreateRoomRequest struct {
	Code     string `json:"code" validate:"required,max=32"`
	Name     string `json:"name" validate:"required,max=128"`
	Capacity int    `json:"capacity" validate:"required,gt=0"`
}

// UpdateRoomRequest changes the descriptive fields of a room.
type UpdateRoomRequest struct {
	Name     string `json:"name" validate:"required,max=128"`
	Capacity int    `json:"capacity" validate:"required,gt=0"`
}
