package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-schedule-api/internal/models"
	appErrors "github.com/noah-isme/campus-schedule-api/pkg/errors"
)

type roomServiceMock struct {
	lastFilter models.RoomFilter
	lastCreate models.CreateRoomRequest
	createErr  error
	toggled    int64
}

func (m *roomServiceMock) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, *models.Pagination, error) {
	m.lastFilter = filter
	return []models.Room{{ID: 1, Code: "A-101"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (m *roomServiceMock) Get(ctx context.Context, id int64) (*models.Room, error) {
	if id != 1 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
	}
	return &models.Room{ID: 1, Code: "A-101"}, nil
}

func (m *roomServiceMock) Create(ctx context.Context, req models.CreateRoomRequest) (*models.Room, error) {
	m.lastCreate = req
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.Room{ID: 2, Code: req.Code, Name: req.Name, Capacity: req.Capacity, Status: models.RoomActive}, nil
}

func (m *roomServiceMock) Update(ctx context.Context, id int64, req models.UpdateRoomRequest) (*models.Room, error) {
	return &models.Room{ID: id, Name: req.Name, Capacity: req.Capacity}, nil
}

func (m *roomServiceMock) Toggle(ctx context.Context, id int64) (*models.Room, error) {
	m.toggled = id
	return &models.Room{ID: id, Status: models.RoomInactive}, nil
}

func TestRoomHandlerList(t *testing.T) {
	svc := &roomServiceMock{}
	handler := NewRoomHandler(svc)

	c, w := newTestContext(http.MethodGet, "/rooms?status=ACTIVE&search=lab", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lastFilter.Status)
	assert.Equal(t, models.RoomActive, *svc.lastFilter.Status)
	assert.Equal(t, "lab", svc.lastFilter.Search)

	c, w = newTestContext(http.MethodGet, "/rooms?status=broken", nil)
	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoomHandlerGet(t *testing.T) {
	handler := NewRoomHandler(&roomServiceMock{})

	c, w := newTestContext(http.MethodGet, "/rooms/1", nil)
	c.Params = append(c.Params, paramID("1"))
	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = newTestContext(http.MethodGet, "/rooms/9", nil)
	c.Params = append(c.Params, paramID("9"))
	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoomHandlerCreate(t *testing.T) {
	svc := &roomServiceMock{}
	handler := NewRoomHandler(svc)

	c, w := newTestContext(http.MethodPost, "/rooms", []byte(`{"code":"B-202","name":"Aula B","capacity":40}`))
	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "B-202", svc.lastCreate.Code)

	svc.createErr = appErrors.Clone(appErrors.ErrConflict, "room code already exists")
	c, w = newTestContext(http.MethodPost, "/rooms", []byte(`{"code":"B-202","name":"Aula B","capacity":40}`))
	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestRoomHandlerToggle(t *testing.T) {
	svc := &roomServiceMock{}
	handler := NewRoomHandler(svc)

	c, w := newTestContext(http.MethodPatch, "/rooms/4/toggle", nil)
	c.Params = append(c.Params, paramID("4"))
	handler.Toggle(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(4), svc.toggled)
}
