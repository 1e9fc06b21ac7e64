package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-schedule-api/internal/models"
	"github.com/noah-isme/campus-schedule-api/internal/repository"
	appErrors "github.com/noah-isme/campus-schedule-api/pkg/errors"
)

type assignmentStore interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, int, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.ScheduleAssignment, error)
	FindDetail(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.AssignmentDetail, error)
	Create(ctx context.Context, exec sqlx.ExtContext, item *models.ScheduleAssignment) error
	Update(ctx context.Context, exec sqlx.ExtContext, item *models.ScheduleAssignment) error
	Delete(ctx context.Context, id int64) error
}

type assignmentGroupStore interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Group, error)
	UpdateProfessor(ctx context.Context, exec sqlx.ExtContext, id int64, professorID string) error
}

type roomReader interface {
	FindByID(ctx context.Context, id int64) (*models.Room, error)
}

// AssignmentService manages manual schedule assignments. Every write re-runs
// the room and professor availability checks inside its transaction.
type AssignmentService struct {
	repo         assignmentStore
	groups       assignmentGroupStore
	rooms        roomReader
	users        professorResolver
	availability *AvailabilityService
	tx           txProvider
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(
	repo assignmentStore,
	groups assignmentGroupStore,
	rooms roomReader,
	users professorResolver,
	availability *AvailabilityService,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		repo:         repo,
		groups:       groups,
		rooms:        rooms,
		users:        users,
		availability: availability,
		tx:           tx,
		validator:    validate,
		logger:       logger,
	}
}

// List returns assignments with pagination metadata.
func (s *AssignmentService) List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	if items == nil {
		items = []models.AssignmentDetail{}
	}
	return items, buildPagination(filter.Page, filter.PageSize, total), nil
}

// Create books a group into a room slot. When ProfessorID is set the group is
// reassigned to that professor before the checks run.
func (s *AssignmentService) Create(ctx context.Context, req models.CreateAssignmentRequest) (*models.AssignmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	slot, err := parseSlot(req.Weekday, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if err := s.ensureRoom(ctx, req.RoomID); err != nil {
		return nil, err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	group, err := s.loadGroup(ctx, tx, req.GroupID)
	if err != nil {
		return nil, err
	}
	if req.ProfessorID != nil && *req.ProfessorID != "" {
		if err = s.reassignProfessor(ctx, tx, group, *req.ProfessorID); err != nil {
			return nil, err
		}
	}
	if err = s.ensureAvailable(ctx, tx, group, req.RoomID, slot, nil); err != nil {
		return nil, err
	}

	item := &models.ScheduleAssignment{
		GroupID:   group.ID,
		RoomID:    req.RoomID,
		Weekday:   slot.Weekday,
		StartTime: models.Clock(slot.Start),
		EndTime:   models.Clock(slot.End),
	}
	if err = s.repo.Create(ctx, tx, item); err != nil {
		err = mapAssignmentWriteError(err, "failed to create assignment")
		return nil, err
	}

	detail, err := s.repo.FindDetail(ctx, tx, item.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit assignment")
	}

	s.logger.Info("assignment created",
		zap.Int64("assignment_id", item.ID),
		zap.Int64("group_id", item.GroupID),
		zap.Int64("room_id", item.RoomID),
		zap.Stringer("slot", slot),
	)
	return detail, nil
}

// Update applies the provided fields and re-validates the resulting slot,
// ignoring the assignment itself in the checks.
func (s *AssignmentService) Update(ctx context.Context, id int64, req models.UpdateAssignmentRequest) (*models.AssignmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	item, err := s.repo.FindByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	day, start, end := string(item.Weekday), string(item.StartTime), string(item.EndTime)
	if req.Weekday != nil {
		day = *req.Weekday
	}
	if req.StartTime != nil {
		start = *req.StartTime
	}
	if req.EndTime != nil {
		end = *req.EndTime
	}
	slot, err := parseSlot(day, start, end)
	if err != nil {
		return nil, err
	}
	if req.RoomID != nil && *req.RoomID != item.RoomID {
		if err = s.ensureRoom(ctx, *req.RoomID); err != nil {
			return nil, err
		}
		item.RoomID = *req.RoomID
	}
	if req.GroupID != nil {
		item.GroupID = *req.GroupID
	}

	group, err := s.loadGroup(ctx, tx, item.GroupID)
	if err != nil {
		return nil, err
	}
	if err = s.ensureAvailable(ctx, tx, group, item.RoomID, slot, &id); err != nil {
		return nil, err
	}

	item.Weekday = slot.Weekday
	item.StartTime = models.Clock(slot.Start)
	item.EndTime = models.Clock(slot.End)
	if err = s.repo.Update(ctx, tx, item); err != nil {
		err = mapAssignmentWriteError(err, "failed to update assignment")
		return nil, err
	}

	detail, err := s.repo.FindDetail(ctx, tx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit assignment")
	}
	s.logger.Info("assignment updated", zap.Int64("assignment_id", id), zap.Stringer("slot", slot))
	return detail, nil
}

// Delete removes an assignment.
func (s *AssignmentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	s.logger.Info("assignment deleted", zap.Int64("assignment_id", id))
	return nil
}

func (s *AssignmentService) ensureRoom(ctx context.Context, roomID int64) error {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	if room.Status != models.RoomActive {
		return appErrors.Clone(appErrors.ErrConflict, "room is inactive")
	}
	return nil
}

func (s *AssignmentService) loadGroup(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Group, error) {
	group, err := s.groups.FindByID(ctx, exec, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	return group, nil
}

func (s *AssignmentService) reassignProfessor(ctx context.Context, exec sqlx.ExtContext, group *models.Group, ref string) error {
	professor, err := s.users.FindByReference(ctx, ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}
	if group.ProfessorID != nil && *group.ProfessorID == professor.ID {
		return nil
	}
	if err := s.groups.UpdateProfessor(ctx, exec, group.ID, professor.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reassign professor")
	}
	group.ProfessorID = &professor.ID
	return nil
}

func (s *AssignmentService) ensureAvailable(ctx context.Context, exec sqlx.ExtContext, group *models.Group, roomID int64, slot models.TimeInterval, excludeID *int64) error {
	room, err := s.availability.roomConflicts(ctx, exec, roomID, group.PeriodID, slot, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room availability")
	}
	if !room.Available {
		return conflictError(availabilityTargetRoom, "room is already booked for this slot", room.Conflicts)
	}

	if group.ProfessorID == nil {
		return nil
	}
	professor, err := s.availability.professorConflicts(ctx, exec, *group.ProfessorID, group.PeriodID, slot, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check professor availability")
	}
	if !professor.Available {
		return conflictError(availabilityTargetProfessor, "professor is already teaching in this slot", professor.Conflicts)
	}
	return nil
}

func conflictError(target, message string, conflicts []models.AssignmentDetail) error {
	detail := &models.ScheduleConflictError{Target: target, Message: message, Conflicts: conflicts}
	return appErrors.Wrap(detail, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, message)
}

func mapAssignmentWriteError(err error, message string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Clone(appErrors.ErrConflict, "assignment already exists")
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
	}
}
