package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-schedule-api/internal/models"
	appErrors "github.com/noah-isme/campus-schedule-api/pkg/errors"
)

const (
	availabilityTargetRoom      = "room"
	availabilityTargetProfessor = "professor"
)

type slotAssignmentReader interface {
	ListByRoomDay(ctx context.Context, exec sqlx.ExtContext, roomID, periodID int64, weekday models.Weekday) ([]models.AssignmentDetail, error)
	ListByGroupsDay(ctx context.Context, exec sqlx.ExtContext, groupIDs []int64, weekday models.Weekday) ([]models.AssignmentDetail, error)
}

type professorGroupReader interface {
	ListIDsByProfessor(ctx context.Context, exec sqlx.ExtContext, professorID string, periodID int64) ([]int64, error)
}

type professorResolver interface {
	FindByReference(ctx context.Context, ref string) (*models.User, error)
}

// AvailabilityService answers whether a room or professor is free for a slot.
// It never writes.
type AvailabilityService struct {
	assignments slotAssignmentReader
	groups      professorGroupReader
	users       professorResolver
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(assignments slotAssignmentReader, groups professorGroupReader, users professorResolver, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		assignments: assignments,
		groups:      groups,
		users:       users,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// CheckRoom lists the assignments of the period that occupy the room during
// the queried slot. An unknown room is reported as available.
func (s *AvailabilityService) CheckRoom(ctx context.Context, roomID int64, query models.AvailabilityQuery) (*models.AvailabilityResult, error) {
	slot, err := s.parseQuery(query)
	if err != nil {
		return nil, err
	}
	result, err := s.roomConflicts(ctx, nil, roomID, query.PeriodID, slot, query.ExcludeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room availability")
	}
	s.metrics.RecordAvailabilityCheck(availabilityTargetRoom, result.Available)
	return result, nil
}

// CheckProfessor resolves the professor by internal id or external code and
// lists the overlapping assignments of the groups they teach in the period.
// An unknown professor is reported as available.
func (s *AvailabilityService) CheckProfessor(ctx context.Context, ref string, query models.AvailabilityQuery) (*models.AvailabilityResult, error) {
	slot, err := s.parseQuery(query)
	if err != nil {
		return nil, err
	}
	if ref == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "professor id is required")
	}

	user, err := s.users.FindByReference(ctx, ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordAvailabilityCheck(availabilityTargetProfessor, true)
			return freeSlot(), nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve professor")
	}

	result, err := s.professorConflicts(ctx, nil, user.ID, query.PeriodID, slot, query.ExcludeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check professor availability")
	}
	s.metrics.RecordAvailabilityCheck(availabilityTargetProfessor, result.Available)
	return result, nil
}

func (s *AvailabilityService) parseQuery(query models.AvailabilityQuery) (models.TimeInterval, error) {
	if err := s.validator.Struct(query); err != nil {
		return models.TimeInterval{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "weekday, start, end and period_id are required")
	}
	return parseSlot(query.Weekday, query.Start, query.End)
}

func (s *AvailabilityService) roomConflicts(ctx context.Context, exec sqlx.ExtContext, roomID, periodID int64, slot models.TimeInterval, excludeID *int64) (*models.AvailabilityResult, error) {
	candidates, err := s.assignments.ListByRoomDay(ctx, exec, roomID, periodID, slot.Weekday)
	if err != nil {
		return nil, err
	}
	return collectConflicts(candidates, slot, excludeID), nil
}

func (s *AvailabilityService) professorConflicts(ctx context.Context, exec sqlx.ExtContext, professorID string, periodID int64, slot models.TimeInterval, excludeID *int64) (*models.AvailabilityResult, error) {
	groupIDs, err := s.groups.ListIDsByProfessor(ctx, exec, professorID, periodID)
	if err != nil {
		return nil, err
	}
	if len(groupIDs) == 0 {
		return freeSlot(), nil
	}
	candidates, err := s.assignments.ListByGroupsDay(ctx, exec, groupIDs, slot.Weekday)
	if err != nil {
		return nil, err
	}
	return collectConflicts(candidates, slot, excludeID), nil
}

// parseSlot validates a weekday and clock pair and rejects empty ranges.
func parseSlot(rawDay, rawStart, rawEnd string) (models.TimeInterval, error) {
	day, ok := models.ParseWeekday(rawDay)
	if !ok {
		return models.TimeInterval{}, appErrors.Clone(appErrors.ErrValidation, "unknown weekday "+rawDay)
	}
	slot, err := models.NewTimeInterval(day, rawStart, rawEnd)
	if err != nil {
		return models.TimeInterval{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "start and end must use HH:MM or HH:MM:SS")
	}
	if slot.Empty() {
		return models.TimeInterval{}, appErrors.Clone(appErrors.ErrValidation, "end must be after start")
	}
	return slot, nil
}

func collectConflicts(candidates []models.AssignmentDetail, slot models.TimeInterval, excludeID *int64) *models.AvailabilityResult {
	conflicts := make([]models.AssignmentDetail, 0)
	for _, candidate := range candidates {
		if excludeID != nil && candidate.ID == *excludeID {
			continue
		}
		if candidate.Interval().Overlaps(slot) {
			conflicts = append(conflicts, candidate)
		}
	}
	return &models.AvailabilityResult{Available: len(conflicts) == 0, Conflicts: conflicts}
}

func freeSlot() *models.AvailabilityResult {
	return &models.AvailabilityResult{Available: true, Conflicts: []models.AssignmentDetail{}}
}
