package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-schedule-api/internal/models"
	"github.com/noah-isme/campus-schedule-api/internal/repository"
	appErrors "github.com/noah-isme/campus-schedule-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type periodStore interface {
	List(ctx context.Context, filter models.PeriodFilter) ([]models.AcademicPeriod, int, error)
	FindByID(ctx context.Context, id int64) (*models.AcademicPeriod, error)
	FindFirstByStatus(ctx context.Context, exec sqlx.ExtContext, status models.PeriodStatus) (*models.AcademicPeriod, error)
	Create(ctx context.Context, period *models.AcademicPeriod) error
	Update(ctx context.Context, period *models.AcademicPeriod) error
	Open(ctx context.Context, id int64) error
	SetStatus(ctx context.Context, id int64, status models.PeriodStatus) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// PeriodService manages academic periods and selects the one schedules attach to.
type PeriodService struct {
	repo      periodStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeriodService constructs a PeriodService.
func NewPeriodService(repo periodStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns periods with pagination metadata.
func (s *PeriodService) List(ctx context.Context, filter models.PeriodFilter) ([]models.AcademicPeriod, *models.Pagination, error) {
	if filter.Status != nil && !validPeriodStatus(*filter.Status) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid period status")
	}
	periods, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list periods")
	}
	return periods, buildPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single period.
func (s *PeriodService) Get(ctx context.Context, id int64) (*models.AcademicPeriod, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	return period, nil
}

// SelectActive returns the lowest-id open period, falling back to the
// lowest-id planned one. exec lets callers run the lookup inside their own
// transaction; nil uses the pool.
func (s *PeriodService) SelectActive(ctx context.Context, exec sqlx.ExtContext) (*models.AcademicPeriod, error) {
	for _, status := range []models.PeriodStatus{models.PeriodOpen, models.PeriodPlanned} {
		period, err := s.repo.FindFirstByStatus(ctx, exec, status)
		if err == nil {
			return period, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to select period")
		}
	}
	return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no period available")
}

// Active is the cached form of SelectActive used by read endpoints. The
// boolean reports a cache hit.
func (s *PeriodService) Active(ctx context.Context) (*models.AcademicPeriod, bool, error) {
	var period models.AcademicPeriod
	hit, err := s.cache.Remember(ctx, cacheKeyActivePeriod, &period, func() (interface{}, error) {
		return s.SelectActive(ctx, nil)
	})
	if err != nil {
		return nil, false, err
	}
	return &period, hit, nil
}

// Create registers a planned period.
func (s *PeriodService) Create(ctx context.Context, req models.CreatePeriodRequest) (*models.AcademicPeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}
	start, end, err := parsePeriodWindow(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	period := &models.AcademicPeriod{Code: req.Code, StartDate: start, EndDate: end, Status: models.PeriodPlanned}
	if err := s.repo.Create(ctx, period); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "period code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create period")
	}
	s.invalidate(ctx)
	return period, nil
}

// Update changes the window of a period that has not been closed.
func (s *PeriodService) Update(ctx context.Context, id int64, req models.UpdatePeriodRequest) (*models.AcademicPeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}
	start, end, err := parsePeriodWindow(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	period, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if period.Status == models.PeriodClosed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "closed periods cannot be modified")
	}

	period.StartDate = start
	period.EndDate = end
	if err := s.repo.Update(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update period")
	}
	s.invalidate(ctx)
	return period, nil
}

// Open makes the period the open one, closing whichever period was open before.
func (s *PeriodService) Open(ctx context.Context, id int64) (*models.AcademicPeriod, error) {
	period, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch period.Status {
	case models.PeriodOpen:
		return period, nil
	case models.PeriodClosed:
		return nil, appErrors.Clone(appErrors.ErrConflict, "closed periods cannot be reopened")
	}

	if err := s.repo.Open(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open period")
	}
	period.Status = models.PeriodOpen
	s.invalidate(ctx)
	s.logger.Info("period opened", zap.Int64("period_id", id), zap.String("code", period.Code))
	return period, nil
}

// Close moves the period to its terminal state.
func (s *PeriodService) Close(ctx context.Context, id int64) (*models.AcademicPeriod, error) {
	period, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if period.Status == models.PeriodClosed {
		return period, nil
	}

	if err := s.repo.SetStatus(ctx, id, models.PeriodClosed); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close period")
	}
	period.Status = models.PeriodClosed
	s.invalidate(ctx)
	s.logger.Info("period closed", zap.Int64("period_id", id), zap.String("code", period.Code))
	return period, nil
}

func (s *PeriodService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, cachePatternPeriods, cachePatternGroups)
}

func parsePeriodWindow(rawStart, rawEnd string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "start_date must use YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "end_date must use YYYY-MM-DD")
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "end_date must be after start_date")
	}
	return start, end, nil
}

func validPeriodStatus(status models.PeriodStatus) bool {
	switch status {
	case models.PeriodPlanned, models.PeriodOpen, models.PeriodClosed:
		return true
	}
	return false
}
