package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-schedule-api/internal/models"
	appErrors "github.com/noah-isme/campus-schedule-api/pkg/errors"
)

type periodSelector interface {
	SelectActive(ctx context.Context, exec sqlx.ExtContext) (*models.AcademicPeriod, error)
}

type groupDetailReader interface {
	ListDetailsByPeriod(ctx context.Context, periodID int64) ([]models.GroupDetail, error)
}

// GroupService lists the course groups of the selected period.
type GroupService struct {
	periods periodSelector
	groups  groupDetailReader
	cache   *CacheService
	logger  *zap.Logger
}

// NewGroupService constructs a GroupService.
func NewGroupService(periods periodSelector, groups groupDetailReader, cache *CacheService, logger *zap.Logger) *GroupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{periods: periods, groups: groups, cache: cache, logger: logger}
}

// ListActive returns the selected period together with its groups. The
// boolean reports a cache hit.
func (s *GroupService) ListActive(ctx context.Context) (*models.ActiveGroups, bool, error) {
	var result models.ActiveGroups
	hit, err := s.cache.Remember(ctx, cacheKeyActiveGroups, &result, func() (interface{}, error) {
		return s.loadActive(ctx)
	})
	if err != nil {
		return nil, false, err
	}
	return &result, hit, nil
}

func (s *GroupService) loadActive(ctx context.Context) (*models.ActiveGroups, error) {
	period, err := s.periods.SelectActive(ctx, nil)
	if err != nil {
		return nil, err
	}
	groups, err := s.groups.ListDetailsByPeriod(ctx, period.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
	}
	if groups == nil {
		groups = []models.GroupDetail{}
	}
	return &models.ActiveGroups{Period: period, Groups: groups}, nil
}
