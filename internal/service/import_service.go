package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-schedule-api/internal/models"
	appErrors "github.com/noah-isme/campus-schedule-api/pkg/errors"
)

type subjectUpserter interface {
	FindOrCreate(ctx context.Context, exec sqlx.ExtContext, subject *models.Subject) (bool, error)
}

type groupUpserter interface {
	FindOrCreate(ctx context.Context, exec sqlx.ExtContext, group *models.Group) (bool, error)
}

type roomUpserter interface {
	FindOrCreate(ctx context.Context, exec sqlx.ExtContext, room *models.Room) (bool, error)
}

type assignmentUpserter interface {
	FindOrCreate(ctx context.Context, exec sqlx.ExtContext, item *models.ScheduleAssignment) (bool, error)
}

type professorCodeReader interface {
	FindByCode(ctx context.Context, exec sqlx.ExtContext, code string) (*models.User, error)
}

type documentExtractor interface {
	Extract(ctx context.Context, filePath string) (models.SchedulePayload, error)
}

type uploadStore interface {
	SaveStream(originalName string, r io.Reader, limit int64) (string, error)
	Path(name string) string
	Delete(name string) error
}

// ImportConfig tunes the reconciler.
type ImportConfig struct {
	DefaultRoomCapacity int
	MaxUploadBytes      int64
}

// ImportDeps groups the collaborators of ImportService.
type ImportDeps struct {
	Tx          txProvider
	Periods     periodSelector
	Subjects    subjectUpserter
	Groups      groupUpserter
	Rooms       roomUpserter
	Assignments assignmentUpserter
	Professors  professorCodeReader
	Extractor   documentExtractor
	Uploads     uploadStore
	Cache       *CacheService
	Metrics     *MetricsService
	Logger      *zap.Logger
}

// ImportService reconciles extracted timetables into subjects, groups, rooms
// and assignments of the selected academic period.
type ImportService struct {
	deps   ImportDeps
	cfg    ImportConfig
	logger *zap.Logger
}

// NewImportService constructs an ImportService.
func NewImportService(deps ImportDeps, cfg ImportConfig) *ImportService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultRoomCapacity <= 0 {
		cfg.DefaultRoomCapacity = 30
	}
	return &ImportService{deps: deps, cfg: cfg, logger: logger}
}

// ImportDocument stores the upload, sends it to the extraction service and
// reconciles the answer. The stored file is removed whatever the outcome.
func (s *ImportService) ImportDocument(ctx context.Context, filename string, r io.Reader) (*models.ImportResult, error) {
	if s.deps.Extractor == nil || s.deps.Uploads == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "document import is not configured")
	}

	name, err := s.deps.Uploads.SaveStream(filename, r, s.cfg.MaxUploadBytes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to store upload")
	}
	defer func() {
		if err := s.deps.Uploads.Delete(name); err != nil {
			s.logger.Warn("failed to remove staged upload", zap.String("file", name), zap.Error(err))
		}
	}()

	payload, err := s.deps.Extractor.Extract(ctx, s.deps.Uploads.Path(name))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "document extraction failed")
	}
	return s.Import(ctx, payload)
}

// Import reconciles payload in a single transaction. The period is selected
// first; course codes are then parsed up front so a malformed one aborts the
// run before anything is written.
func (s *ImportService) Import(ctx context.Context, payload models.SchedulePayload) (result *models.ImportResult, err error) {
	runID := uuid.NewString()
	logger := s.logger.With(zap.String("import_run_id", runID))
	start := time.Now()
	defer func() {
		s.deps.Metrics.ObserveImport(result, err != nil, time.Since(start))
	}()

	tx, err := s.deps.Tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start import")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	period, err := s.deps.Periods.SelectActive(ctx, tx)
	if err != nil {
		logger.Warn("import aborted", zap.Error(err))
		return nil, err
	}

	plan, err := planImport(payload)
	if err != nil {
		logger.Warn("import rejected", zap.Error(err))
		err = appErrors.Wrap(err, appErrors.ErrUnprocessable.Code, appErrors.ErrUnprocessable.Status, err.Error())
		return nil, err
	}
	logger.Info("import started",
		zap.Int64("period_id", period.ID),
		zap.Int("rooms", len(payload)),
		zap.Int("sessions", payload.SessionCount()),
	)

	run := &importRun{
		svc:     s,
		tx:      tx,
		logger:  logger,
		payload: payload,
		plan:    plan,
		period:  period,
		result:  &models.ImportResult{PeriodID: period.ID, Warnings: []string{}},
	}
	if err = run.execute(ctx); err != nil {
		logger.Error("import failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import schedule")
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit import")
	}
	_ = s.deps.Cache.Invalidate(ctx, cachePatternGroups)

	result = run.result
	logger.Info("import completed",
		zap.Int("subjects_created", result.SubjectsCreated),
		zap.Int("groups_created", result.GroupsCreated),
		zap.Int("rooms_created", result.RoomsCreated),
		zap.Int("assignments_created", result.AssignmentsCreated),
		zap.Int("warnings", len(result.Warnings)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// importPlan holds what can be derived from the payload without the database.
type importPlan struct {
	codes        map[string]models.CourseCode
	subjectOrder []string
	subjectNames map[string]string
}

func planImport(payload models.SchedulePayload) (*importPlan, error) {
	plan := &importPlan{
		codes:        make(map[string]models.CourseCode),
		subjectNames: make(map[string]string),
	}
	err := payload.Each(func(_, _ string, session models.ImportSession) error {
		if _, ok := plan.codes[session.CourseCode]; ok {
			return nil
		}
		code, err := models.ParseCourseCode(session.CourseCode)
		if err != nil {
			return err
		}
		plan.codes[session.CourseCode] = code
		if _, seen := plan.subjectNames[code.Subject]; !seen {
			plan.subjectNames[code.Subject] = strings.TrimSpace(session.Name)
			plan.subjectOrder = append(plan.subjectOrder, code.Subject)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

type importRun struct {
	svc     *ImportService
	tx      *sqlx.Tx
	logger  *zap.Logger
	payload models.SchedulePayload
	plan    *importPlan
	period  *models.AcademicPeriod
	result  *models.ImportResult

	subjects map[string]int64
	groups   map[string]int64
}

func (r *importRun) execute(ctx context.Context) error {
	if err := r.upsertSubjects(ctx); err != nil {
		return err
	}
	if err := r.upsertGroups(ctx); err != nil {
		return err
	}
	return r.upsertAssignments(ctx)
}

func (r *importRun) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	r.result.Warnings = append(r.result.Warnings, msg)
	r.logger.Debug("import warning", zap.String("warning", msg))
}

// upsertSubjects creates missing subjects. The first name seen for a code wins.
func (r *importRun) upsertSubjects(ctx context.Context) error {
	r.subjects = make(map[string]int64, len(r.plan.subjectOrder))
	for _, code := range r.plan.subjectOrder {
		subject := &models.Subject{Code: code, Name: r.plan.subjectNames[code]}
		created, err := r.svc.deps.Subjects.FindOrCreate(ctx, r.tx, subject)
		if err != nil {
			return fmt.Errorf("subject %s: %w", code, err)
		}
		if created {
			r.result.SubjectsCreated++
		}
		r.subjects[code] = subject.ID
	}
	r.logger.Debug("subjects reconciled", zap.Int("created", r.result.SubjectsCreated), zap.Int("seen", len(r.subjects)))
	return nil
}

// upsertGroups resolves one group per subject and section. Groups whose
// professor is unknown are skipped with a warning and retried by later sessions.
func (r *importRun) upsertGroups(ctx context.Context) error {
	r.groups = make(map[string]int64)
	err := r.payload.Each(func(_, _ string, session models.ImportSession) error {
		code := r.plan.codes[session.CourseCode]
		key := code.Key()
		if _, ok := r.groups[key]; ok {
			return nil
		}

		subjectID, ok := r.subjects[code.Subject]
		if !ok {
			r.warn("Subject not found: %s", code.Subject)
			return nil
		}

		professorCode := strings.TrimSpace(session.ProfessorCode)
		professor, err := r.svc.deps.Professors.FindByCode(ctx, r.tx, professorCode)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				r.warn("Professor not found: %s for group %s", professorCode, session.CourseCode)
				return nil
			}
			return fmt.Errorf("professor %s: %w", professorCode, err)
		}

		group := &models.Group{
			SubjectID:   subjectID,
			PeriodID:    r.period.ID,
			SectionCode: code.Section,
			ProfessorID: &professor.ID,
		}
		created, err := r.svc.deps.Groups.FindOrCreate(ctx, r.tx, group)
		if err != nil {
			return fmt.Errorf("group %s: %w", key, err)
		}
		if created {
			r.result.GroupsCreated++
		}
		r.groups[key] = group.ID
		return nil
	})
	if err != nil {
		return err
	}
	r.logger.Debug("groups reconciled", zap.Int("created", r.result.GroupsCreated), zap.Int("resolved", len(r.groups)))
	return nil
}

// upsertAssignments creates rooms on first sight and books every session
// whose group, weekday and time range resolve.
func (r *importRun) upsertAssignments(ctx context.Context) error {
	for _, roomCode := range r.payload.RoomCodes() {
		room := &models.Room{
			Code:     roomCode,
			Name:     roomCode,
			Capacity: r.svc.cfg.DefaultRoomCapacity,
			Status:   models.RoomActive,
		}
		created, err := r.svc.deps.Rooms.FindOrCreate(ctx, r.tx, room)
		if err != nil {
			return fmt.Errorf("room %s: %w", roomCode, err)
		}
		if created {
			r.result.RoomsCreated++
		}

		for _, dayName := range r.payload.DayNames(roomCode) {
			weekday, known := models.ParseWeekday(dayName)
			for _, session := range r.payload[roomCode][dayName] {
				if !known {
					r.warn("Unknown weekday %s for %s in %s", dayName, session.CourseCode, roomCode)
					continue
				}
				groupID, ok := r.groups[r.plan.codes[session.CourseCode].Key()]
				if !ok {
					r.warn("Group not found for assignment: %s in %s - %s", session.CourseCode, roomCode, dayName)
					continue
				}
				startTime, endTime, err := models.ParseTimeRange(session.TimeRange)
				if err != nil {
					r.warn("Invalid time range %q for %s in %s - %s", session.TimeRange, session.CourseCode, roomCode, dayName)
					continue
				}

				item := &models.ScheduleAssignment{
					GroupID:   groupID,
					RoomID:    room.ID,
					Weekday:   weekday,
					StartTime: models.Clock(startTime),
					EndTime:   models.Clock(endTime),
				}
				created, err := r.svc.deps.Assignments.FindOrCreate(ctx, r.tx, item)
				if err != nil {
					return fmt.Errorf("assignment %s %s %s: %w", session.CourseCode, roomCode, dayName, err)
				}
				if created {
					r.result.AssignmentsCreated++
				}
			}
		}
	}
	return nil
}
