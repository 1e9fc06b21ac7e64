package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-schedule-api/internal/models"
	appErrors "github.com/noah-isme/campus-schedule-api/pkg/errors"
	"github.com/noah-isme/campus-schedule-api/pkg/jobs"
)

// ImportJobType identifies schedule imports on the worker queue.
const ImportJobType = "schedule_import"

const importJobKeyPrefix = "campus:jobs:import:"

type jobStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type payloadImporter interface {
	Import(ctx context.Context, payload models.SchedulePayload) (*models.ImportResult, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// ImportJobService runs imports on the background queue and keeps their
// status in Redis for ImportJobTTL.
type ImportJobService struct {
	store    jobStore
	importer payloadImporter
	queue    jobEnqueuer
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewImportJobService constructs the service. The queue is attached later
// because it needs Handle as its handler.
func NewImportJobService(store jobStore, importer payloadImporter, ttl time.Duration, logger *zap.Logger) *ImportJobService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportJobService{store: store, importer: importer, ttl: ttl, logger: logger, now: time.Now}
}

// AttachQueue sets the queue Enqueue publishes to.
func (s *ImportJobService) AttachQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Enqueue records a queued job and hands the payload to the workers.
func (s *ImportJobService) Enqueue(ctx context.Context, payload models.SchedulePayload, source, createdBy string) (*models.ImportJob, error) {
	if s.store == nil || s.queue == nil {
		return nil, appErrors.New("JOBS_UNAVAILABLE", http.StatusServiceUnavailable, "background imports are not available")
	}
	if payload == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule payload is required")
	}

	job := &models.ImportJob{
		ID:        uuid.NewString(),
		Status:    models.ImportJobQueued,
		Source:    source,
		Sessions:  payload.SessionCount(),
		CreatedBy: createdBy,
		CreatedAt: s.now().UTC(),
	}
	if err := s.save(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record import job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: ImportJobType, Payload: payload}); err != nil {
		s.finish(ctx, job, nil, err)
		return nil, appErrors.New("JOBS_UNAVAILABLE", http.StatusServiceUnavailable, "import queue is busy, retry later")
	}

	s.logger.Info("import job queued", zap.String("job_id", job.ID), zap.Int("sessions", job.Sessions))
	return job, nil
}

// Get returns the recorded state of a job.
func (s *ImportJobService) Get(ctx context.Context, id string) (*models.ImportJob, error) {
	if s.store == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "import job not found")
	}
	var job models.ImportJob
	if err := s.store.Get(ctx, importJobKeyPrefix+id, &job); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "import job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load import job")
	}
	return &job, nil
}

// Handle is the queue handler. Client errors finish the job at once; other
// failures are returned so the queue retries them.
func (s *ImportJobService) Handle(ctx context.Context, queued jobs.Job) error {
	payload, ok := queued.Payload.(models.SchedulePayload)
	if !ok {
		return fmt.Errorf("job %s: unexpected payload %T", queued.ID, queued.Payload)
	}

	job, err := s.Get(ctx, queued.ID)
	if err != nil {
		job = &models.ImportJob{ID: queued.ID, Sessions: payload.SessionCount(), CreatedAt: s.now().UTC()}
	}
	job.Status = models.ImportJobRunning
	if err := s.save(ctx, job); err != nil {
		s.logger.Warn("failed to mark import job running", zap.String("job_id", job.ID), zap.Error(err))
	}

	result, err := s.importer.Import(ctx, payload)
	if err != nil {
		if appErr := appErrors.FromError(err); appErr.Status < http.StatusInternalServerError {
			s.finish(ctx, job, nil, err)
			return nil
		}
		return err
	}
	s.finish(ctx, job, result, nil)
	return nil
}

// Exhausted marks a job failed once the queue gives up retrying it.
func (s *ImportJobService) Exhausted(queued jobs.Job, err error) {
	ctx := context.Background()
	job, getErr := s.Get(ctx, queued.ID)
	if getErr != nil {
		job = &models.ImportJob{ID: queued.ID}
	}
	s.finish(ctx, job, nil, err)
}

func (s *ImportJobService) finish(ctx context.Context, job *models.ImportJob, result *models.ImportResult, err error) {
	finished := s.now().UTC()
	job.FinishedAt = &finished
	job.Result = result
	if err != nil {
		job.Status = models.ImportJobFailed
		job.Error = err.Error()
	} else {
		job.Status = models.ImportJobSucceeded
		job.Error = ""
	}
	if saveErr := s.save(ctx, job); saveErr != nil {
		s.logger.Error("failed to record import job outcome", zap.String("job_id", job.ID), zap.Error(saveErr))
		return
	}
	s.logger.Info("import job finished", zap.String("job_id", job.ID), zap.String("status", string(job.Status)))
}

func (s *ImportJobService) save(ctx context.Context, job *models.ImportJob) error {
	return s.store.Set(ctx, importJobKeyPrefix+job.ID, job, s.ttl)
}
