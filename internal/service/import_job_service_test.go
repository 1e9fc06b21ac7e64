package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-schedule-api/internal/models"
	appErrors "github.com/noah-isme/campus-schedule-api/pkg/errors"
	"github.com/noah-isme/campus-schedule-api/pkg/jobs"
)

type importerStub struct {
	result *models.ImportResult
	err    error
	calls  int
}

func (s *importerStub) Import(ctx context.Context, payload models.SchedulePayload) (*models.ImportResult, error) {
	s.calls++
	return s.result, s.err
}

type enqueuerStub struct {
	jobs []jobs.Job
	err  error
}

func (s *enqueuerStub) Enqueue(job jobs.Job) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func newImportJobFixture(importer *importerStub) (*ImportJobService, *enqueuerStub) {
	svc := NewImportJobService(newMemoryCacheRepo(), importer, time.Hour, nil)
	svc.now = func() time.Time { return time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC) }
	queue := &enqueuerStub{}
	svc.AttachQueue(queue)
	return svc, queue
}

func TestImportJobServiceLifecycle(t *testing.T) {
	importer := &importerStub{result: &models.ImportResult{PeriodID: 7, AssignmentsCreated: 3, Warnings: []string{}}}
	svc, queue := newImportJobFixture(importer)
	ctx := context.Background()

	job, err := svc.Enqueue(ctx, samplePayload(), "horario.pdf", "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.ImportJobQueued, job.Status)
	assert.Equal(t, 3, job.Sessions)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, ImportJobType, queue.jobs[0].Type)

	stored, err := svc.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportJobQueued, stored.Status)

	require.NoError(t, svc.Handle(ctx, queue.jobs[0]))

	done, err := svc.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportJobSucceeded, done.Status)
	require.NotNil(t, done.Result)
	assert.Equal(t, 3, done.Result.AssignmentsCreated)
	assert.NotNil(t, done.FinishedAt)
	assert.Equal(t, "user-1", done.CreatedBy)
}

func TestImportJobServiceClientErrorFinishesJob(t *testing.T) {
	importer := &importerStub{err: appErrors.Clone(appErrors.ErrPreconditionFailed, "no period available")}
	svc, queue := newImportJobFixture(importer)
	ctx := context.Background()

	job, err := svc.Enqueue(ctx, samplePayload(), "json", "")
	require.NoError(t, err)
	require.NoError(t, svc.Handle(ctx, queue.jobs[0]))

	done, err := svc.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportJobFailed, done.Status)
	assert.Equal(t, "no period available", done.Error)
}

func TestImportJobServiceServerErrorIsRetried(t *testing.T) {
	importer := &importerStub{err: errors.New("connection reset")}
	svc, queue := newImportJobFixture(importer)
	ctx := context.Background()

	job, err := svc.Enqueue(ctx, samplePayload(), "json", "")
	require.NoError(t, err)
	require.Error(t, svc.Handle(ctx, queue.jobs[0]))

	running, err := svc.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportJobRunning, running.Status)

	svc.Exhausted(queue.jobs[0], errors.New("connection reset"))
	failed, err := svc.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportJobFailed, failed.Status)
}

func TestImportJobServiceQueueFull(t *testing.T) {
	svc, queue := newImportJobFixture(&importerStub{})
	queue.err = errors.New("queue imports full")

	_, err := svc.Enqueue(context.Background(), samplePayload(), "json", "")
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, appErrors.FromError(err).Status)
}

func TestImportJobServiceRequiresPayload(t *testing.T) {
	svc, queue := newImportJobFixture(&importerStub{})

	_, err := svc.Enqueue(context.Background(), nil, "json", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, queue.jobs)

	job, err := svc.Enqueue(context.Background(), models.SchedulePayload{"A-101": {}}, "json", "")
	require.NoError(t, err)
	assert.Zero(t, job.Sessions)
}

func TestImportJobServiceUnknownJob(t *testing.T) {
	svc, _ := newImportJobFixture(&importerStub{})
	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestImportJobServiceWithoutStore(t *testing.T) {
	svc := NewImportJobService(nil, &importerStub{}, 0, nil)
	_, err := svc.Enqueue(context.Background(), samplePayload(), "json", "")
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, appErrors.FromError(err).Status)
}
