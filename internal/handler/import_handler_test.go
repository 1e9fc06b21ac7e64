package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-schedule-api/internal/middleware"
	"github.com/noah-isme/campus-schedule-api/internal/models"
	appErrors "github.com/noah-isme/campus-schedule-api/pkg/errors"
)

type importServiceMock struct {
	result      *models.ImportResult
	err         error
	lastPayload models.SchedulePayload
	lastName    string
	lastBody    string
}

func (m *importServiceMock) Import(ctx context.Context, payload models.SchedulePayload) (*models.ImportResult, error) {
	m.lastPayload = payload
	return m.result, m.err
}

func (m *importServiceMock) ImportDocument(ctx context.Context, filename string, r io.Reader) (*models.ImportResult, error) {
	m.lastName = filename
	data, _ := io.ReadAll(r)
	m.lastBody = string(data)
	return m.result, m.err
}

type importJobServiceMock struct {
	job         *models.ImportJob
	err         error
	lastCreator string
}

func (m *importJobServiceMock) Enqueue(ctx context.Context, payload models.SchedulePayload, source, createdBy string) (*models.ImportJob, error) {
	m.lastCreator = createdBy
	return m.job, m.err
}

func (m *importJobServiceMock) Get(ctx context.Context, id string) (*models.ImportJob, error) {
	if m.job == nil || m.job.ID != id {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "import job not found")
	}
	return m.job, nil
}

const importBody = `{"A-101":{"Lunes":[{"codigo":"1155605A","codigo_p":"P01","nombre":"Calculo","hora":"08:00 - 10:00"}]}}`

func TestImportHandlerImportJSON(t *testing.T) {
	svc := &importServiceMock{result: &models.ImportResult{SubjectsCreated: 1, Warnings: []string{}}}
	handler := NewImportHandler(svc, &importJobServiceMock{})

	c, w := newTestContext(http.MethodPost, "/schedules/import/json", []byte(importBody))
	handler.ImportJSON(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, svc.lastPayload, "A-101")
	assert.Equal(t, "1155605A", svc.lastPayload["A-101"]["Lunes"][0].CourseCode)
}

func TestImportHandlerImportJSONMapsFatalErrors(t *testing.T) {
	svc := &importServiceMock{err: appErrors.Clone(appErrors.ErrPreconditionFailed, "no period available")}
	handler := NewImportHandler(svc, &importJobServiceMock{})

	c, w := newTestContext(http.MethodPost, "/schedules/import/json", []byte(importBody))
	handler.ImportJSON(c)

	require.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestImportHandlerUpload(t *testing.T) {
	svc := &importServiceMock{result: &models.ImportResult{Warnings: []string{}}}
	handler := NewImportHandler(svc, &importJobServiceMock{})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "horario.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, writer.Close())

	c, w := newTestContext(http.MethodPost, "/schedules/import", buf.Bytes())
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	handler.Upload(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "horario.pdf", svc.lastName)
	assert.Equal(t, "%PDF-1.4", svc.lastBody)
}

func TestImportHandlerUploadRequiresFile(t *testing.T) {
	handler := NewImportHandler(&importServiceMock{}, &importJobServiceMock{})

	c, w := newTestContext(http.MethodPost, "/schedules/import", []byte(`{}`))
	handler.Upload(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportHandlerJobs(t *testing.T) {
	jobs := &importJobServiceMock{job: &models.ImportJob{ID: "job-1", Status: models.ImportJobQueued}}
	handler := NewImportHandler(&importServiceMock{}, jobs)

	c, w := newTestContext(http.MethodPost, "/schedules/import/jobs", []byte(importBody))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "coord-1", Role: models.RoleCoordinator})
	handler.EnqueueJob(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "coord-1", jobs.lastCreator)

	c, w = newTestContext(http.MethodGet, "/schedules/import/jobs/job-1", nil)
	c.Params = append(c.Params, paramID("job-1"))
	handler.GetJob(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = newTestContext(http.MethodGet, "/schedules/import/jobs/other", nil)
	c.Params = append(c.Params, paramID("other"))
	handler.GetJob(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
