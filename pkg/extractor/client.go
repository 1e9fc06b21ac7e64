package extractor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-schedule-api/internal/models"
	"github.com/noah-isme/campus-schedule-api/pkg/config"
)

// ErrEmptyPayload is returned when the service answers without any room.
var ErrEmptyPayload = errors.New("extractor returned no schedule data")

// Client posts timetable documents to the extraction service and decodes the
// room/weekday/session payload it answers with.
type Client struct {
	http   *resty.Client
	path   string
	logger *zap.Logger
}

// New builds a client for the configured extraction service.
func New(cfg config.ExtractorConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	path := cfg.Path
	if path == "" {
		path = "/procesar-pdf"
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})

	return &Client{http: client, path: path, logger: logger}
}

// Extract uploads the file at filePath as the multipart field "file".
func (c *Client) Extract(ctx context.Context, filePath string) (models.SchedulePayload, error) {
	logger := c.logger.With(zap.String("file", filepath.Base(filePath)))
	logger.Info("calling extraction service", zap.String("path", c.path))

	var payload models.SchedulePayload
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetFile("file", filePath).
		SetResult(&payload).
		Post(c.path)
	if err != nil {
		logger.Error("extraction call failed", zap.Error(err))
		return nil, fmt.Errorf("call extraction service: %w", err)
	}
	if resp.IsError() {
		logger.Error("extraction service returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("body", truncate(resp.String(), 512)),
		)
		return nil, fmt.Errorf("extraction service status %d", resp.StatusCode())
	}
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}

	logger.Info("extraction completed",
		zap.Int("rooms", len(payload)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return payload, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
