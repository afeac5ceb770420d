package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-intake-api/pkg/config"
	appErrors "github.com/noah-isme/timetable-intake-api/pkg/errors"
)

const solverCacheKey = "solver:timetable"

type solverPayloadCache interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// TimetableService forwards one GET to the external solver and relays the
// response body verbatim. Upstream failure detail never reaches the client;
// it is logged here and converted to a generic upstream error.
type TimetableService struct {
	cfg    config.SolverConfig
	client *http.Client
	cache  solverPayloadCache
	logger *zap.Logger
}

// NewTimetableService constructs a TimetableService with a bounded client
// timeout so a hung solver cannot pin the request.
func NewTimetableService(cfg config.SolverConfig, cache solverPayloadCache, logger *zap.Logger) *TimetableService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		cache:  cache,
		logger: logger,
	}
}

// Fetch calls the solver's root endpoint and returns the raw response body.
func (s *TimetableService) Fetch(ctx context.Context) ([]byte, error) {
	if s.cfg.Cache && s.cache != nil {
		if payload, err := s.cache.GetBytes(ctx, solverCacheKey); err == nil {
			return payload, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"/", nil)
	if err != nil {
		s.logger.Error("failed to build solver request", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("solver request failed", zap.String("url", s.cfg.BaseURL), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.Error("failed to read solver response", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		s.logger.Error("solver returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.String("url", s.cfg.BaseURL),
		)
		return nil, appErrors.Wrap(fmt.Errorf("solver status %d", resp.StatusCode),
			appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}

	if s.cfg.Cache && s.cache != nil {
		if err := s.cache.SetBytes(ctx, solverCacheKey, body, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("failed to cache solver payload", zap.Error(err))
		}
	}

	return body, nil
}
