package quality

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pitchside/analytics/internal/cache"
	"github.com/pitchside/analytics/internal/database"
	apperrors "github.com/pitchside/analytics/internal/errors"
)

// Service produces quality reports over the store, cached like any other
// metric so repeated dashboard polls do not rescan the tables.
type Service struct {
	exec   *database.Executor
	cache  *cache.Cache
	policy WeightPolicy
	logger *slog.Logger
}

// NewService builds the quality service with the given policy; pass
// DefaultPolicy() unless the deployment overrides the weighting.
func NewService(exec *database.Executor, c *cache.Cache, policy WeightPolicy, logger *slog.Logger) (*Service, error) {
	if err := policy.Validate(); err != nil {
		return nil, apperrors.NewInvalidParameterMsg(err.Error())
	}
	return &Service{exec: exec, cache: c, policy: policy, logger: logger}, nil
}

// Report computes (or serves from cache) the current quality report
func (s *Service) Report(ctx context.Context) (Report, error) {
	var report Report
	key := cache.Key("quality", nil)

	if data, ok := s.cache.Get(key); ok {
		err := json.Unmarshal(data, &report)
		return report, err
	}

	start := time.Now()
	agg, err := s.exec.QualityAggregates(ctx)
	if err != nil {
		return report, apperrors.ToAppError(err)
	}

	report = Score(agg, s.policy)
	report.ReportID = uuid.New().String()
	report.GeneratedAt = time.Now().UTC()

	data, err := json.Marshal(report)
	if err != nil {
		return report, apperrors.NewInternalError("failed to encode quality report", err)
	}
	s.cache.Set(key, data)

	s.logger.Info("quality report generated",
		"report_id", report.ReportID,
		"score", report.Score,
		"matches", report.TotalMatches,
		"duration", time.Since(start))
	return report, nil
}
