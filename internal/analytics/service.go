package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/pitchside/analytics/internal/cache"
	"github.com/pitchside/analytics/internal/config"
	"github.com/pitchside/analytics/internal/database"
	apperrors "github.com/pitchside/analytics/internal/errors"
	"github.com/pitchside/analytics/internal/monitoring"
)

// Service answers metric requests. Results are served from the TTL cache
// when possible; misses validate their parameters, run the executor, fold
// the rows through a calculator, and cache the outcome. Failures are never
// cached, so a store hiccup cannot pin a bad answer for a full TTL.
type Service struct {
	exec    *database.Executor
	cache   *cache.Cache
	cfg     *config.Config
	logger  *slog.Logger
	metrics *monitoring.Metrics
}

// NewService wires the service; metrics may be nil in tests
func NewService(exec *database.Executor, c *cache.Cache, cfg *config.Config, logger *slog.Logger, metrics *monitoring.Metrics) *Service {
	return &Service{exec: exec, cache: c, cfg: cfg, logger: logger, metrics: metrics}
}

func filterParams(f database.Filter) map[string]string {
	params := map[string]string{
		"team":  f.Team,
		"venue": f.Venue,
		"from":  f.From,
		"to":    f.To,
	}
	if f.Season != 0 {
		params["season"] = strconv.Itoa(f.Season)
	}
	return params
}

// cached runs compute on a miss and stores the result; dest receives the
// value either way.
func (s *Service) cached(ctx context.Context, metric string, params map[string]string, dest interface{}, compute func(context.Context) (interface{}, error)) error {
	key := cache.Key(metric, params)

	if data, ok := s.cache.Get(key); ok {
		s.cacheHit()
		return json.Unmarshal(data, dest)
	}
	s.cacheMiss()

	start := time.Now()
	value, err := compute(ctx)
	if err != nil {
		appErr := apperrors.ToAppError(err)
		s.queryError(metric, string(appErr.Category))
		return appErr
	}
	s.observeQuery(metric, time.Since(start))

	data, err := json.Marshal(value)
	if err != nil {
		return apperrors.NewInternalError("failed to encode metric result", err)
	}
	s.cache.Set(key, data)
	s.setCacheEntries()

	s.logger.Debug("metric computed", "metric", metric, "duration", time.Since(start))
	return json.Unmarshal(data, dest)
}

func (s *Service) requireTeam(f database.Filter) error {
	if f.Team == "" {
		return apperrors.NewInvalidParameterMsg("parameter \"team\" is required")
	}
	return nil
}

// NetRunRate computes a team's net run rate under the filter
func (s *Service) NetRunRate(ctx context.Context, f database.Filter) (NRRResult, error) {
	var result NRRResult
	if err := s.requireTeam(f); err != nil {
		return result, err
	}
	if err := s.exec.ValidateFilter(ctx, f); err != nil {
		return result, err
	}

	err := s.cached(ctx, "nrr", filterParams(f), &result, func(ctx context.Context) (interface{}, error) {
		innings, err := s.exec.InningsTotals(ctx, f)
		if err != nil {
			return nil, err
		}
		r := ComputeNRR(f.Team, innings, s.cfg.AllottedOvers)
		r.Filter = f
		return r, nil
	})
	return result, err
}

// Powerplay computes a team's batting line over the opening overs window
func (s *Service) Powerplay(ctx context.Context, f database.Filter) (PhaseResult, error) {
	return s.phase(ctx, f, PhasePowerplay, s.cfg.PowerplayStart, s.cfg.PowerplayEnd)
}

// DeathOvers computes a team's batting line over the closing overs window
func (s *Service) DeathOvers(ctx context.Context, f database.Filter) (PhaseResult, error) {
	return s.phase(ctx, f, PhaseDeathOvers, s.cfg.DeathStart, s.cfg.DeathEnd)
}

func (s *Service) phase(ctx context.Context, f database.Filter, phase string, startOver, endOver int) (PhaseResult, error) {
	var result PhaseResult
	if err := s.requireTeam(f); err != nil {
		return result, err
	}
	if err := s.exec.ValidateFilter(ctx, f); err != nil {
		return result, err
	}

	err := s.cached(ctx, phase, filterParams(f), &result, func(ctx context.Context) (interface{}, error) {
		rows, err := s.exec.PhaseTotals(ctx, f, startOver, endOver)
		if err != nil {
			return nil, err
		}
		r := ComputePhase(f.Team, phase, startOver, endOver, rows)
		r.Filter = f
		return r, nil
	})
	return result, err
}

// ChaseDefend splits a team's win record by batting order
func (s *Service) ChaseDefend(ctx context.Context, f database.Filter) (ChaseDefendResult, error) {
	var result ChaseDefendResult
	if err := s.requireTeam(f); err != nil {
		return result, err
	}
	if err := s.exec.ValidateFilter(ctx, f); err != nil {
		return result, err
	}

	err := s.cached(ctx, "chase_defend", filterParams(f), &result, func(ctx context.Context) (interface{}, error) {
		roles, err := s.exec.MatchRoles(ctx, f)
		if err != nil {
			return nil, err
		}
		r := ComputeChaseDefend(f.Team, roles)
		r.Filter = f
		return r, nil
	})
	return result, err
}

// Standings builds the league table for a season
func (s *Service) Standings(ctx context.Context, season, topN int) ([]StandingsRow, error) {
	if season == 0 {
		return nil, apperrors.NewInvalidParameterMsg("parameter \"season\" is required")
	}
	if topN <= 0 {
		topN = s.cfg.DefaultTopN
	}
	f := database.Filter{Season: season}
	if err := s.exec.ValidateFilter(ctx, f); err != nil {
		return nil, err
	}

	params := filterParams(f)
	params["top_n"] = strconv.Itoa(topN)

	var rows []StandingsRow
	err := s.cached(ctx, "standings", params, &rows, func(ctx context.Context) (interface{}, error) {
		roles, err := s.exec.MatchRoles(ctx, f)
		if err != nil {
			return nil, err
		}
		innings, err := s.exec.InningsTotals(ctx, f)
		if err != nil {
			return nil, err
		}
		return ComputeStandings(roles, innings, s.cfg.AllottedOvers, topN), nil
	})
	return rows, err
}

// HeadToHead reports the record between two teams under the filter
func (s *Service) HeadToHead(ctx context.Context, team1, team2 string, f database.Filter) (HeadToHeadResult, error) {
	var result HeadToHeadResult
	if team1 == "" || team2 == "" {
		return result, apperrors.NewInvalidParameterMsg("parameters \"team1\" and \"team2\" are required")
	}
	if team1 == team2 {
		return result, apperrors.NewInvalidParameterMsg("team1 and team2 must differ")
	}
	for _, team := range []string{team1, team2} {
		probe := f
		probe.Team = team
		if err := s.exec.ValidateFilter(ctx, probe); err != nil {
			return result, err
		}
	}

	params := filterParams(f)
	params["team1"] = team1
	params["team2"] = team2

	err := s.cached(ctx, "head_to_head", params, &result, func(ctx context.Context) (interface{}, error) {
		h, err := s.exec.HeadToHeadTotals(ctx, team1, team2, f)
		if err != nil {
			return nil, err
		}
		return ComputeHeadToHead(team1, team2, h), nil
	})
	return result, err
}

// TossImpact groups filtered matches by toss decision
func (s *Service) TossImpact(ctx context.Context, f database.Filter) ([]TossImpactRow, error) {
	if err := s.exec.ValidateFilter(ctx, f); err != nil {
		return nil, err
	}

	var rows []TossImpactRow
	err := s.cached(ctx, "toss_impact", filterParams(f), &rows, func(ctx context.Context) (interface{}, error) {
		outcomes, err := s.exec.TossOutcomes(ctx, f)
		if err != nil {
			return nil, err
		}
		return ComputeTossImpact(outcomes), nil
	})
	return rows, err
}

// SeasonSummary describes each season covered by the filter
func (s *Service) SeasonSummary(ctx context.Context, f database.Filter) ([]SeasonSummaryRow, error) {
	if err := s.exec.ValidateFilter(ctx, f); err != nil {
		return nil, err
	}

	var rows []SeasonSummaryRow
	err := s.cached(ctx, "season_summary", filterParams(f), &rows, func(ctx context.Context) (interface{}, error) {
		summaries, err := s.exec.SeasonSummaries(ctx, f)
		if err != nil {
			return nil, err
		}
		out := make([]SeasonSummaryRow, 0, len(summaries))
		for _, sum := range summaries {
			out = append(out, SeasonSummaryRow{
				Season:     sum.Season,
				Matches:    sum.Matches,
				Teams:      sum.Teams,
				Venues:     sum.Venues,
				FirstMatch: sum.MinDate.String,
				LastMatch:  sum.MaxDate.String,
			})
		}
		return out, nil
	})
	return rows, err
}

// CacheStats reports cache occupancy and hit ratios
func (s *Service) CacheStats() cache.Stats { return s.cache.Stats() }

// ClearCache drops every cached metric result
func (s *Service) ClearCache() {
	s.cache.Clear()
	s.setCacheEntries()
	s.logger.Info("cache cleared")
}

func (s *Service) cacheHit() {
	if s.metrics != nil {
		s.metrics.CacheHit()
	}
}

func (s *Service) cacheMiss() {
	if s.metrics != nil {
		s.metrics.CacheMiss()
	}
}

func (s *Service) observeQuery(metric string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveQuery(metric, d)
	}
}

func (s *Service) queryError(metric, category string) {
	if s.metrics != nil {
		s.metrics.QueryError(metric, category)
	}
}

func (s *Service) setCacheEntries() {
	if s.metrics != nil {
		s.metrics.SetCacheEntries(s.cache.Stats().Entries)
	}
}
