package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-dashboard/internal/cache"
	"github.com/spec-kit/triage-dashboard/internal/domain"
)

// Team list sources reported alongside the teams.
const (
	TeamSourceCache    = "cache"
	TeamSourceGateway  = "gateway"
	TeamSourceFallback = "fallback"
)

// TeamLister reads the selectable teams from the backend.
type TeamLister interface {
	ListTeams(ctx context.Context) ([]domain.Team, error)
}

// TeamCache is the read-through cache in front of the backend.
type TeamCache interface {
	Get(ctx context.Context) ([]domain.Team, error)
	Set(ctx context.Context, teams []domain.Team) error
}

// TeamList is the selectable team list and where it came from.
type TeamList struct {
	Teams  []domain.Team
	Source string
}

// TeamService resolves the teams offered in the reassign modal.
type TeamService struct {
	gateway  TeamLister
	cache    TeamCache
	fallback []domain.Team
	logger   *zap.Logger
}

// NewTeamService builds the service. fallback is served when both the cache
// and the backend are unavailable.
func NewTeamService(gateway TeamLister, teamCache TeamCache, fallback []string, logger *zap.Logger) *TeamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	teams := make([]domain.Team, 0, len(fallback))
	for i, name := range fallback {
		teams = append(teams, domain.Team{ID: int64(i + 1), Name: name})
	}
	return &TeamService{
		gateway:  gateway,
		cache:    teamCache,
		fallback: teams,
		logger:   logger.Named("teams"),
	}
}

// Teams returns the cached list, else the backend list, else the fallback.
func (s *TeamService) Teams(ctx context.Context) TeamList {
	if s.cache != nil {
		teams, err := s.cache.Get(ctx)
		if err == nil {
			return TeamList{Teams: teams, Source: TeamSourceCache}
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("team cache read failed", zap.Error(err))
		}
	}

	teams, err := s.gateway.ListTeams(ctx)
	if err != nil {
		s.logger.Warn("team list unavailable; serving fallback", zap.Error(err))
		return TeamList{Teams: append([]domain.Team(nil), s.fallback...), Source: TeamSourceFallback}
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, teams); err != nil {
			s.logger.Warn("team cache write failed", zap.Error(err))
		}
	}
	return TeamList{Teams: teams, Source: TeamSourceGateway}
}
