package services

import (
	"context"
	"time"

	"eventhub/apperror"
	"eventhub/models"
)

type StatsService struct {
	stats models.StatsRepository
	now   func() time.Time
}

// NewStatsService uses time.Now when now is nil.
func NewStatsService(stats models.StatsRepository, now func() time.Time) *StatsService {
	if now == nil {
		now = time.Now
	}
	return &StatsService{stats: stats, now: now}
}

func (s *StatsService) UserStats(ctx context.Context, userID int64) (*models.UserStats, error) {
	st, err := s.stats.UserStats(ctx, userID, s.now())
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return st, nil
}
