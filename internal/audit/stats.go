package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/nikelchange/kurbot/internal/domain"
	"github.com/nikelchange/kurbot/internal/repository"
)

// Stats aggregates the dashboard counters over the storage collaborator.
type Stats struct {
	TotalUsers           int64 `json:"total_users"`
	TotalMessages        int64 `json:"total_messages"`
	ActiveUsersLast24h   int64 `json:"active_users_last_24h"`
	CompletedConversions int64 `json:"completed_conversions"`
}

// StatsService computes dashboard statistics from the repositories.
type StatsService struct {
	users      repository.UserRepository
	messages   repository.MessageRepository
	activities repository.ActivityRepository
}

// NewStatsService builds a StatsService.
func NewStatsService(
	users repository.UserRepository,
	messages repository.MessageRepository,
	activities repository.ActivityRepository,
) *StatsService {
	return &StatsService{
		users:      users,
		messages:   messages,
		activities: activities,
	}
}

// Collect gathers all counters. Any failing counter fails the collection;
// the dashboard prefers an error over silently wrong numbers.
func (s *StatsService) Collect(ctx context.Context) (*Stats, error) {
	totalUsers, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	totalMessages, err := s.messages.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	activeUsers, err := s.users.CountActiveSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("count active users: %w", err)
	}

	conversions, err := s.activities.CountByAction(ctx, domain.ActionConversionCompleted)
	if err != nil {
		return nil, fmt.Errorf("count conversions: %w", err)
	}

	return &Stats{
		TotalUsers:           totalUsers,
		TotalMessages:        totalMessages,
		ActiveUsersLast24h:   activeUsers,
		CompletedConversions: conversions,
	}, nil
}
