package usecase

import (
	"context"

	"crm/internal/domain/entity"

	"github.com/google/uuid"
)

// DashboardStats aggregates the headline numbers for the dashboard page.
type DashboardStats struct {
	TotalClients       int64
	TotalOpportunities int64
	TotalActivities    int64
	// ClosedWonValue is the summed value of closed-won deals as a decimal
	// string, "0" when there are none.
	ClosedWonValue string
}

// DashboardUsecase assembles the dashboard overview.
type DashboardUsecase interface {
	// GetStats returns the user's headline numbers.
	GetStats(ctx context.Context, userID uuid.UUID) (*DashboardStats, error)

	// RecentActivities returns the newest activities for the overview feed.
	RecentActivities(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.Activity, error)
}
