package impl

import (
	"context"

	"crm/internal/domain/entity"
	"crm/internal/domain/repository"
	"crm/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type dashboardService struct {
	clientRepo      repository.ClientRepository
	opportunityRepo repository.OpportunityRepository
	activityRepo    repository.ActivityRepository
}

// DashboardServiceParams holds dependencies for DashboardService, injected by Fx.
type DashboardServiceParams struct {
	fx.In

	ClientRepo      repository.ClientRepository
	OpportunityRepo repository.OpportunityRepository
	ActivityRepo    repository.ActivityRepository
}

// NewDashboardService creates a new dashboard service instance
func NewDashboardService(params DashboardServiceParams) usecase.DashboardUsecase {
	return &dashboardService{
		clientRepo:      params.ClientRepo,
		opportunityRepo: params.OpportunityRepo,
		activityRepo:    params.ActivityRepo,
	}
}

// GetStats returns the user's headline numbers for the dashboard page.
func (s *dashboardService) GetStats(ctx context.Context, userID uuid.UUID) (*usecase.DashboardStats, error) {
	totalClients, err := s.clientRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count clients")
	}

	totalOpportunities, err := s.opportunityRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count opportunities")
	}

	totalActivities, err := s.activityRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count activities")
	}

	closedWonValue, err := s.opportunityRepo.SumClosedWonValue(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sum closed-won value")
	}

	return &usecase.DashboardStats{
		TotalClients:       totalClients,
		TotalOpportunities: totalOpportunities,
		TotalActivities:    totalActivities,
		ClosedWonValue:     closedWonValue,
	}, nil
}

// RecentActivities returns the newest activities for the overview feed.
func (s *dashboardService) RecentActivities(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.Activity, error) {
	activities, err := s.activityRepo.FindRecent(ctx, userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list recent activities")
	}

	return activities, nil
}
