package impl

import (
	"context"
	"testing"

	"crm/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_GetStats(t *testing.T) {
	clientRepo := new(mockClientRepository)
	opportunityRepo := new(mockOpportunityRepository)
	activityRepo := new(mockActivityRepository)
	dashboardUsecase := NewDashboardService(DashboardServiceParams{
		ClientRepo:      clientRepo,
		OpportunityRepo: opportunityRepo,
		ActivityRepo:    activityRepo,
	})

	ctx := context.Background()
	userID := uuid.New()

	clientRepo.On("CountByUser", ctx, userID).Return(int64(8), nil)
	opportunityRepo.On("CountByUser", ctx, userID).Return(int64(5), nil)
	activityRepo.On("CountByUser", ctx, userID).Return(int64(31), nil)
	opportunityRepo.On("SumClosedWonValue", ctx, userID).Return("15300.50", nil)

	stats, err := dashboardUsecase.GetStats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), stats.TotalClients)
	assert.Equal(t, int64(5), stats.TotalOpportunities)
	assert.Equal(t, int64(31), stats.TotalActivities)
	assert.Equal(t, "15300.50", stats.ClosedWonValue)
}

func TestDashboardService_GetStats_PropagatesRepoErrors(t *testing.T) {
	clientRepo := new(mockClientRepository)
	dashboardUsecase := NewDashboardService(DashboardServiceParams{
		ClientRepo:      clientRepo,
		OpportunityRepo: new(mockOpportunityRepository),
		ActivityRepo:    new(mockActivityRepository),
	})

	ctx := context.Background()
	userID := uuid.New()

	clientRepo.On("CountByUser", ctx, userID).Return(int64(0), errors.New("db down"))

	_, err := dashboardUsecase.GetStats(ctx, userID)
	assert.Error(t, err)
}

func TestDashboardService_RecentActivities(t *testing.T) {
	activityRepo := new(mockActivityRepository)
	dashboardUsecase := NewDashboardService(DashboardServiceParams{
		ClientRepo:      new(mockClientRepository),
		OpportunityRepo: new(mockOpportunityRepository),
		ActivityRepo:    activityRepo,
	})

	ctx := context.Background()
	userID := uuid.New()
	feed := []*entity.Activity{
		{ID: uuid.New(), Title: "Llamada", Type: entity.ActivityCall, UserID: userID},
	}

	activityRepo.On("FindRecent", ctx, userID, 10).Return(feed, nil)

	activities, err := dashboardUsecase.RecentActivities(ctx, userID, 10)
	require.NoError(t, err)
	assert.Len(t, activities, 1)
}
