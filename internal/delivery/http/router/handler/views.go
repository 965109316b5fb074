// Package handler contains the HTTP handlers for the application.
package handler

import (
	"time"

	"crm/internal/domain/entity"
	"crm/internal/usecase"

	"github.com/google/uuid"
)

// View types decouple the JSON surface from the domain entities so entity
// changes never leak into the API contract unreviewed.

// --- Auth Views ---

type authUserView struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

type sessionView struct {
	User *authUserView `json:"user,omitempty"`
	// PendingConfirmation is true when the account exists but the provider
	// is still waiting for the email confirmation.
	PendingConfirmation bool `json:"pendingConfirmation,omitempty"`
}

func newAuthUserView(user *entity.AuthUser) *authUserView {
	if user == nil {
		return nil
	}

	return &authUserView{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.DisplayName(),
	}
}

// --- Client Views ---

type clientView struct {
	ID                 uuid.UUID          `json:"id"`
	Name               string             `json:"name"`
	Email              string             `json:"email,omitempty"`
	Phone              string             `json:"phone,omitempty"`
	Company            string             `json:"company,omitempty"`
	Address            string             `json:"address,omitempty"`
	City               string             `json:"city,omitempty"`
	Country            string             `json:"country,omitempty"`
	PostalCode         string             `json:"postalCode,omitempty"`
	OpportunitiesCount int64              `json:"opportunitiesCount"`
	Opportunities      []*opportunityView `json:"opportunities,omitempty"`
	Activities         []*activityView    `json:"activities,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

type clientListView struct {
	Clients []*clientView `json:"clients"`
	Total   int64         `json:"total"`
}

func newClientView(client *entity.Client) *clientView {
	if client == nil {
		return nil
	}

	view := &clientView{
		ID:                 client.ID,
		Name:               client.Name,
		Email:              client.Email,
		Phone:              client.Phone,
		Company:            client.Company,
		Address:            client.Address,
		City:               client.City,
		Country:            client.Country,
		PostalCode:         client.PostalCode,
		OpportunitiesCount: client.OpportunitiesCount,
		CreatedAt:          client.CreatedAt,
		UpdatedAt:          client.UpdatedAt,
	}
	for _, opportunity := range client.Opportunities {
		view.Opportunities = append(view.Opportunities, newOpportunityView(opportunity))
	}
	for _, activity := range client.Activities {
		view.Activities = append(view.Activities, newActivityView(activity))
	}

	return view
}

func newClientListView(list *usecase.ClientList) *clientListView {
	view := &clientListView{Clients: []*clientView{}, Total: list.Total}
	for _, client := range list.Clients {
		view.Clients = append(view.Clients, newClientView(client))
	}

	return view
}

// --- Opportunity Views ---

type opportunityView struct {
	ID                uuid.UUID   `json:"id"`
	Title             string      `json:"title"`
	Description       string      `json:"description,omitempty"`
	Value             string      `json:"value"`
	Currency          string      `json:"currency"`
	Status            string      `json:"status"`
	ExpectedCloseDate *time.Time  `json:"expectedCloseDate,omitempty"`
	ClientID          uuid.UUID   `json:"clientId"`
	Client            *clientView `json:"client,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

type opportunityListView struct {
	Opportunities []*opportunityView `json:"opportunities"`
	Total         int64              `json:"total"`
}

func newOpportunityView(opportunity *entity.Opportunity) *opportunityView {
	if opportunity == nil {
		return nil
	}

	return &opportunityView{
		ID:                opportunity.ID,
		Title:             opportunity.Title,
		Description:       opportunity.Description,
		Value:             opportunity.Value,
		Currency:          opportunity.Currency,
		Status:            string(opportunity.Status),
		ExpectedCloseDate: opportunity.ExpectedCloseDate,
		ClientID:          opportunity.ClientID,
		Client:            newClientView(opportunity.Client),
		CreatedAt:         opportunity.CreatedAt,
		UpdatedAt:         opportunity.UpdatedAt,
	}
}

func newOpportunityListView(list *usecase.OpportunityList) *opportunityListView {
	view := &opportunityListView{Opportunities: []*opportunityView{}, Total: list.Total}
	for _, opportunity := range list.Opportunities {
		view.Opportunities = append(view.Opportunities, newOpportunityView(opportunity))
	}

	return view
}

type pipelineStageView struct {
	Status        string             `json:"status"`
	Opportunities []*opportunityView `json:"opportunities"`
}

func newPipelineView(stages []*usecase.PipelineStage) []*pipelineStageView {
	views := make([]*pipelineStageView, 0, len(stages))
	for _, stage := range stages {
		views = append(views, &pipelineStageView{
			Status:        string(stage.Status),
			Opportunities: newOpportunityViews(stage.Opportunities),
		})
	}

	return views
}

func newOpportunityViews(opportunities []*entity.Opportunity) []*opportunityView {
	views := []*opportunityView{}
	for _, opportunity := range opportunities {
		views = append(views, newOpportunityView(opportunity))
	}

	return views
}

// --- Activity Views ---

type activityView struct {
	ID            uuid.UUID        `json:"id"`
	Title         string           `json:"title"`
	Description   string           `json:"description,omitempty"`
	Type          string           `json:"type"`
	IsCompleted   bool             `json:"isCompleted"`
	ScheduledAt   *time.Time       `json:"scheduledAt,omitempty"`
	CompletedAt   *time.Time       `json:"completedAt,omitempty"`
	ClientID      *uuid.UUID       `json:"clientId,omitempty"`
	OpportunityID *uuid.UUID       `json:"opportunityId,omitempty"`
	Client        *clientView      `json:"client,omitempty"`
	Opportunity   *opportunityView `json:"opportunity,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func newActivityView(activity *entity.Activity) *activityView {
	if activity == nil {
		return nil
	}

	return &activityView{
		ID:            activity.ID,
		Title:         activity.Title,
		Description:   activity.Description,
		Type:          string(activity.Type),
		IsCompleted:   activity.IsCompleted,
		ScheduledAt:   activity.ScheduledAt,
		CompletedAt:   activity.CompletedAt,
		ClientID:      activity.ClientID,
		OpportunityID: activity.OpportunityID,
		Client:        newClientView(activity.Client),
		Opportunity:   newOpportunityView(activity.Opportunity),
		CreatedAt:     activity.CreatedAt,
		UpdatedAt:     activity.UpdatedAt,
	}
}

func newActivityViews(activities []*entity.Activity) []*activityView {
	views := []*activityView{}
	for _, activity := range activities {
		views = append(views, newActivityView(activity))
	}

	return views
}

// --- Dashboard Views ---

type dashboardStatsView struct {
	TotalClients       int64  `json:"totalClients"`
	TotalOpportunities int64  `json:"totalOpportunities"`
	TotalActivities    int64  `json:"totalActivities"`
	ClosedWonValue     string `json:"closedWonValue"`
}

func newDashboardStatsView(stats *usecase.DashboardStats) *dashboardStatsView {
	return &dashboardStatsView{
		TotalClients:       stats.TotalClients,
		TotalOpportunities: stats.TotalOpportunities,
		TotalActivities:    stats.TotalActivities,
		ClosedWonValue:     stats.ClosedWonValue,
	}
}
