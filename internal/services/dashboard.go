package services

import (
	"context"

	"github.com/lisho/deontolog-ia-feedback/internal/feedback"
)

// DashboardService computes the dashboard views for a filter.
type DashboardService struct {
	feedback *FeedbackService
}

func NewDashboardService(fb *FeedbackService) *DashboardService {
	return &DashboardService{feedback: fb}
}

type DashboardResponse struct {
	feedback.Dashboard
	Filter feedback.FilterState `json:"filter"`
}

// Get aggregates the records matching f. Closed records are left out of
// every view.
func (s *DashboardService) Get(ctx context.Context, f feedback.FilterState) (*DashboardResponse, error) {
	subset, err := s.feedback.Filtered(ctx, f)
	if err != nil {
		return nil, err
	}
	return &DashboardResponse{Dashboard: feedback.BuildDashboard(subset), Filter: f}, nil
}
