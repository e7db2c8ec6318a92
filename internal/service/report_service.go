package service

import (
	"context"

	"waste-analytics-service/internal/ai"
	"waste-analytics-service/internal/model"
)

// ReportService hands derived analytics to the AI collaborator.
type ReportService struct {
	analytics *AnalyticsService
	client    ai.Client
}

func NewReportService(analytics *AnalyticsService, client ai.Client) *ReportService {
	return &ReportService{analytics: analytics, client: client}
}

func (s *ReportService) StreamReport(ctx context.Context, principal model.Principal, params QueryParams, req ai.ReportRequest) (<-chan ai.Chunk, error) {
	if !principal.CanUseAI() {
		return nil, ErrPermissionDenied
	}
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	if params.Year == "" {
		params.Year = req.Year
	}
	dashboard, err := s.analytics.GetDashboard(ctx, principal, params)
	if err != nil {
		return nil, err
	}
	req.Year = dashboard.Year
	req.Vehicles = dashboard.Current.Vehicles
	summary := dashboard.Current.Summary
	req.Summary = &summary

	if req.AnalysisType == ai.AnalysisVehicle && !hasVehicle(req.Vehicles, req.VehicleID) {
		return nil, ErrNotFound
	}
	return s.client.Stream(ctx, req)
}

// Report is StreamReport collected into a single text.
func (s *ReportService) Report(ctx context.Context, principal model.Principal, params QueryParams, req ai.ReportRequest) (string, error) {
	ch, err := s.StreamReport(ctx, principal, params, req)
	if err != nil {
		return "", err
	}
	return ai.Collect(ctx, ch)
}

func (s *ReportService) Chat(ctx context.Context, principal model.Principal, params QueryParams, req ai.ChatRequest) (<-chan ai.Chunk, error) {
	if !principal.CanUseAI() {
		return nil, ErrPermissionDenied
	}
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	if params.Year == "" {
		params.Year = req.Year
	}
	dashboard, err := s.analytics.GetDashboard(ctx, principal, params)
	if err != nil {
		return nil, err
	}
	req.Year = dashboard.Year
	summary := dashboard.Current.Summary
	req.Summary = &summary
	return s.client.Chat(ctx, req)
}

func (s *ReportService) SuggestRoutes(ctx context.Context, principal model.Principal, req ai.RouteRequest) (*ai.RouteOptions, error) {
	if !principal.CanUseAI() {
		return nil, ErrPermissionDenied
	}
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	return s.client.SuggestRoutes(ctx, req)
}

func hasVehicle(vehicles []model.VehicleTableData, id string) bool {
	for _, v := range vehicles {
		if v.VehicleID == id {
			return true
		}
	}
	return false
}
