package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"waste-analytics-service/internal/model"
)

var (
	ErrUpstream       = errors.New("ai service unavailable")
	ErrInvalidRequest = errors.New("invalid ai request")
)

type AnalysisType string

const (
	AnalysisGeneral    AnalysisType = "general"
	AnalysisVehicle    AnalysisType = "vehicle"
	AnalysisComparison AnalysisType = "comparison"
	AnalysisEfficiency AnalysisType = "efficiency"
	AnalysisCost       AnalysisType = "cost"
)

// ReportRequest carries only derived analytics, never raw rows.
type ReportRequest struct {
	AnalysisType AnalysisType             `json:"analysis_type"`
	VehicleID    string                   `json:"vehicle_id,omitempty"`
	VehicleIDs   []string                 `json:"vehicle_ids,omitempty"`
	Prompt       string                   `json:"prompt,omitempty"`
	Language     string                   `json:"language,omitempty"`
	Year         string                   `json:"year,omitempty"`
	Vehicles     []model.VehicleTableData `json:"vehicles,omitempty"`
	Summary      *model.KPISummary        `json:"summary,omitempty"`
}

func (r *ReportRequest) Normalize() error {
	if r.AnalysisType == "" {
		r.AnalysisType = AnalysisGeneral
	}
	r.AnalysisType = AnalysisType(strings.ToLower(strings.TrimSpace(string(r.AnalysisType))))
	r.VehicleID = strings.TrimSpace(r.VehicleID)
	if r.Language == "" {
		r.Language = "ar"
	}

	switch r.AnalysisType {
	case AnalysisGeneral, AnalysisEfficiency, AnalysisCost:
	case AnalysisVehicle:
		if r.VehicleID == "" {
			return fmt.Errorf("%w: vehicle analysis needs vehicle_id", ErrInvalidRequest)
		}
	case AnalysisComparison:
		if len(r.VehicleIDs) < 2 {
			return fmt.Errorf("%w: comparison needs at least two vehicle_ids", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: unknown analysis type %q", ErrInvalidRequest, r.AnalysisType)
	}
	return nil
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages []ChatMessage     `json:"messages"`
	Language string            `json:"language,omitempty"`
	Year     string            `json:"year,omitempty"`
	Summary  *model.KPISummary `json:"summary,omitempty"`
}

func (r *ChatRequest) Normalize() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("%w: chat needs at least one message", ErrInvalidRequest)
	}
	if r.Language == "" {
		r.Language = "ar"
	}
	return nil
}

type RouteRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	VehicleID   string `json:"vehicle_id,omitempty"`
	Language    string `json:"language,omitempty"`
}

func (r *RouteRequest) Normalize() error {
	r.Origin = strings.TrimSpace(r.Origin)
	r.Destination = strings.TrimSpace(r.Destination)
	if r.Origin == "" || r.Destination == "" {
		return fmt.Errorf("%w: origin and destination are required", ErrInvalidRequest)
	}
	if r.Language == "" {
		r.Language = "ar"
	}
	return nil
}

type RouteOption struct {
	Name     string `json:"name"`
	Distance string `json:"distance"`
	Duration string `json:"duration"`
	MapURL   string `json:"map_url"`
}

type RouteOptions struct {
	Routes  []RouteOption `json:"routes"`
	Summary string        `json:"summary"`
}

// Chunk is one piece of streamed text; a non-nil Err ends the stream.
type Chunk struct {
	Text string
	Err  error
}

type Client interface {
	Stream(ctx context.Context, req ReportRequest) (<-chan Chunk, error)
	Chat(ctx context.Context, req ChatRequest) (<-chan Chunk, error)
	SuggestRoutes(ctx context.Context, req RouteRequest) (*RouteOptions, error)
}

// Collect drains a stream into a single string.
func Collect(ctx context.Context, ch <-chan Chunk) (string, error) {
	var sb strings.Builder
	for {
		select {
		case <-ctx.Done():
			return sb.String(), ctx.Err()
		case chunk, ok := <-ch:
			if !ok {
				return sb.String(), nil
			}
			if chunk.Err != nil {
				return sb.String(), chunk.Err
			}
			sb.WriteString(chunk.Text)
		}
	}
}
