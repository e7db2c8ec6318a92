package ai

import (
	"encoding/json"
	"strings"

	"waste-analytics-service/internal/model"
)

var instructions = map[AnalysisType]string{
	AnalysisGeneral:    "Summarize the fleet's collection performance, highlight the strongest and weakest vehicles and suggest operational improvements.",
	AnalysisVehicle:    "Assess the selected vehicle: productivity, cost per ton, efficiency rate against its age, and whether it should be kept, repaired or replaced.",
	AnalysisComparison: "Compare the selected vehicles side by side on trips, tons, cost per ton and efficiency, and state which performs best and why.",
	AnalysisEfficiency: "Analyse fleet efficiency: capacity utilization, tons per trip and the effect of vehicle age on theoretical capacity.",
	AnalysisCost:       "Analyse operating costs: fuel and maintenance per ton and per trip, the most expensive vehicles and concrete savings opportunities.",
}

type ReportPayload struct {
	Instructions string                   `json:"instructions"`
	Prompt       string                   `json:"prompt,omitempty"`
	Language     string                   `json:"language"`
	Year         string                   `json:"year,omitempty"`
	Vehicles     []model.VehicleTableData `json:"vehicles"`
	Summary      *model.KPISummary        `json:"summary,omitempty"`
}

// BuildReportPayload narrows the vehicle table to the vehicles the analysis
// is about and attaches the instructions for its type.
func BuildReportPayload(req ReportRequest) ReportPayload {
	vehicles := req.Vehicles
	switch req.AnalysisType {
	case AnalysisVehicle:
		vehicles = selectVehicles(req.Vehicles, []string{req.VehicleID})
	case AnalysisComparison:
		vehicles = selectVehicles(req.Vehicles, req.VehicleIDs)
	}
	if vehicles == nil {
		vehicles = []model.VehicleTableData{}
	}

	text := instructions[req.AnalysisType]
	if strings.HasPrefix(strings.ToLower(req.Language), "ar") {
		text += " Answer in Arabic."
	} else {
		text += " Answer in English."
	}

	return ReportPayload{
		Instructions: text,
		Prompt:       strings.TrimSpace(req.Prompt),
		Language:     req.Language,
		Year:         req.Year,
		Vehicles:     vehicles,
		Summary:      req.Summary,
	}
}

func selectVehicles(all []model.VehicleTableData, ids []string) []model.VehicleTableData {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[strings.TrimSpace(id)] = struct{}{}
	}
	result := make([]model.VehicleTableData, 0, len(ids))
	for _, v := range all {
		if _, ok := wanted[v.VehicleID]; ok {
			result = append(result, v)
		}
	}
	return result
}

func encode(v any) ([]byte, error) {
	return json.Marshal(v)
}
