package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"waste-analytics-service/internal/aggregate"
	"waste-analytics-service/internal/export"
	"waste-analytics-service/internal/metrics"
	"waste-analytics-service/internal/model"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrNoData           = errors.New("no data loaded")
	ErrInvalidFilter    = errors.New("invalid filter")
)

type SnapshotSource interface {
	Current() *model.Snapshot
}

// QueryParams is the raw filter state as it arrives from a request.
type QueryParams struct {
	Year        string
	CompareYear string
	Vehicles    []string
	Months      []string
}

type AnalyticsService struct {
	snapshots SnapshotSource
	opts      aggregate.Options
	metrics   *metrics.Collector
}

func NewAnalyticsService(snapshots SnapshotSource, opts aggregate.Options, m *metrics.Collector) *AnalyticsService {
	return &AnalyticsService{
		snapshots: snapshots,
		opts:      opts,
		metrics:   m,
	}
}

func (s *AnalyticsService) GetDashboard(ctx context.Context, principal model.Principal, params QueryParams) (*model.Dashboard, error) {
	snap, q, err := s.resolve(principal, params)
	if err != nil {
		return nil, err
	}
	defer s.observe("dashboard", time.Now())

	dashboard := aggregate.Build(snap, q, s.opts)
	return &dashboard, nil
}

func (s *AnalyticsService) GetVehicles(ctx context.Context, principal model.Principal, params QueryParams) ([]model.VehicleTableData, error) {
	snap, q, err := s.resolve(principal, params)
	if err != nil {
		return nil, err
	}
	defer s.observe("vehicles", time.Now())

	trips := aggregate.FilterTrips(snap.Trips, q.Year, q.Filter)
	return aggregate.Vehicles(trips, aggregate.NewIndex(snap, q.Year), q.Filter), nil
}

func (s *AnalyticsService) GetVehicle(ctx context.Context, principal model.Principal, params QueryParams, vehicleID string) (*model.VehicleTableData, error) {
	vehicles, err := s.GetVehicles(ctx, principal, params)
	if err != nil {
		return nil, err
	}
	vehicleID = strings.TrimSpace(vehicleID)
	for i := range vehicles {
		if vehicles[i].VehicleID == vehicleID {
			return &vehicles[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *AnalyticsService) GetDrivers(ctx context.Context, principal model.Principal, params QueryParams) ([]model.DriverStatsData, error) {
	snap, q, err := s.resolve(principal, params)
	if err != nil {
		return nil, err
	}
	defer s.observe("drivers", time.Now())

	return aggregate.Drivers(aggregate.FilterTrips(snap.Trips, q.Year, q.Filter)), nil
}

type AreaAnalytics struct {
	Areas  []model.AreaPopulationStats `json:"areas"`
	Totals model.PopulationTotals      `json:"totals"`
}

func (s *AnalyticsService) GetAreas(ctx context.Context, principal model.Principal, params QueryParams) (*AreaAnalytics, error) {
	snap, q, err := s.resolve(principal, params)
	if err != nil {
		return nil, err
	}
	defer s.observe("areas", time.Now())

	trips := aggregate.FilterTrips(snap.Trips, q.Year, q.Filter)
	idx := aggregate.NewIndex(snap, q.Year)
	vehicles := aggregate.Vehicles(trips, idx, q.Filter)
	return &AreaAnalytics{
		Areas:  aggregate.Areas(trips, idx, snap.Population),
		Totals: aggregate.PopulationTotals(snap.Population, q.Year, vehicles, q.Filter),
	}, nil
}

func (s *AnalyticsService) GetFinancial(ctx context.Context, principal model.Principal, params QueryParams) (*model.FinancialSummary, error) {
	snap, q, err := s.resolve(principal, params)
	if err != nil {
		return nil, err
	}
	defer s.observe("financial", time.Now())

	view := aggregate.View(snap, q.Year, q.Filter, s.opts)
	return &view.Summary.Financial, nil
}

// Export renders the dashboard for params as a workbook and suggests a file name.
func (s *AnalyticsService) Export(ctx context.Context, principal model.Principal, params QueryParams) (*excelize.File, string, error) {
	dashboard, err := s.GetDashboard(ctx, principal, params)
	if err != nil {
		return nil, "", err
	}
	defer s.observe("export", time.Now())

	f, err := export.Workbook(*dashboard)
	if err != nil {
		return nil, "", fmt.Errorf("build workbook: %w", err)
	}
	return f, fmt.Sprintf("waste-analytics-%s.xlsx", dashboard.Year), nil
}

func (s *AnalyticsService) GetDatasets(ctx context.Context, principal model.Principal) (*model.SnapshotInfo, error) {
	if !principal.CanRead() {
		return nil, ErrPermissionDenied
	}
	snap := s.snapshots.Current()
	if snap == nil {
		return nil, ErrNoData
	}
	info := snap.Info()
	return &info, nil
}

func (s *AnalyticsService) resolve(principal model.Principal, params QueryParams) (*model.Snapshot, model.Query, error) {
	if !principal.CanRead() {
		return nil, model.Query{}, ErrPermissionDenied
	}
	snap := s.snapshots.Current()
	if snap == nil {
		return nil, model.Query{}, ErrNoData
	}
	q, err := BuildQuery(snap, params)
	if err != nil {
		return nil, model.Query{}, err
	}
	return snap, q, nil
}

// BuildQuery validates params against the snapshot. An empty year selects the
// newest year present in the trips.
func BuildQuery(snap *model.Snapshot, params QueryParams) (model.Query, error) {
	year := strings.TrimSpace(params.Year)
	if year == "" {
		years := snap.Years()
		if len(years) == 0 {
			return model.Query{}, ErrNoData
		}
		year = years[0]
	}
	if !validYear(year) {
		return model.Query{}, fmt.Errorf("%w: year %q", ErrInvalidFilter, year)
	}

	compare := strings.TrimSpace(params.CompareYear)
	if compare != "" && !validYear(compare) {
		return model.Query{}, fmt.Errorf("%w: compare_year %q", ErrInvalidFilter, compare)
	}

	for _, m := range params.Months {
		if strings.TrimSpace(m) == "" {
			continue
		}
		if model.MonthIndex(model.NormalizeMonth(m)) < 0 {
			return model.Query{}, fmt.Errorf("%w: month %q", ErrInvalidFilter, m)
		}
	}

	return model.Query{
		Year:        year,
		CompareYear: compare,
		Filter:      model.NewFilter(params.Vehicles, params.Months),
	}, nil
}

func validYear(year string) bool {
	n, err := strconv.Atoi(year)
	return err == nil && n > 1900 && n < 3000
}

func (s *AnalyticsService) observe(view string, started time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveSince(view, started)
	}
}
