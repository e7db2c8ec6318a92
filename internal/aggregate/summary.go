package aggregate

import (
	"waste-analytics-service/internal/model"
)

const DefaultOperatingDaysPerMonth = 26

type Options struct {
	AffordabilityBenchmark float64
	OperatingDaysPerMonth  int
}

func DefaultOptions() Options {
	return Options{
		AffordabilityBenchmark: DefaultAffordabilityBenchmark,
		OperatingDaysPerMonth:  DefaultOperatingDaysPerMonth,
	}
}

func (o Options) normalized() Options {
	if o.AffordabilityBenchmark <= 0 {
		o.AffordabilityBenchmark = DefaultAffordabilityBenchmark
	}
	if o.OperatingDaysPerMonth <= 0 {
		o.OperatingDaysPerMonth = DefaultOperatingDaysPerMonth
	}
	return o
}

// Treatment relates the year's treated tonnage to everything generated,
// where generated is collected plus treated tons.
func Treatment(records []model.WasteTreatment, year string, collectedTons float64) model.TreatmentSummary {
	summary := model.TreatmentSummary{CollectedTons: collectedTons}
	for _, r := range records {
		if r.Year == year {
			summary.Recyclables = r.Recyclables
			summary.Biowaste = r.Biowaste
			summary.Other = r.Other
		}
	}
	summary.TotalTreated = summary.Recyclables + summary.Biowaste + summary.Other
	summary.TotalGenerated = collectedTons + summary.TotalTreated
	summary.RecyclingRate = percent(summary.Recyclables, summary.TotalGenerated)
	summary.DiversionRate = percent(summary.TotalTreated, summary.TotalGenerated)
	return summary
}

// Monthly returns trips and tons per calendar month allowed by the filter.
func Monthly(trips []model.Trip, filter model.Filter) []model.MonthlyPoint {
	points := make([]model.MonthlyPoint, 0, len(model.MonthCodes))
	index := make(map[string]int, len(model.MonthCodes))
	for _, code := range model.MonthCodes {
		if !filter.AllowsMonth(code) {
			continue
		}
		index[code] = len(points)
		points = append(points, model.MonthlyPoint{Month: code})
	}
	for _, trip := range trips {
		if i, ok := index[trip.Month]; ok {
			points[i].Trips++
			points[i].Tons += trip.Tons()
		}
	}
	return points
}

type ComposeInput struct {
	Year       string
	Filter     model.Filter
	Vehicles   []model.VehicleTableData
	Drivers    []model.DriverStatsData
	Population model.PopulationTotals
	Financial  model.FinancialSummary
	Treatment  model.TreatmentSummary
	Options    Options
}

// Compose groups the aggregates into the KPI sections shown on the dashboard.
func Compose(in ComposeInput) model.KPISummary {
	opts := in.Options.normalized()

	var ops model.OperationsKPI
	var fleet model.FleetKPI
	ageSum := 0
	for _, v := range in.Vehicles {
		ops.Trips += v.Trips
		ops.Tons += v.Tons
		ops.DistanceKm += v.DistanceKm
		fleet.TheoreticalCapacityTons += v.TheoreticalCapacityTons
		fleet.ActualDailyCapacity += v.ActualDailyCapacity
		ageSum += v.Age
	}
	ops.Vehicles = len(in.Vehicles)
	ops.Drivers = len(in.Drivers)
	ops.AvgTonsPerTrip = ratio(ops.Tons, float64(ops.Trips))

	fleet.AvgAge = ratio(float64(ageSum), float64(len(in.Vehicles)))
	operatingDays := float64(opts.OperatingDaysPerMonth * in.Filter.ActiveMonths())
	fleet.Utilization = percent(ops.Tons, fleet.ActualDailyCapacity*operatingDays)

	return model.KPISummary{
		Year:       in.Year,
		Operations: ops,
		Fleet:      fleet,
		Population: model.PopulationKPI{
			PopulationTotals: in.Population,
			KgPerCapita:      ratio(ops.Tons*1000, in.Population.Population),
		},
		Financial: in.Financial,
		Treatment: in.Treatment,
	}
}

// View runs the whole pipeline for one year of the snapshot.
func View(snap *model.Snapshot, year string, filter model.Filter, opts Options) model.YearView {
	opts = opts.normalized()

	trips := FilterTrips(snap.Trips, year, filter)
	idx := NewIndex(snap, year)

	vehicles := Vehicles(trips, idx, filter)
	drivers := Drivers(trips)
	areas := Areas(trips, idx, snap.Population)
	population := PopulationTotals(snap.Population, year, vehicles, filter)

	tons := 0.0
	for _, v := range vehicles {
		tons += v.Tons
	}

	financial := Financial(FinancialInput{
		Year:            year,
		Workers:         snap.Workers,
		Vehicles:        vehicles,
		AdditionalCosts: snap.AdditionalCosts,
		Revenues:        snap.Revenues,
		ActiveMonths:    filter.ActiveMonths(),
		TotalTons:       tons,
		Population:      population.Population,
		Benchmark:       opts.AffordabilityBenchmark,
	})

	summary := Compose(ComposeInput{
		Year:       year,
		Filter:     filter,
		Vehicles:   vehicles,
		Drivers:    drivers,
		Population: population,
		Financial:  financial,
		Treatment:  Treatment(snap.Treatment, year, tons),
		Options:    opts,
	})

	return model.YearView{
		Vehicles: vehicles,
		Drivers:  drivers,
		Areas:    areas,
		Monthly:  Monthly(trips, filter),
		Summary:  summary,
	}
}

// Build computes the dashboard for the query, adding the comparison year and
// its deltas when one is selected.
func Build(snap *model.Snapshot, q model.Query, opts Options) model.Dashboard {
	dashboard := model.Dashboard{
		Year:        q.Year,
		CompareYear: q.CompareYear,
		Current:     View(snap, q.Year, q.Filter, opts),
	}
	if !q.HasComparison() {
		return dashboard
	}

	comparison := View(snap, q.CompareYear, q.Filter, opts)
	cur, prev := dashboard.Current.Summary, comparison.Summary
	dashboard.Comparison = &comparison
	dashboard.Delta = &model.Delta{
		Trips:       change(float64(cur.Operations.Trips), float64(prev.Operations.Trips)),
		Tons:        change(cur.Operations.Tons, prev.Operations.Tons),
		TotalCost:   change(cur.Financial.TotalCost, prev.Financial.TotalCost),
		CostPerTon:  change(cur.Financial.CostPerTon, prev.Financial.CostPerTon),
		KgPerCapita: change(cur.Population.KgPerCapita, prev.Population.KgPerCapita),
	}
	return dashboard
}
