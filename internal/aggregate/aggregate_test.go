package aggregate

import (
	"math"
	"reflect"
	"testing"

	"waste-analytics-service/internal/model"
)

const eps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func fleetSnapshot() *model.Snapshot {
	return &model.Snapshot{
		Trips: []model.Trip{
			{VehicleID: "V1", NetLoad: 1000, Month: "jan", Year: "2024", Driver: "Ali"},
			{VehicleID: "V1", NetLoad: 2000, Month: "feb", Year: "2024", Driver: "Omar"},
			{VehicleID: "V2", NetLoad: 4000, Month: "jan", Year: "2024", Driver: "Ali"},
			{VehicleID: "", NetLoad: 500, Month: "mar", Year: "2024"},
			{VehicleID: "V1", NetLoad: 3000, Month: "jan", Year: "2023", Driver: "Ali"},
			{VehicleID: "V3", NetLoad: 1500, Month: "", Year: "2024", Driver: "Huda"},
		},
		Vehicles: []model.Vehicle{
			{VehicleID: "V1", ManufactureYear: "2020", CubicCapacity: 16, LoadDensity: 0.5},
			{VehicleID: "V2", ManufactureYear: "2015", CubicCapacity: 20, LoadDensity: 0.4},
		},
		Fuel: []model.Fuel{
			{VehicleID: "V1", Year: "2024", Monthly: [12]float64{50, 50}},
			{VehicleID: "V1", Year: "2023", Monthly: [12]float64{999}},
		},
		Maintenance: []model.Maintenance{
			{VehicleID: "V1", Year: "2024", Cost: 200},
			{VehicleID: "V2", Year: "2024", Cost: 100},
		},
		Areas: []model.AreaMapping{
			{VehicleID: "V1", Area: "North"},
			{VehicleID: "V2", Area: "South", Year: "2024"},
			{VehicleID: "V2", Area: "East"},
		},
		Population: []model.Population{
			{Area: "North", Year: "2024", Population: 1000, Served: 900},
			{Area: "South", Year: "2024", Population: 2000, Served: 1000},
			{Area: "Empty", Year: "2024", Population: 0, Served: 50},
			{Area: "North", Year: "2023", Population: 950, Served: 800},
		},
		Distances: []model.Distance{
			{VehicleID: "V1", Year: "2024", Km: 120},
		},
	}
}

func vehicleByID(rows []model.VehicleTableData, id string) (model.VehicleTableData, bool) {
	for _, r := range rows {
		if r.VehicleID == id {
			return r, true
		}
	}
	return model.VehicleTableData{}, false
}

func TestFilterTrips_SubsetAndCommutes(t *testing.T) {
	t.Parallel()

	snap := fleetSnapshot()
	filter := model.NewFilter([]string{"V1", "V2"}, []string{"JAN"})

	filtered := FilterTrips(snap.Trips, "2024", filter)
	if len(filtered) != 2 {
		t.Fatalf("want 2 trips got %d", len(filtered))
	}
	for _, trip := range filtered {
		if trip.Year != "2024" || trip.Month != "jan" {
			t.Fatalf("unexpected trip in result: %+v", trip)
		}
	}

	byVehicle := FilterTrips(snap.Trips, "2024", model.NewFilter([]string{"V1", "V2"}, nil))
	thenMonth := FilterTrips(byVehicle, "2024", model.NewFilter(nil, []string{"jan"}))
	byMonth := FilterTrips(snap.Trips, "2024", model.NewFilter(nil, []string{"jan"}))
	thenVehicle := FilterTrips(byMonth, "2024", model.NewFilter([]string{"V1", "V2"}, nil))
	if !reflect.DeepEqual(thenMonth, thenVehicle) || !reflect.DeepEqual(thenMonth, filtered) {
		t.Fatalf("filter order should not matter: %v vs %v", thenMonth, thenVehicle)
	}
}

func TestFilterTrips_EmptyFieldsOnlyExcludedWhenRestricted(t *testing.T) {
	t.Parallel()

	snap := fleetSnapshot()

	all := FilterTrips(snap.Trips, "2024", model.NewFilter(nil, nil))
	if len(all) != 5 {
		t.Fatalf("unrestricted 2024 should keep 5 trips, got %d", len(all))
	}
	byVehicle := FilterTrips(snap.Trips, "2024", model.NewFilter([]string{"V1", "V2", "V3"}, nil))
	if len(byVehicle) != 4 {
		t.Fatalf("trip without vehicle id should drop under a vehicle filter, got %d", len(byVehicle))
	}
	byMonth := FilterTrips(snap.Trips, "2024", model.NewFilter(nil, []string{"jan", "feb", "mar"}))
	if len(byMonth) != 4 {
		t.Fatalf("trip without month should drop under a month filter, got %d", len(byMonth))
	}
}

func TestFilterTrips_EmptyComparisonYear(t *testing.T) {
	t.Parallel()

	got := FilterTrips(fleetSnapshot().Trips, "", model.NewFilter(nil, nil))
	if got == nil || len(got) != 0 {
		t.Fatalf("empty year should give an empty non-nil slice, got %#v", got)
	}
}

func TestVehicles_ScenarioFuelAllMonths(t *testing.T) {
	t.Parallel()

	snap := &model.Snapshot{
		Trips: []model.Trip{
			{VehicleID: "V1", NetLoad: 1000, Month: "jan", Year: "2024"},
			{VehicleID: "V1", NetLoad: 2000, Month: "feb", Year: "2024"},
		},
		Fuel: []model.Fuel{{VehicleID: "V1", Year: "2024", Monthly: [12]float64{50, 50}}},
	}
	filter := model.NewFilter(nil, nil)
	rows := Vehicles(FilterTrips(snap.Trips, "2024", filter), NewIndex(snap, "2024"), filter)

	if len(rows) != 1 {
		t.Fatalf("want 1 row got %d", len(rows))
	}
	v1 := rows[0]
	if v1.Trips != 2 || !near(v1.Tons, 3) || !near(v1.FuelCost, 100) {
		t.Fatalf("unexpected V1 row: %+v", v1)
	}
}

func TestVehicles_ScenarioFuelMonthFilter(t *testing.T) {
	t.Parallel()

	snap := &model.Snapshot{
		Trips: []model.Trip{
			{VehicleID: "V1", NetLoad: 1000, Month: "jan", Year: "2024"},
			{VehicleID: "V1", NetLoad: 2000, Month: "feb", Year: "2024"},
		},
		Fuel: []model.Fuel{{VehicleID: "V1", Year: "2024", Monthly: [12]float64{50, 50}}},
	}
	filter := model.NewFilter(nil, []string{"jan"})
	rows := Vehicles(FilterTrips(snap.Trips, "2024", filter), NewIndex(snap, "2024"), filter)

	if len(rows) != 1 || !near(rows[0].FuelCost, 50) {
		t.Fatalf("jan-only fuel should be 50, got %+v", rows)
	}
}

func TestVehicles_SumsMatchTrips(t *testing.T) {
	t.Parallel()

	snap := fleetSnapshot()
	filter := model.NewFilter(nil, nil)
	trips := FilterTrips(snap.Trips, "2024", filter)
	rows := Vehicles(trips, NewIndex(snap, "2024"), filter)

	var wantTons, gotTons float64
	var gotTrips int64
	for _, trip := range trips {
		wantTons += trip.NetLoad / 1000
	}
	for _, r := range rows {
		gotTons += r.Tons
		gotTrips += r.Trips
	}
	if !near(wantTons, gotTons) {
		t.Fatalf("tons want=%v got=%v", wantTons, gotTons)
	}
	if gotTrips != int64(len(trips)) {
		t.Fatalf("trips want=%d got=%d", len(trips), gotTrips)
	}
}

func TestVehicles_DerivedMetrics(t *testing.T) {
	t.Parallel()

	snap := fleetSnapshot()
	filter := model.NewFilter(nil, nil)
	rows := Vehicles(FilterTrips(snap.Trips, "2024", filter), NewIndex(snap, "2024"), filter)

	v1, ok := vehicleByID(rows, "V1")
	if !ok {
		t.Fatalf("V1 missing")
	}
	if v1.Area != "North" || v1.Drivers != "Ali, Omar" {
		t.Fatalf("unexpected V1 area/drivers: %q %q", v1.Area, v1.Drivers)
	}
	if v1.Age != 4 || v1.EfficiencyRate != 1.0 {
		t.Fatalf("unexpected V1 age/efficiency: %d %v", v1.Age, v1.EfficiencyRate)
	}
	if !near(v1.TheoreticalCapacityTons, 8) {
		t.Fatalf("theoretical capacity want=8 got=%v", v1.TheoreticalCapacityTons)
	}
	if !near(v1.ActualDailyCapacity, 16*0.625*0.9*0.86) {
		t.Fatalf("unexpected actual capacity %v", v1.ActualDailyCapacity)
	}
	if !near(v1.TotalCost, 300) || !near(v1.CostPerTrip, 150) || !near(v1.CostPerTon, 100) {
		t.Fatalf("unexpected V1 costs: %+v", v1)
	}
	if !near(v1.KmPerTrip, 60) {
		t.Fatalf("km per trip want=60 got=%v", v1.KmPerTrip)
	}

	v2, _ := vehicleByID(rows, "V2")
	if v2.Area != "South" {
		t.Fatalf("exact-year mapping should beat wildcard, got %q", v2.Area)
	}
	if v2.Age != 9 || v2.EfficiencyRate != 0.5 {
		t.Fatalf("unexpected V2 age/efficiency: %d %v", v2.Age, v2.EfficiencyRate)
	}
	if v2.FuelCost != 0 || v2.DistanceKm != 0 || v2.KmPerTrip != 0 {
		t.Fatalf("missing joins should be zero: %+v", v2)
	}

	v3, _ := vehicleByID(rows, "V3")
	if v3.Area != model.Unspecified || v3.Age != 0 || v3.EfficiencyRate != 1.0 {
		t.Fatalf("unreferenced vehicle should still be listed with defaults: %+v", v3)
	}
}

func TestVehicles_UnparsableManufactureYearMeansNew(t *testing.T) {
	t.Parallel()

	snap := &model.Snapshot{
		Trips: []model.Trip{
			{VehicleID: "V7", NetLoad: 1000, Month: "jan", Year: "2024"},
			{VehicleID: "V8", NetLoad: 1000, Month: "jan", Year: "2024"},
		},
		Vehicles: []model.Vehicle{
			{VehicleID: "V7", ManufactureYear: "n/a", CubicCapacity: 16},
			{VehicleID: "V8", ManufactureYear: "", CubicCapacity: 16},
		},
	}
	filter := model.NewFilter(nil, nil)
	rows := Vehicles(snap.Trips, NewIndex(snap, "2024"), filter)

	for _, id := range []string{"V7", "V8"} {
		v, ok := vehicleByID(rows, id)
		if !ok {
			t.Fatalf("%s missing", id)
		}
		if v.Age != 0 || v.EfficiencyRate != 1.0 {
			t.Fatalf("%s: want age 0 and full efficiency, got %d %v", id, v.Age, v.EfficiencyRate)
		}
		if !near(v.ActualDailyCapacity, 16*FillRatio*CompactionRatio*AvailabilityRatio) {
			t.Fatalf("%s: unexpected actual capacity %v", id, v.ActualDailyCapacity)
		}
	}
}

func TestVehicles_ZeroGuards(t *testing.T) {
	t.Parallel()

	snap := &model.Snapshot{
		Trips: []model.Trip{{VehicleID: "V9", NetLoad: 0, Month: "jan", Year: "2024"}},
		Maintenance: []model.Maintenance{
			{VehicleID: "V9", Year: "2024", Cost: 75},
		},
	}
	filter := model.NewFilter(nil, nil)
	rows := Vehicles(snap.Trips, NewIndex(snap, "2024"), filter)
	if len(rows) != 1 {
		t.Fatalf("want 1 row got %d", len(rows))
	}
	if rows[0].CostPerTon != 0 || math.IsNaN(rows[0].CostPerTon) || math.IsInf(rows[0].CostPerTon, 0) {
		t.Fatalf("cost per ton must be 0 with zero tons, got %v", rows[0].CostPerTon)
	}
	if !near(rows[0].CostPerTrip, 75) {
		t.Fatalf("cost per trip want=75 got=%v", rows[0].CostPerTrip)
	}

	empty := Vehicles(nil, NewIndex(snap, "2024"), filter)
	if empty == nil || len(empty) != 0 {
		t.Fatalf("no trips should give an empty non-nil slice")
	}
}

func TestEfficiencyRate_Thresholds(t *testing.T) {
	t.Parallel()

	cases := map[int]float64{0: 1.0, 6: 1.0, 7: 0.5, 11: 0.5, 12: 0.0, 30: 0.0}
	for age, want := range cases {
		if got := EfficiencyRate(age); got != want {
			t.Fatalf("EfficiencyRate(%d) want=%v got=%v", age, want, got)
		}
	}
}

func TestIndex_LastRowWins(t *testing.T) {
	t.Parallel()

	snap := &model.Snapshot{
		Areas: []model.AreaMapping{
			{VehicleID: "V1", Area: "A"},
			{VehicleID: "V1", Area: "B"},
			{VehicleID: "V2", Area: "C", Year: "2024"},
			{VehicleID: "V2", Area: "D", Year: "2024"},
			{VehicleID: "V2", Area: "E"},
			{VehicleID: "V3", Area: "F", Year: "2023"},
		},
		Maintenance: []model.Maintenance{
			{VehicleID: "V1", Year: "2024", Cost: 10},
			{VehicleID: "V1", Year: "2024", Cost: 20},
		},
	}
	idx := NewIndex(snap, "2024")
	if got := idx.Area("V1"); got != "B" {
		t.Fatalf("V1 area want=B got=%q", got)
	}
	if got := idx.Area(" V2 "); got != "D" {
		t.Fatalf("V2 area want=D got=%q", got)
	}
	if got := idx.Area("V3"); got != model.Unspecified {
		t.Fatalf("other-year mapping should not apply, got %q", got)
	}
	if m, _ := idx.Maintenance("V1"); m.Cost != 20 {
		t.Fatalf("maintenance want=20 got=%v", m.Cost)
	}
}

func TestDrivers_Sentinels(t *testing.T) {
	t.Parallel()

	trips := []model.Trip{
		{VehicleID: "V1", NetLoad: 1000, Driver: "Ali"},
		{VehicleID: "", NetLoad: 2000, Driver: "Ali"},
		{VehicleID: "V2", NetLoad: 5000, Driver: ""},
		{VehicleID: "V1", NetLoad: 1000, Driver: "Ali"},
	}
	rows := Drivers(trips)
	if len(rows) != 2 {
		t.Fatalf("want 2 drivers got %d", len(rows))
	}

	unspecified, ali := rows[0], rows[1]
	if unspecified.Driver != model.Unspecified || unspecified.Trips != 1 || !near(unspecified.Tons, 5) {
		t.Fatalf("unexpected unspecified row: %+v", unspecified)
	}
	if ali.Trips != 3 || !near(ali.Tons, 4) || !near(ali.AvgTonsPerTrip, 4.0/3.0) {
		t.Fatalf("unexpected Ali row: %+v", ali)
	}
	if ali.Vehicles != "V1, "+model.Unknown {
		t.Fatalf("unexpected Ali vehicles: %q", ali.Vehicles)
	}

	if got := Drivers(nil); got == nil || len(got) != 0 {
		t.Fatalf("no trips should give an empty non-nil slice")
	}
}

func TestAreas_PerCapitaAndOrder(t *testing.T) {
	t.Parallel()

	snap := fleetSnapshot()
	filter := model.NewFilter(nil, nil)
	trips := FilterTrips(snap.Trips, "2024", filter)
	rows := Areas(trips, NewIndex(snap, "2024"), snap.Population)

	if len(rows) != 3 {
		t.Fatalf("want 3 area rows got %d", len(rows))
	}
	if rows[0].Area != "North" || !near(rows[0].Tons, 3) || !near(rows[0].KgPerCapita, 3) || !near(rows[0].CoverageRate, 90) {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].Area != "South" || !near(rows[1].KgPerCapita, 2) || !near(rows[1].CoverageRate, 50) {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
	empty := rows[2]
	if empty.Area != "Empty" || empty.KgPerCapita != 0 || empty.CoverageRate != 0 || math.IsNaN(empty.CoverageRate) {
		t.Fatalf("zero population should give zero ratios: %+v", empty)
	}
}

func TestPopulationTotals_VehicleFilterRestrictsAreas(t *testing.T) {
	t.Parallel()

	snap := fleetSnapshot()

	all := PopulationTotals(snap.Population, "2024", nil, model.NewFilter(nil, nil))
	if all.Population != 3000 || all.Served != 1950 || all.Areas != 3 || !near(all.CoverageRate, 65) {
		t.Fatalf("unexpected totals: %+v", all)
	}

	filter := model.NewFilter([]string{"V1"}, nil)
	rows := Vehicles(FilterTrips(snap.Trips, "2024", filter), NewIndex(snap, "2024"), filter)
	north := PopulationTotals(snap.Population, "2024", rows, filter)
	if north.Population != 1000 || north.Served != 900 || north.Areas != 1 {
		t.Fatalf("vehicle filter should restrict to North: %+v", north)
	}

	none := PopulationTotals(nil, "2024", nil, model.NewFilter(nil, nil))
	if none.CoverageRate != 0 {
		t.Fatalf("empty population should give zero coverage")
	}
}

func TestFinancial_ProratesSalaries(t *testing.T) {
	t.Parallel()

	summary := Financial(FinancialInput{
		Year:         "2024",
		Workers:      []model.Worker{{Name: "Sara", AnnualSalary: 3600, Area: "North"}},
		ActiveMonths: 3,
	})
	if !near(summary.Salaries, 900) {
		t.Fatalf("salary want=900 got=%v", summary.Salaries)
	}
	if summary.ActiveMonths != 3 {
		t.Fatalf("active months want=3 got=%d", summary.ActiveMonths)
	}
}

func TestFinancial_TotalsAndAreas(t *testing.T) {
	t.Parallel()

	summary := Financial(FinancialInput{
		Year: "2024",
		Workers: []model.Worker{
			{Name: "Sara", AnnualSalary: 12000, Area: "North"},
			{Name: "Omar", AnnualSalary: 6000},
		},
		Vehicles: []model.VehicleTableData{
			{VehicleID: "V1", Area: "North", FuelCost: 100, MaintenanceCost: 200},
			{VehicleID: "V2", Area: "South", FuelCost: 50, MaintenanceCost: 50},
		},
		AdditionalCosts: []model.AdditionalCost{
			{Year: "2023", Insurance: 999},
			{Year: "2024", Insurance: 10, Clothing: 20, Cleaning: 30, Containers: 40},
		},
		Revenues: []model.Revenue{
			{Year: "2024", Area: "North", HouseholdFees: 1000, CommercialFees: 500, RecyclingRevenue: 100},
			{Year: "2024", HouseholdFees: 300},
			{Year: "2023", Area: "North", HouseholdFees: 5000},
		},
		ActiveMonths: 12,
		TotalTons:    10,
		Population:   100,
		Benchmark:    4.9,
	})

	if !near(summary.Salaries, 18000) || !near(summary.Operational, 400) || !near(summary.Additional, 100) {
		t.Fatalf("unexpected cost components: %+v", summary)
	}
	if !near(summary.TotalCost, 18500) || !near(summary.Revenue, 1900) {
		t.Fatalf("unexpected totals: cost=%v revenue=%v", summary.TotalCost, summary.Revenue)
	}
	if !near(summary.CostRecoveryRate, 1900.0/18500.0*100) {
		t.Fatalf("unexpected recovery rate %v", summary.CostRecoveryRate)
	}
	if !near(summary.CostPerTon, 1850) || !near(summary.CostPerCapita, 185) {
		t.Fatalf("unexpected unit costs: %v %v", summary.CostPerTon, summary.CostPerCapita)
	}
	if !near(summary.AffordabilityIndex, 185/4.9*100) {
		t.Fatalf("unexpected affordability %v", summary.AffordabilityIndex)
	}

	if len(summary.Areas) != 3 {
		t.Fatalf("want 3 areas got %+v", summary.Areas)
	}
	north, south, unspecified := summary.Areas[0], summary.Areas[1], summary.Areas[2]
	if north.Area != "North" || !near(north.Expense, 12300) || !near(north.Revenue, 1600) || !near(north.NetBalance, -10700) {
		t.Fatalf("unexpected North: %+v", north)
	}
	if south.Area != "South" || !near(south.Expense, 100) || south.Revenue != 0 || south.RecoveryRate != 0 {
		t.Fatalf("unexpected South: %+v", south)
	}
	if unspecified.Area != model.Unspecified || !near(unspecified.Salaries, 6000) || !near(unspecified.Revenue, 300) {
		t.Fatalf("unexpected Unspecified: %+v", unspecified)
	}
}

func TestFinancial_ZeroGuards(t *testing.T) {
	t.Parallel()

	summary := Financial(FinancialInput{Year: "2024"})
	if summary.TotalCost != 0 || summary.CostRecoveryRate != 0 || summary.CostPerTon != 0 ||
		summary.CostPerCapita != 0 || summary.AffordabilityIndex != 0 {
		t.Fatalf("empty input should give zeros: %+v", summary)
	}
	if summary.ActiveMonths != 12 || summary.Areas == nil {
		t.Fatalf("unexpected defaults: %+v", summary)
	}
}

func TestTreatment_Rates(t *testing.T) {
	t.Parallel()

	got := Treatment([]model.WasteTreatment{
		{Year: "2024", Recyclables: 10, Biowaste: 20, Other: 10},
	}, "2024", 60)
	if !near(got.TotalTreated, 40) || !near(got.TotalGenerated, 100) {
		t.Fatalf("unexpected totals: %+v", got)
	}
	if !near(got.RecyclingRate, 10) || !near(got.DiversionRate, 40) {
		t.Fatalf("unexpected rates: %+v", got)
	}

	none := Treatment(nil, "2024", 0)
	if none.RecyclingRate != 0 || none.DiversionRate != 0 {
		t.Fatalf("nothing generated should give zero rates: %+v", none)
	}
}

func TestMonthly_FollowsFilter(t *testing.T) {
	t.Parallel()

	trips := FilterTrips(fleetSnapshot().Trips, "2024", model.NewFilter(nil, nil))
	all := Monthly(trips, model.NewFilter(nil, nil))
	if len(all) != 12 || all[0].Trips != 2 || !near(all[0].Tons, 5) {
		t.Fatalf("unexpected monthly series: %+v", all)
	}

	some := Monthly(trips, model.NewFilter(nil, []string{"mar", "jan"}))
	if len(some) != 2 || some[0].Month != "jan" || some[1].Month != "mar" {
		t.Fatalf("filtered series should keep calendar order: %+v", some)
	}
}

func TestBuild_NoComparisonYear(t *testing.T) {
	t.Parallel()

	dashboard := Build(fleetSnapshot(), model.Query{Year: "2024", Filter: model.NewFilter(nil, nil)}, DefaultOptions())
	if dashboard.Comparison != nil || dashboard.Delta != nil {
		t.Fatalf("no comparison expected")
	}

	empty := View(fleetSnapshot(), "", model.NewFilter(nil, nil), DefaultOptions())
	if len(empty.Vehicles) != 0 || len(empty.Drivers) != 0 || len(empty.Areas) != 0 {
		t.Fatalf("empty year should give empty collections: %+v", empty)
	}
	if empty.Vehicles == nil || empty.Drivers == nil || empty.Areas == nil {
		t.Fatalf("empty collections must not be nil")
	}
}

func TestBuild_ComparisonDeltas(t *testing.T) {
	t.Parallel()

	q := model.Query{Year: "2024", CompareYear: "2023", Filter: model.NewFilter(nil, nil)}
	dashboard := Build(fleetSnapshot(), q, DefaultOptions())
	if dashboard.Comparison == nil || dashboard.Delta == nil {
		t.Fatalf("comparison expected")
	}
	if dashboard.Comparison.Summary.Operations.Trips != 1 {
		t.Fatalf("2023 should have one trip: %+v", dashboard.Comparison.Summary.Operations)
	}
	if !near(dashboard.Delta.Trips, 400) {
		t.Fatalf("trips delta want=400 got=%v", dashboard.Delta.Trips)
	}
	if !near(dashboard.Delta.Tons, (9.0-3.0)/3.0*100) {
		t.Fatalf("unexpected tons delta %v", dashboard.Delta.Tons)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	t.Parallel()

	snap := fleetSnapshot()
	q := model.Query{Year: "2024", CompareYear: "2023", Filter: model.NewFilter([]string{"V1", "V2"}, []string{"jan", "feb"})}
	first := Build(snap, q, DefaultOptions())
	second := Build(snap, q, DefaultOptions())
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated builds differ")
	}
}

func TestCompose_Sections(t *testing.T) {
	t.Parallel()

	view := View(fleetSnapshot(), "2024", model.NewFilter(nil, nil), DefaultOptions())
	ops := view.Summary.Operations
	if ops.Trips != 5 || !near(ops.Tons, 9) || ops.Vehicles != 4 || ops.Drivers != 4 {
		t.Fatalf("unexpected operations: %+v", ops)
	}
	if !near(ops.AvgTonsPerTrip, 1.8) || !near(ops.DistanceKm, 120) {
		t.Fatalf("unexpected operations ratios: %+v", ops)
	}
	if !near(view.Summary.Population.KgPerCapita, 9000.0/3000.0) {
		t.Fatalf("unexpected kg per capita %v", view.Summary.Population.KgPerCapita)
	}
	if !near(view.Summary.Treatment.CollectedTons, 9) {
		t.Fatalf("collected tons should equal fleet tons")
	}
	if view.Summary.Fleet.Utilization <= 0 {
		t.Fatalf("utilization should be positive with capacity and tons")
	}
}
