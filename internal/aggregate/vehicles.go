package aggregate

import (
	"strconv"
	"strings"

	"waste-analytics-service/internal/model"
)

// Derating factors applied to cubic capacity to estimate what a truck
// actually collects per day.
const (
	FillRatio         = 0.625
	CompactionRatio   = 0.9
	AvailabilityRatio = 0.86
)

// EfficiencyRate is the age-based capacity multiplier: full below 7 years,
// half from 7 through 11, none after.
func EfficiencyRate(age int) float64 {
	switch {
	case age < 7:
		return 1.0
	case age <= 11:
		return 0.5
	default:
		return 0.0
	}
}

// ActualDailyCapacity derates cubic capacity by the fixed fill, compaction
// and availability factors and the age efficiency.
func ActualDailyCapacity(cubicCapacity, efficiency float64) float64 {
	return cubicCapacity * FillRatio * CompactionRatio * AvailabilityRatio * efficiency
}

// FuelTotal sums the monthly fuel costs over the filtered months, or all
// twelve when the filter has none.
func FuelTotal(fuel model.Fuel, filter model.Filter) float64 {
	total := 0.0
	for i, month := range model.MonthCodes {
		if filter.AllowsMonth(month) {
			total += fuel.Monthly[i]
		}
	}
	return total
}

func vehicleAge(activeYear, manufactureYear string) int {
	year := parseYear(activeYear)
	built := year
	if parsed := parseYear(manufactureYear); parsed > 0 {
		built = parsed
	}
	return year - built
}

func parseYear(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}

type vehicleGroup struct {
	trips   int64
	tons    float64
	drivers *orderedSet
}

// Vehicles builds one row per vehicle id present in the filtered trips, in
// first-seen order.
func Vehicles(trips []model.Trip, idx *Index, filter model.Filter) []model.VehicleTableData {
	groups := make(map[string]*vehicleGroup)
	order := make([]string, 0)

	for _, trip := range trips {
		id := key(trip.VehicleID)
		g, ok := groups[id]
		if !ok {
			g = &vehicleGroup{drivers: newOrderedSet()}
			groups[id] = g
			order = append(order, id)
		}
		g.trips++
		g.tons += trip.Tons()
		if driver := strings.TrimSpace(trip.Driver); driver != "" {
			g.drivers.Add(driver)
		}
	}

	result := make([]model.VehicleTableData, 0, len(order))
	for _, id := range order {
		g := groups[id]
		row := model.VehicleTableData{
			VehicleID: id,
			Trips:     g.trips,
			Tons:      g.tons,
			Area:      idx.Area(id),
			Drivers:   g.drivers.Join(", "),
		}

		if v, ok := idx.Vehicle(id); ok {
			row.ManufactureYear = v.ManufactureYear
			row.CubicCapacity = v.CubicCapacity
			row.LoadDensity = v.LoadDensity
		}
		if f, ok := idx.Fuel(id); ok {
			row.FuelCost = FuelTotal(f, filter)
		}
		if m, ok := idx.Maintenance(id); ok {
			row.MaintenanceCost = m.Cost
		}
		if d, ok := idx.Distance(id); ok {
			row.DistanceKm = d.Km
		}

		row.TheoreticalCapacityTons = row.CubicCapacity * row.LoadDensity
		row.Age = vehicleAge(idx.Year(), row.ManufactureYear)
		row.EfficiencyRate = EfficiencyRate(row.Age)
		row.ActualDailyCapacity = ActualDailyCapacity(row.CubicCapacity, row.EfficiencyRate)

		row.TotalCost = row.FuelCost + row.MaintenanceCost
		row.CostPerTrip = ratio(row.TotalCost, float64(row.Trips))
		row.CostPerTon = ratio(row.TotalCost, row.Tons)
		row.AvgTonsPerTrip = ratio(row.Tons, float64(row.Trips))
		row.KmPerTrip = ratio(row.DistanceKm, float64(row.Trips))

		result = append(result, row)
	}

	return result
}
