package aggregate

import (
	"sort"
	"strings"

	"waste-analytics-service/internal/model"
)

type driverGroup struct {
	trips    int64
	tons     float64
	vehicles *orderedSet
}

// Drivers groups the filtered trips by driver. Trips without a driver count
// under model.Unspecified; trips without a vehicle id add model.Unknown to
// the driver's vehicle list. Rows are ordered by tons, heaviest first.
func Drivers(trips []model.Trip) []model.DriverStatsData {
	groups := make(map[string]*driverGroup)
	order := make([]string, 0)

	for _, trip := range trips {
		name := strings.TrimSpace(trip.Driver)
		if name == "" {
			name = model.Unspecified
		}
		g, ok := groups[name]
		if !ok {
			g = &driverGroup{vehicles: newOrderedSet()}
			groups[name] = g
			order = append(order, name)
		}
		vehicle := key(trip.VehicleID)
		if vehicle == "" {
			vehicle = model.Unknown
		}
		g.trips++
		g.tons += trip.Tons()
		g.vehicles.Add(vehicle)
	}

	result := make([]model.DriverStatsData, 0, len(order))
	for _, name := range order {
		g := groups[name]
		result = append(result, model.DriverStatsData{
			Driver:         name,
			Trips:          g.trips,
			Tons:           g.tons,
			AvgTonsPerTrip: ratio(g.tons, float64(g.trips)),
			Vehicles:       g.vehicles.Join(", "),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Tons > result[j].Tons
	})

	return result
}
