package aggregate

import (
	"strings"

	"waste-analytics-service/internal/model"
)

// FilterTrips keeps the trips of year that pass the vehicle and month filter.
// An empty year selects nothing, which is how an unset comparison year
// produces an empty comparison set.
func FilterTrips(trips []model.Trip, year string, filter model.Filter) []model.Trip {
	result := make([]model.Trip, 0)
	if year == "" {
		return result
	}
	for _, trip := range trips {
		if trip.Year != year {
			continue
		}
		if !filter.AllowsVehicle(strings.TrimSpace(trip.VehicleID)) {
			continue
		}
		if !filter.AllowsMonth(trip.Month) {
			continue
		}
		result = append(result, trip)
	}
	return result
}
