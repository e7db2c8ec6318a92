package aggregate

import (
	"sort"

	"waste-analytics-service/internal/model"
)

// TonsByArea attributes each trip's tons to its vehicle's area.
func TonsByArea(trips []model.Trip, idx *Index) map[string]float64 {
	totals := make(map[string]float64)
	for _, trip := range trips {
		totals[idx.Area(trip.VehicleID)] += trip.Tons()
	}
	return totals
}

// Areas emits one row per population record of the index year, ordered by
// kilograms per capita, highest first.
func Areas(trips []model.Trip, idx *Index, population []model.Population) []model.AreaPopulationStats {
	tons := TonsByArea(trips, idx)

	result := make([]model.AreaPopulationStats, 0)
	for _, p := range population {
		if p.Year != idx.Year() {
			continue
		}
		areaTons := tons[p.Area]
		result = append(result, model.AreaPopulationStats{
			Area:         p.Area,
			Year:         p.Year,
			Population:   p.Population,
			Served:       p.Served,
			Tons:         areaTons,
			KgPerCapita:  ratio(areaTons*1000, p.Population),
			CoverageRate: percent(p.Served, p.Population),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].KgPerCapita > result[j].KgPerCapita
	})

	return result
}

// PopulationTotals sums population and served population for the year. With
// a vehicle filter active only the areas of the listed vehicles count.
func PopulationTotals(population []model.Population, year string, vehicles []model.VehicleTableData, filter model.Filter) model.PopulationTotals {
	var allowed map[string]struct{}
	if filter.HasVehicles() {
		allowed = make(map[string]struct{}, len(vehicles))
		for _, v := range vehicles {
			allowed[v.Area] = struct{}{}
		}
	}

	var totals model.PopulationTotals
	for _, p := range population {
		if p.Year != year {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[p.Area]; !ok {
				continue
			}
		}
		totals.Population += p.Population
		totals.Served += p.Served
		totals.Areas++
	}
	totals.CoverageRate = percent(totals.Served, totals.Population)
	return totals
}
