package aggregate

import (
	"strings"

	"waste-analytics-service/internal/model"
)

type areaMatch struct {
	area  string
	exact bool
}

// Index resolves a vehicle id to its reference rows for one year.
//
// Area mappings for the exact year beat wildcard mappings; among mappings of
// the same kind the last row wins. Fuel, maintenance and distance rows must
// match the year exactly, last row winning. Vehicle rows are not year-scoped.
type Index struct {
	year        string
	vehicles    map[string]model.Vehicle
	areas       map[string]areaMatch
	fuel        map[string]model.Fuel
	maintenance map[string]model.Maintenance
	distances   map[string]model.Distance
}

func NewIndex(snap *model.Snapshot, year string) *Index {
	idx := &Index{
		year:        year,
		vehicles:    make(map[string]model.Vehicle, len(snap.Vehicles)),
		areas:       make(map[string]areaMatch),
		fuel:        make(map[string]model.Fuel),
		maintenance: make(map[string]model.Maintenance),
		distances:   make(map[string]model.Distance),
	}

	for _, v := range snap.Vehicles {
		idx.vehicles[key(v.VehicleID)] = v
	}
	for _, a := range snap.Areas {
		if a.Year != "" && a.Year != year {
			continue
		}
		id := key(a.VehicleID)
		exact := a.Year != ""
		if prev, ok := idx.areas[id]; ok && prev.exact && !exact {
			continue
		}
		idx.areas[id] = areaMatch{area: strings.TrimSpace(a.Area), exact: exact}
	}
	for _, f := range snap.Fuel {
		if f.Year == year {
			idx.fuel[key(f.VehicleID)] = f
		}
	}
	for _, m := range snap.Maintenance {
		if m.Year == year {
			idx.maintenance[key(m.VehicleID)] = m
		}
	}
	for _, d := range snap.Distances {
		if d.Year == year {
			idx.distances[key(d.VehicleID)] = d
		}
	}

	return idx
}

func key(id string) string {
	return strings.TrimSpace(id)
}

func (i *Index) Year() string {
	return i.year
}

func (i *Index) Vehicle(id string) (model.Vehicle, bool) {
	v, ok := i.vehicles[key(id)]
	return v, ok
}

// Area returns the vehicle's area, or model.Unspecified when unmapped.
func (i *Index) Area(id string) string {
	if m, ok := i.areas[key(id)]; ok && m.area != "" {
		return m.area
	}
	return model.Unspecified
}

func (i *Index) Fuel(id string) (model.Fuel, bool) {
	f, ok := i.fuel[key(id)]
	return f, ok
}

func (i *Index) Maintenance(id string) (model.Maintenance, bool) {
	m, ok := i.maintenance[key(id)]
	return m, ok
}

func (i *Index) Distance(id string) (model.Distance, bool) {
	d, ok := i.distances[key(id)]
	return d, ok
}
