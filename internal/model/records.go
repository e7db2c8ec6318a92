package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Row is one parsed line of a published dataset: field name to string or number.
type Row map[string]any

type Dataset string

const (
	DatasetTrips           Dataset = "trips"
	DatasetVehicles        Dataset = "vehicles"
	DatasetFuel            Dataset = "fuel"
	DatasetMaintenance     Dataset = "maintenance"
	DatasetAreas           Dataset = "areas"
	DatasetPopulation      Dataset = "population"
	DatasetWorkers         Dataset = "workers"
	DatasetRevenues        Dataset = "revenues"
	DatasetTreatment       Dataset = "treatment"
	DatasetDistances       Dataset = "distances"
	DatasetAdditionalCosts Dataset = "additional_costs"
)

var AllDatasets = []Dataset{
	DatasetTrips,
	DatasetVehicles,
	DatasetFuel,
	DatasetMaintenance,
	DatasetAreas,
	DatasetPopulation,
	DatasetWorkers,
	DatasetRevenues,
	DatasetTreatment,
	DatasetDistances,
	DatasetAdditionalCosts,
}

const (
	Unspecified = "Unspecified"
	Unknown     = "Unknown"
)

type Trip struct {
	VehicleID string
	NetLoad   float64
	Month     string
	Year      string
	WeighedAt *time.Time
	Driver    string
}

// Tons converts the stored net load (kilograms) to metric tons.
func (t Trip) Tons() float64 {
	return t.NetLoad / 1000
}

type Vehicle struct {
	VehicleID       string
	ManufactureYear string
	CubicCapacity   float64
	LoadDensity     float64
}

type Fuel struct {
	VehicleID string
	Year      string
	Monthly   [12]float64
}

type Maintenance struct {
	VehicleID string
	Year      string
	Cost      float64
}

// AreaMapping assigns a vehicle to a service area. An empty Year applies to every year.
type AreaMapping struct {
	VehicleID string
	Area      string
	Year      string
}

type Population struct {
	Area       string
	Year       string
	Population float64
	Served     float64
}

type Worker struct {
	Name         string
	Role         string
	Area         string
	AnnualSalary float64
}

type Revenue struct {
	Year             string
	Area             string
	HouseholdFees    float64
	CommercialFees   float64
	RecyclingRevenue float64
}

func (r Revenue) Total() float64 {
	return r.HouseholdFees + r.CommercialFees + r.RecyclingRevenue
}

type WasteTreatment struct {
	Year        string
	Recyclables float64
	Biowaste    float64
	Other       float64
}

func (w WasteTreatment) TotalTreated() float64 {
	return w.Recyclables + w.Biowaste + w.Other
}

type Distance struct {
	VehicleID string
	Year      string
	Km        float64
}

type AdditionalCost struct {
	Year       string
	Insurance  float64
	Clothing   float64
	Cleaning   float64
	Containers float64
}

func (a AdditionalCost) Total() float64 {
	return a.Insurance + a.Clothing + a.Cleaning + a.Containers
}

// Snapshot is one immutable load of every dataset.
type Snapshot struct {
	ID        uuid.UUID
	LoadedAt  time.Time
	RowCounts map[Dataset]int

	Trips           []Trip
	Vehicles        []Vehicle
	Fuel            []Fuel
	Maintenance     []Maintenance
	Areas           []AreaMapping
	Population      []Population
	Workers         []Worker
	Revenues        []Revenue
	Treatment       []WasteTreatment
	Distances       []Distance
	AdditionalCosts []AdditionalCost
}

// Years lists the distinct trip years, newest first.
func (s *Snapshot) Years() []string {
	seen := make(map[string]struct{})
	years := make([]string, 0)
	for _, trip := range s.Trips {
		if trip.Year == "" {
			continue
		}
		if _, ok := seen[trip.Year]; ok {
			continue
		}
		seen[trip.Year] = struct{}{}
		years = append(years, trip.Year)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))
	return years
}

type SnapshotInfo struct {
	ID        uuid.UUID       `json:"id"`
	LoadedAt  time.Time       `json:"loaded_at"`
	RowCounts map[Dataset]int `json:"row_counts"`
	Years     []string        `json:"years"`
}

func (s *Snapshot) Info() SnapshotInfo {
	return SnapshotInfo{
		ID:        s.ID,
		LoadedAt:  s.LoadedAt,
		RowCounts: s.RowCounts,
		Years:     s.Years(),
	}
}
