package record

import (
	"strconv"

	"waste-analytics-service/internal/model"
)

var (
	fieldVehicleID       = []string{"رقم المركبة", "رقم السيارة", "vehicle_id", "vehicle"}
	fieldYear            = []string{"السنة", "العام", "year"}
	fieldMonth           = []string{"الشهر", "month"}
	fieldNetLoad         = []string{"الوزن الصافي", "صافي الحمولة", "net_load", "net_weight"}
	fieldWeighedAt       = []string{"تاريخ الوزن", "وقت الدخول", "weigh_in", "timestamp", "date"}
	fieldDriver          = []string{"اسم السائق", "السائق", "driver", "driver_name"}
	fieldManufactureYear = []string{"سنة الصنع", "manufacture_year", "model_year"}
	fieldCapacity        = []string{"السعة", "سعة المركبة", "capacity_m3", "capacity"}
	fieldDensity         = []string{"كثافة التحميل", "الكثافة", "load_density", "density"}
	fieldMaintenance     = []string{"تكلفة الصيانة", "الصيانة", "maintenance_cost", "cost"}
	fieldArea            = []string{"المنطقة", "الحي", "area"}
	fieldPopulation      = []string{"عدد السكان", "السكان", "population"}
	fieldServed          = []string{"السكان المخدومين", "المخدومين", "served_population", "served"}
	fieldName            = []string{"الاسم", "اسم العامل", "name"}
	fieldRole            = []string{"الوظيفة", "المهنة", "role"}
	fieldSalary          = []string{"الراتب", "الراتب الشهري", "monthly_salary", "salary"}
	fieldHousehold       = []string{"رسوم المنازل", "الرسوم المنزلية", "household_fees"}
	fieldCommercial      = []string{"رسوم تجارية", "الرسوم التجارية", "commercial_fees"}
	fieldRecycling       = []string{"إيرادات التدوير", "ايرادات التدوير", "recycling_revenue"}
	fieldRecyclables     = []string{"مواد قابلة للتدوير", "المواد القابلة للتدوير", "recyclables"}
	fieldBiowaste        = []string{"نفايات عضوية", "النفايات العضوية", "biowaste"}
	fieldOtherTreatment  = []string{"معالجة أخرى", "معالجة اخرى", "other_treatment", "other"}
	fieldDistance        = []string{"المسافة", "المسافة المقطوعة", "distance_km", "distance"}
	fieldInsurance       = []string{"التأمين", "insurance"}
	fieldClothing        = []string{"الملابس", "clothing"}
	fieldCleaning        = []string{"التنظيف", "cleaning"}
	fieldContainers      = []string{"الحاويات", "containers"}
)

func DecodeTrips(rows []model.Row) []model.Trip {
	trips := make([]model.Trip, 0, len(rows))
	for _, row := range rows {
		trip := model.Trip{
			VehicleID: text(row, fieldVehicleID),
			NetLoad:   number(row, fieldNetLoad),
			Month:     model.NormalizeMonth(text(row, fieldMonth)),
			Year:      year(row, fieldYear),
			Driver:    text(row, fieldDriver),
		}
		if v, ok := lookup(row, fieldWeighedAt); ok {
			trip.WeighedAt = Time(v)
		}
		if trip.WeighedAt != nil {
			if trip.Year == "" {
				trip.Year = strconv.Itoa(trip.WeighedAt.Year())
			}
			if trip.Month == "" {
				trip.Month = model.MonthCodes[trip.WeighedAt.Month()-1]
			}
		}
		trips = append(trips, trip)
	}
	return trips
}

func DecodeVehicles(rows []model.Row) []model.Vehicle {
	vehicles := make([]model.Vehicle, 0, len(rows))
	for _, row := range rows {
		vehicles = append(vehicles, model.Vehicle{
			VehicleID:       text(row, fieldVehicleID),
			ManufactureYear: year(row, fieldManufactureYear),
			CubicCapacity:   number(row, fieldCapacity),
			LoadDensity:     number(row, fieldDensity),
		})
	}
	return vehicles
}

// DecodeFuel reads one cost column per calendar month. Month columns may be
// headed by a code, a number, or an English or Arabic month name.
func DecodeFuel(rows []model.Row) []model.Fuel {
	fuel := make([]model.Fuel, 0, len(rows))
	for _, row := range rows {
		entry := model.Fuel{
			VehicleID: text(row, fieldVehicleID),
			Year:      year(row, fieldYear),
		}
		for key, value := range row {
			if idx := model.MonthIndex(model.NormalizeMonth(key)); idx >= 0 {
				entry.Monthly[idx] = ParseFloat(value)
			}
		}
		fuel = append(fuel, entry)
	}
	return fuel
}

func DecodeMaintenance(rows []model.Row) []model.Maintenance {
	items := make([]model.Maintenance, 0, len(rows))
	for _, row := range rows {
		items = append(items, model.Maintenance{
			VehicleID: text(row, fieldVehicleID),
			Year:      year(row, fieldYear),
			Cost:      number(row, fieldMaintenance),
		})
	}
	return items
}

func DecodeAreas(rows []model.Row) []model.AreaMapping {
	items := make([]model.AreaMapping, 0, len(rows))
	for _, row := range rows {
		items = append(items, model.AreaMapping{
			VehicleID: text(row, fieldVehicleID),
			Area:      text(row, fieldArea),
			Year:      year(row, fieldYear),
		})
	}
	return items
}

func DecodePopulation(rows []model.Row) []model.Population {
	items := make([]model.Population, 0, len(rows))
	for _, row := range rows {
		items = append(items, model.Population{
			Area:       text(row, fieldArea),
			Year:       year(row, fieldYear),
			Population: number(row, fieldPopulation),
			Served:     number(row, fieldServed),
		})
	}
	return items
}

// DecodeWorkers annualizes the monthly salary and keeps one row per name, the
// one with the highest salary, in first-seen order.
func DecodeWorkers(rows []model.Row) []model.Worker {
	index := make(map[string]int)
	workers := make([]model.Worker, 0, len(rows))
	for _, row := range rows {
		worker := model.Worker{
			Name:         text(row, fieldName),
			Role:         text(row, fieldRole),
			Area:         text(row, fieldArea),
			AnnualSalary: number(row, fieldSalary) * 12,
		}
		if i, ok := index[worker.Name]; ok {
			if worker.AnnualSalary > workers[i].AnnualSalary {
				workers[i] = worker
			}
			continue
		}
		index[worker.Name] = len(workers)
		workers = append(workers, worker)
	}
	return workers
}

func DecodeRevenues(rows []model.Row) []model.Revenue {
	items := make([]model.Revenue, 0, len(rows))
	for _, row := range rows {
		items = append(items, model.Revenue{
			Year:             year(row, fieldYear),
			Area:             text(row, fieldArea),
			HouseholdFees:    number(row, fieldHousehold),
			CommercialFees:   number(row, fieldCommercial),
			RecyclingRevenue: number(row, fieldRecycling),
		})
	}
	return items
}

func DecodeTreatment(rows []model.Row) []model.WasteTreatment {
	items := make([]model.WasteTreatment, 0, len(rows))
	for _, row := range rows {
		items = append(items, model.WasteTreatment{
			Year:        year(row, fieldYear),
			Recyclables: number(row, fieldRecyclables),
			Biowaste:    number(row, fieldBiowaste),
			Other:       number(row, fieldOtherTreatment),
		})
	}
	return items
}

func DecodeDistances(rows []model.Row) []model.Distance {
	items := make([]model.Distance, 0, len(rows))
	for _, row := range rows {
		items = append(items, model.Distance{
			VehicleID: text(row, fieldVehicleID),
			Year:      year(row, fieldYear),
			Km:        number(row, fieldDistance),
		})
	}
	return items
}

func DecodeAdditionalCosts(rows []model.Row) []model.AdditionalCost {
	items := make([]model.AdditionalCost, 0, len(rows))
	for _, row := range rows {
		items = append(items, model.AdditionalCost{
			Year:       year(row, fieldYear),
			Insurance:  number(row, fieldInsurance),
			Clothing:   number(row, fieldClothing),
			Cleaning:   number(row, fieldCleaning),
			Containers: number(row, fieldContainers),
		})
	}
	return items
}

// Decode turns raw dataset rows into a snapshot. Identity and load time are
// left for the caller.
func Decode(raw map[model.Dataset][]model.Row) *model.Snapshot {
	counts := make(map[model.Dataset]int, len(model.AllDatasets))
	for _, ds := range model.AllDatasets {
		counts[ds] = len(raw[ds])
	}
	return &model.Snapshot{
		RowCounts:       counts,
		Trips:           DecodeTrips(raw[model.DatasetTrips]),
		Vehicles:        DecodeVehicles(raw[model.DatasetVehicles]),
		Fuel:            DecodeFuel(raw[model.DatasetFuel]),
		Maintenance:     DecodeMaintenance(raw[model.DatasetMaintenance]),
		Areas:           DecodeAreas(raw[model.DatasetAreas]),
		Population:      DecodePopulation(raw[model.DatasetPopulation]),
		Workers:         DecodeWorkers(raw[model.DatasetWorkers]),
		Revenues:        DecodeRevenues(raw[model.DatasetRevenues]),
		Treatment:       DecodeTreatment(raw[model.DatasetTreatment]),
		Distances:       DecodeDistances(raw[model.DatasetDistances]),
		AdditionalCosts: DecodeAdditionalCosts(raw[model.DatasetAdditionalCosts]),
	}
}
