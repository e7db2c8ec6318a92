package model

type VehicleTableData struct {
	VehicleID               string  `json:"vehicle_id"`
	Trips                   int64   `json:"trips"`
	Tons                    float64 `json:"tons"`
	Area                    string  `json:"area"`
	Drivers                 string  `json:"drivers"`
	ManufactureYear         string  `json:"manufacture_year"`
	Age                     int     `json:"age"`
	CubicCapacity           float64 `json:"cubic_capacity_m3"`
	LoadDensity             float64 `json:"load_density"`
	TheoreticalCapacityTons float64 `json:"theoretical_capacity_tons"`
	EfficiencyRate          float64 `json:"efficiency_rate"`
	ActualDailyCapacity     float64 `json:"actual_daily_capacity"`
	FuelCost                float64 `json:"fuel_cost"`
	MaintenanceCost         float64 `json:"maintenance_cost"`
	TotalCost               float64 `json:"total_cost"`
	CostPerTrip             float64 `json:"cost_per_trip"`
	CostPerTon              float64 `json:"cost_per_ton"`
	AvgTonsPerTrip          float64 `json:"avg_tons_per_trip"`
	DistanceKm              float64 `json:"distance_km"`
	KmPerTrip               float64 `json:"km_per_trip"`
}

type DriverStatsData struct {
	Driver         string  `json:"driver"`
	Trips          int64   `json:"trips"`
	Tons           float64 `json:"tons"`
	AvgTonsPerTrip float64 `json:"avg_tons_per_trip"`
	Vehicles       string  `json:"vehicles"`
}

type AreaPopulationStats struct {
	Area         string  `json:"area"`
	Year         string  `json:"year"`
	Population   float64 `json:"population"`
	Served       float64 `json:"served"`
	Tons         float64 `json:"tons"`
	KgPerCapita  float64 `json:"kg_per_capita"`
	CoverageRate float64 `json:"coverage_rate"`
}

type PopulationTotals struct {
	Population   float64 `json:"population"`
	Served       float64 `json:"served"`
	CoverageRate float64 `json:"coverage_rate"`
	Areas        int     `json:"areas"`
}

type AreaFinancial struct {
	Area         string  `json:"area"`
	Operational  float64 `json:"operational"`
	Salaries     float64 `json:"salaries"`
	Expense      float64 `json:"expense"`
	Revenue      float64 `json:"revenue"`
	NetBalance   float64 `json:"net_balance"`
	RecoveryRate float64 `json:"recovery_rate"`
}

type FinancialSummary struct {
	Salaries           float64         `json:"salaries"`
	Fuel               float64         `json:"fuel"`
	Maintenance        float64         `json:"maintenance"`
	Operational        float64         `json:"operational"`
	Additional         float64         `json:"additional"`
	TotalCost          float64         `json:"total_cost"`
	HouseholdFees      float64         `json:"household_fees"`
	CommercialFees     float64         `json:"commercial_fees"`
	RecyclingRevenue   float64         `json:"recycling_revenue"`
	Revenue            float64         `json:"revenue"`
	CostRecoveryRate   float64         `json:"cost_recovery_rate"`
	CostPerTon         float64         `json:"cost_per_ton"`
	CostPerCapita      float64         `json:"cost_per_capita"`
	AffordabilityIndex float64         `json:"affordability_index"`
	ActiveMonths       int             `json:"active_months"`
	Areas              []AreaFinancial `json:"areas"`
}

type TreatmentSummary struct {
	CollectedTons  float64 `json:"collected_tons"`
	Recyclables    float64 `json:"recyclables_tons"`
	Biowaste       float64 `json:"biowaste_tons"`
	Other          float64 `json:"other_tons"`
	TotalTreated   float64 `json:"total_treated_tons"`
	TotalGenerated float64 `json:"total_generated_tons"`
	RecyclingRate  float64 `json:"recycling_rate"`
	DiversionRate  float64 `json:"diversion_rate"`
}

type OperationsKPI struct {
	Trips          int64   `json:"trips"`
	Tons           float64 `json:"tons"`
	Vehicles       int     `json:"vehicles"`
	Drivers        int     `json:"drivers"`
	AvgTonsPerTrip float64 `json:"avg_tons_per_trip"`
	DistanceKm     float64 `json:"distance_km"`
}

type FleetKPI struct {
	TheoreticalCapacityTons float64 `json:"theoretical_capacity_tons"`
	ActualDailyCapacity     float64 `json:"actual_daily_capacity"`
	AvgAge                  float64 `json:"avg_age"`
	Utilization             float64 `json:"utilization"`
}

type PopulationKPI struct {
	PopulationTotals
	KgPerCapita float64 `json:"kg_per_capita"`
}

type KPISummary struct {
	Year       string           `json:"year"`
	Operations OperationsKPI    `json:"operations"`
	Fleet      FleetKPI         `json:"fleet"`
	Population PopulationKPI    `json:"population"`
	Financial  FinancialSummary `json:"financial"`
	Treatment  TreatmentSummary `json:"treatment"`
}

type MonthlyPoint struct {
	Month string  `json:"month"`
	Trips int64   `json:"trips"`
	Tons  float64 `json:"tons"`
}

// Delta holds percentage changes of headline metrics against the comparison year.
type Delta struct {
	Trips       float64 `json:"trips"`
	Tons        float64 `json:"tons"`
	TotalCost   float64 `json:"total_cost"`
	CostPerTon  float64 `json:"cost_per_ton"`
	KgPerCapita float64 `json:"kg_per_capita"`
}

type YearView struct {
	Vehicles []VehicleTableData    `json:"vehicles"`
	Drivers  []DriverStatsData     `json:"drivers"`
	Areas    []AreaPopulationStats `json:"areas"`
	Monthly  []MonthlyPoint        `json:"monthly"`
	Summary  KPISummary            `json:"summary"`
}

type Dashboard struct {
	Year        string    `json:"year"`
	CompareYear string    `json:"compare_year,omitempty"`
	Current     YearView  `json:"current"`
	Comparison  *YearView `json:"comparison,omitempty"`
	Delta       *Delta    `json:"delta,omitempty"`
}
