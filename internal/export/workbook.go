package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"waste-analytics-service/internal/model"
)

const (
	SheetVehicles  = "Vehicles"
	SheetDrivers   = "Drivers"
	SheetAreas     = "Areas"
	SheetFinancial = "Financial"
	SheetKPIs      = "KPIs"
)

// Workbook renders the current year of a dashboard into a spreadsheet with
// one sheet per analytics table.
func Workbook(d model.Dashboard) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), SheetVehicles); err != nil {
		_ = f.Close()
		return nil, err
	}
	for _, name := range []string{SheetDrivers, SheetAreas, SheetFinancial, SheetKPIs} {
		if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	view := d.Current
	writers := []func(*excelize.File) error{
		func(f *excelize.File) error { return writeVehicles(f, view.Vehicles) },
		func(f *excelize.File) error { return writeDrivers(f, view.Drivers) },
		func(f *excelize.File) error { return writeAreas(f, view.Areas) },
		func(f *excelize.File) error { return writeFinancial(f, view.Summary.Financial) },
		func(f *excelize.File) error { return writeKPIs(f, d) },
	}
	for _, write := range writers {
		if err := write(f); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeTable(f *excelize.File, sheet string, headers []string, rows [][]any) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return fmt.Errorf("%s widths: %w", sheet, err)
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func writeVehicles(f *excelize.File, vehicles []model.VehicleTableData) error {
	headers := []string{
		"Vehicle", "Area", "Drivers", "Trips", "Tons", "Avg tons/trip",
		"Manufacture year", "Age", "Capacity m3", "Load density",
		"Theoretical capacity t", "Efficiency rate", "Actual daily capacity t",
		"Fuel cost", "Maintenance cost", "Total cost", "Cost/trip", "Cost/ton",
		"Distance km", "Km/trip",
	}
	rows := make([][]any, 0, len(vehicles))
	for _, v := range vehicles {
		rows = append(rows, []any{
			v.VehicleID, v.Area, v.Drivers, v.Trips, v.Tons, v.AvgTonsPerTrip,
			v.ManufactureYear, v.Age, v.CubicCapacity, v.LoadDensity,
			v.TheoreticalCapacityTons, v.EfficiencyRate, v.ActualDailyCapacity,
			v.FuelCost, v.MaintenanceCost, v.TotalCost, v.CostPerTrip, v.CostPerTon,
			v.DistanceKm, v.KmPerTrip,
		})
	}
	return writeTable(f, SheetVehicles, headers, rows)
}

func writeDrivers(f *excelize.File, drivers []model.DriverStatsData) error {
	rows := make([][]any, 0, len(drivers))
	for _, d := range drivers {
		rows = append(rows, []any{d.Driver, d.Trips, d.Tons, d.AvgTonsPerTrip, d.Vehicles})
	}
	return writeTable(f, SheetDrivers, []string{"Driver", "Trips", "Tons", "Avg tons/trip", "Vehicles"}, rows)
}

func writeAreas(f *excelize.File, areas []model.AreaPopulationStats) error {
	rows := make([][]any, 0, len(areas))
	for _, a := range areas {
		rows = append(rows, []any{a.Area, a.Population, a.Served, a.Tons, a.KgPerCapita, a.CoverageRate})
	}
	return writeTable(f, SheetAreas,
		[]string{"Area", "Population", "Served", "Tons", "Kg per capita", "Coverage %"}, rows)
}

func writeFinancial(f *excelize.File, fin model.FinancialSummary) error {
	rows := make([][]any, 0, len(fin.Areas)+1)
	for _, a := range fin.Areas {
		rows = append(rows, []any{a.Area, a.Salaries, a.Operational, a.Expense, a.Revenue, a.NetBalance, a.RecoveryRate})
	}
	rows = append(rows, []any{
		"Total", fin.Salaries, fin.Operational, fin.TotalCost, fin.Revenue,
		fin.Revenue - fin.TotalCost, fin.CostRecoveryRate,
	})
	return writeTable(f, SheetFinancial,
		[]string{"Area", "Salaries", "Operational", "Expense", "Revenue", "Net balance", "Recovery %"}, rows)
}

func writeKPIs(f *excelize.File, d model.Dashboard) error {
	s := d.Current.Summary
	rows := [][]any{
		{"Year", d.Year},
		{"Trips", s.Operations.Trips},
		{"Tons", s.Operations.Tons},
		{"Vehicles", s.Operations.Vehicles},
		{"Drivers", s.Operations.Drivers},
		{"Avg tons/trip", s.Operations.AvgTonsPerTrip},
		{"Distance km", s.Operations.DistanceKm},
		{"Theoretical capacity t", s.Fleet.TheoreticalCapacityTons},
		{"Actual daily capacity t", s.Fleet.ActualDailyCapacity},
		{"Average age", s.Fleet.AvgAge},
		{"Utilization %", s.Fleet.Utilization},
		{"Population", s.Population.Population},
		{"Served population", s.Population.Served},
		{"Coverage %", s.Population.CoverageRate},
		{"Kg per capita", s.Population.KgPerCapita},
		{"Total cost", s.Financial.TotalCost},
		{"Revenue", s.Financial.Revenue},
		{"Cost recovery %", s.Financial.CostRecoveryRate},
		{"Cost per ton", s.Financial.CostPerTon},
		{"Cost per capita", s.Financial.CostPerCapita},
		{"Affordability index", s.Financial.AffordabilityIndex},
		{"Recycling rate %", s.Treatment.RecyclingRate},
		{"Diversion rate %", s.Treatment.DiversionRate},
	}
	if d.Delta != nil {
		rows = append(rows,
			[]any{"Compared with", d.CompareYear},
			[]any{"Trips change %", d.Delta.Trips},
			[]any{"Tons change %", d.Delta.Tons},
			[]any{"Total cost change %", d.Delta.TotalCost},
			[]any{"Cost per ton change %", d.Delta.CostPerTon},
			[]any{"Kg per capita change %", d.Delta.KgPerCapita},
		)
	}
	return writeTable(f, SheetKPIs, []string{"Metric", "Value"}, rows)
}
