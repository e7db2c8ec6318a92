package aggregate

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"waste-analytics-service/internal/model"
)

// DefaultAffordabilityBenchmark is the reference monthly cost per capita the
// affordability index is expressed against.
const DefaultAffordabilityBenchmark = 4.9

type FinancialInput struct {
	Year            string
	Workers         []model.Worker
	Vehicles        []model.VehicleTableData
	AdditionalCosts []model.AdditionalCost
	Revenues        []model.Revenue
	ActiveMonths    int
	TotalTons       float64
	Population      float64
	Benchmark       float64
}

// ProratedSalary is the share of an annual salary earned over months.
func ProratedSalary(annual float64, months int) decimal.Decimal {
	return decimal.NewFromFloat(annual).
		Div(decimal.NewFromInt(12)).
		Mul(decimal.NewFromInt(int64(months)))
}

func areaKey(area string) string {
	if a := strings.TrimSpace(area); a != "" {
		return a
	}
	return model.Unspecified
}

type areaLedger struct {
	operational decimal.Decimal
	salaries    decimal.Decimal
	revenue     decimal.Decimal
}

// Financial combines salaries, vehicle running costs, non-operational costs
// and revenue into fleet-wide and per-area cost recovery figures.
func Financial(in FinancialInput) model.FinancialSummary {
	months := in.ActiveMonths
	if months <= 0 {
		months = 12
	}

	ledgers := make(map[string]*areaLedger)
	ledger := func(area string) *areaLedger {
		k := areaKey(area)
		l, ok := ledgers[k]
		if !ok {
			l = &areaLedger{}
			ledgers[k] = l
		}
		return l
	}

	salaries := decimal.Zero
	for _, w := range in.Workers {
		share := ProratedSalary(w.AnnualSalary, months)
		salaries = salaries.Add(share)
		l := ledger(w.Area)
		l.salaries = l.salaries.Add(share)
	}

	fuel := decimal.Zero
	maintenance := decimal.Zero
	for _, v := range in.Vehicles {
		f := decimal.NewFromFloat(v.FuelCost)
		m := decimal.NewFromFloat(v.MaintenanceCost)
		fuel = fuel.Add(f)
		maintenance = maintenance.Add(m)
		l := ledger(v.Area)
		l.operational = l.operational.Add(f).Add(m)
	}
	operational := fuel.Add(maintenance)

	additional := decimal.Zero
	for _, c := range in.AdditionalCosts {
		if c.Year == in.Year {
			additional = decimal.NewFromFloat(c.Total())
		}
	}

	household := decimal.Zero
	commercial := decimal.Zero
	recycling := decimal.Zero
	for _, r := range in.Revenues {
		if r.Year != in.Year {
			continue
		}
		household = household.Add(decimal.NewFromFloat(r.HouseholdFees))
		commercial = commercial.Add(decimal.NewFromFloat(r.CommercialFees))
		recycling = recycling.Add(decimal.NewFromFloat(r.RecyclingRevenue))
		l := ledger(r.Area)
		l.revenue = l.revenue.Add(decimal.NewFromFloat(r.Total()))
	}
	revenue := household.Add(commercial).Add(recycling)

	total := salaries.Add(operational).Add(additional)

	summary := model.FinancialSummary{
		Salaries:         salaries.InexactFloat64(),
		Fuel:             fuel.InexactFloat64(),
		Maintenance:      maintenance.InexactFloat64(),
		Operational:      operational.InexactFloat64(),
		Additional:       additional.InexactFloat64(),
		TotalCost:        total.InexactFloat64(),
		HouseholdFees:    household.InexactFloat64(),
		CommercialFees:   commercial.InexactFloat64(),
		RecyclingRevenue: recycling.InexactFloat64(),
		Revenue:          revenue.InexactFloat64(),
		ActiveMonths:     months,
	}
	summary.CostRecoveryRate = percent(summary.Revenue, summary.TotalCost)
	summary.CostPerTon = ratio(summary.TotalCost, in.TotalTons)
	summary.CostPerCapita = ratio(summary.TotalCost, in.Population)
	summary.AffordabilityIndex = percent(summary.CostPerCapita, in.Benchmark)

	summary.Areas = make([]model.AreaFinancial, 0, len(ledgers))
	for area, l := range ledgers {
		expense := l.operational.Add(l.salaries)
		row := model.AreaFinancial{
			Area:        area,
			Operational: l.operational.InexactFloat64(),
			Salaries:    l.salaries.InexactFloat64(),
			Expense:     expense.InexactFloat64(),
			Revenue:     l.revenue.InexactFloat64(),
			NetBalance:  l.revenue.Sub(expense).InexactFloat64(),
		}
		row.RecoveryRate = percent(row.Revenue, row.Expense)
		summary.Areas = append(summary.Areas, row)
	}
	sort.Slice(summary.Areas, func(i, j int) bool {
		return summary.Areas[i].Area < summary.Areas[j].Area
	})

	return summary
}
