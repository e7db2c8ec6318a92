package model

import (
	"strconv"
	"strings"
)

var MonthCodes = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

var monthAliases = map[string]string{
	"january": "jan", "february": "feb", "march": "mar", "april": "apr",
	"june": "jun", "july": "jul", "august": "aug", "september": "sep",
	"sept": "sep", "october": "oct", "november": "nov", "december": "dec",

	"يناير": "jan", "فبراير": "feb", "مارس": "mar", "أبريل": "apr", "ابريل": "apr",
	"مايو": "may", "يونيو": "jun", "يوليو": "jul", "أغسطس": "aug", "اغسطس": "aug",
	"سبتمبر": "sep", "أكتوبر": "oct", "اكتوبر": "oct", "نوفمبر": "nov", "ديسمبر": "dec",

	"كانون الثاني": "jan", "شباط": "feb", "آذار": "mar", "اذار": "mar", "نيسان": "apr",
	"أيار": "may", "ايار": "may", "حزيران": "jun", "تموز": "jul", "آب": "aug", "اب": "aug",
	"أيلول": "sep", "ايلول": "sep", "تشرين الأول": "oct", "تشرين الاول": "oct",
	"تشرين الثاني": "nov", "كانون الأول": "dec", "كانون الاول": "dec",
}

// NormalizeMonth maps month numbers and English or Arabic month names to a
// three-letter code. Unrecognized values are returned trimmed and lower-cased.
func NormalizeMonth(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return ""
	}
	if n, err := strconv.Atoi(value); err == nil {
		if n >= 1 && n <= 12 {
			return MonthCodes[n-1]
		}
		return value
	}
	if code, ok := monthAliases[value]; ok {
		return code
	}
	return value
}

// MonthIndex returns the zero-based calendar index of a month code, or -1.
func MonthIndex(code string) int {
	for i, c := range MonthCodes {
		if c == code {
			return i
		}
	}
	return -1
}

// Filter restricts trips to a set of vehicles and months. Empty sets do not restrict.
type Filter struct {
	Vehicles map[string]struct{}
	Months   map[string]struct{}
}

func NewFilter(vehicles, months []string) Filter {
	f := Filter{
		Vehicles: make(map[string]struct{}),
		Months:   make(map[string]struct{}),
	}
	for _, v := range vehicles {
		if v = strings.TrimSpace(v); v != "" {
			f.Vehicles[v] = struct{}{}
		}
	}
	for _, m := range months {
		if m = NormalizeMonth(m); m != "" {
			f.Months[m] = struct{}{}
		}
	}
	return f
}

func (f Filter) HasVehicles() bool {
	return len(f.Vehicles) > 0
}

func (f Filter) HasMonths() bool {
	return len(f.Months) > 0
}

func (f Filter) AllowsVehicle(id string) bool {
	if !f.HasVehicles() {
		return true
	}
	_, ok := f.Vehicles[id]
	return ok
}

func (f Filter) AllowsMonth(month string) bool {
	if !f.HasMonths() {
		return true
	}
	_, ok := f.Months[strings.ToLower(month)]
	return ok
}

// ActiveMonths is the number of months salaries and capacity are pro-rated over.
func (f Filter) ActiveMonths() int {
	if f.HasMonths() {
		return len(f.Months)
	}
	return 12
}

// Query is the full, immutable filter state of one dashboard computation.
type Query struct {
	Year        string
	CompareYear string
	Filter      Filter
}

func (q Query) HasComparison() bool {
	return q.CompareYear != ""
}
