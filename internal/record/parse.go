package record

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"waste-analytics-service/internal/model"
)

var digitReplacer = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٫", ".", "٬", "", ",", "",
)

// ParseFloat coerces a spreadsheet value to a number. Anything that does not
// parse, including NaN, infinities and numbers followed by unit text, becomes 0.
func ParseFloat(value any) float64 {
	var f float64
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		f = parseNumericString(v)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

var numericCell = regexp.MustCompile(`^([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)\s*(.*)$`)

// numericSuffixes are trailing currency and percent markers accepted after a
// number. Any other trailing text makes the cell unparsable.
var numericSuffixes = map[string]struct{}{
	"sar": {}, "ريال": {}, "ر.س": {}, "ر.س.": {}, "usd": {}, "$": {}, "%": {},
}

func parseNumericString(raw string) float64 {
	cleaned := digitReplacer.Replace(strings.TrimSpace(raw))
	m := numericCell.FindStringSubmatch(cleaned)
	if m == nil {
		return 0
	}
	if suffix := strings.ToLower(strings.TrimSpace(m[2])); suffix != "" {
		if _, ok := numericSuffixes[suffix]; !ok {
			return 0
		}
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return f
}

// String renders a spreadsheet value as trimmed text. Whole numbers lose their
// fractional part so numeric years and ids compare equal to their text form.
func String(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return strings.TrimSpace(v.String())
	default:
		return ""
	}
}

// Year normalizes a year cell: "2024", 2024 and "2024.0" all become "2024".
func Year(value any) string {
	s := digitReplacer.Replace(String(value))
	if s == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
}

func Time(value any) *time.Time {
	s := digitReplacer.Replace(String(value))
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.Join(strings.Fields(key), "_")
}

// lookup returns the value of the first alias present in the row.
func lookup(row model.Row, aliases []string) (any, bool) {
	for _, alias := range aliases {
		if v, ok := row[alias]; ok {
			return v, true
		}
	}
	normalized := make(map[string]any, len(row))
	for k, v := range row {
		normalized[normalizeKey(k)] = v
	}
	for _, alias := range aliases {
		if v, ok := normalized[normalizeKey(alias)]; ok {
			return v, true
		}
	}
	return nil, false
}

func text(row model.Row, aliases []string) string {
	v, _ := lookup(row, aliases)
	return String(v)
}

func number(row model.Row, aliases []string) float64 {
	v, _ := lookup(row, aliases)
	return ParseFloat(v)
}

func year(row model.Row, aliases []string) string {
	v, _ := lookup(row, aliases)
	return Year(v)
}
