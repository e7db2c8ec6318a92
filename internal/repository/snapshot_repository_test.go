package repository

import (
	"reflect"
	"testing"

	"waste-analytics-service/internal/model"
)

func TestTripYears_MatchesDecodedTrips(t *testing.T) {
	t.Parallel()

	rows := []model.Row{
		{"year": "2024", "vehicle_id": "V1"},
		{"السنة": "2023", "vehicle_id": "V1"},
		{"العام": "٢٠٢٢", "vehicle_id": "V2"},
		{"date": "2021-05-03 10:15:00", "vehicle_id": "V2"},
		{"vehicle_id": "V3"},
	}

	got := tripYears(rows)
	want := []string{"2024", "2023", "2022", "2021", ""}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tripYears want=%v got=%v", want, got)
	}
}
