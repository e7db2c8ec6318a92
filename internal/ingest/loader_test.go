package ingest

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"waste-analytics-service/internal/metrics"
	"waste-analytics-service/internal/model"
)

const tripsCSV = "\ufeffvehicle_id,year,month,net_load,driver\n" +
	"V1,2024,jan,4000,Ali\n" +
	" V2 ,2024,feb,\"2,000\",Omar\n" +
	",,,,\n" +
	"V1,2023,jan,1000,Ali\n"

func TestParseCSV_HeaderRowAndBlankLines(t *testing.T) {
	t.Parallel()

	rows, err := ParseCSV(strings.NewReader(tripsCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("want 3 rows (blank skipped), got %d", len(rows))
	}
	if rows[0]["vehicle_id"] != "V1" {
		t.Fatalf("bom not stripped from header: %v", rows[0])
	}
	if rows[1]["vehicle_id"] != "V2" || rows[1]["net_load"] != "2,000" {
		t.Fatalf("unexpected second row: %v", rows[1])
	}
}

func TestParseCSV_Empty(t *testing.T) {
	t.Parallel()

	rows, err := ParseCSV(strings.NewReader(""))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Fatalf("want empty non-nil rows, got %v", rows)
	}
}

func TestParseXLSX_FirstSheet(t *testing.T) {
	t.Parallel()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetSheetRow(sheet, "A1", &[]any{"رقم المركبة", "السنة", "الوزن الصافي"})
	_ = f.SetSheetRow(sheet, "A2", &[]any{"V9", 2024, 1500})
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	rows, err := ParseXLSX(&buf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 1 || rows[0]["رقم المركبة"] != "V9" || rows[0]["الوزن الصافي"] != "1500" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	if DetectFormat("https://x.example/data.XLSX?dl=1", "") != FormatXLSX {
		t.Fatalf("xlsx extension not detected")
	}
	if DetectFormat("https://x.example/export", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet") != FormatXLSX {
		t.Fatalf("xlsx content type not detected")
	}
	if DetectFormat("https://x.example/pub?output=csv", "text/csv") != FormatCSV {
		t.Fatalf("csv not detected")
	}
}

func TestLoader_LoadsRemoteAndLocalSources(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(tripsCSV))
	}))
	defer srv.Close()

	dir := t.TempDir()
	vehicles := filepath.Join(dir, "vehicles.csv")
	if err := os.WriteFile(vehicles, []byte("vehicle_id,manufacture_year\nV1,2018\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	loader := NewLoader(map[model.Dataset]string{
		model.DatasetTrips:    srv.URL + "/trips.csv",
		model.DatasetVehicles: vehicles,
	}, Options{MaxRetries: 1, RetryInterval: time.Millisecond}, srv.Client(), nil, zerolog.Nop())

	snap, raw, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Trips) != 3 || len(snap.Vehicles) != 1 {
		t.Fatalf("unexpected snapshot: trips=%d vehicles=%d", len(snap.Trips), len(snap.Vehicles))
	}
	if snap.Trips[1].NetLoad != 2000 || snap.Trips[1].VehicleID != "V2" {
		t.Fatalf("unexpected decoded trip: %+v", snap.Trips[1])
	}
	if len(raw[model.DatasetTrips]) != 3 {
		t.Fatalf("raw rows not returned")
	}
	if snap.Fuel == nil || len(snap.Fuel) != 0 {
		t.Fatalf("missing dataset should decode to empty collection")
	}
	if snap.ID.String() == "" || snap.LoadedAt.IsZero() {
		t.Fatalf("snapshot identity not set")
	}
}

func TestLoader_OversizedBodyFails(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(tripsCSV))
	}))
	defer srv.Close()

	loader := NewLoader(map[model.Dataset]string{model.DatasetTrips: srv.URL},
		Options{MaxRetries: 3, RetryInterval: time.Millisecond}, srv.Client(), nil, zerolog.Nop())
	loader.maxBody = int64(len(tripsCSV)) - 1

	_, err := loader.Fetch(context.Background())
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("want ErrBodyTooLarge, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("oversized body should not be retried, got %d calls", calls.Load())
	}

	loader.maxBody = int64(len(tripsCSV))
	raw, err := loader.Fetch(context.Background())
	if err != nil || len(raw[model.DatasetTrips]) != 3 {
		t.Fatalf("body at the limit should load, got err=%v rows=%d", err, len(raw[model.DatasetTrips]))
	}
}

func TestLoader_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(tripsCSV))
	}))
	defer srv.Close()

	loader := NewLoader(map[model.Dataset]string{model.DatasetTrips: srv.URL},
		Options{MaxRetries: 3, RetryInterval: time.Millisecond}, srv.Client(), nil, zerolog.Nop())

	raw, err := loader.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if calls.Load() != 3 || len(raw[model.DatasetTrips]) != 3 {
		t.Fatalf("want 3 calls and 3 rows, got calls=%d rows=%d", calls.Load(), len(raw[model.DatasetTrips]))
	}
}

func TestLoader_ClientErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	m := metrics.New(prometheus.NewRegistry())
	loader := NewLoader(map[model.Dataset]string{model.DatasetTrips: srv.URL},
		Options{MaxRetries: 5, RetryInterval: time.Millisecond}, srv.Client(), m, zerolog.Nop())

	if _, err := loader.Fetch(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("404 should not be retried, got %d calls", calls.Load())
	}
}

func TestLoader_RequiresTrips(t *testing.T) {
	t.Parallel()

	loader := NewLoader(map[model.Dataset]string{model.DatasetVehicles: "x.csv"}, Options{}, nil, nil, zerolog.Nop())
	if _, err := loader.Fetch(context.Background()); !errors.Is(err, ErrMissingTrips) {
		t.Fatalf("want ErrMissingTrips, got %v", err)
	}
}
