package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"waste-analytics-service/internal/model"
	"waste-analytics-service/internal/record"
)

var ErrNoSnapshot = errors.New("no persisted snapshot")

const insertBatchSize = 500

type snapshotRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	LoadedAt  time.Time
	RowCounts string `gorm:"type:jsonb"`
}

func (snapshotRecord) TableName() string { return "dataset_snapshots" }

type rowRecord struct {
	ID         int64     `gorm:"primaryKey"`
	SnapshotID uuid.UUID `gorm:"type:uuid"`
	Dataset    string
	Position   int
	Year       string
	Payload    string `gorm:"type:jsonb"`
}

func (rowRecord) TableName() string { return "dataset_rows" }

// RawSnapshot is the undecoded form of a snapshot as it is persisted.
type RawSnapshot struct {
	ID       uuid.UUID
	LoadedAt time.Time
	Rows     map[model.Dataset][]model.Row
}

type SnapshotHistory struct {
	ID          uuid.UUID      `json:"id"`
	LoadedAt    time.Time      `json:"loaded_at"`
	RowCounts   map[string]int `json:"row_counts"`
	TripsByYear map[string]int `json:"trips_by_year"`
}

type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save stores every raw row of the snapshot in a single transaction.
func (r *SnapshotRepository) Save(ctx context.Context, raw RawSnapshot) error {
	counts := make(map[string]int, len(raw.Rows))
	for ds, rows := range raw.Rows {
		counts[string(ds)] = len(rows)
	}
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("encode row counts: %w", err)
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&snapshotRecord{
			ID:        raw.ID,
			LoadedAt:  raw.LoadedAt,
			RowCounts: string(countsJSON),
		}).Error; err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}

		for _, ds := range model.AllDatasets {
			rows := raw.Rows[ds]
			if len(rows) == 0 {
				continue
			}
			var years []string
			if ds == model.DatasetTrips {
				years = tripYears(rows)
			}
			records := make([]rowRecord, 0, len(rows))
			for i, row := range rows {
				payload, err := json.Marshal(row)
				if err != nil {
					return fmt.Errorf("encode %s row %d: %w", ds, i, err)
				}
				rec := rowRecord{
					SnapshotID: raw.ID,
					Dataset:    string(ds),
					Position:   i,
					Payload:    string(payload),
				}
				if years != nil {
					rec.Year = years[i]
				}
				records = append(records, rec)
			}
			if err := tx.CreateInBatches(records, insertBatchSize).Error; err != nil {
				return fmt.Errorf("insert %s rows: %w", ds, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if r.relationExists(ctx, "mv_trip_yearly") {
		if err := r.db.WithContext(ctx).Exec("REFRESH MATERIALIZED VIEW mv_trip_yearly").Error; err != nil {
			return fmt.Errorf("refresh mv_trip_yearly: %w", err)
		}
	}
	return nil
}

// tripYears resolves the year of each trip row the same way decoding does,
// including the header aliases and the weighing timestamp fallback.
func tripYears(rows []model.Row) []string {
	trips := record.DecodeTrips(rows)
	years := make([]string, len(trips))
	for i, t := range trips {
		years[i] = t.Year
	}
	return years
}

// Latest returns the most recently loaded snapshot.
func (r *SnapshotRepository) Latest(ctx context.Context) (*RawSnapshot, error) {
	var snap snapshotRecord
	err := r.db.WithContext(ctx).
		Order("loaded_at DESC").
		Limit(1).
		Take(&snap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}

	var rows []rowRecord
	if err := r.db.WithContext(ctx).
		Where("snapshot_id = ?", snap.ID).
		Order("dataset, position").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	raw := &RawSnapshot{
		ID:       snap.ID,
		LoadedAt: snap.LoadedAt,
		Rows:     make(map[model.Dataset][]model.Row),
	}
	for _, rec := range rows {
		row := model.Row{}
		if err := json.Unmarshal([]byte(rec.Payload), &row); err != nil {
			return nil, fmt.Errorf("decode %s row %d: %w", rec.Dataset, rec.Position, err)
		}
		ds := model.Dataset(rec.Dataset)
		raw.Rows[ds] = append(raw.Rows[ds], row)
	}
	return raw, nil
}

// History lists recent snapshots with their trip counts per year.
func (r *SnapshotRepository) History(ctx context.Context, limit int) ([]SnapshotHistory, error) {
	var snaps []snapshotRecord
	if err := r.db.WithContext(ctx).
		Order("loaded_at DESC").
		Limit(limit).
		Find(&snaps).Error; err != nil {
		return nil, err
	}

	result := make([]SnapshotHistory, 0, len(snaps))
	if len(snaps) == 0 {
		return result, nil
	}

	ids := make([]uuid.UUID, 0, len(snaps))
	for _, s := range snaps {
		ids = append(ids, s.ID)
	}

	type yearRow struct {
		SnapshotID uuid.UUID
		Year       *string
		TotalTrips int
	}
	var years []yearRow
	if r.relationExists(ctx, "mv_trip_yearly") {
		if err := r.db.WithContext(ctx).
			Table("mv_trip_yearly").
			Select("snapshot_id, year, total_trips").
			Where("snapshot_id IN ?", ids).
			Scan(&years).Error; err != nil {
			return nil, err
		}
	}

	byYear := make(map[uuid.UUID]map[string]int, len(snaps))
	for _, y := range years {
		if y.Year == nil {
			continue
		}
		if byYear[y.SnapshotID] == nil {
			byYear[y.SnapshotID] = make(map[string]int)
		}
		byYear[y.SnapshotID][*y.Year] = y.TotalTrips
	}

	for _, s := range snaps {
		counts := map[string]int{}
		_ = json.Unmarshal([]byte(s.RowCounts), &counts)
		trips := byYear[s.ID]
		if trips == nil {
			trips = map[string]int{}
		}
		result = append(result, SnapshotHistory{
			ID:          s.ID,
			LoadedAt:    s.LoadedAt,
			RowCounts:   counts,
			TripsByYear: trips,
		})
	}
	return result, nil
}

// Prune deletes all but the keep most recent snapshots.
func (r *SnapshotRepository) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	keepIDs := r.db.WithContext(ctx).
		Table("dataset_snapshots").
		Select("id").
		Order("loaded_at DESC").
		Limit(keep)

	res := r.db.WithContext(ctx).
		Where("id NOT IN (?)", keepIDs).
		Delete(&snapshotRecord{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *SnapshotRepository) relationExists(ctx context.Context, name string) bool {
	var exists bool
	err := r.db.WithContext(ctx).
		Raw(`SELECT EXISTS (
			SELECT 1
			FROM pg_catalog.pg_class c
			JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
			WHERE c.relname = ? AND c.relkind IN ('r','m','v') AND n.nspname = 'public'
		)`, name).
		Scan(&exists).Error
	if err != nil {
		return false
	}
	return exists
}
