package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"waste-analytics-service/internal/ingest"
	"waste-analytics-service/internal/metrics"
	"waste-analytics-service/internal/model"
	"waste-analytics-service/internal/repository"
)

type SnapshotLoader interface {
	Load(ctx context.Context) (*model.Snapshot, map[model.Dataset][]model.Row, error)
}

type SnapshotRepository interface {
	Save(ctx context.Context, raw repository.RawSnapshot) error
	Latest(ctx context.Context) (*repository.RawSnapshot, error)
	History(ctx context.Context, limit int) ([]repository.SnapshotHistory, error)
	Prune(ctx context.Context, keep int) (int64, error)
}

type SnapshotPublisher interface {
	Current() *model.Snapshot
	Publish(snap *model.Snapshot)
}

// IngestionService moves datasets from their sources into the live snapshot.
// repo may be nil, in which case nothing is persisted.
type IngestionService struct {
	loader  SnapshotLoader
	repo    SnapshotRepository
	store   SnapshotPublisher
	keep    int
	metrics *metrics.Collector
	log     zerolog.Logger

	mu sync.Mutex
}

func NewIngestionService(loader SnapshotLoader, repo SnapshotRepository, store SnapshotPublisher, keep int, m *metrics.Collector, log zerolog.Logger) *IngestionService {
	return &IngestionService{
		loader:  loader,
		repo:    repo,
		store:   store,
		keep:    keep,
		metrics: m,
		log:     log.With().Str("component", "ingestion").Logger(),
	}
}

// Bootstrap loads from the sources and falls back to the newest persisted
// snapshot when the sources cannot be read.
func (s *IngestionService) Bootstrap(ctx context.Context) error {
	_, err := s.reload(ctx)
	if err == nil {
		return nil
	}
	s.log.Warn().Err(err).Msg("loading datasets from sources failed")

	if s.repo == nil {
		return err
	}
	raw, latestErr := s.repo.Latest(ctx)
	s.recordLoad("database", latestErr)
	if latestErr != nil {
		if errors.Is(latestErr, repository.ErrNoSnapshot) {
			return fmt.Errorf("no datasets available: %w", err)
		}
		return fmt.Errorf("load persisted snapshot: %w", latestErr)
	}

	snap := ingest.Build(raw.ID, raw.LoadedAt, raw.Rows)
	s.publish(snap)
	s.log.Info().Str("snapshot_id", snap.ID.String()).Msg("serving persisted snapshot")
	return nil
}

// Reload refreshes the live snapshot from the sources. Admins only.
func (s *IngestionService) Reload(ctx context.Context, principal model.Principal) (*model.SnapshotInfo, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	snap, err := s.reload(ctx)
	if err != nil {
		return nil, err
	}
	info := snap.Info()
	return &info, nil
}

func (s *IngestionService) History(ctx context.Context, principal model.Principal, limit int) ([]repository.SnapshotHistory, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if s.repo == nil {
		return []repository.SnapshotHistory{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.History(ctx, limit)
}

func (s *IngestionService) reload(ctx context.Context) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, raw, err := s.loader.Load(ctx)
	s.recordLoad("source", err)
	if err != nil {
		return nil, fmt.Errorf("load datasets: %w", err)
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, repository.RawSnapshot{ID: snap.ID, LoadedAt: snap.LoadedAt, Rows: raw}); err != nil {
			s.log.Error().Err(err).Str("snapshot_id", snap.ID.String()).Msg("persist snapshot")
		} else if pruned, err := s.repo.Prune(ctx, s.keep); err != nil {
			s.log.Warn().Err(err).Msg("prune snapshots")
		} else if pruned > 0 {
			s.log.Debug().Int64("pruned", pruned).Msg("old snapshots removed")
		}
	}

	s.publish(snap)
	s.log.Info().
		Str("snapshot_id", snap.ID.String()).
		Int("trips", len(snap.Trips)).
		Strs("years", snap.Years()).
		Msg("snapshot published")
	return snap, nil
}

func (s *IngestionService) publish(snap *model.Snapshot) {
	s.store.Publish(snap)
	if s.metrics == nil {
		return
	}
	counts := make(map[string]int, len(snap.RowCounts))
	for ds, n := range snap.RowCounts {
		counts[string(ds)] = n
	}
	s.metrics.RecordDatasetRows(counts)
}

func (s *IngestionService) recordLoad(origin string, err error) {
	if s.metrics != nil {
		s.metrics.RecordSnapshotLoad(origin, err)
	}
}
