package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"waste-analytics-service/internal/metrics"
	"waste-analytics-service/internal/model"
	"waste-analytics-service/internal/record"
)

var (
	ErrMissingTrips = errors.New("trips dataset source is not configured")
	ErrBodyTooLarge = errors.New("dataset response exceeds size limit")
)

const maxBodyBytes = 64 << 20

type Options struct {
	Timeout       time.Duration
	MaxRetries    int
	RetryInterval time.Duration
}

// Loader fetches every configured dataset and turns it into a snapshot.
type Loader struct {
	sources map[model.Dataset]string
	opts    Options
	client  *http.Client
	metrics *metrics.Collector
	log     zerolog.Logger
	maxBody int64
}

func NewLoader(sources map[model.Dataset]string, opts Options, client *http.Client, m *metrics.Collector, log zerolog.Logger) *Loader {
	if client == nil {
		client = &http.Client{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}
	return &Loader{
		sources: sources,
		opts:    opts,
		client:  client,
		metrics: m,
		log:     log.With().Str("component", "ingest").Logger(),
		maxBody: maxBodyBytes,
	}
}

// Fetch downloads and parses all configured datasets concurrently.
func (l *Loader) Fetch(ctx context.Context) (map[model.Dataset][]model.Row, error) {
	if strings.TrimSpace(l.sources[model.DatasetTrips]) == "" {
		return nil, ErrMissingTrips
	}

	raw := make(map[model.Dataset][]model.Row, len(l.sources))
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	for _, ds := range model.AllDatasets {
		src := strings.TrimSpace(l.sources[ds])
		if src == "" {
			continue
		}
		eg.Go(func() error {
			started := time.Now()
			rows, err := l.fetchDataset(egCtx, ds, src)
			if err != nil {
				if l.metrics != nil {
					l.metrics.RecordDatasetError(string(ds))
				}
				return fmt.Errorf("dataset %s: %w", ds, err)
			}
			l.log.Info().
				Str("dataset", string(ds)).
				Int("rows", len(rows)).
				Dur("duration", time.Since(started)).
				Msg("dataset loaded")

			mu.Lock()
			raw[ds] = rows
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return raw, nil
}

// Load fetches every dataset and decodes it into a fresh snapshot.
func (l *Loader) Load(ctx context.Context) (*model.Snapshot, map[model.Dataset][]model.Row, error) {
	raw, err := l.Fetch(ctx)
	if err != nil {
		return nil, nil, err
	}
	return Build(uuid.New(), time.Now().UTC(), raw), raw, nil
}

// Build decodes raw rows into a snapshot carrying the given identity.
func Build(id uuid.UUID, loadedAt time.Time, raw map[model.Dataset][]model.Row) *model.Snapshot {
	snap := record.Decode(raw)
	snap.ID = id
	snap.LoadedAt = loadedAt
	return snap
}

func (l *Loader) fetchDataset(ctx context.Context, ds model.Dataset, src string) ([]model.Row, error) {
	if !isRemote(src) {
		return readFile(src)
	}

	var (
		body        []byte
		contentType string
	)
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = l.opts.RetryInterval
	retries := l.opts.MaxRetries
	if retries < 0 {
		retries = 0
	}

	err := backoff.Retry(
		func() error {
			var fetchErr error
			body, contentType, fetchErr = l.get(ctx, src)
			if fetchErr != nil {
				l.log.Warn().Err(fetchErr).Str("dataset", string(ds)).Msg("dataset fetch failed")
			}
			return fetchErr
		},
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(retries)), ctx),
	)
	if err != nil {
		return nil, err
	}
	return parse(bytes.NewReader(body), DetectFormat(src, contentType))
}

func (l *Loader) get(ctx context.Context, url string) ([]byte, string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, "", backoff.Permanent(err)
		}
		return nil, "", err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBody+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > l.maxBody {
		return nil, "", backoff.Permanent(fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, l.maxBody))
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func readFile(path string) ([]model.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return parse(f, DetectFormat(path, ""))
}

func parse(r io.Reader, format Format) ([]model.Row, error) {
	if format == FormatXLSX {
		return ParseXLSX(r)
	}
	return ParseCSV(r)
}

func isRemote(src string) bool {
	s := strings.ToLower(src)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
