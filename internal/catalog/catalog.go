// Package catalog resolves incentive-landscape statistics at serving time.
// The deployed contract makes the source explicit: trust caller-supplied
// values (no Source configured), recompute from a co-located catalog file,
// or fetch a remote catalog behind a circuit breaker.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/propsignal/incentive-recommender/internal/dataset"
	"github.com/propsignal/incentive-recommender/internal/features"
	"github.com/propsignal/incentive-recommender/pkg/types"
)

// Source provides landscape statistics for payloads that do not carry them.
type Source interface {
	Landscape(ctx context.Context) (features.LandscapeStats, error)
}

// FromConfig builds a Source from the landscape config. A nil Source means
// caller-supplied values are trusted.
func FromConfig(cfg types.LandscapeConfig) (Source, error) {
	switch cfg.Source {
	case "", types.LandscapePayload:
		return nil, nil
	case types.LandscapeFile:
		if cfg.CatalogPath == "" {
			return nil, fmt.Errorf("landscape.catalogPath is required when source is %q", types.LandscapeFile)
		}
		return &FileSource{Path: cfg.CatalogPath}, nil
	case types.LandscapeHTTP:
		if cfg.CatalogURL == "" {
			return nil, fmt.Errorf("landscape.catalogURL is required when source is %q", types.LandscapeHTTP)
		}
		return NewHTTPSource(cfg.CatalogURL), nil
	default:
		return nil, fmt.Errorf("unknown landscape source %q", cfg.Source)
	}
}

// FileSource recomputes landscape statistics from a co-located incentive
// catalog CSV, applying the same cleaning as the trainer.
type FileSource struct {
	Path string
}

// Landscape loads, cleans, and aggregates the catalog file.
func (s *FileSource) Landscape(ctx context.Context) (features.LandscapeStats, error) {
	frame, err := dataset.ReadCSV(s.Path)
	if err != nil {
		return features.LandscapeStats{}, err
	}
	clean, err := dataset.Clean(frame, types.RequiredIncentiveColumns, "incentive catalog")
	if err != nil {
		return features.LandscapeStats{}, err
	}
	return features.ComputeLandscape(clean)
}

// catalogEntry is one program in the remote catalog response.
type catalogEntry struct {
	IncentiveProgram string  `json:"incentive_program"`
	IncentiveAmount  float64 `json:"incentive_amount"`
}

// HTTPSource fetches the catalog from a remote endpoint. Calls run through
// a circuit breaker so a flapping catalog service fails fast instead of
// stalling every recommendation request.
type HTTPSource struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewHTTPSource creates an HTTPSource with a 5s request timeout and a
// breaker that opens after 5 consecutive failures.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "landscape-catalog",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// Landscape fetches the remote catalog and aggregates it.
func (s *HTTPSource) Landscape(ctx context.Context) (features.LandscapeStats, error) {
	out, err := s.breaker.Execute(func() (any, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		return features.LandscapeStats{}, err
	}
	return out.(features.LandscapeStats), nil
}

func (s *HTTPSource) fetch(ctx context.Context) (features.LandscapeStats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return features.LandscapeStats{}, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return features.LandscapeStats{}, fmt.Errorf("fetching catalog: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return features.LandscapeStats{}, fmt.Errorf("catalog endpoint returned %d", resp.StatusCode)
	}

	var entries []catalogEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return features.LandscapeStats{}, fmt.Errorf("decoding catalog: %w", err)
	}
	if len(entries) == 0 {
		return features.LandscapeStats{}, fmt.Errorf("catalog endpoint returned no programs")
	}

	stats := features.LandscapeStats{MaxAmount: entries[0].IncentiveAmount, MinAmount: entries[0].IncentiveAmount}
	programs := make(map[string]struct{}, len(entries))
	sum := 0.0
	for _, e := range entries {
		sum += e.IncentiveAmount
		if e.IncentiveAmount > stats.MaxAmount {
			stats.MaxAmount = e.IncentiveAmount
		}
		if e.IncentiveAmount < stats.MinAmount {
			stats.MinAmount = e.IncentiveAmount
		}
		programs[e.IncentiveProgram] = struct{}{}
	}
	stats.AvgAmount = sum / float64(len(entries))
	stats.ProgramCount = len(programs)
	return stats, nil
}
