package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jengzang/landsat-go/internal/datastore"
	"github.com/jengzang/landsat-go/internal/models"
	"github.com/jengzang/landsat-go/internal/prune"
	"github.com/jengzang/landsat-go/internal/spatial"
	"github.com/jengzang/landsat-go/internal/stats"
	"github.com/jengzang/landsat-go/internal/tuning"
)

var (
	// ErrInvalidRequest marks errors caused by the caller's input
	ErrInvalidRequest = errors.New("invalid request")
)

// SampleService handles business logic for the sample store
type SampleService struct {
	store  *datastore.Store
	tuning tuning.Tuning
}

// NewSampleService creates a new sample service
func NewSampleService(store *datastore.Store, t tuning.Tuning) *SampleService {
	return &SampleService{
		store:  store,
		tuning: t,
	}
}

// ListBodies returns every known body with its sample count
func (s *SampleService) ListBodies() models.BodyList {
	snapshot := s.store.CopyAll()
	list := models.BodyList{Bodies: []models.BodyCount{}}
	for _, body := range snapshot.BodiesKnown() {
		n := snapshot.CountForBody(body)
		list.Bodies = append(list.Bodies, models.BodyCount{Body: body, Count: n})
		list.Total += n
	}
	return list
}

// CountForBody returns the number of samples stored for body
func (s *SampleService) CountForBody(body string) models.BodyCount {
	return models.BodyCount{Body: body, Count: s.store.CountForBody(body)}
}

// Average returns the mean elevation of body inside rect
func (s *SampleService) Average(body string, rect datastore.Rect) models.AverageResult {
	agg := s.store.CopyForBody(body).Aggregate(body, rect)
	res := models.AverageResult{Body: body, Rect: rect, Count: agg.Count}
	if avg := agg.Average(); datastore.HasData(avg) {
		res.Average = &avg
		res.HasData = true
	}
	return res
}

// Samples returns up to limit samples of body inside rect, read from a
// private copy so rendering never holds the store lock
func (s *SampleService) Samples(body string, rect datastore.Rect, limit int) models.SampleList {
	copied := s.store.CopyForBody(body)
	fetch := limit
	if limit > 0 {
		fetch = limit + 1
	}
	samples := copied.Samples(body, rect, fetch)

	list := models.SampleList{Body: body, Samples: make([]models.SampleView, 0, len(samples))}
	if limit > 0 && len(samples) > limit {
		samples = samples[:limit]
		list.Truncated = true
	}
	for _, smp := range samples {
		list.Samples = append(list.Samples, models.SampleView{
			Latitude:  smp.Latitude(),
			Longitude: smp.Longitude(),
			Elevation: smp.Elevation(),
		})
	}
	return list
}

// Summary returns the elevation distribution of body
func (s *SampleService) Summary(body string) models.BodySummary {
	copied := s.store.CopyForBody(body)
	elevations := make([]float64, 0, copied.CountForBody(body))
	copied.Range(body, datastore.Everywhere, func(smp spatial.Sample) bool {
		elevations = append(elevations, smp.Elevation())
		return true
	})
	return models.BodySummary{Body: body, Summary: stats.Summarize(elevations)}
}

// Status returns the snapshot state of the store
func (s *SampleService) Status() models.StoreStatus {
	return models.StoreStatus{
		State:   s.store.State().String(),
		Pending: s.store.Pending(),
		Total:   s.store.CountAll(),
	}
}

// Ingest validates readings and writes them in order. Readings without a
// body are rejected; the store itself drops duplicates and non-finite values.
func (s *SampleService) Ingest(readings []datastore.Reading) (models.IngestResult, error) {
	if len(readings) == 0 {
		return models.IngestResult{}, fmt.Errorf("%w: no readings", ErrInvalidRequest)
	}

	valid := make([]datastore.Reading, 0, len(readings))
	for _, r := range readings {
		r.Body = strings.TrimSpace(r.Body)
		if r.Body == "" {
			continue
		}
		valid = append(valid, r)
	}

	s.store.WriteBatch(valid)
	return models.IngestResult{
		Accepted: len(valid),
		Rejected: len(readings) - len(valid),
		Buffered: s.store.State() == datastore.Frozen,
	}, nil
}

// Prune runs a prune job with policy, or the configured one when empty
func (s *SampleService) Prune(ctx context.Context, policy string) (prune.Result, error) {
	if policy == "" {
		policy = s.tuning.PrunePolicy
	}
	p, err := prune.GetPruner(policy, s.tuning)
	if err != nil {
		return prune.Result{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return prune.Run(ctx, s.store, p)
}

// Save persists the store
func (s *SampleService) Save(ctx context.Context) error {
	return s.store.SaveToStorage(ctx)
}
