package service

import (
	"context"
	"fmt"

	logging "github.com/ipfs/go-log/v2"
	"github.com/sfmovies/locations-service/pkg/telemetry"
	"github.com/sfmovies/locations-service/pkg/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var log = logging.Logger("service")

// LocationService implements the film locations service on top of its
// collaborators.
type LocationService struct {
	store    types.CatalogStore
	searcher types.Searcher
	rater    types.Rater
	ingester Ingester
	feed     types.FeedSource
}

var _ types.Service = (*LocationService)(nil)

// Ingester adds raw feed records to the catalog.
type Ingester interface {
	Ingest(ctx context.Context, records []types.RawRecord) (types.IngestResult, error)
}

// NewLocationService composes the service.
func NewLocationService(store types.CatalogStore, searcher types.Searcher, rater types.Rater, ingester Ingester, feed types.FeedSource) *LocationService {
	return &LocationService{
		store:    store,
		searcher: searcher,
		rater:    rater,
		ingester: ingester,
		feed:     feed,
	}
}

func (ls *LocationService) Get(ctx context.Context, id string) (types.Record, error) {
	ctx, s := telemetry.StartSpan(ctx, "LocationService.Get", trace.WithAttributes(attribute.String("id", id)))
	defer s.End()
	return ls.store.Get(ctx, id)
}

func (ls *LocationService) Random(ctx context.Context) ([]types.Record, error) {
	return ls.searcher.Random(ctx)
}

func (ls *LocationService) Search(ctx context.Context, query string) ([]types.Record, error) {
	return ls.searcher.Search(ctx, query)
}

func (ls *LocationService) MostPopular(ctx context.Context) ([]types.Record, error) {
	return ls.searcher.MostPopular(ctx)
}

func (ls *LocationService) IncreaseRating(ctx context.Context, id string, increment uint64) (types.Record, error) {
	return ls.rater.IncreaseRating(ctx, id, increment)
}

func (ls *LocationService) Ingest(ctx context.Context, records []types.RawRecord) (types.IngestResult, error) {
	return ls.ingester.Ingest(ctx, records)
}

// Update pulls the whole open data feed and ingests it.
func (ls *LocationService) Update(ctx context.Context) (types.IngestResult, error) {
	ctx, s := telemetry.StartSpan(ctx, "LocationService.Update")
	defer s.End()

	records, err := ls.feed.Fetch(ctx)
	if err != nil {
		telemetry.Error(s, err, "fetching feed")
		return types.IngestResult{}, fmt.Errorf("fetching feed: %w", err)
	}
	log.Infow("updating catalog", "records", len(records))
	return ls.ingester.Ingest(ctx, records)
}

func (ls *LocationService) Remove(ctx context.Context, id string) error {
	if err := ls.store.Delete(ctx, id); err != nil {
		return err
	}
	log.Infow("removed record", "id", id)
	return nil
}

func (ls *LocationService) RemoveAll(ctx context.Context) error {
	if err := ls.store.DeleteAll(ctx); err != nil {
		return err
	}
	log.Warn("removed the whole catalog")
	return nil
}
