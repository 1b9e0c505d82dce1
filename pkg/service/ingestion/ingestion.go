package ingestion

import (
	"context"
	"fmt"

	logging "github.com/ipfs/go-log/v2"
	"github.com/sfmovies/locations-service/pkg/geo"
	"github.com/sfmovies/locations-service/pkg/identity"
	"github.com/sfmovies/locations-service/pkg/telemetry"
	"github.com/sfmovies/locations-service/pkg/types"
	"go.opentelemetry.io/otel/attribute"
)

var log = logging.Logger("ingestion")

// City bounds the catalog to the area around a center point.
type City struct {
	Center   geo.Point
	RadiusKm float64
	// Hint is appended to every address sent to the geocoder.
	Hint string
}

// Resolver resolves free text locations to coordinates. nil, nil means no
// match.
type Resolver interface {
	Resolve(ctx context.Context, location, cityHint string) (*geo.Point, error)
}

// Controller turns raw feed records into stored catalog records.
type Controller struct {
	store    types.CatalogStore
	resolver Resolver
	city     City
}

// NewController returns a controller storing records in store and resolving
// missing coordinates with resolver.
func NewController(store types.CatalogStore, resolver Resolver, city City) *Controller {
	return &Controller{store: store, resolver: resolver, city: city}
}

const (
	outcomeAdded        = "added"
	outcomeNoLocation   = "no_location"
	outcomeKnown        = "known"
	outcomeNoMatch      = "no_match"
	outcomeOutOfRadius  = "out_of_radius"
	outcomeConcurrently = "race"
)

// Ingest processes records in order. A geocoder failure aborts the run; the
// result then covers the records seen up to the failure, all of which stay
// stored.
func (c *Controller) Ingest(ctx context.Context, records []types.RawRecord) (types.IngestResult, error) {
	ctx, s := telemetry.StartSpan(ctx, "Controller.Ingest")
	defer s.End()

	var res types.IngestResult
	for _, raw := range records {
		res.Seen++
		outcome, err := c.ingest(ctx, raw)
		if err != nil {
			telemetry.Error(s, err, "ingesting record")
			log.Errorw("ingestion aborted", "title", raw.Title, "locations", raw.Locations, "seen", res.Seen, "added", res.Added, "err", err)
			return res, err
		}
		telemetry.IngestedRecords.WithLabelValues(outcome).Inc()
		switch outcome {
		case outcomeAdded:
			res.Added++
		case outcomeNoLocation:
			res.SkippedNoLocation++
		case outcomeKnown:
			res.SkippedKnown++
		case outcomeNoMatch:
			res.SkippedNoMatch++
		case outcomeOutOfRadius:
			res.SkippedOutOfRadius++
		case outcomeConcurrently:
			res.SkippedRace++
		}
	}
	s.SetAttributes(attribute.Int("seen", res.Seen), attribute.Int("added", res.Added))
	log.Infow("ingestion finished",
		"seen", res.Seen,
		"added", res.Added,
		"skipped_no_location", res.SkippedNoLocation,
		"skipped_known", res.SkippedKnown,
		"skipped_no_match", res.SkippedNoMatch,
		"skipped_out_of_radius", res.SkippedOutOfRadius,
		"skipped_race", res.SkippedRace,
	)
	return res, nil
}

func (c *Controller) ingest(ctx context.Context, raw types.RawRecord) (string, error) {
	if !raw.HasLocation() {
		log.Debugw("skipping record without location", "title", raw.Title)
		return outcomeNoLocation, nil
	}

	id := identity.ComputeID(string(raw.Title), string(raw.ReleaseYear), string(raw.Locations))
	known, err := c.store.Has(ctx, id)
	if err != nil {
		return "", fmt.Errorf("checking for record %s: %w", id, err)
	}
	if known {
		return outcomeKnown, nil
	}

	// coordinates carried by the feed are trusted as is
	pt, ok := raw.Point()
	if !ok {
		resolved, err := c.resolver.Resolve(ctx, string(raw.Locations), c.city.Hint)
		if err != nil {
			return "", fmt.Errorf("geocoding %q: %w", raw.Locations, err)
		}
		if resolved == nil {
			log.Debugw("skipping ungeocodable record", "title", raw.Title, "locations", raw.Locations)
			return outcomeNoMatch, nil
		}
		if !geo.WithinRadius(*resolved, c.city.Center, c.city.RadiusKm) {
			log.Debugw("skipping record outside city", "title", raw.Title, "locations", raw.Locations, "lat", resolved.Lat, "lng", resolved.Lng)
			return outcomeOutOfRadius, nil
		}
		pt = *resolved
	}

	written, err := c.store.PutIfAbsent(ctx, types.NewRecord(id, raw, pt))
	if err != nil {
		return "", fmt.Errorf("storing record %s: %w", id, err)
	}
	if !written {
		return outcomeConcurrently, nil
	}
	return outcomeAdded, nil
}
