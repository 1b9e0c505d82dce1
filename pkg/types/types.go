package types

import (
	"context"
	"errors"
	"fmt"

	"github.com/sfmovies/locations-service/pkg/geo"
)

// ErrKeyNotFound means the key did not exist in the store or cache
var ErrKeyNotFound = errors.New("key not found")

// ErrBadConfig is the root of all configuration errors, see [ConfigError]
var ErrBadConfig = errors.New("bad configuration")

// ErrRatingOverflow means a rating increase would exceed the largest rating a
// record can hold.
var ErrRatingOverflow = errors.New("rating increment overflows")

// ConfigError means a required collaborator was not supplied when the service
// was composed.
type ConfigError struct {
	Field string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("%s: missing %s", ErrBadConfig, e.Field)
}

func (e ConfigError) Unwrap() error {
	return ErrBadConfig
}

// ProviderError means an external call (geocoder or open data feed) could not
// be completed or returned an unexpected payload.
type ProviderError struct {
	Provider string
	// Status is the HTTP status code of the failed call, 0 if the call never
	// completed.
	Status int
	// Data is the diagnostic payload returned by the provider, if any.
	Data string
	Err  error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s provider error", e.Provider)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.Status)
	}
	if e.Data != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Data)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err)
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// StoreError means an operation against the persistent store failed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("error accessing redis: %s", e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Record is a film location stored in the catalog. All fields are always
// present once a record has been created with [NewRecord].
type Record struct {
	ID                string  `json:"id"`
	ReleaseYear       string  `json:"release_year"`
	Title             string  `json:"title"`
	Actor1            string  `json:"actor_1"`
	Actor2            string  `json:"actor_2"`
	Actor3            string  `json:"actor_3"`
	Director          string  `json:"director"`
	ProductionCompany string  `json:"production_company"`
	Distributor       string  `json:"distributor"`
	Locations         string  `json:"locations"`
	Lat               float64 `json:"lat"`
	Lng               float64 `json:"lng"`
	Rating            uint64  `json:"rating"`
}

// Point returns the coordinates of the record.
func (r Record) Point() geo.Point {
	return geo.Point{Lat: r.Lat, Lng: r.Lng}
}

// SearchFields returns the text of every field a search query is matched
// against. The identifier and the coordinates are never searchable.
func (r Record) SearchFields() []string {
	return []string{
		r.ReleaseYear,
		r.Title,
		r.Actor1,
		r.Actor2,
		r.Actor3,
		r.Director,
		r.ProductionCompany,
		r.Distributor,
		r.Locations,
	}
}

// NewRecord builds the stored form of a raw feed entry. Absent text fields
// become empty strings and the rating starts at zero.
func NewRecord(id string, raw RawRecord, pt geo.Point) Record {
	return Record{
		ID:                id,
		ReleaseYear:       string(raw.ReleaseYear),
		Title:             string(raw.Title),
		Actor1:            string(raw.Actor1),
		Actor2:            string(raw.Actor2),
		Actor3:            string(raw.Actor3),
		Director:          string(raw.Director),
		ProductionCompany: string(raw.ProductionCompany),
		Distributor:       string(raw.Distributor),
		Locations:         string(raw.Locations),
		Lat:               pt.Lat,
		Lng:               pt.Lng,
	}
}

// CatalogStore owns the mapping from identifier to stored record.
type CatalogStore interface {
	// Get returns the record with the given id or [ErrKeyNotFound].
	Get(ctx context.Context, id string) (Record, error)
	// Has reports whether a record with the given id exists.
	Has(ctx context.Context, id string) (bool, error)
	// PutIfAbsent writes the record unless one already exists under its id.
	// It reports whether the record was written.
	PutIfAbsent(ctx context.Context, record Record) (bool, error)
	// Delete removes a single record, returning [ErrKeyNotFound] if it did not
	// exist.
	Delete(ctx context.Context, id string) error
	// DeleteAll removes the whole catalog.
	DeleteAll(ctx context.Context) error
	// ListIDs returns the identifiers of all records, in no particular order.
	ListIDs(ctx context.Context) ([]string, error)
	// All returns every record, in no particular order.
	All(ctx context.Context) ([]Record, error)
	// IncrementPopularity adds delta to the rating of an existing record and
	// returns the updated record. Callers serialize increments with a
	// [Locker].
	IncrementPopularity(ctx context.Context, id string, delta uint64) (Record, error)
}

// Cache describes a generic cache interface with entries that expire after a
// fixed window from the time they were written.
type Cache[Key, Value any] interface {
	Set(ctx context.Context, key Key, value Value) error
	Get(ctx context.Context, key Key) (Value, error)
}

// Locker is a named mutual exclusion primitive.
type Locker interface {
	// Lock blocks until the lock is acquired or ctx is done. The returned
	// function releases the lock.
	Lock(ctx context.Context) (func(context.Context) error, error)
}

// CoordinateProvider looks up the coordinates of a free text address.
type CoordinateProvider interface {
	// Coordinates returns the best match for the address, or nil if the
	// address does not correspond to any place. Failures are returned as
	// [*ProviderError].
	Coordinates(ctx context.Context, address, cityHint string) (*geo.Point, error)
}

// FeedSource pulls the full dump of raw film location records.
type FeedSource interface {
	Fetch(ctx context.Context) ([]RawRecord, error)
}

type Getter interface {
	// Get returns a single record by id.
	Get(ctx context.Context, id string) (Record, error)
}

type Searcher interface {
	// Random returns a shuffled sample of the catalog.
	Random(ctx context.Context) ([]Record, error)
	// Search returns the records matching every token of the query, most
	// popular first.
	Search(ctx context.Context, query string) ([]Record, error)
	// MostPopular returns the catalog ordered by popularity.
	MostPopular(ctx context.Context) ([]Record, error)
}

type Rater interface {
	// IncreaseRating adds increment to the popularity of a record.
	IncreaseRating(ctx context.Context, id string, increment uint64) (Record, error)
}

// IngestResult summarizes an ingestion run.
type IngestResult struct {
	// Seen is the number of raw records processed before the run finished or
	// aborted.
	Seen int `json:"seen"`
	// Added is the number of records newly stored.
	Added              int `json:"added"`
	SkippedNoLocation  int `json:"skipped_no_location"`
	SkippedKnown       int `json:"skipped_known"`
	SkippedNoMatch     int `json:"skipped_no_match"`
	SkippedOutOfRadius int `json:"skipped_out_of_radius"`
	// SkippedRace counts records that were not known when checked but had
	// been stored by someone else by the time they were written.
	SkippedRace int `json:"skipped_race"`
}

type Ingester interface {
	// Ingest adds the given raw records to the catalog.
	Ingest(ctx context.Context, records []RawRecord) (IngestResult, error)
	// Update pulls the open data feed and ingests it.
	Update(ctx context.Context) (IngestResult, error)
}

type Purger interface {
	// Remove deletes a single record.
	Remove(ctx context.Context, id string) error
	// RemoveAll deletes the whole catalog.
	RemoveAll(ctx context.Context) error
}

// Service is the core methods of the film locations service.
type Service interface {
	Getter
	Searcher
	Rater
	Ingester
	Purger
}
