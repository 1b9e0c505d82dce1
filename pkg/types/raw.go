package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/sfmovies/locations-service/pkg/geo"
)

// RawRecord is a film location as delivered by the open data feed. Any field
// may be missing, and numeric fields may arrive as strings.
type RawRecord struct {
	ReleaseYear       Text          `json:"release_year"`
	Title             Text          `json:"title"`
	Actor1            Text          `json:"actor_1"`
	Actor2            Text          `json:"actor_2"`
	Actor3            Text          `json:"actor_3"`
	Director          Text          `json:"director"`
	ProductionCompany Text          `json:"production_company"`
	Distributor       Text          `json:"distributor"`
	Locations         Text          `json:"locations"`
	Lat               OptionalFloat `json:"lat"`
	Lng               OptionalFloat `json:"lng"`
}

// UnmarshalJSON decodes an entry that is not a JSON object as an empty record,
// which ingestion then skips for lack of a location.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	type plain RawRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			*r = RawRecord{}
			return nil
		}
		return err
	}
	*r = RawRecord(p)
	return nil
}

// HasLocation reports whether the record carries location text.
func (r RawRecord) HasLocation() bool {
	return strings.TrimSpace(string(r.Locations)) != ""
}

// Point returns the coordinates carried by the record, if it has both.
func (r RawRecord) Point() (geo.Point, bool) {
	if !r.Lat.Valid || !r.Lng.Valid {
		return geo.Point{}, false
	}
	return geo.Point{Lat: r.Lat.Value, Lng: r.Lng.Value}, true
}

// Text is a feed field decoded from a JSON string or number. Anything else,
// including null, decodes to the empty string.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*t = Text(n.String())
		return nil
	}
	*t = ""
	return nil
}

// OptionalFloat is a feed number that may be absent, null, empty or encoded as
// a string. Anything that does not parse as a number is treated as absent.
type OptionalFloat struct {
	Value float64
	Valid bool
}

// Float returns a present OptionalFloat.
func Float(v float64) OptionalFloat {
	return OptionalFloat{Value: v, Valid: true}
}

func (f *OptionalFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*f = OptionalFloat{}
		return nil
	}
	*f = OptionalFloat{Value: v, Valid: true}
	return nil
}

func (f OptionalFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
