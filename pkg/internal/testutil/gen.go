package testutil

import (
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"math/rand/v2"

	"github.com/sfmovies/locations-service/pkg/geo"
	"github.com/sfmovies/locations-service/pkg/identity"
	"github.com/sfmovies/locations-service/pkg/types"
)

// SanFrancisco is the city center used by tests.
var SanFrancisco = geo.Point{Lat: 37.777, Lng: -122.444}

func RandomBytes(size int) []byte {
	bytes := make([]byte, size)
	_, _ = crand.Read(bytes)
	return bytes
}

func RandomString(size int) string {
	return hex.EncodeToString(RandomBytes(size))
}

// RandomPoint returns a point within a few kilometers of the city center.
func RandomPoint() geo.Point {
	return geo.Point{
		Lat: SanFrancisco.Lat + (rand.Float64()-0.5)*0.05,
		Lng: SanFrancisco.Lng + (rand.Float64()-0.5)*0.05,
	}
}

// RandomRawRecord returns a feed entry with location text but no
// coordinates.
func RandomRawRecord() types.RawRecord {
	return types.RawRecord{
		ReleaseYear:       types.Text(fmt.Sprint(1950 + rand.IntN(70))),
		Title:             types.Text("Film " + RandomString(4)),
		Actor1:            types.Text("Actor " + RandomString(4)),
		Director:          types.Text("Director " + RandomString(4)),
		ProductionCompany: types.Text("Studio " + RandomString(4)),
		Locations:         types.Text(fmt.Sprintf("%d Market Street", rand.IntN(3000))),
	}
}

// RandomRecord returns a stored record with a computed id.
func RandomRecord() types.Record {
	raw := RandomRawRecord()
	id := identity.ComputeID(string(raw.Title), string(raw.ReleaseYear), string(raw.Locations))
	return types.NewRecord(id, raw, RandomPoint())
}

// RandomRecords returns n distinct records.
func RandomRecords(n int) []types.Record {
	records := make([]types.Record, 0, n)
	for range n {
		records = append(records, RandomRecord())
	}
	return records
}

// RandomRawRecords returns n distinct feed entries carrying no coordinates.
func RandomRawRecords(n int) []types.RawRecord {
	records := make([]types.RawRecord, 0, n)
	for range n {
		records = append(records, RandomRawRecord())
	}
	return records
}
