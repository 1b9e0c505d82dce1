package identity

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize reduces text to a canonical ASCII form. Accented letters are
// decomposed and lose their marks, anything else outside ASCII is dropped, so
// composed and decomposed encodings of the same text normalize identically.
func Normalize(s string) string {
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		// the chain above only removes runes, so this is unreachable in
		// practice; fall back to plain ASCII filtering
		return strings.Map(func(r rune) rune {
			if r > unicode.MaxASCII {
				return -1
			}
			return r
		}, s)
	}
	return out
}

// ComputeID derives the catalog identifier of a film location from its
// title, release year and location text. The same inputs always produce the
// same identifier, which is what deduplicates repeated feed entries.
func ComputeID(title, releaseYear, location string) string {
	value := fmt.Sprintf("%s:%s:%s", Normalize(title), Normalize(releaseYear), Normalize(location))
	sum := md5.Sum([]byte(value))
	return hex.EncodeToString(sum[:])
}
