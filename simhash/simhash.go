// Package simhash computes 64-bit SimHash fingerprints of text for
// near-duplicate detection.
package simhash

import (
	"math/bits"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// DefaultThreshold is the maximum Hamming distance at which two
// fingerprints are considered near-duplicates.
const DefaultThreshold = 3

// Fingerprint is a 64-bit SimHash.
type Fingerprint uint64

// Compute returns the fingerprint of text. Features are unigrams longer
// than two characters plus all bigrams and trigrams of the cleaned text,
// each counted once.
func Compute(text string) Fingerprint {
	var acc [64]int
	for f := range features(clean(text)) {
		h := xxhash.Sum64String(f)
		for i := range 64 {
			if h&(1<<uint(i)) != 0 {
				acc[i]++
			} else {
				acc[i]--
			}
		}
	}

	var fp uint64
	for i, v := range acc {
		if v > 0 {
			fp |= 1 << uint(i)
		}
	}
	return Fingerprint(fp)
}

// Of fingerprints an extracted page from its title, text and
// description.
func Of(title, text, description string) Fingerprint {
	return Compute(title + "\n" + text + "\n" + description)
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b Fingerprint) int {
	return bits.OnesCount64(uint64(a ^ b))
}

// Similar reports whether a and b are within threshold bits of each other.
func Similar(a, b Fingerprint, threshold int) bool {
	return Distance(a, b) <= threshold
}

// String encodes the fingerprint in base 36.
func (f Fingerprint) String() string {
	return strconv.FormatUint(uint64(f), 36)
}

// Parse decodes a base-36 fingerprint.
func Parse(s string) (Fingerprint, error) {
	v, err := strconv.ParseUint(s, 36, 64)
	if err != nil {
		return 0, err
	}
	return Fingerprint(v), nil
}

func clean(text string) []string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)
	return strings.Fields(mapped)
}

func features(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words)*3)
	for i, w := range words {
		if len([]rune(w)) > 2 {
			set[w] = struct{}{}
		}
		if i+1 < len(words) {
			set[w+" "+words[i+1]] = struct{}{}
		}
		if i+2 < len(words) {
			set[w+" "+words[i+1]+" "+words[i+2]] = struct{}{}
		}
	}
	return set
}
