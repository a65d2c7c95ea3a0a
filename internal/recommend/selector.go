// Package recommend maps a mood to a fixed list of tracks.
package recommend

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/adrianngzz/bisonbytes25-v1/domain/entities"
)

// TracksPerMood is the number of tracks recommended for every mood
const TracksPerMood = 3

// ErrUnknownMood is returned when a mood outside the closed enum is looked up
var ErrUnknownMood = errors.New("unknown mood")

//go:embed catalog.yaml
var catalogYAML []byte

var catalog = mustLoadCatalog(catalogYAML)

// Lookup returns the recommendations for m. The returned slice is a copy.
func Lookup(m entities.Mood) ([]entities.Recommendation, error) {
	recs, ok := catalog[m]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMood, m)
	}
	return append([]entities.Recommendation(nil), recs...), nil
}

// Select returns the recommendations for m. Session moods always come from
// the closed enum, so a miss is a programming error and panics rather than
// substituting another mood's tracks.
func Select(m entities.Mood) []entities.Recommendation {
	recs, err := Lookup(m)
	if err != nil {
		panic(fmt.Sprintf("recommend: invariant violated: %v", err))
	}
	return recs
}

func mustLoadCatalog(data []byte) map[entities.Mood][]entities.Recommendation {
	c, err := parseCatalog(data)
	if err != nil {
		panic(fmt.Sprintf("recommend: invalid embedded catalog: %v", err))
	}
	return c
}

func parseCatalog(data []byte) (map[entities.Mood][]entities.Recommendation, error) {
	var raw map[string][]entities.Recommendation
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	c := make(map[entities.Mood][]entities.Recommendation, len(raw))
	for key, recs := range raw {
		m := entities.Mood(key)
		if !m.Valid() {
			return nil, fmt.Errorf("catalog lists unknown mood %q", key)
		}
		if len(recs) != TracksPerMood {
			return nil, fmt.Errorf("mood %q has %d tracks, want %d", key, len(recs), TracksPerMood)
		}
		for i := range recs {
			if err := recs[i].Validate(); err != nil {
				return nil, fmt.Errorf("mood %q track %d: %w", key, i, err)
			}
		}
		c[m] = recs
	}

	for _, m := range entities.AllMoods {
		if _, ok := c[m]; !ok {
			return nil, fmt.Errorf("catalog is missing mood %q", m)
		}
	}
	return c, nil
}
