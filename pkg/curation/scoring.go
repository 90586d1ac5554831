package curation

import (
	"strings"

	"mythos-curation-be/pkg/corpus"
)

// Affinity weights. These are the field contract, not tunables: themes are
// weighted above motifs because thematic alignment is the stated purpose of
// the feature, while motifs are surface-level subject matter.
const (
	WeightCentury = 1.0
	WeightMood    = 2.0
	WeightMotif   = 1.0
	WeightTheme   = 1.5
)

// Score computes the affinity between one criteria object and one artwork.
// Pure and deterministic; never returns NaN. A zero score means no match and
// is still a valid ranking input — exclusion is the ranker's concern, never
// the scorer's. Scores are only comparable within one scoring pass.
func Score(c Criteria, a corpus.Artwork) float64 {
	score := 0.0

	for _, century := range c.Centuries {
		if a.Century == century {
			score += WeightCentury
			break
		}
	}

	if a.Mood == c.Mood {
		score += WeightMood
	}

	score += WeightMotif * float64(overlap(c.Motifs, a.Motifs))
	score += WeightTheme * float64(overlap(c.Themes, a.Themes))

	return score
}

// overlap counts tags present in both lists, case-insensitive exact match.
func overlap(criteriaTags, artworkTags []string) int {
	if len(criteriaTags) == 0 || len(artworkTags) == 0 {
		return 0
	}
	want := make(map[string]bool, len(criteriaTags))
	for _, t := range criteriaTags {
		want[strings.ToLower(t)] = true
	}
	n := 0
	for _, t := range artworkTags {
		if want[strings.ToLower(t)] {
			n++
		}
	}
	return n
}
