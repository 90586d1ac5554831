package curation

import (
	"sort"

	"mythos-curation-be/pkg/corpus"
)

// ScoredArtwork pairs one artwork with its affinity score for a single
// scoring pass. Recomputed on every curation request, never persisted.
type ScoredArtwork struct {
	Artwork corpus.Artwork `json:"artwork"`
	Score   float64        `json:"score"`
}

// Rank scores every corpus record against the criteria and returns the whole
// corpus ordered by descending score. Equal scores keep their original corpus
// order (stable sort, no secondary key). Display-layer truncation is a
// presentation concern and does not belong here.
func Rank(c Criteria, artworks []corpus.Artwork) []ScoredArtwork {
	ranked := make([]ScoredArtwork, len(artworks))
	for i, a := range artworks {
		ranked[i] = ScoredArtwork{Artwork: a, Score: Score(c, a)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
