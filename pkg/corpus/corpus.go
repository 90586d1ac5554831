package corpus

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed data/artworks.json
var artworksJSON []byte

// GeoPoint is a latitude/longitude pair for museum provenance.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Artwork is one immutable record of the curated reference set.
type Artwork struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Artist   string    `json:"artist"`
	Year     int       `json:"year"`
	Museum   string    `json:"museum"`
	Location *GeoPoint `json:"location"`
	Century  int       `json:"century"`
	Mood     string    `json:"mood"`
	Motifs   []string  `json:"motifs"`
	Themes   []string  `json:"themes"`
	ImageRef string    `json:"image_ref"`
}

// Moods is the closed mood vocabulary shared by corpus records and criteria.
var Moods = []string{
	"contemplative",
	"dramatic",
	"serene",
	"melancholic",
	"joyful",
	"mysterious",
	"turbulent",
	"tender",
}

// Corpus is the fixed in-memory reference set. Read-only after Load.
type Corpus struct {
	Artworks []Artwork

	minCentury int
	maxCentury int
	byID       map[string]*Artwork
}

// CenturyOf derives the coarse matching century from a year (1801-1900 -> 19).
func CenturyOf(year int) int {
	return (year + 99) / 100
}

// IsKnownMood reports whether tag belongs to the closed mood vocabulary.
func IsKnownMood(tag string) bool {
	for _, m := range Moods {
		if m == tag {
			return true
		}
	}
	return false
}

// Load parses the embedded dataset and asserts its invariants once.
// The dataset is versioned at build time, so a failure here is a build
// defect, not a runtime condition.
func Load() (*Corpus, error) {
	var artworks []Artwork
	if err := json.Unmarshal(artworksJSON, &artworks); err != nil {
		return nil, fmt.Errorf("corpus: decode embedded dataset: %w", err)
	}
	if len(artworks) == 0 {
		return nil, fmt.Errorf("corpus: embedded dataset is empty")
	}

	c := &Corpus{
		Artworks: artworks,
		byID:     make(map[string]*Artwork, len(artworks)),
	}

	for i := range artworks {
		a := &artworks[i]
		if err := verifyRecord(a); err != nil {
			return nil, err
		}
		if _, dup := c.byID[a.ID]; dup {
			return nil, fmt.Errorf("corpus: duplicate artwork id %q", a.ID)
		}
		c.byID[a.ID] = a

		if i == 0 || a.Century < c.minCentury {
			c.minCentury = a.Century
		}
		if a.Century > c.maxCentury {
			c.maxCentury = a.Century
		}
	}

	return c, nil
}

func verifyRecord(a *Artwork) error {
	if a.ID == "" || a.Title == "" || a.Artist == "" {
		return fmt.Errorf("corpus: artwork %q missing identity metadata", a.ID)
	}
	if got := CenturyOf(a.Year); got != a.Century {
		return fmt.Errorf("corpus: artwork %q century %d inconsistent with year %d (derived %d)",
			a.ID, a.Century, a.Year, got)
	}
	if !IsKnownMood(a.Mood) {
		return fmt.Errorf("corpus: artwork %q has mood %q outside the vocabulary", a.ID, a.Mood)
	}
	// An artwork with no tags can never be matched; that is a data-quality
	// defect, not a degenerate record.
	if len(a.Motifs) == 0 {
		return fmt.Errorf("corpus: artwork %q has no motifs", a.ID)
	}
	if len(a.Themes) == 0 {
		return fmt.Errorf("corpus: artwork %q has no themes", a.ID)
	}
	for _, tag := range append(append([]string{}, a.Motifs...), a.Themes...) {
		if tag == "" || tag != strings.ToLower(strings.TrimSpace(tag)) {
			return fmt.Errorf("corpus: artwork %q has non-normalized tag %q", a.ID, tag)
		}
	}
	return nil
}

// Len is the number of artworks in the corpus.
func (c *Corpus) Len() int { return len(c.Artworks) }

// FindByID returns the artwork with the given id, or nil.
func (c *Corpus) FindByID(id string) *Artwork {
	return c.byID[id]
}

// MinCentury is the earliest century present in the corpus.
func (c *Corpus) MinCentury() int { return c.minCentury }

// MaxCentury is the latest century present in the corpus.
func (c *Corpus) MaxCentury() int { return c.maxCentury }
