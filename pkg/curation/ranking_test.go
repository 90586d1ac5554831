package curation

import (
	"testing"

	"mythos-curation-be/pkg/corpus"
)

func rankingCorpus() []corpus.Artwork {
	return []corpus.Artwork{
		{
			ID: "a", Century: 17, Mood: "dramatic",
			Motifs: []string{"storm"}, Themes: []string{"power"},
		},
		{
			ID: "b", Century: 19, Mood: "contemplative",
			Motifs: []string{"fog", "mountains"}, Themes: []string{"nature", "sublime"},
		},
		{
			ID: "c", Century: 19, Mood: "serene",
			Motifs: []string{"water"}, Themes: []string{"nature"},
		},
		{
			ID: "d", Century: 20, Mood: "turbulent",
			Motifs: []string{"city"}, Themes: []string{"isolation"},
		},
	}
}

func TestRankOrdersByDescendingScore(t *testing.T) {
	c := Criteria{
		Centuries: []int{19},
		Mood:      "contemplative",
		Motifs:    []string{"fog"},
		Themes:    []string{"nature"},
	}

	ranked := Rank(c, rankingCorpus())

	if len(ranked) != 4 {
		t.Fatalf("Rank() returned %d entries, want the whole corpus (4)", len(ranked))
	}
	if ranked[0].Artwork.ID != "b" {
		t.Errorf("top rank = %q, want %q", ranked[0].Artwork.ID, "b")
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Errorf("ranking not descending at %d: %v after %v", i, ranked[i].Score, ranked[i-1].Score)
		}
	}
}

func TestRankKeepsCorpusOrderOnTies(t *testing.T) {
	// No criteria dimension matches anything: every score is zero and the
	// original corpus order must survive.
	c := Criteria{Centuries: []int{18}, Mood: "tender"}

	ranked := Rank(c, rankingCorpus())

	want := []string{"a", "b", "c", "d"}
	for i, id := range want {
		if ranked[i].Artwork.ID != id {
			t.Fatalf("tie order changed: got %q at %d, want %q", ranked[i].Artwork.ID, i, id)
		}
		if ranked[i].Score != 0 {
			t.Errorf("Score for %q = %v, want 0", id, ranked[i].Score)
		}
	}
}

func TestRankIsDeterministic(t *testing.T) {
	c := Criteria{
		Centuries: []int{19, 20},
		Mood:      "serene",
		Themes:    []string{"nature", "isolation"},
	}
	arts := rankingCorpus()

	first := Rank(c, arts)
	for run := 0; run < 20; run++ {
		again := Rank(c, arts)
		for i := range first {
			if again[i].Artwork.ID != first[i].Artwork.ID || again[i].Score != first[i].Score {
				t.Fatalf("run %d diverged at %d: %s/%v vs %s/%v",
					run, i, again[i].Artwork.ID, again[i].Score, first[i].Artwork.ID, first[i].Score)
			}
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	arts := rankingCorpus()
	c := Criteria{Centuries: []int{19}, Mood: "serene", Themes: []string{"nature"}}

	Rank(c, arts)

	want := []string{"a", "b", "c", "d"}
	for i, id := range want {
		if arts[i].ID != id {
			t.Fatalf("input slice reordered: got %q at %d, want %q", arts[i].ID, i, id)
		}
	}
}
