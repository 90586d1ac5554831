package analysis

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"mythos-curation-be/pkg/corpus"
	"mythos-curation-be/pkg/curation"
	"mythos-curation-be/pkg/llm"
)

type stubProvider struct {
	response string
	err      error

	lastPrompt string
}

func (s *stubProvider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (string, error) {
	return s.response, s.err
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	s.lastPrompt = prompt
	return s.response, s.err
}

func testArtwork() corpus.Artwork {
	return corpus.Artwork{
		ID:      "starry-night",
		Title:   "The Starry Night",
		Artist:  "Vincent van Gogh",
		Year:    1889,
		Museum:  "Museum of Modern Art",
		Century: 19,
		Mood:    "turbulent",
		Motifs:  []string{"night sky", "stars", "village"},
		Themes:  []string{"cosmos", "turmoil"},
	}
}

func TestBuildAnalysisRequestProjectsArtworkAndCriteria(t *testing.T) {
	a := testArtwork()
	c := curation.Criteria{
		Centuries: []int{19},
		Mood:      "turbulent",
		Themes:    []string{"turmoil", "night"},
	}

	req := BuildAnalysisRequest(a, c)

	if req.Title != a.Title || req.Artist != a.Artist || req.Year != a.Year || req.Museum != a.Museum {
		t.Errorf("metadata projection mismatch: %+v", req)
	}
	if req.CriteriaMood != "turbulent" {
		t.Errorf("CriteriaMood = %q", req.CriteriaMood)
	}
	if len(req.CriteriaThemes) != 2 {
		t.Errorf("CriteriaThemes = %v", req.CriteriaThemes)
	}

	// The request must hold copies, not views into the artwork record.
	req.Motifs[0] = "mutated"
	if a.Motifs[0] == "mutated" {
		t.Error("BuildAnalysisRequest aliased the artwork's motif slice")
	}
}

func TestAnalyzeReturnsTrimmedProse(t *testing.T) {
	stub := &stubProvider{response: "\n  Van Gogh painted the sky as he felt it.  \n"}
	an := NewAnalyst(stub, log.New(io.Discard, "", 0))

	req := BuildAnalysisRequest(testArtwork(), curation.Criteria{Mood: "turbulent"})
	prose, err := an.Analyze(context.Background(), "starry-night", req)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if prose != "Van Gogh painted the sky as he felt it." {
		t.Errorf("prose = %q, want trimmed response", prose)
	}

	for _, want := range []string{"The Starry Night", "Vincent van Gogh", "turbulent"} {
		if !strings.Contains(stub.lastPrompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAnalyzeWrapsFailures(t *testing.T) {
	tests := []struct {
		name     string
		provider *stubProvider
	}{
		{name: "provider error", provider: &stubProvider{err: errors.New("rate limited")}},
		{name: "empty prose", provider: &stubProvider{response: "   \n\t "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			an := NewAnalyst(tt.provider, log.New(io.Discard, "", 0))
			req := BuildAnalysisRequest(testArtwork(), curation.Criteria{Mood: "turbulent"})

			_, err := an.Analyze(context.Background(), "starry-night", req)
			var analysisErr *AnalysisError
			if !errors.As(err, &analysisErr) {
				t.Fatalf("Analyze() error = %v, want *AnalysisError", err)
			}
			if analysisErr.ArtworkID != "starry-night" {
				t.Errorf("ArtworkID = %q", analysisErr.ArtworkID)
			}
		})
	}
}
