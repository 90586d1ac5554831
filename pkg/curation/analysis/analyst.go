package analysis

import (
	"context"
	"fmt"
	"log"
	"strings"

	"mythos-curation-be/pkg/corpus"
	"mythos-curation-be/pkg/curation"
	"mythos-curation-be/pkg/llm"
)

// AnalysisError is scoped to a single artwork's secondary request. It never
// affects the primary exhibition or other artworks' analysis state.
type AnalysisError struct {
	ArtworkID string
	Err       error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis for artwork %s: %v", e.ArtworkID, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// AnalysisRequest is the payload contract for the secondary collaborator
// call: a fixed projection of artwork metadata plus the active criteria's
// mood and themes, so the analysis stays consistent with why the artwork was
// surfaced rather than reciting generic facts.
type AnalysisRequest struct {
	Title          string   `json:"title"`
	Artist         string   `json:"artist"`
	Year           int      `json:"year"`
	Museum         string   `json:"museum"`
	Motifs         []string `json:"motifs"`
	Themes         []string `json:"themes"`
	CriteriaMood   string   `json:"criteria_mood"`
	CriteriaThemes []string `json:"criteria_themes"`
}

// BuildAnalysisRequest projects an artwork and the active criteria into the
// request payload. Deterministic and side-effect-free.
func BuildAnalysisRequest(a corpus.Artwork, c curation.Criteria) AnalysisRequest {
	return AnalysisRequest{
		Title:          a.Title,
		Artist:         a.Artist,
		Year:           a.Year,
		Museum:         a.Museum,
		Motifs:         append([]string{}, a.Motifs...),
		Themes:         append([]string{}, a.Themes...),
		CriteriaMood:   c.Mood,
		CriteriaThemes: append([]string{}, c.Themes...),
	}
}

// Analyst produces prose deep-analysis for one artwork via the secondary
// collaborator call.
type Analyst struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewAnalyst(llmProvider llm.LLMProvider, logger *log.Logger) *Analyst {
	return &Analyst{llmProvider: llmProvider, logger: logger}
}

// Analyze sends the built payload to the collaborator. The response needs no
// structural parsing, only non-empty-string validation.
func (an *Analyst) Analyze(ctx context.Context, artworkID string, req AnalysisRequest) (string, error) {
	prompt := buildPrompt(req)

	response, err := an.llmProvider.Generate(ctx, prompt)
	if err != nil {
		an.logger.Printf("[ERROR] Analysis failed for %s: %v", artworkID, err)
		return "", &AnalysisError{ArtworkID: artworkID, Err: err}
	}

	prose := strings.TrimSpace(response)
	if prose == "" {
		return "", &AnalysisError{ArtworkID: artworkID, Err: fmt.Errorf("collaborator returned empty prose")}
	}

	an.logger.Printf("[ANALYST] Produced analysis for %s (%d chars)", artworkID, len(prose))
	return prose, nil
}

func buildPrompt(req AnalysisRequest) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are an art historian writing for an exhibition visitor. Write a short, vivid analysis of ONE artwork.\n")
	prompt.WriteString("Respond with prose only. No JSON, no headings, no bullet points.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<artwork>\n")
	prompt.WriteString(fmt.Sprintf("title: %s\n", req.Title))
	prompt.WriteString(fmt.Sprintf("artist: %s\n", req.Artist))
	prompt.WriteString(fmt.Sprintf("year: %d\n", req.Year))
	prompt.WriteString(fmt.Sprintf("museum: %s\n", req.Museum))
	prompt.WriteString(fmt.Sprintf("motifs: %s\n", strings.Join(req.Motifs, ", ")))
	prompt.WriteString(fmt.Sprintf("themes: %s\n", strings.Join(req.Themes, ", ")))
	prompt.WriteString("</artwork>\n\n")

	prompt.WriteString("<exhibition_context>\n")
	prompt.WriteString(fmt.Sprintf("The visitor is exploring an exhibition curated around the mood %q", req.CriteriaMood))
	if len(req.CriteriaThemes) > 0 {
		prompt.WriteString(fmt.Sprintf(" and the themes: %s", strings.Join(req.CriteriaThemes, ", ")))
	}
	prompt.WriteString(".\nAnchor the analysis in why this artwork belongs to that emotional territory.\n")
	prompt.WriteString("</exhibition_context>\n\n")

	prompt.WriteString("Write 2-3 paragraphs.")

	return prompt.String()
}
