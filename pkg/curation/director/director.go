package director

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"mythos-curation-be/pkg/corpus"
	"mythos-curation-be/pkg/llm"
)

// CollaboratorError wraps any failure of the criteria-extraction call:
// unreachable service, rate limit, or a non-decodable payload. Surfaced to
// the user as a generic "curation failed"; retried only on explicit new
// user action.
type CollaboratorError struct {
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("criteria collaborator: %v", e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// Envelope is the decoded primary response. Criteria stays untyped here:
// it must pass through the curation validator before any typed code uses it.
type Envelope struct {
	Title       string
	Statement   string
	RawCriteria any
}

// Director turns a free-text emotional prompt into an exhibition envelope
// via one structured call to the generative collaborator.
type Director struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger

	minCentury int
	maxCentury int
}

// NewDirector creates a director bound to the corpus's century range.
func NewDirector(llmProvider llm.LLMProvider, c *corpus.Corpus, logger *log.Logger) *Director {
	return &Director{
		llmProvider: llmProvider,
		logger:      logger,
		minCentury:  c.MinCentury(),
		maxCentury:  c.MaxCentury(),
	}
}

// Extract sends the user's prompt to the collaborator and decodes the
// structured response. Unlike a best-effort resolver there is no fallback:
// the caller's error taxonomy needs to distinguish an unreachable
// collaborator from an invalid criteria object, so decode failures surface
// as CollaboratorError and semantic checks are left to the validator.
func (d *Director) Extract(ctx context.Context, prompt string) (*Envelope, error) {
	fullPrompt := d.buildPrompt(prompt)

	// Temperature 0 for stable structured output
	response, err := d.llmProvider.Generate(ctx, fullPrompt, llm.WithTemperature(0.0))
	if err != nil {
		d.logger.Printf("[ERROR] Criteria extraction failed: %v", err)
		return nil, &CollaboratorError{Err: err}
	}

	envelope, err := parseEnvelope(response)
	if err != nil {
		d.logger.Printf("[ERROR] Criteria response not decodable: %v", err)
		return nil, &CollaboratorError{Err: err}
	}

	d.logger.Printf("[DIRECTOR] Extracted exhibition %q", envelope.Title)
	return envelope, nil
}

func (d *Director) buildPrompt(userPrompt string) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are an exhibition director. Your ONLY job is to translate an emotional or thematic prompt into curation criteria for a fixed artwork collection.\n")
	prompt.WriteString("You do NOT describe artworks. You only produce criteria plus a short exhibition framing.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<user_prompt>\n")
	prompt.WriteString(userPrompt)
	prompt.WriteString("\n</user_prompt>\n\n")

	prompt.WriteString("<criteria_rules>\n")
	prompt.WriteString(fmt.Sprintf("centuries: one or more integers between %d and %d (the collection's range)\n", d.minCentury, d.maxCentury))
	prompt.WriteString(fmt.Sprintf("mood: exactly ONE of: %s\n", strings.Join(corpus.Moods, ", ")))
	prompt.WriteString("motifs: short lowercase tags for concrete visual subjects (e.g. \"fog\", \"river\", \"night sky\")\n")
	prompt.WriteString("themes: short lowercase tags for abstract concepts (e.g. \"isolation\", \"longing\", \"rebirth\")\n")
	prompt.WriteString("Prefer themes over motifs when the prompt is about a feeling.\n")
	prompt.WriteString("</criteria_rules>\n\n")

	prompt.WriteString("<framing_rules>\n")
	prompt.WriteString("title: an evocative exhibition title, at most 8 words\n")
	prompt.WriteString("statement: 2-3 sentences of curatorial framing addressed to the visitor\n")
	prompt.WriteString("</framing_rules>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"title\": \"...\",\n")
	prompt.WriteString("  \"statement\": \"...\",\n")
	prompt.WriteString("  \"criteria\": {\n")
	prompt.WriteString("    \"centuries\": [19, 20],\n")
	prompt.WriteString("    \"mood\": \"contemplative\",\n")
	prompt.WriteString("    \"motifs\": [\"solitude\"],\n")
	prompt.WriteString("    \"themes\": [\"isolation\", \"introspection\"]\n")
	prompt.WriteString("  }\n")
	prompt.WriteString("}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

func parseEnvelope(response string) (*Envelope, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var decoded struct {
		Title     string `json:"title"`
		Statement string `json:"statement"`
		Criteria  any    `json:"criteria"`
	}
	if err := json.Unmarshal([]byte(jsonContent), &decoded); err != nil {
		return nil, fmt.Errorf("JSON unmarshal failed: %w", err)
	}
	if strings.TrimSpace(decoded.Title) == "" {
		return nil, fmt.Errorf("response is missing an exhibition title")
	}

	return &Envelope{
		Title:       strings.TrimSpace(decoded.Title),
		Statement:   strings.TrimSpace(decoded.Statement),
		RawCriteria: decoded.Criteria,
	}, nil
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
