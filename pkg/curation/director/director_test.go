package director

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

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

func testDirector(p llm.LLMProvider) *Director {
	return &Director{
		llmProvider: p,
		logger:      log.New(io.Discard, "", 0),
		minCentury:  15,
		maxCentury:  20,
	}
}

func TestExtractDecodesStructuredResponse(t *testing.T) {
	stub := &stubProvider{
		response: `{
			"title": "Quiet Horizons",
			"statement": "An exhibition about stillness.",
			"criteria": {
				"centuries": [19],
				"mood": "contemplative",
				"motifs": ["fog"],
				"themes": ["solitude"]
			}
		}`,
	}
	d := testDirector(stub)

	env, err := d.Extract(context.Background(), "I want to feel alone in nature")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if env.Title != "Quiet Horizons" {
		t.Errorf("Title = %q, want %q", env.Title, "Quiet Horizons")
	}
	if env.Statement != "An exhibition about stillness." {
		t.Errorf("Statement = %q", env.Statement)
	}
	criteria, ok := env.RawCriteria.(map[string]any)
	if !ok {
		t.Fatalf("RawCriteria is %T, want map[string]any", env.RawCriteria)
	}
	if criteria["mood"] != "contemplative" {
		t.Errorf("criteria mood = %v", criteria["mood"])
	}
}

func TestExtractToleratesMarkdownFencedJSON(t *testing.T) {
	stub := &stubProvider{
		response: "Here is the result:\n```json\n{\"title\": \"Fog\", \"statement\": \"s\", \"criteria\": {}}\n```",
	}
	d := testDirector(stub)

	env, err := d.Extract(context.Background(), "fog")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if env.Title != "Fog" {
		t.Errorf("Title = %q, want %q", env.Title, "Fog")
	}
}

func TestExtractWrapsProviderFailure(t *testing.T) {
	providerErr := errors.New("connection refused")
	d := testDirector(&stubProvider{err: providerErr})

	_, err := d.Extract(context.Background(), "anything")
	if err == nil {
		t.Fatal("Extract() error = nil, want CollaboratorError")
	}
	var collabErr *CollaboratorError
	if !errors.As(err, &collabErr) {
		t.Fatalf("Extract() error type = %T, want *CollaboratorError", err)
	}
	if !errors.Is(err, providerErr) {
		t.Error("CollaboratorError should wrap the provider error")
	}
}

func TestExtractRejectsUndecodableResponses(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "no JSON at all", response: "I cannot help with that."},
		{name: "broken JSON", response: `{"title": "x", "criteria": `},
		{name: "missing title", response: `{"statement": "s", "criteria": {}}`},
		{name: "blank title", response: `{"title": "   ", "criteria": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testDirector(&stubProvider{response: tt.response})
			_, err := d.Extract(context.Background(), "anything")
			var collabErr *CollaboratorError
			if !errors.As(err, &collabErr) {
				t.Errorf("Extract() error = %v, want *CollaboratorError", err)
			}
		})
	}
}

func TestBuildPromptCarriesVocabularyAndRange(t *testing.T) {
	stub := &stubProvider{response: `{"title": "t", "criteria": {}}`}
	d := testDirector(stub)

	if _, err := d.Extract(context.Background(), "winter storms at sea"); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	for _, want := range []string{
		"winter storms at sea",
		"between 15 and 20",
		"contemplative",
		"<output_format>",
	} {
		if !strings.Contains(stub.lastPrompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestParseEnvelopePreservesUntypedCriteria(t *testing.T) {
	// The envelope must not coerce criteria into a typed struct; malformed
	// shapes have to reach the validator intact.
	env, err := parseEnvelope(`{"title": "t", "criteria": {"centuries": "nineteen"}}`)
	if err != nil {
		t.Fatalf("parseEnvelope() error = %v", err)
	}
	criteria, ok := env.RawCriteria.(map[string]any)
	if !ok {
		t.Fatalf("RawCriteria is %T", env.RawCriteria)
	}
	if criteria["centuries"] != "nineteen" {
		t.Errorf("criteria passthrough lost the raw value: %v", criteria["centuries"])
	}
}
