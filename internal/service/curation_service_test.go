package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"mythos-curation-be/internal/dto"
	"mythos-curation-be/internal/repository/memory"
	"mythos-curation-be/pkg/corpus"
	"mythos-curation-be/pkg/events"
	"mythos-curation-be/pkg/store"

	"mythos-curation-be/pkg/llm"

	"github.com/stretchr/testify/assert"
)

// scriptedCall is one pre-arranged collaborator response. A non-nil gate
// blocks the call until the gate closes or the context is cancelled, which
// lets tests interleave overlapping requests deterministically.
type scriptedCall struct {
	response string
	err      error
	gate     chan struct{}
	started  chan struct{}
}

type scriptedProvider struct {
	mu    sync.Mutex
	calls []*scriptedCall
}

func (p *scriptedProvider) script(c *scriptedCall) *scriptedCall {
	if c.started == nil {
		c.started = make(chan struct{})
	}
	p.mu.Lock()
	p.calls = append(p.calls, c)
	p.mu.Unlock()
	return c
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", errors.New("chat is not used by the curation flow")
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	p.mu.Lock()
	if len(p.calls) == 0 {
		p.mu.Unlock()
		return "", errors.New("unscripted collaborator call")
	}
	call := p.calls[0]
	p.calls = p.calls[1:]
	p.mu.Unlock()

	close(call.started)
	if call.gate != nil {
		select {
		case <-call.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return call.response, call.err
}

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

type capturingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturingPublisher) PublishEvent(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
	return nil
}

func (p *capturingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

func envelopeJSON(title, mood string, motifs, themes string) string {
	return fmt.Sprintf(`{
		"title": %q,
		"statement": "A short framing statement.",
		"criteria": {
			"centuries": [19],
			"mood": %q,
			"motifs": [%s],
			"themes": [%s]
		}
	}`, title, mood, motifs, themes)
}

func newTestService(t *testing.T, provider llm.LLMProvider) (ICurationService, *capturingPublisher) {
	t.Helper()
	gallery, err := corpus.Load()
	if err != nil {
		t.Fatalf("corpus.Load() error = %v", err)
	}
	pub := &capturingPublisher{}
	svc := NewCurationService(gallery, provider, memory.NewSessionRepository(), pub, nil, noopLogger{}, 5*time.Second)
	return svc, pub
}

func waitForState(t *testing.T, svc ICurationService, sessionId, want string) *dto.SessionView {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		view, err := svc.GetSession(context.Background(), sessionId)
		if err != nil {
			t.Fatalf("GetSession() error = %v", err)
		}
		if view.State == want {
			return view
		}
		time.Sleep(5 * time.Millisecond)
	}
	view, _ := svc.GetSession(context.Background(), sessionId)
	t.Fatalf("session never reached %s (state=%s)", want, view.State)
	return nil
}

func TestSubmitPromptProducesRankedExhibition(t *testing.T) {
	provider := &scriptedProvider{}
	provider.script(&scriptedCall{response: envelopeJSON("Quiet Horizons", "contemplative", `"fog"`, `"solitude"`)})
	svc, pub := newTestService(t, provider)

	created, err := svc.CreateSession(context.Background())
	assert.NoError(t, err)

	ack, err := svc.SubmitPrompt(context.Background(), created.Id, &dto.SubmitPromptRequest{Prompt: "lonely northern landscapes"})
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), ack.Seq)
	assert.Equal(t, store.StateRequestingCriteria, ack.State)

	view := waitForState(t, svc, created.Id, store.StateReady)
	assert.NotNil(t, view.Exhibition)
	assert.Equal(t, "Quiet Horizons", view.Exhibition.Title)
	assert.Nil(t, view.LastError)
	assert.False(t, view.BroadResults)

	// The ranking covers the whole corpus in descending score order.
	gallery, _ := corpus.Load()
	assert.Len(t, view.Exhibition.Ranked, gallery.Len())
	for i := 1; i < len(view.Exhibition.Ranked); i++ {
		assert.LessOrEqual(t, view.Exhibition.Ranked[i].Score, view.Exhibition.Ranked[i-1].Score)
	}

	assert.Contains(t, pub.types(), events.TypeExhibitionOpen)
}

func TestUnderSpecifiedCriteriaFlagBroadResults(t *testing.T) {
	provider := &scriptedProvider{}
	provider.script(&scriptedCall{response: envelopeJSON("Everything Serene", "serene", "", "")})
	svc, _ := newTestService(t, provider)

	created, _ := svc.CreateSession(context.Background())
	_, err := svc.SubmitPrompt(context.Background(), created.Id, &dto.SubmitPromptRequest{Prompt: "just calm please"})
	assert.NoError(t, err)

	view := waitForState(t, svc, created.Id, store.StateReady)
	assert.True(t, view.BroadResults)
}

func TestCollaboratorFailureKeepsPreviousExhibition(t *testing.T) {
	provider := &scriptedProvider{}
	provider.script(&scriptedCall{response: envelopeJSON("First Exhibition", "contemplative", `"fog"`, `"solitude"`)})
	provider.script(&scriptedCall{err: errors.New("upstream unavailable")})
	svc, _ := newTestService(t, provider)

	created, _ := svc.CreateSession(context.Background())
	svc.SubmitPrompt(context.Background(), created.Id, &dto.SubmitPromptRequest{Prompt: "quiet fog"})
	waitForState(t, svc, created.Id, store.StateReady)

	svc.SubmitPrompt(context.Background(), created.Id, &dto.SubmitPromptRequest{Prompt: "another request"})
	view := waitForState(t, svc, created.Id, store.StateError)

	assert.NotNil(t, view.LastError)
	assert.Equal(t, store.FaultCollaborator, view.LastError.Kind)
	// The user never sees upstream details, and the previous exhibition
	// survives the failure.
	assert.Equal(t, "curation failed", view.LastError.Message)
	ex, err := svc.GetExhibition(context.Background(), created.Id)
	assert.NoError(t, err)
	assert.Equal(t, "First Exhibition", ex.Title)
}

func TestInvalidCriteriaProduceValidationFault(t *testing.T) {
	provider := &scriptedProvider{}
	provider.script(&scriptedCall{response: envelopeJSON("Bad Mood", "ecstatic-but-undefined", "", "")})
	svc, _ := newTestService(t, provider)

	created, _ := svc.CreateSession(context.Background())
	svc.SubmitPrompt(context.Background(), created.Id, &dto.SubmitPromptRequest{Prompt: "impossible feelings"})

	view := waitForState(t, svc, created.Id, store.StateError)
	assert.NotNil(t, view.LastError)
	assert.Equal(t, store.FaultValidation, view.LastError.Kind)
	assert.Contains(t, view.LastError.Message, "mood")
}

func TestNewerPromptSupersedesOlder(t *testing.T) {
	provider := &scriptedProvider{}
	gate := make(chan struct{})
	first := provider.script(&scriptedCall{
		response: envelopeJSON("Stale Result", "contemplative", "", ""),
		gate:     gate,
	})
	second := provider.script(&scriptedCall{response: envelopeJSON("Fresh Result", "dramatic", `"storm"`, `"power"`)})
	svc, _ := newTestService(t, provider)

	created, _ := svc.CreateSession(context.Background())

	ack1, err := svc.SubmitPrompt(context.Background(), created.Id, &dto.SubmitPromptRequest{Prompt: "slow request"})
	assert.NoError(t, err)
	<-first.started

	ack2, err := svc.SubmitPrompt(context.Background(), created.Id, &dto.SubmitPromptRequest{Prompt: "newer request"})
	assert.NoError(t, err)
	assert.Greater(t, ack2.Seq, ack1.Seq)
	<-second.started

	view := waitForState(t, svc, created.Id, store.StateReady)
	assert.Equal(t, "Fresh Result", view.Exhibition.Title)

	// Let the stale flow finish; its result must be discarded.
	close(gate)
	time.Sleep(100 * time.Millisecond)

	view, err = svc.GetSession(context.Background(), created.Id)
	assert.NoError(t, err)
	assert.Equal(t, store.StateReady, view.State)
	assert.Equal(t, "Fresh Result", view.Exhibition.Title)
}

func TestRequestAnalysisLifecycle(t *testing.T) {
	provider := &scriptedProvider{}
	provider.script(&scriptedCall{response: envelopeJSON("Night Works", "turbulent", "", `"turmoil"`)})
	provider.script(&scriptedCall{response: "A vivid reading of the brushwork and the sky."})
	svc, pub := newTestService(t, provider)

	created, _ := svc.CreateSession(context.Background())
	svc.SubmitPrompt(context.Background(), created.Id, &dto.SubmitPromptRequest{Prompt: "restless night skies"})
	view := waitForState(t, svc, created.Id, store.StateReady)

	artworkId := view.Exhibition.Ranked[0].Artwork.ID

	before, err := svc.GetAnalysis(context.Background(), created.Id, artworkId)
	assert.NoError(t, err)
	assert.Equal(t, store.AnalysisNotRequested, before.State)

	ack, err := svc.RequestAnalysis(context.Background(), created.Id, artworkId)
	assert.NoError(t, err)
	assert.Equal(t, view.Exhibition.Id, ack.ExhibitionId)

	deadline := time.Now().Add(3 * time.Second)
	var analysisView *dto.AnalysisView
	for time.Now().Before(deadline) {
		analysisView, err = svc.GetAnalysis(context.Background(), created.Id, artworkId)
		assert.NoError(t, err)
		if analysisView.State == store.AnalysisAvailable {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, store.AnalysisAvailable, analysisView.State)
	assert.Equal(t, "A vivid reading of the brushwork and the sky.", analysisView.Prose)

	// A second request for an available analysis is a no-op: the provider
	// script is exhausted, so any extra call would fail.
	again, err := svc.RequestAnalysis(context.Background(), created.Id, artworkId)
	assert.NoError(t, err)
	assert.Equal(t, store.AnalysisAvailable, again.State)

	assert.Contains(t, pub.types(), events.TypeAnalysisUpdate)
}

func TestAnalysisFailureDoesNotTouchExhibition(t *testing.T) {
	provider := &scriptedProvider{}
	provider.script(&scriptedCall{response: envelopeJSON("Stable Show", "serene", "", `"nature"`)})
	provider.script(&scriptedCall{err: errors.New("model overloaded")})
	svc, _ := newTestService(t, provider)

	created, _ := svc.CreateSession(context.Background())
	svc.SubmitPrompt(context.Background(), created.Id, &dto.SubmitPromptRequest{Prompt: "calm rivers"})
	view := waitForState(t, svc, created.Id, store.StateReady)

	artworkId := view.Exhibition.Ranked[0].Artwork.ID
	_, err := svc.RequestAnalysis(context.Background(), created.Id, artworkId)
	assert.NoError(t, err)

	deadline := time.Now().Add(3 * time.Second)
	var analysisView *dto.AnalysisView
	for time.Now().Before(deadline) {
		analysisView, _ = svc.GetAnalysis(context.Background(), created.Id, artworkId)
		if analysisView.State == store.AnalysisError {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, store.AnalysisError, analysisView.State)
	assert.Equal(t, "analysis failed", analysisView.Error)

	// The failure is scoped to the one artwork.
	after, err := svc.GetSession(context.Background(), created.Id)
	assert.NoError(t, err)
	assert.Equal(t, store.StateReady, after.State)
	assert.Equal(t, "Stable Show", after.Exhibition.Title)
}

func TestLookupsOnUnknownSessionsAndArtworks(t *testing.T) {
	provider := &scriptedProvider{}
	provider.script(&scriptedCall{response: envelopeJSON("Known Show", "serene", "", "")})
	svc, _ := newTestService(t, provider)

	_, err := svc.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.SubmitPrompt(context.Background(), "missing", &dto.SubmitPromptRequest{Prompt: "anything at all"})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	created, _ := svc.CreateSession(context.Background())

	_, err = svc.GetExhibition(context.Background(), created.Id)
	assert.ErrorIs(t, err, ErrNoExhibition)
	_, err = svc.GetAnalysis(context.Background(), created.Id, "whatever")
	assert.ErrorIs(t, err, ErrNoExhibition)

	svc.SubmitPrompt(context.Background(), created.Id, &dto.SubmitPromptRequest{Prompt: "calm rivers"})
	waitForState(t, svc, created.Id, store.StateReady)

	_, err = svc.RequestAnalysis(context.Background(), created.Id, "not-a-real-artwork")
	assert.ErrorIs(t, err, ErrUnknownArtwork)
}

func TestResetSessionDiscardsEverything(t *testing.T) {
	provider := &scriptedProvider{}
	provider.script(&scriptedCall{response: envelopeJSON("Gone Soon", "serene", "", "")})
	svc, _ := newTestService(t, provider)

	created, _ := svc.CreateSession(context.Background())
	svc.SubmitPrompt(context.Background(), created.Id, &dto.SubmitPromptRequest{Prompt: "calm rivers"})
	waitForState(t, svc, created.Id, store.StateReady)

	assert.NoError(t, svc.ResetSession(context.Background(), created.Id))

	_, err := svc.GetSession(context.Background(), created.Id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, svc.ResetSession(context.Background(), created.Id), ErrSessionNotFound)
}

func TestGetCorpusExposesVocabulary(t *testing.T) {
	svc, _ := newTestService(t, &scriptedProvider{})

	res := svc.GetCorpus(context.Background())
	assert.NotEmpty(t, res.Artworks)
	assert.Equal(t, corpus.Moods, res.Moods)
}
