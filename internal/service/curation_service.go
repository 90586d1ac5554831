package service

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"time"

	"mythos-curation-be/internal/dto"
	"mythos-curation-be/internal/pkg/logger"
	"mythos-curation-be/internal/repository/memory"
	"mythos-curation-be/pkg/corpus"
	"mythos-curation-be/pkg/curation"
	"mythos-curation-be/pkg/curation/analysis"
	"mythos-curation-be/pkg/curation/director"
	"mythos-curation-be/pkg/events"
	"mythos-curation-be/pkg/llm"
	pktNats "mythos-curation-be/pkg/nats"
	"mythos-curation-be/pkg/store"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoExhibition    = errors.New("no exhibition is ready for this session")
	ErrUnknownArtwork  = errors.New("artwork is not part of the corpus")
)

// ICurationService defines the curation service interface
type ICurationService interface {
	CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error)
	GetSession(ctx context.Context, sessionId string) (*dto.SessionView, error)
	SubmitPrompt(ctx context.Context, sessionId string, request *dto.SubmitPromptRequest) (*dto.SubmitPromptResponse, error)
	GetExhibition(ctx context.Context, sessionId string) (*dto.ExhibitionView, error)
	RequestAnalysis(ctx context.Context, sessionId, artworkId string) (*dto.AnalysisAck, error)
	GetAnalysis(ctx context.Context, sessionId, artworkId string) (*dto.AnalysisView, error)
	ResetSession(ctx context.Context, sessionId string) error
	GetCorpus(ctx context.Context) *dto.CorpusResponse
}

// curationService drives the session state machine:
// idle -> requestingCriteria -> validating -> scoring -> ready, with error
// reachable from the collaborator call and from validation. A newer prompt
// always supersedes an older in-flight one.
type curationService struct {
	gallery     *corpus.Corpus
	sessionRepo *memory.SessionRepository
	publisher   IPublisherService
	natsPub     *pktNats.Publisher // optional, nil when NATS is unavailable
	sysLogger   logger.ILogger
	timeout     time.Duration

	// Domain components
	director  *director.Director
	analyst   *analysis.Analyst
	validator *curation.Validator
}

// NewCurationService creates a curation service with all domain components
func NewCurationService(
	gallery *corpus.Corpus,
	llmProvider llm.LLMProvider,
	sessionRepo *memory.SessionRepository,
	publisher IPublisherService,
	natsPub *pktNats.Publisher,
	sysLogger logger.ILogger,
	collaboratorTimeout time.Duration,
) ICurationService {
	llmLogger := initCollaboratorLogger()

	return &curationService{
		gallery:     gallery,
		sessionRepo: sessionRepo,
		publisher:   publisher,
		natsPub:     natsPub,
		sysLogger:   sysLogger,
		timeout:     collaboratorTimeout,

		director:  director.NewDirector(llmProvider, gallery, llmLogger),
		analyst:   analysis.NewAnalyst(llmProvider, llmLogger),
		validator: curation.NewValidator(gallery),
	}
}

func initCollaboratorLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "collaborator.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[COLLABORATOR] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

// CreateSession creates a new curation session
func (cs *curationService) CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error) {
	session := &store.Session{
		ID:       uuid.New().String(),
		State:    store.StateIdle,
		Analyses: make(map[string]*store.AnalysisRecord),
	}
	cs.sessionRepo.Save(session)

	cs.sysLogger.Info("Curation", "Session created", map[string]interface{}{"session_id": session.ID})
	return &dto.CreateSessionResponse{Id: session.ID}, nil
}

// SubmitPrompt starts a new curation flow. Concurrent submissions are
// allowed; the newest sequence number wins and any older in-flight result
// is discarded on arrival.
func (cs *curationService) SubmitPrompt(ctx context.Context, sessionId string, request *dto.SubmitPromptRequest) (*dto.SubmitPromptResponse, error) {
	session, found := cs.sessionRepo.Get(sessionId)
	if !found {
		return nil, ErrSessionNotFound
	}

	session.Mu.Lock()
	session.LatestSeq++
	seq := session.LatestSeq
	if session.Cancel != nil {
		// Cancellation is best-effort; the sequence check below is the
		// actual correctness mechanism.
		session.Cancel()
	}
	// Detached from the HTTP request: the flow outlives the 202 response.
	flowCtx, cancel := context.WithTimeout(context.Background(), cs.timeout)
	session.Cancel = cancel
	session.State = store.StateRequestingCriteria
	session.Mu.Unlock()
	cs.sessionRepo.Save(session)

	cs.publishEvent(events.StateChanged(sessionId, store.StateRequestingCriteria, seq))

	go cs.runCuration(flowCtx, session, seq, request.Prompt)

	return &dto.SubmitPromptResponse{
		SessionId: sessionId,
		Seq:       seq,
		State:     store.StateRequestingCriteria,
	}, nil
}

func (cs *curationService) runCuration(ctx context.Context, session *store.Session, seq uint64, prompt string) {
	envelope, err := cs.director.Extract(ctx, prompt)

	session.Mu.Lock()
	if session.LatestSeq != seq {
		session.Mu.Unlock()
		cs.sysLogger.Info("Curation", "Discarding superseded criteria response", map[string]interface{}{
			"session_id": session.ID, "seq": seq, "latest_seq": session.LatestSeq,
		})
		return
	}
	if err != nil {
		cs.failLocked(session, store.FaultCollaborator, "curation failed")
		session.Mu.Unlock()
		cs.sysLogger.Error("Curation", "Collaborator call failed", map[string]interface{}{
			"session_id": session.ID, "error": err.Error(),
		})
		cs.publishEvent(events.CurationFailed(session.ID, store.FaultCollaborator, "curation failed"))
		return
	}
	session.State = store.StateValidating
	session.Mu.Unlock()
	cs.publishEvent(events.StateChanged(session.ID, store.StateValidating, seq))

	criteria, verr := cs.validator.Validate(envelope.RawCriteria)

	session.Mu.Lock()
	if session.LatestSeq != seq {
		session.Mu.Unlock()
		return
	}
	if verr != nil {
		cs.failLocked(session, store.FaultValidation, verr.Error())
		session.Mu.Unlock()
		cs.sysLogger.Warn("Curation", "Criteria rejected by validator", map[string]interface{}{
			"session_id": session.ID, "error": verr.Error(),
		})
		cs.publishEvent(events.CurationFailed(session.ID, store.FaultValidation, verr.Error()))
		return
	}
	session.State = store.StateScoring
	session.Mu.Unlock()
	cs.publishEvent(events.StateChanged(session.ID, store.StateScoring, seq))

	ranked := curation.Rank(*criteria, cs.gallery.Artworks)
	exhibition := &store.Exhibition{
		ID:        uuid.New().String(),
		Title:     envelope.Title,
		Statement: envelope.Statement,
		Criteria:  *criteria,
		Ranked:    ranked,
		CreatedAt: time.Now(),
	}

	session.Mu.Lock()
	if session.LatestSeq != seq {
		session.Mu.Unlock()
		return
	}
	session.Exhibition = exhibition
	session.State = store.StateReady
	session.LastError = nil
	session.BroadResults = criteria.UnderSpecified()
	// Old analyses belong to the replaced exhibition; drop them.
	session.Analyses = make(map[string]*store.AnalysisRecord)
	session.Mu.Unlock()
	cs.sessionRepo.Save(session)

	cs.sysLogger.Info("Curation", "Exhibition ready", map[string]interface{}{
		"session_id": session.ID, "exhibition_id": exhibition.ID, "title": exhibition.Title,
	})
	cs.publishEvent(events.StateChanged(session.ID, store.StateReady, seq))
	cs.publishEvent(events.ExhibitionReady(session.ID, exhibition.ID, exhibition.Title, len(ranked)))
}

// failLocked flips the session into the error state without touching the
// previous exhibition. Caller holds session.Mu.
func (cs *curationService) failLocked(session *store.Session, kind, message string) {
	session.State = store.StateError
	session.LastError = &store.Fault{Kind: kind, Message: message}
}

// GetSession returns the current state, exhibition and last error together.
func (cs *curationService) GetSession(ctx context.Context, sessionId string) (*dto.SessionView, error) {
	session, found := cs.sessionRepo.Get(sessionId)
	if !found {
		return nil, ErrSessionNotFound
	}

	session.Mu.Lock()
	defer session.Mu.Unlock()

	view := &dto.SessionView{
		Id:           session.ID,
		State:        session.State,
		BroadResults: session.BroadResults,
	}
	if session.Exhibition != nil {
		view.Exhibition = toExhibitionView(session.Exhibition)
	}
	if session.LastError != nil {
		view.LastError = &dto.FaultView{Kind: session.LastError.Kind, Message: session.LastError.Message}
	}
	return view, nil
}

func (cs *curationService) GetExhibition(ctx context.Context, sessionId string) (*dto.ExhibitionView, error) {
	session, found := cs.sessionRepo.Get(sessionId)
	if !found {
		return nil, ErrSessionNotFound
	}

	session.Mu.Lock()
	defer session.Mu.Unlock()

	if session.Exhibition == nil {
		return nil, ErrNoExhibition
	}
	return toExhibitionView(session.Exhibition), nil
}

// RequestAnalysis fires the secondary collaborator call for one artwork of
// the current exhibition. Idempotent while a request is in flight or a
// result is already available.
func (cs *curationService) RequestAnalysis(ctx context.Context, sessionId, artworkId string) (*dto.AnalysisAck, error) {
	session, found := cs.sessionRepo.Get(sessionId)
	if !found {
		return nil, ErrSessionNotFound
	}

	artwork := cs.gallery.FindByID(artworkId)
	if artwork == nil {
		return nil, ErrUnknownArtwork
	}

	session.Mu.Lock()
	if session.Exhibition == nil {
		session.Mu.Unlock()
		return nil, ErrNoExhibition
	}
	exhibitionId := session.Exhibition.ID
	criteria := session.Exhibition.Criteria
	key := store.AnalysisKey(exhibitionId, artworkId)

	if rec, ok := session.Analyses[key]; ok && rec.State != store.AnalysisError {
		// Already requesting or available; don't fire a duplicate call.
		state := rec.State
		session.Mu.Unlock()
		return &dto.AnalysisAck{ExhibitionId: exhibitionId, ArtworkId: artworkId, State: state}, nil
	}

	session.Analyses[key] = &store.AnalysisRecord{
		ExhibitionID: exhibitionId,
		ArtworkID:    artworkId,
		State:        store.AnalysisRequesting,
	}
	session.Mu.Unlock()

	cs.publishEvent(events.AnalysisUpdate(sessionId, exhibitionId, artworkId, store.AnalysisRequesting))

	go cs.runAnalysis(session, exhibitionId, *artwork, criteria)

	return &dto.AnalysisAck{ExhibitionId: exhibitionId, ArtworkId: artworkId, State: store.AnalysisRequesting}, nil
}

func (cs *curationService) runAnalysis(session *store.Session, exhibitionId string, artwork corpus.Artwork, criteria curation.Criteria) {
	ctx, cancel := context.WithTimeout(context.Background(), cs.timeout)
	defer cancel()

	request := analysis.BuildAnalysisRequest(artwork, criteria)
	prose, err := cs.analyst.Analyze(ctx, artwork.ID, request)

	key := store.AnalysisKey(exhibitionId, artwork.ID)

	session.Mu.Lock()
	rec, ok := session.Analyses[key]
	if !ok || session.Exhibition == nil || session.Exhibition.ID != exhibitionId {
		// The exhibition was replaced while we were waiting; the record is
		// already invalidated.
		session.Mu.Unlock()
		return
	}
	var state string
	if err != nil {
		rec.State = store.AnalysisError
		rec.Error = "analysis failed"
		state = store.AnalysisError
	} else {
		rec.State = store.AnalysisAvailable
		rec.Prose = prose
		rec.Error = ""
		state = store.AnalysisAvailable
	}
	session.Mu.Unlock()

	if err != nil {
		cs.sysLogger.Error("Curation", "Artwork analysis failed", map[string]interface{}{
			"session_id": session.ID, "artwork_id": artwork.ID, "error": err.Error(),
		})
	}
	cs.publishEvent(events.AnalysisUpdate(session.ID, exhibitionId, artwork.ID, state))
}

func (cs *curationService) GetAnalysis(ctx context.Context, sessionId, artworkId string) (*dto.AnalysisView, error) {
	session, found := cs.sessionRepo.Get(sessionId)
	if !found {
		return nil, ErrSessionNotFound
	}

	session.Mu.Lock()
	defer session.Mu.Unlock()

	if session.Exhibition == nil {
		return nil, ErrNoExhibition
	}

	exhibitionId := session.Exhibition.ID
	key := store.AnalysisKey(exhibitionId, artworkId)
	rec, ok := session.Analyses[key]
	if !ok {
		return &dto.AnalysisView{
			ExhibitionId: exhibitionId,
			ArtworkId:    artworkId,
			State:        store.AnalysisNotRequested,
		}, nil
	}
	return &dto.AnalysisView{
		ExhibitionId: rec.ExhibitionID,
		ArtworkId:    rec.ArtworkID,
		State:        rec.State,
		Prose:        rec.Prose,
		Error:        rec.Error,
	}, nil
}

// ResetSession discards the session and all derived state.
func (cs *curationService) ResetSession(ctx context.Context, sessionId string) error {
	session, found := cs.sessionRepo.Get(sessionId)
	if !found {
		return ErrSessionNotFound
	}

	session.Mu.Lock()
	if session.Cancel != nil {
		session.Cancel()
	}
	// Invalidate any in-flight worker before the session disappears.
	session.LatestSeq++
	session.Mu.Unlock()

	cs.sessionRepo.Delete(sessionId)
	cs.sysLogger.Info("Curation", "Session reset", map[string]interface{}{"session_id": sessionId})
	return nil
}

func (cs *curationService) GetCorpus(ctx context.Context) *dto.CorpusResponse {
	return &dto.CorpusResponse{
		Artworks: cs.gallery.Artworks,
		Moods:    corpus.Moods,
	}
}

func (cs *curationService) publishEvent(event events.Event) {
	if err := cs.publisher.PublishEvent(context.Background(), event); err != nil {
		cs.sysLogger.Warn("Curation", "Failed to publish event on bus", map[string]interface{}{
			"type": event.EventType(), "error": err.Error(),
		})
	}
	if cs.natsPub != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := cs.natsPub.Publish(ctx, event); err != nil {
			cs.sysLogger.Warn("Curation", "Failed to publish event to NATS", map[string]interface{}{
				"type": event.EventType(), "error": err.Error(),
			})
		}
		cancel()
	}
}

func toExhibitionView(ex *store.Exhibition) *dto.ExhibitionView {
	ranked := make([]dto.ScoredArtworkView, 0, len(ex.Ranked))
	for _, sa := range ex.Ranked {
		ranked = append(ranked, dto.ScoredArtworkView{Artwork: sa.Artwork, Score: sa.Score})
	}
	return &dto.ExhibitionView{
		Id:        ex.ID,
		Title:     ex.Title,
		Statement: ex.Statement,
		Criteria:  ex.Criteria,
		Ranked:    ranked,
		CreatedAt: ex.CreatedAt,
	}
}
