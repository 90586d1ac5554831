package store

import (
	"context"
	"sync"
	"time"

	"mythos-curation-be/pkg/curation"
)

// Exhibition is one complete, ranked curation result. Produced atomically
// from a single scoring pass and replaced wholesale by the next successful
// curation request.
type Exhibition struct {
	ID        string                   `json:"id"`
	Title     string                   `json:"title"`
	Statement string                   `json:"statement"`
	Criteria  curation.Criteria        `json:"criteria"`
	Ranked    []curation.ScoredArtwork `json:"ranked"`
	CreatedAt time.Time                `json:"created_at"`
}

// Fault is a recovered curation failure surfaced as state.
type Fault struct {
	Kind    string `json:"kind"` // FaultCollaborator | FaultValidation
	Message string `json:"message"`
}

const (
	FaultCollaborator = "COLLABORATOR"
	FaultValidation   = "VALIDATION"
)

// AnalysisRecord tracks one artwork's on-demand deep analysis. Keyed by
// (exhibition, artwork) so a new Exhibition invalidates old analyses.
type AnalysisRecord struct {
	ExhibitionID string `json:"exhibition_id"`
	ArtworkID    string `json:"artwork_id"`
	State        string `json:"state"`
	Prose        string `json:"prose,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Session is the active curation session state in memory.
//
// Mu guards every mutable field. The curation flow runs in background
// goroutines, so all reads and writes outside construction must hold it.
type Session struct {
	Mu sync.Mutex `json:"-"`

	ID    string `json:"id"`
	State string `json:"state"`

	// LatestSeq is the authority for last-request-wins: a worker whose
	// sequence no longer equals it discards its result on arrival.
	LatestSeq uint64 `json:"latest_seq"`

	// Cancel aborts the superseded in-flight collaborator call. Logical
	// discard via LatestSeq still applies if a response slips through.
	Cancel context.CancelFunc `json:"-"`

	// Exhibition survives later failures: a failed re-curation never blanks
	// out a previously successful result.
	Exhibition *Exhibition `json:"exhibition,omitempty"`
	LastError  *Fault      `json:"last_error,omitempty"`

	// BroadResults is set when the active criteria under-specify every
	// dimension and the ranking will be broad.
	BroadResults bool `json:"broad_results"`

	// Analyses is keyed by exhibitionID + "/" + artworkID.
	Analyses map[string]*AnalysisRecord `json:"analyses,omitempty"`
}

// Primary state machine states.
const (
	StateIdle               = "IDLE"
	StateRequestingCriteria = "REQUESTING_CRITERIA"
	StateValidating         = "VALIDATING"
	StateScoring            = "SCORING"
	StateReady              = "READY"
	StateError              = "ERROR"
)

// Per-artwork analysis sub-states.
const (
	AnalysisNotRequested = "NOT_REQUESTED"
	AnalysisRequesting   = "REQUESTING"
	AnalysisAvailable    = "AVAILABLE"
	AnalysisError        = "ERROR"
)

// AnalysisKey builds the (exhibition, artwork) map key.
func AnalysisKey(exhibitionID, artworkID string) string {
	return exhibitionID + "/" + artworkID
}
