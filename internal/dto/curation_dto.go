package dto

import (
	"time"

	"mythos-curation-be/pkg/corpus"
	"mythos-curation-be/pkg/curation"
)

type CreateSessionResponse struct {
	Id string `json:"id"`
}

// SubmitPromptRequest carries the free-text emotional prompt. The 5-char
// minimum is enforced here, before anything reaches the collaborator.
type SubmitPromptRequest struct {
	Prompt string `json:"prompt" validate:"required,min=5"`
}

// SubmitPromptResponse acknowledges an accepted prompt. Curation continues
// asynchronously; Seq identifies this request for last-request-wins.
type SubmitPromptResponse struct {
	SessionId string `json:"session_id"`
	Seq       uint64 `json:"seq"`
	State     string `json:"state"`
}

type FaultView struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type ScoredArtworkView struct {
	Artwork corpus.Artwork `json:"artwork"`
	Score   float64        `json:"score"`
}

type ExhibitionView struct {
	Id        string              `json:"id"`
	Title     string              `json:"title"`
	Statement string              `json:"statement"`
	Criteria  curation.Criteria   `json:"criteria"`
	Ranked    []ScoredArtworkView `json:"ranked"`
	CreatedAt time.Time           `json:"created_at"`
}

// SessionView exposes exhibition and error side by side: a failed
// re-curation leaves the previous exhibition intact and displayed.
type SessionView struct {
	Id           string          `json:"id"`
	State        string          `json:"state"`
	BroadResults bool            `json:"broad_results"`
	Exhibition   *ExhibitionView `json:"exhibition,omitempty"`
	LastError    *FaultView      `json:"last_error,omitempty"`
}

type AnalysisView struct {
	ExhibitionId string `json:"exhibition_id"`
	ArtworkId    string `json:"artwork_id"`
	State        string `json:"state"`
	Prose        string `json:"prose,omitempty"`
	Error        string `json:"error,omitempty"`
}

type AnalysisAck struct {
	ExhibitionId string `json:"exhibition_id"`
	ArtworkId    string `json:"artwork_id"`
	State        string `json:"state"`
}

type CorpusResponse struct {
	Artworks []corpus.Artwork `json:"artworks"`
	Moods    []string         `json:"moods"`
}
