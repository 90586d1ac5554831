package events

import "time"

// Event type codes for the curation flow.
const (
	TypeStateChanged   = "CURATION_STATE_CHANGED"
	TypeExhibitionOpen = "CURATION_EXHIBITION_READY"
	TypeCurationFailed = "CURATION_FAILED"
	TypeAnalysisUpdate = "CURATION_ANALYSIS_UPDATE"
)

// StateChanged announces a primary state machine transition for a session.
func StateChanged(sessionID, state string, seq uint64) Event {
	return BaseEvent{
		Type: TypeStateChanged,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"state":      state,
			"seq":        seq,
		},
		OccurredAt: time.Now(),
	}
}

// ExhibitionReady announces a freshly curated exhibition.
func ExhibitionReady(sessionID, exhibitionID, title string, artworkCount int) Event {
	return BaseEvent{
		Type: TypeExhibitionOpen,
		Data: map[string]interface{}{
			"session_id":    sessionID,
			"exhibition_id": exhibitionID,
			"title":         title,
			"artwork_count": artworkCount,
		},
		OccurredAt: time.Now(),
	}
}

// CurationFailed announces a recovered curation failure. The previous
// exhibition, if any, is still intact.
func CurationFailed(sessionID, faultKind, message string) Event {
	return BaseEvent{
		Type: TypeCurationFailed,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"fault":      faultKind,
			"message":    message,
		},
		OccurredAt: time.Now(),
	}
}

// AnalysisUpdate announces a per-artwork analysis sub-state change.
func AnalysisUpdate(sessionID, exhibitionID, artworkID, state string) Event {
	return BaseEvent{
		Type: TypeAnalysisUpdate,
		Data: map[string]interface{}{
			"session_id":    sessionID,
			"exhibition_id": exhibitionID,
			"artwork_id":    artworkID,
			"state":         state,
		},
		OccurredAt: time.Now(),
	}
}
