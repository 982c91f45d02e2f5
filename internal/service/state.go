package service

import (
	"github.com/listenupapp/shelf/internal/domain"
	"github.com/listenupapp/shelf/internal/sse"
)

// State is where a lookup key is in the capture pipeline.
type State string

// Pipeline states.
const (
	StateIdle       State = "idle"
	StateResolving  State = "resolving"
	StatePersisting State = "persisting"
	StateSettled    State = "settled"
)

// Outcome is how a settled key ended.
type Outcome string

// Settled outcomes.
const (
	OutcomeSuccess Outcome = "success"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Skip reasons added by the coordinator. Resolver reasons pass through unchanged.
const (
	ReasonSelectionChanged = "selection_changed"
	ReasonSessionClosed    = "session_closed"
)

// Transition is published every time a key changes state.
// Book is set on success, Err on failure.
type Transition struct {
	Book         *domain.Book     `json:"book,omitempty"`
	Err          error            `json:"-"`
	Key          domain.LookupKey `json:"key"`
	State        State            `json:"state"`
	Outcome      Outcome          `json:"outcome,omitempty"`
	Reason       string           `json:"reason,omitempty"`
	Error        string           `json:"error,omitempty"`
	CollectionID string           `json:"collection_id,omitempty"`
}

// Settled reports whether the transition is terminal.
func (t Transition) Settled() bool {
	return t.State == StateSettled
}

func (t Transition) event(userID string) sse.Event {
	return sse.NewCaptureEvent(userID, sse.CaptureEventData{
		Book:         t.Book,
		Key:          t.Key.Value,
		KeyKind:      string(t.Key.Kind),
		State:        string(t.State),
		Result:       string(t.Outcome),
		Reason:       t.Reason,
		Error:        t.Error,
		CollectionID: t.CollectionID,
	})
}

// SubmitStatus is the immediate answer to a submitted token.
type SubmitStatus string

// Submission statuses.
const (
	SubmitAccepted    SubmitStatus = "accepted"
	SubmitNoCandidate SubmitStatus = "no_candidate"
	SubmitDuplicate   SubmitStatus = "duplicate"
	SubmitNoSelection SubmitStatus = "no_selection"
	SubmitClosed      SubmitStatus = "closed"
)
