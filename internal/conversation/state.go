// Package conversation holds the per-chat dialogue state of the bot front-end.
// The core stays stateless; the dispatcher loads a State, acts on it and stores
// the next one.
package conversation

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownState is returned when a stored state carries an unknown kind.
var ErrUnknownState = errors.New("unknown conversation state")

type Kind string

const (
	KindIdle             Kind = "idle"
	KindAwaitingDecision Kind = "awaiting_candidate_decision"
	KindInThread         Kind = "in_thread"
	KindAwaitingReason   Kind = "awaiting_block_reason"
)

// State is one of Idle, AwaitingCandidateDecision, InThread or AwaitingBlockReason.
type State interface {
	Kind() Kind
	isState()
}

// Idle means no flow is in progress.
type Idle struct{}

// AwaitingCandidateDecision means a candidate card is on screen.
type AwaitingCandidateDecision struct {
	CandidateID uint64
}

// InThread means free text is relayed into the thread.
type InThread struct {
	ThreadID string
}

// AwaitingBlockReason means BlockedID was just blocked and the next text is
// stored as the reason.
type AwaitingBlockReason struct {
	BlockedID uint64
}

func (Idle) Kind() Kind                      { return KindIdle }
func (AwaitingCandidateDecision) Kind() Kind { return KindAwaitingDecision }
func (InThread) Kind() Kind                  { return KindInThread }
func (AwaitingBlockReason) Kind() Kind       { return KindAwaitingReason }

func (Idle) isState()                      {}
func (AwaitingCandidateDecision) isState() {}
func (InThread) isState()                  {}
func (AwaitingBlockReason) isState()       {}

type envelope struct {
	Kind        Kind   `json:"kind"`
	CandidateID uint64 `json:"candidate_id,omitempty"`
	ThreadID    string `json:"thread_id,omitempty"`
	BlockedID   uint64 `json:"blocked_id,omitempty"`
}

// Encode serializes a state. A nil state encodes as Idle.
func Encode(s State) ([]byte, error) {
	env := envelope{Kind: KindIdle}
	switch st := s.(type) {
	case nil, Idle:
	case AwaitingCandidateDecision:
		env = envelope{Kind: KindAwaitingDecision, CandidateID: st.CandidateID}
	case InThread:
		env = envelope{Kind: KindInThread, ThreadID: st.ThreadID}
	case AwaitingBlockReason:
		env = envelope{Kind: KindAwaitingReason, BlockedID: st.BlockedID}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownState, s)
	}
	return json.Marshal(env)
}

// Decode parses a state produced by Encode.
func Decode(data []byte) (State, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode conversation state: %w", err)
	}
	return env.state()
}

func (e envelope) state() (State, error) {
	switch e.Kind {
	case KindIdle, "":
		return Idle{}, nil
	case KindAwaitingDecision:
		return AwaitingCandidateDecision{CandidateID: e.CandidateID}, nil
	case KindInThread:
		if e.ThreadID == "" {
			return nil, fmt.Errorf("%w: in_thread without thread id", ErrUnknownState)
		}
		return InThread{ThreadID: e.ThreadID}, nil
	case KindAwaitingReason:
		if e.BlockedID == 0 {
			return nil, fmt.Errorf("%w: awaiting_block_reason without profile id", ErrUnknownState)
		}
		return AwaitingBlockReason{BlockedID: e.BlockedID}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownState, e.Kind)
}
