package dialogStates

import (
	"sync"

	"github.com/google/uuid"

	"github.com/sonofthenation/arcanum/internal/domain"
)

type key struct {
	userID int64
	flow   domain.FlowKind
}

// Registry holds every open dialog, keyed by (user, flow kind). It is
// process memory only: a restart silently drops all open dialogs.
type Registry struct {
	states map[key]*domain.DialogState
	mu     sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		states: make(map[key]*domain.DialogState),
		mu:     sync.RWMutex{},
	}
}

// Open registers a state for (user, flow), replacing any previous one.
// A correlation id is minted if the caller did not set one.
func (r *Registry) Open(userID int64, flow domain.FlowKind, state *domain.DialogState) *domain.DialogState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if state.CorrelationID == "" {
		state.CorrelationID = uuid.New().String()
	}
	r.states[key{userID, flow}] = state
	return state
}

func (r *Registry) Get(userID int64, flow domain.FlowKind) (*domain.DialogState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.states[key{userID, flow}]
	return state, ok
}

// Advance mutates the state for (user, flow) if one is open and reports
// whether it was.
func (r *Registry) Advance(userID int64, flow domain.FlowKind, mutate func(*domain.DialogState)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[key{userID, flow}]
	if !ok {
		return false
	}
	mutate(state)
	return true
}

func (r *Registry) Close(userID int64, flow domain.FlowKind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{userID, flow}
	if _, ok := r.states[k]; !ok {
		return false
	}
	delete(r.states, k)
	return true
}

// CloseAll drops every open dialog of one user and returns how many
// there were. Used by the global cancel.
func (r *Registry) CloseAll(userID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	closed := 0
	for k := range r.states {
		if k.userID == userID {
			delete(r.states, k)
			closed++
		}
	}
	return closed
}
