// Package status tracks the load state of the open conversation.
package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/dmchat/internal/bus"
)

// State represents the load state of a conversation switch.
type State string

const (
	Idle        State = "IDLE"
	Loading     State = "LOADING"
	Loaded      State = "LOADED"
	Error       State = "ERROR"
	DeletedPeer State = "DELETED_PEER"
)

// validTransitions defines allowed state transitions. Selecting another
// conversation restarts from any settled state.
var validTransitions = map[State][]State{
	Idle:        {Loading, DeletedPeer},
	Loading:     {Loading, Loaded, Error, DeletedPeer, Idle},
	Loaded:      {Loading, DeletedPeer, Idle},
	Error:       {Loading, DeletedPeer, Idle},
	DeletedPeer: {Loading, DeletedPeer, Idle},
}

// Machine tracks and enforces load state transitions.
type Machine struct {
	mu           sync.RWMutex
	current      State
	conversation string
	bus          *bus.Bus
}

// NewMachine creates a new state machine starting in Idle state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Idle,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Conversation returns the conversation the current state belongs to.
func (m *Machine) Conversation() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conversation
}

// Transition attempts to move to a new state for conversation id. Returns
// error if transition is invalid.
func (m *Machine) Transition(id string, to State) error {
	m.mu.Lock()
	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		from := m.current
		m.mu.Unlock()
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	change := StatusChange{From: m.current, To: to, ConversationID: id}
	m.current = to
	m.conversation = id
	m.mu.Unlock()

	m.bus.Emit(bus.KindLoadState, change)
	return nil
}

// Reset returns to Idle from any state.
func (m *Machine) Reset() {
	m.mu.Lock()
	change := StatusChange{From: m.current, To: Idle}
	m.current = Idle
	m.conversation = ""
	m.mu.Unlock()
	if change.From != Idle {
		m.bus.Emit(bus.KindLoadState, change)
	}
}

// StatusChange is the payload for load state events.
type StatusChange struct {
	From           State
	To             State
	ConversationID string
}
