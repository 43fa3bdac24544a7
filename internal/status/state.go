package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/bus"
)

// Phase is the state of the active conversation view.
type Phase string

const (
	NoConversation    Phase = "NO_CONVERSATION"
	LoadingHistory    Phase = "LOADING_HISTORY"
	ConversationReady Phase = "CONVERSATION_READY"
)

// validTransitions defines allowed phase transitions. There is no way back
// to NoConversation: once a correspondent is picked the view always shows one.
var validTransitions = map[Phase][]Phase{
	NoConversation:    {LoadingHistory},
	LoadingHistory:    {LoadingHistory, ConversationReady},
	ConversationReady: {LoadingHistory, ConversationReady},
}

// Machine tracks and enforces conversation phase transitions.
type Machine struct {
	mu            sync.RWMutex
	current       Phase
	correspondent int64
	bus           *bus.Bus
}

// NewMachine creates a new machine with no conversation selected.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: NoConversation,
		bus:     b,
	}
}

// Current returns the current phase.
func (m *Machine) Current() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Correspondent returns the id the current phase refers to, 0 when none.
func (m *Machine) Correspondent() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.correspondent
}

// Transition attempts to move to a new phase for the given correspondent.
// Returns error if the transition is invalid.
func (m *Machine) Transition(to Phase, correspondentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	if correspondentID <= 0 {
		return fmt.Errorf("transition to %s: correspondent id %d", to, correspondentID)
	}
	from := m.current
	m.current = to
	m.correspondent = correspondentID
	m.bus.Emit(bus.KindPhaseChanged, PhaseChange{
		From:            from,
		To:              to,
		CorrespondentID: correspondentID,
	})
	return nil
}

// PhaseChange is the payload for phase change events.
type PhaseChange struct {
	From            Phase
	To              Phase
	CorrespondentID int64
}
