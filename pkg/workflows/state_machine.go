package workflows

import "fmt"

// StateMachine enforces project status transitions
type StateMachine struct {
	allowedTransitions map[string][]string
}

// NewStateMachine creates a new state machine with the registry's allowed
// status transitions. REJECTED projects may be resubmitted after edits.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		allowedTransitions: map[string][]string{
			"DRAFT":        {"SUBMITTED"},
			"SUBMITTED":    {"UNDER_REVIEW", "APPROVED", "REJECTED"},
			"UNDER_REVIEW": {"APPROVED", "REJECTED"},
			"APPROVED":     {"MINTED"},
			"REJECTED":     {"SUBMITTED"},
			"MINTED":       {},
		},
	}
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine) CanTransition(from, to string) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// Transition validates a transition and returns a descriptive error when it
// is not permitted.
func (sm *StateMachine) Transition(from, to string) error {
	if !sm.CanTransition(from, to) {
		return fmt.Errorf("invalid status transition from %s to %s", from, to)
	}
	return nil
}

// GetAllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine) GetAllowedTransitions(from string) []string {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []string{}
	}
	return allowed
}
