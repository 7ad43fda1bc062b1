package workflows

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	sm := NewStateMachine()

	cases := []struct {
		from, to string
		allowed  bool
	}{
		{"DRAFT", "SUBMITTED", true},
		{"SUBMITTED", "UNDER_REVIEW", true},
		{"SUBMITTED", "APPROVED", true},
		{"UNDER_REVIEW", "REJECTED", true},
		{"APPROVED", "MINTED", true},
		{"REJECTED", "SUBMITTED", true},
		{"MINTED", "APPROVED", false},
		{"DRAFT", "APPROVED", false},
		{"APPROVED", "REJECTED", false},
		{"UNKNOWN", "SUBMITTED", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, sm.CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTransitionError(t *testing.T) {
	sm := NewStateMachine()

	assert.NoError(t, sm.Transition("SUBMITTED", "APPROVED"))

	err := sm.Transition("MINTED", "DRAFT")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "MINTED")
}

func TestGetAllowedTransitions(t *testing.T) {
	sm := NewStateMachine()

	assert.ElementsMatch(t, []string{"UNDER_REVIEW", "APPROVED", "REJECTED"}, sm.GetAllowedTransitions("SUBMITTED"))
	assert.Empty(t, sm.GetAllowedTransitions("MINTED"))
	assert.Empty(t, sm.GetAllowedTransitions("UNKNOWN"))
}
