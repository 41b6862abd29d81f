package workflows

// Project lifecycle statuses.
const (
	StatusSubmitted   = "submitted"
	StatusUnderReview = "under-review"
	StatusVerified    = "verified"
	StatusRejected    = "rejected"
)

// StateMachine enforces project status transitions
type StateMachine struct {
	allowedTransitions map[string][]string
	terminal           map[string]bool
	allowRedecision    bool
}

// NewStateMachine creates the project lifecycle state machine. When
// allowRedecision is set, a terminal project may be decided again as
// verified or rejected.
func NewStateMachine(allowRedecision bool) *StateMachine {
	return &StateMachine{
		allowedTransitions: map[string][]string{
			StatusSubmitted:   {StatusUnderReview, StatusRejected},
			StatusUnderReview: {StatusVerified, StatusRejected},
			StatusVerified:    {},
			StatusRejected:    {},
		},
		terminal: map[string]bool{
			StatusVerified: true,
			StatusRejected: true,
		},
		allowRedecision: allowRedecision,
	}
}

// IsKnown reports whether status is a lifecycle status.
func (sm *StateMachine) IsKnown(status string) bool {
	_, ok := sm.allowedTransitions[status]
	return ok
}

// IsTerminal reports whether no regular transition leaves status.
func (sm *StateMachine) IsTerminal(status string) bool {
	return sm.terminal[status]
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine) CanTransition(from, to string) bool {
	for _, allowedTo := range sm.GetAllowedTransitions(from) {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// GetAllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine) GetAllowedTransitions(from string) []string {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []string{}
	}
	if sm.terminal[from] && sm.allowRedecision {
		return []string{StatusVerified, StatusRejected}
	}
	return allowed
}

// DecisionStatuses are the statuses a validator may request.
func DecisionStatuses() []string {
	return []string{StatusUnderReview, StatusVerified, StatusRejected}
}
