package application

// IntrusionCoordinator translates tracker state into an alarm decision. The
// decision is deterministic: no randomness, no back-off.
type IntrusionCoordinator struct {
	threshold int
}

// NewIntrusionCoordinator constructs a coordinator with the given escalation
// threshold.
func NewIntrusionCoordinator(threshold int) *IntrusionCoordinator {
	if threshold <= 0 {
		threshold = 3
	}
	return &IntrusionCoordinator{threshold: threshold}
}

// Evaluate reports whether the given failure count warrants escalation.
func (c *IntrusionCoordinator) Evaluate(failureCount int) bool {
	return failureCount >= c.threshold
}

// Threshold returns the configured escalation threshold.
func (c *IntrusionCoordinator) Threshold() int {
	return c.threshold
}
