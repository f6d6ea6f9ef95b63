package ports

// Metrics receives the core's business counters. Implementations must be
// safe for concurrent use.
type Metrics interface {
	AuthorizationDecision(action string, allowed bool)
	LifecycleTransition(resource, to string)
	PaymentIntent(outcome string)
}
