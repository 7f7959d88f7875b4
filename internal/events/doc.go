// Package events provides an in-process event bus.
//
// Services publish facts (a user recorded a decision) without knowing who
// reacts to them; handlers such as the preference learner subscribe through
// an EventEmitter. Delivery is synchronous and in registration order.
package events
