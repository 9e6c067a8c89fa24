// Package events is the in-process domain event bus. Handlers run
// synchronously in publish order but are isolated from each other: a
// handler error or panic is logged and swallowed, never propagated to
// the publisher or to other subscribers.
package events
