// Package notifications delivers pipeline milestones via ntfy push
// messages. Delivery is best effort: callers log failures and move on,
// and when no topic is configured every call is a no-op.
package notifications
