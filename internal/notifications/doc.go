// Package notifications delivers submission outcome events via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. All submission code depends only on the small Service
// interface, so alternative transports slot in without touching the
// orchestrator.
package notifications
