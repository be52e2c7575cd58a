// Package router implements the supervisor that turns one free-form
// message into a dispatch decision.
//
// A message is routed, in order, by an explicit "!" directive, by the
// completion service's classification, or by deterministic fallback rules.
// When nothing matches, the router answers directly with its own persona.
// Classification failures of any kind fall through to the rules and are
// never surfaced to the user.
//
// Dispatches for the same session are serialized so that the history
// window each one sees is consistent.
package router
