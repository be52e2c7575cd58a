// Package session provides the in-process session store: the authoritative
// registry of conversations, their message logs, routing audit logs and UI
// metadata.
//
// All state lives in memory for the lifetime of the process. Every read
// returns a defensive copy, every mutation refreshes LastActive, and
// mutations are serialized by a single store-wide lock. When a Bus is
// configured, the store publishes session.created, session.updated,
// session.deleted, message.added, routed.added and user_control_changed
// events after the lock is released.
package session
