// Package permission implements the sandbox boundary checks shared by the
// capability workers.
//
// Three guards cover the three kinds of resources a worker can touch:
//
//   - CommandGuard rejects shell lines containing any denylisted substring
//     (case-insensitive). ParseShell breaks accepted lines into their simple
//     commands with mvdan.cc/sh for execution metadata only; the parse never
//     relaxes the denylist.
//   - DomainGuard rejects navigation targets whose hostname matches the
//     blocklist. URLs that fail to parse, lack a host or use a non-http
//     scheme are rejected (fail-closed).
//   - PathGuard maps user paths onto a sandbox root, rejects anything that
//     normalizes outside it and filters file extensions.
//
// Every rejection is a *RejectedError carrying a stable Reason code. The
// checks run on every call, before any side effect.
//
// These are best-effort filters, not a jail: substring denylists are easy to
// get around with quoting or encoding tricks.
package permission
