// Package command parses the "!" directives users type to address a
// worker explicitly, bypassing classification.
//
// # Directives
//
//   - !exec <command>
//   - !file read|write|edit|delete|create|list <path> [args]
//   - !tool <name> <params>
//   - !register <definition>
//   - !list tools
//   - !apikey <tool> <key>
//   - !plan create|update|list|details [args]
//
// Parse returns false for input that does not start with a known
// directive, leaving it to the natural-language path.
package command
