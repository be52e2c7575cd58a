// Package tool implements the Tool-Invoker worker: a registry of external
// HTTP APIs described by ToolDefinitions, with credential handling and
// parameter validation.
//
// Three tools are built in (weather, news, dictionary). More can be loaded
// from a YAML file, registered from JSON, or described in free text and
// converted by the completion service. Registered tools persist in storage.
// Credentials are held in memory only and never logged.
package tool
