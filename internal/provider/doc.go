// Package provider adapts LLM backends to the Completer interface.
//
// The router uses a Completer to classify requests and the workers use one
// for natural-language replies. Backends are built on the Eino framework
// (Claude, OpenAI-compatible, ARK) plus the Gemini SDK.
//
// # Selection
//
// New picks a backend from config.Model ("provider/model"). When no
// provider is named, the first provider with credentials wins, in the order
// gemini, anthropic, openai, ark.
//
// # Environment Variables
//
//   - GEMINI_API_KEY: Gemini API key
//   - ANTHROPIC_API_KEY: Anthropic API key
//   - OPENAI_API_KEY: OpenAI API key
//   - ARK_API_KEY, ARK_MODEL_ID, ARK_BASE_URL: Volcengine ARK settings
//
// Replies are untrusted text. Callers that need structured output must
// parse and validate it themselves.
package provider
