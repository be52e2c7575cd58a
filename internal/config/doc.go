// Package config loads the MorpheusAI configuration and resolves the data
// directories it uses.
//
// # Configuration Loading
//
// Load merges configuration from these sources, later ones winning:
//
//  1. Built-in defaults (Defaults)
//  2. Global config: $XDG_CONFIG_HOME/morpheus/morpheus.json[c]
//  3. Project config: morpheus.json[c] in the working directory
//  4. The file named by MORPHEUS_CONFIG
//  5. Environment variables
//
// A .env file in the working directory is loaded with godotenv before the
// environment is read; variables already set in the process are kept.
//
// # Supported Formats
//
// Files may be plain JSON or JSONC; comments are stripped with tidwall/jsonc.
//
// # Variable Interpolation
//
//   - {env:VAR} is replaced with the value of VAR
//   - {file:path} is replaced with the file's content, with relative paths
//     resolved against the config file's directory and ~/ against HOME
//
// # Environment Overrides
//
//	ANTHROPIC_API_KEY, OPENAI_API_KEY, ARK_API_KEY    provider keys
//	GEMINI_API_KEY (or GOOGLE_API_KEY)                 gemini provider key
//	WEATHER_API_KEY, NEWS_API_KEY                      built-in tool keys
//	MORPHEUS_MODEL                                     "provider/model"
//	MORPHEUS_PORT                                      HTTP port
//	MORPHEUS_COMMAND_ROOT, MORPHEUS_EDITOR_ROOT        sandbox roots
//
// # Paths
//
// GetPaths follows the XDG base directory layout under a "morpheus"
// subdirectory. Persistent records (plans, registered tools) live under
// Paths.StoragePath().
package config
