package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"

	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

// Defaults for sandbox and server settings.
const (
	DefaultPort              = 3001
	DefaultCommandRoot       = "/tmp/morpheus-sandbox"
	DefaultEditorRoot        = "/tmp/morpheus-editor"
	DefaultCommandTimeout    = 10 * time.Second
	DefaultNavigationTimeout = 30 * time.Second
	DefaultHistoryWindow     = 10
	DefaultCompletionTimeout = 60 * time.Second
)

var (
	envPattern  = regexp.MustCompile(`\{env:([^}]+)\}`)
	filePattern = regexp.MustCompile(`\{file:([^}]+)\}`)
)

// Load loads configuration from multiple sources (priority order):
// 1. Built-in defaults
// 2. Global config (~/.config/morpheus/)
// 3. Project config (morpheus.json[c] in directory)
// 4. MORPHEUS_CONFIG file
// 5. Environment variables, after loading .env from directory
func Load(directory string) (*types.Config, error) {
	config := Defaults()

	loaded := make(map[string]bool)
	loadOnce := func(path string, baseDir string) {
		absPath, err := filepath.Abs(path)
		if err != nil || loaded[absPath] {
			return
		}
		if loadConfigFile(path, config, baseDir) == nil {
			loaded[absPath] = true
		}
	}

	globalPath := GetPaths().Config
	loadOnce(filepath.Join(globalPath, "morpheus.json"), globalPath)
	loadOnce(filepath.Join(globalPath, "morpheus.jsonc"), globalPath)

	if directory != "" {
		loadOnce(filepath.Join(directory, "morpheus.json"), directory)
		loadOnce(filepath.Join(directory, "morpheus.jsonc"), directory)

		// Existing environment always wins over .env.
		_ = godotenv.Load(filepath.Join(directory, ".env"))
	}

	if configPath := os.Getenv("MORPHEUS_CONFIG"); configPath != "" {
		loadOnce(configPath, filepath.Dir(configPath))
	}

	applyEnvOverrides(config)
	normalizeProviderConfig(config)

	return config, nil
}

// Defaults returns a configuration with every default filled in.
func Defaults() *types.Config {
	return &types.Config{
		Provider: make(map[string]types.ProviderConfig),
		Server:   types.ServerConfig{Port: DefaultPort},
		Sandbox: types.SandboxConfig{
			CommandRoot:       DefaultCommandRoot,
			EditorRoot:        DefaultEditorRoot,
			ScreenshotDir:     filepath.Join(os.TempDir(), "morpheus-screenshots"),
			CommandTimeout:    int(DefaultCommandTimeout / time.Millisecond),
			NavigationTimeout: int(DefaultNavigationTimeout / time.Millisecond),
		},
		Router: types.RouterConfig{
			HistoryWindow:     DefaultHistoryWindow,
			CompletionTimeout: int(DefaultCompletionTimeout / time.Millisecond),
		},
		Tools:  types.ToolsConfig{APIKeys: make(map[string]string)},
	}
}

// loadConfigFile loads a single config file with interpolation support.
func loadConfigFile(path string, config *types.Config, baseDir string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	data = jsonc.ToJSON(data)
	data = interpolate(data, baseDir)

	var fileConfig types.Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return err
	}

	mergeConfig(config, &fileConfig)
	return nil
}

// interpolate processes {env:VAR} and {file:path} placeholders.
func interpolate(data []byte, baseDir string) []byte {
	str := envPattern.ReplaceAllStringFunc(string(data), func(match string) string {
		return os.Getenv(envPattern.FindStringSubmatch(match)[1])
	})

	str = filePattern.ReplaceAllStringFunc(str, func(match string) string {
		filePath := filePattern.FindStringSubmatch(match)[1]
		if strings.HasPrefix(filePath, "~/") {
			filePath = filepath.Join(os.Getenv("HOME"), filePath[2:])
		} else if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(baseDir, filePath)
		}

		content, err := os.ReadFile(filePath)
		if err != nil {
			return match
		}

		// Embed as the inside of a JSON string.
		quoted, _ := json.Marshal(strings.TrimRight(string(content), "\n"))
		return string(quoted[1 : len(quoted)-1])
	})

	return []byte(str)
}

// normalizeProviderConfig merges Options fields into direct fields.
func normalizeProviderConfig(config *types.Config) {
	for name, provider := range config.Provider {
		if provider.Options != nil {
			if provider.Options.APIKey != "" {
				provider.APIKey = provider.Options.APIKey
			}
			if provider.Options.BaseURL != "" {
				provider.BaseURL = provider.Options.BaseURL
			}
		}
		config.Provider[name] = provider
	}
}

// mergeConfig merges non-zero fields of source into target.
func mergeConfig(target, source *types.Config) {
	if source.Schema != "" {
		target.Schema = source.Schema
	}
	if source.Model != "" {
		target.Model = source.Model
	}

	if source.Provider != nil {
		if target.Provider == nil {
			target.Provider = make(map[string]types.ProviderConfig)
		}
		for k, v := range source.Provider {
			target.Provider[k] = v
		}
	}

	if source.Server.Port != 0 {
		target.Server.Port = source.Server.Port
	}
	if source.Server.CORS != nil {
		target.Server.CORS = source.Server.CORS
	}

	s := source.Sandbox
	if s.CommandRoot != "" {
		target.Sandbox.CommandRoot = s.CommandRoot
	}
	if s.EditorRoot != "" {
		target.Sandbox.EditorRoot = s.EditorRoot
	}
	if s.ScreenshotDir != "" {
		target.Sandbox.ScreenshotDir = s.ScreenshotDir
	}
	if s.CommandTimeout > 0 {
		target.Sandbox.CommandTimeout = s.CommandTimeout
	}
	if s.NavigationTimeout > 0 {
		target.Sandbox.NavigationTimeout = s.NavigationTimeout
	}
	if s.Watch != nil {
		target.Sandbox.Watch = s.Watch
	}

	if source.Router.HistoryWindow > 0 {
		target.Router.HistoryWindow = source.Router.HistoryWindow
	}
	if source.Router.CompletionTimeout > 0 {
		target.Router.CompletionTimeout = source.Router.CompletionTimeout
	}
	if source.Router.Persona != "" {
		target.Router.Persona = source.Router.Persona
	}

	if source.Tools.DefinitionsFile != "" {
		target.Tools.DefinitionsFile = source.Tools.DefinitionsFile
	}
	if source.Tools.APIKeys != nil {
		if target.Tools.APIKeys == nil {
			target.Tools.APIKeys = make(map[string]string)
		}
		for k, v := range source.Tools.APIKeys {
			target.Tools.APIKeys[k] = v
		}
	}

	if source.Browser.Headless != nil {
		target.Browser.Headless = source.Browser.Headless
	}
	if source.Browser.Bin != "" {
		target.Browser.Bin = source.Browser.Bin
	}
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(config *types.Config) {
	providerEnvMap := map[string][]string{
		"anthropic": {"ANTHROPIC_API_KEY"},
		"openai":    {"OPENAI_API_KEY"},
		"ark":       {"ARK_API_KEY"},
		"gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	}

	for provider, envVars := range providerEnvMap {
		for _, envVar := range envVars {
			apiKey := os.Getenv(envVar)
			if apiKey == "" {
				continue
			}
			if config.Provider == nil {
				config.Provider = make(map[string]types.ProviderConfig)
			}
			p := config.Provider[provider]
			if p.APIKey == "" {
				p.APIKey = apiKey
				config.Provider[provider] = p
			}
			break
		}
	}

	toolEnvMap := map[string]string{
		"weather": "WEATHER_API_KEY",
		"news":    "NEWS_API_KEY",
	}
	for tool, envVar := range toolEnvMap {
		if key := os.Getenv(envVar); key != "" {
			if config.Tools.APIKeys == nil {
				config.Tools.APIKeys = make(map[string]string)
			}
			if config.Tools.APIKeys[tool] == "" {
				config.Tools.APIKeys[tool] = key
			}
		}
	}

	if model := os.Getenv("MORPHEUS_MODEL"); model != "" {
		config.Model = model
	}
	if port, err := strconv.Atoi(os.Getenv("MORPHEUS_PORT")); err == nil && port > 0 {
		config.Server.Port = port
	}
	if root := os.Getenv("MORPHEUS_COMMAND_ROOT"); root != "" {
		config.Sandbox.CommandRoot = root
	}
	if root := os.Getenv("MORPHEUS_EDITOR_ROOT"); root != "" {
		config.Sandbox.EditorRoot = root
	}
}

// CommandTimeout returns the configured Command-Exec timeout.
func CommandTimeout(c *types.Config) time.Duration {
	if c.Sandbox.CommandTimeout <= 0 {
		return DefaultCommandTimeout
	}
	return time.Duration(c.Sandbox.CommandTimeout) * time.Millisecond
}

// NavigationTimeout returns the configured browser navigation timeout.
func NavigationTimeout(c *types.Config) time.Duration {
	if c.Sandbox.NavigationTimeout <= 0 {
		return DefaultNavigationTimeout
	}
	return time.Duration(c.Sandbox.NavigationTimeout) * time.Millisecond
}

// CompletionTimeout returns the bound on one completion call.
func CompletionTimeout(c *types.Config) time.Duration {
	if c.Router.CompletionTimeout <= 0 {
		return DefaultCompletionTimeout
	}
	return time.Duration(c.Router.CompletionTimeout) * time.Millisecond
}

// Save saves the configuration to a file.
func Save(config *types.Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
