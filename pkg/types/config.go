package types

// Config is the MorpheusAI configuration, merged from config files and
// the environment.
type Config struct {
	// Schema reference (for editor support)
	Schema string `json:"$schema,omitempty"`

	// Model selection, "provider/model"
	Model string `json:"model,omitempty"`

	// Provider configs
	Provider map[string]ProviderConfig `json:"provider,omitempty"`

	Server  ServerConfig  `json:"server,omitempty"`
	Sandbox SandboxConfig `json:"sandbox,omitempty"`
	Router  RouterConfig  `json:"router,omitempty"`
	Tools   ToolsConfig   `json:"tools,omitempty"`
	Browser BrowserConfig `json:"browser,omitempty"`
}

// ProviderConfig holds configuration for a specific LLM provider.
type ProviderConfig struct {
	APIKey  string `json:"apiKey,omitempty"`
	BaseURL string `json:"baseURL,omitempty"`

	// Model or endpoint ID; ARK addresses models by endpoint.
	Model string `json:"model,omitempty"`

	// Nested options
	Options *ProviderOptions `json:"options,omitempty"`

	Disable bool `json:"disable,omitempty"`
}

// ProviderOptions holds nested provider options.
type ProviderOptions struct {
	APIKey  string `json:"apiKey,omitempty"`
	BaseURL string `json:"baseURL,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int   `json:"port,omitempty"`
	CORS *bool `json:"cors,omitempty"`
}

// SandboxConfig configures the confined roots and timeouts of the workers.
// Durations are in milliseconds.
type SandboxConfig struct {
	CommandRoot       string `json:"commandRoot,omitempty"`
	EditorRoot        string `json:"editorRoot,omitempty"`
	ScreenshotDir     string `json:"screenshotDir,omitempty"`
	CommandTimeout    int    `json:"commandTimeout,omitempty"`
	NavigationTimeout int    `json:"navigationTimeout,omitempty"`
	Watch             *bool  `json:"watch,omitempty"`
}

// RouterConfig configures the supervisor. CompletionTimeout (ms) bounds
// each call to the completion service, by the router and the workers alike.
type RouterConfig struct {
	HistoryWindow     int    `json:"historyWindow,omitempty"`
	Persona           string `json:"persona,omitempty"`
	CompletionTimeout int    `json:"completionTimeout,omitempty"`
}

// ToolsConfig configures the tool invoker.
type ToolsConfig struct {
	DefinitionsFile string            `json:"definitionsFile,omitempty"`
	APIKeys         map[string]string `json:"apiKeys,omitempty"`
}

// BrowserConfig configures the headless browser.
type BrowserConfig struct {
	Headless *bool  `json:"headless,omitempty"`
	Bin      string `json:"bin,omitempty"`
}
