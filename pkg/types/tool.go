package types

// AuthType is how a tool authenticates against its endpoint.
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthAPIKey AuthType = "apiKey"
	AuthBearer AuthType = "bearer"
	AuthBasic  AuthType = "basic"
)

// ToolDefinition describes an external HTTP API reachable through the
// tool invoker.
type ToolDefinition struct {
	Name         string          `json:"name" yaml:"name"`
	Description  string          `json:"description" yaml:"description"`
	Endpoint     string          `json:"endpoint" yaml:"endpoint"`
	Method       string          `json:"method" yaml:"method"`
	RequiresAuth bool            `json:"requiresAuth" yaml:"requiresAuth"`
	AuthType     AuthType        `json:"authType,omitempty" yaml:"authType,omitempty"`
	// AuthParam names the query parameter carrying an apiKey credential.
	// Defaults to "apiKey".
	AuthParam    string          `json:"authParam,omitempty" yaml:"authParam,omitempty"`
	Parameters   []ToolParameter `json:"parameters" yaml:"parameters"`
	// ResultFilter is an optional jq expression applied to JSON responses.
	ResultFilter string          `json:"resultFilter,omitempty" yaml:"resultFilter,omitempty"`
}

// ToolParameter is one declared input of a tool.
type ToolParameter struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
	Type        string `json:"type" yaml:"type"`
	// Key is the name sent on the wire when it differs from Name.
	Key         string `json:"key,omitempty" yaml:"key,omitempty"`
}

// WireName returns the request name of the parameter.
func (p ToolParameter) WireName() string {
	if p.Key != "" {
		return p.Key
	}
	return p.Name
}

// RequiredParameters returns the names of the parameters marked required.
func (d *ToolDefinition) RequiredParameters() []string {
	var out []string
	for _, p := range d.Parameters {
		if p.Required {
			out = append(out, p.Name)
		}
	}
	return out
}
