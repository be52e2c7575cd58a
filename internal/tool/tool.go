package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/shubharthaksangharsha/morpheusAI/internal/agent"
	"github.com/shubharthaksangharsha/morpheusAI/internal/command"
	"github.com/shubharthaksangharsha/morpheusAI/internal/logging"
	"github.com/shubharthaksangharsha/morpheusAI/internal/provider"
	"github.com/shubharthaksangharsha/morpheusAI/internal/storage"
	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

const (
	DefaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 2000
)

const description = "Calls external APIs and services such as weather, " +
	"news and dictionary lookups, and registers new API tools."

const registerPrompt = `Convert the user's description of an HTTP API into a tool
definition. Reply with JSON only, in a ` + "```json" + ` block:
{
  "name": "lowercase_name",
  "description": "what the tool does",
  "endpoint": "https://...",
  "method": "GET|POST|PUT|DELETE",
  "requiresAuth": false,
  "authType": "none|apiKey|bearer|basic",
  "parameters": [{"name": "...", "description": "...", "required": true, "type": "string"}]
}`

const chatPrompt = `You are an assistant for calling external API tools.
Users call tools with:
  !tool <name> <parameters as JSON or key:value pairs>
  !register <tool definition JSON or description>
  !list tools
  !apikey <tool> <key>
Suggest the exact directive for the user's request.`

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// Worker is the Tool-Invoker worker.
type Worker struct {
	agent.Info
	registry  *Registry
	client    *http.Client
	store     *storage.Storage
	defsFile  string
	completer provider.Completer
	log       zerolog.Logger
}

// Option configures a Worker.
type Option func(*Worker)

// WithStorage persists registered tools in store.
func WithStorage(store *storage.Storage) Option {
	return func(w *Worker) { w.store = store }
}

// WithCompleter sets the completion service.
func WithCompleter(c provider.Completer) Option {
	return func(w *Worker) { w.completer = c }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(w *Worker) { w.client = c }
}

// WithDefinitionsFile loads extra tools from a YAML file at Initialize.
func WithDefinitionsFile(path string) Option {
	return func(w *Worker) { w.defsFile = path }
}

// WithCredentials sets initial credentials, keyed by tool name.
func WithCredentials(creds map[string]string) Option {
	return func(w *Worker) {
		for name, secret := range creds {
			w.registry.SetSecret(name, secret)
		}
	}
}

// New creates a Tool-Invoker worker.
func New(opts ...Option) *Worker {
	w := &Worker{
		Info:     agent.NewInfo(agent.NameTool, description, agent.KindTool),
		registry: NewRegistry(),
		client:   &http.Client{Timeout: DefaultHTTPTimeout},
		log:      logging.Component("tool"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Registry exposes the tool registry.
func (w *Worker) Registry() *Registry { return w.registry }

// Initialize loads tools from the definitions file and from storage.
func (w *Worker) Initialize(ctx context.Context) error {
	var errs []error
	if w.defsFile != "" {
		defs, err := LoadDefinitions(w.defsFile)
		if err != nil {
			errs = append(errs, err)
		}
		for _, def := range defs {
			if _, err := w.registry.Put(def); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if w.store != nil {
		err := w.store.Scan(ctx, []string{"tools"}, func(key string, data json.RawMessage) error {
			var def types.ToolDefinition
			if err := json.Unmarshal(data, &def); err != nil {
				w.log.Warn().Err(err).Str("key", key).Msg("skipping unreadable tool")
				return nil
			}
			if _, err := w.registry.Put(def); err != nil {
				w.log.Warn().Err(err).Str("key", key).Msg("skipping invalid tool")
			}
			return nil
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("load tools: %w", err))
		}
	}
	w.log.Info().Int("count", len(w.registry.List())).Msg("tools loaded")
	return errors.Join(errs...)
}

// Shutdown closes idle HTTP connections.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.client.CloseIdleConnections()
	return nil
}

// Register validates and stores def.
func (w *Worker) Register(ctx context.Context, def types.ToolDefinition) agent.Result {
	if w.registry.IsBuiltin(strings.TrimSpace(def.Name)) {
		return agent.Failf(agent.CodeAlreadyExists, "Tool '%s' is built in and cannot be replaced.", def.Name)
	}
	def, err := w.registry.Put(def)
	if err != nil {
		return agent.Fail(agent.CodeInvalidRequest, "Invalid tool definition: "+err.Error(), nil)
	}
	if w.store != nil {
		if err := w.store.Put(ctx, []string{"tools", def.Name}, def); err != nil {
			w.log.Error().Err(err).Str("tool", def.Name).Msg("persist tool failed")
		}
	}
	w.log.Info().Str("tool", def.Name).Str("auth", string(def.AuthType)).Msg("tool registered")

	content := fmt.Sprintf("Tool '%s' registered successfully.", def.Name)
	if def.RequiresAuth {
		content += fmt.Sprintf(" Use `!apikey %s <key>` to set its API key.", def.Name)
	}
	return agent.OK(content, map[string]any{"tool": def})
}

// RegisterText registers a tool from JSON or, failing that, from a free
// text description converted by the completion service.
func (w *Worker) RegisterText(ctx context.Context, text string) agent.Result {
	text = strings.TrimSpace(text)
	var def types.ToolDefinition
	if strings.HasPrefix(text, "{") {
		if err := json.Unmarshal([]byte(text), &def); err != nil {
			return agent.Fail(agent.CodeInvalidRequest, "Invalid tool definition JSON: "+err.Error(), nil)
		}
		return w.Register(ctx, def)
	}

	if w.completer == nil {
		return agent.Fail(agent.CodeUpstream, "No completion service is configured. Register tools with a JSON definition.", nil)
	}
	reply, err := w.completer.Complete(ctx, registerPrompt, []types.Message{types.NewMessage(types.RoleUser, text)})
	if err != nil {
		return agent.Fail(agent.CodeUpstream, "I encountered an error processing your request: "+err.Error(),
			map[string]any{"upstream": err.Error()})
	}
	raw := reply
	if m := fencedJSON.FindStringSubmatch(reply); m != nil {
		raw = m[1]
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &def); err != nil {
		return agent.Fail(agent.CodeParseFailed, "I couldn't turn that description into a tool definition:\n\n"+reply,
			map[string]any{"reply": reply})
	}
	return w.Register(ctx, def)
}

// SetCredential stores the API key for a tool.
func (w *Worker) SetCredential(name, secret string) agent.Result {
	if strings.TrimSpace(secret) == "" {
		return agent.Fail(agent.CodeInvalidRequest, "API key is empty", nil)
	}
	if _, err := w.registry.Get(name); err != nil {
		return w.unknown(name)
	}
	w.registry.SetSecret(name, strings.TrimSpace(secret))
	w.log.Info().Str("tool", name).Msg("credential set")
	return agent.OK(fmt.Sprintf("API key for %s set successfully.", name), map[string]any{"tool": name})
}

// ListTools describes the registered tools.
func (w *Worker) ListTools() agent.Result {
	defs := w.registry.List()
	var sb strings.Builder
	sb.WriteString("🔧 **Available Tools:**\n")
	for _, def := range defs {
		fmt.Fprintf(&sb, "\n- **%s**: %s\n", def.Name, def.Description)
		if def.RequiresAuth {
			state := "not set"
			if _, ok := w.registry.Secret(def.Name); ok {
				state = "set"
			}
			fmt.Fprintf(&sb, "  Auth: %s (key %s)\n", def.AuthType, state)
		}
		if len(def.Parameters) > 0 {
			names := make([]string, len(def.Parameters))
			for i, p := range def.Parameters {
				names[i] = p.Name
				if p.Required {
					names[i] += " (required)"
				}
			}
			fmt.Fprintf(&sb, "  Parameters: %s\n", strings.Join(names, ", "))
		}
	}
	return agent.OK(strings.TrimRight(sb.String(), "\n"), map[string]any{"tools": defs})
}

// Invoke calls the tool called name. A parameter under the empty key is
// bound to the first required parameter, or the first parameter.
func (w *Worker) Invoke(ctx context.Context, name string, params map[string]any) agent.Result {
	def, err := w.registry.Get(name)
	if err != nil {
		return w.unknown(name)
	}
	params = bindBare(def, params)

	var missing []string
	for _, req := range def.RequiredParameters() {
		if v, ok := params[req]; !ok || fmt.Sprint(v) == "" {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return agent.Fail(agent.CodeMissingParameter,
			"Missing required parameters: "+strings.Join(missing, ", "),
			map[string]any{"missing": missing})
	}

	secret, hasSecret := w.registry.Secret(name)
	if def.RequiresAuth && !hasSecret {
		return agent.Fail(agent.CodeMissingCredential,
			fmt.Sprintf("API key required for %s. Use `!apikey %s <key>` to set it.", name, name),
			map[string]any{"tool": name})
	}

	req, err := buildRequest(ctx, def, params, secret)
	if err != nil {
		return agent.Failf(agent.CodeInvalidRequest, "Error building request: %v", err)
	}

	start := time.Now()
	resp, err := do(w.client, req)
	if err != nil {
		return agent.Fail(agent.CodeUpstream, fmt.Sprintf("Error calling %s: %v", name, err),
			map[string]any{"tool": name, "upstream": err.Error()})
	}
	w.log.Debug().Str("tool", name).Int("status", resp.Status).Dur("elapsed", time.Since(start)).Msg("tool called")

	if resp.Status >= 400 {
		body := string(resp.Body)
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return agent.Fail(agent.CodeUpstream,
			fmt.Sprintf("Error calling %s: HTTP %d", name, resp.Status),
			map[string]any{"tool": name, "status": resp.Status, "body": body})
	}

	if !resp.IsJSON {
		return agent.OK(fmt.Sprintf("### Response from %s\n\n```\n%s\n```", name, string(resp.Body)),
			map[string]any{"tool": name, "status": resp.Status, "response": string(resp.Body)})
	}

	result := resp.JSON
	if def.ResultFilter != "" {
		filtered, err := applyFilter(def.ResultFilter, resp.JSON)
		if err != nil {
			w.log.Warn().Err(err).Str("tool", name).Msg("result filter failed")
		} else {
			result = filtered
		}
	}
	pretty, _ := json.MarshalIndent(result, "", "  ")
	return agent.OK(fmt.Sprintf("### Response from %s\n\n```json\n%s\n```", name, pretty),
		map[string]any{"tool": name, "status": resp.Status, "response": result})
}

func bindBare(def types.ToolDefinition, params map[string]any) map[string]any {
	v, ok := params[""]
	if !ok {
		return params
	}
	out := make(map[string]any, len(params))
	for k, val := range params {
		if k != "" {
			out[k] = val
		}
	}
	target := ""
	if req := def.RequiredParameters(); len(req) > 0 {
		target = req[0]
	} else if len(def.Parameters) > 0 {
		target = def.Parameters[0].Name
	}
	if target != "" {
		if _, set := out[target]; !set {
			out[target] = v
		}
	}
	return out
}

func (w *Worker) unknown(name string) agent.Result {
	data := map[string]any{"tool": name}
	content := fmt.Sprintf("Tool '%s' not found.", name)
	if s := w.registry.Suggest(name); s != "" {
		content += fmt.Sprintf(" Did you mean '%s'?", s)
		data["suggestion"] = s
	}
	return agent.Fail(agent.CodeUnknownTool, content+" Use `!list tools` to see available tools.", data)
}

// Handle runs tool directives and sends anything else to the completion
// service with the list of tools.
func (w *Worker) Handle(ctx context.Context, input string, history []types.Message) agent.Result {
	if d, ok := command.Parse(input); ok {
		switch d.Name {
		case command.ListTool:
			return w.ListTools()
		case command.Register:
			return w.RegisterText(ctx, d.Args)
		case command.APIKey:
			name, key := command.SplitWord(d.Args)
			if name == "" || key == "" {
				return agent.Fail(agent.CodeInvalidRequest, "Usage: !apikey <tool> <key>", nil)
			}
			return w.SetCredential(name, key)
		case command.Tool:
			name, rest := command.SplitWord(d.Args)
			if name == "" {
				return agent.Fail(agent.CodeInvalidRequest, "Usage: !tool <name> <parameters>", nil)
			}
			params, err := command.ParseToolParams(rest)
			if err != nil {
				return agent.Fail(agent.CodeInvalidRequest, err.Error(), nil)
			}
			return w.Invoke(ctx, name, params)
		}
	}

	if w.completer == nil {
		return agent.Fail(agent.CodeUpstream, "No completion service is configured. Use !list tools and !tool <name> <parameters>.", nil)
	}
	conv := append(append([]types.Message(nil), history...), types.NewMessage(types.RoleUser, input))
	reply, err := w.completer.Complete(ctx, chatPrompt+"\n\nAvailable tools:\n"+w.toolSummary(), conv)
	if err != nil {
		return agent.Fail(agent.CodeUpstream, "I encountered an error processing your request: "+err.Error(),
			map[string]any{"upstream": err.Error()})
	}
	return agent.OK(reply, nil)
}

func (w *Worker) toolSummary() string {
	defs := w.registry.List()
	lines := make([]string, 0, len(defs))
	for _, def := range defs {
		params := def.RequiredParameters()
		sort.Strings(params)
		lines = append(lines, fmt.Sprintf("- %s: %s (required: %s)", def.Name, def.Description, strings.Join(params, ", ")))
	}
	return strings.Join(lines, "\n")
}

var _ agent.ToolInvoker = (*Worker)(nil)
