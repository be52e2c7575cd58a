package tool

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubharthaksangharsha/morpheusAI/internal/agent"
	"github.com/shubharthaksangharsha/morpheusAI/internal/provider"
	"github.com/shubharthaksangharsha/morpheusAI/internal/storage"
	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

type captured struct {
	method string
	path   string
	query  map[string]string
	header http.Header
	body   map[string]any
}

func newUpstream(t *testing.T, status int, reply string) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		c.method = r.Method
		c.path = r.URL.Path
		c.header = r.Header.Clone()
		c.query = map[string]string{}
		for k := range r.URL.Query() {
			c.query[k] = r.URL.Query().Get(k)
		}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &c.body)
		}
		rw.WriteHeader(status)
		_, _ = io.WriteString(rw, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func def(name, endpoint, method string, auth types.AuthType, params ...types.ToolParameter) types.ToolDefinition {
	return types.ToolDefinition{
		Name:        name,
		Description: name + " tool",
		Endpoint:    endpoint,
		Method:      method,
		AuthType:    auth,
		Parameters:  params,
	}
}

func TestInvoke_GetWithAPIKey(t *testing.T) {
	srv, got := newUpstream(t, 200, `{"temp": 21}`)
	w := New()
	require.True(t, w.Register(context.Background(), def("temps", srv.URL+"/v1", "GET", types.AuthAPIKey,
		types.ToolParameter{Name: "city", Required: true})).Success)

	res := w.Invoke(context.Background(), "temps", map[string]any{"city": "Oslo"})
	assert.Equal(t, agent.CodeMissingCredential, res.Error)
	assert.Empty(t, got.method, "no request without credential")

	require.True(t, w.SetCredential("temps", "secret-key").Success)
	res = w.Invoke(context.Background(), "temps", map[string]any{"": "Oslo"})
	require.True(t, res.Success, res.Content)
	assert.Equal(t, "GET", got.method)
	assert.Equal(t, "Oslo", got.query["city"])
	assert.Equal(t, "secret-key", got.query["apiKey"])
	assert.Equal(t, "### Response from temps\n\n```json\n{\n  \"temp\": 21\n}\n```", res.Content)
	assert.Equal(t, 200, res.Data["status"])
}

func TestInvoke_PostBearerAndFilter(t *testing.T) {
	srv, got := newUpstream(t, 200, `{"items":[{"name":"a"},{"name":"b"}]}`)
	d := def("search", srv.URL+"/search", "post", types.AuthBearer, types.ToolParameter{Name: "q", Required: true})
	d.ResultFilter = "[.items[].name]"
	w := New(WithCredentials(map[string]string{"search": "tok"}))
	require.True(t, w.Register(context.Background(), d).Success)

	res := w.Invoke(context.Background(), "search", map[string]any{"q": "go", "limit": 5})
	require.True(t, res.Success, res.Content)
	assert.Equal(t, "POST", got.method)
	assert.Equal(t, "Bearer tok", got.header.Get("Authorization"))
	assert.Equal(t, "go", got.body["q"])
	assert.Equal(t, float64(5), got.body["limit"])
	assert.Equal(t, []any{"a", "b"}, res.Data["response"])
}

func TestInvoke_BasicAuth(t *testing.T) {
	srv, got := newUpstream(t, 200, `ok`)
	w := New()
	require.True(t, w.Register(context.Background(), def("basic", srv.URL, "GET", types.AuthBasic)).Success)
	w.SetCredential("basic", "user:pass")

	res := w.Invoke(context.Background(), "basic", nil)
	require.True(t, res.Success)
	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("user:pass")), got.header.Get("Authorization"))
	assert.Equal(t, "### Response from basic\n\n```\nok\n```", res.Content)
}

func TestInvoke_UpstreamError(t *testing.T) {
	srv, _ := newUpstream(t, 503, `{"error":"overloaded"}`)
	w := New()
	require.True(t, w.Register(context.Background(), def("flaky", srv.URL, "GET", types.AuthNone)).Success)

	res := w.Invoke(context.Background(), "flaky", nil)
	assert.False(t, res.Success)
	assert.Equal(t, agent.CodeUpstream, res.Error)
	assert.Equal(t, 503, res.Data["status"])
	assert.Contains(t, res.Data["body"], "overloaded")
}

func TestInvoke_Validation(t *testing.T) {
	w := New()

	res := w.Invoke(context.Background(), "dictionary", map[string]any{})
	assert.Equal(t, agent.CodeMissingParameter, res.Error)
	assert.Equal(t, "Missing required parameters: word", res.Content)

	res = w.Invoke(context.Background(), "wether", map[string]any{"location": "x"})
	assert.Equal(t, agent.CodeUnknownTool, res.Error)
	assert.Equal(t, "weather", res.Data["suggestion"])
	assert.Contains(t, res.Content, "Did you mean 'weather'?")

	res = w.Invoke(context.Background(), "zzzzzzzzzzzz", nil)
	assert.NotContains(t, res.Data, "suggestion")

	res = w.Invoke(context.Background(), "weather", map[string]any{"location": "Paris"})
	assert.Equal(t, agent.CodeMissingCredential, res.Error)

	assert.Equal(t, agent.CodeUnknownTool, w.SetCredential("nope", "k").Error)
	assert.Equal(t, agent.CodeInvalidRequest, w.SetCredential("weather", " ").Error)
}

func TestBuildRequest_Builtins(t *testing.T) {
	r := NewRegistry()

	weather, err := r.Get("weather")
	require.NoError(t, err)
	req, err := buildRequest(context.Background(), weather, map[string]any{"location": "London", "units": "metric"}, "KEY")
	require.NoError(t, err)
	q := req.URL.Query()
	assert.Equal(t, "London", q.Get("q"))
	assert.Equal(t, "metric", q.Get("units"))
	assert.Equal(t, "KEY", q.Get("appid"))

	dict, _ := r.Get("dictionary")
	req, err = buildRequest(context.Background(), dict, map[string]any{"word": "hello world"}, "")
	require.NoError(t, err)
	assert.Equal(t, "/api/v2/entries/en/hello%20world", req.URL.EscapedPath())
	assert.Empty(t, req.URL.RawQuery)
}

func TestRegister(t *testing.T) {
	w := New()

	res := w.Register(context.Background(), def("weather", "https://example.com", "GET", types.AuthNone))
	assert.Equal(t, agent.CodeAlreadyExists, res.Error)

	for _, bad := range []types.ToolDefinition{
		def("", "https://example.com", "GET", types.AuthNone),
		def("x", "ftp://example.com", "GET", types.AuthNone),
		def("x", "https://example.com", "PATCH", types.AuthNone),
		def("x", "https://example.com", "GET", "oauth"),
		def("x", "https://example.com", "GET", types.AuthNone, types.ToolParameter{Name: "a"}, types.ToolParameter{Name: "a"}),
	} {
		assert.Equal(t, agent.CodeInvalidRequest, w.Register(context.Background(), bad).Error, bad)
	}

	res = w.Register(context.Background(), def("quotes", "https://example.com/q", "", types.AuthBearer))
	require.True(t, res.Success)
	stored := res.Data["tool"].(types.ToolDefinition)
	assert.Equal(t, "GET", stored.Method)
	assert.True(t, stored.RequiresAuth)
	assert.Contains(t, res.Content, "!apikey quotes <key>")
}

func TestRegisterText(t *testing.T) {
	reply := "```json\n{\"name\":\"jokes\",\"description\":\"Random jokes\",\"endpoint\":\"https://example.com/joke\",\"method\":\"GET\",\"authType\":\"none\",\"parameters\":[]}\n```"
	mock := provider.NewMockCompleter(reply)
	w := New(WithCompleter(mock))

	res := w.RegisterText(context.Background(), "an API at example.com/joke that returns jokes")
	require.True(t, res.Success, res.Content)
	_, err := w.Registry().Get("jokes")
	assert.NoError(t, err)

	res = w.RegisterText(context.Background(), `{"name":"echo","description":"Echo","endpoint":"https://example.com/echo"}`)
	require.True(t, res.Success)
	assert.Len(t, mock.Calls(), 1)

	res = w.RegisterText(context.Background(), `{"name":`)
	assert.Equal(t, agent.CodeInvalidRequest, res.Error)

	w = New(WithCompleter(provider.NewMockCompleter("I am not sure.")))
	res = w.RegisterText(context.Background(), "something vague")
	assert.Equal(t, agent.CodeParseFailed, res.Error)
}

func TestPersistenceAndDefinitionsFile(t *testing.T) {
	dir := t.TempDir()
	store := storage.New(filepath.Join(dir, "storage"))
	w := New(WithStorage(store))
	require.NoError(t, w.Initialize(context.Background()))
	require.True(t, w.Register(context.Background(), def("saved", "https://example.com/s", "GET", types.AuthNone)).Success)

	yamlPath := filepath.Join(dir, "tools.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`tools:
  - name: stocks
    description: Stock quotes
    endpoint: https://example.com/stocks
    method: GET
    authType: apiKey
    authParam: token
    parameters:
      - name: symbol
        description: Ticker
        required: true
`), 0o644))

	reloaded := New(WithStorage(store), WithDefinitionsFile(yamlPath))
	require.NoError(t, reloaded.Initialize(context.Background()))
	_, err := reloaded.Registry().Get("saved")
	assert.NoError(t, err)
	stocks, err := reloaded.Registry().Get("stocks")
	require.NoError(t, err)
	assert.Equal(t, "token", stocks.AuthParam)
	assert.True(t, stocks.RequiresAuth)
	assert.Equal(t, []string{"symbol"}, stocks.RequiredParameters())
}

func TestLoadDefinitions_List(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tools.yaml")
	require.NoError(t, os.WriteFile(p, []byte("- name: a\n  description: A\n  endpoint: https://a.example.com\n"), 0o644))
	defs, err := LoadDefinitions(p)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "a", defs[0].Name)

	_, err = LoadDefinitions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestHandle(t *testing.T) {
	srv, got := newUpstream(t, 200, `[{"word":"go"}]`)
	w := New(WithCompleter(provider.NewMockCompleter("Try `!tool dictionary go`.")))
	ctx := context.Background()

	res := w.Handle(ctx, `!register {"name":"define","description":"Define words","endpoint":"`+srv.URL+`/{word}","method":"GET","parameters":[{"name":"word","required":true}]}`, nil)
	require.True(t, res.Success, res.Content)

	res = w.Handle(ctx, "!tool define go", nil)
	require.True(t, res.Success, res.Content)
	assert.Equal(t, "/go", got.path)

	res = w.Handle(ctx, "!list tools", nil)
	require.True(t, res.Success)
	assert.True(t, strings.HasPrefix(res.Content, "🔧 **Available Tools:**"))
	assert.Contains(t, res.Content, "- **define**: Define words")
	assert.Contains(t, res.Content, "Auth: apiKey (key not set)")

	res = w.Handle(ctx, "!apikey news abc123", nil)
	require.True(t, res.Success)
	res = w.Handle(ctx, "!list tools", nil)
	assert.Contains(t, res.Content, "Auth: apiKey (key set)")
	assert.NotContains(t, res.Content, "abc123")

	assert.Equal(t, agent.CodeInvalidRequest, w.Handle(ctx, "!apikey news", nil).Error)
	assert.Equal(t, agent.CodeInvalidRequest, w.Handle(ctx, "!tool", nil).Error)

	res = w.Handle(ctx, "what does go mean?", nil)
	require.True(t, res.Success)
	assert.Equal(t, "Try `!tool dictionary go`.", res.Content)
}
