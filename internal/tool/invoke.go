package tool

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

const maxResponseBytes = 1 << 20

// response is the outcome of one HTTP tool call.
type response struct {
	Status int
	Body   []byte
	JSON   any
	IsJSON bool
}

// buildRequest turns a definition and validated params into an HTTP
// request. {name} placeholders in the endpoint are filled from params;
// other params go in the query for GET and DELETE, in a JSON body
// otherwise.
func buildRequest(ctx context.Context, def types.ToolDefinition, params map[string]any, secret string) (*http.Request, error) {
	endpoint := def.Endpoint
	rest := make(map[string]any, len(params))
	for _, p := range def.Parameters {
		v, ok := params[p.Name]
		if !ok {
			continue
		}
		placeholder := "{" + p.Name + "}"
		if strings.Contains(endpoint, placeholder) {
			endpoint = strings.ReplaceAll(endpoint, placeholder, url.PathEscape(fmt.Sprint(v)))
			continue
		}
		rest[p.WireName()] = v
	}
	for k, v := range params {
		if !declared(def, k) {
			rest[k] = v
		}
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	q := u.Query()

	var body io.Reader
	if def.Method == http.MethodGet || def.Method == http.MethodDelete {
		for k, v := range rest {
			q.Set(k, fmt.Sprint(v))
		}
	} else {
		data, err := json.Marshal(rest)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	if def.AuthType == types.AuthAPIKey && secret != "" {
		name := def.AuthParam
		if name == "" {
			name = "apiKey"
		}
		q.Set(name, secret)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, def.Method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	switch def.AuthType {
	case types.AuthBearer:
		req.Header.Set("Authorization", "Bearer "+secret)
	case types.AuthBasic:
		req.Header.Set("Authorization", "Basic "+basicToken(secret))
	}
	return req, nil
}

// basicToken accepts either "user:password" or an already encoded token.
func basicToken(secret string) string {
	if strings.Contains(secret, ":") {
		return base64.StdEncoding.EncodeToString([]byte(secret))
	}
	return secret
}

func declared(def types.ToolDefinition, name string) bool {
	for _, p := range def.Parameters {
		if p.Name == name {
			return true
		}
	}
	return false
}

func do(client *http.Client, req *http.Request) (*response, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	out := &response{Status: resp.StatusCode, Body: data}
	if err := json.Unmarshal(data, &out.JSON); err == nil {
		out.IsJSON = true
	}
	return out, nil
}

// applyFilter runs a jq expression over v. Multiple outputs become an
// array.
func applyFilter(filter string, v any) (any, error) {
	query, err := gojq.Parse(filter)
	if err != nil {
		return nil, fmt.Errorf("filter parse error: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("filter compile error: %w", err)
	}

	var results []any
	iter := code.Run(v)
	for {
		out, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := out.(error); ok {
			return nil, fmt.Errorf("filter execution error: %w", err)
		}
		results = append(results, out)
	}
	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}
