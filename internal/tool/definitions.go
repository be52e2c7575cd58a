package tool

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

// Builtins returns the definitions every registry starts with.
func Builtins() []types.ToolDefinition {
	return []types.ToolDefinition{
		{
			Name:         "weather",
			Description:  "Get current weather information for a location",
			Endpoint:     "https://api.openweathermap.org/data/2.5/weather",
			Method:       "GET",
			RequiresAuth: true,
			AuthType:     types.AuthAPIKey,
			AuthParam:    "appid",
			Parameters: []types.ToolParameter{
				{Name: "location", Description: "City name or coordinates", Required: true, Type: "string", Key: "q"},
				{Name: "units", Description: "Units of measurement (metric, imperial)", Required: false, Type: "string"},
			},
		},
		{
			Name:         "news",
			Description:  "Get latest news headlines",
			Endpoint:     "https://newsapi.org/v2/top-headlines",
			Method:       "GET",
			RequiresAuth: true,
			AuthType:     types.AuthAPIKey,
			Parameters: []types.ToolParameter{
				{Name: "country", Description: "Country code (e.g., us, gb)", Required: false, Type: "string"},
				{Name: "category", Description: "News category (business, technology, etc.)", Required: false, Type: "string"},
				{Name: "query", Description: "Search query", Required: false, Type: "string", Key: "q"},
			},
		},
		{
			Name:         "dictionary",
			Description:  "Look up word definitions",
			Endpoint:     "https://api.dictionaryapi.dev/api/v2/entries/en/{word}",
			Method:       "GET",
			RequiresAuth: false,
			AuthType:     types.AuthNone,
			Parameters: []types.ToolParameter{
				{Name: "word", Description: "Word to look up", Required: true, Type: "string"},
			},
		},
	}
}

type definitionsFile struct {
	Tools []types.ToolDefinition `yaml:"tools"`
}

// LoadDefinitions reads tool definitions from a YAML file, either a
// top-level list or a document with a "tools" list.
func LoadDefinitions(path string) ([]types.ToolDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tool definitions: %w", err)
	}

	var doc definitionsFile
	if err := yaml.Unmarshal(data, &doc); err == nil && len(doc.Tools) > 0 {
		return doc.Tools, nil
	}
	var list []types.ToolDefinition
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse tool definitions: %w", err)
	}
	return list, nil
}

// Normalize fills defaults and validates def.
func Normalize(def types.ToolDefinition) (types.ToolDefinition, error) {
	def.Name = strings.TrimSpace(def.Name)
	def.Method = strings.ToUpper(strings.TrimSpace(def.Method))
	if def.Method == "" {
		def.Method = "GET"
	}
	if def.AuthType == "" {
		if def.RequiresAuth {
			def.AuthType = types.AuthAPIKey
		} else {
			def.AuthType = types.AuthNone
		}
	}
	if def.AuthType != types.AuthNone {
		def.RequiresAuth = true
	}
	for i := range def.Parameters {
		if def.Parameters[i].Type == "" {
			def.Parameters[i].Type = "string"
		}
	}

	switch {
	case def.Name == "" || strings.ContainsAny(def.Name, " /\\"):
		return def, fmt.Errorf("tool name %q is invalid", def.Name)
	case strings.TrimSpace(def.Description) == "":
		return def, fmt.Errorf("tool %s has no description", def.Name)
	}
	u, err := url.Parse(def.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return def, fmt.Errorf("tool %s endpoint %q is not an http(s) URL", def.Name, def.Endpoint)
	}
	switch def.Method {
	case "GET", "POST", "PUT", "DELETE":
	default:
		return def, fmt.Errorf("tool %s method %s is not supported", def.Name, def.Method)
	}
	switch def.AuthType {
	case types.AuthNone, types.AuthAPIKey, types.AuthBearer, types.AuthBasic:
	default:
		return def, fmt.Errorf("tool %s auth type %s is not supported", def.Name, def.AuthType)
	}
	seen := map[string]bool{}
	for _, p := range def.Parameters {
		if p.Name == "" || seen[p.Name] {
			return def, fmt.Errorf("tool %s has an empty or duplicate parameter name", def.Name)
		}
		seen[p.Name] = true
	}
	return def, nil
}
