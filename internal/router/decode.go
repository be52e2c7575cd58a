package router

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Decision is a transient routing decision.
type Decision struct {
	AgentName       string  `json:"agentName,omitempty"`
	ModifiedMessage string  `json:"modifiedMessage,omitempty"`
	Confidence      float64 `json:"confidence"`
	Source          string  `json:"source"`
}

// Decision sources.
const (
	SourceDirective = "directive"
	SourceLLM       = "llm"
	SourceFallback  = "fallback"
	SourceNone      = "none"
)

// DecodeResult is the outcome of decoding a classifier reply: either
// Decoded or ParseFailed.
type DecodeResult interface {
	decodeResult()
}

// Decoded carries a structurally valid decision. Its agent name has not
// been checked against the registry.
type Decoded struct {
	Decision Decision
}

// ParseFailed explains why a reply could not be decoded.
type ParseFailed struct {
	Reason string
}

func (Decoded) decodeResult()     {}
func (ParseFailed) decodeResult() {}

// DecodeDecision decodes the first balanced {...} block of reply.
func DecodeDecision(reply string) DecodeResult {
	block, ok := FirstObject(reply)
	if !ok {
		return ParseFailed{Reason: "no JSON object in reply"}
	}

	var raw struct {
		AgentName       *string         `json:"agentName"`
		ModifiedMessage *string         `json:"modifiedMessage"`
		Confidence      json.RawMessage `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		return ParseFailed{Reason: "invalid JSON: " + err.Error()}
	}

	d := Decision{Source: SourceLLM}
	if raw.AgentName != nil {
		d.AgentName = strings.TrimSpace(*raw.AgentName)
	}
	if raw.ModifiedMessage != nil {
		d.ModifiedMessage = strings.TrimSpace(*raw.ModifiedMessage)
	}
	d.Confidence = clamp(parseConfidence(raw.Confidence))
	return Decoded{Decision: d}
}

// parseConfidence accepts a number or a numeric string. Anything else is
// treated as full confidence in the named agent.
func parseConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return 1
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return 1
}

func clamp(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// FirstObject returns the first balanced {...} block in s, skipping braces
// inside JSON strings.
func FirstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
