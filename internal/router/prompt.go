package router

import (
	"fmt"
	"strings"

	"github.com/shubharthaksangharsha/morpheusAI/internal/agent"
	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

// DefaultPersona is the system prompt for messages no worker handles.
const DefaultPersona = `You are MorpheusAI, a helpful assistant that coordinates a team of
specialized agents: a terminal, a file editor, a web browser, a planner and
an external tool invoker. When a request needs none of them, answer it
yourself clearly and concisely.`

const classifyInstructions = `You are the router of a multi-agent assistant. Decide which agent should
handle the user's message, or whether no agent is needed.

Respond with a JSON object only, in this shape:
{"agentName": "<exact agent name or null>", "modifiedMessage": "<message rewritten for the agent, optional>", "confidence": <number between 0 and 1>}

Use null for agentName when you can answer the message yourself.`

// classificationPrompt builds the system prompt listing the workers.
func classificationPrompt(workers []agent.Worker) string {
	var b strings.Builder
	b.WriteString(classifyInstructions)
	b.WriteString("\n\nAvailable agents:\n")
	for _, w := range workers {
		fmt.Fprintf(&b, "- %s: %s\n", w.Name(), w.Description())
	}
	return b.String()
}

// classificationInput renders the message and the history window into the
// single user turn the classifier sees.
func classificationInput(message string, window []types.Message) string {
	var b strings.Builder
	b.WriteString("User message: ")
	b.WriteString(message)
	if len(window) > 0 {
		b.WriteString("\n\nRecent conversation history:\n")
		for _, m := range window {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
	}
	return b.String()
}

func personaPrompt(persona, custom string) string {
	if custom == "" {
		return persona
	}
	return persona + "\n\nAdditional instructions for this conversation:\n" + custom
}
