package planner

import (
	"fmt"
	"strings"

	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

func statusIcon(s types.StepStatus) string {
	switch s {
	case types.StepCompleted:
		return "✅"
	case types.StepInProgress:
		return "🔄"
	case types.StepBlocked:
		return "⛔"
	default:
		return "⏳"
	}
}

func writeSteps(sb *strings.Builder, p *types.Plan, withStatus bool) {
	sb.WriteString("**Steps:**\n")
	for _, s := range p.Steps {
		duration := s.EstimatedDuration
		if duration == "" {
			duration = "Unknown duration"
		}
		if withStatus {
			fmt.Fprintf(sb, "- %s **%s** [%s] (%s)\n", statusIcon(s.Status), s.Title, s.ID, duration)
		} else {
			fmt.Fprintf(sb, "- **%s** (%s)\n", s.Title, duration)
		}
		if s.Description != "" {
			fmt.Fprintf(sb, "  %s\n", s.Description)
		}
		if len(s.Dependencies) > 0 {
			fmt.Fprintf(sb, "  Dependencies: %s\n", strings.Join(s.Dependencies, ", "))
		}
	}
}

// FormatCreated renders a newly created plan.
func FormatCreated(p *types.Plan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 **Plan Created: %s**\n\n", p.Title)
	fmt.Fprintf(&sb, "**ID:** %s\n", p.ID)
	fmt.Fprintf(&sb, "**Description:** %s\n\n", p.Description)
	writeSteps(&sb, p, false)
	fmt.Fprintf(&sb, "\nUse `!plan details %s` to view the full plan or `!plan update %s <changes>` to modify it.", p.ID, p.ID)
	return sb.String()
}

// FormatDetails renders a plan with step states and progress.
func FormatDetails(p *types.Plan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 **Plan: %s**\n\n", p.Title)
	fmt.Fprintf(&sb, "**ID:** %s\n", p.ID)
	fmt.Fprintf(&sb, "**Status:** %s\n", p.Status)
	fmt.Fprintf(&sb, "**Progress:** %d%%\n", p.Progress())
	fmt.Fprintf(&sb, "**Description:** %s\n\n", p.Description)
	writeSteps(&sb, p, true)
	return strings.TrimRight(sb.String(), "\n")
}

// FormatList renders plan summaries.
func FormatList(plans []*types.Plan) string {
	if len(plans) == 0 {
		return "No plans found. Use `!plan create <description>` to create a new plan."
	}
	var sb strings.Builder
	sb.WriteString("📋 **Available Plans:**\n\n")
	for _, p := range plans {
		fmt.Fprintf(&sb, "- **%s** (ID: %s) - %s, %d%% complete\n", p.Title, p.ID, p.Status, p.Progress())
	}
	return strings.TrimRight(sb.String(), "\n")
}
