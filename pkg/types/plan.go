package types

import "time"

// StepStatus is the progress state of a plan step.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in-progress"
	StepCompleted  StepStatus = "completed"
	StepBlocked    StepStatus = "blocked"
)

// PlanStatus is the lifecycle state of a plan.
type PlanStatus string

const (
	PlanDraft     PlanStatus = "draft"
	PlanActive    PlanStatus = "active"
	PlanCompleted PlanStatus = "completed"
	PlanCancelled PlanStatus = "cancelled"
)

// Plan is a structured multi-step plan produced by the planner worker.
type Plan struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Steps       []PlanStep `json:"steps"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Status      PlanStatus `json:"status"`
}

// PlanStep is one task inside a plan.
type PlanStep struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Status            StepStatus `json:"status"`
	Dependencies      []string   `json:"dependencies"`
	EstimatedDuration string     `json:"estimatedDuration,omitempty"`
	AssignedTo        string     `json:"assignedTo,omitempty"`
}

// Progress returns the completed percentage of the plan's steps.
func (p *Plan) Progress() int {
	if len(p.Steps) == 0 {
		return 0
	}
	done := 0
	for _, s := range p.Steps {
		if s.Status == StepCompleted {
			done++
		}
	}
	return done * 100 / len(p.Steps)
}
