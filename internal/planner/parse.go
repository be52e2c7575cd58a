package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

// ErrNoPlan is returned when a reply contains no recognizable plan.
var ErrNoPlan = errors.New("no plan found in reply")

var (
	fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	fencedPlan = regexp.MustCompile("(?s)```plan[ \\t]*\\n(.*?)```")
)

// Draft is a plan as proposed by the completion service, before ids and
// timestamps are assigned.
type Draft struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Status      types.PlanStatus `json:"status,omitempty"`
	Steps       []types.PlanStep `json:"steps"`
}

// ParseReply extracts a Draft from a completion reply.
func ParseReply(reply string) (*Draft, error) {
	if m := fencedJSON.FindStringSubmatch(reply); m != nil {
		if d, err := decodeDraft(m[1]); err == nil {
			return d, nil
		}
	}
	if d, err := decodeDraft(strings.TrimSpace(reply)); err == nil {
		return d, nil
	}
	if d, ok := ParseBlock(reply); ok {
		return d, nil
	}
	return nil, ErrNoPlan
}

func decodeDraft(s string) (*Draft, error) {
	var d Draft
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return nil, err
	}
	if strings.TrimSpace(d.Title) == "" {
		return nil, fmt.Errorf("plan has no title")
	}
	return &d, nil
}

// ParseBlock parses a ```plan markdown block. The first line is the title,
// following lines up to the first heading are the description, and each
// heading starts a step whose body lines form its description.
func ParseBlock(text string) (*Draft, bool) {
	m := fencedPlan.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}

	d := &Draft{}
	var desc []string
	var step *types.PlanStep
	flush := func() {
		if step != nil {
			step.Description = strings.TrimSpace(step.Description)
			d.Steps = append(d.Steps, *step)
			step = nil
		}
	}

	for _, raw := range strings.Split(m[1], "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			continue
		case d.Title == "":
			d.Title = strings.TrimSpace(strings.TrimLeft(line, "#"))
		case strings.HasPrefix(line, "#"):
			flush()
			step = &types.PlanStep{
				ID:    fmt.Sprintf("step%d", len(d.Steps)+1),
				Title: strings.TrimSpace(strings.TrimLeft(line, "#")),
			}
		case step != nil:
			step.Description += line + "\n"
		default:
			desc = append(desc, line)
		}
	}
	flush()
	d.Description = strings.Join(desc, "\n")

	if d.Title == "" {
		return nil, false
	}
	return d, true
}
