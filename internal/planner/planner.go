package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/shubharthaksangharsha/morpheusAI/internal/agent"
	"github.com/shubharthaksangharsha/morpheusAI/internal/command"
	"github.com/shubharthaksangharsha/morpheusAI/internal/logging"
	"github.com/shubharthaksangharsha/morpheusAI/internal/provider"
	"github.com/shubharthaksangharsha/morpheusAI/internal/storage"
	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

// ErrNotFound is returned for unknown plan ids.
var ErrNotFound = errors.New("plan not found")

const description = "Creates and manages structured multi-step plans " +
	"for complex tasks and projects."

const createPrompt = `You are a planning assistant. Break the user's goal into a
structured plan. Reply with JSON only, in a ` + "```json" + ` block:
{
  "title": "short plan title",
  "description": "one paragraph summary",
  "steps": [
    {"id": "step1", "title": "...", "description": "...",
     "dependencies": ["ids of earlier steps"], "estimatedDuration": "e.g. 2 hours"}
  ]
}`

const updatePrompt = `You are a planning assistant. Apply the requested changes to
the plan below and reply with the complete updated plan as JSON in a ` + "```json" + ` block,
using the same shape. Step status is one of pending, in-progress, completed,
blocked. Plan status is one of draft, active, completed, cancelled.`

const chatPrompt = `You are a planning assistant. Help the user think through
goals and tasks. Users manage plans with:
  !plan create <description>
  !plan update <id> <changes>
  !plan list
  !plan details <id>`

// stepStatusChange matches "<stepId> <status>" updates that need no model.
var stepStatusChange = regexp.MustCompile(`^(\S+)\s+(pending|in-progress|completed|blocked)$`)

// Worker is the Planner worker.
type Worker struct {
	agent.Info

	mu     sync.Mutex
	plans  map[string]*types.Plan
	lastMS int64

	store     *storage.Storage
	completer provider.Completer
	now       func() time.Time
	log       zerolog.Logger
}

// Option configures a Worker.
type Option func(*Worker)

// WithStorage persists plans in store.
func WithStorage(store *storage.Storage) Option {
	return func(w *Worker) { w.store = store }
}

// WithCompleter sets the completion service.
func WithCompleter(c provider.Completer) Option {
	return func(w *Worker) { w.completer = c }
}

// WithClock overrides the clock.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

// New creates a Planner worker.
func New(opts ...Option) *Worker {
	w := &Worker{
		Info:  agent.NewInfo(agent.NamePlanner, description, agent.KindPlanner),
		plans: make(map[string]*types.Plan),
		now:   time.Now,
		log:   logging.Component("planner"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Initialize loads saved plans.
func (w *Worker) Initialize(ctx context.Context) error {
	if w.store == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.store.Scan(ctx, []string{"plans"}, func(key string, data json.RawMessage) error {
		var p types.Plan
		if err := json.Unmarshal(data, &p); err != nil {
			w.log.Warn().Err(err).Str("key", key).Msg("skipping unreadable plan")
			return nil
		}
		w.plans[p.ID] = &p
		return nil
	})
	if err != nil {
		return fmt.Errorf("load plans: %w", err)
	}
	w.log.Info().Int("count", len(w.plans)).Msg("plans loaded")
	return nil
}

// Shutdown is a no-op; plans are saved as they change.
func (w *Worker) Shutdown(ctx context.Context) error { return nil }

// CreatePlan drafts a plan for description with the completion service.
func (w *Worker) CreatePlan(ctx context.Context, description string) agent.Result {
	if strings.TrimSpace(description) == "" {
		return agent.Fail(agent.CodeInvalidRequest, "Plan description is empty", nil)
	}
	if w.completer == nil {
		return agent.Fail(agent.CodeUpstream, "No completion service is configured to draft plans.", nil)
	}

	reply, err := w.completer.Complete(ctx, createPrompt, []types.Message{
		types.NewMessage(types.RoleUser, "Create a plan for: "+description),
	})
	if err != nil {
		return agent.Fail(agent.CodeUpstream, "I encountered an error processing your request: "+err.Error(),
			map[string]any{"upstream": err.Error()})
	}

	draft, err := ParseReply(reply)
	if err != nil {
		return agent.Fail(agent.CodeParseFailed,
			"I couldn't create a structured plan. Here's what I came up with instead:\n\n"+reply,
			map[string]any{"reply": reply})
	}
	return w.save(ctx, draft)
}

// CreateFromDraft stores a plan that was parsed without the completion
// service.
func (w *Worker) CreateFromDraft(ctx context.Context, draft *Draft) agent.Result {
	return w.save(ctx, draft)
}

func (w *Worker) save(ctx context.Context, draft *Draft) agent.Result {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	p := &types.Plan{
		ID:          w.nextID(now),
		Title:       draft.Title,
		Description: draft.Description,
		Steps:       normalizeSteps(draft.Steps, nil),
		CreatedAt:   now,
		UpdatedAt:   now,
		Status:      types.PlanDraft,
	}
	if err := w.persist(ctx, p); err != nil {
		return agent.Failf(agent.CodeInternal, "Error saving plan: %v", err)
	}
	w.plans[p.ID] = p
	w.log.Info().Str("plan", p.ID).Int("steps", len(p.Steps)).Msg("plan created")
	return agent.OK(FormatCreated(p), map[string]any{"plan": clone(p)})
}

// nextID derives "plan-<base36 unix ms>", bumping the millisecond to stay
// unique within this process.
func (w *Worker) nextID(t time.Time) string {
	ms := t.UnixMilli()
	if ms <= w.lastMS {
		ms = w.lastMS + 1
	}
	for {
		id := "plan-" + strconv.FormatInt(ms, 36)
		if _, taken := w.plans[id]; !taken {
			w.lastMS = ms
			return id
		}
		ms++
	}
}

// UpdatePlan applies free-form changes. "<stepId> <status>" is applied
// directly; anything else is rewritten by the completion service with the
// plan's id and creation time preserved.
func (w *Worker) UpdatePlan(ctx context.Context, id, changes string) agent.Result {
	w.mu.Lock()
	current, ok := w.plans[id]
	var snapshot *types.Plan
	if ok {
		snapshot = clone(current)
	}
	w.mu.Unlock()
	if !ok {
		return notFound(id)
	}

	var updated *types.Plan
	if m := stepStatusChange.FindStringSubmatch(strings.TrimSpace(changes)); m != nil && hasStep(snapshot, m[1]) {
		updated = snapshot
		for i := range updated.Steps {
			if updated.Steps[i].ID == m[1] {
				updated.Steps[i].Status = types.StepStatus(m[2])
			}
		}
		updated.Status = derivedStatus(updated)
	} else {
		if w.completer == nil {
			return agent.Fail(agent.CodeUpstream, "No completion service is configured to update plans.", nil)
		}
		planJSON, _ := json.MarshalIndent(snapshot, "", "  ")
		reply, err := w.completer.Complete(ctx, updatePrompt, []types.Message{
			types.NewMessage(types.RoleUser, fmt.Sprintf("Current plan:\n```json\n%s\n```\n\nChanges: %s", planJSON, changes)),
		})
		if err != nil {
			return agent.Fail(agent.CodeUpstream, "I encountered an error processing your request: "+err.Error(),
				map[string]any{"upstream": err.Error()})
		}
		draft, err := ParseReply(reply)
		if err != nil {
			return agent.Fail(agent.CodeParseFailed,
				"I couldn't update the plan. Here's what I came up with instead:\n\n"+reply,
				map[string]any{"reply": reply})
		}
		updated = &types.Plan{
			ID:          snapshot.ID,
			Title:       draft.Title,
			Description: draft.Description,
			Steps:       normalizeSteps(draft.Steps, snapshot.Steps),
			CreatedAt:   snapshot.CreatedAt,
			Status:      snapshot.Status,
		}
		if validPlanStatus(draft.Status) {
			updated.Status = draft.Status
		}
	}
	updated.UpdatedAt = w.now()

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.persist(ctx, updated); err != nil {
		return agent.Failf(agent.CodeInternal, "Error saving plan: %v", err)
	}
	w.plans[id] = updated
	return agent.OK("📝 Plan updated.\n\n"+FormatDetails(updated), map[string]any{"plan": clone(updated)})
}

// ListPlans summarizes all plans, newest first.
func (w *Worker) ListPlans(ctx context.Context) agent.Result {
	plans := w.Plans()
	return agent.OK(FormatList(plans), map[string]any{"plans": plans})
}

// Plans returns copies of all plans, newest first.
func (w *Worker) Plans() []*types.Plan {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*types.Plan, 0, len(w.plans))
	for _, p := range w.plans {
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Plan returns a copy of the plan with id.
func (w *Worker) Plan(id string) (*types.Plan, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.plans[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(p), nil
}

// GetPlan renders one plan.
func (w *Worker) GetPlan(ctx context.Context, id string) agent.Result {
	p, err := w.Plan(id)
	if err != nil {
		return notFound(id)
	}
	return agent.OK(FormatDetails(p), map[string]any{"plan": p})
}

// Handle runs !plan directives, stores ```plan blocks as they are, and
// sends anything else to the completion service.
func (w *Worker) Handle(ctx context.Context, input string, history []types.Message) agent.Result {
	if d, ok := command.Parse(input); ok && d.Name == command.Plan {
		pa, err := command.ParsePlan(d.Args)
		if err != nil {
			return agent.Fail(agent.CodeInvalidRequest, err.Error(), nil)
		}
		switch pa.Action {
		case "create":
			return w.CreatePlan(ctx, pa.Text)
		case "update":
			return w.UpdatePlan(ctx, pa.ID, pa.Text)
		case "details":
			return w.GetPlan(ctx, pa.ID)
		default:
			return w.ListPlans(ctx)
		}
	}

	if draft, ok := ParseBlock(input); ok {
		return w.CreateFromDraft(ctx, draft)
	}

	if w.completer == nil {
		return agent.Fail(agent.CodeUpstream, "No completion service is configured. Use !plan list or a ```plan block.", nil)
	}
	conv := append(append([]types.Message(nil), history...), types.NewMessage(types.RoleUser, input))
	reply, err := w.completer.Complete(ctx, chatPrompt, conv)
	if err != nil {
		return agent.Fail(agent.CodeUpstream, "I encountered an error processing your request: "+err.Error(),
			map[string]any{"upstream": err.Error()})
	}
	return agent.OK(reply, nil)
}

func (w *Worker) persist(ctx context.Context, p *types.Plan) error {
	if w.store == nil {
		return nil
	}
	return w.store.Put(ctx, []string{"plans", p.ID}, p)
}

func notFound(id string) agent.Result {
	return agent.Fail(agent.CodeNotFound,
		fmt.Sprintf("Plan with ID %s not found. Use `!plan list` to see available plans.", id),
		map[string]any{"id": id})
}

// normalizeSteps assigns missing ids and statuses. A step without a valid
// status keeps the status of the previous step with the same id.
func normalizeSteps(steps, previous []types.PlanStep) []types.PlanStep {
	prior := make(map[string]types.StepStatus, len(previous))
	for _, s := range previous {
		prior[s.ID] = s.Status
	}
	out := make([]types.PlanStep, len(steps))
	for i, s := range steps {
		if strings.TrimSpace(s.ID) == "" {
			s.ID = strings.ToLower(ulid.Make().String())
		}
		if !validStepStatus(s.Status) {
			s.Status = types.StepPending
			if st, ok := prior[s.ID]; ok {
				s.Status = st
			}
		}
		if s.Dependencies == nil {
			s.Dependencies = []string{}
		}
		out[i] = s
	}
	return out
}

func validStepStatus(s types.StepStatus) bool {
	switch s {
	case types.StepPending, types.StepInProgress, types.StepCompleted, types.StepBlocked:
		return true
	}
	return false
}

func validPlanStatus(s types.PlanStatus) bool {
	switch s {
	case types.PlanDraft, types.PlanActive, types.PlanCompleted, types.PlanCancelled:
		return true
	}
	return false
}

func hasStep(p *types.Plan, id string) bool {
	for _, s := range p.Steps {
		if s.ID == id {
			return true
		}
	}
	return false
}

func derivedStatus(p *types.Plan) types.PlanStatus {
	if p.Status == types.PlanCancelled {
		return p.Status
	}
	if len(p.Steps) > 0 && p.Progress() == 100 {
		return types.PlanCompleted
	}
	for _, s := range p.Steps {
		if s.Status != types.StepPending {
			return types.PlanActive
		}
	}
	return p.Status
}

func clone(p *types.Plan) *types.Plan {
	c := *p
	c.Steps = make([]types.PlanStep, len(p.Steps))
	for i, s := range p.Steps {
		s.Dependencies = append([]string{}, s.Dependencies...)
		c.Steps[i] = s
	}
	return &c
}

var _ agent.Planner = (*Worker)(nil)
