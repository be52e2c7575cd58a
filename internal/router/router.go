package router

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/shubharthaksangharsha/morpheusAI/internal/agent"
	"github.com/shubharthaksangharsha/morpheusAI/internal/logging"
	"github.com/shubharthaksangharsha/morpheusAI/internal/provider"
	"github.com/shubharthaksangharsha/morpheusAI/internal/session"
	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

const (
	DefaultHistoryWindow   = 10
	DefaultClassifyTimeout = 30 * time.Second
	// DefaultAnswerTimeout bounds a direct answer.
	DefaultAnswerTimeout = 60 * time.Second
	// DefaultWorkerTimeout bounds one worker call. Workers apply their own
	// tighter limits (command, navigation, HTTP) inside it.
	DefaultWorkerTimeout = 2 * time.Minute

	// maxOwnHistory caps the router's session-less history.
	maxOwnHistory = 200
)

// ErrEmptyMessage is returned for blank input.
var ErrEmptyMessage = errors.New("message is empty")

// Request is one inbound message.
type Request struct {
	// SessionID binds the dispatch to a session of the store. When empty
	// the router's own history is used.
	SessionID string
	Message   string
	// History is caller-supplied context placed before the router's own.
	History []types.Message
}

// Outcome is the result of a dispatch together with how it was routed.
type Outcome struct {
	Result   agent.Result
	Decision Decision
	Routed   types.RoutedMessage
}

// Router is the supervisor.
type Router struct {
	registry        *agent.Registry
	completer       provider.Completer
	store           *session.Store
	window          int
	persona         string
	classifyTimeout time.Duration
	answerTimeout   time.Duration
	workerTimeout   time.Duration
	now             func() time.Time
	newID           func() string
	log             zerolog.Logger

	mu      sync.Mutex
	history []types.Message

	sessions *keyedMutex
}

// Option configures a Router.
type Option func(*Router)

// WithStore records dispatches bound to a session in s.
func WithStore(s *session.Store) Option {
	return func(r *Router) { r.store = s }
}

// WithHistoryWindow sets how many recent messages the classifier sees.
func WithHistoryWindow(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.window = n
		}
	}
}

// WithPersona replaces the direct-answer system prompt.
func WithPersona(p string) Option {
	return func(r *Router) {
		if strings.TrimSpace(p) != "" {
			r.persona = p
		}
	}
}

// WithClassifyTimeout bounds the classification call.
func WithClassifyTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.classifyTimeout = d
		}
	}
}

// WithAnswerTimeout bounds the direct-answer completion.
func WithAnswerTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.answerTimeout = d
		}
	}
}

// WithWorkerTimeout bounds each worker Handle call.
func WithWorkerTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.workerTimeout = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// New creates a router over registry. A nil completer disables
// classification and direct answers.
func New(registry *agent.Registry, completer provider.Completer, opts ...Option) *Router {
	if completer == nil {
		completer = provider.Unavailable{}
	}
	r := &Router{
		registry:        registry,
		completer:       completer,
		window:          DefaultHistoryWindow,
		persona:         DefaultPersona,
		classifyTimeout: DefaultClassifyTimeout,
		answerTimeout:   DefaultAnswerTimeout,
		workerTimeout:   DefaultWorkerTimeout,
		now:             time.Now,
		newID:           func() string { return ulid.Make().String() },
		log:             logging.Component("router"),
		sessions:        newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the worker registry.
func (r *Router) Registry() *agent.Registry {
	return r.registry
}

// Dispatch routes req to one worker, or answers directly, and records the
// round trip. Worker and classifier failures are reported in the Result.
// The error is non-nil only for blank input or an unknown session.
func (r *Router) Dispatch(ctx context.Context, req Request) (Outcome, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return Outcome{}, ErrEmptyMessage
	}

	unlock := r.sessions.Lock(req.SessionID)
	defer unlock()

	bound := req.SessionID != "" && r.store != nil
	var custom string
	if bound {
		sess, ok := r.store.Get(req.SessionID)
		if !ok {
			return Outcome{}, fmt.Errorf("%w: %s", session.ErrNotFound, req.SessionID)
		}
		custom = sess.Metadata.CustomInstructions
	}

	userMsg := types.Message{Role: types.RoleUser, Content: message, Timestamp: r.now()}
	window := r.appendUser(req, userMsg, bound)

	decision := r.decide(ctx, message, window)
	r.log.Debug().
		Str("session", req.SessionID).
		Str("agent", decision.AgentName).
		Float64("confidence", decision.Confidence).
		Str("source", decision.Source).
		Msg("routing decision")

	var result agent.Result
	if decision.AgentName != "" {
		result = r.invoke(ctx, decision, message, window)
	} else {
		result = r.answer(ctx, personaPrompt(r.persona, custom), window)
	}

	res := result
	routed := types.RoutedMessage{
		ID:              r.newID(),
		OriginalMessage: message,
		RoutedAgent:     decision.AgentName,
		Confidence:      decision.Confidence,
		Source:          decision.Source,
		Response:        &res,
		Timestamp:       r.now(),
	}
	r.record(req.SessionID, bound, routed, result)

	return Outcome{Result: result, Decision: decision, Routed: routed}, nil
}

// appendUser stores the user message and returns the classifier window.
func (r *Router) appendUser(req Request, msg types.Message, bound bool) []types.Message {
	var own []types.Message
	if bound {
		r.store.AddMessage(req.SessionID, msg)
		own, _ = r.store.GetMessages(req.SessionID, r.window)
	} else {
		r.mu.Lock()
		r.history = append(r.history, msg)
		if len(r.history) > maxOwnHistory {
			r.history = append([]types.Message(nil), r.history[len(r.history)-maxOwnHistory:]...)
		}
		own = append([]types.Message(nil), r.history...)
		r.mu.Unlock()
	}

	combined := make([]types.Message, 0, len(req.History)+len(own))
	combined = append(combined, req.History...)
	combined = append(combined, own...)
	return Window(combined, r.window)
}

func (r *Router) record(sessionID string, bound bool, routed types.RoutedMessage, result agent.Result) {
	reply := types.Message{Role: types.RoleAgent, Content: result.Content, Timestamp: routed.Timestamp}
	if !bound {
		r.mu.Lock()
		r.history = append(r.history, reply)
		r.mu.Unlock()
		return
	}
	r.store.AddRoutedMessage(sessionID, routed)
	r.store.AddMessage(sessionID, reply)
	if routed.RoutedAgent != "" {
		active := routed.RoutedAgent
		r.store.Update(sessionID, types.SessionPatch{ActiveAgent: &active})
	}
}

// decide runs the directive, classifier and fallback steps in order.
func (r *Router) decide(ctx context.Context, message string, window []types.Message) Decision {
	if kind, ok := DirectiveKind(message); ok {
		if w, ok := r.registry.ByKind(kind); ok {
			return Decision{AgentName: w.Name(), Confidence: 1, Source: SourceDirective}
		}
	}

	if d, ok := r.classify(ctx, message, window); ok {
		return d
	}

	m := Fallback(message)
	if m.Kind != "" {
		if w, ok := r.registry.ByKind(m.Kind); ok {
			return Decision{
				AgentName:       w.Name(),
				ModifiedMessage: m.Message,
				Confidence:      m.Confidence,
				Source:          SourceFallback,
			}
		}
	}
	return Decision{Source: SourceNone}
}

// classify asks the completer for a decision. It reports false when the
// reply is unusable or names no registered worker.
func (r *Router) classify(ctx context.Context, message string, window []types.Message) (Decision, bool) {
	cctx, cancel := context.WithTimeout(ctx, r.classifyTimeout)
	defer cancel()

	input := []types.Message{{
		Role:      types.RoleUser,
		Content:   classificationInput(message, window),
		Timestamp: r.now(),
	}}
	reply, err := r.safeComplete(cctx, classificationPrompt(r.registry.List()), input)
	if err != nil {
		r.log.Debug().Err(err).Msg("classification unavailable, using fallback rules")
		return Decision{}, false
	}

	switch res := DecodeDecision(reply).(type) {
	case ParseFailed:
		r.log.Debug().Str("reason", res.Reason).Msg("classification reply not decodable")
		return Decision{}, false
	case Decoded:
		d := res.Decision
		if d.AgentName == "" || strings.EqualFold(d.AgentName, "null") {
			return Decision{}, false
		}
		if _, ok := r.registry.Get(d.AgentName); !ok {
			r.log.Debug().Str("agent", d.AgentName).Msg("classifier named an unknown agent")
			return Decision{}, false
		}
		return d, true
	}
	return Decision{}, false
}

// invoke calls the chosen worker and prefixes its content with the
// worker's display name.
func (r *Router) invoke(ctx context.Context, d Decision, message string, window []types.Message) (result agent.Result) {
	w, ok := r.registry.Get(d.AgentName)
	if !ok {
		return agent.Failf(agent.CodeNotFound, "Agent %s is not registered.", d.AgentName)
	}
	input := message
	if d.ModifiedMessage != "" {
		input = d.ModifiedMessage
	}

	defer func() {
		if p := recover(); p != nil {
			r.log.Error().
				Str("agent", w.Name()).
				Interface("panic", p).
				Bytes("stack", debug.Stack()).
				Msg("worker panicked")
			result = agent.Failf(agent.CodeInternal, "[%s]: Internal error while handling the request.", w.Name())
		}
	}()

	wctx, cancel := context.WithTimeout(ctx, r.workerTimeout)
	defer cancel()
	result = w.Handle(wctx, input, window)
	if !result.Success && !agent.Rejected(result) {
		r.log.Error().Str("agent", w.Name()).Str("code", result.Error).Msg("worker call failed")
	}
	result.Content = fmt.Sprintf("[%s]: %s", w.Name(), result.Content)
	return result
}

// answer replies with the router's own persona.
func (r *Router) answer(ctx context.Context, persona string, window []types.Message) agent.Result {
	ctx, cancel := context.WithTimeout(ctx, r.answerTimeout)
	defer cancel()
	reply, err := r.safeComplete(ctx, persona, window)
	if err != nil {
		return agent.Fail(agent.CodeUpstream,
			"I encountered an error processing your request: "+err.Error(), nil)
	}
	return agent.OK(reply, nil)
}

func (r *Router) safeComplete(ctx context.Context, system string, conv []types.Message) (reply string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("completion panicked: %v", p)
		}
	}()
	return r.completer.Complete(ctx, system, conv)
}

// History returns a copy of the router's session-less history.
func (r *Router) History() []types.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Message(nil), r.history...)
}

// Window returns the last n messages of msgs.
func Window(msgs []types.Message, n int) []types.Message {
	if n <= 0 || len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
