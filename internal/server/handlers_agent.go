package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shubharthaksangharsha/morpheusAI/internal/agent"
	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

// AgentInfo describes a registered worker.
type AgentInfo struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Kind        agent.Kind `json:"kind"`
}

// ExecuteRequest is the body of POST /api/terminal/execute.
type ExecuteRequest struct {
	Command string `json:"command"`
}

// URLRequest is the body of POST /api/web/browse.
type URLRequest struct {
	URL string `json:"url"`
}

// SearchRequest is the body of POST /api/web/search.
type SearchRequest struct {
	Query string `json:"query"`
}

// ProcessRequest is the body of the free-form process endpoints.
type ProcessRequest struct {
	Message string          `json:"message"`
	History []types.Message `json:"history,omitempty"`
}

// PlanRequest is the body of the planner endpoints.
type PlanRequest struct {
	Description string `json:"description,omitempty"`
	PlanID      string `json:"planId,omitempty"`
	Changes     string `json:"changes,omitempty"`
}

// ToolExecuteRequest is the body of POST /api/tool/execute.
type ToolExecuteRequest struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

// ToolRegisterRequest is the body of POST /api/tool/register. Either
// Definition or Text is set.
type ToolRegisterRequest struct {
	Definition *types.ToolDefinition `json:"definition,omitempty"`
	Text       string                `json:"text,omitempty"`
}

// APIKeyRequest is the body of POST /api/tool/apikey.
type APIKeyRequest struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// listAgents handles GET /api/agents
func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	workers := s.registry.List()
	out := make([]AgentInfo, 0, len(workers))
	for _, wk := range workers {
		out = append(out, AgentInfo{Name: wk.Name(), Description: wk.Description(), Kind: wk.Kind()})
	}
	writeJSON(w, http.StatusOK, out)
}

// worker resolves the first registered worker of kind k implementing T,
// answering 503 when there is none.
func worker[T agent.Worker](s *Server, w http.ResponseWriter, k agent.Kind) (T, bool) {
	wk, ok := agent.As[T](s.registry, k)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "No "+string(k)+" agent is registered")
	}
	return wk, ok
}

func required(w http.ResponseWriter, field, value string) bool {
	if strings.TrimSpace(value) == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, field+" is required")
		return false
	}
	return true
}

// terminalExecute handles POST /api/terminal/execute
func (s *Server) terminalExecute(w http.ResponseWriter, r *http.Request) {
	runner, ok := worker[agent.CommandRunner](s, w, agent.KindCommand)
	if !ok {
		return
	}
	var req ExecuteRequest
	if !decodeJSON(w, r, &req) || !required(w, "command", req.Command) {
		return
	}
	writeResult(w, runner.Execute(r.Context(), req.Command))
}

// webBrowse handles POST /api/web/browse
func (s *Server) webBrowse(w http.ResponseWriter, r *http.Request) {
	nav, ok := worker[agent.Navigator](s, w, agent.KindBrowser)
	if !ok {
		return
	}
	var req URLRequest
	if !decodeJSON(w, r, &req) || !required(w, "url", req.URL) {
		return
	}
	writeResult(w, nav.Navigate(r.Context(), req.URL))
}

// webScreenshot handles POST /api/web/screenshot
func (s *Server) webScreenshot(w http.ResponseWriter, r *http.Request) {
	nav, ok := worker[agent.Navigator](s, w, agent.KindBrowser)
	if !ok {
		return
	}
	writeResult(w, nav.Screenshot(r.Context()))
}

// webExtract handles POST /api/web/extract
func (s *Server) webExtract(w http.ResponseWriter, r *http.Request) {
	nav, ok := worker[agent.Navigator](s, w, agent.KindBrowser)
	if !ok {
		return
	}
	writeResult(w, nav.Extract(r.Context()))
}

// webSearch handles POST /api/web/search
func (s *Server) webSearch(w http.ResponseWriter, r *http.Request) {
	nav, ok := worker[agent.Navigator](s, w, agent.KindBrowser)
	if !ok {
		return
	}
	var req SearchRequest
	if !decodeJSON(w, r, &req) || !required(w, "query", req.Query) {
		return
	}
	writeResult(w, nav.Search(r.Context(), req.Query))
}

// editorApply handles POST /api/editor/{op}
func (s *Server) editorApply(w http.ResponseWriter, r *http.Request) {
	op, valid := agent.ParseFileOp(chi.URLParam(r, "op"))
	if !valid {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Unknown editor operation")
		return
	}
	ed, ok := worker[agent.FileEditor](s, w, agent.KindFile)
	if !ok {
		return
	}

	var req agent.FileRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	req.Op = op
	if op != agent.OpList && !required(w, "path", req.Path) {
		return
	}
	writeResult(w, ed.Apply(r.Context(), req))
}

// editorProcess handles POST /api/editor/process
func (s *Server) editorProcess(w http.ResponseWriter, r *http.Request) {
	s.process(w, r, agent.KindFile)
}

// toolProcess handles POST /api/tool/process
func (s *Server) toolProcess(w http.ResponseWriter, r *http.Request) {
	s.process(w, r, agent.KindTool)
}

// process hands a free-form message to a worker without routing.
func (s *Server) process(w http.ResponseWriter, r *http.Request, k agent.Kind) {
	wk, ok := worker[agent.Worker](s, w, k)
	if !ok {
		return
	}
	var req ProcessRequest
	if !decodeJSON(w, r, &req) || !required(w, "message", req.Message) {
		return
	}
	writeResult(w, wk.Handle(r.Context(), req.Message, req.History))
}

// plannerCreate handles POST /api/planner/create
func (s *Server) plannerCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := worker[agent.Planner](s, w, agent.KindPlanner)
	if !ok {
		return
	}
	var req PlanRequest
	if !decodeJSON(w, r, &req) || !required(w, "description", req.Description) {
		return
	}
	writeResult(w, p.CreatePlan(r.Context(), req.Description))
}

// plannerUpdate handles POST /api/planner/update
func (s *Server) plannerUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := worker[agent.Planner](s, w, agent.KindPlanner)
	if !ok {
		return
	}
	var req PlanRequest
	if !decodeJSON(w, r, &req) || !required(w, "planId", req.PlanID) || !required(w, "changes", req.Changes) {
		return
	}
	writeResult(w, p.UpdatePlan(r.Context(), req.PlanID, req.Changes))
}

// plannerList handles GET /api/planner/list
func (s *Server) plannerList(w http.ResponseWriter, r *http.Request) {
	p, ok := worker[agent.Planner](s, w, agent.KindPlanner)
	if !ok {
		return
	}
	writeResult(w, p.ListPlans(r.Context()))
}

// plannerGet handles GET /api/planner/plan/{planID}
func (s *Server) plannerGet(w http.ResponseWriter, r *http.Request) {
	p, ok := worker[agent.Planner](s, w, agent.KindPlanner)
	if !ok {
		return
	}
	writeResult(w, p.GetPlan(r.Context(), chi.URLParam(r, "planID")))
}

// toolExecute handles POST /api/tool/execute
func (s *Server) toolExecute(w http.ResponseWriter, r *http.Request) {
	inv, ok := worker[agent.ToolInvoker](s, w, agent.KindTool)
	if !ok {
		return
	}
	var req ToolExecuteRequest
	if !decodeJSON(w, r, &req) || !required(w, "name", req.Name) {
		return
	}
	writeResult(w, inv.Invoke(r.Context(), req.Name, req.Params))
}

// toolRegister handles POST /api/tool/register
func (s *Server) toolRegister(w http.ResponseWriter, r *http.Request) {
	inv, ok := worker[agent.ToolInvoker](s, w, agent.KindTool)
	if !ok {
		return
	}
	var req ToolRegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	switch {
	case req.Definition != nil:
		writeResult(w, inv.Register(r.Context(), *req.Definition))
	case strings.TrimSpace(req.Text) != "":
		writeResult(w, inv.RegisterText(r.Context(), req.Text))
	default:
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "definition or text is required")
	}
}

// toolAPIKey handles POST /api/tool/apikey. The key is never echoed.
func (s *Server) toolAPIKey(w http.ResponseWriter, r *http.Request) {
	inv, ok := worker[agent.ToolInvoker](s, w, agent.KindTool)
	if !ok {
		return
	}
	var req APIKeyRequest
	if !decodeJSON(w, r, &req) || !required(w, "name", req.Name) || !required(w, "key", req.Key) {
		return
	}
	writeResult(w, inv.SetCredential(req.Name, req.Key))
}

// toolList handles GET /api/tool/list
func (s *Server) toolList(w http.ResponseWriter, r *http.Request) {
	inv, ok := worker[agent.ToolInvoker](s, w, agent.KindTool)
	if !ok {
		return
	}
	writeResult(w, inv.ListTools())
}
