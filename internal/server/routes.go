package server

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Get("/agents", s.listAgents)

		// Session routes
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.listSessions)
			r.Post("/", s.createSession)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.getSession)
				r.Patch("/", s.updateSession)
				r.Delete("/", s.deleteSession)

				r.Get("/messages", s.getMessages)
				r.Post("/messages", s.sendMessage)
				r.Get("/routed", s.getRoutedMessages)
				r.Post("/user-control", s.setUserControl)
			})
		})

		// Direct worker endpoints
		r.Post("/terminal/execute", s.terminalExecute)

		r.Route("/web", func(r chi.Router) {
			r.Post("/browse", s.webBrowse)
			r.Post("/screenshot", s.webScreenshot)
			r.Post("/extract", s.webExtract)
			r.Post("/search", s.webSearch)
		})

		r.Route("/editor", func(r chi.Router) {
			r.Post("/process", s.editorProcess)
			r.Post("/{op}", s.editorApply)
		})

		r.Route("/planner", func(r chi.Router) {
			r.Post("/create", s.plannerCreate)
			r.Post("/update", s.plannerUpdate)
			r.Get("/list", s.plannerList)
			r.Get("/plan/{planID}", s.plannerGet)
		})

		r.Route("/tool", func(r chi.Router) {
			r.Post("/execute", s.toolExecute)
			r.Post("/register", s.toolRegister)
			r.Post("/apikey", s.toolAPIKey)
			r.Post("/process", s.toolProcess)
			r.Get("/list", s.toolList)
		})

		// Realtime
		r.Get("/event", s.events)
		r.Get("/ws", s.hub.ServeHTTP)
	})
}
