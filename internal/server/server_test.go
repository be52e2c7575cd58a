package server_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/shubharthaksangharsha/morpheusAI/internal/agent"
	"github.com/shubharthaksangharsha/morpheusAI/internal/browser"
	"github.com/shubharthaksangharsha/morpheusAI/internal/editor"
	"github.com/shubharthaksangharsha/morpheusAI/internal/event"
	"github.com/shubharthaksangharsha/morpheusAI/internal/planner"
	"github.com/shubharthaksangharsha/morpheusAI/internal/provider"
	"github.com/shubharthaksangharsha/morpheusAI/internal/router"
	"github.com/shubharthaksangharsha/morpheusAI/internal/server"
	"github.com/shubharthaksangharsha/morpheusAI/internal/session"
	"github.com/shubharthaksangharsha/morpheusAI/internal/storage"
	"github.com/shubharthaksangharsha/morpheusAI/internal/terminal"
	"github.com/shubharthaksangharsha/morpheusAI/internal/tool"
	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

const page = `<html><head><title>Example Domain</title></head>
<body><main><h1>Example</h1>
<p>This domain is for use in examples.</p></main></body></html>`

type stubPage struct{ url string }

func (p *stubPage) URL() string                 { return p.url }
func (p *stubPage) Title() (string, error)      { return "Example Domain", nil }
func (p *stubPage) HTML() (string, error)       { return page, nil }
func (p *stubPage) Screenshot() ([]byte, error) { return []byte("png"), nil }
func (p *stubPage) Close() error                { return nil }

type stubEngine struct{}

func (stubEngine) Open(ctx context.Context, url string, timeout time.Duration) (browser.Page, error) {
	return &stubPage{url: url}, nil
}
func (stubEngine) Close() error { return nil }

type apiClient struct {
	base string
}

func (c apiClient) do(method, path string, body any) (*http.Response, []byte) {
	var buf bytes.Buffer
	if body != nil {
		Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	Expect(err).NotTo(HaveOccurred())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return resp, out.Bytes()
}

func decode[T any](data []byte) T {
	var v T
	ExpectWithOffset(1, json.Unmarshal(data, &v)).To(Succeed())
	return v
}

var _ = Describe("HTTP API", func() {
	var (
		ts     *httptest.Server
		srv    *server.Server
		client apiClient
		store  *session.Store
		bus    *event.Bus
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		bus = event.NewBus()
		store = session.NewStore(session.WithBus(bus))
		completer := provider.NewFailingCompleter(provider.ErrUnavailable)

		term := terminal.New(GinkgoT().TempDir(), terminal.WithBus(bus))
		ed, err := editor.New(GinkgoT().TempDir(), editor.WithBus(bus))
		Expect(err).NotTo(HaveOccurred())
		web := browser.New(func(context.Context) (browser.Engine, error) { return stubEngine{}, nil },
			GinkgoT().TempDir(), browser.WithBus(bus))
		plans := planner.New(planner.WithStorage(storage.New(GinkgoT().TempDir())), planner.WithCompleter(completer))
		tools := tool.New(tool.WithCompleter(completer))

		registry, err := agent.NewRegistry(term, ed, web, plans, tools)
		Expect(err).NotTo(HaveOccurred())
		Expect(registry.InitializeAll(ctx)).To(Succeed())

		supervisor := router.New(registry, completer, router.WithStore(store))
		srv = server.New(&server.Config{EnableCORS: true}, store, supervisor, bus)
		ts = httptest.NewServer(srv.Router())
		client = apiClient{base: ts.URL}

		DeferCleanup(func() {
			ts.Close()
			Expect(srv.Shutdown(ctx)).To(Succeed())
			Expect(registry.ShutdownAll(ctx)).To(Succeed())
			bus.Close()
		})
	})

	Describe("GET /api/health", func() {
		It("reports status and counts", func() {
			resp, body := client.do("GET", "/api/health", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			health := decode[map[string]any](body)
			Expect(health["status"]).To(Equal("ok"))
			Expect(health["agents"]).To(BeNumerically("==", 5))
		})
	})

	Describe("GET /api/agents", func() {
		It("lists every registered worker", func() {
			_, body := client.do("GET", "/api/agents", nil)
			agents := decode[[]server.AgentInfo](body)
			Expect(agents).To(HaveLen(5))
			Expect(agents[0].Name).To(Equal(agent.NameTerminal))
		})
	})

	Describe("Sessions", func() {
		It("creates, lists, gets and deletes a session", func() {
			resp, body := client.do("POST", "/api/sessions", map[string]string{"userId": "u1"})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			sess := decode[types.Session](body)
			Expect(sess.ID).NotTo(BeEmpty())
			Expect(sess.Metadata.UserControlMode).To(BeFalse())

			_, body = client.do("GET", "/api/sessions?userId=u1", nil)
			Expect(decode[[]types.Session](body)).To(HaveLen(1))

			resp, _ = client.do("GET", "/api/sessions/"+sess.ID, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			resp, _ = client.do("DELETE", "/api/sessions/"+sess.ID, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			resp, body = client.do("GET", "/api/sessions/"+sess.ID, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			Expect(decode[server.ErrorResponse](body).Error.Code).To(Equal(server.ErrCodeNotFound))
		})

		It("returns an empty list instead of null", func() {
			_, body := client.do("GET", "/api/sessions", nil)
			Expect(strings.TrimSpace(string(body))).To(Equal("[]"))
		})

		It("updates metadata", func() {
			sess := store.Create("")
			resp, body := client.do("PATCH", "/api/sessions/"+sess.ID, map[string]any{
				"activeTab":       "terminal",
				"userControlMode": true,
			})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			got := decode[types.Session](body)
			Expect(got.Metadata.ActiveTab).To(Equal("terminal"))
			Expect(got.Metadata.UserControlMode).To(BeTrue())
		})

		It("toggles user control", func() {
			sess := store.Create("")
			resp, _ := client.do("POST", "/api/sessions/"+sess.ID+"/user-control", map[string]bool{"enabled": true})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			got, _ := store.Get(sess.ID)
			Expect(got.Metadata.UserControlMode).To(BeTrue())
		})
	})

	Describe("POST /api/sessions/{id}/messages", func() {
		It("routes a directive and records the round trip", func() {
			sess := store.Create("")

			resp, body := client.do("POST", "/api/sessions/"+sess.ID+"/messages", map[string]string{"content": "!exec echo hello"})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			out := decode[server.SendMessageResponse](body)
			Expect(out.Result.Success).To(BeTrue())
			Expect(out.Message.Content).To(HavePrefix("[Terminal Agent]: "))
			Expect(out.Message.Content).To(ContainSubstring("hello"))
			Expect(out.Routed.RoutedAgent).To(Equal(agent.NameTerminal))
			Expect(out.Routed.Source).To(Equal(router.SourceDirective))

			_, body = client.do("GET", "/api/sessions/"+sess.ID+"/messages", nil)
			Expect(decode[[]types.Message](body)).To(HaveLen(2))

			_, body = client.do("GET", "/api/sessions/"+sess.ID+"/messages?limit=1", nil)
			msgs := decode[[]types.Message](body)
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0].Role).To(Equal(types.RoleAgent))

			_, body = client.do("GET", "/api/sessions/"+sess.ID+"/routed", nil)
			Expect(decode[[]types.RoutedMessage](body)).To(HaveLen(1))
		})

		It("falls back to the rules when the classifier is unavailable", func() {
			sess := store.Create("")

			_, body := client.do("POST", "/api/sessions/"+sess.ID+"/messages", map[string]string{"content": "list files please"})
			out := decode[server.SendMessageResponse](body)
			Expect(out.Routed.Source).To(Equal(router.SourceFallback))
			Expect(out.Routed.RoutedAgent).To(Equal(agent.NameTerminal))
			Expect(out.Routed.Confidence).To(BeNumerically("~", 0.9, 1e-9))
		})

		It("rejects blank content", func() {
			sess := store.Create("")
			resp, _ := client.do("POST", "/api/sessions/"+sess.ID+"/messages", map[string]string{"content": "  "})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 for an unknown session", func() {
			resp, _ := client.do("POST", "/api/sessions/nope/messages", map[string]string{"content": "hi"})
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("Direct endpoints", func() {
		It("executes terminal commands", func() {
			resp, body := client.do("POST", "/api/terminal/execute", map[string]string{"command": "echo direct"})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			res := decode[agent.Result](body)
			Expect(res.Content).To(ContainSubstring("direct"))
			Expect(res.Data["exitCode"]).To(BeNumerically("==", 0))
		})

		It("rejects blocked commands", func() {
			resp, body := client.do("POST", "/api/terminal/execute", map[string]string{"command": "sudo reboot"})
			Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
			Expect(decode[agent.Result](body).Error).To(Equal("command_blocked"))
		})

		It("writes and reads files", func() {
			resp, _ := client.do("POST", "/api/editor/write", map[string]string{"path": "notes.txt", "content": "hi there"})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			resp, body := client.do("POST", "/api/editor/read", map[string]string{"path": "notes.txt"})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(decode[agent.Result](body).Data["content"]).To(Equal("hi there"))

			resp, body = client.do("POST", "/api/editor/list", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(decode[agent.Result](body).Content).To(ContainSubstring("notes.txt"))
		})

		It("confines the editor to its root", func() {
			resp, body := client.do("POST", "/api/editor/read", map[string]string{"path": "../../etc/passwd"})
			Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
			Expect(decode[agent.Result](body).Error).To(Equal("path_violation"))
		})

		It("rejects unknown editor operations", func() {
			resp, _ := client.do("POST", "/api/editor/chmod", map[string]string{"path": "x"})
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("browses pages", func() {
			resp, body := client.do("POST", "/api/web/browse", map[string]string{"url": "https://example.com"})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			res := decode[agent.Result](body)
			Expect(res.Data["title"]).To(Equal("Example Domain"))

			resp, body = client.do("POST", "/api/web/extract", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(decode[agent.Result](body).Content).To(ContainSubstring("This domain is for use in examples."))
		})

		It("blocks private hosts", func() {
			resp, body := client.do("POST", "/api/web/browse", map[string]string{"url": "http://localhost:8080"})
			Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
			Expect(decode[agent.Result](body).Error).To(Equal("domain_blocked"))
		})

		It("reports no active page before browsing", func() {
			resp, body := client.do("POST", "/api/web/screenshot", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			Expect(decode[agent.Result](body).Error).To(Equal(agent.CodeNoActivePage))
		})

		It("lists plans", func() {
			resp, body := client.do("GET", "/api/planner/list", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(decode[agent.Result](body).Content).To(ContainSubstring("No plans found."))
		})

		It("returns 404 for an unknown plan", func() {
			resp, _ := client.do("GET", "/api/planner/plan/plan-missing", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("lists built-in tools", func() {
			resp, body := client.do("GET", "/api/tool/list", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			content := decode[agent.Result](body).Content
			Expect(content).To(ContainSubstring("weather"))
			Expect(content).To(ContainSubstring("dictionary"))
		})

		It("reports unknown tools", func() {
			resp, body := client.do("POST", "/api/tool/execute", map[string]any{"name": "wether"})
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			Expect(decode[agent.Result](body).Error).To(Equal(agent.CodeUnknownTool))
		})

		It("requires fields", func() {
			resp, body := client.do("POST", "/api/tool/apikey", map[string]string{"name": "weather"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(decode[server.ErrorResponse](body).Error.Code).To(Equal(server.ErrCodeInvalidRequest))
		})
	})

	Describe("GET /api/ws", func() {
		dial := func() *websocket.Conn {
			url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(conn.Close)
			return conn
		}

		It("pushes new messages to joined clients", func() {
			sess := store.Create("")
			conn := dial()
			Expect(conn.WriteJSON(server.WSMessage{Type: server.WSJoinSession, SessionID: sess.ID})).To(Succeed())
			Eventually(func() int { return srv.Hub().Members(sess.ID) }).Should(Equal(1))

			client.do("POST", "/api/sessions/"+sess.ID+"/messages", map[string]string{"content": "!exec echo pushed"})

			Expect(conn.SetReadDeadline(time.Now().Add(5 * time.Second))).To(Succeed())
			var msg server.WSMessage
			Expect(conn.ReadJSON(&msg)).To(Succeed())
			Expect(msg.Type).To(Equal(server.WSNewMessage))
			Expect(msg.SessionID).To(Equal(sess.ID))
			payload, ok := msg.Payload.(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(payload["content"]).To(ContainSubstring("pushed"))
		})

		It("toggles user control and notifies the room", func() {
			sess := store.Create("")
			conn := dial()
			Expect(conn.WriteJSON(server.WSMessage{Type: server.WSJoinSession, SessionID: sess.ID})).To(Succeed())
			Eventually(func() int { return srv.Hub().Members(sess.ID) }).Should(Equal(1))

			enabled := true
			Expect(conn.WriteJSON(server.WSMessage{Type: server.WSToggleUserControl, SessionID: sess.ID, Enabled: &enabled})).To(Succeed())

			Expect(conn.SetReadDeadline(time.Now().Add(5 * time.Second))).To(Succeed())
			var msg server.WSMessage
			Expect(conn.ReadJSON(&msg)).To(Succeed())
			Expect(msg.Type).To(Equal(server.WSUserControlChanged))

			got, _ := store.Get(sess.ID)
			Expect(got.Metadata.UserControlMode).To(BeTrue())
		})

		It("stops pushing after leave", func() {
			sess := store.Create("")
			conn := dial()
			Expect(conn.WriteJSON(server.WSMessage{Type: server.WSJoinSession, SessionID: sess.ID})).To(Succeed())
			Eventually(func() int { return srv.Hub().Members(sess.ID) }).Should(Equal(1))

			Expect(conn.WriteJSON(server.WSMessage{Type: server.WSLeaveSession, SessionID: sess.ID})).To(Succeed())
			Eventually(func() int { return srv.Hub().Members(sess.ID) }).Should(Equal(0))
		})

		It("answers joins for unknown sessions with an error frame", func() {
			conn := dial()
			Expect(conn.WriteJSON(server.WSMessage{Type: server.WSJoinSession, SessionID: "missing"})).To(Succeed())

			Expect(conn.SetReadDeadline(time.Now().Add(5 * time.Second))).To(Succeed())
			var msg server.WSMessage
			Expect(conn.ReadJSON(&msg)).To(Succeed())
			Expect(msg.Type).To(Equal(server.WSError))
		})
	})

	Describe("GET /api/event", func() {
		It("streams session events", func() {
			sess := store.Create("")
			streamCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			req, err := http.NewRequestWithContext(streamCtx, "GET", ts.URL+"/api/event?session="+sess.ID, nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.Header.Get("Content-Type")).To(Equal("text/event-stream"))

			var (
				mu    sync.Mutex
				lines []string
			)
			go func() {
				defer GinkgoRecover()
				scanner := bufio.NewScanner(resp.Body)
				for scanner.Scan() {
					mu.Lock()
					lines = append(lines, scanner.Text())
					mu.Unlock()
				}
			}()

			seen := func(substr string) func() bool {
				return func() bool {
					mu.Lock()
					defer mu.Unlock()
					for _, l := range lines {
						if strings.Contains(l, substr) {
							return true
						}
					}
					return false
				}
			}

			Eventually(seen("server.connected"), 5*time.Second).Should(BeTrue())

			client.do("POST", "/api/sessions/"+sess.ID+"/messages", map[string]string{"content": "!exec echo streamed"})
			Eventually(seen(string(event.MessageAdded)), 5*time.Second).Should(BeTrue())
			Eventually(seen(string(event.RoutedMessageAdded)), 5*time.Second).Should(BeTrue())
		})
	})
})
