package console

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/sagelabs/widgetlab/internal/boundary"
	"github.com/sagelabs/widgetlab/internal/ctxlog"
	"github.com/sagelabs/widgetlab/internal/editor"
	"github.com/sagelabs/widgetlab/internal/registry"
	"github.com/sagelabs/widgetlab/internal/resolve"
	"github.com/sagelabs/widgetlab/internal/tree"
)

// Server is the admin console: the HTTP/WebSocket surface over the registry,
// the resolver and editor sessions.
type Server struct {
	logger   *slog.Logger
	registry *registry.Registry
	resolver *resolve.Resolver
	upgrader websocket.Upgrader
	quiet    map[string]bool

	mu         sync.Mutex
	boundaries map[string]*boundary.Boundary
}

// NewServer wires the console over its collaborators. quietFunctions names
// scope keys excluded from editor call logging, on top of the always-quiet
// render-tree constructors.
func NewServer(logger *slog.Logger, reg *registry.Registry, resolver *resolve.Resolver, quietFunctions []string) *Server {
	quiet := editor.DefaultQuiet()
	for _, name := range quietFunctions {
		quiet[name] = true
	}
	return &Server{
		logger:     logger,
		registry:   reg,
		resolver:   resolver,
		quiet:      quiet,
		boundaries: make(map[string]*boundary.Boundary),
		upgrader: websocket.Upgrader{
			// The console is an admin-local tool; cross-origin embedding is
			// not a supported deployment.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler builds the console's route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /api/widgets", s.handleListWidgets)
	mux.HandleFunc("POST /api/widgets/{id}/toggle", s.handleToggle)
	mux.HandleFunc("POST /api/widgets/{id}/order", s.handleSetOrder)
	mux.HandleFunc("POST /api/order", s.handleReorder)
	mux.HandleFunc("DELETE /api/widgets/{id}", s.handleDelete)
	mux.HandleFunc("GET /api/widgets/{id}/history", s.handleHistory)
	mux.HandleFunc("GET /api/render/{id}", s.handleRender)
	mux.HandleFunc("POST /api/render/{id}/retry", s.handleRetry)
	mux.HandleFunc("GET /ws/registry", s.handleRegistrySocket)
	mux.HandleFunc("GET /ws/editor", s.handleEditorSocket)
	return s.withLogger(mux)
}

// withLogger puts the server's logger on every request context, so the
// packages underneath can log through ctxlog as usual.
func (s *Server) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ctxlog.WithLogger(r.Context(), s.logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListWidgets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.resolver.Listing())
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	// Omitting "enabled" flips the current state.
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid toggle payload")
		return
	}
	id := r.PathValue("id")
	var err error
	if body.Enabled != nil {
		err = s.registry.Toggle(r.Context(), id, *body.Enabled)
	} else {
		err = s.registry.Flip(r.Context(), id)
	}
	if err != nil {
		s.logger.Error("Toggle failed", "widget_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "toggle failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "enabled": s.registry.IsEnabled(id)})
}

func (s *Server) handleSetOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Order int `json:"order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid order payload")
		return
	}
	id := r.PathValue("id")
	if err := s.registry.SetOrder(r.Context(), id, body.Order); err != nil {
		s.logger.Error("Set order failed", "widget_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "set order failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "order": body.Order})
}

// handleReorder assigns orders from a full id list, index becoming order.
func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "invalid reorder payload")
		return
	}
	for i, id := range body.IDs {
		if err := s.registry.SetOrder(r.Context(), id, i); err != nil {
			s.logger.Error("Reorder failed", "widget_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "reorder failed")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reordered": len(body.IDs)})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.registry.Delete(r.Context(), id); err != nil {
		s.logger.Error("Delete failed", "widget_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	history, err := s.registry.History(r.Context(), id)
	if err != nil {
		s.logger.Error("History lookup failed", "widget_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "history lookup failed")
		return
	}
	if history == nil {
		history = []registry.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, history)
}

// renderResponse is the boundary outcome on the wire. A failed widget is
// still a 200: the failure is data, the page hosting the widget is fine.
type renderResponse struct {
	WidgetID string     `json:"widget_id"`
	OK       bool       `json:"ok"`
	Tree     *tree.Node `json:"tree,omitempty"`
	Error    string     `json:"error,omitempty"`
	Fallback *tree.Node `json:"fallback,omitempty"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b := s.boundaryFor(id)

	out := b.Render(func() (*tree.Node, error) {
		return s.resolver.Render(r.Context(), resolve.Mount{WidgetID: id})
	})

	resp := renderResponse{WidgetID: id, OK: out.OK()}
	if out.OK() {
		resp.Tree = out.Tree
	} else {
		resp.Error = out.Err.Error()
		resp.Fallback = boundary.FallbackPanel(id, out.Err, s.resolver.ShowRawErrors())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.boundaryFor(id).Retry()
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "state": "healthy"})
}

// boundaryFor returns the widget's supervisor, creating it on first use.
// Boundaries are per widget id, so one widget's failure never short-circuits
// a sibling.
func (s *Server) boundaryFor(id string) *boundary.Boundary {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boundaries[id]
	if !ok {
		b = boundary.New()
		s.boundaries[id] = b
	}
	return b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
