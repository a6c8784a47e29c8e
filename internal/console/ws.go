package console

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sagelabs/widgetlab/internal/boundary"
	"github.com/sagelabs/widgetlab/internal/editor"
	"github.com/sagelabs/widgetlab/internal/resolve"
	"github.com/sagelabs/widgetlab/internal/scope"
)

// handleRegistrySocket pushes the grouped widget listing to the client after
// every registry change, the current listing first. The client never sends
// anything meaningful; its read side only signals disconnect.
func (s *Server) handleRegistrySocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Registry socket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	feed := s.registry.Subscribe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-feed:
			if !ok {
				return
			}
			msg := map[string]any{"type": "widgets", "groups": s.resolver.Listing()}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

// editorCommand is everything a console client can send on the editor
// socket. Type selects the action; the other fields are per-type payloads.
type editorCommand struct {
	Type string            `json:"type"`
	Code string            `json:"code,omitempty"`
	By   string            `json:"by,omitempty"`
	Name string            `json:"name,omitempty"`
	Args []json.RawMessage `json:"args,omitempty"`
	Path []string          `json:"path,omitempty"`
}

// handleEditorSocket runs one editor session over a websocket. Failures of
// individual commands come back as transient notice payloads; the socket
// stays open.
func (s *Server) handleEditorSocket(w http.ResponseWriter, r *http.Request) {
	widgetID := r.URL.Query().Get("widget")
	if widgetID == "" {
		writeError(w, http.StatusBadRequest, "missing widget query parameter")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Editor socket upgrade failed", "widget_id", widgetID, "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	seed := s.resolver.EditSeed(resolve.Mount{WidgetID: widgetID})
	session := editor.Open(seed, s.registry, s.quiet)
	defer session.Close()

	// All writes funnel through one goroutine; the log pump and the command
	// loop would otherwise race on the connection.
	outbound := make(chan any, 64)
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-outbound:
				if err := conn.WriteJSON(msg); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	send := func(msg any) {
		select {
		case outbound <- msg:
		case <-ctx.Done():
		}
	}

	go func() {
		for entry := range session.Log().Subscribe(ctx) {
			send(map[string]any{"type": "log", "entry": entry})
		}
	}()

	send(map[string]any{
		"type":   "opened",
		"widget": session.WidgetID(),
		"name":   session.DisplayName(),
		"code":   session.Code(),
	})

	for {
		var cmd editorCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			cancel()
			<-writeDone
			return
		}
		s.dispatchEditorCommand(ctx, session, cmd, send)
	}
}

func (s *Server) dispatchEditorCommand(ctx context.Context, session *editor.Session, cmd editorCommand, send func(any)) {
	notice := func(message string) {
		send(map[string]any{"type": "notice", "level": "error", "message": message})
	}

	switch cmd.Type {
	case "edit":
		session.SetCode(cmd.Code)

	case "preview":
		out := session.Preview(ctx)
		msg := map[string]any{"type": "preview", "ok": out.OK()}
		if out.OK() {
			msg["tree"] = out.Tree
		} else {
			msg["error"] = out.Err.Error()
			msg["fallback"] = boundary.FallbackPanel(session.WidgetID(), out.Err, s.resolver.ShowRawErrors())
		}
		send(msg)

	case "save":
		if err := session.Save(ctx, cmd.By); err != nil {
			s.logger.Error("Editor save failed", "widget_id", session.WidgetID(), "error", err)
			notice("save failed: " + err.Error())
			return
		}
		send(map[string]any{"type": "saved", "widget": session.WidgetID()})

	case "reset":
		session.Reset()
		send(map[string]any{"type": "code", "code": session.Code()})

	case "call":
		args := make([]scope.Value, 0, len(cmd.Args))
		for _, raw := range cmd.Args {
			v, err := scope.FromJSON(raw)
			if err != nil {
				notice("bad argument: " + err.Error())
				return
			}
			args = append(args, v)
		}
		result, err := session.Call(ctx, cmd.Name, args)
		if err != nil {
			notice("call failed: " + err.Error())
			return
		}
		send(map[string]any{"type": "result", "name": cmd.Name, "value": editor.Sanitize(result)})

	case "expand":
		node, err := session.Describe(cmd.Path)
		if err != nil {
			notice("expand failed: " + err.Error())
			return
		}
		send(map[string]any{"type": "value", "node": node})

	case "bindings":
		analysis, err := session.Bindings()
		if err != nil {
			notice("analyze failed: " + err.Error())
			return
		}
		send(map[string]any{
			"type":      "bindings",
			"variables": analysis.Variables,
			"functions": analysis.Functions,
		})

	default:
		notice("unknown command " + cmd.Type)
	}
}
