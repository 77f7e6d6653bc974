package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"worldedit.ai/internal/expr"
	"worldedit.ai/internal/persistence/history"
	"worldedit.ai/internal/protocol"
	"worldedit.ai/internal/sim/edit"
	"worldedit.ai/internal/sim/tile"
	"worldedit.ai/internal/sim/world/wand"
)

// Info is what a WELCOME tells the client about the world.
type Info struct {
	WorldID  string
	Params   protocol.WorldParams
	Catalogs map[string]string
	Regions  []string
}

// Server runs one edit session per connection. Requests on a connection are
// handled in order; the editor serializes access to the world across
// connections.
type Server struct {
	editor *edit.Editor
	info   Info
	log    *log.Logger

	upgrader websocket.Upgrader

	mu     sync.Mutex
	actors map[string]struct{}
}

func NewServer(e *edit.Editor, info Info, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		editor: e,
		info:   info,
		log:    logger,
		actors: map[string]struct{}{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		actorID := s.handshake(r.Context(), conn)
		if actorID == "" {
			return
		}
		defer s.release(actorID)
		s.log.Printf("session open actor=%s remote=%s", actorID, r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		out := make(chan []byte, 16)
		done := make(chan struct{})

		// Writer goroutine.
		go func() {
			defer close(done)
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			b, err := json.Marshal(s.handle(ctx, actorID, msg))
			if err != nil {
				continue
			}
			select {
			case out <- b:
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				break
			}
		}
		cancel()
		<-done
		s.log.Printf("session closed actor=%s", actorID)
	}
}

// Sessions reports the number of connected actors.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.actors)
}

func (s *Server) claim(actorID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.actors[actorID]; busy {
		return false
	}
	s.actors[actorID] = struct{}{}
	return true
}

func (s *Server) release(actorID string) {
	s.mu.Lock()
	delete(s.actors, actorID)
	s.mu.Unlock()
}

func (s *Server) handshake(ctx context.Context, conn *websocket.Conn) string {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return ""
	}

	reject := func(reason string) string {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
		return ""
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		return reject("expected HELLO")
	}
	if err := protocol.Validate(protocol.TypeHello, msg); err != nil {
		return reject("bad HELLO")
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return reject("bad HELLO")
	}
	if hello.ProtocolVersion != protocol.Version {
		return reject("bad protocol_version")
	}
	if !s.claim(hello.ActorID) {
		return reject("actor already connected")
	}

	d, err := s.editor.Depths(ctx, hello.ActorID)
	if err != nil {
		s.release(hello.ActorID)
		return reject("internal error")
	}
	params := s.info.Params
	params.UndoDepth, params.RedoDepth = d.Undo, d.Redo
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		ActorID:         hello.ActorID,
		WorldID:         s.info.WorldID,
		World:           params,
		Catalogs:        s.info.Catalogs,
		Regions:         s.info.Regions,
	}
	if err := writeJSON(conn, welcome); err != nil {
		s.release(hello.ActorID)
		return ""
	}
	return hello.ActorID
}

// handle answers one request with a RESULT or an ERROR.
func (s *Server) handle(ctx context.Context, actorID string, msg []byte) any {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return errorMsg(base, protocol.ErrProtoBadRequest, "invalid json", 0)
	}
	if !protocol.IsRequest(base.Type) {
		return errorMsg(base, protocol.ErrProtoBadRequest, fmt.Sprintf("unexpected message type %q", base.Type), 0)
	}
	if err := protocol.Validate(base.Type, msg); err != nil {
		return errorMsg(base, protocol.ErrProtoBadRequest, err.Error(), 0)
	}

	res := protocol.ResultMsg{Type: protocol.TypeResult, ProtocolVersion: protocol.Version, ReqID: base.ID, For: base.Type}
	switch base.Type {
	case protocol.TypeWand:
		var m protocol.WandMsg
		_ = json.Unmarshal(msg, &m)
		sel, err := s.editor.Wand(actorID, m.X, m.Y, m.Filter)
		if err != nil {
			return s.fail(base, actorID, err, 0)
		}
		r, mask := sel.Mask()
		res.Count = sel.Len()
		res.Selection = &protocol.SelectionMsg{Rect: toRect(r), Size: sel.Len(), Mask: mask}

	case protocol.TypeClearWand:
		s.editor.ClearWand(actorID)

	case protocol.TypeCount:
		var m protocol.CountMsg
		_ = json.Unmarshal(msg, &m)
		n, err := s.editor.Count(fromRect(m.Rect), m.Filter)
		if err != nil {
			return s.fail(base, actorID, err, 0)
		}
		res.Count = n

	case protocol.TypeFill:
		var m protocol.FillMsg
		_ = json.Unmarshal(msg, &m)
		layer := edit.LayerTile
		if m.Layer == "wall" {
			layer = edit.LayerWall
		}
		target, err := s.editor.ResolveTarget(layer, m.Target)
		if err != nil {
			return s.fail(base, actorID, err, 0)
		}
		fr, err := s.editor.Fill(ctx, actorID, fromRect(m.Rect), target, m.Filter)
		if err != nil {
			return s.fail(base, actorID, err, 0)
		}
		r := toRect(fr.Rect)
		res.Changed, res.Rect = fr.Changed, &r

	case protocol.TypeUndo, protocol.TypeRedo:
		var m protocol.StepsMsg
		_ = json.Unmarshal(msg, &m)
		step := s.editor.Undo
		if base.Type == protocol.TypeRedo {
			step = s.editor.Redo
		}
		n, err := step(ctx, actorID, m.Steps)
		if err != nil && n == 0 {
			return s.fail(base, actorID, err, n)
		}
		if err != nil && codeFor(err) == protocol.ErrInternal {
			s.log.Printf("%s actor=%s stopped after %d steps: %v", base.Type, actorID, n, err)
		}
		// A batch that ran at least one step succeeded; Steps tells how far.
		res.Steps = n
	}

	if d, err := s.editor.Depths(ctx, actorID); err == nil {
		res.UndoDepth, res.RedoDepth = d.Undo, d.Redo
	}
	return res
}

func (s *Server) fail(base protocol.BaseMessage, actorID string, err error, steps int) protocol.ErrorMsg {
	code := codeFor(err)
	if code == protocol.ErrInternal {
		s.log.Printf("%s actor=%s: %v", base.Type, actorID, err)
	}
	return errorMsg(base, code, err.Error(), steps)
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, expr.ErrSyntax):
		return protocol.ErrSyntax
	case errors.Is(err, wand.ErrSelectionTooLarge):
		return protocol.ErrSelectionTooLarge
	case errors.Is(err, history.ErrNothingToUndo):
		return protocol.ErrNothingToUndo
	case errors.Is(err, history.ErrNothingToRedo):
		return protocol.ErrNothingToRedo
	case errors.Is(err, wand.ErrSeedRejected), errors.Is(err, edit.ErrBadTarget):
		return protocol.ErrBadRequest
	default:
		return protocol.ErrInternal
	}
}

func errorMsg(base protocol.BaseMessage, code, message string, steps int) protocol.ErrorMsg {
	return protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		ReqID:           base.ID,
		For:             base.Type,
		Code:            code,
		Message:         message,
		Steps:           steps,
	}
}

func fromRect(r protocol.Rect) tile.Rect { return tile.Rect{X: r.X, Y: r.Y, W: r.W, H: r.H} }

func toRect(r tile.Rect) protocol.Rect { return protocol.Rect{X: r.X, Y: r.Y, W: r.W, H: r.H} }

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
