package ws

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"worldedit.ai/internal/persistence/history"
	"worldedit.ai/internal/protocol"
	"worldedit.ai/internal/sim/catalogs"
	"worldedit.ai/internal/sim/edit"
	"worldedit.ai/internal/sim/tile"
	"worldedit.ai/internal/sim/world/terrain/store"
	genpkg "worldedit.ai/internal/sim/world/terrain/gen"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cats, err := catalogs.Load(filepath.Join("..", "..", "..", "configs", "catalogs"))
	if err != nil {
		t.Fatalf("catalogs.Load: %v", err)
	}
	w, err := store.NewChunkStore(32, 32, genpkg.DefaultParams(3, 32), nil)
	if err != nil {
		t.Fatalf("NewChunkStore: %v", err)
	}
	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			var tl tile.Tile
			tl.Place(1)
			w.SetTile(x, y, tl)
		}
	}
	h, err := history.New(history.Options{Dir: t.TempDir(), WorldID: "w1", Counters: history.NewMemoryCounters()})
	if err != nil {
		t.Fatalf("history.New: %v", err)
	}
	e, err := edit.New(edit.Options{World: w, History: h, Catalogs: cats, WandLimit: 100})
	if err != nil {
		t.Fatalf("edit.New: %v", err)
	}
	srv := NewServer(e, Info{WorldID: "w1", Params: protocol.WorldParams{Width: 32, Height: 32, WandTileLimit: 100}}, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func recv(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
}

func hello(t *testing.T, conn *websocket.Conn, actor string) protocol.WelcomeMsg {
	t.Helper()
	send(t, conn, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ActorID: actor})
	var w protocol.WelcomeMsg
	recv(t, conn, &w)
	if w.Type != protocol.TypeWelcome || w.ActorID != actor {
		t.Fatalf("welcome: %+v", w)
	}
	return w
}

func TestSessionFillUndoRedo(t *testing.T) {
	ts := newTestServer(t)
	conn := dial(t, ts)
	w := hello(t, conn, "alice")
	if w.WorldID != "w1" || w.World.Width != 32 {
		t.Fatalf("welcome params: %+v", w)
	}

	send(t, conn, protocol.FillMsg{Type: protocol.TypeFill, ID: "f1", Rect: protocol.Rect{W: 4, H: 4}, Target: "dirt"})
	var res protocol.ResultMsg
	recv(t, conn, &res)
	if res.Type != protocol.TypeResult || res.ReqID != "f1" || res.Changed != 16 || res.UndoDepth != 1 {
		t.Fatalf("fill result: %+v", res)
	}

	send(t, conn, protocol.CountMsg{Type: protocol.TypeCount, ID: "c1", Rect: protocol.Rect{W: 32, H: 32}, Filter: "t=dirt"})
	res = protocol.ResultMsg{}
	recv(t, conn, &res)
	if res.Count != 16 {
		t.Fatalf("count after fill: %+v", res)
	}

	send(t, conn, protocol.StepsMsg{Type: protocol.TypeUndo, ID: "u1"})
	res = protocol.ResultMsg{}
	recv(t, conn, &res)
	if res.Steps != 1 || res.UndoDepth != 0 || res.RedoDepth != 1 {
		t.Fatalf("undo result: %+v", res)
	}

	send(t, conn, protocol.StepsMsg{Type: protocol.TypeUndo, ID: "u2", Steps: 3})
	var e protocol.ErrorMsg
	recv(t, conn, &e)
	if e.Type != protocol.TypeError || e.Code != protocol.ErrNothingToUndo || e.ReqID != "u2" {
		t.Fatalf("second undo: %+v", e)
	}

	send(t, conn, protocol.StepsMsg{Type: protocol.TypeRedo, ID: "r1"})
	res = protocol.ResultMsg{}
	recv(t, conn, &res)
	if res.Steps != 1 || res.UndoDepth != 1 {
		t.Fatalf("redo result: %+v", res)
	}
}

func TestPartialUndoBatchIsResult(t *testing.T) {
	ts := newTestServer(t)
	conn := dial(t, ts)
	hello(t, conn, "bruno")

	for i, target := range []string{"dirt", "stone"} {
		send(t, conn, protocol.FillMsg{Type: protocol.TypeFill, ID: fmt.Sprintf("f%d", i), Rect: protocol.Rect{W: 2, H: 2}, Target: target})
		var res protocol.ResultMsg
		recv(t, conn, &res)
		if res.Type != protocol.TypeResult {
			t.Fatalf("fill %d: %+v", i, res)
		}
	}

	send(t, conn, protocol.StepsMsg{Type: protocol.TypeUndo, ID: "u", Steps: 5})
	var res protocol.ResultMsg
	recv(t, conn, &res)
	if res.Type != protocol.TypeResult || res.ReqID != "u" || res.Steps != 2 || res.UndoDepth != 0 || res.RedoDepth != 2 {
		t.Fatalf("partial undo batch: %+v", res)
	}
}

func TestSessionErrors(t *testing.T) {
	ts := newTestServer(t)
	conn := dial(t, ts)
	hello(t, conn, "bob")

	cases := []struct {
		name string
		msg  any
		code string
	}{
		{"syntax", protocol.CountMsg{Type: protocol.TypeCount, Rect: protocol.Rect{W: 1, H: 1}, Filter: "t=dirt ||"}, protocol.ErrSyntax},
		{"too large", protocol.WandMsg{Type: protocol.TypeWand, X: 0, Y: 0}, protocol.ErrSelectionTooLarge},
		{"seed rejected", protocol.WandMsg{Type: protocol.TypeWand, X: 0, Y: 0, Filter: "t=dirt"}, protocol.ErrBadRequest},
		{"unknown target", protocol.FillMsg{Type: protocol.TypeFill, Rect: protocol.Rect{W: 1, H: 1}, Target: "unobtainium"}, protocol.ErrBadRequest},
		{"schema", map[string]any{"type": protocol.TypeFill, "rect": map[string]int{"x": 0}}, protocol.ErrProtoBadRequest},
		{"unknown type", map[string]any{"type": "SMITE"}, protocol.ErrProtoBadRequest},
		{"nothing to redo", protocol.StepsMsg{Type: protocol.TypeRedo}, protocol.ErrNothingToRedo},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			send(t, conn, tc.msg)
			var e protocol.ErrorMsg
			recv(t, conn, &e)
			if e.Type != protocol.TypeError || e.Code != tc.code {
				t.Fatalf("got %+v want code %s", e, tc.code)
			}
		})
	}
}

func TestDuplicateActorRejected(t *testing.T) {
	ts := newTestServer(t)
	first := dial(t, ts)
	hello(t, first, "carol")

	second := dial(t, ts)
	send(t, second, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ActorID: "carol"})
	_ = second.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := second.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy close, got %v", err)
	}
}

func TestWandSelectionMask(t *testing.T) {
	ts := newTestServer(t)
	conn := dial(t, ts)
	hello(t, conn, "dave")

	send(t, conn, protocol.FillMsg{Type: protocol.TypeFill, Rect: protocol.Rect{X: 2, Y: 2, W: 3, H: 2}, Target: "dirt"})
	var res protocol.ResultMsg
	recv(t, conn, &res)

	send(t, conn, protocol.WandMsg{Type: protocol.TypeWand, X: 3, Y: 3, Filter: "t=dirt"})
	res = protocol.ResultMsg{}
	recv(t, conn, &res)
	if res.Selection == nil || res.Selection.Size != 6 || res.Selection.Rect != (protocol.Rect{X: 2, Y: 2, W: 3, H: 2}) {
		t.Fatalf("wand result: %+v", res)
	}

	send(t, conn, protocol.ClearWandMsg{Type: protocol.TypeClearWand})
	res = protocol.ResultMsg{}
	recv(t, conn, &res)
	if res.Type != protocol.TypeResult || res.For != protocol.TypeClearWand {
		t.Fatalf("clear wand: %+v", res)
	}
}
