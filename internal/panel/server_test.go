package panel

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dshills/modstorm/internal/settings"
	"github.com/dshills/modstorm/internal/workspace"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, workspace.ManifestFile), []byte("name = Rocket\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ws, err := workspace.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	flags, err := settings.New(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatal(err)
	}

	srv, err := NewServer(ws, flags)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return srv, ts
}

func TestServer_IndexEmbedsNonce(t *testing.T) {
	srv, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET / status = %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), srv.Session().Nonce()) {
		t.Error("panel shell does not embed the session nonce")
	}
}

func TestServer_WebSocketRequiresNonce(t *testing.T) {
	srv, ts := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")

	if _, resp, err := websocket.DefaultDialer.Dial(wsURL+"/ws?nonce=wrong", nil); err == nil {
		t.Error("dial with wrong nonce should fail")
	} else if resp != nil && resp.StatusCode != http.StatusForbidden {
		t.Errorf("wrong nonce status = %d, want 403", resp.StatusCode)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?nonce="+srv.Session().Nonce(), nil)
	if err != nil {
		t.Fatalf("dial with correct nonce failed: %v", err)
	}
	defer conn.Close()

	// The first message is the state snapshot.
	var out Outbound
	if err := conn.ReadJSON(&out); err != nil {
		t.Fatalf("reading initial state: %v", err)
	}
	if out.Type != MsgState || out.State == nil || out.State.Fields["name"] != "Rocket" {
		t.Errorf("initial message = %+v, want state snapshot", out)
	}
}

// A browser refresh reconnects while the old read loop may still be inside
// a save. The store must only ever see one goroutine, so edits from the new
// connection have to wait for the old loop's message to finish.
func TestServer_ReconnectSerializesStore(t *testing.T) {
	srv, ts := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	nonce := srv.Session().Nonce()

	conn1, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?nonce="+nonce, nil)
	if err != nil {
		t.Fatalf("first dial failed: %v", err)
	}
	defer conn1.Close()

	var state Outbound
	if err := conn1.ReadJSON(&state); err != nil {
		t.Fatal(err)
	}

	// Flood the first connection with saves so its read loop is busy when
	// the second connection arrives and the server closes it.
	flooding := make(chan struct{})
	go func() {
		defer close(flooding)
		for i := 0; i < 100; i++ {
			if err := conn1.WriteJSON(Inbound{Type: MsgSave}); err != nil {
				return
			}
		}
	}()

	conn2, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?nonce="+nonce, nil)
	if err != nil {
		t.Fatalf("reconnect dial failed: %v", err)
	}
	defer conn2.Close()

	if err := conn2.ReadJSON(&state); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 100; i++ {
		if err := conn2.WriteJSON(Inbound{Type: MsgSetField, Field: "author", Value: "dshills"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := conn2.WriteJSON(Inbound{Type: MsgSave}); err != nil {
		t.Fatal(err)
	}

	// Drain replies until the save confirmation; the race detector flags
	// any overlap between the two read loops' store access.
	conn2.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var out Outbound
		if err := conn2.ReadJSON(&out); err != nil {
			t.Fatalf("reading replies: %v", err)
		}
		if out.Type == MsgSaved {
			break
		}
	}
	<-flooding

	if got := srv.Session().Store().Author(); got != "dshills" {
		t.Errorf("Author() = %q after reconnect edits, want dshills", got)
	}
}

func TestServer_EditOverWebSocket(t *testing.T) {
	srv, ts := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?nonce="+srv.Session().Nonce(), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	var state Outbound
	if err := conn.ReadJSON(&state); err != nil {
		t.Fatal(err)
	}

	if err := conn.WriteJSON(Inbound{Type: MsgSetField, Field: "author", Value: "dshills"}); err != nil {
		t.Fatal(err)
	}

	var dirty Outbound
	if err := conn.ReadJSON(&dirty); err != nil {
		t.Fatal(err)
	}
	if dirty.Type != MsgDirty || !dirty.Dirty {
		t.Errorf("edit reply = %+v, want dirty true", dirty)
	}

	if err := conn.WriteJSON(Inbound{Type: MsgSave}); err != nil {
		t.Fatal(err)
	}

	var saved Outbound
	if err := conn.ReadJSON(&saved); err != nil {
		t.Fatal(err)
	}
	if saved.Type != MsgSaved {
		t.Errorf("save reply = %+v, want saved", saved)
	}
}
