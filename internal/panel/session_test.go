package panel

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/modstorm/internal/settings"
	"github.com/dshills/modstorm/internal/workspace"
)

func newTestSession(t *testing.T, manifestText string) (*Session, *workspace.Workspace) {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, workspace.ManifestFile), []byte(manifestText), 0o644); err != nil {
		t.Fatal(err)
	}

	ws, err := workspace.Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	flags, err := settings.New(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("settings.New failed: %v", err)
	}

	session, err := NewSession(ws, flags)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	return session, ws
}

func TestSession_StateSnapshot(t *testing.T) {
	session, _ := newTestSession(t, "name = Rocket\nauthor = dshills\nversion = 2\n")

	out := session.State()
	if out.Type != MsgState || out.State == nil {
		t.Fatalf("State() = %+v", out)
	}

	if out.State.Title != "Mod: Rocket" {
		t.Errorf("title = %q, want %q", out.State.Title, "Mod: Rocket")
	}
	if out.State.Dirty {
		t.Error("fresh session should not be dirty")
	}
	if got := out.State.Fields["version"]; got != "2" {
		t.Errorf("version field = %q, want 2", got)
	}
	if len(out.State.Settings) == 0 {
		t.Error("state is missing settings flags")
	}
}

func TestSession_SetFieldMarksDirty(t *testing.T) {
	session, _ := newTestSession(t, "name = Rocket\n")

	out := session.Handle(Inbound{Type: MsgSetField, Field: "name", Value: "Rocket II"})
	if len(out) != 1 || out[0].Type != MsgDirty || !out[0].Dirty {
		t.Fatalf("Handle = %+v, want dirty true", out)
	}

	if !strings.HasSuffix(session.State().State.Title, "●") {
		t.Errorf("dirty title missing marker: %q", session.State().State.Title)
	}
}

func TestSession_UnknownFieldIgnored(t *testing.T) {
	session, _ := newTestSession(t, "name = Rocket\n")

	if out := session.Handle(Inbound{Type: MsgSetField, Field: "license", Value: "MIT"}); out != nil {
		t.Errorf("unknown field produced output: %+v", out)
	}
	if session.Store().Dirty() {
		t.Error("unknown field mutated the store")
	}
}

func TestSession_UnknownMessageIgnored(t *testing.T) {
	session, _ := newTestSession(t, "name = Rocket\n")

	if out := session.Handle(Inbound{Type: "teleport"}); out != nil {
		t.Errorf("unknown message produced output: %+v", out)
	}
	if session.Store().Dirty() {
		t.Error("unknown message mutated the store")
	}
}

func TestSession_SaveRoundTrip(t *testing.T) {
	session, ws := newTestSession(t, "# my mod\nname = Rocket\n")

	session.Handle(Inbound{Type: MsgSetField, Field: "name", Value: "Rocket II"})
	out := session.Handle(Inbound{Type: MsgSave})

	if len(out) != 3 || out[0].Type != MsgSaved || out[1].Type != MsgDirty || out[1].Dirty {
		t.Fatalf("save output = %+v", out)
	}
	if out[2].Type != MsgNotify || out[2].Level != NotifySuccess {
		t.Errorf("save notification = %+v, want success notify", out[2])
	}
	if session.Store().Dirty() {
		t.Error("store still dirty after save")
	}

	raw, err := ws.ReadManifest()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(raw, "# my mod\n") {
		t.Errorf("comment not preserved: %q", raw)
	}
	if !strings.Contains(raw, "name = Rocket II\n") {
		t.Errorf("edit not saved: %q", raw)
	}
}

func TestSession_SaveFailureKeepsEdits(t *testing.T) {
	session, ws := newTestSession(t, "name = Rocket\n")

	// Remove the workspace directory so the atomic write fails.
	if err := os.RemoveAll(ws.Root()); err != nil {
		t.Fatal(err)
	}

	session.Handle(Inbound{Type: MsgSetField, Field: "name", Value: "Rocket II"})
	out := session.Handle(Inbound{Type: MsgSave})

	if len(out) != 1 || out[0].Type != MsgNotify || out[0].Level != NotifyError {
		t.Fatalf("save output = %+v, want error notification", out)
	}
	if got := session.Store().Name(); got != "Rocket II" {
		t.Errorf("edit lost after failed save: Name() = %q", got)
	}
	if !session.Store().Dirty() {
		t.Error("store should remain dirty after failed save")
	}
}

func TestSession_ReloadDiscardsEdits(t *testing.T) {
	session, _ := newTestSession(t, "name = Rocket\n")

	session.Handle(Inbound{Type: MsgSetField, Field: "name", Value: "Scrapped"})
	out := session.Handle(Inbound{Type: MsgReload})

	if len(out) != 1 || out[0].Type != MsgState {
		t.Fatalf("reload output = %+v", out)
	}
	if got := session.Store().Name(); got != "Rocket" {
		t.Errorf("Name() = %q after reload, want Rocket", got)
	}
	if session.Store().Dirty() {
		t.Error("reloaded store should not be dirty")
	}
}

func TestSession_ToggleSetting(t *testing.T) {
	session, _ := newTestSession(t, "name = Rocket\n")

	out := session.Handle(Inbound{Type: MsgToggleSetting, Flag: settings.FlagFormatOnSave})
	if len(out) != 1 || out[0].Type != MsgState {
		t.Fatalf("toggle output = %+v", out)
	}
	if !out[0].State.Settings[settings.FlagFormatOnSave] {
		t.Error("flag not flipped in state")
	}

	// Unknown flags are ignored, matching unknown message handling.
	if out := session.Handle(Inbound{Type: MsgToggleSetting, Flag: "bogus"}); out != nil {
		t.Errorf("unknown flag produced output: %+v", out)
	}
}

func TestSession_VersionEditFallback(t *testing.T) {
	session, _ := newTestSession(t, "version = 5\n")

	session.Handle(Inbound{Type: MsgSetField, Field: "version", Value: "not-a-number"})
	if got := session.Store().Version(); got != 5 {
		t.Errorf("Version() = %d after bad input, want previous value 5", got)
	}
	if session.Store().Dirty() {
		t.Error("rejected version edit should not dirty the store")
	}
}

func TestSession_NonceUnique(t *testing.T) {
	a, _ := newTestSession(t, "")
	b, _ := newTestSession(t, "")

	if a.Nonce() == "" || a.Nonce() == b.Nonce() {
		t.Errorf("nonces not unique: %q vs %q", a.Nonce(), b.Nonce())
	}
}
