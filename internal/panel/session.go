package panel

import (
	"errors"

	"github.com/google/uuid"

	"github.com/dshills/modstorm/internal/manifest"
	"github.com/dshills/modstorm/internal/settings"
	"github.com/dshills/modstorm/internal/workspace"
)

// Session ties one open panel to one manifest store. Handle is called from
// a single message goroutine; the store is never touched concurrently.
//
// A failed save reports an error and leaves the store untouched, so the
// user's edits survive and the save can be retried.
type Session struct {
	ws    *workspace.Workspace
	store *manifest.Store
	flags *settings.Registry
	nonce string
}

// NewSession opens the workspace manifest and parses it into a fresh store.
func NewSession(ws *workspace.Workspace, flags *settings.Registry) (*Session, error) {
	raw, err := ws.ReadManifest()
	if err != nil {
		return nil, err
	}

	return &Session{
		ws:    ws,
		store: manifest.Parse(raw),
		flags: flags,
		nonce: uuid.NewString(),
	}, nil
}

// Nonce returns the websocket connect token for this session.
func (s *Session) Nonce() string {
	return s.nonce
}

// Store returns the session's manifest store.
func (s *Session) Store() *manifest.Store {
	return s.store
}

// State builds a full snapshot message for the panel client.
func (s *Session) State() Outbound {
	fields := make(map[string]string, len(manifest.Keys()))
	for _, k := range manifest.Keys() {
		fields[k.String()] = s.store.Field(k)
	}

	flagValues := make(map[string]bool)
	for _, f := range s.flags.Flags() {
		flagValues[f.Path] = s.flags.Get(f.Path)
	}

	preview, err := s.ws.Preview()
	if err != nil {
		preview = ""
	}

	return Outbound{
		Type: MsgState,
		State: &State{
			Title:    s.title(),
			Fields:   fields,
			Dirty:    s.store.Dirty(),
			Settings: flagValues,
			Preview:  preview,
		},
	}
}

// title renders the panel title with the unsaved-changes marker.
func (s *Session) title() string {
	title := "Mod: " + s.store.Name()
	if s.store.Name() == "" {
		title = "Mod"
	}
	if s.store.Dirty() {
		title += " ●"
	}
	return title
}

// Handle processes one inbound message and returns the messages to send
// back. Unknown message types and unrecognized field keys are ignored
// without mutating any state.
func (s *Session) Handle(in Inbound) []Outbound {
	switch in.Type {
	case MsgSetField:
		return s.handleSetField(in)
	case MsgSave:
		return s.handleSave()
	case MsgReload:
		return s.handleReload()
	case MsgToggleSetting:
		return s.handleToggle(in)
	case MsgSetPreview:
		return s.handleSetPreview(in)
	default:
		return nil
	}
}

func (s *Session) handleSetField(in Inbound) []Outbound {
	key, ok := manifest.ParseFieldKey(in.Field)
	if !ok {
		return nil
	}

	s.store.SetField(key, in.Value)
	return []Outbound{{Type: MsgDirty, Dirty: s.store.Dirty()}}
}

func (s *Session) handleSave() []Outbound {
	if err := s.ws.WriteManifest(s.store.Serialize()); err != nil {
		return []Outbound{notifyError("save failed: " + err.Error())}
	}

	s.store.Commit()
	return []Outbound{
		{Type: MsgSaved},
		{Type: MsgDirty, Dirty: false},
		notifySuccess(workspace.ManifestFile + " saved"),
	}
}

func (s *Session) handleReload() []Outbound {
	raw, err := s.ws.ReadManifest()
	if err != nil {
		return []Outbound{notifyError("reload failed: " + err.Error())}
	}

	s.store = manifest.Parse(raw)
	return []Outbound{s.State()}
}

func (s *Session) handleToggle(in Inbound) []Outbound {
	if _, err := s.flags.Toggle(in.Flag); err != nil {
		if errors.Is(err, settings.ErrUnknownFlag) {
			return nil
		}
		return []Outbound{notifyError("settings update failed: " + err.Error())}
	}
	return []Outbound{s.State()}
}

func (s *Session) handleSetPreview(in Inbound) []Outbound {
	if err := s.ws.SetPreview(in.Path); err != nil {
		return []Outbound{notifyError("preview update failed: " + err.Error())}
	}
	return []Outbound{s.State()}
}

// ExternalChange builds the notification sent when the manifest is modified
// outside the editor while the panel is open.
func (s *Session) ExternalChange() Outbound {
	return notifyInfo("mod.txt changed on disk; reload to pick up external edits")
}
