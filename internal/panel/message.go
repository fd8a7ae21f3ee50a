package panel

// MessageType identifies a panel protocol message.
type MessageType string

// Inbound message types (panel client to session).
const (
	// MsgSetField edits one manifest field.
	MsgSetField MessageType = "setField"
	// MsgSave serializes the manifest and writes it to disk.
	MsgSave MessageType = "save"
	// MsgReload discards edits and re-reads the manifest from disk.
	MsgReload MessageType = "reload"
	// MsgToggleSetting flips an editor configuration flag.
	MsgToggleSetting MessageType = "toggleSetting"
	// MsgSetPreview copies a picked image into the workspace as the preview.
	MsgSetPreview MessageType = "setPreview"
)

// Outbound message types (session to panel client).
const (
	// MsgState carries a full panel state snapshot.
	MsgState MessageType = "state"
	// MsgDirty carries only the unsaved-changes flag.
	MsgDirty MessageType = "dirty"
	// MsgSaved confirms a successful save.
	MsgSaved MessageType = "saved"
	// MsgNotify carries a user-facing notification.
	MsgNotify MessageType = "notify"
)

// NotificationLevel represents the severity of a notification.
type NotificationLevel string

const (
	// NotifyInfo is an informational notification.
	NotifyInfo NotificationLevel = "info"
	// NotifyError is an error notification.
	NotifyError NotificationLevel = "error"
	// NotifySuccess is a success notification.
	NotifySuccess NotificationLevel = "success"
)

// Inbound is a message from the panel client.
type Inbound struct {
	Type MessageType `json:"type"`

	// Field and Value for setField.
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`

	// Flag for toggleSetting.
	Flag string `json:"flag,omitempty"`

	// Path for setPreview (absolute path of the picked image).
	Path string `json:"path,omitempty"`
}

// Outbound is a message to the panel client.
type Outbound struct {
	Type MessageType `json:"type"`

	// State for state messages.
	State *State `json:"state,omitempty"`

	// Dirty for dirty messages. Serialized unconditionally: a false value
	// is meaningful (it clears the panel's unsaved marker).
	Dirty bool `json:"dirty"`

	// Level and Message for notify messages.
	Level   NotificationLevel `json:"level,omitempty"`
	Message string            `json:"message,omitempty"`
}

// State is a full snapshot of what the panel displays.
type State struct {
	// Title is the panel title; a "●" suffix marks unsaved changes.
	Title string `json:"title"`

	// Fields maps manifest field keys to their current string values.
	Fields map[string]string `json:"fields"`

	// Dirty reports unsaved manifest changes.
	Dirty bool `json:"dirty"`

	// Settings maps flag paths to their current values.
	Settings map[string]bool `json:"settings"`

	// Preview is the preview image path, empty when none exists.
	Preview string `json:"preview,omitempty"`
}

func notifyError(message string) Outbound {
	return Outbound{Type: MsgNotify, Level: NotifyError, Message: message}
}

func notifyInfo(message string) Outbound {
	return Outbound{Type: MsgNotify, Level: NotifyInfo, Message: message}
}

func notifySuccess(message string) Outbound {
	return Outbound{Type: MsgNotify, Level: NotifySuccess, Message: message}
}
