// Package panel implements the mod settings/info panel.
//
// The panel is a small local web UI served on the loopback interface. The
// HTML shell connects back over a websocket guarded by a per-session nonce
// and exchanges JSON messages with the session: field edits flow in, state
// snapshots and notifications flow out. Each open panel owns exactly one
// manifest store; all store access happens on the session's message
// goroutine.
package panel
