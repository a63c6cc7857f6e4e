// Package wire defines the JSON documents exchanged with the external agent.
// These shapes are the binding compatibility contract: field names and nesting
// must be preserved exactly.
//
// The source history carried two spellings for the snapshot field
// (snapshot_name / snap_shot_name); snapshot_name is canonical here.
package wire

import (
	json "github.com/json-iterator/go"
)

// Operation type tags. The set is closed; anything else is rejected on load.
const (
	TypeBrowser = "browser"
	TypeLLM     = "llm"
	TypeExit    = "exit"
)

// BrowserEnvelope is the wire shape of one browser command:
// {"command_name": ..., "params": {...}}.
type BrowserEnvelope struct {
	CommandName string          `json:"command_name"`
	Params      json.RawMessage `json:"params"`
}

// LLMEnvelope is the wire shape of one LLM message:
// {"message_type": ..., "message": {...}}. Asymmetric with BrowserEnvelope on
// purpose; the agent dispatches on the outer key.
type LLMEnvelope struct {
	MessageType string          `json:"message_type"`
	Message     json.RawMessage `json:"message"`
}

// OperationDoc is one serialized operation: its type tag, settings map and the
// ordered command list in execution order.
type OperationDoc struct {
	Type        string            `json:"type"`
	Settings    map[string]any    `json:"settings"`
	CommandList []json.RawMessage `json:"command_list"`
}

// RunDocument is the batch submission root handed to `agent run`.
type RunDocument struct {
	SessionID  string         `json:"session_id"`
	Operations []OperationDoc `json:"operations"`
}

// LiveCommandDoc wraps a single command published into a live session's
// commands/ directory.
type LiveCommandDoc struct {
	Type        string            `json:"type"`
	CommandList []json.RawMessage `json:"command_list"`
}

// ExitDoc signals live-session termination when written as a command file.
type ExitDoc struct {
	Type string `json:"type"`
}

// CompletionDoc is the payload the agent writes to completion.json after a
// live LLM operation; the last entry of MessageList is the assistant reply.
type CompletionDoc struct {
	MessageList []LLMEnvelope `json:"message_list"`
}

// NodeDoc is one collected DOM node as written to nodeData.json.
type NodeDoc struct {
	XPath      string            `json:"xpath"`
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	Attributes map[string]string `json:"attributes"`
	CSSStyles  map[string]string `json:"css_styles"`
}
